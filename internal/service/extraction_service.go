package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"docparse/internal/domain"
	"docparse/internal/metrics"
	"docparse/internal/parser"
	"docparse/internal/port"
)

// ParseOptions tunes a single-document extraction.
type ParseOptions struct {
	// SkipClassification extracts with the generic strategy and never calls
	// the classifier.
	SkipClassification bool
}

// ExtractionService is the single-document pipeline: classify, select a
// strategy, extract, normalize. Errors are returned to the caller.
type ExtractionService interface {
	Parse(ctx context.Context, doc *domain.Document, opts ParseOptions) (*domain.ExtractedRecord, error)
	ParseText(ctx context.Context, text string, opts ParseOptions) (*domain.ExtractedRecord, error)
	ParseImage(ctx context.Context, image []byte, mimeType string, opts ParseOptions) (*domain.ExtractedRecord, error)
	Classify(ctx context.Context, doc *domain.Document) (domain.Classification, error)
}

type extractionService struct {
	*pipeline
}

// NewExtractionService creates a new ExtractionService. A nil selector or
// normalizer gets the default; log and m may be nil.
func NewExtractionService(
	gw port.Gateway,
	selector *parser.StrategySelector,
	normalizer *parser.Normalizer,
	log *zap.Logger,
	m *metrics.Recorder,
) ExtractionService {
	return &extractionService{pipeline: newPipeline(gw, selector, normalizer, log, m)}
}

func (s *extractionService) Parse(ctx context.Context, doc *domain.Document, opts ParseOptions) (*domain.ExtractedRecord, error) {
	if err := prepareDocument(doc); err != nil {
		return nil, err
	}

	var cls *domain.Classification
	if !opts.SkipClassification {
		c := s.classifier.ClassifyInvoice(ctx, doc)
		cls = &c
	}

	return s.extract(ctx, doc, cls)
}

func (s *extractionService) ParseText(ctx context.Context, text string, opts ParseOptions) (*domain.ExtractedRecord, error) {
	if strings.TrimSpace(text) == "" {
		return nil, fmt.Errorf("%w: text is empty", domain.ErrInvalidInput)
	}
	return s.Parse(ctx, &domain.Document{ID: uuid.NewString(), Text: text}, opts)
}

func (s *extractionService) ParseImage(ctx context.Context, image []byte, mimeType string, opts ParseOptions) (*domain.ExtractedRecord, error) {
	if len(image) == 0 {
		return nil, fmt.Errorf("%w: image is empty", domain.ErrInvalidInput)
	}
	return s.Parse(ctx, &domain.Document{ID: uuid.NewString(), Image: image, MimeType: mimeType}, opts)
}

func (s *extractionService) Classify(ctx context.Context, doc *domain.Document) (domain.Classification, error) {
	if err := prepareDocument(doc); err != nil {
		return domain.Classification{}, err
	}
	return s.classifier.ClassifyInvoice(ctx, doc), nil
}

// prepareDocument rejects empty documents and settles the image MIME type.
func prepareDocument(doc *domain.Document) error {
	if doc == nil || doc.IsEmpty() {
		return fmt.Errorf("%w: document has no content", domain.ErrInvalidInput)
	}
	if !doc.IsImage() {
		return nil
	}
	mime := strings.ToLower(strings.TrimSpace(doc.MimeType))
	if mime == "" {
		mime = domain.DefaultImageContentType
	}
	if !domain.AllowedImageContentTypes[mime] {
		return fmt.Errorf("%w: %s", domain.ErrUnsupportedFileType, doc.MimeType)
	}
	doc.MimeType = mime
	return nil
}
