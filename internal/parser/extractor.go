package parser

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"docparse/internal/domain"
	"docparse/internal/logger"
	"docparse/internal/metrics"
	"docparse/internal/port"
)

// RawRecord is the untyped JSON object returned by an extraction call.
type RawRecord map[string]any

// Extractor sends an extraction instruction plus document content to the
// gateway and decodes the reply into a RawRecord.
type Extractor struct {
	gateway port.Gateway
	log     *zap.Logger
	metrics *metrics.Recorder
}

// NewExtractor creates an Extractor backed by gw. log and m may be nil.
func NewExtractor(gw port.Gateway, log *zap.Logger, m *metrics.Recorder) *Extractor {
	return &Extractor{
		gateway: gw,
		log:     logger.OrNop(log),
		metrics: m,
	}
}

// Extract runs one extraction round trip. It fails with domain.ErrNoContent when
// the backend answers with nothing and domain.ErrMalformedResponse when the
// answer is not a JSON object; gateway errors are returned wrapped. A nil doc
// is sent as an empty one.
func (e *Extractor) Extract(ctx context.Context, doc *domain.Document, instruction string) (RawRecord, error) {
	start := time.Now()
	if doc == nil {
		doc = &domain.Document{}
	}

	raw, err := e.extract(ctx, doc, instruction)
	outcome := extractionOutcome(err)
	e.metrics.ObserveExtraction(outcome, time.Since(start))
	if err != nil {
		e.log.Warn("extractor: extraction failed",
			zap.String("document_id", doc.ID),
			zap.String("outcome", outcome),
			zap.Duration("elapsed", time.Since(start)),
			zap.Error(err),
		)
		return nil, err
	}

	e.log.Debug("extractor: extracted",
		zap.String("document_id", doc.ID),
		zap.Int("fields", len(raw)),
		zap.Duration("elapsed", time.Since(start)),
	)
	return raw, nil
}

func (e *Extractor) extract(ctx context.Context, doc *domain.Document, instruction string) (RawRecord, error) {
	completion, err := e.gateway.Complete(ctx, port.CompletionRequest{
		Instructions:  instruction,
		Text:          doc.Text,
		Image:         doc.Image,
		MimeType:      doc.MimeType,
		JSONOutput:    true,
		Deterministic: true,
	})
	if err != nil {
		return nil, fmt.Errorf("extraction request: %w", err)
	}
	if completion == nil || strings.TrimSpace(completion.Content) == "" {
		return nil, domain.ErrNoContent
	}

	var raw RawRecord
	if err := json.Unmarshal([]byte(completion.Content), &raw); err != nil || raw == nil {
		if err == nil {
			err = errors.New("reply is not a JSON object")
		}
		return nil, fmt.Errorf("%w: %v (raw: %s)", domain.ErrMalformedResponse, err, Truncate(completion.Content, 500))
	}
	return raw, nil
}

func extractionOutcome(err error) string {
	switch {
	case err == nil:
		return metrics.OutcomeOK
	case errors.Is(err, domain.ErrNoContent):
		return metrics.OutcomeNoContent
	case errors.Is(err, domain.ErrMalformedResponse):
		return metrics.OutcomeMalformed
	default:
		return metrics.OutcomeBackendError
	}
}
