package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"docparse/internal/config"
	"docparse/internal/domain"
	"docparse/internal/metrics"
	"docparse/internal/parser"
	"docparse/internal/port"
)

// BatchOptions tunes one batch run.
type BatchOptions struct {
	// Concurrency bounds the number of documents in flight; <= 0 uses the
	// configured default.
	Concurrency int
	// Extract enables the extraction stage for invoice-family documents.
	Extract bool
	// Taxonomy used for type detection. The zero value means DetectionTaxonomy.
	Taxonomy domain.Taxonomy
}

// BatchService runs many documents through detection and extraction with
// per-document failure isolation. It never returns an error: every failure is
// captured in the corresponding BatchResult.
type BatchService interface {
	ProcessAll(ctx context.Context, locations []string, opts BatchOptions) []domain.BatchResult
	ProcessDocuments(ctx context.Context, docs []domain.Document, opts BatchOptions) []domain.BatchResult
}

type batchService struct {
	*pipeline
	loader             port.DocumentLoader
	defaultConcurrency int
}

// NewBatchService creates a new BatchService. loader may be nil when only
// ProcessDocuments is used.
func NewBatchService(
	loader port.DocumentLoader,
	gw port.Gateway,
	selector *parser.StrategySelector,
	normalizer *parser.Normalizer,
	cfg config.BatchConfig,
	log *zap.Logger,
	m *metrics.Recorder,
) BatchService {
	concurrency := cfg.Concurrency
	if concurrency <= 0 {
		concurrency = 1
	}
	return &batchService{
		pipeline:           newPipeline(gw, selector, normalizer, log, m),
		loader:             loader,
		defaultConcurrency: concurrency,
	}
}

// DefaultBatchOptions returns options seeded from configuration.
func DefaultBatchOptions(cfg config.BatchConfig) BatchOptions {
	return BatchOptions{Concurrency: cfg.Concurrency, Extract: cfg.Extract}
}

type loadFunc func(ctx context.Context) (*domain.Document, error)

func (s *batchService) ProcessAll(ctx context.Context, locations []string, opts BatchOptions) []domain.BatchResult {
	loads := make([]loadFunc, len(locations))
	ids := make([]string, len(locations))
	for i, loc := range locations {
		loc := loc
		ids[i] = loc
		loads[i] = func(ctx context.Context) (*domain.Document, error) {
			if s.loader == nil {
				return nil, fmt.Errorf("no document loader configured for %s", loc)
			}
			return s.loader.Load(ctx, loc)
		}
	}
	return s.run(ctx, ids, loads, opts)
}

func (s *batchService) ProcessDocuments(ctx context.Context, docs []domain.Document, opts BatchOptions) []domain.BatchResult {
	loads := make([]loadFunc, len(docs))
	ids := make([]string, len(docs))
	for i := range docs {
		doc := docs[i]
		if doc.ID == "" {
			doc.ID = uuid.NewString()
		}
		ids[i] = doc.ID
		loads[i] = func(context.Context) (*domain.Document, error) {
			return &doc, nil
		}
	}
	return s.run(ctx, ids, loads, opts)
}

// run fans the items out under the concurrency limit. Results are written by
// index, so output order is input order regardless of completion order.
func (s *batchService) run(ctx context.Context, ids []string, loads []loadFunc, opts BatchOptions) []domain.BatchResult {
	limit := opts.Concurrency
	if limit <= 0 {
		limit = s.defaultConcurrency
	}
	tx := opts.Taxonomy
	if tx.Name == "" {
		tx = domain.DetectionTaxonomy
	}

	start := time.Now()
	s.log.Info("batchService.run: starting",
		zap.Int("documents", len(ids)),
		zap.Int("concurrency", limit),
		zap.Bool("extract", opts.Extract),
		zap.String("taxonomy", tx.Name),
	)

	results := make([]domain.BatchResult, len(ids))
	var g errgroup.Group
	g.SetLimit(limit)
	for i := range ids {
		i := i
		g.Go(func() error {
			results[i] = s.processOne(ctx, ids[i], loads[i], tx, opts.Extract)
			return nil
		})
	}
	_ = g.Wait()

	failed := 0
	for i := range results {
		if !results[i].Succeeded() {
			failed++
		}
	}
	s.log.Info("batchService.run: finished",
		zap.Int("documents", len(ids)),
		zap.Int("failed", failed),
		zap.Duration("elapsed", time.Since(start)),
	)
	return results
}

// batchItem tracks one document through the lifecycle.
type batchItem struct {
	id    string
	state domain.DocumentState
}

func (it *batchItem) advance(to domain.DocumentState) {
	if !domain.CanTransition(it.state, to) {
		panic(fmt.Sprintf("illegal document transition %s -> %s", it.state, to))
	}
	it.state = to
}

func (it *batchItem) fail(err error) domain.BatchResult {
	return domain.BatchResult{
		ID:          it.id,
		State:       domain.StateFailed,
		FailedStage: it.state,
		Error:       err.Error(),
	}
}

// processOne is the isolation boundary for a single document: load, decode,
// classify and extract failures, and panics, all end as a FAILED result.
func (s *batchService) processOne(ctx context.Context, id string, load loadFunc, tx domain.Taxonomy, extract bool) (result domain.BatchResult) {
	item := &batchItem{id: id, state: domain.StatePending}
	log := s.log.With(zap.String("document_id", id))

	s.metrics.StartBatchDocument()
	defer func() {
		if r := recover(); r != nil {
			log.Error("batchService.processOne: recovered panic",
				zap.Any("panic", r),
				zap.String("stage", string(item.state)),
			)
			result = item.fail(fmt.Errorf("internal error: %v", r))
		}
		s.metrics.FinishBatchDocument(&result)
		if result.State == domain.StateFailed {
			log.Warn("batchService.processOne: document failed",
				zap.String("failed_stage", string(result.FailedStage)),
				zap.String("error", result.Error),
			)
		}
	}()

	doc, err := load(ctx)
	if err != nil {
		return item.fail(err)
	}
	if err := prepareDocument(doc); err != nil {
		return item.fail(err)
	}

	item.advance(domain.StateClassifying)
	cls := s.classifier.Classify(ctx, tx, doc)

	if !extract || cls.Type.IsLogistics() {
		item.advance(domain.StateSkippedExtraction)
		item.advance(domain.StateDone)
		log.Debug("batchService.processOne: extraction skipped",
			zap.String("type", string(cls.Type)),
			zap.Float64("confidence", cls.Confidence),
		)
		return domain.BatchResult{ID: id, State: item.state, Classification: &cls}
	}

	item.advance(domain.StateExtracting)
	rec, err := s.extract(ctx, doc, &cls)
	if err != nil {
		return item.fail(err)
	}
	item.advance(domain.StateDone)

	log.Debug("batchService.processOne: done",
		zap.String("type", string(cls.Type)),
		zap.Float64("confidence", cls.Confidence),
	)
	return domain.BatchResult{ID: id, State: item.state, Classification: &cls, Record: rec}
}
