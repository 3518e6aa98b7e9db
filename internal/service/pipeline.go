package service

import (
	"context"

	"go.uber.org/zap"

	"docparse/internal/domain"
	"docparse/internal/logger"
	"docparse/internal/metrics"
	"docparse/internal/parser"
	"docparse/internal/port"
)

// pipeline holds the stages shared by the single-document and batch services.
type pipeline struct {
	classifier *parser.Classifier
	selector   *parser.StrategySelector
	extractor  *parser.Extractor
	normalizer *parser.Normalizer
	log        *zap.Logger
	metrics    *metrics.Recorder
}

func newPipeline(
	gw port.Gateway,
	selector *parser.StrategySelector,
	normalizer *parser.Normalizer,
	log *zap.Logger,
	m *metrics.Recorder,
) *pipeline {
	log = logger.OrNop(log)
	if selector == nil {
		selector = parser.NewStrategySelector()
	}
	if normalizer == nil {
		normalizer = parser.NewNormalizer()
	}
	return &pipeline{
		classifier: parser.NewClassifier(gw, log, m),
		selector:   selector,
		extractor:  parser.NewExtractor(gw, log, m),
		normalizer: normalizer,
		log:        log,
		metrics:    m,
	}
}

// extract runs select, extract and normalize for a classified (or deliberately
// unclassified) document. Diagnostics are logged and counted, never returned.
func (p *pipeline) extract(ctx context.Context, doc *domain.Document, cls *domain.Classification) (*domain.ExtractedRecord, error) {
	strategy := p.selector.Select(cls)
	if cls != nil && cls.IsUncertain() {
		p.log.Info("pipeline: uncertain classification, extracting anyway",
			zap.String("document_id", doc.ID),
			zap.String("type", string(cls.Type)),
			zap.Float64("confidence", cls.Confidence),
		)
	}

	raw, err := p.extractor.Extract(ctx, doc, strategy.Instruction)
	if err != nil {
		return nil, err
	}

	rec, diags := p.normalizer.Normalize(raw, cls, strategy.Extension.FieldNames()...)
	for _, d := range diags {
		p.metrics.ObserveDiagnostic(d.Kind)
		p.log.Warn("pipeline: "+d.Message,
			zap.String("document_id", doc.ID),
			zap.String("kind", string(d.Kind)),
			zap.Strings("fields", d.Fields),
			zap.String("strategy", string(strategy.Type)),
		)
	}
	return rec, nil
}
