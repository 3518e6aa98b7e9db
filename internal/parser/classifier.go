package parser

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"go.uber.org/zap"

	"docparse/internal/domain"
	"docparse/internal/logger"
	"docparse/internal/metrics"
	"docparse/internal/port"
)

// Classifier decides a document's type against a closed taxonomy. It never
// returns an error: any failure degrades to {UNKNOWN, 0}.
type Classifier struct {
	gateway port.Gateway
	log     *zap.Logger
	metrics *metrics.Recorder
}

// NewClassifier creates a Classifier backed by gw. log and m may be nil.
func NewClassifier(gw port.Gateway, log *zap.Logger, m *metrics.Recorder) *Classifier {
	return &Classifier{
		gateway: gw,
		log:     logger.OrNop(log),
		metrics: m,
	}
}

// ClassifyInvoice classifies doc against the invoice taxonomy.
func (c *Classifier) ClassifyInvoice(ctx context.Context, doc *domain.Document) domain.Classification {
	return c.Classify(ctx, domain.InvoiceTaxonomy, doc)
}

// Classify classifies doc against tx. A nil doc is treated as empty.
func (c *Classifier) Classify(ctx context.Context, tx domain.Taxonomy, doc *domain.Document) domain.Classification {
	start := time.Now()
	if doc == nil {
		doc = &domain.Document{}
	}

	result, outcome, err := c.classify(ctx, tx, doc)
	if err != nil {
		c.log.Warn("classifier: degraded to UNKNOWN",
			zap.String("document_id", doc.ID),
			zap.String("taxonomy", tx.Name),
			zap.Error(err),
		)
		result, outcome = domain.UnknownClassification(), metrics.OutcomeDegraded
	}

	c.metrics.ObserveClassification(tx.Name, result.Type, outcome, time.Since(start))
	c.log.Debug("classifier: classified",
		zap.String("document_id", doc.ID),
		zap.String("taxonomy", tx.Name),
		zap.String("type", string(result.Type)),
		zap.Float64("confidence", result.Confidence),
		zap.String("outcome", outcome),
	)
	return result
}

func (c *Classifier) classify(ctx context.Context, tx domain.Taxonomy, doc *domain.Document) (domain.Classification, string, error) {
	if doc.IsEmpty() {
		return domain.Classification{}, "", errors.New("document has no content")
	}

	completion, err := c.gateway.Complete(ctx, port.CompletionRequest{
		Instructions:  BuildClassificationPrompt(tx),
		Text:          doc.Text,
		Image:         doc.Image,
		MimeType:      doc.MimeType,
		JSONOutput:    true,
		Deterministic: true,
	})
	if err != nil {
		return domain.Classification{}, "", fmt.Errorf("calling gateway: %w", err)
	}
	if completion == nil || strings.TrimSpace(completion.Content) == "" {
		return domain.Classification{}, "", domain.ErrNoContent
	}

	var reply map[string]any
	if err := json.Unmarshal([]byte(completion.Content), &reply); err != nil {
		return domain.Classification{}, "", fmt.Errorf("%w: %v (raw: %s)", domain.ErrMalformedResponse, err, Truncate(completion.Content, 200))
	}

	result, coerced := coerceClassification(tx, reply)
	outcome := metrics.OutcomeOK
	if coerced {
		outcome = metrics.OutcomeCoerced
	}
	return result, outcome, nil
}

// coerceClassification applies the validation policy to a decoded reply:
// an out-of-taxonomy type becomes UNKNOWN with confidence 0, and a confidence
// that is not a number in [0,1] becomes 0.
func coerceClassification(tx domain.Taxonomy, reply map[string]any) (domain.Classification, bool) {
	label, _ := reply["type"].(string)
	t, member := tx.Lookup(label)
	confidence, valid := validConfidence(reply["confidence"])
	if !member {
		confidence = 0
	}
	coerced := !member || !valid

	return domain.Classification{
		Type:          t,
		Confidence:    confidence,
		PossibleTypes: coercePossibleTypes(tx, t, reply["possibleTypes"]),
		Metadata:      coerceMetadata(reply["metadata"]),
	}, coerced
}

func validConfidence(v any) (float64, bool) {
	f, ok := v.(float64)
	if !ok || math.IsNaN(f) || f < 0 || f > 1 {
		return 0, false
	}
	return f, true
}

func coercePossibleTypes(tx domain.Taxonomy, chosen domain.DocumentType, v any) []domain.DocumentType {
	raw, ok := v.([]any)
	if !ok {
		return nil
	}
	seen := map[domain.DocumentType]bool{chosen: true}
	var out []domain.DocumentType
	for _, item := range raw {
		label, ok := item.(string)
		if !ok {
			continue
		}
		t, ok := tx.Lookup(label)
		if !ok || seen[t] {
			continue
		}
		seen[t] = true
		out = append(out, t)
	}
	return out
}

func coerceMetadata(v any) map[string]string {
	raw, ok := v.(map[string]any)
	if !ok || len(raw) == 0 {
		return nil
	}
	out := make(map[string]string, len(raw))
	for k, val := range raw {
		if s, ok := val.(string); ok {
			out[k] = s
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}
