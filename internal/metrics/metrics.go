package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"docparse/internal/domain"
)

// Classification outcomes.
const (
	OutcomeOK       = "ok"
	OutcomeCoerced  = "coerced"
	OutcomeDegraded = "degraded"
)

// Extraction outcomes.
const (
	OutcomeNoContent    = "no_content"
	OutcomeMalformed    = "malformed"
	OutcomeBackendError = "backend_error"
)

// Recorder collects pipeline metrics on a private registry. A nil *Recorder
// records nothing, so components can run without metrics.
type Recorder struct {
	registry *prometheus.Registry

	classifications *prometheus.CounterVec
	extractions     *prometheus.CounterVec
	diagnostics     *prometheus.CounterVec
	batchDocuments  *prometheus.CounterVec
	stageDuration   *prometheus.HistogramVec
	batchInFlight   prometheus.Gauge
}

// New creates a Recorder with all collectors registered.
func New() *Recorder {
	registry := prometheus.NewRegistry()

	classifications := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "docparse",
			Subsystem: "pipeline",
			Name:      "classifications_total",
			Help:      "Classifications by taxonomy, decided type and outcome.",
		},
		[]string{"taxonomy", "type", "outcome"},
	)
	extractions := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "docparse",
			Subsystem: "pipeline",
			Name:      "extractions_total",
			Help:      "Extraction calls by outcome.",
		},
		[]string{"outcome"},
	)
	diagnostics := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "docparse",
			Subsystem: "pipeline",
			Name:      "diagnostics_total",
			Help:      "Non-fatal normalization diagnostics by kind.",
		},
		[]string{"kind"},
	)
	batchDocuments := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "docparse",
			Subsystem: "batch",
			Name:      "documents_total",
			Help:      "Batch documents by final state and failed stage.",
		},
		[]string{"state", "failed_stage"},
	)
	stageDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "docparse",
			Subsystem: "pipeline",
			Name:      "stage_duration_seconds",
			Help:      "Duration of backend round trips by pipeline stage.",
			Buckets:   []float64{0.1, 0.25, 0.5, 1, 2, 5, 10, 30, 60, 120},
		},
		[]string{"stage"},
	)
	batchInFlight := prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "docparse",
			Subsystem: "batch",
			Name:      "documents_in_flight",
			Help:      "Number of batch documents currently being processed.",
		},
	)

	registry.MustRegister(classifications, extractions, diagnostics, batchDocuments, stageDuration, batchInFlight)

	return &Recorder{
		registry:        registry,
		classifications: classifications,
		extractions:     extractions,
		diagnostics:     diagnostics,
		batchDocuments:  batchDocuments,
		stageDuration:   stageDuration,
		batchInFlight:   batchInFlight,
	}
}

// Registry exposes the underlying registry (tests gather from it).
func (r *Recorder) Registry() *prometheus.Registry {
	return r.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (r *Recorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{})
}

func (r *Recorder) ObserveClassification(taxonomy string, t domain.DocumentType, outcome string, d time.Duration) {
	if r == nil {
		return
	}
	r.classifications.WithLabelValues(taxonomy, string(t), outcome).Inc()
	r.stageDuration.WithLabelValues("classify").Observe(d.Seconds())
}

func (r *Recorder) ObserveExtraction(outcome string, d time.Duration) {
	if r == nil {
		return
	}
	r.extractions.WithLabelValues(outcome).Inc()
	r.stageDuration.WithLabelValues("extract").Observe(d.Seconds())
}

func (r *Recorder) ObserveDiagnostic(kind domain.DiagnosticKind) {
	if r == nil {
		return
	}
	r.diagnostics.WithLabelValues(string(kind)).Inc()
}

func (r *Recorder) StartBatchDocument() {
	if r == nil {
		return
	}
	r.batchInFlight.Inc()
}

func (r *Recorder) FinishBatchDocument(result *domain.BatchResult) {
	if r == nil {
		return
	}
	r.batchInFlight.Dec()
	r.batchDocuments.WithLabelValues(string(result.State), string(result.FailedStage)).Inc()
}
