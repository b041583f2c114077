// Package metrics defines the Prometheus collectors for document processing.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "callbook"

// Metrics groups the processing collectors. A nil *Metrics records nothing.
type Metrics struct {
	DocumentsProcessed *prometheus.CounterVec
	ProcessingDuration prometheus.Histogram
	ClassifierCalls    *prometheus.CounterVec
	Resolutions        *prometheus.CounterVec
	ScriptsObserved    *prometheus.CounterVec
	BatchesRun         prometheus.Counter
	Searches           prometheus.Counter
	HTTPRequests       *prometheus.CounterVec
	HTTPDuration       *prometheus.HistogramVec
}

// NewMetrics creates the collectors and registers them with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		DocumentsProcessed: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "documents_processed_total",
				Help:      "Documents run through the processing pipeline by outcome",
			},
			[]string{"outcome"},
		),
		ProcessingDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "document_processing_duration_seconds",
				Help:      "Time spent processing one document",
				Buckets:   []float64{0.5, 1, 2, 5, 10, 20, 40, 80},
			},
		),
		ClassifierCalls: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "classifier_calls_total",
				Help:      "Classifier calls by stage and result kind",
			},
			[]string{"stage", "kind"},
		),
		Resolutions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "question_resolutions_total",
				Help:      "Question resolutions by outcome",
			},
			[]string{"outcome"},
		),
		ScriptsObserved: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "scripts_observed_total",
				Help:      "Script candidates observed by result",
			},
			[]string{"result"},
		),
		BatchesRun: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "pending_batches_total",
				Help:      "Pending-queue batches executed",
			},
		),
		Searches: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "semantic_searches_total",
				Help:      "Semantic searches served",
			},
		),
		HTTPRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "http_requests_total",
				Help:      "API requests by route pattern, method and status code",
			},
			[]string{"route", "method", "code"},
		),
		HTTPDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "http_request_duration_seconds",
				Help:      "API request latency by route pattern",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"route"},
		),
	}

	reg.MustRegister(
		m.DocumentsProcessed,
		m.ProcessingDuration,
		m.ClassifierCalls,
		m.Resolutions,
		m.ScriptsObserved,
		m.BatchesRun,
		m.Searches,
		m.HTTPRequests,
		m.HTTPDuration,
	)

	return m
}

// Handler serves the metrics gathered by g.
func Handler(g prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}

// Instrument counts and times requests to h under the route label pattern.
// Its signature fits routes.Wrap.
func (m *Metrics) Instrument(pattern string, h http.Handler) http.Handler {
	if m == nil {
		return h
	}
	labels := prometheus.Labels{"route": pattern}
	return promhttp.InstrumentHandlerDuration(
		m.HTTPDuration.MustCurryWith(labels),
		promhttp.InstrumentHandlerCounter(m.HTTPRequests.MustCurryWith(labels), h),
	)
}

func (m *Metrics) Document(outcome string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.DocumentsProcessed.WithLabelValues(outcome).Inc()
	m.ProcessingDuration.Observe(elapsed.Seconds())
}

func (m *Metrics) Classifier(stage, kind string) {
	if m == nil {
		return
	}
	m.ClassifierCalls.WithLabelValues(stage, kind).Inc()
}

func (m *Metrics) Resolution(outcome string) {
	if m == nil {
		return
	}
	m.Resolutions.WithLabelValues(outcome).Inc()
}

func (m *Metrics) Script(result string) {
	if m == nil {
		return
	}
	m.ScriptsObserved.WithLabelValues(result).Inc()
}

func (m *Metrics) Batch() {
	if m == nil {
		return
	}
	m.BatchesRun.Inc()
}

func (m *Metrics) Search() {
	if m == nil {
		return
	}
	m.Searches.Inc()
}
