package metrics_test

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/JaimeStill/callbook/internal/metrics"
)

func TestMetricsExposed(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := metrics.NewMetrics(reg)

	m.Document("processed", 2*time.Second)
	m.Document("error", time.Second)
	m.Classifier("classify", "ok")
	m.Resolution("matched")
	m.Script("created")
	m.Batch()
	m.Search()

	rec := httptest.NewRecorder()
	metrics.Handler(reg).ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	body, _ := io.ReadAll(rec.Body)
	text := string(body)

	for _, want := range []string{
		`callbook_documents_processed_total{outcome="processed"} 1`,
		`callbook_documents_processed_total{outcome="error"} 1`,
		`callbook_document_processing_duration_seconds_count 2`,
		`callbook_classifier_calls_total{kind="ok",stage="classify"} 1`,
		`callbook_question_resolutions_total{outcome="matched"} 1`,
		`callbook_scripts_observed_total{result="created"} 1`,
		`callbook_pending_batches_total 1`,
		`callbook_semantic_searches_total 1`,
	} {
		if !strings.Contains(text, want) {
			t.Errorf("metrics output missing %q", want)
		}
	}
}

func TestNilMetrics(t *testing.T) {
	var m *metrics.Metrics
	m.Document("processed", time.Second)
	m.Classifier("classify", "ok")
	m.Resolution("no_match")
	m.Script("skipped")
	m.Batch()
	m.Search()

	h := http.NotFoundHandler()
	if got := m.Instrument("GET /questions", h); got == nil {
		t.Error("nil metrics dropped the handler")
	}
}

func TestInstrument(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := metrics.NewMetrics(reg)

	h := m.Instrument("GET /questions/{id}", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest("GET", "/questions/1", nil))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest("GET", "/questions/2", nil))

	rec := httptest.NewRecorder()
	metrics.Handler(reg).ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	text := rec.Body.String()

	for _, want := range []string{
		`callbook_http_requests_total{code="404",method="get",route="GET /questions/{id}"} 2`,
		`callbook_http_request_duration_seconds_count{route="GET /questions/{id}"} 2`,
	} {
		if !strings.Contains(text, want) {
			t.Errorf("metrics output missing %q", want)
		}
	}
}
