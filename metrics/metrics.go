// Package metrics exposes Prometheus instrumentation for the extraction pipeline.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Outcome labels for DocumentsTotal.
const (
	StatusOK                = "ok"
	StatusUnsupportedFormat = "unsupported_format"
	StatusDecodeError       = "decode_error"
	StatusOCRUnavailable    = "ocr_unavailable"
	StatusTimeout           = "timeout"
	StatusError             = "error"
)

var (
	DocumentsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "finextract_documents_total",
		Help: "Documents processed, by document kind and outcome.",
	}, []string{"kind", "status"})

	ExtractionDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "finextract_extraction_duration_seconds",
		Help:    "End-to-end extraction time per document.",
		Buckets: []float64{0.1, 0.5, 1, 2.5, 5, 10, 30, 60, 120},
	}, []string{"kind"})

	RecordsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "finextract_records_total",
		Help: "Records emitted into assembled tables.",
	}, []string{"kind"})

	PagesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "finextract_pages_total",
		Help: "Pages read, by source (ocr or text_layer).",
	}, []string{"source"})
)

// ObserveDocument records the outcome of one extraction.
func ObserveDocument(kind, status string, elapsed time.Duration, records int) {
	DocumentsTotal.WithLabelValues(kind, status).Inc()
	ExtractionDuration.WithLabelValues(kind).Observe(elapsed.Seconds())
	if records > 0 {
		RecordsTotal.WithLabelValues(kind).Add(float64(records))
	}
}

// ObservePage counts one page read from source.
func ObservePage(source string) {
	PagesTotal.WithLabelValues(source).Inc()
}

// Handler serves the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}
