// Package metrics holds the prometheus collectors of the mandate service.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/a3tai/mandat-pdf/internal/mandate"
)

// Metrics groups the collectors. It implements mandate.Recorder.
type Metrics struct {
	GenerationsTotal    *prometheus.CounterVec
	GenerationDuration  *prometheus.HistogramVec
	FileSize            prometheus.Histogram
	FieldsFilled        prometheus.Histogram
	FillFailuresTotal   prometheus.Counter
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec
}

// New registers the collectors with reg. Pass prometheus.DefaultRegisterer to expose
// them on the default /metrics handler.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		GenerationsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "mandat_generations_total",
				Help: "The total number of generated mandates",
			},
			[]string{"method"},
		),
		GenerationDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "mandat_generation_duration_seconds",
				Help:    "The duration of mandate generation in seconds",
				Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2, 5},
			},
			[]string{"method"},
		),
		FileSize: factory.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "mandat_file_size_bytes",
				Help:    "The size of generated mandates in bytes",
				Buckets: []float64{5e4, 1e5, 2.5e5, 5e5, 1e6, 5e6},
			},
		),
		FieldsFilled: factory.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "mandat_fields_filled",
				Help:    "The number of field writes per mandate",
				Buckets: prometheus.LinearBuckets(0, 10, 8),
			},
		),
		FillFailuresTotal: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "mandat_fill_failures_total",
				Help: "The total number of logical data that could not be placed",
			},
		),
		HTTPRequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "mandat_http_requests_total",
				Help: "The total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		HTTPRequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "mandat_http_request_duration_seconds",
				Help:    "The duration of HTTP requests in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "path"},
		),
	}
}

// ObserveGeneration records a finished mandate
func (m *Metrics) ObserveGeneration(doc *mandate.Document, elapsed time.Duration) {
	method := string(doc.Method)
	m.GenerationsTotal.WithLabelValues(method).Inc()
	m.GenerationDuration.WithLabelValues(method).Observe(elapsed.Seconds())
	m.FileSize.Observe(float64(len(doc.Bytes)))
	m.FieldsFilled.Observe(float64(doc.Result.SuccessCount))
	m.FillFailuresTotal.Add(float64(len(doc.Result.FailedLabels)))
}

// ObserveHTTP records one served request
func (m *Metrics) ObserveHTTP(method, path string, status int, elapsed time.Duration) {
	m.HTTPRequestsTotal.WithLabelValues(method, path, strconv.Itoa(status)).Inc()
	m.HTTPRequestDuration.WithLabelValues(method, path).Observe(elapsed.Seconds())
}
