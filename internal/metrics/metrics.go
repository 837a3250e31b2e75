package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"plate-registry/internal/domain/plate"
)

// Metrics is safe to use as a nil pointer; every method is then a no-op.
type Metrics struct {
	registry      *prometheus.Registry
	registrations *prometheus.CounterVec
	lookups       *prometheus.CounterVec
	ocrDuration   *prometheus.HistogramVec
	httpRequests  *prometheus.CounterVec
}

func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	m := &Metrics{
		registry: reg,
		registrations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "plate_registry",
			Name:      "registrations_total",
			Help:      "Plate registration attempts by outcome.",
		}, []string{"outcome"}),
		lookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "plate_registry",
			Name:      "lookups_total",
			Help:      "Plate lookups by kind and outcome.",
		}, []string{"kind", "outcome"}),
		ocrDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "plate_registry",
			Name:      "ocr_request_duration_seconds",
			Help:      "Latency of OCR recognition calls.",
			Buckets:   []float64{0.1, 0.25, 0.5, 1, 2, 5, 10, 30},
		}, []string{"result"}),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "plate_registry",
			Name:      "http_requests_total",
			Help:      "HTTP requests by route and status.",
		}, []string{"method", "route", "status"}),
	}
	reg.MustRegister(m.registrations, m.lookups, m.ocrDuration, m.httpRequests)
	return m
}

func (m *Metrics) RegistrationOutcome(outcome plate.Outcome) {
	if m == nil {
		return
	}
	m.registrations.WithLabelValues(string(outcome)).Inc()
}

func (m *Metrics) LookupOutcome(kind string, outcome plate.Outcome) {
	if m == nil {
		return
	}
	m.lookups.WithLabelValues(kind, string(outcome)).Inc()
}

func (m *Metrics) ObserveOCR(d time.Duration, err error) {
	if m == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.ocrDuration.WithLabelValues(result).Observe(d.Seconds())
}

func (m *Metrics) HTTPRequest(method, route, status string) {
	if m == nil {
		return
	}
	m.httpRequests.WithLabelValues(method, route, status).Inc()
}

func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
