package telemetry

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const metricsNamespace = "bfse"

// Metrics holds the Prometheus collectors served on /metrics. Safe for
// concurrent use.
type Metrics struct {
	registry *prometheus.Registry

	documentsTotal     *prometheus.CounterVec
	documentDuration   *prometheus.HistogramVec
	deliveriesTotal    *prometheus.CounterVec
	deliveryDuration   *prometheus.HistogramVec
	deliveryRecipients *prometheus.CounterVec
	upstreamTotal      *prometheus.CounterVec
	httpRequestsTotal  *prometheus.CounterVec
	httpDuration       *prometheus.HistogramVec
}

// NewMetrics creates the collectors on a private registry that also carries
// the Go runtime and process collectors
func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	m := &Metrics{
		registry: registry,
		documentsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "documents_generated_total",
			Help:      "Documents generated by kind, format and outcome.",
		}, []string{"kind", "format", "status"}),
		documentDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Name:      "document_generation_duration_seconds",
			Help:      "Time spent rendering a document.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"kind", "format"}),
		deliveriesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "report_deliveries_total",
			Help:      "Scheduled report deliveries by trigger and outcome.",
		}, []string{"trigger", "status"}),
		deliveryDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Name:      "report_delivery_duration_seconds",
			Help:      "Time spent generating and mailing a scheduled report.",
			Buckets:   []float64{0.1, 0.5, 1, 2.5, 5, 10, 30, 60, 120},
		}, []string{"trigger"}),
		deliveryRecipients: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "report_delivery_recipients_total",
			Help:      "Report emails attempted per recipient outcome.",
		}, []string{"outcome"}),
		upstreamTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "upstream_requests_total",
			Help:      "Calls to upstream APIs by service, operation and status code.",
		}, []string{"service", "operation", "code"}),
		httpRequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by route, method and status code.",
		}, []string{"route", "method", "code"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by route and method.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"route", "method"}),
	}

	registry.MustRegister(
		m.documentsTotal,
		m.documentDuration,
		m.deliveriesTotal,
		m.deliveryDuration,
		m.deliveryRecipients,
		m.upstreamTotal,
		m.httpRequestsTotal,
		m.httpDuration,
	)
	return m
}

// ObserveDocument records one document generation
func (m *Metrics) ObserveDocument(kind, format string, elapsed time.Duration, err error) {
	status := "success"
	if err != nil {
		status = "failed"
	}
	m.documentsTotal.WithLabelValues(kind, format, status).Inc()
	m.documentDuration.WithLabelValues(kind, format).Observe(elapsed.Seconds())
}

// ObserveDelivery records one scheduled report run
func (m *Metrics) ObserveDelivery(trigger, status string, recipients, failed int, elapsed time.Duration) {
	m.deliveriesTotal.WithLabelValues(trigger, status).Inc()
	m.deliveryDuration.WithLabelValues(trigger).Observe(elapsed.Seconds())
	if sent := recipients - failed; sent > 0 {
		m.deliveryRecipients.WithLabelValues("sent").Add(float64(sent))
	}
	if failed > 0 {
		m.deliveryRecipients.WithLabelValues("failed").Add(float64(failed))
	}
}

// ObserveUpstream records one upstream API call. A zero code means the call
// never got a response.
func (m *Metrics) ObserveUpstream(service, operation string, code int) {
	label := "error"
	if code > 0 {
		label = strconv.Itoa(code)
	}
	m.upstreamTotal.WithLabelValues(service, operation, label).Inc()
}

// GinMiddleware records request counts and latency per matched route
func (m *Metrics) GinMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		m.httpRequestsTotal.WithLabelValues(route, c.Request.Method, strconv.Itoa(c.Writer.Status())).Inc()
		m.httpDuration.WithLabelValues(route, c.Request.Method).Observe(time.Since(start).Seconds())
	}
}

// Handler serves the registry in the Prometheus exposition format
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// Registry exposes the underlying registry
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}
