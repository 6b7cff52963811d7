// Package metrics expone métricas Prometheus de HTTP y del flujo de documentos.
package metrics

import (
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/climatecoin/carbon-api/internal/application/carbon"
)

const namespace = "climatecoin"

var _ carbon.WorkflowMetrics = (*Metrics)(nil)

// Metrics colectores registrados en un registry propio (no el global).
type Metrics struct {
	Registry *prometheus.Registry

	httpInFlight  prometheus.Gauge
	httpRequests  *prometheus.CounterVec
	httpDuration  *prometheus.HistogramVec
	transitions   *prometheus.CounterVec
	chainCalls    *prometheus.CounterVec
	chainDuration *prometheus.HistogramVec
}

// New crea y registra los colectores.
func New() *Metrics {
	m := &Metrics{
		Registry: prometheus.NewRegistry(),
		httpInFlight: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "inflight_requests",
			Help:      "Current number of in-flight HTTP requests.",
		}),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests handled.",
		}, []string{"method", "path", "status"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Duration of HTTP requests.",
			Buckets:   prometheus.ExponentialBuckets(0.005, 2, 10),
		}, []string{"method", "path"}),
		transitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "documents",
			Name:      "transitions_total",
			Help:      "Carbon document workflow actions by result.",
		}, []string{"action", "result"}),
		chainCalls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "algorand",
			Name:      "calls_total",
			Help:      "Calls to the Algorand node by operation and outcome.",
		}, []string{"operation", "success"}),
		chainDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "algorand",
			Name:      "call_duration_seconds",
			Help:      "Duration of Algorand calls including confirmation wait.",
			Buckets:   prometheus.ExponentialBuckets(0.05, 2, 10),
		}, []string{"operation"}),
	}
	m.Registry.MustRegister(
		m.httpInFlight,
		m.httpRequests,
		m.httpDuration,
		m.transitions,
		m.chainCalls,
		m.chainDuration,
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		collectors.NewGoCollector(),
	)
	return m
}

// ObserveTransition cuenta una acción del flujo (mint, claim, swap...).
func (m *Metrics) ObserveTransition(action, result string) {
	m.transitions.WithLabelValues(action, result).Inc()
}

// ObserveChainCall registra duración y resultado de una llamada al nodo.
func (m *Metrics) ObserveChainCall(operation string, elapsed time.Duration, err error) {
	m.chainCalls.WithLabelValues(operation, strconv.FormatBool(err == nil)).Inc()
	m.chainDuration.WithLabelValues(operation).Observe(elapsed.Seconds())
}

// Handler expone el registry en formato Prometheus.
func (m *Metrics) Handler() fiber.Handler {
	return adaptor.HTTPHandler(promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{}))
}

// Middleware instrumenta las peticiones. Usa la ruta registrada, no la URL, para acotar cardinalidad.
func (m *Metrics) Middleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if c.Path() == "/metrics" {
			return c.Next()
		}
		m.httpInFlight.Inc()
		defer m.httpInFlight.Dec()

		start := time.Now()
		err := c.Next()

		status := c.Response().StatusCode()
		if err != nil {
			if fe, ok := err.(*fiber.Error); ok {
				status = fe.Code
			} else {
				status = fiber.StatusInternalServerError
			}
		}
		path := c.Route().Path
		m.httpRequests.WithLabelValues(c.Method(), path, strconv.Itoa(status)).Inc()
		m.httpDuration.WithLabelValues(c.Method(), path).Observe(time.Since(start).Seconds())
		return err
	}
}
