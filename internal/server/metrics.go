package server

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the server's Prometheus collectors. Each server owns its
// registry so tests can run several servers side by side.
type Metrics struct {
	registry *prometheus.Registry

	simulations       *prometheus.CounterVec
	simulationSeconds *prometheus.HistogramVec
	drawsTotal        *prometheus.CounterVec
	streamsActive     prometheus.Gauge
	rejectedTotal     *prometheus.CounterVec
}

// NewMetrics creates and registers the simulation collectors.
func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		simulations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "marbles_simulations_total",
			Help: "Total number of simulation requests by kind and status",
		}, []string{"kind", "status"}),
		simulationSeconds: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "marbles_simulation_duration_seconds",
			Help:    "Wall time spent running simulations",
			Buckets: prometheus.ExponentialBuckets(0.001, 4, 8),
		}, []string{"kind"}),
		drawsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "marbles_draws_total",
			Help: "Total number of marbles drawn",
		}, []string{"kind"}),
		streamsActive: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "marbles_stream_active_connections",
			Help: "Current number of Monte Carlo progress streams",
		}),
		rejectedTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "marbles_rejected_requests_total",
			Help: "Total number of rejected requests",
		}, []string{"reason"}),
	}
	m.registry.MustRegister(
		m.simulations,
		m.simulationSeconds,
		m.drawsTotal,
		m.streamsActive,
		m.rejectedTotal,
		collectors.NewGoCollector(),
	)
	return m
}

// Handler exposes the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) observe(kind, status string, seconds float64, draws int) {
	m.simulations.WithLabelValues(kind, status).Inc()
	if status == statusOK {
		m.simulationSeconds.WithLabelValues(kind).Observe(seconds)
		m.drawsTotal.WithLabelValues(kind).Add(float64(draws))
	}
}
