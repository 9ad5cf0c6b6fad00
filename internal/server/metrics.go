package server

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics is the prometheus side of the server. It uses its own registry so
// several servers can live in one process, as they do in tests.
type Metrics struct {
	registry *prometheus.Registry
	requests *prometheus.CounterVec
	size     prometheus.GaugeFunc
}

// NewMetrics registers the request counter and a gauge that asks size for
// the current catalog length at scrape time.
func NewMetrics(size func() int) *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total HTTP requests by method, route and status code",
		}, []string{"method", "route", "status"}),
		size: prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Name: "vehicle_catalog_size",
			Help: "Number of vehicles currently in the catalog",
		}, func() float64 { return float64(size()) }),
	}

	m.registry.MustRegister(m.requests)
	m.registry.MustRegister(m.size)
	m.registry.MustRegister(collectors.NewGoCollector())
	m.registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	return m
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
