package api

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/shopspring/decimal"
	"github.com/warp/stock-engine/inventory"
)

// Metrics holds the collectors exported on /metrics. Each Metrics has its
// own registry so tests can build as many handlers as they like.
type Metrics struct {
	registry    *prometheus.Registry
	transitions *prometheus.CounterVec
	salesTotal  prometheus.Gauge
	unitsSold   prometheus.Counter
}

// NewMetrics registers the stock collectors plus the Go runtime ones.
func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		transitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "stock",
			Name:      "transitions_total",
			Help:      "Lifecycle transitions by operation and outcome kind.",
		}, []string{"op", "outcome"}),
		salesTotal: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "stock",
			Name:      "sales_running_total",
			Help:      "Running total of committed sales.",
		}),
		unitsSold: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "stock",
			Name:      "units_sold_total",
			Help:      "Units sold since the process started.",
		}),
	}
	m.registry.MustRegister(
		m.transitions,
		m.salesTotal,
		m.unitsSold,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// Observe counts one transition. A nil error counts as "ok".
func (m *Metrics) Observe(op string, err error) {
	outcome := "ok"
	if err != nil {
		outcome = string(inventory.KindOf(err))
	}
	m.transitions.WithLabelValues(op, outcome).Inc()
}

// Sold records a committed sale.
func (m *Metrics) Sold(units int, total decimal.Decimal) {
	m.unitsSold.Add(float64(units))
	m.SetTotal(total)
}

// SetTotal sets the running total gauge.
func (m *Metrics) SetTotal(total decimal.Decimal) {
	f, _ := total.Float64()
	m.salesTotal.Set(f)
}

// Registry is exposed for tests.
func (m *Metrics) Registry() *prometheus.Registry { return m.registry }
