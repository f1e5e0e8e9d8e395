// Package metrics exposes Prometheus metrics for simulation runs.
package metrics

import (
	"net/http"
	"time"

	"github.com/jtammen/stratsim/internal/core"
	"github.com/jtammen/stratsim/internal/sim"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Registry holds all Prometheus metrics. It implements sim.Recorder so a
// driver can feed it directly.
type Registry struct {
	*prometheus.Registry

	runsTotal   *prometheus.CounterVec
	stepsTotal  *prometheus.CounterVec
	ordersTotal *prometheus.CounterVec
	runDuration prometheus.Histogram
	finalValue  *prometheus.GaugeVec
}

// NewRegistry creates a new metrics registry with all metrics registered.
func NewRegistry() *Registry {
	reg := prometheus.NewRegistry()

	// Register Go runtime metrics
	reg.MustRegister(collectors.NewGoCollector())
	reg.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	r := &Registry{
		Registry: reg,

		runsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "stratsim_runs_total",
				Help: "Total number of simulation runs",
			},
			[]string{"strategy", "state"},
		),
		stepsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "stratsim_steps_total",
				Help: "Total number of simulation steps executed",
			},
			[]string{"strategy"},
		),
		ordersTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "stratsim_orders_total",
				Help: "Total number of simulated orders",
			},
			[]string{"strategy", "side"},
		),
		runDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "stratsim_run_duration_seconds",
				Help:    "Simulation run duration in seconds",
				Buckets: []float64{0.1, 0.5, 1, 5, 10, 30, 60},
			},
		),
		finalValue: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "stratsim_final_value",
				Help: "Final portfolio value of the last run per strategy",
			},
			[]string{"strategy"},
		),
	}

	reg.MustRegister(r.runsTotal)
	reg.MustRegister(r.stepsTotal)
	reg.MustRegister(r.ordersTotal)
	reg.MustRegister(r.runDuration)
	reg.MustRegister(r.finalValue)

	return r
}

// ObserveStep records one executed step and its orders.
func (r *Registry) ObserveStep(strategy string, orders []core.Order) {
	r.stepsTotal.WithLabelValues(strategy).Inc()
	for _, order := range orders {
		r.ordersTotal.WithLabelValues(strategy, string(order.Side)).Inc()
	}
}

// ObserveRun records a finished run.
func (r *Registry) ObserveRun(strategy string, state sim.State, duration time.Duration) {
	r.runsTotal.WithLabelValues(strategy, string(state)).Inc()
	r.runDuration.Observe(duration.Seconds())
}

// SetFinalValue records the closing portfolio value of a run.
func (r *Registry) SetFinalValue(strategy string, value float64) {
	r.finalValue.WithLabelValues(strategy).Set(value)
}

// Handler returns an HTTP handler serving the registry in the Prometheus
// exposition format.
func (r *Registry) Handler() http.Handler {
	return promhttp.HandlerFor(r.Registry, promhttp.HandlerOpts{})
}
