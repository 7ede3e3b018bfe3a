// Package metrics exposes Prometheus instrumentation for recognition runs.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Recognition holds the collectors updated by the recognition job
type Recognition struct {
	runs        *prometheus.CounterVec
	contracts   *prometheus.CounterVec
	daysPosted  *prometheus.CounterVec
	amount      *prometheus.CounterVec
	runDuration prometheus.Histogram
}

// NewRecognition creates the recognition collectors and registers them on reg
func NewRecognition(reg prometheus.Registerer) *Recognition {
	m := &Recognition{
		runs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "recognition_runs_total",
			Help: "Recognition runs by final state.",
		}, []string{"state"}),
		contracts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "recognition_contracts_total",
			Help: "Contracts handled by recognition runs, by outcome.",
		}, []string{"outcome"}),
		daysPosted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "recognition_days_posted_total",
			Help: "Contract days posted to the ledger, by kind.",
		}, []string{"kind"}),
		amount: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "recognition_amount_total",
			Help: "Amount recognised, by kind and currency.",
		}, []string{"kind", "currency"}),
		runDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "recognition_run_duration_seconds",
			Help:    "Wall time of recognition runs.",
			Buckets: prometheus.ExponentialBuckets(0.05, 2, 12),
		}),
	}
	reg.MustRegister(m.runs, m.contracts, m.daysPosted, m.amount, m.runDuration)
	return m
}

// ObserveRun records the final state and duration of a run
func (m *Recognition) ObserveRun(state string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.runs.WithLabelValues(state).Inc()
	m.runDuration.Observe(elapsed.Seconds())
}

// ObserveContract records the outcome of one contract: processed, skipped or error
func (m *Recognition) ObserveContract(outcome string) {
	if m == nil {
		return
	}
	m.contracts.WithLabelValues(outcome).Inc()
}

// ObservePosted records days and amount posted for a kind
func (m *Recognition) ObservePosted(kind, currency string, days int, amount float64) {
	if m == nil || days == 0 {
		return
	}
	m.daysPosted.WithLabelValues(kind).Add(float64(days))
	m.amount.WithLabelValues(kind, currency).Add(amount)
}

// NewRegistry returns a registry with the Go runtime and process collectors
func NewRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return reg
}

// Handler serves the registry in the Prometheus exposition format
func Handler(reg *prometheus.Registry) http.Handler {
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg})
}
