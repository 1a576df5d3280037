// Package metrics exports consistency pass metrics in Prometheus format.
package metrics

import (
	"net/http"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Config labels every series.
type Config struct {
	ServiceName string
	Environment string
}

// Metrics records pass outcomes on its own registry.
type Metrics struct {
	registry *prometheus.Registry

	passDuration    *prometheus.HistogramVec
	passes          *prometheus.CounterVec
	fixes           *prometheus.CounterVec
	invoicesCreated prometheus.Counter
	issues          *prometheus.GaugeVec
	lastRun         prometheus.Gauge
}

// New creates the collectors and registers them, together with the Go and
// process collectors, on a fresh registry.
func New(cfg Config) *Metrics {
	serviceName := strings.TrimSpace(cfg.ServiceName)
	if serviceName == "" {
		serviceName = "muabook"
	}
	environment := strings.TrimSpace(cfg.Environment)
	if environment == "" {
		environment = "unknown"
	}
	constLabels := prometheus.Labels{
		"service": serviceName,
		"env":     environment,
	}

	m := &Metrics{
		registry: prometheus.NewRegistry(),
		passDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:        "muabook_pass_duration_seconds",
				Help:        "Duration of validation, repair and sync passes.",
				Buckets:     []float64{0.005, 0.01, 0.05, 0.1, 0.5, 1, 5},
				ConstLabels: constLabels,
			},
			[]string{"pass"},
		),
		passes: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name:        "muabook_passes_total",
				Help:        "Passes run, by outcome.",
				ConstLabels: constLabels,
			},
			[]string{"pass", "result"}, // success | error
		),
		fixes: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name:        "muabook_fixes_total",
				Help:        "Repair actions applied.",
				ConstLabels: constLabels,
			},
			[]string{"pass"},
		),
		invoicesCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Name:        "muabook_invoices_created_total",
			Help:        "Invoices synthesized for payments without one.",
			ConstLabels: constLabels,
		}),
		issues: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name:        "muabook_validation_issues",
				Help:        "Records reported by the latest validation.",
				ConstLabels: constLabels,
			},
			[]string{"severity"}, // error | warning
		),
		lastRun: prometheus.NewGauge(prometheus.GaugeOpts{
			Name:        "muabook_last_pass_timestamp_seconds",
			Help:        "Unix time the latest pass finished.",
			ConstLabels: constLabels,
		}),
	}

	m.registry.MustRegister(
		m.passDuration,
		m.passes,
		m.fixes,
		m.invoicesCreated,
		m.issues,
		m.lastRun,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// ObservePass records the duration and outcome of a pass.
func (m *Metrics) ObservePass(pass string, d time.Duration, err error) {
	result := "success"
	if err != nil {
		result = "error"
	}
	m.passDuration.WithLabelValues(pass).Observe(d.Seconds())
	m.passes.WithLabelValues(pass, result).Inc()
	m.lastRun.SetToCurrentTime()
}

// AddFixes counts repair actions.
func (m *Metrics) AddFixes(pass string, n int) {
	if n > 0 {
		m.fixes.WithLabelValues(pass).Add(float64(n))
	}
}

// AddInvoicesCreated counts synthesized invoices.
func (m *Metrics) AddInvoicesCreated(n int) {
	if n > 0 {
		m.invoicesCreated.Add(float64(n))
	}
}

// SetIssues publishes the latest validation totals.
func (m *Metrics) SetIssues(errors, warnings int) {
	m.issues.WithLabelValues("error").Set(float64(errors))
	m.issues.WithLabelValues("warning").Set(float64(warnings))
}

// Registry exposes the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}
