// Package metrics exposes the engine's prometheus counters.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/walletwise/walletwise/internal/domain/quota"
)

const namespace = "walletwise"

// EngineMetrics records reconciliation runs and quota rejections.
type EngineMetrics struct {
	registry            *prometheus.Registry
	reconciliationRuns  *prometheus.CounterVec
	reconciliationItems *prometheus.CounterVec
	quotaRejections     *prometheus.CounterVec
}

// NewRegistry returns a registry preloaded with the Go runtime and process collectors.
func NewRegistry() *prometheus.Registry {
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return registry
}

func NewEngineMetrics(registry *prometheus.Registry) *EngineMetrics {
	factory := promauto.With(registry)

	return &EngineMetrics{
		registry: registry,
		reconciliationRuns: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "trial_reconciliation_runs_total",
				Help:      "Trial reconciliation runs by result.",
			},
			[]string{"result"},
		),
		reconciliationItems: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "trial_reconciliation_items_total",
				Help:      "Expired trials processed by outcome.",
			},
			[]string{"outcome"},
		),
		quotaRejections: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "quota_rejections_total",
				Help:      "Operations rejected by a tier quota.",
			},
			[]string{"quota"},
		),
	}
}

func (m *EngineMetrics) ObserveRun(result string) {
	m.reconciliationRuns.WithLabelValues(result).Inc()
}

func (m *EngineMetrics) ObserveItem(outcome string) {
	m.reconciliationItems.WithLabelValues(outcome).Inc()
}

func (m *EngineMetrics) RecordQuotaRejection(kind quota.Kind) {
	m.quotaRejections.WithLabelValues(kind.String()).Inc()
}

// Handler serves the registry in the prometheus text format.
func (m *EngineMetrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
