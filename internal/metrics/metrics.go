package metrics

import (
	"github.com/amaumene/watchsync/internal/models"
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the sync engine's Prometheus collectors
type Metrics struct {
	Items       *prometheus.CounterVec
	Runs        *prometheus.CounterVec
	LastRunTime *prometheus.GaugeVec
	Registry    *prometheus.Registry
}

// New creates and registers the collectors on a dedicated registry
func New() *Metrics {
	m := &Metrics{
		Items: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "watchsync",
			Name:      "items_total",
			Help:      "File locations reconciled, by mode and outcome.",
		}, []string{"mode", "outcome"}),
		Runs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "watchsync",
			Name:      "runs_total",
			Help:      "Sync runs, by mode and final status.",
		}, []string{"mode", "status"}),
		LastRunTime: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "watchsync",
			Name:      "last_run_timestamp_seconds",
			Help:      "Unix time the last run of each mode finished.",
		}, []string{"mode"}),
		Registry: prometheus.NewRegistry(),
	}

	m.Registry.MustRegister(m.Items, m.Runs, m.LastRunTime)
	return m
}

// ObserveItem counts one reconciled file location
func (m *Metrics) ObserveItem(mode models.Mode, outcome models.Outcome) {
	m.Items.WithLabelValues(string(mode), string(outcome)).Inc()
}

// ObserveRun counts a finished run
func (m *Metrics) ObserveRun(run *models.SyncRun) {
	m.Runs.WithLabelValues(string(run.Mode), string(run.Status)).Inc()
	if run.FinishedAt != nil {
		m.LastRunTime.WithLabelValues(string(run.Mode)).Set(float64(run.FinishedAt.Unix()))
	}
}
