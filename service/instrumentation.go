package service

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/ludo-technologies/jsguard/domain"
)

// Instrumentation records Prometheus metrics for analysis runs. Every
// instance owns its registry so several engines can coexist in one process.
type Instrumentation struct {
	registry *prometheus.Registry

	filesAnalyzed  prometheus.Counter
	findingsTotal  *prometheus.CounterVec
	ruleFailures   *prometheus.CounterVec
	ruleDuration   *prometheus.HistogramVec
	phaseDuration  *prometheus.GaugeVec
	rulesSkipped   *prometheus.CounterVec
	runsIncomplete prometheus.Counter
}

// NewInstrumentation creates the run metrics on a fresh registry
func NewInstrumentation() *Instrumentation {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Instrumentation{
		registry: reg,

		filesAnalyzed: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "jsguard_files_analyzed_total",
				Help: "Number of files whose analysis completed",
			},
		),
		findingsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "jsguard_findings_total",
				Help: "Findings remaining after suppression",
			},
			[]string{"rule_set", "rule", "severity"},
		),
		ruleFailures: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "jsguard_rule_failures_total",
				Help: "Rule invocations that returned an error or panicked",
			},
			[]string{"rule_set", "rule"},
		),
		ruleDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "jsguard_rule_duration_seconds",
				Help:    "Time spent in one rule invocation on one file",
				Buckets: []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1},
			},
			[]string{"rule_set"},
		),
		phaseDuration: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "jsguard_phase_duration_seconds",
				Help: "Duration of the engine phases of the last run",
			},
			[]string{"phase"},
		),
		rulesSkipped: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "jsguard_rules_skipped_total",
				Help: "Active rules not run, by reason",
			},
			[]string{"reason"},
		),
		runsIncomplete: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "jsguard_runs_incomplete_total",
				Help: "Runs stopped before every file was analyzed",
			},
		),
	}
}

// Registry returns the registry holding the run metrics
func (m *Instrumentation) Registry() *prometheus.Registry {
	return m.registry
}

// The recording methods accept a nil receiver so the engine can run
// without instrumentation.

func (m *Instrumentation) fileAnalyzed() {
	if m == nil {
		return
	}
	m.filesAnalyzed.Inc()
}

func (m *Instrumentation) findings(ruleSetID string, findings []domain.Finding) {
	if m == nil {
		return
	}
	for _, f := range findings {
		m.findingsTotal.WithLabelValues(ruleSetID, f.RuleID, f.Severity.String()).Inc()
	}
}

func (m *Instrumentation) ruleFailed(ruleSetID, ruleID string) {
	if m == nil {
		return
	}
	m.ruleFailures.WithLabelValues(ruleSetID, ruleID).Inc()
}

func (m *Instrumentation) ruleTimed(ruleSetID string, d time.Duration) {
	if m == nil {
		return
	}
	m.ruleDuration.WithLabelValues(ruleSetID).Observe(d.Seconds())
}

func (m *Instrumentation) phase(name string, d time.Duration) {
	if m == nil {
		return
	}
	m.phaseDuration.WithLabelValues(name).Set(d.Seconds())
}

func (m *Instrumentation) ruleSkipped(reason string) {
	if m == nil {
		return
	}
	m.rulesSkipped.WithLabelValues(reason).Inc()
}

func (m *Instrumentation) incomplete() {
	if m == nil {
		return
	}
	m.runsIncomplete.Inc()
}

// WriteTextfile writes the metrics in the Prometheus text format, for the
// node exporter textfile collector
func (m *Instrumentation) WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, m.registry); err != nil {
		return domain.NewOutputError("failed to write metrics file", err)
	}
	return nil
}
