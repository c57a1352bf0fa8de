package domain

import (
	"fmt"
	"maps"
	"slices"
)

// Metric is a named value produced by the engine or a file process listener
type Metric struct {
	Key   string `json:"key" yaml:"key"`
	Value any    `json:"value" yaml:"value"`
}

// Detektion is the immutable result of one analysis run.
// It is only ever written through a DetektionBuilder.
type Detektion struct {
	runID         string
	findings      map[string][]Finding
	metrics       []Metric
	metricIndex   map[string]int
	notifications []Notification
	debt          map[string]Debt
	totalDebt     *Debt
	baseline      bool
	newFindings   []Finding
	knownFindings []Finding
	partial       bool
}

// RunID returns the unique identifier of the run
func (d *Detektion) RunID() string {
	return d.runID
}

// RuleSetIDs returns the ids of rule sets with findings, sorted
func (d *Detektion) RuleSetIDs() []string {
	return slices.Sorted(maps.Keys(d.findings))
}

// Findings returns a copy of the findings grouped by rule set id
func (d *Detektion) Findings() map[string][]Finding {
	out := make(map[string][]Finding, len(d.findings))
	for id, fs := range d.findings {
		out[id] = slices.Clone(fs)
	}
	return out
}

// FindingsFor returns the findings of one rule set
func (d *Detektion) FindingsFor(ruleSetID string) []Finding {
	return slices.Clone(d.findings[ruleSetID])
}

// AllFindings returns every finding of the run in a stable order
func (d *Detektion) AllFindings() []Finding {
	var out []Finding
	for _, id := range d.RuleSetIDs() {
		out = append(out, d.findings[id]...)
	}
	slices.SortStableFunc(out, CompareFindings)
	return out
}

// FindingCount returns the number of findings across all rule sets
func (d *Detektion) FindingCount() int {
	n := 0
	for _, fs := range d.findings {
		n += len(fs)
	}
	return n
}

// Metrics returns the metrics in insertion order
func (d *Detektion) Metrics() []Metric {
	return slices.Clone(d.metrics)
}

// Metric returns the value stored under key
func (d *Detektion) Metric(key string) (any, bool) {
	i, ok := d.metricIndex[key]
	if !ok {
		return nil, false
	}
	return d.metrics[i].Value, true
}

// MetricValue returns the metric stored under key if it holds a T
func MetricValue[T any](d *Detektion, key string) (T, bool) {
	var zero T
	v, ok := d.Metric(key)
	if !ok {
		return zero, false
	}
	t, ok := v.(T)
	return t, ok
}

// Notifications returns the process notifications
func (d *Detektion) Notifications() []Notification {
	return slices.Clone(d.notifications)
}

// HasErrors reports whether any notification has error level
func (d *Detektion) HasErrors() bool {
	for _, n := range d.notifications {
		if n.Level == NotificationError {
			return true
		}
	}
	return false
}

// Debt returns the total debt. The boolean is false when the run had no findings.
func (d *Detektion) Debt() (Debt, bool) {
	if d.totalDebt == nil {
		return Debt{}, false
	}
	return *d.totalDebt, true
}

// DebtFor returns the debt of one rule set, absent when it has no findings
func (d *Detektion) DebtFor(ruleSetID string) (Debt, bool) {
	debt, ok := d.debt[ruleSetID]
	return debt, ok
}

// BaselineApplied reports whether findings were classified against a baseline
func (d *Detektion) BaselineApplied() bool {
	return d.baseline
}

// NewFindings returns findings absent from the baseline
func (d *Detektion) NewFindings() []Finding {
	return slices.Clone(d.newFindings)
}

// KnownFindings returns findings already recorded in the baseline
func (d *Detektion) KnownFindings() []Finding {
	return slices.Clone(d.knownFindings)
}

// Partial reports whether the run stopped before every file was analyzed
func (d *Detektion) Partial() bool {
	return d.partial
}

// Derive returns a builder preloaded with this result, for reporting
// extensions that produce a transformed copy
func (d *Detektion) Derive() *DetektionBuilder {
	b := NewDetektionBuilder(d.runID)
	for id, fs := range d.findings {
		b.d.findings[id] = slices.Clone(fs)
	}
	for _, m := range d.metrics {
		b.AddMetric(m.Key, m.Value)
	}
	b.d.notifications = slices.Clone(d.notifications)
	maps.Copy(b.d.debt, d.debt)
	if d.totalDebt != nil {
		total := *d.totalDebt
		b.d.totalDebt = &total
	}
	b.d.baseline = d.baseline
	b.d.newFindings = slices.Clone(d.newFindings)
	b.d.knownFindings = slices.Clone(d.knownFindings)
	b.d.partial = d.partial
	return b
}

// DetektionBuilder assembles a Detektion. It is not safe for concurrent use.
type DetektionBuilder struct {
	d     *Detektion
	built bool
}

// NewDetektionBuilder creates a builder for the given run
func NewDetektionBuilder(runID string) *DetektionBuilder {
	return &DetektionBuilder{d: &Detektion{
		runID:       runID,
		findings:    make(map[string][]Finding),
		metricIndex: make(map[string]int),
		debt:        make(map[string]Debt),
	}}
}

func (b *DetektionBuilder) mustBeOpen() {
	if b.built {
		panic(DomainError{Code: ErrCodeIllegalState, Message: "detektion already built"})
	}
}

// AddFindings appends findings to a rule set
func (b *DetektionBuilder) AddFindings(ruleSetID string, findings ...Finding) *DetektionBuilder {
	b.mustBeOpen()
	b.d.findings[ruleSetID] = append(b.d.findings[ruleSetID], findings...)
	return b
}

// SetFindings replaces the findings of a rule set
func (b *DetektionBuilder) SetFindings(ruleSetID string, findings []Finding) *DetektionBuilder {
	b.mustBeOpen()
	if len(findings) == 0 {
		delete(b.d.findings, ruleSetID)
		return b
	}
	b.d.findings[ruleSetID] = slices.Clone(findings)
	return b
}

// AddMetric stores a metric. Writing the same key twice is a programming
// error and panics.
func (b *DetektionBuilder) AddMetric(key string, value any) *DetektionBuilder {
	b.mustBeOpen()
	if _, exists := b.d.metricIndex[key]; exists {
		panic(DomainError{Code: ErrCodeIllegalState, Message: fmt.Sprintf("metric '%s' already set", key)})
	}
	b.d.metricIndex[key] = len(b.d.metrics)
	b.d.metrics = append(b.d.metrics, Metric{Key: key, Value: value})
	return b
}

// HasMetric reports whether key was already written
func (b *DetektionBuilder) HasMetric(key string) bool {
	_, ok := b.d.metricIndex[key]
	return ok
}

// AddNotification appends a process notification
func (b *DetektionBuilder) AddNotification(n Notification) *DetektionBuilder {
	b.mustBeOpen()
	b.d.notifications = append(b.d.notifications, n)
	return b
}

// SetRuleSetDebt records the aggregated debt of one rule set
func (b *DetektionBuilder) SetRuleSetDebt(ruleSetID string, debt Debt) *DetektionBuilder {
	b.mustBeOpen()
	b.d.debt[ruleSetID] = debt
	return b
}

// SetTotalDebt records the aggregated debt of the run
func (b *DetektionBuilder) SetTotalDebt(debt Debt) *DetektionBuilder {
	b.mustBeOpen()
	b.d.totalDebt = &debt
	return b
}

// ClearDebt drops all debt figures, used before recomputing them
func (b *DetektionBuilder) ClearDebt() *DetektionBuilder {
	b.mustBeOpen()
	b.d.debt = make(map[string]Debt)
	b.d.totalDebt = nil
	return b
}

// SetBaselineClassification records the new/known partition of the findings
func (b *DetektionBuilder) SetBaselineClassification(newFindings, knownFindings []Finding) *DetektionBuilder {
	b.mustBeOpen()
	b.d.baseline = true
	b.d.newFindings = slices.Clone(newFindings)
	b.d.knownFindings = slices.Clone(knownFindings)
	return b
}

// MarkPartial flags the run as stopped before completion
func (b *DetektionBuilder) MarkPartial() *DetektionBuilder {
	b.mustBeOpen()
	b.d.partial = true
	return b
}

// AllFindings returns the findings collected so far
func (b *DetektionBuilder) AllFindings() []Finding {
	return b.d.AllFindings()
}

// FindingsByRuleSet returns a copy of the findings collected so far
func (b *DetektionBuilder) FindingsByRuleSet() map[string][]Finding {
	return b.d.Findings()
}

// Build returns the finished result. The builder cannot be used afterwards.
func (b *DetektionBuilder) Build() *Detektion {
	b.mustBeOpen()
	b.built = true
	return b.d
}
