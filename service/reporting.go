package service

import (
	"github.com/ludo-technologies/jsguard/domain"
	"github.com/ludo-technologies/jsguard/internal/baseline"
)

// ReportingExtension transforms a finished result before it is rendered.
// Implementations return a new Detektion and leave their input untouched.
type ReportingExtension interface {
	ID() string
	Transform(result *domain.Detektion) (*domain.Detektion, error)
}

// BaselineExtension classifies findings as new or known against a baseline
type BaselineExtension struct {
	baseline *baseline.Baseline
}

// NewBaselineExtension creates the classification stage for a loaded baseline
func NewBaselineExtension(b *baseline.Baseline) *BaselineExtension {
	return &BaselineExtension{baseline: b}
}

func (e *BaselineExtension) ID() string { return "baseline" }

// Transform implements ReportingExtension. Findings reaching this stage have
// already passed suppression, so a suppressed finding is never classified.
func (e *BaselineExtension) Transform(result *domain.Detektion) (*domain.Detektion, error) {
	if e.baseline == nil {
		return result, nil
	}
	newFindings, known := e.baseline.Classify(result.AllFindings())
	return result.Derive().SetBaselineClassification(newFindings, known).Build(), nil
}

// DropKnownExtension removes baseline-known findings from the result and
// recomputes the debt of what is left. It must run after BaselineExtension.
type DropKnownExtension struct {
	debt *DebtCalculator
}

// NewDropKnownExtension creates the stage
func NewDropKnownExtension() *DropKnownExtension {
	return &DropKnownExtension{debt: NewDebtCalculator()}
}

func (e *DropKnownExtension) ID() string { return "drop-known" }

// Transform implements ReportingExtension
func (e *DropKnownExtension) Transform(result *domain.Detektion) (*domain.Detektion, error) {
	if !result.BaselineApplied() {
		return result, nil
	}

	b := result.Derive()
	grouped := make(map[string][]domain.Finding)
	for _, f := range result.NewFindings() {
		grouped[f.RuleSetID] = append(grouped[f.RuleSetID], f)
	}
	for _, id := range result.RuleSetIDs() {
		b.SetFindings(id, grouped[id])
	}
	e.debt.Apply(b)
	return b.Build(), nil
}
