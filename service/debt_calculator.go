package service

import (
	"github.com/ludo-technologies/jsguard/domain"
)

// DebtCalculator aggregates the debt of findings per rule set and in total
type DebtCalculator struct{}

// NewDebtCalculator creates a debt calculator
func NewDebtCalculator() *DebtCalculator {
	return &DebtCalculator{}
}

// Calculate returns the summed issue debt of the findings. The boolean is
// false when there are no findings.
func (c *DebtCalculator) Calculate(findings []domain.Finding) (domain.Debt, bool) {
	debts := make([]domain.Debt, len(findings))
	for i, f := range findings {
		debts[i] = f.Issue.Debt
	}
	return domain.SumDebt(debts)
}

// Apply replaces the debt figures of the builder with those of its current
// findings. Rule sets without findings get no debt entry.
func (c *DebtCalculator) Apply(b *domain.DetektionBuilder) {
	b.ClearDebt()

	var all []domain.Finding
	for id, findings := range b.FindingsByRuleSet() {
		if debt, ok := c.Calculate(findings); ok {
			b.SetRuleSetDebt(id, debt)
		}
		all = append(all, findings...)
	}
	if total, ok := c.Calculate(all); ok {
		b.SetTotalDebt(total)
	}
}
