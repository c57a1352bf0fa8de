package service

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ludo-technologies/jsguard/domain"
	"github.com/ludo-technologies/jsguard/internal/baseline"
	"github.com/ludo-technologies/jsguard/internal/config"
)

func gateResult(t *testing.T, known ...string) *domain.Detektion {
	t.Helper()
	mk := func(ruleSetID, ruleID, sig string, sev domain.Severity) domain.Finding {
		f := debtFinding(ruleSetID, ruleID, domain.NewDebt(0, 0, 20))
		f.Severity = sev
		f.Entity.Signature = sig
		return f
	}
	b := domain.NewDetektionBuilder("run").
		AddFindings("style", mk("style", "MaxLineLength", "a.js$1", domain.SeverityInfo), mk("style", "DebuggerStatement", "a.js$2", domain.SeverityWarning)).
		AddFindings("complexity", mk("complexity", "ComplexMethod", "a.js$3", domain.SeverityError))
	result := b.Build()
	if known == nil {
		return result
	}
	out, err := NewBaselineExtension(baseline.New(nil, known)).Transform(result)
	require.NoError(t, err)
	return out
}

func TestBuildGate_MaxIssues(t *testing.T) {
	tests := []struct {
		name     string
		settings config.BuildSettings
		issues   int64
		failed   bool
	}{
		{"default threshold", config.BuildSettings{MaxIssues: 0}, 3, true},
		{"within threshold", config.BuildSettings{MaxIssues: 3}, 3, false},
		{"unlimited", config.BuildSettings{MaxIssues: -1}, 3, false},
		{"rule weight", config.BuildSettings{MaxIssues: 3, Weights: map[string]int{"complexmethod": 5}}, 7, true},
		{"rule set weight", config.BuildSettings{MaxIssues: 3, Weights: map[string]int{"Style": 0}}, 1, false},
		{"severity weight", config.BuildSettings{MaxIssues: 10, Weights: map[string]int{"info": 0, "error": 10}}, 11, true},
		{"rule id wins over rule set", config.BuildSettings{MaxIssues: 5, Weights: map[string]int{"style": 0, "MaxLineLength": 4}}, 5, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gate, err := NewBuildGate(tt.settings)
			require.NoError(t, err)

			res, err := gate.Evaluate(gateResult(t))
			require.NoError(t, err)
			assert.Equal(t, tt.issues, res.Counters.Issues)
			assert.Equal(t, tt.failed, res.Failed)
			if tt.failed {
				assert.Len(t, res.Reasons, 1)
			}
		})
	}
}

func TestBuildGate_Counters(t *testing.T) {
	gate, err := NewBuildGate(config.BuildSettings{MaxIssues: -1})
	require.NoError(t, err)

	c := gate.Counters(gateResult(t, "MaxLineLength:a.js$1"))
	assert.Equal(t, GateCounters{Issues: 3, NewIssues: 2, Errors: 1, Warnings: 1, Infos: 1, DebtMinutes: 60}, c)

	gate, err = NewBuildGate(config.BuildSettings{MaxIssues: -1, ExcludeKnown: true})
	require.NoError(t, err)
	c = gate.Counters(gateResult(t, "MaxLineLength:a.js$1"))
	assert.Equal(t, GateCounters{Issues: 2, NewIssues: 2, Errors: 1, Warnings: 1, DebtMinutes: 40}, c)
}

func TestBuildGate_FailWhen(t *testing.T) {
	tests := []struct {
		expr   string
		failed bool
	}{
		{"errors > 0", true},
		{"newIssues > 2", false},
		{"debtMinutes >= 60 && infos == 1", true},
		{"warnings + infos > 5", false},
	}

	for _, tt := range tests {
		t.Run(tt.expr, func(t *testing.T) {
			gate, err := NewBuildGate(config.BuildSettings{MaxIssues: -1, FailWhen: tt.expr})
			require.NoError(t, err)

			res, err := gate.Evaluate(gateResult(t))
			require.NoError(t, err)
			assert.Equal(t, tt.failed, res.Failed)
		})
	}
}

func TestBuildGate_InvalidExpression(t *testing.T) {
	for _, expr := range []string{"errors >", "unknown > 1", "issues + 1"} {
		_, err := NewBuildGate(config.BuildSettings{FailWhen: expr})
		require.Error(t, err, expr)
		assert.True(t, errors.Is(err, domain.ErrConfig), expr)
	}
}
