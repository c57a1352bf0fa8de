package service

import (
	"fmt"
	"strings"

	"github.com/google/cel-go/cel"

	"github.com/ludo-technologies/jsguard/domain"
	"github.com/ludo-technologies/jsguard/internal/config"
)

// GateCounters are the figures a build gate decides on. They are also the
// variables available to a failWhen expression.
type GateCounters struct {
	Issues      int64 `json:"issues" yaml:"issues"`
	NewIssues   int64 `json:"newIssues" yaml:"newIssues"`
	Errors      int64 `json:"errors" yaml:"errors"`
	Warnings    int64 `json:"warnings" yaml:"warnings"`
	Infos       int64 `json:"infos" yaml:"infos"`
	DebtMinutes int64 `json:"debtMinutes" yaml:"debtMinutes"`
}

func (c GateCounters) activation() map[string]interface{} {
	return map[string]interface{}{
		"issues":      c.Issues,
		"newIssues":   c.NewIssues,
		"errors":      c.Errors,
		"warnings":    c.Warnings,
		"infos":       c.Infos,
		"debtMinutes": c.DebtMinutes,
	}
}

// GateResult is the outcome of a build gate evaluation
type GateResult struct {
	Failed   bool
	Counters GateCounters
	Reasons  []string
}

// BuildGate decides whether a run fails the build
type BuildGate struct {
	maxIssues    int
	weights      map[string]int
	excludeKnown bool
	expression   string
	program      cel.Program
}

// NewBuildGate compiles the gate settings. An invalid failWhen expression is
// a configuration error.
func NewBuildGate(settings config.BuildSettings) (*BuildGate, error) {
	g := &BuildGate{
		maxIssues:    settings.MaxIssues,
		weights:      make(map[string]int, len(settings.Weights)),
		excludeKnown: settings.ExcludeKnown,
		expression:   strings.TrimSpace(settings.FailWhen),
	}
	for key, w := range settings.Weights {
		g.weights[strings.ToLower(key)] = w
	}

	if g.expression == "" {
		return g, nil
	}

	env, err := cel.NewEnv(
		cel.Variable("issues", cel.IntType),
		cel.Variable("newIssues", cel.IntType),
		cel.Variable("errors", cel.IntType),
		cel.Variable("warnings", cel.IntType),
		cel.Variable("infos", cel.IntType),
		cel.Variable("debtMinutes", cel.IntType),
	)
	if err != nil {
		return nil, domain.NewConfigError("failed to create the failWhen environment", err)
	}

	ast, issues := env.Compile(g.expression)
	if issues != nil && issues.Err() != nil {
		return nil, domain.NewConfigError(fmt.Sprintf("invalid failWhen expression %q", g.expression), issues.Err())
	}
	if !ast.OutputType().IsExactType(cel.BoolType) {
		return nil, domain.NewConfigError(fmt.Sprintf("failWhen expression %q must evaluate to a bool, not %s", g.expression, ast.OutputType()), nil)
	}

	prg, err := env.Program(ast)
	if err != nil {
		return nil, domain.NewConfigError(fmt.Sprintf("invalid failWhen expression %q", g.expression), err)
	}
	g.program = prg
	return g, nil
}

// weight returns the weight of a finding: the first configured weight of its
// rule id, rule set id or severity, or 1
func (g *BuildGate) weight(f domain.Finding) int {
	for _, key := range []string{f.RuleID, f.RuleSetID, f.Severity.String()} {
		if w, ok := g.weights[strings.ToLower(key)]; ok {
			return w
		}
	}
	return 1
}

// Counters computes the gate figures of a result
func (g *BuildGate) Counters(result *domain.Detektion) GateCounters {
	findings := result.AllFindings()
	newFindings := findings
	if result.BaselineApplied() {
		newFindings = result.NewFindings()
		if g.excludeKnown {
			findings = newFindings
		}
	}

	var c GateCounters
	c.NewIssues = int64(len(newFindings))
	for _, f := range findings {
		c.Issues += int64(g.weight(f))
		switch f.Severity {
		case domain.SeverityError:
			c.Errors++
		case domain.SeverityWarning:
			c.Warnings++
		case domain.SeverityInfo:
			c.Infos++
		}
	}
	if debt, ok := NewDebtCalculator().Calculate(findings); ok {
		c.DebtMinutes = int64(debt.TotalMinutes())
	}
	return c
}

// Evaluate applies the issue threshold and the failWhen expression
func (g *BuildGate) Evaluate(result *domain.Detektion) (*GateResult, error) {
	res := &GateResult{Counters: g.Counters(result)}

	if g.maxIssues >= 0 && res.Counters.Issues > int64(g.maxIssues) {
		res.Failed = true
		res.Reasons = append(res.Reasons, fmt.Sprintf("Build failed with %d weighted issues (threshold for build failure: %d).", res.Counters.Issues, g.maxIssues))
	}

	if g.program != nil {
		out, _, err := g.program.Eval(res.Counters.activation())
		if err != nil {
			return nil, domain.NewConfigError(fmt.Sprintf("failed to evaluate failWhen expression %q", g.expression), err)
		}
		if failed, ok := out.Value().(bool); ok && failed {
			res.Failed = true
			res.Reasons = append(res.Reasons, fmt.Sprintf("Build failed because %q holds.", g.expression))
		}
	}
	return res, nil
}
