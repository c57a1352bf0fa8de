// Package complexity provides the "complexity" rule set: size and
// cyclomatic complexity limits for functions.
package complexity

import (
	"fmt"

	"github.com/ludo-technologies/jsguard/domain"
	"github.com/ludo-technologies/jsguard/internal/analyzer"
	"github.com/ludo-technologies/jsguard/internal/api"
	"github.com/ludo-technologies/jsguard/internal/ast"
	"github.com/ludo-technologies/jsguard/internal/config"
)

// RuleSetID is the id and configuration section of the rule set
const RuleSetID = "complexity"

// Default thresholds
const (
	DefaultParameterThreshold  = 6
	DefaultComplexityThreshold = 15
)

// Provider returns the provider of the complexity rule set
func Provider() api.Provider {
	return api.ProviderFunc{ID: RuleSetID, Fn: newRuleSet}
}

func newRuleSet(_ *api.Context, cfg config.Config) (*api.RuleSet, error) {
	longParams, err := newLongParameterList(cfg.SubConfig("LongParameterList"))
	if err != nil {
		return nil, err
	}
	complexMethod, err := newComplexMethod(cfg.SubConfig("ComplexMethod"))
	if err != nil {
		return nil, err
	}
	return api.NewRuleSet(RuleSetID, cfg, complexMethod, longParams)
}

func newLongParameterList(cfg config.Config) (api.Rule, error) {
	issue := domain.Issue{
		ID:          "LongParameterList",
		Description: "The function has too many parameters. Consider passing an options object instead.",
		Severity:    domain.SeverityWarning,
		Debt:        domain.DebtTwentyMins,
	}
	threshold, err := config.Value(cfg, "threshold", DefaultParameterThreshold)
	if err != nil {
		return nil, err
	}

	return api.NewFuncRule(cfg, issue, func(file *ast.File, emit api.Emit) error {
		file.Root.Walk(func(n *ast.Node) bool {
			if !n.IsFunction() {
				return true
			}
			if count := parameterCount(n); count >= threshold {
				emit(n, fmt.Sprintf("The function %s has %d parameters. The threshold is %d.",
					analyzer.FunctionName(n), count, threshold))
			}
			return true
		})
		return nil
	})
}

// parameterCount counts the declared parameters of a function. An arrow
// function with a single bare parameter has no parameter list.
func parameterCount(fn *ast.Node) int {
	for _, child := range fn.Children {
		if child.Type != ast.NodeFormalParameters {
			continue
		}
		count := 0
		for _, p := range child.Children {
			if p.Type != ast.NodeComment && p.Type != ast.NodeDecorator {
				count++
			}
		}
		return count
	}
	return 0
}

func newComplexMethod(cfg config.Config) (api.Rule, error) {
	issue := domain.Issue{
		ID:          "ComplexMethod",
		Description: "Prefer splitting up complex functions into smaller, easier to understand functions.",
		Severity:    domain.SeverityWarning,
		Debt:        domain.DebtTwentyMins,
		Aliases:     []string{"CyclomaticComplexMethod"},
	}
	threshold, err := config.Value(cfg, "threshold", DefaultComplexityThreshold)
	if err != nil {
		return nil, err
	}

	return api.NewFuncRule(cfg, issue, func(file *ast.File, emit api.Emit) error {
		file.Root.Walk(func(n *ast.Node) bool {
			if !n.IsFunction() {
				return true
			}
			result := analyzer.CalculateComplexity(n)
			if result.Complexity >= threshold {
				emit(n, fmt.Sprintf("The function %s appears to be too complex based on cyclomatic complexity (complexity: %d). Defined complexity threshold for functions is set to '%d'",
					result.FunctionName, result.Complexity, threshold))
			}
			return true
		})
		return nil
	}, api.WithRunAfter("LongParameterList"))
}
