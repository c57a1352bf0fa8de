// Package style provides the "style" rule set: formatting and hygiene checks.
package style

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/ludo-technologies/jsguard/domain"
	"github.com/ludo-technologies/jsguard/internal/api"
	"github.com/ludo-technologies/jsguard/internal/ast"
	"github.com/ludo-technologies/jsguard/internal/config"
)

// RuleSetID is the id and configuration section of the rule set
const RuleSetID = "style"

// Provider returns the provider of the style rule set
func Provider() api.Provider {
	return api.ProviderFunc{ID: RuleSetID, Fn: newRuleSet}
}

type ruleFactory func(cfg config.Config) (api.Rule, error)

var factories = []struct {
	id  string
	new ruleFactory
}{
	{"DebuggerStatement", newDebuggerStatement},
	{"EmptyBlock", newEmptyBlock},
	{"MaxLineLength", newMaxLineLength},
	{"ForbiddenComment", newForbiddenComment},
}

func newRuleSet(_ *api.Context, cfg config.Config) (*api.RuleSet, error) {
	rules := make([]api.Rule, 0, len(factories))
	for _, f := range factories {
		rule, err := f.new(cfg.SubConfig(f.id))
		if err != nil {
			return nil, err
		}
		rules = append(rules, rule)
	}
	return api.NewRuleSet(RuleSetID, cfg, rules...)
}

func newDebuggerStatement(cfg config.Config) (api.Rule, error) {
	issue := domain.Issue{
		ID:          "DebuggerStatement",
		Description: "Debugger statements should not be committed.",
		Severity:    domain.SeverityWarning,
		Debt:        domain.DebtFiveMins,
	}
	return api.NewFuncRule(cfg, issue, func(file *ast.File, emit api.Emit) error {
		file.Root.Walk(func(n *ast.Node) bool {
			if n.Type == ast.NodeDebugger {
				emit(n, "Remove the debugger statement.")
			}
			return true
		})
		return nil
	})
}

func newEmptyBlock(cfg config.Config) (api.Rule, error) {
	issue := domain.Issue{
		ID:          "EmptyBlock",
		Description: "Empty blocks of code serve no purpose and should be removed or commented.",
		Severity:    domain.SeverityInfo,
		Debt:        domain.DebtFiveMins,
		Aliases:     []string{"EmptyFunctionBlock"},
	}
	return api.NewFuncRule(cfg, issue, func(file *ast.File, emit api.Emit) error {
		file.Root.Walk(func(n *ast.Node) bool {
			if n.Type == ast.NodeStatementBlock && len(n.Children) == 0 {
				emit(n, "This empty block of code can be removed.")
			}
			return true
		})
		return nil
	})
}

func newMaxLineLength(cfg config.Config) (api.Rule, error) {
	issue := domain.Issue{
		ID:          "MaxLineLength",
		Description: "Line detected, which is longer than the defined maximum line length in the code style.",
		Severity:    domain.SeverityInfo,
		Debt:        domain.DebtFiveMins,
	}
	active, err := config.IsActive(cfg)
	if err != nil {
		return nil, err
	}

	// Parameters of an inactive rule are never read, so a broken pattern
	// only fails the run when the rule is enabled
	maxLength, exclude := 120, (*regexp.Regexp)(nil)
	if active {
		if maxLength, err = config.Value(cfg, "maxLineLength", maxLength); err != nil {
			return nil, err
		}
		if exclude, err = config.Regex(cfg, "excludePattern", `^\s*(import|export)\s`); err != nil {
			return nil, err
		}
	}

	return api.NewFuncRule(cfg, issue, func(file *ast.File, emit api.Emit) error {
		for i, line := range file.Lines() {
			if len([]rune(line)) <= maxLength || (exclude != nil && exclude.MatchString(line)) {
				continue
			}
			emit(file.NodeAtLine(i+1), fmt.Sprintf("Line %d exceeds the maximum line length of %d.", i+1, maxLength))
		}
		return nil
	})
}

func newForbiddenComment(cfg config.Config) (api.Rule, error) {
	issue := domain.Issue{
		ID:          "ForbiddenComment",
		Description: "Flags a forbidden comment.",
		Severity:    domain.SeverityWarning,
		Debt:        domain.DebtTenMins,
	}
	values, err := config.StringList(cfg, "values", []string{"FIXME:", "STOPSHIP:", "TODO:"})
	if err != nil {
		return nil, err
	}

	return api.NewFuncRule(cfg, issue, func(file *ast.File, emit api.Emit) error {
		file.Root.Walk(func(n *ast.Node) bool {
			if n.Type != ast.NodeComment {
				return true
			}
			text := file.Text(n)
			for _, v := range values {
				if strings.Contains(text, v) {
					emit(n, fmt.Sprintf("This comment contains '%s' that has been defined as forbidden.", v))
				}
			}
			return true
		})
		return nil
	})
}
