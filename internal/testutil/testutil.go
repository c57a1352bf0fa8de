// Package testutil provides helper functions for testing jsguard components
package testutil

import (
	"context"
	"testing"

	"github.com/ludo-technologies/jsguard/domain"
	"github.com/ludo-technologies/jsguard/internal/api"
	"github.com/ludo-technologies/jsguard/internal/ast"
	"github.com/ludo-technologies/jsguard/internal/config"
	"github.com/ludo-technologies/jsguard/internal/parser"
)

// ParseFile parses JavaScript source as if it was read from path
func ParseFile(t *testing.T, path, source string) *ast.File {
	t.Helper()
	p := parser.NewParser()
	defer p.Close()

	file, err := p.ParseFile(context.Background(), path, []byte(source))
	if err != nil {
		t.Fatalf("Failed to parse test code: %v", err)
	}
	return file
}

// Config parses an in-memory rule configuration
func Config(t *testing.T, yaml string) *config.YAMLConfig {
	t.Helper()
	cfg, err := config.ParseYAML([]byte(yaml))
	if err != nil {
		t.Fatalf("Failed to parse test config: %v", err)
	}
	return cfg
}

// FindFunction finds a function node by name
func FindFunction(file *ast.File, name string) *ast.Node {
	return file.Root.Find(func(n *ast.Node) bool {
		return n.IsFunction() && n.Name == name
	})
}

// Instantiate builds the rule set of a provider from the given section of cfg
func Instantiate(t *testing.T, provider api.Provider, cfg config.Config) *api.RuleSet {
	t.Helper()
	rs, err := provider.Instance(&api.Context{}, cfg.SubConfig(provider.RuleSetID()))
	if err != nil {
		t.Fatalf("Failed to instantiate rule set %s: %v", provider.RuleSetID(), err)
	}
	return rs
}

// Lint runs every active rule of the set over the file, in declaration
// order, and returns the findings keyed by rule id
func Lint(t *testing.T, rs *api.RuleSet, file *ast.File) map[string][]domain.Finding {
	t.Helper()
	out := make(map[string][]domain.Finding)
	for _, rule := range rs.ActiveRules() {
		err := rule.Visit(file, api.ReporterFunc(func(f domain.Finding) {
			out[f.RuleID] = append(out[f.RuleID], f)
		}))
		if err != nil {
			t.Fatalf("Rule %s failed: %v", rule.ID(), err)
		}
	}
	return out
}

// FindRule returns the rule with the given id
func FindRule(rs *api.RuleSet, id string) api.Rule {
	for _, r := range rs.Rules {
		if r.ID() == id {
			return r
		}
	}
	return nil
}

// AssertNoError fails the test if err is not nil
func AssertNoError(t *testing.T, err error) {
	t.Helper()
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
}

// AssertError fails the test if err is nil
func AssertError(t *testing.T, err error) {
	t.Helper()
	if err == nil {
		t.Fatal("Expected error but got nil")
	}
}
