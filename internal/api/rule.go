// Package api defines the contract between the analysis engine and pluggable rules.
//
// A Rule visits one parsed file and reports findings through a Reporter. Rules
// are grouped into a RuleSet that a Provider instantiates from its configuration
// scope once per run.
package api

import (
	"github.com/ludo-technologies/jsguard/domain"
	"github.com/ludo-technologies/jsguard/internal/ast"
	"github.com/ludo-technologies/jsguard/internal/config"
)

// Reporter receives the findings of a rule
type Reporter interface {
	Report(finding domain.Finding)
}

// ReporterFunc adapts a function to the Reporter interface
type ReporterFunc func(domain.Finding)

// Report implements Reporter
func (f ReporterFunc) Report(finding domain.Finding) {
	f(finding)
}

// Rule is a single analysis pass over a file.
//
// Visit is called once per file while the rule is active. It must not modify
// the tree. A rule instance lives for the whole run and may be called for
// different files at the same time unless its rule set is single-threaded.
type Rule interface {
	ID() string
	Issue() domain.Issue
	Active() bool
	Visit(file *ast.File, reporter Reporter) error
}

// TypeResolutionRule is implemented by rules that need resolved type information
type TypeResolutionRule interface {
	RequiresTypeResolution() bool
}

// OrderedRule is implemented by rules constrained to run after other rules
// of the same rule set
type OrderedRule interface {
	RunAfter() []string
	RunAsLateAsPossible() bool
}

// PathScopedRule is implemented by rules restricted to a subset of files
type PathScopedRule interface {
	AppliesTo(path string) bool
}

// Base holds the configuration-derived state shared by all rules. Embed it
// in a rule to get ID, Issue, Active and AppliesTo.
type Base struct {
	issue  domain.Issue
	cfg    config.Config
	active bool
	paths  *PathFilter
}

// NewBase reads activation, severity, debt, aliases and path filters of a
// rule from its configuration scope
func NewBase(cfg config.Config, issue domain.Issue) (Base, error) {
	active, err := config.IsActive(cfg)
	if err != nil {
		return Base{}, err
	}

	severity, err := config.LocalValue(cfg, config.KeySeverity, "")
	if err != nil {
		return Base{}, err
	}
	if severity != "" {
		s, err := domain.ParseSeverity(severity)
		if err != nil {
			return Base{}, &config.InvalidValueError{Path: config.KeyPath(cfg, config.KeySeverity), Value: severity, Type: "severity"}
		}
		issue.Severity = s
	}

	debt, err := config.LocalValue(cfg, config.KeyDebt, "")
	if err != nil {
		return Base{}, err
	}
	if debt != "" {
		d, err := domain.ParseDebt(debt)
		if err != nil {
			return Base{}, &config.InvalidValueError{Path: config.KeyPath(cfg, config.KeyDebt), Value: debt, Type: "debt", Cause: err}
		}
		issue.Debt = d
	}

	aliases, err := config.LocalValue(cfg, config.KeyAliases, []string(nil))
	if err != nil {
		return Base{}, err
	}
	issue.Aliases = mergeAliases(issue.Aliases, aliases)

	paths, err := NewScopePathFilter(cfg)
	if err != nil {
		return Base{}, err
	}

	return Base{issue: issue, cfg: cfg, active: active, paths: paths}, nil
}

func mergeAliases(static, configured []string) []string {
	out := append([]string(nil), static...)
	for _, a := range configured {
		dup := false
		for _, existing := range out {
			if existing == a {
				dup = true
				break
			}
		}
		if !dup {
			out = append(out, a)
		}
	}
	return out
}

// ID implements Rule
func (b *Base) ID() string { return b.issue.ID }

// Issue implements Rule
func (b *Base) Issue() domain.Issue { return b.issue }

// Active implements Rule
func (b *Base) Active() bool { return b.active }

// Config returns the configuration scope of the rule
func (b *Base) Config() config.Config { return b.cfg }

// AppliesTo implements PathScopedRule
func (b *Base) AppliesTo(path string) bool { return b.paths.Allows(path) }

// NewFinding creates a finding of this rule for the entity
func (b *Base) NewFinding(entity domain.Entity, message string) domain.Finding {
	return domain.Finding{
		RuleID:   b.issue.ID,
		Issue:    b.issue,
		Entity:   entity,
		Message:  message,
		Severity: b.issue.Severity,
	}
}

// Emit reports a finding of this rule at a node
type Emit func(node *ast.Node, message string)

// VisitFunc is the body of a FuncRule
type VisitFunc func(file *ast.File, emit Emit) error

// FuncRule is a Rule whose body is a closure
type FuncRule struct {
	Base
	visit      VisitFunc
	runAfter   []string
	runLast    bool
	needsTypes bool
}

// FuncRuleOption configures a FuncRule
type FuncRuleOption func(*FuncRule)

// WithRunAfter makes the rule run after the named rules of its rule set
func WithRunAfter(ruleIDs ...string) FuncRuleOption {
	return func(r *FuncRule) { r.runAfter = append(r.runAfter, ruleIDs...) }
}

// WithRunLast makes the rule run as late as the ordering constraints allow
func WithRunLast() FuncRuleOption {
	return func(r *FuncRule) { r.runLast = true }
}

// WithTypeResolution marks the rule as needing type information
func WithTypeResolution() FuncRuleOption {
	return func(r *FuncRule) { r.needsTypes = true }
}

// NewFuncRule creates a rule from its configuration scope, issue and body
func NewFuncRule(cfg config.Config, issue domain.Issue, visit VisitFunc, opts ...FuncRuleOption) (*FuncRule, error) {
	base, err := NewBase(cfg, issue)
	if err != nil {
		return nil, err
	}
	r := &FuncRule{Base: base, visit: visit}
	for _, opt := range opts {
		opt(r)
	}
	return r, nil
}

// Visit implements Rule
func (r *FuncRule) Visit(file *ast.File, reporter Reporter) error {
	return r.visit(file, func(node *ast.Node, message string) {
		reporter.Report(r.NewFinding(domain.NewEntity(file, node), message))
	})
}

// RunAfter implements OrderedRule
func (r *FuncRule) RunAfter() []string { return r.runAfter }

// RunAsLateAsPossible implements OrderedRule
func (r *FuncRule) RunAsLateAsPossible() bool { return r.runLast }

// RequiresTypeResolution implements TypeResolutionRule
func (r *FuncRule) RequiresTypeResolution() bool { return r.needsTypes }
