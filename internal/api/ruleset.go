package api

import (
	"fmt"
	"sort"
	"sync"

	"github.com/ludo-technologies/jsguard/domain"
	"github.com/ludo-technologies/jsguard/internal/config"
)

// RuleSet is a named, ordered group of rules sharing a configuration scope
type RuleSet struct {
	ID     string
	Rules  []Rule
	Config config.Config

	// SingleThreaded serializes every dispatch to the rules of this set
	SingleThreaded bool

	// Paths restricts the set to matching files; nil allows every file
	Paths *PathFilter
}

// NewRuleSet creates a rule set reading its path filter from cfg
func NewRuleSet(id string, cfg config.Config, rules ...Rule) (*RuleSet, error) {
	paths, err := NewScopePathFilter(cfg)
	if err != nil {
		return nil, err
	}
	return &RuleSet{ID: id, Rules: rules, Config: cfg, Paths: paths}, nil
}

// ActiveRules returns the active rules in declaration order
func (rs *RuleSet) ActiveRules() []Rule {
	out := make([]Rule, 0, len(rs.Rules))
	for _, r := range rs.Rules {
		if r.Active() {
			out = append(out, r)
		}
	}
	return out
}

// Provider instantiates a rule set from its configuration scope
type Provider interface {
	RuleSetID() string
	Instance(ctx *Context, cfg config.Config) (*RuleSet, error)
}

// ProviderFunc adapts a function to the Provider interface
type ProviderFunc struct {
	ID string
	Fn func(ctx *Context, cfg config.Config) (*RuleSet, error)
}

// RuleSetID implements Provider
func (p ProviderFunc) RuleSetID() string { return p.ID }

// Instance implements Provider
func (p ProviderFunc) Instance(ctx *Context, cfg config.Config) (*RuleSet, error) {
	return p.Fn(ctx, cfg)
}

// ValidateRuleSet checks the metadata a provider declares for its rule set
func ValidateRuleSet(providerID string, rs *RuleSet) error {
	if rs == nil {
		return domain.NewProviderValidationError(providerID, "provider returned no rule set", nil)
	}
	if rs.ID == "" {
		return domain.NewProviderValidationError(providerID, "rule set id must not be empty", nil)
	}
	if rs.ID != providerID {
		return domain.NewProviderValidationError(providerID, fmt.Sprintf("rule set id '%s' does not match provider id", rs.ID), nil)
	}
	if len(rs.Rules) == 0 {
		return domain.NewProviderValidationError(providerID, "rule set declares no rules", nil)
	}

	seen := make(map[string]bool, len(rs.Rules))
	for i, r := range rs.Rules {
		if r == nil {
			return domain.NewProviderValidationError(providerID, fmt.Sprintf("rule #%d is nil", i+1), nil)
		}
		id := r.ID()
		if id == "" {
			return domain.NewProviderValidationError(providerID, fmt.Sprintf("rule #%d has an empty id", i+1), nil)
		}
		if id != r.Issue().ID {
			return domain.NewProviderValidationError(providerID, fmt.Sprintf("rule '%s' reports issue '%s'", id, r.Issue().ID), nil)
		}
		if seen[id] {
			return domain.NewProviderValidationError(providerID, fmt.Sprintf("duplicate rule id '%s'", id), nil)
		}
		seen[id] = true
	}
	return nil
}

// Registry holds the providers known to the engine
type Registry struct {
	mu        sync.RWMutex
	providers map[string]Provider
}

// NewRegistry creates a registry holding the given providers
func NewRegistry(providers ...Provider) (*Registry, error) {
	r := &Registry{providers: make(map[string]Provider)}
	for _, p := range providers {
		if err := r.Register(p); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// Register adds a provider. Provider ids must be unique.
func (r *Registry) Register(p Provider) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	id := p.RuleSetID()
	if id == "" {
		return domain.NewProviderValidationError(id, "provider id must not be empty", nil)
	}
	if _, exists := r.providers[id]; exists {
		return domain.NewProviderValidationError(id, "provider registered twice", nil)
	}
	r.providers[id] = p
	return nil
}

// Providers returns the registered providers sorted by id
func (r *Registry) Providers() []Provider {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Provider, 0, len(r.providers))
	for _, p := range r.providers {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].RuleSetID() < out[j].RuleSetID()
	})
	return out
}

// Lookup returns the provider registered under id
func (r *Registry) Lookup(id string) (Provider, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.providers[id]
	return p, ok
}
