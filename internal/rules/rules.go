// Package rules wires the built-in rule set providers
package rules

import (
	"github.com/ludo-technologies/jsguard/internal/api"
	"github.com/ludo-technologies/jsguard/internal/rules/complexity"
	"github.com/ludo-technologies/jsguard/internal/rules/style"
)

// Providers returns the built-in providers
func Providers() []api.Provider {
	return []api.Provider{
		complexity.Provider(),
		style.Provider(),
	}
}

// NewRegistry returns a registry holding the built-in providers and extra
func NewRegistry(extra ...api.Provider) (*api.Registry, error) {
	return api.NewRegistry(append(Providers(), extra...)...)
}
