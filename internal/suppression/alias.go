// Package suppression decides which findings are silenced by in-source
// @Suppress directives.
package suppression

import (
	"strings"

	"github.com/ludo-technologies/jsguard/domain"
)

// Wildcard names accepted by a directive to suppress every rule
var allNames = []string{"all", "ALL"}

// toolPrefixes may precede a rule id in a directive, e.g. "jsguard:MaxLineLength"
var toolPrefixes = []string{"jsguard:", "jsguard."}

// AliasEntry is one row of the alias table
type AliasEntry struct {
	RuleID    string
	RuleSetID string
	Aliases   []string
}

// AliasTable resolves, for every rule id, the set of directive names that
// suppress it. It is built once per run and read concurrently afterwards.
type AliasTable struct {
	names map[string]map[string]struct{}
}

// NewAliasTable builds the lookup table from the rules of a run
func NewAliasTable(entries ...AliasEntry) *AliasTable {
	t := &AliasTable{names: make(map[string]map[string]struct{}, len(entries))}
	for _, e := range entries {
		t.Add(e)
	}
	return t
}

// Add registers a rule. Adding the same rule again merges its names.
func (t *AliasTable) Add(e AliasEntry) {
	set, ok := t.names[e.RuleID]
	if !ok {
		set = make(map[string]struct{}, len(e.Aliases)+4)
		t.names[e.RuleID] = set
	}
	set[e.RuleID] = struct{}{}
	if e.RuleSetID != "" {
		set[e.RuleSetID] = struct{}{}
	}
	for _, a := range e.Aliases {
		set[a] = struct{}{}
	}
	for _, all := range allNames {
		set[all] = struct{}{}
	}
}

// Names returns the names suppressing a finding. Findings of rules missing
// from the table are matched by their own rule id, rule set id and issue
// aliases.
func (t *AliasTable) Names(f domain.Finding) map[string]struct{} {
	if set, ok := t.names[f.RuleID]; ok {
		return set
	}
	set := make(map[string]struct{}, len(f.Issue.Aliases)+4)
	set[f.RuleID] = struct{}{}
	if f.RuleSetID != "" {
		set[f.RuleSetID] = struct{}{}
	}
	for _, a := range f.Issue.Aliases {
		set[a] = struct{}{}
	}
	for _, all := range allNames {
		set[all] = struct{}{}
	}
	return set
}

// Matches reports whether a directive argument suppresses the finding
func (t *AliasTable) Matches(name string, f domain.Finding) bool {
	_, ok := t.Names(f)[stripToolPrefix(name)]
	return ok
}

func stripToolPrefix(name string) string {
	for _, p := range toolPrefixes {
		if len(name) > len(p) && strings.EqualFold(name[:len(p)], p) {
			return name[len(p):]
		}
	}
	return name
}
