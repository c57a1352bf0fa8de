package api

import (
	"path/filepath"
	"strings"

	"github.com/ludo-technologies/jsguard/internal/config"
	ignore "github.com/sabhiram/go-gitignore"
)

// PathFilter decides whether a rule or rule set applies to a file based on
// gitignore-style include and exclude patterns. A nil filter allows every path.
type PathFilter struct {
	includes *ignore.GitIgnore
	excludes *ignore.GitIgnore
}

// NewPathFilter compiles include and exclude patterns. It returns nil when
// both lists are empty.
func NewPathFilter(includes, excludes []string) *PathFilter {
	if len(includes) == 0 && len(excludes) == 0 {
		return nil
	}
	f := &PathFilter{}
	if len(includes) > 0 {
		f.includes = ignore.CompileIgnoreLines(includes...)
	}
	if len(excludes) > 0 {
		f.excludes = ignore.CompileIgnoreLines(excludes...)
	}
	return f
}

// NewScopePathFilter reads the "includes" and "excludes" keys declared on a
// configuration scope
func NewScopePathFilter(cfg config.Config) (*PathFilter, error) {
	includes, err := config.LocalValue(cfg, config.KeyIncludes, []string(nil))
	if err != nil {
		return nil, err
	}
	excludes, err := config.LocalValue(cfg, config.KeyExcludes, []string(nil))
	if err != nil {
		return nil, err
	}
	return NewPathFilter(includes, excludes), nil
}

// Allows reports whether the path passes the filter. Includes are checked
// first; an excluded path is rejected even when included.
func (f *PathFilter) Allows(path string) bool {
	if f == nil {
		return true
	}
	p := strings.TrimPrefix(filepath.ToSlash(path), "./")
	if f.includes != nil && !f.includes.MatchesPath(p) {
		return false
	}
	if f.excludes != nil && f.excludes.MatchesPath(p) {
		return false
	}
	return true
}
