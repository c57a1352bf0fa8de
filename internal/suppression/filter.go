package suppression

import (
	"github.com/ludo-technologies/jsguard/domain"
	"github.com/ludo-technologies/jsguard/internal/ast"
)

// Filter drops findings whose entity lies under a directive naming the
// finding's rule id, rule set id, one of its aliases or "all"
type Filter struct {
	aliases *AliasTable
}

// NewFilter creates a filter backed by the alias table
func NewFilter(aliases *AliasTable) *Filter {
	if aliases == nil {
		aliases = NewAliasTable()
	}
	return &Filter{aliases: aliases}
}

// Filter returns the findings of file that are not suppressed. The input
// slice is left untouched.
func (f *Filter) Filter(file *ast.File, findings []domain.Finding) []domain.Finding {
	kept := make([]domain.Finding, 0, len(findings))
	for _, finding := range findings {
		if !f.IsSuppressed(file, finding) {
			kept = append(kept, finding)
		}
	}
	return kept
}

// IsSuppressed reports whether a directive on the finding's node or one of
// its ancestors names the finding
func (f *Filter) IsSuppressed(file *ast.File, finding domain.Finding) bool {
	node := finding.Entity.Node
	if node == nil && file != nil {
		node = nodeAt(file.Root, finding.Entity.Location)
	}

	for n := node; n != nil; n = n.Parent {
		for _, d := range n.Directives {
			for _, name := range d.Names {
				if f.aliases.Matches(name, finding) {
					return true
				}
			}
		}
	}
	return false
}

// nodeAt returns the innermost node starting at the location, falling back
// to the innermost node spanning its start offset
func nodeAt(root *ast.Node, loc domain.SourceLocation) *ast.Node {
	if root == nil {
		return nil
	}
	var best *ast.Node
	root.Walk(func(n *ast.Node) bool {
		l := n.Location
		if l.StartOffset <= loc.StartOffset && loc.StartOffset < max(l.EndOffset, l.StartOffset+1) {
			best = n
			return true
		}
		return n == root
	})
	if best == nil {
		return root
	}
	return best
}
