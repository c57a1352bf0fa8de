package domain

import (
	"fmt"
	"strings"

	"github.com/ludo-technologies/jsguard/internal/ast"
)

// maxSnippetLength bounds the source text folded into an entity signature
const maxSnippetLength = 80

// SourceLocation represents a location in source code
type SourceLocation struct {
	FilePath    string `json:"file_path" yaml:"file_path"`
	StartLine   int    `json:"start_line" yaml:"start_line"`
	StartColumn int    `json:"start_column" yaml:"start_column"`
	EndLine     int    `json:"end_line,omitempty" yaml:"end_line,omitempty"`
	EndColumn   int    `json:"end_column,omitempty" yaml:"end_column,omitempty"`
	StartOffset int    `json:"-" yaml:"-"`
	EndOffset   int    `json:"-" yaml:"-"`
}

// NewSourceLocation derives a location from a syntax tree location
func NewSourceLocation(loc ast.Location) SourceLocation {
	return SourceLocation{
		FilePath:    loc.File,
		StartLine:   loc.StartLine,
		StartColumn: loc.StartCol,
		EndLine:     loc.EndLine,
		EndColumn:   loc.EndCol,
		StartOffset: loc.StartOffset,
		EndOffset:   loc.EndOffset,
	}
}

// String returns "path:line:column"
func (l SourceLocation) String() string {
	return fmt.Sprintf("%s:%d:%d", l.FilePath, l.StartLine, l.StartColumn)
}

// Length returns the byte length of the located text, or 0 when unknown
func (l SourceLocation) Length() int {
	if l.EndOffset <= l.StartOffset {
		return 0
	}
	return l.EndOffset - l.StartOffset
}

// Entity is the addressable point in a tree a finding is reported on
type Entity struct {
	Name      string         `json:"name" yaml:"name"`
	Signature string         `json:"signature" yaml:"signature"`
	Location  SourceLocation `json:"location" yaml:"location"`

	// Node is the reported tree node. It is nil for entities that were
	// reconstructed without a tree, such as those read back from a report.
	Node *ast.Node `json:"-" yaml:"-"`
}

// NewEntity builds the entity for a node of a parsed file.
//
// The signature is "<file name>$<declaration path>" for declarations. Other
// nodes additionally get "$<snippet>" with their whitespace-collapsed text,
// so two statements in the same function stay distinguishable. Line numbers
// never enter the signature.
func NewEntity(file *ast.File, node *ast.Node) Entity {
	return Entity{
		Name:      entityName(node),
		Signature: Signature(file, node),
		Location:  NewSourceLocation(node.Location),
		Node:      node,
	}
}

// NewFileEntity builds the entity for a whole file
func NewFileEntity(file *ast.File) Entity {
	return NewEntity(file, file.Root)
}

// Signature computes the line-independent identity of a node
func Signature(file *ast.File, node *ast.Node) string {
	var sb strings.Builder
	sb.WriteString(file.Name())
	sb.WriteString("$")
	sb.WriteString(DeclarationPath(node))
	if !node.IsDeclaration() && node.Type != ast.NodeProgram {
		if snippet := collapseWhitespace(file.Text(node)); snippet != "" {
			sb.WriteString("$")
			sb.WriteString(truncate(snippet, maxSnippetLength))
		}
	}
	return sb.String()
}

// DeclarationPath joins the names of the enclosing named declarations,
// outermost first, e.g. "Outer.method"
func DeclarationPath(node *ast.Node) string {
	var names []string
	if node.IsDeclaration() {
		names = append(names, node.Name)
	}
	for _, a := range node.Ancestors() {
		if a.IsDeclaration() {
			names = append(names, a.Name)
		}
	}
	for i, j := 0, len(names)-1; i < j; i, j = i+1, j-1 {
		names[i], names[j] = names[j], names[i]
	}
	return strings.Join(names, ".")
}

func entityName(node *ast.Node) string {
	if node.Name != "" {
		return node.Name
	}
	for _, a := range node.Ancestors() {
		if a.IsDeclaration() {
			return a.Name
		}
	}
	return ""
}

func collapseWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}

// Issue is the constant identity of a rule
type Issue struct {
	ID          string   `json:"id" yaml:"id"`
	Description string   `json:"description" yaml:"description"`
	Severity    Severity `json:"severity" yaml:"severity"`
	Debt        Debt     `json:"debt" yaml:"debt"`

	// Aliases are former ids still honored by suppression directives
	Aliases []string `json:"aliases,omitempty" yaml:"aliases,omitempty"`
}

// Finding is one reported occurrence of an issue at an entity
type Finding struct {
	RuleID     string   `json:"rule_id" yaml:"rule_id"`
	RuleSetID  string   `json:"rule_set_id" yaml:"rule_set_id"`
	Issue      Issue    `json:"issue" yaml:"issue"`
	Entity     Entity   `json:"entity" yaml:"entity"`
	Message    string   `json:"message" yaml:"message"`
	Severity   Severity `json:"severity" yaml:"severity"`
	References []Entity `json:"references,omitempty" yaml:"references,omitempty"`
}

// Location returns the location of the reported entity
func (f Finding) Location() SourceLocation {
	return f.Entity.Location
}

// String returns a one-line description of the finding
func (f Finding) String() string {
	return fmt.Sprintf("%s - [%s] %s at %s", f.RuleID, f.Entity.Name, f.Message, f.Entity.Location)
}

// CompareFindings orders findings by file path, line, column then rule id
func CompareFindings(a, b Finding) int {
	la, lb := a.Entity.Location, b.Entity.Location
	switch {
	case la.FilePath != lb.FilePath:
		return strings.Compare(la.FilePath, lb.FilePath)
	case la.StartLine != lb.StartLine:
		return la.StartLine - lb.StartLine
	case la.StartColumn != lb.StartColumn:
		return la.StartColumn - lb.StartColumn
	}
	return strings.Compare(a.RuleID, b.RuleID)
}
