// Package ast holds the read-only syntax tree the rule engine walks.
package ast

import (
	"fmt"
	"path/filepath"
	"strings"
)

// NodeType represents the type of a syntax tree node
type NodeType string

// JavaScript/TypeScript node types the engine and the bundled rules care about.
// Any other grammar node keeps its raw tree-sitter type name.
const (
	NodeProgram NodeType = "program"

	// Declarations
	NodeFunction           NodeType = "function_declaration"
	NodeFunctionExpr       NodeType = "function_expression"
	NodeArrowFunction      NodeType = "arrow_function"
	NodeGeneratorFunction  NodeType = "generator_function_declaration"
	NodeMethodDefinition   NodeType = "method_definition"
	NodeClass              NodeType = "class_declaration"
	NodeClassExpr          NodeType = "class"
	NodeInterface          NodeType = "interface_declaration"
	NodeEnum               NodeType = "enum_declaration"
	NodeTypeAlias          NodeType = "type_alias_declaration"
	NodeVariableDecl       NodeType = "variable_declaration"
	NodeLexicalDecl        NodeType = "lexical_declaration"
	NodeVariableDeclarator NodeType = "variable_declarator"
	NodeFieldDefinition    NodeType = "field_definition"
	NodePublicField        NodeType = "public_field_definition"

	// Statements
	NodeStatementBlock NodeType = "statement_block"
	NodeIfStatement    NodeType = "if_statement"
	NodeForStatement   NodeType = "for_statement"
	NodeForInStatement NodeType = "for_in_statement"
	NodeWhileStatement NodeType = "while_statement"
	NodeDoStatement    NodeType = "do_statement"
	NodeSwitchStmt     NodeType = "switch_statement"
	NodeSwitchCase     NodeType = "switch_case"
	NodeTryStatement   NodeType = "try_statement"
	NodeCatchClause    NodeType = "catch_clause"
	NodeDebugger       NodeType = "debugger_statement"
	NodeExport         NodeType = "export_statement"
	NodeImport         NodeType = "import_statement"

	// Expressions
	NodeTernary    NodeType = "ternary_expression"
	NodeBinaryExpr NodeType = "binary_expression"

	// Misc
	NodeFormalParameters NodeType = "formal_parameters"
	NodeComment          NodeType = "comment"
	NodeDecorator        NodeType = "decorator"
)

// Location represents the position of a node in the source code.
// Lines and columns are 1-based, offsets are 0-based byte offsets.
type Location struct {
	File        string
	StartLine   int
	StartCol    int
	EndLine     int
	EndCol      int
	StartOffset int
	EndOffset   int
}

// String returns a string representation of the location
func (l Location) String() string {
	return fmt.Sprintf("%s:%d:%d", l.File, l.StartLine, l.StartCol)
}

// DirectiveKind tells where a suppression directive came from
type DirectiveKind string

const (
	DirectiveDecorator DirectiveKind = "decorator"
	DirectiveComment   DirectiveKind = "comment"
	DirectiveFile      DirectiveKind = "file"
)

// Directive is an in-source suppression annotation attached to a node
type Directive struct {
	Kind     DirectiveKind
	Names    []string
	Location Location
}

// Node represents a syntax tree node
type Node struct {
	Type NodeType

	// Name is the declared identifier of a declaration, or the operator
	// of a binary expression
	Name string

	Location   Location
	Children   []*Node
	Parent     *Node
	Directives []Directive
}

// NewNode creates a new node
func NewNode(nodeType NodeType) *Node {
	return &Node{
		Type:     nodeType,
		Children: []*Node{},
	}
}

// AddChild adds a child node
func (n *Node) AddChild(child *Node) {
	if child == nil {
		return
	}
	child.Parent = n
	n.Children = append(n.Children, child)
}

// AddDirective attaches a suppression directive to the node
func (n *Node) AddDirective(d Directive) {
	n.Directives = append(n.Directives, d)
}

// Walk traverses the tree depth-first and calls the visitor function for each node.
// If the visitor returns false, traversal of that branch is stopped.
func (n *Node) Walk(visitor func(*Node) bool) {
	if n == nil {
		return
	}
	if !visitor(n) {
		return
	}
	for _, child := range n.Children {
		child.Walk(visitor)
	}
}

// Ancestors returns the chain of parents, nearest first
func (n *Node) Ancestors() []*Node {
	var out []*Node
	for p := n.Parent; p != nil; p = p.Parent {
		out = append(out, p)
	}
	return out
}

// Contains reports whether other is n itself or one of its descendants
func (n *Node) Contains(other *Node) bool {
	for cur := other; cur != nil; cur = cur.Parent {
		if cur == n {
			return true
		}
	}
	return false
}

// Find returns the first node in depth-first order matching pred
func (n *Node) Find(pred func(*Node) bool) *Node {
	var found *Node
	n.Walk(func(c *Node) bool {
		if found != nil {
			return false
		}
		if pred(c) {
			found = c
			return false
		}
		return true
	})
	return found
}

// String returns a string representation of the node
func (n *Node) String() string {
	if n.Name != "" {
		return fmt.Sprintf("%s(%s) at %s", n.Type, n.Name, n.Location)
	}
	return fmt.Sprintf("%s at %s", n.Type, n.Location)
}

// IsFunction returns true if the node is a function
func (n *Node) IsFunction() bool {
	switch n.Type {
	case NodeFunction, NodeFunctionExpr, NodeArrowFunction, NodeGeneratorFunction, NodeMethodDefinition:
		return true
	}
	return false
}

// IsDeclaration returns true for named declarations that contribute to a signature path
func (n *Node) IsDeclaration() bool {
	switch n.Type {
	case NodeFunction, NodeGeneratorFunction, NodeMethodDefinition,
		NodeClass, NodeClassExpr, NodeInterface, NodeEnum, NodeTypeAlias,
		NodeVariableDeclarator, NodeFieldDefinition, NodePublicField,
		NodeFunctionExpr, NodeArrowFunction:
		return n.Name != ""
	}
	return false
}

// File is one parsed source file
type File struct {
	Path   string
	Source []byte
	Root   *Node
}

// Name returns the base name of the file
func (f *File) Name() string {
	return filepath.Base(f.Path)
}

// Text returns the source text covered by the node
func (f *File) Text(n *Node) string {
	if n == nil || f.Source == nil {
		return ""
	}
	start, end := n.Location.StartOffset, n.Location.EndOffset
	if start < 0 || end > len(f.Source) || start > end {
		return ""
	}
	return string(f.Source[start:end])
}

// Lines returns the source split into lines without trailing newlines
func (f *File) Lines() []string {
	return strings.Split(strings.ReplaceAll(string(f.Source), "\r\n", "\n"), "\n")
}

// NodeAtLine returns the outermost node starting on the 1-based line below
// the root, or the innermost node spanning the line when none starts there
func (f *File) NodeAtLine(line int) *Node {
	if f.Root == nil {
		return nil
	}
	var starting, spanning *Node
	f.Root.Walk(func(n *Node) bool {
		if starting != nil {
			return false
		}
		if n != f.Root && n.Location.StartLine == line {
			starting = n
			return false
		}
		if n.Location.StartLine <= line && line <= n.Location.EndLine {
			spanning = n
			return true
		}
		return false
	})
	if starting != nil {
		return starting
	}
	if spanning != nil {
		return spanning
	}
	return f.Root
}
