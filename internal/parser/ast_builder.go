package parser

import (
	"github.com/ludo-technologies/jsguard/internal/ast"
	sitter "github.com/smacker/go-tree-sitter"
)

// nameFields maps declaration node types to the grammar field holding their identifier
var nameFields = map[string]string{
	"function_declaration":           "name",
	"generator_function_declaration": "name",
	"function_expression":            "name",
	"function":                       "name",
	"class_declaration":              "name",
	"class":                          "name",
	"method_definition":              "name",
	"interface_declaration":          "name",
	"enum_declaration":               "name",
	"type_alias_declaration":         "name",
	"variable_declarator":            "name",
	"public_field_definition":        "name",
	"field_definition":               "property",
}

// identifierTypes are the node types accepted as a declaration name
var identifierTypes = map[string]bool{
	"identifier":                    true,
	"property_identifier":           true,
	"private_property_identifier":   true,
	"type_identifier":               true,
	"shorthand_property_identifier": true,
	"string":                        true,
	"number":                        true,
}

// ASTBuilder builds the engine's syntax tree from a tree-sitter CST.
// Only named grammar nodes are kept. Comments stay in the tree so rules
// can inspect them, and suppression directives are attached to the nodes
// they govern.
type ASTBuilder struct {
	filename string
	source   []byte
	root     *ast.Node
}

// NewASTBuilder creates a new AST builder
func NewASTBuilder(filename string, source []byte) *ASTBuilder {
	return &ASTBuilder{
		filename: filename,
		source:   source,
	}
}

// Build builds the file from a tree-sitter root node
func (b *ASTBuilder) Build(tsNode *sitter.Node) *ast.File {
	if tsNode == nil {
		return nil
	}

	b.root = ast.NewNode(ast.NodeProgram)
	b.root.Location = b.getLocation(tsNode)
	b.buildChildren(tsNode, b.root)

	return &ast.File{Path: b.filename, Source: b.source, Root: b.root}
}

// buildNode converts a tree-sitter node and its named descendants
func (b *ASTBuilder) buildNode(tsNode *sitter.Node) *ast.Node {
	node := ast.NewNode(b.nodeType(tsNode))
	node.Location = b.getLocation(tsNode)
	node.Name = b.nameOf(tsNode)
	b.buildChildren(tsNode, node)
	return node
}

// buildChildren converts the named children of tsNode into children of node.
// A suppression comment applies to the next non-comment sibling; a
// file-scope suppression applies to the program root.
func (b *ASTBuilder) buildChildren(tsNode *sitter.Node, node *ast.Node) {
	var pending []ast.Directive

	for i := 0; i < int(tsNode.NamedChildCount()); i++ {
		child := tsNode.NamedChild(i)
		if child == nil {
			continue
		}

		switch child.Type() {
		case "comment":
			commentNode := ast.NewNode(ast.NodeComment)
			commentNode.Location = b.getLocation(child)
			node.AddChild(commentNode)

			names, fileScope, ok := ParseDirective(child.Content(b.source))
			if !ok {
				continue
			}
			if fileScope {
				b.root.AddDirective(ast.Directive{Kind: ast.DirectiveFile, Names: names, Location: commentNode.Location})
			} else {
				pending = append(pending, ast.Directive{Kind: ast.DirectiveComment, Names: names, Location: commentNode.Location})
			}

		case "decorator":
			decoratorNode := b.buildNode(child)
			node.AddChild(decoratorNode)

			names, fileScope, ok := ParseDirective(child.Content(b.source))
			if !ok || fileScope {
				continue
			}
			d := ast.Directive{Kind: ast.DirectiveDecorator, Names: names, Location: decoratorNode.Location}
			// The TSX grammar places member decorators in the class body,
			// ahead of the member they decorate.
			if tsNode.Type() == "class_body" {
				pending = append(pending, d)
			} else {
				node.AddDirective(d)
			}

		default:
			childNode := b.buildNode(child)
			for _, d := range pending {
				childNode.AddDirective(d)
			}
			pending = nil
			node.AddChild(childNode)
		}
	}
}

// nodeType normalizes grammar differences between the JavaScript and TSX grammars
func (b *ASTBuilder) nodeType(tsNode *sitter.Node) ast.NodeType {
	if tsNode.Type() == "function" {
		return ast.NodeFunctionExpr
	}
	return ast.NodeType(tsNode.Type())
}

// nameOf extracts the declared name, or the operator of a binary expression
func (b *ASTBuilder) nameOf(tsNode *sitter.Node) string {
	if tsNode.Type() == string(ast.NodeBinaryExpr) {
		if op := b.getChildByFieldName(tsNode, "operator"); op != nil {
			return op.Type()
		}
		return ""
	}

	field, ok := nameFields[tsNode.Type()]
	if !ok {
		return ""
	}
	nameNode := b.getChildByFieldName(tsNode, field)
	if nameNode == nil || !identifierTypes[nameNode.Type()] {
		return ""
	}
	return nameNode.Content(b.source)
}

// Helper methods

// getLocation extracts location information from a tree-sitter node
func (b *ASTBuilder) getLocation(tsNode *sitter.Node) ast.Location {
	return ast.Location{
		File:        b.filename,
		StartLine:   int(tsNode.StartPoint().Row) + 1,
		StartCol:    int(tsNode.StartPoint().Column) + 1,
		EndLine:     int(tsNode.EndPoint().Row) + 1,
		EndCol:      int(tsNode.EndPoint().Column) + 1,
		StartOffset: int(tsNode.StartByte()),
		EndOffset:   int(tsNode.EndByte()),
	}
}

// getChildByFieldName gets a child node by field name
func (b *ASTBuilder) getChildByFieldName(tsNode *sitter.Node, fieldName string) *sitter.Node {
	for i := 0; i < int(tsNode.ChildCount()); i++ {
		child := tsNode.Child(i)
		if child != nil && tsNode.FieldNameForChild(i) == fieldName {
			return child
		}
	}
	return nil
}
