package analyzer

import (
	"fmt"

	"github.com/ludo-technologies/jsguard/internal/ast"
)

// Default risk thresholds
const (
	DefaultLowComplexityThreshold    = 9
	DefaultMediumComplexityThreshold = 19
)

// ComplexityResult holds cyclomatic complexity metrics for a function or method
type ComplexityResult struct {
	Complexity        int
	FunctionName      string
	Node              *ast.Node
	StartLine         int
	StartCol          int
	EndLine           int
	NestingDepth      int
	IfStatements      int
	LoopStatements    int
	ExceptionHandlers int
	SwitchCases       int
	LogicalOperators  int
	TernaryOperators  int
	RiskLevel         string
}

func (cr *ComplexityResult) GetDetailedMetrics() map[string]int {
	return map[string]int{
		"if_statements":      cr.IfStatements,
		"loop_statements":    cr.LoopStatements,
		"exception_handlers": cr.ExceptionHandlers,
		"switch_cases":       cr.SwitchCases,
		"logical_operators":  cr.LogicalOperators,
		"ternary_operators":  cr.TernaryOperators,
		"nesting_depth":      cr.NestingDepth,
	}
}

func (cr *ComplexityResult) String() string {
	return fmt.Sprintf("Function: %s, Complexity: %d, Risk: %s",
		cr.FunctionName, cr.Complexity, cr.RiskLevel)
}

// RiskThresholds classify complexity values into low, medium and high risk
type RiskThresholds struct {
	Low    int
	Medium int
}

// DefaultRiskThresholds returns the default thresholds
func DefaultRiskThresholds() RiskThresholds {
	return RiskThresholds{Low: DefaultLowComplexityThreshold, Medium: DefaultMediumComplexityThreshold}
}

// CalculateComplexity computes McCabe cyclomatic complexity of a function
// from its decision points: 1 + branches + loops + catch clauses + non-default
// switch cases + logical operators + ternaries. Nested functions are
// measured on their own and do not contribute.
func CalculateComplexity(fn *ast.Node) *ComplexityResult {
	return CalculateComplexityWithThresholds(fn, DefaultRiskThresholds())
}

// CalculateComplexityWithThresholds computes complexity using the given risk thresholds
func CalculateComplexityWithThresholds(fn *ast.Node, thresholds RiskThresholds) *ComplexityResult {
	if fn == nil {
		return &ComplexityResult{Complexity: 0, RiskLevel: "low"}
	}

	result := &ComplexityResult{
		FunctionName: FunctionName(fn),
		Node:         fn,
		StartLine:    fn.Location.StartLine,
		StartCol:     fn.Location.StartCol,
		EndLine:      fn.Location.EndLine,
		NestingDepth: CalculateNestingDepth(fn),
	}

	fn.Walk(func(n *ast.Node) bool {
		if n == fn {
			return true
		}
		// Don't descend into nested function bodies
		if n.IsFunction() {
			return false
		}
		switch n.Type {
		case ast.NodeIfStatement:
			result.IfStatements++
		case ast.NodeForStatement, ast.NodeForInStatement, ast.NodeWhileStatement, ast.NodeDoStatement:
			result.LoopStatements++
		case ast.NodeCatchClause:
			result.ExceptionHandlers++
		case ast.NodeSwitchCase:
			result.SwitchCases++
		case ast.NodeTernary:
			result.TernaryOperators++
		case ast.NodeBinaryExpr:
			if isLogicalOperator(n.Name) {
				result.LogicalOperators++
			}
		}
		return true
	})

	result.Complexity = 1 + result.IfStatements + result.LoopStatements + result.ExceptionHandlers +
		result.SwitchCases + result.TernaryOperators + result.LogicalOperators
	result.RiskLevel = determineRiskLevel(result.Complexity, thresholds)
	return result
}

func isLogicalOperator(op string) bool {
	return op == "&&" || op == "||" || op == "??"
}

// FunctionName returns the declared name of a function, the variable an
// anonymous function is assigned to, or "<anonymous>"
func FunctionName(fn *ast.Node) string {
	if fn.Name != "" {
		return fn.Name
	}
	// Anonymous functions take the name they are assigned to
	if p := fn.Parent; p != nil && p.Type == ast.NodeVariableDeclarator && p.Name != "" {
		return p.Name
	}
	return "<anonymous>"
}

func determineRiskLevel(complexity int, thresholds RiskThresholds) string {
	if complexity > thresholds.Medium {
		return "high"
	} else if complexity > thresholds.Low {
		return "medium"
	}
	return "low"
}

// CalculateNestingDepth calculates the maximum nesting depth of control
// structures inside a function, not counting nested functions
func CalculateNestingDepth(node *ast.Node) int {
	if node == nil {
		return 0
	}
	return nestingDepth(node)
}

func nestingDepth(n *ast.Node) int {
	deepest := 0
	for _, child := range n.Children {
		if child.IsFunction() {
			continue
		}
		d := nestingDepth(child)
		if isControlStructure(child) {
			d++
		}
		if d > deepest {
			deepest = d
		}
	}
	return deepest
}

func isControlStructure(node *ast.Node) bool {
	switch node.Type {
	case ast.NodeIfStatement, ast.NodeSwitchStmt,
		ast.NodeForStatement, ast.NodeForInStatement,
		ast.NodeWhileStatement, ast.NodeDoStatement,
		ast.NodeTryStatement:
		return true
	}
	return false
}

// ComplexityAnalyzer analyzes complexity for every function of a file
type ComplexityAnalyzer struct {
	thresholds RiskThresholds
}

func NewComplexityAnalyzer(thresholds RiskThresholds) *ComplexityAnalyzer {
	return &ComplexityAnalyzer{thresholds: thresholds}
}

// AnalyzeFile returns one result per function in source order
func (ca *ComplexityAnalyzer) AnalyzeFile(file *ast.File) ([]*ComplexityResult, error) {
	if file == nil || file.Root == nil {
		return nil, fmt.Errorf("AST is nil")
	}

	var results []*ComplexityResult
	file.Root.Walk(func(n *ast.Node) bool {
		if n.IsFunction() {
			results = append(results, CalculateComplexityWithThresholds(n, ca.thresholds))
		}
		return true
	})
	return results, nil
}
