package analyzer

import (
	"testing"

	"github.com/ludo-technologies/jsguard/internal/ast"
	"github.com/ludo-technologies/jsguard/internal/parser"
)

func parseJS(t *testing.T, code string) *ast.File {
	t.Helper()
	p := parser.NewParser()
	defer p.Close()
	file, err := p.ParseString(code)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	return file
}

func findFunction(file *ast.File, name string) *ast.Node {
	return file.Root.Find(func(n *ast.Node) bool {
		return n.IsFunction() && n.Name == name
	})
}

func testThresholds() RiskThresholds {
	return RiskThresholds{Low: 5, Medium: 10}
}

func TestComplexityResult_GetDetailedMetrics(t *testing.T) {
	result := &ComplexityResult{
		IfStatements:      2,
		LoopStatements:    1,
		ExceptionHandlers: 1,
		SwitchCases:       0,
		LogicalOperators:  2,
		TernaryOperators:  1,
		NestingDepth:      3,
	}

	metrics := result.GetDetailedMetrics()

	tests := []struct {
		key      string
		expected int
	}{
		{"if_statements", 2},
		{"loop_statements", 1},
		{"exception_handlers", 1},
		{"switch_cases", 0},
		{"logical_operators", 2},
		{"ternary_operators", 1},
		{"nesting_depth", 3},
	}

	for _, tc := range tests {
		if metrics[tc.key] != tc.expected {
			t.Errorf("metrics[%s] = %d, expected %d", tc.key, metrics[tc.key], tc.expected)
		}
	}
}

func TestComplexityResult_String(t *testing.T) {
	result := &ComplexityResult{
		FunctionName: "calculateSum",
		Complexity:   15,
		RiskLevel:    "high",
	}

	str := result.String()
	expected := "Function: calculateSum, Complexity: 15, Risk: high"
	if str != expected {
		t.Errorf("String() = %s, expected %s", str, expected)
	}
}

func TestCalculateComplexity_Nil(t *testing.T) {
	result := CalculateComplexity(nil)

	if result.Complexity != 0 {
		t.Errorf("Nil function should have complexity 0, got %d", result.Complexity)
	}
	if result.RiskLevel != "low" {
		t.Errorf("Nil function should have low risk, got %s", result.RiskLevel)
	}
}

func TestCalculateComplexity(t *testing.T) {
	tests := []struct {
		name     string
		code     string
		fn       string
		expected int
	}{
		{
			name:     "empty function",
			code:     `function test() {}`,
			fn:       "test",
			expected: 1,
		},
		{
			name: "conditional",
			code: `
			function test(x) {
				if (x > 0) {
					return 1;
				}
				return 0;
			}`,
			fn:       "test",
			expected: 2,
		},
		{
			name: "else if chain",
			code: `
			function test(x) {
				if (x > 10) { return 3; }
				else if (x > 5) { return 2; }
				else { return 1; }
			}`,
			fn:       "test",
			expected: 3,
		},
		{
			name: "loops",
			code: `
			function test(items) {
				for (let i = 0; i < 3; i++) {}
				for (const item of items) {}
				while (items.length) { items.pop(); }
				do { items.push(1); } while (items.length < 2);
			}`,
			fn:       "test",
			expected: 5,
		},
		{
			name: "try catch",
			code: `
			function test() {
				try { run(); } catch (e) { log(e); }
			}`,
			fn:       "test",
			expected: 2,
		},
		{
			name: "switch without default",
			code: `
			function test(x) {
				switch (x) {
					case 1: return "a";
					case 2: return "b";
					case 3: return "c";
					default: return "d";
				}
			}`,
			fn:       "test",
			expected: 4,
		},
		{
			name: "logical operators",
			code: `
			function test(a, b, c) {
				return (a && b) || c;
			}`,
			fn:       "test",
			expected: 3,
		},
		{
			name: "nullish coalescing",
			code: `
			function test(a, b) {
				return a ?? b ?? "default";
			}`,
			fn:       "test",
			expected: 3,
		},
		{
			name: "ternary",
			code: `
			function test(x) {
				return x > 0 ? "positive" : "non-positive";
			}`,
			fn:       "test",
			expected: 2,
		},
		{
			name: "arithmetic is not a decision",
			code: `
			function test(a, b) {
				return a + b * 2;
			}`,
			fn:       "test",
			expected: 1,
		},
		{
			name: "nested function excluded",
			code: `
			function outer(x) {
				const inner = () => { if (x) { return 1; } return 0; };
				return inner();
			}`,
			fn:       "outer",
			expected: 1,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			fn := findFunction(parseJS(t, tc.code), tc.fn)
			if fn == nil {
				t.Fatalf("Function %s not found", tc.fn)
			}
			result := CalculateComplexity(fn)
			if result.Complexity != tc.expected {
				t.Errorf("Expected complexity %d, got %d (%v)", tc.expected, result.Complexity, result.GetDetailedMetrics())
			}
			if result.FunctionName != tc.fn {
				t.Errorf("Expected function name %s, got %s", tc.fn, result.FunctionName)
			}
		})
	}
}

func TestCalculateComplexity_RealisticCode(t *testing.T) {
	code := `
		function processOrder(order, user) {
			if (!order || !user) {
				throw new Error("Invalid arguments");
			}

			let total = 0;

			for (const item of order.items) {
				if (item.quantity <= 0) {
					continue;
				}

				const price = item.discountPrice ?? item.regularPrice;
				total += price * item.quantity;

				if (item.isGift && user.isPremium) {
					total -= total * 0.1;
				}
			}

			try {
				validateTotal(total);
			} catch (e) {
				console.error(e);
				return { error: true, total: 0 };
			}

			return { error: false, total: total > 100 ? applyBulkDiscount(total) : total };
		}
	`
	fn := findFunction(parseJS(t, code), "processOrder")

	result := CalculateComplexityWithThresholds(fn, testThresholds())

	// 3 ifs, 1 loop, 1 catch, 3 logical operators, 1 ternary
	if result.Complexity != 10 {
		t.Errorf("Expected complexity 10, got %d", result.Complexity)
	}
	if result.RiskLevel != "medium" {
		t.Errorf("Expected medium risk, got %s", result.RiskLevel)
	}
	if result.NestingDepth != 2 {
		t.Errorf("Expected nesting depth 2, got %d", result.NestingDepth)
	}
}

func TestCalculateComplexity_AnonymousFunctionName(t *testing.T) {
	file := parseJS(t, `const handler = function () { return 1; };`)
	fn := file.Root.Find(func(n *ast.Node) bool { return n.IsFunction() })
	if fn == nil {
		t.Fatal("Function expression not found")
	}

	if got := CalculateComplexity(fn).FunctionName; got != "handler" {
		t.Errorf("Expected name from declarator, got %s", got)
	}
}

func TestDetermineRiskLevel(t *testing.T) {
	tests := []struct {
		complexity int
		expected   string
	}{
		{1, "low"},
		{5, "low"},
		{6, "medium"},
		{10, "medium"},
		{11, "high"},
		{50, "high"},
	}

	for _, tc := range tests {
		result := determineRiskLevel(tc.complexity, testThresholds())
		if result != tc.expected {
			t.Errorf("determineRiskLevel(%d) = %s, expected %s", tc.complexity, result, tc.expected)
		}
	}
}

func TestCalculateNestingDepth(t *testing.T) {
	tests := []struct {
		name     string
		code     string
		expected int
	}{
		{
			name: "no nesting",
			code: `
			function test() {
				let x = 1;
				return x;
			}`,
			expected: 0,
		},
		{
			name: "single level",
			code: `
			function test(x) {
				if (x > 0) { return 1; }
				if (x < 0) { return -1; }
				return 0;
			}`,
			expected: 1,
		},
		{
			name: "deep nesting",
			code: `
			function test(x) {
				if (x > 0) {
					if (x > 10) {
						if (x > 100) {
							return "very large";
						}
					}
				}
				return "other";
			}`,
			expected: 3,
		},
		{
			name: "mixed control structures",
			code: `
			function test(items) {
				for (let item of items) {
					if (item.valid) {
						try {
							process(item);
						} catch (e) {
							console.error(e);
						}
					}
				}
			}`,
			expected: 3,
		},
		{
			name: "nested function ignored",
			code: `
			function test(items) {
				items.forEach(function (item) {
					if (item) { if (item.x) { log(item); } }
				});
			}`,
			expected: 0,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			depth := CalculateNestingDepth(findFunction(parseJS(t, tc.code), "test"))
			if depth != tc.expected {
				t.Errorf("Expected depth %d, got %d", tc.expected, depth)
			}
		})
	}

	if CalculateNestingDepth(nil) != 0 {
		t.Error("Nil node should have depth 0")
	}
}

func TestIsControlStructure(t *testing.T) {
	controlStructures := []ast.NodeType{
		ast.NodeIfStatement,
		ast.NodeSwitchStmt,
		ast.NodeForStatement,
		ast.NodeForInStatement,
		ast.NodeWhileStatement,
		ast.NodeDoStatement,
		ast.NodeTryStatement,
	}
	for _, nt := range controlStructures {
		if !isControlStructure(ast.NewNode(nt)) {
			t.Errorf("%s should be a control structure", nt)
		}
	}

	for _, nt := range []ast.NodeType{ast.NodeFunction, ast.NodeStatementBlock, ast.NodeBinaryExpr} {
		if isControlStructure(ast.NewNode(nt)) {
			t.Errorf("%s should not be a control structure", nt)
		}
	}
}

func TestComplexityAnalyzer_AnalyzeFile(t *testing.T) {
	analyzer := NewComplexityAnalyzer(testThresholds())

	if _, err := analyzer.AnalyzeFile(nil); err == nil {
		t.Error("Expected error for nil file")
	}

	file := parseJS(t, `
		function a() {}
		class B {
			run(x) { return x ? 1 : 2; }
		}
		const c = () => 1;
	`)
	results, err := analyzer.AnalyzeFile(file)
	if err != nil {
		t.Fatalf("AnalyzeFile failed: %v", err)
	}
	if len(results) != 3 {
		t.Fatalf("Expected 3 functions, got %d", len(results))
	}

	names := []string{results[0].FunctionName, results[1].FunctionName, results[2].FunctionName}
	expected := []string{"a", "run", "c"}
	for i := range expected {
		if names[i] != expected[i] {
			t.Errorf("results[%d] = %s, expected %s", i, names[i], expected[i])
		}
	}
	if results[1].Complexity != 2 {
		t.Errorf("Expected complexity 2 for run, got %d", results[1].Complexity)
	}
}
