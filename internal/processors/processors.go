// Package processors holds the built-in file process listeners that compute
// per-run metrics such as lines of code and cyclomatic complexity.
package processors

import (
	"strings"
	"sync"

	"github.com/ludo-technologies/jsguard/domain"
	"github.com/ludo-technologies/jsguard/internal/analyzer"
	"github.com/ludo-technologies/jsguard/internal/api"
	"github.com/ludo-technologies/jsguard/internal/ast"
)

// Metric keys written to the result
const (
	KeyLinesOfCode        = "loc"
	KeySourceLinesOfCode  = "sloc"
	KeyCommentLinesOfCode = "cloc"
	KeyBlankLines         = "blank"
	KeyFunctions          = "functions"
	KeyClasses            = "classes"
	KeyFiles              = "files"
	KeyComplexity         = "mcc"
	KeyMaxComplexity      = "mcc.max"
	KeyHighRiskFunctions  = "mcc.high_risk"
)

// Defaults returns the built-in listeners
func Defaults() []api.FileProcessListener {
	return []api.FileProcessListener{
		NewLinesOfCode(),
		NewDeclarations(),
		NewComplexity(analyzer.DefaultRiskThresholds()),
	}
}

// LinesOfCode counts physical, source, comment and blank lines
type LinesOfCode struct {
	api.NopListener

	mu                           sync.Mutex
	files, loc, sloc, cloc, blnk int
}

// NewLinesOfCode creates the lines-of-code listener
func NewLinesOfCode() *LinesOfCode {
	return &LinesOfCode{}
}

func (p *LinesOfCode) ID() string { return "LinesOfCode" }

func (p *LinesOfCode) OnProcess(file *ast.File) {
	lines := file.Lines()
	if len(file.Source) == 0 {
		lines = nil
	} else if strings.HasSuffix(string(file.Source), "\n") {
		lines = lines[:len(lines)-1]
	}

	commentLines := commentOnlyLines(file, lines)

	var sloc, cloc, blank int
	for i, line := range lines {
		switch {
		case strings.TrimSpace(line) == "":
			blank++
		case commentLines[i+1]:
			cloc++
		default:
			sloc++
		}
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	p.files++
	p.loc += len(lines)
	p.sloc += sloc
	p.cloc += cloc
	p.blnk += blank
}

// commentOnlyLines returns the 1-based lines holding nothing but comment text
func commentOnlyLines(file *ast.File, lines []string) map[int]bool {
	out := make(map[int]bool)
	if file.Root == nil {
		return out
	}
	file.Root.Walk(func(n *ast.Node) bool {
		if n.Type != ast.NodeComment {
			return true
		}
		loc := n.Location
		for l := loc.StartLine; l <= loc.EndLine && l <= len(lines); l++ {
			line := lines[l-1]
			before, after := "", ""
			if l == loc.StartLine && loc.StartCol-1 <= len(line) {
				before = line[:loc.StartCol-1]
			}
			if l == loc.EndLine && loc.EndCol-1 <= len(line) {
				after = line[loc.EndCol-1:]
			}
			if strings.TrimSpace(before) == "" && strings.TrimSpace(after) == "" {
				out[l] = true
			}
		}
		return false
	})
	return out
}

func (p *LinesOfCode) OnFinish(_ []*ast.File, result *domain.DetektionBuilder) {
	p.mu.Lock()
	defer p.mu.Unlock()
	result.AddMetric(KeyFiles, p.files)
	result.AddMetric(KeyLinesOfCode, p.loc)
	result.AddMetric(KeySourceLinesOfCode, p.sloc)
	result.AddMetric(KeyCommentLinesOfCode, p.cloc)
	result.AddMetric(KeyBlankLines, p.blnk)
}

// Declarations counts functions and classes
type Declarations struct {
	api.NopListener

	mu                 sync.Mutex
	functions, classes int
}

// NewDeclarations creates the declaration counting listener
func NewDeclarations() *Declarations {
	return &Declarations{}
}

func (p *Declarations) ID() string { return "Declarations" }

func (p *Declarations) OnProcess(file *ast.File) {
	if file.Root == nil {
		return
	}
	var functions, classes int
	file.Root.Walk(func(n *ast.Node) bool {
		switch {
		case n.IsFunction():
			functions++
		case n.Type == ast.NodeClass || n.Type == ast.NodeClassExpr:
			classes++
		}
		return true
	})

	p.mu.Lock()
	defer p.mu.Unlock()
	p.functions += functions
	p.classes += classes
}

func (p *Declarations) OnFinish(_ []*ast.File, result *domain.DetektionBuilder) {
	p.mu.Lock()
	defer p.mu.Unlock()
	result.AddMetric(KeyFunctions, p.functions)
	result.AddMetric(KeyClasses, p.classes)
}

// Complexity sums the cyclomatic complexity of all functions
type Complexity struct {
	api.NopListener

	analyzer *analyzer.ComplexityAnalyzer

	mu                  sync.Mutex
	total, max, highRsk int
}

// NewComplexity creates the complexity listener
func NewComplexity(thresholds analyzer.RiskThresholds) *Complexity {
	return &Complexity{analyzer: analyzer.NewComplexityAnalyzer(thresholds)}
}

func (p *Complexity) ID() string { return "Complexity" }

func (p *Complexity) OnProcess(file *ast.File) {
	results, err := p.analyzer.AnalyzeFile(file)
	if err != nil {
		return
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	for _, r := range results {
		p.total += r.Complexity
		if r.Complexity > p.max {
			p.max = r.Complexity
		}
		if r.RiskLevel == "high" {
			p.highRsk++
		}
	}
}

func (p *Complexity) OnFinish(_ []*ast.File, result *domain.DetektionBuilder) {
	p.mu.Lock()
	defer p.mu.Unlock()
	result.AddMetric(KeyComplexity, p.total)
	result.AddMetric(KeyMaxComplexity, p.max)
	result.AddMetric(KeyHighRiskFunctions, p.highRsk)
}
