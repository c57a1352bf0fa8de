package service

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ludo-technologies/jsguard/domain"
	"github.com/ludo-technologies/jsguard/internal/api"
	"github.com/ludo-technologies/jsguard/internal/ast"
	"github.com/ludo-technologies/jsguard/internal/baseline"
	"github.com/ludo-technologies/jsguard/internal/config"
	"github.com/ludo-technologies/jsguard/internal/processors"
	"github.com/ludo-technologies/jsguard/internal/rules"
	"github.com/ludo-technologies/jsguard/internal/testutil"
)

const loadSource = `function load(items) {
  debugger;
  if (items) {}
}
function other() {
  debugger;
}
`

const suppressedSource = `// @Suppress("DebuggerStatement")
function load(items) {
  debugger;
  if (items) {}
}
function other() {
  debugger;
}
`

type ruleSpec struct {
	id    string
	visit api.VisitFunc
	opts  []api.FuncRuleOption
}

func testProvider(id string, specs ...ruleSpec) api.ProviderFunc {
	return api.ProviderFunc{ID: id, Fn: func(_ *api.Context, cfg config.Config) (*api.RuleSet, error) {
		rs := make([]api.Rule, 0, len(specs))
		for _, s := range specs {
			issue := domain.Issue{ID: s.id, Severity: domain.SeverityWarning, Debt: domain.DebtFiveMins}
			r, err := api.NewFuncRule(cfg.SubConfig(s.id), issue, s.visit, s.opts...)
			if err != nil {
				return nil, err
			}
			rs = append(rs, r)
		}
		return api.NewRuleSet(id, cfg, rs...)
	}}
}

// reportFunctions emits one finding per function declaration
func reportFunctions(file *ast.File, emit api.Emit) error {
	file.Root.Walk(func(n *ast.Node) bool {
		if n.Type == ast.NodeFunction {
			emit(n, "function "+n.Name)
		}
		return true
	})
	return nil
}

func newEngine(t *testing.T, cfg config.Config, providers ...api.Provider) *Engine {
	t.Helper()
	reg, err := api.NewRegistry(providers...)
	require.NoError(t, err)
	return NewEngine(EngineOptions{Config: cfg, Registry: reg, Logger: zerolog.Nop(), Parallelism: 4})
}

func builtinEngine(t *testing.T, cfg config.Config, b *baseline.Baseline) *Engine {
	t.Helper()
	reg, err := rules.NewRegistry()
	require.NoError(t, err)
	return NewEngine(EngineOptions{
		Config:      cfg,
		Registry:    reg,
		Logger:      zerolog.Nop(),
		Parallelism: 2,
		Baseline:    b,
		Listeners:   processors.Defaults(),
	})
}

func ruleIDsOf(findings []domain.Finding) []string {
	out := make([]string, len(findings))
	for i, f := range findings {
		out[i] = f.RuleID
	}
	return out
}

func TestEngine_InactiveRuleSetReportsNothing(t *testing.T) {
	src := "function create(a, b, c, d, e, f) {\n  debugger;\n  return a;\n}\n"
	files := []*ast.File{testutil.ParseFile(t, "a.js", src)}

	result, err := builtinEngine(t, testutil.Config(t, "style:\n  active: false\n"), nil).Run(context.Background(), files)
	require.NoError(t, err)

	assert.Empty(t, result.FindingsFor("style"))
	assert.Equal(t, []string{"LongParameterList"}, ruleIDsOf(result.FindingsFor("complexity")))

	result, err = builtinEngine(t, config.Empty(), nil).Run(context.Background(), files)
	require.NoError(t, err)
	assert.Equal(t, []string{"DebuggerStatement"}, ruleIDsOf(result.FindingsFor("style")))
}

func TestEngine_SuppressedFindingIsDropped(t *testing.T) {
	files := []*ast.File{testutil.ParseFile(t, "a.js", suppressedSource)}

	result, err := builtinEngine(t, config.Empty(), nil).Run(context.Background(), files)
	require.NoError(t, err)

	style := result.FindingsFor("style")
	require.Len(t, style, 2)
	assert.Equal(t, "DebuggerStatement", style[0].RuleID)
	assert.Equal(t, "a.js$other$debugger;", style[0].Entity.Signature)
	assert.Equal(t, "EmptyBlock", style[1].RuleID, "other rules inside the suppressed function still report")
	for _, f := range style {
		assert.Equal(t, "style", f.RuleSetID)
	}
}

func TestEngine_BaselineClassifiesUnchangedFindingsAsKnown(t *testing.T) {
	files := []*ast.File{testutil.ParseFile(t, "a.js", loadSource)}

	first, err := builtinEngine(t, config.Empty(), nil).Run(context.Background(), files)
	require.NoError(t, err)
	require.Equal(t, 3, first.FindingCount())
	b := baseline.Create(first.AllFindings(), nil)

	// Shift every line; fingerprints do not depend on positions
	shifted := []*ast.File{testutil.ParseFile(t, "a.js", "\n\n"+loadSource)}
	second, err := builtinEngine(t, config.Empty(), b).Run(context.Background(), shifted)
	require.NoError(t, err)

	assert.True(t, second.BaselineApplied())
	assert.Len(t, second.KnownFindings(), 3)
	assert.Empty(t, second.NewFindings())
	assert.Equal(t, 3, second.FindingCount(), "classification keeps every finding")
}

func TestEngine_RenamedRuleIsNew(t *testing.T) {
	files := []*ast.File{testutil.ParseFile(t, "a.js", loadSource)}

	first, err := newEngine(t, config.Empty(), testProvider("naming", ruleSpec{id: "OldName", visit: reportFunctions})).
		Run(context.Background(), files)
	require.NoError(t, err)
	require.Equal(t, 2, first.FindingCount())

	reg, err := api.NewRegistry(testProvider("naming", ruleSpec{id: "NewName", visit: reportFunctions}))
	require.NoError(t, err)
	engine := NewEngine(EngineOptions{
		Config:   config.Empty(),
		Registry: reg,
		Logger:   zerolog.Nop(),
		Baseline: baseline.Create(first.AllFindings(), nil),
	})
	second, err := engine.Run(context.Background(), files)
	require.NoError(t, err)

	assert.Len(t, second.NewFindings(), 2)
	assert.Empty(t, second.KnownFindings())
}

func TestEngine_SuppressionRunsBeforeBaseline(t *testing.T) {
	unsuppressed := []*ast.File{testutil.ParseFile(t, "a.js", loadSource)}
	first, err := builtinEngine(t, config.Empty(), nil).Run(context.Background(), unsuppressed)
	require.NoError(t, err)
	b := baseline.Create(first.AllFindings(), nil)

	suppressed := []*ast.File{testutil.ParseFile(t, "a.js", suppressedSource)}
	second, err := builtinEngine(t, config.Empty(), b).Run(context.Background(), suppressed)
	require.NoError(t, err)

	all := append(second.NewFindings(), second.KnownFindings()...)
	for _, f := range all {
		assert.NotEqual(t, "a.js$load$debugger;", f.Entity.Signature, "a suppressed finding never reaches the baseline stage")
	}
	assert.Len(t, second.KnownFindings(), 2)
	assert.Empty(t, second.NewFindings())
}

func TestEngine_ProviderWithoutRulesAbortsSetup(t *testing.T) {
	listener := &countingListener{}
	reg, err := api.NewRegistry(testProvider("empty"))
	require.NoError(t, err)
	engine := NewEngine(EngineOptions{Config: config.Empty(), Registry: reg, Logger: zerolog.Nop(), Listeners: []api.FileProcessListener{listener}})

	_, err = engine.Run(context.Background(), []*ast.File{testutil.ParseFile(t, "a.js", loadSource)})

	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrProviderValidation))
	assert.Contains(t, err.Error(), "rule set 'empty'")
	assert.Zero(t, listener.started.Load(), "no file is processed after a failed setup")
	assert.Equal(t, StateDone, engine.State())
}

func TestEngine_SetupFailures(t *testing.T) {
	tests := []struct {
		name     string
		cfg      string
		provider api.Provider
		target   error
	}{
		{
			name: "cyclic ordering",
			cfg:  "test: {}",
			provider: testProvider("test",
				ruleSpec{id: "A", visit: reportFunctions, opts: []api.FuncRuleOption{api.WithRunAfter("B")}},
				ruleSpec{id: "B", visit: reportFunctions, opts: []api.FuncRuleOption{api.WithRunAfter("A")}},
			),
			target: domain.ErrRuleOrder,
		},
		{
			name:     "invalid rule configuration",
			cfg:      "test:\n  A:\n    severity: fatal\n",
			provider: testProvider("test", ruleSpec{id: "A", visit: reportFunctions}),
			target:   domain.ErrConfig,
		},
		{
			name: "provider error",
			cfg:  "test: {}",
			provider: api.ProviderFunc{ID: "test", Fn: func(*api.Context, config.Config) (*api.RuleSet, error) {
				return nil, errors.New("resource missing")
			}},
			target: domain.ErrProviderValidation,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := newEngine(t, testutil.Config(t, tt.cfg), tt.provider).Setup()
			require.Error(t, err)
			assert.True(t, errors.Is(err, tt.target), "got %v", err)
		})
	}
}

func TestEngine_FaultIsolation(t *testing.T) {
	provider := testProvider("test",
		ruleSpec{id: "Failing", visit: func(file *ast.File, emit api.Emit) error {
			emit(file.Root, "reported before failing")
			if file.Path == "b.js" {
				return errors.New("cannot handle b.js")
			}
			return nil
		}},
		ruleSpec{id: "Panicking", visit: func(*ast.File, api.Emit) error {
			panic("boom")
		}},
		ruleSpec{id: "Functions", visit: reportFunctions},
	)
	files := []*ast.File{
		testutil.ParseFile(t, "a.js", "function a() {}\n"),
		testutil.ParseFile(t, "b.js", "function b() {}\n"),
	}

	result, err := newEngine(t, config.Empty(), provider).Run(context.Background(), files)
	require.NoError(t, err)

	findings := result.FindingsFor("test")
	assert.Equal(t, []string{"Failing", "Functions", "Functions"}, ruleIDsOf(findings))
	for _, f := range findings {
		assert.False(t, f.RuleID == "Failing" && f.Location().FilePath == "b.js", "findings of a failed invocation are discarded")
	}

	var failures []string
	for _, n := range result.Notifications() {
		if n.Level == domain.NotificationError {
			failures = append(failures, n.RuleID+"@"+n.File)
		}
	}
	assert.ElementsMatch(t, []string{"Failing@b.js", "Panicking@a.js", "Panicking@b.js"}, failures)
	assert.True(t, result.HasErrors())
	assert.False(t, result.Partial())
}

func TestEngine_SingleThreadedRuleSet(t *testing.T) {
	var running, peak atomic.Int32
	provider := testProvider("serial", ruleSpec{id: "Slow", visit: func(*ast.File, api.Emit) error {
		n := running.Add(1)
		for {
			p := peak.Load()
			if n <= p || peak.CompareAndSwap(p, n) {
				break
			}
		}
		time.Sleep(2 * time.Millisecond)
		running.Add(-1)
		return nil
	}})
	single := api.ProviderFunc{ID: "serial", Fn: func(ctx *api.Context, cfg config.Config) (*api.RuleSet, error) {
		rs, err := provider.Instance(ctx, cfg)
		if err != nil {
			return nil, err
		}
		rs.SingleThreaded = true
		return rs, nil
	}}

	files := make([]*ast.File, 16)
	for i := range files {
		files[i] = testutil.ParseFile(t, fmt.Sprintf("f%d.js", i), "const a = 1;\n")
	}

	reg, err := api.NewRegistry(single)
	require.NoError(t, err)
	engine := NewEngine(EngineOptions{Config: config.Empty(), Registry: reg, Logger: zerolog.Nop(), Parallelism: 8})
	_, err = engine.Run(context.Background(), files)
	require.NoError(t, err)

	assert.Equal(t, int32(1), peak.Load())
}

func TestEngine_TypeResolutionRulesAreSkipped(t *testing.T) {
	provider := testProvider("types",
		ruleSpec{id: "NeedsTypes", visit: reportFunctions, opts: []api.FuncRuleOption{api.WithTypeResolution()}},
		ruleSpec{id: "Plain", visit: reportFunctions},
	)
	files := []*ast.File{testutil.ParseFile(t, "a.js", "function a() {}\n")}

	result, err := newEngine(t, config.Empty(), provider).Run(context.Background(), files)
	require.NoError(t, err)

	assert.Equal(t, []string{"Plain"}, ruleIDsOf(result.FindingsFor("types")))
	notifications := result.Notifications()
	require.Len(t, notifications, 1)
	assert.Equal(t, domain.NotificationWarning, notifications[0].Level)
	assert.Equal(t, "NeedsTypes", notifications[0].RuleID)
	assert.Contains(t, notifications[0].Message, "type resolution")
}

func TestEngine_CancellationMarksResultPartial(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var visits atomic.Int32
	provider := testProvider("test", ruleSpec{id: "Cancel", visit: func(file *ast.File, emit api.Emit) error {
		emit(file.Root, "visited")
		if visits.Add(1) == 2 {
			cancel()
		}
		return nil
	}})
	files := make([]*ast.File, 5)
	for i := range files {
		files[i] = testutil.ParseFile(t, fmt.Sprintf("f%d.js", i), "const a = 1;\n")
	}

	reg, err := api.NewRegistry(provider)
	require.NoError(t, err)
	engine := NewEngine(EngineOptions{Config: config.Empty(), Registry: reg, Logger: zerolog.Nop(), Parallelism: 1})
	result, err := engine.Run(ctx, files)
	require.NoError(t, err)

	assert.True(t, result.Partial())
	assert.Equal(t, 2, result.FindingCount())
	var messages []string
	for _, n := range result.Notifications() {
		messages = append(messages, n.Message)
	}
	require.Len(t, messages, 1)
	assert.Contains(t, messages[0], "2 of 5 files")
}

func TestEngine_Deterministic(t *testing.T) {
	files := []*ast.File{
		testutil.ParseFile(t, "a.js", loadSource),
		testutil.ParseFile(t, "b.js", "function create(a, b, c, d, e, f) {}\n"),
		testutil.ParseFile(t, "c.js", suppressedSource),
	}

	signatures := func() []string {
		result, err := builtinEngine(t, config.Empty(), nil).Run(context.Background(), files)
		require.NoError(t, err)
		var out []string
		for _, f := range result.AllFindings() {
			out = append(out, baseline.Fingerprint(f))
		}
		return out
	}

	first := signatures()
	assert.NotEmpty(t, first)
	for i := 0; i < 5; i++ {
		assert.Equal(t, first, signatures())
	}
}

func TestEngine_SingleUse(t *testing.T) {
	engine := newEngine(t, config.Empty(), testProvider("test", ruleSpec{id: "A", visit: reportFunctions}))
	require.NoError(t, engine.Setup())
	assert.Equal(t, StateRulesInstantiated, engine.State())
	assert.Equal(t, []string{"test"}, engine.RuleSets())

	_, err := engine.Run(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, StateDone, engine.State())

	_, err = engine.Run(context.Background(), nil)
	assert.True(t, errors.Is(err, domain.ErrIllegalState))
	assert.True(t, errors.Is(engine.Setup(), domain.ErrIllegalState))
}

func TestEngine_DebtAndMetrics(t *testing.T) {
	files := []*ast.File{testutil.ParseFile(t, "a.js", loadSource)}

	result, err := builtinEngine(t, config.Empty(), nil).Run(context.Background(), files)
	require.NoError(t, err)

	// Two debugger statements and one empty block, five minutes each
	total, ok := result.Debt()
	require.True(t, ok)
	assert.Equal(t, domain.NewDebt(0, 0, 15), total)
	styleDebt, ok := result.DebtFor("style")
	require.True(t, ok)
	assert.Equal(t, total, styleDebt)
	_, ok = result.DebtFor("complexity")
	assert.False(t, ok, "a rule set without findings has no debt")

	for _, key := range []string{MetricSetupMillis, MetricAnalysisMillis, MetricAggregationMillis} {
		_, ok := domain.MetricValue[int64](result, key)
		assert.True(t, ok, key)
	}
	loc, ok := domain.MetricValue[int](result, processors.KeyLinesOfCode)
	assert.True(t, ok)
	assert.Equal(t, 7, loc)
	assert.NotEmpty(t, result.RunID())

	clean, err := builtinEngine(t, config.Empty(), nil).Run(context.Background(), []*ast.File{testutil.ParseFile(t, "b.js", "const a = 1;\n")})
	require.NoError(t, err)
	_, ok = clean.Debt()
	assert.False(t, ok, "a run without findings has no debt")
	assert.NotEqual(t, result.RunID(), clean.RunID())
}

func TestEngine_PathFilters(t *testing.T) {
	cfg := testutil.Config(t, `
test:
  excludes: ["generated/"]
  Functions:
    includes: ["src/"]
`)
	provider := testProvider("test",
		ruleSpec{id: "Functions", visit: reportFunctions},
		ruleSpec{id: "Everywhere", visit: reportFunctions},
	)
	files := []*ast.File{
		testutil.ParseFile(t, "src/a.js", "function a() {}\n"),
		testutil.ParseFile(t, "lib/b.js", "function b() {}\n"),
		testutil.ParseFile(t, "generated/c.js", "function c() {}\n"),
	}

	result, err := newEngine(t, cfg, provider).Run(context.Background(), files)
	require.NoError(t, err)

	var got []string
	for _, f := range result.FindingsFor("test") {
		got = append(got, f.RuleID+"@"+f.Location().FilePath)
	}
	assert.Equal(t, []string{"Functions@src/a.js", "Everywhere@src/a.js", "Everywhere@lib/b.js"}, got)
}

type countingListener struct {
	api.NopListener
	started   atomic.Int32
	processed atomic.Int32
	completed atomic.Int32
}

func (l *countingListener) ID() string { return "counting" }

func (l *countingListener) OnStart([]*ast.File) { l.started.Add(1) }

func (l *countingListener) OnProcess(*ast.File) { l.processed.Add(1) }

func (l *countingListener) OnProcessComplete(*ast.File, map[string][]domain.Finding) {
	l.completed.Add(1)
}

func TestEngine_Listeners(t *testing.T) {
	listener := &countingListener{}
	reg, err := api.NewRegistry(testProvider("test", ruleSpec{id: "A", visit: reportFunctions}))
	require.NoError(t, err)
	engine := NewEngine(EngineOptions{
		Config:    config.Empty(),
		Registry:  reg,
		Logger:    zerolog.Nop(),
		Listeners: []api.FileProcessListener{listener},
	})

	files := []*ast.File{
		testutil.ParseFile(t, "a.js", "function a() {}\n"),
		testutil.ParseFile(t, "b.js", "function b() {}\n"),
	}
	_, err = engine.Run(context.Background(), files)
	require.NoError(t, err)

	assert.Equal(t, int32(1), listener.started.Load())
	assert.Equal(t, int32(2), listener.processed.Load())
	assert.Equal(t, int32(2), listener.completed.Load())
}
