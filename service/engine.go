package service

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/ludo-technologies/jsguard/domain"
	"github.com/ludo-technologies/jsguard/internal/api"
	"github.com/ludo-technologies/jsguard/internal/ast"
	"github.com/ludo-technologies/jsguard/internal/baseline"
	"github.com/ludo-technologies/jsguard/internal/config"
	"github.com/ludo-technologies/jsguard/internal/suppression"
)

// EngineState is a step of the engine life cycle
type EngineState int

const (
	StateConfigured EngineState = iota
	StateRulesInstantiated
	StatePerFileAnalysis
	StateAggregating
	StateDone
)

func (s EngineState) String() string {
	switch s {
	case StateConfigured:
		return "Configured"
	case StateRulesInstantiated:
		return "RulesInstantiated"
	case StatePerFileAnalysis:
		return "PerFileAnalysis"
	case StateAggregating:
		return "Aggregating"
	case StateDone:
		return "Done"
	}
	return fmt.Sprintf("EngineState(%d)", int(s))
}

// Metric keys written by the engine
const (
	MetricSetupMillis       = "phase.setup"
	MetricAnalysisMillis    = "phase.analysis"
	MetricAggregationMillis = "phase.aggregation"
)

// EngineOptions configures an Engine
type EngineOptions struct {
	// Config is the merged rule configuration
	Config config.Config

	// Registry holds the rule set providers to instantiate
	Registry *api.Registry

	Logger zerolog.Logger

	// Parallelism bounds the number of files analyzed at once; 0 uses one
	// worker per CPU
	Parallelism int

	// BasePath is the directory path filters are evaluated against
	BasePath string

	// TypeResolution reports whether resolved type information is available
	TypeResolution bool

	// Listeners observe every file; nil means no metric processors
	Listeners []api.FileProcessListener

	// Baseline, if set, classifies the findings of the run as new or known
	Baseline *baseline.Baseline

	// Extensions run on the built result, after the baseline stage
	Extensions []ReportingExtension

	Progress domain.ProgressManager
	Metrics  *Instrumentation

	// Notifications raised before the run, e.g. by configuration validation
	// or parsing, lead the notifications of the result
	Notifications []domain.Notification

	// Timeout bounds the per-file analysis phase; 0 uses DefaultTimeout
	Timeout time.Duration
}

// preparedRuleSet is a rule set with its runnable rules in execution order
type preparedRuleSet struct {
	*api.RuleSet
	rules []api.Rule
	mu    sync.Mutex
}

// fileResult holds what the analysis of one file produced
type fileResult struct {
	done          bool
	findings      map[string][]domain.Finding
	notifications []domain.Notification
}

// Engine runs rule sets over parsed files and assembles the result of the
// run. An engine performs exactly one run.
type Engine struct {
	opts   EngineOptions
	logger zerolog.Logger

	mu    sync.Mutex
	state EngineState

	ruleSets      []*preparedRuleSet
	filter        *suppression.Filter
	notifications []domain.Notification
	setupTime     time.Duration
}

// NewEngine creates an engine in the Configured state
func NewEngine(opts EngineOptions) *Engine {
	if opts.Config == nil {
		opts.Config = config.Empty()
	}
	return &Engine{
		opts:   opts,
		logger: opts.Logger.With().Str("component", "engine").Logger(),
		state:  StateConfigured,
	}
}

// State returns the current life cycle state
func (e *Engine) State() EngineState {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}

func illegalState(msg string) error {
	return domain.NewDomainError(domain.ErrCodeIllegalState, msg, nil)
}

// Setup instantiates the rule sets of every registered provider. Provider,
// configuration and ordering errors are fatal and leave the engine unusable.
func (e *Engine) Setup() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.state != StateConfigured {
		return illegalState(fmt.Sprintf("engine cannot be set up in state %s", e.state))
	}
	if err := e.setup(); err != nil {
		e.state = StateDone
		e.logger.Error().Err(err).Msg("Rule set setup failed")
		return err
	}
	e.state = StateRulesInstantiated
	return nil
}

func (e *Engine) setup() error {
	start := time.Now()
	defer func() {
		e.setupTime = time.Since(start)
		e.opts.Metrics.phase("setup", e.setupTime)
	}()

	if e.opts.Registry == nil {
		return domain.NewInvalidInputError("no rule set registry configured", nil)
	}

	ctx := api.NewContext(e.opts.Logger, e.opts.BasePath)
	ctx.TypeResolution = e.opts.TypeResolution

	aliases := suppression.NewAliasTable()
	for _, provider := range e.opts.Registry.Providers() {
		id := provider.RuleSetID()
		scope := e.opts.Config.SubConfig(id)

		active, err := config.IsActive(scope)
		if err != nil {
			return err
		}
		if !active {
			e.logger.Debug().Str("ruleset", id).Msg("Rule set inactive")
			continue
		}

		rs, err := provider.Instance(ctx, scope)
		if err != nil {
			var domainErr domain.DomainError
			var invalid *config.InvalidValueError
			if errors.As(err, &domainErr) || errors.As(err, &invalid) {
				return err
			}
			return domain.NewProviderValidationError(id, "failed to instantiate rule set", err)
		}
		if err := api.ValidateRuleSet(id, rs); err != nil {
			return err
		}

		runnable := make([]api.Rule, 0, len(rs.Rules))
		for _, rule := range rs.ActiveRules() {
			if tr, ok := rule.(api.TypeResolutionRule); ok && tr.RequiresTypeResolution() && !e.opts.TypeResolution {
				e.notifications = append(e.notifications, domain.Notification{
					Level:   domain.NotificationWarning,
					Message: "Rule requires type resolution, which is not available for this run; it was skipped",
					RuleID:  rule.ID(),
				})
				e.opts.Metrics.ruleSkipped("type_resolution")
				continue
			}
			runnable = append(runnable, rule)
		}

		ordered, err := api.SortRules(id, runnable)
		if err != nil {
			return err
		}
		for _, rule := range ordered {
			aliases.Add(suppression.AliasEntry{RuleID: rule.ID(), RuleSetID: id, Aliases: rule.Issue().Aliases})
		}

		e.logger.Debug().Str("ruleset", id).Int("rules", len(ordered)).Msg("Rule set instantiated")
		e.ruleSets = append(e.ruleSets, &preparedRuleSet{RuleSet: rs, rules: ordered})
	}

	e.filter = suppression.NewFilter(aliases)
	return nil
}

// RuleSets returns the ids of the instantiated rule sets in execution order
func (e *Engine) RuleSets() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	ids := make([]string, len(e.ruleSets))
	for i, rs := range e.ruleSets {
		ids[i] = rs.ID
	}
	return ids
}

// Run analyzes the files and returns the result of the run. Setup is
// performed first when it has not been called yet. Cancelling ctx stops
// scheduling further files; the result is then marked partial.
func (e *Engine) Run(ctx context.Context, files []*ast.File) (*domain.Detektion, error) {
	e.mu.Lock()
	if e.state == StateConfigured {
		if err := e.setup(); err != nil {
			e.state = StateDone
			e.mu.Unlock()
			e.logger.Error().Err(err).Msg("Rule set setup failed")
			return nil, err
		}
		e.state = StateRulesInstantiated
	}
	if e.state != StateRulesInstantiated {
		state := e.state
		e.mu.Unlock()
		return nil, illegalState(fmt.Sprintf("engine cannot run in state %s; create a new engine per run", state))
	}
	e.state = StatePerFileAnalysis
	e.mu.Unlock()

	builder := domain.NewDetektionBuilder(uuid.NewString())
	for _, n := range e.opts.Notifications {
		builder.AddNotification(n)
	}
	for _, n := range e.notifications {
		builder.AddNotification(n)
	}

	for _, l := range e.opts.Listeners {
		l.OnStart(files)
	}

	analysisStart := time.Now()
	results := make([]fileResult, len(files))
	tasks := make([]domain.ExecutableTask, len(files))
	for i, file := range files {
		tasks[i] = &fileTask{engine: e, file: file, result: &results[i]}
	}

	executor := NewParallelExecutor(e.opts.Parallelism)
	if e.opts.Progress != nil {
		executor = NewParallelExecutorWithProgress(e.opts.Parallelism, e.opts.Progress)
	}
	executor.SetTimeout(e.opts.Timeout)

	if err := executor.Execute(ctx, tasks); err != nil {
		if !errors.Is(err, domain.ErrCancelled) {
			e.setState(StateDone)
			return nil, domain.NewAnalysisError("file analysis failed", err)
		}
		builder.MarkPartial()
		e.opts.Metrics.incomplete()
		e.logger.Warn().Err(err).Msg("Analysis cancelled")
	}
	analysisTime := time.Since(analysisStart)
	e.opts.Metrics.phase("analysis", analysisTime)

	e.setState(StateAggregating)
	aggregationStart := time.Now()

	analyzed := make([]*ast.File, 0, len(files))
	for i := range results {
		r := &results[i]
		if !r.done {
			continue
		}
		analyzed = append(analyzed, files[i])
		for _, rs := range e.ruleSets {
			if fs := r.findings[rs.ID]; len(fs) > 0 {
				builder.AddFindings(rs.ID, fs...)
			}
		}
		for _, n := range r.notifications {
			builder.AddNotification(n)
		}
	}

	if len(analyzed) < len(files) {
		builder.AddNotification(domain.Notification{
			Level:   domain.NotificationWarning,
			Message: fmt.Sprintf("Analysis was interrupted; %d of %d files were analyzed and the result is incomplete", len(analyzed), len(files)),
		})
	}

	NewDebtCalculator().Apply(builder)

	for _, l := range e.opts.Listeners {
		l.OnFinish(analyzed, builder)
	}

	aggregationTime := time.Since(aggregationStart)
	e.opts.Metrics.phase("aggregation", aggregationTime)
	builder.AddMetric(MetricSetupMillis, e.setupTime.Milliseconds())
	builder.AddMetric(MetricAnalysisMillis, analysisTime.Milliseconds())
	builder.AddMetric(MetricAggregationMillis, aggregationTime.Milliseconds())

	result := builder.Build()

	extensions := e.opts.Extensions
	if e.opts.Baseline != nil {
		extensions = append([]ReportingExtension{NewBaselineExtension(e.opts.Baseline)}, extensions...)
	}
	for _, ext := range extensions {
		next, err := ext.Transform(result)
		if err != nil {
			e.setState(StateDone)
			return nil, domain.NewAnalysisError(fmt.Sprintf("reporting extension %s failed", ext.ID()), err)
		}
		result = next
	}

	e.setState(StateDone)
	e.logger.Info().
		Str("run", result.RunID()).
		Int("files", len(analyzed)).
		Int("findings", result.FindingCount()).
		Bool("partial", result.Partial()).
		Msg("Analysis finished")
	return result, nil
}

func (e *Engine) setState(s EngineState) {
	e.mu.Lock()
	e.state = s
	e.mu.Unlock()
}

// relativePath returns the path of file as seen by path filters
func (e *Engine) relativePath(file *ast.File) string {
	if e.opts.BasePath == "" {
		return file.Path
	}
	abs, err := filepath.Abs(file.Path)
	if err != nil {
		return file.Path
	}
	rel, err := filepath.Rel(e.opts.BasePath, abs)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return file.Path
	}
	return filepath.ToSlash(rel)
}

// analyzeFile runs every rule set over one file. Rule sets run one after
// the other so findings of a file come out in a fixed order.
func (e *Engine) analyzeFile(file *ast.File, out *fileResult) {
	for _, l := range e.opts.Listeners {
		l.OnProcess(file)
	}

	path := e.relativePath(file)
	out.findings = make(map[string][]domain.Finding)
	for _, rs := range e.ruleSets {
		if !rs.Paths.Allows(path) {
			continue
		}
		raw := e.runRuleSet(rs, file, path, out)
		kept := e.filter.Filter(file, raw)
		if len(kept) > 0 {
			out.findings[rs.ID] = kept
			e.opts.Metrics.findings(rs.ID, kept)
		}
	}

	for _, l := range e.opts.Listeners {
		l.OnProcessComplete(file, out.findings)
	}
	out.done = true
	e.opts.Metrics.fileAnalyzed()
}

func (e *Engine) runRuleSet(rs *preparedRuleSet, file *ast.File, path string, out *fileResult) []domain.Finding {
	if rs.SingleThreaded {
		rs.mu.Lock()
		defer rs.mu.Unlock()
	}

	var findings []domain.Finding
	for _, rule := range rs.rules {
		if scoped, ok := rule.(api.PathScopedRule); ok && !scoped.AppliesTo(path) {
			continue
		}

		start := time.Now()
		reported, err := visit(rs.ID, rule, file)
		e.opts.Metrics.ruleTimed(rs.ID, time.Since(start))

		if err != nil {
			e.opts.Metrics.ruleFailed(rs.ID, rule.ID())
			e.logger.Warn().
				Err(err).
				Str("rule", rule.ID()).
				Str("ruleset", rs.ID).
				Str("file", file.Path).
				Msg("Rule failed")
			out.notifications = append(out.notifications, domain.Notification{
				Level:   domain.NotificationError,
				Message: fmt.Sprintf("Rule failed and its findings for this file were discarded: %v", err),
				RuleID:  rule.ID(),
				File:    file.Path,
			})
			continue
		}
		findings = append(findings, reported...)
	}
	return findings
}

// visit invokes one rule on one file. A returned error or a panic discards
// everything the rule reported for the file.
func visit(ruleSetID string, rule api.Rule, file *ast.File) (findings []domain.Finding, err error) {
	defer func() {
		if r := recover(); r != nil {
			findings = nil
			err = fmt.Errorf("panic: %v", r)
		}
	}()

	err = rule.Visit(file, api.ReporterFunc(func(f domain.Finding) {
		f.RuleSetID = ruleSetID
		findings = append(findings, f)
	}))
	if err != nil {
		return nil, err
	}
	return findings, nil
}

// fileTask adapts the analysis of one file to the parallel executor
type fileTask struct {
	engine *Engine
	file   *ast.File
	result *fileResult
}

func (t *fileTask) Name() string { return t.file.Path }

func (t *fileTask) IsEnabled() bool { return true }

func (t *fileTask) Execute(context.Context) (interface{}, error) {
	t.engine.analyzeFile(t.file, t.result)
	return nil, nil
}
