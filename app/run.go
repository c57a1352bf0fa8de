package app

import (
	"context"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"

	"github.com/ludo-technologies/jsguard/domain"
	"github.com/ludo-technologies/jsguard/internal/api"
	"github.com/ludo-technologies/jsguard/internal/ast"
	"github.com/ludo-technologies/jsguard/internal/baseline"
	"github.com/ludo-technologies/jsguard/internal/config"
	"github.com/ludo-technologies/jsguard/internal/processors"
	"github.com/ludo-technologies/jsguard/internal/rules"
	"github.com/ludo-technologies/jsguard/service"
)

// ProgressFactory creates the progress manager of a run
type ProgressFactory func(enabled bool) domain.ProgressManager

// runOptions are the inputs shared by analysis and baseline runs
type runOptions struct {
	paths        []string
	configPath   string
	load         config.LoadOptions
	noRecursive  bool
	includes     []string
	excludes     []string
	parallelism  int
	showProgress bool
}

// preparedRun is a configured and parsed run, ready for the engine
type preparedRun struct {
	config        *service.RunConfiguration
	files         []*ast.File
	notifications []domain.Notification
	parallelism   int
	progress      domain.ProgressManager

	// basePath is the directory rule path filters are matched against
	basePath string
}

// runner holds what analysis and baseline runs have in common
type runner struct {
	logger    zerolog.Logger
	providers []api.Provider
	progress  ProgressFactory
}

func (r *runner) progressManager(enabled bool) domain.ProgressManager {
	if r.progress == nil {
		return &service.NoOpProgressManager{}
	}
	return r.progress(enabled)
}

// prepare loads the configuration, collects the source files and parses them
func (r *runner) prepare(ctx context.Context, opts runOptions) (*preparedRun, error) {
	if len(opts.paths) == 0 {
		return nil, domain.NewInvalidInputError("no input paths specified", nil)
	}

	runCfg, err := service.NewConfigurationLoader(r.logger).Load(opts.configPath, opts.paths[0], opts.load)
	if err != nil {
		return nil, err
	}
	settings := runCfg.Settings

	includes := settings.Analysis.IncludePatterns
	if len(opts.includes) > 0 {
		includes = opts.includes
	}
	excludes := settings.Analysis.ExcludePatterns
	if len(opts.excludes) > 0 {
		excludes = opts.excludes
	}
	parallelism := settings.Parallelism
	if opts.parallelism > 0 {
		parallelism = opts.parallelism
	}
	recursive := settings.Analysis.Recursive && !opts.noRecursive

	helper := NewFileHelper().
		WithGitignore(settings.Analysis.RespectGitignore).
		WithMaxFileSizeKB(settings.Analysis.MaxFileSizeKB)
	paths, err := ResolveFilePaths(helper, opts.paths, recursive, includes, excludes)
	if err != nil {
		return nil, err
	}
	if len(paths) == 0 {
		return nil, domain.NewInvalidInputError("no JavaScript/TypeScript files found in the specified paths", nil)
	}
	r.logger.Info().Int("files", len(paths)).Msg("collected source files")

	progress := r.progressManager(opts.showProgress && settings.Output.Progress)
	files, parseNotes, err := service.NewSourceLoader(helper, parallelism, progress, r.logger).Load(ctx, paths)
	if err != nil {
		progress.Close()
		return nil, err
	}

	return &preparedRun{
		config:        runCfg,
		files:         files,
		notifications: append(append([]domain.Notification{}, runCfg.Notifications...), parseNotes...),
		parallelism:   parallelism,
		progress:      progress,
		basePath:      basePathOf(opts.paths[0]),
	}, nil
}

// basePathOf returns the absolute directory of path, or "" when it cannot
// be resolved
func basePathOf(path string) string {
	abs, err := filepath.Abs(path)
	if err != nil {
		return ""
	}
	if info, err := os.Stat(abs); err == nil && !info.IsDir() {
		return filepath.Dir(abs)
	}
	return abs
}

// engine creates the engine of a prepared run
func (r *runner) engine(run *preparedRun, b *baseline.Baseline, metrics *service.Instrumentation, extensions ...service.ReportingExtension) (*service.Engine, error) {
	registry, err := rules.NewRegistry(r.providers...)
	if err != nil {
		return nil, err
	}
	return service.NewEngine(service.EngineOptions{
		Config:        run.config.Rules,
		Registry:      registry,
		Logger:        r.logger,
		Parallelism:   run.parallelism,
		BasePath:      run.basePath,
		Listeners:     processors.Defaults(),
		Baseline:      b,
		Extensions:    extensions,
		Progress:      run.progress,
		Metrics:       metrics,
		Notifications: run.notifications,
	}), nil
}
