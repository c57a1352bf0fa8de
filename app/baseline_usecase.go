package app

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/ludo-technologies/jsguard/domain"
	"github.com/ludo-technologies/jsguard/internal/api"
	"github.com/ludo-technologies/jsguard/internal/baseline"
	"github.com/ludo-technologies/jsguard/internal/config"
	"github.com/ludo-technologies/jsguard/internal/constants"
)

// BaselineUseCase records the current findings of a code base as a baseline
type BaselineUseCase struct {
	runner
}

// NewBaselineUseCase creates a baseline use case running the built-in
// providers plus extra
func NewBaselineUseCase(logger zerolog.Logger, progress ProgressFactory, extra ...api.Provider) *BaselineUseCase {
	return &BaselineUseCase{runner: runner{logger: logger, providers: extra, progress: progress}}
}

// Execute analyzes the paths and writes every finding to the baseline file.
// The manually suppressed list of an existing baseline is kept; a run
// without findings still writes an (empty) baseline.
func (uc *BaselineUseCase) Execute(ctx context.Context, req domain.BaselineRequest) (*domain.BaselineResponse, error) {
	run, err := uc.prepare(ctx, runOptions{
		paths:        req.Paths,
		configPath:   req.ConfigPath,
		load:         config.LoadOptions{BuildUponDefault: req.BuildUponDefault, AllRules: req.AllRules},
		noRecursive:  req.NoRecursive,
		includes:     req.IncludePatterns,
		excludes:     req.ExcludePatterns,
		parallelism:  req.Parallelism,
		showProgress: req.ShowProgress,
	})
	if err != nil {
		return nil, err
	}
	defer run.progress.Close()

	path := req.BaselinePath
	if path == "" {
		path = run.config.Settings.Baseline
	}
	if path == "" {
		path = constants.BaselineFileName
	}

	previous, err := baseline.LoadIfExists(path)
	if err != nil {
		return nil, err
	}

	engine, err := uc.engine(run, nil, nil)
	if err != nil {
		return nil, err
	}
	result, err := engine.Run(ctx, run.files)
	if err != nil {
		return nil, err
	}
	if result.Partial() {
		return nil, domain.NewCancelledError("analysis was interrupted; the baseline was not written", ctx.Err())
	}

	created := baseline.Create(result.AllFindings(), previous)
	if err := baseline.Save(path, created); err != nil {
		return nil, err
	}
	uc.logger.Info().Str("path", path).Int("issues", len(created.CurrentIssues())).Msg("baseline written")

	return &domain.BaselineResponse{
		Path:          path,
		CurrentIssues: len(created.CurrentIssues()),
		Whitelisted:   len(created.ManuallySuppressed()),
		Notifications: result.Notifications(),
	}, nil
}
