package app

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"

	"github.com/ludo-technologies/jsguard/domain"
	"github.com/ludo-technologies/jsguard/internal/api"
	"github.com/ludo-technologies/jsguard/internal/baseline"
	"github.com/ludo-technologies/jsguard/internal/config"
	"github.com/ludo-technologies/jsguard/service"
)

// AnalyzeUseCase runs the rule engine over a set of paths and reports the result
type AnalyzeUseCase struct {
	runner
	formatter domain.OutputFormatter
}

// AnalyzeResult holds the results of an analysis run
type AnalyzeResult struct {
	Result     *domain.Detektion
	Gate       *service.GateResult
	Files      int
	OutputPath string
	Duration   time.Duration
}

// Execute performs the analysis described by req. Output is written before
// the build gate is evaluated, so a failing gate still leaves a report.
func (uc *AnalyzeUseCase) Execute(ctx context.Context, req domain.AnalyzeRequest) (*AnalyzeResult, error) {
	startTime := time.Now()

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
	settings := run.config.Settings

	format := req.OutputFormat
	if format == "" {
		format = domain.OutputFormat(settings.Output.Format)
	}
	if !isSupportedFormat(format) {
		return nil, domain.NewUnsupportedFormatError(string(format))
	}

	// Compile the gate first so a bad expression fails before any work
	gate, err := service.NewBuildGate(settings.Build)
	if err != nil {
		return nil, err
	}

	baselinePath := req.BaselinePath
	if baselinePath == "" {
		baselinePath = settings.Baseline
	}
	var known *baseline.Baseline
	var extensions []service.ReportingExtension
	if baselinePath != "" {
		known, err = baseline.Load(baselinePath)
		if err != nil {
			return nil, err
		}
		if settings.Build.ExcludeKnown {
			extensions = append(extensions, service.NewDropKnownExtension())
		}
	}

	metrics := service.NewInstrumentation()
	engine, err := uc.engine(run, known, metrics, extensions...)
	if err != nil {
		return nil, err
	}
	result, err := engine.Run(ctx, run.files)
	if err != nil {
		return nil, err
	}

	outputPath := req.OutputPath
	if outputPath == "" {
		outputPath = settings.Output.Path
	}
	if err := uc.writeOutput(result, format, req.OutputWriter, outputPath); err != nil {
		return nil, err
	}

	if req.MetricsFile != "" {
		if err := metrics.WriteTextfile(req.MetricsFile); err != nil {
			return nil, err
		}
	}

	verdict, err := gate.Evaluate(result)
	if err != nil {
		return nil, err
	}
	for _, reason := range verdict.Reasons {
		uc.logger.Info().Msg(reason)
	}

	return &AnalyzeResult{
		Result:     result,
		Gate:       verdict,
		Files:      len(run.files),
		OutputPath: outputPath,
		Duration:   time.Since(startTime),
	}, nil
}

// writeOutput writes the report to path, or to writer when path is empty
func (uc *AnalyzeUseCase) writeOutput(result *domain.Detektion, format domain.OutputFormat, writer io.Writer, path string) error {
	if path == "" {
		if writer == nil {
			writer = os.Stdout
		}
		return uc.formatter.Write(result, format, writer)
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return domain.NewOutputError(fmt.Sprintf("failed to create directory for %s", path), err)
		}
	}
	file, err := os.Create(path)
	if err != nil {
		return domain.NewOutputError(fmt.Sprintf("failed to create output file %s", path), err)
	}
	defer file.Close()
	return uc.formatter.Write(result, format, file)
}

func isSupportedFormat(format domain.OutputFormat) bool {
	for _, f := range domain.SupportedOutputFormats {
		if f == format {
			return true
		}
	}
	return false
}

// AnalyzeUseCaseBuilder builds an AnalyzeUseCase
type AnalyzeUseCaseBuilder struct {
	logger    zerolog.Logger
	providers []api.Provider
	progress  ProgressFactory
	formatter domain.OutputFormatter
}

// NewAnalyzeUseCaseBuilder creates a new builder
func NewAnalyzeUseCaseBuilder() *AnalyzeUseCaseBuilder {
	return &AnalyzeUseCaseBuilder{logger: zerolog.Nop()}
}

// WithLogger sets the logger
func (b *AnalyzeUseCaseBuilder) WithLogger(logger zerolog.Logger) *AnalyzeUseCaseBuilder {
	b.logger = logger
	return b
}

// WithProviders adds rule set providers next to the built-in ones
func (b *AnalyzeUseCaseBuilder) WithProviders(providers ...api.Provider) *AnalyzeUseCaseBuilder {
	b.providers = append(b.providers, providers...)
	return b
}

// WithProgressFactory sets how progress managers are created
func (b *AnalyzeUseCaseBuilder) WithProgressFactory(factory ProgressFactory) *AnalyzeUseCaseBuilder {
	b.progress = factory
	return b
}

// WithFormatter sets the output formatter
func (b *AnalyzeUseCaseBuilder) WithFormatter(formatter domain.OutputFormatter) *AnalyzeUseCaseBuilder {
	b.formatter = formatter
	return b
}

// Build creates the AnalyzeUseCase
func (b *AnalyzeUseCaseBuilder) Build() *AnalyzeUseCase {
	uc := &AnalyzeUseCase{
		runner: runner{
			logger:    b.logger,
			providers: b.providers,
			progress:  b.progress,
		},
		formatter: b.formatter,
	}
	if uc.formatter == nil {
		uc.formatter = service.NewOutputFormatter()
	}
	return uc
}
