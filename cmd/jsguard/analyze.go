package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ludo-technologies/jsguard/app"
	"github.com/ludo-technologies/jsguard/domain"
	"github.com/ludo-technologies/jsguard/internal/constants"
	"github.com/ludo-technologies/jsguard/service"
)

// runFlags are the flags shared by analyze and baseline
type runFlags struct {
	configPath       string
	buildUponDefault bool
	allRules         bool
	baselinePath     string
	noRecursive      bool
	includes         []string
	excludes         []string
	parallelism      int
	noProgress       bool
}

func (f *runFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&f.configPath, "config", "c", "",
		"Path to config file (default: discovered "+constants.ConfigFileName+")")
	cmd.Flags().BoolVar(&f.buildUponDefault, "build-upon-default-config", false,
		"Merge the config file over the default configuration")
	cmd.Flags().BoolVar(&f.allRules, "all-rules", false,
		"Activate every rule regardless of configuration")
	cmd.Flags().StringVarP(&f.baselinePath, "baseline", "b", "",
		"Path to the baseline file")
	cmd.Flags().BoolVar(&f.noRecursive, "no-recursive", false,
		"Do not descend into subdirectories")
	cmd.Flags().StringSliceVar(&f.includes, "include", nil,
		"Include patterns, gitignore syntax (default from config)")
	cmd.Flags().StringSliceVar(&f.excludes, "exclude", nil,
		"Exclude patterns, gitignore syntax (default from config)")
	cmd.Flags().IntVarP(&f.parallelism, "parallelism", "j", 0,
		"Number of files analyzed at once (default: CPU count)")
	cmd.Flags().BoolVar(&f.noProgress, "no-progress", false,
		"Disable progress bars")
}

var (
	analyzeFlags runFlags
	outputFormat string
	outputPath   string
	metricsFile  string
)

func analyzeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "analyze [path...]",
		Short: "Analyze JavaScript/TypeScript files",
		Long: `Run the configured rule sets over JavaScript/TypeScript files.

Exit codes:
  0 - Analysis passed the build gate
  1 - Build gate failed (jsguard.build.maxIssues or failWhen)
  2 - Fatal error (invalid configuration, missing baseline, etc.)

Examples:
  jsguard analyze src/
  jsguard analyze --format sarif --output jsguard.sarif src/
  jsguard analyze --baseline jsguard-baseline.yml src/
  jsguard analyze --build-upon-default-config --config jsguard.yml .`,
		RunE: runAnalyze,
	}

	analyzeFlags.register(cmd)
	cmd.Flags().StringVarP(&outputFormat, "format", "f", "",
		"Output format: text, json, yaml, sarif, html (default from config)")
	cmd.Flags().StringVarP(&outputPath, "output", "o", "",
		"Write the report to a file instead of stdout")
	cmd.Flags().StringVar(&metricsFile, "metrics-file", "",
		"Write run metrics in Prometheus text format to this file")

	return cmd
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	if len(args) == 0 {
		return fatal(fmt.Errorf("no paths specified"))
	}

	logger := newLogger(cmd)
	useCase := app.NewAnalyzeUseCaseBuilder().
		WithLogger(logger).
		WithProgressFactory(service.NewProgressManager).
		Build()

	res, err := useCase.Execute(cmd.Context(), domain.AnalyzeRequest{
		Paths:            args,
		OutputFormat:     domain.OutputFormat(outputFormat),
		OutputWriter:     cmd.OutOrStdout(),
		OutputPath:       outputPath,
		ConfigPath:       analyzeFlags.configPath,
		BuildUponDefault: analyzeFlags.buildUponDefault,
		AllRules:         analyzeFlags.allRules,
		BaselinePath:     analyzeFlags.baselinePath,
		NoRecursive:      analyzeFlags.noRecursive,
		IncludePatterns:  analyzeFlags.includes,
		ExcludePatterns:  analyzeFlags.excludes,
		Parallelism:      analyzeFlags.parallelism,
		ShowProgress:     !analyzeFlags.noProgress,
		MetricsFile:      metricsFile,
	})
	if err != nil {
		return fatal(err)
	}

	if res.OutputPath != "" {
		fmt.Fprintf(cmd.ErrOrStderr(), "Report written to %s\n", res.OutputPath)
	}
	if res.Gate.Failed {
		for _, reason := range res.Gate.Reasons {
			fmt.Fprintln(cmd.ErrOrStderr(), reason)
		}
		return &ExitError{Code: constants.ExitCodeGateFailure}
	}
	return nil
}
