package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ludo-technologies/jsguard/app"
	"github.com/ludo-technologies/jsguard/domain"
	"github.com/ludo-technologies/jsguard/internal/constants"
	"github.com/ludo-technologies/jsguard/service"
)

var baselineFlags runFlags

func baselineCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "baseline [path...]",
		Short: "Record the current findings as a baseline",
		Long: `Analyze the given paths and write every finding to a baseline file.
Later runs given the baseline report only new findings as new.

An existing baseline keeps its manually suppressed (whitelisted) entries.

Examples:
  jsguard baseline src/
  jsguard baseline --baseline config/jsguard-baseline.yml .`,
		RunE: runBaseline,
	}

	baselineFlags.register(cmd)
	return cmd
}

func runBaseline(cmd *cobra.Command, args []string) error {
	if len(args) == 0 {
		return fatal(fmt.Errorf("no paths specified"))
	}

	useCase := app.NewBaselineUseCase(newLogger(cmd), service.NewProgressManager)
	res, err := useCase.Execute(cmd.Context(), domain.BaselineRequest{
		Paths:            args,
		ConfigPath:       baselineFlags.configPath,
		BuildUponDefault: baselineFlags.buildUponDefault,
		AllRules:         baselineFlags.allRules,
		BaselinePath:     baselineFlags.baselinePath,
		NoRecursive:      baselineFlags.noRecursive,
		IncludePatterns:  baselineFlags.includes,
		ExcludePatterns:  baselineFlags.excludes,
		Parallelism:      baselineFlags.parallelism,
		ShowProgress:     !baselineFlags.noProgress,
	})
	if err != nil {
		return fatal(err)
	}

	for _, n := range res.Notifications {
		fmt.Fprintf(cmd.ErrOrStderr(), "%s\n", n)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Baseline written to %s (%d issues, %d whitelisted)\n",
		res.Path, res.CurrentIssues, res.Whitelisted)
	if res.CurrentIssues == 0 {
		fmt.Fprintf(cmd.OutOrStdout(), "No findings; run '%s analyze' to check new code against it.\n", constants.ToolName)
	}
	return nil
}
