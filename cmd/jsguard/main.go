package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/ludo-technologies/jsguard/internal/config"
	"github.com/ludo-technologies/jsguard/internal/constants"
	"github.com/ludo-technologies/jsguard/internal/logging"
	"github.com/ludo-technologies/jsguard/internal/version"
)

// ExitError carries the process exit code of a failed command
type ExitError struct {
	Code    int
	Message string
}

func (e *ExitError) Error() string {
	return e.Message
}

// fatal wraps an error that stops a run before a result exists
func fatal(err error) error {
	return &ExitError{Code: constants.ExitCodeFatal, Message: err.Error()}
}

var (
	logLevel  string
	logFormat string
)

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   constants.ToolName,
		Short: "jsguard - configurable rule engine for JavaScript/TypeScript",
		Long: `jsguard runs configurable rule sets over JavaScript and TypeScript sources.
Findings can be suppressed in source, compared against a baseline and
weighed into a build gate for CI/CD pipelines.`,
		Version:       version.GetVersion(),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", config.DefaultLogLevel,
		"Log level: debug, info, warn, error")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", config.DefaultLogFormat,
		"Log format: text, json")

	rootCmd.AddCommand(analyzeCmd())
	rootCmd.AddCommand(baselineCmd())
	rootCmd.AddCommand(rulesCmd())
	rootCmd.AddCommand(initCmd())
	rootCmd.AddCommand(versionCmd())
	return rootCmd
}

// newLogger builds the logger of a command from the persistent flags
func newLogger(cmd *cobra.Command) zerolog.Logger {
	return logging.New(logLevel, logFormat, cmd.ErrOrStderr()).With().Str("command", cmd.Name()).Logger()
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	err := newRootCmd().ExecuteContext(ctx)
	if err == nil {
		return
	}

	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		if exitErr.Message != "" {
			fmt.Fprintf(os.Stderr, "Error: %s\n", exitErr.Message)
		}
		stop()
		os.Exit(exitErr.Code)
	}
	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	stop()
	os.Exit(constants.ExitCodeFatal)
}

func versionCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			verbose, _ := cmd.Flags().GetBool("verbose")
			if verbose {
				fmt.Fprintln(cmd.OutOrStdout(), version.GetFullVersion())
			} else {
				fmt.Fprintf(cmd.OutOrStdout(), "%s version %s\n", constants.ToolName, version.GetVersion())
			}
		},
	}

	cmd.Flags().BoolP("verbose", "v", false, "Show detailed version information")
	return cmd
}
