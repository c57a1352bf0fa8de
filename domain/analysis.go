package domain

import (
	"context"
	"io"
)

// OutputFormat represents the supported output formats
type OutputFormat string

const (
	OutputFormatText  OutputFormat = "text"
	OutputFormatJSON  OutputFormat = "json"
	OutputFormatYAML  OutputFormat = "yaml"
	OutputFormatSARIF OutputFormat = "sarif"
	OutputFormatHTML  OutputFormat = "html"
)

// SupportedOutputFormats lists the formats accepted by --format
var SupportedOutputFormats = []OutputFormat{OutputFormatText, OutputFormatJSON, OutputFormatYAML, OutputFormatSARIF, OutputFormatHTML}

// AnalyzeRequest represents a request for a full analysis run. Zero values
// fall back to the engine settings of the configuration file.
type AnalyzeRequest struct {
	// Input files or directories to analyze
	Paths []string

	// Output configuration
	OutputFormat OutputFormat
	OutputWriter io.Writer
	OutputPath   string

	// Configuration
	ConfigPath       string
	BuildUponDefault bool
	AllRules         bool

	// BaselinePath classifies findings against an existing baseline
	BaselinePath string

	// Analysis options
	NoRecursive     bool
	IncludePatterns []string
	ExcludePatterns []string
	Parallelism     int
	ShowProgress    bool

	// MetricsFile receives a Prometheus text exposition of the run, if set
	MetricsFile string
}

// BaselineRequest represents a request to (re)generate a baseline file
type BaselineRequest struct {
	Paths            []string
	ConfigPath       string
	BuildUponDefault bool
	AllRules         bool
	BaselinePath     string
	NoRecursive      bool
	IncludePatterns  []string
	ExcludePatterns  []string
	Parallelism      int
	ShowProgress     bool
}

// BaselineResponse summarizes a written baseline
type BaselineResponse struct {
	Path          string
	CurrentIssues int
	Whitelisted   int
	Notifications []Notification
}

// ExecutableTask is a unit of work for the parallel executor
type ExecutableTask interface {
	Name() string
	Execute(ctx context.Context) (interface{}, error)
	IsEnabled() bool
}

// ParallelExecutor runs tasks concurrently
type ParallelExecutor interface {
	Execute(ctx context.Context, tasks []ExecutableTask) error
}

// ProgressManager creates progress indicators for long-running work
type ProgressManager interface {
	StartTask(description string, total int) TaskProgress
	IsInteractive() bool
	Close()
}

// TaskProgress tracks the progress of one task
type TaskProgress interface {
	Increment(n int)
	Describe(description string)
	Complete()
}

// JSFileReader defines the interface for collecting and reading source files
type JSFileReader interface {
	CollectJSFiles(paths []string, recursive bool, includePatterns, excludePatterns []string) ([]string, error)
	ReadFile(path string) ([]byte, error)
	IsValidJSFile(path string) bool
	FileExists(path string) (bool, error)
}

// OutputFormatter defines the interface for rendering run results
type OutputFormatter interface {
	// Format renders the result in the given format
	Format(result *Detektion, format OutputFormat) (string, error)

	// Write writes the rendered result to the writer
	Write(result *Detektion, format OutputFormat, writer io.Writer) error
}
