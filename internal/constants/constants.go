package constants

// Tool name and related constants
const (
	// ToolName is the name of this tool
	ToolName = "jsguard"

	// InformationURI is reported as the tool home page in SARIF output
	InformationURI = "https://github.com/ludo-technologies/jsguard"

	// ConfigFileName is the config file written by "jsguard init"
	ConfigFileName = "jsguard.yml"

	// BaselineFileName is the default baseline file
	BaselineFileName = "jsguard-baseline.yml"

	// EnvVarPrefix is the prefix for environment variables
	EnvVarPrefix = "JSGUARD"
)

// Process exit codes
const (
	ExitCodeOK          = 0
	ExitCodeGateFailure = 1
	ExitCodeFatal       = 2
)
