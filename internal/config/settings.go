package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	govalidator "github.com/go-playground/validator/v10"
	"github.com/spf13/viper"

	"github.com/ludo-technologies/jsguard/internal/constants"
)

// Default engine settings
const (
	// DefaultParallelism of 0 sizes the worker pool to the available CPUs
	DefaultParallelism = 0

	// DefaultMaxIssues of 0 fails the build on the first weighted issue;
	// -1 disables the issue count gate
	DefaultMaxIssues = 0

	DefaultOutputFormat = "text"
	DefaultLogLevel     = "warn"
	DefaultLogFormat    = "text"
)

// EnvPrefix prefixes environment variables overriding settings, e.g.
// JSGUARD_PARALLELISM or JSGUARD_BUILD_MAXISSUES
const EnvPrefix = constants.EnvVarPrefix

// Settings holds the engine settings read from the "jsguard" section
type Settings struct {
	// Parallelism bounds the number of files analyzed concurrently (0 = CPU count)
	Parallelism int `json:"parallelism" mapstructure:"parallelism" yaml:"parallelism" validate:"gte=0,lte=1024"`

	// Baseline is the baseline file used to classify findings
	Baseline string `json:"baseline" mapstructure:"baseline" yaml:"baseline"`

	// Output holds output formatting settings
	Output OutputSettings `json:"output" mapstructure:"output" yaml:"output"`

	// Build holds the build failure gate
	Build BuildSettings `json:"build" mapstructure:"build" yaml:"build"`

	// Analysis holds file discovery settings
	Analysis AnalysisSettings `json:"analysis" mapstructure:"analysis" yaml:"analysis"`

	// Log holds logging settings
	Log LogSettings `json:"log" mapstructure:"log" yaml:"log"`
}

// OutputSettings holds configuration for output formatting
type OutputSettings struct {
	// Format specifies the output format: text, json, yaml, sarif, html
	Format string `json:"format" mapstructure:"format" yaml:"format" validate:"oneof=text json yaml sarif html"`

	// Path writes the report to a file instead of stdout
	Path string `json:"path" mapstructure:"path" yaml:"path"`

	// Progress shows progress bars on interactive terminals
	Progress bool `json:"progress" mapstructure:"progress" yaml:"progress"`
}

// BuildSettings holds the build failure gate configuration
type BuildSettings struct {
	// MaxIssues is the largest accepted weighted issue count (-1 = unlimited)
	MaxIssues int `json:"maxIssues" mapstructure:"maxissues" yaml:"maxIssues" validate:"gte=-1"`

	// Weights multiply the count of issues per rule set or rule id.
	// Keys are matched case-insensitively.
	Weights map[string]int `json:"weights" mapstructure:"weights" yaml:"weights" validate:"dive,gte=0"`

	// FailWhen is a CEL expression over the run counters that fails the build when true
	FailWhen string `json:"failWhen" mapstructure:"failwhen" yaml:"failWhen"`

	// ExcludeKnown ignores findings already present in the baseline
	ExcludeKnown bool `json:"excludeKnown" mapstructure:"excludeknown" yaml:"excludeKnown"`
}

// AnalysisSettings holds file discovery settings
type AnalysisSettings struct {
	IncludePatterns []string `json:"includePatterns" mapstructure:"includepatterns" yaml:"includePatterns" validate:"min=1,dive,required"`
	ExcludePatterns []string `json:"excludePatterns" mapstructure:"excludepatterns" yaml:"excludePatterns" validate:"dive,required"`
	Recursive       bool     `json:"recursive" mapstructure:"recursive" yaml:"recursive"`

	// RespectGitignore skips files ignored by .gitignore files in the analyzed roots
	RespectGitignore bool `json:"respectGitignore" mapstructure:"respectgitignore" yaml:"respectGitignore"`

	// MaxFileSizeKB skips larger files (0 = no limit)
	MaxFileSizeKB int `json:"maxFileSizeKB" mapstructure:"maxfilesizekb" yaml:"maxFileSizeKB" validate:"gte=0"`
}

// LogSettings holds logging settings
type LogSettings struct {
	Level  string `json:"level" mapstructure:"level" yaml:"level" validate:"oneof=debug info warn error"`
	Format string `json:"format" mapstructure:"format" yaml:"format" validate:"oneof=text json"`
}

// DefaultSettings returns the default engine settings
func DefaultSettings() *Settings {
	return &Settings{
		Parallelism: DefaultParallelism,
		Output: OutputSettings{
			Format:   DefaultOutputFormat,
			Progress: true,
		},
		Build: BuildSettings{
			MaxIssues: DefaultMaxIssues,
			Weights:   map[string]int{},
		},
		Analysis: AnalysisSettings{
			IncludePatterns:  []string{"**/*.js", "**/*.jsx", "**/*.mjs", "**/*.cjs", "**/*.ts", "**/*.tsx", "**/*.mts", "**/*.cts"},
			ExcludePatterns:  []string{"node_modules", "dist", "build", "coverage", "**/*.min.js"},
			Recursive:        true,
			RespectGitignore: true,
		},
		Log: LogSettings{
			Level:  DefaultLogLevel,
			Format: DefaultLogFormat,
		},
	}
}

// settingsDefaults registers the defaults with viper so environment
// overrides apply to every key
func settingsDefaults(v *viper.Viper, s *Settings) {
	prefix := SettingsSection + "."
	v.SetDefault(prefix+"parallelism", s.Parallelism)
	v.SetDefault(prefix+"baseline", s.Baseline)
	v.SetDefault(prefix+"output.format", s.Output.Format)
	v.SetDefault(prefix+"output.path", s.Output.Path)
	v.SetDefault(prefix+"output.progress", s.Output.Progress)
	v.SetDefault(prefix+"build.maxissues", s.Build.MaxIssues)
	v.SetDefault(prefix+"build.weights", s.Build.Weights)
	v.SetDefault(prefix+"build.failwhen", s.Build.FailWhen)
	v.SetDefault(prefix+"build.excludeknown", s.Build.ExcludeKnown)
	v.SetDefault(prefix+"analysis.includepatterns", s.Analysis.IncludePatterns)
	v.SetDefault(prefix+"analysis.excludepatterns", s.Analysis.ExcludePatterns)
	v.SetDefault(prefix+"analysis.recursive", s.Analysis.Recursive)
	v.SetDefault(prefix+"analysis.respectgitignore", s.Analysis.RespectGitignore)
	v.SetDefault(prefix+"analysis.maxfilesizekb", s.Analysis.MaxFileSizeKB)
	v.SetDefault(prefix+"log.level", s.Log.Level)
	v.SetDefault(prefix+"log.format", s.Log.Format)
}

// LoadSettings reads engine settings from the configuration file, applying
// JSGUARD_* environment overrides. An empty path yields the defaults with
// environment overrides.
func LoadSettings(configPath string) (*Settings, error) {
	// Create a new viper instance to avoid race conditions
	v := viper.New()
	settingsDefaults(v, DefaultSettings())

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configPath != "" {
		v.SetConfigFile(configPath)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", configPath, err)
		}
	}

	var root struct {
		Settings Settings `mapstructure:"jsguard"`
	}
	if err := v.Unmarshal(&root); err != nil {
		return nil, fmt.Errorf("failed to unmarshal settings: %w", err)
	}

	settings := &root.Settings
	if err := settings.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return settings, nil
}

var settingsValidator = govalidator.New(govalidator.WithRequiredStructEnabled())

// Validate validates the settings values
func (s *Settings) Validate() error {
	if err := settingsValidator.Struct(s); err != nil {
		if verrs, ok := err.(govalidator.ValidationErrors); ok && len(verrs) > 0 {
			fe := verrs[0]
			return fmt.Errorf("%s.%s: value '%v' violates '%s'", SettingsSection, settingsKey(fe.Namespace()), fe.Value(), fe.Tag())
		}
		return err
	}

	if s.Build.FailWhen != "" && strings.TrimSpace(s.Build.FailWhen) == "" {
		return fmt.Errorf("%s.build.failWhen must not be blank", SettingsSection)
	}
	for key := range s.Build.Weights {
		if strings.TrimSpace(key) == "" {
			return fmt.Errorf("%s.build.weights contains an empty key", SettingsSection)
		}
	}
	return nil
}

// settingsKey turns a validator namespace like "Settings.Build.MaxIssues"
// into the configuration key "build.MaxIssues"
func settingsKey(namespace string) string {
	parts := strings.Split(namespace, ".")
	if len(parts) > 1 {
		parts = parts[1:]
	}
	for i := 0; i < len(parts)-1; i++ {
		parts[i] = strings.ToLower(parts[i])
	}
	return strings.Join(parts, ".")
}

// searchConfigInDirectory searches for configuration files in a specific directory
func searchConfigInDirectory(dir string, candidates []string) string {
	for _, candidate := range candidates {
		path := filepath.Join(dir, candidate)
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}

// configCandidates are the file names probed by DiscoverConfig
var configCandidates = []string{
	constants.ConfigFileName,
	"jsguard.yaml",
	".jsguard.yml",
	".jsguard.yaml",
}

// DiscoverConfig looks for a configuration file starting at targetPath and
// walking up to the filesystem root, then in the current directory, the XDG
// config directory and finally $JSGUARD_CONFIG. It returns "" when none is found.
func DiscoverConfig(targetPath string) string {
	if targetPath != "" {
		absPath, err := filepath.Abs(targetPath)
		if err == nil {
			// If it's a file, start from its directory
			info, err := os.Stat(absPath)
			if err == nil && !info.IsDir() {
				absPath = filepath.Dir(absPath)
			}

			volume := filepath.VolumeName(absPath)
			for dir := absPath; ; dir = filepath.Dir(dir) {
				if config := searchConfigInDirectory(dir, configCandidates); config != "" {
					return config
				}

				parent := filepath.Dir(dir)
				if parent == dir || dir == volume || (volume != "" && dir == volume+string(filepath.Separator)) {
					break
				}
			}
		}
	}

	if config := searchConfigInDirectory(".", configCandidates); config != "" {
		return config
	}

	if xdgConfig := os.Getenv("XDG_CONFIG_HOME"); xdgConfig != "" {
		if config := searchConfigInDirectory(filepath.Join(xdgConfig, "jsguard"), configCandidates); config != "" {
			return config
		}
	}

	if envConfig := os.Getenv(EnvPrefix + "_CONFIG"); envConfig != "" {
		if _, err := os.Stat(envConfig); err == nil {
			return envConfig
		}
	}

	return ""
}
