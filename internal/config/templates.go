package config

import (
	"strconv"
	"strings"
)

// ProjectType represents the type of JavaScript/TypeScript project
type ProjectType string

const (
	ProjectTypeGeneric     ProjectType = "generic"
	ProjectTypeReact       ProjectType = "react"
	ProjectTypeVue         ProjectType = "vue"
	ProjectTypeNodeBackend ProjectType = "node"
)

// Strictness represents the analysis strictness level
type Strictness string

const (
	StrictnessRelaxed  Strictness = "relaxed"
	StrictnessStandard Strictness = "standard"
	StrictnessStrict   Strictness = "strict"
)

// ProjectPreset holds file discovery presets for different project types
type ProjectPreset struct {
	IncludePatterns []string
	ExcludePatterns []string
}

// StrictnessPreset holds rule thresholds for different strictness levels
type StrictnessPreset struct {
	MaxLineLength     int
	MaxParameters     int
	ComplexityLimit   int
	MaxIssues         int
	ForbiddenComments []string
}

// TemplateOptions select the content of a generated configuration file
type TemplateOptions struct {
	ProjectType      ProjectType
	Strictness       Strictness
	InactiveRuleSets []string
}

var commonExcludes = []string{"node_modules", "dist", "build", "coverage", "**/*.min.js", "**/*.bundle.js"}

// GetProjectPresets returns presets for different project types
func GetProjectPresets() map[ProjectType]ProjectPreset {
	scripts := []string{"**/*.js", "**/*.ts", "**/*.jsx", "**/*.tsx"}
	return map[ProjectType]ProjectPreset{
		ProjectTypeGeneric: {
			IncludePatterns: scripts,
			ExcludePatterns: commonExcludes,
		},
		ProjectTypeReact: {
			IncludePatterns: scripts,
			ExcludePatterns: append([]string{".next"}, commonExcludes...),
		},
		ProjectTypeVue: {
			IncludePatterns: scripts,
			ExcludePatterns: append([]string{".nuxt"}, commonExcludes...),
		},
		ProjectTypeNodeBackend: {
			IncludePatterns: []string{"**/*.js", "**/*.ts", "**/*.mjs", "**/*.cjs"},
			ExcludePatterns: append([]string{"test", "tests", "__tests__"}, commonExcludes...),
		},
	}
}

// GetStrictnessPresets returns presets for different strictness levels
func GetStrictnessPresets() map[Strictness]StrictnessPreset {
	return map[Strictness]StrictnessPreset{
		StrictnessRelaxed: {
			MaxLineLength:     160,
			MaxParameters:     8,
			ComplexityLimit:   25,
			MaxIssues:         -1,
			ForbiddenComments: []string{"STOPSHIP:"},
		},
		StrictnessStandard: {
			MaxLineLength:     120,
			MaxParameters:     6,
			ComplexityLimit:   15,
			MaxIssues:         0,
			ForbiddenComments: []string{"FIXME:", "STOPSHIP:", "TODO:"},
		},
		StrictnessStrict: {
			MaxLineLength:     100,
			MaxParameters:     4,
			ComplexityLimit:   10,
			MaxIssues:         0,
			ForbiddenComments: []string{"FIXME:", "STOPSHIP:", "TODO:", "HACK:"},
		},
	}
}

// GetFullConfigTemplate returns the documented configuration template as YAML
func GetFullConfigTemplate(opts TemplateOptions) string {
	preset, ok := GetProjectPresets()[opts.ProjectType]
	if !ok {
		preset = GetProjectPresets()[ProjectTypeGeneric]
	}
	strict, ok := GetStrictnessPresets()[opts.Strictness]
	if !ok {
		strict = GetStrictnessPresets()[StrictnessStandard]
	}

	return `# jsguard configuration
# Documentation: https://github.com/ludo-technologies/jsguard

# ============================================================================
# ENGINE SETTINGS
# ============================================================================
# Every key can be overridden with an environment variable, e.g.
# JSGUARD_PARALLELISM=4 or JSGUARD_BUILD_MAXISSUES=10
jsguard:
  # Number of files analyzed concurrently (0 = number of CPUs)
  parallelism: 0

  # Baseline file with previously accepted findings
  baseline: ""

  output:
    # Output format: text, json, yaml, sarif, html
    format: text
    progress: true

  build:
    # Largest accepted weighted issue count (-1 = no limit)
    maxIssues: ` + strconv.Itoa(strict.MaxIssues) + `
    # Multiply the issue count of a rule set or rule
    weights: {}
    # CEL expression failing the build, e.g. "errors > 0 || debtMinutes > 600"
    failWhen: ""
    # Ignore findings already recorded in the baseline
    excludeKnown: false

  analysis:
    recursive: true
    respectGitignore: true
    includePatterns:` + yamlList(preset.IncludePatterns, 6) + `
    excludePatterns:` + yamlList(preset.ExcludePatterns, 6) + `

  log:
    # Log level: debug, info, warn, error
    level: warn
    format: text

# ============================================================================
# RULE CONFIGURATION
# ============================================================================
# Every rule set and rule accepts: active, severity, excludes, includes,
# aliases and debt (e.g. "1h 30min").
config:
  validation: true
  warningsAsErrors: false

style:
  active: ` + activeFlag("style", opts.InactiveRuleSets) + `
  DebuggerStatement:
    active: true
  EmptyBlock:
    active: true
  MaxLineLength:
    active: true
    maxLineLength: ` + strconv.Itoa(strict.MaxLineLength) + `
    excludePattern: '^\s*(import|export)\s'
  ForbiddenComment:
    active: true
    values:` + yamlList(strict.ForbiddenComments, 6) + `

complexity:
  active: ` + activeFlag("complexity", opts.InactiveRuleSets) + `
  LongParameterList:
    active: true
    threshold: ` + strconv.Itoa(strict.MaxParameters) + `
  ComplexMethod:
    active: true
    threshold: ` + strconv.Itoa(strict.ComplexityLimit) + `
`
}

// GetMinimalConfigTemplate returns a minimal configuration template
func GetMinimalConfigTemplate() string {
	return `# jsguard configuration (minimal)
# Run with --build-upon-default-config to inherit every other default.

style:
  MaxLineLength:
    maxLineLength: 120

complexity:
  ComplexMethod:
    threshold: 15
`
}

func activeFlag(ruleSetID string, inactive []string) string {
	for _, id := range inactive {
		if id == ruleSetID {
			return "false"
		}
	}
	return "true"
}

// yamlList formats a string slice as an indented YAML block sequence
func yamlList(items []string, indent int) string {
	if len(items) == 0 {
		return " []"
	}

	pad := strings.Repeat(" ", indent)
	var sb strings.Builder
	for _, item := range items {
		sb.WriteString("\n" + pad + "- '" + strings.ReplaceAll(item, "'", "''") + "'")
	}
	return sb.String()
}
