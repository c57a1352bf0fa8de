package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"

	"github.com/ludo-technologies/jsguard/internal/config"
	"github.com/ludo-technologies/jsguard/internal/constants"
)

// ruleSetIDs are offered by the interactive setup
var ruleSetIDs = []string{"style", "complexity"}

func initCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Generate a jsguard configuration file",
		Long: `Generate a documented jsguard configuration file with sensible defaults.

By default, creates jsguard.yml in the current directory listing every
rule set, rule and engine setting. Use --interactive for a guided setup.

Examples:
  jsguard init
  jsguard init --config config/jsguard.yml
  jsguard init --force
  jsguard init --minimal
  jsguard init --strictness strict --inactive complexity
  jsguard init -i`,
		Args: cobra.NoArgs,
		RunE: runInit,
	}

	cmd.Flags().StringP("config", "c", constants.ConfigFileName,
		"Output path for the config file")
	cmd.Flags().BoolP("force", "f", false,
		"Overwrite existing config file")
	cmd.Flags().Bool("minimal", false,
		"Generate a minimal config meant for --build-upon-default-config")
	cmd.Flags().String("project", string(config.ProjectTypeGeneric),
		"Project type: generic, react, vue, node")
	cmd.Flags().String("strictness", string(config.StrictnessStandard),
		"Rule thresholds: relaxed, standard, strict")
	cmd.Flags().StringSlice("inactive", nil,
		"Rule sets written as inactive")
	cmd.Flags().BoolP("interactive", "i", false,
		"Interactive setup wizard")

	return cmd
}

func runInit(cmd *cobra.Command, args []string) error {
	configPath, _ := cmd.Flags().GetString("config")
	force, _ := cmd.Flags().GetBool("force")
	minimal, _ := cmd.Flags().GetBool("minimal")
	interactive, _ := cmd.Flags().GetBool("interactive")
	project, _ := cmd.Flags().GetString("project")
	strictness, _ := cmd.Flags().GetString("strictness")
	inactive, _ := cmd.Flags().GetStringSlice("inactive")

	opts := config.TemplateOptions{
		ProjectType:      config.ProjectType(project),
		Strictness:       config.Strictness(strictness),
		InactiveRuleSets: inactive,
	}
	if _, ok := config.GetProjectPresets()[opts.ProjectType]; !ok {
		return fmt.Errorf("unknown project type %q", project)
	}
	if _, ok := config.GetStrictnessPresets()[opts.Strictness]; !ok {
		return fmt.Errorf("unknown strictness %q", strictness)
	}

	if interactive {
		var err error
		opts, configPath, err = runInteractiveSetup(cmd.OutOrStdout(), configPath)
		if err != nil {
			return err
		}
	}

	if !force {
		if _, err := os.Stat(configPath); err == nil {
			return fmt.Errorf("%s already exists. Use --force to overwrite", configPath)
		}
	}

	dir := filepath.Dir(configPath)
	if dir != "." && dir != "" {
		if _, err := os.Stat(dir); os.IsNotExist(err) {
			return fmt.Errorf("directory does not exist: %s", dir)
		}
	}

	content := config.GetFullConfigTemplate(opts)
	if minimal {
		content = config.GetMinimalConfigTemplate()
	}

	if err := os.WriteFile(configPath, []byte(content), 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	displayPath := configPath
	if absPath, err := filepath.Abs(configPath); err == nil {
		displayPath = absPath
	}
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Created %s\n", displayPath)
	if minimal {
		fmt.Fprintf(out, "\nRun '%s analyze --build-upon-default-config .' to analyze your project.\n", constants.ToolName)
	} else {
		fmt.Fprintf(out, "\nRun '%s analyze .' to analyze your project.\n", constants.ToolName)
	}
	return nil
}

func runInteractiveSetup(out io.Writer, defaultConfigPath string) (config.TemplateOptions, string, error) {
	var opts config.TemplateOptions

	fmt.Fprintln(out)
	fmt.Fprintln(out, "jsguard Configuration Setup")
	fmt.Fprintln(out, "===========================")
	fmt.Fprintln(out)

	projectTypes := []struct {
		Label string
		Value config.ProjectType
	}{
		{"Generic JavaScript/TypeScript", config.ProjectTypeGeneric},
		{"React/Next.js", config.ProjectTypeReact},
		{"Vue/Nuxt", config.ProjectTypeVue},
		{"Node.js Backend", config.ProjectTypeNodeBackend},
	}

	projectPrompt := promptui.Select{
		Label: "What type of project is this?",
		Items: projectTypes,
		Templates: &promptui.SelectTemplates{
			Label:    "{{ . }}",
			Active:   "\U0001F449 {{ .Label | cyan }}",
			Inactive: "   {{ .Label | white }}",
			Selected: "\U00002705 {{ .Label | green }}",
		},
	}
	projectIdx, _, err := projectPrompt.Run()
	if err != nil {
		return opts, "", fmt.Errorf("project selection cancelled: %w", err)
	}
	opts.ProjectType = projectTypes[projectIdx].Value

	fmt.Fprintln(out)

	strictnessLevels := []struct {
		Label       string
		Description string
		Value       config.Strictness
	}{
		{"Standard (recommended)", "Balanced thresholds for most projects", config.StrictnessStandard},
		{"Relaxed", "Higher thresholds, fewer findings", config.StrictnessRelaxed},
		{"Strict", "Lower thresholds, no issues tolerated in CI", config.StrictnessStrict},
	}

	strictnessPrompt := promptui.Select{
		Label: "How strict should the rules be?",
		Items: strictnessLevels,
		Templates: &promptui.SelectTemplates{
			Label:    "{{ . }}",
			Active:   "\U0001F449 {{ .Label | cyan }} - {{ .Description | faint }}",
			Inactive: "   {{ .Label | white }} - {{ .Description | faint }}",
			Selected: "\U00002705 {{ .Label | green }}",
		},
	}
	strictnessIdx, _, err := strictnessPrompt.Run()
	if err != nil {
		return opts, "", fmt.Errorf("strictness selection cancelled: %w", err)
	}
	opts.Strictness = strictnessLevels[strictnessIdx].Value

	fmt.Fprintln(out)

	for _, id := range ruleSetIDs {
		confirm := promptui.Prompt{
			Label:     fmt.Sprintf("Enable the %s rule set", id),
			IsConfirm: true,
			Default:   "y",
		}
		if _, err := confirm.Run(); err != nil {
			// a declined confirm returns ErrAbort
			if !errors.Is(err, promptui.ErrAbort) {
				return opts, "", fmt.Errorf("rule set selection cancelled: %w", err)
			}
			opts.InactiveRuleSets = append(opts.InactiveRuleSets, id)
		}
	}

	fmt.Fprintln(out)

	outputPrompt := promptui.Prompt{
		Label:   "Output file path",
		Default: defaultConfigPath,
	}
	outputPath, err := outputPrompt.Run()
	if err != nil {
		return opts, "", fmt.Errorf("output path input cancelled: %w", err)
	}
	if outputPath == "" {
		outputPath = defaultConfigPath
	}

	fmt.Fprintln(out)
	return opts, outputPath, nil
}
