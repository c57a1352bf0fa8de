package main

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/ludo-technologies/jsguard/app"
	"github.com/ludo-technologies/jsguard/domain"
	"github.com/ludo-technologies/jsguard/internal/config"
	"github.com/ludo-technologies/jsguard/service"
)

var (
	rulesConfigPath       string
	rulesBuildUponDefault bool
	rulesAllRules         bool
	rulesFormat           string
)

func rulesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rules",
		Short: "List the available rules",
		Long: `List every rule of every rule set with its severity, debt and whether the
current configuration activates it.

Examples:
  jsguard rules
  jsguard rules --config jsguard.yml --build-upon-default-config
  jsguard rules --format json`,
		Args: cobra.NoArgs,
		RunE: runRules,
	}

	cmd.Flags().StringVarP(&rulesConfigPath, "config", "c", "",
		"Path to config file")
	cmd.Flags().BoolVar(&rulesBuildUponDefault, "build-upon-default-config", false,
		"Merge the config file over the default configuration")
	cmd.Flags().BoolVar(&rulesAllRules, "all-rules", false,
		"Activate every rule regardless of configuration")
	cmd.Flags().StringVarP(&rulesFormat, "format", "f", "text",
		"Output format: text, json, yaml")

	return cmd
}

func runRules(cmd *cobra.Command, args []string) error {
	infos, err := app.ListRules(newLogger(cmd), rulesConfigPath, config.LoadOptions{
		BuildUponDefault: rulesBuildUponDefault,
		AllRules:         rulesAllRules,
	})
	if err != nil {
		return fatal(err)
	}

	out := cmd.OutOrStdout()
	switch domain.OutputFormat(rulesFormat) {
	case domain.OutputFormatText:
		err = writeRulesTable(out, infos)
	case domain.OutputFormatJSON:
		err = service.WriteJSON(out, infos)
	case domain.OutputFormatYAML:
		err = service.WriteYAML(out, infos)
	default:
		err = domain.NewUnsupportedFormatError(rulesFormat)
	}
	if err != nil {
		return fatal(err)
	}
	return nil
}

func writeRulesTable(out io.Writer, infos []app.RuleInfo) error {
	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "RULE SET\tRULE\tACTIVE\tSEVERITY\tDEBT\tDESCRIPTION")
	for _, info := range infos {
		active := "no"
		if info.Active {
			active = "yes"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n",
			info.RuleSetID, info.ID, active, info.Severity, info.Debt, info.Description)
	}
	return w.Flush()
}
