package service

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/owenrumney/go-sarif/v2/sarif"
	"gopkg.in/yaml.v3"

	"github.com/ludo-technologies/jsguard/domain"
	"github.com/ludo-technologies/jsguard/internal/baseline"
	"github.com/ludo-technologies/jsguard/internal/constants"
	"github.com/ludo-technologies/jsguard/internal/version"
)

// OutputFormatterImpl implements the OutputFormatter interface
type OutputFormatterImpl struct {
	now func() time.Time
}

// NewOutputFormatter creates a new output formatter
func NewOutputFormatter() *OutputFormatterImpl {
	return &OutputFormatterImpl{now: time.Now}
}

// WriteJSON writes data as JSON to the writer
func WriteJSON(writer io.Writer, data interface{}) error {
	encoder := json.NewEncoder(writer)
	encoder.SetIndent("", "  ")
	return encoder.Encode(data)
}

// WriteYAML writes data as YAML to the writer
func WriteYAML(writer io.Writer, data interface{}) error {
	encoder := yaml.NewEncoder(writer)
	encoder.SetIndent(2)
	if err := encoder.Encode(data); err != nil {
		return err
	}
	return encoder.Close()
}

// Report is the document rendered by the JSON and YAML formats
type Report struct {
	Tool          string                `json:"tool" yaml:"tool"`
	Version       string                `json:"version" yaml:"version"`
	RunID         string                `json:"run_id" yaml:"run_id"`
	GeneratedAt   string                `json:"generated_at" yaml:"generated_at"`
	Partial       bool                  `json:"partial,omitempty" yaml:"partial,omitempty"`
	Summary       ReportSummary         `json:"summary" yaml:"summary"`
	Findings      []ReportFinding       `json:"findings" yaml:"findings"`
	Metrics       []domain.Metric       `json:"metrics,omitempty" yaml:"metrics,omitempty"`
	Notifications []domain.Notification `json:"notifications,omitempty" yaml:"notifications,omitempty"`
}

// ReportSummary aggregates the findings of a report
type ReportSummary struct {
	TotalFindings int                       `json:"total_findings" yaml:"total_findings"`
	Debt          string                    `json:"debt,omitempty" yaml:"debt,omitempty"`
	RuleSets      map[string]RuleSetSummary `json:"rule_sets,omitempty" yaml:"rule_sets,omitempty"`
	NewFindings   *int                      `json:"new_findings,omitempty" yaml:"new_findings,omitempty"`
	KnownFindings *int                      `json:"known_findings,omitempty" yaml:"known_findings,omitempty"`
}

// RuleSetSummary aggregates the findings of one rule set
type RuleSetSummary struct {
	Findings int    `json:"findings" yaml:"findings"`
	Debt     string `json:"debt,omitempty" yaml:"debt,omitempty"`
}

// ReportFinding is the flattened form of a finding
type ReportFinding struct {
	RuleSet   string `json:"rule_set" yaml:"rule_set"`
	Rule      string `json:"rule" yaml:"rule"`
	Severity  string `json:"severity" yaml:"severity"`
	Message   string `json:"message" yaml:"message"`
	File      string `json:"file" yaml:"file"`
	Line      int    `json:"line" yaml:"line"`
	Column    int    `json:"column" yaml:"column"`
	Entity    string `json:"entity,omitempty" yaml:"entity,omitempty"`
	Signature string `json:"signature" yaml:"signature"`
	Debt      string `json:"debt" yaml:"debt"`

	// Baseline is "new" or "known" when the run was classified against a baseline
	Baseline string `json:"baseline,omitempty" yaml:"baseline,omitempty"`
}

// Format renders the result in the given format
func (f *OutputFormatterImpl) Format(result *domain.Detektion, format domain.OutputFormat) (string, error) {
	var buf bytes.Buffer
	if err := f.Write(result, format, &buf); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// Write writes the result in the specified format
func (f *OutputFormatterImpl) Write(result *domain.Detektion, format domain.OutputFormat, writer io.Writer) error {
	var err error
	switch format {
	case domain.OutputFormatText:
		err = f.writeText(result, writer)
	case domain.OutputFormatJSON:
		err = WriteJSON(writer, f.BuildReport(result))
	case domain.OutputFormatYAML:
		err = WriteYAML(writer, f.BuildReport(result))
	case domain.OutputFormatSARIF:
		err = f.writeSARIF(result, writer)
	case domain.OutputFormatHTML:
		err = f.writeHTML(result, writer)
	default:
		return domain.NewUnsupportedFormatError(string(format))
	}
	if err != nil {
		return domain.NewOutputError(fmt.Sprintf("failed to write %s report", format), err)
	}
	return nil
}

// knownSet returns the fingerprints of baseline-known findings, or nil
// when no baseline was applied
func knownSet(result *domain.Detektion) map[string]bool {
	if !result.BaselineApplied() {
		return nil
	}
	known := make(map[string]bool)
	for _, finding := range result.KnownFindings() {
		known[baseline.Fingerprint(finding)] = true
	}
	return known
}

// BuildReport converts the result into the JSON/YAML report document
func (f *OutputFormatterImpl) BuildReport(result *domain.Detektion) Report {
	report := Report{
		Tool:          constants.ToolName,
		Version:       version.GetVersion(),
		RunID:         result.RunID(),
		GeneratedAt:   f.now().Format(time.RFC3339),
		Partial:       result.Partial(),
		Findings:      []ReportFinding{},
		Metrics:       result.Metrics(),
		Notifications: result.Notifications(),
	}

	report.Summary.TotalFindings = result.FindingCount()
	if debt, ok := result.Debt(); ok {
		report.Summary.Debt = debt.String()
	}
	if ids := result.RuleSetIDs(); len(ids) > 0 {
		report.Summary.RuleSets = make(map[string]RuleSetSummary, len(ids))
		for _, id := range ids {
			s := RuleSetSummary{Findings: len(result.FindingsFor(id))}
			if debt, ok := result.DebtFor(id); ok {
				s.Debt = debt.String()
			}
			report.Summary.RuleSets[id] = s
		}
	}

	known := knownSet(result)
	if known != nil {
		newCount, knownCount := len(result.NewFindings()), len(result.KnownFindings())
		report.Summary.NewFindings = &newCount
		report.Summary.KnownFindings = &knownCount
	}

	for _, finding := range result.AllFindings() {
		loc := finding.Location()
		rf := ReportFinding{
			RuleSet:   finding.RuleSetID,
			Rule:      finding.RuleID,
			Severity:  finding.Severity.String(),
			Message:   finding.Message,
			File:      loc.FilePath,
			Line:      loc.StartLine,
			Column:    loc.StartColumn,
			Entity:    finding.Entity.Name,
			Signature: finding.Entity.Signature,
			Debt:      finding.Issue.Debt.String(),
		}
		if known != nil {
			rf.Baseline = "new"
			if known[baseline.Fingerprint(finding)] {
				rf.Baseline = "known"
			}
		}
		report.Findings = append(report.Findings, rf)
	}
	return report
}

// writeText writes the result as plain text
func (f *OutputFormatterImpl) writeText(result *domain.Detektion, writer io.Writer) error {
	fmt.Fprintf(writer, "\n=== %s Analysis Report ===\n", constants.ToolName)
	fmt.Fprintf(writer, "Generated: %s\n", f.now().Format(time.RFC3339))
	fmt.Fprintf(writer, "Version: %s\n\n", version.GetVersion())

	known := knownSet(result)
	findings := result.AllFindings()
	if len(findings) > 0 {
		fmt.Fprintf(writer, "Findings:\n")
		for _, finding := range findings {
			marker := ""
			if known != nil && known[baseline.Fingerprint(finding)] {
				marker = " [KNOWN]"
			}
			fmt.Fprintf(writer, "  %s %s/%s [%s] %s%s\n",
				finding.Location(), finding.RuleSetID, finding.RuleID,
				strings.ToUpper(finding.Severity.String()), finding.Message, marker)
		}
		fmt.Fprintf(writer, "\n")
	}

	// Summary
	fmt.Fprintf(writer, "Summary:\n")
	fmt.Fprintf(writer, "  Total findings: %d\n", len(findings))
	for _, id := range result.RuleSetIDs() {
		debt := "-"
		if d, ok := result.DebtFor(id); ok {
			debt = d.String()
		}
		fmt.Fprintf(writer, "  %s: %d (debt %s)\n", id, len(result.FindingsFor(id)), debt)
	}
	if debt, ok := result.Debt(); ok {
		fmt.Fprintf(writer, "  Technical debt: %s\n", debt)
	}
	if known != nil {
		fmt.Fprintf(writer, "  Baseline: %d new, %d known\n", len(result.NewFindings()), len(result.KnownFindings()))
	}
	if len(findings) == 0 {
		fmt.Fprintf(writer, "No findings.\n")
	}

	if metrics := result.Metrics(); len(metrics) > 0 {
		sort.SliceStable(metrics, func(i, j int) bool { return metrics[i].Key < metrics[j].Key })
		fmt.Fprintf(writer, "\nMetrics:\n")
		for _, m := range metrics {
			fmt.Fprintf(writer, "  %s: %v\n", m.Key, m.Value)
		}
	}

	if notifications := result.Notifications(); len(notifications) > 0 {
		fmt.Fprintf(writer, "\nNotifications:\n")
		for _, n := range notifications {
			fmt.Fprintf(writer, "  - %s\n", n)
		}
	}

	if result.Partial() {
		fmt.Fprintf(writer, "\nThe analysis was interrupted; this report is incomplete.\n")
	}
	return nil
}

func sarifLevel(s domain.Severity) string {
	switch s {
	case domain.SeverityError:
		return "error"
	case domain.SeverityWarning:
		return "warning"
	}
	return "note"
}

// writeSARIF writes the result as a SARIF 2.1.0 log
func (f *OutputFormatterImpl) writeSARIF(result *domain.Detektion, writer io.Writer) error {
	report, err := sarif.New(sarif.Version210)
	if err != nil {
		return err
	}

	run := sarif.NewRunWithInformationURI(constants.ToolName, constants.InformationURI)

	known := knownSet(result)
	rules := make(map[string]bool)
	for _, finding := range result.AllFindings() {
		if !rules[finding.RuleID] {
			rules[finding.RuleID] = true
			description := finding.Issue.Description
			if description == "" {
				description = finding.RuleID
			}
			run.AddRule(finding.RuleID).
				WithDescription(description).
				WithDefaultConfiguration(&sarif.ReportingConfiguration{Level: sarifLevel(finding.Issue.Severity)})
		}

		loc := finding.Location()
		region := sarif.NewRegion().WithStartLine(loc.StartLine).WithStartColumn(loc.StartColumn)
		if loc.EndLine > 0 {
			region.WithEndLine(loc.EndLine).WithEndColumn(loc.EndColumn)
		}
		res := sarif.NewRuleResult(finding.RuleID).
			WithMessage(sarif.NewTextMessage(finding.Message)).
			WithLevel(sarifLevel(finding.Severity)).
			WithLocations([]*sarif.Location{
				sarif.NewLocation().WithPhysicalLocation(
					sarif.NewPhysicalLocation().
						WithArtifactLocation(sarif.NewArtifactLocation().WithUri(loc.FilePath)).
						WithRegion(region),
				),
			})

		res.PropertyBag = *sarif.NewPropertyBag()
		res.Add("ruleSet", finding.RuleSetID)
		res.Add("debt", finding.Issue.Debt.String())
		res.Add("fingerprint", baseline.Fingerprint(finding))
		if known != nil {
			state := "new"
			if known[baseline.Fingerprint(finding)] {
				state = "unchanged"
			}
			res.Add("baselineState", state)
		}
		run.AddResult(res)
	}

	report.AddRun(run)
	return report.PrettyWrite(writer)
}
