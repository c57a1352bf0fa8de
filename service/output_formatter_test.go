package service

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/ludo-technologies/jsguard/domain"
	"github.com/ludo-technologies/jsguard/internal/baseline"
)

func fixedFormatter() *OutputFormatterImpl {
	return &OutputFormatterImpl{now: func() time.Time { return time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC) }}
}

func formatterResult(t *testing.T, withBaseline bool) *domain.Detektion {
	t.Helper()
	finding := func(ruleSetID, ruleID, sig string, line int, sev domain.Severity) domain.Finding {
		return domain.Finding{
			RuleID:    ruleID,
			RuleSetID: ruleSetID,
			Issue:     domain.Issue{ID: ruleID, Description: ruleID + " description", Severity: sev, Debt: domain.DebtFiveMins},
			Entity: domain.Entity{
				Name:      "load",
				Signature: sig,
				Location:  domain.SourceLocation{FilePath: "src/a.js", StartLine: line, StartColumn: 3},
			},
			Message:  ruleID + " message",
			Severity: sev,
		}
	}

	b := domain.NewDetektionBuilder("run-1").
		AddFindings("style", finding("style", "DebuggerStatement", "a.js$load$debugger;", 2, domain.SeverityWarning)).
		AddFindings("complexity", finding("complexity", "ComplexMethod", "a.js$load", 1, domain.SeverityError)).
		AddMetric("loc", 12).
		AddNotification(domain.Notification{Level: domain.NotificationWarning, Message: "Rule skipped", RuleID: "NeedsTypes"})
	NewDebtCalculator().Apply(b)
	result := b.Build()

	if !withBaseline {
		return result
	}
	out, err := NewBaselineExtension(baseline.New(nil, []string{"ComplexMethod:a.js$load"})).Transform(result)
	require.NoError(t, err)
	return out
}

func TestOutputFormatter_Text(t *testing.T) {
	out, err := fixedFormatter().Format(formatterResult(t, true), domain.OutputFormatText)
	require.NoError(t, err)

	assert.Contains(t, out, "=== jsguard Analysis Report ===")
	assert.Contains(t, out, "Generated: 2026-01-02T03:04:05Z")
	assert.Contains(t, out, "src/a.js:1:3 complexity/ComplexMethod [ERROR] ComplexMethod message [KNOWN]")
	assert.Contains(t, out, "src/a.js:2:3 style/DebuggerStatement [WARNING] DebuggerStatement message\n")
	assert.Contains(t, out, "Technical debt: 10min")
	assert.Contains(t, out, "Baseline: 1 new, 1 known")
	assert.Contains(t, out, "loc: 12")
	assert.Contains(t, out, "warning: Rule skipped (rule NeedsTypes)")
	assert.Less(t, strings.Index(out, "ComplexMethod message"), strings.Index(out, "DebuggerStatement message"), "findings are sorted by location")
}

func TestOutputFormatter_TextWithoutFindings(t *testing.T) {
	out, err := fixedFormatter().Format(domain.NewDetektionBuilder("empty").Build(), domain.OutputFormatText)
	require.NoError(t, err)
	assert.Contains(t, out, "No findings.")
	assert.NotContains(t, out, "Technical debt")
}

func TestOutputFormatter_JSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, fixedFormatter().Write(formatterResult(t, true), domain.OutputFormatJSON, &buf))

	var report Report
	require.NoError(t, json.Unmarshal(buf.Bytes(), &report))

	assert.Equal(t, "jsguard", report.Tool)
	assert.Equal(t, "run-1", report.RunID)
	assert.Equal(t, 2, report.Summary.TotalFindings)
	assert.Equal(t, "10min", report.Summary.Debt)
	assert.Equal(t, RuleSetSummary{Findings: 1, Debt: "5min"}, report.Summary.RuleSets["style"])
	require.NotNil(t, report.Summary.NewFindings)
	assert.Equal(t, 1, *report.Summary.NewFindings)

	require.Len(t, report.Findings, 2)
	assert.Equal(t, "ComplexMethod", report.Findings[0].Rule)
	assert.Equal(t, "known", report.Findings[0].Baseline)
	assert.Equal(t, "new", report.Findings[1].Baseline)
	assert.Equal(t, "warning", report.Findings[1].Severity)
	require.Len(t, report.Notifications, 1)
}

func TestOutputFormatter_YAML(t *testing.T) {
	out, err := fixedFormatter().Format(formatterResult(t, false), domain.OutputFormatYAML)
	require.NoError(t, err)

	var report Report
	require.NoError(t, yaml.Unmarshal([]byte(out), &report))
	assert.Len(t, report.Findings, 2)
	assert.Empty(t, report.Findings[0].Baseline)
	assert.Nil(t, report.Summary.NewFindings)
	assert.NotContains(t, out, "known_findings")
}

func TestOutputFormatter_SARIF(t *testing.T) {
	out, err := fixedFormatter().Format(formatterResult(t, true), domain.OutputFormatSARIF)
	require.NoError(t, err)

	var doc struct {
		Version string `json:"version"`
		Runs    []struct {
			Tool struct {
				Driver struct {
					Name  string `json:"name"`
					Rules []struct {
						ID string `json:"id"`
					} `json:"rules"`
				} `json:"driver"`
			} `json:"tool"`
			Results []struct {
				RuleID     string                 `json:"ruleId"`
				Level      string                 `json:"level"`
				Properties map[string]interface{} `json:"properties"`
				Locations  []struct {
					PhysicalLocation struct {
						ArtifactLocation struct {
							URI string `json:"uri"`
						} `json:"artifactLocation"`
						Region struct {
							StartLine int `json:"startLine"`
						} `json:"region"`
					} `json:"physicalLocation"`
				} `json:"locations"`
			} `json:"results"`
		} `json:"runs"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &doc))

	assert.Equal(t, "2.1.0", doc.Version)
	require.Len(t, doc.Runs, 1)
	run := doc.Runs[0]
	assert.Equal(t, "jsguard", run.Tool.Driver.Name)
	assert.Len(t, run.Tool.Driver.Rules, 2)
	require.Len(t, run.Results, 2)

	first := run.Results[0]
	assert.Equal(t, "ComplexMethod", first.RuleID)
	assert.Equal(t, "error", first.Level)
	assert.Equal(t, "src/a.js", first.Locations[0].PhysicalLocation.ArtifactLocation.URI)
	assert.Equal(t, 1, first.Locations[0].PhysicalLocation.Region.StartLine)
	assert.Equal(t, "unchanged", first.Properties["baselineState"])
	assert.Equal(t, "ComplexMethod:a.js$load", first.Properties["fingerprint"])
	assert.Equal(t, "new", run.Results[1].Properties["baselineState"])
}

func TestOutputFormatter_UnsupportedFormat(t *testing.T) {
	_, err := NewOutputFormatter().Format(formatterResult(t, false), domain.OutputFormat("xml"))
	require.Error(t, err)

	var domainErr domain.DomainError
	require.True(t, errors.As(err, &domainErr))
	assert.Equal(t, domain.ErrCodeUnsupportedFormat, domainErr.Code)
}

func TestOutputFormatter_HTML(t *testing.T) {
	out, err := fixedFormatter().Format(formatterResult(t, true), domain.OutputFormatHTML)
	require.NoError(t, err)

	assert.Contains(t, out, "<title>jsguard Analysis Report</title>")
	assert.Contains(t, out, "Generated: 2026-01-02T03:04:05Z")
	assert.Contains(t, out, "<td>style/DebuggerStatement</td>")
	assert.Contains(t, out, `<td class="severity-error">ERROR</td>`)
	assert.Contains(t, out, `<tr class="known">`)
	assert.Contains(t, out, "Rule skipped")
}
