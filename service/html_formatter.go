package service

import (
	"html/template"
	"io"
	"strings"

	"github.com/ludo-technologies/jsguard/domain"
)

// HTMLData represents the data for HTML template
type HTMLData struct {
	Report
	Sets []HTMLRuleSet
}

// HTMLRuleSet is one row of the rule set table
type HTMLRuleSet struct {
	ID string
	RuleSetSummary
}

var htmlFuncs = template.FuncMap{
	"upper": strings.ToUpper,
	"severityClass": func(severity string) string {
		switch severity {
		case domain.SeverityError.String():
			return "severity-error"
		case domain.SeverityWarning.String():
			return "severity-warning"
		}
		return "severity-info"
	},
}

var htmlReport = template.Must(template.New("report").Funcs(htmlFuncs).Parse(htmlTemplate))

// writeHTML writes the result as a self-contained HTML page
func (f *OutputFormatterImpl) writeHTML(result *domain.Detektion, writer io.Writer) error {
	data := HTMLData{Report: f.BuildReport(result)}
	for _, id := range result.RuleSetIDs() {
		data.Sets = append(data.Sets, HTMLRuleSet{ID: id, RuleSetSummary: data.Summary.RuleSets[id]})
	}
	return htmlReport.Execute(writer, data)
}

const htmlTemplate = `<!DOCTYPE html>
<html lang="en">
<head>
    <meta charset="UTF-8">
    <meta name="viewport" content="width=device-width, initial-scale=1.0">
    <title>{{.Tool}} Analysis Report</title>
    <style>
        * { margin: 0; padding: 0; box-sizing: border-box; }
        body {
            font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, 'Helvetica Neue', Arial, sans-serif;
            line-height: 1.6;
            color: #333;
            background: #f0f2f7;
        }
        .container { max-width: 1200px; margin: 0 auto; padding: 20px; }
        .header, .tabs {
            background: white;
            border-radius: 10px;
            box-shadow: 0 10px 30px rgba(0,0,0,0.1);
        }
        .header { padding: 30px; margin-bottom: 20px; }
        .header h1 { color: #667eea; margin-bottom: 10px; }
        .header .subtitle { color: #666; font-size: 14px; }
        .partial { margin-top: 10px; color: #f44336; font-weight: bold; }
        .tabs { overflow: hidden; }
        .tab-buttons { display: flex; background: #f5f5f5; }
        .tab-button {
            flex: 1;
            padding: 15px;
            border: none;
            background: transparent;
            cursor: pointer;
            font-size: 16px;
        }
        .tab-button.active { background: white; color: #667eea; font-weight: bold; }
        .tab-content { display: none; padding: 30px; }
        .tab-content.active { display: block; }
        .metric-grid {
            display: grid;
            grid-template-columns: repeat(auto-fit, minmax(200px, 1fr));
            gap: 20px;
            margin: 20px 0;
        }
        .metric-card { background: #f8f9fa; padding: 20px; border-radius: 8px; text-align: center; }
        .metric-value { font-size: 32px; font-weight: bold; color: #667eea; }
        .metric-label { color: #666; margin-top: 5px; }
        .table { width: 100%; border-collapse: collapse; margin: 20px 0; }
        .table th, .table td { padding: 12px; text-align: left; border-bottom: 1px solid #ddd; }
        .table th { background: #f8f9fa; font-weight: 600; }
        .severity-error { color: #f44336; }
        .severity-warning { color: #ff9800; }
        .severity-info { color: #2196f3; }
        .known { color: #999; }
    </style>
</head>
<body>
    <div class="container">
        <div class="header">
            <h1>{{.Tool}} Analysis Report</h1>
            <p class="subtitle">Generated: {{.GeneratedAt}} | Version: {{.Version}} | Run: {{.RunID}}</p>
            {{if .Partial}}<p class="partial">The analysis was interrupted; this report is incomplete.</p>{{end}}
        </div>

        <div class="tabs">
            <div class="tab-buttons">
                <button class="tab-button active" onclick="showTab('summary', this)">Summary</button>
                <button class="tab-button" onclick="showTab('findings', this)">Findings</button>
                {{if .Notifications}}
                <button class="tab-button" onclick="showTab('notifications', this)">Notifications</button>
                {{end}}
            </div>

            <div id="summary" class="tab-content active">
                <h2>Analysis Summary</h2>
                <div class="metric-grid">
                    <div class="metric-card">
                        <div class="metric-value">{{.Summary.TotalFindings}}</div>
                        <div class="metric-label">Findings</div>
                    </div>
                    {{if .Summary.Debt}}
                    <div class="metric-card">
                        <div class="metric-value">{{.Summary.Debt}}</div>
                        <div class="metric-label">Technical Debt</div>
                    </div>
                    {{end}}
                    {{with .Summary.NewFindings}}
                    <div class="metric-card">
                        <div class="metric-value">{{.}}</div>
                        <div class="metric-label">New</div>
                    </div>
                    {{end}}
                    {{with .Summary.KnownFindings}}
                    <div class="metric-card">
                        <div class="metric-value">{{.}}</div>
                        <div class="metric-label">Known</div>
                    </div>
                    {{end}}
                </div>

                {{if .Sets}}
                <h3>Rule Sets</h3>
                <table class="table">
                    <thead><tr><th>Rule Set</th><th>Findings</th><th>Debt</th></tr></thead>
                    <tbody>
                        {{range .Sets}}
                        <tr><td>{{.ID}}</td><td>{{.Findings}}</td><td>{{.Debt}}</td></tr>
                        {{end}}
                    </tbody>
                </table>
                {{end}}

                {{if .Metrics}}
                <h3>Metrics</h3>
                <table class="table">
                    <tbody>
                        {{range .Metrics}}
                        <tr><td>{{.Key}}</td><td>{{.Value}}</td></tr>
                        {{end}}
                    </tbody>
                </table>
                {{end}}
            </div>

            <div id="findings" class="tab-content">
                {{if .Findings}}
                <table class="table">
                    <thead>
                        <tr><th>Location</th><th>Rule</th><th>Severity</th><th>Message</th><th>Debt</th></tr>
                    </thead>
                    <tbody>
                        {{range .Findings}}
                        <tr{{if eq .Baseline "known"}} class="known"{{end}}>
                            <td>{{.File}}:{{.Line}}:{{.Column}}</td>
                            <td>{{.RuleSet}}/{{.Rule}}</td>
                            <td class="{{severityClass .Severity}}">{{upper .Severity}}</td>
                            <td>{{.Message}}</td>
                            <td>{{.Debt}}</td>
                        </tr>
                        {{end}}
                    </tbody>
                </table>
                {{else}}
                <p style="color: #4caf50; font-weight: bold;">No findings.</p>
                {{end}}
            </div>

            {{if .Notifications}}
            <div id="notifications" class="tab-content">
                <table class="table">
                    <thead><tr><th>Level</th><th>Message</th><th>Rule</th><th>File</th></tr></thead>
                    <tbody>
                        {{range .Notifications}}
                        <tr>
                            <td class="severity-{{.Level}}">{{.Level}}</td>
                            <td>{{.Message}}</td>
                            <td>{{.RuleID}}</td>
                            <td>{{.File}}</td>
                        </tr>
                        {{end}}
                    </tbody>
                </table>
            </div>
            {{end}}
        </div>
    </div>

    <script>
        function showTab(tabName, el) {
            document.querySelectorAll('.tab-content').forEach(tab => tab.classList.remove('active'));
            document.querySelectorAll('.tab-button').forEach(btn => btn.classList.remove('active'));
            document.getElementById(tabName).classList.add('active');
            if (el) { el.classList.add('active'); }
        }
    </script>
</body>
</html>
`
