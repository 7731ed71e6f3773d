package report

import (
	"bytes"
	"html/template"

	apperrors "github.com/agentic-radar/radar/pkg/errors"
	"github.com/agentic-radar/radar/pkg/types"
)

var htmlTemplate = `
<!DOCTYPE html>
<html>
<head>
    <title>Agentic Radar Report</title>
    <style>
        body { font-family: Arial, sans-serif; margin: 40px; }
        .header { border-bottom: 2px solid #333; padding-bottom: 20px; margin-bottom: 30px; }
        .summary { background: #f5f5f5; padding: 20px; margin-bottom: 30px; border-radius: 5px; }
        .finding { border: 1px solid #ddd; margin-bottom: 20px; padding: 15px; border-radius: 5px; }
        .severity-critical, .severity-high { border-left: 5px solid #dc2626; }
        .severity-medium { border-left: 5px solid #d97706; }
        .severity-low { border-left: 5px solid #2563eb; }
        .severity-info, .severity-unknown { border-left: 5px solid #6b7280; }
        .finding-title { font-weight: bold; font-size: 16px; margin-bottom: 10px; }
        .finding-meta { color: #666; font-size: 14px; margin-bottom: 10px; }
        .finding-description { margin-bottom: 10px; }
    </style>
</head>
<body>
    <div class="header">
        <h1>Agentic Radar Report</h1>
        <p>Project: {{.Report.ProjectName}} | Mode: {{.Report.Mode}}</p>
        <p>Generated: {{.Report.GeneratedAt}}</p>
    </div>

    <div class="summary">
        <h2>Summary</h2>
        {{range $severity, $count := .Totals}}
        <p>{{$severity}}: {{$count}}</p>
        {{end}}
    </div>

    <div class="findings">
        <h2>Findings</h2>
        {{range .Report.Findings}}
        <div class="finding severity-{{.Severity}}">
            <div class="finding-title">{{.Title}}</div>
            <div class="finding-meta">
                Severity: {{.Severity}} | Detector: {{.Detector}} | ID: {{.Identifier}}
            </div>
            {{if .Subject}}<div class="finding-meta">Subject: {{.Subject}}</div>{{end}}
            <div class="finding-description">{{.Description}}</div>
            {{if .Remediation}}<div class="finding-description">Remediation: {{.Remediation}}</div>{{end}}
        </div>
        {{else}}
        <p>No findings.</p>
        {{end}}
    </div>
</body>
</html>`

// RenderHTML renders a report into a single self-contained HTML document,
// generalizing the teacher's finding-export template to radar findings.
func RenderHTML(report types.RadarReport) (string, error) {
	t, err := template.New("report").Parse(htmlTemplate)
	if err != nil {
		return "", apperrors.NewReportError("failed to parse HTML template: " + err.Error())
	}

	data := struct {
		Report types.RadarReport
		Totals map[string]interface{}
	}{
		Report: report,
		Totals: types.SeverityTotals(report.Findings),
	}

	var buf bytes.Buffer
	if err := t.Execute(&buf, data); err != nil {
		return "", apperrors.NewReportError("failed to render HTML: " + err.Error())
	}
	return buf.String(), nil
}
