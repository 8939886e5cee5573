package reports

import (
	"fmt"
	"html/template"
	"io"
	"strings"
	"time"

	"github.com/dpcompass/compass_backend/models"
)

// reportView is the data every report layout renders from.
type reportView struct {
	Report          *models.ComplianceReport
	Audit           *models.Audit
	ApplicationName string
	Responses       []*models.AuditResponse
	Score           models.ScoreResult
	ExportedAt      time.Time
}

// label turns a stored value like "non_compliant" into "Non compliant".
func label(v any) string {
	s := strings.ReplaceAll(fmt.Sprint(v), "_", " ")
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

func formatDate(t *time.Time) string {
	if t == nil {
		return "-"
	}
	return t.Format("02 Jan 2006")
}

var templateFuncs = template.FuncMap{
	"label": label,
	"date":  formatDate,
}

const defaultLayout = `<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>{{.Report.Title}}</title>
<style>
body { font-family: Arial, sans-serif; margin: 32px; color: #222; }
table { border-collapse: collapse; width: 100%; }
th, td { border: 1px solid #ccc; padding: 6px; text-align: left; vertical-align: top; }
th { background: #f0f0f0; }
.summary td { border: none; padding: 2px 12px 2px 0; }
</style>
</head>
<body>
<h1>{{.Report.Title}}</h1>
<table class="summary">
<tr><td>Application</td><td>{{.ApplicationName}}</td></tr>
<tr><td>Audit</td><td>{{.Audit.Title}}</td></tr>
<tr><td>Status</td><td>{{label .Report.Status}}</td></tr>
<tr><td>Generated</td><td>{{date .Report.GeneratedAt}}</td></tr>
<tr><td>Approved</td><td>{{date .Report.ApprovedAt}}</td></tr>
<tr><td>Compliance score</td><td>{{.Score.ComplianceText}}{{if .Score.Compliance}}%{{end}}</td></tr>
</table>
<h2>Summary</h2>
<p>{{.Report.Summary}}</p>
<table>
<tr><th>Total</th><th>Compliant</th><th>Non-compliant</th><th>Partially compliant</th><th>Not applicable</th><th>Pending</th></tr>
<tr><td>{{.Score.Total}}</td><td>{{.Score.Compliant}}</td><td>{{.Score.NonCompliant}}</td><td>{{.Score.PartiallyCompliant}}</td><td>{{.Score.NotApplicable}}</td><td>{{.Score.Pending}}</td></tr>
</table>
{{if .Report.Recommendations}}<h2>Recommendations</h2>
<p>{{.Report.Recommendations}}</p>{{end}}
<h2>Checklist responses</h2>
<table>
<tr><th>Code</th><th>Requirement</th><th>Category</th><th>Severity</th><th>Status</th><th>Findings</th><th>Recommendations</th></tr>
{{range .Responses}}<tr><td>{{.ItemCode}}</td><td>{{.ItemTitle}}</td><td>{{.ItemCategory}}</td><td>{{label .ItemSeverity}}</td><td>{{label .Status}}</td><td>{{.Findings}}</td><td>{{.Recommendations}}</td></tr>
{{end}}</table>
<p><small>Exported {{.ExportedAt.Format "02 Jan 2006 15:04"}}</small></p>
</body>
</html>
`

var defaultTemplate = template.Must(template.New("report").Funcs(templateFuncs).Parse(defaultLayout))

func newReportView(export *models.ReportExport) reportView {
	view := reportView{
		Report:     export.Report,
		Audit:      export.Audit,
		Responses:  export.Responses,
		Score:      export.Score,
		ExportedAt: time.Now(),
	}
	if view.Audit == nil {
		view.Audit = &models.Audit{}
	}
	if view.Audit.Application != nil {
		view.ApplicationName = view.Audit.Application.Name
	}
	return view
}

// RenderHTML writes the report as a standalone HTML document. A template with
// stored content replaces the built-in layout.
func RenderHTML(w io.Writer, export *models.ReportExport) error {
	tmpl := defaultTemplate
	if export.Template != nil && strings.TrimSpace(export.Template.TemplateContent) != "" {
		custom, err := template.New("custom").Funcs(templateFuncs).Parse(export.Template.TemplateContent)
		if err != nil {
			return fmt.Errorf("report template %d: %w", export.Template.ID, err)
		}
		tmpl = custom
	}
	return tmpl.Execute(w, newReportView(export))
}

// FileName turns the report title into an attachment name.
func FileName(report *models.ComplianceReport, ext string) string {
	name := strings.Map(func(r rune) rune {
		switch r {
		case '/', '\\', '"', ':', '*', '?', '<', '>', '|':
			return '_'
		}
		return r
	}, strings.TrimSpace(report.Title))
	if name == "" {
		name = fmt.Sprintf("report-%d", report.ID)
	}
	return name + "." + ext
}
