package reports

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/dpcompass/compass_backend/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func sampleExport() *models.ReportExport {
	generated := time.Date(2024, 3, 5, 10, 0, 0, 0, time.UTC)
	statuses := []models.ResponseStatus{
		models.ResponseStatusCompliant,
		models.ResponseStatusCompliant,
		models.ResponseStatusCompliant,
		models.ResponseStatusNonCompliant,
	}
	responses := make([]*models.AuditResponse, 0, len(statuses))
	for i, s := range statuses {
		responses = append(responses, &models.AuditResponse{
			ID:           i + 1,
			ItemCode:     "DPDP-" + string(rune('A'+i)),
			ItemTitle:    "Requirement <" + string(rune('A'+i)) + ">",
			ItemCategory: "Consent",
			ItemSeverity: models.SeverityCritical,
			Status:       s,
		})
	}
	return &models.ReportExport{
		Report: &models.ComplianceReport{
			ID:              9,
			Title:           "Compliance Report - Payments",
			Status:          models.ReportStatusGenerated,
			Summary:         "Compliance assessment completed with score of 75.00%",
			Recommendations: "Refresh consent notices",
			GeneratedAt:     &generated,
		},
		Audit: &models.Audit{
			Title:       "Q1 review",
			Application: &models.Application{Name: "Payments"},
		},
		Responses: responses,
		Score:     models.Score(statuses),
	}
}

func TestParseFormat(t *testing.T) {
	for in, want := range map[string]Format{"": FormatHTML, "html": FormatHTML, " HTML ": FormatHTML, "xlsx": FormatExcel, "Excel": FormatExcel} {
		got, err := ParseFormat(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}
	_, err := ParseFormat("pdf")
	assert.Error(t, err)

	assert.Equal(t, "text/html; charset=utf-8", FormatHTML.ContentType())
	assert.Contains(t, FormatExcel.ContentType(), "spreadsheetml")
}

func TestLabel(t *testing.T) {
	assert.Equal(t, "Non compliant", label(models.ResponseStatusNonCompliant))
	assert.Equal(t, "Critical", label(models.SeverityCritical))
	assert.Equal(t, "", label(""))
}

func TestFileName(t *testing.T) {
	assert.Equal(t, "Q1_ audit_review.html", FileName(&models.ComplianceReport{Title: "Q1: audit/review"}, "html"))
	assert.Equal(t, "report-4.xlsx", FileName(&models.ComplianceReport{ID: 4, Title: "  "}, "xlsx"))
}

func TestRenderHTMLDefaultLayout(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, RenderHTML(&buf, sampleExport()))

	out := buf.String()
	assert.Contains(t, out, "<title>Compliance Report - Payments</title>")
	assert.Contains(t, out, "<td>Payments</td>")
	assert.Contains(t, out, "75.00%")
	assert.Contains(t, out, "05 Mar 2024")
	assert.Contains(t, out, "Non compliant")
	assert.Contains(t, out, "Refresh consent notices")
	assert.Contains(t, out, "Requirement &lt;A&gt;")
	assert.NotContains(t, out, "Requirement <A>")
}

func TestRenderHTMLWithoutScoreOrAudit(t *testing.T) {
	export := &models.ReportExport{Report: &models.ComplianceReport{ID: 3, Title: "Empty"}}

	var buf bytes.Buffer
	require.NoError(t, RenderHTML(&buf, export))
	assert.Contains(t, buf.String(), "N/A")
	assert.NotContains(t, buf.String(), "N/A%")
}

func TestRenderHTMLCustomTemplate(t *testing.T) {
	export := sampleExport()
	export.Template = &models.ReportTemplate{ID: 2, TemplateContent: "{{.ApplicationName}} scored {{.Score.ComplianceText}}"}

	var buf bytes.Buffer
	require.NoError(t, RenderHTML(&buf, export))
	assert.Equal(t, "Payments scored 75.00", buf.String())

	export.Template.TemplateContent = "{{.Broken"
	err := RenderHTML(&bytes.Buffer{}, export)
	require.Error(t, err)
	assert.True(t, strings.HasPrefix(err.Error(), "report template 2:"))
}

func TestRenderExcel(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, RenderExcel(&buf, sampleExport()))

	f, err := excelize.OpenReader(bytes.NewReader(buf.Bytes()))
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{summarySheet, responsesSheet}, f.GetSheetList())

	title, err := f.GetCellValue(summarySheet, "B1")
	require.NoError(t, err)
	assert.Equal(t, "Compliance Report - Payments", title)

	score, err := f.GetCellValue(summarySheet, "B6")
	require.NoError(t, err)
	assert.Equal(t, "75.00%", score)

	rows, err := f.GetRows(responsesSheet)
	require.NoError(t, err)
	require.Len(t, rows, 5)
	assert.Equal(t, responseHeadings, rows[0])
	assert.Equal(t, "Non compliant", rows[4][4])
}

func TestExportDispatchesOnFormat(t *testing.T) {
	var html bytes.Buffer
	require.NoError(t, Export(context.Background(), &html, sampleExport(), FormatHTML))
	assert.True(t, strings.HasPrefix(html.String(), "<!DOCTYPE html>"))

	var xlsx bytes.Buffer
	require.NoError(t, Export(context.Background(), &xlsx, sampleExport(), FormatExcel))
	assert.True(t, bytes.HasPrefix(xlsx.Bytes(), []byte("PK")))
}
