package reports

import (
	"fmt"
	"io"

	"github.com/dpcompass/compass_backend/models"
	"github.com/xuri/excelize/v2"
)

const (
	summarySheet   = "Summary"
	responsesSheet = "Responses"
)

var responseHeadings = []string{"Code", "Requirement", "Category", "Severity", "Status", "Findings", "Evidence Notes", "Recommendations"}

func responseCellValues(r *models.AuditResponse) []interface{} {
	return []interface{}{
		r.ItemCode,
		r.ItemTitle,
		r.ItemCategory,
		label(r.ItemSeverity),
		label(r.Status),
		r.Findings,
		r.EvidenceNotes,
		r.Recommendations,
	}
}

func setRow(f *excelize.File, sheet string, rowNo int, values []interface{}) error {
	cell, err := excelize.CoordinatesToCellName(1, rowNo)
	if err != nil {
		return err
	}
	return f.SetSheetRow(sheet, cell, &values)
}

// RenderExcel writes the report as an xlsx workbook with a summary sheet and one row per response.
func RenderExcel(w io.Writer, export *models.ReportExport) error {
	view := newReportView(export)

	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", summarySheet); err != nil {
		return err
	}
	if _, err := f.NewSheet(responsesSheet); err != nil {
		return err
	}

	compliance := view.Score.ComplianceText()
	if view.Score.Compliance != nil {
		compliance += "%"
	}
	summary := [][]interface{}{
		{"Title", view.Report.Title},
		{"Application", view.ApplicationName},
		{"Audit", view.Audit.Title},
		{"Status", label(view.Report.Status)},
		{"Generated", formatDate(view.Report.GeneratedAt)},
		{"Compliance score", compliance},
		{"Summary", view.Report.Summary},
		{"Recommendations", view.Report.Recommendations},
		{},
		{"Total", view.Score.Total},
		{"Compliant", view.Score.Compliant},
		{"Non-compliant", view.Score.NonCompliant},
		{"Partially compliant", view.Score.PartiallyCompliant},
		{"Not applicable", view.Score.NotApplicable},
		{"Pending", view.Score.Pending},
	}
	for i, row := range summary {
		if err := setRow(f, summarySheet, i+1, row); err != nil {
			return err
		}
	}

	headings := make([]interface{}, len(responseHeadings))
	for i, h := range responseHeadings {
		headings[i] = h
	}
	if err := setRow(f, responsesSheet, 1, headings); err != nil {
		return err
	}
	for i, r := range view.Responses {
		if err := setRow(f, responsesSheet, i+2, responseCellValues(r)); err != nil {
			return err
		}
	}

	if err := f.SetColWidth(responsesSheet, "B", "B", 60); err != nil {
		return fmt.Errorf("set column width: %w", err)
	}
	return f.Write(w)
}
