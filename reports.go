package main

import (
	"context"
	"fmt"
	"net/http"

	"github.com/dpcompass/compass_backend/middlewares"
	"github.com/dpcompass/compass_backend/models"
	"github.com/dpcompass/compass_backend/models/reports"
	"github.com/gin-gonic/gin"
)

type reportListItem struct {
	*models.ComplianceReport
	GeneratedByName string `json:"generated_by_name"`
}

// withGeneratorNames resolves who generated each report in one loader batch.
func withGeneratorNames(ctx context.Context, results []*models.ComplianceReport) ([]*reportListItem, error) {
	var ids []int
	for _, report := range results {
		if report.GeneratedById != nil {
			ids = append(ids, *report.GeneratedById)
		}
	}
	names := make(map[int]string, len(ids))
	if len(ids) > 0 {
		users, errs := middlewares.GetUsers(ctx, ids)
		if err := firstError(errs); err != nil {
			return nil, err
		}
		for i, user := range users {
			if user != nil {
				names[ids[i]] = user.FullName()
			}
		}
	}

	items := make([]*reportListItem, 0, len(results))
	for _, report := range results {
		item := reportListItem{ComplianceReport: report}
		if report.GeneratedById != nil {
			item.GeneratedByName = names[*report.GeneratedById]
		}
		items = append(items, &item)
	}
	return items, nil
}

func listReportsHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		results, err := models.ListReports(ctx, currentUser(c))
		if err != nil {
			respondError(c, "listReportsHandler", err)
			return
		}
		items, err := withGeneratorNames(ctx, results)
		if err != nil {
			respondError(c, "listReportsHandler", err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"reports": items})
	}
}

func reportDetailHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := pathId(c, "id")
		if !ok {
			return
		}
		report, err := models.GetReport(c.Request.Context(), currentUser(c), id)
		if err != nil {
			respondError(c, "reportDetailHandler", err)
			return
		}
		score, err := report.ScoreSnapshot()
		if err != nil {
			respondError(c, "reportDetailHandler", err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"report": report, "score": score})
	}
}

func reportGenerateFormHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		auditId, ok := pathId(c, "audit_id")
		if !ok {
			return
		}
		options, err := models.GetReportGenerateOptions(c.Request.Context(), currentUser(c), auditId)
		if err != nil {
			respondError(c, "reportGenerateFormHandler", err)
			return
		}
		c.JSON(http.StatusOK, options)
	}
}

func generateReportHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		auditId, ok := pathId(c, "audit_id")
		if !ok {
			return
		}
		var input models.NewReport
		if err := c.ShouldBindJSON(&input); err != nil {
			bindError(c, err)
			return
		}
		report, err := models.GenerateReport(c.Request.Context(), currentUser(c), auditId, &input)
		if err != nil {
			respondError(c, "generateReportHandler", err)
			return
		}
		c.JSON(http.StatusCreated, gin.H{
			"report":   report,
			"message":  "Report generated successfully.",
			"redirect": fmt.Sprintf("/reports/%d/", report.ID),
		})
	}
}

func exportReportHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := pathId(c, "id")
		if !ok {
			return
		}
		format, err := reports.ParseFormat(c.Query("format"))
		if err != nil {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		export, err := models.GetReportExport(c.Request.Context(), currentUser(c), id)
		if err != nil {
			respondError(c, "exportReportHandler", err)
			return
		}

		c.Header("Content-Type", format.ContentType())
		c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", reports.FileName(export.Report, string(format))))
		if err := reports.Export(c.Request.Context(), c.Writer, export, format); err != nil {
			respondError(c, "exportReportHandler", err)
			return
		}
	}
}

// reportApprovalHandler shows the report an administrator is about to approve.
func reportApprovalHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := pathId(c, "id")
		if !ok {
			return
		}
		user := currentUser(c)
		if _, err := models.Authorize(user, models.EntityReport, models.ActionApprove); err != nil {
			respondError(c, "reportApprovalHandler", err)
			return
		}
		report, err := models.GetReport(c.Request.Context(), user, id)
		if err != nil {
			respondError(c, "reportApprovalHandler", err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"report": report, "can_approve": report.Status.CanTransitionTo(models.ReportStatusApproved)})
	}
}

func moveReportHandler(move func(context.Context, *models.User, int) (*models.ComplianceReport, error), message string) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := pathId(c, "id")
		if !ok {
			return
		}
		report, err := move(c.Request.Context(), currentUser(c), id)
		if err != nil {
			respondError(c, "moveReportHandler", err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"report": report, "message": message})
	}
}
