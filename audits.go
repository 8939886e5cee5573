package main

import (
	"context"
	"fmt"
	"net/http"

	"github.com/dpcompass/compass_backend/middlewares"
	"github.com/dpcompass/compass_backend/models"
	"github.com/gin-gonic/gin"
)

type auditListItem struct {
	*models.Audit
	AuditorName string `json:"auditor_name"`
}

type executeAuditRequest struct {
	Responses []models.ResponseInput `json:"responses" binding:"dive"`
	Complete  bool                   `json:"complete"`
}

type addResponseRequest struct {
	ChecklistItemId int `json:"checklist_item_id" binding:"required"`
}

// firstError picks the first failure out of a loader LoadMany result.
func firstError(errs []error) error {
	for _, err := range errs {
		if err != nil {
			return err
		}
	}
	return nil
}

// withAuditorNames resolves auditor names in one batch through the request's user loader.
func withAuditorNames(ctx context.Context, audits []*models.Audit) ([]*auditListItem, error) {
	var ids []int
	for _, audit := range audits {
		if audit.AuditorId != nil {
			ids = append(ids, *audit.AuditorId)
		}
	}
	names := make(map[int]string, len(ids))
	if len(ids) > 0 {
		auditors, errs := middlewares.GetUsers(ctx, ids)
		if err := firstError(errs); err != nil {
			return nil, err
		}
		for _, auditor := range auditors {
			if auditor != nil {
				names[auditor.ID] = auditor.FullName()
			}
		}
	}

	items := make([]*auditListItem, 0, len(audits))
	for _, audit := range audits {
		item := auditListItem{Audit: audit}
		if audit.AuditorId != nil {
			item.AuditorName = names[*audit.AuditorId]
		}
		items = append(items, &item)
	}
	return items, nil
}

func listAuditsHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		status := models.AuditStatus(c.Query("status"))
		audits, err := models.ListAudits(c.Request.Context(), currentUser(c), status)
		if err != nil {
			respondError(c, "listAuditsHandler", err)
			return
		}
		items, err := withAuditorNames(c.Request.Context(), audits)
		if err != nil {
			respondError(c, "listAuditsHandler", err)
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"audits":        items,
			"status_filter": status,
			"statuses":      models.AuditStatuses,
		})
	}
}

func auditFormHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		options, err := models.GetAuditFormOptions(c.Request.Context(), currentUser(c))
		if err != nil {
			respondError(c, "auditFormHandler", err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"options": options})
	}
}

func createAuditHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var input models.NewAudit
		if err := c.ShouldBindJSON(&input); err != nil {
			bindError(c, err)
			return
		}
		audit, err := models.CreateAudit(c.Request.Context(), currentUser(c), &input)
		if err != nil {
			respondError(c, "createAuditHandler", err)
			return
		}
		c.JSON(http.StatusCreated, gin.H{
			"audit":    audit,
			"message":  "Audit " + audit.Title + " created successfully.",
			"redirect": fmt.Sprintf("/audits/%d/", audit.ID),
		})
	}
}

func checklistHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		categories, err := models.ListChecklist(c.Request.Context())
		if err != nil {
			respondError(c, "checklistHandler", err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"categories": categories})
	}
}

func checklistItemHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := pathId(c, "id")
		if !ok {
			return
		}
		if _, err := models.Authorize(currentUser(c), models.EntityChecklist, models.ActionEdit); err != nil {
			respondError(c, "checklistItemHandler", err)
			return
		}
		item, err := models.GetChecklistItem(c.Request.Context(), id)
		if err != nil {
			respondError(c, "checklistItemHandler", err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"item": item, "severities": models.Severities})
	}
}

func updateChecklistItemHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := pathId(c, "id")
		if !ok {
			return
		}
		var input models.NewChecklistItem
		if err := c.ShouldBindJSON(&input); err != nil {
			bindError(c, err)
			return
		}
		item, err := models.UpdateChecklistItem(c.Request.Context(), currentUser(c), id, &input)
		if err != nil {
			respondError(c, "updateChecklistItemHandler", err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"item": item})
	}
}

func auditDetailHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := pathId(c, "id")
		if !ok {
			return
		}
		detail, err := models.GetAuditDetail(c.Request.Context(), currentUser(c), id)
		if err != nil {
			respondError(c, "auditDetailHandler", err)
			return
		}
		c.JSON(http.StatusOK, detail)
	}
}

// beginAuditHandler opens the execution view. A pending audit moves to in_progress.
func beginAuditHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := pathId(c, "id")
		if !ok {
			return
		}
		user := currentUser(c)
		if _, err := models.BeginAudit(c.Request.Context(), user, id); err != nil {
			respondError(c, "beginAuditHandler", err)
			return
		}
		detail, err := models.GetAuditDetail(c.Request.Context(), user, id)
		if err != nil {
			respondError(c, "beginAuditHandler", err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"detail": detail, "statuses": models.ResponseStatuses})
	}
}

func executeAuditHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := pathId(c, "id")
		if !ok {
			return
		}
		var req executeAuditRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			bindError(c, err)
			return
		}
		user := currentUser(c)
		if _, err := models.BeginAudit(c.Request.Context(), user, id); err != nil {
			respondError(c, "executeAuditHandler", err)
			return
		}
		saved, err := models.RecordResponses(c.Request.Context(), user, id, req.Responses)
		if err != nil {
			respondError(c, "executeAuditHandler", err)
			return
		}

		message := "Audit responses saved successfully."
		redirect := fmt.Sprintf("/audits/%d/execute/", id)
		if req.Complete {
			if _, err := models.CompleteAudit(c.Request.Context(), user, id); err != nil {
				respondError(c, "executeAuditHandler", err)
				return
			}
			message = "Audit completed successfully."
			redirect = fmt.Sprintf("/audits/%d/", id)
		}
		detail, err := models.GetAuditDetail(c.Request.Context(), user, id)
		if err != nil {
			respondError(c, "executeAuditHandler", err)
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"saved":    saved,
			"detail":   detail,
			"message":  message,
			"redirect": redirect,
		})
	}
}

func moveAuditHandler(move func(context.Context, *models.User, int) (*models.Audit, error), message string) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := pathId(c, "id")
		if !ok {
			return
		}
		audit, err := move(c.Request.Context(), currentUser(c), id)
		if err != nil {
			respondError(c, "moveAuditHandler", err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"audit": audit, "message": message})
	}
}

func recordScoreHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := pathId(c, "id")
		if !ok {
			return
		}
		score, err := models.RecordScore(c.Request.Context(), currentUser(c), id)
		if err != nil {
			respondError(c, "recordScoreHandler", err)
			return
		}
		c.JSON(http.StatusCreated, gin.H{"score": score})
	}
}

func addResponseHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := pathId(c, "id")
		if !ok {
			return
		}
		var req addResponseRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			bindError(c, err)
			return
		}
		response, err := models.AddAuditResponse(c.Request.Context(), currentUser(c), id, req.ChecklistItemId)
		if err != nil {
			respondError(c, "addResponseHandler", err)
			return
		}
		c.JSON(http.StatusCreated, gin.H{"response": response})
	}
}
