package main

import (
	"context"
	"net/http"

	"github.com/dpcompass/compass_backend/middlewares"
	"github.com/dpcompass/compass_backend/models"
	"github.com/gin-gonic/gin"
)

type remediationView struct {
	*models.Remediation
	AuditId         int    `json:"audit_id"`
	AuditTitle      string `json:"audit_title"`
	ApplicationName string `json:"application_name"`
	AssignedToName  string `json:"assigned_to_name"`
}

// newRemediationViews fills in the audit, application and assignee names,
// resolving each kind in one batch through the request loaders.
func newRemediationViews(ctx context.Context, remediations []*models.Remediation) ([]*remediationView, error) {
	var auditIds, assigneeIds []int
	for _, remediation := range remediations {
		if remediation.AuditResponse != nil {
			auditIds = append(auditIds, remediation.AuditResponse.AuditId)
		}
		if remediation.AssignedToId != nil {
			assigneeIds = append(assigneeIds, *remediation.AssignedToId)
		}
	}

	audits := make(map[int]*models.Audit, len(auditIds))
	var applicationIds []int
	if len(auditIds) > 0 {
		loaded, errs := middlewares.GetAudits(ctx, auditIds)
		if err := firstError(errs); err != nil {
			return nil, err
		}
		for i, audit := range loaded {
			if audit == nil {
				continue
			}
			audits[auditIds[i]] = audit
			applicationIds = append(applicationIds, audit.ApplicationId)
		}
	}

	applications := make(map[int]string, len(applicationIds))
	if len(applicationIds) > 0 {
		loaded, errs := middlewares.GetApplications(ctx, applicationIds)
		if err := firstError(errs); err != nil {
			return nil, err
		}
		for i, application := range loaded {
			if application != nil {
				applications[applicationIds[i]] = application.Name
			}
		}
	}

	assignees := make(map[int]string, len(assigneeIds))
	if len(assigneeIds) > 0 {
		loaded, errs := middlewares.GetUsers(ctx, assigneeIds)
		if err := firstError(errs); err != nil {
			return nil, err
		}
		for i, user := range loaded {
			if user != nil {
				assignees[assigneeIds[i]] = user.FullName()
			}
		}
	}

	views := make([]*remediationView, 0, len(remediations))
	for _, remediation := range remediations {
		view := remediationView{Remediation: remediation}
		if remediation.AuditResponse != nil {
			if audit, ok := audits[remediation.AuditResponse.AuditId]; ok {
				view.AuditId = audit.ID
				view.AuditTitle = audit.Title
				view.ApplicationName = applications[audit.ApplicationId]
			}
		}
		if remediation.AssignedToId != nil {
			view.AssignedToName = assignees[*remediation.AssignedToId]
		}
		views = append(views, &view)
	}
	return views, nil
}

func listRemediationsHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		remediations, err := models.ListRemediations(c.Request.Context(), currentUser(c))
		if err != nil {
			respondError(c, "listRemediationsHandler", err)
			return
		}
		views, err := newRemediationViews(c.Request.Context(), remediations)
		if err != nil {
			respondError(c, "listRemediationsHandler", err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"remediations": views})
	}
}

func createRemediationHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		responseId, ok := pathId(c, "id")
		if !ok {
			return
		}
		var input models.NewRemediation
		if err := c.ShouldBindJSON(&input); err != nil {
			bindError(c, err)
			return
		}
		remediation, err := models.CreateRemediation(c.Request.Context(), currentUser(c), responseId, &input)
		if err != nil {
			respondError(c, "createRemediationHandler", err)
			return
		}
		c.JSON(http.StatusCreated, gin.H{"remediation": remediation, "message": "Remediation created successfully."})
	}
}

func remediationDetailHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := pathId(c, "id")
		if !ok {
			return
		}
		remediation, err := models.GetRemediation(c.Request.Context(), currentUser(c), id)
		if err != nil {
			respondError(c, "remediationDetailHandler", err)
			return
		}
		views, err := newRemediationViews(c.Request.Context(), []*models.Remediation{remediation})
		if err != nil {
			respondError(c, "remediationDetailHandler", err)
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"remediation": views[0],
			"statuses":    models.RemediationStatuses,
			"priorities":  models.RemediationPriorities,
		})
	}
}

func updateRemediationHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := pathId(c, "id")
		if !ok {
			return
		}
		var input models.NewRemediation
		if err := c.ShouldBindJSON(&input); err != nil {
			bindError(c, err)
			return
		}
		remediation, err := models.UpdateRemediation(c.Request.Context(), currentUser(c), id, &input)
		if err != nil {
			respondError(c, "updateRemediationHandler", err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"remediation": remediation, "message": "Remediation updated successfully."})
	}
}
