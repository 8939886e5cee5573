package models

import (
	"context"
	"time"

	"github.com/dpcompass/compass_backend/config"
	"github.com/dpcompass/compass_backend/utils"
)

// Remediation is a corrective action raised against a response.
type Remediation struct {
	ID              int                 `gorm:"primary_key" json:"id"`
	AuditResponseId int                 `gorm:"not null;index" json:"audit_response_id"`
	AuditResponse   *AuditResponse      `gorm:"foreignKey:AuditResponseId;constraint:OnDelete:CASCADE" json:"audit_response,omitempty"`
	Title           string              `gorm:"size:255;not null" json:"title"`
	Description     string              `gorm:"type:text" json:"description"`
	Status          RemediationStatus   `gorm:"size:20;not null;default:open;index" json:"status"`
	Priority        RemediationPriority `gorm:"size:20;not null;default:medium" json:"priority"`
	AssignedToId    *int                `gorm:"index" json:"assigned_to_id"`
	DueDate         *time.Time          `gorm:"type:date" json:"due_date"`
	ResolvedAt      *time.Time          `json:"resolved_at"`
	ResolutionNotes string              `gorm:"type:text" json:"resolution_notes"`
	CreatedAt       time.Time           `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt       time.Time           `gorm:"autoUpdateTime" json:"updated_at"`
}

type NewRemediation struct {
	Title           string              `json:"title" binding:"required,max=255"`
	Description     string              `json:"description" binding:"required"`
	Status          RemediationStatus   `json:"status"`
	Priority        RemediationPriority `json:"priority"`
	AssignedToId    *int                `json:"assigned_to_id"`
	DueDate         string              `json:"due_date" binding:"omitempty,datetime=2006-01-02"`
	ResolutionNotes string              `json:"resolution_notes"`
}

func (input *NewRemediation) validate(ctx context.Context) (*time.Time, error) {
	if input.Priority == "" {
		input.Priority = RemediationPriorityMedium
	}
	if !input.Priority.IsValid() {
		return nil, newValidationError("priority", "invalid priority")
	}
	if input.Status != "" && !input.Status.IsValid() {
		return nil, newValidationError("status", "invalid remediation status")
	}
	if input.AssignedToId != nil {
		if err := utils.ValidateResourceId[User](ctx, *input.AssignedToId); err != nil {
			return nil, newValidationError("assigned_to_id", "assignee does not exist")
		}
	}
	dueDate, err := utils.ParseDate(input.DueDate)
	if err != nil {
		return nil, newValidationError("due_date", "invalid date")
	}
	return dueDate, nil
}

// CreateRemediation opens a remediation on a response. New remediations always start open.
func CreateRemediation(ctx context.Context, user *User, responseId int, input *NewRemediation) (*Remediation, error) {
	response, _, err := getResponseInAudit(ctx, user, responseId, EntityRemediation, ActionCreate)
	if err != nil {
		return nil, err
	}
	dueDate, err := input.validate(ctx)
	if err != nil {
		return nil, err
	}

	remediation := Remediation{
		AuditResponseId: response.ID,
		Title:           input.Title,
		Description:     input.Description,
		Status:          RemediationStatusOpen,
		Priority:        input.Priority,
		AssignedToId:    input.AssignedToId,
		DueDate:         dueDate,
	}
	db := config.GetDB()
	if err := db.WithContext(ctx).Create(&remediation).Error; err != nil {
		return nil, err
	}
	return &remediation, nil
}

// UpdateRemediation applies edits and a status change allowed by the remediation lifecycle.
// Entering resolved stamps resolved_at, leaving it clears the stamp.
func UpdateRemediation(ctx context.Context, user *User, id int, input *NewRemediation) (*Remediation, error) {
	remediation, err := fetchAuthorized[Remediation](ctx, user, EntityRemediation, ActionEdit, id)
	if err != nil {
		return nil, err
	}
	dueDate, err := input.validate(ctx)
	if err != nil {
		return nil, err
	}

	status := input.Status
	if status == "" {
		status = remediation.Status
	}
	if err := checkRemediationTransition(remediation.Status, status); err != nil {
		return nil, err
	}

	updates := map[string]interface{}{
		"title":            input.Title,
		"description":      input.Description,
		"status":           status,
		"priority":         input.Priority,
		"assigned_to_id":   input.AssignedToId,
		"due_date":         dueDate,
		"resolution_notes": input.ResolutionNotes,
	}
	switch {
	case status == RemediationStatusResolved && remediation.Status != RemediationStatusResolved:
		updates["resolved_at"] = time.Now()
	case status != RemediationStatusResolved:
		updates["resolved_at"] = nil
	}

	db := config.GetDB()
	result := db.WithContext(ctx).Model(&Remediation{}).
		Where("id = ? AND status = ?", id, remediation.Status).
		Updates(updates)
	if result.Error != nil {
		return nil, result.Error
	}
	if result.RowsAffected == 0 && status != remediation.Status {
		return nil, &TransitionError{Entity: "remediation", From: string(remediation.Status), To: string(status)}
	}
	return utils.FetchModel[Remediation](ctx, id, "AuditResponse")
}

func GetRemediation(ctx context.Context, user *User, id int) (*Remediation, error) {
	return fetchAuthorized[Remediation](ctx, user, EntityRemediation, ActionView, id, "AuditResponse")
}

// ListRemediations returns visible remediations, newest first. Each row appears once
// even when a developer both owns the application and is the assignee.
func ListRemediations(ctx context.Context, user *User) ([]*Remediation, error) {
	return listAuthorized[Remediation](ctx, user, EntityRemediation, nil, "remediations.created_at DESC, remediations.id DESC", "AuditResponse")
}
