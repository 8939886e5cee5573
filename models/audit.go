package models

import (
	"context"
	"time"

	"github.com/dpcompass/compass_backend/config"
	"github.com/dpcompass/compass_backend/utils"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"
)

var tracer trace.Tracer = otel.Tracer("dp-compass/models")

type Audit struct {
	ID            int              `gorm:"primary_key" json:"id"`
	ApplicationId int              `gorm:"not null;index" json:"application_id"`
	Application   *Application     `gorm:"foreignKey:ApplicationId;constraint:OnDelete:CASCADE" json:"application,omitempty"`
	AuditorId     *int             `gorm:"index" json:"auditor_id"`
	Auditor       *User            `gorm:"foreignKey:AuditorId;constraint:OnDelete:SET NULL" json:"-"`
	Title         string           `gorm:"size:255;not null" json:"title"`
	Description   string           `gorm:"type:text" json:"description"`
	Status        AuditStatus      `gorm:"size:20;not null;default:pending;index" json:"status"`
	ScheduledDate *time.Time       `gorm:"type:date" json:"scheduled_date"`
	StartedAt     *time.Time       `json:"started_at"`
	CompletedAt   *time.Time       `json:"completed_at"`
	Notes         string           `gorm:"type:text" json:"notes"`
	Responses     []*AuditResponse `gorm:"foreignKey:AuditId;constraint:OnDelete:CASCADE" json:"responses,omitempty"`
	CreatedAt     time.Time        `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt     time.Time        `gorm:"autoUpdateTime" json:"updated_at"`
}

type NewAudit struct {
	ApplicationId int    `json:"application_id" binding:"required"`
	Title         string `json:"title" binding:"required,max=255"`
	Description   string `json:"description"`
	ScheduledDate string `json:"scheduled_date" binding:"omitempty,datetime=2006-01-02"`
	AuditorId     *int   `json:"auditor_id"`
	Notes         string `json:"notes"`
}

// AuditDetail is an audit with its responses and the derived score.
type AuditDetail struct {
	Audit      *Audit           `json:"audit"`
	Responses  []*AuditResponse `json:"responses"`
	Categories []string         `json:"categories"`
	Score      ScoreResult      `json:"score"`
}

// AuditFormOptions lists what a user may pick when creating an audit.
type AuditFormOptions struct {
	Applications []*Application `json:"applications"`
	Auditors     []*User        `json:"auditors,omitempty"`
}

func (a Audit) Label() string {
	if a.Application != nil {
		return a.Title + " - " + a.Application.Name
	}
	return a.Title
}

func (input *NewAudit) validate(ctx context.Context, user *User) (*time.Time, error) {
	if err := utils.ValidateResourceId[Application](ctx, input.ApplicationId); err != nil {
		return nil, newValidationError("application_id", "application does not exist")
	}
	scheduled, err := utils.ParseDate(input.ScheduledDate)
	if err != nil {
		return nil, newValidationError("scheduled_date", "invalid date")
	}

	// only administrators assign audits to someone else
	if !user.IsAdmin() || input.AuditorId == nil {
		input.AuditorId = &user.ID
	}
	if *input.AuditorId != user.ID {
		auditor, err := GetUser(ctx, *input.AuditorId)
		if err != nil {
			return nil, newValidationError("auditor_id", "auditor does not exist")
		}
		if auditor.IsDeveloper() {
			return nil, newValidationError("auditor_id", "assigned user is not an auditor")
		}
	}
	return scheduled, nil
}

// CreateAudit inserts the audit and one pending response per active checklist item in one transaction.
func CreateAudit(ctx context.Context, user *User, input *NewAudit) (*Audit, error) {
	ctx, span := tracer.Start(ctx, "CreateAudit")
	defer span.End()

	if _, err := Authorize(user, EntityAudit, ActionCreate); err != nil {
		return nil, err
	}
	scheduled, err := input.validate(ctx, user)
	if err != nil {
		return nil, err
	}

	audit := Audit{
		ApplicationId: input.ApplicationId,
		AuditorId:     input.AuditorId,
		Title:         input.Title,
		Description:   input.Description,
		Status:        AuditStatusPending,
		ScheduledDate: scheduled,
		Notes:         input.Notes,
	}

	var activity *UserActivity
	db := config.GetDB()
	err = db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&audit).Error; err != nil {
			return err
		}

		items, err := activeChecklistItems(tx)
		if err != nil {
			return err
		}
		responses := make([]*AuditResponse, 0, len(items))
		for _, item := range items {
			responses = append(responses, newPendingResponse(audit.ID, item))
		}
		if len(responses) > 0 {
			if err := tx.CreateInBatches(responses, 100).Error; err != nil {
				if isDuplicateKeyError(err) {
					return ErrDuplicateResponse
				}
				return err
			}
		}

		activity, err = recordActivity(ctx, tx, user, ActivityAuditCreate, "Created audit "+audit.Title,
			map[string]interface{}{"audit_id": audit.ID, "application_id": audit.ApplicationId, "responses": len(responses)})
		return err
	})
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	span.SetAttributes(attribute.Int("audit.id", audit.ID))
	publishActivity(ctx, user, activity)
	return &audit, nil
}

// BeginAudit moves a pending audit to in_progress and stamps started_at.
// The update is conditional on the pending status, so the stamp is written at most once.
func BeginAudit(ctx context.Context, user *User, id int) (*Audit, error) {
	ctx, span := tracer.Start(ctx, "BeginAudit", trace.WithAttributes(attribute.Int("audit.id", id)))
	defer span.End()

	audit, err := fetchAuthorized[Audit](ctx, user, EntityAudit, ActionExecute, id, "Application")
	if err != nil {
		return nil, err
	}
	switch audit.Status {
	case AuditStatusOnHold:
		return nil, ErrAuditOnHold
	case AuditStatusPending:
	default:
		return audit, nil
	}

	now := time.Now()
	db := config.GetDB()
	err = db.WithContext(ctx).Model(&Audit{}).
		Where("id = ? AND status = ?", id, AuditStatusPending).
		Updates(map[string]interface{}{
			"status":     AuditStatusInProgress,
			"started_at": now,
		}).Error
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	return utils.FetchModel[Audit](ctx, id, "Application")
}

type ResponseInput struct {
	ID              int            `json:"id" binding:"required"`
	Status          ResponseStatus `json:"status"`
	Findings        string         `json:"findings"`
	EvidenceNotes   string         `json:"evidence_notes"`
	Recommendations string         `json:"recommendations"`
}

// RecordResponses saves the submitted outcomes of one audit. Entries without a status are left untouched.
// Every saved response is stamped with the reviewing user.
func RecordResponses(ctx context.Context, user *User, auditId int, inputs []ResponseInput) (int, error) {
	ctx, span := tracer.Start(ctx, "RecordResponses", trace.WithAttributes(attribute.Int("audit.id", auditId)))
	defer span.End()

	audit, err := fetchAuthorized[Audit](ctx, user, EntityAudit, ActionExecute, auditId)
	if err != nil {
		return 0, err
	}
	if audit.Status == AuditStatusOnHold {
		return 0, ErrAuditOnHold
	}

	var ids []int
	var submitted []ResponseInput
	for _, input := range inputs {
		if input.Status == "" {
			continue
		}
		if !input.Status.IsValid() {
			return 0, newValidationError("status", "invalid response status "+string(input.Status))
		}
		ids = append(ids, input.ID)
		submitted = append(submitted, input)
	}
	if len(submitted) == 0 {
		return 0, nil
	}

	ids = utils.UniqueSlice(ids)
	count, err := utils.ResourceCountWhere[AuditResponse](ctx, "audit_id = ? AND id IN ?", auditId, ids)
	if err != nil {
		return 0, err
	}
	if int(count) != len(ids) {
		return 0, newValidationError("responses", "response does not belong to this audit")
	}

	now := time.Now()
	db := config.GetDB()
	err = db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, input := range submitted {
			err := tx.Model(&AuditResponse{}).
				Where("id = ? AND audit_id = ?", input.ID, auditId).
				Updates(map[string]interface{}{
					"status":          input.Status,
					"findings":        input.Findings,
					"evidence_notes":  input.EvidenceNotes,
					"recommendations": input.Recommendations,
					"reviewed_by_id":  user.ID,
					"reviewed_at":     now,
				}).Error
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		span.RecordError(err)
		return 0, err
	}
	return len(submitted), nil
}

// CompleteAudit marks an in-progress audit completed. Completing an already completed audit is a no-op.
// Pending responses do not block completion.
func CompleteAudit(ctx context.Context, user *User, id int) (*Audit, error) {
	ctx, span := tracer.Start(ctx, "CompleteAudit", trace.WithAttributes(attribute.Int("audit.id", id)))
	defer span.End()

	audit, err := fetchAuthorized[Audit](ctx, user, EntityAudit, ActionExecute, id)
	if err != nil {
		return nil, err
	}
	if audit.Status == AuditStatusCompleted {
		return audit, nil
	}
	if err := checkAuditTransition(audit.Status, AuditStatusCompleted); err != nil {
		return nil, err
	}

	var activity *UserActivity
	db := config.GetDB()
	err = db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&Audit{}).
			Where("id = ? AND status = ?", id, AuditStatusInProgress).
			Updates(map[string]interface{}{
				"status":       AuditStatusCompleted,
				"completed_at": time.Now(),
			})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			// lost a race; either a concurrent complete (fine) or a hold
			var current Audit
			if err := tx.Select("status").First(&current, id).Error; err != nil {
				return err
			}
			if current.Status == AuditStatusCompleted {
				return nil
			}
			return checkAuditTransition(current.Status, AuditStatusCompleted)
		}
		var err error
		activity, err = recordActivity(ctx, tx, user, ActivityAuditComplete, "Completed audit "+audit.Title,
			map[string]interface{}{"audit_id": id})
		return err
	})
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	publishActivity(ctx, user, activity)
	return utils.FetchModel[Audit](ctx, id, "Application")
}

func HoldAudit(ctx context.Context, user *User, id int) (*Audit, error) {
	return moveAudit(ctx, user, id, AuditStatusOnHold)
}

func ResumeAudit(ctx context.Context, user *User, id int) (*Audit, error) {
	return moveAudit(ctx, user, id, AuditStatusInProgress)
}

func moveAudit(ctx context.Context, user *User, id int, to AuditStatus) (*Audit, error) {
	ctx, span := tracer.Start(ctx, "moveAudit", trace.WithAttributes(
		attribute.Int("audit.id", id),
		attribute.String("audit.to", string(to)),
	))
	defer span.End()

	audit, err := fetchAuthorized[Audit](ctx, user, EntityAudit, ActionHold, id)
	if err != nil {
		return nil, err
	}
	if err := checkAuditTransition(audit.Status, to); err != nil {
		return nil, err
	}

	updates := map[string]interface{}{"status": to}
	if to == AuditStatusInProgress && audit.StartedAt == nil {
		updates["started_at"] = time.Now()
	}
	db := config.GetDB()
	result := db.WithContext(ctx).Model(&Audit{}).
		Where("id = ? AND status = ?", id, audit.Status).
		Updates(updates)
	if result.Error != nil {
		return nil, result.Error
	}
	if result.RowsAffected == 0 {
		return nil, &TransitionError{Entity: "audit", From: string(audit.Status), To: string(to)}
	}
	return utils.FetchModel[Audit](ctx, id, "Application")
}

func GetAudit(ctx context.Context, user *User, id int) (*Audit, error) {
	return fetchAuthorized[Audit](ctx, user, EntityAudit, ActionView, id, "Application")
}

// GetAuditDetail returns the audit with responses in checklist order and its current score.
func GetAuditDetail(ctx context.Context, user *User, id int) (*AuditDetail, error) {
	audit, err := GetAudit(ctx, user, id)
	if err != nil {
		return nil, err
	}
	responses, err := auditResponses(ctx, id)
	if err != nil {
		return nil, err
	}

	statuses := make([]ResponseStatus, 0, len(responses))
	var categories []string
	for _, r := range responses {
		statuses = append(statuses, r.Status)
		if r.ItemCategory != "" {
			categories = append(categories, r.ItemCategory)
		}
	}

	return &AuditDetail{
		Audit:      audit,
		Responses:  responses,
		Categories: utils.UniqueSlice(categories),
		Score:      Score(statuses),
	}, nil
}

// ListAudits returns the audits visible to user, newest first. An empty status means all.
func ListAudits(ctx context.Context, user *User, status AuditStatus) ([]*Audit, error) {
	if status != "" && !status.IsValid() {
		return nil, newValidationError("status", "invalid audit status")
	}
	var filter Scope
	if status != "" {
		filter = func(tx *gorm.DB) *gorm.DB {
			return tx.Where("audits.status = ?", status)
		}
	}
	return listAuthorized[Audit](ctx, user, EntityAudit, filter, "audits.created_at DESC, audits.id DESC", "Application")
}

func GetAuditFormOptions(ctx context.Context, user *User) (*AuditFormOptions, error) {
	if _, err := Authorize(user, EntityAudit, ActionCreate); err != nil {
		return nil, err
	}
	applications, err := ListApplications(ctx, user)
	if err != nil {
		return nil, err
	}
	options := AuditFormOptions{Applications: applications}
	if user.IsAdmin() {
		auditors, err := ListUsersByRole(ctx, UserRoleAuditor)
		if err != nil {
			return nil, err
		}
		options.Auditors = auditors
	}
	return &options, nil
}

// auditScoredItems loads status and severity of every response of the audit.
func auditScoredItems(tx *gorm.DB, auditId int) ([]ScoredItem, error) {
	var rows []struct {
		Status       ResponseStatus
		ItemSeverity Severity
	}
	if err := tx.Model(&AuditResponse{}).
		Select("status, item_severity").
		Where("audit_id = ?", auditId).
		Scan(&rows).Error; err != nil {
		return nil, err
	}
	items := make([]ScoredItem, 0, len(rows))
	for _, row := range rows {
		items = append(items, ScoredItem{Status: row.Status, Severity: row.ItemSeverity})
	}
	return items, nil
}
