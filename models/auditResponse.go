package models

import (
	"context"
	"errors"
	"time"

	"github.com/dpcompass/compass_backend/config"
	"github.com/dpcompass/compass_backend/utils"
	"gorm.io/gorm"
)

// AuditResponse is the outcome of one checklist item within one audit.
// The item's code, title, severity and category are copied at creation so the audit
// keeps reading the same even if the checklist is later edited or pruned.
type AuditResponse struct {
	ID              int            `gorm:"primary_key" json:"id"`
	AuditId         int            `gorm:"not null;uniqueIndex:idx_audit_checklist_item" json:"audit_id"`
	ChecklistItemId *int           `gorm:"uniqueIndex:idx_audit_checklist_item" json:"checklist_item_id"`
	ChecklistItem   *ChecklistItem `gorm:"foreignKey:ChecklistItemId;constraint:OnDelete:SET NULL" json:"-"`
	ItemCode        string         `gorm:"size:20;not null" json:"item_code"`
	ItemTitle       string         `gorm:"size:500;not null" json:"item_title"`
	ItemSeverity    Severity       `gorm:"size:20;not null" json:"item_severity"`
	ItemCategory    string         `gorm:"size:200" json:"item_category"`
	Status          ResponseStatus `gorm:"size:25;not null;default:pending;index" json:"status"`
	Findings        string         `gorm:"type:text" json:"findings"`
	EvidenceNotes   string         `gorm:"type:text" json:"evidence_notes"`
	Recommendations string         `gorm:"type:text" json:"recommendations"`
	ReviewedById    *int           `json:"reviewed_by_id"`
	ReviewedAt      *time.Time     `json:"reviewed_at"`
	CreatedAt       time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt       time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
}

func newPendingResponse(auditId int, item checklistSnapshot) *AuditResponse {
	itemId := item.ID
	return &AuditResponse{
		AuditId:         auditId,
		ChecklistItemId: &itemId,
		ItemCode:        item.Code,
		ItemTitle:       item.Title,
		ItemSeverity:    item.Severity,
		ItemCategory:    item.Category,
		Status:          ResponseStatusPending,
	}
}

// AddAuditResponse adds a response for a checklist item that was not part of the audit yet,
// for example an item activated after the audit was created.
func AddAuditResponse(ctx context.Context, user *User, auditId int, checklistItemId int) (*AuditResponse, error) {
	audit, err := fetchAuthorized[Audit](ctx, user, EntityAudit, ActionExecute, auditId)
	if err != nil {
		return nil, err
	}
	if audit.Status == AuditStatusOnHold {
		return nil, ErrAuditOnHold
	}

	db := config.GetDB()
	var response *AuditResponse
	err = db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var item checklistSnapshot
		err := tx.Table("checklist_items").
			Select("checklist_items.id, checklist_items.code, checklist_items.title, checklist_items.severity, audit_categories.name AS category").
			Joins("JOIN audit_categories ON audit_categories.id = checklist_items.category_id").
			Where("checklist_items.id = ?", checklistItemId).
			Take(&item).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return newValidationError("checklist_item_id", "checklist item does not exist")
		}
		if err != nil {
			return err
		}

		var count int64
		if err := tx.Model(&AuditResponse{}).
			Where("audit_id = ? AND checklist_item_id = ?", auditId, checklistItemId).
			Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return ErrDuplicateResponse
		}

		response = newPendingResponse(auditId, item)
		if err := tx.Create(response).Error; err != nil {
			if isDuplicateKeyError(err) {
				return ErrDuplicateResponse
			}
			return err
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return response, nil
}

// auditResponses returns the responses of an audit in the order they were seeded, which is checklist order.
func auditResponses(ctx context.Context, auditId int) ([]*AuditResponse, error) {
	db := config.GetDB()
	var results []*AuditResponse
	err := db.WithContext(ctx).
		Where("audit_id = ?", auditId).
		Order("id").
		Find(&results).Error
	return results, err
}

// getResponseInAudit loads a response and authorizes the action against its audit.
func getResponseInAudit(ctx context.Context, user *User, responseId int, entity Entity, action Action) (*AuditResponse, *Audit, error) {
	response, err := utils.FetchModel[AuditResponse](ctx, responseId)
	if err != nil {
		return nil, nil, err
	}
	audit, err := fetchAuthorized[Audit](ctx, user, entity, action, response.AuditId, "Application")
	if err != nil {
		return nil, nil, err
	}
	return response, audit, nil
}
