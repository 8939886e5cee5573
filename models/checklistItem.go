package models

import (
	"context"
	"time"

	"github.com/dpcompass/compass_backend/config"
	"github.com/dpcompass/compass_backend/utils"
	"gorm.io/gorm"
)

type ChecklistItem struct {
	ID               int       `gorm:"primary_key" json:"id"`
	CategoryId       int       `gorm:"not null;index" json:"category_id"`
	Code             string    `gorm:"size:20;not null;unique" json:"code"`
	Title            string    `gorm:"size:500;not null" json:"title"`
	Description      string    `gorm:"type:text" json:"description"`
	Guidance         string    `gorm:"type:text" json:"guidance"`
	EvidenceRequired string    `gorm:"type:text" json:"evidence_required"`
	Severity         Severity  `gorm:"size:20;not null;default:major" json:"severity"`
	SortOrder        int       `gorm:"not null;default:0" json:"order"`
	IsActive         *bool     `gorm:"not null;default:true" json:"is_active"`
	CreatedAt        time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt        time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

type NewChecklistItem struct {
	Code             string   `json:"code" binding:"required,max=20"`
	Title            string   `json:"title" binding:"required,max=500"`
	Description      string   `json:"description"`
	Guidance         string   `json:"guidance"`
	EvidenceRequired string   `json:"evidence_required"`
	Severity         Severity `json:"severity" binding:"required"`
	SortOrder        int      `json:"order"`
	IsActive         *bool    `json:"is_active"`
}

func (input *NewChecklistItem) validate(ctx context.Context, id int) error {
	if !input.Severity.IsValid() {
		return newValidationError("severity", "invalid severity")
	}
	if err := utils.ValidateUnique[ChecklistItem](ctx, "code", input.Code, id); err != nil {
		return err
	}
	return nil
}

// UpdateChecklistItem edits a checklist item. The code is frozen once any response refers to the item,
// so existing audit snapshots keep pointing at a stable identifier.
func UpdateChecklistItem(ctx context.Context, user *User, id int, input *NewChecklistItem) (*ChecklistItem, error) {
	if _, err := Authorize(user, EntityChecklist, ActionEdit); err != nil {
		return nil, err
	}
	item, err := utils.FetchModel[ChecklistItem](ctx, id)
	if err != nil {
		return nil, err
	}
	if err := input.validate(ctx, id); err != nil {
		return nil, err
	}

	if input.Code != item.Code {
		count, err := utils.ResourceCountWhere[AuditResponse](ctx, "checklist_item_id = ?", id)
		if err != nil {
			return nil, err
		}
		if count > 0 {
			return nil, ErrChecklistCodeInUse
		}
	}

	db := config.GetDB()
	err = db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.Model(item).Updates(map[string]interface{}{
			"code":              input.Code,
			"title":             input.Title,
			"description":       input.Description,
			"guidance":          input.Guidance,
			"evidence_required": input.EvidenceRequired,
			"severity":          input.Severity,
			"sort_order":        input.SortOrder,
			"is_active":         utils.DereferencePtr(input.IsActive, true),
		}).Error
	})
	if err != nil {
		return nil, err
	}

	if err := RemoveRedisBoth(*item); err != nil {
		config.LogError(config.GetLogger(), "checklistItem.go", "UpdateChecklistItem", "RemoveRedisBoth", id, err)
	}
	return utils.FetchModel[ChecklistItem](ctx, id)
}

// GetChecklistItem reads through the ChecklistItem:$id cache.
func GetChecklistItem(ctx context.Context, id int) (*ChecklistItem, error) {
	if cached, err := utils.RetrieveRedis[ChecklistItem](id); err == nil && cached != nil {
		return cached, nil
	}
	item, err := utils.FetchModel[ChecklistItem](ctx, id)
	if err != nil {
		return nil, err
	}
	if err := utils.StoreRedis(item, id); err != nil {
		config.LogError(config.GetLogger(), "checklistItem.go", "GetChecklistItem", "StoreRedis", id, err)
	}
	return item, nil
}

// activeChecklistItems returns the items a new audit is seeded from, with their category names.
func activeChecklistItems(tx *gorm.DB) ([]checklistSnapshot, error) {
	var rows []checklistSnapshot
	err := tx.Table("checklist_items").
		Select("checklist_items.id, checklist_items.code, checklist_items.title, checklist_items.severity, audit_categories.name AS category").
		Joins("JOIN audit_categories ON audit_categories.id = checklist_items.category_id").
		Where("checklist_items.is_active = ?", true).
		Order("audit_categories.sort_order, checklist_items.sort_order, checklist_items.code").
		Scan(&rows).Error
	return rows, err
}

type checklistSnapshot struct {
	ID       int
	Code     string
	Title    string
	Severity Severity
	Category string
}
