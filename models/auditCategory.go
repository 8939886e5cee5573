package models

import (
	"context"
	"time"

	"github.com/dpcompass/compass_backend/config"
	"github.com/dpcompass/compass_backend/utils"
	"gorm.io/gorm"
)

type AuditCategory struct {
	ID          int              `gorm:"primary_key" json:"id"`
	Name        string           `gorm:"size:200;not null;unique" json:"name"`
	Description string           `gorm:"type:text" json:"description"`
	SectionId   *int             `gorm:"index" json:"section_id"`
	Section     *Section         `gorm:"foreignKey:SectionId;constraint:OnDelete:SET NULL" json:"section,omitempty"`
	SortOrder   int              `gorm:"not null;default:0" json:"order"`
	IsActive    *bool            `gorm:"not null;default:true" json:"is_active"`
	Items       []*ChecklistItem `gorm:"foreignKey:CategoryId;constraint:OnDelete:CASCADE" json:"items,omitempty"`
	CreatedAt   time.Time        `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time        `gorm:"autoUpdateTime" json:"updated_at"`
}

/*
caches:
	AuditCategoryList (active categories with active items)
*/

// ListChecklist returns active categories in display order, each with its active items.
// Served from redis when cached.
func ListChecklist(ctx context.Context) ([]*AuditCategory, error) {
	cached, err := utils.RetrieveRedisList[AuditCategory]()
	if err != nil {
		config.LogError(config.GetLogger(), "auditCategory.go", "ListChecklist", "RetrieveRedisList", nil, err)
	}
	if cached != nil {
		return cached, nil
	}

	db := config.GetDB()
	var categories []*AuditCategory
	err = db.WithContext(ctx).
		Where("is_active = ?", true).
		Preload("Section").
		Preload("Items", func(tx *gorm.DB) *gorm.DB {
			return tx.Where("is_active = ?", true).Order("sort_order, code")
		}).
		Order("sort_order, name").
		Find(&categories).Error
	if err != nil {
		return nil, err
	}

	if err := utils.StoreRedisList(categories); err != nil {
		config.LogError(config.GetLogger(), "auditCategory.go", "ListChecklist", "StoreRedisList", nil, err)
	}
	return categories, nil
}

func clearChecklistCache() error {
	return utils.RemoveRedisList[AuditCategory]()
}
