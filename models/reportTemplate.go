package models

import (
	"context"
	"time"

	"github.com/dpcompass/compass_backend/config"
)

type ReportTemplate struct {
	ID              int       `gorm:"primary_key" json:"id"`
	Name            string    `gorm:"size:255;not null" json:"name"`
	Description     string    `gorm:"type:text" json:"description"`
	TemplateContent string    `gorm:"type:text" json:"template_content"`
	IsDefault       *bool     `gorm:"not null;default:false" json:"is_default"`
	IsActive        *bool     `gorm:"not null;default:true" json:"is_active"`
	CreatedAt       time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt       time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

// ListReportTemplates returns active templates, the default one first.
func ListReportTemplates(ctx context.Context) ([]*ReportTemplate, error) {
	db := config.GetDB()
	var results []*ReportTemplate
	err := db.WithContext(ctx).
		Where("is_active = ?", true).
		Order("is_default DESC, name").
		Find(&results).Error
	return results, err
}
