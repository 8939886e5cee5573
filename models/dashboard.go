package models

import (
	"context"

	"github.com/dpcompass/compass_backend/config"
	"gorm.io/gorm"
)

type Dashboard struct {
	TotalApplications int64              `json:"total_applications"`
	PendingAudits     int64              `json:"pending_audits"`
	InProgressAudits  int64              `json:"in_progress_audits"`
	CompletedAudits   int64              `json:"completed_audits"`
	OnHoldAudits      int64              `json:"on_hold_audits"`
	OpenRemediations  int64              `json:"open_remediations"`
	RecentAudits      []*Audit           `json:"recent_audits"`
	RecentScores      []*ComplianceScore `json:"recent_scores"`
}

const dashboardRecentLimit = 5

func applyScope(tx *gorm.DB, scope Scope) *gorm.DB {
	if scope == nil {
		return tx
	}
	return scope(tx)
}

// GetDashboard counts what the user can see and lists the latest audits and recorded scores.
func GetDashboard(ctx context.Context, user *User) (*Dashboard, error) {
	applicationScope, err := Authorize(user, EntityApplication, ActionList)
	if err != nil {
		return nil, err
	}
	auditScope, err := Authorize(user, EntityAudit, ActionList)
	if err != nil {
		return nil, err
	}
	remediationScope, err := Authorize(user, EntityRemediation, ActionList)
	if err != nil {
		return nil, err
	}

	db := config.GetDB().WithContext(ctx)
	var result Dashboard

	if err := applyScope(db.Model(&Application{}), applicationScope).Count(&result.TotalApplications).Error; err != nil {
		return nil, err
	}

	var statusCounts []struct {
		Status AuditStatus
		Total  int64
	}
	if err := applyScope(db.Model(&Audit{}), auditScope).
		Select("audits.status AS status, COUNT(*) AS total").
		Group("audits.status").
		Scan(&statusCounts).Error; err != nil {
		return nil, err
	}
	for _, row := range statusCounts {
		switch row.Status {
		case AuditStatusPending:
			result.PendingAudits = row.Total
		case AuditStatusInProgress:
			result.InProgressAudits = row.Total
		case AuditStatusCompleted:
			result.CompletedAudits = row.Total
		case AuditStatusOnHold:
			result.OnHoldAudits = row.Total
		}
	}

	if err := applyScope(db.Model(&Remediation{}), remediationScope).
		Where("remediations.status IN ?", []RemediationStatus{RemediationStatusOpen, RemediationStatusInProgress}).
		Count(&result.OpenRemediations).Error; err != nil {
		return nil, err
	}

	if err := applyScope(db.Model(&Audit{}), auditScope).
		Preload("Application").
		Order("audits.created_at DESC, audits.id DESC").
		Limit(dashboardRecentLimit).
		Find(&result.RecentAudits).Error; err != nil {
		return nil, err
	}

	scores := db.Model(&ComplianceScore{})
	if applicationScope != nil {
		visible := applyScope(db.Session(&gorm.Session{NewDB: true}).Table("applications").Select("applications.id"), applicationScope)
		scores = scores.Where("compliance_scores.application_id IN (?)", visible)
	}
	if err := scores.
		Preload("Application").
		Order("compliance_scores.calculated_at DESC, compliance_scores.id DESC").
		Limit(dashboardRecentLimit).
		Find(&result.RecentScores).Error; err != nil {
		return nil, err
	}

	return &result, nil
}
