package models

import (
	"context"
	"time"

	"github.com/dpcompass/compass_backend/config"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// ComplianceScore is a persisted score snapshot of one audit.
type ComplianceScore struct {
	ID                      int              `gorm:"primary_key" json:"id"`
	ApplicationId           int              `gorm:"not null;index" json:"application_id"`
	Application             *Application     `gorm:"foreignKey:ApplicationId;constraint:OnDelete:CASCADE" json:"application,omitempty"`
	AuditId                 *int             `gorm:"index" json:"audit_id"`
	Audit                   *Audit           `gorm:"foreignKey:AuditId;constraint:OnDelete:CASCADE" json:"-"`
	OverallScore            decimal.Decimal  `gorm:"type:decimal(5,2);not null" json:"overall_score"`
	CriticalScore           *decimal.Decimal `gorm:"type:decimal(5,2)" json:"critical_score"`
	MajorScore              *decimal.Decimal `gorm:"type:decimal(5,2)" json:"major_score"`
	TotalItems              int              `gorm:"not null;default:0" json:"total_items"`
	CompliantItems          int              `gorm:"not null;default:0" json:"compliant_items"`
	NonCompliantItems       int              `gorm:"not null;default:0" json:"non_compliant_items"`
	PartiallyCompliantItems int              `gorm:"not null;default:0" json:"partially_compliant_items"`
	NotApplicableItems      int              `gorm:"not null;default:0" json:"not_applicable_items"`
	CalculatedAt            time.Time        `gorm:"not null;index" json:"calculated_at"`
	CalculatedById          *int             `json:"calculated_by_id"`
	CreatedAt               time.Time        `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt               time.Time        `gorm:"autoUpdateTime" json:"updated_at"`
}

// RecordScore persists the current score of an audit, overall and per severity.
// An audit with nothing evaluated has no score to record.
func RecordScore(ctx context.Context, user *User, auditId int) (*ComplianceScore, error) {
	ctx, span := tracer.Start(ctx, "RecordScore", trace.WithAttributes(attribute.Int("audit.id", auditId)))
	defer span.End()

	audit, err := fetchAuthorized[Audit](ctx, user, EntityScore, ActionRecord, auditId)
	if err != nil {
		return nil, err
	}

	db := config.GetDB()
	items, err := auditScoredItems(db.WithContext(ctx), auditId)
	if err != nil {
		return nil, err
	}
	scores := ScoreBySeverity(items)
	if scores.Overall.Compliance == nil {
		return nil, newValidationError("audit", "no evaluated responses to score")
	}

	overall := scores.Overall
	score := ComplianceScore{
		ApplicationId:           audit.ApplicationId,
		AuditId:                 &audit.ID,
		OverallScore:            *overall.Compliance,
		CriticalScore:           scores.Critical.Compliance,
		MajorScore:              scores.Major.Compliance,
		TotalItems:              overall.Total,
		CompliantItems:          overall.Compliant,
		NonCompliantItems:       overall.NonCompliant,
		PartiallyCompliantItems: overall.PartiallyCompliant,
		NotApplicableItems:      overall.NotApplicable,
		CalculatedAt:            time.Now(),
		CalculatedById:          &user.ID,
	}
	if err := db.WithContext(ctx).Create(&score).Error; err != nil {
		span.RecordError(err)
		return nil, err
	}
	return &score, nil
}
