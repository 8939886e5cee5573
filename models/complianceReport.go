package models

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dpcompass/compass_backend/config"
	"github.com/dpcompass/compass_backend/utils"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// ComplianceReport is the record of a completed audit. Its score and counts are frozen at generation;
// later response edits do not change them.
type ComplianceReport struct {
	ID              int              `gorm:"primary_key" json:"id"`
	AuditId         int              `gorm:"not null;index" json:"audit_id"`
	Audit           *Audit           `gorm:"foreignKey:AuditId;constraint:OnDelete:CASCADE" json:"audit,omitempty"`
	TemplateId      *int             `gorm:"index" json:"template_id"`
	Template        *ReportTemplate  `gorm:"foreignKey:TemplateId;constraint:OnDelete:SET NULL" json:"-"`
	Title           string           `gorm:"size:255;not null" json:"title"`
	Status          ReportStatus     `gorm:"size:20;not null;default:draft;index" json:"status"`
	Summary         string           `gorm:"type:text" json:"summary"`
	Recommendations string           `gorm:"type:text" json:"recommendations"`
	ComplianceScore *decimal.Decimal `gorm:"type:decimal(5,2)" json:"compliance_score"`
	Counts          datatypes.JSON   `json:"counts"`
	GeneratedById   *int             `gorm:"index" json:"generated_by_id"`
	GeneratedAt     *time.Time       `json:"generated_at"`
	ApprovedById    *int             `json:"approved_by_id"`
	ApprovedAt      *time.Time       `json:"approved_at"`
	CreatedAt       time.Time        `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt       time.Time        `gorm:"autoUpdateTime" json:"updated_at"`
}

type NewReport struct {
	Title           string `json:"title" binding:"max=255"`
	TemplateId      *int   `json:"template_id"`
	Recommendations string `json:"recommendations"`
}

// ReportGenerateOptions is what the generate form needs.
type ReportGenerateOptions struct {
	Audit     *Audit            `json:"audit"`
	Templates []*ReportTemplate `json:"templates"`
}

// ReportExport carries everything an exporter renders.
type ReportExport struct {
	Report    *ComplianceReport
	Audit     *Audit
	Responses []*AuditResponse
	Score     ScoreResult
	Template  *ReportTemplate
}

const reportLockTTL = 30 * time.Second

// ScoreSnapshot decodes the counts frozen at generation.
func (r ComplianceReport) ScoreSnapshot() (ScoreResult, error) {
	var result ScoreResult
	if len(r.Counts) == 0 {
		return result, nil
	}
	err := json.Unmarshal(r.Counts, &result)
	return result, err
}

func reportSummary(score ScoreResult) string {
	if score.Compliance == nil {
		return "Compliance assessment completed with no evaluated items"
	}
	return fmt.Sprintf("Compliance assessment completed with score of %s%%", score.ComplianceText())
}

func defaultReportTitle(audit *Audit) string {
	if audit.Application != nil {
		return "Compliance Report - " + audit.Application.Name
	}
	return "Compliance Report - " + audit.Title
}

func (input *NewReport) validate(ctx context.Context) error {
	if input.TemplateId == nil {
		return nil
	}
	count, err := utils.ResourceCountWhere[ReportTemplate](ctx, "id = ? AND is_active = ?", *input.TemplateId, true)
	if err != nil {
		return err
	}
	if count == 0 {
		return newValidationError("template_id", "template does not exist")
	}
	return nil
}

// GetReportGenerateOptions returns the audit and active templates, only for completed audits.
func GetReportGenerateOptions(ctx context.Context, user *User, auditId int) (*ReportGenerateOptions, error) {
	audit, err := fetchAuthorized[Audit](ctx, user, EntityReport, ActionGenerate, auditId, "Application")
	if err != nil {
		return nil, err
	}
	if audit.Status != AuditStatusCompleted {
		return nil, ErrAuditNotCompleted
	}
	templates, err := ListReportTemplates(ctx)
	if err != nil {
		return nil, err
	}
	return &ReportGenerateOptions{Audit: audit, Templates: templates}, nil
}

// GenerateReport scores a completed audit and stores the result as a generated report.
// Generation is serialized per audit.
func GenerateReport(ctx context.Context, user *User, auditId int, input *NewReport) (*ComplianceReport, error) {
	ctx, span := tracer.Start(ctx, "GenerateReport", trace.WithAttributes(attribute.Int("audit.id", auditId)))
	defer span.End()

	audit, err := fetchAuthorized[Audit](ctx, user, EntityReport, ActionGenerate, auditId, "Application")
	if err != nil {
		return nil, err
	}
	if audit.Status != AuditStatusCompleted {
		return nil, ErrAuditNotCompleted
	}
	if err := input.validate(ctx); err != nil {
		return nil, err
	}
	if err := checkReportTransition(ReportStatusDraft, ReportStatusGenerated); err != nil {
		return nil, err
	}

	release, err := utils.ObtainLock(ctx, "report", fmt.Sprint(auditId), reportLockTTL)
	if err != nil {
		return nil, err
	}
	defer release()

	title := strings.TrimSpace(input.Title)
	if title == "" {
		title = defaultReportTitle(audit)
	}

	var report ComplianceReport
	var activity *UserActivity
	db := config.GetDB()
	err = db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		items, err := auditScoredItems(tx, auditId)
		if err != nil {
			return err
		}
		statuses := make([]ResponseStatus, 0, len(items))
		for _, item := range items {
			statuses = append(statuses, item.Status)
		}
		score := Score(statuses)
		counts, err := json.Marshal(score)
		if err != nil {
			return err
		}

		now := time.Now()
		report = ComplianceReport{
			AuditId:         auditId,
			TemplateId:      input.TemplateId,
			Title:           title,
			Status:          ReportStatusGenerated,
			Summary:         reportSummary(score),
			Recommendations: input.Recommendations,
			ComplianceScore: score.Compliance,
			Counts:          datatypes.JSON(counts),
			GeneratedById:   &user.ID,
			GeneratedAt:     &now,
		}
		if err := tx.Create(&report).Error; err != nil {
			return err
		}

		activity, err = recordActivity(ctx, tx, user, ActivityReportGenerate, "Generated report "+report.Title,
			map[string]interface{}{"report_id": report.ID, "audit_id": auditId, "score": score.ComplianceText()})
		return err
	})
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	report.Audit = audit
	publishActivity(ctx, user, activity)
	return &report, nil
}

func ApproveReport(ctx context.Context, user *User, id int) (*ComplianceReport, error) {
	return moveReport(ctx, user, id, ActionApprove, ReportStatusApproved)
}

func ArchiveReport(ctx context.Context, user *User, id int) (*ComplianceReport, error) {
	return moveReport(ctx, user, id, ActionArchive, ReportStatusArchived)
}

func moveReport(ctx context.Context, user *User, id int, action Action, to ReportStatus) (*ComplianceReport, error) {
	report, err := fetchAuthorized[ComplianceReport](ctx, user, EntityReport, action, id)
	if err != nil {
		return nil, err
	}
	if err := checkReportTransition(report.Status, to); err != nil {
		return nil, err
	}

	updates := map[string]interface{}{"status": to}
	if to == ReportStatusApproved {
		updates["approved_by_id"] = user.ID
		updates["approved_at"] = time.Now()
	}
	db := config.GetDB()
	result := db.WithContext(ctx).Model(&ComplianceReport{}).
		Where("id = ? AND status = ?", id, report.Status).
		Updates(updates)
	if result.Error != nil {
		return nil, result.Error
	}
	if result.RowsAffected == 0 {
		return nil, &TransitionError{Entity: "report", From: string(report.Status), To: string(to)}
	}
	return utils.FetchModel[ComplianceReport](ctx, id, "Audit", "Audit.Application")
}

func GetReport(ctx context.Context, user *User, id int) (*ComplianceReport, error) {
	return fetchAuthorized[ComplianceReport](ctx, user, EntityReport, ActionView, id, "Audit", "Audit.Application")
}

// GetReportExport loads a visible report with the audit's responses for rendering.
func GetReportExport(ctx context.Context, user *User, id int) (*ReportExport, error) {
	report, err := GetReport(ctx, user, id)
	if err != nil {
		return nil, err
	}
	responses, err := auditResponses(ctx, report.AuditId)
	if err != nil {
		return nil, err
	}
	score, err := report.ScoreSnapshot()
	if err != nil {
		return nil, err
	}
	export := ReportExport{
		Report:    report,
		Audit:     report.Audit,
		Responses: responses,
		Score:     score,
	}
	if report.TemplateId != nil {
		template, err := utils.FetchModel[ReportTemplate](ctx, *report.TemplateId)
		if err != nil && !errors.Is(err, utils.ErrorRecordNotFound) {
			return nil, err
		}
		export.Template = template
	}
	return &export, nil
}

func ListReports(ctx context.Context, user *User) ([]*ComplianceReport, error) {
	return listAuthorized[ComplianceReport](ctx, user, EntityReport, nil,
		"compliance_reports.created_at DESC, compliance_reports.id DESC", "Audit", "Audit.Application")
}
