package models

import (
	"github.com/dpcompass/compass_backend/config"
)

func MigrateTable() error {
	db := config.GetDB()

	return db.AutoMigrate(
		&User{}, &UserActivity{},
		&Section{}, &AuditCategory{}, &ChecklistItem{},
		&Application{},
		&Audit{}, &AuditResponse{},
		&Remediation{}, &Evidence{},
		&ComplianceScore{},
		&ReportTemplate{}, &ComplianceReport{},
	)
}
