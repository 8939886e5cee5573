package models

import (
	"errors"
	"testing"

	"github.com/dpcompass/compass_backend/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
)

func policyUser(id int, role UserRole) *User {
	return &User{ID: id, Username: string(role), Role: role, IsActive: utils.NewTrue()}
}

func requireDenied(t *testing.T, err error) *AccessDeniedError {
	t.Helper()
	var ad *AccessDeniedError
	require.True(t, errors.As(err, &ad), "expected access denied, got %v", err)
	return ad
}

// dryRunDB renders SQL without a server.
func dryRunDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(mysql.New(mysql.Config{
		DSN:                       "test:test@tcp(127.0.0.1:3306)/test?parseTime=true",
		SkipInitializeWithVersion: true,
	}), &gorm.Config{DryRun: true, DisableAutomaticPing: true})
	require.NoError(t, err)
	return db
}

func scopedSQL(t *testing.T, scope Scope, model any, dest any) string {
	t.Helper()
	db := dryRunDB(t)
	return db.ToSQL(func(tx *gorm.DB) *gorm.DB {
		tx = tx.Model(model)
		if scope != nil {
			tx = tx.Scopes(scope)
		}
		return tx.Find(dest)
	})
}

func TestAuthorizeAnonymousAndInactive(t *testing.T) {
	_, err := Authorize(nil, EntityAudit, ActionList)
	assert.Equal(t, "/login/", requireDenied(t, err).Redirect)

	inactive := policyUser(1, UserRoleAdmin)
	inactive.IsActive = utils.NewFalse()
	_, err = Authorize(inactive, EntityAudit, ActionList)
	assert.Equal(t, "/login/", requireDenied(t, err).Redirect)
}

func TestAuthorizeAdminUnrestricted(t *testing.T) {
	admin := policyUser(1, UserRoleAdmin)
	for key := range policies {
		scope, err := Authorize(admin, key.entity, key.action)
		assert.NoError(t, err, "%s %s", key.entity, key.action)
		assert.Nil(t, scope, "%s %s", key.entity, key.action)
	}
}

func TestAuthorizeRoleDenials(t *testing.T) {
	developer := policyUser(7, UserRoleDeveloper)
	auditor := policyUser(8, UserRoleAuditor)

	_, err := Authorize(developer, EntityAudit, ActionCreate)
	ad := requireDenied(t, err)
	assert.Equal(t, "Only auditors can create audits.", ad.Message)
	assert.Equal(t, "/dashboard/", ad.Redirect)

	_, err = Authorize(auditor, EntityAudit, ActionHold)
	assert.Equal(t, "/audits/", requireDenied(t, err).Redirect)

	_, err = Authorize(auditor, EntityReport, ActionApprove)
	assert.Equal(t, "Only administrators can approve reports.", requireDenied(t, err).Message)

	_, err = Authorize(developer, EntityUser, ActionList)
	requireDenied(t, err)

	_, err = Authorize(developer, EntityChecklist, ActionEdit)
	assert.Equal(t, "/audits/checklist/", requireDenied(t, err).Redirect)

	_, err = Authorize(auditor, EntityUser, ActionArchive)
	assert.Equal(t, "/dashboard/", requireDenied(t, err).Redirect)
}

func TestAuthorizeEveryoneReadsChecklist(t *testing.T) {
	for _, role := range UserRoles {
		scope, err := Authorize(policyUser(3, role), EntityChecklist, ActionList)
		assert.NoError(t, err)
		assert.Nil(t, scope)
	}
}

func TestDenialForFillsRecordId(t *testing.T) {
	ad := requireDenied(t, denialFor(EntityAudit, ActionExecute, 42))
	assert.Equal(t, "/audits/42/", ad.Redirect)
	assert.Equal(t, "Only the assigned auditor can execute this audit.", ad.Message)

	ad = requireDenied(t, denialFor(EntityApplication, ActionView, 42))
	assert.Equal(t, "/applications/", ad.Redirect)
}

func TestDeveloperApplicationScope(t *testing.T) {
	scope, err := Authorize(policyUser(7, UserRoleDeveloper), EntityApplication, ActionList)
	require.NoError(t, err)
	require.NotNil(t, scope)

	sql := scopedSQL(t, scope, &Application{}, &[]Application{})
	assert.Contains(t, sql, "applications.owner_id = 7")
}

func TestAuditorAuditScopes(t *testing.T) {
	auditor := policyUser(8, UserRoleAuditor)

	listScope, err := Authorize(auditor, EntityAudit, ActionList)
	require.NoError(t, err)
	sql := scopedSQL(t, listScope, &Audit{}, &[]Audit{})
	assert.Contains(t, sql, "audits.auditor_id = 8")
	assert.NotContains(t, sql, "owner_id")

	viewScope, err := Authorize(auditor, EntityAudit, ActionView)
	require.NoError(t, err)
	sql = scopedSQL(t, viewScope, &Audit{}, &[]Audit{})
	assert.Contains(t, sql, "audits.auditor_id = 8 OR audits.application_id IN (SELECT")
	assert.Contains(t, sql, "owner_id = 8")
}

func TestDeveloperRemediationScope(t *testing.T) {
	scope, err := Authorize(policyUser(7, UserRoleDeveloper), EntityRemediation, ActionList)
	require.NoError(t, err)

	sql := scopedSQL(t, scope, &Remediation{}, &[]Remediation{})
	assert.Contains(t, sql, "remediations.assigned_to_id = 7")
	assert.Contains(t, sql, "applications.owner_id = 7")
}

func TestReportScopes(t *testing.T) {
	scope, err := Authorize(policyUser(8, UserRoleAuditor), EntityReport, ActionList)
	require.NoError(t, err)
	assert.Contains(t, scopedSQL(t, scope, &ComplianceReport{}, &[]ComplianceReport{}), "compliance_reports.generated_by_id = 8")

	scope, err = Authorize(policyUser(7, UserRoleDeveloper), EntityReport, ActionView)
	require.NoError(t, err)
	sql := scopedSQL(t, scope, &ComplianceReport{}, &[]ComplianceReport{})
	assert.Contains(t, sql, "compliance_reports.audit_id IN (SELECT")
	assert.Contains(t, sql, "applications.owner_id = 7")
}
