package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestUserRoleParse(t *testing.T) {
	for _, role := range UserRoles {
		parsed, err := ParseUserRole(string(role))
		assert.NoError(t, err)
		assert.Equal(t, role, parsed)
	}

	_, err := ParseUserRole("superuser")
	assert.Error(t, err)
	_, err = ParseUserRole("")
	assert.Error(t, err)
}

func TestUserRoleLabel(t *testing.T) {
	assert.Equal(t, "Administrator", UserRoleAdmin.Label())
	assert.Equal(t, "Auditor", UserRoleAuditor.Label())
	assert.Equal(t, "Developer/Application Owner", UserRoleDeveloper.Label())
	assert.Equal(t, "guest", UserRole("guest").Label())
}

func TestEnumValidity(t *testing.T) {
	assert.True(t, ApplicationTypeAPI.IsValid())
	assert.False(t, ApplicationType("desktop").IsValid())
	assert.Equal(t, "API/Service", ApplicationTypeAPI.Label())
	assert.Equal(t, "desktop", ApplicationType("desktop").Label())

	assert.True(t, EnvironmentStaging.IsValid())
	assert.False(t, Environment("qa").IsValid())

	assert.True(t, ResponseStatusNotApplicable.IsValid())
	assert.False(t, ResponseStatus("unknown").IsValid())

	assert.True(t, RemediationStatusWontFix.IsValid())
	assert.True(t, RemediationPriorityLow.IsValid())
	assert.False(t, RemediationPriority("urgent").IsValid())

	assert.True(t, EvidenceTypeCertificate.IsValid())
	assert.True(t, SeverityAdvisory.IsValid())
	assert.False(t, Severity("").IsValid())
	assert.True(t, ReportStatusArchived.IsValid())
}
