package models

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAuditTransitions(t *testing.T) {
	cases := []struct {
		from, to AuditStatus
		ok       bool
	}{
		{AuditStatusPending, AuditStatusInProgress, true},
		{AuditStatusPending, AuditStatusOnHold, true},
		{AuditStatusPending, AuditStatusCompleted, false},
		{AuditStatusInProgress, AuditStatusCompleted, true},
		{AuditStatusInProgress, AuditStatusOnHold, true},
		{AuditStatusInProgress, AuditStatusPending, false},
		{AuditStatusOnHold, AuditStatusInProgress, true},
		{AuditStatusOnHold, AuditStatusCompleted, false},
		{AuditStatusCompleted, AuditStatusInProgress, false},
		{AuditStatusCompleted, AuditStatusOnHold, false},
	}
	for _, c := range cases {
		assert.Equal(t, c.ok, c.from.CanTransitionTo(c.to), "%s -> %s", c.from, c.to)
	}
}

func TestReportTransitions(t *testing.T) {
	assert.True(t, ReportStatusDraft.CanTransitionTo(ReportStatusGenerated))
	assert.True(t, ReportStatusGenerated.CanTransitionTo(ReportStatusApproved))
	assert.True(t, ReportStatusGenerated.CanTransitionTo(ReportStatusArchived))
	assert.True(t, ReportStatusApproved.CanTransitionTo(ReportStatusArchived))

	assert.False(t, ReportStatusDraft.CanTransitionTo(ReportStatusApproved))
	assert.False(t, ReportStatusApproved.CanTransitionTo(ReportStatusGenerated))
	assert.False(t, ReportStatusArchived.CanTransitionTo(ReportStatusApproved))
	assert.False(t, ReportStatusArchived.CanTransitionTo(ReportStatusGenerated))
}

func TestRemediationTransitions(t *testing.T) {
	assert.NoError(t, checkRemediationTransition(RemediationStatusOpen, RemediationStatusOpen))
	assert.NoError(t, checkRemediationTransition(RemediationStatusOpen, RemediationStatusResolved))
	assert.NoError(t, checkRemediationTransition(RemediationStatusResolved, RemediationStatusOpen))
	assert.NoError(t, checkRemediationTransition(RemediationStatusDeferred, RemediationStatusInProgress))

	assert.Error(t, checkRemediationTransition(RemediationStatusResolved, RemediationStatusInProgress))
	assert.Error(t, checkRemediationTransition(RemediationStatusWontFix, RemediationStatusResolved))
}

func TestTransitionErrorUnwraps(t *testing.T) {
	err := checkAuditTransition(AuditStatusCompleted, AuditStatusInProgress)
	require.Error(t, err)

	assert.True(t, errors.Is(err, ErrInvalidTransition))
	var te *TransitionError
	require.True(t, errors.As(err, &te))
	assert.Equal(t, "audit", te.Entity)
	assert.Equal(t, "audit cannot move from completed to in_progress", err.Error())

	assert.NoError(t, checkReportTransition(ReportStatusGenerated, ReportStatusApproved))
	assert.ErrorIs(t, checkReportTransition(ReportStatusApproved, ReportStatusApproved), ErrInvalidTransition)
}
