package models

import "slices"

// transitionTable lists, per state, the states it may move to.
// States missing from the table are terminal.
type transitionTable[S ~string] map[S][]S

func (t transitionTable[S]) allows(from, to S) bool {
	return slices.Contains(t[from], to)
}

func (t transitionTable[S]) check(entity string, from, to S) error {
	if !t.allows(from, to) {
		return &TransitionError{Entity: entity, From: string(from), To: string(to)}
	}
	return nil
}

var auditTransitions = transitionTable[AuditStatus]{
	AuditStatusPending:    {AuditStatusInProgress, AuditStatusOnHold},
	AuditStatusInProgress: {AuditStatusCompleted, AuditStatusOnHold},
	AuditStatusOnHold:     {AuditStatusInProgress},
}

var remediationTransitions = transitionTable[RemediationStatus]{
	RemediationStatusOpen:       {RemediationStatusInProgress, RemediationStatusResolved, RemediationStatusDeferred, RemediationStatusWontFix},
	RemediationStatusInProgress: {RemediationStatusOpen, RemediationStatusResolved, RemediationStatusDeferred, RemediationStatusWontFix},
	RemediationStatusDeferred:   {RemediationStatusOpen, RemediationStatusInProgress},
	RemediationStatusResolved:   {RemediationStatusOpen},
	RemediationStatusWontFix:    {RemediationStatusOpen},
}

var reportTransitions = transitionTable[ReportStatus]{
	ReportStatusDraft:     {ReportStatusGenerated},
	ReportStatusGenerated: {ReportStatusApproved, ReportStatusArchived},
	ReportStatusApproved:  {ReportStatusArchived},
}

func (s AuditStatus) CanTransitionTo(to AuditStatus) bool {
	return auditTransitions.allows(s, to)
}

func (s RemediationStatus) CanTransitionTo(to RemediationStatus) bool {
	return remediationTransitions.allows(s, to)
}

func (s ReportStatus) CanTransitionTo(to ReportStatus) bool {
	return reportTransitions.allows(s, to)
}

func checkAuditTransition(from, to AuditStatus) error {
	return auditTransitions.check("audit", from, to)
}

func checkRemediationTransition(from, to RemediationStatus) error {
	if from == to {
		return nil
	}
	return remediationTransitions.check("remediation", from, to)
}

func checkReportTransition(from, to ReportStatus) error {
	return reportTransitions.check("report", from, to)
}
