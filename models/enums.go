package models

import (
	"errors"
	"slices"
)

func isOneOf[T ~string](v T, values []T) bool {
	return slices.Contains(values, v)
}

type UserRole string

const (
	UserRoleAdmin     UserRole = "admin"
	UserRoleAuditor   UserRole = "auditor"
	UserRoleDeveloper UserRole = "developer"
)

var UserRoles = []UserRole{UserRoleAdmin, UserRoleAuditor, UserRoleDeveloper}

func (r UserRole) IsValid() bool { return isOneOf(r, UserRoles) }

func (r UserRole) Label() string {
	switch r {
	case UserRoleAdmin:
		return "Administrator"
	case UserRoleAuditor:
		return "Auditor"
	case UserRoleDeveloper:
		return "Developer/Application Owner"
	}
	return string(r)
}

func ParseUserRole(s string) (UserRole, error) {
	r := UserRole(s)
	if !r.IsValid() {
		return "", errors.New("invalid user role")
	}
	return r, nil
}

type ActivityType string

const (
	ActivityLogin          ActivityType = "login"
	ActivityLogout         ActivityType = "logout"
	ActivityAuditCreate    ActivityType = "audit_create"
	ActivityAuditComplete  ActivityType = "audit_complete"
	ActivityReportGenerate ActivityType = "report_generate"
	ActivityAppRegister    ActivityType = "app_register"
)

type Severity string

const (
	SeverityCritical Severity = "critical"
	SeverityMajor    Severity = "major"
	SeverityMinor    Severity = "minor"
	SeverityAdvisory Severity = "advisory"
)

var Severities = []Severity{SeverityCritical, SeverityMajor, SeverityMinor, SeverityAdvisory}

func (s Severity) IsValid() bool { return isOneOf(s, Severities) }

type AuditStatus string

const (
	AuditStatusPending    AuditStatus = "pending"
	AuditStatusInProgress AuditStatus = "in_progress"
	AuditStatusCompleted  AuditStatus = "completed"
	AuditStatusOnHold     AuditStatus = "on_hold"
)

var AuditStatuses = []AuditStatus{AuditStatusPending, AuditStatusInProgress, AuditStatusCompleted, AuditStatusOnHold}

func (s AuditStatus) IsValid() bool { return isOneOf(s, AuditStatuses) }

type ResponseStatus string

const (
	ResponseStatusPending            ResponseStatus = "pending"
	ResponseStatusCompliant          ResponseStatus = "compliant"
	ResponseStatusNonCompliant       ResponseStatus = "non_compliant"
	ResponseStatusPartiallyCompliant ResponseStatus = "partially_compliant"
	ResponseStatusNotApplicable      ResponseStatus = "not_applicable"
)

var ResponseStatuses = []ResponseStatus{
	ResponseStatusPending,
	ResponseStatusCompliant,
	ResponseStatusNonCompliant,
	ResponseStatusPartiallyCompliant,
	ResponseStatusNotApplicable,
}

func (s ResponseStatus) IsValid() bool { return isOneOf(s, ResponseStatuses) }

type ApplicationType string

const (
	ApplicationTypeWeb            ApplicationType = "web"
	ApplicationTypeMobile         ApplicationType = "mobile"
	ApplicationTypeAPI            ApplicationType = "api"
	ApplicationTypeDatabase       ApplicationType = "database"
	ApplicationTypeInfrastructure ApplicationType = "infrastructure"
	ApplicationTypeOther          ApplicationType = "other"
)

var ApplicationTypes = []ApplicationType{
	ApplicationTypeWeb,
	ApplicationTypeMobile,
	ApplicationTypeAPI,
	ApplicationTypeDatabase,
	ApplicationTypeInfrastructure,
	ApplicationTypeOther,
}

func (t ApplicationType) IsValid() bool { return isOneOf(t, ApplicationTypes) }

var applicationTypeLabels = map[ApplicationType]string{
	ApplicationTypeWeb:            "Web Application",
	ApplicationTypeMobile:         "Mobile Application",
	ApplicationTypeAPI:            "API/Service",
	ApplicationTypeDatabase:       "Database",
	ApplicationTypeInfrastructure: "Infrastructure",
	ApplicationTypeOther:          "Other",
}

func (t ApplicationType) Label() string {
	if label, ok := applicationTypeLabels[t]; ok {
		return label
	}
	return string(t)
}

type Environment string

const (
	EnvironmentProduction  Environment = "production"
	EnvironmentStaging     Environment = "staging"
	EnvironmentDevelopment Environment = "development"
	EnvironmentTesting     Environment = "testing"
)

var Environments = []Environment{EnvironmentProduction, EnvironmentStaging, EnvironmentDevelopment, EnvironmentTesting}

func (e Environment) IsValid() bool { return isOneOf(e, Environments) }

type RemediationStatus string

const (
	RemediationStatusOpen       RemediationStatus = "open"
	RemediationStatusInProgress RemediationStatus = "in_progress"
	RemediationStatusResolved   RemediationStatus = "resolved"
	RemediationStatusDeferred   RemediationStatus = "deferred"
	RemediationStatusWontFix    RemediationStatus = "wont_fix"
)

var RemediationStatuses = []RemediationStatus{
	RemediationStatusOpen,
	RemediationStatusInProgress,
	RemediationStatusResolved,
	RemediationStatusDeferred,
	RemediationStatusWontFix,
}

func (s RemediationStatus) IsValid() bool { return isOneOf(s, RemediationStatuses) }

type RemediationPriority string

const (
	RemediationPriorityCritical RemediationPriority = "critical"
	RemediationPriorityHigh     RemediationPriority = "high"
	RemediationPriorityMedium   RemediationPriority = "medium"
	RemediationPriorityLow      RemediationPriority = "low"
)

var RemediationPriorities = []RemediationPriority{
	RemediationPriorityCritical,
	RemediationPriorityHigh,
	RemediationPriorityMedium,
	RemediationPriorityLow,
}

func (p RemediationPriority) IsValid() bool { return isOneOf(p, RemediationPriorities) }

type EvidenceType string

const (
	EvidenceTypeDocument    EvidenceType = "document"
	EvidenceTypeScreenshot  EvidenceType = "screenshot"
	EvidenceTypePolicy      EvidenceType = "policy"
	EvidenceTypeLog         EvidenceType = "log"
	EvidenceTypeCertificate EvidenceType = "certificate"
	EvidenceTypeOther       EvidenceType = "other"
)

var EvidenceTypes = []EvidenceType{
	EvidenceTypeDocument,
	EvidenceTypeScreenshot,
	EvidenceTypePolicy,
	EvidenceTypeLog,
	EvidenceTypeCertificate,
	EvidenceTypeOther,
}

func (t EvidenceType) IsValid() bool { return isOneOf(t, EvidenceTypes) }

type ReportStatus string

const (
	ReportStatusDraft     ReportStatus = "draft"
	ReportStatusGenerated ReportStatus = "generated"
	ReportStatusApproved  ReportStatus = "approved"
	ReportStatusArchived  ReportStatus = "archived"
)

var ReportStatuses = []ReportStatus{ReportStatusDraft, ReportStatusGenerated, ReportStatusApproved, ReportStatusArchived}

func (s ReportStatus) IsValid() bool { return isOneOf(s, ReportStatuses) }
