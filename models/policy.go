package models

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/dpcompass/compass_backend/config"
	"github.com/dpcompass/compass_backend/utils"
	"gorm.io/gorm"
)

// Scope narrows a query to the rows a user may see. A nil Scope means unrestricted.
type Scope func(*gorm.DB) *gorm.DB

type Entity string

const (
	EntityApplication Entity = "application"
	EntityAudit       Entity = "audit"
	EntityRemediation Entity = "remediation"
	EntityEvidence    Entity = "evidence"
	EntityReport      Entity = "report"
	EntityScore       Entity = "compliance_score"
	EntityUser        Entity = "user"
	EntityChecklist   Entity = "checklist"
)

type Action string

const (
	ActionList     Action = "list"
	ActionView     Action = "view"
	ActionCreate   Action = "create"
	ActionEdit     Action = "edit"
	ActionExecute  Action = "execute"
	ActionHold     Action = "hold"
	ActionGenerate Action = "generate"
	ActionApprove  Action = "approve"
	ActionArchive  Action = "archive"
	ActionRecord   Action = "record"
)

type policyKey struct {
	entity Entity
	action Action
}

// scopeFor builds the row restriction for one role. Roles missing from a rule are denied outright.
type scopeFor func(user *User) Scope

type policyRule struct {
	roles    map[UserRole]scopeFor
	message  string
	redirect string // %d is replaced by the record id when present
}

func everything(*User) Scope { return nil }

func applicationOwnedBy(user *User) Scope {
	return func(tx *gorm.DB) *gorm.DB {
		return tx.Where("applications.owner_id = ?", user.ID)
	}
}

func ownedApplicationIds(tx *gorm.DB, userId int) *gorm.DB {
	return tx.Session(&gorm.Session{NewDB: true}).
		Table("applications").Select("id").Where("owner_id = ?", userId)
}

func auditAssignedTo(user *User) Scope {
	return func(tx *gorm.DB) *gorm.DB {
		return tx.Where("audits.auditor_id = ?", user.ID)
	}
}

func auditOfOwnedApplication(user *User) Scope {
	return func(tx *gorm.DB) *gorm.DB {
		return tx.Where("audits.application_id IN (?)", ownedApplicationIds(tx, user.ID))
	}
}

func auditAssignedOrOwned(user *User) Scope {
	return func(tx *gorm.DB) *gorm.DB {
		return tx.Where("audits.auditor_id = ? OR audits.application_id IN (?)", user.ID, ownedApplicationIds(tx, user.ID))
	}
}

func remediationAssignedOrOwned(user *User) Scope {
	return func(tx *gorm.DB) *gorm.DB {
		owned := tx.Session(&gorm.Session{NewDB: true}).
			Table("audit_responses").
			Select("audit_responses.id").
			Joins("JOIN audits ON audits.id = audit_responses.audit_id").
			Joins("JOIN applications ON applications.id = audits.application_id").
			Where("applications.owner_id = ?", user.ID)
		return tx.Where("remediations.assigned_to_id = ? OR remediations.audit_response_id IN (?)", user.ID, owned)
	}
}

func reportGeneratedBy(user *User) Scope {
	return func(tx *gorm.DB) *gorm.DB {
		return tx.Where("compliance_reports.generated_by_id = ?", user.ID)
	}
}

func reportOfOwnedApplication(user *User) Scope {
	return func(tx *gorm.DB) *gorm.DB {
		owned := tx.Session(&gorm.Session{NewDB: true}).
			Table("audits").
			Select("audits.id").
			Joins("JOIN applications ON applications.id = audits.application_id").
			Where("applications.owner_id = ?", user.ID)
		return tx.Where("compliance_reports.audit_id IN (?)", owned)
	}
}

const accessDenied = "Access denied."

// Scopes for generate, record and remediation create apply to the audit the new row hangs off.
// Evidence follows audit visibility and is scoped on audits as well.
var policies = map[policyKey]policyRule{
	{EntityApplication, ActionList}: {
		roles:    map[UserRole]scopeFor{UserRoleAdmin: everything, UserRoleAuditor: everything, UserRoleDeveloper: applicationOwnedBy},
		message:  accessDenied,
		redirect: "/applications/",
	},
	{EntityApplication, ActionView}: {
		roles:    map[UserRole]scopeFor{UserRoleAdmin: everything, UserRoleAuditor: everything, UserRoleDeveloper: applicationOwnedBy},
		message:  accessDenied,
		redirect: "/applications/",
	},
	{EntityApplication, ActionEdit}: {
		roles:    map[UserRole]scopeFor{UserRoleAdmin: everything, UserRoleAuditor: everything, UserRoleDeveloper: applicationOwnedBy},
		message:  accessDenied,
		redirect: "/applications/",
	},
	{EntityApplication, ActionCreate}: {
		roles:    map[UserRole]scopeFor{UserRoleAdmin: everything, UserRoleAuditor: everything, UserRoleDeveloper: everything},
		message:  accessDenied,
		redirect: "/applications/",
	},
	{EntityAudit, ActionList}: {
		roles:    map[UserRole]scopeFor{UserRoleAdmin: everything, UserRoleAuditor: auditAssignedTo, UserRoleDeveloper: auditOfOwnedApplication},
		message:  accessDenied,
		redirect: "/audits/",
	},
	{EntityAudit, ActionView}: {
		roles:    map[UserRole]scopeFor{UserRoleAdmin: everything, UserRoleAuditor: auditAssignedOrOwned, UserRoleDeveloper: auditAssignedOrOwned},
		message:  accessDenied,
		redirect: "/audits/",
	},
	{EntityAudit, ActionCreate}: {
		roles:    map[UserRole]scopeFor{UserRoleAdmin: everything, UserRoleAuditor: everything},
		message:  "Only auditors can create audits.",
		redirect: "/dashboard/",
	},
	{EntityAudit, ActionExecute}: {
		roles:    map[UserRole]scopeFor{UserRoleAdmin: everything, UserRoleAuditor: auditAssignedTo, UserRoleDeveloper: auditAssignedTo},
		message:  "Only the assigned auditor can execute this audit.",
		redirect: "/audits/%d/",
	},
	{EntityAudit, ActionHold}: {
		roles:    map[UserRole]scopeFor{UserRoleAdmin: everything},
		message:  "Only administrators can hold or resume audits.",
		redirect: "/audits/%d/",
	},
	{EntityEvidence, ActionView}: {
		roles:    map[UserRole]scopeFor{UserRoleAdmin: everything, UserRoleAuditor: auditAssignedOrOwned, UserRoleDeveloper: auditAssignedOrOwned},
		message:  accessDenied,
		redirect: "/audits/",
	},
	{EntityEvidence, ActionCreate}: {
		roles:    map[UserRole]scopeFor{UserRoleAdmin: everything, UserRoleAuditor: auditAssignedOrOwned, UserRoleDeveloper: auditAssignedOrOwned},
		message:  accessDenied,
		redirect: "/audits/",
	},
	{EntityRemediation, ActionList}: {
		roles:    map[UserRole]scopeFor{UserRoleAdmin: everything, UserRoleAuditor: everything, UserRoleDeveloper: remediationAssignedOrOwned},
		message:  accessDenied,
		redirect: "/remediations/",
	},
	{EntityRemediation, ActionView}: {
		roles:    map[UserRole]scopeFor{UserRoleAdmin: everything, UserRoleAuditor: everything, UserRoleDeveloper: remediationAssignedOrOwned},
		message:  accessDenied,
		redirect: "/remediations/",
	},
	{EntityRemediation, ActionEdit}: {
		roles:    map[UserRole]scopeFor{UserRoleAdmin: everything, UserRoleAuditor: everything, UserRoleDeveloper: remediationAssignedOrOwned},
		message:  accessDenied,
		redirect: "/remediations/",
	},
	{EntityRemediation, ActionCreate}: {
		roles:    map[UserRole]scopeFor{UserRoleAdmin: everything, UserRoleAuditor: auditAssignedTo},
		message:  "Only the assigned auditor can raise remediations for this audit.",
		redirect: "/remediations/",
	},
	{EntityReport, ActionList}: {
		roles:    map[UserRole]scopeFor{UserRoleAdmin: everything, UserRoleAuditor: reportGeneratedBy, UserRoleDeveloper: reportOfOwnedApplication},
		message:  accessDenied,
		redirect: "/reports/",
	},
	{EntityReport, ActionView}: {
		roles:    map[UserRole]scopeFor{UserRoleAdmin: everything, UserRoleAuditor: reportGeneratedBy, UserRoleDeveloper: reportOfOwnedApplication},
		message:  accessDenied,
		redirect: "/reports/",
	},
	{EntityReport, ActionGenerate}: {
		roles:    map[UserRole]scopeFor{UserRoleAdmin: everything, UserRoleAuditor: auditAssignedTo},
		message:  "Only the assigned auditor can generate a report for this audit.",
		redirect: "/audits/%d/",
	},
	{EntityReport, ActionApprove}: {
		roles:    map[UserRole]scopeFor{UserRoleAdmin: everything},
		message:  "Only administrators can approve reports.",
		redirect: "/reports/%d/",
	},
	{EntityReport, ActionArchive}: {
		roles:    map[UserRole]scopeFor{UserRoleAdmin: everything},
		message:  "Only administrators can archive reports.",
		redirect: "/reports/%d/",
	},
	{EntityScore, ActionRecord}: {
		roles:    map[UserRole]scopeFor{UserRoleAdmin: everything, UserRoleAuditor: auditAssignedTo},
		message:  "Only the assigned auditor can record a compliance score.",
		redirect: "/audits/%d/",
	},
	{EntityUser, ActionList}: {
		roles:    map[UserRole]scopeFor{UserRoleAdmin: everything},
		message:  "Access denied. Administrator privileges required.",
		redirect: "/dashboard/",
	},
	{EntityChecklist, ActionList}: {
		roles: map[UserRole]scopeFor{UserRoleAdmin: everything, UserRoleAuditor: everything, UserRoleDeveloper: everything},
	},
	{EntityChecklist, ActionEdit}: {
		roles:    map[UserRole]scopeFor{UserRoleAdmin: everything},
		message:  "Access denied. Administrator privileges required.",
		redirect: "/audits/checklist/",
	},
}

// Authorize decides whether user may perform action on entity.
// It returns the row scope to apply, or an *AccessDeniedError.
func Authorize(user *User, entity Entity, action Action) (Scope, error) {
	rule, ok := policies[policyKey{entity, action}]
	if !ok {
		return nil, denied(accessDenied, "/dashboard/")
	}
	if user == nil || user.IsActive == nil || !*user.IsActive {
		return nil, denied(accessDenied, "/login/")
	}
	build, ok := rule.roles[user.Role]
	if !ok {
		return nil, rule.deny(0)
	}
	return build(user), nil
}

func (r policyRule) deny(id int) error {
	redirect := r.redirect
	if strings.Contains(redirect, "%d") {
		if id > 0 {
			redirect = fmt.Sprintf(redirect, id)
		} else {
			redirect = redirect[:strings.Index(redirect, "%d")]
		}
	}
	return denied(r.message, redirect)
}

// denialFor is the error returned when a record exists but the scope filtered it out.
func denialFor(entity Entity, action Action, id int) error {
	rule, ok := policies[policyKey{entity, action}]
	if !ok {
		return denied(accessDenied, "/dashboard/")
	}
	return rule.deny(id)
}

// fetchAuthorized loads a single record for user. Missing records are ErrorRecordNotFound,
// records outside the user's scope are access denied.
func fetchAuthorized[T any](ctx context.Context, user *User, entity Entity, action Action, id int, associations ...string) (*T, error) {
	if err := utils.ValidateResourceId[T](ctx, id); err != nil {
		return nil, err
	}
	scope, err := Authorize(user, entity, action)
	if err != nil {
		var ad *AccessDeniedError
		if errors.As(err, &ad) && ad.Redirect != "/login/" {
			return nil, denialFor(entity, action, id)
		}
		return nil, err
	}
	result, err := utils.FetchScopedModel[T](ctx, id, scope, associations...)
	if errors.Is(err, utils.ErrorRecordNotFound) {
		return nil, denialFor(entity, action, id)
	}
	return result, err
}

// listAuthorized returns every record of T visible to user.
func listAuthorized[T any](ctx context.Context, user *User, entity Entity, filter Scope, order string, associations ...string) ([]*T, error) {
	scope, err := Authorize(user, entity, ActionList)
	if err != nil {
		return nil, err
	}
	results, err := utils.FetchScopedModels[T](ctx, func(tx *gorm.DB) *gorm.DB {
		if scope != nil {
			tx = scope(tx)
		}
		if filter != nil {
			tx = filter(tx)
		}
		return tx
	}, order, associations...)
	if err != nil {
		config.LogError(config.GetLogger(), "policy.go", "listAuthorized", string(entity), user.ID, err)
		return nil, err
	}
	return results, nil
}
