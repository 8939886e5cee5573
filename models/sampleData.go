package models

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dpcompass/compass_backend/config"
	"github.com/dpcompass/compass_backend/utils"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

var sampleUsers = []NewUser{
	{
		Username:     "admin",
		Name:         "System Administrator",
		Email:        "admin@dpcompass.local",
		Password:     "Admin@123",
		Role:         UserRoleAdmin,
		Organization: "DP-COMPASS",
	},
	{
		Username:     "auditor",
		Name:         "Priya Sharma",
		Email:        "auditor@dpcompass.local",
		Password:     "Auditor@123",
		Role:         UserRoleAuditor,
		Organization: "Compliance Team",
		Designation:  "Senior Compliance Auditor",
	},
	{
		Username:     "developer",
		Name:         "Rahul Kumar",
		Email:        "developer@dpcompass.local",
		Password:     "Developer@123",
		Role:         UserRoleDeveloper,
		Organization: "Engineering Team",
		Designation:  "Tech Lead",
	},
}

var sampleApplications = []Application{
	{
		Name:            "Customer Portal",
		Description:     "Main customer-facing web portal for account management, transactions, and support.",
		ApplicationType: ApplicationTypeWeb,
		Environment:     EnvironmentProduction,
		Department:      "Digital Services",
		Url:             "https://portal.example.com",
		Version:         "3.2.1",
		DataCategories:  "Customer PII (name, email, phone), Financial data, Transaction history, Support tickets",
	},
	{
		Name:            "Mobile Banking App",
		Description:     "iOS and Android mobile banking application with biometric authentication.",
		ApplicationType: ApplicationTypeMobile,
		Environment:     EnvironmentProduction,
		Department:      "Mobile Development",
		Version:         "2.5.0",
		DataCategories:  "Customer PII, Biometric data, Location data, Device identifiers, Transaction data",
	},
	{
		Name:            "HR Management System",
		Description:     "Internal HR system for employee data, payroll, and performance management.",
		ApplicationType: ApplicationTypeWeb,
		Environment:     EnvironmentProduction,
		Department:      "Human Resources",
		Version:         "1.8.3",
		DataCategories:  "Employee PII, Salary data, Performance reviews, Medical records",
	},
}

// statuses cycled over the responses of the completed sample audit
var sampleResponseCycle = []ResponseStatus{
	ResponseStatusCompliant,
	ResponseStatusCompliant,
	ResponseStatusNonCompliant,
	ResponseStatusPartiallyCompliant,
	ResponseStatusCompliant,
}

type SampleDataResult struct {
	UsersCreated        []string
	ApplicationsCreated []string
	AuditsCreated       []string
}

// LoadSampleData creates the demo accounts, applications and two audits. Existing records are kept.
// The checklist should be loaded first, otherwise the audits have no responses.
func LoadSampleData(ctx context.Context) (*SampleDataResult, error) {
	var result SampleDataResult
	users := make(map[UserRole]*User, len(sampleUsers))

	for _, seed := range sampleUsers {
		input := seed
		user, created, err := getOrCreateUser(ctx, &input)
		if err != nil {
			return nil, fmt.Errorf("sample user %s: %w", seed.Username, err)
		}
		if created {
			result.UsersCreated = append(result.UsersCreated, user.Username)
		}
		users[seed.Role] = user
	}
	developer := users[UserRoleDeveloper]
	auditor := users[UserRoleAuditor]

	db := config.GetDB()
	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		applications := make([]*Application, 0, len(sampleApplications))
		for _, seed := range sampleApplications {
			application := seed
			err := tx.Where("name = ?", seed.Name).Take(&application).Error
			if errors.Is(err, gorm.ErrRecordNotFound) {
				application.OwnerId = &developer.ID
				application.IsActive = utils.NewTrue()
				if err := tx.Create(&application).Error; err != nil {
					return err
				}
				result.ApplicationsCreated = append(result.ApplicationsCreated, application.Name)
			} else if err != nil {
				return err
			}
			applications = append(applications, &application)
		}

		today := time.Now().Truncate(24 * time.Hour)
		pending := Audit{
			ApplicationId: applications[0].ID,
			AuditorId:     &auditor.ID,
			Title:         "Q1 2026 Compliance Audit - Customer Portal",
			Description:   "Quarterly DPDP compliance assessment for Customer Portal",
			Status:        AuditStatusPending,
			ScheduledDate: &today,
		}
		created, err := seedAudit(tx, &pending, nil, nil)
		if err != nil {
			return err
		}
		if created {
			result.AuditsCreated = append(result.AuditsCreated, pending.Title)
		}

		now := time.Now()
		completed := Audit{
			ApplicationId: applications[2].ID,
			AuditorId:     &auditor.ID,
			Title:         "Initial Assessment - HR Management System",
			Description:   "Initial DPDP compliance baseline assessment",
			Status:        AuditStatusCompleted,
			ScheduledDate: &today,
			StartedAt:     &now,
			CompletedAt:   &now,
		}
		created, err = seedAudit(tx, &completed, sampleResponseCycle, auditor)
		if err != nil {
			return err
		}
		if created {
			result.AuditsCreated = append(result.AuditsCreated, completed.Title)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	config.GetLogger().WithFields(logrus.Fields{
		"users":        result.UsersCreated,
		"applications": result.ApplicationsCreated,
		"audits":       result.AuditsCreated,
	}).Info("[sample.load]")
	return &result, nil
}

// seedAudit creates the audit and its responses unless an audit with the same title exists for the application.
// With a status cycle the responses are filled in as reviewed by reviewer.
func seedAudit(tx *gorm.DB, audit *Audit, cycle []ResponseStatus, reviewer *User) (bool, error) {
	var existing Audit
	err := tx.Where("title = ? AND application_id = ?", audit.Title, audit.ApplicationId).Take(&existing).Error
	if err == nil {
		*audit = existing
		return false, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return false, err
	}

	if err := tx.Create(audit).Error; err != nil {
		return false, err
	}
	items, err := activeChecklistItems(tx)
	if err != nil {
		return false, err
	}
	now := time.Now()
	responses := make([]*AuditResponse, 0, len(items))
	for i, item := range items {
		response := newPendingResponse(audit.ID, item)
		if len(cycle) > 0 {
			response.Status = cycle[i%len(cycle)]
			response.Findings = "Assessment findings for " + item.Code
			response.ReviewedById = &reviewer.ID
			response.ReviewedAt = &now
		}
		responses = append(responses, response)
	}
	if len(responses) > 0 {
		if err := tx.CreateInBatches(responses, 100).Error; err != nil {
			return false, err
		}
	}
	return true, nil
}

func getOrCreateUser(ctx context.Context, input *NewUser) (*User, bool, error) {
	db := config.GetDB()
	var user User
	err := db.WithContext(ctx).Where("username = ?", input.Username).Take(&user).Error
	if err == nil {
		return &user, false, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, false, err
	}
	created, err := CreateUser(ctx, input)
	if err != nil {
		return nil, false, err
	}
	return created, true, nil
}

// SeedAdmin creates an administrator, or promotes and resets the password of an existing account.
func SeedAdmin(ctx context.Context, username string, password string) (*User, bool, error) {
	user, created, err := getOrCreateUser(ctx, &NewUser{
		Username: username,
		Name:     "System Administrator",
		Password: password,
		Role:     UserRoleAdmin,
	})
	if err != nil || created {
		return user, created, err
	}

	db := config.GetDB()
	if err := db.WithContext(ctx).Model(user).Updates(map[string]interface{}{
		"role":        UserRoleAdmin,
		"is_verified": true,
		"is_active":   true,
	}).Error; err != nil {
		return nil, false, err
	}
	if err := user.SetPassword(ctx, password); err != nil {
		return nil, false, err
	}
	return user, false, nil
}
