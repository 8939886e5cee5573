package models

import (
	"context"
	"strings"
	"time"

	"github.com/dpcompass/compass_backend/config"
	"github.com/dpcompass/compass_backend/utils"
	"gorm.io/gorm"
)

// Application is a system under assessment.
type Application struct {
	ID              int             `gorm:"primary_key" json:"id"`
	Name            string          `gorm:"size:255;not null;index" json:"name"`
	Description     string          `gorm:"type:text" json:"description"`
	ApplicationType ApplicationType `gorm:"size:20;not null;default:web" json:"application_type"`
	Environment     Environment     `gorm:"size:20;not null;default:production" json:"environment"`
	OwnerId         *int            `gorm:"index" json:"owner_id"`
	Owner           *User           `gorm:"foreignKey:OwnerId;constraint:OnDelete:SET NULL" json:"-"`
	Department      string          `gorm:"size:255" json:"department"`
	Url             string          `gorm:"size:200" json:"url"`
	Version         string          `gorm:"size:50" json:"version"`
	DataCategories  string          `gorm:"type:text" json:"data_categories"`
	IsActive        *bool           `gorm:"not null;default:true" json:"is_active"`
	CreatedAt       time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt       time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}

type NewApplication struct {
	Name            string          `json:"name" binding:"required,max=255"`
	Description     string          `json:"description" binding:"required"`
	ApplicationType ApplicationType `json:"application_type"`
	Environment     Environment     `json:"environment"`
	OwnerId         *int            `json:"owner_id"`
	Department      string          `json:"department" binding:"max=255"`
	Url             string          `json:"url" binding:"omitempty,url,max=200"`
	Version         string          `json:"version" binding:"max=50"`
	DataCategories  string          `json:"data_categories"`
	IsActive        *bool           `json:"is_active"`
}

// ApplicationDetail is an application with its recent assessment history.
type ApplicationDetail struct {
	Application  *Application       `json:"application"`
	RecentAudits []*Audit           `json:"recent_audits"`
	RecentScores []*ComplianceScore `json:"recent_scores"`
}

func (a Application) Label() string {
	return a.Name + " (" + a.ApplicationType.Label() + ")"
}

func (input *NewApplication) validate(ctx context.Context, user *User) error {
	if input.ApplicationType == "" {
		input.ApplicationType = ApplicationTypeWeb
	}
	if input.Environment == "" {
		input.Environment = EnvironmentProduction
	}
	if !input.ApplicationType.IsValid() {
		return newValidationError("application_type", "invalid application type")
	}
	if !input.Environment.IsValid() {
		return newValidationError("environment", "invalid environment")
	}
	// developers always own what they register
	if user.IsDeveloper() {
		input.OwnerId = &user.ID
	}
	if input.OwnerId != nil {
		if err := utils.ValidateResourceId[User](ctx, *input.OwnerId); err != nil {
			return newValidationError("owner_id", "owner does not exist")
		}
	}
	return nil
}

func CreateApplication(ctx context.Context, user *User, input *NewApplication) (*Application, error) {
	if _, err := Authorize(user, EntityApplication, ActionCreate); err != nil {
		return nil, err
	}
	if err := input.validate(ctx, user); err != nil {
		return nil, err
	}

	application := Application{
		Name:            strings.TrimSpace(input.Name),
		Description:     input.Description,
		ApplicationType: input.ApplicationType,
		Environment:     input.Environment,
		OwnerId:         input.OwnerId,
		Department:      input.Department,
		Url:             input.Url,
		Version:         input.Version,
		DataCategories:  input.DataCategories,
		IsActive:        utils.NewTrue(),
	}

	var activity *UserActivity
	db := config.GetDB()
	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&application).Error; err != nil {
			return err
		}
		var err error
		activity, err = recordActivity(ctx, tx, user, ActivityAppRegister, "Registered application "+application.Name,
			map[string]interface{}{"application_id": application.ID})
		return err
	})
	if err != nil {
		return nil, err
	}
	publishActivity(ctx, user, activity)
	return &application, nil
}

func UpdateApplication(ctx context.Context, user *User, id int, input *NewApplication) (*Application, error) {
	application, err := fetchAuthorized[Application](ctx, user, EntityApplication, ActionEdit, id)
	if err != nil {
		return nil, err
	}
	if user.IsDeveloper() {
		// ownership cannot be handed away by the owner
		input.OwnerId = application.OwnerId
	}
	if err := input.validate(ctx, user); err != nil {
		return nil, err
	}

	db := config.GetDB()
	err = db.WithContext(ctx).Model(application).Updates(map[string]interface{}{
		"name":             strings.TrimSpace(input.Name),
		"description":      input.Description,
		"application_type": input.ApplicationType,
		"environment":      input.Environment,
		"owner_id":         input.OwnerId,
		"department":       input.Department,
		"url":              input.Url,
		"version":          input.Version,
		"data_categories":  input.DataCategories,
		"is_active":        utils.DereferencePtr(input.IsActive, true),
	}).Error
	if err != nil {
		return nil, err
	}
	return utils.FetchModel[Application](ctx, id)
}

func GetApplication(ctx context.Context, user *User, id int) (*Application, error) {
	return fetchAuthorized[Application](ctx, user, EntityApplication, ActionView, id)
}

// GetApplicationDetail returns the application with its 10 latest audits and scores.
func GetApplicationDetail(ctx context.Context, user *User, id int) (*ApplicationDetail, error) {
	application, err := GetApplication(ctx, user, id)
	if err != nil {
		return nil, err
	}

	db := config.GetDB()
	var audits []*Audit
	if err := db.WithContext(ctx).
		Where("application_id = ?", id).
		Order("created_at DESC, id DESC").
		Limit(10).
		Find(&audits).Error; err != nil {
		return nil, err
	}
	var scores []*ComplianceScore
	if err := db.WithContext(ctx).
		Where("application_id = ?", id).
		Order("calculated_at DESC, id DESC").
		Limit(10).
		Find(&scores).Error; err != nil {
		return nil, err
	}

	return &ApplicationDetail{
		Application:  application,
		RecentAudits: audits,
		RecentScores: scores,
	}, nil
}

func ListApplications(ctx context.Context, user *User) ([]*Application, error) {
	return listAuthorized[Application](ctx, user, EntityApplication, nil, "name")
}
