package models

import (
	"context"
	"encoding/json"
	"time"

	"github.com/dpcompass/compass_backend/config"
	"github.com/dpcompass/compass_backend/utils"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type UserActivity struct {
	ID           int            `gorm:"primary_key" json:"id"`
	UserId       *int           `gorm:"index" json:"user_id"`
	ActivityType ActivityType   `gorm:"size:20;not null;index" json:"activity_type"`
	Description  string         `gorm:"type:text" json:"description"`
	IpAddress    string         `gorm:"size:45" json:"ip_address"`
	Details      datatypes.JSON `json:"details"`
	CreatedAt    time.Time      `gorm:"autoCreateTime" json:"created_at"`
}

// recordActivity writes an activity row through tx, so it commits or rolls back with the action it describes.
func recordActivity(ctx context.Context, tx *gorm.DB, user *User, activityType ActivityType, description string, details any) (*UserActivity, error) {
	activity := UserActivity{
		ActivityType: activityType,
		Description:  description,
	}
	if user != nil {
		activity.UserId = &user.ID
	}
	if ip, ok := utils.GetClientIPFromContext(ctx); ok {
		activity.IpAddress = ip
	}
	if details != nil {
		raw, err := json.Marshal(details)
		if err != nil {
			return nil, err
		}
		activity.Details = datatypes.JSON(raw)
	}
	if err := tx.Create(&activity).Error; err != nil {
		return nil, err
	}
	return &activity, nil
}

// publishActivity forwards a committed activity to Pub/Sub. Failures are logged only.
func publishActivity(ctx context.Context, user *User, activity *UserActivity) {
	if activity == nil {
		return
	}
	event := config.ActivityEvent{
		ID:           activity.ID,
		ActivityType: string(activity.ActivityType),
		Description:  activity.Description,
		Details:      json.RawMessage(activity.Details),
		OccurredAt:   activity.CreatedAt,
	}
	if user != nil {
		event.UserId = user.ID
		event.Username = user.Username
	}
	if correlationId, ok := utils.GetCorrelationIdFromContext(ctx); ok {
		event.CorrelationId = correlationId
	}
	if _, err := config.PublishActivity(ctx, event); err != nil {
		config.LogError(config.GetLogger(), "userActivity.go", "publishActivity", "PublishActivity", event, err)
	}
}

// ListActivities returns the latest activities of a user, newest first.
func ListActivities(ctx context.Context, user *User, limit int) ([]*UserActivity, error) {
	db := config.GetDB()
	var results []*UserActivity
	err := db.WithContext(ctx).
		Where("user_id = ?", user.ID).
		Order("created_at DESC, id DESC").
		Limit(limit).
		Find(&results).Error
	return results, err
}
