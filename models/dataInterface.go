package models

import (
	"time"

	"github.com/dpcompass/compass_backend/utils"
)

type Identifier interface {
	GetId() int
}

// interface for dataloader result
type Data interface {
	Identifier
	GetDefault(int) Data
}

func (u User) GetId() int {
	return u.ID
}

func (u User) GetDefault(id int) Data {
	return User{
		ID:         id,
		Role:       UserRoleDeveloper,
		IsActive:   utils.NewFalse(),
		IsVerified: utils.NewFalse(),
		CreatedAt:  time.Now(),
		UpdatedAt:  time.Now(),
	}
}

func (a Application) GetId() int {
	return a.ID
}

func (a Application) GetDefault(id int) Data {
	return Application{
		ID:              id,
		ApplicationType: ApplicationTypeWeb,
		Environment:     EnvironmentProduction,
		IsActive:        utils.NewFalse(),
		CreatedAt:       time.Now(),
		UpdatedAt:       time.Now(),
	}
}

func (a Audit) GetId() int {
	return a.ID
}

func (a Audit) GetDefault(id int) Data {
	return Audit{
		ID:        id,
		Status:    AuditStatusPending,
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}
}
