package models

import (
	"time"
)

// Section is one section of the regulation the checklist is derived from.
type Section struct {
	ID            int       `gorm:"primary_key" json:"id"`
	SectionNumber string    `gorm:"size:10;not null;unique" json:"section_number"`
	Title         string    `gorm:"size:255;not null" json:"title"`
	Description   string    `gorm:"type:text" json:"description"`
	IsActive      *bool     `gorm:"not null;default:true" json:"is_active"`
	CreatedAt     time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt     time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (s Section) Label() string {
	return "Section " + s.SectionNumber + ": " + s.Title
}
