package models

import (
	"time"

	"gorm.io/gorm"
)

// Project is a named collaboration unit. Names are stored lowercased and
// trimmed; uniqueness is global, not per-user.
type Project struct {
	ID          uint            `gorm:"primaryKey" json:"id"`
	Name        string          `gorm:"uniqueIndex;size:50;not null" json:"name"`
	Description string          `gorm:"size:500" json:"description"`
	CreatedBy   uint            `json:"created_by"`
	Members     []ProjectMember `gorm:"foreignKey:ProjectID" json:"members,omitempty"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
	DeletedAt   gorm.DeletedAt  `gorm:"index" json:"-"`
}

func (Project) TableName() string { return "projects" }
