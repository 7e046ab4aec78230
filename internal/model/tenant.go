package model

import (
	"time"

	"gorm.io/gorm"
)

// Tenant represents an organization-level account boundary. All users and
// applications belong to exactly one tenant. OrgEmail is the unique key;
// duplicate detection rides on the database constraint.
type Tenant struct {
	ID        uint           `json:"id" gorm:"primaryKey"`
	OrgName   string         `json:"orgName" gorm:"type:varchar(100);not null"`
	OrgEmail  string         `json:"orgEmail" gorm:"type:varchar(100);uniqueIndex;not null"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"-" gorm:"index"`
}
