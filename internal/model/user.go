package model

import (
	"time"

	"gorm.io/gorm"
)

// User represents a user account within a tenant. The password column only
// ever holds a bcrypt hash; the plaintext is hashed at registration and
// never persisted. A user email is unique within its tenant.
type User struct {
	ID        uint           `json:"id" gorm:"primaryKey"`
	TenantID  uint           `json:"tenant_id" gorm:"uniqueIndex:idx_tenant_user_email;not null"`
	Email     string         `json:"email" gorm:"type:varchar(100);uniqueIndex:idx_tenant_user_email;not null"`
	Password  string         `json:"-" gorm:"type:varchar(255);not null"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"-" gorm:"index"`

	// Relations
	Tenant Tenant `json:"tenant,omitempty" gorm:"foreignKey:TenantID"`
}
