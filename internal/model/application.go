package model

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"gorm.io/gorm"
)

// Application runtimes supported by the platform.
const (
	RuntimePHP    = "php"
	RuntimeNodeJS = "nodejs"
	RuntimeDotNet = "dotnet"
)

// Application lifecycle states. There are exactly two observable states;
// no transitional state is ever persisted or exposed.
const (
	StatusRunning = "running"
	StatusStopped = "stopped"
)

// SSL states shown in the dashboard.
const (
	SSLActive   = "active"
	SSLInactive = "inactive"
)

// ValidRuntime reports whether runtime is one of the supported values.
func ValidRuntime(runtime string) bool {
	switch runtime {
	case RuntimePHP, RuntimeNodeJS, RuntimeDotNet:
		return true
	}
	return false
}

// ValidStatus reports whether status is a legal lifecycle state.
func ValidStatus(status string) bool {
	return status == StatusRunning || status == StatusStopped
}

// RouteList is an ordered sequence of route strings stored as jsonb.
type RouteList []string

// Value implements driver.Valuer for jsonb storage.
func (r RouteList) Value() (driver.Value, error) {
	if r == nil {
		r = RouteList{}
	}
	return json.Marshal(r)
}

// Scan implements sql.Scanner for jsonb retrieval.
func (r *RouteList) Scan(value interface{}) error {
	if value == nil {
		*r = RouteList{}
		return nil
	}
	switch v := value.(type) {
	case []byte:
		return json.Unmarshal(v, r)
	case string:
		return json.Unmarshal([]byte(v), r)
	}
	return fmt.Errorf("unsupported type for RouteList: %T", value)
}

// Application represents a deployable unit owned by a user within a tenant.
// The ID is the globally unique appId the dashboard addresses apps by.
type Application struct {
	ID          uint           `json:"appId" gorm:"primaryKey"`
	TenantID    uint           `json:"tenantId" gorm:"index;not null"`
	OwnerUserID uint           `json:"ownerUserId" gorm:"not null"`
	Name        string         `json:"name" gorm:"type:varchar(100);not null"`
	Runtime     string         `json:"runtime" gorm:"type:varchar(20);not null"`
	Status      string         `json:"status" gorm:"type:varchar(20);not null;default:'stopped'"`
	SSLStatus   string         `json:"sslStatus" gorm:"type:varchar(20);not null;default:'inactive'"`
	Routes      RouteList      `json:"routes" gorm:"type:jsonb"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	DeletedAt   gorm.DeletedAt `json:"-" gorm:"index"`
}

// URL returns the deterministic public path for the application, derived
// from its appId. The path is reachable while the app is running.
func (a *Application) URL(domain string) string {
	return fmt.Sprintf("https://%s/apps/%d/", domain, a.ID)
}
