package model

import (
	"time"

	"gorm.io/gorm"
)

// Client represents an external client of a tenant. PortalToken is an
// unguessable capability credential generated once at creation and never
// rotated: possession grants anonymous read access to the client's
// portal-enabled projects.
type Client struct {
	ID          uint           `json:"id" gorm:"primaryKey"`
	TenantID    uint           `json:"tenant_id" gorm:"index;not null"`
	Name        string         `json:"name" gorm:"type:varchar(100);not null"`
	Email       string         `json:"email" gorm:"type:varchar(100);not null"`
	Company     string         `json:"company,omitempty" gorm:"type:varchar(100)"`
	Phone       string         `json:"phone,omitempty" gorm:"type:varchar(50)"`
	PortalToken string         `json:"portal_token" gorm:"type:varchar(64);uniqueIndex;not null"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	DeletedAt   gorm.DeletedAt `json:"-" gorm:"index"`

	// Relations
	Projects []Project `json:"projects,omitempty" gorm:"foreignKey:ClientID"`
}
