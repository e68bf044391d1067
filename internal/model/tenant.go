package model

import (
	"time"

	"gorm.io/gorm"
)

// Tenant represents an organization account, the unit of data isolation.
// Every client, project and subscription hangs off exactly one tenant.
type Tenant struct {
	ID                 uint           `json:"id" gorm:"primaryKey"`
	Name               string         `json:"name" gorm:"type:varchar(100);not null"`
	Slug               string         `json:"slug" gorm:"type:varchar(120);uniqueIndex;not null"`
	ProviderCustomerID string         `json:"provider_customer_id,omitempty" gorm:"type:varchar(100);index"`
	CreatedAt          time.Time      `json:"created_at"`
	UpdatedAt          time.Time      `json:"updated_at"`
	DeletedAt          gorm.DeletedAt `json:"-" gorm:"index"`

	// Relations
	Memberships  []Membership  `json:"memberships,omitempty" gorm:"foreignKey:TenantID"`
	Clients      []Client      `json:"clients,omitempty" gorm:"foreignKey:TenantID"`
	Subscription *Subscription `json:"subscription,omitempty" gorm:"foreignKey:TenantID"`
}
