package model

import (
	"time"

	"gorm.io/gorm"
)

// Membership roles within a tenant.
const (
	RoleOwner  = "owner"
	RoleMember = "member"
)

// Membership links a user to a tenant with a role. It is never transferred
// between tenants; the first membership is created by the tenant bootstrap
// with the owner role.
type Membership struct {
	ID        uint           `json:"id" gorm:"primaryKey"`
	UserID    uint           `json:"user_id" gorm:"uniqueIndex:idx_memberships_user_tenant;not null"`
	TenantID  uint           `json:"tenant_id" gorm:"uniqueIndex:idx_memberships_user_tenant;index;not null"`
	Role      string         `json:"role" gorm:"type:varchar(20);not null;default:'member'"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"-" gorm:"index"`

	// Relations
	User   User   `json:"user,omitempty" gorm:"foreignKey:UserID"`
	Tenant Tenant `json:"tenant,omitempty" gorm:"foreignKey:TenantID"`
}
