package model

import (
	"time"

	"gorm.io/gorm"
)

// Project statuses.
const (
	ProjectActive    = "ACTIVE"
	ProjectOnHold    = "ON_HOLD"
	ProjectCompleted = "COMPLETED"
	ProjectArchived  = "ARCHIVED"
)

// ValidProjectStatus reports whether s is a known project status.
func ValidProjectStatus(s string) bool {
	switch s {
	case ProjectActive, ProjectOnHold, ProjectCompleted, ProjectArchived:
		return true
	}
	return false
}

// Project belongs to exactly one client. TenantID is denormalized from the
// client so tenant scoping never needs a join. PortalEnabled gates the whole
// project out of the client portal regardless of per-update visibility.
type Project struct {
	ID            uint           `json:"id" gorm:"primaryKey"`
	ClientID      uint           `json:"client_id" gorm:"index;not null"`
	TenantID      uint           `json:"tenant_id" gorm:"index;not null"`
	Name          string         `json:"name" gorm:"type:varchar(100);not null"`
	Description   string         `json:"description,omitempty" gorm:"type:text"`
	Status        string         `json:"status" gorm:"type:varchar(20);not null;default:'ACTIVE'"`
	PortalEnabled bool           `json:"portal_enabled" gorm:"default:true"`
	CreatedAt     time.Time      `json:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at"`
	DeletedAt     gorm.DeletedAt `json:"-" gorm:"index"`

	// Relations
	Client         Client          `json:"client,omitempty" gorm:"foreignKey:ClientID"`
	Updates        []Update        `json:"updates,omitempty" gorm:"foreignKey:ProjectID"`
	Files          []File          `json:"files,omitempty" gorm:"foreignKey:ProjectID"`
	Approvals      []Approval      `json:"approvals,omitempty" gorm:"foreignKey:ProjectID"`
	ChecklistItems []ChecklistItem `json:"checklist_items,omitempty" gorm:"foreignKey:ProjectID"`
}
