package model

import (
	"time"

	"gorm.io/gorm"
)

// Approval statuses. PENDING is the only non-terminal state; RespondedAt is
// set exactly when the status leaves PENDING and the transition happens at
// most once.
const (
	ApprovalPending          = "PENDING"
	ApprovalApproved         = "APPROVED"
	ApprovalRejected         = "REJECTED"
	ApprovalChangesRequested = "CHANGES_REQUESTED"
)

// ValidApprovalResponse reports whether s is a terminal approval status.
func ValidApprovalResponse(s string) bool {
	switch s {
	case ApprovalApproved, ApprovalRejected, ApprovalChangesRequested:
		return true
	}
	return false
}

// Approval is a request for an external stakeholder's decision on a project.
type Approval struct {
	ID            uint           `json:"id" gorm:"primaryKey"`
	ProjectID     uint           `json:"project_id" gorm:"index;not null"`
	RequestedByID uint           `json:"requested_by_id" gorm:"index;not null"`
	Title         string         `json:"title" gorm:"type:varchar(200);not null"`
	Description   string         `json:"description,omitempty" gorm:"type:text"`
	Status        string         `json:"status" gorm:"type:varchar(20);not null;default:'PENDING'"`
	Feedback      string         `json:"feedback,omitempty" gorm:"type:text"`
	RespondedAt   *time.Time     `json:"responded_at,omitempty"`
	CreatedAt     time.Time      `json:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at"`
	DeletedAt     gorm.DeletedAt `json:"-" gorm:"index"`

	// Relations
	RequestedBy User `json:"requested_by,omitempty" gorm:"foreignKey:RequestedByID"`
}
