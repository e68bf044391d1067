package model

import (
	"time"

	"gorm.io/gorm"
)

// User represents a principal known to the service. Identity verification is
// delegated to the external identity provider; SubjectID is the provider-side
// subject and the only credential the service trusts. A user gains tenant
// access exclusively through Membership rows.
type User struct {
	ID        uint           `json:"id" gorm:"primaryKey"`
	SubjectID string         `json:"subject_id" gorm:"type:varchar(100);uniqueIndex;not null"`
	Email     string         `json:"email" gorm:"type:varchar(100);index"`
	Name      string         `json:"name" gorm:"type:varchar(100)"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"-" gorm:"index"`

	// Relations
	Memberships []Membership `json:"memberships,omitempty" gorm:"foreignKey:UserID"`
}
