package model

import (
	"time"

	"gorm.io/gorm"
)

// ChecklistItem is a project task with a stable integer sort order. Orders
// are not necessarily contiguous.
type ChecklistItem struct {
	ID        uint           `json:"id" gorm:"primaryKey"`
	ProjectID uint           `json:"project_id" gorm:"index;not null"`
	Text      string         `json:"text" gorm:"type:varchar(500);not null"`
	SortOrder int            `json:"sort_order" gorm:"not null;default:0"`
	Completed bool           `json:"completed" gorm:"default:false"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"-" gorm:"index"`
}
