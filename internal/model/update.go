package model

import (
	"time"

	"gorm.io/gorm"
)

// Update is a progress note on a project. IsPublic controls whether the
// update is visible through the client portal; private updates are
// internal-only.
type Update struct {
	ID        uint           `json:"id" gorm:"primaryKey"`
	ProjectID uint           `json:"project_id" gorm:"index;not null"`
	AuthorID  uint           `json:"author_id" gorm:"index;not null"`
	Title     string         `json:"title" gorm:"type:varchar(200);not null"`
	Content   string         `json:"content" gorm:"type:text;not null"`
	IsPublic  bool           `json:"is_public" gorm:"default:true"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"-" gorm:"index"`

	// Relations
	Author User   `json:"author,omitempty" gorm:"foreignKey:AuthorID"`
	Files  []File `json:"files,omitempty" gorm:"foreignKey:UpdateID"`
}
