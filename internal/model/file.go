package model

import (
	"time"

	"gorm.io/gorm"
)

// File records the metadata tuple returned by the upload provider after an
// out-of-band upload. The service never holds file bytes.
type File struct {
	ID         uint           `json:"id" gorm:"primaryKey"`
	ProjectID  uint           `json:"project_id" gorm:"index;not null"`
	UpdateID   *uint          `json:"update_id,omitempty" gorm:"index"`
	UploaderID uint           `json:"uploader_id" gorm:"index;not null"`
	Name       string         `json:"name" gorm:"type:varchar(255);not null"`
	URL        string         `json:"url" gorm:"type:text;not null"`
	Key        string         `json:"key" gorm:"type:varchar(255);not null"`
	Size       int64          `json:"size" gorm:"not null"`
	MimeType   string         `json:"mime_type" gorm:"type:varchar(100)"`
	CreatedAt  time.Time      `json:"created_at"`
	UpdatedAt  time.Time      `json:"updated_at"`
	DeletedAt  gorm.DeletedAt `json:"-" gorm:"index"`
}
