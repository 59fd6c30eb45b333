package model

import (
	"time"

	"gorm.io/datatypes"
)

// Certificate is the record written after a successful certificate upload
type Certificate struct {
	ID          uint           `gorm:"primaryKey" json:"id"`
	CreatedAt   time.Time      `json:"uploaded_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	StudentID   uint           `gorm:"not null;index" json:"student_id"`
	FileName    string         `gorm:"not null" json:"file_name"`
	FileURL     string         `gorm:"type:text;not null" json:"file_url"`
	StorageKey  string         `gorm:"type:varchar(500);index" json:"-"`
	ContentType string         `gorm:"type:varchar(120)" json:"content_type,omitempty"`
	FileSize    int64          `gorm:"default:0" json:"file_size"`
	Status      ReviewStatus   `gorm:"type:varchar(20);not null;default:'pending';index" json:"status"`
	ReviewedBy  *uint          `json:"reviewed_by,omitempty"`
	ReviewedAt  *time.Time     `json:"reviewed_at,omitempty"`
	Metadata    datatypes.JSON `json:"metadata,omitempty"`
}

// CertificateMetadata is stored in Certificate.Metadata
type CertificateMetadata struct {
	Strategy  string `json:"strategy,omitempty"` // which acquisition strategy produced the blob
	PageCount int    `json:"page_count,omitempty"`
}
