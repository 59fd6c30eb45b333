package model

import (
	"time"

	"gorm.io/gorm"
)

// InternshipMode represents where the intern works
type InternshipMode string

const (
	InternshipModeRemote InternshipMode = "remote"
	InternshipModeHybrid InternshipMode = "hybrid"
	InternshipModeOnsite InternshipMode = "onsite"
)

// Internship is a posting created by a company user
type Internship struct {
	ID          uint           `gorm:"primaryKey" json:"id"`
	CreatedAt   time.Time      `json:"posted_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`
	Title       string         `gorm:"not null" json:"title"`
	CompanyID   uint           `gorm:"not null;index" json:"company_id"`
	CompanyName string         `gorm:"type:varchar(255)" json:"company_name"`
	Location    string         `gorm:"type:varchar(255)" json:"location"`
	Mode        InternshipMode `gorm:"type:varchar(20);default:'remote'" json:"mode"`
	Description string         `gorm:"type:text" json:"description"`
	Verified    bool           `gorm:"default:true;index" json:"verified"`
}

// Application links a student to an internship.
// There is deliberately no unique index on (student_id, internship_id).
type Application struct {
	ID           uint         `gorm:"primaryKey" json:"id"`
	CreatedAt    time.Time    `json:"applied_at"`
	UpdatedAt    time.Time    `json:"updated_at"`
	StudentID    uint         `gorm:"not null;index" json:"student_id"`
	InternshipID uint         `gorm:"not null;index" json:"internship_id"`
	Status       ReviewStatus `gorm:"type:varchar(20);not null;default:'pending';index" json:"status"`

	Internship *Internship `gorm:"foreignKey:InternshipID;constraint:OnDelete:CASCADE" json:"internship,omitempty"`
}
