package model

import (
	"time"

	"gorm.io/gorm"
)

// Course is a training course a college offers to its students
type Course struct {
	ID            uint           `gorm:"primaryKey" json:"id"`
	CreatedAt     time.Time      `json:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at"`
	DeletedAt     gorm.DeletedAt `gorm:"index" json:"-"`
	CollegeID     uint           `gorm:"not null;index" json:"college_id"`
	Title         string         `gorm:"not null" json:"title"`
	SkillsCovered StringList     `json:"skills_covered"`
}
