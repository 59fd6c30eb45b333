package model

import "time"

// LogbookEntry is a daily work log written by a student and reviewed by faculty
type LogbookEntry struct {
	ID              uint      `gorm:"primaryKey" json:"id"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
	StudentID       uint      `gorm:"not null;index" json:"student_id"`
	FacultyID       *uint     `gorm:"index" json:"faculty_id,omitempty"`
	Content         string    `gorm:"type:text;not null" json:"content"`
	FacultyFeedback string    `gorm:"type:text" json:"faculty_feedback,omitempty"`
}

// Plan is a planning document a faculty coordinator sends to a student
type Plan struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	FacultyID uint      `gorm:"not null;index" json:"faculty_id"`
	StudentID uint      `gorm:"not null;index" json:"student_id"`
	PlanText  string    `gorm:"type:text;not null" json:"plan_text"`
	FileURL   *string   `gorm:"type:text" json:"file_url"`
}

// Rating is company feedback on an intern
type Rating struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	CompanyID uint      `gorm:"not null;index" json:"company_id"`
	StudentID uint      `gorm:"not null;index" json:"student_id"`
	Feedback  string    `gorm:"type:text" json:"feedback"`
	Score     int       `gorm:"not null" json:"score"`
}
