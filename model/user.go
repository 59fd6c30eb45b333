package model

import (
	"time"

	"gorm.io/gorm"
)

// User is the profile document for every role
type User struct {
	ID           uint           `gorm:"primaryKey" json:"id"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
	DeletedAt    gorm.DeletedAt `gorm:"index" json:"-"`
	Email        string         `gorm:"uniqueIndex;not null" json:"email"`
	PasswordHash string         `gorm:"not null" json:"-"` // Never expose password in JSON
	Name         string         `gorm:"not null" json:"name"`
	Role         Role           `gorm:"type:varchar(20);not null;index" json:"role"`
	TokenVersion int            `gorm:"default:0" json:"-"` // Increment to invalidate all user tokens

	// Role-specific fields
	CollegeID   *uint          `gorm:"index" json:"college_id,omitempty"`
	CollegeName string         `gorm:"type:varchar(255)" json:"college_name,omitempty"`
	FacultyID   *uint          `gorm:"index" json:"faculty_id,omitempty"` // Coordinator assigned to a student
	CompanyName string         `gorm:"type:varchar(255)" json:"company_name,omitempty"`
	Skills      StringList     `json:"skills"`
	PhotoURL    string         `gorm:"type:text" json:"photo_url,omitempty"`
}

// PublicUser is the subset of a profile returned to other users
type PublicUser struct {
	ID          uint     `json:"id"`
	Name        string   `json:"name"`
	Email       string   `json:"email"`
	Role        Role     `json:"role"`
	CollegeName string   `json:"college_name,omitempty"`
	Skills      []string `json:"skills"`
	PhotoURL    string   `json:"photo_url,omitempty"`
}

func (u *User) ToPublic() PublicUser {
	skills := []string(u.Skills)
	if skills == nil {
		skills = []string{}
	}
	return PublicUser{
		ID:          u.ID,
		Name:        u.Name,
		Email:       u.Email,
		Role:        u.Role,
		CollegeName: u.CollegeName,
		Skills:      skills,
		PhotoURL:    u.PhotoURL,
	}
}
