package database

import (
	"fmt"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/sahilchouksey/intern-track/model"
	"github.com/sahilchouksey/intern-track/utils/auth"
)

// Seeder fills an empty database with demo accounts and postings
type Seeder struct {
	db       *gorm.DB
	password string
	logger   *zap.Logger
}

// NewSeeder creates a seeder; every demo account gets password
func NewSeeder(db *gorm.DB, password string, logger *zap.Logger) *Seeder {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Seeder{db: db, password: password, logger: logger}
}

// SeedAll runs all seed functions
func (s *Seeder) SeedAll() error {
	if s.password == "" {
		return fmt.Errorf("seed password is required")
	}

	var count int64
	if err := s.db.Model(&model.User{}).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		s.logger.Info("users already exist, skipping seed")
		return nil
	}

	return s.db.Transaction(func(tx *gorm.DB) error {
		hash, err := auth.HashPassword(s.password)
		if err != nil {
			return fmt.Errorf("failed to hash password: %w", err)
		}

		college := &model.User{Email: "college@demo.test", Name: "State Engineering College", Role: model.RoleCollege, PasswordHash: hash}
		if err := tx.Create(college).Error; err != nil {
			return fmt.Errorf("failed to seed college: %w", err)
		}

		faculty := &model.User{Email: "faculty@demo.test", Name: "Dr. Mehta", Role: model.RoleFaculty, PasswordHash: hash,
			CollegeID: &college.ID, CollegeName: college.Name}
		if err := tx.Create(faculty).Error; err != nil {
			return fmt.Errorf("failed to seed faculty: %w", err)
		}

		company := &model.User{Email: "company@demo.test", Name: "Hiring Team", Role: model.RoleCompany, PasswordHash: hash,
			CompanyName: "Acme Labs"}
		if err := tx.Create(company).Error; err != nil {
			return fmt.Errorf("failed to seed company: %w", err)
		}

		student := &model.User{Email: "student@demo.test", Name: "Asha Rao", Role: model.RoleStudent, PasswordHash: hash,
			CollegeID: &college.ID, CollegeName: college.Name, FacultyID: &faculty.ID,
			Skills: model.StringList{"go", "sql"}}
		if err := tx.Create(student).Error; err != nil {
			return fmt.Errorf("failed to seed student: %w", err)
		}

		internships := []model.Internship{
			{Title: "Backend Engineering Intern", CompanyID: company.ID, CompanyName: company.CompanyName, Location: "Bengaluru", Mode: model.InternshipModeHybrid, Verified: true,
				Description: "Build and operate Go services."},
			{Title: "Data Analyst Intern", CompanyID: company.ID, CompanyName: company.CompanyName, Location: "Remote", Mode: model.InternshipModeRemote, Verified: true,
				Description: "SQL reporting and dashboards."},
		}
		if err := tx.Create(&internships).Error; err != nil {
			return fmt.Errorf("failed to seed internships: %w", err)
		}

		courses := []model.Course{
			{CollegeID: college.ID, Title: "Distributed Systems", SkillsCovered: model.StringList{"go", "networking"}},
			{CollegeID: college.ID, Title: "Database Design", SkillsCovered: model.StringList{"sql", "modeling"}},
		}
		if err := tx.Create(&courses).Error; err != nil {
			return fmt.Errorf("failed to seed courses: %w", err)
		}

		s.logger.Info("seeded demo data",
			zap.Int("internships", len(internships)),
			zap.Int("courses", len(courses)))
		return nil
	})
}
