package services

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"gorm.io/gorm"

	"github.com/sahilchouksey/intern-track/model"
	"github.com/sahilchouksey/intern-track/services/realtime"
	"github.com/sahilchouksey/intern-track/utils/apperr"
)

// ApplicationService manages student applications to internships.
// A student may apply to the same internship more than once.
type ApplicationService struct {
	db          *gorm.DB
	internships *InternshipService
}

// NewApplicationService creates a new application service
func NewApplicationService(db *gorm.DB, internships *InternshipService) *ApplicationService {
	return &ApplicationService{db: db, internships: internships}
}

// Apply records a pending application
func (s *ApplicationService) Apply(ctx context.Context, student *model.User, internshipID uint) (*model.Application, error) {
	if student.Role != model.RoleStudent {
		return nil, fmt.Errorf("%w: only students can apply", apperr.ErrForbidden)
	}
	if _, err := s.internships.Get(ctx, internshipID); err != nil {
		return nil, err
	}

	app := &model.Application{
		StudentID:    student.ID,
		InternshipID: internshipID,
		Status:       model.ReviewStatusPending,
	}
	if err := s.db.WithContext(ctx).Create(app).Error; err != nil {
		return nil, &apperr.PersistenceError{Collection: model.CollectionApplications, Err: err}
	}
	return app, nil
}

// ListByStudent returns a student's applications with their postings
func (s *ApplicationService) ListByStudent(ctx context.Context, studentID uint) ([]model.Application, error) {
	var out []model.Application
	err := s.db.WithContext(ctx).Scopes(applicationsOf(studentID)).Preload("Internship").Find(&out).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list applications: %w", err)
	}
	return out, nil
}

// WatchByStudent is the live query behind a student's applications list
func (s *ApplicationService) WatchByStudent(studentID uint) realtime.Query {
	return realtime.Query{Key: fmt.Sprintf("student:%d", studentID), Scope: applicationsOf(studentID)}
}

func applicationsOf(studentID uint) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		return db.Where("student_id = ?", studentID).Order("created_at desc")
	}
}

// ListPending returns every application awaiting review
func (s *ApplicationService) ListPending(ctx context.Context) ([]model.Application, error) {
	var out []model.Application
	err := s.db.WithContext(ctx).Where("status = ?", model.ReviewStatusPending).
		Preload("Internship").Order("created_at asc").Find(&out).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list pending applications: %w", err)
	}
	return out, nil
}

// ListForCompany returns the applications to every posting of a company
func (s *ApplicationService) ListForCompany(ctx context.Context, companyID uint) ([]model.Application, error) {
	var out []model.Application
	err := s.db.WithContext(ctx).
		Where("internship_id IN (?)", s.db.Model(&model.Internship{}).Select("id").Where("company_id = ?", companyID)).
		Preload("Internship").
		Order("created_at desc").
		Find(&out).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list company applications: %w", err)
	}
	return out, nil
}

// UpdateStatus moves an application to status. Companies may only review
// applications to their own postings; students never review.
func (s *ApplicationService) UpdateStatus(ctx context.Context, reviewer *model.User, id uint, status string) (*model.Application, error) {
	parsed, err := model.ParseReviewStatus(status)
	if err != nil {
		return nil, apperr.Validation("%v", err)
	}
	if reviewer.Role == model.RoleStudent {
		return nil, fmt.Errorf("%w: students cannot review applications", apperr.ErrForbidden)
	}

	var app model.Application
	err = s.db.WithContext(ctx).Preload("Internship").First(&app, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, &apperr.NotFoundError{Collection: model.CollectionApplications, ID: strconv.FormatUint(uint64(id), 10)}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load application: %w", err)
	}

	if reviewer.Role == model.RoleCompany && (app.Internship == nil || app.Internship.CompanyID != reviewer.ID) {
		return nil, fmt.Errorf("%w: application is for another company's internship", apperr.ErrForbidden)
	}

	if err := s.db.WithContext(ctx).Model(&app).Update("status", parsed).Error; err != nil {
		return nil, &apperr.PersistenceError{Collection: model.CollectionApplications, Err: err}
	}
	app.Status = parsed
	return &app, nil
}
