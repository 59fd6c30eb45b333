package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/sahilchouksey/intern-track/model"
	"github.com/sahilchouksey/intern-track/services/blobstore"
	"github.com/sahilchouksey/intern-track/services/realtime"
	"github.com/sahilchouksey/intern-track/services/upload"
	"github.com/sahilchouksey/intern-track/utils/apperr"
	"github.com/sahilchouksey/intern-track/utils/pdfvalidation"
)

// PlanService manages the planning documents coordinators send to students
type PlanService struct {
	db      *gorm.DB
	uploads *UploadService
	now     func() time.Time
}

// NewPlanService creates a new plan service
func NewPlanService(db *gorm.DB, uploads *UploadService) *PlanService {
	return &PlanService{db: db, uploads: uploads, now: time.Now}
}

// Attachment is a local file to upload alongside a plan
type Attachment struct {
	JobID    string
	URI      string
	FileName string
}

// SubmitPlanRequest is a new plan for one student
type SubmitPlanRequest struct {
	StudentID uint   `json:"student_id" validate:"required"`
	PlanText  string `json:"plan_text" validate:"required"`
}

// PlanResult is what Submit produced. Upload is nil for plans without an
// attachment.
type PlanResult struct {
	Plan   *model.Plan
	Upload *upload.Result
}

// Submit stores a plan. With an attachment the plan is written only after
// the file upload completed; a failed write then leaves the file orphaned
// and is reported on the upload result.
func (s *PlanService) Submit(ctx context.Context, faculty *model.User, req SubmitPlanRequest, att *Attachment, onEvent func(*ProgressEvent)) (*PlanResult, error) {
	if faculty.Role != model.RoleFaculty {
		return nil, fmt.Errorf("%w: only faculty submit plans", apperr.ErrForbidden)
	}
	req.PlanText = strings.TrimSpace(req.PlanText)
	if req.PlanText == "" {
		return nil, apperr.Validation("plan text is required")
	}
	if req.StudentID == 0 {
		return nil, apperr.Validation("student is required")
	}

	plan := &model.Plan{
		FacultyID: faculty.ID,
		StudentID: req.StudentID,
		PlanText:  req.PlanText,
	}

	if att == nil {
		if err := s.db.WithContext(ctx).Create(plan).Error; err != nil {
			return nil, &apperr.PersistenceError{Collection: model.CollectionPlans, Err: err}
		}
		return &PlanResult{Plan: plan}, nil
	}

	if s.uploads == nil {
		return nil, apperr.Validation("attachments are not enabled")
	}

	record := func(ctx context.Context, f *upload.UploadedFile) (uint, error) {
		url := f.URL
		plan.FileURL = &url
		if err := s.db.WithContext(ctx).Create(plan).Error; err != nil {
			return 0, &apperr.PersistenceError{Collection: model.CollectionPlans, Err: err}
		}
		return plan.ID, nil
	}

	res, err := s.uploads.Upload(ctx, UploadSpec{
		JobID:     att.JobID,
		UserID:    faculty.ID,
		URI:       att.URI,
		FileName:  att.FileName,
		Key:       blobstore.PlanningKey(faculty.ID, att.FileName, s.now()),
		PDFLimits: &pdfvalidation.PlanLimits,
		Record:    record,
	}, onEvent)
	if err != nil {
		return nil, err
	}
	return &PlanResult{Plan: plan, Upload: res}, nil
}

// ListByStudent returns the plans sent to a student, newest first
func (s *PlanService) ListByStudent(ctx context.Context, studentID uint) ([]model.Plan, error) {
	var out []model.Plan
	if err := s.db.WithContext(ctx).Scopes(plansFor(studentID)).Find(&out).Error; err != nil {
		return nil, fmt.Errorf("failed to list plans: %w", err)
	}
	return out, nil
}

// ListByFaculty returns the plans a coordinator sent
func (s *PlanService) ListByFaculty(ctx context.Context, facultyID uint) ([]model.Plan, error) {
	var out []model.Plan
	err := s.db.WithContext(ctx).Where("faculty_id = ?", facultyID).Order("created_at desc").Find(&out).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list plans: %w", err)
	}
	return out, nil
}

// WatchByStudent is the live query behind a student's plan list
func (s *PlanService) WatchByStudent(studentID uint) realtime.Query {
	return realtime.Query{Key: fmt.Sprintf("student:%d", studentID), Scope: plansFor(studentID)}
}

func plansFor(studentID uint) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		return db.Where("student_id = ?", studentID).Order("created_at desc")
	}
}
