package services

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"gorm.io/gorm"

	"github.com/sahilchouksey/intern-track/model"
	"github.com/sahilchouksey/intern-track/utils/apperr"
)

const (
	MinRatingScore = 1
	MaxRatingScore = 5
)

// RatingService stores company feedback on interns
type RatingService struct {
	db *gorm.DB
}

// NewRatingService creates a new rating service
func NewRatingService(db *gorm.DB) *RatingService {
	return &RatingService{db: db}
}

// SubmitRatingRequest is one piece of feedback
type SubmitRatingRequest struct {
	StudentID uint   `json:"student_id" validate:"required"`
	Feedback  string `json:"feedback"`
	Score     int    `json:"score" validate:"required,min=1,max=5"`
}

// Submit records a rating from company for a student
func (s *RatingService) Submit(ctx context.Context, company *model.User, req SubmitRatingRequest) (*model.Rating, error) {
	if company.Role != model.RoleCompany {
		return nil, fmt.Errorf("%w: only companies rate interns", apperr.ErrForbidden)
	}
	if req.Score < MinRatingScore || req.Score > MaxRatingScore {
		return nil, apperr.Validation("score must be between %d and %d", MinRatingScore, MaxRatingScore)
	}

	var student model.User
	err := s.db.WithContext(ctx).Where("id = ? AND role = ?", req.StudentID, model.RoleStudent).First(&student).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, &apperr.NotFoundError{Collection: model.CollectionUsers, ID: strconv.FormatUint(uint64(req.StudentID), 10)}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load student: %w", err)
	}

	rating := &model.Rating{
		CompanyID: company.ID,
		StudentID: student.ID,
		Feedback:  strings.TrimSpace(req.Feedback),
		Score:     req.Score,
	}
	if err := s.db.WithContext(ctx).Create(rating).Error; err != nil {
		return nil, &apperr.PersistenceError{Collection: model.CollectionRatings, Err: err}
	}
	return rating, nil
}

// ListForStudent returns the ratings a student received, newest first
func (s *RatingService) ListForStudent(ctx context.Context, studentID uint) ([]model.Rating, error) {
	var out []model.Rating
	err := s.db.WithContext(ctx).Where("student_id = ?", studentID).Order("created_at desc").Find(&out).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list ratings: %w", err)
	}
	return out, nil
}
