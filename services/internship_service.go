package services

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"gorm.io/gorm"

	"github.com/sahilchouksey/intern-track/model"
	"github.com/sahilchouksey/intern-track/services/realtime"
	"github.com/sahilchouksey/intern-track/utils/apperr"
)

// DefaultVerifiedLimit is how many postings the student home screen shows
const DefaultVerifiedLimit = 6

// InternshipService manages company postings
type InternshipService struct {
	db *gorm.DB
}

// NewInternshipService creates a new internship service
func NewInternshipService(db *gorm.DB) *InternshipService {
	return &InternshipService{db: db}
}

// PostInternshipRequest is a new posting
type PostInternshipRequest struct {
	Title       string               `json:"title" validate:"required,min=2,max=255"`
	Location    string               `json:"location" validate:"max=255"`
	Mode        model.InternshipMode `json:"mode" validate:"omitempty,oneof=remote hybrid onsite"`
	Description string               `json:"description"`
}

// Post creates a verified posting owned by company
func (s *InternshipService) Post(ctx context.Context, company *model.User, req PostInternshipRequest) (*model.Internship, error) {
	if company.Role != model.RoleCompany {
		return nil, fmt.Errorf("%w: only companies can post internships", apperr.ErrForbidden)
	}
	if strings.TrimSpace(req.Title) == "" {
		return nil, apperr.Validation("title is required")
	}

	mode := req.Mode
	if mode == "" {
		mode = model.InternshipModeRemote
	}

	internship := &model.Internship{
		Title:       strings.TrimSpace(req.Title),
		CompanyID:   company.ID,
		CompanyName: company.CompanyName,
		Location:    req.Location,
		Mode:        mode,
		Description: req.Description,
		Verified:    true,
	}
	if err := s.db.WithContext(ctx).Create(internship).Error; err != nil {
		return nil, &apperr.PersistenceError{Collection: model.CollectionInternships, Err: err}
	}
	return internship, nil
}

// ListVerified returns the newest verified postings
func (s *InternshipService) ListVerified(ctx context.Context, limit int) ([]model.Internship, error) {
	if limit <= 0 {
		limit = DefaultVerifiedLimit
	}
	var out []model.Internship
	err := s.db.WithContext(ctx).
		Where("verified = ?", true).
		Order("created_at desc").
		Limit(limit).
		Find(&out).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list internships: %w", err)
	}
	return out, nil
}

// ListAll returns every posting, newest first
func (s *InternshipService) ListAll(ctx context.Context) ([]model.Internship, error) {
	var out []model.Internship
	if err := s.db.WithContext(ctx).Order("created_at desc").Find(&out).Error; err != nil {
		return nil, fmt.Errorf("failed to list internships: %w", err)
	}
	return out, nil
}

// ListByCompany returns a company's own postings
func (s *InternshipService) ListByCompany(ctx context.Context, companyID uint) ([]model.Internship, error) {
	var out []model.Internship
	err := s.db.WithContext(ctx).Scopes(byCompany(companyID)).Find(&out).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list company internships: %w", err)
	}
	return out, nil
}

// WatchByCompany is the live query behind the company's postings list
func (s *InternshipService) WatchByCompany(companyID uint) realtime.Query {
	return realtime.Query{Key: fmt.Sprintf("company:%d", companyID), Scope: byCompany(companyID)}
}

func byCompany(companyID uint) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		return db.Where("company_id = ?", companyID).Order("created_at desc")
	}
}

// Get returns one posting
func (s *InternshipService) Get(ctx context.Context, id uint) (*model.Internship, error) {
	var internship model.Internship
	err := s.db.WithContext(ctx).First(&internship, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, &apperr.NotFoundError{Collection: model.CollectionInternships, ID: strconv.FormatUint(uint64(id), 10)}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load internship: %w", err)
	}
	return &internship, nil
}

// Delete removes a posting owned by companyID
func (s *InternshipService) Delete(ctx context.Context, companyID, id uint) error {
	internship, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if internship.CompanyID != companyID {
		return fmt.Errorf("%w: internship belongs to another company", apperr.ErrForbidden)
	}
	if err := s.db.WithContext(ctx).Delete(internship).Error; err != nil {
		return &apperr.PersistenceError{Collection: model.CollectionInternships, Err: err}
	}
	return nil
}
