package services

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"gorm.io/gorm"

	"github.com/sahilchouksey/intern-track/model"
	"github.com/sahilchouksey/intern-track/services/realtime"
	"github.com/sahilchouksey/intern-track/utils/apperr"
)

// CertificateService lists uploaded certificates and records their review.
// Uploads themselves go through UploadService.
type CertificateService struct {
	db *gorm.DB
}

// NewCertificateService creates a new certificate service
func NewCertificateService(db *gorm.DB) *CertificateService {
	return &CertificateService{db: db}
}

// ListByStudent returns a student's certificates, newest first
func (s *CertificateService) ListByStudent(ctx context.Context, studentID uint) ([]model.Certificate, error) {
	var out []model.Certificate
	if err := s.db.WithContext(ctx).Scopes(certificatesOf(studentID)).Find(&out).Error; err != nil {
		return nil, fmt.Errorf("failed to list certificates: %w", err)
	}
	return out, nil
}

// ListAll returns every certificate, newest first
func (s *CertificateService) ListAll(ctx context.Context) ([]model.Certificate, error) {
	var out []model.Certificate
	if err := s.db.WithContext(ctx).Order("created_at desc").Find(&out).Error; err != nil {
		return nil, fmt.Errorf("failed to list certificates: %w", err)
	}
	return out, nil
}

// ListPending returns the certificates awaiting review, oldest first
func (s *CertificateService) ListPending(ctx context.Context) ([]model.Certificate, error) {
	var out []model.Certificate
	if err := s.db.WithContext(ctx).Scopes(pendingCertificates).Find(&out).Error; err != nil {
		return nil, fmt.Errorf("failed to list pending certificates: %w", err)
	}
	return out, nil
}

// WatchByStudent is the live query behind a student's certificate list
func (s *CertificateService) WatchByStudent(studentID uint) realtime.Query {
	return realtime.Query{Key: fmt.Sprintf("student:%d", studentID), Scope: certificatesOf(studentID)}
}

// WatchPending is the live query behind the review queue
func (s *CertificateService) WatchPending() realtime.Query {
	return realtime.Query{Key: "pending", Scope: pendingCertificates}
}

func certificatesOf(studentID uint) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		return db.Where("student_id = ?", studentID).Order("created_at desc").Order("id desc")
	}
}

func pendingCertificates(db *gorm.DB) *gorm.DB {
	return db.Where("status = ?", model.ReviewStatusPending).Order("created_at asc")
}

// Review sets the status of a certificate. Faculty and college users review.
func (s *CertificateService) Review(ctx context.Context, reviewer *model.User, id uint, status string) (*model.Certificate, error) {
	parsed, err := model.ParseReviewStatus(status)
	if err != nil {
		return nil, apperr.Validation("%v", err)
	}
	if reviewer.Role != model.RoleFaculty && reviewer.Role != model.RoleCollege {
		return nil, fmt.Errorf("%w: only faculty and colleges review certificates", apperr.ErrForbidden)
	}

	var cert model.Certificate
	err = s.db.WithContext(ctx).First(&cert, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, &apperr.NotFoundError{Collection: model.CollectionCertificates, ID: strconv.FormatUint(uint64(id), 10)}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load certificate: %w", err)
	}

	now := time.Now()
	updates := map[string]interface{}{
		"status":      parsed,
		"reviewed_by": reviewer.ID,
		"reviewed_at": now,
	}
	if err := s.db.WithContext(ctx).Model(&cert).Updates(updates).Error; err != nil {
		return nil, &apperr.PersistenceError{Collection: model.CollectionCertificates, Err: err}
	}

	cert.Status = parsed
	cert.ReviewedBy = &reviewer.ID
	cert.ReviewedAt = &now
	return &cert, nil
}
