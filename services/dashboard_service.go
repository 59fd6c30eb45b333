package services

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/sahilchouksey/intern-track/model"
	"github.com/sahilchouksey/intern-track/utils/cache"
)

// DashboardCacheTTL bounds how stale dashboard counts may be
const DashboardCacheTTL = 30 * time.Second

// CollegeDashboard holds the counters on the college home screen
type CollegeDashboard struct {
	Students            int64 `json:"students"`
	Internships         int64 `json:"internships"`
	PendingCertificates int64 `json:"pending_certificates"`
}

// FacultyDashboard holds the counters on the faculty home screen
type FacultyDashboard struct {
	Students         int64 `json:"students"`
	AwaitingFeedback int64 `json:"awaiting_feedback"`
	PlansSent        int64 `json:"plans_sent"`
}

// DashboardService computes home screen counters
type DashboardService struct {
	db     *gorm.DB
	cache  cache.Store
	logger *zap.Logger
}

// NewDashboardService creates a new dashboard service; store may be nil
func NewDashboardService(db *gorm.DB, store cache.Store, logger *zap.Logger) *DashboardService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DashboardService{db: db, cache: store, logger: logger}
}

// College returns the counters for a college. Students are those enrolled
// at the college; internships and pending certificates are global.
func (s *DashboardService) College(ctx context.Context, collegeID uint) (*CollegeDashboard, error) {
	key := fmt.Sprintf("dashboard:college:%d", collegeID)
	var out CollegeDashboard
	if s.cached(ctx, key, &out) {
		return &out, nil
	}

	db := s.db.WithContext(ctx)
	students := db.Model(&model.User{}).Where("role = ?", model.RoleStudent)
	if collegeID != 0 {
		students = students.Where("college_id = ?", collegeID)
	}
	if err := students.Count(&out.Students).Error; err != nil {
		return nil, fmt.Errorf("failed to count students: %w", err)
	}
	if err := db.Model(&model.Internship{}).Count(&out.Internships).Error; err != nil {
		return nil, fmt.Errorf("failed to count internships: %w", err)
	}
	err := db.Model(&model.Certificate{}).Where("status = ?", model.ReviewStatusPending).Count(&out.PendingCertificates).Error
	if err != nil {
		return nil, fmt.Errorf("failed to count pending certificates: %w", err)
	}

	s.store(ctx, key, &out)
	return &out, nil
}

// Faculty returns the counters for a coordinator
func (s *DashboardService) Faculty(ctx context.Context, facultyID uint) (*FacultyDashboard, error) {
	key := fmt.Sprintf("dashboard:faculty:%d", facultyID)
	var out FacultyDashboard
	if s.cached(ctx, key, &out) {
		return &out, nil
	}

	db := s.db.WithContext(ctx)
	err := db.Model(&model.User{}).Where("role = ? AND faculty_id = ?", model.RoleStudent, facultyID).Count(&out.Students).Error
	if err != nil {
		return nil, fmt.Errorf("failed to count students: %w", err)
	}
	err = db.Model(&model.LogbookEntry{}).
		Where("faculty_id = ? AND (faculty_feedback IS NULL OR faculty_feedback = '')", facultyID).
		Count(&out.AwaitingFeedback).Error
	if err != nil {
		return nil, fmt.Errorf("failed to count logbooks: %w", err)
	}
	if err := db.Model(&model.Plan{}).Where("faculty_id = ?", facultyID).Count(&out.PlansSent).Error; err != nil {
		return nil, fmt.Errorf("failed to count plans: %w", err)
	}

	s.store(ctx, key, &out)
	return &out, nil
}

func (s *DashboardService) cached(ctx context.Context, key string, dest interface{}) bool {
	if s.cache == nil {
		return false
	}
	return s.cache.GetJSON(ctx, key, dest) == nil
}

func (s *DashboardService) store(ctx context.Context, key string, v interface{}) {
	if s.cache == nil {
		return
	}
	if err := s.cache.SetJSON(ctx, key, v, DashboardCacheTTL); err != nil {
		s.logger.Debug("failed to cache dashboard", zap.String("key", key), zap.Error(err))
	}
}
