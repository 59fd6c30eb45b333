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

// LogbookService manages daily work logs and faculty feedback on them
type LogbookService struct {
	db *gorm.DB
}

// NewLogbookService creates a new logbook service
func NewLogbookService(db *gorm.DB) *LogbookService {
	return &LogbookService{db: db}
}

// Create appends an entry for student, addressed to their coordinator
func (s *LogbookService) Create(ctx context.Context, student *model.User, content string) (*model.LogbookEntry, error) {
	if student.Role != model.RoleStudent {
		return nil, fmt.Errorf("%w: only students keep logbooks", apperr.ErrForbidden)
	}
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, apperr.Validation("logbook content is required")
	}

	entry := &model.LogbookEntry{
		StudentID: student.ID,
		FacultyID: student.FacultyID,
		Content:   content,
	}
	if err := s.db.WithContext(ctx).Create(entry).Error; err != nil {
		return nil, &apperr.PersistenceError{Collection: model.CollectionLogbooks, Err: err}
	}
	return entry, nil
}

// ListByStudent returns a student's entries, newest first
func (s *LogbookService) ListByStudent(ctx context.Context, studentID uint) ([]model.LogbookEntry, error) {
	var out []model.LogbookEntry
	if err := s.db.WithContext(ctx).Scopes(logbooksOf(studentID)).Find(&out).Error; err != nil {
		return nil, fmt.Errorf("failed to list logbooks: %w", err)
	}
	return out, nil
}

// ListAll returns every entry, newest first
func (s *LogbookService) ListAll(ctx context.Context) ([]model.LogbookEntry, error) {
	var out []model.LogbookEntry
	if err := s.db.WithContext(ctx).Order("created_at desc").Find(&out).Error; err != nil {
		return nil, fmt.Errorf("failed to list logbooks: %w", err)
	}
	return out, nil
}

// ListByFaculty returns the entries addressed to a coordinator
func (s *LogbookService) ListByFaculty(ctx context.Context, facultyID uint) ([]model.LogbookEntry, error) {
	var out []model.LogbookEntry
	err := s.db.WithContext(ctx).Where("faculty_id = ?", facultyID).Order("created_at desc").Find(&out).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list logbooks: %w", err)
	}
	return out, nil
}

// WatchByStudent is the live query behind a student's logbook list
func (s *LogbookService) WatchByStudent(studentID uint) realtime.Query {
	return realtime.Query{Key: fmt.Sprintf("student:%d", studentID), Scope: logbooksOf(studentID)}
}

func logbooksOf(studentID uint) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		return db.Where("student_id = ?", studentID).Order("created_at desc")
	}
}

// AddFeedback stores faculty feedback on an entry. Entries already
// addressed to another coordinator are off limits.
func (s *LogbookService) AddFeedback(ctx context.Context, faculty *model.User, id uint, feedback string) (*model.LogbookEntry, error) {
	if faculty.Role != model.RoleFaculty {
		return nil, fmt.Errorf("%w: only faculty can review logbooks", apperr.ErrForbidden)
	}
	feedback = strings.TrimSpace(feedback)
	if feedback == "" {
		return nil, apperr.Validation("feedback is required")
	}

	var entry model.LogbookEntry
	err := s.db.WithContext(ctx).First(&entry, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, &apperr.NotFoundError{Collection: model.CollectionLogbooks, ID: strconv.FormatUint(uint64(id), 10)}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load logbook entry: %w", err)
	}
	if entry.FacultyID != nil && *entry.FacultyID != faculty.ID {
		return nil, fmt.Errorf("%w: entry is addressed to another coordinator", apperr.ErrForbidden)
	}

	updates := map[string]interface{}{
		"faculty_feedback": feedback,
		"faculty_id":       faculty.ID,
	}
	if err := s.db.WithContext(ctx).Model(&entry).Updates(updates).Error; err != nil {
		return nil, &apperr.PersistenceError{Collection: model.CollectionLogbooks, Err: err}
	}
	entry.FacultyFeedback = feedback
	entry.FacultyID = &faculty.ID
	return &entry, nil
}
