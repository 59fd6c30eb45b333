package services

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"gorm.io/gorm"

	"github.com/sahilchouksey/intern-track/model"
	"github.com/sahilchouksey/intern-track/services/blobstore"
	"github.com/sahilchouksey/intern-track/services/upload"
	"github.com/sahilchouksey/intern-track/utils/apperr"
)

// ProfileService reads and edits user profiles
type ProfileService struct {
	db      *gorm.DB
	uploads *UploadService
}

// NewProfileService creates a new profile service
func NewProfileService(db *gorm.DB, uploads *UploadService) *ProfileService {
	return &ProfileService{db: db, uploads: uploads}
}

// Get returns the profile of uid
func (s *ProfileService) Get(ctx context.Context, uid uint) (*model.User, error) {
	var user model.User
	err := s.db.WithContext(ctx).First(&user, uid).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, &apperr.NotFoundError{Collection: model.CollectionUsers, ID: strconv.FormatUint(uint64(uid), 10)}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load profile: %w", err)
	}
	return &user, nil
}

// ListStudents returns the students of a college, or every student when
// collegeID is 0
func (s *ProfileService) ListStudents(ctx context.Context, collegeID uint) ([]model.User, error) {
	q := s.db.WithContext(ctx).Where("role = ?", model.RoleStudent).Order("name asc")
	if collegeID != 0 {
		q = q.Where("college_id = ?", collegeID)
	}
	var out []model.User
	if err := q.Find(&out).Error; err != nil {
		return nil, fmt.Errorf("failed to list students: %w", err)
	}
	return out, nil
}

// AddSkill appends skill to the user's list; duplicates are ignored
func (s *ProfileService) AddSkill(ctx context.Context, uid uint, skill string) (*model.User, error) {
	skill = strings.TrimSpace(skill)
	if skill == "" {
		return nil, apperr.Validation("skill is required")
	}
	return s.editSkills(ctx, uid, func(l model.StringList) model.StringList {
		if l.Contains(skill) {
			return l
		}
		return append(l, skill)
	})
}

// RemoveSkill drops every occurrence of skill
func (s *ProfileService) RemoveSkill(ctx context.Context, uid uint, skill string) (*model.User, error) {
	skill = strings.TrimSpace(skill)
	return s.editSkills(ctx, uid, func(l model.StringList) model.StringList {
		out := make(model.StringList, 0, len(l))
		for _, v := range l {
			if v != skill {
				out = append(out, v)
			}
		}
		return out
	})
}

func (s *ProfileService) editSkills(ctx context.Context, uid uint, edit func(model.StringList) model.StringList) (*model.User, error) {
	var user model.User
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&user, uid).Error; err != nil {
			return err
		}
		user.Skills = edit(user.Skills)
		return tx.Model(&user).Update("skills", user.Skills).Error
	})
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, &apperr.NotFoundError{Collection: model.CollectionUsers, ID: strconv.FormatUint(uint64(uid), 10)}
	}
	if err != nil {
		return nil, &apperr.PersistenceError{Collection: model.CollectionUsers, Err: err}
	}
	return &user, nil
}

// AssignFaculty sets a student's coordinator. Only the student's college
// may do this.
func (s *ProfileService) AssignFaculty(ctx context.Context, college *model.User, studentID, facultyID uint) (*model.User, error) {
	if college.Role != model.RoleCollege {
		return nil, fmt.Errorf("%w: only colleges assign coordinators", apperr.ErrForbidden)
	}

	student, err := s.Get(ctx, studentID)
	if err != nil {
		return nil, err
	}
	if student.Role != model.RoleStudent {
		return nil, apperr.Validation("user %d is not a student", studentID)
	}
	if student.CollegeID == nil || *student.CollegeID != college.ID {
		return nil, fmt.Errorf("%w: student belongs to another college", apperr.ErrForbidden)
	}

	faculty, err := s.Get(ctx, facultyID)
	if err != nil {
		return nil, err
	}
	if faculty.Role != model.RoleFaculty {
		return nil, apperr.Validation("user %d is not a faculty member", facultyID)
	}

	if err := s.db.WithContext(ctx).Model(student).Update("faculty_id", faculty.ID).Error; err != nil {
		return nil, &apperr.PersistenceError{Collection: model.CollectionUsers, Err: err}
	}
	student.FacultyID = &faculty.ID
	return student, nil
}

// UploadPhoto uploads a new profile photo and points photo_url at it
func (s *ProfileService) UploadPhoto(ctx context.Context, user *model.User, jobID, uri, fileName string, onEvent func(*ProgressEvent)) (*upload.Result, error) {
	if s.uploads == nil {
		return nil, apperr.Validation("photo uploads are not enabled")
	}
	if !strings.HasPrefix(upload.ResolveMIME(fileName), "image/") {
		return nil, apperr.Validation("profile photo must be a jpg or png image")
	}

	record := func(ctx context.Context, f *upload.UploadedFile) (uint, error) {
		err := s.db.WithContext(ctx).Model(&model.User{}).Where("id = ?", user.ID).Update("photo_url", f.URL).Error
		if err != nil {
			return 0, &apperr.PersistenceError{Collection: model.CollectionUsers, Err: err}
		}
		user.PhotoURL = f.URL
		return user.ID, nil
	}

	return s.uploads.Upload(ctx, UploadSpec{
		JobID:    jobID,
		UserID:   user.ID,
		URI:      uri,
		FileName: fileName,
		Key:      blobstore.ProfilePhotoKey(user.ID, fileName),
		Record:   record,
	}, onEvent)
}
