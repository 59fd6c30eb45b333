package services

import (
	"context"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/sahilchouksey/intern-track/model"
	"github.com/sahilchouksey/intern-track/utils/apperr"
)

// RecommendedCourseLimit caps the courses suggested for one skill
const RecommendedCourseLimit = 5

// CourseService manages the courses a college offers
type CourseService struct {
	db *gorm.DB
}

// NewCourseService creates a new course service
func NewCourseService(db *gorm.DB) *CourseService {
	return &CourseService{db: db}
}

// AddCourseRequest is a new course
type AddCourseRequest struct {
	Title         string   `json:"title" validate:"required,min=2,max=255"`
	SkillsCovered []string `json:"skills_covered"`
}

// Add creates a course owned by college
func (s *CourseService) Add(ctx context.Context, college *model.User, req AddCourseRequest) (*model.Course, error) {
	if college.Role != model.RoleCollege {
		return nil, fmt.Errorf("%w: only colleges add courses", apperr.ErrForbidden)
	}
	title := strings.TrimSpace(req.Title)
	if title == "" {
		return nil, apperr.Validation("course title is required")
	}

	course := &model.Course{
		CollegeID:     college.ID,
		Title:         title,
		SkillsCovered: normaliseSkills(req.SkillsCovered),
	}
	if err := s.db.WithContext(ctx).Create(course).Error; err != nil {
		return nil, &apperr.PersistenceError{Collection: model.CollectionCourses, Err: err}
	}
	return course, nil
}

// List returns every course, optionally only those of one college
func (s *CourseService) List(ctx context.Context, collegeID uint) ([]model.Course, error) {
	q := s.db.WithContext(ctx).Order("title asc")
	if collegeID != 0 {
		q = q.Where("college_id = ?", collegeID)
	}
	var out []model.Course
	if err := q.Find(&out).Error; err != nil {
		return nil, fmt.Errorf("failed to list courses: %w", err)
	}
	return out, nil
}

// Recommended returns up to RecommendedCourseLimit courses covering skill
func (s *CourseService) Recommended(ctx context.Context, skill string) ([]model.Course, error) {
	skill = strings.TrimSpace(skill)
	if skill == "" {
		return []model.Course{}, nil
	}

	db := s.db.WithContext(ctx)
	var out []model.Course

	if db.Dialector.Name() == "postgres" {
		err := db.Where("? = ANY(skills_covered)", skill).
			Order("created_at desc").
			Limit(RecommendedCourseLimit).
			Find(&out).Error
		if err != nil {
			return nil, fmt.Errorf("failed to find recommended courses: %w", err)
		}
		return out, nil
	}

	// No array operators outside postgres
	var all []model.Course
	if err := db.Order("created_at desc").Find(&all).Error; err != nil {
		return nil, fmt.Errorf("failed to find recommended courses: %w", err)
	}
	for _, c := range all {
		if c.SkillsCovered.Contains(skill) {
			out = append(out, c)
			if len(out) == RecommendedCourseLimit {
				break
			}
		}
	}
	return out, nil
}

// RecommendedFor merges the recommendations for every skill of a student
func (s *CourseService) RecommendedFor(ctx context.Context, student *model.User) ([]model.Course, error) {
	seen := make(map[uint]bool)
	var out []model.Course
	for _, skill := range student.Skills {
		courses, err := s.Recommended(ctx, skill)
		if err != nil {
			return nil, err
		}
		for _, c := range courses {
			if !seen[c.ID] {
				seen[c.ID] = true
				out = append(out, c)
			}
		}
	}
	return out, nil
}

func normaliseSkills(in []string) model.StringList {
	out := make(model.StringList, 0, len(in))
	for _, s := range in {
		s = strings.TrimSpace(s)
		if s != "" && !out.Contains(s) {
			out = append(out, s)
		}
	}
	return out
}
