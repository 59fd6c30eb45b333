package course

import (
	"github.com/gofiber/fiber/v2"

	"github.com/sahilchouksey/intern-track/model"
	"github.com/sahilchouksey/intern-track/services"
	"github.com/sahilchouksey/intern-track/utils/middleware"
	"github.com/sahilchouksey/intern-track/utils/response"
	"github.com/sahilchouksey/intern-track/utils/validation"
)

// CourseHandler handles course-related requests
type CourseHandler struct {
	courses   *services.CourseService
	validator *validation.Validator
}

// NewCourseHandler creates a new course handler
func NewCourseHandler(courses *services.CourseService) *CourseHandler {
	return &CourseHandler{courses: courses, validator: validation.NewValidator()}
}

// CreateCourse handles POST /api/v1/courses (college)
func (h *CourseHandler) CreateCourse(c *fiber.Ctx) error {
	user, ok := middleware.GetUser(c)
	if !ok {
		return response.Unauthorized(c, "User not authenticated")
	}

	var req services.AddCourseRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	req.Title = validation.SanitizeString(req.Title)
	if err := h.validator.ValidateStruct(req); err != nil {
		return response.ValidationError(c, err)
	}

	course, err := h.courses.Add(c.UserContext(), user, req)
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Created(c, course)
}

// ListCourses handles GET /api/v1/courses.
// Colleges list their own courses; students and faculty list their college's.
func (h *CourseHandler) ListCourses(c *fiber.Ctx) error {
	user, ok := middleware.GetUser(c)
	if !ok {
		return response.Unauthorized(c, "User not authenticated")
	}

	collegeID := user.ID
	if user.Role != model.RoleCollege {
		if user.CollegeID == nil {
			return response.Success(c, []model.Course{})
		}
		collegeID = *user.CollegeID
	}

	list, err := h.courses.List(c.UserContext(), collegeID)
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, list)
}

// RecommendedCourses handles GET /api/v1/courses/recommended.
// ?skill= asks for one skill; without it the student's own skills are used.
func (h *CourseHandler) RecommendedCourses(c *fiber.Ctx) error {
	user, ok := middleware.GetUser(c)
	if !ok {
		return response.Unauthorized(c, "User not authenticated")
	}

	var (
		list []model.Course
		err  error
	)
	if skill := validation.SanitizeString(c.Query("skill")); skill != "" {
		list, err = h.courses.Recommended(c.UserContext(), skill)
	} else {
		list, err = h.courses.RecommendedFor(c.UserContext(), user)
	}
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, list)
}
