package student

import (
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/sahilchouksey/intern-track/model"
	"github.com/sahilchouksey/intern-track/services"
	"github.com/sahilchouksey/intern-track/utils/middleware"
	"github.com/sahilchouksey/intern-track/utils/response"
	"github.com/sahilchouksey/intern-track/utils/validation"
)

// StudentHandler lets colleges and faculty browse students
type StudentHandler struct {
	profiles  *services.ProfileService
	validator *validation.Validator
}

// NewStudentHandler creates a new student handler
func NewStudentHandler(profiles *services.ProfileService) *StudentHandler {
	return &StudentHandler{profiles: profiles, validator: validation.NewValidator()}
}

// AssignFacultyRequest names the coordinator for a student
type AssignFacultyRequest struct {
	FacultyID uint `json:"faculty_id" validate:"required"`
}

// ListStudents handles GET /api/v1/students. Faculty see their college's
// students, or every student when they belong to no college.
func (h *StudentHandler) ListStudents(c *fiber.Ctx) error {
	user, ok := middleware.GetUser(c)
	if !ok {
		return response.Unauthorized(c, "User not authenticated")
	}

	collegeID := user.ID
	if user.Role != model.RoleCollege {
		collegeID = 0
		if user.CollegeID != nil {
			collegeID = *user.CollegeID
		}
	}

	students, err := h.profiles.ListStudents(c.UserContext(), collegeID)
	if err != nil {
		return response.FromError(c, err)
	}

	out := make([]model.PublicUser, 0, len(students))
	for i := range students {
		out = append(out, students[i].ToPublic())
	}
	return response.Success(c, out)
}

// GetStudent handles GET /api/v1/students/:id
func (h *StudentHandler) GetStudent(c *fiber.Ctx) error {
	id, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return response.BadRequest(c, "Invalid student ID")
	}

	u, err := h.profiles.Get(c.UserContext(), uint(id))
	if err != nil {
		return response.FromError(c, err)
	}
	if u.Role != model.RoleStudent {
		return response.NotFound(c, "Student not found")
	}
	return response.Success(c, u.ToPublic())
}

// AssignFaculty handles PUT /api/v1/students/:id/faculty (college)
func (h *StudentHandler) AssignFaculty(c *fiber.Ctx) error {
	user, ok := middleware.GetUser(c)
	if !ok {
		return response.Unauthorized(c, "User not authenticated")
	}
	id, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return response.BadRequest(c, "Invalid student ID")
	}

	var req AssignFacultyRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if err := h.validator.ValidateStruct(req); err != nil {
		return response.ValidationError(c, err)
	}

	student, err := h.profiles.AssignFaculty(c.UserContext(), user, uint(id), req.FacultyID)
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, student.ToPublic())
}
