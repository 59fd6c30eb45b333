package internship

import (
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/sahilchouksey/intern-track/model"
	"github.com/sahilchouksey/intern-track/services"
	"github.com/sahilchouksey/intern-track/utils/middleware"
	"github.com/sahilchouksey/intern-track/utils/response"
	"github.com/sahilchouksey/intern-track/utils/validation"
)

// InternshipHandler handles internship postings and applications
type InternshipHandler struct {
	internships  *services.InternshipService
	applications *services.ApplicationService
	validator    *validation.Validator
}

// NewInternshipHandler creates a new internship handler
func NewInternshipHandler(internships *services.InternshipService, applications *services.ApplicationService) *InternshipHandler {
	return &InternshipHandler{
		internships:  internships,
		applications: applications,
		validator:    validation.NewValidator(),
	}
}

func paramID(c *fiber.Ctx, name string) (uint, bool) {
	id, err := strconv.ParseUint(c.Params(name), 10, 32)
	if err != nil || id == 0 {
		return 0, false
	}
	return uint(id), true
}

// ListInternships handles GET /api/v1/internships.
// Students get the latest verified postings (?limit, default 6); colleges and
// faculty may pass ?all=true for every posting.
func (h *InternshipHandler) ListInternships(c *fiber.Ctx) error {
	user, ok := middleware.GetUser(c)
	if !ok {
		return response.Unauthorized(c, "User not authenticated")
	}

	if c.QueryBool("all") && (user.Role == model.RoleCollege || user.Role == model.RoleFaculty) {
		list, err := h.internships.ListAll(c.UserContext())
		if err != nil {
			return response.FromError(c, err)
		}
		return response.Success(c, list)
	}

	limit := c.QueryInt("limit", services.DefaultVerifiedLimit)
	if limit < 1 || limit > 100 {
		limit = services.DefaultVerifiedLimit
	}
	list, err := h.internships.ListVerified(c.UserContext(), limit)
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, list)
}

// ListMyInternships handles GET /api/v1/internships/mine (company)
func (h *InternshipHandler) ListMyInternships(c *fiber.Ctx) error {
	user, ok := middleware.GetUser(c)
	if !ok {
		return response.Unauthorized(c, "User not authenticated")
	}

	list, err := h.internships.ListByCompany(c.UserContext(), user.ID)
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, list)
}

// GetInternship handles GET /api/v1/internships/:id
func (h *InternshipHandler) GetInternship(c *fiber.Ctx) error {
	id, ok := paramID(c, "id")
	if !ok {
		return response.BadRequest(c, "Invalid internship ID")
	}

	in, err := h.internships.Get(c.UserContext(), id)
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, in)
}

// CreateInternship handles POST /api/v1/internships (company)
func (h *InternshipHandler) CreateInternship(c *fiber.Ctx) error {
	user, ok := middleware.GetUser(c)
	if !ok {
		return response.Unauthorized(c, "User not authenticated")
	}

	var req services.PostInternshipRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	req.Title = validation.SanitizeString(req.Title)
	req.Location = validation.SanitizeString(req.Location)
	req.Description = validation.SanitizeString(req.Description)
	if err := h.validator.ValidateStruct(req); err != nil {
		return response.ValidationError(c, err)
	}

	in, err := h.internships.Post(c.UserContext(), user, req)
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Created(c, in)
}

// DeleteInternship handles DELETE /api/v1/internships/:id (owning company)
func (h *InternshipHandler) DeleteInternship(c *fiber.Ctx) error {
	user, ok := middleware.GetUser(c)
	if !ok {
		return response.Unauthorized(c, "User not authenticated")
	}
	id, ok := paramID(c, "id")
	if !ok {
		return response.BadRequest(c, "Invalid internship ID")
	}

	if err := h.internships.Delete(c.UserContext(), user.ID, id); err != nil {
		return response.FromError(c, err)
	}
	return response.SuccessWithMessage(c, "Internship deleted successfully", nil)
}
