package internship

import (
	"github.com/gofiber/fiber/v2"

	"github.com/sahilchouksey/intern-track/utils/middleware"
	"github.com/sahilchouksey/intern-track/utils/response"
)

// UpdateStatusRequest carries the new review status. "accepted" is read as
// approved.
type UpdateStatusRequest struct {
	Status string `json:"status" validate:"required,review_status"`
}

// Apply handles POST /api/v1/internships/:id/apply (student)
func (h *InternshipHandler) Apply(c *fiber.Ctx) error {
	user, ok := middleware.GetUser(c)
	if !ok {
		return response.Unauthorized(c, "User not authenticated")
	}
	id, ok := paramID(c, "id")
	if !ok {
		return response.BadRequest(c, "Invalid internship ID")
	}

	app, err := h.applications.Apply(c.UserContext(), user, id)
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Created(c, app)
}

// ListMyApplications handles GET /api/v1/applications/mine (student)
func (h *InternshipHandler) ListMyApplications(c *fiber.Ctx) error {
	user, ok := middleware.GetUser(c)
	if !ok {
		return response.Unauthorized(c, "User not authenticated")
	}

	list, err := h.applications.ListByStudent(c.UserContext(), user.ID)
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, list)
}

// ListPendingApplications handles GET /api/v1/applications/pending (college, faculty)
func (h *InternshipHandler) ListPendingApplications(c *fiber.Ctx) error {
	list, err := h.applications.ListPending(c.UserContext())
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, list)
}

// ListReceivedApplications handles GET /api/v1/applications/received (company)
func (h *InternshipHandler) ListReceivedApplications(c *fiber.Ctx) error {
	user, ok := middleware.GetUser(c)
	if !ok {
		return response.Unauthorized(c, "User not authenticated")
	}

	list, err := h.applications.ListForCompany(c.UserContext(), user.ID)
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, list)
}

// UpdateApplicationStatus handles PATCH /api/v1/applications/:id/status
func (h *InternshipHandler) UpdateApplicationStatus(c *fiber.Ctx) error {
	user, ok := middleware.GetUser(c)
	if !ok {
		return response.Unauthorized(c, "User not authenticated")
	}
	id, ok := paramID(c, "id")
	if !ok {
		return response.BadRequest(c, "Invalid application ID")
	}

	var req UpdateStatusRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if err := h.validator.ValidateStruct(req); err != nil {
		return response.ValidationError(c, err)
	}

	app, err := h.applications.UpdateStatus(c.UserContext(), user, id, req.Status)
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, app)
}
