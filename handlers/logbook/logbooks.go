package logbook

import (
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/sahilchouksey/intern-track/model"
	"github.com/sahilchouksey/intern-track/services"
	"github.com/sahilchouksey/intern-track/utils/middleware"
	"github.com/sahilchouksey/intern-track/utils/response"
	"github.com/sahilchouksey/intern-track/utils/validation"
)

// LogbookHandler handles daily logbook entries and faculty feedback
type LogbookHandler struct {
	logbooks  *services.LogbookService
	validator *validation.Validator
}

// NewLogbookHandler creates a new logbook handler
func NewLogbookHandler(logbooks *services.LogbookService) *LogbookHandler {
	return &LogbookHandler{logbooks: logbooks, validator: validation.NewValidator()}
}

// CreateEntryRequest is one day's log
type CreateEntryRequest struct {
	Content string `json:"content" validate:"required,notblank,max=10000"`
}

// FeedbackRequest is a faculty comment on an entry
type FeedbackRequest struct {
	Feedback string `json:"feedback" validate:"required,notblank,max=5000"`
}

// CreateEntry handles POST /api/v1/logbooks (student)
func (h *LogbookHandler) CreateEntry(c *fiber.Ctx) error {
	user, ok := middleware.GetUser(c)
	if !ok {
		return response.Unauthorized(c, "User not authenticated")
	}

	var req CreateEntryRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if err := h.validator.ValidateStruct(req); err != nil {
		return response.ValidationError(c, err)
	}

	entry, err := h.logbooks.Create(c.UserContext(), user, validation.SanitizeString(req.Content))
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Created(c, entry)
}

// ListEntries handles GET /api/v1/logbooks.
// Students see their own entries, faculty the ones addressed to them
// (?all=true for every entry), colleges every entry.
func (h *LogbookHandler) ListEntries(c *fiber.Ctx) error {
	user, ok := middleware.GetUser(c)
	if !ok {
		return response.Unauthorized(c, "User not authenticated")
	}

	ctx := c.UserContext()
	var (
		list []model.LogbookEntry
		err  error
	)
	switch {
	case user.Role == model.RoleStudent:
		list, err = h.logbooks.ListByStudent(ctx, user.ID)
	case user.Role == model.RoleFaculty && !c.QueryBool("all"):
		list, err = h.logbooks.ListByFaculty(ctx, user.ID)
	case user.Role == model.RoleFaculty || user.Role == model.RoleCollege:
		list, err = h.logbooks.ListAll(ctx)
	default:
		return response.Forbidden(c, "Insufficient permissions")
	}
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, list)
}

// AddFeedback handles PUT /api/v1/logbooks/:id/feedback (faculty)
func (h *LogbookHandler) AddFeedback(c *fiber.Ctx) error {
	user, ok := middleware.GetUser(c)
	if !ok {
		return response.Unauthorized(c, "User not authenticated")
	}
	id, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return response.BadRequest(c, "Invalid logbook entry ID")
	}

	var req FeedbackRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if err := h.validator.ValidateStruct(req); err != nil {
		return response.ValidationError(c, err)
	}

	entry, err := h.logbooks.AddFeedback(c.UserContext(), user, uint(id), validation.SanitizeString(req.Feedback))
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, entry)
}
