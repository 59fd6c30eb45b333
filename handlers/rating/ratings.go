package rating

import (
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/sahilchouksey/intern-track/model"
	"github.com/sahilchouksey/intern-track/services"
	"github.com/sahilchouksey/intern-track/utils/middleware"
	"github.com/sahilchouksey/intern-track/utils/response"
	"github.com/sahilchouksey/intern-track/utils/validation"
)

// RatingHandler handles company feedback on interns
type RatingHandler struct {
	ratings   *services.RatingService
	validator *validation.Validator
}

// NewRatingHandler creates a new rating handler
func NewRatingHandler(ratings *services.RatingService) *RatingHandler {
	return &RatingHandler{ratings: ratings, validator: validation.NewValidator()}
}

// SubmitRating handles POST /api/v1/ratings (company)
func (h *RatingHandler) SubmitRating(c *fiber.Ctx) error {
	user, ok := middleware.GetUser(c)
	if !ok {
		return response.Unauthorized(c, "User not authenticated")
	}

	var req services.SubmitRatingRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	req.Feedback = validation.SanitizeString(req.Feedback)
	if err := h.validator.ValidateStruct(req); err != nil {
		return response.ValidationError(c, err)
	}

	r, err := h.ratings.Submit(c.UserContext(), user, req)
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Created(c, r)
}

// ListRatings handles GET /api/v1/students/:id/ratings. Students may only
// read their own.
func (h *RatingHandler) ListRatings(c *fiber.Ctx) error {
	user, ok := middleware.GetUser(c)
	if !ok {
		return response.Unauthorized(c, "User not authenticated")
	}
	id, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return response.BadRequest(c, "Invalid student ID")
	}
	if user.Role == model.RoleStudent && uint(id) != user.ID {
		return response.Forbidden(c, "Access denied")
	}

	list, err := h.ratings.ListForStudent(c.UserContext(), uint(id))
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, list)
}
