package auth

import (
	"github.com/gofiber/fiber/v2"

	"github.com/sahilchouksey/intern-track/utils/middleware"
	"github.com/sahilchouksey/intern-track/utils/response"
)

// RefreshRequest represents a token refresh request
type RefreshRequest struct {
	RefreshToken string `json:"refresh_token" validate:"required"`
}

// RefreshToken handles POST /api/v1/auth/refresh
func (h *AuthHandler) RefreshToken(c *fiber.Ctx) error {
	var req RefreshRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if req.RefreshToken == "" {
		return response.BadRequest(c, "Refresh token is required")
	}

	pair, err := h.sessions.Refresh(c.UserContext(), req.RefreshToken)
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, toAuthResponse(nil, pair))
}

// Logout handles POST /api/v1/auth/logout. ?everywhere=true signs out
// every device.
func (h *AuthHandler) Logout(c *fiber.Ctx) error {
	claims, ok := middleware.GetClaims(c)
	if !ok {
		return response.Unauthorized(c, "User not authenticated")
	}

	if err := h.sessions.SignOut(c.UserContext(), claims, c.QueryBool("everywhere")); err != nil {
		return response.FromError(c, err)
	}
	return response.SuccessWithMessage(c, "Logged out successfully", nil)
}
