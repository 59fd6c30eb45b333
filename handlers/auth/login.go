package auth

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/sahilchouksey/intern-track/utils/apperr"
	"github.com/sahilchouksey/intern-track/utils/response"
)

// LoginRequest represents a user login request
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// Login handles POST /api/v1/auth/login
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if req.Email == "" || req.Password == "" {
		return response.BadRequest(c, "Email and password are required")
	}

	ctx := c.UserContext()
	ip := c.IP()

	uid, pair, err := h.sessions.SignIn(ctx, req.Email, req.Password)
	if err != nil {
		var authErr *apperr.AuthError
		if errors.As(err, &authErr) {
			if h.bruteForceProtection != nil {
				if rerr := h.bruteForceProtection.RecordFailedAttempt(ctx, ip, req.Email); rerr != nil {
					h.logger.Warn("failed to record sign-in attempt", zap.Error(rerr))
				}
			}
			return response.Unauthorized(c, "Invalid email or password")
		}
		return response.FromError(c, err)
	}

	if h.bruteForceProtection != nil {
		if err := h.bruteForceProtection.RecordSuccessfulAttempt(ctx, ip); err != nil {
			h.logger.Warn("failed to clear sign-in attempts", zap.Error(err))
		}
	}

	// Credentials outlive a deleted profile: the tokens are still issued and
	// the client sees a missing profile
	user, err := h.sessions.Profile(ctx, uid)
	if err != nil && !apperr.IsNotFound(err) {
		return response.FromError(c, err)
	}

	return response.Success(c, toAuthResponse(user, pair))
}
