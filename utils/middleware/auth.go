package middleware

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/sahilchouksey/intern-track/model"
	"github.com/sahilchouksey/intern-track/services/session"
	"github.com/sahilchouksey/intern-track/utils/apperr"
	"github.com/sahilchouksey/intern-track/utils/auth"
	"github.com/sahilchouksey/intern-track/utils/response"
)

// AuthMiddleware handles JWT authentication
type AuthMiddleware struct {
	sessions *session.AuthService
}

// NewAuthMiddleware creates a new auth middleware
func NewAuthMiddleware(sessions *session.AuthService) *AuthMiddleware {
	return &AuthMiddleware{sessions: sessions}
}

// bearerToken extracts the token from "Authorization: Bearer <token>".
// Event streams cannot set headers, so ?access_token= is accepted too.
func bearerToken(c *fiber.Ctx) (string, bool) {
	header := c.Get(fiber.HeaderAuthorization)
	if header == "" {
		if t := c.Query("access_token"); t != "" {
			return t, true
		}
		return "", false
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || parts[0] != "Bearer" || parts[1] == "" {
		return "", false
	}
	return parts[1], true
}

// Required is middleware that requires a valid access token
func (m *AuthMiddleware) Required() fiber.Handler {
	return func(c *fiber.Ctx) error {
		token, ok := bearerToken(c)
		if !ok {
			return response.Unauthorized(c, "Missing or malformed authorization token")
		}

		user, claims, err := m.sessions.Authenticate(c.UserContext(), token)
		if err != nil {
			var authErr *apperr.AuthError
			if errors.As(err, &authErr) || apperr.IsNotFound(err) {
				return response.Unauthorized(c, authMessage(err))
			}
			return response.InternalServerError(c, "Failed to check token status")
		}

		c.Locals("user_id", user.ID)
		c.Locals("user_role", user.Role)
		c.Locals("claims", claims)
		c.Locals("user", user)
		return c.Next()
	}
}

func authMessage(err error) string {
	var authErr *apperr.AuthError
	if !errors.As(err, &authErr) {
		return "User not found"
	}
	switch authErr.Reason {
	case "token-revoked":
		return "Token has been revoked"
	case "token-invalidated":
		return "Token has been invalidated"
	case "invalid-token-type":
		return "Invalid token type"
	}
	if errors.Is(err, auth.ErrExpiredToken) {
		return "Token has expired"
	}
	return "Invalid token"
}

// RequireRole rejects users whose role is not listed. It must run after Required.
func (m *AuthMiddleware) RequireRole(roles ...model.Role) fiber.Handler {
	return func(c *fiber.Ctx) error {
		role, ok := c.Locals("user_role").(model.Role)
		if !ok {
			return response.Forbidden(c, "Access denied")
		}
		for _, r := range roles {
			if role == r {
				return c.Next()
			}
		}
		return response.Forbidden(c, "Insufficient permissions")
	}
}

// GetUserID extracts user ID from context
func GetUserID(c *fiber.Ctx) (uint, bool) {
	id, ok := c.Locals("user_id").(uint)
	return id, ok
}

// GetUser extracts full user object from context
func GetUser(c *fiber.Ctx) (*model.User, bool) {
	u, ok := c.Locals("user").(*model.User)
	return u, ok && u != nil
}

// GetClaims extracts full claims from context
func GetClaims(c *fiber.Ctx) (*auth.Claims, bool) {
	claims, ok := c.Locals("claims").(*auth.Claims)
	return claims, ok && claims != nil
}
