package auth

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/sahilchouksey/intern-track/model"
	"github.com/sahilchouksey/intern-track/services"
	"github.com/sahilchouksey/intern-track/services/session"
	authutil "github.com/sahilchouksey/intern-track/utils/auth"
	"github.com/sahilchouksey/intern-track/utils/middleware"
	"github.com/sahilchouksey/intern-track/utils/response"
	"github.com/sahilchouksey/intern-track/utils/validation"
)

// AuthHandler handles sign-up, sign-in and the signed-in user's profile
type AuthHandler struct {
	sessions             *session.AuthService
	profiles             *services.ProfileService
	bruteForceProtection *middleware.BruteForceProtection
	validator            *validation.Validator
	logger               *zap.Logger
}

// NewAuthHandler creates a new auth handler. bruteForceProtection may be nil.
func NewAuthHandler(sessions *session.AuthService, profiles *services.ProfileService, bruteForceProtection *middleware.BruteForceProtection, logger *zap.Logger) *AuthHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AuthHandler{
		sessions:             sessions,
		profiles:             profiles,
		bruteForceProtection: bruteForceProtection,
		validator:            validation.NewValidator(),
		logger:               logger,
	}
}

// AuthResponse is returned by register, login and refresh
type AuthResponse struct {
	User         *UserResponse `json:"user,omitempty"`
	AccessToken  string        `json:"access_token"`
	RefreshToken string        `json:"refresh_token"`
	ExpiresIn    int           `json:"expires_in"` // in seconds
}

// UserResponse is the signed-in user's own profile
type UserResponse struct {
	ID          uint       `json:"id"`
	Email       string     `json:"email"`
	Name        string     `json:"name"`
	Role        model.Role `json:"role"`
	CollegeID   *uint      `json:"college_id,omitempty"`
	CollegeName string     `json:"college_name,omitempty"`
	FacultyID   *uint      `json:"faculty_id,omitempty"`
	CompanyName string     `json:"company_name,omitempty"`
	Skills      []string   `json:"skills"`
	PhotoURL    string     `json:"photo_url,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

func toUserResponse(u *model.User) *UserResponse {
	skills := []string(u.Skills)
	if skills == nil {
		skills = []string{}
	}
	return &UserResponse{
		ID:          u.ID,
		Email:       u.Email,
		Name:        u.Name,
		Role:        u.Role,
		CollegeID:   u.CollegeID,
		CollegeName: u.CollegeName,
		FacultyID:   u.FacultyID,
		CompanyName: u.CompanyName,
		Skills:      skills,
		PhotoURL:    u.PhotoURL,
		CreatedAt:   u.CreatedAt,
		UpdatedAt:   u.UpdatedAt,
	}
}

func toAuthResponse(u *model.User, pair *authutil.TokenPair) AuthResponse {
	res := AuthResponse{
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
		ExpiresIn:    int(time.Until(pair.ExpiresAt).Seconds()),
	}
	if u != nil {
		res.User = toUserResponse(u)
	}
	return res
}

// Register handles POST /api/v1/auth/register
func (h *AuthHandler) Register(c *fiber.Ctx) error {
	var req session.SignUpInput
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	req.Name = validation.SanitizeString(req.Name)
	req.CollegeName = validation.SanitizeString(req.CollegeName)
	req.CompanyName = validation.SanitizeString(req.CompanyName)
	if err := h.validator.ValidateStruct(req); err != nil {
		return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{
			"success": false,
			"error": fiber.Map{
				"code":    "VALIDATION_ERROR",
				"message": "Validation failed",
				"fields":  validation.FormatValidationErrors(err),
			},
		})
	}

	user, pair, err := h.sessions.SignUp(c.UserContext(), req)
	if err != nil {
		return response.FromError(c, err)
	}

	return response.Created(c, toAuthResponse(user, pair))
}
