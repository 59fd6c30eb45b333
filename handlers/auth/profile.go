package auth

import (
	"context"

	"github.com/gofiber/fiber/v2"

	"github.com/sahilchouksey/intern-track/handlers/upload"
	"github.com/sahilchouksey/intern-track/model"
	"github.com/sahilchouksey/intern-track/services"
	fileupload "github.com/sahilchouksey/intern-track/services/upload"
	"github.com/sahilchouksey/intern-track/utils/middleware"
	"github.com/sahilchouksey/intern-track/utils/response"
	"github.com/sahilchouksey/intern-track/utils/validation"
)

// SkillRequest names one skill to add or remove
type SkillRequest struct {
	Skill string `json:"skill" validate:"required,notblank,max=100"`
}

// GetProfile handles GET /api/v1/profile
func (h *AuthHandler) GetProfile(c *fiber.Ctx) error {
	user, ok := middleware.GetUser(c)
	if !ok {
		return response.Unauthorized(c, "Not authenticated")
	}

	fresh, err := h.profiles.Get(c.UserContext(), user.ID)
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, toUserResponse(fresh))
}

// AddSkill handles POST /api/v1/profile/skills
func (h *AuthHandler) AddSkill(c *fiber.Ctx) error {
	return h.editSkill(c, h.profiles.AddSkill)
}

// RemoveSkill handles DELETE /api/v1/profile/skills
func (h *AuthHandler) RemoveSkill(c *fiber.Ctx) error {
	return h.editSkill(c, h.profiles.RemoveSkill)
}

func (h *AuthHandler) editSkill(c *fiber.Ctx, edit func(context.Context, uint, string) (*model.User, error)) error {
	user, ok := middleware.GetUser(c)
	if !ok {
		return response.Unauthorized(c, "Not authenticated")
	}

	var req SkillRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	req.Skill = validation.SanitizeString(req.Skill)
	if err := h.validator.ValidateStruct(req); err != nil {
		return response.ValidationError(c, err)
	}

	updated, err := edit(c.UserContext(), user.ID, req.Skill)
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, toUserResponse(updated))
}

// UploadPhoto handles POST /api/v1/profile/photo (multipart field "photo")
func (h *AuthHandler) UploadPhoto(c *fiber.Ctx) error {
	user, ok := middleware.GetUser(c)
	if !ok {
		return response.Unauthorized(c, "Not authenticated")
	}

	staged, err := upload.Stage(c, "photo", upload.PhotoTypes)
	if err != nil {
		return response.FromError(c, err)
	}

	return upload.Respond(c, staged, h.logger, func(ctx context.Context, onEvent func(*services.ProgressEvent)) (interface{}, *fileupload.Result, error) {
		res, err := h.profiles.UploadPhoto(ctx, user, staged.JobID, staged.URI, staged.FileName, onEvent)
		if err != nil {
			return nil, nil, err
		}
		return fiber.Map{"photo_url": res.File.URL, "outcome": res.Outcome}, res, nil
	})
}
