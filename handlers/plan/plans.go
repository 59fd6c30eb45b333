package plan

import (
	"context"
	"strings"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/sahilchouksey/intern-track/handlers/upload"
	"github.com/sahilchouksey/intern-track/model"
	"github.com/sahilchouksey/intern-track/services"
	fileupload "github.com/sahilchouksey/intern-track/services/upload"
	"github.com/sahilchouksey/intern-track/utils/middleware"
	"github.com/sahilchouksey/intern-track/utils/response"
	"github.com/sahilchouksey/intern-track/utils/validation"
)

// PlanHandler handles planning documents sent from faculty to students
type PlanHandler struct {
	plans     *services.PlanService
	validator *validation.Validator
	logger    *zap.Logger
}

// NewPlanHandler creates a new plan handler
func NewPlanHandler(plans *services.PlanService, logger *zap.Logger) *PlanHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PlanHandler{plans: plans, validator: validation.NewValidator(), logger: logger}
}

// SubmitPlanRequest is accepted as JSON or, with an attachment, as a
// multipart form
type SubmitPlanRequest struct {
	StudentID uint   `json:"student_id" form:"student_id" validate:"required"`
	PlanText  string `json:"plan_text" form:"plan_text" validate:"required,notblank"`
}

// SubmitPlan handles POST /api/v1/plans (faculty). A multipart "file" part
// is uploaded first; ?stream=true reports its progress as server-sent events.
func (h *PlanHandler) SubmitPlan(c *fiber.Ctx) error {
	user, ok := middleware.GetUser(c)
	if !ok {
		return response.Unauthorized(c, "User not authenticated")
	}

	var req SubmitPlanRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	req.PlanText = validation.SanitizeString(req.PlanText)
	if err := h.validator.ValidateStruct(req); err != nil {
		return response.ValidationError(c, err)
	}
	in := services.SubmitPlanRequest{StudentID: req.StudentID, PlanText: req.PlanText}

	if !strings.HasPrefix(c.Get(fiber.HeaderContentType), fiber.MIMEMultipartForm) {
		return h.submit(c, user, in)
	}
	if _, err := c.FormFile("file"); err != nil {
		return h.submit(c, user, in)
	}

	staged, err := upload.Stage(c, "file", upload.PlanTypes)
	if err != nil {
		return response.FromError(c, err)
	}
	att := &services.Attachment{JobID: staged.JobID, URI: staged.URI, FileName: staged.FileName}

	return upload.Respond(c, staged, h.logger, func(ctx context.Context, onEvent func(*services.ProgressEvent)) (interface{}, *fileupload.Result, error) {
		res, err := h.plans.Submit(ctx, user, in, att, onEvent)
		if err != nil {
			return nil, nil, err
		}
		out := fiber.Map{"plan": res.Plan, "job_id": staged.JobID}
		if res.Upload != nil {
			out["outcome"] = res.Upload.Outcome
		}
		return out, res.Upload, nil
	})
}

func (h *PlanHandler) submit(c *fiber.Ctx, user *model.User, in services.SubmitPlanRequest) error {
	res, err := h.plans.Submit(c.UserContext(), user, in, nil, nil)
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Created(c, fiber.Map{"plan": res.Plan})
}

// ListPlans handles GET /api/v1/plans. Students see plans sent to them,
// faculty the plans they sent.
func (h *PlanHandler) ListPlans(c *fiber.Ctx) error {
	user, ok := middleware.GetUser(c)
	if !ok {
		return response.Unauthorized(c, "User not authenticated")
	}

	var (
		list []model.Plan
		err  error
	)
	switch user.Role {
	case model.RoleStudent:
		list, err = h.plans.ListByStudent(c.UserContext(), user.ID)
	case model.RoleFaculty:
		list, err = h.plans.ListByFaculty(c.UserContext(), user.ID)
	default:
		return response.Forbidden(c, "Insufficient permissions")
	}
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, list)
}
