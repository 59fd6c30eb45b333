package certificate

import (
	"context"
	"strconv"

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

// CertificateHandler handles certificate uploads and reviews
type CertificateHandler struct {
	certificates *services.CertificateService
	uploads      *services.UploadService
	validator    *validation.Validator
	logger       *zap.Logger
}

// NewCertificateHandler creates a new certificate handler
func NewCertificateHandler(certificates *services.CertificateService, uploads *services.UploadService, logger *zap.Logger) *CertificateHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CertificateHandler{
		certificates: certificates,
		uploads:      uploads,
		validator:    validation.NewValidator(),
		logger:       logger,
	}
}

// ReviewRequest carries the review decision
type ReviewRequest struct {
	Status string `json:"status" validate:"required,review_status"`
}

// UploadResponse describes a finished certificate upload
type UploadResponse struct {
	JobID         string `json:"job_id"`
	CertificateID uint   `json:"certificate_id,omitempty"`
	FileURL       string `json:"file_url"`
	Outcome       string `json:"outcome"`
}

// UploadCertificate handles POST /api/v1/certificates (student, multipart
// field "file"). Add ?stream=true to receive progress as server-sent events.
func (h *CertificateHandler) UploadCertificate(c *fiber.Ctx) error {
	user, ok := middleware.GetUser(c)
	if !ok {
		return response.Unauthorized(c, "User not authenticated")
	}
	if user.Role != model.RoleStudent {
		return response.Forbidden(c, "Only students upload certificates")
	}

	staged, err := upload.Stage(c, "file", upload.CertificateTypes)
	if err != nil {
		return response.FromError(c, err)
	}

	return upload.Respond(c, staged, h.logger, func(ctx context.Context, onEvent func(*services.ProgressEvent)) (interface{}, *fileupload.Result, error) {
		res, err := h.uploads.UploadCertificate(ctx, user, staged.JobID, staged.URI, staged.FileName, onEvent)
		if err != nil {
			return nil, nil, err
		}
		return UploadResponse{
			JobID:         staged.JobID,
			CertificateID: res.RecordID,
			FileURL:       res.File.URL,
			Outcome:       string(res.Outcome),
		}, res, nil
	})
}

// ListCertificates handles GET /api/v1/certificates.
// Students see their own; faculty and colleges see every certificate, or
// only the pending ones with ?status=pending.
func (h *CertificateHandler) ListCertificates(c *fiber.Ctx) error {
	user, ok := middleware.GetUser(c)
	if !ok {
		return response.Unauthorized(c, "User not authenticated")
	}

	ctx := c.UserContext()
	var (
		list []model.Certificate
		err  error
	)
	switch {
	case user.Role == model.RoleStudent:
		list, err = h.certificates.ListByStudent(ctx, user.ID)
	case user.Role != model.RoleFaculty && user.Role != model.RoleCollege:
		return response.Forbidden(c, "Insufficient permissions")
	case c.Query("status") == string(model.ReviewStatusPending):
		list, err = h.certificates.ListPending(ctx)
	default:
		list, err = h.certificates.ListAll(ctx)
	}
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, list)
}

// ReviewCertificate handles PATCH /api/v1/certificates/:id/status (faculty, college)
func (h *CertificateHandler) ReviewCertificate(c *fiber.Ctx) error {
	user, ok := middleware.GetUser(c)
	if !ok {
		return response.Unauthorized(c, "User not authenticated")
	}
	id, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return response.BadRequest(c, "Invalid certificate ID")
	}

	var req ReviewRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if err := h.validator.ValidateStruct(req); err != nil {
		return response.ValidationError(c, err)
	}

	cert, err := h.certificates.Review(c.UserContext(), user, uint(id), req.Status)
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, cert)
}
