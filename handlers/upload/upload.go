// Package upload holds the HTTP plumbing shared by every handler that
// accepts a file: staging the multipart body on disk, running the upload
// with or without an event stream, and job status polling.
package upload

import (
	"bufio"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/sahilchouksey/intern-track/services"
	fileupload "github.com/sahilchouksey/intern-track/services/upload"
	"github.com/sahilchouksey/intern-track/utils/apperr"
	"github.com/sahilchouksey/intern-track/utils/middleware"
	"github.com/sahilchouksey/intern-track/utils/response"
	"github.com/sahilchouksey/intern-track/utils/sse"
)

// JobIDHeader carries the job ID back so a client can poll or reconnect
const JobIDHeader = "X-Upload-Job-ID"

// Staged is a multipart file saved to a private temporary directory
type Staged struct {
	URI      string
	FileName string
	JobID    string
	dir      string
}

// Remove deletes the staged copy
func (s *Staged) Remove() {
	if s != nil && s.dir != "" {
		_ = os.RemoveAll(s.dir)
	}
}

// Content types accepted by the upload endpoints
var (
	CertificateTypes = []string{"application/pdf", "image/*"}
	PhotoTypes       = []string{"image/*"}
	PlanTypes        = []string{
		"application/pdf",
		"image/*",
		"application/msword",
		"application/vnd.openxmlformats-officedocument.wordprocessingml.document",
	}
)

// Stage saves the multipart file in field to disk and returns a file://
// reference to it. The sniffed content type must match one of allowed. The
// job ID comes from the job_id form value, which must be a UUID, or is
// generated.
func Stage(c *fiber.Ctx, field string, allowed []string) (*Staged, error) {
	jobID := strings.TrimSpace(c.FormValue("job_id"))
	if jobID == "" {
		jobID = services.NewJobID()
	} else {
		parsed, err := uuid.Parse(jobID)
		if err != nil {
			return nil, apperr.Validation("job_id must be a UUID")
		}
		jobID = parsed.String()
	}

	fh, err := c.FormFile(field)
	if err != nil {
		return nil, apperr.Validation("%s file is required", field)
	}

	name := filepath.Base(strings.ReplaceAll(fh.Filename, "\\", "/"))
	if name == "." || name == "/" || name == "" {
		return nil, apperr.Validation("file name is required")
	}

	dir, err := os.MkdirTemp("", "intern-track-upload-*")
	if err != nil {
		return nil, err
	}
	path := filepath.Join(dir, name)
	if err := c.SaveFile(fh, path); err != nil {
		_ = os.RemoveAll(dir)
		return nil, err
	}

	picked, err := fileupload.Picker{}.Pick(c.UserContext(), path, allowed)
	if err != nil {
		_ = os.RemoveAll(dir)
		return nil, apperr.Validation("%s", err.Error())
	}

	return &Staged{
		URI:      picked.URI,
		FileName: name,
		JobID:    jobID,
		dir:      dir,
	}, nil
}

// RunFunc runs one upload and reports progress through onEvent. It returns
// the reply body and the pipeline result the body was built from.
type RunFunc func(ctx context.Context, onEvent func(*services.ProgressEvent)) (interface{}, *fileupload.Result, error)

// MetadataWarning is sent with a completed upload whose record was not saved
const MetadataWarning = "Upload succeeded but saving metadata failed"

func warningFor(res *fileupload.Result) string {
	if res == nil || res.Outcome != fileupload.OutcomeCompletedWithWarning {
		return ""
	}
	return MetadataWarning
}

// Respond runs fn and removes staged afterwards. With ?stream=true every
// progress event goes out as a server-sent event; otherwise the handler
// answers once the upload has finished.
func Respond(c *fiber.Ctx, staged *Staged, logger *zap.Logger, fn RunFunc) error {
	c.Set(JobIDHeader, staged.JobID)

	if c.Query("stream") != "true" {
		defer staged.Remove()
		data, res, err := fn(c.UserContext(), nil)
		if err != nil {
			return response.FromError(c, err)
		}
		return response.CreatedWithWarning(c, data, warningFor(res))
	}

	sse.SetHeaders(c)
	c.Context().SetBodyStreamWriter(func(w *bufio.Writer) {
		defer staged.Remove()

		// The fiber context is not valid inside the stream writer
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		terminal := false
		_, _, err := fn(ctx, func(ev *services.ProgressEvent) {
			switch ev.Type {
			case "complete", "warning", "error":
				terminal = true
			}
			if err := sse.Send(w, sse.Event{Event: ev.Type, ID: ev.JobID, Data: ev}); err != nil {
				// client went away; stop the upload
				cancel()
			}
		})
		if err != nil && !terminal {
			_, code := response.Status(err)
			if serr := sse.SendError(w, code, err); serr != nil {
				logger.Debug("failed to send upload error event", zap.Error(serr))
			}
		}
	})
	return nil
}

// Handler serves upload job status for polling and reconnecting clients
type Handler struct {
	tracker *services.ProgressTracker
}

func NewHandler(tracker *services.ProgressTracker) *Handler {
	return &Handler{tracker: tracker}
}

// GetJob handles GET /api/v1/uploads/:job_id
func (h *Handler) GetJob(c *fiber.Ctx) error {
	user, ok := middleware.GetUser(c)
	if !ok {
		return response.Unauthorized(c, "User not authenticated")
	}

	job, err := h.tracker.GetJob(c.UserContext(), c.Params("job_id"))
	if errors.Is(err, services.ErrJobNotFound) {
		return response.NotFound(c, "Job not found or expired")
	}
	if err != nil {
		return response.FromError(c, err)
	}
	if job.UserID != user.ID {
		return response.Forbidden(c, "Access denied")
	}
	return response.Success(c, job)
}

// GetActive handles GET /api/v1/uploads/active
func (h *Handler) GetActive(c *fiber.Ctx) error {
	user, ok := middleware.GetUser(c)
	if !ok {
		return response.Unauthorized(c, "User not authenticated")
	}

	jobID, err := h.tracker.GetActiveJob(c.UserContext(), user.ID)
	if err != nil {
		return response.FromError(c, err)
	}
	if jobID == "" {
		return response.Success(c, fiber.Map{"active": false})
	}

	job, err := h.tracker.GetJob(c.UserContext(), jobID)
	if err != nil {
		// lock outlived its job state
		return response.Success(c, fiber.Map{"active": true, "job_id": jobID})
	}
	return response.Success(c, fiber.Map{"active": true, "job_id": jobID, "job": job})
}
