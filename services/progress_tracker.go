package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/sahilchouksey/intern-track/model"
	"github.com/sahilchouksey/intern-track/services/upload"
	"github.com/sahilchouksey/intern-track/utils/apperr"
	"github.com/sahilchouksey/intern-track/utils/cache"
)

// TTL configurations for upload job states
const (
	JobStateTTLSuccess = 1 * time.Hour    // 1 hour for finished uploads
	JobStateTTLFailure = 24 * time.Hour   // 24 hours for failed uploads
	JobStateTTLPending = 2 * time.Hour    // in-flight uploads
	UploadLockTTL      = 30 * time.Minute // upper bound on one upload holding the user lock
)

// ErrJobNotFound is returned when a job expired or never existed
var ErrJobNotFound = errors.New("upload job not found or expired")

// ProgressEvent is the client-facing progress update sent over SSE
type ProgressEvent struct {
	Type  string `json:"type"` // "started", "progress", "complete", "warning", "error"
	JobID string `json:"job_id"`

	Progress int     `json:"progress"` // 0-100
	Fraction float64 `json:"fraction"`
	Message  string  `json:"message"`

	BytesTransferred int64 `json:"bytes_transferred"`
	TotalBytes       int64 `json:"total_bytes"`

	RecordID     uint   `json:"record_id,omitempty"`
	FileURL      string `json:"file_url,omitempty"`
	ErrorMessage string `json:"error_message,omitempty"`

	Timestamp time.Time `json:"timestamp"`
}

// ProgressTracker keeps upload job state in the cache so that a client
// reconnecting mid-upload can read the last known progress. It also holds
// the one-upload-per-user lock.
type ProgressTracker struct {
	cache cache.Store
}

// NewProgressTracker creates a new progress tracker instance
func NewProgressTracker(store cache.Store) *ProgressTracker {
	return &ProgressTracker{cache: store}
}

var _ upload.Guard = (*ProgressTracker)(nil)

// Acquire takes the user's upload lock for jobID
func (pt *ProgressTracker) Acquire(ctx context.Context, userID uint, jobID string) (func(), error) {
	key := fmt.Sprintf(model.RedisKeyActiveUpload, userID)
	ok, err := pt.cache.SetNX(ctx, key, jobID, UploadLockTTL)
	if err != nil {
		return nil, fmt.Errorf("failed to take upload lock: %w", err)
	}
	if !ok {
		return nil, upload.ErrUploadInFlight
	}

	return func() {
		// The request context may already be gone
		releaseCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
		defer cancel()
		_, _ = pt.cache.DeleteIfEquals(releaseCtx, key, jobID)
	}, nil
}

// CreateJob records a new pending upload job. An ID that already has
// state is rejected with apperr.ErrConflict.
func (pt *ProgressTracker) CreateJob(ctx context.Context, jobID string, userID uint, fileName string) (*model.UploadJob, error) {
	now := time.Now()
	job := &model.UploadJob{
		JobID:     jobID,
		UserID:    userID,
		FileName:  fileName,
		Status:    model.UploadStatusPending,
		Message:   "Upload queued",
		StartedAt: now,
		UpdatedAt: now,
	}

	data, err := json.Marshal(job)
	if err != nil {
		return nil, err
	}
	key := fmt.Sprintf(model.RedisKeyUploadState, jobID)
	created, err := pt.cache.SetNX(ctx, key, data, JobStateTTLPending)
	if err != nil {
		return nil, fmt.Errorf("failed to save job state: %w", err)
	}
	if !created {
		return nil, fmt.Errorf("%w: upload job %s already exists", apperr.ErrConflict, jobID)
	}
	return job, nil
}

// Apply folds a pipeline event into the job and returns the client event
func (pt *ProgressTracker) Apply(ctx context.Context, jobID string, ev upload.Event) (*ProgressEvent, error) {
	job, err := pt.GetJob(ctx, jobID)
	if err != nil {
		return nil, err
	}

	job.Fraction = ev.Fraction
	job.BytesTransferred = ev.BytesTransferred
	job.TotalBytes = ev.TotalBytes
	job.UpdatedAt = time.Now()

	out := &ProgressEvent{Type: "progress", Message: "Uploading"}
	switch ev.Kind {
	case upload.EventProgress:
		if job.Status == model.UploadStatusPending {
			job.Status = model.UploadStatusUploading
			out.Type = "started"
		}
		job.Message = "Uploading"
	case upload.EventSuccess:
		job.Message = "Upload finished, saving record"
		out.Message = job.Message
	case upload.EventFailure:
		pt.fail(job, ev.Err)
		out.Type = "error"
		out.Message = job.Message
		out.ErrorMessage = job.Error
	}

	if err := pt.save(ctx, job); err != nil {
		return nil, err
	}
	return pt.fill(out, job), nil
}

// Complete marks the job finished from a pipeline result
func (pt *ProgressTracker) Complete(ctx context.Context, jobID string, res *upload.Result) (*ProgressEvent, error) {
	job, err := pt.GetJob(ctx, jobID)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	job.CompletedAt = &now
	job.UpdatedAt = now
	job.Fraction = 1
	job.RecordID = res.RecordID
	job.FileURL = res.File.URL

	out := &ProgressEvent{Type: "complete"}
	if res.Outcome == upload.OutcomeCompletedWithWarning {
		job.Status = model.UploadStatusWarning
		job.Message = "Upload completed but saving metadata failed"
		if res.Warning != nil {
			job.Error = res.Warning.Error()
		}
		out.Type = "warning"
		out.ErrorMessage = job.Error
	} else {
		job.Status = model.UploadStatusCompleted
		job.Message = "Upload complete"
	}
	out.Message = job.Message

	if err := pt.save(ctx, job); err != nil {
		return nil, err
	}
	return pt.fill(out, job), nil
}

// Fail marks the job failed, for errors raised before the upload began
func (pt *ProgressTracker) Fail(ctx context.Context, jobID string, cause error) (*ProgressEvent, error) {
	job, err := pt.GetJob(ctx, jobID)
	if err != nil {
		return nil, err
	}
	if job.Status == model.UploadStatusFailed {
		return pt.fill(&ProgressEvent{Type: "error", Message: job.Message, ErrorMessage: job.Error}, job), nil
	}

	pt.fail(job, cause)
	if err := pt.save(ctx, job); err != nil {
		return nil, err
	}
	return pt.fill(&ProgressEvent{Type: "error", Message: job.Message, ErrorMessage: job.Error}, job), nil
}

func (pt *ProgressTracker) fail(job *model.UploadJob, cause error) {
	now := time.Now()
	job.Status = model.UploadStatusFailed
	job.Message = "Upload failed"
	if cause != nil {
		job.Error = cause.Error()
	}
	job.CompletedAt = &now
	job.UpdatedAt = now
}

func (pt *ProgressTracker) fill(ev *ProgressEvent, job *model.UploadJob) *ProgressEvent {
	ev.JobID = job.JobID
	ev.Fraction = job.Fraction
	ev.Progress = int(math.Round(job.Fraction * 100))
	ev.BytesTransferred = job.BytesTransferred
	ev.TotalBytes = job.TotalBytes
	ev.RecordID = job.RecordID
	ev.FileURL = job.FileURL
	ev.Timestamp = job.UpdatedAt
	return ev
}

func (pt *ProgressTracker) save(ctx context.Context, job *model.UploadJob) error {
	ttl := JobStateTTLPending
	switch job.Status {
	case model.UploadStatusCompleted, model.UploadStatusWarning:
		ttl = JobStateTTLSuccess
	case model.UploadStatusFailed:
		ttl = JobStateTTLFailure
	}

	key := fmt.Sprintf(model.RedisKeyUploadState, job.JobID)
	if err := pt.cache.SetJSON(ctx, key, job, ttl); err != nil {
		return fmt.Errorf("failed to save job state: %w", err)
	}
	return nil
}

// GetJob retrieves job state from the cache
func (pt *ProgressTracker) GetJob(ctx context.Context, jobID string) (*model.UploadJob, error) {
	key := fmt.Sprintf(model.RedisKeyUploadState, jobID)

	var job model.UploadJob
	if err := pt.cache.GetJSON(ctx, key, &job); err != nil {
		if errors.Is(err, cache.ErrNotFound) {
			return nil, ErrJobNotFound
		}
		return nil, fmt.Errorf("failed to get job state: %w", err)
	}
	return &job, nil
}

// GetActiveJob returns the in-flight job ID for a user, or ""
func (pt *ProgressTracker) GetActiveJob(ctx context.Context, userID uint) (string, error) {
	key := fmt.Sprintf(model.RedisKeyActiveUpload, userID)
	jobID, err := pt.cache.Get(ctx, key)
	if err != nil {
		if errors.Is(err, cache.ErrNotFound) {
			return "", nil
		}
		return "", err
	}
	return jobID, nil
}
