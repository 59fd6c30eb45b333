package services

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/sahilchouksey/intern-track/model"
	"github.com/sahilchouksey/intern-track/services/blobstore"
	"github.com/sahilchouksey/intern-track/services/upload"
	"github.com/sahilchouksey/intern-track/utils/pdfvalidation"
)

// UploadSpec is one upload to run through the pipeline on behalf of a user
type UploadSpec struct {
	JobID     string // generated when empty
	UserID    uint
	URI       string
	FileName  string
	Key       string
	PDFLimits *pdfvalidation.PDFLimits
	Record    upload.RecordFunc
}

// UploadService runs pipeline uploads one at a time per user and mirrors
// their progress into the tracker
type UploadService struct {
	pipeline *upload.Pipeline
	guard    upload.Guard
	tracker  *ProgressTracker
	recorder *upload.Recorder
	logger   *zap.Logger
}

// NewUploadService creates a new upload service. guard defaults to the tracker.
func NewUploadService(pipeline *upload.Pipeline, tracker *ProgressTracker, guard upload.Guard, recorder *upload.Recorder, logger *zap.Logger) *UploadService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if guard == nil {
		guard = tracker
	}
	return &UploadService{
		pipeline: pipeline,
		guard:    guard,
		tracker:  tracker,
		recorder: recorder,
		logger:   logger,
	}
}

// NewJobID returns a fresh upload job id
func NewJobID() string {
	return uuid.New().String()
}

// Tracker exposes job state for polling clients
func (s *UploadService) Tracker() *ProgressTracker {
	return s.tracker
}

// Upload runs spec and reports every state change to onEvent, which may be nil
func (s *UploadService) Upload(ctx context.Context, spec UploadSpec, onEvent func(*ProgressEvent)) (*upload.Result, error) {
	if spec.JobID == "" {
		spec.JobID = NewJobID()
	}
	emit := func(ev *ProgressEvent) {
		if ev != nil && onEvent != nil {
			onEvent(ev)
		}
	}

	release, err := s.guard.Acquire(ctx, spec.UserID, spec.JobID)
	if err != nil {
		return nil, err
	}
	defer release()

	if _, err := s.tracker.CreateJob(ctx, spec.JobID, spec.UserID, spec.FileName); err != nil {
		return nil, err
	}

	log := s.logger.With(zap.String("job_id", spec.JobID), zap.Uint("user_id", spec.UserID))

	onProgress := func(ev upload.Event) {
		pe, err := s.tracker.Apply(ctx, spec.JobID, ev)
		if err != nil {
			log.Warn("failed to record upload progress", zap.Error(err))
			return
		}
		emit(pe)
	}

	result, err := s.pipeline.Run(ctx, upload.Request{
		URI:       spec.URI,
		FileName:  spec.FileName,
		Key:       spec.Key,
		PDFLimits: spec.PDFLimits,
	}, onProgress, spec.Record)
	if err != nil {
		log.Warn("upload failed", zap.String("file", spec.FileName), zap.Error(err))
		// Tracker writes must outlive a cancelled request
		pe, ferr := s.tracker.Fail(context.WithoutCancel(ctx), spec.JobID, err)
		if ferr != nil && !errors.Is(ferr, ErrJobNotFound) {
			log.Warn("failed to record upload failure", zap.Error(ferr))
		}
		emit(pe)
		return nil, err
	}

	pe, err := s.tracker.Complete(ctx, spec.JobID, result)
	if err != nil {
		log.Warn("failed to record upload completion", zap.Error(err))
	}
	emit(pe)
	return result, nil
}

// UploadCertificate uploads a student's certificate and appends a pending
// certificate record
func (s *UploadService) UploadCertificate(ctx context.Context, student *model.User, jobID, uri, fileName string, onEvent func(*ProgressEvent)) (*upload.Result, error) {
	return s.Upload(ctx, UploadSpec{
		JobID:     jobID,
		UserID:    student.ID,
		URI:       uri,
		FileName:  fileName,
		Key:       blobstore.CertificateKey(student.ID, fileName),
		PDFLimits: &pdfvalidation.CertificateLimits,
		Record:    s.recorder.For(student.ID),
	}, onEvent)
}
