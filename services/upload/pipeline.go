package upload

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/sahilchouksey/intern-track/utils/apperr"
	"github.com/sahilchouksey/intern-track/utils/pdfvalidation"
)

// Outcome describes how a pipeline run ended when it did not fail outright
type Outcome string

const (
	OutcomeCompleted Outcome = "completed"
	// OutcomeCompletedWithWarning means the blob is stored but the record
	// write failed, leaving an orphan in the bucket
	OutcomeCompletedWithWarning Outcome = "completed_with_warning"
)

// UploadedFile describes a blob that reached the store
type UploadedFile struct {
	Key         string
	URL         string
	FileName    string
	ContentType string
	Size        int64
	Strategy    string
	PageCount   int
}

// RecordFunc persists whatever database entry references an uploaded file
type RecordFunc func(ctx context.Context, f *UploadedFile) (uint, error)

// ProgressFunc receives every progress event of a run
type ProgressFunc func(Event)

// Request is one file to push through the pipeline
type Request struct {
	URI      string
	FileName string
	Key      string
	// PDFLimits is applied when the file resolves to application/pdf
	PDFLimits *pdfvalidation.PDFLimits
}

// Result of a run that at least reached the blob store
type Result struct {
	Outcome  Outcome
	File     UploadedFile
	RecordID uint
	Warning  error
}

// Pipeline chains MIME resolution, blob acquisition, the monitored upload
// and the metadata write
type Pipeline struct {
	chain    *Chain
	monitor  *Monitor
	store    BlobStore
	maxBytes int64
	logger   *zap.Logger
}

// Config for NewPipeline
type Config struct {
	Chain    *Chain
	Store    BlobStore
	MaxBytes int64 // 0 disables the size check
	Logger   *zap.Logger
}

func NewPipeline(cfg Config) *Pipeline {
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Pipeline{
		chain:    cfg.Chain,
		monitor:  NewMonitor(cfg.Store),
		store:    cfg.Store,
		maxBytes: cfg.MaxBytes,
		logger:   logger,
	}
}

// Run uploads req and calls record only after the upload reached its
// terminal success. A failed record yields OutcomeCompletedWithWarning.
func (p *Pipeline) Run(ctx context.Context, req Request, onProgress ProgressFunc, record RecordFunc) (*Result, error) {
	if req.Key == "" {
		return nil, apperr.Validation("destination key is required")
	}

	mimeType := ResolveMIME(req.FileName)

	blob, err := p.chain.Acquire(ctx, req.URI, mimeType)
	if err != nil {
		var unreadable *apperr.UnreadableFileError
		if errors.As(err, &unreadable) {
			unreadable.FileName = req.FileName
			p.logger.Warn("file unreadable",
				zap.String("key", req.Key),
				zap.String("detail", unreadable.Detail()))
		}
		return nil, err
	}

	if p.maxBytes > 0 && blob.Size() > p.maxBytes {
		return nil, apperr.Validation("file is %d bytes, the limit is %d", blob.Size(), p.maxBytes)
	}

	file := UploadedFile{
		Key:         req.Key,
		FileName:    req.FileName,
		ContentType: mimeType,
		Size:        blob.Size(),
		Strategy:    blob.Strategy,
	}

	if mimeType == mimeTypes["pdf"] && req.PDFLimits != nil {
		check, err := pdfvalidation.ValidatePDFBytes(blob.Data, *req.PDFLimits)
		if err != nil {
			return nil, fmt.Errorf("failed to validate PDF: %w", err)
		}
		if !check.Valid {
			return nil, apperr.Validation("%s", check.Error)
		}
		file.PageCount = check.PageCount
	}

	ref, err := p.upload(ctx, blob, req.Key, mimeType, onProgress)
	if err != nil {
		return nil, err
	}

	url, err := p.store.PublicURL(ctx, ref)
	if err != nil {
		return nil, &apperr.UploadTransportError{Key: req.Key, Err: fmt.Errorf("failed to resolve download URL: %w", err)}
	}
	file.URL = url

	result := &Result{Outcome: OutcomeCompleted, File: file}
	if record == nil {
		return result, nil
	}

	id, err := record(ctx, &file)
	if err != nil {
		p.logger.Warn("upload completed but saving metadata failed",
			zap.String("key", req.Key),
			zap.Error(err))
		result.Outcome = OutcomeCompletedWithWarning
		result.Warning = err
		return result, nil
	}
	result.RecordID = id

	p.logger.Info("upload completed",
		zap.String("key", req.Key),
		zap.String("strategy", file.Strategy),
		zap.Int64("bytes", file.Size),
		zap.Uint("record_id", id))
	return result, nil
}

func (p *Pipeline) upload(ctx context.Context, blob *Blob, key, contentType string, onProgress ProgressFunc) (ObjectRef, error) {
	for ev := range p.monitor.Start(ctx, blob, key, contentType) {
		switch ev.Kind {
		case EventProgress:
			if onProgress != nil {
				onProgress(ev)
			}
		case EventSuccess:
			if onProgress != nil {
				onProgress(ev)
			}
			return ev.Ref, nil
		case EventFailure:
			if onProgress != nil {
				onProgress(ev)
			}
			return ObjectRef{}, ev.Err
		}
	}

	// Stream closed without a terminal event: ctx was cancelled
	if err := ctx.Err(); err != nil {
		return ObjectRef{}, &apperr.UploadTransportError{Key: key, Err: err}
	}
	return ObjectRef{}, &apperr.UploadTransportError{Key: key, Err: errors.New("upload ended without a result")}
}
