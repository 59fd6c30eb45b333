package upload

import (
	"context"
	"encoding/json"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/sahilchouksey/intern-track/model"
	"github.com/sahilchouksey/intern-track/utils/apperr"
)

// Recorder writes the certificate record once an upload has completed
type Recorder struct {
	db *gorm.DB
}

func NewRecorder(db *gorm.DB) *Recorder {
	return &Recorder{db: db}
}

// RecordUpload appends a pending certificate for ownerID and returns its id
func (r *Recorder) RecordUpload(ctx context.Context, ownerID uint, fileName, fileURL string) (uint, error) {
	return r.RecordFile(ctx, ownerID, &UploadedFile{FileName: fileName, URL: fileURL})
}

// RecordFile is RecordUpload with the storage details the pipeline knows
func (r *Recorder) RecordFile(ctx context.Context, ownerID uint, f *UploadedFile) (uint, error) {
	cert := model.Certificate{
		StudentID:   ownerID,
		FileName:    f.FileName,
		FileURL:     f.URL,
		StorageKey:  f.Key,
		ContentType: f.ContentType,
		FileSize:    f.Size,
		Status:      model.ReviewStatusPending,
	}

	if f.Strategy != "" || f.PageCount > 0 {
		meta, err := json.Marshal(model.CertificateMetadata{Strategy: f.Strategy, PageCount: f.PageCount})
		if err != nil {
			return 0, &apperr.PersistenceError{Collection: model.CollectionCertificates, Err: err}
		}
		cert.Metadata = datatypes.JSON(meta)
	}

	if err := r.db.WithContext(ctx).Create(&cert).Error; err != nil {
		return 0, &apperr.PersistenceError{Collection: model.CollectionCertificates, Err: err}
	}
	return cert.ID, nil
}

// For adapts the recorder to the pipeline's RecordFunc for one owner
func (r *Recorder) For(ownerID uint) RecordFunc {
	return func(ctx context.Context, f *UploadedFile) (uint, error) {
		return r.RecordFile(ctx, ownerID, f)
	}
}
