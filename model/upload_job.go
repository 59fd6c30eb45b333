package model

import "time"

// UploadJobStatus represents the status of an upload job
type UploadJobStatus string

const (
	UploadStatusPending   UploadJobStatus = "pending"
	UploadStatusUploading UploadJobStatus = "uploading"
	UploadStatusCompleted UploadJobStatus = "completed"
	UploadStatusWarning   UploadJobStatus = "completed_with_warning"
	UploadStatusFailed    UploadJobStatus = "failed"
)

// UploadJob represents the state of an upload stored in Redis so that a
// reconnecting client can read the last known progress
type UploadJob struct {
	JobID    string          `json:"job_id"`
	UserID   uint            `json:"user_id"`
	FileName string          `json:"file_name"`
	Status   UploadJobStatus `json:"status"`
	Fraction float64         `json:"fraction"`
	Message  string          `json:"message"`

	BytesTransferred int64 `json:"bytes_transferred"`
	TotalBytes       int64 `json:"total_bytes"`

	Error    string `json:"error,omitempty"`
	RecordID uint   `json:"record_id,omitempty"`
	FileURL  string `json:"file_url,omitempty"`

	StartedAt   time.Time  `json:"started_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// Redis key patterns for upload jobs
const (
	// Usage: fmt.Sprintf(RedisKeyUploadState, jobID)
	RedisKeyUploadState = "upload:state:%s"

	// RedisKeyActiveUpload holds the in-flight upload for a user; it is the
	// lock that keeps one upload per user at a time
	// Usage: fmt.Sprintf(RedisKeyActiveUpload, userID)
	RedisKeyActiveUpload = "upload:active:%d"

	// RedisChannelChanges is the pub/sub channel collection changes go out on
	RedisChannelChanges = "changes"
)
