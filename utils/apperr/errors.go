package apperr

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrValidation marks input rejected before any side effect
	ErrValidation = errors.New("validation failed")
	ErrForbidden  = errors.New("forbidden")
	ErrConflict   = errors.New("conflict")
)

// UnreadableFileError is returned when every blob acquisition strategy
// failed. Error() is shown to clients and names only FileName; URI and
// Attempts are for logs (see Detail).
type UnreadableFileError struct {
	FileName string
	URI      string
	Attempts []error
}

func (e *UnreadableFileError) Error() string {
	name := e.FileName
	if name == "" {
		name = "the selected file"
	}
	return fmt.Sprintf(
		"could not read %s (tried %d ways); the platform may not expose this file reference, try a physical device or a direct file path",
		name, len(e.Attempts),
	)
}

// Detail includes the file reference and every strategy's failure
func (e *UnreadableFileError) Detail() string {
	msgs := make([]string, 0, len(e.Attempts))
	for _, a := range e.Attempts {
		msgs = append(msgs, a.Error())
	}
	return fmt.Sprintf("%s: %s", e.URI, strings.Join(msgs, "; "))
}

func (e *UnreadableFileError) Unwrap() []error {
	return e.Attempts
}

// UploadTransportError is returned when the blob store rejects or drops an upload
type UploadTransportError struct {
	Key string
	Err error
}

func (e *UploadTransportError) Error() string {
	return fmt.Sprintf("upload of %s failed: %v", e.Key, e.Err)
}

func (e *UploadTransportError) Unwrap() error { return e.Err }

// PersistenceError is returned when a database write does not complete
type PersistenceError struct {
	Collection string
	Err        error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("failed to write %s record: %v", e.Collection, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }

// AuthError is returned when sign-in or sign-up is rejected
type AuthError struct {
	Reason string
	Err    error
}

func (e *AuthError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("authentication failed: %s: %v", e.Reason, e.Err)
	}
	return "authentication failed: " + e.Reason
}

func (e *AuthError) Unwrap() error { return e.Err }

// NotFoundError is returned when an expected document is absent
type NotFoundError struct {
	Collection string
	ID         string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %s not found", e.Collection, e.ID)
}

// Validation wraps ErrValidation with a message
func Validation(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}

// IsNotFound reports whether err is (or wraps) a NotFoundError
func IsNotFound(err error) bool {
	var nf *NotFoundError
	return errors.As(err, &nf)
}
