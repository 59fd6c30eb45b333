package upload

import (
	"context"
	"io"
	"sync"

	"github.com/sahilchouksey/intern-track/utils/apperr"
)

// ObjectRef identifies an uploaded object in the blob store
type ObjectRef struct {
	Key      string
	Location string
}

// BlobStore is the subset of the storage service the pipeline needs
type BlobStore interface {
	// UploadResumable streams body to key, calling onProgress with the
	// cumulative number of bytes handed to the transport
	UploadResumable(ctx context.Context, key string, body io.Reader, size int64, contentType string, onProgress func(transferred int64)) (ObjectRef, error)
	PublicURL(ctx context.Context, ref ObjectRef) (string, error)
}

// EventKind distinguishes progress from the two terminal outcomes
type EventKind int

const (
	EventProgress EventKind = iota
	EventSuccess
	EventFailure
)

// Event is emitted by the monitor. Exactly one EventSuccess or EventFailure
// closes every stream.
type Event struct {
	Kind             EventKind
	Fraction         float64
	BytesTransferred int64
	TotalBytes       int64
	Ref              ObjectRef
	Err              error
}

// Fraction returns transferred/total clamped to [0,1], and 0 when total is 0
func Fraction(transferred, total int64) float64 {
	if total <= 0 || transferred <= 0 {
		return 0
	}
	f := float64(transferred) / float64(total)
	if f > 1 {
		return 1
	}
	return f
}

// Monitor wraps a blob store upload and reports its progress as events
type Monitor struct {
	store BlobStore
}

func NewMonitor(store BlobStore) *Monitor {
	return &Monitor{store: store}
}

// Start begins the upload and returns its event stream. The caller must
// drain the channel until it is closed or cancel ctx.
func (m *Monitor) Start(ctx context.Context, blob *Blob, key, contentType string) <-chan Event {
	events := make(chan Event, 16)
	total := blob.Size()

	go func() {
		defer close(events)

		var (
			mu       sync.Mutex
			last     float64
			lastSent int64
		)

		emit := func(ev Event) bool {
			select {
			case events <- ev:
				return true
			case <-ctx.Done():
				return false
			}
		}

		progress := func(transferred int64) {
			mu.Lock()
			defer mu.Unlock()

			if transferred > total {
				transferred = total
			}
			f := Fraction(transferred, total)
			if f < last || (f == last && transferred <= lastSent) {
				return
			}
			last, lastSent = f, transferred
			emit(Event{Kind: EventProgress, Fraction: f, BytesTransferred: transferred, TotalBytes: total})
		}

		if !emit(Event{Kind: EventProgress, Fraction: 0, TotalBytes: total}) {
			return
		}

		ref, err := m.store.UploadResumable(ctx, key, blob.Reader(), total, contentType, progress)
		if err != nil {
			emit(Event{Kind: EventFailure, TotalBytes: total, Err: &apperr.UploadTransportError{Key: key, Err: err}})
			return
		}

		// The transport may not report the tail of the body
		progress(total)

		mu.Lock()
		final := Event{Kind: EventSuccess, Fraction: last, BytesTransferred: lastSent, TotalBytes: total, Ref: ref}
		mu.Unlock()
		emit(final)
	}()

	return events
}
