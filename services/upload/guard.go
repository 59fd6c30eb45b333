package upload

import (
	"context"
	"fmt"
	"sync"

	"github.com/sahilchouksey/intern-track/utils/apperr"
)

// ErrUploadInFlight is returned when the user already has an upload running
var ErrUploadInFlight = fmt.Errorf("%w: an upload is already in progress for this user", apperr.ErrConflict)

// Guard serialises uploads per user
type Guard interface {
	// Acquire returns a release func, or ErrUploadInFlight
	Acquire(ctx context.Context, userID uint, jobID string) (release func(), err error)
}

// MemoryGuard is a Guard for a single process
type MemoryGuard struct {
	mu     sync.Mutex
	active map[uint]string
}

func NewMemoryGuard() *MemoryGuard {
	return &MemoryGuard{active: make(map[uint]string)}
}

func (g *MemoryGuard) Acquire(_ context.Context, userID uint, jobID string) (func(), error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if _, busy := g.active[userID]; busy {
		return nil, ErrUploadInFlight
	}
	g.active[userID] = jobID

	var once sync.Once
	return func() {
		once.Do(func() {
			g.mu.Lock()
			if g.active[userID] == jobID {
				delete(g.active, userID)
			}
			g.mu.Unlock()
		})
	}, nil
}
