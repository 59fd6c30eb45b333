package realtime

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
	"gorm.io/gorm"
)

var ErrHubClosed = errors.New("realtime hub closed")

// Query selects the rows a subscription watches. Subscriptions whose
// queries share a non-empty Key share database round trips.
type Query struct {
	Key   string
	Scope func(*gorm.DB) *gorm.DB
}

type watcher struct {
	notify chan struct{}
}

// Hub re-runs subscribed queries whenever their collection changes
type Hub struct {
	db     *gorm.DB
	broker Broker
	logger *zap.Logger

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu          sync.Mutex
	watchers    map[string]map[uint64]*watcher
	generations map[string]uint64
	closed      bool

	nextID atomic.Uint64
	group  singleflight.Group
}

func NewHub(db *gorm.DB, broker Broker, logger *zap.Logger) *Hub {
	if logger == nil {
		logger = zap.NewNop()
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Hub{
		db:          db,
		broker:      broker,
		logger:      logger,
		ctx:         ctx,
		cancel:      cancel,
		watchers:    make(map[string]map[uint64]*watcher),
		generations: make(map[string]uint64),
	}
}

// Start begins consuming changes from the broker
func (h *Hub) Start(ctx context.Context) error {
	changes, stop, err := h.broker.Listen(ctx)
	if err != nil {
		return fmt.Errorf("failed to listen for changes: %w", err)
	}

	h.wg.Add(1)
	go func() {
		defer h.wg.Done()
		defer stop()
		for {
			select {
			case <-h.ctx.Done():
				return
			case c, ok := <-changes:
				if !ok {
					return
				}
				h.dispatch(c)
			}
		}
	}()
	return nil
}

// Close cancels every subscription and waits for the hub's goroutines
func (h *Hub) Close() {
	h.mu.Lock()
	h.closed = true
	h.mu.Unlock()

	h.cancel()
	h.wg.Wait()
}

func (h *Hub) dispatch(c Change) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.generations[c.Collection]++
	for _, w := range h.watchers[c.Collection] {
		select {
		case w.notify <- struct{}{}:
		default:
			// a refresh is already pending and will see this change
		}
	}
}

func (h *Hub) generation(collection string) uint64 {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.generations[collection]
}

// add registers w and accounts for its goroutine in h.wg
func (h *Hub) add(collection string, id uint64, w *watcher) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return ErrHubClosed
	}
	if h.watchers[collection] == nil {
		h.watchers[collection] = make(map[uint64]*watcher)
	}
	h.watchers[collection][id] = w
	h.wg.Add(1)
	return nil
}

func (h *Hub) remove(collection string, id uint64) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.watchers[collection], id)
	if len(h.watchers[collection]) == 0 {
		delete(h.watchers, collection)
	}
}

// Subscribers returns how many subscriptions watch collection
func (h *Hub) Subscribers(collection string) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.watchers[collection])
}

// Subscription delivers full snapshots of a query's result. C holds at most
// one snapshot: a slow reader only ever sees the latest one. Snapshots may
// be shared between subscribers and must not be modified.
type Subscription[T any] struct {
	C <-chan []T

	ch     chan []T
	hub    *Hub
	id     uint64
	cancel context.CancelFunc
	exited chan struct{}
	once   sync.Once
}

// Subscribe registers q against collection. The first snapshot is delivered
// as soon as it is loaded; later ones follow every change to collection.
func Subscribe[T any](h *Hub, collection string, q Query) (*Subscription[T], error) {
	id := h.nextID.Add(1)
	w := &watcher{notify: make(chan struct{}, 1)}
	w.notify <- struct{}{} // initial snapshot

	if err := h.add(collection, id, w); err != nil {
		return nil, err
	}

	ctx, cancel := context.WithCancel(h.ctx)
	ch := make(chan []T, 1)
	s := &Subscription[T]{
		C:      ch,
		ch:     ch,
		hub:    h,
		id:     id,
		cancel: cancel,
		exited: make(chan struct{}),
	}

	key := q.Key
	if key == "" {
		key = fmt.Sprintf("sub:%d", id)
	}
	var zero T
	key = fmt.Sprintf("%s|%T|%s", collection, zero, key)

	go func() {
		defer h.wg.Done()
		defer close(s.exited)
		defer close(ch)
		defer h.remove(collection, id)

		for {
			select {
			case <-ctx.Done():
				return
			case <-w.notify:
			}

			rows, err := load[T](h, collection, key, q)
			if err != nil {
				if ctx.Err() != nil {
					return
				}
				h.logger.Warn("subscription refresh failed",
					zap.String("collection", collection),
					zap.Uint64("subscription", id),
					zap.Error(err))
				continue
			}
			s.push(rows)
		}
	}()

	return s, nil
}

// load runs q, sharing the result with any subscriber asking for the same
// query at the same change generation
func load[T any](h *Hub, collection, key string, q Query) ([]T, error) {
	gen := h.generation(collection)
	v, err, _ := h.group.Do(fmt.Sprintf("%s|%d", key, gen), func() (interface{}, error) {
		tx := h.db.WithContext(h.ctx)
		if q.Scope != nil {
			tx = q.Scope(tx)
		}
		rows := []T{}
		if err := tx.Find(&rows).Error; err != nil {
			return nil, err
		}
		return rows, nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]T), nil
}

// push replaces any unread snapshot with rows. Only the subscription's own
// goroutine sends on ch.
func (s *Subscription[T]) push(rows []T) {
	select {
	case <-s.ch:
	default:
	}
	s.ch <- rows
}

// Cancel stops the subscription and closes C. It is safe to call more
// than once.
func (s *Subscription[T]) Cancel() {
	s.once.Do(func() {
		s.cancel()
		<-s.exited
	})
}
