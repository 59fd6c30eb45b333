// Package realtime pushes fresh query snapshots to subscribers whenever a
// watched collection changes.
package realtime

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/sahilchouksey/intern-track/model"
)

// Op is the kind of write that produced a change
type Op string

const (
	OpCreate Op = "create"
	OpUpdate Op = "update"
	OpDelete Op = "delete"
)

// Change announces a committed write to a collection
type Change struct {
	Collection string `json:"collection"`
	Op         Op     `json:"op"`
}

// Broker carries changes from writers to hubs
type Broker interface {
	Publish(ctx context.Context, c Change) error
	// Listen returns a stream of changes and a func that stops it
	Listen(ctx context.Context) (<-chan Change, func(), error)
}

var ErrBrokerClosed = errors.New("broker closed")

// MemoryBroker delivers changes to listeners in the same process
type MemoryBroker struct {
	mu        sync.RWMutex
	listeners map[int]*memoryListener
	next      int
	closed    bool
}

type memoryListener struct {
	ch   chan Change
	done chan struct{}
	once sync.Once
}

func (l *memoryListener) stop() {
	l.once.Do(func() { close(l.done) })
}

func NewMemoryBroker() *MemoryBroker {
	return &MemoryBroker{listeners: make(map[int]*memoryListener)}
}

func (b *MemoryBroker) Publish(ctx context.Context, c Change) error {
	b.mu.RLock()
	if b.closed {
		b.mu.RUnlock()
		return ErrBrokerClosed
	}
	targets := make([]*memoryListener, 0, len(b.listeners))
	for _, l := range b.listeners {
		targets = append(targets, l)
	}
	b.mu.RUnlock()

	for _, l := range targets {
		select {
		case l.ch <- c:
		case <-l.done:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return nil
}

// Listen registers a listener. Its channel is never closed; stopped
// listeners simply receive nothing more.
func (b *MemoryBroker) Listen(ctx context.Context) (<-chan Change, func(), error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return nil, nil, ErrBrokerClosed
	}

	id := b.next
	b.next++
	l := &memoryListener{ch: make(chan Change, 64), done: make(chan struct{})}
	b.listeners[id] = l

	stop := func() {
		b.mu.Lock()
		delete(b.listeners, id)
		b.mu.Unlock()
		l.stop()
	}
	return l.ch, stop, nil
}

// Close stops every listener
func (b *MemoryBroker) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return nil
	}
	b.closed = true
	for id, l := range b.listeners {
		delete(b.listeners, id)
		l.stop()
	}
	return nil
}

// RedisBroker fans changes out across processes over Redis pub/sub
type RedisBroker struct {
	client  *redis.Client
	channel string
	logger  *zap.Logger
}

func NewRedisBroker(client *redis.Client, logger *zap.Logger) *RedisBroker {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RedisBroker{client: client, channel: model.RedisChannelChanges, logger: logger}
}

func (b *RedisBroker) Publish(ctx context.Context, c Change) error {
	payload, err := json.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to encode change: %w", err)
	}
	if err := b.client.Publish(ctx, b.channel, payload).Err(); err != nil {
		return fmt.Errorf("failed to publish change: %w", err)
	}
	return nil
}

func (b *RedisBroker) Listen(ctx context.Context) (<-chan Change, func(), error) {
	ps := b.client.Subscribe(ctx, b.channel)
	// Wait for the subscription to be confirmed
	if _, err := ps.Receive(ctx); err != nil {
		_ = ps.Close()
		return nil, nil, fmt.Errorf("failed to subscribe to %s: %w", b.channel, err)
	}

	out := make(chan Change, 64)
	done := make(chan struct{})
	exited := make(chan struct{})

	go func() {
		defer close(exited)
		defer close(out)
		msgs := ps.Channel()
		for {
			select {
			case <-done:
				return
			case msg, ok := <-msgs:
				if !ok {
					return
				}
				var c Change
				if err := json.Unmarshal([]byte(msg.Payload), &c); err != nil {
					b.logger.Warn("dropping malformed change", zap.String("payload", msg.Payload), zap.Error(err))
					continue
				}
				select {
				case out <- c:
				case <-done:
					return
				}
			}
		}
	}()

	var once sync.Once
	stop := func() {
		once.Do(func() {
			close(done)
			_ = ps.Close()
			<-exited
		})
	}
	return out, stop, nil
}
