package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/jellydator/ttlcache/v3"
)

// MemoryCache is a process-local Store used when REDIS_URL is not set.
// Expired entries are evicted in the background until Close is called.
type MemoryCache struct {
	// mu serialises the read-modify-write operations (SetNX, Increment,
	// DeleteIfEquals); plain reads and writes go straight to items
	mu        sync.Mutex
	items     *ttlcache.Cache[string, string]
	closeOnce sync.Once
}

func NewMemoryCache() *MemoryCache {
	items := ttlcache.New[string, string](
		// Reads must not extend a lock or a brute-force window
		ttlcache.WithDisableTouchOnHit[string, string](),
	)
	go items.Start()
	return &MemoryCache{items: items}
}

// Close stops the eviction loop
func (m *MemoryCache) Close() error {
	m.closeOnce.Do(m.items.Stop)
	return nil
}

// Len reports how many entries are held, expired ones not yet evicted included
func (m *MemoryCache) Len() int {
	return m.items.Len()
}

func ttlFor(expiration time.Duration) time.Duration {
	if expiration <= 0 {
		return ttlcache.NoTTL
	}
	return expiration
}

func stringify(v interface{}) string {
	switch t := v.(type) {
	case string:
		return t
	case []byte:
		return string(t)
	default:
		return fmt.Sprint(t)
	}
}

func (m *MemoryCache) Get(_ context.Context, key string) (string, error) {
	item := m.items.Get(key)
	if item == nil {
		return "", ErrNotFound
	}
	return item.Value(), nil
}

func (m *MemoryCache) Set(_ context.Context, key string, value interface{}, expiration time.Duration) error {
	m.items.Set(key, stringify(value), ttlFor(expiration))
	return nil
}

func (m *MemoryCache) SetJSON(ctx context.Context, key string, value interface{}, expiration time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return m.Set(ctx, key, data, expiration)
}

func (m *MemoryCache) GetJSON(ctx context.Context, key string, dest interface{}) error {
	val, err := m.Get(ctx, key)
	if err != nil {
		return err
	}
	return json.Unmarshal([]byte(val), dest)
}

func (m *MemoryCache) Delete(_ context.Context, keys ...string) error {
	for _, k := range keys {
		m.items.Delete(k)
	}
	return nil
}

func (m *MemoryCache) Exists(_ context.Context, key string) (bool, error) {
	return m.items.Get(key) != nil, nil
}

func (m *MemoryCache) SetNX(_ context.Context, key string, value interface{}, expiration time.Duration) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.items.Get(key) != nil {
		return false, nil
	}
	m.items.Set(key, stringify(value), ttlFor(expiration))
	return true, nil
}

func (m *MemoryCache) DeleteIfEquals(_ context.Context, key, value string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	item := m.items.Get(key)
	if item == nil || item.Value() != value {
		return false, nil
	}
	m.items.Delete(key)
	return true, nil
}

// Increment keeps the expiry set by the first increment, like INCR does
func (m *MemoryCache) Increment(_ context.Context, key string, window time.Duration) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	item := m.items.Get(key)
	if item == nil {
		m.items.Set(key, "1", ttlFor(window))
		return 1, nil
	}

	n, err := strconv.ParseInt(item.Value(), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("value at %s is not a counter", key)
	}
	n++

	ttl := ttlcache.NoTTL
	if expires := item.ExpiresAt(); !expires.IsZero() {
		ttl = time.Until(expires)
		if ttl <= 0 {
			m.items.Set(key, "1", ttlFor(window))
			return 1, nil
		}
	}
	m.items.Set(key, strconv.FormatInt(n, 10), ttl)
	return n, nil
}

// TTL follows Redis: -2s for a missing key, -1s for one without expiry
func (m *MemoryCache) TTL(_ context.Context, key string) (time.Duration, error) {
	item := m.items.Get(key)
	if item == nil {
		return -2 * time.Second, nil
	}
	expires := item.ExpiresAt()
	if expires.IsZero() {
		return -1 * time.Second, nil
	}
	return time.Until(expires), nil
}

var (
	_ Store = (*RedisCache)(nil)
	_ Store = (*MemoryCache)(nil)
)
