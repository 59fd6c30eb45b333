package blobstore

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/sahilchouksey/intern-track/services/upload"
)

const memoryChunkSize = 64 * 1024

type memoryObject struct {
	data        []byte
	contentType string
	modified    time.Time
}

// MemoryStore keeps objects in process memory
type MemoryStore struct {
	mu      sync.RWMutex
	objects map[string]memoryObject
	baseURL string

	// FailWith, when set, makes every upload fail after the first chunk
	FailWith error
}

func NewMemoryStore(baseURL string) *MemoryStore {
	if baseURL == "" {
		baseURL = "memory://blobs"
	}
	return &MemoryStore{
		objects: make(map[string]memoryObject),
		baseURL: strings.TrimRight(baseURL, "/"),
	}
}

func (m *MemoryStore) UploadResumable(ctx context.Context, key string, body io.Reader, size int64, contentType string, onProgress func(int64)) (upload.ObjectRef, error) {
	var buf bytes.Buffer
	chunk := make([]byte, memoryChunkSize)

	for {
		if err := ctx.Err(); err != nil {
			return upload.ObjectRef{}, err
		}
		n, err := body.Read(chunk)
		if n > 0 {
			buf.Write(chunk[:n])
			if onProgress != nil {
				onProgress(int64(buf.Len()))
			}
			if m.FailWith != nil {
				return upload.ObjectRef{}, m.FailWith
			}
		}
		if err == io.EOF {
			break
		}
		if err != nil {
			return upload.ObjectRef{}, fmt.Errorf("failed to read upload body: %w", err)
		}
	}

	if m.FailWith != nil {
		return upload.ObjectRef{}, m.FailWith
	}
	if size >= 0 && int64(buf.Len()) != size {
		return upload.ObjectRef{}, fmt.Errorf("size mismatch: declared %d, received %d", size, buf.Len())
	}

	m.mu.Lock()
	m.objects[key] = memoryObject{data: buf.Bytes(), contentType: contentType, modified: time.Now()}
	m.mu.Unlock()

	return upload.ObjectRef{Key: key, Location: m.baseURL + "/" + key}, nil
}

func (m *MemoryStore) PublicURL(_ context.Context, ref upload.ObjectRef) (string, error) {
	m.mu.RLock()
	_, ok := m.objects[ref.Key]
	m.mu.RUnlock()
	if !ok {
		return "", fmt.Errorf("object %s does not exist", ref.Key)
	}
	return m.baseURL + "/" + ref.Key, nil
}

func (m *MemoryStore) ListFiles(_ context.Context, prefix string) ([]ObjectInfo, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []ObjectInfo
	for k, o := range m.objects {
		if strings.HasPrefix(k, prefix) {
			out = append(out, ObjectInfo{Key: k, Size: int64(len(o.data)), LastModified: o.modified})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out, nil
}

func (m *MemoryStore) DeleteFile(_ context.Context, key string) error {
	m.mu.Lock()
	delete(m.objects, key)
	m.mu.Unlock()
	return nil
}

// Get returns a copy of a stored object, for tests and local downloads
func (m *MemoryStore) Get(key string) ([]byte, string, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	o, ok := m.objects[key]
	if !ok {
		return nil, "", false
	}
	return append([]byte(nil), o.data...), o.contentType, true
}

// Touch overrides an object's modification time
func (m *MemoryStore) Touch(key string, t time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if o, ok := m.objects[key]; ok {
		o.modified = t
		m.objects[key] = o
	}
}
