// Package blobstore holds the blob store implementations behind the upload
// pipeline: DigitalOcean Spaces in production and an in-memory store for
// development and tests.
package blobstore

import (
	"context"
	"time"

	"github.com/sahilchouksey/intern-track/services/upload"
)

// ObjectInfo describes one stored object
type ObjectInfo struct {
	Key          string
	Size         int64
	LastModified time.Time
}

// Store is a blob store the pipeline can upload to and the sweeper can
// list and prune
type Store interface {
	upload.BlobStore
	ListFiles(ctx context.Context, prefix string) ([]ObjectInfo, error)
	DeleteFile(ctx context.Context, key string) error
}

var (
	_ Store = (*SpacesClient)(nil)
	_ Store = (*MemoryStore)(nil)
)
