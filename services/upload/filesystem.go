package upload

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
)

// ErrPickCancelled is returned when the user dismissed the picker
var ErrPickCancelled = errors.New("file selection cancelled")

// FileSystem is the platform file accessor used by the last-resort strategy
type FileSystem interface {
	ReadAsBase64(ctx context.Context, uri string) (string, error)
}

// OSFileSystem reads file:// URLs and bare paths from the local disk
type OSFileSystem struct{}

func (OSFileSystem) ReadAsBase64(ctx context.Context, uri string) (string, error) {
	path, err := LocalPath(uri)
	if err != nil {
		return "", err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to read file: %w", err)
	}
	return base64.StdEncoding.EncodeToString(data), nil
}

// LocalPath resolves a file:// URL or a bare path to a filesystem path
func LocalPath(uri string) (string, error) {
	if !strings.Contains(uri, "://") {
		return filepath.Clean(uri), nil
	}
	u, err := url.Parse(uri)
	if err != nil {
		return "", fmt.Errorf("invalid file reference: %w", err)
	}
	if u.Scheme != "file" {
		return "", fmt.Errorf("scheme %q is not readable from the filesystem", u.Scheme)
	}
	return filepath.FromSlash(u.Path), nil
}

// PickedFile is what the picker hands back to the upload flow
type PickedFile struct {
	URI          string
	Name         string
	DetectedMIME string
}

// Picker validates a chosen local file against the allowed content types.
// Entries like "image/*" match a whole family.
type Picker struct{}

// Pick checks path and returns a file:// reference to it. An empty path
// means the user cancelled.
func (Picker) Pick(ctx context.Context, path string, allowed []string) (*PickedFile, error) {
	if path == "" {
		return nil, ErrPickCancelled
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve path: %w", err)
	}

	mt, err := mimetype.DetectFile(abs)
	if err != nil {
		return nil, fmt.Errorf("failed to inspect file: %w", err)
	}

	if len(allowed) > 0 && !typeAllowed(mt, allowed) {
		return nil, fmt.Errorf("file type %s is not allowed", mt.String())
	}

	return &PickedFile{
		URI:          (&url.URL{Scheme: "file", Path: filepath.ToSlash(abs)}).String(),
		Name:         filepath.Base(abs),
		DetectedMIME: mt.String(),
	}, nil
}

func typeAllowed(mt *mimetype.MIME, allowed []string) bool {
	for _, a := range allowed {
		if a == "*/*" {
			return true
		}
		if family, ok := strings.CutSuffix(a, "/*"); ok {
			for m := mt; m != nil; m = m.Parent() {
				if strings.HasPrefix(m.String(), family+"/") {
					return true
				}
			}
			continue
		}
		if mt.Is(a) {
			return true
		}
	}
	return false
}
