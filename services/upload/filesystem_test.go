package upload

import (
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var pngHeader = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR\x00\x00\x00\x01\x00\x00\x00\x01\x08\x06\x00\x00\x00")

func TestPickerAllowsFamilies(t *testing.T) {
	path := writeTemp(t, "avatar.png", pngHeader)

	picked, err := Picker{}.Pick(context.Background(), path, []string{"image/*"})
	require.NoError(t, err)
	assert.Equal(t, "avatar.png", picked.Name)
	assert.Equal(t, "image/png", picked.DetectedMIME)
	assert.True(t, strings.HasPrefix(picked.URI, "file://"))

	local, err := LocalPath(picked.URI)
	require.NoError(t, err)
	assert.Equal(t, filepath.Clean(path), local)
}

func TestPickerRejectsType(t *testing.T) {
	path := writeTemp(t, "notes.txt", []byte("plain text, not a certificate"))

	_, err := Picker{}.Pick(context.Background(), path, []string{"application/pdf", "image/*"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not allowed")

	picked, err := Picker{}.Pick(context.Background(), path, []string{"*/*"})
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(picked.DetectedMIME, "text/plain"))
}

func TestPickerExactType(t *testing.T) {
	path := writeTemp(t, "cert.pdf", []byte("%PDF-1.4\n%%EOF\n"))
	picked, err := Picker{}.Pick(context.Background(), path, []string{"application/pdf"})
	require.NoError(t, err)
	assert.Equal(t, "application/pdf", picked.DetectedMIME)
}

func TestPickerCancelled(t *testing.T) {
	_, err := Picker{}.Pick(context.Background(), "", nil)
	assert.ErrorIs(t, err, ErrPickCancelled)
}

func TestLocalPath(t *testing.T) {
	p, err := LocalPath("/tmp/../tmp/a.pdf")
	require.NoError(t, err)
	assert.Equal(t, "/tmp/a.pdf", p)

	_, err = LocalPath("https://example.com/a.pdf")
	assert.Error(t, err)
}
