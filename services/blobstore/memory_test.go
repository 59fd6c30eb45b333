package blobstore

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStoreRoundTrip(t *testing.T) {
	store := NewMemoryStore("")
	data := bytes.Repeat([]byte{1}, 200*1024)

	var progress []int64
	ref, err := store.UploadResumable(context.Background(), "certificates/1/x.png", bytes.NewReader(data), int64(len(data)), "image/png", func(n int64) {
		progress = append(progress, n)
	})
	require.NoError(t, err)
	require.NotEmpty(t, progress)
	assert.Equal(t, int64(len(data)), progress[len(progress)-1])

	url, err := store.PublicURL(context.Background(), ref)
	require.NoError(t, err)
	assert.Equal(t, "memory://blobs/certificates/1/x.png", url)

	got, ct, ok := store.Get("certificates/1/x.png")
	require.True(t, ok)
	assert.Equal(t, data, got)
	assert.Equal(t, "image/png", ct)
}

func TestMemoryStoreEmptyBody(t *testing.T) {
	store := NewMemoryStore("https://files.local")
	ref, err := store.UploadResumable(context.Background(), "a/empty.pdf", bytes.NewReader(nil), 0, "application/pdf", nil)
	require.NoError(t, err)
	url, err := store.PublicURL(context.Background(), ref)
	require.NoError(t, err)
	assert.Equal(t, "https://files.local/a/empty.pdf", url)
}

func TestMemoryStoreFailure(t *testing.T) {
	store := NewMemoryStore("")
	store.FailWith = errors.New("storage/unauthorized")

	_, err := store.UploadResumable(context.Background(), "a/b.pdf", bytes.NewReader([]byte("abc")), 3, "application/pdf", nil)
	require.Error(t, err)
	_, _, ok := store.Get("a/b.pdf")
	assert.False(t, ok)
}

func TestMemoryStoreListDelete(t *testing.T) {
	store := NewMemoryStore("")
	ctx := context.Background()
	for _, k := range []string{"certificates/2/b.pdf", "certificates/1/a.pdf", "profiles/1/me.png"} {
		_, err := store.UploadResumable(ctx, k, bytes.NewReader([]byte("x")), 1, "", nil)
		require.NoError(t, err)
	}

	old := time.Now().Add(-48 * time.Hour)
	store.Touch("certificates/1/a.pdf", old)

	objs, err := store.ListFiles(ctx, PrefixCertificates)
	require.NoError(t, err)
	require.Len(t, objs, 2)
	assert.Equal(t, "certificates/1/a.pdf", objs[0].Key)
	assert.True(t, objs[0].LastModified.Equal(old))

	require.NoError(t, store.DeleteFile(ctx, "certificates/1/a.pdf"))
	objs, err = store.ListFiles(ctx, "")
	require.NoError(t, err)
	assert.Len(t, objs, 2)
}
