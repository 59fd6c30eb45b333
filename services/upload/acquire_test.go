package upload

import (
	"context"
	"encoding/base64"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sahilchouksey/intern-track/utils/apperr"
)

func countingStrategy(name string, calls *[]string, blob *Blob, err error) Strategy {
	return Strategy{Name: name, Acquire: func(ctx context.Context, uri, mimeType string) (*Blob, error) {
		*calls = append(*calls, name)
		return blob, err
	}}
}

func TestChainStopsAtFirstSuccess(t *testing.T) {
	var calls []string
	chain := NewChain(nil,
		countingStrategy("one", &calls, nil, errors.New("fetch status 404")),
		countingStrategy("two", &calls, &Blob{Data: []byte("pdf")}, nil),
		countingStrategy("three", &calls, &Blob{Data: []byte("never")}, nil),
	)

	blob, err := chain.Acquire(context.Background(), "content://doc/1", "application/pdf")
	require.NoError(t, err)

	assert.Equal(t, []string{"one", "two"}, calls)
	assert.Equal(t, "two", blob.Strategy)
	assert.Equal(t, "application/pdf", blob.ContentType)
	assert.Equal(t, []byte("pdf"), blob.Data)
}

func TestChainNilBlobMovesOn(t *testing.T) {
	var calls []string
	chain := NewChain(nil,
		countingStrategy("empty", &calls, nil, nil),
		countingStrategy("full", &calls, &Blob{Data: []byte{}}, nil),
	)

	blob, err := chain.Acquire(context.Background(), "file:///x", "image/png")
	require.NoError(t, err)
	assert.Equal(t, []string{"empty", "full"}, calls)
	assert.Equal(t, int64(0), blob.Size())
}

func TestChainAllFail(t *testing.T) {
	var calls []string
	chain := NewChain(nil,
		countingStrategy("one", &calls, nil, errors.New("first")),
		countingStrategy("two", &calls, nil, errors.New("second")),
		countingStrategy("three", &calls, nil, errors.New("third")),
	)

	_, err := chain.Acquire(context.Background(), "content://doc/1", "application/pdf")
	require.Error(t, err)

	var unreadable *apperr.UnreadableFileError
	require.ErrorAs(t, err, &unreadable)
	require.Len(t, unreadable.Attempts, 3)
	assert.Contains(t, unreadable.Attempts[0].Error(), "first")
	assert.Contains(t, unreadable.Attempts[1].Error(), "second")
	assert.Contains(t, unreadable.Attempts[2].Error(), "third")
	assert.Contains(t, err.Error(), "platform")
	assert.Contains(t, unreadable.Detail(), "content://doc/1")
	assert.Contains(t, unreadable.Detail(), "second")
	assert.Equal(t, []string{"one", "two", "three"}, calls)
}

func TestChainHonoursCancellation(t *testing.T) {
	var calls []string
	chain := NewChain(nil, countingStrategy("one", &calls, &Blob{}, nil))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := chain.Acquire(ctx, "file:///x", DefaultContentType)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, calls)
}

func writeTemp(t *testing.T, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, data, 0o600))
	return path
}

func TestDirectFetchLocalFile(t *testing.T) {
	path := writeTemp(t, "cert.pdf", []byte("%PDF-1.4 body"))
	fetch := DirectFetch(NewLocalClient())

	for _, uri := range []string{path, "file://" + filepath.ToSlash(path)} {
		blob, err := fetch(context.Background(), uri, "application/pdf")
		require.NoError(t, err, uri)
		assert.Equal(t, []byte("%PDF-1.4 body"), blob.Data)
	}

	_, err := fetch(context.Background(), filepath.Join(t.TempDir(), "missing.pdf"), "application/pdf")
	assert.Error(t, err)
}

func TestXHRFetchStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/ok" {
			_, _ = w.Write([]byte("bytes"))
			return
		}
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	fetch := XHRFetch(srv.Client())

	blob, err := fetch(context.Background(), srv.URL+"/ok", "image/png")
	require.NoError(t, err)
	assert.Equal(t, []byte("bytes"), blob.Data)

	_, err = fetch(context.Background(), srv.URL+"/broken", "image/png")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "500")

	_, err = XHRFetch(nil)(context.Background(), srv.URL+"/ok", "image/png")
	assert.Error(t, err)
}

func TestBridgeClientForwardsURI(t *testing.T) {
	var seen string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = r.URL.Query().Get("uri")
		_, _ = w.Write([]byte("from bridge"))
	}))
	defer srv.Close()

	bridge, err := NewBridgeClient(srv.URL + "/files")
	require.NoError(t, err)

	blob, err := XHRFetch(bridge)(context.Background(), "content://media/42", "image/jpeg")
	require.NoError(t, err)
	assert.Equal(t, "content://media/42", seen)
	assert.Equal(t, []byte("from bridge"), blob.Data)

	_, err = NewBridgeClient("ftp://nope")
	assert.Error(t, err)
}

type fakeFS struct {
	data string
	err  error
}

func (f fakeFS) ReadAsBase64(ctx context.Context, uri string) (string, error) {
	return f.data, f.err
}

func TestBase64RoundTrip(t *testing.T) {
	raw := []byte{0x89, 'P', 'N', 'G', 0, 1, 2}
	fetch := Base64RoundTrip(fakeFS{data: base64.StdEncoding.EncodeToString(raw)})

	blob, err := fetch(context.Background(), "content://x", "image/png")
	require.NoError(t, err)
	assert.Equal(t, raw, blob.Data)
	assert.Equal(t, "image/png", blob.ContentType)

	_, err = Base64RoundTrip(fakeFS{err: errors.New("permission denied")})(context.Background(), "content://x", "image/png")
	assert.Error(t, err)

	_, err = Base64RoundTrip(fakeFS{data: "!!not base64"})(context.Background(), "content://x", "image/png")
	assert.Error(t, err)
}

func TestOSFileSystem(t *testing.T) {
	path := writeTemp(t, "a.txt", []byte("hello"))
	encoded, err := OSFileSystem{}.ReadAsBase64(context.Background(), "file://"+filepath.ToSlash(path))
	require.NoError(t, err)
	assert.Equal(t, base64.StdEncoding.EncodeToString([]byte("hello")), encoded)

	_, err = OSFileSystem{}.ReadAsBase64(context.Background(), "content://a")
	assert.Error(t, err)
}

func TestFetchDataURI(t *testing.T) {
	data, ct, err := FetchDataURI("data:application/pdf;base64," + base64.StdEncoding.EncodeToString([]byte("%PDF")))
	require.NoError(t, err)
	assert.Equal(t, []byte("%PDF"), data)
	assert.Equal(t, "application/pdf", ct)

	data, ct, err = FetchDataURI("data:,hello%20world")
	require.NoError(t, err)
	assert.Equal(t, "hello world", string(data))
	assert.Equal(t, "text/plain;charset=US-ASCII", ct)

	_, _, err = FetchDataURI("http://example.com")
	assert.Error(t, err)
	_, _, err = FetchDataURI("data:image/png;base64")
	assert.Error(t, err)
}

func TestDefaultChainFallsBackToBase64(t *testing.T) {
	raw := []byte("certificate bytes")
	fs := fakeFS{data: base64.StdEncoding.EncodeToString(raw)}

	// content:// is not readable by either HTTP strategy here
	chain := NewDefaultChain(nil, NewLocalClient(), fs)
	blob, err := chain.Acquire(context.Background(), "content://com.android.providers/document/9", "application/pdf")
	require.NoError(t, err)
	assert.Equal(t, StrategyBase64, blob.Strategy)
	assert.Equal(t, raw, blob.Data)
}

func TestDefaultChainPrefersDirectFetch(t *testing.T) {
	path := writeTemp(t, "cert.pdf", []byte("direct"))
	chain := NewDefaultChain(nil, NewLocalClient(), fakeFS{err: errors.New("unused")})

	blob, err := chain.Acquire(context.Background(), path, "application/pdf")
	require.NoError(t, err)
	assert.Equal(t, StrategyDirectFetch, blob.Strategy)
}
