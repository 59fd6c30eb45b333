package blobstore

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"sort"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sahilchouksey/intern-track/services/upload"
)

// fakeS3 implements the handful of path-style S3 calls the client makes
type fakeS3 struct {
	mu      sync.Mutex
	objects map[string][]byte
	types   map[string]string
	reject  bool
}

func newFakeS3() *fakeS3 {
	return &fakeS3{objects: map[string][]byte{}, types: map[string]string{}}
}

func (f *fakeS3) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	// /<bucket>/<key>
	parts := strings.SplitN(strings.TrimPrefix(r.URL.Path, "/"), "/", 2)
	key := ""
	if len(parts) == 2 {
		key = parts[1]
	}

	switch {
	case r.Method == http.MethodPut && key != "":
		if f.reject {
			w.WriteHeader(http.StatusForbidden)
			fmt.Fprint(w, `<?xml version="1.0" encoding="UTF-8"?><Error><Code>AccessDenied</Code><Message>bucket is read-only</Message></Error>`)
			return
		}
		body, _ := io.ReadAll(r.Body)
		f.objects[key] = body
		f.types[key] = r.Header.Get("Content-Type")
		w.Header().Set("ETag", `"etag"`)
		w.WriteHeader(http.StatusOK)

	case r.Method == http.MethodDelete && key != "":
		delete(f.objects, key)
		w.WriteHeader(http.StatusNoContent)

	case r.Method == http.MethodGet && key == "":
		prefix := r.URL.Query().Get("prefix")
		var keys []string
		for k := range f.objects {
			if strings.HasPrefix(k, prefix) {
				keys = append(keys, k)
			}
		}
		sort.Strings(keys)

		var buf bytes.Buffer
		buf.WriteString(`<?xml version="1.0" encoding="UTF-8"?><ListBucketResult xmlns="http://s3.amazonaws.com/doc/2006-03-01/">`)
		fmt.Fprintf(&buf, "<Name>%s</Name><Prefix>%s</Prefix><KeyCount>%d</KeyCount><IsTruncated>false</IsTruncated>", parts[0], prefix, len(keys))
		for _, k := range keys {
			fmt.Fprintf(&buf, "<Contents><Key>%s</Key><Size>%d</Size><LastModified>2024-05-01T10:00:00.000Z</LastModified></Contents>", k, len(f.objects[k]))
		}
		buf.WriteString("</ListBucketResult>")
		w.Header().Set("Content-Type", "application/xml")
		_, _ = w.Write(buf.Bytes())

	default:
		w.WriteHeader(http.StatusNotImplemented)
	}
}

func newTestSpaces(t *testing.T, fake *fakeS3, cdn string) *SpacesClient {
	t.Helper()
	srv := httptest.NewServer(fake)
	t.Cleanup(srv.Close)

	client, err := NewSpacesClient(SpacesConfig{
		AccessKey: "key",
		SecretKey: "secret",
		Bucket:    "interns",
		Region:    "us-east-1",
		Endpoint:  srv.URL,
		CDNURL:    cdn,
		PathStyle: true,
	})
	require.NoError(t, err)
	return client
}

func TestSpacesUploadResumable(t *testing.T) {
	fake := newFakeS3()
	client := newTestSpaces(t, fake, "")

	data := bytes.Repeat([]byte("a"), 300*1024)
	var last int64
	var calls int
	ref, err := client.UploadResumable(context.Background(), "certificates/1/a.pdf", bytes.NewReader(data), int64(len(data)), "application/pdf", func(n int64) {
		assert.GreaterOrEqual(t, n, last)
		last = n
		calls++
	})
	require.NoError(t, err)

	assert.Equal(t, "certificates/1/a.pdf", ref.Key)
	assert.Equal(t, int64(len(data)), last)
	assert.Greater(t, calls, 0)
	assert.Equal(t, data, fake.objects["certificates/1/a.pdf"])
	assert.Equal(t, "application/pdf", fake.types["certificates/1/a.pdf"])

	url, err := client.PublicURL(context.Background(), ref)
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(url, "/interns/certificates/1/a.pdf"), url)
}

func TestSpacesUploadRejected(t *testing.T) {
	fake := newFakeS3()
	fake.reject = true
	client := newTestSpaces(t, fake, "")

	_, err := client.UploadResumable(context.Background(), "certificates/1/a.pdf", strings.NewReader("x"), 1, "application/pdf", nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "AccessDenied")
	assert.Empty(t, fake.objects)
}

func TestSpacesListAndDelete(t *testing.T) {
	fake := newFakeS3()
	fake.objects["certificates/1/a.pdf"] = []byte("aa")
	fake.objects["certificates/2/b.pdf"] = []byte("b")
	fake.objects["planning/1_1.pdf"] = []byte("p")
	client := newTestSpaces(t, fake, "")

	objs, err := client.ListFiles(context.Background(), PrefixCertificates)
	require.NoError(t, err)
	require.Len(t, objs, 2)
	assert.Equal(t, "certificates/1/a.pdf", objs[0].Key)
	assert.Equal(t, int64(2), objs[0].Size)
	assert.False(t, objs[0].LastModified.IsZero())

	require.NoError(t, client.DeleteFile(context.Background(), "certificates/1/a.pdf"))
	_, ok := fake.objects["certificates/1/a.pdf"]
	assert.False(t, ok)
}

func TestSpacesCDNURL(t *testing.T) {
	client := newTestSpaces(t, newFakeS3(), "https://cdn.example.com/")
	url, err := client.PublicURL(context.Background(), upload.ObjectRef{Key: "profiles/1/me.png"})
	require.NoError(t, err)
	assert.Equal(t, "https://cdn.example.com/profiles/1/me.png", url)

	_, err = client.PublicURL(context.Background(), upload.ObjectRef{})
	assert.Error(t, err)
}

func TestNewSpacesClientRequiresBucket(t *testing.T) {
	_, err := NewSpacesClient(SpacesConfig{Region: "nyc3"})
	assert.Error(t, err)
}

func TestVirtualHostURL(t *testing.T) {
	client, err := NewSpacesClient(SpacesConfig{AccessKey: "k", SecretKey: "s", Bucket: "interns", Region: "nyc3"})
	require.NoError(t, err)
	assert.Equal(t, "https://interns.nyc3.digitaloceanspaces.com/a/b.pdf", client.GetFileURL("a/b.pdf"))
}
