package upload

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/sahilchouksey/intern-track/utils/apperr"
)

// Strategy names, in the order the default chain tries them
const (
	StrategyDirectFetch = "direct_fetch"
	StrategyXHR         = "xhr"
	StrategyBase64      = "base64_data_uri"
)

// AcquireFunc turns a local file reference into a blob.
// Returning (nil, nil) means "nothing here" and moves the chain on.
type AcquireFunc func(ctx context.Context, uri, mimeType string) (*Blob, error)

// Strategy is one named way of reading a file reference
type Strategy struct {
	Name    string
	Acquire AcquireFunc
}

// Chain tries its strategies strictly in order and stops at the first blob
type Chain struct {
	strategies []Strategy
	logger     *zap.Logger
}

// NewChain creates a chain from an ordered list of strategies
func NewChain(logger *zap.Logger, strategies ...Strategy) *Chain {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Chain{strategies: strategies, logger: logger}
}

// NewDefaultChain wires the three standard strategies: direct fetch, the
// XHR-style bridge request and the base64 data URI round trip
func NewDefaultChain(logger *zap.Logger, bridge *http.Client, fs FileSystem) *Chain {
	return NewChain(logger,
		Strategy{Name: StrategyDirectFetch, Acquire: DirectFetch(NewLocalClient())},
		Strategy{Name: StrategyXHR, Acquire: XHRFetch(bridge)},
		Strategy{Name: StrategyBase64, Acquire: Base64RoundTrip(fs)},
	)
}

// Acquire returns the first blob a strategy produces, or an
// *apperr.UnreadableFileError holding every strategy's failure
func (c *Chain) Acquire(ctx context.Context, uri, mimeType string) (*Blob, error) {
	attempts := make([]error, 0, len(c.strategies))

	for _, s := range c.strategies {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		blob, err := s.Acquire(ctx, uri, mimeType)
		if err == nil && blob != nil {
			blob.Strategy = s.Name
			if blob.ContentType == "" {
				blob.ContentType = mimeType
			}
			c.logger.Debug("blob acquired",
				zap.String("strategy", s.Name),
				zap.String("uri", uri),
				zap.Int64("bytes", blob.Size()))
			return blob, nil
		}

		if err == nil {
			err = errors.New("returned no data")
		}
		err = fmt.Errorf("%s: %w", s.Name, err)
		attempts = append(attempts, err)
		c.logger.Warn("blob strategy failed, trying next", zap.String("uri", uri), zap.Error(err))
	}

	return nil, &apperr.UnreadableFileError{URI: uri, Attempts: attempts}
}

// NewLocalClient returns an HTTP client that also understands file:// URLs
func NewLocalClient() *http.Client {
	t := http.DefaultTransport.(*http.Transport).Clone()
	t.RegisterProtocol("file", http.NewFileTransport(http.Dir("/")))
	return &http.Client{Transport: t}
}

// DirectFetch reads the URI with a plain GET. Bare paths are treated as
// file:// URLs.
func DirectFetch(client *http.Client) AcquireFunc {
	return func(ctx context.Context, uri, mimeType string) (*Blob, error) {
		target, err := normaliseURI(uri)
		if err != nil {
			return nil, err
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
		if err != nil {
			return nil, fmt.Errorf("failed to create request: %w", err)
		}

		resp, err := client.Do(req)
		if err != nil {
			return nil, err
		}
		defer resp.Body.Close()

		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			return nil, fmt.Errorf("fetch status %d", resp.StatusCode)
		}

		data, err := io.ReadAll(resp.Body)
		if err != nil {
			return nil, fmt.Errorf("failed to read body: %w", err)
		}
		return &Blob{Data: data, ContentType: mimeType}, nil
	}
}

// XHRFetch issues a binary GET through the bridge client. Status 200 and
// status 0 both count as success: bridges serving local schemes may report
// no numeric code at all.
func XHRFetch(bridge *http.Client) AcquireFunc {
	return func(ctx context.Context, uri, mimeType string) (*Blob, error) {
		if bridge == nil {
			return nil, errors.New("no bridge client configured")
		}

		target, err := normaliseURI(uri)
		if err != nil {
			return nil, err
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
		if err != nil {
			return nil, fmt.Errorf("XHR error while fetching file: %w", err)
		}
		req.Header.Set("Accept", "*/*")

		resp, err := bridge.Do(req)
		if err != nil {
			return nil, fmt.Errorf("XHR error while fetching file: %w", err)
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK && resp.StatusCode != 0 {
			return nil, fmt.Errorf("XHR status %d", resp.StatusCode)
		}

		data, err := io.ReadAll(resp.Body)
		if err != nil {
			return nil, fmt.Errorf("XHR error while reading body: %w", err)
		}
		return &Blob{Data: data, ContentType: mimeType}, nil
	}
}

// Base64RoundTrip reads the file as base64 text, wraps it in a data URI and
// decodes that back into a blob. It holds the file in memory twice.
func Base64RoundTrip(fs FileSystem) AcquireFunc {
	return func(ctx context.Context, uri, mimeType string) (*Blob, error) {
		if fs == nil {
			return nil, errors.New("no filesystem accessor configured")
		}

		encoded, err := fs.ReadAsBase64(ctx, uri)
		if err != nil {
			return nil, err
		}

		dataURI := "data:" + mimeType + ";base64," + encoded
		data, contentType, err := FetchDataURI(dataURI)
		if err != nil {
			return nil, err
		}
		return &Blob{Data: data, ContentType: contentType}, nil
	}
}

// FetchDataURI decodes a data: URI into its payload and media type
func FetchDataURI(dataURI string) ([]byte, string, error) {
	rest, ok := strings.CutPrefix(dataURI, "data:")
	if !ok {
		return nil, "", errors.New("not a data URI")
	}

	meta, payload, ok := strings.Cut(rest, ",")
	if !ok {
		return nil, "", errors.New("malformed data URI: missing payload")
	}

	isBase64 := strings.HasSuffix(meta, ";base64")
	mediaType := strings.TrimSuffix(meta, ";base64")
	if mediaType == "" {
		mediaType = "text/plain;charset=US-ASCII"
	}

	if !isBase64 {
		decoded, err := url.PathUnescape(payload)
		if err != nil {
			return nil, "", fmt.Errorf("malformed data URI: %w", err)
		}
		return []byte(decoded), mediaType, nil
	}

	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil, "", fmt.Errorf("malformed base64 payload: %w", err)
	}
	return data, mediaType, nil
}

// normaliseURI turns a bare filesystem path into a file:// URL
func normaliseURI(uri string) (string, error) {
	if uri == "" {
		return "", errors.New("empty file reference")
	}
	if strings.Contains(uri, "://") {
		return uri, nil
	}

	abs, err := filepath.Abs(uri)
	if err != nil {
		return "", fmt.Errorf("failed to resolve path: %w", err)
	}
	return (&url.URL{Scheme: "file", Path: filepath.ToSlash(abs)}).String(), nil
}
