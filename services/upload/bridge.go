package upload

import (
	"fmt"
	"net/http"
	"net/url"
)

// bridgeTransport forwards every request to a file bridge that serves local
// references it can see but this process cannot, e.g. content:// URIs
type bridgeTransport struct {
	base *url.URL
	next http.RoundTripper
}

func (t *bridgeTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	target := *t.base
	q := target.Query()
	q.Set("uri", req.URL.String())
	target.RawQuery = q.Encode()

	out := req.Clone(req.Context())
	out.URL = &target
	out.Host = target.Host
	return t.next.RoundTrip(out)
}

// NewBridgeClient returns the client used by the XHR strategy. With an
// empty baseURL the client reads file:// URLs itself.
func NewBridgeClient(baseURL string) (*http.Client, error) {
	if baseURL == "" {
		return NewLocalClient(), nil
	}
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid bridge URL: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("bridge URL must be http or https, got %q", u.Scheme)
	}
	return &http.Client{Transport: &bridgeTransport{base: u, next: http.DefaultTransport}}, nil
}
