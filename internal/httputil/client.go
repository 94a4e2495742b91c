// Package httputil configures the HTTP client used for CWA Open Data
// requests.
package httputil

import (
	"net/http"
	"time"
)

const (
	DefaultTimeout = 30 * time.Second

	// UserAgent identifies this service to the CWA platform.
	UserAgent = "auspicious/1.0 (climatology analysis)"
)

type userAgentTransport struct {
	base http.RoundTripper
}

func (t *userAgentTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	req.Header.Set("User-Agent", UserAgent)
	return t.base.RoundTrip(req)
}

// NewClient returns an HTTP client with the standard timeout and the
// service User-Agent applied to every request.
func NewClient() *http.Client {
	return &http.Client{
		Timeout:   DefaultTimeout,
		Transport: &userAgentTransport{base: http.DefaultTransport},
	}
}
