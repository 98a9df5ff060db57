package gateway

import (
	"net/http"
	"time"
)

// userAgentTransport stamps every outbound request with the configured agent.
type userAgentTransport struct {
	base  http.RoundTripper
	agent string
}

func newUserAgentTransport(base http.RoundTripper, agent string) http.RoundTripper {
	if base == nil {
		base = http.DefaultTransport
	}
	if agent == "" {
		return base
	}
	return &userAgentTransport{base: base, agent: agent}
}

func (t *userAgentTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	req = req.Clone(req.Context())
	req.Header.Set("User-Agent", t.agent)
	return t.base.RoundTrip(req)
}

// NewHTTPClient returns a plain client for calls that need no GitHub credentials.
func NewHTTPClient(timeout time.Duration, agent string) *http.Client {
	return &http.Client{
		Timeout:   timeout,
		Transport: newUserAgentTransport(nil, agent),
	}
}
