// internal/common/http/client.go
package http

import (
	"context"
	"net/http"
	"time"
)

// defaultTimeout bounds outbound calls when the caller passes no timeout. The
// analysis pipeline must never hang on a slow upstream.
const defaultTimeout = 30 * time.Second

// Client is the bounded-timeout HTTP client used for outbound API calls such
// as the narrative generator.
type Client struct {
	httpClient *http.Client
}

func NewClient(timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Client{
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

func (c *Client) Do(req *http.Request) (*http.Response, error) {
	return c.httpClient.Do(req)
}

// DoWithContext binds the request to ctx so callers can cancel independently
// of the client timeout.
func (c *Client) DoWithContext(ctx context.Context, req *http.Request) (*http.Response, error) {
	req = req.WithContext(ctx)
	return c.httpClient.Do(req)
}
