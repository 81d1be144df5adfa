package transport

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
)

// Getter issues a single GET request and returns the response body.
// One request per call; retry and timeout policy belong to the caller's
// context, not here.
type Getter interface {
	Get(ctx context.Context, rawURL string) ([]byte, error)
}

// HTTPClient is the production Getter. It carries a cookie jar so that
// partner-issued cookies travel with every request (the equivalent of
// a credentialed browser fetch).
type HTTPClient struct {
	client *http.Client
}

func New() (*HTTPClient, error) {
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, fmt.Errorf("transport: failed to create cookie jar: %w", err)
	}

	return &HTTPClient{
		client: &http.Client{Jar: jar},
	}, nil
}

func (h *HTTPClient) Get(ctx context.Context, rawURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("transport: invalid request: %w", err)
	}

	resp, err := h.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("transport: request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return nil, fmt.Errorf("transport: unexpected status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("transport: failed to read body: %w", err)
	}

	return body, nil
}
