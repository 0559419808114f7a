package utils

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// HTTPClient is the shared client for calls between services. Failed requests
// are retried with exponential backoff; circuit breaking is layered on top of
// this by each caller (gobreaker), not here.
type HTTPClient struct {
	client     *http.Client
	maxRetries int
	baseDelay  time.Duration
}

func NewHTTPClient() *HTTPClient {
	return &HTTPClient{
		client:     &http.Client{Timeout: 5 * time.Second},
		maxRetries: 3,
		baseDelay:  200 * time.Millisecond,
	}
}

// Do sends the request, retrying on network errors and 5xx responses.
// The request body, if any, must be provided via req.GetBody so it can be
// replayed on retry (http.NewRequest sets it for common body types).
func (c *HTTPClient) Do(req *http.Request) (*http.Response, error) {
	var lastErr error

	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			delay := c.baseDelay * (1 << (attempt - 1))
			select {
			case <-time.After(delay):
			case <-req.Context().Done():
				return nil, req.Context().Err()
			}
			if req.GetBody != nil {
				body, err := req.GetBody()
				if err != nil {
					return nil, fmt.Errorf("failed to rewind request body: %v", err)
				}
				req.Body = body
			}
		}

		resp, err := c.client.Do(req)
		if err != nil {
			lastErr = err
			continue
		}
		if resp.StatusCode >= 500 {
			lastErr = fmt.Errorf("server returned status %d", resp.StatusCode)
			resp.Body.Close()
			continue
		}
		return resp, nil
	}

	return nil, fmt.Errorf("request to %s failed after %d attempts: %v", req.URL, c.maxRetries+1, lastErr)
}

// PostJSON marshals the payload and POSTs it, decoding a JSON response into
// out when out is non-nil. Non-2xx responses are returned as errors.
func (c *HTTPClient) PostJSON(ctx context.Context, url string, payload interface{}, out interface{}) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal payload: %v", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(data))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("request to %s returned status %d: %s", url, resp.StatusCode, string(body))
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("failed to decode response from %s: %v", url, err)
		}
	}
	return nil
}

// GetJSON fetches the URL and decodes the JSON response into out.
func (c *HTTPClient) GetJSON(ctx context.Context, url string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}

	resp, err := c.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("request to %s returned status %d: %s", url, resp.StatusCode, string(body))
	}

	return json.NewDecoder(resp.Body).Decode(out)
}
