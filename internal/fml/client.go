// Package fml downloads floor-plan documents from the public FML bucket.
package fml

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// ErrInvalidDocument means the bucket returned something that is not an FML
// JSON object, typically an XML error page served with status 200.
var ErrInvalidDocument = errors.New("invalid fml document")

// StatusError reports a non-200 response from the bucket.
type StatusError struct {
	Status int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("fml fetch failed with status %d", e.Status)
}

// Client fetches {baseURL}/{projectID}.fml documents.
type Client struct {
	baseURL    string
	userAgent  string
	httpClient *http.Client
}

func NewClient(baseURL, userAgent string) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		userAgent:  userAgent,
		httpClient: &http.Client{Timeout: 15 * time.Second},
	}
}

// Fetch downloads and decodes the floor-plan document for a project
// identifier. Retryable statuses (429, 503) back off before retrying;
// any other non-200 status is returned as a *StatusError.
func (c *Client) Fetch(ctx context.Context, projectID string) (map[string]any, error) {
	if projectID == "" {
		return nil, errors.New("empty project id")
	}
	url := fmt.Sprintf("%s/%s.fml", c.baseURL, projectID)

	body, status, err := c.get(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("fml fetch: %w", err)
	}
	if status != http.StatusOK {
		return nil, &StatusError{Status: status}
	}

	text := strings.TrimSpace(string(body))
	if !strings.HasPrefix(text, "{") {
		return nil, ErrInvalidDocument
	}

	var doc map[string]any
	if err := json.Unmarshal([]byte(text), &doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidDocument, err)
	}
	return doc, nil
}

func (c *Client) get(ctx context.Context, url string) ([]byte, int, error) {
	var lastErr error
	for attempt := 0; attempt < 3; attempt++ {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return nil, 0, err
		}
		req.Header.Set("User-Agent", c.userAgent)

		resp, err := c.httpClient.Do(req)
		if err != nil {
			lastErr = err
			continue
		}

		if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode == http.StatusServiceUnavailable {
			resp.Body.Close()
			lastErr = fmt.Errorf("retryable status %d", resp.StatusCode)
			backoff := time.Duration(500*(1<<attempt)) * time.Millisecond
			select {
			case <-time.After(backoff):
				continue
			case <-ctx.Done():
				return nil, 0, ctx.Err()
			}
		}

		body, err := io.ReadAll(resp.Body)
		resp.Body.Close()
		if err != nil {
			return nil, resp.StatusCode, err
		}
		return body, resp.StatusCode, nil
	}

	if lastErr == nil {
		lastErr = errors.New("fetch failed without error")
	}
	return nil, 0, lastErr
}
