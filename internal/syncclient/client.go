package syncclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/claude/splitlog/internal/models"
)

const maxAttempts = 3

// StatusError is a non-2xx answer from the server.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("sync failed (status %d): %s", e.Code, strings.TrimSpace(e.Body))
}

// Rejected reports whether the server refused the snapshot itself, so
// resending it can never succeed.
func (e *StatusError) Rejected() bool {
	return e.Code == http.StatusBadRequest || e.Code == http.StatusNotFound
}

// Client sends timer snapshots to the SplitLog server over HTTP.
type Client struct {
	serverURL  string
	token      string
	httpClient *http.Client
	backoff    func(attempt int) time.Duration
}

// NewClient creates a client for serverURL authenticating with a bearer token.
func NewClient(serverURL, token string) *Client {
	return &Client{
		serverURL: strings.TrimRight(serverURL, "/"),
		token:     token,
		httpClient: &http.Client{
			Timeout: 60 * time.Second,
		},
		backoff: func(attempt int) time.Duration {
			return time.Duration(1<<uint(attempt-1)) * time.Second
		},
	}
}

// SendSnapshot POSTs one snapshot to /api/v1/sessions/sync. Network errors
// and 5xx answers are retried up to 3 times with exponential backoff; any
// 4xx answer is returned immediately as a *StatusError.
func (c *Client) SendSnapshot(ctx context.Context, snap Snapshot) error {
	data, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("marshaling snapshot: %w", err)
	}
	return c.sendRaw(ctx, data)
}

func (c *Client) sendRaw(ctx context.Context, data []byte) error {
	var lastErr error
	for attempt := range maxAttempts {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(c.backoff(attempt)):
			}
		}

		err := c.post(ctx, "/api/v1/sessions/sync", data)
		if err == nil {
			return nil
		}
		var se *StatusError
		if errors.As(err, &se) && se.Code < http.StatusInternalServerError {
			return err
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		lastErr = err
	}
	return fmt.Errorf("after %d attempts: %w", maxAttempts, lastErr)
}

func (c *Client) post(ctx context.Context, path string, data []byte) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.serverURL+path, bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	c.authorize(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()

	if resp.StatusCode/100 == 2 {
		return nil
	}
	return &StatusError{Code: resp.StatusCode, Body: string(body)}
}

// Active fetches the caller's active session. It returns nil when none is
// running.
func (c *Client) Active(ctx context.Context) (*models.SessionDetail, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.serverURL+"/api/v1/sessions/active", nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	c.authorize(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching active session: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, &StatusError{Code: resp.StatusCode, Body: string(body)}
	}

	var detail *models.SessionDetail
	if err := json.NewDecoder(resp.Body).Decode(&detail); err != nil {
		return nil, fmt.Errorf("decoding active session: %w", err)
	}
	return detail, nil
}

func (c *Client) authorize(req *http.Request) {
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
}
