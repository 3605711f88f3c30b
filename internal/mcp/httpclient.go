package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/claude/splitlog/internal/models"
	"github.com/claude/splitlog/internal/workout"
	"github.com/google/uuid"
)

// HTTPClient implements DataSource by calling the SplitLog REST API.
// Used for stdio MCP mode where the binary runs next to the assistant and
// data lives on the remote server. The bearer token identifies the user, so
// the userID arguments are ignored.
type HTTPClient struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

// Compile-time check: HTTPClient satisfies DataSource.
var _ DataSource = (*HTTPClient)(nil)

// NewHTTPClient creates an HTTPClient targeting the given base URL.
func NewHTTPClient(baseURL, token string) *HTTPClient {
	return &HTTPClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		token:      token,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

func (c *HTTPClient) get(ctx context.Context, path string, params url.Values, out any) error {
	u := c.baseURL + path
	if len(params) > 0 {
		u += "?" + params.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return fmt.Errorf("httpclient: create request: %w", err)
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("httpclient: %s: %w", path, err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("httpclient: read body: %w", err)
	}

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusNotFound:
		return fmt.Errorf("httpclient: %s: %w: %s", path, workout.ErrNotFound, apiError(body))
	case http.StatusUnauthorized:
		return fmt.Errorf("httpclient: %s: %w", path, workout.ErrUnauthorized)
	default:
		return fmt.Errorf("httpclient: %s returned %d: %s", path, resp.StatusCode, apiError(body))
	}

	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("httpclient: decode %s: %w", path, err)
	}
	return nil
}

// apiError extracts the "error" field of a JSON error body.
func apiError(body []byte) string {
	var e struct {
		Error string `json:"error"`
	}
	if json.Unmarshal(body, &e) == nil && e.Error != "" {
		return e.Error
	}
	return strings.TrimSpace(string(body))
}

func limitParams(limit int) url.Values {
	v := url.Values{}
	if limit > 0 {
		v.Set("limit", strconv.Itoa(limit))
	}
	return v
}

// Me returns the user ID the token belongs to.
func (c *HTTPClient) Me(ctx context.Context) (int, error) {
	var me struct {
		UserID int `json:"user_id"`
	}
	if err := c.get(ctx, "/api/v1/me", nil, &me); err != nil {
		return 0, err
	}
	return me.UserID, nil
}

func (c *HTTPClient) GetActive(ctx context.Context, _ int) (*models.SessionDetail, error) {
	var detail *models.SessionDetail
	if err := c.get(ctx, "/api/v1/sessions/active", nil, &detail); err != nil {
		return nil, err
	}
	return detail, nil
}

func (c *HTTPClient) Logs(ctx context.Context, _ int, limit int) ([]models.WorkoutLog, error) {
	var logs []models.WorkoutLog
	if err := c.get(ctx, "/api/v1/logs", limitParams(limit), &logs); err != nil {
		return nil, err
	}
	return logs, nil
}

func (c *HTTPClient) LogsBetween(ctx context.Context, _ int, start, end time.Time) ([]models.WorkoutLog, error) {
	params := url.Values{}
	params.Set("start", start.Format(time.RFC3339))
	params.Set("end", end.Format(time.RFC3339))

	var logs []models.WorkoutLog
	if err := c.get(ctx, "/api/v1/logs", params, &logs); err != nil {
		return nil, err
	}
	return logs, nil
}

func (c *HTTPClient) Log(ctx context.Context, logID uuid.UUID, _ int) (*models.WorkoutLog, error) {
	var log models.WorkoutLog
	if err := c.get(ctx, "/api/v1/logs/"+logID.String(), nil, &log); err != nil {
		return nil, err
	}
	return &log, nil
}

func (c *HTTPClient) PersonalRecords(ctx context.Context, _ int) ([]models.PersonalRecord, error) {
	var records []models.PersonalRecord
	if err := c.get(ctx, "/api/v1/records", nil, &records); err != nil {
		return nil, err
	}
	return records, nil
}

func (c *HTTPClient) Stats(ctx context.Context, _ int) (*models.UserStats, error) {
	var stats models.UserStats
	if err := c.get(ctx, "/api/v1/stats", nil, &stats); err != nil {
		return nil, err
	}
	return &stats, nil
}

func (c *HTTPClient) ExerciseHistory(ctx context.Context, _ int, exerciseID uuid.UUID, limit int) ([]models.ExerciseHistoryEntry, error) {
	var history []models.ExerciseHistoryEntry
	if err := c.get(ctx, "/api/v1/exercises/"+exerciseID.String()+"/history", limitParams(limit), &history); err != nil {
		return nil, err
	}
	return history, nil
}
