// Package remote talks to the hosted store over HTTP and websockets. Client
// implements the engine's RemoteStore interface with bulk row endpoints;
// Subscription delivers change notifications for the realtime reconciler.
package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/kwestin/listsync/internal/schema"
)

// Client is an HTTP client for the remote store's bulk row API. It handles
// Bearer token authentication and retries transient failures (429 and 5xx)
// with exponential backoff. Safe for concurrent use.
type Client struct {
	baseURL    string
	token      string
	userID     string
	httpClient *http.Client
	maxRetries int
	logger     *log.Logger
}

// NewClient creates a client for the store at baseURL, authenticating with
// token and acting for userID. A nil logger falls back to stderr.
func NewClient(baseURL, token, userID string, logger *log.Logger) *Client {
	if logger == nil {
		logger = log.New(os.Stderr, "[remote] ", log.LstdFlags)
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		userID:  userID,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		maxRetries: 3,
		logger:     logger,
	}
}

// FetchLists returns every list row belonging to the user.
func (c *Client) FetchLists(ctx context.Context, userID string) ([]schema.ListRow, error) {
	var rows []schema.ListRow
	if err := c.do(ctx, http.MethodGet, collectionPath(schema.CollectionLists, userID), nil, &rows); err != nil {
		return nil, fmt.Errorf("failed to fetch lists: %w", err)
	}
	return rows, nil
}

// FetchCategories returns every category row belonging to the user.
func (c *Client) FetchCategories(ctx context.Context, userID string) ([]schema.CategoryRow, error) {
	var rows []schema.CategoryRow
	if err := c.do(ctx, http.MethodGet, collectionPath(schema.CollectionCategories, userID), nil, &rows); err != nil {
		return nil, fmt.Errorf("failed to fetch categories: %w", err)
	}
	return rows, nil
}

// FetchTasks returns every task row belonging to the user.
func (c *Client) FetchTasks(ctx context.Context, userID string) ([]schema.TaskRow, error) {
	var rows []schema.TaskRow
	if err := c.do(ctx, http.MethodGet, collectionPath(schema.CollectionTasks, userID), nil, &rows); err != nil {
		return nil, fmt.Errorf("failed to fetch tasks: %w", err)
	}
	return rows, nil
}

// FetchPreference returns the user's preference record. A user who has
// never written one yields (nil, nil).
func (c *Client) FetchPreference(ctx context.Context, userID string) (*schema.PreferenceRow, error) {
	var row schema.PreferenceRow
	err := c.do(ctx, http.MethodGet, "/v1/preferences/"+url.PathEscape(userID), nil, &row)
	if err != nil {
		var apiErr *APIError
		if errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusNotFound {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to fetch preference: %w", err)
	}
	return &row, nil
}

// UpsertLists writes the given list rows, overwriting by id.
func (c *Client) UpsertLists(ctx context.Context, rows []schema.ListRow) error {
	if len(rows) == 0 {
		return nil
	}
	if err := c.do(ctx, http.MethodPost, "/v1/"+schema.CollectionLists, rows, nil); err != nil {
		return fmt.Errorf("failed to upsert lists: %w", err)
	}
	return nil
}

// UpsertCategories writes the given category rows, overwriting by id.
func (c *Client) UpsertCategories(ctx context.Context, rows []schema.CategoryRow) error {
	if len(rows) == 0 {
		return nil
	}
	if err := c.do(ctx, http.MethodPost, "/v1/"+schema.CollectionCategories, rows, nil); err != nil {
		return fmt.Errorf("failed to upsert categories: %w", err)
	}
	return nil
}

// UpsertTasks writes the given task rows, overwriting by id.
func (c *Client) UpsertTasks(ctx context.Context, rows []schema.TaskRow) error {
	if len(rows) == 0 {
		return nil
	}
	if err := c.do(ctx, http.MethodPost, "/v1/"+schema.CollectionTasks, rows, nil); err != nil {
		return fmt.Errorf("failed to upsert tasks: %w", err)
	}
	return nil
}

// UpsertPreference writes the user's preference record.
func (c *Client) UpsertPreference(ctx context.Context, row schema.PreferenceRow) error {
	if err := c.do(ctx, http.MethodPut, "/v1/preferences/"+url.PathEscape(row.UserID), row, nil); err != nil {
		return fmt.Errorf("failed to upsert preference: %w", err)
	}
	return nil
}

// DeleteLists removes the identified list rows and, server-side, their
// categories and tasks.
func (c *Client) DeleteLists(ctx context.Context, ids []string) error {
	return c.deleteRows(ctx, schema.CollectionLists, ids)
}

// DeleteCategories removes the identified category rows.
func (c *Client) DeleteCategories(ctx context.Context, ids []string) error {
	return c.deleteRows(ctx, schema.CollectionCategories, ids)
}

// DeleteTasks removes the identified task rows and their subtasks.
func (c *Client) DeleteTasks(ctx context.Context, ids []string) error {
	return c.deleteRows(ctx, schema.CollectionTasks, ids)
}

func (c *Client) deleteRows(ctx context.Context, collection string, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	query := url.Values{}
	query.Set("user_id", c.userID)
	query.Set("ids", strings.Join(ids, ","))
	path := "/v1/" + collection + "?" + query.Encode()
	if err := c.do(ctx, http.MethodDelete, path, nil, nil); err != nil {
		return fmt.Errorf("failed to delete %s: %w", collection, err)
	}
	return nil
}

func collectionPath(collection, userID string) string {
	query := url.Values{}
	query.Set("user_id", userID)
	return "/v1/" + collection + "?" + query.Encode()
}

// do builds the request, adds auth, retries transient failures, and decodes
// the JSON response into result when non-nil.
func (c *Client) do(ctx context.Context, method, path string, body, result any) error {
	var payload []byte
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request body: %w", err)
		}
		payload = data
	}

	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		var bodyReader io.Reader
		if payload != nil {
			bodyReader = bytes.NewReader(payload)
		}

		req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bodyReader)
		if err != nil {
			return fmt.Errorf("failed to create request: %w", err)
		}
		req.Header.Set("Authorization", "Bearer "+c.token)
		req.Header.Set("Accept", "application/json")
		if payload != nil {
			req.Header.Set("Content-Type", "application/json")
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return fmt.Errorf("request %s %s failed: %w", method, path, err)
		}

		respBody, readErr := io.ReadAll(resp.Body)
		resp.Body.Close()
		if readErr != nil {
			return fmt.Errorf("failed to read response body: %w", readErr)
		}

		if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
			wait := retryAfterDuration(resp, attempt)
			lastErr = &APIError{StatusCode: resp.StatusCode, Message: errorMessage(respBody)}
			c.logger.Printf("Retrying %s %s in %v (status %d)", method, path, wait, resp.StatusCode)
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(wait):
				continue
			}
		}

		if resp.StatusCode == http.StatusUnauthorized {
			return &AuthError{Message: errorMessage(respBody)}
		}

		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			return &APIError{StatusCode: resp.StatusCode, Message: errorMessage(respBody)}
		}

		if result == nil || resp.StatusCode == http.StatusNoContent {
			return nil
		}
		if err := json.Unmarshal(respBody, result); err != nil {
			return fmt.Errorf("failed to decode response from %s %s: %w", method, path, err)
		}
		return nil
	}

	return fmt.Errorf("gave up after %d retries: %w", c.maxRetries, lastErr)
}

// errorMessage pulls the message out of an {"error": "..."} body, falling
// back to the raw body.
func errorMessage(body []byte) string {
	var payload struct {
		Error string `json:"error"`
	}
	if json.Unmarshal(body, &payload) == nil && payload.Error != "" {
		return payload.Error
	}
	return strings.TrimSpace(string(body))
}

// retryAfterDuration honors a Retry-After header when present, otherwise
// backs off exponentially: 1s, 2s, 4s, capped at 30s.
func retryAfterDuration(resp *http.Response, attempt int) time.Duration {
	if header := resp.Header.Get("Retry-After"); header != "" {
		if seconds, err := strconv.Atoi(header); err == nil {
			return time.Duration(seconds) * time.Second
		}
	}
	backoff := time.Duration(1<<uint(attempt)) * time.Second
	if backoff > 30*time.Second {
		backoff = 30 * time.Second
	}
	return backoff
}
