// Package client talks to the task API on behalf of the terminal UI.
// The server's returned document is the source of truth after every
// round trip; a local cache file only covers fetches while the server
// is unreachable.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"github.com/taskline-app/taskline/internal/model"
)

// ErrServer is returned when the API answers with an error status.
var ErrServer = errors.New("server error")

type Client struct {
	baseURL   string
	http      *http.Client
	cachePath string
}

// New creates a client for the given API base URL. cachePath may be
// empty to disable the offline fallback.
func New(baseURL string, cachePath string) *Client {
	return &Client{
		baseURL:   baseURL,
		http:      &http.Client{Timeout: 10 * time.Second},
		cachePath: cachePath,
	}
}

// Fetch loads the whole document. When the server is unreachable it
// falls back to the last cached copy; fromCache reports which source
// answered. Cached data is best-effort and is replaced wholesale by the
// next successful round trip.
func (c *Client) Fetch(ctx context.Context) (tasks []model.Task, fromCache bool, err error) {
	tasks, err = c.do(ctx, http.MethodGet, "/tasks", nil)
	if err != nil {
		cached, cacheErr := c.readCache()
		if cacheErr != nil {
			return nil, false, err
		}
		return cached, true, nil
	}
	c.writeCache(tasks)
	return tasks, false, nil
}

type createBody struct {
	Text     string `json:"text"`
	DueDate  *int64 `json:"dueDate,omitempty"`
	ParentID string `json:"parentId,omitempty"`
}

// CreateTask appends a task and returns the server's updated document.
func (c *Client) CreateTask(ctx context.Context, text string, dueDate *int64) ([]model.Task, error) {
	return c.mutate(ctx, http.MethodPost, "/tasks", createBody{Text: text, DueDate: dueDate})
}

// AddSubtask appends a subtask under the given parent.
func (c *Client) AddSubtask(ctx context.Context, parentID, text string) ([]model.Task, error) {
	return c.mutate(ctx, http.MethodPost, "/tasks", createBody{Text: text, ParentID: parentID})
}

// SetCompleted flips a task's completion flag.
func (c *Client) SetCompleted(ctx context.Context, taskID string, completed bool) ([]model.Task, error) {
	path := "/tasks?" + url.Values{"id": {taskID}}.Encode()
	return c.mutate(ctx, http.MethodPut, path, map[string]bool{"completed": completed})
}

// SetSubtaskCompleted flips a subtask's completion flag.
func (c *Client) SetSubtaskCompleted(ctx context.Context, taskID, subtaskID string, completed bool) ([]model.Task, error) {
	path := "/tasks?" + url.Values{"id": {taskID}, "subtaskId": {subtaskID}}.Encode()
	return c.mutate(ctx, http.MethodPut, path, map[string]bool{"completed": completed})
}

// DeleteTask removes a task.
func (c *Client) DeleteTask(ctx context.Context, taskID string) ([]model.Task, error) {
	path := "/tasks?" + url.Values{"id": {taskID}}.Encode()
	return c.mutate(ctx, http.MethodDelete, path, nil)
}

// DeleteSubtask removes a single subtask.
func (c *Client) DeleteSubtask(ctx context.Context, taskID, subtaskID string) ([]model.Task, error) {
	path := "/tasks?" + url.Values{"id": {taskID}, "subtaskId": {subtaskID}}.Encode()
	return c.mutate(ctx, http.MethodDelete, path, nil)
}

func (c *Client) mutate(ctx context.Context, method, path string, body any) ([]model.Task, error) {
	tasks, err := c.do(ctx, method, path, body)
	if err != nil {
		return nil, err
	}
	c.writeCache(tasks)
	return tasks, nil
}

func (c *Client) do(ctx context.Context, method, path string, body any) ([]model.Task, error) {
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return nil, fmt.Errorf("%w: %s %s returned %d", ErrServer, method, path, resp.StatusCode)
	}

	var tasks []model.Task
	if err := json.NewDecoder(resp.Body).Decode(&tasks); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	return model.Normalize(tasks), nil
}

func (c *Client) readCache() ([]model.Task, error) {
	if c.cachePath == "" {
		return nil, fs.ErrNotExist
	}
	raw, err := os.ReadFile(c.cachePath)
	if err != nil {
		return nil, err
	}
	var tasks []model.Task
	if err := json.Unmarshal(raw, &tasks); err != nil {
		return nil, err
	}
	return model.Normalize(tasks), nil
}

// writeCache is best-effort; a failed cache write never fails the
// operation that produced the document.
func (c *Client) writeCache(tasks []model.Task) {
	if c.cachePath == "" {
		return
	}
	raw, err := json.Marshal(tasks)
	if err != nil {
		return
	}
	if err := os.MkdirAll(filepath.Dir(c.cachePath), 0o755); err != nil {
		return
	}
	os.WriteFile(c.cachePath, raw, 0o644)
}
