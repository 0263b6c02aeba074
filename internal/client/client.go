// Package client is a Go client for the task tracker HTTP API.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/yukikurage/task-tracker-api/internal/constants"
	"github.com/yukikurage/task-tracker-api/internal/dto"
	"github.com/yukikurage/task-tracker-api/internal/models"
	"github.com/yukikurage/task-tracker-api/internal/validation"
)

const defaultTimeout = 30 * time.Second

// Client calls the API on behalf of the user whose token is in tokens.
type Client struct {
	baseURL    string
	httpClient *http.Client
	tokens     TokenStore
}

type Option func(*Client)

// WithHTTPClient replaces the default http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

func New(baseURL string, tokens TokenStore, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: defaultTimeout},
		tokens:     tokens,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// RegisterRequest creates an account.
type RegisterRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// TaskCreate is the body of a create call.
type TaskCreate struct {
	Title       string              `json:"title"`
	Description string              `json:"description,omitempty"`
	Status      models.TaskStatus   `json:"status,omitempty"`
	Priority    models.TaskPriority `json:"priority,omitempty"`
	Category    string              `json:"category,omitempty"`
	DueDate     *time.Time          `json:"dueDate,omitempty"`
	Tags        []string            `json:"tags,omitempty"`
}

// TaskUpdate names the fields to change. Nil fields are left alone;
// ClearDueDate sends an explicit null for the due date.
type TaskUpdate struct {
	Title        *string
	Description  *string
	Status       *models.TaskStatus
	Priority     *models.TaskPriority
	Category     *string
	DueDate      *time.Time
	ClearDueDate bool
	Tags         *[]string
}

func (u TaskUpdate) MarshalJSON() ([]byte, error) {
	body := make(map[string]any)
	if u.Title != nil {
		body["title"] = *u.Title
	}
	if u.Description != nil {
		body["description"] = *u.Description
	}
	if u.Status != nil {
		body["status"] = *u.Status
	}
	if u.Priority != nil {
		body["priority"] = *u.Priority
	}
	if u.Category != nil {
		body["category"] = *u.Category
	}
	switch {
	case u.ClearDueDate:
		body["dueDate"] = nil
	case u.DueDate != nil:
		body["dueDate"] = u.DueDate.UTC()
	}
	if u.Tags != nil {
		body["tags"] = *u.Tags
	}
	return json.Marshal(body)
}

// ListOptions maps onto the list query string. Zero values are omitted.
type ListOptions struct {
	Status          models.TaskStatus
	Priority        models.TaskPriority
	Category        string
	Search          string
	SortBy          string
	SortOrder       string
	IncludeArchived bool
	Page            int
	Limit           int
}

func (o ListOptions) values() url.Values {
	v := url.Values{}
	set := func(key, value string) {
		if value != "" {
			v.Set(key, value)
		}
	}
	set("status", string(o.Status))
	set("priority", string(o.Priority))
	set("category", o.Category)
	set("search", o.Search)
	set("sortBy", o.SortBy)
	set("sortOrder", o.SortOrder)
	if o.IncludeArchived {
		v.Set("includeArchived", "true")
	}
	if o.Page > 0 {
		v.Set("page", strconv.Itoa(o.Page))
	}
	if o.Limit > 0 {
		v.Set("limit", strconv.Itoa(o.Limit))
	}
	return v
}

// Register creates an account. It does not log in.
func (c *Client) Register(ctx context.Context, req RegisterRequest) (*dto.UserDTO, error) {
	var user dto.UserDTO
	if err := c.do(ctx, http.MethodPost, "/api/auth/register", nil, req, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// Login exchanges credentials for a token and stores it.
func (c *Client) Login(ctx context.Context, email, password string) (*dto.LoginResponse, error) {
	var resp dto.LoginResponse
	body := map[string]string{"email": email, "password": password}
	if err := c.do(ctx, http.MethodPost, "/api/auth/login", nil, body, &resp); err != nil {
		return nil, err
	}
	if err := c.tokens.SetToken(resp.Token); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Logout ends the server session and forgets the stored token.
func (c *Client) Logout(ctx context.Context) error {
	if err := c.do(ctx, http.MethodPost, "/api/auth/logout", nil, nil, nil); err != nil {
		return err
	}
	return c.tokens.Clear()
}

func (c *Client) Me(ctx context.Context) (*dto.UserDTO, error) {
	var user dto.UserDTO
	if err := c.do(ctx, http.MethodGet, "/api/auth/me", nil, nil, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

func (c *Client) ListTasks(ctx context.Context, opts ListOptions) (*dto.TaskListResponse, error) {
	var resp dto.TaskListResponse
	if err := c.do(ctx, http.MethodGet, "/api/tasks", opts.values(), nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) GetTask(ctx context.Context, id uint64) (*dto.TaskDTO, error) {
	var task dto.TaskDTO
	if err := c.do(ctx, http.MethodGet, taskPath(id), nil, nil, &task); err != nil {
		return nil, err
	}
	return &task, nil
}

func (c *Client) CreateTask(ctx context.Context, req TaskCreate) (*dto.TaskDTO, error) {
	var task dto.TaskDTO
	if err := c.do(ctx, http.MethodPost, "/api/tasks", nil, req, &task); err != nil {
		return nil, err
	}
	return &task, nil
}

func (c *Client) UpdateTask(ctx context.Context, id uint64, req TaskUpdate) (*dto.TaskDTO, error) {
	var task dto.TaskDTO
	if err := c.do(ctx, http.MethodPatch, taskPath(id), nil, req, &task); err != nil {
		return nil, err
	}
	return &task, nil
}

func (c *Client) DeleteTask(ctx context.Context, id uint64) error {
	return c.do(ctx, http.MethodDelete, taskPath(id), nil, nil, nil)
}

// ToggleArchive flips the archived flag and returns the task's new state.
func (c *Client) ToggleArchive(ctx context.Context, id uint64) (*dto.TaskDTO, error) {
	var task dto.TaskDTO
	if err := c.do(ctx, http.MethodPatch, taskPath(id)+"/archive", nil, nil, &task); err != nil {
		return nil, err
	}
	return &task, nil
}

func (c *Client) BulkUpdate(ctx context.Context, ids []uint64, update TaskUpdate) (*dto.BulkUpdateResponse, error) {
	var resp dto.BulkUpdateResponse
	body := map[string]any{"taskIds": ids, "updates": update}
	if err := c.do(ctx, http.MethodPut, "/api/tasks/bulk", nil, body, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Stats returns the overview; timezone may be empty.
func (c *Client) Stats(ctx context.Context, timezone string, includeArchived bool) (*dto.TaskStatsResponse, error) {
	query := url.Values{}
	if timezone != "" {
		query.Set("timezone", timezone)
	}
	if includeArchived {
		query.Set("includeArchived", "true")
	}

	var stats dto.TaskStatsResponse
	if err := c.do(ctx, http.MethodGet, "/api/tasks/stats/overview", query, nil, &stats); err != nil {
		return nil, err
	}
	return &stats, nil
}

func (c *Client) SuggestTasks(ctx context.Context, text string) ([]dto.TaskSuggestion, error) {
	var resp dto.SuggestionsResponse
	if err := c.do(ctx, http.MethodPost, "/api/tasks/suggest", nil, map[string]string{"text": text}, &resp); err != nil {
		return nil, err
	}
	return resp.Suggestions, nil
}

func taskPath(id uint64) string {
	return "/api/tasks/" + strconv.FormatUint(id, 10)
}

type envelope struct {
	Success bool                    `json:"success"`
	Message string                  `json:"message"`
	Data    json.RawMessage         `json:"data"`
	Errors  []validation.FieldError `json:"errors"`
}

// do sends one request and decodes the envelope's data into out.
func (c *Client) do(ctx context.Context, method, path string, query url.Values, in, out any) error {
	target := c.baseURL + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}

	var body io.Reader
	if in != nil {
		raw, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		body = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	token, err := c.tokens.Token()
	if err != nil {
		return err
	}
	if token != "" {
		req.Header.Set(constants.HeaderAuthorization, constants.BearerPrefix+" "+token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	var env envelope
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &env); err != nil && resp.StatusCode < 300 {
			return fmt.Errorf("failed to decode response: %w", err)
		}
	}

	if resp.StatusCode >= 300 {
		return &APIError{
			Status:  resp.StatusCode,
			Message: env.Message,
			Fields:  env.Errors,
		}
	}

	if out == nil || len(env.Data) == 0 {
		return nil
	}
	if err := json.Unmarshal(env.Data, out); err != nil {
		return fmt.Errorf("failed to decode response data: %w", err)
	}
	return nil
}
