package taskclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/oauth2"

	"github.com/AmimerNabil/achieveai/internal/adapter/http/dto"
	"github.com/AmimerNabil/achieveai/internal/adapter/http/mapper"
	"github.com/AmimerNabil/achieveai/internal/app/engine"
	"github.com/AmimerNabil/achieveai/internal/core/domain"
	"github.com/AmimerNabil/achieveai/pkg/apierrors"
)

const (
	defaultTimeout  = 15 * time.Second
	maxResponseSize = 4 << 20
)

// ErrNetwork wraps failures to reach the Task API at all.
var ErrNetwork = errors.New("task api unreachable")

// APIError is a non-2xx answer from the Task API.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("task api: status %d", e.Status)
	}
	return fmt.Sprintf("task api: status %d: %s", e.Status, e.Message)
}

func (e *APIError) Unwrap() error {
	switch e.Status {
	case http.StatusBadRequest:
		return domain.ErrInvalidTask
	case http.StatusUnauthorized, http.StatusForbidden:
		return domain.ErrUnauthorized
	case http.StatusNotFound:
		return domain.ErrTaskNotFound
	default:
		return nil
	}
}

// Client talks to the Task API on behalf of the holder of one bearer token.
type Client struct {
	baseURL  string
	language string
	http     *http.Client
}

var _ engine.Gateway = (*Client)(nil)

type Option func(*Client)

// WithHTTPClient sets the client used as the base transport. Its Transport is
// wrapped to add the bearer token.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// WithLanguage sets the Accept-Language sent with every request.
func WithLanguage(lang string) Option {
	return func(c *Client) { c.language = lang }
}

func New(baseURL, token string, opts ...Option) (*Client, error) {
	parsed, err := url.Parse(strings.TrimSpace(baseURL))
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return nil, fmt.Errorf("invalid task api url %q", baseURL)
	}
	if token == "" {
		return nil, domain.ErrUnauthorized
	}

	c := &Client{
		baseURL: strings.TrimRight(parsed.String(), "/"),
		http:    &http.Client{Timeout: defaultTimeout},
	}
	for _, opt := range opts {
		opt(c)
	}

	ctx := context.WithValue(context.Background(), oauth2.HTTPClient, c.http)
	authed := oauth2.NewClient(ctx, oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token, TokenType: "Bearer"}))
	authed.Timeout = c.http.Timeout
	c.http = authed
	return c, nil
}

func (c *Client) ListTasks(ctx context.Context) ([]domain.Task, error) {
	var items []dto.TaskItem
	if err := c.do(ctx, http.MethodGet, "/tasks", nil, &items); err != nil {
		return nil, err
	}

	tasks := make([]domain.Task, 0, len(items))
	for _, item := range items {
		task, err := mapper.FromTaskItem(item)
		if err != nil {
			return nil, fmt.Errorf("decode task %s: %w", item.ID, err)
		}
		tasks = append(tasks, task)
	}
	return tasks, nil
}

func (c *Client) GetTask(ctx context.Context, id string) (domain.Task, error) {
	return c.taskCall(ctx, http.MethodGet, taskPath(id), nil)
}

func (c *Client) CreateTask(ctx context.Context, input domain.CreateTaskInput) (domain.Task, error) {
	return c.taskCall(ctx, http.MethodPost, "/tasks", createBody(input))
}

func (c *Client) UpdateTask(ctx context.Context, id string, input domain.UpdateTaskInput) (domain.Task, error) {
	return c.taskCall(ctx, http.MethodPut, taskPath(id), updateBody(input))
}

func (c *Client) UpdateTimeSpent(ctx context.Context, id string, minutes int) (domain.Task, error) {
	return c.taskCall(ctx, http.MethodPut, taskPath(id)+"/time", dto.UpdateTimeRequest{TimeSpent: &minutes})
}

func (c *Client) DeleteTask(ctx context.Context, id string) error {
	var resp dto.MessageResponse
	return c.do(ctx, http.MethodDelete, taskPath(id), nil, &resp)
}

func (c *Client) taskCall(ctx context.Context, method, path string, body any) (domain.Task, error) {
	var item dto.TaskItem
	if err := c.do(ctx, method, path, body, &item); err != nil {
		return domain.Task{}, err
	}
	return mapper.FromTaskItem(item)
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.language != "" {
		req.Header.Set("Accept-Language", c.language)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %s %s: %w", ErrNetwork, method, path, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return fmt.Errorf("%w: read response: %w", ErrNetwork, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return decodeError(resp.StatusCode, raw)
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func decodeError(status int, raw []byte) error {
	apiErr := &APIError{Status: status}
	var envelope apierrors.JsonErr
	if err := json.Unmarshal(raw, &envelope); err == nil {
		apiErr.Message = envelope.ErrDetails.Message
	}
	if apiErr.Message == "" {
		apiErr.Message = strings.TrimSpace(string(raw))
	}
	return apiErr
}

func taskPath(id string) string {
	return "/tasks/" + url.PathEscape(id)
}
