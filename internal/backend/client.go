// Package backend is the REST client for the platform API. It drives
// the per-collection fetches behind reconciliation plus every admin
// mutation, and owns the retry and auth-failure policy: transient
// transport failures are retried a fixed number of times with a fixed
// delay, 401/403 are never retried and invalidate the session, all other
// failures surface as recoverable errors.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/spec-kit/admin-sync/internal/domain"
	"github.com/spec-kit/admin-sync/internal/observability"
	"github.com/spec-kit/admin-sync/internal/session"
	"github.com/spec-kit/admin-sync/pkg/util"
)

// HTTPError is a non-auth backend rejection, surfaced as recoverable.
type HTTPError struct {
	StatusCode int
	Message    string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("backend http %d: %s", e.StatusCode, e.Message)
}

// Options configures a Client.
type Options struct {
	BaseURL    string
	Session    *session.Session
	HTTPClient *http.Client
	MaxRetries int
	RetryDelay time.Duration
	Logger     *zap.Logger
	Metrics    *observability.Metrics
}

// Client talks to the platform REST API.
type Client struct {
	baseURL    string
	session    *session.Session
	httpClient *http.Client
	maxRetries int
	retryDelay time.Duration
	logger     *zap.Logger
	metrics    *observability.Metrics
}

// NewClient builds a Client, applying defaults for unset options.
func NewClient(opts Options) *Client {
	baseURL := strings.TrimRight(strings.TrimSpace(opts.BaseURL), "/")
	if baseURL == "" {
		baseURL = "http://127.0.0.1:5000"
	}
	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 15 * time.Second}
	}
	maxRetries := opts.MaxRetries
	if maxRetries <= 0 {
		maxRetries = 3
	}
	retryDelay := opts.RetryDelay
	if retryDelay <= 0 {
		retryDelay = 500 * time.Millisecond
	}
	return &Client{
		baseURL:    baseURL,
		session:    opts.Session,
		httpClient: httpClient,
		maxRetries: maxRetries,
		retryDelay: retryDelay,
		logger:     opts.Logger,
		metrics:    opts.Metrics,
	}
}

// FetchCollection pulls every raw entity payload of one kind.
func (c *Client) FetchCollection(ctx context.Context, kind domain.Kind) ([]map[string]any, error) {
	var out []map[string]any
	if err := c.doJSON(ctx, http.MethodGet, fmt.Sprintf("/api/admin/%s", kind), nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// UserAction enumerates the PATCH verbs on a user.
type UserAction string

const (
	UserActionVerify   UserAction = "verify"
	UserActionSuspend  UserAction = "suspend"
	UserActionActivate UserAction = "activate"
	UserActionPremium  UserAction = "premium"
)

// MutateUser applies one admin verb to a user, returning the resulting payload.
func (c *Client) MutateUser(ctx context.Context, id string, action UserAction) (map[string]any, error) {
	var out map[string]any
	path := fmt.Sprintf("/api/admin/users/%s/%s", id, action)
	if err := c.doJSON(ctx, http.MethodPatch, path, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// DeleteUser removes a user.
func (c *Client) DeleteUser(ctx context.Context, id string) error {
	return c.doJSON(ctx, http.MethodDelete, fmt.Sprintf("/api/admin/users/%s", id), nil, nil)
}

// SetPostStatus moderates a post.
func (c *Client) SetPostStatus(ctx context.Context, id string, status domain.PostStatus) (map[string]any, error) {
	var out map[string]any
	path := fmt.Sprintf("/api/admin/posts/%s/status", id)
	if err := c.doJSON(ctx, http.MethodPatch, path, map[string]any{"status": status}, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// DeletePost removes a post.
func (c *Client) DeletePost(ctx context.Context, id string) error {
	return c.doJSON(ctx, http.MethodDelete, fmt.Sprintf("/api/admin/posts/%s", id), nil, nil)
}

// SetReportStatus updates an abuse report.
func (c *Client) SetReportStatus(ctx context.Context, id string, status domain.ReportStatus) (map[string]any, error) {
	var out map[string]any
	path := fmt.Sprintf("/api/admin/reports/%s/status", id)
	if err := c.doJSON(ctx, http.MethodPatch, path, map[string]any{"status": status}, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// AnnouncementInput is the creation payload for an announcement.
type AnnouncementInput struct {
	Title          string `json:"title"`
	Content        string `json:"content"`
	TargetAudience string `json:"targetAudience"`
}

// CreateAnnouncement publishes a new announcement.
func (c *Client) CreateAnnouncement(ctx context.Context, input AnnouncementInput) (map[string]any, error) {
	var out map[string]any
	if err := c.doJSON(ctx, http.MethodPost, "/api/admin/announcements", input, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// SetAnnouncementActive toggles an announcement.
func (c *Client) SetAnnouncementActive(ctx context.Context, id string, active bool) (map[string]any, error) {
	var out map[string]any
	path := fmt.Sprintf("/api/admin/announcements/%s/active", id)
	if err := c.doJSON(ctx, http.MethodPatch, path, map[string]any{"isActive": active}, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// DeleteAnnouncement removes an announcement.
func (c *Client) DeleteAnnouncement(ctx context.Context, id string) error {
	return c.doJSON(ctx, http.MethodDelete, fmt.Sprintf("/api/admin/announcements/%s", id), nil, nil)
}

// SetTicketStatus updates a support ticket's status.
func (c *Client) SetTicketStatus(ctx context.Context, id string, status domain.TicketStatus) (map[string]any, error) {
	var out map[string]any
	path := fmt.Sprintf("/api/admin/tickets/%s/status", id)
	if err := c.doJSON(ctx, http.MethodPatch, path, map[string]any{"status": status}, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// AssignTicket sets or clears a ticket's assignee.
func (c *Client) AssignTicket(ctx context.Context, id string, assignee *string) (map[string]any, error) {
	var out map[string]any
	path := fmt.Sprintf("/api/admin/tickets/%s/assign", id)
	if err := c.doJSON(ctx, http.MethodPatch, path, map[string]any{"assignedTo": assignee}, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// ReplyToTicket appends an admin reply, returning the whole updated ticket.
func (c *Client) ReplyToTicket(ctx context.Context, id, message string) (map[string]any, error) {
	var out map[string]any
	path := fmt.Sprintf("/api/admin/tickets/%s/replies", id)
	if err := c.doJSON(ctx, http.MethodPost, path, map[string]any{"message": message}, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) doJSON(ctx context.Context, method, path string, payload, out any) error {
	token, ok := c.session.Token()
	if !ok {
		return util.ErrAuthRequired
	}

	var bodyBytes []byte
	if payload != nil {
		var err error
		bodyBytes, err = json.Marshal(payload)
		if err != nil {
			return err
		}
	}
	url := c.baseURL + path
	correlationID := uuid.NewString()

	for attempt := 0; ; attempt++ {
		var body io.Reader
		if bodyBytes != nil {
			body = bytes.NewReader(bodyBytes)
		}
		req, err := http.NewRequestWithContext(ctx, method, url, body)
		if err != nil {
			return err
		}
		req.Header.Set("Authorization", "Bearer "+token)
		req.Header.Set("X-Correlation-Id", correlationID)
		if bodyBytes != nil {
			req.Header.Set("Content-Type", "application/json")
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			// Transport failure: connection refused, reset, DNS. Retry
			// with a fixed delay, then surface as recoverable.
			if attempt < c.maxRetries {
				c.metrics.RecordRetry()
				c.logger.Debug("backend request retry",
					zap.String("path", path),
					zap.Int("attempt", attempt+1),
					zap.Error(err))
				if waitErr := sleepContext(ctx, c.retryDelay); waitErr != nil {
					return waitErr
				}
				continue
			}
			return util.NewRecoverable("backend unreachable", err)
		}

		respBody, readErr := io.ReadAll(resp.Body)
		_ = resp.Body.Close()
		if readErr != nil {
			return util.NewRecoverable("backend response unreadable", readErr)
		}

		switch {
		case resp.StatusCode >= 200 && resp.StatusCode <= 299:
			if out == nil || len(respBody) == 0 {
				return nil
			}
			if err := decodeBody(respBody, out); err != nil {
				return fmt.Errorf("decode %s %s: %w", method, path, err)
			}
			return nil
		case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
			return fmt.Errorf("%s %s: %w", method, path, util.ErrAuthRequired)
		default:
			return &HTTPError{StatusCode: resp.StatusCode, Message: errorMessage(respBody)}
		}
	}
}

// decodeBody accepts both the bare shape and the `{"data": ...}`
// envelope some backend routes wrap their results in.
func decodeBody(body []byte, out any) error {
	if json.Unmarshal(body, out) == nil {
		return nil
	}
	var envelope struct {
		Data json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil {
		return err
	}
	if envelope.Data == nil {
		return fmt.Errorf("unexpected response shape")
	}
	return json.Unmarshal(envelope.Data, out)
}

func errorMessage(body []byte) string {
	var parsed struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	if json.Unmarshal(body, &parsed) == nil {
		if parsed.Message != "" {
			return parsed.Message
		}
		if parsed.Error != "" {
			return parsed.Error
		}
	}
	msg := strings.TrimSpace(string(body))
	if len(msg) > 200 {
		msg = msg[:200]
	}
	return msg
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
