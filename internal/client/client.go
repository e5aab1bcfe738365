// Package client is a Go client for the farm-advisor chat API.
package client

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
)

// DefaultTimeout bounds a single Ask call.
const DefaultTimeout = 15 * time.Second

// ErrTimeout is returned when a call exceeds its deadline. It is distinct
// from every other failure so callers can show a "timed out" message.
var ErrTimeout = errors.New("request timed out")

// APIError is a non-2xx response from the server.
type APIError struct {
	StatusCode int
	Message    string
	// Upstream is the generative API status reported with a 502, if any.
	Upstream int
}

func (e *APIError) Error() string {
	if e.Upstream != 0 {
		return fmt.Sprintf("server returned %d: %s (upstream status %d)", e.StatusCode, e.Message, e.Upstream)
	}
	return fmt.Sprintf("server returned %d: %s", e.StatusCode, e.Message)
}

// Location is an optional coordinate sent with a question.
type Location struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// AskOptions are the optional fields of a question.
type AskOptions struct {
	SessionID    string
	ClearHistory bool
	Location     *Location
	// Timeout overrides the client timeout for this call.
	Timeout time.Duration
}

// AskResponse mirrors the server reply.
type AskResponse struct {
	Reply              string `json:"reply"`
	SessionID          string `json:"sessionId"`
	ConversationLength int    `json:"conversationLength"`
}

// Turn is one stored message.
type Turn struct {
	Role      string `json:"role"`
	Text      string `json:"text"`
	Timestamp int64  `json:"timestamp"`
}

// HistoryResponse mirrors GET /api/a/history/:id.
type HistoryResponse struct {
	History []Turn `json:"history"`
	Length  int    `json:"length"`
}

// Client talks to one server.
type Client struct {
	baseURL    string
	httpClient *http.Client
	timeout    time.Duration
}

// New creates a Client. A non-positive timeout uses DefaultTimeout.
func New(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Client{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		httpClient: &http.Client{},
		timeout:    timeout,
	}
}

// Ask sends a question.
func (c *Client) Ask(ctx context.Context, question string, opts AskOptions) (*AskResponse, error) {
	body := struct {
		Question     string    `json:"question"`
		SessionID    string    `json:"sessionId,omitempty"`
		ClearHistory bool      `json:"clearHistory,omitempty"`
		Location     *Location `json:"location,omitempty"`
	}{question, opts.SessionID, opts.ClearHistory, opts.Location}

	timeout := c.timeout
	if opts.Timeout > 0 {
		timeout = opts.Timeout
	}

	var out AskResponse
	if err := c.do(ctx, timeout, http.MethodPost, "/api/a", body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// History returns the stored conversation for a session.
func (c *Client) History(ctx context.Context, sessionID string) (*HistoryResponse, error) {
	var out HistoryResponse
	if err := c.do(ctx, c.timeout, http.MethodGet, "/api/a/history/"+url.PathEscape(sessionID), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ClearHistory deletes the stored conversation for a session.
func (c *Client) ClearHistory(ctx context.Context, sessionID string) error {
	return c.do(ctx, c.timeout, http.MethodDelete, "/api/a/history/"+url.PathEscape(sessionID), nil, nil)
}

func (c *Client) do(ctx context.Context, timeout time.Duration, method, path string, in, out interface{}) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	var reader io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return ErrTimeout
		}
		return fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return ErrTimeout
		}
		return fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var e struct {
			Error  string `json:"error"`
			Status int    `json:"status"`
		}
		apiErr := &APIError{StatusCode: resp.StatusCode, Message: http.StatusText(resp.StatusCode)}
		if json.Unmarshal(data, &e) == nil && e.Error != "" {
			apiErr.Message = e.Error
			apiErr.Upstream = e.Status
		}
		return apiErr
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("failed to unmarshal response: %w", err)
	}
	return nil
}
