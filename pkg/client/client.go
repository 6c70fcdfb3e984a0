// Package client provides a Go client for the sequence executor HTTP API
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

	"github.com/kode4food/seqexec/pkg/api"
)

type (
	// Client talks to a running sequence executor
	Client struct {
		httpClient *http.Client
		baseURL    string
	}

	// State is the engine state along with the sequence number of the
	// snapshot it was taken from
	State struct {
		State *api.EngineState `json:"state"`
		Seq   int64            `json:"seq"`
	}
)

const (
	DefaultURL     = "http://localhost:8080"
	DefaultTimeout = 30 * time.Second
)

var (
	ErrHTTPError   = errors.New("executor returned HTTP error")
	ErrNotFound    = errors.New("not found")
	ErrQueueFull   = errors.New("executor queue full")
	ErrUnavailable = errors.New("executor unavailable")
	ErrRejected    = errors.New("command rejected")
)

// NewClient returns a Client for the executor at baseURL
func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    strings.TrimRight(baseURL, "/"),
	}
}

// Submit sends a command event to the executor
func (c *Client) Submit(ctx context.Context, ev api.Event) (api.Ack, error) {
	data, err := json.Marshal(ev)
	if err != nil {
		return api.Ack{}, err
	}
	body, err := json.Marshal(api.CommandRequest{
		Type: ev.Type(),
		Data: data,
	})
	if err != nil {
		return api.Ack{}, err
	}

	var ack api.Ack
	err = c.do(ctx, http.MethodPost, "/engine/command", body, &ack)
	return ack, err
}

// GetState returns the current engine state
func (c *Client) GetState(ctx context.Context) (*State, error) {
	var res State
	if err := c.do(ctx, http.MethodGet, "/engine", nil, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

// GetSequence returns the state of one loaded sequence
func (c *Client) GetSequence(
	ctx context.Context, id api.SequenceID,
) (*api.SequenceState, error) {
	var res api.SequenceState
	path := "/engine/sequence/" + url.PathEscape(string(id))
	if err := c.do(ctx, http.MethodGet, path, nil, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

// Health returns the health of the executor. A halted executor reports
// ErrUnavailable
func (c *Client) Health(ctx context.Context) (*api.HealthResponse, error) {
	var res api.HealthResponse
	if err := c.do(ctx, http.MethodGet, "/health", nil, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

func (c *Client) do(
	ctx context.Context, method, path string, body []byte, out any,
) error {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}

	if resp.StatusCode >= http.StatusBadRequest {
		return responseError(resp.StatusCode, respBody)
	}
	return json.Unmarshal(respBody, out)
}

func responseError(status int, body []byte) error {
	msg := http.StatusText(status)
	var er api.ErrorResponse
	if err := json.Unmarshal(body, &er); err == nil && er.Error != "" {
		msg = er.Error
	}

	switch status {
	case http.StatusNotFound:
		return fmt.Errorf("%w: %s", ErrNotFound, msg)
	case http.StatusTooManyRequests:
		return fmt.Errorf("%w: %s", ErrQueueFull, msg)
	case http.StatusServiceUnavailable:
		return fmt.Errorf("%w: %s", ErrUnavailable, msg)
	case http.StatusBadRequest:
		return fmt.Errorf("%w: %s", ErrRejected, msg)
	default:
		return fmt.Errorf("%w: HTTP %d: %s", ErrHTTPError, status, msg)
	}
}
