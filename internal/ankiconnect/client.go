// Package ankiconnect is a client for the AnkiConnect add-on's JSON-RPC
// endpoint.
package ankiconnect

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/goccy/go-json"
)

// Defaults for a local Anki instance.
const (
	DefaultEndpoint = "http://localhost:8765"
	DefaultVersion  = 6
	DefaultTimeout  = 30 * time.Second
)

// Client posts one action per request. It is safe for concurrent use, but
// the local endpoint handles requests poorly when flooded.
type Client struct {
	httpClient *http.Client
	endpoint   string
	version    int
	logger     *slog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithEndpoint sets the endpoint URL.
func WithEndpoint(u string) Option {
	return func(c *Client) { c.endpoint = u }
}

// WithVersion sets the protocol version sent with every action.
func WithVersion(v int) Option {
	return func(c *Client) { c.version = v }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *Client) { c.logger = l }
}

// New creates a client for the default local endpoint.
func New(opts ...Option) *Client {
	c := &Client{
		httpClient: &http.Client{Timeout: DefaultTimeout},
		endpoint:   DefaultEndpoint,
		version:    DefaultVersion,
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type request struct {
	Action  string `json:"action"`
	Version int    `json:"version"`
	Params  any    `json:"params,omitempty"`
}

type response struct {
	Result json.RawMessage `json:"result"`
	Error  *string         `json:"error"`
}

// call performs action and decodes a non-null result into out. When
// resultless is set, a reply with neither result nor error is success.
func (c *Client) call(ctx context.Context, action string, params, out any, resultless bool) error {
	body, err := json.Marshal(request{Action: action, Version: c.version, Params: params})
	if err != nil {
		return fmt.Errorf("ankiconnect: encode %s: %w", action, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("ankiconnect: create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	c.logger.Debug("ankiconnect: call", slog.String("action", action))
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %s: %w", ErrTransport, action, err)
	}
	defer func() {
		_, _ = io.Copy(io.Discard, resp.Body)
		_ = resp.Body.Close()
	}()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("%w: %s: status %d", ErrTransport, action, resp.StatusCode)
	}

	var r response
	if err := json.NewDecoder(resp.Body).Decode(&r); err != nil {
		return fmt.Errorf("%w: %s: %w", ErrDecode, action, err)
	}

	hasResult := len(r.Result) > 0 && !bytes.Equal(r.Result, []byte("null"))
	switch {
	case hasResult:
		if out == nil {
			return nil
		}
		if err := json.Unmarshal(r.Result, out); err != nil {
			return fmt.Errorf("%w: %s result: %w", ErrDecode, action, err)
		}
		return nil
	case r.Error != nil:
		return &APIError{Action: action, Message: *r.Error}
	case resultless:
		return nil
	default:
		return fmt.Errorf("%w (%s)", ErrEmptyResponse, action)
	}
}
