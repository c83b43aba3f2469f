// Package wanikani reads paginated subject collections from the WaniKani API.
package wanikani

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/goccy/go-json"
	"golang.org/x/time/rate"
)

// Defaults for the public API.
const (
	DefaultBaseURL  = "https://api.wanikani.com/v2"
	DefaultRevision = "20170710"
	DefaultCooldown = 60 * time.Second
	DefaultTimeout  = 30 * time.Second
)

// Client issues authenticated GET requests against the content API.
// It keeps no state between calls besides the request pacer.
type Client struct {
	httpClient *http.Client
	baseURL    string
	token      string
	revision   string
	cooldown   time.Duration
	limiter    *rate.Limiter
	logger     *slog.Logger
	sleep      func(ctx context.Context, d time.Duration) error
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithBaseURL points the client at another API root.
func WithBaseURL(u string) Option {
	return func(c *Client) { c.baseURL = u }
}

// WithToken sets the bearer token. An empty token sends no Authorization header.
func WithToken(token string) Option {
	return func(c *Client) { c.token = token }
}

// WithRevision sets the Wanikani-Revision header value.
func WithRevision(rev string) Option {
	return func(c *Client) { c.revision = rev }
}

// WithCooldown sets the pause taken after a 429 response.
func WithCooldown(d time.Duration) Option {
	return func(c *Client) { c.cooldown = d }
}

// WithRequestsPerMinute paces requests client side. Zero disables pacing.
func WithRequestsPerMinute(n int) Option {
	return func(c *Client) {
		if n <= 0 {
			c.limiter = rate.NewLimiter(rate.Inf, 1)
			return
		}
		c.limiter = rate.NewLimiter(rate.Every(time.Minute/time.Duration(n)), 1)
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *Client) { c.logger = l }
}

// New creates a client with the public API defaults.
func New(opts ...Option) *Client {
	c := &Client{
		httpClient: &http.Client{Timeout: DefaultTimeout},
		baseURL:    DefaultBaseURL,
		revision:   DefaultRevision,
		cooldown:   DefaultCooldown,
		limiter:    rate.NewLimiter(rate.Inf, 1),
		logger:     slog.Default(),
		sleep:      sleepContext,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// get fetches url and decodes the JSON body into out. A 429 response is
// retried after the cool-down for as long as the server keeps returning it.
func (c *Client) get(ctx context.Context, url string, out any) error {
	for {
		if err := c.limiter.Wait(ctx); err != nil {
			return err
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, http.NoBody)
		if err != nil {
			return fmt.Errorf("wanikani: create request: %w", err)
		}
		if c.token != "" {
			req.Header.Set("Authorization", "Bearer "+c.token)
		}
		req.Header.Set("Wanikani-Revision", c.revision)
		req.Header.Set("Accept", "application/json")

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return fmt.Errorf("%w: %w", ErrHTTP, err)
		}

		if resp.StatusCode == http.StatusTooManyRequests {
			drain(resp)
			c.logger.Warn("wanikani: rate limit reached, retrying after cool-down",
				slog.String("url", url),
				slog.Duration("cooldown", c.cooldown))
			if err := c.sleep(ctx, c.cooldown); err != nil {
				return err
			}
			continue
		}

		if resp.StatusCode < 200 || resp.StatusCode > 299 {
			drain(resp)
			c.logger.Error("wanikani: request failed",
				slog.String("url", url),
				slog.Int("status", resp.StatusCode))
			return &QueryFailedError{StatusCode: resp.StatusCode, URL: url}
		}

		err = json.NewDecoder(resp.Body).Decode(out)
		drain(resp)
		if err != nil {
			return fmt.Errorf("%w: %w", ErrDecode, err)
		}
		return nil
	}
}

func drain(resp *http.Response) {
	_, _ = io.Copy(io.Discard, resp.Body)
	_ = resp.Body.Close()
}

func sleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
