// Package upstream wraps outbound HTTP calls to the geocoding, weather and
// aviation providers. Each provider gets its own circuit breaker so a dead
// provider fails fast instead of holding every request for the full timeout.
// Requests are attempted once; there is no retry.
package upstream

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/sony/gobreaker/v2"
)

// Observer receives the outcome of each request. Outcome is "success",
// "error" or "rejected" (breaker open).
type Observer func(name, outcome string, duration time.Duration)

// StatusError is returned for non-2xx responses.
type StatusError struct {
	Name       string
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s returned status %d: %s", e.Name, e.StatusCode, e.Body)
}

// Client performs JSON GET requests for one named provider
type Client struct {
	name      string
	client    *http.Client
	breaker   *gobreaker.CircuitBreaker[*http.Response]
	userAgent string
	observer  Observer
}

// Option configures a Client
type Option func(*Client)

func WithUserAgent(ua string) Option {
	return func(c *Client) { c.userAgent = ua }
}

func WithObserver(o Observer) Option {
	return func(c *Client) { c.observer = o }
}

// WithHTTPClient replaces the default http.Client, mainly for tests.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.client = hc }
}

// WithBreakerSettings overrides the breaker thresholds. Name is always the client name.
func WithBreakerSettings(st gobreaker.Settings) Option {
	return func(c *Client) {
		st.Name = c.name
		if st.IsSuccessful == nil {
			st.IsSuccessful = func(err error) bool { return err == nil }
		}
		c.breaker = gobreaker.NewCircuitBreaker[*http.Response](st)
	}
}

func NewClient(name string, timeout time.Duration, opts ...Option) *Client {
	c := &Client{
		name: name,
		client: &http.Client{
			Timeout: timeout,
		},
		breaker: gobreaker.NewCircuitBreaker[*http.Response](gobreaker.Settings{
			Name:        name,
			MaxRequests: 1,
			Interval:    60 * time.Second,
			Timeout:     30 * time.Second,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.ConsecutiveFailures > 5
			},
			IsSuccessful: func(err error) bool {
				return err == nil
			},
		}),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Client) Name() string {
	return c.name
}

// BreakerState reports the breaker state, e.g. "closed" or "open".
func (c *Client) BreakerState() string {
	return c.breaker.State().String()
}

// GetJSON fetches url and decodes the JSON body into out.
func (c *Client) GetJSON(ctx context.Context, url string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("failed to create %s request: %w", c.name, err)
	}
	req.Header.Set("Accept", "application/json")
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}

	start := time.Now()
	resp, err := c.breaker.Execute(func() (*http.Response, error) {
		r, doErr := c.client.Do(req)
		if doErr != nil {
			return nil, doErr
		}
		if r.StatusCode >= 500 || r.StatusCode == http.StatusTooManyRequests {
			return r, c.statusError(r)
		}
		return r, nil
	})
	if err != nil {
		outcome := "error"
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			outcome = "rejected"
		}
		c.observe(outcome, time.Since(start))
		var statusErr *StatusError
		if errors.As(err, &statusErr) {
			return err
		}
		return fmt.Errorf("%s request failed: %w", c.name, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		c.observe("error", time.Since(start))
		return c.statusError(resp)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		c.observe("error", time.Since(start))
		return fmt.Errorf("failed to decode %s response: %w", c.name, err)
	}
	c.observe("success", time.Since(start))
	return nil
}

// statusError drains a bounded part of the body for the message and closes it.
func (c *Client) statusError(r *http.Response) *StatusError {
	body, _ := io.ReadAll(io.LimitReader(r.Body, 512))
	r.Body.Close()
	return &StatusError{Name: c.name, StatusCode: r.StatusCode, Body: string(body)}
}

func (c *Client) observe(outcome string, d time.Duration) {
	if c.observer != nil {
		c.observer(c.name, outcome, d)
	}
}
