// Package transport provides the rate-limited, retrying HTTP client used by
// every incident source.
package transport

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/bissquit/reliability-reporter/internal/pkg/metrics"
	"github.com/bissquit/reliability-reporter/internal/pkg/ratelimit"
	"github.com/bissquit/reliability-reporter/internal/version"
	"github.com/cenkalti/backoff/v4"
)

const (
	defaultTimeout        = 30 * time.Second
	defaultMaxAttempts    = 3
	defaultInitialBackoff = 2 * time.Second
	defaultMaxBackoff     = 10 * time.Second
	maxBodySize           = 10 << 20

	acceptJSON = "application/json"
	acceptHTML = "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8"
)

// Config holds transport configuration.
type Config struct {
	Source         string // metrics and log label
	Timeout        time.Duration
	MaxAttempts    int
	InitialBackoff time.Duration
	MaxBackoff     time.Duration
	UserAgent      string
}

// DefaultConfig returns default transport configuration.
func DefaultConfig() Config {
	return Config{
		Timeout:        defaultTimeout,
		MaxAttempts:    defaultMaxAttempts,
		InitialBackoff: defaultInitialBackoff,
		MaxBackoff:     defaultMaxBackoff,
		UserAgent:      version.UserAgent(),
	}
}

// Client fetches raw bytes, HTML and JSON from status pages.
// Every attempt waits on the shared limiter first. The underlying
// http.Client is created on first use and released by Close.
type Client struct {
	config  Config
	limiter *ratelimit.Limiter

	mu         sync.Mutex
	httpClient *http.Client
	transport  *http.Transport
}

// New creates a new transport client. Zero config fields take defaults.
func New(config Config, limiter *ratelimit.Limiter) *Client {
	defaults := DefaultConfig()
	if config.Timeout <= 0 {
		config.Timeout = defaults.Timeout
	}
	if config.MaxAttempts <= 0 {
		config.MaxAttempts = defaults.MaxAttempts
	}
	if config.InitialBackoff <= 0 {
		config.InitialBackoff = defaults.InitialBackoff
	}
	if config.MaxBackoff <= 0 {
		config.MaxBackoff = defaults.MaxBackoff
	}
	if config.UserAgent == "" {
		config.UserAgent = defaults.UserAgent
	}
	if config.Source == "" {
		config.Source = "unknown"
	}
	if limiter == nil {
		limiter = ratelimit.New(ratelimit.DefaultRate)
	}

	return &Client{
		config:  config,
		limiter: limiter,
	}
}

// Close releases idle connections held by the client.
// A later request transparently creates a fresh client.
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.transport != nil {
		c.transport.CloseIdleConnections()
	}
	c.httpClient = nil
	c.transport = nil
	return nil
}

func (c *Client) client() *http.Client {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.httpClient == nil {
		c.transport = http.DefaultTransport.(*http.Transport).Clone()
		c.httpClient = &http.Client{
			Timeout:   c.config.Timeout,
			Transport: c.transport,
		}
	}
	return c.httpClient
}

// GetJSON fetches url and decodes the JSON body into v.
func (c *Client) GetJSON(ctx context.Context, url string, v any) error {
	body, err := c.get(ctx, url, acceptJSON)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, v); err != nil {
		return fmt.Errorf("decode json from %s: %w", url, err)
	}
	return nil
}

// GetHTML fetches url and returns the body as text.
func (c *Client) GetHTML(ctx context.Context, url string) (string, error) {
	body, err := c.get(ctx, url, acceptHTML)
	if err != nil {
		return "", err
	}
	return string(body), nil
}

// Get fetches url and returns the raw body.
func (c *Client) Get(ctx context.Context, url string) ([]byte, error) {
	return c.get(ctx, url, "*/*")
}

func (c *Client) get(ctx context.Context, url, accept string) ([]byte, error) {
	policy := c.newBackOff(ctx)

	var body []byte
	operation := func() error {
		if err := c.limiter.Acquire(ctx); err != nil {
			return backoff.Permanent(err)
		}

		b, err := c.do(ctx, url, accept)
		if err != nil {
			if ctx.Err() != nil || !IsRetryable(err) {
				return backoff.Permanent(err)
			}
			return err
		}
		body = b
		return nil
	}

	notify := func(err error, wait time.Duration) {
		metrics.RecordRetry(c.config.Source)
		slog.Debug("request failed, retrying",
			"source", c.config.Source,
			"url", url,
			"backoff", wait,
			"error", err,
		)
	}

	if err := backoff.RetryNotify(operation, policy, notify); err != nil {
		return nil, fmt.Errorf("fetch %s: %w", url, err)
	}
	return body, nil
}

// newBackOff builds the retry policy: MaxAttempts tries in total, waiting
// InitialBackoff, then doubling up to MaxBackoff.
func (c *Client) newBackOff(ctx context.Context) backoff.BackOff {
	exp := backoff.NewExponentialBackOff()
	exp.InitialInterval = c.config.InitialBackoff
	exp.MaxInterval = c.config.MaxBackoff
	exp.Multiplier = 2
	exp.RandomizationFactor = 0
	exp.MaxElapsedTime = 0
	exp.Reset()

	retries := uint64(c.config.MaxAttempts - 1)
	return backoff.WithContext(backoff.WithMaxRetries(exp, retries), ctx)
}

func (c *Client) do(ctx context.Context, url, accept string) ([]byte, error) {
	start := time.Now()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, backoff.Permanent(fmt.Errorf("create request: %w", err))
	}
	req.Header.Set("User-Agent", c.config.UserAgent)
	req.Header.Set("Accept", accept)

	resp, err := c.client().Do(req)
	if err != nil {
		metrics.RecordFetch(c.config.Source, "network_error", time.Since(start))
		return nil, fmt.Errorf("send request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxBodySize))
		metrics.RecordFetch(c.config.Source, "http_error", time.Since(start))
		return nil, &StatusError{URL: url, Code: resp.StatusCode}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		metrics.RecordFetch(c.config.Source, "network_error", time.Since(start))
		return nil, fmt.Errorf("read response: %w", err)
	}

	metrics.RecordFetch(c.config.Source, "success", time.Since(start))
	slog.Debug("fetched", "source", c.config.Source, "url", url, "bytes", len(body), "status", resp.StatusCode)
	return body, nil
}
