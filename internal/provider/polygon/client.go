package polygon

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/sony/gobreaker"
	"golang.org/x/time/rate"

	"sepa-screener/internal/model"
)

const (
	defaultBaseURL = "https://api.polygon.io"

	// Max 50k results per request
	maxLimit = 50000

	// KeyCooldown: Polygon free tier allows 5 req/min => 12s between requests per key
	KeyCooldown = 12 * time.Second

	maxRetries = 3
)

var (
	ErrRateLimited = errors.New("polygon rate limit")
	ErrNoKeys      = errors.New("POLYGON_API_KEY or POLYGON_API_KEYS not set")
)

// Client fetches daily aggregates from the Polygon REST API. API keys are
// pooled and each key has its own limiter. Requests run behind a circuit breaker.
type Client struct {
	client     *http.Client
	baseURL    string
	keys       chan string
	limiters   map[string]*rate.Limiter
	breaker    *gobreaker.CircuitBreaker
	retryDelay time.Duration
	logger     *slog.Logger
}

// Option customizes a Client.
type Option func(*Client)

// WithBaseURL points the client at another host (tests, proxies).
func WithBaseURL(u string) Option { return func(c *Client) { c.baseURL = u } }

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(h *http.Client) Option { return func(c *Client) { c.client = h } }

// WithRetryDelay sets the wait before retrying a failed request.
func WithRetryDelay(d time.Duration) Option { return func(c *Client) { c.retryDelay = d } }

// WithLogger sets the logger used for request diagnostics.
func WithLogger(l *slog.Logger) Option { return func(c *Client) { c.logger = l } }

// WithKeyLimit overrides the per-key request rate.
func WithKeyLimit(l rate.Limit) Option {
	return func(c *Client) {
		for _, lim := range c.limiters {
			lim.SetLimit(l)
		}
	}
}

// NewClient constructs a Client for the given API keys.
func NewClient(apiKeys []string, opts ...Option) (*Client, error) {
	if len(apiKeys) == 0 {
		return nil, ErrNoKeys
	}
	c := &Client{
		client:     newHTTPClient(),
		baseURL:    defaultBaseURL,
		keys:       make(chan string, len(apiKeys)),
		limiters:   make(map[string]*rate.Limiter, len(apiKeys)),
		retryDelay: 15 * time.Second,
		logger:     slog.Default(),
	}
	for _, k := range apiKeys {
		if _, dup := c.limiters[k]; dup {
			continue
		}
		c.limiters[k] = rate.NewLimiter(rate.Every(KeyCooldown), 1)
		c.keys <- k
	}
	c.breaker = gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:     "polygon",
		Interval: 60 * time.Second,
		Timeout:  60 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, context.Canceled)
		},
	})
	for _, o := range opts {
		o(c)
	}
	return c, nil
}

// Keys returns the number of distinct API keys in the pool.
func (c *Client) Keys() int {
	return len(c.limiters)
}

// DailyBars fetches split-adjusted daily bars for ticker in [from, to], ascending.
func (c *Client) DailyBars(ctx context.Context, ticker string, from, to time.Time) ([]model.Bar, error) {
	var key string
	select {
	case key = <-c.keys:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	defer func() { c.keys <- key }()

	next, err := c.aggregatesURL(ticker, from, to)
	if err != nil {
		return nil, err
	}
	var bars []model.Bar
	for page := 1; next != ""; page++ {
		resp, err := c.fetchPage(ctx, next, key)
		if err != nil {
			return nil, fmt.Errorf("%s page %d: %w", ticker, page, err)
		}
		for _, raw := range resp.Results {
			bars = append(bars, raw.ToBar())
		}
		next = resp.NextURL
	}
	c.logger.Debug("daily bars", "ticker", ticker, "bars", len(bars), "key", keyPrefix(key))
	return bars, nil
}

func (c *Client) aggregatesURL(ticker string, from, to time.Time) (string, error) {
	rawURL := fmt.Sprintf("%s/v2/aggs/ticker/%s/range/1/day/%s/%s",
		c.baseURL, url.PathEscape(ticker), from.UTC().Format("2006-01-02"), to.UTC().Format("2006-01-02"))
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", fmt.Errorf("parse URL: %w", err)
	}
	q := u.Query()
	q.Set("adjusted", "true")
	q.Set("limit", strconv.Itoa(maxLimit))
	q.Set("sort", "asc")
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// fetchPage runs one GET with retries behind the breaker.
func (c *Client) fetchPage(ctx context.Context, pageURL, key string) (*AggregatesResponse, error) {
	u, err := url.Parse(pageURL)
	if err != nil {
		return nil, fmt.Errorf("parse URL: %w", err)
	}
	q := u.Query()
	q.Set("apiKey", key)
	u.RawQuery = q.Encode()

	out, err := c.breaker.Execute(func() (interface{}, error) {
		return c.doWithRetry(ctx, u.String(), key)
	})
	if err != nil {
		return nil, err
	}
	return out.(*AggregatesResponse), nil
}

func (c *Client) doWithRetry(ctx context.Context, target, key string) (*AggregatesResponse, error) {
	var lastErr error
	for attempt := 1; attempt <= maxRetries; attempt++ {
		if attempt > 1 {
			c.logger.Warn("retrying request", "attempt", attempt, "key", keyPrefix(key), "error", lastErr)
			select {
			case <-time.After(c.retryDelay):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}
		if err := c.limiters[key].Wait(ctx); err != nil {
			return nil, err
		}
		resp, retry, err := c.do(ctx, target)
		if err == nil {
			return resp, nil
		}
		lastErr = err
		if !retry {
			return nil, err
		}
	}
	return nil, fmt.Errorf("after %d attempts: %w", maxRetries, lastErr)
}

// do performs one request. retry reports whether the failure is transient.
func (c *Client) do(ctx context.Context, target string) (resp *AggregatesResponse, retry bool, err error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, false, fmt.Errorf("create request: %w", err)
	}
	res, err := c.client.Do(req)
	if err != nil {
		return nil, ctx.Err() == nil, fmt.Errorf("API call: %w", err)
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(res.Body, 4096))
		switch {
		case res.StatusCode == http.StatusTooManyRequests:
			return nil, true, fmt.Errorf("%w: %s", ErrRateLimited, string(body))
		case res.StatusCode >= 500:
			return nil, true, fmt.Errorf("API status %d: %s", res.StatusCode, string(body))
		default:
			return nil, false, fmt.Errorf("API status %d: %s", res.StatusCode, string(body))
		}
	}

	var result AggregatesResponse
	if err := json.NewDecoder(res.Body).Decode(&result); err != nil {
		return nil, true, fmt.Errorf("parse JSON: %w", err)
	}
	// Free-tier keys answer DELAYED with valid end-of-day results.
	if result.Status != "OK" && result.Status != "DELAYED" {
		return nil, false, fmt.Errorf("API status not OK: %s", result.Status)
	}
	return &result, false, nil
}

func keyPrefix(key string) string {
	if len(key) > 8 {
		return key[:8]
	}
	return key
}

// Close releases idle connections.
func (c *Client) Close() error {
	c.client.CloseIdleConnections()
	return nil
}
