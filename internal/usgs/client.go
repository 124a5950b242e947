package usgs

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/JakeFAU/quakewatch-crawler/internal/metrics"
)

// Client is the sole network boundary to the provider. Every request passes
// through a proactive inter-request delay, then retries per the configured
// RetryPolicy: exponential backoff for transport failures, escalating fixed
// waits for HTTP 429, no retry for any other non-2xx status.
type Client struct {
	baseURL    string
	userAgent  string
	httpClient *http.Client
	limiter    *rate.Limiter
	policy     RetryPolicy
	clock      clockwork.Clock
	logger     *zap.Logger
}

// ClientConfig carries the knobs NewClient needs.
type ClientConfig struct {
	BaseURL           string
	UserAgent         string
	Timeout           time.Duration
	InterRequestDelay time.Duration
	Policy            RetryPolicy
}

// ClientOption customizes a Client, mainly for tests.
type ClientOption func(*Client)

// WithClock substitutes the clock used for backoff waits.
func WithClock(clock clockwork.Clock) ClientOption {
	return func(c *Client) { c.clock = clock }
}

// WithHTTPClient substitutes the underlying *http.Client.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) { c.httpClient = hc }
}

// NewClient builds a Client for the given provider endpoint.
func NewClient(cfg ClientConfig, logger *zap.Logger, opts ...ClientOption) *Client {
	metrics.Init()
	limit := rate.Inf
	if cfg.InterRequestDelay > 0 {
		limit = rate.Every(cfg.InterRequestDelay)
	}
	c := &Client{
		baseURL:    cfg.BaseURL,
		userAgent:  cfg.UserAgent,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		limiter:    rate.NewLimiter(limit, 1),
		policy:     cfg.Policy,
		clock:      clockwork.NewRealClock(),
		logger:     logger,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// get issues one logical GET against endpoint, driving the retry loop until
// the policy gives up or a terminal response arrives.
func (c *Client) get(ctx context.Context, endpoint string, params url.Values) ([]byte, error) {
	reqURL := fmt.Sprintf("%s/%s?%s", c.baseURL, endpoint, params.Encode())

	var netFailures, rateLimited int
	for {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("inter-request delay: %w", err)
		}

		start := time.Now()
		body, status, err := c.do(ctx, reqURL)
		elapsed := time.Since(start)

		switch {
		case err != nil:
			if ctx.Err() != nil {
				return nil, fmt.Errorf("request canceled: %w", ctx.Err())
			}
			metrics.ObserveProviderRequest(endpoint, "network_error", elapsed)
			netFailures++
			delay, ok := c.policy.NextDelay(netFailures, KindNetwork)
			if !ok {
				return nil, &NetworkError{Attempts: netFailures, Err: err}
			}
			c.logger.Warn("request failed, backing off",
				zap.String("endpoint", endpoint),
				zap.Int("attempt", netFailures),
				zap.Duration("wait", delay),
				zap.Error(err),
			)
			if err := c.sleep(ctx, delay, KindNetwork); err != nil {
				return nil, err
			}

		case status == http.StatusTooManyRequests:
			metrics.ObserveProviderRequest(endpoint, "rate_limited", elapsed)
			rateLimited++
			delay, ok := c.policy.NextDelay(rateLimited, KindRateLimit)
			if !ok {
				return nil, &RateLimitError{Attempts: rateLimited}
			}
			c.logger.Warn("provider rate limit hit, waiting",
				zap.String("endpoint", endpoint),
				zap.Int("attempt", rateLimited),
				zap.Duration("wait", delay),
			)
			if err := c.sleep(ctx, delay, KindRateLimit); err != nil {
				return nil, err
			}

		case status < 200 || status >= 300:
			metrics.ObserveProviderRequest(endpoint, "http_error", elapsed)
			return nil, &HTTPError{Status: status}

		default:
			metrics.ObserveProviderRequest(endpoint, "ok", elapsed)
			return body, nil
		}
	}
}

func (c *Client) do(ctx context.Context, reqURL string) ([]byte, int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, 0, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, 0, fmt.Errorf("execute request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, 0, fmt.Errorf("read response body: %w", err)
	}
	return body, resp.StatusCode, nil
}

func (c *Client) sleep(ctx context.Context, delay time.Duration, kind ErrorKind) error {
	metrics.ObserveRetryWait(kind.String(), delay)
	select {
	case <-ctx.Done():
		return fmt.Errorf("backoff interrupted: %w", ctx.Err())
	case <-c.clock.After(delay):
		return nil
	}
}
