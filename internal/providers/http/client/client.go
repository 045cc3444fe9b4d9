package client

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/hashicorp/go-retryablehttp"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/astraterm/astraterm/internal/infrastructure/monitoring"
	"github.com/astraterm/astraterm/internal/infrastructure/resilience"
)

const defaultUserAgent = "AstraTerm/1.2.0"

// ErrUnavailable is returned while the upstream's breaker is open
var ErrUnavailable = errors.New("external service unavailable")

// StatusError is returned for non-2xx responses
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("unexpected status %d", e.StatusCode)
	}
	return fmt.Sprintf("unexpected status %d: %s", e.StatusCode, e.Body)
}

// Options configures a Client
type Options struct {
	Name         string
	BaseURL      string
	UserAgent    string
	Timeout      time.Duration
	RetryMax     int
	RetryWaitMin time.Duration
	RetryWaitMax time.Duration
	// RequestsPerSecond of zero means unlimited
	RequestsPerSecond float64
	Logger            *zap.Logger
	Metrics           *monitoring.Metrics
}

// Client wraps resty with retries, rate limiting and a circuit breaker
type Client struct {
	name    string
	resty   *resty.Client
	limiter *rate.Limiter
	breaker *resilience.Breaker
	logger  *zap.Logger
	metrics *monitoring.Metrics
}

// New creates a client for one upstream
func New(opts Options) *Client {
	if opts.Name == "" {
		opts.Name = "http"
	}
	if opts.UserAgent == "" {
		opts.UserAgent = defaultUserAgent
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 30 * time.Second
	}
	if opts.RetryMax < 0 {
		opts.RetryMax = 0
	} else if opts.RetryMax == 0 {
		opts.RetryMax = 3
	}
	if opts.RetryWaitMin <= 0 {
		opts.RetryWaitMin = 500 * time.Millisecond
	}
	if opts.RetryWaitMax <= 0 {
		opts.RetryWaitMax = 10 * time.Second
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	logger := opts.Logger.Named(opts.Name)

	retryClient := retryablehttp.NewClient()
	retryClient.RetryMax = opts.RetryMax
	retryClient.RetryWaitMin = opts.RetryWaitMin
	retryClient.RetryWaitMax = opts.RetryWaitMax
	retryClient.Logger = leveledLogger{logger}
	// Hand the final response back to resty instead of an opaque error.
	retryClient.ErrorHandler = retryablehttp.PassthroughErrorHandler

	r := resty.New().
		SetTransport(&retryablehttp.RoundTripper{Client: retryClient}).
		SetTimeout(opts.Timeout).
		SetHeader("User-Agent", opts.UserAgent)
	if opts.BaseURL != "" {
		r.SetBaseURL(opts.BaseURL)
	}

	limit := rate.Inf
	burst := 0
	if opts.RequestsPerSecond > 0 {
		limit = rate.Limit(opts.RequestsPerSecond)
		burst = max(1, int(opts.RequestsPerSecond))
	}

	breaker := resilience.New(opts.Name, resilience.Settings{
		MaxRequests: 3,
		Interval:    time.Minute,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(c resilience.Counts) bool {
			return c.ConsecutiveFailures >= 5 ||
				(c.Requests >= 20 && float64(c.TotalFailures)/float64(c.Requests) > 0.7)
		},
		IsSuccessful:  isSuccessful,
		OnStateChange: resilience.LogStateChange(logger),
	})

	return &Client{
		name:    opts.Name,
		resty:   r,
		limiter: rate.NewLimiter(limit, burst),
		breaker: breaker,
		logger:  logger,
		metrics: opts.Metrics,
	}
}

// Name returns the upstream name
func (c *Client) Name() string {
	return c.name
}

// Breaker exposes the circuit breaker for status reporting
func (c *Client) Breaker() *resilience.Breaker {
	return c.breaker
}

// SetHeader adds a default header
func (c *Client) SetHeader(key, value string) {
	c.resty.SetHeader(key, value)
}

// SetBearerAuth sets a default bearer token
func (c *Client) SetBearerAuth(token string) {
	c.resty.SetAuthToken(token)
}

// Do waits for the rate limiter, then runs send through the breaker.
// Non-2xx responses are returned as *StatusError alongside the response.
func (c *Client) Do(ctx context.Context, method string, send func(*resty.Request) (*resty.Response, error)) (*resty.Response, error) {
	timer := monitoring.NewTimer(c.metrics, c.name, method)

	if err := c.limiter.Wait(ctx); err != nil {
		timer.Stop("rate_limited")
		return nil, fmt.Errorf("rate limit wait: %w", err)
	}

	resp, err := resilience.Call(c.breaker, func() (*resty.Response, error) {
		resp, err := send(c.resty.R().SetContext(ctx))
		if err != nil {
			return resp, err
		}
		if resp.IsError() {
			return resp, &StatusError{StatusCode: resp.StatusCode(), Body: truncate(resp.String(), 256)}
		}
		return resp, nil
	})

	switch {
	case resilience.IsRejection(err):
		timer.Stop("rejected")
		return nil, fmt.Errorf("%w: %s: %w", ErrUnavailable, c.name, err)
	case err != nil:
		timer.Stop("error")
		c.logger.Debug("Request failed", zap.String("method", method), zap.Error(err))
		return resp, err
	}

	timer.Stop("success")
	return resp, nil
}

// isSuccessful counts client errors other than 429 as healthy upstream
// behavior.
func isSuccessful(err error) bool {
	if err == nil {
		return true
	}
	var se *StatusError
	if errors.As(err, &se) {
		return se.StatusCode < http.StatusInternalServerError && se.StatusCode != http.StatusTooManyRequests
	}
	return errors.Is(err, context.Canceled)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}

// leveledLogger adapts zap to retryablehttp.LeveledLogger
type leveledLogger struct {
	l *zap.Logger
}

func (l leveledLogger) Error(msg string, kv ...interface{}) { l.l.Sugar().Errorw(msg, kv...) }
func (l leveledLogger) Info(msg string, kv ...interface{})  { l.l.Sugar().Debugw(msg, kv...) }
func (l leveledLogger) Debug(msg string, kv ...interface{}) { l.l.Sugar().Debugw(msg, kv...) }
func (l leveledLogger) Warn(msg string, kv ...interface{})  { l.l.Sugar().Warnw(msg, kv...) }
