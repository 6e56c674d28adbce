// Package httpget fetches URL bodies for use as a fetchcache origin.
//
//	o := httpget.New(httpget.WithMaxRetries(2))
//	f, _ := fetchcache.New(fetchcache.Options[string]{Origin: o.Fetch, ...})
package httpget

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/hashicorp/go-cleanhttp"
	"github.com/hashicorp/go-retryablehttp"
)

const defaultMaxBody = 16 << 20

var ErrBodyTooLarge = errors.New("httpget: response body too large")

// StatusError is returned for non-2xx responses so error pages are never cached.
type StatusError struct {
	URL        string
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("httpget: GET %s: unexpected status %d", e.URL, e.StatusCode)
}

type LeveledSlog struct {
	inner *slog.Logger
}

// re-writes HTTP client ERROR to WARN level (because of retries)
func (l LeveledSlog) Error(msg string, keysAndValues ...any) {
	l.inner.Warn(msg, keysAndValues...)
}

func (l LeveledSlog) Warn(msg string, keysAndValues ...any) {
	l.inner.Warn(msg, keysAndValues...)
}

func (l LeveledSlog) Info(msg string, keysAndValues ...any) {
	l.inner.Info(msg, keysAndValues...)
}

func (l LeveledSlog) Debug(msg string, keysAndValues ...any) {
	l.inner.Debug(msg, keysAndValues...)
}

type Origin struct {
	client    *http.Client
	maxBody   int64
	userAgent string
}

type config struct {
	retry     *retryablehttp.Client
	timeout   time.Duration
	maxBody   int64
	userAgent string
}

type Option func(*config)

// WithMaxRetries sets the maximum number of retries per fetch.
func WithMaxRetries(n int) Option {
	return func(c *config) { c.retry.RetryMax = n }
}

// WithRetryWait sets the backoff bounds between retries.
func WithRetryWait(lo, hi time.Duration) Option {
	return func(c *config) {
		c.retry.RetryWaitMin = lo
		c.retry.RetryWaitMax = hi
	}
}

// WithTimeout bounds a whole fetch, retries included. 0 disables it.
func WithTimeout(d time.Duration) Option {
	return func(c *config) { c.timeout = d }
}

func WithLogger(l *slog.Logger) Option {
	return func(c *config) { c.retry.Logger = retryablehttp.LeveledLogger(LeveledSlog{inner: l}) }
}

func WithTransport(rt http.RoundTripper) Option {
	return func(c *config) { c.retry.HTTPClient.Transport = rt }
}

// WithMaxBody caps the bytes read from a response body.
func WithMaxBody(n int64) Option {
	return func(c *config) { c.maxBody = n }
}

func WithUserAgent(ua string) Option {
	return func(c *config) { c.userAgent = ua }
}

// New returns an origin with retries on connection errors and 5xx (except
// 501), logging intermediate failures at WARN. 429 is not retried.
func New(opts ...Option) *Origin {
	retry := retryablehttp.NewClient()
	retry.HTTPClient.Transport = cleanhttp.DefaultPooledTransport()
	retry.RetryMax = 3
	retry.RetryWaitMin = 1 * time.Second
	retry.RetryWaitMax = 10 * time.Second
	retry.Logger = retryablehttp.LeveledLogger(LeveledSlog{inner: slog.Default().With("subsystem", "fetchcache-httpget")})
	retry.CheckRetry = DefaultRetryPolicy

	cfg := &config{
		retry:     retry,
		timeout:   30 * time.Second,
		maxBody:   defaultMaxBody,
		userAgent: "fetchcache",
	}
	for _, o := range opts {
		o(cfg)
	}

	client := cfg.retry.StandardClient()
	client.Timeout = cfg.timeout
	return &Origin{client: client, maxBody: cfg.maxBody, userAgent: cfg.userAgent}
}

// DefaultRetryPolicy is retryablehttp.DefaultRetryPolicy, except that
// `429 Too Many Requests` is not retried so the caller decides how to back off.
func DefaultRetryPolicy(ctx context.Context, resp *http.Response, err error) (bool, error) {
	if err == nil && resp.StatusCode == http.StatusTooManyRequests {
		return false, nil
	}
	return retryablehttp.DefaultRetryPolicy(ctx, resp, err)
}

// Fetch GETs url and returns the response body as text.
func (o *Origin) Fetch(ctx context.Context, url string) (string, error) {
	b, err := o.FetchBytes(ctx, url)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func (o *Origin) FetchBytes(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("httpget: %w", err)
	}
	if o.userAgent != "" {
		req.Header.Set("User-Agent", o.userAgent)
	}
	resp, err := o.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("httpget: GET %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return nil, &StatusError{URL: url, StatusCode: resp.StatusCode}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, o.maxBody+1))
	if err != nil {
		return nil, fmt.Errorf("httpget: read %s: %w", url, err)
	}
	if int64(len(body)) > o.maxBody {
		return nil, ErrBodyTooLarge
	}
	return body, nil
}
