// Package fetcher downloads source listing pages with browser-like headers,
// per-request timeout and retries.
package fetcher

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"time"

	"golang.org/x/time/rate"

	"github.com/deusflow/haulnews/internal/logger"
	"github.com/deusflow/haulnews/internal/news"
	"github.com/deusflow/haulnews/internal/retry"
)

const maxBodyBytes = 5 << 20

// ErrorKind classifies why a fetch failed.
type ErrorKind string

const (
	KindTimeout    ErrorKind = "timeout"
	KindHTTPStatus ErrorKind = "http_status"
	KindDNS        ErrorKind = "dns"
	KindNetwork    ErrorKind = "network"
)

// FetchError is returned for every failed fetch.
type FetchError struct {
	Kind       ErrorKind
	StatusCode int
	URL        string
	Err        error

	permanent bool
}

func (e *FetchError) Error() string {
	if e.Kind == KindHTTPStatus {
		return fmt.Sprintf("fetch %s: http status %d", e.URL, e.StatusCode)
	}
	return fmt.Sprintf("fetch %s: %s: %v", e.URL, e.Kind, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// retryable reports whether another attempt could succeed.
func (e *FetchError) retryable() bool {
	if e.permanent {
		return false
	}
	switch e.Kind {
	case KindHTTPStatus:
		return e.StatusCode >= 500 || e.StatusCode == http.StatusTooManyRequests
	case KindDNS:
		var dnsErr *net.DNSError
		if errors.As(e.Err, &dnsErr) {
			return !dnsErr.IsNotFound
		}
		return true
	default:
		return true
	}
}

// Config controls timeouts and pacing.
type Config struct {
	Timeout       time.Duration
	// RetryAttempts counts retries after the first request; 0 disables retrying.
	RetryAttempts int
	RetryDelay    time.Duration
	SourceDelay   time.Duration
	UserAgent     string
}

// DefaultConfig matches the production defaults: 30s timeout, 3 retries, 3s between sources.
func DefaultConfig() Config {
	return Config{
		Timeout:       30 * time.Second,
		RetryAttempts: 3,
		RetryDelay:    2 * time.Second,
		SourceDelay:   3 * time.Second,
		UserAgent:     "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0 Safari/537.36",
	}
}

// Fetcher retrieves raw HTML for a source.
type Fetcher struct {
	client  *http.Client
	cfg     Config
	limiter *rate.Limiter
	log     *slog.Logger
}

// New builds a Fetcher. A nil client gets one with cfg.Timeout.
func New(client *http.Client, cfg Config) *Fetcher {
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultConfig().Timeout
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = DefaultConfig().UserAgent
	}
	if client == nil {
		client = &http.Client{Timeout: cfg.Timeout}
	}

	limit := rate.Inf
	if cfg.SourceDelay > 0 {
		limit = rate.Every(cfg.SourceDelay)
	}

	return &Fetcher{
		client:  client,
		cfg:     cfg,
		limiter: rate.NewLimiter(limit, 1),
		log:     logger.With("fetcher"),
	}
}

// Wait blocks until the inter-source delay has elapsed since the previous source.
func (f *Fetcher) Wait(ctx context.Context) error {
	return f.limiter.Wait(ctx)
}

// Fetch downloads the source page, retrying timeouts, network errors and 5xx.
func (f *Fetcher) Fetch(ctx context.Context, src news.Source) (string, error) {
	var body string
	attempt := 0

	err := retry.WithRetry(ctx, retry.RetryConfig{
		MaxAttempts: f.cfg.RetryAttempts + 1,
		Delay:       f.cfg.RetryDelay,
		Backoff:     true,
	}, func() error {
		attempt++
		var err error
		body, err = f.fetchOnce(ctx, src.URL)
		if err == nil {
			return nil
		}

		var fe *FetchError
		if errors.As(err, &fe) && !fe.retryable() {
			return retry.Permanent(err)
		}
		f.log.Debug("fetch attempt failed", "source", src.Name, "attempt", attempt, "error", err)
		return err
	})
	if err != nil {
		return "", err
	}
	return body, nil
}

func (f *Fetcher) fetchOnce(ctx context.Context, rawURL string) (string, error) {
	if _, err := url.ParseRequestURI(rawURL); err != nil {
		return "", &FetchError{Kind: KindNetwork, URL: rawURL, StatusCode: http.StatusBadRequest, Err: err, permanent: true}
	}

	ctx, cancel := context.WithTimeout(ctx, f.cfg.Timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return "", &FetchError{Kind: KindNetwork, URL: rawURL, StatusCode: http.StatusBadRequest, Err: err, permanent: true}
	}
	setBrowserHeaders(req, f.cfg.UserAgent)

	resp, err := f.client.Do(req)
	if err != nil {
		return "", classify(rawURL, err)
	}
	defer func(Body io.ReadCloser) {
		if err := Body.Close(); err != nil {
			f.log.Warn("failed to close response body", "error", err)
		}
	}(resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", &FetchError{Kind: KindHTTPStatus, StatusCode: resp.StatusCode, URL: rawURL}
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return "", classify(rawURL, err)
	}
	return string(data), nil
}

func setBrowserHeaders(req *http.Request, userAgent string) {
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-AU,en;q=0.9")
	req.Header.Set("Cache-Control", "no-cache")
	req.Header.Set("Connection", "keep-alive")
}

func classify(rawURL string, err error) *FetchError {
	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return &FetchError{Kind: KindDNS, URL: rawURL, Err: err}
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return &FetchError{Kind: KindTimeout, URL: rawURL, Err: err}
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return &FetchError{Kind: KindTimeout, URL: rawURL, Err: err}
	}

	return &FetchError{Kind: KindNetwork, URL: rawURL, Err: err}
}
