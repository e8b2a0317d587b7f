// Package fetcher downloads remote resources with retry and backoff.
//
// Failures are discriminated: transient transport problems (timeouts,
// connection resets, DNS failures) are retried with exponential backoff,
// while a non-2xx status from the remote is fatal and returned immediately.
// Both surface as *FetchError so callers can branch on Kind.
package fetcher

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"golang.org/x/time/rate"
)

// Kind classifies a fetch failure.
type Kind int

const (
	// KindExhausted means transient failures consumed every attempt.
	KindExhausted Kind = iota

	// KindStatus means the transport succeeded but the remote answered
	// with a non-2xx status. Never retried.
	KindStatus
)

func (k Kind) String() string {
	switch k {
	case KindExhausted:
		return "exhausted"
	case KindStatus:
		return "status"
	default:
		return "unknown"
	}
}

// FetchError is the discriminated failure returned by Fetch.
type FetchError struct {
	URL      string
	Kind     Kind
	Status   int   // HTTP status for KindStatus
	Attempts int   // attempts consumed before giving up
	Err      error // last underlying transport error, if any
}

func (e *FetchError) Error() string {
	switch e.Kind {
	case KindStatus:
		return fmt.Sprintf("fetch %s: unexpected status code: %d", e.URL, e.Status)
	default:
		return fmt.Sprintf("fetch %s: exhausted %d attempts: %v", e.URL, e.Attempts, e.Err)
	}
}

func (e *FetchError) Unwrap() error { return e.Err }

// Options configures the fetcher.
type Options struct {
	// Retries is the maximum number of attempts per URL.
	// Default: 3
	Retries int

	// InitialDelay is the sleep before the first retry.
	// Default: 1s
	InitialDelay time.Duration

	// BackoffFactor multiplies the delay after each transient failure.
	// Default: 2.0
	BackoffFactor float64

	// Timeout for individual requests.
	// Default: 30s
	Timeout time.Duration

	// MaxIdleConnsPerHost sets the maximum idle connections per host.
	// Default: 100
	MaxIdleConnsPerHost int

	// Limiter optionally throttles attempts across all callers.
	Limiter *rate.Limiter
}

// DefaultOptions returns options with sensible defaults.
func DefaultOptions() Options {
	return Options{
		Retries:             3,
		InitialDelay:        time.Second,
		BackoffFactor:       2.0,
		Timeout:             30 * time.Second,
		MaxIdleConnsPerHost: 100,
	}
}

// Fetcher is an HTTP fetcher safe for unlimited concurrent callers; the
// underlying transport's connection pool is the only shared state.
type Fetcher struct {
	client *http.Client
	opts   Options
	logger *slog.Logger
}

// NewFetcher creates a fetcher with the given options and diagnostics sink.
// Redirects are followed automatically by the transport.
func NewFetcher(logger *slog.Logger, opts Options) *Fetcher {
	if opts.Retries <= 0 {
		opts.Retries = 3
	}
	if opts.InitialDelay <= 0 {
		opts.InitialDelay = time.Second
	}
	if opts.BackoffFactor <= 0 {
		opts.BackoffFactor = 2.0
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 30 * time.Second
	}
	if opts.MaxIdleConnsPerHost <= 0 {
		opts.MaxIdleConnsPerHost = 100
	}

	transport := &http.Transport{
		MaxIdleConnsPerHost: opts.MaxIdleConnsPerHost,
		MaxIdleConns:        opts.MaxIdleConnsPerHost * 2,
		IdleConnTimeout:     90 * time.Second,
	}

	return &Fetcher{
		client: &http.Client{
			Transport: transport,
			Timeout:   opts.Timeout,
		},
		opts:   opts,
		logger: logger,
	}
}

// Fetch downloads url and returns its bytes, retrying transient failures
// with exponential backoff. The returned error is a *FetchError for both
// exhausted retries and fatal statuses; context errors pass through as-is.
func (f *Fetcher) Fetch(ctx context.Context, url string) ([]byte, error) {
	delay := f.opts.InitialDelay
	var lastErr error

	for attempt := 1; attempt <= f.opts.Retries; attempt++ {
		if attempt > 1 {
			f.logger.Warn("Retrying fetch", "url", url, "attempt", attempt, "delay", delay, "error", lastErr)
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(delay):
			}
			delay = time.Duration(float64(delay) * f.opts.BackoffFactor)
		}

		if f.opts.Limiter != nil {
			if err := f.opts.Limiter.Wait(ctx); err != nil {
				return nil, err
			}
		}

		f.logger.Info("Fetch attempt started", "url", url, "attempt", attempt)

		data, err := f.get(ctx, url, attempt)
		if err != nil {
			var fetchErr *FetchError
			if errors.As(err, &fetchErr) {
				// Fatal status from the remote, never retried.
				f.logger.Error("Fetch received fatal status", "url", url, "status", fetchErr.Status, "attempt", attempt)
				return nil, err
			}
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			lastErr = err
			continue
		}
		return data, nil
	}

	f.logger.Error("Fetch attempts exhausted", "url", url, "attempts", f.opts.Retries, "error", lastErr)
	return nil, &FetchError{URL: url, Kind: KindExhausted, Attempts: f.opts.Retries, Err: lastErr}
}

// get performs one attempt. A plain error is a retryable transport failure;
// a *FetchError is a fatal status.
func (f *Fetcher) get(ctx context.Context, url string, attempt int) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to make HTTP request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &FetchError{URL: url, Kind: KindStatus, Status: resp.StatusCode, Attempts: attempt}
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	// Redirects are followed by the transport; note when the response came
	// from somewhere other than the requested URL.
	if finalURL := resp.Request.URL.String(); finalURL != url {
		f.logger.Info("Fetch followed redirect", "url", url, "final_url", finalURL)
	}

	f.logger.Info("Fetch succeeded", "url", url, "attempt", attempt, "status", resp.StatusCode, "bytes", len(data))
	return data, nil
}
