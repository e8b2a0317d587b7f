package fetcher

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testOptions() Options {
	opts := DefaultOptions()
	opts.InitialDelay = 10 * time.Millisecond
	return opts
}

func TestFetchSuccess(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			t.Errorf("expected GET, got %s", r.Method)
		}
		w.Write([]byte("image bytes"))
	}))
	defer server.Close()

	f := NewFetcher(testLogger(), testOptions())
	data, err := f.Fetch(context.Background(), server.URL)
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if string(data) != "image bytes" {
		t.Errorf("expected 'image bytes', got %q", string(data))
	}
}

func TestFetchFatalStatusNotRetried(t *testing.T) {
	var requests atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests.Add(1)
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	f := NewFetcher(testLogger(), testOptions())
	_, err := f.Fetch(context.Background(), server.URL)

	var fetchErr *FetchError
	if !errors.As(err, &fetchErr) {
		t.Fatalf("expected *FetchError, got %v", err)
	}
	if fetchErr.Kind != KindStatus {
		t.Errorf("expected KindStatus, got %s", fetchErr.Kind)
	}
	if fetchErr.Status != http.StatusNotFound {
		t.Errorf("expected status 404, got %d", fetchErr.Status)
	}
	if got := requests.Load(); got != 1 {
		t.Errorf("expected exactly 1 request, got %d", got)
	}
}

func TestFetchServerErrorNotRetried(t *testing.T) {
	var requests atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	f := NewFetcher(testLogger(), testOptions())
	_, err := f.Fetch(context.Background(), server.URL)

	var fetchErr *FetchError
	if !errors.As(err, &fetchErr) {
		t.Fatalf("expected *FetchError, got %v", err)
	}
	if fetchErr.Kind != KindStatus {
		t.Errorf("expected KindStatus, got %s", fetchErr.Kind)
	}
	if got := requests.Load(); got != 1 {
		t.Errorf("expected exactly 1 request, got %d", got)
	}
}

func TestFetchRetriesTransientThenSucceeds(t *testing.T) {
	var requests atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Fail the first two attempts at the transport level by killing
		// the connection before a response is written.
		if requests.Add(1) <= 2 {
			if conn, _, err := w.(http.Hijacker).Hijack(); err == nil {
				conn.Close()
			}
			return
		}
		w.Write([]byte("third time lucky"))
	}))
	defer server.Close()

	opts := testOptions()
	opts.Retries = 3
	f := NewFetcher(testLogger(), opts)

	start := time.Now()
	data, err := f.Fetch(context.Background(), server.URL)
	elapsed := time.Since(start)

	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if string(data) != "third time lucky" {
		t.Errorf("expected 'third time lucky', got %q", string(data))
	}
	if got := requests.Load(); got != 3 {
		t.Errorf("expected 3 requests, got %d", got)
	}

	// Two backoff sleeps: 10ms then 20ms (second = factor x first).
	if elapsed < 30*time.Millisecond {
		t.Errorf("expected at least 30ms of backoff, elapsed %v", elapsed)
	}
}

func TestFetchExhaustsRetries(t *testing.T) {
	var requests atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests.Add(1)
		if conn, _, err := w.(http.Hijacker).Hijack(); err == nil {
			conn.Close()
		}
	}))
	defer server.Close()

	opts := testOptions()
	opts.Retries = 3
	f := NewFetcher(testLogger(), opts)

	_, err := f.Fetch(context.Background(), server.URL)

	var fetchErr *FetchError
	if !errors.As(err, &fetchErr) {
		t.Fatalf("expected *FetchError, got %v", err)
	}
	if fetchErr.Kind != KindExhausted {
		t.Errorf("expected KindExhausted, got %s", fetchErr.Kind)
	}
	if fetchErr.Attempts != 3 {
		t.Errorf("expected 3 attempts recorded, got %d", fetchErr.Attempts)
	}
	if got := requests.Load(); got != 3 {
		t.Errorf("expected 3 requests, got %d", got)
	}
	if fetchErr.Err == nil {
		t.Error("expected underlying transport error to be preserved")
	}
}

func TestFetchFollowsRedirects(t *testing.T) {
	target := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("redirected content"))
	}))
	defer target.Close()

	origin := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, target.URL, http.StatusMovedPermanently)
	}))
	defer origin.Close()

	f := NewFetcher(testLogger(), testOptions())
	data, err := f.Fetch(context.Background(), origin.URL)
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if string(data) != "redirected content" {
		t.Errorf("expected 'redirected content', got %q", string(data))
	}
}

func TestFetchContextCancellation(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if conn, _, err := w.(http.Hijacker).Hijack(); err == nil {
			conn.Close()
		}
	}))
	defer server.Close()

	opts := testOptions()
	opts.Retries = 5
	opts.InitialDelay = 10 * time.Second // would dominate the test if waited
	f := NewFetcher(testLogger(), opts)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	start := time.Now()
	_, err := f.Fetch(ctx, server.URL)
	if err == nil {
		t.Fatal("expected error after context deadline")
	}
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("expected context.DeadlineExceeded, got %v", err)
	}
	if elapsed := time.Since(start); elapsed > time.Second {
		t.Errorf("cancellation took too long: %v", elapsed)
	}
}
