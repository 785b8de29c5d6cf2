package feed

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"
)

// retryPause is the fixed delay between retry attempts. Transient failures
// are usually origin hiccups; a short pause avoids hammering a struggling
// host without stretching the refresh cycle.
const retryPause = 500 * time.Millisecond

// FetchResult is the outcome of one feed fetch
type FetchResult struct {
	NotModified  bool
	StatusCode   int
	Body         []byte
	ETag         string
	LastModified string
}

// Fetcher performs conditional HTTP GETs against stored cache validators,
// applying host quirks and a bounded retry policy.
type Fetcher struct {
	client        *http.Client
	quirks        *QuirkTable
	userAgent     string
	timeout       time.Duration
	retryAttempts int
}

// NewFetcher creates a new revalidating fetcher
func NewFetcher(client *http.Client, quirks *QuirkTable, userAgent string, timeout time.Duration, retryAttempts int) *Fetcher {
	if retryAttempts < 1 {
		retryAttempts = 1
	}
	return &Fetcher{
		client:        client,
		quirks:        quirks,
		userAgent:     userAgent,
		timeout:       timeout,
		retryAttempts: retryAttempts,
	}
}

// Fetch issues one conditional GET for a feed. When the stored validators
// still match the origin replies 304 and the result reports NotModified.
// Setting force skips validators entirely and demands origin-fresh content,
// the same behavior the quirk table applies per host.
func (f *Fetcher) Fetch(ctx context.Context, url, etag, lastModified string, force bool) (*FetchResult, error) {
	var lastErr error
	for attempt := 1; attempt <= f.retryAttempts; attempt++ {
		if attempt > 1 {
			select {
			case <-time.After(retryPause):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
			slog.Debug("Retrying feed fetch", "url", url, "attempt", attempt)
		}

		result, retryable, err := f.fetchOnce(ctx, url, etag, lastModified, force)
		if err == nil {
			return result, nil
		}
		lastErr = err
		if !retryable {
			return nil, err
		}
	}
	return nil, fmt.Errorf("fetch failed after %d attempts: %w", f.retryAttempts, lastErr)
}

func (f *Fetcher) fetchOnce(ctx context.Context, url, etag, lastModified string, force bool) (*FetchResult, bool, error) {
	timeoutCtx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(timeoutCtx, "GET", url, nil)
	if err != nil {
		return nil, false, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", f.userAgent)

	quirk := f.quirks.Lookup(req.URL.Hostname())
	noCache := force || quirk.SkipConditional || quirk.ForceNoCache
	if noCache {
		// Validators are withheld and intermediary caches are told to
		// revalidate, so a misbehaving CDN cannot serve a stale body.
		req.Header.Set("Cache-Control", "no-cache")
		req.Header.Set("Pragma", "no-cache")
		req.Header.Set("Expires", "0")
	} else {
		if etag != "" {
			req.Header.Set("If-None-Match", etag)
		}
		if lastModified != "" {
			req.Header.Set("If-Modified-Since", lastModified)
		}
	}

	resp, err := f.client.Do(req)
	if err != nil {
		// Timeouts and connection failures are transient.
		return nil, true, fmt.Errorf("failed to fetch feed: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotModified:
		return &FetchResult{NotModified: true, StatusCode: resp.StatusCode}, false, nil
	case resp.StatusCode >= 500:
		io.Copy(io.Discard, resp.Body)
		return nil, true, fmt.Errorf("HTTP error: %d %s", resp.StatusCode, resp.Status)
	case resp.StatusCode != http.StatusOK:
		return nil, false, fmt.Errorf("HTTP error: %d %s", resp.StatusCode, resp.Status)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, true, fmt.Errorf("failed to read response body: %w", err)
	}

	return &FetchResult{
		StatusCode:   resp.StatusCode,
		Body:         body,
		ETag:         resp.Header.Get("ETag"),
		LastModified: resp.Header.Get("Last-Modified"),
	}, false, nil
}
