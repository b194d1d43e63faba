package fetcher

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/avelines/a11yscan/internal/logging"
	"github.com/avelines/a11yscan/internal/webclient"
)

// ErrNoAttempts is returned when the fetcher is configured with zero
// retry attempts.
var ErrNoAttempts = errors.New("fetcher: no attempts configured")

// FetchError is the terminal failure after all attempts are exhausted.
// It wraps the last underlying error.
type FetchError struct {
	URL      string
	Attempts int
	Last     error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetching %s failed after %d attempts: %v", e.URL, e.Attempts, e.Last)
}

func (e *FetchError) Unwrap() error { return e.Last }

// userAgents is the fixed ladder rotated across retry attempts. Some
// sites serve different (or no) content per agent, so each attempt
// presents the next candidate.
var userAgents = []string{
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.1 Safari/605.1.15",
	"Mozilla/5.0 (X11; Linux x86_64; rv:121.0) Gecko/20100101 Firefox/121.0",
}

// Module: fetcher
// Resolves a raw target to an absolute URL and retrieves its HTML.
type Fetcher struct {
	cfg    Config
	wc     webclient.WebClient
	logger logging.Logger
}

// New creates a Fetcher with the given webclient and logger.
func New(cfg Config, wc webclient.WebClient, logger logging.Logger) (*Fetcher, error) {
	if wc == nil {
		return nil, fmt.Errorf("fetcher: webclient is nil")
	}
	if cfg.Attempts == 0 {
		cfg = DefaultConfig()
	}
	return &Fetcher{
		cfg:    cfg,
		wc:     wc,
		logger: logger.With(logging.Field{Key: "component", Value: "fetcher"}),
	}, nil
}

// NormalizeTarget resolves a raw target to an absolute HTTP(S) URL,
// prepending https:// when no scheme is present.
func NormalizeTarget(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", fmt.Errorf("empty target")
	}
	if !strings.HasPrefix(raw, "http://") && !strings.HasPrefix(raw, "https://") {
		raw = "https://" + raw
	}
	u, err := url.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("parse target %q: %w", raw, err)
	}
	if u.Host == "" {
		return "", fmt.Errorf("target %q has no host", raw)
	}
	return u.String(), nil
}

// Fetch normalizes target and retrieves the page body as text. It retries
// across the user-agent ladder with a fixed inter-attempt delay; any
// network error or non-2xx status moves on to the next attempt. When all
// attempts are exhausted it returns a *FetchError wrapping the last error.
func (f *Fetcher) Fetch(ctx context.Context, target string) (body string, resolvedURL string, err error) {
	resolvedURL, err = NormalizeTarget(target)
	if err != nil {
		return "", "", &FetchError{URL: target, Attempts: 0, Last: err}
	}

	if f.cfg.Attempts <= 0 {
		return "", "", ErrNoAttempts
	}

	var lastErr error
	for attempt := 0; attempt < f.cfg.Attempts; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return "", resolvedURL, &FetchError{URL: resolvedURL, Attempts: attempt, Last: ctx.Err()}
			case <-time.After(f.cfg.RetryDelay):
			}
		}

		ua := userAgents[attempt%len(userAgents)]
		req := &webclient.Request{
			Method:  http.MethodGet,
			URL:     resolvedURL,
			Headers: http.Header{"User-Agent": []string{ua}, "Accept": []string{"text/html,application/xhtml+xml"}},
		}

		resp, reqErr := f.wc.Do(ctx, req)
		if reqErr != nil {
			lastErr = reqErr
			f.logger.Warn("fetch attempt failed",
				logging.Field{Key: "url", Value: resolvedURL},
				logging.Field{Key: "attempt", Value: attempt + 1},
				logging.Field{Key: "error", Value: reqErr.Error()})
			continue
		}
		if resp.StatusCode < 200 || resp.StatusCode > 299 {
			lastErr = fmt.Errorf("unexpected status %d", resp.StatusCode)
			f.logger.Warn("fetch attempt returned non-2xx",
				logging.Field{Key: "url", Value: resolvedURL},
				logging.Field{Key: "attempt", Value: attempt + 1},
				logging.Field{Key: "status", Value: resp.StatusCode})
			continue
		}

		f.logger.Debug("fetched page",
			logging.Field{Key: "url", Value: resolvedURL},
			logging.Field{Key: "bytes", Value: len(resp.Body)})
		return string(resp.Body), resolvedURL, nil
	}

	return "", resolvedURL, &FetchError{URL: resolvedURL, Attempts: f.cfg.Attempts, Last: lastErr}
}
