package webclient

import (
	"context"
	"net/http"
	"time"
)

// WebClient executes HTTP requests for the fetcher. Implementations must
// be safe for concurrent use.
type WebClient interface {
	Do(ctx context.Context, req *Request) (*Response, error)

	Close() error
}

// Request is a backend-agnostic HTTP request.
type Request struct {
	Method  string
	URL     string
	Headers http.Header
	Body    []byte
}

// Response is a fully buffered HTTP response.
type Response struct {
	Request    *Request
	Headers    http.Header
	Body       []byte
	StatusCode int
	FetchedAt  time.Time
}

// Config holds WebClient construction options.
type Config struct {
	// Timeout bounds one request end to end, including redirects.
	Timeout time.Duration

	// MaxRedirects caps how many redirects a single request may follow.
	MaxRedirects int
}

// DefaultConfig returns the settings used by the scan pipeline.
func DefaultConfig() Config {
	return Config{
		Timeout:      15 * time.Second,
		MaxRedirects: 5,
	}
}
