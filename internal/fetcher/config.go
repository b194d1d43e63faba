package fetcher

import "time"

type Config struct {
	// Attempts is the total number of fetch attempts before giving up.
	Attempts int

	// RetryDelay is the fixed pause between attempts. No backoff.
	RetryDelay time.Duration
}

// DefaultConfig returns the retry policy used by the scan pipeline.
func DefaultConfig() Config {
	return Config{
		Attempts:   3,
		RetryDelay: 500 * time.Millisecond,
	}
}
