package demoserver

// Config holds configuration for the demo server.
type Config struct {
	// Port is the port on which the demo server listens.
	Port int

	// FlakyFailures is how many times /flaky fails before succeeding.
	FlakyFailures int
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		Port:          9999,
		FlakyFailures: 2,
	}
}
