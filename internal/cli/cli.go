package cli

import (
	"flag"
)

// CLIArgs are the command-line arguments for the API server.
type CLIArgs struct {
	// Listen is the HTTP listen address.
	Listen string

	// Storage overrides the storage root; empty means the config default.
	Storage string

	// Screenshots toggles headless-browser capture.
	Screenshots bool

	// RawArgs is the original args slice (useful for debugging/tests).
	RawArgs []string
}

// ParseArgs parses a slice of args and returns CLIArgs. Use in tests by
// passing arbitrary slices. The function is deterministic and does not
// read os.Args.
func ParseArgs(args []string) (*CLIArgs, error) {
	fs := flag.NewFlagSet("a11yscan", flag.ContinueOnError)
	var (
		listen      = fs.String("listen", ":8080", "HTTP listen address")
		storage     = fs.String("storage", "", "Storage root directory (default ~/.config/a11yscan)")
		screenshots = fs.Bool("screenshots", true, "Capture page screenshots with a headless browser")
	)

	// Ensure Parse doesn't write to stdout/stderr in tests
	fs.SetOutput(nil)

	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	return &CLIArgs{
		Listen:      *listen,
		Storage:     *storage,
		Screenshots: *screenshots,
		RawArgs:     args,
	}, nil
}
