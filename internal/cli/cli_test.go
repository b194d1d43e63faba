package cli_test

import (
	"testing"

	"github.com/avelines/a11yscan/internal/cli"
)

func TestParseArgs_Defaults(t *testing.T) {
	t.Parallel()

	args, err := cli.ParseArgs(nil)
	if err != nil {
		t.Fatalf("ParseArgs: %v", err)
	}
	if args.Listen != ":8080" {
		t.Errorf("Listen = %q, want :8080", args.Listen)
	}
	if args.Storage != "" {
		t.Errorf("Storage = %q, want empty", args.Storage)
	}
	if !args.Screenshots {
		t.Error("Screenshots should default to true")
	}
}

func TestParseArgs_Overrides(t *testing.T) {
	t.Parallel()

	args, err := cli.ParseArgs([]string{"-listen", ":9090", "-storage", "/var/lib/a11yscan", "-screenshots=false"})
	if err != nil {
		t.Fatalf("ParseArgs: %v", err)
	}
	if args.Listen != ":9090" {
		t.Errorf("Listen = %q, want :9090", args.Listen)
	}
	if args.Storage != "/var/lib/a11yscan" {
		t.Errorf("Storage = %q", args.Storage)
	}
	if args.Screenshots {
		t.Error("Screenshots should be false")
	}
}

func TestParseArgs_UnknownFlag(t *testing.T) {
	t.Parallel()

	if _, err := cli.ParseArgs([]string{"-bogus"}); err == nil {
		t.Fatal("expected error for unknown flag")
	}
}
