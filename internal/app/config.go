package app

import (
	"path/filepath"

	"github.com/avelines/a11yscan/internal/evaluator"
	"github.com/avelines/a11yscan/internal/fetcher"
	"github.com/avelines/a11yscan/internal/report"
	"github.com/avelines/a11yscan/internal/screenshot"
	"github.com/avelines/a11yscan/internal/webclient"
)

// Config contains the runtime configuration shared by the scan pipeline.
type Config struct {
	// StorageRoot is the base path where the database and generated
	// reports are kept.
	StorageRoot string

	// CaptureScreenshots toggles the headless-browser capture step.
	// Disabled in environments without a Chrome binary; the pipeline
	// treats the missing screenshot as a normal case.
	CaptureScreenshots bool

	// Fetcher configuration
	FetcherCfg fetcher.Config

	// WebClient configuration
	WebClientCfg webclient.Config

	// Evaluator rule selection
	EvaluatorOpts evaluator.Options

	// Screenshot capture configuration
	ScreenshotCfg screenshot.Config
}

// DefaultConfig returns a Config populated with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		StorageRoot:        "~/.config/a11yscan",
		CaptureScreenshots: true,
		FetcherCfg:         fetcher.DefaultConfig(),
		WebClientCfg:       webclient.DefaultConfig(),
		EvaluatorOpts:      evaluator.DefaultOptions(),
		ScreenshotCfg:      screenshot.DefaultConfig(),
	}
}

// DatabasePath is where the SQLite file lives under the storage root.
func (c *Config) DatabasePath() string {
	return filepath.Join(c.StorageRoot, "a11yscan.db")
}

// ReportsDir is where generated PDFs are written.
func (c *Config) ReportsDir() string {
	return filepath.Join(c.StorageRoot, "reports")
}

// ReportCfg derives the report generator configuration.
func (c *Config) ReportCfg() report.Config {
	return report.Config{OutputDir: c.ReportsDir()}
}
