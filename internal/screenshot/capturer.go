package screenshot

import (
	"context"
	"encoding/base64"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/chromedp"

	"github.com/avelines/a11yscan/internal/logging"
)

// Config holds capture options.
type Config struct {
	// NavigationTimeout bounds one capture end to end: browser launch,
	// navigation, settle and screenshot.
	NavigationTimeout time.Duration

	// ViewportWidth/ViewportHeight size the emulated viewport.
	ViewportWidth  int
	ViewportHeight int

	// IdleAfter is how long the network must stay quiet before the page
	// is considered settled.
	IdleAfter time.Duration
}

// DefaultConfig returns the capture settings used by the scan pipeline.
func DefaultConfig() Config {
	return Config{
		NavigationTimeout: 25 * time.Second,
		ViewportWidth:     1280,
		ViewportHeight:    800,
		IdleAfter:         2 * time.Second,
	}
}

// ChromeCapturer drives a headless browser to capture a single viewport
// image per call. The browser is launched and torn down per capture, no
// pooling; concurrent scans each pay the launch cost independently.
type ChromeCapturer struct {
	cfg    Config
	logger logging.Logger
}

// New creates a ChromeCapturer.
func New(cfg Config, logger logging.Logger) *ChromeCapturer {
	if cfg.NavigationTimeout == 0 {
		cfg = DefaultConfig()
	}
	return &ChromeCapturer{
		cfg:    cfg,
		logger: logger.With(logging.Field{Key: "component", Value: "screenshot"}),
	}
}

// waitNetworkIdle closes the returned channel once no network request
// has been in flight for idleAfter. Used to let late-loading pages
// settle before the screenshot is taken.
func waitNetworkIdle(ctx context.Context, idleAfter time.Duration) <-chan struct{} {
	idleChan := make(chan struct{})
	var activeReqs int32
	var timer *time.Timer
	var timerMutex sync.Mutex
	var once sync.Once

	startTimer := func() {
		timerMutex.Lock()
		defer timerMutex.Unlock()

		if timer != nil {
			timer.Stop()
		}

		timer = time.AfterFunc(idleAfter, func() {
			if atomic.LoadInt32(&activeReqs) == 0 {
				once.Do(func() { close(idleChan) })
			}
		})
	}

	chromedp.ListenTarget(ctx, func(ev any) {
		switch ev.(type) {
		case *network.EventRequestWillBeSent:
			atomic.AddInt32(&activeReqs, 1)
		case *network.EventLoadingFinished, *network.EventLoadingFailed:
			if atomic.AddInt32(&activeReqs, -1) <= 0 {
				startTimer()
			}
		}
	})

	// Covers pages that issue no subresource requests at all.
	startTimer()

	return idleChan
}

// Capture navigates to url and returns the viewport as a base64-encoded
// PNG. Every failure path tears the browser down; callers treat any
// error as "no screenshot" and must never fail a scan over it.
func (c *ChromeCapturer) Capture(ctx context.Context, url string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.cfg.NavigationTimeout)
	defer cancel()

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx,
		append(chromedp.DefaultExecAllocatorOptions[:],
			chromedp.Flag("headless", true),
			chromedp.Flag("disable-gpu", true),
			chromedp.NoSandbox,
		)...)
	defer cancelAlloc()

	browserCtx, cancelBrowser := chromedp.NewContext(allocCtx)
	defer cancelBrowser()

	idle := waitNetworkIdle(browserCtx, c.cfg.IdleAfter)

	started := time.Now()
	err := chromedp.Run(browserCtx,
		network.Enable(),
		chromedp.EmulateViewport(int64(c.cfg.ViewportWidth), int64(c.cfg.ViewportHeight)),
		chromedp.Navigate(url),
	)
	if err != nil {
		c.logger.Warn("navigation failed",
			logging.Field{Key: "url", Value: url},
			logging.Field{Key: "error", Value: err.Error()})
		return "", fmt.Errorf("navigate %s: %w", url, err)
	}

	select {
	case <-idle:
	case <-browserCtx.Done():
		return "", fmt.Errorf("capture %s: %w", url, browserCtx.Err())
	}

	var buf []byte
	if err := chromedp.Run(browserCtx, chromedp.CaptureScreenshot(&buf)); err != nil {
		c.logger.Warn("screenshot failed",
			logging.Field{Key: "url", Value: url},
			logging.Field{Key: "error", Value: err.Error()})
		return "", fmt.Errorf("screenshot %s: %w", url, err)
	}

	c.logger.Debug("captured screenshot",
		logging.Field{Key: "url", Value: url},
		logging.Field{Key: "bytes", Value: len(buf)},
		logging.Field{Key: "elapsed", Value: time.Since(started).String()})

	return base64.StdEncoding.EncodeToString(buf), nil
}
