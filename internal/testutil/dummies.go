// Package testutil provides shared test doubles for use across package tests.
// All dummies implement the corresponding interfaces from the production code,
// allowing injection into components under test without real I/O or side effects.
package testutil

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/google/uuid"

	"github.com/avelines/a11yscan/internal/logging"
	"github.com/avelines/a11yscan/internal/model"
	"github.com/avelines/a11yscan/internal/store"
	"github.com/avelines/a11yscan/internal/webclient"
)

// ─── Logger ────────────────────────────────────────────────────────────

// DummyLogger implements logging.Logger with in-memory recording.
type DummyLogger struct {
	mu     sync.Mutex
	Errors []string
	Infos  []string
	Debugs []string
	Warns  []string
}

func (l *DummyLogger) Debug(msg string, fields ...logging.Field) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.Debugs = append(l.Debugs, msg)
}

func (l *DummyLogger) Info(msg string, fields ...logging.Field) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.Infos = append(l.Infos, msg)
}

func (l *DummyLogger) Warn(msg string, fields ...logging.Field) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.Warns = append(l.Warns, msg)
}

func (l *DummyLogger) Error(msg string, fields ...logging.Field) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.Errors = append(l.Errors, msg)
}

func (l *DummyLogger) With(_ ...logging.Field) logging.Logger { return l }

// ─── WebClient ─────────────────────────────────────────────────────────

// DummyWebClient implements webclient.WebClient.
// By default it returns Bodies[url] (or "ok:<url>") with status 200.
// Set FailURLs[url] = true to force an error for a specific URL, or
// FailTimes > 0 to fail the first N requests regardless of URL.
type DummyWebClient struct {
	ResponseDelay time.Duration
	FailURLs      map[string]bool
	FailTimes     int
	Bodies        map[string]string
	Statuses      map[string]int

	mu       sync.Mutex
	calls    int
	Requests []*webclient.Request
}

func (d *DummyWebClient) Do(ctx context.Context, req *webclient.Request) (*webclient.Response, error) {
	if d.ResponseDelay > 0 {
		select {
		case <-time.After(d.ResponseDelay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	d.mu.Lock()
	d.calls++
	call := d.calls
	d.Requests = append(d.Requests, req)
	d.mu.Unlock()

	if call <= d.FailTimes {
		return nil, &errString{"dummy transient failure"}
	}
	if d.FailURLs != nil && d.FailURLs[req.URL] {
		return nil, &errString{"dummy fetch fail for " + req.URL}
	}

	body := "ok:" + req.URL
	if d.Bodies != nil {
		if b, ok := d.Bodies[req.URL]; ok {
			body = b
		}
	}
	status := 200
	if d.Statuses != nil {
		if s, ok := d.Statuses[req.URL]; ok {
			status = s
		}
	}

	return &webclient.Response{
		Request:    req,
		Body:       []byte(body),
		StatusCode: status,
		FetchedAt:  time.Now(),
	}, nil
}

func (d *DummyWebClient) Close() error { return nil }

// Calls reports how many requests the client has served.
func (d *DummyWebClient) Calls() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.calls
}

// ─── Store ─────────────────────────────────────────────────────────────

// DummyStore implements the orchestrator's Store interface in memory.
type DummyStore struct {
	mu       sync.Mutex
	scans    map[string]*model.Scan
	settings map[string]*model.ReportSettings

	CreateErr   error
	FinalizeErr error
}

func NewDummyStore() *DummyStore {
	return &DummyStore{
		scans:    make(map[string]*model.Scan),
		settings: make(map[string]*model.ReportSettings),
	}
}

func (s *DummyStore) CreateScan(_ context.Context, userID, url string) (*model.Scan, error) {
	if s.CreateErr != nil {
		return nil, s.CreateErr
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	scan := &model.Scan{
		ID:        uuid.New().String(),
		UserID:    userID,
		URL:       url,
		Status:    model.StatusPending,
		CreatedAt: time.Now().UTC(),
	}
	s.scans[scan.ID] = scan
	cp := *scan
	return &cp, nil
}

func (s *DummyStore) FinalizeScan(_ context.Context, scanID string, status model.ScanStatus, reportPath *string) error {
	if s.FinalizeErr != nil {
		return s.FinalizeErr
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	scan, ok := s.scans[scanID]
	if !ok {
		return store.ErrScanNotFound
	}
	if scan.Status.Terminal() {
		return store.ErrScanFinalized
	}
	scan.Status = status
	if status == model.StatusFailed {
		scan.ReportPath = nil
	} else {
		scan.ReportPath = reportPath
	}
	return nil
}

func (s *DummyStore) GetScan(_ context.Context, scanID string) (*model.Scan, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	scan, ok := s.scans[scanID]
	if !ok {
		return nil, store.ErrScanNotFound
	}
	cp := *scan
	return &cp, nil
}

func (s *DummyStore) ListScansByUser(_ context.Context, userID string) ([]model.Scan, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []model.Scan
	for _, scan := range s.scans {
		if scan.UserID == userID {
			out = append(out, *scan)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (s *DummyStore) GetReportSettings(_ context.Context, userID string) (*model.ReportSettings, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rs, ok := s.settings[userID]
	if !ok {
		return nil, store.ErrSettingsNotFound
	}
	cp := *rs
	return &cp, nil
}

func (s *DummyStore) SaveReportSettings(_ context.Context, rs *model.ReportSettings) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *rs
	s.settings[rs.UserID] = &cp
	return nil
}

// ─── Fetcher ───────────────────────────────────────────────────────────

// DummyFetcher implements the orchestrator's PageFetcher.
type DummyFetcher struct {
	Body     string
	Resolved string
	Err      error
}

func (d *DummyFetcher) Fetch(_ context.Context, target string) (string, string, error) {
	if d.Err != nil {
		return "", "", d.Err
	}
	resolved := d.Resolved
	if resolved == "" {
		resolved = target
	}
	return d.Body, resolved, nil
}

// ─── Evaluator ─────────────────────────────────────────────────────────

// DummyEvaluator implements the orchestrator's Evaluator.
type DummyEvaluator struct {
	Evaluation *model.Evaluation
	Err        error
}

func (d *DummyEvaluator) Evaluate(_ *goquery.Document) (*model.Evaluation, error) {
	if d.Err != nil {
		return nil, d.Err
	}
	if d.Evaluation != nil {
		return d.Evaluation, nil
	}
	return &model.Evaluation{}, nil
}

// ─── Capturer ──────────────────────────────────────────────────────────

// DummyCapturer implements the orchestrator's Capturer.
type DummyCapturer struct {
	Screenshot string
	Err        error

	mu    sync.Mutex
	calls int
}

func (d *DummyCapturer) Capture(_ context.Context, _ string) (string, error) {
	d.mu.Lock()
	d.calls++
	d.mu.Unlock()
	if d.Err != nil {
		return "", d.Err
	}
	return d.Screenshot, nil
}

func (d *DummyCapturer) Calls() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.calls
}

// ─── Reporter ──────────────────────────────────────────────────────────

// DummyReporter implements the orchestrator's Reporter. FailModes
// selects which report modes return an error.
type DummyReporter struct {
	Path      string
	FailModes map[model.ReportMode]bool

	mu     sync.Mutex
	Inputs []model.ReportInput
}

func (d *DummyReporter) Generate(input model.ReportInput, _ *model.ReportSettings) (string, error) {
	d.mu.Lock()
	d.Inputs = append(d.Inputs, input)
	d.mu.Unlock()

	if d.FailModes != nil && d.FailModes[input.Mode()] {
		return "", &errString{"dummy report failure"}
	}
	if d.Path != "" {
		return d.Path, nil
	}
	return "/tmp/dummy-report.pdf", nil
}

// Modes returns the report modes seen, in call order.
func (d *DummyReporter) Modes() []model.ReportMode {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]model.ReportMode, 0, len(d.Inputs))
	for _, in := range d.Inputs {
		out = append(out, in.Mode())
	}
	return out
}

// ─── helpers ───────────────────────────────────────────────────────────

type errString struct{ s string }

func (e *errString) Error() string { return e.s }
