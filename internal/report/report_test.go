package report_test

import (
	"os"
	"testing"
	"time"

	"github.com/avelines/a11yscan/internal/model"
	"github.com/avelines/a11yscan/internal/report"
	"github.com/avelines/a11yscan/internal/testutil"
)

func newGenerator(t *testing.T) *report.Generator {
	t.Helper()
	g, err := report.New(report.Config{OutputDir: t.TempDir()}, &testutil.DummyLogger{})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return g
}

func violations(n int, impact model.Impact) []model.Violation {
	out := make([]model.Violation, n)
	for i := range out {
		out[i] = model.Violation{
			RuleID:      "image-alt",
			Description: "Images must have alternate text",
			Impact:      impact,
			Nodes:       []model.NodeRef{{HTML: "<img src=\"/x.png\">", Selector: "img"}},
		}
	}
	return out
}

func fullResult() *model.ScanResult {
	return &model.ScanResult{
		URL:        "https://example.com",
		ScannedAt:  time.Now().UTC(),
		Violations: violations(3, model.ImpactCritical),
		Passes: []model.Pass{
			{RuleID: "html-has-lang", Description: "The html element must have a lang attribute", Category: "language"},
			{RuleID: "document-title", Description: "Documents must have a non-empty title", Category: "semantics"},
		},
		Incomplete: []model.IncompleteItem{
			{RuleID: "color-contrast", Description: "Text must have sufficient contrast", Reason: "needs manual verification"},
		},
	}
}

// ─── ComputeRating ─────────────────────────────────────────────────────

func TestComputeRating(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		vs   []model.Violation
		want report.ComplianceRating
	}{
		{name: "no violations", vs: nil, want: report.RatingHigh},
		{name: "one critical", vs: violations(1, model.ImpactCritical), want: report.RatingLow},
		{name: "one serious", vs: violations(1, model.ImpactSerious), want: report.RatingLow},
		{name: "one moderate", vs: violations(1, model.ImpactModerate), want: report.RatingHigh},
		{name: "three minor", vs: violations(3, model.ImpactMinor), want: report.RatingHigh},
		{name: "six minor", vs: violations(6, model.ImpactMinor), want: report.RatingMedium},
		{name: "six moderate", vs: violations(6, model.ImpactModerate), want: report.RatingMedium},
		{name: "twelve minor", vs: violations(12, model.ImpactMinor), want: report.RatingLow},
		{name: "unknown impact counts as critical", vs: violations(1, model.Impact("")), want: report.RatingLow},
	}

	for _, c := range cases {
		if got := report.ComputeRating(c.vs); got != c.want {
			t.Errorf("%s: ComputeRating = %q, want %q", c.name, got, c.want)
		}
	}
}

// ─── Generate ──────────────────────────────────────────────────────────

func TestGenerator_Generate_FullReport(t *testing.T) {
	t.Parallel()
	g := newGenerator(t)

	path, err := g.Generate(model.FullReport(fullResult()), model.DefaultReportSettings("u1"))
	if err != nil {
		t.Fatalf("Generate full: %v", err)
	}
	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("stat report: %v", err)
	}
	if info.Size() == 0 {
		t.Error("report file is empty")
	}
}

func TestGenerator_Generate_ErrorReport(t *testing.T) {
	t.Parallel()
	g := newGenerator(t)

	path, err := g.Generate(model.ErroredReport("https://example.com", "fetching failed after 3 attempts"), model.DefaultReportSettings("u1"))
	if err != nil {
		t.Fatalf("Generate error mode: %v", err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("stat report: %v", err)
	}
}

func TestGenerator_Generate_BasicReport(t *testing.T) {
	t.Parallel()
	g := newGenerator(t)

	path, err := g.Generate(model.MissingReport("https://example.com"), model.DefaultReportSettings("u1"))
	if err != nil {
		t.Fatalf("Generate basic mode: %v", err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("stat report: %v", err)
	}
}

func TestGenerator_Generate_ErrorResultDegradesToErrorMode(t *testing.T) {
	t.Parallel()
	g := newGenerator(t)

	res := &model.ScanResult{URL: "https://example.com", Error: "render failed", ScannedAt: time.Now().UTC()}
	input := model.FullReport(res)
	if input.Mode() != model.ReportModeError {
		t.Fatalf("FullReport on errored result: mode %d, want error mode", input.Mode())
	}
	if _, err := g.Generate(input, model.DefaultReportSettings("u1")); err != nil {
		t.Fatalf("Generate: %v", err)
	}
}

func TestGenerator_Generate_NilSettingsUsesDefaults(t *testing.T) {
	t.Parallel()
	g := newGenerator(t)

	if _, err := g.Generate(model.MissingReport("https://example.com"), nil); err != nil {
		t.Fatalf("Generate with nil settings: %v", err)
	}
}

func TestGenerator_Generate_BadScreenshotIsNotFatal(t *testing.T) {
	t.Parallel()
	g := newGenerator(t)

	res := fullResult()
	res.Screenshot = "not-valid-base64!!!"
	if _, err := g.Generate(model.FullReport(res), model.DefaultReportSettings("u1")); err != nil {
		t.Fatalf("a corrupt screenshot must not fail the report: %v", err)
	}

	res.Screenshot = "aGVsbG8gd29ybGQ=" // valid base64, not a PNG
	if _, err := g.Generate(model.FullReport(res), model.DefaultReportSettings("u1")); err != nil {
		t.Fatalf("a non-PNG screenshot must not fail the report: %v", err)
	}
}

func TestGenerator_Generate_ManyViolationsPaginate(t *testing.T) {
	t.Parallel()
	g := newGenerator(t)

	res := fullResult()
	res.Violations = violations(40, model.ImpactSerious)
	path, err := g.Generate(model.FullReport(res), model.DefaultReportSettings("u1"))
	if err != nil {
		t.Fatalf("Generate with 40 violations: %v", err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("stat report: %v", err)
	}
}

func TestGenerator_Generate_DistinctPaths(t *testing.T) {
	t.Parallel()
	g := newGenerator(t)

	first, err := g.Generate(model.MissingReport("https://example.com"), nil)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	second, err := g.Generate(model.MissingReport("https://example.com"), nil)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if first == second {
		t.Errorf("expected distinct output paths, both were %s", first)
	}
}

func TestGenerator_New_RequiresOutputDir(t *testing.T) {
	t.Parallel()
	if _, err := report.New(report.Config{}, &testutil.DummyLogger{}); err == nil {
		t.Fatal("expected error for missing output dir")
	}
}
