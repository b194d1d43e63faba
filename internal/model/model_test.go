package model_test

import (
	"testing"

	"github.com/avelines/a11yscan/internal/model"
)

func TestScanStatus_Terminal(t *testing.T) {
	t.Parallel()

	if model.StatusPending.Terminal() {
		t.Error("pending must not be terminal")
	}
	if !model.StatusCompleted.Terminal() {
		t.Error("completed must be terminal")
	}
	if !model.StatusFailed.Terminal() {
		t.Error("failed must be terminal")
	}
}

func TestImpact_Normalize(t *testing.T) {
	t.Parallel()

	if got := model.Impact("").Normalize(); got != model.ImpactCritical {
		t.Errorf("empty impact normalized to %q, want critical", got)
	}
	if got := model.Impact("bogus").Normalize(); got != model.ImpactCritical {
		t.Errorf("unknown impact normalized to %q, want critical", got)
	}
	if got := model.ImpactMinor.Normalize(); got != model.ImpactMinor {
		t.Errorf("minor normalized to %q", got)
	}
}

func TestImpact_WeightOrdering(t *testing.T) {
	t.Parallel()

	prev := -1
	for _, impact := range model.ImpactOrder {
		w := impact.Weight()
		if w <= prev {
			t.Fatalf("ImpactOrder not strictly increasing in weight at %q", impact)
		}
		prev = w
	}
}

func TestFullReport_ModeSelection(t *testing.T) {
	t.Parallel()

	if got := model.FullReport(nil).Mode(); got != model.ReportModeBasic {
		t.Errorf("nil result: mode %d, want basic", got)
	}

	errored := &model.ScanResult{URL: "https://example.com", Error: "boom"}
	in := model.FullReport(errored)
	if in.Mode() != model.ReportModeError {
		t.Errorf("errored result: mode %d, want error", in.Mode())
	}
	if in.ErrorMessage() != "boom" || in.URL() != "https://example.com" {
		t.Errorf("errored input lost details: %q %q", in.ErrorMessage(), in.URL())
	}

	ok := &model.ScanResult{URL: "https://example.com"}
	if got := model.FullReport(ok).Mode(); got != model.ReportModeFull {
		t.Errorf("clean result: mode %d, want full", got)
	}
}

func TestMissingAndErroredReport(t *testing.T) {
	t.Parallel()

	basic := model.MissingReport("https://example.com")
	if basic.Mode() != model.ReportModeBasic || basic.URL() != "https://example.com" {
		t.Errorf("MissingReport = mode %d url %q", basic.Mode(), basic.URL())
	}

	errIn := model.ErroredReport("https://example.com", "dns failure")
	if errIn.Mode() != model.ReportModeError || errIn.ErrorMessage() != "dns failure" {
		t.Errorf("ErroredReport = mode %d msg %q", errIn.Mode(), errIn.ErrorMessage())
	}
}

func TestDefaultReportSettings(t *testing.T) {
	t.Parallel()

	rs := model.DefaultReportSettings("u1")
	if rs.UserID != "u1" {
		t.Errorf("UserID = %q", rs.UserID)
	}
	if rs.CompanyName == "" {
		t.Error("default settings need a company name")
	}
	if rs.Colors != model.DefaultPalette() {
		t.Errorf("default palette mismatch: %+v", rs.Colors)
	}
}
