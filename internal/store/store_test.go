package store_test

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	_ "modernc.org/sqlite"

	"github.com/avelines/a11yscan/internal/model"
	"github.com/avelines/a11yscan/internal/store"
	"github.com/avelines/a11yscan/internal/testutil"
)

func openTestStore(t *testing.T) *store.Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	st, db, err := store.Open(path, &testutil.DummyLogger{})
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return st
}

func strPtr(s string) *string { return &s }

// ─── Scans ─────────────────────────────────────────────────────────────

func TestStore_CreateAndGetScan(t *testing.T) {
	t.Parallel()
	st := openTestStore(t)
	ctx := context.Background()

	scan, err := st.CreateScan(ctx, "u1", "https://example.com")
	if err != nil {
		t.Fatalf("CreateScan: %v", err)
	}
	if scan.Status != model.StatusPending {
		t.Errorf("new scan status = %q, want pending", scan.Status)
	}
	if scan.ReportPath != nil {
		t.Errorf("new scan should have no report path")
	}

	got, err := st.GetScan(ctx, scan.ID)
	if err != nil {
		t.Fatalf("GetScan: %v", err)
	}
	if got.ID != scan.ID || got.UserID != "u1" || got.URL != "https://example.com" {
		t.Errorf("GetScan returned wrong record: %+v", got)
	}
}

func TestStore_GetScan_NotFound(t *testing.T) {
	t.Parallel()
	st := openTestStore(t)

	_, err := st.GetScan(context.Background(), "nope")
	if !errors.Is(err, store.ErrScanNotFound) {
		t.Fatalf("expected ErrScanNotFound, got %v", err)
	}
}

func TestStore_FinalizeScan_Completed(t *testing.T) {
	t.Parallel()
	st := openTestStore(t)
	ctx := context.Background()

	scan, err := st.CreateScan(ctx, "u1", "https://example.com")
	if err != nil {
		t.Fatalf("CreateScan: %v", err)
	}

	if err := st.FinalizeScan(ctx, scan.ID, model.StatusCompleted, strPtr("/reports/r.pdf")); err != nil {
		t.Fatalf("FinalizeScan: %v", err)
	}

	got, err := st.GetScan(ctx, scan.ID)
	if err != nil {
		t.Fatalf("GetScan: %v", err)
	}
	if got.Status != model.StatusCompleted {
		t.Errorf("status = %q, want completed", got.Status)
	}
	if got.ReportPath == nil || *got.ReportPath != "/reports/r.pdf" {
		t.Errorf("report path not stored: %v", got.ReportPath)
	}
}

func TestStore_FinalizeScan_FailedClearsReportPath(t *testing.T) {
	t.Parallel()
	st := openTestStore(t)
	ctx := context.Background()

	scan, err := st.CreateScan(ctx, "u1", "https://example.com")
	if err != nil {
		t.Fatalf("CreateScan: %v", err)
	}

	// A path passed alongside failed is discarded.
	if err := st.FinalizeScan(ctx, scan.ID, model.StatusFailed, strPtr("/reports/r.pdf")); err != nil {
		t.Fatalf("FinalizeScan: %v", err)
	}

	got, err := st.GetScan(ctx, scan.ID)
	if err != nil {
		t.Fatalf("GetScan: %v", err)
	}
	if got.Status != model.StatusFailed {
		t.Errorf("status = %q, want failed", got.Status)
	}
	if got.ReportPath != nil {
		t.Errorf("failed scan must not carry a report path, got %q", *got.ReportPath)
	}
}

func TestStore_FinalizeScan_ExactlyOnce(t *testing.T) {
	t.Parallel()
	st := openTestStore(t)
	ctx := context.Background()

	scan, err := st.CreateScan(ctx, "u1", "https://example.com")
	if err != nil {
		t.Fatalf("CreateScan: %v", err)
	}
	if err := st.FinalizeScan(ctx, scan.ID, model.StatusCompleted, strPtr("/reports/r.pdf")); err != nil {
		t.Fatalf("first FinalizeScan: %v", err)
	}

	err = st.FinalizeScan(ctx, scan.ID, model.StatusFailed, nil)
	if !errors.Is(err, store.ErrScanFinalized) {
		t.Fatalf("second finalize: expected ErrScanFinalized, got %v", err)
	}

	// The first terminal state must survive.
	got, err := st.GetScan(ctx, scan.ID)
	if err != nil {
		t.Fatalf("GetScan: %v", err)
	}
	if got.Status != model.StatusCompleted {
		t.Errorf("status after double finalize = %q, want completed", got.Status)
	}
}

func TestStore_FinalizeScan_Validation(t *testing.T) {
	t.Parallel()
	st := openTestStore(t)
	ctx := context.Background()

	scan, err := st.CreateScan(ctx, "u1", "https://example.com")
	if err != nil {
		t.Fatalf("CreateScan: %v", err)
	}

	if err := st.FinalizeScan(ctx, scan.ID, model.StatusPending, nil); err == nil {
		t.Error("finalizing to pending should fail")
	}
	if err := st.FinalizeScan(ctx, scan.ID, model.StatusCompleted, nil); err == nil {
		t.Error("completed without a report path should fail")
	}
	if err := st.FinalizeScan(ctx, "missing", model.StatusFailed, nil); !errors.Is(err, store.ErrScanNotFound) {
		t.Errorf("finalizing a missing scan: expected ErrScanNotFound, got %v", err)
	}
}

func TestStore_ListScansByUser(t *testing.T) {
	t.Parallel()
	st := openTestStore(t)
	ctx := context.Background()

	var ids []string
	for _, url := range []string{"https://a.example", "https://b.example", "https://c.example"} {
		scan, err := st.CreateScan(ctx, "u1", url)
		if err != nil {
			t.Fatalf("CreateScan: %v", err)
		}
		ids = append(ids, scan.ID)
		time.Sleep(5 * time.Millisecond) // distinct created_at
	}
	if _, err := st.CreateScan(ctx, "u2", "https://other.example"); err != nil {
		t.Fatalf("CreateScan: %v", err)
	}

	scans, err := st.ListScansByUser(ctx, "u1")
	if err != nil {
		t.Fatalf("ListScansByUser: %v", err)
	}
	if len(scans) != 3 {
		t.Fatalf("expected 3 scans for u1, got %d", len(scans))
	}
	// Newest first.
	if scans[0].ID != ids[2] || scans[2].ID != ids[0] {
		t.Errorf("scans not in reverse creation order: %v", []string{scans[0].ID, scans[1].ID, scans[2].ID})
	}
}

// ─── Report settings ───────────────────────────────────────────────────

func TestStore_ReportSettingsRoundtrip(t *testing.T) {
	t.Parallel()
	st := openTestStore(t)
	ctx := context.Background()

	_, err := st.GetReportSettings(ctx, "u1")
	if !errors.Is(err, store.ErrSettingsNotFound) {
		t.Fatalf("expected ErrSettingsNotFound before save, got %v", err)
	}

	rs := &model.ReportSettings{
		UserID:      "u1",
		CompanyName: "Acme Accessibility",
		Website:     "https://acme.example",
		Colors:      model.DefaultPalette(),
	}
	if err := st.SaveReportSettings(ctx, rs); err != nil {
		t.Fatalf("SaveReportSettings: %v", err)
	}

	got, err := st.GetReportSettings(ctx, "u1")
	if err != nil {
		t.Fatalf("GetReportSettings: %v", err)
	}
	if got.CompanyName != "Acme Accessibility" || got.Website != "https://acme.example" {
		t.Errorf("settings roundtrip mismatch: %+v", got)
	}
	if got.Colors != model.DefaultPalette() {
		t.Errorf("palette roundtrip mismatch: %+v", got.Colors)
	}

	// Second save updates in place.
	rs.CompanyName = "Acme Two"
	if err := st.SaveReportSettings(ctx, rs); err != nil {
		t.Fatalf("SaveReportSettings update: %v", err)
	}
	got, err = st.GetReportSettings(ctx, "u1")
	if err != nil {
		t.Fatalf("GetReportSettings: %v", err)
	}
	if got.CompanyName != "Acme Two" {
		t.Errorf("update not applied, company name = %q", got.CompanyName)
	}
}

func TestStore_New_NilDB(t *testing.T) {
	t.Parallel()
	if _, err := store.New(nil, &testutil.DummyLogger{}); err == nil {
		t.Fatal("expected error for nil db")
	}
}
