package server_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/avelines/a11yscan/internal/app"
	"github.com/avelines/a11yscan/internal/server"
	"github.com/avelines/a11yscan/internal/testutil"
)

func newTestServer(t *testing.T) *server.Server {
	t.Helper()

	appCfg := app.DefaultConfig()
	appCfg.StorageRoot = t.TempDir()
	appCfg.CaptureScreenshots = false

	s, err := server.NewServer(server.Config{
		ListenAddr: ":0",
		AppConfig:  appCfg,
		Sessions: server.StaticSessions{
			"token-one": "user-one",
			"token-two": "user-two",
		},
		Logger: &testutil.DummyLogger{},
	})
	if err != nil {
		t.Fatalf("NewServer: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func doJSON(t *testing.T, s http.Handler, method, path, token, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, req)
	return rec
}

func decodeJSON(t *testing.T, rec *httptest.ResponseRecorder, v any) {
	t.Helper()
	if err := json.NewDecoder(rec.Body).Decode(v); err != nil {
		t.Fatalf("decode JSON response: %v (body: %s)", err, rec.Body.String())
	}
}

// ─── Health and CORS ───────────────────────────────────────────────────

func TestServer_Healthz_NoAuth(t *testing.T) {
	t.Parallel()
	s := newTestServer(t)

	rec := doJSON(t, s, "GET", "/healthz", "", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}

func TestServer_CORS_HeaderPresent(t *testing.T) {
	t.Parallel()
	s := newTestServer(t)

	rec := doJSON(t, s, "GET", "/scans", "token-one", "")
	if origin := rec.Header().Get("Access-Control-Allow-Origin"); origin != "*" {
		t.Errorf("expected CORS origin *, got %q", origin)
	}
}

// ─── Auth ──────────────────────────────────────────────────────────────

func TestServer_Unauthenticated(t *testing.T) {
	t.Parallel()
	s := newTestServer(t)

	rec := doJSON(t, s, "GET", "/scans", "", "")
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("missing token: expected 401, got %d", rec.Code)
	}

	rec = doJSON(t, s, "GET", "/scans", "bogus", "")
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("invalid token: expected 401, got %d", rec.Code)
	}
}

func TestServer_SessionCookie(t *testing.T) {
	t.Parallel()
	s := newTestServer(t)

	req := httptest.NewRequest("GET", "/scans", nil)
	req.AddCookie(&http.Cookie{Name: "session", Value: "token-one"})
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Errorf("cookie session: expected 200, got %d", rec.Code)
	}
}

// ─── Scans ─────────────────────────────────────────────────────────────

func TestServer_SubmitScan(t *testing.T) {
	t.Parallel()
	s := newTestServer(t)

	rec := doJSON(t, s, "POST", "/scans", "token-one", `{"url":"test-sample"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}

	var scan map[string]any
	decodeJSON(t, rec, &scan)
	if scan["status"] != "pending" {
		t.Errorf("submit response status = %v, want pending", scan["status"])
	}
	if scan["url"] != "test-sample" {
		t.Errorf("submit response url = %v", scan["url"])
	}
	s.Orchestrator().Wait()
}

func TestServer_SubmitScan_InvalidJSON(t *testing.T) {
	t.Parallel()
	s := newTestServer(t)

	rec := doJSON(t, s, "POST", "/scans", "token-one", `{invalid}`)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", rec.Code)
	}
}

func TestServer_SubmitScan_EmptyURL(t *testing.T) {
	t.Parallel()
	s := newTestServer(t)

	rec := doJSON(t, s, "POST", "/scans", "token-one", `{"url":""}`)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", rec.Code)
	}
}

func TestServer_ScanLifecycle(t *testing.T) {
	t.Parallel()
	s := newTestServer(t)

	rec := doJSON(t, s, "POST", "/scans", "token-one", `{"url":"test-sample"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	var submitted map[string]any
	decodeJSON(t, rec, &submitted)
	id, _ := submitted["id"].(string)
	if id == "" {
		t.Fatal("submit response has no id")
	}

	s.Orchestrator().Wait()

	rec = doJSON(t, s, "GET", "/scans/"+id, "token-one", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var scan map[string]any
	decodeJSON(t, rec, &scan)
	if scan["status"] != "completed" {
		t.Fatalf("status = %v, want completed", scan["status"])
	}
	reportURL, _ := scan["reportUrl"].(string)
	if !strings.HasPrefix(reportURL, "/reports/") {
		t.Fatalf("reportUrl = %q, want /reports/ prefix", reportURL)
	}

	// The generated PDF is downloadable.
	rec = doJSON(t, s, "GET", reportURL, "token-one", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("download report: expected 200, got %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/pdf" {
		t.Errorf("report content type = %q", ct)
	}
}

func TestServer_GetScan_NotFound(t *testing.T) {
	t.Parallel()
	s := newTestServer(t)

	rec := doJSON(t, s, "GET", "/scans/no-such-id", "token-one", "")
	if rec.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", rec.Code)
	}
}

func TestServer_GetScan_OtherUserHidden(t *testing.T) {
	t.Parallel()
	s := newTestServer(t)

	rec := doJSON(t, s, "POST", "/scans", "token-one", `{"url":"test-sample"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", rec.Code)
	}
	var submitted map[string]any
	decodeJSON(t, rec, &submitted)
	id, _ := submitted["id"].(string)
	s.Orchestrator().Wait()

	rec = doJSON(t, s, "GET", "/scans/"+id, "token-two", "")
	if rec.Code != http.StatusNotFound {
		t.Errorf("other user's scan: expected 404, got %d", rec.Code)
	}
}

func TestServer_ListScans_ScopedToUser(t *testing.T) {
	t.Parallel()
	s := newTestServer(t)

	for i := 0; i < 2; i++ {
		rec := doJSON(t, s, "POST", "/scans", "token-one", `{"url":"test-sample"}`)
		if rec.Code != http.StatusCreated {
			t.Fatalf("expected 201, got %d", rec.Code)
		}
	}
	s.Orchestrator().Wait()

	rec := doJSON(t, s, "GET", "/scans", "token-one", "")
	var mine []map[string]any
	decodeJSON(t, rec, &mine)
	if len(mine) != 2 {
		t.Errorf("user-one should see 2 scans, got %d", len(mine))
	}

	rec = doJSON(t, s, "GET", "/scans", "token-two", "")
	var theirs []map[string]any
	decodeJSON(t, rec, &theirs)
	if len(theirs) != 0 {
		t.Errorf("user-two should see 0 scans, got %d", len(theirs))
	}
}

// ─── Report settings ───────────────────────────────────────────────────

func TestServer_ReportSettings_DefaultsThenSave(t *testing.T) {
	t.Parallel()
	s := newTestServer(t)

	rec := doJSON(t, s, "GET", "/report-settings", "token-one", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var rs map[string]any
	decodeJSON(t, rec, &rs)
	if rs["companyName"] != "Accessibility Report" {
		t.Errorf("default company name = %v", rs["companyName"])
	}

	rec = doJSON(t, s, "PUT", "/report-settings", "token-one", `{"companyName":"Acme","website":"https://acme.example"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("save settings: expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	rec = doJSON(t, s, "GET", "/report-settings", "token-one", "")
	decodeJSON(t, rec, &rs)
	if rs["companyName"] != "Acme" {
		t.Errorf("saved company name = %v, want Acme", rs["companyName"])
	}
}

// ─── Reports ───────────────────────────────────────────────────────────

func TestServer_GetReport_NotFound(t *testing.T) {
	t.Parallel()
	s := newTestServer(t)

	rec := doJSON(t, s, "GET", "/reports/nope.pdf", "token-one", "")
	if rec.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", rec.Code)
	}
}
