package demoserver_test

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/avelines/a11yscan/internal/demoserver"
)

func get(t *testing.T, h http.Handler, path string, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest("GET", path, nil)
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestDemoServer_ServesPages(t *testing.T) {
	t.Parallel()
	h := demoserver.NewDemoServer(demoserver.DefaultConfig()).Handler()

	for _, path := range []string{"/broken", "/clean", "/forms"} {
		rec := get(t, h, path, nil)
		if rec.Code != http.StatusOK {
			t.Errorf("%s: expected 200, got %d", path, rec.Code)
		}
		if !strings.Contains(rec.Body.String(), "<html") {
			t.Errorf("%s: expected HTML body", path)
		}
	}
}

func TestDemoServer_Index(t *testing.T) {
	t.Parallel()
	h := demoserver.NewDemoServer(demoserver.DefaultConfig()).Handler()

	rec := get(t, h, "/", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "/broken") {
		t.Error("index should link to /broken")
	}
}

func TestDemoServer_FlakyFailsThenSucceeds(t *testing.T) {
	t.Parallel()
	h := demoserver.NewDemoServer(demoserver.DefaultConfig()).Handler()

	for i := 0; i < 2; i++ {
		rec := get(t, h, "/flaky", nil)
		if rec.Code != http.StatusServiceUnavailable {
			t.Fatalf("flaky request %d: expected 503, got %d", i+1, rec.Code)
		}
	}
	rec := get(t, h, "/flaky", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("third flaky request: expected 200, got %d", rec.Code)
	}
}

func TestDemoServer_PickyRejectsFirstBrowserAgent(t *testing.T) {
	t.Parallel()
	h := demoserver.NewDemoServer(demoserver.DefaultConfig()).Handler()

	browser := map[string]string{"User-Agent": "Mozilla/5.0 (X11; Linux x86_64)"}
	rec := get(t, h, "/picky", browser)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("first picky request: expected 403, got %d", rec.Code)
	}
	rec = get(t, h, "/picky", browser)
	if rec.Code != http.StatusOK {
		t.Fatalf("second picky request: expected 200, got %d", rec.Code)
	}
}

func TestDemoServer_Redirect(t *testing.T) {
	t.Parallel()
	h := demoserver.NewDemoServer(demoserver.DefaultConfig()).Handler()

	rec := get(t, h, "/redirect", nil)
	if rec.Code != http.StatusFound {
		t.Fatalf("expected 302, got %d", rec.Code)
	}
	if loc := rec.Header().Get("Location"); loc != "/clean" {
		t.Errorf("Location = %q, want /clean", loc)
	}
}
