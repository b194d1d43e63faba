package webclient_test

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/avelines/a11yscan/internal/testutil"
	"github.com/avelines/a11yscan/internal/webclient"
)

func newClient(t *testing.T, cfg webclient.Config) *webclient.NetHTTPClient {
	t.Helper()
	wc, err := webclient.NewNetHTTPClient(cfg, &testutil.DummyLogger{}, nil)
	if err != nil {
		t.Fatalf("NewNetHTTPClient: %v", err)
	}
	t.Cleanup(func() { _ = wc.Close() })
	return wc
}

func TestNetHTTPClient_Get(t *testing.T) {
	t.Parallel()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "hello")
	}))
	defer srv.Close()

	wc := newClient(t, webclient.DefaultConfig())
	resp, err := wc.Get(context.Background(), srv.URL)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if resp.StatusCode != 200 {
		t.Errorf("status = %d", resp.StatusCode)
	}
	if string(resp.Body) != "hello" {
		t.Errorf("body = %q", resp.Body)
	}
}

func TestNetHTTPClient_SendsHeaders(t *testing.T) {
	t.Parallel()
	var gotUA string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUA = r.UserAgent()
	}))
	defer srv.Close()

	wc := newClient(t, webclient.DefaultConfig())
	_, err := wc.Do(context.Background(), &webclient.Request{
		Method:  http.MethodGet,
		URL:     srv.URL,
		Headers: http.Header{"User-Agent": []string{"a11yscan-test"}},
	})
	if err != nil {
		t.Fatalf("Do: %v", err)
	}
	if gotUA != "a11yscan-test" {
		t.Errorf("server saw user agent %q", gotUA)
	}
}

func TestNetHTTPClient_RedirectCap(t *testing.T) {
	t.Parallel()
	var srv *httptest.Server
	srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Redirects forever.
		http.Redirect(w, r, srv.URL+r.URL.Path+"x", http.StatusFound)
	}))
	defer srv.Close()

	wc := newClient(t, webclient.Config{MaxRedirects: 3})
	if _, err := wc.Get(context.Background(), srv.URL); err == nil {
		t.Fatal("expected error after exceeding redirect cap")
	}
}

func TestNetHTTPClient_FollowsRedirectsUnderCap(t *testing.T) {
	t.Parallel()
	mux := http.NewServeMux()
	mux.HandleFunc("/start", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/end", http.StatusMovedPermanently)
	})
	mux.HandleFunc("/end", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "made it")
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	wc := newClient(t, webclient.DefaultConfig())
	resp, err := wc.Get(context.Background(), srv.URL+"/start")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if string(resp.Body) != "made it" {
		t.Errorf("body = %q, want final page", resp.Body)
	}
}

func TestNetHTTPClient_NilRequest(t *testing.T) {
	t.Parallel()
	wc := newClient(t, webclient.DefaultConfig())
	if _, err := wc.Do(context.Background(), nil); err == nil {
		t.Fatal("expected error for nil request")
	}
}

func TestNetHTTPClient_ContextCancel(t *testing.T) {
	t.Parallel()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	defer srv.Close()

	wc := newClient(t, webclient.DefaultConfig())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := wc.Get(ctx, srv.URL); err == nil {
		t.Fatal("expected error for cancelled context")
	}
}
