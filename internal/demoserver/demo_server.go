package demoserver

import (
	"fmt"
	"html/template"
	"net/http"
	"sort"
	"strings"
	"sync"
	"time"
)

// DemoServer serves pages with known accessibility defects so a scanner
// can be exercised against predictable targets. It also exposes
// endpoints that misbehave on purpose to trigger fetch retry paths.
type DemoServer struct {
	cfg   Config
	pages map[string]PageDefinition

	mu          sync.Mutex
	flakyCalls  int
	strictCalls int
}

// NewDemoServer creates a new demo server instance.
func NewDemoServer(cfg Config) *DemoServer {
	pages := GetAllPages()
	pageMap := make(map[string]PageDefinition)
	for _, p := range pages {
		pageMap[p.Path] = p
	}

	return &DemoServer{
		cfg:   cfg,
		pages: pageMap,
	}
}

// Handler builds the demo server's routing table.
func (s *DemoServer) Handler() http.Handler {
	mux := http.NewServeMux()

	for path := range s.pages {
		p := path // capture for closure
		mux.HandleFunc(p, s.pageHandler(p))
	}

	mux.HandleFunc("/", s.indexHandler)

	// Misbehaving endpoints for exercising the fetcher
	mux.HandleFunc("/flaky", s.flakyHandler)
	mux.HandleFunc("/slow", s.slowHandler)
	mux.HandleFunc("/picky", s.pickyHandler)
	mux.HandleFunc("/redirect", s.redirectHandler)

	return mux
}

// Start starts the demo server.
func (s *DemoServer) Start() error {
	addr := fmt.Sprintf(":%d", s.cfg.Port)
	fmt.Printf("Demo server starting on http://localhost%s\n", addr)
	return http.ListenAndServe(addr, s.Handler())
}

// pageHandler returns a handler for a specific page path.
func (s *DemoServer) pageHandler(path string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		page, ok := s.pages[path]
		if !ok {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(page.HTML))
	}
}

// indexHandler lists the available demo pages.
func (s *DemoServer) indexHandler(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}

	var paths []string
	for p := range s.pages {
		paths = append(paths, p)
	}
	sort.Strings(paths)

	type entry struct {
		Path        string
		Description string
	}
	var entries []entry
	for _, p := range paths {
		entries = append(entries, entry{Path: p, Description: s.pages[p].Description})
	}

	tmpl := template.Must(template.New("index").Parse(indexHTML))
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_ = tmpl.Execute(w, entries)
}

// flakyHandler fails the first N requests with 503, then serves the
// broken page. Scanning it end-to-end proves the retry loop.
func (s *DemoServer) flakyHandler(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	s.flakyCalls++
	fail := s.flakyCalls <= s.cfg.FlakyFailures
	s.mu.Unlock()

	if fail {
		http.Error(w, "temporarily unavailable", http.StatusServiceUnavailable)
		return
	}
	s.pageHandler("/broken")(w, r)
}

// slowHandler delays three seconds before answering.
func (s *DemoServer) slowHandler(w http.ResponseWriter, r *http.Request) {
	time.Sleep(3 * time.Second)
	s.pageHandler("/clean")(w, r)
}

// pickyHandler rejects browser-looking user agents on the first hit,
// which pushes the fetcher down its user-agent ladder.
func (s *DemoServer) pickyHandler(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	s.strictCalls++
	first := s.strictCalls == 1
	s.mu.Unlock()

	if first && strings.Contains(r.UserAgent(), "Mozilla") {
		http.Error(w, "forbidden", http.StatusForbidden)
		return
	}
	s.pageHandler("/clean")(w, r)
}

// redirectHandler bounces once to /clean.
func (s *DemoServer) redirectHandler(w http.ResponseWriter, r *http.Request) {
	http.Redirect(w, r, "/clean", http.StatusFound)
}

const indexHTML = `<!DOCTYPE html>
<html lang="en">
<head>
    <meta charset="utf-8">
    <title>a11yscan Demo Targets</title>
    <style>
        body { font-family: system-ui, -apple-system, sans-serif; max-width: 800px; margin: 0 auto; padding: 20px; }
        h1 { border-bottom: 2px solid #2563eb; padding-bottom: 10px; }
        li { margin: 8px 0; }
        a { color: #2563eb; }
    </style>
</head>
<body>
    <h1>a11yscan Demo Targets</h1>
    <p>Point the scanner at any of these pages.</p>
    <ul>
        {{range .}}<li><a href="{{.Path}}">{{.Path}}</a>: {{.Description}}</li>
        {{end}}
        <li><a href="/flaky">/flaky</a>: fails twice, then serves the broken page</li>
        <li><a href="/slow">/slow</a>: three second delay before the clean page</li>
        <li><a href="/picky">/picky</a>: rejects the first browser user agent</li>
        <li><a href="/redirect">/redirect</a>: one redirect to the clean page</li>
    </ul>
</body>
</html>`
