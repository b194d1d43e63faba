package server

import (
	"bytes"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/avelines/a11yscan/internal/app"
	"github.com/avelines/a11yscan/internal/logging"
	"github.com/avelines/a11yscan/internal/model"
	"github.com/avelines/a11yscan/internal/store"
)

// Server is the HTTP API surface for a11yscan.
type Server struct {
	cfg          Config
	orchestrator *app.Orchestrator
	router       chi.Router
	sessions     SessionStore
	logger       logging.Logger
	storeDB      *sql.DB
	reportsDir   string
}

// NewServer creates a Server with its own store and Orchestrator.
func NewServer(cfg Config) (*Server, error) {
	if cfg.AppConfig == nil {
		cfg.AppConfig = app.DefaultConfig()
	}

	logger := cfg.Logger
	if logger == nil {
		logger = logging.NewStdoutLogger("Server")
	}

	sessions := cfg.Sessions
	if sessions == nil {
		sessions = DefaultSessions()
	}

	// Make sure storage root exists
	storageRoot, err := expandPath(cfg.AppConfig.StorageRoot)
	if err != nil {
		return nil, fmt.Errorf("expanding storage root path: %w", err)
	}
	cfg.AppConfig.StorageRoot = storageRoot
	err = os.MkdirAll(cfg.AppConfig.StorageRoot, 0755)
	if err != nil {
		logger.Warn("creating storage root directory", logging.Field{Key: "path", Value: cfg.AppConfig.StorageRoot}, logging.Field{Key: "error", Value: err.Error()})
	}

	st, db, err := store.Open(cfg.AppConfig.DatabasePath(), logger)
	if err != nil {
		return nil, fmt.Errorf("opening scan database: %w", err)
	}

	orch, err := app.NewOrchestrator(cfg.AppConfig, st, app.Components{}, logger)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("creating orchestrator: %w", err)
	}

	r := chi.NewRouter()
	s := &Server{
		cfg:          cfg,
		orchestrator: orch,
		router:       r,
		sessions:     sessions,
		logger:       logger,
		storeDB:      db,
		reportsDir:   cfg.AppConfig.ReportsDir(),
	}

	s.routes()
	return s, nil
}

// Orchestrator returns the underlying orchestrator for advanced use (tests, etc.).
func (s *Server) Orchestrator() *app.Orchestrator {
	return s.orchestrator
}

func (s *Server) routes() {
	r := s.router

	r.Use(s.corsMiddleware)

	// CORS preflight
	r.Options("/scans", s.optionsHandler("GET, POST"))
	r.Options("/scans/{scanID}", s.optionsHandler("GET"))
	r.Options("/report-settings", s.optionsHandler("GET, POST, PUT"))

	r.Get("/healthz", s.handleHealthz)

	r.Group(func(r chi.Router) {
		r.Use(s.requireSession)

		// Scans
		r.Post("/scans", s.handleSubmitScan)
		r.Get("/scans", s.handleListScans)
		r.Get("/scans/{scanID}", s.handleGetScan)

		// Report branding
		r.Get("/report-settings", s.handleGetReportSettings)
		r.Post("/report-settings", s.handleSaveReportSettings)
		r.Put("/report-settings", s.handleSaveReportSettings)

		// Generated documents
		r.Get("/reports/{filename}", s.handleGetReport)
	})
}

func (s *Server) corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		w.Header().Set("Access-Control-Max-Age", "86400")

		next.ServeHTTP(w, r)
	})
}

func (s *Server) optionsHandler(methods string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Methods", methods)
		w.WriteHeader(http.StatusNoContent)
	}
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	fields := []logging.Field{
		{Key: "method", Value: r.Method},
		{Key: "path", Value: r.URL.Path},
	}

	if q := r.URL.Query(); len(q) > 0 {
		fields = append(fields, logging.Field{Key: "query", Value: q})
	}

	if r.Body != nil && (r.Method == http.MethodPost || r.Method == http.MethodPut || r.Method == http.MethodPatch) {
		if bodyBytes, err := io.ReadAll(r.Body); err == nil {
			fields = append(fields, logging.Field{Key: "body", Value: string(bodyBytes)})
			r.Body = io.NopCloser(bytes.NewReader(bodyBytes))
		}
	}

	s.logger.Info("http_request", fields...)

	s.router.ServeHTTP(w, r)
}

// Close shuts down the orchestrator and underlying resources.
func (s *Server) Close() {
	if s.orchestrator != nil {
		s.orchestrator.Close()
	}
	if s.storeDB != nil {
		s.storeDB.Close()
	}
}

// HTTPServer creates an *http.Server ready to ListenAndServe.
func (s *Server) HTTPServer() *http.Server {
	return &http.Server{
		Addr:         s.cfg.ListenAddr,
		Handler:      s,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
	}
}

// --- JSON helpers ---

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v != nil {
		_ = json.NewEncoder(w).Encode(v)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// --- HTTP handlers ---

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// Scans

func (s *Server) handleSubmitScan(w http.ResponseWriter, r *http.Request) {
	userID := userIDFrom(r.Context())

	var body model.ScanRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	scan, err := s.orchestrator.SubmitScan(r.Context(), userID, body.URL)
	if err != nil {
		if errors.Is(err, app.ErrEmptyURL) || errors.Is(err, app.ErrURLTooLong) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		s.logger.Warn("submitting scan", logging.Field{Key: "error", Value: err.Error()})
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.logger.Info("submitted scan", logging.Field{Key: "scan_id", Value: scan.ID})
	writeJSON(w, http.StatusCreated, scanView(scan))
}

func (s *Server) handleListScans(w http.ResponseWriter, r *http.Request) {
	userID := userIDFrom(r.Context())

	scans, err := s.orchestrator.ListScans(r.Context(), userID)
	if err != nil {
		s.logger.Warn("listing scans", logging.Field{Key: "error", Value: err.Error()})
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	views := make([]*model.Scan, 0, len(scans))
	for i := range scans {
		views = append(views, scanView(&scans[i]))
	}
	s.logger.Info("listed scans", logging.Field{Key: "count", Value: len(views)})
	writeJSON(w, http.StatusOK, views)
}

func (s *Server) handleGetScan(w http.ResponseWriter, r *http.Request) {
	userID := userIDFrom(r.Context())
	scanID := chi.URLParam(r, "scanID")

	scan, err := s.orchestrator.GetScan(r.Context(), scanID)
	if errors.Is(err, store.ErrScanNotFound) {
		writeError(w, http.StatusNotFound, "scan not found")
		return
	}
	if err != nil {
		s.logger.Warn("getting scan", logging.Field{Key: "error", Value: err.Error()})
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	// Other users' scans are indistinguishable from missing ones.
	if scan.UserID != userID {
		writeError(w, http.StatusNotFound, "scan not found")
		return
	}
	writeJSON(w, http.StatusOK, scanView(scan))
}

// Report branding

func (s *Server) handleGetReportSettings(w http.ResponseWriter, r *http.Request) {
	userID := userIDFrom(r.Context())
	rs := s.orchestrator.ReportSettings(r.Context(), userID)
	writeJSON(w, http.StatusOK, rs)
}

func (s *Server) handleSaveReportSettings(w http.ResponseWriter, r *http.Request) {
	userID := userIDFrom(r.Context())

	var body model.ReportSettings
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	body.UserID = userID
	if body.Colors == (model.Palette{}) {
		body.Colors = model.DefaultPalette()
	}

	if err := s.orchestrator.SaveReportSettings(r.Context(), &body); err != nil {
		s.logger.Warn("saving report settings", logging.Field{Key: "error", Value: err.Error()})
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.logger.Info("saved report settings", logging.Field{Key: "user_id", Value: userID})
	writeJSON(w, http.StatusOK, &body)
}

// Generated documents

func (s *Server) handleGetReport(w http.ResponseWriter, r *http.Request) {
	filename := chi.URLParam(r, "filename")
	if filename == "" || filename != filepath.Base(filename) {
		writeError(w, http.StatusBadRequest, "invalid report filename")
		return
	}

	path := filepath.Join(s.reportsDir, filename)
	f, err := os.Open(path)
	if err != nil {
		writeError(w, http.StatusNotFound, "report not found")
		return
	}
	defer f.Close()

	w.Header().Set("Content-Type", "application/pdf")
	_, _ = io.Copy(w, f)
}

// scanView maps the stored report path to its public /reports URL.
func scanView(scan *model.Scan) *model.Scan {
	v := *scan
	if scan.ReportPath != nil {
		u := "/reports/" + filepath.Base(*scan.ReportPath)
		v.ReportPath = &u
	}
	return &v
}

func expandPath(p string) (string, error) {
	if len(p) > 0 && p[0] == '~' {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		return filepath.Join(home, p[1:]), nil
	}
	return p, nil
}
