package store

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite" // SQLite driver

	"github.com/avelines/a11yscan/internal/logging"
	"github.com/avelines/a11yscan/internal/model"
)

//go:embed schema.sql
var schemaFS embed.FS

var (
	ErrScanNotFound     = errors.New("scan not found")
	ErrScanFinalized    = errors.New("scan already finalized")
	ErrSettingsNotFound = errors.New("report settings not found")
)

// Store persists scan records and per-user report settings in SQLite.
// Scan rows are written exactly twice: creation in pending state, then
// one terminal update; FinalizeScan enforces that at the SQL level.
type Store struct {
	db     *sql.DB
	logger logging.Logger
}

// New returns a Store and runs migrations from the embedded schema.
func New(db *sql.DB, logger logging.Logger) (*Store, error) {
	if db == nil {
		return nil, fmt.Errorf("store: db is nil")
	}

	schemaSQL, err := schemaFS.ReadFile("schema.sql")
	if err != nil {
		return nil, fmt.Errorf("store: read schema.sql: %w", err)
	}
	if _, err := db.Exec(string(schemaSQL)); err != nil {
		return nil, fmt.Errorf("store: execute schema: %w", err)
	}

	return &Store{
		db:     db,
		logger: logger.With(logging.Field{Key: "component", Value: "store"}),
	}, nil
}

// Open is a convenience that opens the SQLite file at path and wraps it
// in a Store.
func Open(path string, logger logging.Logger) (*Store, *sql.DB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, nil, fmt.Errorf("store: open database %s: %w", path, err)
	}
	st, err := New(db, logger)
	if err != nil {
		db.Close()
		return nil, nil, err
	}
	return st, db, nil
}

// CreateScan inserts a new pending scan for userID and returns it.
func (s *Store) CreateScan(ctx context.Context, userID, url string) (*model.Scan, error) {
	scan := &model.Scan{
		ID:        uuid.New().String(),
		UserID:    userID,
		URL:       url,
		Status:    model.StatusPending,
		CreatedAt: time.Now().UTC(),
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO scans (id, user_id, url, status, report_path, created_at) VALUES (?, ?, ?, ?, NULL, ?)`,
		scan.ID, scan.UserID, scan.URL, string(scan.Status), scan.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("insert scan: %w", err)
	}

	s.logger.Info("scan created",
		logging.Field{Key: "scan_id", Value: scan.ID},
		logging.Field{Key: "url", Value: url})
	return scan, nil
}

// FinalizeScan applies the single terminal update for a scan. status
// must be a terminal state; completed scans carry a report path, failed
// ones carry none. A second finalization returns ErrScanFinalized.
func (s *Store) FinalizeScan(ctx context.Context, scanID string, status model.ScanStatus, reportPath *string) error {
	if !status.Terminal() {
		return fmt.Errorf("finalize scan %s: %q is not a terminal status", scanID, status)
	}
	if status == model.StatusCompleted && reportPath == nil {
		return fmt.Errorf("finalize scan %s: completed requires a report path", scanID)
	}
	if status == model.StatusFailed {
		reportPath = nil
	}

	res, err := s.db.ExecContext(ctx,
		`UPDATE scans SET status = ?, report_path = ? WHERE id = ? AND status = ?`,
		string(status), reportPath, scanID, string(model.StatusPending))
	if err != nil {
		return fmt.Errorf("finalize scan %s: %w", scanID, err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("finalize scan %s: rows affected: %w", scanID, err)
	}
	if affected == 0 {
		// Either the scan does not exist or it already left pending.
		if _, getErr := s.GetScan(ctx, scanID); getErr != nil {
			return getErr
		}
		return ErrScanFinalized
	}

	s.logger.Info("scan finalized",
		logging.Field{Key: "scan_id", Value: scanID},
		logging.Field{Key: "status", Value: string(status)})
	return nil
}

// GetScan returns one scan by id.
func (s *Store) GetScan(ctx context.Context, scanID string) (*model.Scan, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, user_id, url, status, report_path, created_at FROM scans WHERE id = ?`, scanID)
	scan, err := scanRow(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrScanNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get scan %s: %w", scanID, err)
	}
	return scan, nil
}

// ListScansByUser returns all scans owned by userID, newest first.
func (s *Store) ListScansByUser(ctx context.Context, userID string) ([]model.Scan, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, user_id, url, status, report_path, created_at FROM scans WHERE user_id = ? ORDER BY created_at DESC, id`, userID)
	if err != nil {
		return nil, fmt.Errorf("list scans: %w", err)
	}
	defer rows.Close()

	scans := []model.Scan{}
	for rows.Next() {
		scan, err := scanRow(rows)
		if err != nil {
			return nil, fmt.Errorf("list scans: %w", err)
		}
		scans = append(scans, *scan)
	}
	return scans, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRow(r rowScanner) (*model.Scan, error) {
	var (
		scan       model.Scan
		status     string
		reportPath sql.NullString
	)
	if err := r.Scan(&scan.ID, &scan.UserID, &scan.URL, &status, &reportPath, &scan.CreatedAt); err != nil {
		return nil, err
	}
	scan.Status = model.ScanStatus(status)
	if reportPath.Valid {
		scan.ReportPath = &reportPath.String
	}
	return &scan, nil
}

// GetReportSettings returns the branding settings saved for userID, or
// ErrSettingsNotFound when the user never saved any.
func (s *Store) GetReportSettings(ctx context.Context, userID string) (*model.ReportSettings, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT user_id, company_name, logo_path, contact_email, contact_phone, website,
		       color_primary, color_secondary, color_accent,
		       color_text_primary, color_text_secondary, color_background
		FROM report_settings WHERE user_id = ?`, userID)

	var rs model.ReportSettings
	err := row.Scan(&rs.UserID, &rs.CompanyName, &rs.LogoPath, &rs.ContactEmail, &rs.ContactPhone, &rs.Website,
		&rs.Colors.Primary, &rs.Colors.Secondary, &rs.Colors.Accent,
		&rs.Colors.TextPrimary, &rs.Colors.TextSecondary, &rs.Colors.Background)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrSettingsNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get report settings: %w", err)
	}
	return &rs, nil
}

// SaveReportSettings inserts the branding row for a user on first save
// and updates it in place afterwards.
func (s *Store) SaveReportSettings(ctx context.Context, rs *model.ReportSettings) error {
	if rs == nil || rs.UserID == "" {
		return fmt.Errorf("save report settings: user id is required")
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO report_settings (
			user_id, company_name, logo_path, contact_email, contact_phone, website,
			color_primary, color_secondary, color_accent,
			color_text_primary, color_text_secondary, color_background, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(user_id) DO UPDATE SET
			company_name = excluded.company_name,
			logo_path = excluded.logo_path,
			contact_email = excluded.contact_email,
			contact_phone = excluded.contact_phone,
			website = excluded.website,
			color_primary = excluded.color_primary,
			color_secondary = excluded.color_secondary,
			color_accent = excluded.color_accent,
			color_text_primary = excluded.color_text_primary,
			color_text_secondary = excluded.color_text_secondary,
			color_background = excluded.color_background,
			updated_at = excluded.updated_at`,
		rs.UserID, rs.CompanyName, rs.LogoPath, rs.ContactEmail, rs.ContactPhone, rs.Website,
		rs.Colors.Primary, rs.Colors.Secondary, rs.Colors.Accent,
		rs.Colors.TextPrimary, rs.Colors.TextSecondary, rs.Colors.Background,
		time.Now().UTC())
	if err != nil {
		return fmt.Errorf("save report settings: %w", err)
	}

	s.logger.Info("report settings saved", logging.Field{Key: "user_id", Value: rs.UserID})
	return nil
}
