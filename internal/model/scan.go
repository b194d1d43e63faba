package model

import "time"

// ScanStatus is the persisted lifecycle state of a scan. Transitions are
// one-directional: pending -> completed or pending -> failed. A scan is
// written exactly twice: once at submission and once at finalization.
type ScanStatus string

const (
	StatusPending   ScanStatus = "pending"
	StatusCompleted ScanStatus = "completed"
	StatusFailed    ScanStatus = "failed"
)

// Terminal reports whether the status is an end state.
func (s ScanStatus) Terminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// Scan is one accessibility audit request as stored in the database.
type Scan struct {
	// ID is the unique identifier for this scan.
	ID string `json:"id"`

	// UserID references the owning user.
	UserID string `json:"userId"`

	// URL is the submitted target. It may be a bare domain or one of the
	// reserved fixture tokens ("test", "test-sample", "test-accessible").
	URL string `json:"url"`

	// Status is the current lifecycle state.
	Status ScanStatus `json:"status"`

	// ReportPath is the storage path of the generated report. Non-nil
	// exactly when Status is StatusCompleted.
	ReportPath *string `json:"reportUrl"`

	// CreatedAt is when the scan was submitted.
	CreatedAt time.Time `json:"createdAt"`
}

// ScanRequest is the payload for submitting a URL for auditing.
type ScanRequest struct {
	// URL is the target to audit.
	URL string `json:"url"`
}
