package model

// ReportMode selects one of the mutually exclusive report render paths.
type ReportMode int

const (
	// ReportModeFull renders the complete document from a ScanResult.
	ReportModeFull ReportMode = iota

	// ReportModeError renders a short cover-plus-explanation document for
	// a result that carries a pipeline error.
	ReportModeError

	// ReportModeBasic renders the minimal fallback document used when no
	// result is available at all.
	ReportModeBasic
)

// ReportInput is a tagged union over the three report render paths. The
// renderer dispatches on Mode exhaustively instead of null-checking its
// way through a loose result object.
type ReportInput struct {
	mode   ReportMode
	result *ScanResult
	url    string
	errMsg string
}

// FullReport wraps a normal scan result. If the result carries an error
// message the input degrades to the error mode, so callers can hand over
// whatever the pipeline produced.
func FullReport(res *ScanResult) ReportInput {
	if res == nil {
		return ReportInput{mode: ReportModeBasic}
	}
	if res.Error != "" {
		return ReportInput{mode: ReportModeError, result: res, url: res.URL, errMsg: res.Error}
	}
	return ReportInput{mode: ReportModeFull, result: res, url: res.URL}
}

// ErroredReport builds an error-mode input from a failure message.
func ErroredReport(url, msg string) ReportInput {
	return ReportInput{mode: ReportModeError, url: url, errMsg: msg}
}

// MissingReport builds the basic-mode input used when the pipeline never
// produced a result, or as the reduced-fidelity retry after a report
// failure.
func MissingReport(url string) ReportInput {
	return ReportInput{mode: ReportModeBasic, url: url}
}

// Mode returns the selected render path.
func (ri ReportInput) Mode() ReportMode { return ri.mode }

// Result returns the wrapped scan result; nil outside full mode.
func (ri ReportInput) Result() *ScanResult { return ri.result }

// URL returns the target the input describes, possibly empty.
func (ri ReportInput) URL() string { return ri.url }

// ErrorMessage returns the failure message for error mode.
func (ri ReportInput) ErrorMessage() string { return ri.errMsg }

// Palette is the set of colors used to style a report.
type Palette struct {
	Primary       string `json:"primary"`
	Secondary     string `json:"secondary"`
	Accent        string `json:"accent"`
	TextPrimary   string `json:"textPrimary"`
	TextSecondary string `json:"textSecondary"`
	Background    string `json:"background"`
}

// DefaultPalette returns the colors used when a user has not saved
// report settings.
func DefaultPalette() Palette {
	return Palette{
		Primary:       "#2563eb",
		Secondary:     "#6b7280",
		Accent:        "#0ea5e9",
		TextPrimary:   "#111827",
		TextSecondary: "#4b5563",
		Background:    "#ffffff",
	}
}

// ReportSettings is the per-user branding configuration consumed by the
// report renderer. One row per user; created on first save, updated in
// place afterwards.
type ReportSettings struct {
	UserID       string  `json:"userId"`
	CompanyName  string  `json:"companyName"`
	LogoPath     string  `json:"logoPath,omitempty"`
	ContactEmail string  `json:"contactEmail,omitempty"`
	ContactPhone string  `json:"contactPhone,omitempty"`
	Website      string  `json:"website,omitempty"`
	Colors       Palette `json:"colors"`
}

// DefaultReportSettings returns the settings applied when a user has
// never saved any.
func DefaultReportSettings(userID string) *ReportSettings {
	return &ReportSettings{
		UserID:      userID,
		CompanyName: "Accessibility Report",
		Colors:      DefaultPalette(),
	}
}
