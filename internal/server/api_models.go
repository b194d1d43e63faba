package server

// SubmitScanRequest is the payload for starting a scan.
type SubmitScanRequest struct {
	URL string `json:"url" example:"https://example.com"`
}

// ScanResponse mirrors a stored scan record.
type ScanResponse struct {
	ID        string  `json:"id" example:"2f6c2e0a-7f3b-4f1d-9f0e-8a1b2c3d4e5f"`
	UserID    string  `json:"userId" example:"dev-user"`
	URL       string  `json:"url" example:"https://example.com"`
	Status    string  `json:"status" example:"pending"`
	ReportURL *string `json:"reportUrl" example:"/reports/report-1726000000-ab12cd34.pdf"`
	CreatedAt string  `json:"createdAt" example:"2026-08-28T12:00:00Z"`
}

// ReportSettingsRequest carries report branding for a user.
type ReportSettingsRequest struct {
	CompanyName string `json:"companyName" example:"Acme Accessibility"`
	Website     string `json:"website" example:"https://acme.example"`
}

// ErrorResponse is a uniform error payload returned by the API.
type ErrorResponse struct {
	Error string `json:"error" example:"not found"`
}
