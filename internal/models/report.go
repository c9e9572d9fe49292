package models

import "time"

// ReportFormat enumerates export formats.
type ReportFormat string

const (
	ReportFormatCSV ReportFormat = "csv"
	ReportFormatPDF ReportFormat = "pdf"
)

// ReportQuery selects a report and its date range.
type ReportQuery struct {
	Type      string `form:"type" json:"type" validate:"required,oneof=revenue bookings users experts subscriptions"`
	StartDate string `form:"startDate" json:"startDate" validate:"omitempty,datetime=2006-01-02"`
	EndDate   string `form:"endDate" json:"endDate" validate:"omitempty,datetime=2006-01-02"`
}

// Report is the payload of GET /api/admin/reports.
type Report struct {
	Type      string                   `json:"type"`
	StartDate string                   `json:"startDate,omitempty"`
	EndDate   string                   `json:"endDate,omitempty"`
	Summary   map[string]float64       `json:"summary,omitempty"`
	Rows      []map[string]interface{} `json:"rows"`
}

// ReportExport describes a rendered export ready for download.
type ReportExport struct {
	Format    ReportFormat `json:"format"`
	FileName  string       `json:"fileName"`
	Token     string       `json:"token"`
	URL       string       `json:"url"`
	ExpiresAt time.Time    `json:"expiresAt"`
}

// ReportExportRequest asks for a rendered export of a report.
type ReportExportRequest struct {
	ReportQuery
	Format ReportFormat `json:"format" validate:"required,oneof=csv pdf"`
}
