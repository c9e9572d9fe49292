package service

import (
	"context"
	"errors"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/wellness-admin/internal/listing"
	"github.com/noah-isme/wellness-admin/internal/models"
	"github.com/noah-isme/wellness-admin/pkg/apiclient"
	appErrors "github.com/noah-isme/wellness-admin/pkg/errors"
	"github.com/noah-isme/wellness-admin/pkg/storage"
)

const reportsPath = "/api/admin/reports"

// ReportService fetches report data and manages its exports.
type ReportService struct {
	api       listing.Requester
	exporter  *ExportService
	audit     *AuditService
	validator *validator.Validate
	logger    *zap.Logger
	cfg       ReportServiceConfig
}

// ReportServiceConfig governs export cleanup.
type ReportServiceConfig struct {
	CleanupInterval time.Duration
}

// ReportDownload aggregates resolved download data.
type ReportDownload struct {
	File        *os.File
	Filename    string
	ContentType string
	ExpiresAt   time.Time
}

// NewReportService constructs a ReportService.
func NewReportService(api listing.Requester, exporter *ExportService, audit *AuditService, validate *validator.Validate, logger *zap.Logger, cfg ReportServiceConfig) *ReportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = NewValidator()
	}
	return &ReportService{api: api, exporter: exporter, audit: audit, validator: validate, logger: logger, cfg: cfg}
}

// Fetch loads one report for the requested type and date range.
func (s *ReportService) Fetch(ctx context.Context, query models.ReportQuery) (*models.Report, error) {
	if err := s.validateQuery(query); err != nil {
		return nil, err
	}

	q := url.Values{}
	q.Set("type", query.Type)
	if query.StartDate != "" {
		q.Set("startDate", query.StartDate)
	}
	if query.EndDate != "" {
		q.Set("endDate", query.EndDate)
	}

	var env apiclient.Envelope
	if err := s.api.Get(ctx, reportsPath+"?"+q.Encode(), &env); err != nil {
		return nil, TranslateError(err)
	}
	var report models.Report
	if err := env.Unwrap(&report); err != nil {
		var unsuccessful *apiclient.UnsuccessfulError
		if !errors.As(err, &unsuccessful) {
			err = listing.ErrUnexpectedShape
		}
		return nil, TranslateError(err)
	}
	if report.Type == "" {
		report.Type = query.Type
	}
	if report.StartDate == "" {
		report.StartDate = query.StartDate
	}
	if report.EndDate == "" {
		report.EndDate = query.EndDate
	}
	if report.Rows == nil {
		report.Rows = []map[string]interface{}{}
	}
	return &report, nil
}

// Export fetches the report and renders it to a downloadable file owned by owner.
func (s *ReportService) Export(ctx context.Context, req models.ReportExportRequest, owner string) (*models.ReportExport, error) {
	req.Format = models.ReportFormat(strings.ToLower(string(req.Format)))
	if err := s.validator.Struct(req); err != nil {
		return nil, TranslateError(err)
	}
	report, err := s.Fetch(ctx, req.ReportQuery)
	if err != nil {
		return nil, err
	}

	result, err := s.exporter.Generate(report, req.Format, owner)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render report export")
	}

	s.audit.Record(ctx, "export", "reports", result.ID, map[string]interface{}{"type": report.Type, "format": string(req.Format)})
	return &models.ReportExport{
		Format:    result.Format,
		FileName:  filepath.Base(result.RelativePath),
		Token:     result.Token,
		URL:       result.URL,
		ExpiresAt: result.ExpiresAt,
	}, nil
}

// ResolveDownload validates token for owner and opens the stored export file.
func (s *ReportService) ResolveDownload(token, owner string) (*ReportDownload, error) {
	grant, err := s.exporter.ParseToken(token, false)
	if err != nil {
		if errors.Is(err, storage.ErrTokenExpired) {
			return nil, appErrors.Clone(appErrors.ErrForbidden, "download link expired")
		}
		return nil, appErrors.Clone(appErrors.ErrForbidden, "invalid download token")
	}
	if grant.Owner != "" && grant.Owner != owner {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "download token belongs to another operator")
	}
	file, err := s.exporter.Open(grant.Path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "export no longer available")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to open export file")
	}
	return &ReportDownload{
		File:        file,
		Filename:    filepath.Base(grant.Path),
		ContentType: s.exporter.ContentType(grant.Path),
		ExpiresAt:   grant.ExpiresAt,
	}, nil
}

// StartCleanup boots a goroutine that purges expired exports periodically.
func (s *ReportService) StartCleanup(ctx context.Context) {
	if s.cfg.CleanupInterval <= 0 {
		return
	}
	ticker := time.NewTicker(s.cfg.CleanupInterval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				s.cleanupExpired()
			}
		}
	}()
}

func (s *ReportService) cleanupExpired() {
	removed, err := s.exporter.Cleanup()
	if err != nil {
		s.logger.Sugar().Warnw("export cleanup failed", "error", err)
		return
	}
	if len(removed) > 0 {
		s.logger.Sugar().Infow("expired exports removed", "count", len(removed))
	}
}

func (s *ReportService) validateQuery(query models.ReportQuery) error {
	if err := s.validator.Struct(query); err != nil {
		return TranslateError(err)
	}
	if query.StartDate == "" || query.EndDate == "" {
		return nil
	}
	start, _ := time.Parse("2006-01-02", query.StartDate)
	end, _ := time.Parse("2006-01-02", query.EndDate)
	if end.Before(start) {
		return TranslateError(&listing.FieldError{Field: "endDate", Message: "endDate must not be before startDate"})
	}
	return nil
}
