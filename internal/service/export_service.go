package service

import (
	"fmt"
	"os"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/wellness-admin/internal/models"
	"github.com/noah-isme/wellness-admin/pkg/export"
	"github.com/noah-isme/wellness-admin/pkg/storage"
)

type fileStorage interface {
	Save(name string, data []byte) error
	Open(name string) (*os.File, error)
	Delete(name string) error
	CleanupOlderThan(ttl time.Duration, now time.Time) ([]string, error)
}

// ExportConfig controls export file lifetime and download URLs.
type ExportConfig struct {
	ResultTTL time.Duration
	URLPrefix string
	Exporters map[models.ReportFormat]export.Exporter
	Preferred []string
}

// ExportResult describes a stored export.
type ExportResult struct {
	ID           string
	RelativePath string
	Token        string
	URL          string
	Format       models.ReportFormat
	ContentType  string
	ExpiresAt    time.Time
}

// ExportService renders reports into files and signs download tokens for them.
type ExportService struct {
	storage   fileStorage
	signer    *storage.SignedURLSigner
	exporters map[models.ReportFormat]export.Exporter
	logger    *zap.Logger
	cfg       ExportConfig
	now       func() time.Time
}

// NewExportService constructs an ExportService.
func NewExportService(files fileStorage, signer *storage.SignedURLSigner, cfg ExportConfig, logger *zap.Logger) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.ResultTTL <= 0 {
		cfg.ResultTTL = 24 * time.Hour
	}
	if cfg.URLPrefix == "" {
		cfg.URLPrefix = "/reports/download"
	}
	exporters := cfg.Exporters
	if exporters == nil {
		exporters = map[models.ReportFormat]export.Exporter{
			models.ReportFormatCSV: export.NewCSVExporter(),
			models.ReportFormatPDF: export.NewPDFExporter(),
		}
	}
	return &ExportService{
		storage:   files,
		signer:    signer,
		exporters: exporters,
		logger:    logger,
		cfg:       cfg,
		now:       time.Now,
	}
}

// Generate renders report in format, stores it and signs a token bound to owner.
func (s *ExportService) Generate(report *models.Report, format models.ReportFormat, owner string) (*ExportResult, error) {
	if report == nil {
		return nil, fmt.Errorf("report nil")
	}
	exporter, ok := s.exporters[format]
	if !ok {
		return nil, fmt.Errorf("unsupported format %s", format)
	}

	table := export.TableFromRows(reportTitle(report), report.Rows, s.cfg.Preferred...)
	table.Subtitle = reportSubtitle(report)
	payload, err := exporter.Render(table)
	if err != nil {
		return nil, err
	}

	id := uuid.NewString()
	relPath := s.buildFilename(report, id, exporter.Extension())
	if err := s.storage.Save(relPath, payload); err != nil {
		return nil, err
	}

	token, expiresAt, err := s.signer.Generate(id, relPath, owner)
	if err != nil {
		_ = s.storage.Delete(relPath)
		return nil, err
	}

	return &ExportResult{
		ID:           id,
		RelativePath: relPath,
		Token:        token,
		URL:          strings.TrimRight(s.cfg.URLPrefix, "/") + "/" + token,
		Format:       format,
		ContentType:  exporter.ContentType(),
		ExpiresAt:    expiresAt,
	}, nil
}

// ParseToken validates download token metadata.
func (s *ExportService) ParseToken(token string, allowExpired bool) (storage.Grant, error) {
	return s.signer.Parse(token, allowExpired)
}

// Open returns a handle to the stored file.
func (s *ExportService) Open(relPath string) (*os.File, error) {
	return s.storage.Open(relPath)
}

// ContentType returns the MIME type for a stored export path.
func (s *ExportService) ContentType(relPath string) string {
	for _, exporter := range s.exporters {
		if strings.HasSuffix(relPath, "."+exporter.Extension()) {
			return exporter.ContentType()
		}
	}
	return "application/octet-stream"
}

// Cleanup removes files older than the configured result TTL.
func (s *ExportService) Cleanup() ([]string, error) {
	return s.storage.CleanupOlderThan(s.cfg.ResultTTL, s.now())
}

var unsafeFilename = regexp.MustCompile(`[^a-z0-9_-]+`)

func (s *ExportService) buildFilename(report *models.Report, id, ext string) string {
	kind := unsafeFilename.ReplaceAllString(strings.ToLower(report.Type), "_")
	if kind == "" {
		kind = "report"
	}
	timestamp := s.now().UTC().Format("20060102_150405")
	return fmt.Sprintf("%s/%s_%s_%s.%s", kind, kind, timestamp, id[:8], ext)
}

func reportTitle(report *models.Report) string {
	if report.Type == "" {
		return "Report"
	}
	return strings.ToUpper(report.Type[:1]) + report.Type[1:] + " report"
}

func reportSubtitle(report *models.Report) string {
	switch {
	case report.StartDate != "" && report.EndDate != "":
		return report.StartDate + " to " + report.EndDate
	case report.StartDate != "":
		return "from " + report.StartDate
	case report.EndDate != "":
		return "until " + report.EndDate
	}
	return ""
}
