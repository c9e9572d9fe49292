package service

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/wellness-admin/internal/models"
	appErrors "github.com/noah-isme/wellness-admin/pkg/errors"
	"github.com/noah-isme/wellness-admin/pkg/storage"
)

func revenueReport(w http.ResponseWriter, r *http.Request) {
	respond(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"data": map[string]interface{}{
			"summary": map[string]float64{"total": 300},
			"rows": []map[string]interface{}{
				{"date": "2024-05-01", "amount": 100, "currency": "USD"},
				{"date": "2024-05-02", "amount": 200, "currency": "USD"},
			},
		},
	})
}

func newReports(t *testing.T, routes map[string]http.HandlerFunc) (*fakeAdminAPI, *ReportService, *ExportService) {
	t.Helper()
	api, client := newFakeAdminAPI(t, routes)
	files, err := storage.NewLocalStorage(t.TempDir())
	require.NoError(t, err)
	exporter := NewExportService(files, storage.NewSignedURLSigner("test-secret", time.Hour), ExportConfig{Preferred: []string{"date"}}, zap.NewNop())
	return api, NewReportService(client, exporter, nil, nil, zap.NewNop(), ReportServiceConfig{}), exporter
}

func TestReportFetchForwardsQuery(t *testing.T) {
	api, svc, _ := newReports(t, map[string]http.HandlerFunc{"GET /api/admin/reports": revenueReport})

	report, err := svc.Fetch(context.Background(), models.ReportQuery{Type: "revenue", StartDate: "2024-05-01", EndDate: "2024-05-31"})
	require.NoError(t, err)
	assert.Equal(t, "revenue", report.Type)
	assert.Equal(t, "2024-05-01", report.StartDate)
	assert.Len(t, report.Rows, 2)
	assert.Equal(t, 300.0, report.Summary["total"])

	query, err := url.ParseQuery(api.recorded()[0].Query)
	require.NoError(t, err)
	assert.Equal(t, "revenue", query.Get("type"))
	assert.Equal(t, "2024-05-31", query.Get("endDate"))
}

func TestReportFetchValidatesRange(t *testing.T) {
	cases := []struct {
		name  string
		query models.ReportQuery
		field string
	}{
		{name: "unknown type", query: models.ReportQuery{Type: "weather"}, field: "type"},
		{name: "bad date", query: models.ReportQuery{Type: "revenue", StartDate: "05/01/2024"}, field: "startDate"},
		{name: "end before start", query: models.ReportQuery{Type: "revenue", StartDate: "2024-05-31", EndDate: "2024-05-01"}, field: "endDate"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			api, svc, _ := newReports(t, map[string]http.HandlerFunc{"GET /api/admin/reports": revenueReport})

			_, err := svc.Fetch(context.Background(), tc.query)
			require.Error(t, err)

			var appErr *appErrors.Error
			require.True(t, errors.As(err, &appErr))
			assert.Contains(t, appErr.Fields, tc.field)
			assert.Empty(t, api.recorded())
		})
	}
}

func TestReportExportAndDownload(t *testing.T) {
	_, svc, _ := newReports(t, map[string]http.HandlerFunc{"GET /api/admin/reports": revenueReport})

	req := models.ReportExportRequest{ReportQuery: models.ReportQuery{Type: "revenue"}, Format: "CSV"}
	exported, err := svc.Export(context.Background(), req, "a1")
	require.NoError(t, err)
	assert.Equal(t, models.ReportFormatCSV, exported.Format)
	assert.True(t, strings.HasSuffix(exported.FileName, ".csv"))
	assert.Equal(t, "/reports/download/"+exported.Token, exported.URL)

	download, err := svc.ResolveDownload(exported.Token, "a1")
	require.NoError(t, err)
	defer download.File.Close()
	assert.Equal(t, "text/csv", download.ContentType)
	assert.Equal(t, exported.FileName, download.Filename)

	content, err := io.ReadAll(download.File)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(content)), "\n")
	require.Len(t, lines, 3)
	assert.True(t, strings.HasPrefix(lines[0], "date,"))
}

func TestReportDownloadRejectsOtherOperator(t *testing.T) {
	_, svc, _ := newReports(t, map[string]http.HandlerFunc{"GET /api/admin/reports": revenueReport})

	exported, err := svc.Export(context.Background(), models.ReportExportRequest{ReportQuery: models.ReportQuery{Type: "revenue"}, Format: models.ReportFormatPDF}, "a1")
	require.NoError(t, err)

	_, err = svc.ResolveDownload(exported.Token, "a2")
	require.Error(t, err)
	assert.True(t, errors.Is(err, appErrors.ErrForbidden))

	_, err = svc.ResolveDownload(exported.Token+"x", "a1")
	require.Error(t, err)
	assert.True(t, errors.Is(err, appErrors.ErrForbidden))
}

func TestReportExportRejectsUnknownFormat(t *testing.T) {
	api, svc, _ := newReports(t, map[string]http.HandlerFunc{"GET /api/admin/reports": revenueReport})

	_, err := svc.Export(context.Background(), models.ReportExportRequest{ReportQuery: models.ReportQuery{Type: "revenue"}, Format: "xlsx"}, "a1")
	require.Error(t, err)
	assert.True(t, errors.Is(err, appErrors.ErrValidation))
	assert.Empty(t, api.recorded())
}

func TestReportCleanupRemovesExpiredExports(t *testing.T) {
	_, svc, exporter := newReports(t, map[string]http.HandlerFunc{"GET /api/admin/reports": revenueReport})

	exported, err := svc.Export(context.Background(), models.ReportExportRequest{ReportQuery: models.ReportQuery{Type: "revenue"}, Format: models.ReportFormatCSV}, "a1")
	require.NoError(t, err)

	exporter.now = func() time.Time { return time.Now().Add(48 * time.Hour) }
	svc.cleanupExpired()

	_, err = svc.ResolveDownload(exported.Token, "a1")
	require.Error(t, err)
	assert.True(t, errors.Is(err, appErrors.ErrNotFound))
}
