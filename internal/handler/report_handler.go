package handler

import (
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/wellness-admin/internal/models"
	"github.com/noah-isme/wellness-admin/internal/service"
	appErrors "github.com/noah-isme/wellness-admin/pkg/errors"
)

type reportProvider interface {
	Fetch(ctx context.Context, query models.ReportQuery) (*models.Report, error)
	Export(ctx context.Context, req models.ReportExportRequest, owner string) (*models.ReportExport, error)
	ResolveDownload(token, owner string) (*service.ReportDownload, error)
}

// ReportHandler exposes reports and their exports.
type ReportHandler struct {
	service reportProvider
}

// NewReportHandler constructs a ReportHandler.
func NewReportHandler(svc reportProvider) *ReportHandler {
	return &ReportHandler{service: svc}
}

// Get godoc
// @Summary Load a report
// @Tags Reports
// @Produce json
// @Param type query string true "revenue, bookings, users, experts or subscriptions"
// @Param startDate query string false "YYYY-MM-DD"
// @Param endDate query string false "YYYY-MM-DD"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /reports [get]
func (h *ReportHandler) Get(c *gin.Context) {
	var query models.ReportQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		fail(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid report query"))
		return
	}
	report, err := h.service.Fetch(c.Request.Context(), query)
	if err != nil {
		fail(c, err)
		return
	}
	respond(c, http.StatusOK, report, nil)
}

// Export godoc
// @Summary Export a report
// @Description Renders the report to CSV or PDF and returns a signed download link
// @Tags Reports
// @Accept json
// @Produce json
// @Param payload body models.ReportExportRequest true "Report and format"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /reports/export [post]
func (h *ReportHandler) Export(c *gin.Context) {
	var req models.ReportExportRequest
	if !bindJSON(c, &req, "invalid export payload") {
		return
	}
	exported, err := h.service.Export(c.Request.Context(), req, currentAdmin(c).ID)
	if err != nil {
		fail(c, err)
		return
	}
	respond(c, http.StatusCreated, exported, nil)
}

// Download godoc
// @Summary Download an export
// @Tags Reports
// @Produce octet-stream
// @Param token path string true "Signed download token"
// @Success 200 {file} file
// @Failure 403 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /reports/download/{token} [get]
func (h *ReportHandler) Download(c *gin.Context) {
	download, err := h.service.ResolveDownload(c.Param("token"), currentAdmin(c).ID)
	if err != nil {
		fail(c, err)
		return
	}
	defer download.File.Close()

	c.Header("Content-Type", download.ContentType)
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", download.Filename))
	c.Header("Cache-Control", "no-store")
	c.Status(http.StatusOK)
	_, _ = io.Copy(c.Writer, download.File)
}
