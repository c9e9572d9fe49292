package handler

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/wellness-admin/internal/models"
)

type auditLister interface {
	List(ctx context.Context, filter models.AuditFilter) ([]models.AuditLog, *models.Pagination, error)
}

// AuditHandler lists the operator audit trail.
type AuditHandler struct {
	service auditLister
}

// NewAuditHandler constructs an AuditHandler.
func NewAuditHandler(svc auditLister) *AuditHandler {
	return &AuditHandler{service: svc}
}

// List godoc
// @Summary Audit trail
// @Tags Audit
// @Produce json
// @Param adminId query string false "Operator ID"
// @Param resource query string false "Entity or area"
// @Param page query int false "Page" default(1)
// @Param limit query int false "Page size" default(20)
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /audit [get]
func (h *AuditHandler) List(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	logs, pagination, err := h.service.List(c.Request.Context(), models.AuditFilter{
		AdminID:  c.Query("adminId"),
		Resource: c.Query("resource"),
		Page:     page,
		PageSize: limit,
	})
	if err != nil {
		fail(c, err)
		return
	}
	respond(c, http.StatusOK, logs, pagination)
}
