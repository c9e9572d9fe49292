package handler

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/wellness-admin/internal/middleware"
	"github.com/noah-isme/wellness-admin/internal/models"
)

type dashboardProvider interface {
	Summary(ctx context.Context, period string, refresh bool) (*models.DashboardView, bool, error)
}

// DashboardHandler serves the dashboard page payload.
type DashboardHandler struct {
	service dashboardProvider
}

// NewDashboardHandler constructs a DashboardHandler.
func NewDashboardHandler(svc dashboardProvider) *DashboardHandler {
	return &DashboardHandler{service: svc}
}

// Summary godoc
// @Summary Dashboard summary
// @Description Pre-aggregated platform summary plus stats cards for users, experts, bookings and payments
// @Tags Dashboard
// @Produce json
// @Param period query string false "7d, 30d, 90d or 12m" default(30d)
// @Param refresh query bool false "Bypass the summary cache"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 502 {object} response.Envelope
// @Router /dashboard [get]
func (h *DashboardHandler) Summary(c *gin.Context) {
	refresh, _ := strconv.ParseBool(c.Query("refresh"))
	view, hit, err := h.service.Summary(c.Request.Context(), c.Query("period"), refresh)
	if err != nil {
		fail(c, err)
		return
	}
	middleware.SetCacheHit(c, hit)
	respond(c, http.StatusOK, view, nil)
}
