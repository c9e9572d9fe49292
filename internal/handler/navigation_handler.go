package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/wellness-admin/internal/models"
)

type navigationProvider interface {
	Visible(admin models.AdminProfile) []models.NavItem
	Navbar(ctx context.Context) models.Navbar
	MarkNotificationRead(ctx context.Context, id string) error
}

// NavigationHandler serves sidebar and navbar data.
type NavigationHandler struct {
	service navigationProvider
}

// NewNavigationHandler constructs a NavigationHandler.
func NewNavigationHandler(svc navigationProvider) *NavigationHandler {
	return &NavigationHandler{service: svc}
}

// Sidebar godoc
// @Summary Sidebar entries
// @Description Entries the operator holds a permission for
// @Tags Navigation
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /nav [get]
func (h *NavigationHandler) Sidebar(c *gin.Context) {
	respond(c, http.StatusOK, h.service.Visible(currentAdmin(c)), nil)
}

// Navbar godoc
// @Summary Navbar data
// @Description Profile and the five latest notifications; failed parts come back empty
// @Tags Navigation
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /navbar [get]
func (h *NavigationHandler) Navbar(c *gin.Context) {
	respond(c, http.StatusOK, h.service.Navbar(c.Request.Context()), nil)
}

// MarkRead godoc
// @Summary Mark a notification as read
// @Tags Navigation
// @Param id path string true "Notification ID"
// @Success 204
// @Router /notifications/{id}/read [patch]
func (h *NavigationHandler) MarkRead(c *gin.Context) {
	if err := h.service.MarkNotificationRead(c.Request.Context(), c.Param("id")); err != nil {
		fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
