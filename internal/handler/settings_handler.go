package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/wellness-admin/internal/models"
	"github.com/noah-isme/wellness-admin/internal/session"
)

type settingsProvider interface {
	Profile(ctx context.Context) (*models.AdminProfile, error)
	UpdateProfile(ctx context.Context, req models.UpdateProfileRequest) (*models.AdminProfile, error)
	ChangePassword(ctx context.Context, req models.ChangePasswordRequest) error
}

// SettingsHandler backs the settings page.
type SettingsHandler struct {
	service  settingsProvider
	sessions *session.Manager
}

// NewSettingsHandler constructs a SettingsHandler.
func NewSettingsHandler(svc settingsProvider, sessions *session.Manager) *SettingsHandler {
	return &SettingsHandler{service: svc, sessions: sessions}
}

// Profile godoc
// @Summary Operator profile
// @Tags Settings
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /settings/profile [get]
func (h *SettingsHandler) Profile(c *gin.Context) {
	profile, err := h.service.Profile(c.Request.Context())
	if err != nil {
		fail(c, err)
		return
	}
	respond(c, http.StatusOK, profile, nil)
}

// UpdateProfile godoc
// @Summary Update operator profile
// @Tags Settings
// @Accept json
// @Produce json
// @Param payload body models.UpdateProfileRequest true "Profile"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /settings/profile [put]
func (h *SettingsHandler) UpdateProfile(c *gin.Context) {
	var req models.UpdateProfileRequest
	if !bindJSON(c, &req, "invalid profile payload") {
		return
	}
	profile, err := h.service.UpdateProfile(c.Request.Context(), req)
	if err != nil {
		fail(c, err)
		return
	}

	s := currentSession(c)
	cached := s.Admin
	cached.Name = profile.Name
	cached.Email = profile.Email
	if err := h.sessions.UpdateAdmin(c, s, cached); err != nil {
		fail(c, err)
		return
	}
	respond(c, http.StatusOK, profile, nil)
}

// ChangePassword godoc
// @Summary Change password
// @Description new and confirm must match and be at least 8 characters; checked before contacting the admin API
// @Tags Settings
// @Accept json
// @Produce json
// @Param payload body models.ChangePasswordRequest true "Passwords"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /settings/password [put]
func (h *SettingsHandler) ChangePassword(c *gin.Context) {
	var req models.ChangePasswordRequest
	if !bindJSON(c, &req, "invalid password payload") {
		return
	}
	if err := h.service.ChangePassword(c.Request.Context(), req); err != nil {
		fail(c, err)
		return
	}
	respond(c, http.StatusOK, gin.H{"changed": true}, nil)
}
