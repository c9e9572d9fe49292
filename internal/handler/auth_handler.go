package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/wellness-admin/internal/middleware"
	"github.com/noah-isme/wellness-admin/internal/models"
	"github.com/noah-isme/wellness-admin/internal/service"
	"github.com/noah-isme/wellness-admin/internal/session"
)

type authService interface {
	Login(ctx context.Context, req models.LoginRequest) (*models.LoginResult, error)
	Logout(ctx context.Context, sessionID string)
	Me(ctx context.Context) (*models.AdminProfile, error)
}

type screenLister interface {
	Mounted(sessionID string) []string
}

// AuthHandler wires sign in, sign out and session inspection.
type AuthHandler struct {
	service       authService
	sessions      *session.Manager
	screens       screenLister
	loginPath     string
	dashboardPath string
}

// NewAuthHandler creates a new handler.
func NewAuthHandler(svc authService, sessions *session.Manager, screens screenLister, loginPath, dashboardPath string) *AuthHandler {
	return &AuthHandler{service: svc, sessions: sessions, screens: screens, loginPath: loginPath, dashboardPath: dashboardPath}
}

// LoginPage godoc
// @Summary Login page shell
// @Description Describes the login form for anonymous operators; signed-in operators are redirected to the dashboard
// @Tags Authentication
// @Produce json
// @Success 200 {object} response.Envelope
// @Success 302 {string} string "redirect to dashboard"
// @Router /login [get]
func (h *AuthHandler) LoginPage(c *gin.Context) {
	respond(c, http.StatusOK, gin.H{
		"authenticated": false,
		"action":        "/auth/login",
		"fields":        []string{"email", "password"},
	}, nil)
}

// Login godoc
// @Summary Sign in
// @Description Exchanges credentials with the admin API and starts a console session
// @Tags Authentication
// @Accept json
// @Produce json
// @Param payload body models.LoginRequest true "Login payload"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 401 {object} response.Envelope
// @Router /auth/login [post]
func (h *AuthHandler) Login(c *gin.Context) {
	var req models.LoginRequest
	if !bindJSON(c, &req, "invalid login payload") {
		return
	}

	ctx := service.WithActor(c.Request.Context(), service.Actor{IPAddress: c.ClientIP()})
	res, err := h.service.Login(ctx, req)
	if err != nil {
		fail(c, err)
		return
	}

	s, err := h.sessions.Login(c, res.Token, res.Admin)
	if err != nil {
		fail(c, err)
		return
	}

	middleware.SetRedirect(c, h.dashboardPath)
	respond(c, http.StatusOK, gin.H{"admin": s.Admin, "expiresAt": s.ExpiresAt}, nil)
}

// Logout godoc
// @Summary Sign out
// @Description Ends the console session and discards every mounted screen
// @Tags Authentication
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /auth/logout [post]
func (h *AuthHandler) Logout(c *gin.Context) {
	ctx := c.Request.Context()
	id, err := h.sessions.Logout(c)
	if err != nil {
		fail(c, err)
		return
	}
	h.service.Logout(ctx, id)

	middleware.SetRedirect(c, h.loginPath)
	respond(c, http.StatusOK, gin.H{"authenticated": false}, nil)
}

// Session godoc
// @Summary Current session
// @Description Returns the cached operator profile; refresh=true reloads it from the admin API
// @Tags Authentication
// @Produce json
// @Param refresh query bool false "Reload the profile"
// @Success 200 {object} response.Envelope
// @Failure 401 {object} response.Envelope
// @Router /session [get]
func (h *AuthHandler) Session(c *gin.Context) {
	s := currentSession(c)
	if c.Query("refresh") == "true" {
		profile, err := h.service.Me(c.Request.Context())
		if err != nil {
			fail(c, err)
			return
		}
		if err := h.sessions.UpdateAdmin(c, s, *profile); err != nil {
			fail(c, err)
			return
		}
	}

	var screens []string
	if h.screens != nil {
		screens = h.screens.Mounted(s.ID)
	}
	respond(c, http.StatusOK, gin.H{
		"authenticated": s.IsAuthenticated(),
		"admin":         s.Admin,
		"expiresAt":     s.ExpiresAt,
		"screens":       screens,
	}, nil)
}
