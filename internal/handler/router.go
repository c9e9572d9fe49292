package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/noah-isme/wellness-admin/internal/middleware"
	"github.com/noah-isme/wellness-admin/internal/service"
	"github.com/noah-isme/wellness-admin/internal/session"
	appErrors "github.com/noah-isme/wellness-admin/pkg/errors"
	"github.com/noah-isme/wellness-admin/pkg/response"
)

// Routes bundles everything the console routes need.
type Routes struct {
	Sessions             *session.Manager
	Workspace            *service.WorkspaceService
	LoginPath            string
	DashboardPath        string
	LogoutOnUnauthorized bool
	Logger               *zap.Logger

	Auth       *AuthHandler
	Screens    *ScreenHandler
	Dashboard  *DashboardHandler
	Reports    *ReportHandler
	Settings   *SettingsHandler
	Navigation *NavigationHandler
	Metrics    *MetricsHandler
	Audit      *AuditHandler
}

// Register mounts probe, public and protected routes on r.
func Register(r *gin.Engine, rt Routes) {
	r.NoRoute(func(c *gin.Context) {
		response.Error(c, appErrors.Clone(appErrors.ErrNotFound, "route not found"))
	})

	r.GET("/health", rt.Metrics.Health)
	r.GET("/ready", rt.Metrics.Ready)
	r.GET("/metrics", rt.Metrics.Prometheus)

	gated := r.Group("/", middleware.LoadSession(rt.Sessions, rt.Logger))

	public := gated.Group("/", middleware.Public(rt.DashboardPath))
	public.GET(rt.LoginPath, rt.Auth.LoginPage)
	public.POST("/auth/login", rt.Auth.Login)

	protected := gated.Group("/",
		middleware.Protected(rt.LoginPath),
		middleware.UpstreamAuthFailure(rt.Sessions, rt.Workspace, rt.LogoutOnUnauthorized, rt.LoginPath, rt.Logger),
	)
	protected.POST("/auth/logout", rt.Auth.Logout)
	protected.GET("/session", rt.Auth.Session)
	protected.GET("/nav", rt.Navigation.Sidebar)
	protected.GET("/navbar", rt.Navigation.Navbar)
	protected.PATCH("/notifications/:id/read", rt.Navigation.MarkRead)
	protected.GET(rt.DashboardPath, rt.Dashboard.Summary)
	protected.GET("/metrics/summary", rt.Metrics.Summary)

	reports := protected.Group("/reports", middleware.RequirePermission("reports"))
	reports.GET("", rt.Reports.Get)
	reports.POST("/export", rt.Reports.Export)
	reports.GET("/download/:token", rt.Reports.Download)

	settings := protected.Group("/settings")
	settings.GET("/profile", rt.Settings.Profile)
	settings.PUT("/profile", rt.Settings.UpdateProfile)
	settings.PUT("/password", rt.Settings.ChangePassword)

	protected.GET("/audit", middleware.RequirePermission("admins"), rt.Audit.List)

	screens := protected.Group("/screens/:entity", middleware.RequireEntityPermission("entity"))
	screens.GET("", rt.Screens.Get)
	screens.DELETE("", rt.Screens.Close)
	screens.GET("/stats", rt.Screens.Stats)
	screens.PUT("/filters", rt.Screens.SetFilters)
	screens.PUT("/page", rt.Screens.SetPage)
	screens.POST("/refresh", rt.Screens.Refresh)
	screens.PUT("/modal", rt.Screens.OpenModal)
	screens.DELETE("/modal", rt.Screens.CloseModal)
	screens.POST("/mutations", rt.Screens.Mutate)
	screens.GET("/notices", rt.Screens.Notices)

	r.HandleMethodNotAllowed = true
	r.NoMethod(func(c *gin.Context) {
		response.Error(c, appErrors.New("METHOD_NOT_ALLOWED", http.StatusMethodNotAllowed, "method not allowed"))
	})
}
