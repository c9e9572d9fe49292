package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "github.com/noah-isme/wellness-admin/api/swagger"
	"github.com/noah-isme/wellness-admin/internal/handler"
	"github.com/noah-isme/wellness-admin/internal/middleware"
	"github.com/noah-isme/wellness-admin/internal/repository"
	"github.com/noah-isme/wellness-admin/internal/service"
	"github.com/noah-isme/wellness-admin/internal/session"
	"github.com/noah-isme/wellness-admin/pkg/apiclient"
	"github.com/noah-isme/wellness-admin/pkg/cache"
	"github.com/noah-isme/wellness-admin/pkg/config"
	"github.com/noah-isme/wellness-admin/pkg/database"
	"github.com/noah-isme/wellness-admin/pkg/logger"
	corsmiddleware "github.com/noah-isme/wellness-admin/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/wellness-admin/pkg/middleware/requestid"
	"github.com/noah-isme/wellness-admin/pkg/storage"
)

// @title Wellness Admin Console
// @version 1.0.0
// @description Session-gated operator console in front of the platform admin API
// @BasePath /
// @schemes http https

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logr); err != nil {
		logr.Fatal("admin console stopped", zap.Error(err))
	}
}

func run(ctx context.Context, cfg *config.Config, logr *zap.Logger) error {
	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	metrics := service.NewMetricsService()
	readiness := map[string]handler.ReadinessCheck{}

	var redisClient *redis.Client
	if cfg.Session.Store == config.SessionStoreRedis || cfg.Dashboard.CacheEnabled {
		client, err := cache.NewRedis(ctx, cfg.Redis)
		if err != nil {
			return fmt.Errorf("connect redis: %w", err)
		}
		defer client.Close() //nolint:errcheck
		redisClient = client
		readiness["redis"] = func(ctx context.Context) error { return cache.Ping(ctx, client) }
	}

	var db *sqlx.DB
	if cfg.Audit.Enabled {
		conn, err := database.NewPostgres(ctx, cfg.Database)
		if err != nil {
			return fmt.Errorf("connect postgres: %w", err)
		}
		defer conn.Close() //nolint:errcheck
		if err := database.EnsureAuditSchema(ctx, conn); err != nil {
			return fmt.Errorf("prepare audit schema: %w", err)
		}
		db = conn
		readiness["postgres"] = func(ctx context.Context) error { return conn.PingContext(ctx) }
	}

	sealer, err := session.NewSealer(cfg.Session.Secret)
	if err != nil {
		return fmt.Errorf("session sealer: %w", err)
	}
	var store session.Store
	switch cfg.Session.Store {
	case config.SessionStoreMemory:
		memory := session.NewMemoryStore(sealer)
		memory.StartSweeper(ctx, cfg.Session.SweepInterval)
		store = memory
	case config.SessionStoreRedis:
		store = session.NewRedisStore(redisClient, sealer)
	default:
		return fmt.Errorf("unknown session store %q", cfg.Session.Store)
	}
	sessions := session.NewManager(store, session.ManagerConfig{
		Secret:       cfg.Session.Secret,
		TTL:          cfg.Session.TTL,
		CookieName:   cfg.Session.CookieName,
		CookieSecure: cfg.Session.CookieSecure,
	}, logr)

	api := apiclient.New(apiclient.Config{
		BaseURL:  cfg.Upstream.BaseURL,
		Timeout:  cfg.Upstream.Timeout,
		Observer: metrics,
		Logger:   logr,
	})

	var cacheRepo service.CacheRepository
	if redisClient != nil {
		cacheRepo = repository.NewCacheRepository(redisClient, "admin-console", logr)
	}
	cacheSvc := service.NewCacheService(cacheRepo, metrics, cfg.Dashboard.CacheTTL, logr, cfg.Dashboard.CacheEnabled && cacheRepo != nil)

	var auditRepo *repository.AuditRepository
	if db != nil {
		auditRepo = repository.NewAuditRepository(db, metrics)
	}
	audit := newAuditService(auditRepo, cfg.Audit, logr)
	audit.Start(ctx)
	defer audit.Stop()

	validate := service.NewValidator()
	workspace := service.NewWorkspaceService(api, cfg.Screens.PageSizes, audit, metrics, logr)
	auth := service.NewAuthService(api, workspace, audit, validate, logr)
	settings := service.NewSettingsService(api, auth, audit, validate, logr)
	navigation := service.NewNavigationService(api, auth, logr)
	dashboard := service.NewDashboardService(service.DashboardServiceParams{
		API:    api,
		Cache:  cacheSvc,
		Logger: logr,
		Config: service.DashboardServiceConfig{CacheTTL: cfg.Dashboard.CacheTTL},
	})

	files, err := storage.NewLocalStorage(cfg.Reports.StorageDir)
	if err != nil {
		return fmt.Errorf("prepare export storage: %w", err)
	}
	exporter := service.NewExportService(files, storage.NewSignedURLSigner(cfg.Reports.SignedURLSecret, cfg.Reports.SignedURLTTL), service.ExportConfig{
		ResultTTL: cfg.Reports.SignedURLTTL,
	}, logr)
	reports := service.NewReportService(api, exporter, audit, validate, logr, service.ReportServiceConfig{
		CleanupInterval: cfg.Reports.CleanupInterval,
	})
	reports.StartCleanup(ctx)
	workspace.StartSweeper(ctx, cfg.Session.SweepInterval, cfg.Session.TTL)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr, "/health", "/metrics"))
	r.Use(middleware.Metrics(metrics, "/health", "/ready", "/metrics"))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	handler.Register(r, handler.Routes{
		Sessions:             sessions,
		Workspace:            workspace,
		LoginPath:            cfg.Session.LoginPath,
		DashboardPath:        cfg.Session.DashboardPath,
		LogoutOnUnauthorized: cfg.Session.LogoutOnUnauthorized,
		Logger:               logr,
		Auth:                 handler.NewAuthHandler(auth, sessions, workspace, cfg.Session.LoginPath, cfg.Session.DashboardPath),
		Screens:              handler.NewScreenHandler(workspace),
		Dashboard:            handler.NewDashboardHandler(dashboard),
		Reports:              handler.NewReportHandler(reports),
		Settings:             handler.NewSettingsHandler(settings, sessions),
		Navigation:           handler.NewNavigationHandler(navigation),
		Metrics:              handler.NewMetricsHandler(metrics, readiness),
		Audit:                handler.NewAuditHandler(audit),
	})

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logr.Sugar().Infow("server starting", "addr", srv.Addr, "env", cfg.Env, "upstream", cfg.Upstream.BaseURL, "sessionStore", cfg.Session.Store)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logr.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

// newAuditService keeps a nil repository out of the service's interface field.
func newAuditService(repo *repository.AuditRepository, cfg config.AuditConfig, logr *zap.Logger) *service.AuditService {
	svcCfg := service.AuditConfig{Enabled: cfg.Enabled, Workers: cfg.Workers, MaxRetries: cfg.MaxRetries}
	if repo == nil {
		return service.NewAuditService(nil, svcCfg, logr)
	}
	return service.NewAuditService(repo, svcCfg, logr)
}
