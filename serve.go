package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/codenexus/codenexus-engine/pkg/auth"
	"github.com/codenexus/codenexus-engine/pkg/cache"
	"github.com/codenexus/codenexus-engine/pkg/config"
	"github.com/codenexus/codenexus-engine/pkg/database"
	"github.com/codenexus/codenexus-engine/pkg/handlers"
	"github.com/codenexus/codenexus-engine/pkg/logging"
	"github.com/codenexus/codenexus-engine/pkg/middleware"
	"github.com/codenexus/codenexus-engine/pkg/repositories"
	"github.com/codenexus/codenexus-engine/pkg/retry"
	"github.com/codenexus/codenexus-engine/pkg/services"
)

const shutdownTimeout = 15 * time.Second

var skipMigrations bool

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API",
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().BoolVar(&skipMigrations, "skip-migrations", false, "Do not apply pending migrations at startup")
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(Version)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	logger, err := logging.NewLogger(cfg.Env)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("Configuration loaded",
		zap.String("env", cfg.Env),
		zap.String("base_url", cfg.BaseURL),
		zap.Bool("auth_verification", cfg.Auth.EnableVerification),
		zap.String("database", logging.SanitizeConnectionString(cfg.Database.ConnectionString())),
		zap.String("redis", cfg.Redis.Host),
	)

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := connectDatabase(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer db.Close()

	if !skipMigrations {
		sqlDB := db.OpenSQL()
		err := database.RunMigrations(sqlDB, logger)
		_ = sqlDB.Close()
		if err != nil {
			return err
		}
	}

	reportCache, closeCache, err := newReportCache(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer closeCache()

	jwksClient, err := auth.NewJWKSClient(&auth.JWKSConfig{
		EnableVerification: cfg.Auth.EnableVerification,
		JWKSEndpoints:      cfg.Auth.JWKSEndpoints,
	})
	if err != nil {
		return fmt.Errorf("failed to create JWKS client: %w", err)
	}
	defer jwksClient.Close()

	loc, err := cfg.Reporting.Location()
	if err != nil {
		return err
	}

	handler := newRouter(cfg, db, reportCache, jwksClient, loc, logger)

	server := &http.Server{
		Addr:              cfg.BindAddr + ":" + cfg.Port,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       60 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("Starting codenexus-engine",
			zap.String("addr", server.Addr),
			zap.String("version", cfg.Version))
		var err error
		if cfg.TLSCertPath != "" {
			err = server.ListenAndServeTLS(cfg.TLSCertPath, cfg.TLSKeyPath)
		} else {
			err = server.ListenAndServe()
		}
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("Shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	return g.Wait()
}

// connectDatabase waits for Postgres to accept connections.
func connectDatabase(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*database.DB, error) {
	dbCfg := &database.Config{
		URL:            cfg.Database.ConnectionString(),
		MaxConnections: cfg.Database.MaxConnections,
	}

	attempt := 0
	db, err := retry.DoWithResult(ctx, retry.StartupConfig(), func() (*database.DB, error) {
		attempt++
		db, err := database.NewConnection(ctx, dbCfg)
		if err != nil {
			logger.Warn("Database not ready",
				zap.Int("attempt", attempt),
				zap.String("error", logging.SanitizeError(err)))
		}
		return db, err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	return db, nil
}

// newReportCache returns a Redis-backed report cache when Redis is configured
// and a no-op cache otherwise.
func newReportCache(ctx context.Context, cfg *config.Config, logger *zap.Logger) (cache.ReportCache, func(), error) {
	client, err := retry.DoWithResult(ctx, retry.StartupConfig(), func() (*redis.Client, error) {
		return database.NewRedisClient(ctx, &cfg.Redis)
	})
	if err != nil {
		return nil, nil, err
	}
	if client == nil {
		logger.Info("Redis not configured, report caching disabled")
		return cache.NewNoopReportCache(), func() {}, nil
	}

	closeFn := func() {
		if err := client.Close(); err != nil {
			logger.Warn("Failed to close Redis client", zap.Error(err))
		}
	}
	return cache.NewRedisReportCache(client, "codenexus", cfg.Reporting.CacheTTL, logger), closeFn, nil
}

// newRouter wires repositories, services and handlers. Every /api route runs
// with its own pooled connection in the request context.
func newRouter(
	cfg *config.Config,
	db *database.DB,
	reportCache cache.ReportCache,
	jwksClient auth.JWKSClientInterface,
	loc *time.Location,
	logger *zap.Logger,
) http.Handler {
	projectRepo := repositories.NewProjectRepository()
	scanRepo := repositories.NewScanRepository()
	detectionRepo := repositories.NewDetectionRepository()
	refactorRepo := repositories.NewRefactorRepository()
	logRepo := repositories.NewActivityLogRepository()
	graphRepo := repositories.NewDependencyGraphRepository()
	fileDataRepo := repositories.NewFileDataRepository()

	tx := database.NewTransactor()

	scanService := services.NewScanService(projectRepo, scanRepo, detectionRepo, refactorRepo, logRepo, tx, reportCache, logger)
	reportService := services.NewReportService(projectRepo, scanRepo, detectionRepo, reportCache,
		database.NewScopeFunc(db), services.ReportOptions{
			Location:    loc,
			Concurrency: cfg.Reporting.Concurrency,
		}, logger)
	projectService := services.NewProjectService(projectRepo, reportCache, logger)
	activityLogService := services.NewActivityLogService(projectRepo, logRepo, logger)
	graphService := services.NewGraphService(projectRepo, graphRepo, tx, reportCache, logger)
	fileDataService := services.NewFileDataService(projectRepo, fileDataRepo, tx, logger)

	authService := auth.NewAuthService(jwksClient, cfg.Auth.CookieName, logger)
	authMiddleware := auth.NewMiddleware(authService, logger)

	api := http.NewServeMux()
	handlers.NewScansHandler(scanService, logger).RegisterRoutes(api, authMiddleware)
	handlers.NewReportsHandler(reportService, logger).RegisterRoutes(api, authMiddleware)
	handlers.NewProjectsHandler(projectService, logger).RegisterRoutes(api, authMiddleware)
	handlers.NewLogsHandler(activityLogService, logger).RegisterRoutes(api, authMiddleware)
	handlers.NewGraphsHandler(graphService, logger).RegisterRoutes(api, authMiddleware)
	handlers.NewFileDataHandler(fileDataService, logger).RegisterRoutes(api, authMiddleware)

	mux := http.NewServeMux()
	handlers.NewHealthHandler(cfg, db, logger).RegisterRoutes(mux)
	mux.Handle("/api/", database.WithScope(db, logger)(api.ServeHTTP))

	var handler http.Handler = mux
	handler = middleware.Recover(logger)(handler)
	handler = middleware.RequestLogger(logger)(handler)
	return handler
}
