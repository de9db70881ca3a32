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

	"github.com/damacus/iron-drive/internal/config"
	"github.com/damacus/iron-drive/internal/handlers"
	"github.com/damacus/iron-drive/internal/logging"
	"github.com/damacus/iron-drive/internal/metrics"
	customMiddleware "github.com/damacus/iron-drive/internal/middleware"
	"github.com/damacus/iron-drive/internal/objectstore"
	"github.com/damacus/iron-drive/internal/services"
	"github.com/damacus/iron-drive/internal/storage"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"
)

const shutdownTimeout = 15 * time.Second

func main() {
	cfg, err := config.Load(os.Getenv("CONFIG_FILE"))
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	logger, err := logging.New(cfg.Log)
	if err != nil {
		log.Fatalf("build logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	gw, err := newGateway(ctx, cfg.Storage)
	if err != nil {
		logger.Fatal("init object store", zap.String("backend", cfg.Storage.Backend), zap.Error(err))
	}
	logger.Info("object store ready",
		zap.String("backend", cfg.Storage.Backend),
		zap.String("endpoint", cfg.Storage.Endpoint),
		zap.String("bucket", cfg.Storage.Bucket))

	e := newServer(cfg, gw, logger)

	go func() {
		if err := e.Start(cfg.Server.Address); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("server stopped", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown", zap.Error(err))
	}
}

// newGateway connects the configured backend and makes sure its bucket
// exists before wrapping it with metrics.
func newGateway(ctx context.Context, cfg config.StorageConfig) (objectstore.Gateway, error) {
	var gw objectstore.Gateway
	switch cfg.Backend {
	case "memory":
		gw = objectstore.NewMemoryGateway()
	case "s3":
		s3gw, err := objectstore.NewS3Gateway(ctx, objectstore.S3Config{
			Endpoint:  cfg.Endpoint,
			Region:    cfg.Region,
			Bucket:    cfg.Bucket,
			AccessKey: cfg.AccessKey,
			SecretKey: cfg.SecretKey,
			UseSSL:    services.UseSSL(cfg.Endpoint, cfg.Secure),
		})
		if err != nil {
			return nil, err
		}
		gw = s3gw
	case "minio":
		factory := &services.RealMinioFactory{}
		client, err := factory.NewClient(services.Credentials{
			Endpoint:  cfg.Endpoint,
			AccessKey: cfg.AccessKey,
			SecretKey: cfg.SecretKey,
			Region:    cfg.Region,
			Secure:    cfg.Secure,
		})
		if err != nil {
			return nil, fmt.Errorf("create minio client: %w", err)
		}
		gw = objectstore.NewMinioGateway(client, cfg.Bucket, cfg.Region)
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.Backend)
	}

	if bi, ok := gw.(objectstore.BucketInitializer); ok {
		if err := bi.EnsureBucket(ctx); err != nil {
			return nil, fmt.Errorf("ensure bucket %s: %w", cfg.Bucket, err)
		}
	}
	return objectstore.Instrument(gw, cfg.Backend), nil
}

func newServer(cfg config.Config, gw objectstore.Gateway, logger *zap.Logger) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	// Services
	authService := services.NewAuthService(cfg.Auth.JWTSecret)
	drive := storage.New(gw,
		storage.WithLogger(logger.Named("storage")),
		storage.WithMoveConcurrency(cfg.Storage.MoveConcurrency),
	)
	directoryHandler := handlers.NewDirectoryHandler(drive)
	resourceHandler := handlers.NewResourceHandler(drive, logger)

	// Middleware
	e.Use(middleware.RequestIDWithConfig(middleware.RequestIDConfig{
		Generator: uuid.NewString,
	}))
	e.Use(customMiddleware.RequestLogger(logger))
	e.Use(middleware.Recover())
	if cfg.Server.BodyLimit != "" {
		e.Use(middleware.BodyLimit(cfg.Server.BodyLimit))
	}
	e.Use(customMiddleware.SecurityHeaders())
	// Apply auth middleware globally - it will skip public routes internally
	e.Use(customMiddleware.AuthMiddleware(authService, cfg.Auth.CookieName))

	// Public Routes (auth middleware will skip these)
	e.GET("/health", func(c echo.Context) error {
		return c.String(http.StatusOK, "OK")
	})
	e.GET("/metrics", echo.WrapHandler(metrics.Handler()))

	// Protected Routes
	api := e.Group("/api")
	api.GET("/user/me", handlers.CurrentUser)

	api.GET("/directory", directoryHandler.ListDirectory)
	api.POST("/directory", directoryHandler.CreateDirectory)

	api.POST("/resource", resourceHandler.Upload)
	api.GET("/resource", resourceHandler.Info)
	api.DELETE("/resource", resourceHandler.Delete)
	api.GET("/resource/download", resourceHandler.Download)
	api.GET("/resource/move", resourceHandler.Move)
	api.GET("/resource/search", resourceHandler.Search)

	return e
}
