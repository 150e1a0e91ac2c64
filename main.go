package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/muroom-studio/muroom-admin/config"
	"github.com/muroom-studio/muroom-admin/handler"
	"github.com/muroom-studio/muroom-admin/middleware"
	"github.com/muroom-studio/muroom-admin/pkg/logger"
	"github.com/muroom-studio/muroom-admin/service"
	"github.com/muroom-studio/muroom-admin/upload"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to the YAML configuration")
	flag.Parse()

	// Load configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger.Init(&logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
	})
	slog.Info("configuration loaded successfully", "api", cfg.API.BaseURL, "storage", cfg.Storage.Driver)

	// Initialize services
	apiClient := service.NewAPIClient(&cfg.API)

	signer, err := service.NewSigner(context.Background(), &cfg.Storage)
	if err != nil {
		slog.Error("failed to initialize object storage", "driver", cfg.Storage.Driver, "error", err)
		os.Exit(1)
	}

	var issuer upload.Issuer = apiClient
	if cfg.Upload.Issuer == "storage" {
		issuer = service.NewStorageIssuer(signer)
	}

	coordinator := upload.NewCoordinator(issuer, service.NewObjectWriter(cfg.API.Timeout()), cfg.Upload.Concurrency)
	if cfg.Storage.Verify {
		coordinator = coordinator.WithInspector(signer)
	}

	rules, err := upload.RulesFromConfig(cfg.Upload.Limits)
	if err != nil {
		slog.Error("invalid upload limits", "error", err)
		os.Exit(1)
	}
	flow := upload.NewFlow(coordinator, apiClient, rules)

	proxy, err := handler.NewAPIProxy(apiClient.BaseURL())
	if err != nil {
		slog.Error("failed to create api proxy", "error", err)
		os.Exit(1)
	}

	var preview handler.Previewer
	if signer != nil {
		preview = signer
	}

	handlers := handler.Handlers{
		Drafts:  handler.NewDraftHandler(service.NewDraftStore(cfg.Store.MaxDrafts), flow, cfg.Upload.MaxFileBytes),
		Studios: handler.NewStudioHandler(apiClient, preview),
		Owners:  handler.NewOwnerHandler(apiClient),
		Terms:   handler.NewTermsHandler(apiClient, cfg.Location()),
		Proxy:   proxy,
	}

	// Setup Gin router
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()

	router.Use(middleware.RequestID())
	router.Use(middleware.Recovery())
	router.Use(middleware.RequestLogger())
	router.Use(middleware.CORS())
	router.Use(middleware.CacheControl())
	router.Use(middleware.RateLimit(cfg.Server.RateLimit))

	serveStatic(router, cfg.Server.StaticDir)
	handler.RegisterRoutes(router, handlers)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  60 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		slog.Info("server starting", "port", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("failed to start server", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	slog.Info("shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		slog.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}

	slog.Info("server exited gracefully")
}

// serveStatic mounts the dashboard pages when a static directory is set.
func serveStatic(router *gin.Engine, dir string) {
	if dir == "" {
		return
	}
	index := filepath.Join(dir, "index.html")
	if _, err := os.Stat(index); err != nil {
		slog.Warn("static directory has no index.html, pages disabled", "directory", dir)
		return
	}
	slog.Info("serving static files", "directory", dir)
	router.Static("/static", dir)
	router.StaticFile("/", index)
	router.StaticFile("/index.html", index)
}
