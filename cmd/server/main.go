package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/devicewatch/backend/internal/config"
	"github.com/devicewatch/backend/internal/db"
	"github.com/devicewatch/backend/internal/logger"
	"github.com/devicewatch/backend/internal/middleware"
	"github.com/devicewatch/backend/internal/routes"
	"github.com/devicewatch/backend/internal/seed"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("Invalid configuration", map[string]interface{}{"error": err.Error()})
	}
	logger.Initialize(logger.Options{Level: cfg.LogLevel, File: cfg.LogFile})

	conn, err := db.Connect(cfg.Database.DSN())
	if err != nil {
		logger.Fatal("Failed to connect to database", map[string]interface{}{"error": err.Error()})
	}
	if err := db.AutoMigrate(conn); err != nil {
		logger.Fatal("Failed to migrate database", map[string]interface{}{"error": err.Error()})
	}

	// Seed database with initial data if in development
	if cfg.Env == "development" {
		logger.Info("Seeding database with initial data", nil)
		if err := seed.FromFile(conn, seed.DefaultPath); err != nil {
			logger.Warn("Failed to seed database", map[string]interface{}{"error": err.Error()})
		}
	}

	if cfg.GinMode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	// Create router without default middleware
	r := gin.New()
	r.RedirectTrailingSlash = false
	r.RedirectFixedPath = false

	r.Use(middleware.CustomLoggerMiddleware())
	r.Use(middleware.CORSMiddleware(cfg.CORSOrigin))
	r.Use(gin.Recovery())

	routes.SetupRoutes(r, conn, cfg, registry)

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: r,
	}

	stopChan := make(chan os.Signal, 1)
	signal.Notify(stopChan, syscall.SIGTERM, syscall.SIGINT)

	logger.Info("Starting device error backend", map[string]interface{}{
		"port":     cfg.Port,
		"gin_mode": gin.Mode(),
	})

	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("Failed to start server", map[string]interface{}{
				"error": err.Error(),
			})
		}
	}()

	<-stopChan
	logger.Info("Shutting down server gracefully...", nil)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("Server forced to shutdown", map[string]interface{}{
			"error": err.Error(),
		})
	} else {
		logger.Info("Server exited gracefully", nil)
	}
}
