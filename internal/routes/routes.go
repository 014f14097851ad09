package routes

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"gorm.io/gorm"

	"github.com/devicewatch/backend/internal/config"
	"github.com/devicewatch/backend/internal/controllers"
	"github.com/devicewatch/backend/internal/db"
	"github.com/devicewatch/backend/internal/middleware"
	"github.com/devicewatch/backend/internal/services"
)

// SetupRoutes configures all application routes
func SetupRoutes(r *gin.Engine, conn *gorm.DB, cfg *config.Config, registry *prometheus.Registry) {
	// Initialize services
	eventService := services.NewEventService(conn)
	reportService := services.NewErrorReportService(eventService, cfg.Engine, services.NewMetrics(registry))

	// Initialize controllers
	authController := controllers.NewAuthController(conn, cfg.JWTSecret, cfg.JWTTTL)
	eventController := controllers.NewEventController(eventService, reportService, cfg.ErrorsDefaultLimit)

	r.GET("/health", healthHandler(conn))
	r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(registry, promhttp.HandlerOpts{})))

	api := r.Group("/api/v1")
	{
		auth := api.Group("/auth")
		{
			auth.POST("/login", authController.Login)
		}

		// Protected routes
		protected := api.Group("/")
		protected.Use(middleware.AuthMiddleware(cfg.JWTSecret))
		{
			events := protected.Group("/events")
			{
				events.POST("", eventController.UploadEvents)
				events.GET("", eventController.QueryEvents)
				events.GET("/errors", eventController.GetErrors)
			}
		}
	}
}

func healthHandler(conn *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		dbStatus := "ok"
		var dbError string
		if err := db.Ping(conn); err != nil {
			dbStatus = "error"
			dbError = err.Error()
		}

		overallStatus := "ok"
		statusCode := http.StatusOK
		if dbStatus != "ok" {
			overallStatus = "error"
			statusCode = http.StatusServiceUnavailable
		}

		c.JSON(statusCode, gin.H{
			"status":    overallStatus,
			"timestamp": time.Now().UTC().Format(time.RFC3339),
			"version":   "1.0.0",
			"services": gin.H{
				"database": gin.H{
					"status": dbStatus,
					"error":  dbError,
				},
			},
		})
	}
}
