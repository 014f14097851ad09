package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/devicewatch/backend/internal/logger"
)

const (
	RequestIDHeader  = "X-Request-ID"
	ContextRequestID = "request_id"
)

// CustomLoggerMiddleware logs each request through logrus and tags it with a request id.
func CustomLoggerMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		requestID := c.GetHeader(RequestIDHeader)
		if requestID == "" {
			requestID = uuid.NewString()
		}
		c.Set(ContextRequestID, requestID)
		c.Writer.Header().Set(RequestIDHeader, requestID)

		c.Next()

		entry := logger.WithRequest(requestID).WithFields(logrus.Fields{
			"method":    c.Request.Method,
			"path":      c.Request.URL.Path,
			"status":    c.Writer.Status(),
			"latency":   time.Since(start).String(),
			"client_ip": c.ClientIP(),
			"user_id":   c.GetUint(ContextUserID),
		})

		switch {
		case c.Writer.Status() >= 500:
			entry.Error("API request")
		case c.Writer.Status() >= 400:
			entry.Warn("API request")
		default:
			entry.Info("API request")
		}
	}
}
