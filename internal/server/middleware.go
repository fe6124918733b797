package server

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/julianstephens/emomap/internal/logger"
)

// requestLogger logs one line per request through the application logger.
func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		status := c.Writer.Status()
		fields := []interface{}{
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", status,
			"duration", time.Since(start),
		}
		if len(c.Errors) > 0 {
			fields = append(fields, "error", c.Errors.String())
		}
		if status >= http.StatusInternalServerError {
			logger.Error("HTTP request", fields...)
		} else {
			logger.Debug("HTTP request", fields...)
		}
	}
}

// securityHeaders sets the headers a local read-only page still wants.
func securityHeaders() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("X-Content-Type-Options", "nosniff")
		c.Writer.Header().Set("X-Frame-Options", "DENY")
		c.Writer.Header().Set("Referrer-Policy", "no-referrer")
		c.Next()
	}
}

// readOnly rejects anything but GET and HEAD.
func readOnly() gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.Method != http.MethodGet && c.Request.Method != http.MethodHead {
			c.AbortWithStatusJSON(http.StatusMethodNotAllowed, gin.H{"error": "this server is read-only"})
			return
		}
		c.Next()
	}
}
