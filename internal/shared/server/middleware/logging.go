package middleware

import (
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"ats-resume-checker/internal/shared/telemetry"
)

// Logging emits a structured log per request.
func Logging() gin.HandlerFunc {
	return func(c *gin.Context) {
		if strings.EqualFold(c.Request.Method, "OPTIONS") {
			c.Next()
			return
		}

		start := time.Now()
		c.Next()
		latency := time.Since(start)

		telemetry.Info("request.complete", map[string]any{
			"request_id":        RequestIDFromContext(c),
			"method":            c.Request.Method,
			"path":              c.Request.URL.Path,
			"status":            c.Writer.Status(),
			"status_transition": c.GetString("statusTransition"),
			"report_id":         c.GetString("reportId"),
			"industry":          c.GetString("industry"),
			"duration_ms":       float64(latency.Microseconds()) / 1000.0,
			"bytes":             c.Writer.Size(),
			"client_ip":         c.ClientIP(),
			"user_agent":        c.Request.UserAgent(),
		})
	}
}
