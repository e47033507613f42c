package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"ats-resume-checker/internal/analyses"
	"ats-resume-checker/internal/services/health"
	"ats-resume-checker/internal/shared/config"
	"ats-resume-checker/internal/shared/metrics"
	"ats-resume-checker/internal/shared/server/middleware"
	"ats-resume-checker/internal/shared/server/respond"
)

// RouterDeps wires handlers into the router.
type RouterDeps struct {
	Config          config.Config
	AnalysisHandler *analyses.Handler
	Health          *health.Service
}

// NewRouter constructs the Gin engine with middleware and routes registered.
func NewRouter(deps RouterDeps) *gin.Engine {
	if deps.Config.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	if deps.Config.MaxUploadBytes > 0 {
		// Multipart parts beyond this spill to temp files instead of memory.
		r.MaxMultipartMemory = deps.Config.MaxUploadBytes
	}

	r.Use(
		middleware.RequestID(),
		middleware.Logging(),
		middleware.Recovery(),
		middleware.CORS(deps.Config.CORSAllowOrigin),
	)

	r.GET("/metrics", metrics.Handler())

	api := r.Group("/api")
	api.GET("/health", func(c *gin.Context) {
		status := deps.Health.Status(c.Request.Context())
		code := http.StatusOK
		if !status.OK {
			code = http.StatusServiceUnavailable
		}
		respond.JSON(c, code, status)
	})
	if deps.AnalysisHandler != nil {
		deps.AnalysisHandler.RegisterRoutes(api)
	}

	return r
}

// Addr normalizes the listen address.
func Addr(port string) string {
	if port == "" {
		return ":8080"
	}
	if port[0] == ':' {
		return port
	}
	return ":" + port
}
