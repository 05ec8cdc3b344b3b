package api

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/use-agent/scorecard/api/handler"
	"github.com/use-agent/scorecard/api/middleware"
	"github.com/use-agent/scorecard/config"
)

// NewRouter creates a configured Gin engine with all routes and middleware.
//
// Middleware chain:
//
//	Global:  Recovery → Logger
//	API:     Auth (if enabled) → RateLimit
//
// Health stays outside auth so monitoring probes always work.
func NewRouter(gen handler.Generator, sp handler.StatsProvider, cfg *config.Config, startTime time.Time, version string) *gin.Engine {
	gin.SetMode(cfg.Server.Mode)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(gin.Logger())

	v1 := r.Group("/api/v1")

	v1.GET("/health", handler.Health(sp, startTime, version))

	protected := v1.Group("")
	if cfg.Auth.Enabled {
		protected.Use(middleware.Auth(cfg.Auth.APIKeys))
	}
	protected.Use(middleware.RateLimit(cfg.RateLimit))

	protected.POST("/scorecard", handler.Scorecard(gen, cfg.Report))

	return r
}
