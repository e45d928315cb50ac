package api

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/use-agent/brightscrape/api/handler"
	"github.com/use-agent/brightscrape/api/middleware"
	"github.com/use-agent/brightscrape/cache"
	"github.com/use-agent/brightscrape/config"
	"github.com/use-agent/brightscrape/llm"
	"github.com/use-agent/brightscrape/runner"
)

// NewRouter creates a configured Gin engine with all routes and middleware.
//
// Middleware chain:
//
//	Global:  Recovery → Logger
//	API:     Auth (if enabled) → RateLimit
//
// Health endpoint is intentionally outside auth so monitoring probes always work.
func NewRouter(run *runner.Runner, llmClient *llm.Client, cc *cache.Cache, cfg *config.Config, startTime time.Time) *gin.Engine {
	gin.SetMode(cfg.Server.Mode)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(gin.Logger())

	v1 := r.Group("/api/v1")

	// Health — no auth required.
	v1.GET("/health", handler.Health(run, cfg, startTime))

	// Protected group — auth + rate limit.
	protected := v1.Group("")
	if cfg.Auth.Enabled {
		protected.Use(middleware.Auth(cfg.Auth.APIKeys))
	}
	protected.Use(middleware.RateLimit(cfg.RateLimit))

	// Scrape lifecycle
	protected.POST("/scrape", handler.Scrape(run))
	protected.POST("/stop", handler.Stop(run))

	// Dataset query via LLM
	protected.POST("/query", handler.Query(llmClient, cc, cfg))

	// Dataset export
	protected.GET("/dataset/export", handler.Export(cfg))

	return r
}
