package api

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/use-agent/scrapekit/api/handler"
	"github.com/use-agent/scrapekit/api/middleware"
	"github.com/use-agent/scrapekit/config"
	"github.com/use-agent/scrapekit/engine"
	"github.com/use-agent/scrapekit/history"
)

// Deps are the collaborators the routes are wired to.
type Deps struct {
	Dispatcher *engine.Dispatcher

	// Store lists history; Recorder receives new entries. Recorder usually
	// tees Store with a webhook forwarder.
	Store    history.Store
	Recorder history.Recorder

	// Sessions reports live browser sessions; nil when automation is off.
	Sessions handler.SessionCounter

	StartTime time.Time
}

// NewRouter creates a configured Gin engine with all routes and middleware.
//
// Middleware chain:
//
//	Global:    Recovery → Logger
//	/scrape:   Identity (optional) → RateLimit
//	/history:  Identity (required) → RateLimit
//	/auth:     Identity (required) → RateLimit
//
// Health endpoint is outside auth so monitoring probes always work.
func NewRouter(cfg *config.Config, deps Deps) *gin.Engine {
	gin.SetMode(cfg.Server.Mode)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(gin.Logger())

	v1 := r.Group("/api/v1")

	v1.GET("/health", handler.Health(deps.Sessions, deps.StartTime))

	limit := middleware.RateLimit(cfg.RateLimit)

	open := v1.Group("", middleware.Identity(cfg.Auth.Keys, false), limit)
	open.POST("/scrape", handler.Scrape(deps.Dispatcher, deps.Recorder))

	authed := v1.Group("", middleware.Identity(cfg.Auth.Keys, true), limit)
	authed.GET("/history", handler.History(deps.Store))
	authed.GET("/auth", handler.Auth())

	return r
}
