// Package api assembles the node's HTTP surface.
package api

import (
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/jmerrifield20/linkboard/internal/api/handler"
	"github.com/jmerrifield20/linkboard/internal/auth"
	"github.com/jmerrifield20/linkboard/internal/health"
	"github.com/jmerrifield20/linkboard/internal/journal"
	"github.com/jmerrifield20/linkboard/internal/runtime"
	"go.uber.org/zap"
)

// DefaultBodyLimit is the request body cap applied when Config.BodyLimit is 0.
const DefaultBodyLimit = 1 << 20

// Config holds the router's tunables.
type Config struct {
	CORSOrigins  []string
	RateLimitRPS int   // 0 = no rate limiting
	BodyLimit    int64 // bytes
	Metrics      bool  // serve /metrics and record request metrics
	AccessLog    bool
}

// Deps are the services the routes are served from. Journal, Issuer and
// Checker are optional: without an Issuer the faucet is not mounted.
type Deps struct {
	Processor *runtime.Processor
	Journal   journal.Journal
	Issuer    *auth.Issuer
	Checker   *health.Checker
	Logger    *zap.Logger
}

// NewRouter builds the gin engine. quit stops the rate limiter's background
// sweep.
func NewRouter(cfg Config, deps Deps, quit <-chan struct{}) *gin.Engine {
	logger := deps.Logger
	router := gin.New()
	router.Use(gin.Recovery())

	if len(cfg.CORSOrigins) > 0 {
		router.Use(cors.New(cors.Config{
			AllowOrigins:     cfg.CORSOrigins,
			AllowMethods:     []string{"GET", "POST", "OPTIONS"},
			AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", "Accept"},
			ExposeHeaders:    []string{"Content-Length"},
			AllowCredentials: !containsWildcard(cfg.CORSOrigins),
			MaxAge:           12 * time.Hour,
		}))
	}
	router.Use(handler.SecurityHeaders())

	limit := cfg.BodyLimit
	if limit <= 0 {
		limit = DefaultBodyLimit
	}
	router.Use(handler.BodyLimit(limit))

	if cfg.RateLimitRPS > 0 {
		router.Use(handler.RateLimiter(cfg.RateLimitRPS, cfg.RateLimitRPS*2, quit))
	}
	if cfg.Metrics {
		router.Use(handler.PrometheusMiddleware())
		router.GET("/metrics", handler.MetricsHandler())
	}
	if cfg.AccessLog {
		router.Use(handler.RequestLogger(logger))
	}

	hh := handler.NewHealthHandler(nil)
	if deps.Checker != nil {
		hh = handler.NewHealthHandler(deps.Checker)
	}
	hh.Register(router)

	v1 := router.Group("/api/v1")
	handler.NewTransactionHandler(deps.Processor, logger).Register(v1)
	handler.NewAccountHandler(deps.Processor.Store(), deps.Processor, logger).Register(v1)
	if deps.Journal != nil {
		handler.NewJournalHandler(deps.Journal, logger).Register(v1)
	}
	if deps.Issuer != nil {
		handler.NewAdminHandler(deps.Processor, deps.Issuer, logger).Register(v1)
	}
	return router
}

func containsWildcard(origins []string) bool {
	for _, o := range origins {
		if strings.TrimSpace(o) == "*" {
			return true
		}
	}
	return false
}
