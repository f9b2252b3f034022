package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"social-insight/internal/insights"
	"social-insight/internal/services/health"
	"social-insight/internal/shared/config"
	"social-insight/internal/shared/metrics"
	"social-insight/internal/shared/server/middleware"
	"social-insight/internal/shared/server/respond"
)

// RouterDeps holds the handlers mounted by NewRouter.
type RouterDeps struct {
	Config          config.Config
	InsightsHandler *insights.Handler
	Health          *health.Service
}

// NewRouter constructs the Gin engine with middleware and routes registered.
func NewRouter(deps RouterDeps) *gin.Engine {
	if deps.Config.IsDevLike() {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()

	r.Use(
		middleware.RequestID(),
		middleware.Logging(),
		middleware.Recovery(),
		middleware.CORS(deps.Config.CORSAllowOrigin),
	)

	api := r.Group("/api/v1")
	api.GET("/health", func(c *gin.Context) {
		respond.JSON(c, http.StatusOK, deps.Health.Status())
	})
	api.GET("/metrics", metrics.Handler())
	if deps.InsightsHandler != nil {
		deps.InsightsHandler.RegisterRoutes(api)
	}

	return r
}

// SubmitLimiter builds the per-client rate limit applied to batch submission. A zero rate
// disables it.
func SubmitLimiter(cfg config.Config) gin.HandlerFunc {
	if cfg.SubmitRatePerMinute <= 0 {
		return nil
	}
	burst := cfg.SubmitBurst
	if burst <= 0 {
		burst = 1
	}
	return middleware.RateLimit(middleware.RateLimitConfig{
		Rules: map[string]middleware.RateLimitRule{
			"SUBMIT": middleware.PerMinute(cfg.SubmitRatePerMinute, burst),
		},
		DefaultGroup: "SUBMIT",
	})
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
