package router

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/learnpath/engage-backend/internal/config"
	"github.com/learnpath/engage-backend/internal/handler"
	"github.com/learnpath/engage-backend/internal/middleware"
	"github.com/learnpath/engage-backend/internal/model"
	"github.com/learnpath/engage-backend/internal/response"
	"github.com/learnpath/engage-backend/internal/service"
)

// Handlers groups all handler instances for route setup.
type Handlers struct {
	Auth       *handler.AuthHandler
	Engagement *handler.EngagementHandler
	Monitor    *handler.MonitorHandler
	WS         *handler.WSHandler
	System     *handler.SystemHandler
}

// SetupRouter configures all Gin route groups with appropriate middlewares.
func SetupRouter(
	authService *service.AuthService,
	handlers *Handlers,
	cfg *config.Config,
) *gin.Engine {
	gin.SetMode(cfg.GinMode)
	router := gin.Default()

	// ─── CORS ──────────────────────────────────────────────────────────
	// If AllowedOrigins is set in config, restrict to that list;
	// otherwise allow all (*) so dev works without extra config.
	corsConfig := cors.DefaultConfig()
	if len(cfg.AllowedOrigins) > 0 {
		corsConfig.AllowOrigins = cfg.AllowedOrigins
	} else {
		corsConfig.AllowAllOrigins = true
	}
	corsConfig.AllowMethods = []string{"GET", "POST", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Authorization", "X-Request-ID"}
	corsConfig.ExposeHeaders = []string{"X-Request-ID"}
	corsConfig.MaxAge = 12 * time.Hour
	router.Use(cors.New(corsConfig))

	// Apply request ID middleware globally so every response includes metadata.
	router.Use(response.RequestIDMiddleware())

	// Apply brotli middleware globally.
	router.Use(middleware.Brotli())

	// Liveness probe with dependency checks.
	router.GET("/healthz", handlers.System.Healthz)

	// Rate limiter for the credential exchange (30 requests per minute per IP).
	authLimiter := middleware.NewRateLimiter(30, time.Minute)

	// ─── 1. Auth Group (Public, Rate Limited) ──────────────────────────
	auth := router.Group("/v1/auth")
	auth.Use(authLimiter.Middleware())
	{
		auth.POST("/token", handlers.Auth.IssueToken)
	}

	// ─── 2. Session Group (JWT + Key Freshness) ────────────────────────
	sessions := router.Group("/v1/sessions")
	sessions.Use(
		middleware.RequireClientJWT(authService),
		middleware.CheckKeyFreshness(authService),
		middleware.NoStore(),
	)
	{
		learner := sessions.Group("/:sessionId/learners/:userId")
		learner.POST("/interactions",
			middleware.RequireScope(model.ScopeIngest),
			handlers.Engagement.TrackInteraction,
		)
		learner.GET("/score",
			middleware.RequireScope(model.ScopeRead),
			handlers.Engagement.GetScore,
		)
		learner.GET("/break",
			middleware.RequireScope(model.ScopeRead),
			handlers.Engagement.GetBreakStatus,
		)
		learner.GET("/break/recommendation",
			middleware.RequireScope(model.ScopeRead),
			handlers.Engagement.GetBreakRecommendation,
		)
		learner.POST("/breaks",
			middleware.RequireScope(model.ScopeIngest),
			handlers.Engagement.RecordBreak,
		)
		learner.POST("/end",
			middleware.RequireScope(model.ScopeIngest),
			handlers.Engagement.EndSession,
		)
	}

	// ─── 3. WebSocket Group (Query Token Auth) ─────────────────────────
	ws := router.Group("/v1/ws")
	ws.Use(
		middleware.RequireClientWSAuth(authService),
		middleware.CheckKeyFreshness(authService),
		middleware.RequireScope(model.ScopeIngest),
	)
	{
		ws.GET("/sessions/:sessionId/learners/:userId", handlers.WS.SessionStream)
	}

	// ─── 4. Monitor Group (JWT + monitor scope) ────────────────────────
	monitor := router.Group("/v1/monitor")
	monitor.Use(
		middleware.RequireClientJWT(authService),
		middleware.CheckKeyFreshness(authService),
		middleware.NoStore(),
	)
	{
		monitor.GET("/sessions",
			middleware.RequireScope(model.ScopeMonitor),
			handlers.Monitor.ListSessions,
		)
		monitor.GET("/sessions/stream",
			middleware.RequireScope(model.ScopeMonitor),
			handlers.Monitor.StreamSessions,
		)
		monitor.GET("/alerts",
			middleware.RequireScope(model.ScopeMonitor),
			handlers.Monitor.ListAlerts,
		)
		monitor.POST("/alerts/:alertId/ack",
			middleware.RequireScope(model.ScopeMonitor),
			handlers.Monitor.AcknowledgeAlert,
		)
		monitor.GET("/health",
			middleware.RequireScope(model.ScopeMonitor),
			handlers.Monitor.Health,
		)

		// System Monitoring
		monitor.GET("/system/metrics",
			middleware.RequireScope(model.ScopeAdmin),
			handlers.System.SystemMetricsSSE,
		)
	}

	return router
}
