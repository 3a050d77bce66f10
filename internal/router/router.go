package router

import (
	"context"
	"time"

	"github.com/Aditya06pandey1368/LMS-Project/internal/config"
	"github.com/Aditya06pandey1368/LMS-Project/internal/handler"
	"github.com/Aditya06pandey1368/LMS-Project/internal/middleware"
	"github.com/Aditya06pandey1368/LMS-Project/internal/response"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// Handlers groups all handler instances for route setup.
type Handlers struct {
	MockTest *handler.MockTestHandler
	Notes    *handler.NotesHandler
	WS       *handler.WSHandler
	System   *handler.SystemHandler
}

// SetupRouter configures all Gin route groups with appropriate middlewares.
// ctx bounds background upkeep such as rate limiter cleanup.
func SetupRouter(
	ctx context.Context,
	auth middleware.TokenValidator,
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
		corsConfig.AllowCredentials = true
	} else {
		corsConfig.AllowAllOrigins = true
	}
	corsConfig.AllowMethods = []string{"GET", "POST", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Authorization", "X-Request-ID"}
	corsConfig.ExposeHeaders = []string{"X-Request-ID", "Content-Disposition"}
	corsConfig.MaxAge = 12 * time.Hour
	router.Use(cors.New(corsConfig))

	// Apply request ID middleware globally so every response includes metadata.
	router.Use(response.RequestIDMiddleware())

	router.Use(middleware.Brotli())

	router.GET("/health", handlers.System.Health)

	// Starting a test calls the generator, so it is limited per user.
	startLimiter := middleware.NewRateLimiter(cfg.StartRateLimitPerMin, time.Minute, middleware.ByUserOrIP)
	go startLimiter.RunCleanup(ctx)

	// ─── 1. API Group (user identity required) ─────────────────────────
	api := router.Group("/api/v1")
	api.Use(middleware.RequireUser(auth, cfg.AuthCookieName))
	{
		mocktests := api.Group("/mocktests")
		mocktests.Use(middleware.NoStore())
		{
			mocktests.POST("/start", startLimiter.Middleware(), handlers.MockTest.Start)
			mocktests.POST("/answer", handlers.MockTest.RecordAnswer)
			mocktests.POST("/submit", handlers.MockTest.Submit)
			mocktests.GET("/last/:courseId", handlers.MockTest.GetLastResult)
			mocktests.GET("/history/:courseId", handlers.MockTest.History)
			mocktests.GET("/history/:courseId/export", handlers.MockTest.ExportHistory)
			mocktests.GET("/stats/:courseId", handlers.MockTest.CourseStats)
			mocktests.GET("/session/:sessionId", handlers.MockTest.GetSession)
			mocktests.GET("/:sessionId", handlers.MockTest.GetSession)
		}

		api.POST("/notes/generate", handlers.Notes.Generate)
	}

	// ─── 2. WebSocket Group (token may come from the query) ────────────
	ws := router.Group("/ws/v1")
	ws.Use(middleware.RequireUserWS(auth, cfg.AuthCookieName))
	{
		ws.GET("/mocktests/:sessionId/stream", handlers.WS.SessionStream)
	}

	return router
}
