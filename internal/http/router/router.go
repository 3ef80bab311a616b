package router

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Derecoder4/Freelance-Fi/internal/config"
	"github.com/Derecoder4/Freelance-Fi/internal/http/handlers"
	"github.com/Derecoder4/Freelance-Fi/internal/http/middleware"
	"github.com/Derecoder4/Freelance-Fi/internal/service"
)

func SetupRouter(
	cfg *config.Config,
	gigHandler *handlers.GigHandler,
	accountHandler *handlers.AccountHandler,
	authHandler *handlers.AuthHandler,
	wsHandler *handlers.WSHandler,
	healthHandler *handlers.HealthHandler,
	metricsHandler http.Handler,
	tokenManager *service.TokenManager,
) *gin.Engine {
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Logger(), gin.Recovery())
	r.Use(middleware.ErrorHandler())
	r.Use(middleware.CORSMiddleware(cfg.AllowedOrigins))

	r.GET("/health", healthHandler.Health)
	if metricsHandler != nil {
		r.GET("/metrics", gin.WrapH(metricsHandler))
	}

	api := r.Group("/api")

	// Публичные маршруты
	api.GET("/arbiter", accountHandler.Arbiter)
	api.GET("/gigs/ids", gigHandler.ListGigIDs)
	api.GET("/gigs/:id", middleware.GigIDValidator("id"), gigHandler.GetGig)
	api.GET("/gigs/:id/transfers", middleware.GigIDValidator("id"), gigHandler.ListTransfers)
	if wsHandler != nil {
		api.GET("/ws", wsHandler.Handle)
	}

	if !cfg.IsProduction() {
		authGroup := api.Group("/auth")
		authGroup.Use(middleware.RateLimitMiddleware(cfg.RateLimitLimit, cfg.RateLimitPeriod))
		authGroup.POST("/dev-token", authHandler.DevToken)
	}

	// Защищённые маршруты
	protected := api.Group("/")
	protected.Use(middleware.AuthMiddleware(tokenManager))
	protected.Use(middleware.RateLimitMiddleware(cfg.RateLimitLimit, cfg.RateLimitPeriod))
	{
		protected.GET("/auth/me", authHandler.Me)

		protected.POST("/gigs", gigHandler.CreateGig)
		protected.GET("/gigs", gigHandler.ListGigs)
		protected.POST("/gigs/:id/accept", middleware.GigIDValidator("id"), gigHandler.AcceptGig)
		protected.POST("/gigs/:id/release", middleware.GigIDValidator("id"), gigHandler.ReleaseFunds)
		protected.POST("/gigs/:id/refund", middleware.GigIDValidator("id"), gigHandler.Refund)
		protected.POST("/gigs/:id/dispute", middleware.GigIDValidator("id"), gigHandler.DisputeGig)
		protected.POST("/gigs/:id/resolve", middleware.GigIDValidator("id"), gigHandler.ResolveDispute)

		protected.GET("/accounts/me/balance", accountHandler.GetBalance)
		protected.GET("/accounts/me/transfers", accountHandler.ListTransfers)
		protected.POST("/accounts/deposit", accountHandler.Deposit)
	}

	return r
}
