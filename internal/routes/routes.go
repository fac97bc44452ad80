package routes

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"venuebook/internal/authz"
	"venuebook/internal/handlers"
	"venuebook/internal/middleware"
	"venuebook/internal/provider"
	"venuebook/internal/repositories"
)

func SetupRoutes(
	r *gin.Engine,
	authHandler *handlers.AuthHandler,
	verifyHandler *handlers.VerifyHandler,
	resetHandler *handlers.ResetHandler,
	prov provider.Client,
	users repositories.UserRepository,
	limiter *middleware.RateLimiter,
) *gin.Engine {

	// ---- public, rate limited per IP
	public := r.Group("/")
	public.Use(limiter.Middleware())
	{
		public.POST("/register", authHandler.Register)
		public.POST("/login", authHandler.Login)
		public.POST("/refresh", authHandler.Refresh)
		public.POST("/logout", authHandler.Logout)
		public.GET("/session", authHandler.Session)

		public.POST("/verify-email", verifyHandler.Confirm)
		public.POST("/verify-email/resend", verifyHandler.Resend)

		public.POST("/password-reset/request", resetHandler.Request)
		public.POST("/password-reset/resend", resetHandler.Resend)
		public.POST("/password-reset/verify", resetHandler.Verify)
	}

	// ---- session required; admin accounts use the back office, not the app
	authed := r.Group("/")
	authed.Use(middleware.AuthRequired(prov))
	authed.Use(middleware.RequireRoles(users,
		authz.RoleCustomer, authz.RoleOrganizer, authz.RoleCoordinator, authz.RoleVenueAdmin,
	))
	{
		authed.PUT("/password-reset", resetHandler.Update)
	}

	r.GET("/healthz", func(c *gin.Context) { c.JSON(200, gin.H{"status": "ok"}) })
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return r
}
