package main

import (
	"github.com/codehivehq/codehive/backend/internal/handlers"
	"github.com/codehivehq/codehive/backend/internal/middleware"
	"github.com/codehivehq/codehive/backend/pkg/logger"
	"github.com/gin-gonic/gin"
)

// registerRoutes sets up all HTTP routes on the given Gin engine.
func registerRoutes(r *gin.Engine, svc *appServices) {
	r.Use(logger.GinLogger(), logger.GinRecovery())
	r.RedirectTrailingSlash = false
	r.RedirectFixedPath = false
	r.Use(middleware.CORS())

	// Rate limiter for the public auth endpoints
	authLimiter := middleware.NewRateLimiter(5, 10)

	r.GET("/health", handlers.Health)

	// Websocket chat: token is carried in the handshake, not a header the
	// auth middleware can see, so the handler authenticates itself.
	r.GET("/ws/projects/:id", svc.wsHandler.JoinProject)

	api := r.Group("/api")
	{
		// Public routes
		api.POST("/users/register", authLimiter.Middleware(), svc.userHandler.Register)

		auth := api.Group("/auth")
		{
			auth.POST("/login", authLimiter.Middleware(), svc.authHandler.Login)
			auth.POST("/refresh", svc.authHandler.Refresh)
		}

		// Protected routes
		protected := api.Group("")
		protected.Use(middleware.AuthRequired())
		{
			protected.GET("/auth/me", svc.authHandler.GetCurrentUser)
			protected.POST("/auth/logout", svc.authHandler.Logout)

			protected.GET("/users", svc.userHandler.List)

			protected.POST("/projects", svc.projectHandler.Create)
			protected.GET("/projects", svc.projectHandler.List)
			protected.GET("/projects/:id", svc.projectHandler.GetByID)
			protected.PUT("/projects/:id", svc.projectHandler.Update)

			protected.POST("/projects/:id/members", svc.projectMemberHandler.Add)
			protected.DELETE("/projects/:id/members/:userID", svc.projectMemberHandler.Remove)
			protected.PUT("/projects/:id/members/:userID/role", svc.projectMemberHandler.UpdateRole)
		}
	}
}
