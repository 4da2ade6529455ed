package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yukikurage/projectdesk/internal/facade"
	"github.com/yukikurage/projectdesk/internal/middleware"
	"github.com/yukikurage/projectdesk/internal/services"
)

// RegisterRoutes mounts the health check, the auth routes and the entity
// routes on r. Session middleware must already be installed.
func RegisterRoutes(r *gin.Engine, f *facade.Facade, identity *services.IdentityService) {
	authHandler := NewAuthHandler(f, identity)
	entityHandler := NewEntityHandler(f)

	r.Use(middleware.RequestID())

	// Health check endpoint
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "ok",
			"message": "ProjectDesk API is running",
		})
	})

	api := r.Group("/api")
	{
		// Auth routes (public)
		auth := api.Group("/auth")
		{
			auth.POST("/register", authHandler.Register)
			auth.POST("/login", authHandler.Login)
			auth.POST("/logout", authHandler.Logout)
			auth.GET("/me", middleware.RequireAuth(f), authHandler.GetCurrentUser)
		}

		// Entity routes authenticate inside the facade
		entityHandler.Register(api)
	}
}
