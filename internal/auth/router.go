package auth

import (
	"github.com/gin-gonic/gin"

	"gatepass/internal/shared/config"
	"gatepass/internal/shared/middleware"
)

// SetupAuthRoutes mounts the public credential endpoints and the
// token-protected account endpoints.
func SetupAuthRoutes(rg *gin.RouterGroup, controller *Controller, cfg *config.Config) {
	auth := rg.Group("/auth")
	{
		auth.POST("/register", controller.Register)
		auth.POST("/login", controller.Login)
		auth.POST("/refresh", controller.RefreshToken)
		auth.POST("/logout", controller.Logout)

		account := auth.Group("")
		account.Use(middleware.JWTAuthWithConfig(cfg))
		{
			account.PUT("/change-password", controller.ChangePassword)
			account.GET("/me", controller.Me)
		}
	}
}
