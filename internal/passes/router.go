package passes

import (
	"gatepass/internal/shared/middleware"

	"github.com/gin-gonic/gin"
)

func SetupPassRoutes(rg *gin.RouterGroup, controller *Controller) {
	// Visitor pass routes
	visitor := rg.Group("/passes")
	visitor.Use(middleware.JWTAuth(), middleware.RequireRoles("VISITOR", "HOST", "ADMIN"))
	{
		visitor.GET("", controller.ListMyPasses)
		visitor.GET("/:id", controller.GetPass)
	}

	// Host pass listing per place
	host := rg.Group("/host/places")
	host.Use(middleware.JWTAuth(), middleware.RequireRoles("HOST"))
	{
		host.GET("/:id/passes", controller.ListPlacePasses)
	}

	// Admin maintenance routes
	admin := rg.Group("/admin/passes")
	admin.Use(middleware.JWTAuth(), middleware.RequireRoles("ADMIN"))
	{
		admin.POST("/expire", controller.ExpirePasses)
	}

	// Gate security scan routes (host staff and admins)
	scan := rg.Group("/scan")
	scan.Use(middleware.JWTAuth(), middleware.RequireRoles("HOST", "ADMIN"))
	{
		scan.POST("/verify", controller.VerifyQR)
		scan.POST("/check-in", controller.CheckIn)
		scan.POST("/check-out", controller.CheckOut)
	}
}
