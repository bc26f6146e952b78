package places

import (
	"gatepass/internal/shared/middleware"

	"github.com/gin-gonic/gin"
)

func SetupPlaceRoutes(rg *gin.RouterGroup, controller *Controller) {
	// Public browse routes
	public := rg.Group("/places")
	{
		public.GET("", controller.BrowsePlaces)
		public.GET("/:id", controller.GetPlace)
	}

	// Host management routes
	host := rg.Group("/host/places")
	host.Use(middleware.JWTAuth(), middleware.RequireRoles("HOST"))
	{
		host.POST("", controller.CreatePlace)
		host.GET("", controller.ListMyPlaces)
		host.PUT("/:id", controller.UpdatePlace)
	}

	// Admin override routes
	admin := rg.Group("/admin/places")
	admin.Use(middleware.JWTAuth(), middleware.RequireRoles("ADMIN"))
	{
		admin.PATCH("/:id/override", controller.ApplyOverride)
	}
}
