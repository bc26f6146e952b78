package settlement

import (
	"gatepass/internal/shared/middleware"

	"github.com/gin-gonic/gin"
)

// SetupSettlementRoutes mounts every cancellation entry point. All three
// actor paths converge on the same engine; only pre-filtering and
// authorization differ per route.
func SetupSettlementRoutes(rg *gin.RouterGroup, controller *Controller) {
	// Visitor self-service cancellation
	visitor := rg.Group("/passes")
	visitor.Use(middleware.JWTAuth())
	{
		visitor.POST("/:id/cancel", controller.CancelPass)
		visitor.POST("/cancel-batch", controller.CancelPasses)
	}

	// Host event cancellation
	host := rg.Group("/host/places")
	host.Use(middleware.JWTAuth(), middleware.RequireRoles("HOST"))
	{
		host.POST("/:id/cancel", controller.CancelPlaceAsHost)
	}

	// Admin emergency paths
	admin := rg.Group("/admin")
	admin.Use(middleware.JWTAuth(), middleware.RequireRoles("ADMIN"))
	{
		admin.POST("/places/:id/cancel", controller.CancelPlaceAsAdmin)
		admin.POST("/hosts/:id/disable", controller.DisableHost)
		admin.GET("/refunds", controller.ListRefunds)
	}
}
