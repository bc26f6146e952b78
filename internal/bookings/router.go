package bookings

import (
	"gatepass/internal/shared/middleware"

	"github.com/gin-gonic/gin"
)

func SetupBookingRoutes(rg *gin.RouterGroup, controller *Controller) {
	// All booking endpoints are visitor-scoped; ownership is enforced in
	// the service layer.
	bookingRoutes := rg.Group("/bookings")
	bookingRoutes.Use(middleware.JWTAuth())
	{
		bookingRoutes.POST("", controller.CreateBooking)
		bookingRoutes.GET("", controller.ListMyBookings)
		bookingRoutes.GET("/:id", controller.GetBooking)
		bookingRoutes.POST("/:id/confirm-payment", controller.ConfirmPayment)
	}
}
