package bookings

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"gatepass/internal/shared/apperrors"
	"gatepass/internal/shared/middleware"
	"gatepass/internal/shared/utils/response"
)

type Controller struct {
	service Service
}

func NewController(service Service) *Controller {
	return &Controller{service: service}
}

func (ctrl *Controller) CreateBooking(c *gin.Context) {
	visitorID, ok := middleware.GetUserID(c)
	if !ok {
		response.RespondJSON(c, "error", http.StatusUnauthorized, "User not authenticated", nil, nil)
		return
	}

	var req CreateBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondJSON(c, "error", http.StatusBadRequest, "Invalid request body", nil, err.Error())
		return
	}

	booking, err := ctrl.service.CreateBooking(c.Request.Context(), visitorID, req)
	if err != nil {
		response.RespondJSON(c, "error", apperrors.HTTPStatus(err), "Failed to create booking", nil, err.Error())
		return
	}

	response.RespondJSON(c, "success", http.StatusCreated, "Booking created successfully", booking, nil)
}

func (ctrl *Controller) ConfirmPayment(c *gin.Context) {
	visitorID, ok := middleware.GetUserID(c)
	if !ok {
		response.RespondJSON(c, "error", http.StatusUnauthorized, "User not authenticated", nil, nil)
		return
	}

	bookingID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.RespondJSON(c, "error", http.StatusBadRequest, "Invalid booking ID", nil, nil)
		return
	}

	var req ConfirmPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondJSON(c, "error", http.StatusBadRequest, "Invalid request body", nil, err.Error())
		return
	}

	booking, err := ctrl.service.ConfirmPayment(c.Request.Context(), visitorID, bookingID, req)
	if err != nil {
		response.RespondJSON(c, "error", apperrors.HTTPStatus(err), "Failed to confirm payment", nil, err.Error())
		return
	}

	response.RespondJSON(c, "success", http.StatusOK, "Payment confirmed successfully", booking, nil)
}

func (ctrl *Controller) GetBooking(c *gin.Context) {
	requesterID, ok := middleware.GetUserID(c)
	if !ok {
		response.RespondJSON(c, "error", http.StatusUnauthorized, "User not authenticated", nil, nil)
		return
	}
	requesterRole, _ := middleware.GetUserRole(c)

	bookingID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.RespondJSON(c, "error", http.StatusBadRequest, "Invalid booking ID", nil, nil)
		return
	}

	booking, err := ctrl.service.GetBooking(c.Request.Context(), requesterID, requesterRole, bookingID)
	if err != nil {
		response.RespondJSON(c, "error", apperrors.HTTPStatus(err), "Failed to get booking", nil, err.Error())
		return
	}

	response.RespondJSON(c, "success", http.StatusOK, "Booking retrieved successfully", booking, nil)
}

func (ctrl *Controller) ListMyBookings(c *gin.Context) {
	visitorID, ok := middleware.GetUserID(c)
	if !ok {
		response.RespondJSON(c, "error", http.StatusUnauthorized, "User not authenticated", nil, nil)
		return
	}

	var query BookingListQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.RespondJSON(c, "error", http.StatusBadRequest, "Invalid query parameters", nil, err.Error())
		return
	}

	result, err := ctrl.service.ListMyBookings(c.Request.Context(), visitorID, query)
	if err != nil {
		response.RespondJSON(c, "error", apperrors.HTTPStatus(err), "Failed to list bookings", nil, err.Error())
		return
	}

	response.RespondJSON(c, "success", http.StatusOK, "Bookings retrieved successfully", result, nil)
}
