package settlement

import (
	"net/http"
	"strconv"

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

func (ctrl *Controller) CancelPass(c *gin.Context) {
	visitorID, ok := middleware.GetUserID(c)
	if !ok {
		response.RespondJSON(c, "error", http.StatusUnauthorized, "User not authenticated", nil, nil)
		return
	}

	passID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.RespondJSON(c, "error", http.StatusBadRequest, "Invalid pass ID", nil, nil)
		return
	}

	var req CancelPassRequest
	if err := c.ShouldBindJSON(&req); err != nil && c.Request.ContentLength > 0 {
		response.RespondJSON(c, "error", http.StatusBadRequest, "Invalid request body", nil, err.Error())
		return
	}

	result, err := ctrl.service.CancelPass(c.Request.Context(), visitorID, passID, req.Reason)
	if err != nil {
		response.RespondJSON(c, "error", apperrors.HTTPStatus(err), "Failed to cancel pass", nil, err.Error())
		return
	}

	response.RespondJSON(c, "success", http.StatusOK, "Pass cancelled successfully", result, nil)
}

func (ctrl *Controller) CancelPasses(c *gin.Context) {
	visitorID, ok := middleware.GetUserID(c)
	if !ok {
		response.RespondJSON(c, "error", http.StatusUnauthorized, "User not authenticated", nil, nil)
		return
	}

	var req CancelPassesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondJSON(c, "error", http.StatusBadRequest, "Invalid request body", nil, err.Error())
		return
	}

	result, err := ctrl.service.CancelPasses(c.Request.Context(), visitorID, req.PassIDs, req.Reason)
	if err != nil {
		response.RespondJSON(c, "error", apperrors.HTTPStatus(err), "Failed to cancel passes", nil, err.Error())
		return
	}

	response.RespondJSON(c, "success", http.StatusOK, "Passes cancelled successfully", result, nil)
}

func (ctrl *Controller) CancelPlaceAsHost(c *gin.Context) {
	hostID, ok := middleware.GetUserID(c)
	if !ok {
		response.RespondJSON(c, "error", http.StatusUnauthorized, "User not authenticated", nil, nil)
		return
	}

	placeID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.RespondJSON(c, "error", http.StatusBadRequest, "Invalid place ID", nil, nil)
		return
	}

	var req CancelPlaceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondJSON(c, "error", http.StatusBadRequest, "Invalid request body", nil, err.Error())
		return
	}

	result, err := ctrl.service.CancelPlaceAsHost(c.Request.Context(), hostID, placeID, req.Reason)
	if err != nil {
		response.RespondJSON(c, "error", apperrors.HTTPStatus(err), "Failed to cancel place", nil, err.Error())
		return
	}

	response.RespondJSON(c, "success", http.StatusOK, "Place cancelled successfully", result, nil)
}

func (ctrl *Controller) CancelPlaceAsAdmin(c *gin.Context) {
	adminID, ok := middleware.GetUserID(c)
	if !ok {
		response.RespondJSON(c, "error", http.StatusUnauthorized, "User not authenticated", nil, nil)
		return
	}

	placeID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.RespondJSON(c, "error", http.StatusBadRequest, "Invalid place ID", nil, nil)
		return
	}

	var req CancelPlaceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondJSON(c, "error", http.StatusBadRequest, "Invalid request body", nil, err.Error())
		return
	}

	result, err := ctrl.service.CancelPlaceAsAdmin(c.Request.Context(), adminID, placeID, req.Reason)
	if err != nil {
		response.RespondJSON(c, "error", apperrors.HTTPStatus(err), "Failed to cancel place", nil, err.Error())
		return
	}

	response.RespondJSON(c, "success", http.StatusOK, "Place cancelled successfully", result, nil)
}

func (ctrl *Controller) ListRefunds(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))

	listing, err := ctrl.service.ListRefunds(c.Request.Context(), page, limit)
	if err != nil {
		response.RespondJSON(c, "error", apperrors.HTTPStatus(err), "Failed to list refunds", nil, err.Error())
		return
	}

	response.RespondJSON(c, "success", http.StatusOK, "Refunds retrieved successfully", listing, nil)
}

func (ctrl *Controller) DisableHost(c *gin.Context) {
	adminID, ok := middleware.GetUserID(c)
	if !ok {
		response.RespondJSON(c, "error", http.StatusUnauthorized, "User not authenticated", nil, nil)
		return
	}

	hostID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.RespondJSON(c, "error", http.StatusBadRequest, "Invalid host ID", nil, nil)
		return
	}

	var req DisableHostRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondJSON(c, "error", http.StatusBadRequest, "Invalid request body", nil, err.Error())
		return
	}

	result, err := ctrl.service.DisableHost(c.Request.Context(), adminID, hostID, req.Reason)
	if err != nil {
		response.RespondJSON(c, "error", apperrors.HTTPStatus(err), "Failed to disable host", nil, err.Error())
		return
	}

	response.RespondJSON(c, "success", http.StatusOK, "Host disabled successfully", result, nil)
}
