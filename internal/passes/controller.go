package passes

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

// ScanRequest carries the QR token presented at the gate.
type ScanRequest struct {
	QRToken string `json:"qr_token" binding:"required"`
}

// GetPass handles GET /api/v1/passes/:id
func (c *Controller) GetPass(ctx *gin.Context) {
	actorID, ok := middleware.GetUserID(ctx)
	if !ok {
		response.RespondJSON(ctx, "error", http.StatusUnauthorized, "User not authenticated", nil, nil)
		return
	}

	id, err := uuid.Parse(ctx.Param("id"))
	if err != nil {
		response.RespondJSON(ctx, "error", http.StatusBadRequest, "Invalid pass ID", nil, nil)
		return
	}

	pass, err := c.service.GetPass(ctx.Request.Context(), id, actorID)
	if err != nil {
		response.RespondJSON(ctx, "error", apperrors.HTTPStatus(err), "Failed to get pass", nil, err.Error())
		return
	}

	response.RespondJSON(ctx, "success", http.StatusOK, "Pass retrieved successfully", pass, nil)
}

// ListMyPasses handles GET /api/v1/passes
func (c *Controller) ListMyPasses(ctx *gin.Context) {
	visitorID, ok := middleware.GetUserID(ctx)
	if !ok {
		response.RespondJSON(ctx, "error", http.StatusUnauthorized, "User not authenticated", nil, nil)
		return
	}

	list, err := c.service.ListMyPasses(ctx.Request.Context(), visitorID)
	if err != nil {
		response.RespondJSON(ctx, "error", apperrors.HTTPStatus(err), "Failed to list passes", nil, err.Error())
		return
	}

	response.RespondJSON(ctx, "success", http.StatusOK, "Passes retrieved successfully", list, nil)
}

// ListPlacePasses handles GET /api/v1/host/places/:id/passes
func (c *Controller) ListPlacePasses(ctx *gin.Context) {
	hostID, ok := middleware.GetUserID(ctx)
	if !ok {
		response.RespondJSON(ctx, "error", http.StatusUnauthorized, "User not authenticated", nil, nil)
		return
	}

	placeID, err := uuid.Parse(ctx.Param("id"))
	if err != nil {
		response.RespondJSON(ctx, "error", http.StatusBadRequest, "Invalid place ID", nil, nil)
		return
	}

	list, err := c.service.ListPlacePasses(ctx.Request.Context(), placeID, hostID)
	if err != nil {
		response.RespondJSON(ctx, "error", apperrors.HTTPStatus(err), "Failed to list place passes", nil, err.Error())
		return
	}

	response.RespondJSON(ctx, "success", http.StatusOK, "Passes retrieved successfully", list, nil)
}

// VerifyQR handles POST /api/v1/scan/verify
func (c *Controller) VerifyQR(ctx *gin.Context) {
	var req ScanRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		response.RespondJSON(ctx, "error", http.StatusBadRequest, "Invalid request body", nil, err.Error())
		return
	}

	result, err := c.service.VerifyQR(ctx.Request.Context(), req.QRToken)
	if err != nil {
		response.RespondJSON(ctx, "error", apperrors.HTTPStatus(err), "Failed to verify pass", nil, err.Error())
		return
	}

	response.RespondJSON(ctx, "success", http.StatusOK, "Pass verified", result, nil)
}

// CheckIn handles POST /api/v1/scan/check-in
func (c *Controller) CheckIn(ctx *gin.Context) {
	var req ScanRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		response.RespondJSON(ctx, "error", http.StatusBadRequest, "Invalid request body", nil, err.Error())
		return
	}

	result, err := c.service.CheckIn(ctx.Request.Context(), req.QRToken)
	if err != nil {
		response.RespondJSON(ctx, "error", apperrors.HTTPStatus(err), "Check-in failed", nil, err.Error())
		return
	}

	response.RespondJSON(ctx, "success", http.StatusOK, "Guest checked in", result, nil)
}

// ExpirePasses handles POST /api/v1/admin/passes/expire
func (c *Controller) ExpirePasses(ctx *gin.Context) {
	count, err := c.service.ExpirePastDue(ctx.Request.Context())
	if err != nil {
		response.RespondJSON(ctx, "error", apperrors.HTTPStatus(err), "Failed to expire passes", nil, err.Error())
		return
	}

	response.RespondJSON(ctx, "success", http.StatusOK, "Expiry sweep completed", gin.H{"expired_count": count}, nil)
}

// CheckOut handles POST /api/v1/scan/check-out
func (c *Controller) CheckOut(ctx *gin.Context) {
	var req ScanRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		response.RespondJSON(ctx, "error", http.StatusBadRequest, "Invalid request body", nil, err.Error())
		return
	}

	result, err := c.service.CheckOut(ctx.Request.Context(), req.QRToken)
	if err != nil {
		response.RespondJSON(ctx, "error", apperrors.HTTPStatus(err), "Check-out failed", nil, err.Error())
		return
	}

	response.RespondJSON(ctx, "success", http.StatusOK, "Guest checked out", result, nil)
}
