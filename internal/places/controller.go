package places

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"gatepass/internal/shared/apperrors"
	"gatepass/internal/shared/middleware"
	"gatepass/internal/shared/utils/response"
)

type Controller struct {
	service   Service
	validator *validator.Validate
}

func NewController(service Service) *Controller {
	return &Controller{
		service:   service,
		validator: validator.New(),
	}
}

// CreatePlace handles POST /api/v1/places (host)
func (c *Controller) CreatePlace(ctx *gin.Context) {
	hostID, ok := middleware.GetUserID(ctx)
	if !ok {
		response.RespondJSON(ctx, "error", http.StatusUnauthorized, "User not authenticated", nil, nil)
		return
	}

	var req CreatePlaceRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		response.RespondJSON(ctx, "error", http.StatusBadRequest, "Invalid request body", nil, err.Error())
		return
	}

	place, err := c.service.CreatePlace(ctx.Request.Context(), hostID, req)
	if err != nil {
		response.RespondJSON(ctx, "error", apperrors.HTTPStatus(err), "Failed to create place", nil, err.Error())
		return
	}

	response.RespondJSON(ctx, "success", http.StatusCreated, "Place created successfully", place, nil)
}

// GetPlace handles GET /api/v1/places/:id (public)
func (c *Controller) GetPlace(ctx *gin.Context) {
	id, err := uuid.Parse(ctx.Param("id"))
	if err != nil {
		response.RespondJSON(ctx, "error", http.StatusBadRequest, "Invalid place ID", nil, nil)
		return
	}

	place, err := c.service.GetPlace(ctx.Request.Context(), id)
	if err != nil {
		response.RespondJSON(ctx, "error", apperrors.HTTPStatus(err), "Failed to get place", nil, err.Error())
		return
	}

	response.RespondJSON(ctx, "success", http.StatusOK, "Place retrieved successfully", place, nil)
}

// UpdatePlace handles PUT /api/v1/places/:id (host)
func (c *Controller) UpdatePlace(ctx *gin.Context) {
	hostID, ok := middleware.GetUserID(ctx)
	if !ok {
		response.RespondJSON(ctx, "error", http.StatusUnauthorized, "User not authenticated", nil, nil)
		return
	}

	id, err := uuid.Parse(ctx.Param("id"))
	if err != nil {
		response.RespondJSON(ctx, "error", http.StatusBadRequest, "Invalid place ID", nil, nil)
		return
	}

	var req UpdatePlaceRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		response.RespondJSON(ctx, "error", http.StatusBadRequest, "Invalid request body", nil, err.Error())
		return
	}

	place, err := c.service.UpdatePlace(ctx.Request.Context(), id, hostID, req)
	if err != nil {
		response.RespondJSON(ctx, "error", apperrors.HTTPStatus(err), "Failed to update place", nil, err.Error())
		return
	}

	response.RespondJSON(ctx, "success", http.StatusOK, "Place updated successfully", place, nil)
}

// ListMyPlaces handles GET /api/v1/places/mine (host)
func (c *Controller) ListMyPlaces(ctx *gin.Context) {
	hostID, ok := middleware.GetUserID(ctx)
	if !ok {
		response.RespondJSON(ctx, "error", http.StatusUnauthorized, "User not authenticated", nil, nil)
		return
	}

	list, err := c.service.ListMyPlaces(ctx.Request.Context(), hostID)
	if err != nil {
		response.RespondJSON(ctx, "error", apperrors.HTTPStatus(err), "Failed to list places", nil, err.Error())
		return
	}

	response.RespondJSON(ctx, "success", http.StatusOK, "Places retrieved successfully", list, nil)
}

// BrowsePlaces handles GET /api/v1/places (public)
func (c *Controller) BrowsePlaces(ctx *gin.Context) {
	var query ListQuery
	if err := ctx.ShouldBindQuery(&query); err != nil {
		response.RespondJSON(ctx, "error", http.StatusBadRequest, "Invalid query parameters", nil, err.Error())
		return
	}

	result, err := c.service.BrowsePlaces(ctx.Request.Context(), query)
	if err != nil {
		response.RespondJSON(ctx, "error", apperrors.HTTPStatus(err), "Failed to browse places", nil, err.Error())
		return
	}

	response.RespondJSON(ctx, "success", http.StatusOK, "Places retrieved successfully", result, nil)
}

// ApplyOverride handles PATCH /api/v1/admin/places/:id/override (admin)
func (c *Controller) ApplyOverride(ctx *gin.Context) {
	id, err := uuid.Parse(ctx.Param("id"))
	if err != nil {
		response.RespondJSON(ctx, "error", http.StatusBadRequest, "Invalid place ID", nil, nil)
		return
	}

	var req OverrideRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		response.RespondJSON(ctx, "error", http.StatusBadRequest, "Invalid request body", nil, err.Error())
		return
	}

	place, err := c.service.ApplyOverride(ctx.Request.Context(), id, req)
	if err != nil {
		response.RespondJSON(ctx, "error", apperrors.HTTPStatus(err), "Failed to apply override", nil, err.Error())
		return
	}

	response.RespondJSON(ctx, "success", http.StatusOK, "Override applied successfully", place, nil)
}
