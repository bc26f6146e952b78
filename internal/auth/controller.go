package auth

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	"gatepass/internal/shared/middleware"
	"gatepass/internal/shared/utils/response"
)

type Controller struct {
	service  Service
	validate *validator.Validate
}

func NewController(service Service) *Controller {
	return &Controller{
		service:  service,
		validate: validator.New(),
	}
}

// authErrorStatus maps the package sentinels onto HTTP statuses. Anything
// unmapped is an internal failure.
func authErrorStatus(err error) int {
	switch {
	case errors.Is(err, ErrUserAlreadyExists):
		return http.StatusConflict
	case errors.Is(err, ErrInvalidCredentials),
		errors.Is(err, ErrInvalidToken),
		errors.Is(err, ErrTokenExpired):
		return http.StatusUnauthorized
	case errors.Is(err, ErrUserNotFound):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

func (ctrl *Controller) bind(c *gin.Context, req interface{}) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		response.RespondJSON(c, "error", http.StatusBadRequest, "Invalid request body", nil, err.Error())
		return false
	}
	if err := ctrl.validate.Struct(req); err != nil {
		response.RespondJSON(c, "error", http.StatusBadRequest, "Validation failed", nil, err.Error())
		return false
	}
	return true
}

func (ctrl *Controller) Register(c *gin.Context) {
	var req RegisterRequest
	if !ctrl.bind(c, &req) {
		return
	}

	resp, err := ctrl.service.Register(c.Request.Context(), &req)
	if err != nil {
		response.RespondJSON(c, "error", authErrorStatus(err), "Failed to register account", nil, err.Error())
		return
	}

	response.RespondJSON(c, "success", http.StatusCreated, "Account created successfully", resp, nil)
}

func (ctrl *Controller) Login(c *gin.Context) {
	var req LoginRequest
	if !ctrl.bind(c, &req) {
		return
	}

	resp, err := ctrl.service.Login(c.Request.Context(), &req)
	if err != nil {
		response.RespondJSON(c, "error", authErrorStatus(err), "Failed to sign in", nil, err.Error())
		return
	}

	response.RespondJSON(c, "success", http.StatusOK, "Signed in successfully", resp, nil)
}

func (ctrl *Controller) RefreshToken(c *gin.Context) {
	var req RefreshTokenRequest
	if !ctrl.bind(c, &req) {
		return
	}

	tokenPair, err := ctrl.service.RefreshToken(c.Request.Context(), req.RefreshToken)
	if err != nil {
		// A refresh token referencing a deleted account is as dead as an
		// expired one.
		status := authErrorStatus(err)
		if status == http.StatusNotFound {
			status = http.StatusUnauthorized
		}
		response.RespondJSON(c, "error", status, "Failed to refresh token", nil, err.Error())
		return
	}

	response.RespondJSON(c, "success", http.StatusOK, "Token refreshed successfully", tokenPair, nil)
}

// Logout is stateless: tokens stay valid until expiry, clients drop them.
func (ctrl *Controller) Logout(c *gin.Context) {
	var req LogoutRequest
	_ = c.ShouldBindJSON(&req)

	response.RespondJSON(c, "success", http.StatusOK, "Signed out successfully", nil, nil)
}

func (ctrl *Controller) ChangePassword(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		response.RespondJSON(c, "error", http.StatusUnauthorized, "User not authenticated", nil, nil)
		return
	}

	var req ChangePasswordRequest
	if !ctrl.bind(c, &req) {
		return
	}

	if err := ctrl.service.ChangePassword(c.Request.Context(), userID, &req); err != nil {
		response.RespondJSON(c, "error", authErrorStatus(err), "Failed to change password", nil, err.Error())
		return
	}

	response.RespondJSON(c, "success", http.StatusOK, "Password changed successfully", nil, nil)
}

func (ctrl *Controller) Me(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		response.RespondJSON(c, "error", http.StatusUnauthorized, "User not authenticated", nil, nil)
		return
	}

	profile, err := ctrl.service.Me(c.Request.Context(), userID)
	if err != nil {
		response.RespondJSON(c, "error", authErrorStatus(err), "Failed to load profile", nil, err.Error())
		return
	}

	response.RespondJSON(c, "success", http.StatusOK, "Profile retrieved successfully", profile, nil)
}
