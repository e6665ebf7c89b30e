package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/sistem-rt/portal-api/internal/models"
	appErrors "github.com/sistem-rt/portal-api/pkg/errors"
	"github.com/sistem-rt/portal-api/pkg/response"
)

type authService interface {
	Register(ctx context.Context, req models.RegisterRequest) (*models.User, error)
	Login(ctx context.Context, req models.LoginRequest) (*models.LoginResponse, error)
}

type profileService interface {
	Get(ctx context.Context, id string) (*models.User, error)
}

// AuthHandler exposes registration, login and the self-profile endpoint.
type AuthHandler struct {
	auth     authService
	profiles profileService
}

// NewAuthHandler constructs the handler.
func NewAuthHandler(auth authService, profiles profileService) *AuthHandler {
	return &AuthHandler{auth: auth, profiles: profiles}
}

// Register godoc
// @Summary Register a resident account
// @Tags Auth
// @Accept json
// @Produce json
// @Param payload body models.RegisterRequest true "Registration payload"
// @Success 201 {object} response.Envelope
// @Router /auth/register [post]
func (h *AuthHandler) Register(c *gin.Context) {
	var req models.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid registration payload"))
		return
	}
	user, err := h.auth.Register(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusCreated, models.UserInfo{
		ID:       user.ID,
		NIK:      user.NIK,
		Email:    user.Email,
		Phone:    user.Phone,
		FullName: user.FullName,
		Role:     user.Role,
	}, nil)
}

// Login godoc
// @Summary Log in with NIK and password
// @Tags Auth
// @Accept json
// @Produce json
// @Param payload body models.LoginRequest true "Credentials"
// @Success 200 {object} response.Envelope
// @Router /auth/login [post]
func (h *AuthHandler) Login(c *gin.Context) {
	var req models.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid login payload"))
		return
	}
	result, err := h.auth.Login(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}

// Me godoc
// @Summary Get the authenticated user's profile
// @Tags Auth
// @Produce json
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /auth/me [get]
func (h *AuthHandler) Me(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	user, err := h.profiles.Get(c.Request.Context(), claims.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, user, nil)
}
