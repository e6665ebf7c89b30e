package handler

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/sistem-rt/portal-api/internal/dto"
	"github.com/sistem-rt/portal-api/internal/models"
	appErrors "github.com/sistem-rt/portal-api/pkg/errors"
	"github.com/sistem-rt/portal-api/pkg/response"
)

type newsService interface {
	List(ctx context.Context, filter models.NewsFilter) ([]models.News, error)
	Create(ctx context.Context, req dto.CreateNewsRequest, actor *models.JWTClaims) (*models.News, error)
	Delete(ctx context.Context, id string, actor *models.JWTClaims) error
}

// NewsHandler exposes news and announcement endpoints.
type NewsHandler struct {
	service newsService
}

// NewNewsHandler constructs the handler.
func NewNewsHandler(service newsService) *NewsHandler {
	return &NewsHandler{service: service}
}

// List godoc
// @Summary List news and announcements
// @Tags News
// @Produce json
// @Param type query string false "Filter by type (news or announcement)"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /news [get]
func (h *NewsHandler) List(c *gin.Context) {
	filter := models.NewsFilter{
		Type: models.NewsType(strings.TrimSpace(c.Query("type"))),
	}
	items, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, items, nil)
}

// Create godoc
// @Summary Publish a news item
// @Tags News
// @Accept json
// @Produce json
// @Param payload body dto.CreateNewsRequest true "News payload"
// @Success 201 {object} response.Envelope
// @Security BearerAuth
// @Router /admin/news [post]
func (h *NewsHandler) Create(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	var req dto.CreateNewsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid news payload"))
		return
	}
	item, err := h.service.Create(c.Request.Context(), req, claims)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusCreated, item, nil)
}

// Delete godoc
// @Summary Delete a news item
// @Tags News
// @Produce json
// @Param id path string true "News ID"
// @Success 204 "No Content"
// @Security BearerAuth
// @Router /admin/news/{id} [delete]
func (h *NewsHandler) Delete(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	if err := h.service.Delete(c.Request.Context(), c.Param("id"), claims); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
