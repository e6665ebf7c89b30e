package handler

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/sistem-rt/portal-api/internal/dto"
	"github.com/sistem-rt/portal-api/internal/models"
	"github.com/sistem-rt/portal-api/internal/service"
	appErrors "github.com/sistem-rt/portal-api/pkg/errors"
	"github.com/sistem-rt/portal-api/pkg/response"
)

type letterService interface {
	Submit(ctx context.Context, req dto.SubmitLetterRequest, userID string) (*models.LetterApplication, error)
	Get(ctx context.Context, id string, actor *models.JWTClaims) (*models.LetterApplication, error)
	ListMine(ctx context.Context, userID string) ([]models.LetterApplication, error)
	ListAll(ctx context.Context, query dto.LetterQuery, actor *models.JWTClaims) ([]models.LetterApplicationRow, error)
	Approve(ctx context.Context, id string, actor *models.JWTClaims) (*models.LetterApplication, error)
	Reject(ctx context.Context, id string, req dto.RejectLetterRequest, actor *models.JWTClaims) (*models.LetterApplication, error)
	Download(ctx context.Context, id string, actor *models.JWTClaims) (absPath, downloadName string, err error)
	DownloadURL(ctx context.Context, id string, actor *models.JWTClaims) (token string, expiresAt time.Time, err error)
	ResolveDownloadToken(ctx context.Context, token string) (absPath, downloadName string, err error)
}

// LetterHandler exposes the letter application workflow endpoints.
type LetterHandler struct {
	service        letterService
	metrics        *service.MetricsService
	maxUploadBytes int64
}

// NewLetterHandler constructs the handler. metrics may be nil.
func NewLetterHandler(svc letterService, metrics *service.MetricsService, maxUploadBytes int64) *LetterHandler {
	if maxUploadBytes <= 0 {
		maxUploadBytes = 5 * 1024 * 1024
	}
	return &LetterHandler{service: svc, metrics: metrics, maxUploadBytes: maxUploadBytes}
}

// Submit godoc
// @Summary Submit a letter application
// @Tags Letters
// @Accept multipart/form-data
// @Produce json
// @Param letter_type formData string true "Letter type"
// @Param purpose formData string false "Application purpose"
// @Param details formData string false "Per-type detail fields as JSON"
// @Param attachment formData file false "Supporting document"
// @Success 201 {object} response.Envelope
// @Security BearerAuth
// @Router /letters [post]
func (h *LetterHandler) Submit(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	req := dto.SubmitLetterRequest{
		LetterType: models.LetterType(strings.TrimSpace(c.PostForm("letter_type"))),
		Purpose:    c.PostForm("purpose"),
	}
	if rawDetails := c.PostForm("details"); rawDetails != "" {
		req.Details = json.RawMessage(rawDetails)
	}

	if fileHeader, err := c.FormFile("attachment"); err == nil && fileHeader != nil {
		if fileHeader.Size > h.maxUploadBytes {
			response.Error(c, appErrors.Clone(appErrors.ErrValidation, "ukuran file melebihi batas"))
			return
		}
		file, err := fileHeader.Open()
		if err != nil {
			response.Error(c, appErrors.Clone(appErrors.ErrValidation, "file lampiran tidak dapat dibaca"))
			return
		}
		defer file.Close() //nolint:errcheck
		req.Attachment = file
		req.AttachmentName = fileHeader.Filename
	}

	app, err := h.service.Submit(c.Request.Context(), req, claims.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}
	h.metrics.RecordLetterSubmitted()
	response.JSON(c, http.StatusCreated, app, nil)
}

// ListMine godoc
// @Summary List the caller's letter applications
// @Tags Letters
// @Produce json
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /letters [get]
func (h *LetterHandler) ListMine(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	apps, err := h.service.ListMine(c.Request.Context(), claims.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, apps, nil)
}

// ListAll godoc
// @Summary List all letter applications
// @Tags Letters
// @Produce json
// @Param status query string false "Comma separated statuses"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /admin/letters [get]
func (h *LetterHandler) ListAll(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	var query dto.LetterQuery
	if rawStatus := c.Query("status"); rawStatus != "" {
		parts := strings.Split(rawStatus, ",")
		statuses := make([]models.LetterStatus, 0, len(parts))
		for _, part := range parts {
			part = strings.ToLower(strings.TrimSpace(part))
			if part == "" {
				continue
			}
			statuses = append(statuses, models.LetterStatus(part))
		}
		query.Status = statuses
	}
	rows, err := h.service.ListAll(c.Request.Context(), query, claims)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, rows, nil)
}

// Get godoc
// @Summary Get a letter application
// @Tags Letters
// @Produce json
// @Param id path string true "Application ID"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /letters/{id} [get]
func (h *LetterHandler) Get(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	app, err := h.service.Get(c.Request.Context(), c.Param("id"), claims)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, app, nil)
}

// Approve godoc
// @Summary Approve a pending application
// @Tags Letters
// @Produce json
// @Param id path string true "Application ID"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /admin/letters/{id}/approve [patch]
func (h *LetterHandler) Approve(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	app, err := h.service.Approve(c.Request.Context(), c.Param("id"), claims)
	if err != nil {
		response.Error(c, err)
		return
	}
	h.metrics.RecordLetterReviewed("approved")
	response.JSON(c, http.StatusOK, app, nil)
}

// Reject godoc
// @Summary Reject a pending application
// @Tags Letters
// @Accept json
// @Produce json
// @Param id path string true "Application ID"
// @Param payload body dto.RejectLetterRequest false "Rejection note"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /admin/letters/{id}/reject [patch]
func (h *LetterHandler) Reject(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	// The note is optional: an empty body (io.EOF, regardless of whether
	// the request advertises a Content-Length) means no note.
	var req dto.RejectLetterRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid rejection payload"))
		return
	}
	app, err := h.service.Reject(c.Request.Context(), c.Param("id"), req, claims)
	if err != nil {
		response.Error(c, err)
		return
	}
	h.metrics.RecordLetterReviewed("rejected")
	response.JSON(c, http.StatusOK, app, nil)
}

// Download godoc
// @Summary Download the rendered letter document
// @Tags Letters
// @Produce application/pdf
// @Param id path string true "Application ID"
// @Success 200 {file} binary
// @Security BearerAuth
// @Router /letters/{id}/download [get]
func (h *LetterHandler) Download(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	absPath, downloadName, err := h.service.Download(c.Request.Context(), c.Param("id"), claims)
	if err != nil {
		response.Error(c, err)
		return
	}
	c.FileAttachment(absPath, downloadName)
}

// DownloadURL godoc
// @Summary Mint a signed download link for the rendered letter
// @Tags Letters
// @Produce json
// @Param id path string true "Application ID"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /letters/{id}/download-url [get]
func (h *LetterHandler) DownloadURL(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	token, expiresAt, err := h.service.DownloadURL(c.Request.Context(), c.Param("id"), claims)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, gin.H{
		"url":        "/api/v1/letters/download?token=" + token,
		"expires_at": expiresAt,
	}, nil)
}

// DownloadSigned godoc
// @Summary Download a letter document via signed token
// @Tags Letters
// @Produce application/pdf
// @Param token query string true "Signed download token"
// @Success 200 {file} binary
// @Router /letters/download [get]
func (h *LetterHandler) DownloadSigned(c *gin.Context) {
	token := c.Query("token")
	if token == "" {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "token wajib diisi"))
		return
	}
	absPath, downloadName, err := h.service.ResolveDownloadToken(c.Request.Context(), token)
	if err != nil {
		response.Error(c, err)
		return
	}
	c.FileAttachment(absPath, downloadName)
}
