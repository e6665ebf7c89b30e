package handler

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/sistem-rt/portal-api/internal/dto"
	"github.com/sistem-rt/portal-api/internal/models"
	appErrors "github.com/sistem-rt/portal-api/pkg/errors"
	"github.com/sistem-rt/portal-api/pkg/response"
)

type paymentService interface {
	Create(ctx context.Context, req dto.CreatePaymentRequest, userID string) (*models.Payment, error)
	ListMine(ctx context.Context, userID string) ([]models.Payment, error)
	ListAll(ctx context.Context, actor *models.JWTClaims) ([]models.PaymentRow, error)
	DownloadInvoice(ctx context.Context, id string, actor *models.JWTClaims) (absPath, downloadName string, err error)
}

// PaymentHandler exposes dues payment endpoints.
type PaymentHandler struct {
	service        paymentService
	maxUploadBytes int64
}

// NewPaymentHandler constructs the handler.
func NewPaymentHandler(service paymentService, maxUploadBytes int64) *PaymentHandler {
	if maxUploadBytes <= 0 {
		maxUploadBytes = 5 * 1024 * 1024
	}
	return &PaymentHandler{service: service, maxUploadBytes: maxUploadBytes}
}

// Create godoc
// @Summary Record a dues payment
// @Tags Payments
// @Accept multipart/form-data
// @Produce json
// @Param amount formData integer true "Amount in rupiah"
// @Param period formData string true "Dues period"
// @Param payment_method formData string true "cash or transfer"
// @Param proof formData file true "Payment proof"
// @Success 201 {object} response.Envelope
// @Security BearerAuth
// @Router /payments [post]
func (h *PaymentHandler) Create(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	amount, err := strconv.ParseInt(strings.TrimSpace(c.PostForm("amount")), 10, 64)
	if err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "nominal pembayaran tidak valid"))
		return
	}
	req := dto.CreatePaymentRequest{
		Amount:        amount,
		Period:        strings.TrimSpace(c.PostForm("period")),
		PaymentMethod: strings.TrimSpace(c.PostForm("payment_method")),
	}

	fileHeader, err := c.FormFile("proof")
	if err != nil || fileHeader == nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "bukti pembayaran wajib diunggah"))
		return
	}
	if fileHeader.Size > h.maxUploadBytes {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "ukuran file melebihi batas"))
		return
	}
	file, err := fileHeader.Open()
	if err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "bukti pembayaran tidak dapat dibaca"))
		return
	}
	defer file.Close() //nolint:errcheck
	req.Proof = file
	req.ProofName = fileHeader.Filename

	payment, err := h.service.Create(c.Request.Context(), req, claims.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusCreated, payment, nil)
}

// ListMine godoc
// @Summary List the caller's payments
// @Tags Payments
// @Produce json
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /payments [get]
func (h *PaymentHandler) ListMine(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	payments, err := h.service.ListMine(c.Request.Context(), claims.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, payments, nil)
}

// ListAll godoc
// @Summary List all payments
// @Tags Payments
// @Produce json
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /admin/payments [get]
func (h *PaymentHandler) ListAll(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	rows, err := h.service.ListAll(c.Request.Context(), claims)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, rows, nil)
}

// DownloadInvoice godoc
// @Summary Download a payment invoice
// @Tags Payments
// @Produce application/pdf
// @Param id path string true "Payment ID"
// @Success 200 {file} binary
// @Security BearerAuth
// @Router /payments/{id}/invoice [get]
func (h *PaymentHandler) DownloadInvoice(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	absPath, downloadName, err := h.service.DownloadInvoice(c.Request.Context(), c.Param("id"), claims)
	if err != nil {
		response.Error(c, err)
		return
	}
	c.FileAttachment(absPath, downloadName)
}
