package service

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/sistem-rt/portal-api/internal/dto"
	"github.com/sistem-rt/portal-api/internal/models"
	appErrors "github.com/sistem-rt/portal-api/pkg/errors"
)

type paymentStoreStub struct {
	payments map[string]*models.Payment
}

func newPaymentStoreStub() *paymentStoreStub {
	return &paymentStoreStub{payments: make(map[string]*models.Payment)}
}

func (s *paymentStoreStub) Create(ctx context.Context, payment *models.Payment) error {
	if payment.ID == "" {
		payment.ID = fmt.Sprintf("pay-%d", len(s.payments)+1)
	}
	copy := *payment
	s.payments[payment.ID] = &copy
	return nil
}

func (s *paymentStoreStub) GetByID(ctx context.Context, id string) (*models.Payment, error) {
	payment, ok := s.payments[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	copy := *payment
	return &copy, nil
}

func (s *paymentStoreStub) ListByUser(ctx context.Context, userID string) ([]models.Payment, error) {
	var result []models.Payment
	for _, payment := range s.payments {
		if payment.UserID == userID {
			result = append(result, *payment)
		}
	}
	return result, nil
}

func (s *paymentStoreStub) ListAll(ctx context.Context) ([]models.PaymentRow, error) {
	var result []models.PaymentRow
	for _, payment := range s.payments {
		result = append(result, models.PaymentRow{Payment: *payment})
	}
	return result, nil
}

func (s *paymentStoreStub) SetInvoicePath(ctx context.Context, id, invoicePath string) error {
	payment, ok := s.payments[id]
	if !ok {
		return sql.ErrNoRows
	}
	payment.InvoicePath = &invoicePath
	return nil
}

type invoiceRendererStub struct {
	err error
}

func (r *invoiceRendererStub) Render(payment *models.Payment) ([]byte, error) {
	if r.err != nil {
		return nil, r.err
	}
	return []byte("%PDF-1.4 invoice"), nil
}

func newPaymentFixture() (*paymentStoreStub, *storageStub, *sinkStub, *PaymentService) {
	store := newPaymentStoreStub()
	files := newStorageStub()
	sink := &sinkStub{}
	svc := NewPaymentService(store, files, files, &invoiceRendererStub{}, sink, nil)
	return store, files, sink, svc
}

func validPaymentRequest() dto.CreatePaymentRequest {
	return dto.CreatePaymentRequest{
		Amount:        50000,
		Period:        "2026-08",
		PaymentMethod: "transfer",
		Proof:         strings.NewReader("bukti transfer"),
		ProofName:     "bukti.jpg",
	}
}

func TestPaymentCreateStoresProofAndRendersInvoice(t *testing.T) {
	store, files, sink, svc := newPaymentFixture()

	payment, err := svc.Create(context.Background(), validPaymentRequest(), "user-1")
	require.NoError(t, err)
	require.NotEmpty(t, payment.ProofPath)
	require.True(t, files.Exists(payment.ProofPath))

	// Without a running queue the invoice renders synchronously.
	stored := store.payments[payment.ID]
	require.NotNil(t, stored.InvoicePath)
	require.True(t, files.Exists(*stored.InvoicePath))

	require.Len(t, sink.sent, 1)
	require.Equal(t, models.NotificationKindPayment, sink.sent[0].Kind)
	require.Contains(t, sink.sent[0].Message, "2026-08")
}

func TestPaymentCreateRequiresProof(t *testing.T) {
	_, _, _, svc := newPaymentFixture()
	req := validPaymentRequest()
	req.Proof = nil
	_, err := svc.Create(context.Background(), req, "user-1")
	require.Error(t, err)
	require.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestPaymentCreateValidatesAmountAndMethod(t *testing.T) {
	_, _, _, svc := newPaymentFixture()

	req := validPaymentRequest()
	req.Amount = 0
	_, err := svc.Create(context.Background(), req, "user-1")
	require.Error(t, err)

	req = validPaymentRequest()
	req.PaymentMethod = "barter"
	_, err = svc.Create(context.Background(), req, "user-1")
	require.Error(t, err)
	require.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestPaymentCreateSurvivesInvoiceFailure(t *testing.T) {
	store := newPaymentStoreStub()
	files := newStorageStub()
	svc := NewPaymentService(store, files, files, &invoiceRendererStub{err: fmt.Errorf("render broke")}, &sinkStub{}, nil)

	payment, err := svc.Create(context.Background(), validPaymentRequest(), "user-1")
	require.NoError(t, err)

	stored := store.payments[payment.ID]
	require.Nil(t, stored.InvoicePath)
}

func TestPaymentListAllRequiresAdmin(t *testing.T) {
	_, _, _, svc := newPaymentFixture()
	_, err := svc.ListAll(context.Background(), &models.JWTClaims{UserID: "user-1", Role: models.RoleResident})
	require.Error(t, err)
	require.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)
}

func TestDownloadInvoiceEnforcesOwnership(t *testing.T) {
	store, _, _, svc := newPaymentFixture()

	payment, err := svc.Create(context.Background(), validPaymentRequest(), "user-1")
	require.NoError(t, err)
	require.NotNil(t, store.payments[payment.ID].InvoicePath)

	_, _, err = svc.DownloadInvoice(context.Background(), payment.ID, &models.JWTClaims{UserID: "user-2", Role: models.RoleResident})
	require.Error(t, err)
	require.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)

	absPath, name, err := svc.DownloadInvoice(context.Background(), payment.ID, &models.JWTClaims{UserID: "user-1", Role: models.RoleResident})
	require.NoError(t, err)
	require.Contains(t, absPath, "invoice-")
	require.Equal(t, fmt.Sprintf("Invoice-%s.pdf", payment.ID), name)
}

func TestDownloadInvoiceUnknownPayment(t *testing.T) {
	_, _, _, svc := newPaymentFixture()
	_, _, err := svc.DownloadInvoice(context.Background(), "missing", adminClaims())
	require.Error(t, err)
	require.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}
