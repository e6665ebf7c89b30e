package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/sistem-rt/portal-api/internal/dto"
	"github.com/sistem-rt/portal-api/internal/models"
	appErrors "github.com/sistem-rt/portal-api/pkg/errors"
	"github.com/sistem-rt/portal-api/pkg/jobs"
)

type paymentStore interface {
	Create(ctx context.Context, payment *models.Payment) error
	GetByID(ctx context.Context, id string) (*models.Payment, error)
	ListByUser(ctx context.Context, userID string) ([]models.Payment, error)
	ListAll(ctx context.Context) ([]models.PaymentRow, error)
	SetInvoicePath(ctx context.Context, id, invoicePath string) error
}

// InvoiceRenderer produces the invoice document for a recorded payment.
type InvoiceRenderer interface {
	Render(payment *models.Payment) ([]byte, error)
}

// PaymentService records dues payments and renders their invoices in the
// background. A payment is accepted even when invoice rendering later fails;
// the invoice is simply absent until a retry succeeds.
type PaymentService struct {
	repo     paymentStore
	proofs   AttachmentStore
	invoices DocumentStore
	renderer InvoiceRenderer
	notifier NotificationSink
	validate *validator.Validate
	logger   *zap.Logger
	queue    *jobs.Queue
}

// NewPaymentService constructs the service. Call Start to enable background
// invoice rendering.
func NewPaymentService(
	repo paymentStore,
	proofs AttachmentStore,
	invoices DocumentStore,
	renderer InvoiceRenderer,
	notifier NotificationSink,
	logger *zap.Logger,
) *PaymentService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PaymentService{
		repo:     repo,
		proofs:   proofs,
		invoices: invoices,
		renderer: renderer,
		notifier: notifier,
		validate: validator.New(),
		logger:   logger,
	}
}

// Start launches the invoice rendering workers.
func (s *PaymentService) Start(ctx context.Context, cfg jobs.QueueConfig) {
	if cfg.Logger == nil {
		cfg.Logger = s.logger
	}
	s.queue = jobs.NewQueue("invoices", s.renderInvoiceJob, cfg)
	s.queue.Start(ctx)
}

// Stop drains the invoice workers.
func (s *PaymentService) Stop() {
	if s.queue != nil {
		s.queue.Stop()
	}
}

// Create records a payment with its proof upload and schedules invoice
// rendering.
func (s *PaymentService) Create(ctx context.Context, req dto.CreatePaymentRequest, userID string) (*models.Payment, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, validationMessage(err))
	}
	if req.Proof == nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "bukti pembayaran wajib diunggah")
	}

	proofPath, err := s.proofs.SaveStream(req.ProofName, req.Proof)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrDependency.Code, appErrors.ErrDependency.Status, "failed to store payment proof")
	}

	payment := &models.Payment{
		UserID:        userID,
		Amount:        req.Amount,
		Period:        req.Period,
		PaymentMethod: models.PaymentMethod(req.PaymentMethod),
		ProofPath:     proofPath,
	}
	if err := s.repo.Create(ctx, payment); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create payment")
	}

	s.scheduleInvoice(ctx, payment)
	s.notifier.Notify(ctx, userID, models.NotificationKindPayment,
		"Pembayaran Diterima",
		fmt.Sprintf("Pembayaran iuran periode %s sebesar Rp %d telah dicatat.", payment.Period, payment.Amount),
		"/home")
	return payment, nil
}

// ListMine returns the caller's payments, newest first.
func (s *PaymentService) ListMine(ctx context.Context, userID string) ([]models.Payment, error) {
	payments, err := s.repo.ListByUser(ctx, userID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list payments")
	}
	return payments, nil
}

// ListAll returns every payment with payer identity (admin view).
func (s *PaymentService) ListAll(ctx context.Context, actor *models.JWTClaims) ([]models.PaymentRow, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	rows, err := s.repo.ListAll(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list payments")
	}
	return rows, nil
}

// DownloadInvoice resolves the rendered invoice for a payment, restricted to
// the payer or an administrator.
func (s *PaymentService) DownloadInvoice(ctx context.Context, id string, actor *models.JWTClaims) (absPath, downloadName string, err error) {
	if actor == nil {
		return "", "", appErrors.ErrUnauthorized
	}
	payment, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", "", appErrors.Clone(appErrors.ErrNotFound, "pembayaran tidak ditemukan")
		}
		return "", "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load payment")
	}
	if actor.Role != models.RoleAdmin && payment.UserID != actor.UserID {
		return "", "", appErrors.ErrForbidden
	}
	if payment.InvoicePath == nil || !s.invoices.Exists(*payment.InvoicePath) {
		return "", "", appErrors.Clone(appErrors.ErrNotFound, "invoice belum tersedia")
	}
	return s.invoices.Path(*payment.InvoicePath), fmt.Sprintf("Invoice-%s.pdf", payment.ID), nil
}

func (s *PaymentService) scheduleInvoice(ctx context.Context, payment *models.Payment) {
	if s.queue == nil {
		if err := s.renderInvoice(ctx, payment); err != nil {
			s.logger.Warn("invoice rendering failed", zap.String("payment_id", payment.ID), zap.Error(err))
		}
		return
	}
	err := s.queue.Enqueue(jobs.Job{
		ID:      payment.ID,
		Type:    "invoice",
		Payload: payment,
	})
	if err != nil {
		s.logger.Warn("invoice enqueue failed, rendering synchronously", zap.String("payment_id", payment.ID), zap.Error(err))
		if err := s.renderInvoice(ctx, payment); err != nil {
			s.logger.Warn("invoice rendering failed", zap.String("payment_id", payment.ID), zap.Error(err))
		}
	}
}

func (s *PaymentService) renderInvoiceJob(ctx context.Context, job jobs.Job) error {
	payment, ok := job.Payload.(*models.Payment)
	if !ok {
		return fmt.Errorf("unexpected payload type %T for job %s", job.Payload, job.ID)
	}
	return s.renderInvoice(ctx, payment)
}

func (s *PaymentService) renderInvoice(ctx context.Context, payment *models.Payment) error {
	document, err := s.renderer.Render(payment)
	if err != nil {
		return fmt.Errorf("render invoice: %w", err)
	}
	filename := fmt.Sprintf("invoice-%s.pdf", payment.ID)
	stored, err := s.invoices.Save(filename, document)
	if err != nil {
		return fmt.Errorf("store invoice: %w", err)
	}
	if err := s.repo.SetInvoicePath(ctx, payment.ID, stored); err != nil {
		return fmt.Errorf("record invoice path: %w", err)
	}
	return nil
}
