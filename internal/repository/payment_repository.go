package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/sistem-rt/portal-api/internal/models"
)

// PaymentRepository persists dues payment records.
type PaymentRepository struct {
	db *sqlx.DB
}

// NewPaymentRepository constructs the repository.
func NewPaymentRepository(db *sqlx.DB) *PaymentRepository {
	return &PaymentRepository{db: db}
}

// Create inserts a new payment row.
func (r *PaymentRepository) Create(ctx context.Context, payment *models.Payment) error {
	if payment.ID == "" {
		payment.ID = uuid.NewString()
	}
	if payment.CreatedAt.IsZero() {
		payment.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO payments (id, user_id, amount, period, payment_method, proof_path, invoice_path, created_at)
	VALUES (:id, :user_id, :amount, :period, :payment_method, :proof_path, :invoice_path, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, payment); err != nil {
		return fmt.Errorf("create payment: %w", err)
	}
	return nil
}

// GetByID fetches a payment by identifier.
func (r *PaymentRepository) GetByID(ctx context.Context, id string) (*models.Payment, error) {
	const query = `SELECT id, user_id, amount, period, payment_method, proof_path, invoice_path, created_at
	FROM payments WHERE id = $1`
	var payment models.Payment
	if err := r.db.GetContext(ctx, &payment, query, id); err != nil {
		return nil, err
	}
	return &payment, nil
}

// ListByUser returns a resident's payments, newest first.
func (r *PaymentRepository) ListByUser(ctx context.Context, userID string) ([]models.Payment, error) {
	const query = `SELECT id, user_id, amount, period, payment_method, proof_path, invoice_path, created_at
	FROM payments WHERE user_id = $1 ORDER BY created_at DESC`
	var payments []models.Payment
	if err := r.db.SelectContext(ctx, &payments, query, userID); err != nil {
		return nil, fmt.Errorf("list payments: %w", err)
	}
	return payments, nil
}

// ListAll returns every payment with payer identity joined in, newest first.
func (r *PaymentRepository) ListAll(ctx context.Context) ([]models.PaymentRow, error) {
	const query = `SELECT p.id, p.user_id, p.amount, p.period, p.payment_method, p.proof_path, p.invoice_path, p.created_at,
       u.nik AS user_nik, u.full_name AS user_name
	FROM payments p JOIN users u ON p.user_id = u.id ORDER BY p.created_at DESC`
	var rows []models.PaymentRow
	if err := r.db.SelectContext(ctx, &rows, query); err != nil {
		return nil, fmt.Errorf("list all payments: %w", err)
	}
	return rows, nil
}

// SetInvoicePath stores the rendered invoice handle.
func (r *PaymentRepository) SetInvoicePath(ctx context.Context, id, invoicePath string) error {
	if _, err := r.db.ExecContext(ctx, "UPDATE payments SET invoice_path = $1 WHERE id = $2", invoicePath, id); err != nil {
		return fmt.Errorf("set invoice path: %w", err)
	}
	return nil
}
