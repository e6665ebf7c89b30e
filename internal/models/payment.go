package models

import "time"

// PaymentMethod enumerates accepted dues payment channels.
type PaymentMethod string

const (
	PaymentMethodCash     PaymentMethod = "cash"
	PaymentMethodTransfer PaymentMethod = "transfer"
)

// Payment records a dues payment with its uploaded proof and, once rendered,
// the generated invoice document.
type Payment struct {
	ID            string        `db:"id" json:"id"`
	UserID        string        `db:"user_id" json:"user_id"`
	Amount        int64         `db:"amount" json:"amount"`
	Period        string        `db:"period" json:"period"`
	PaymentMethod PaymentMethod `db:"payment_method" json:"payment_method"`
	ProofPath     string        `db:"proof_path" json:"proof_path"`
	InvoicePath   *string       `db:"invoice_path" json:"invoice_path,omitempty"`
	CreatedAt     time.Time     `db:"created_at" json:"created_at"`
}

// PaymentRow joins payer identity data for admin listings.
type PaymentRow struct {
	Payment
	UserNIK  string `db:"user_nik" json:"user_nik"`
	UserName string `db:"user_name" json:"user_name"`
}
