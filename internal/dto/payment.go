package dto

import "io"

// CreatePaymentRequest records a dues payment. The proof upload is
// mandatory; its stored handle is persisted verbatim.
type CreatePaymentRequest struct {
	Amount        int64  `json:"amount" validate:"required,gt=0"`
	Period        string `json:"period" validate:"required"`
	PaymentMethod string `json:"payment_method" validate:"required,oneof=cash transfer"`
	Proof         io.Reader
	ProofName     string
}
