package models

import "time"

// LetterType enumerates the fixed set of letter categories residents can apply for.
type LetterType string

const (
	LetterTypeDeath    LetterType = "death"
	LetterTypeBirth    LetterType = "birth"
	LetterTypeMutation LetterType = "mutation"
	LetterTypeOther    LetterType = "other"
)

// ValidLetterType reports whether the type belongs to the fixed set.
func ValidLetterType(t LetterType) bool {
	switch t {
	case LetterTypeDeath, LetterTypeBirth, LetterTypeMutation, LetterTypeOther:
		return true
	default:
		return false
	}
}

// LetterStatus captures the review lifecycle of an application.
// Transitions are one-directional: pending is the only non-terminal state.
type LetterStatus string

const (
	LetterStatusPending  LetterStatus = "pending"
	LetterStatusApproved LetterStatus = "approved"
	LetterStatusRejected LetterStatus = "rejected"
)

// LetterApplication stores a resident's request for an official letter.
// PDFPath is set exactly when status becomes approved; AdminNotes only on
// rejection.
type LetterApplication struct {
	ID             string       `db:"id" json:"id"`
	ApplicationID  string       `db:"application_id" json:"applicationId"`
	UserID         string       `db:"user_id" json:"userId"`
	LetterType     LetterType   `db:"letter_type" json:"letterType"`
	Purpose        *string      `db:"purpose" json:"purpose,omitempty"`
	Details        []byte       `db:"details" json:"details,omitempty"`
	AttachmentPath *string      `db:"attachment_path" json:"attachmentPath,omitempty"`
	Status         LetterStatus `db:"status" json:"status"`
	PDFPath        *string      `db:"pdf_path" json:"pdfPath,omitempty"`
	AdminNotes     *string      `db:"admin_notes" json:"adminNotes,omitempty"`
	CreatedAt      time.Time    `db:"created_at" json:"createdAt"`
	UpdatedAt      time.Time    `db:"updated_at" json:"updatedAt"`
}

// LetterApplicationRow joins applicant identity data for admin listings.
type LetterApplicationRow struct {
	LetterApplication
	UserNIK  string `db:"user_nik" json:"userNik"`
	UserName string `db:"user_name" json:"userName"`
}

// LetterFilter constrains listing queries.
type LetterFilter struct {
	Status []LetterStatus
	UserID string
	Limit  int
	Offset int
}
