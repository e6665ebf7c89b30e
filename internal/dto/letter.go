package dto

import (
	"encoding/json"
	"io"

	"github.com/sistem-rt/portal-api/internal/models"
)

// SubmitLetterRequest carries a resident's letter application. Details is
// kept raw; the workflow parses and validates it against the per-type schema.
type SubmitLetterRequest struct {
	LetterType     models.LetterType `json:"letter_type"`
	Purpose        string            `json:"purpose"`
	Details        json.RawMessage   `json:"details"`
	Attachment     io.Reader         `json:"-"`
	AttachmentName string            `json:"-"`
}

// RejectLetterRequest captures the optional admin note on rejection.
type RejectLetterRequest struct {
	Notes string `json:"notes"`
}

// LetterQuery mirrors supported listing filters.
type LetterQuery struct {
	Status []models.LetterStatus
}

// SubmitLetterResponse echoes the generated application code.
type SubmitLetterResponse struct {
	ID            string `json:"id"`
	ApplicationID string `json:"application_id"`
}
