package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/sistem-rt/portal-api/internal/models"
)

// LetterRepository persists letter application workflow data.
type LetterRepository struct {
	db *sqlx.DB
}

// NewLetterRepository constructs the repository.
func NewLetterRepository(db *sqlx.DB) *LetterRepository {
	return &LetterRepository{db: db}
}

// Create inserts a new application row in state pending.
func (r *LetterRepository) Create(ctx context.Context, app *models.LetterApplication) error {
	if app.ID == "" {
		app.ID = uuid.NewString()
	}
	if app.Status == "" {
		app.Status = models.LetterStatusPending
	}
	now := time.Now().UTC()
	if app.CreatedAt.IsZero() {
		app.CreatedAt = now
	}
	app.UpdatedAt = now
	const query = `INSERT INTO letter_applications
	(id, application_id, user_id, letter_type, purpose, details, attachment_path, status, pdf_path, admin_notes, created_at, updated_at)
	VALUES (:id, :application_id, :user_id, :letter_type, :purpose, :details, :attachment_path, :status, :pdf_path, :admin_notes, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, app); err != nil {
		return fmt.Errorf("create letter application: %w", err)
	}
	return nil
}

// GetByID fetches an application by surrogate identifier.
func (r *LetterRepository) GetByID(ctx context.Context, id string) (*models.LetterApplication, error) {
	const query = `SELECT id, application_id, user_id, letter_type, purpose, details, attachment_path, status, pdf_path, admin_notes, created_at, updated_at
	FROM letter_applications WHERE id = $1`
	var app models.LetterApplication
	if err := r.db.GetContext(ctx, &app, query, id); err != nil {
		return nil, err
	}
	return &app, nil
}

// ListByUser returns a resident's own applications, newest first.
func (r *LetterRepository) ListByUser(ctx context.Context, userID string) ([]models.LetterApplication, error) {
	const query = `SELECT id, application_id, user_id, letter_type, purpose, details, attachment_path, status, pdf_path, admin_notes, created_at, updated_at
	FROM letter_applications WHERE user_id = $1 ORDER BY created_at DESC`
	var apps []models.LetterApplication
	if err := r.db.SelectContext(ctx, &apps, query, userID); err != nil {
		return nil, fmt.Errorf("list letter applications: %w", err)
	}
	return apps, nil
}

// List returns applications matching the filter with applicant identity
// joined in, newest first.
func (r *LetterRepository) List(ctx context.Context, filter models.LetterFilter) ([]models.LetterApplicationRow, error) {
	builder := strings.Builder{}
	args := make([]interface{}, 0, 4)
	builder.WriteString(`SELECT la.id, la.application_id, la.user_id, la.letter_type, la.purpose, la.details,
       la.attachment_path, la.status, la.pdf_path, la.admin_notes, la.created_at, la.updated_at,
       u.nik AS user_nik, u.full_name AS user_name
	FROM letter_applications la JOIN users u ON la.user_id = u.id`)

	conditions := make([]string, 0, 2)
	if len(filter.Status) > 0 {
		placeholders := make([]string, len(filter.Status))
		for i, status := range filter.Status {
			args = append(args, status)
			placeholders[i] = fmt.Sprintf("$%d", len(args))
		}
		conditions = append(conditions, fmt.Sprintf("la.status IN (%s)", strings.Join(placeholders, ",")))
	}
	if filter.UserID != "" {
		args = append(args, filter.UserID)
		conditions = append(conditions, fmt.Sprintf("la.user_id = $%d", len(args)))
	}
	if len(conditions) > 0 {
		builder.WriteString(" WHERE ")
		builder.WriteString(strings.Join(conditions, " AND "))
	}
	builder.WriteString(" ORDER BY la.created_at DESC")

	limit := filter.Limit
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}
	builder.WriteString(fmt.Sprintf(" LIMIT %d OFFSET %d", limit, offset))

	var rows []models.LetterApplicationRow
	if err := r.db.SelectContext(ctx, &rows, builder.String(), args...); err != nil {
		return nil, fmt.Errorf("list letter applications: %w", err)
	}
	return rows, nil
}

// UpdateStatusParams groups mutable columns for review transitions.
type UpdateStatusParams struct {
	ID         string
	Status     models.LetterStatus
	PDFPath    *string
	AdminNotes *string
	UpdatedAt  time.Time
}

// UpdateStatus persists a review transition. The WHERE clause requires the
// row to still be pending, so concurrent reviews cannot double-transition;
// zero affected rows surfaces as sql.ErrNoRows.
func (r *LetterRepository) UpdateStatus(ctx context.Context, params UpdateStatusParams) error {
	setParts := []string{
		"status = :status",
		"updated_at = :updated_at",
	}
	if params.PDFPath != nil {
		setParts = append(setParts, "pdf_path = :pdf_path")
	}
	if params.AdminNotes != nil {
		setParts = append(setParts, "admin_notes = :admin_notes")
	}
	query := fmt.Sprintf("UPDATE letter_applications SET %s WHERE id = :id AND status = '%s'",
		strings.Join(setParts, ", "),
		models.LetterStatusPending,
	)
	result, err := r.db.NamedExecContext(ctx, query, map[string]interface{}{
		"id":          params.ID,
		"status":      params.Status,
		"pdf_path":    params.PDFPath,
		"admin_notes": params.AdminNotes,
		"updated_at":  params.UpdatedAt,
	})
	if err != nil {
		return fmt.Errorf("update letter status: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("check letter update rows: %w", err)
	}
	if rows == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// IsUniqueViolation reports whether the error is a Postgres unique
// constraint failure (used for the application code retry loop).
func IsUniqueViolation(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == "23505"
	}
	return false
}
