package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/stretchr/testify/require"

	"github.com/sistem-rt/portal-api/internal/models"
)

func newLetterRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func letterColumns() []string {
	return []string{"id", "application_id", "user_id", "letter_type", "purpose", "details", "attachment_path", "status", "pdf_path", "admin_notes", "created_at", "updated_at"}
}

func TestLetterRepositoryCreateDefaultsPending(t *testing.T) {
	db, mock, cleanup := newLetterRepoMock(t)
	defer cleanup()

	repo := NewLetterRepository(db)
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO letter_applications")).
		WillReturnResult(sqlmock.NewResult(1, 1))

	app := &models.LetterApplication{
		ApplicationID: "SRT-1756300000000-AB12C",
		UserID:        "user-1",
		LetterType:    models.LetterTypeBirth,
		Details:       []byte(`{"babyName":"Siti"}`),
	}
	require.NoError(t, repo.Create(context.Background(), app))
	require.NotEmpty(t, app.ID)
	require.Equal(t, models.LetterStatusPending, app.Status)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestLetterRepositoryGetByID(t *testing.T) {
	db, mock, cleanup := newLetterRepoMock(t)
	defer cleanup()

	repo := NewLetterRepository(db)
	now := time.Now()
	rows := sqlmock.NewRows(letterColumns()).
		AddRow("app-1", "SRT-1-XYZ01", "user-1", "birth", nil, []byte(`{}`), nil, "pending", nil, nil, now, now)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, application_id, user_id")).
		WithArgs("app-1").
		WillReturnRows(rows)

	app, err := repo.GetByID(context.Background(), "app-1")
	require.NoError(t, err)
	require.Equal(t, models.LetterStatusPending, app.Status)
	require.Equal(t, "SRT-1-XYZ01", app.ApplicationID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestLetterRepositoryListJoinsApplicant(t *testing.T) {
	db, mock, cleanup := newLetterRepoMock(t)
	defer cleanup()

	repo := NewLetterRepository(db)
	now := time.Now()
	columns := append(letterColumns(), "user_nik", "user_name")
	rows := sqlmock.NewRows(columns).
		AddRow("app-1", "SRT-1-XYZ01", "user-1", "death", nil, []byte(`{}`), nil, "pending", nil, nil, now, now, "3174012345678901", "Budi Santoso")
	mock.ExpectQuery(regexp.QuoteMeta("JOIN users u ON la.user_id = u.id")).
		WithArgs("pending").
		WillReturnRows(rows)

	result, err := repo.List(context.Background(), models.LetterFilter{Status: []models.LetterStatus{models.LetterStatusPending}})
	require.NoError(t, err)
	require.Len(t, result, 1)
	require.Equal(t, "Budi Santoso", result[0].UserName)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestLetterRepositoryUpdateStatusOnlyTransitionsPending(t *testing.T) {
	db, mock, cleanup := newLetterRepoMock(t)
	defer cleanup()

	repo := NewLetterRepository(db)
	pdfPath := "surat-SRT-1-XYZ01.pdf"

	mock.ExpectExec(regexp.QuoteMeta("status = 'pending'")).
		WillReturnResult(sqlmock.NewResult(0, 1))
	err := repo.UpdateStatus(context.Background(), UpdateStatusParams{
		ID:        "app-1",
		Status:    models.LetterStatusApproved,
		PDFPath:   &pdfPath,
		UpdatedAt: time.Now(),
	})
	require.NoError(t, err)

	// A row already transitioned matches zero rows and surfaces as ErrNoRows.
	mock.ExpectExec(regexp.QuoteMeta("status = 'pending'")).
		WillReturnResult(sqlmock.NewResult(0, 0))
	err = repo.UpdateStatus(context.Background(), UpdateStatusParams{
		ID:        "app-1",
		Status:    models.LetterStatusRejected,
		UpdatedAt: time.Now(),
	})
	require.ErrorIs(t, err, sql.ErrNoRows)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestIsUniqueViolation(t *testing.T) {
	require.True(t, IsUniqueViolation(&pq.Error{Code: "23505"}))
	require.False(t, IsUniqueViolation(&pq.Error{Code: "23503"}))
	require.False(t, IsUniqueViolation(sql.ErrNoRows))
	require.False(t, IsUniqueViolation(nil))
}
