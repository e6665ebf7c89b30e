package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/sistem-rt/portal-api/internal/models"
)

// NewsRepository provides persistence for news and announcements.
type NewsRepository struct {
	db *sqlx.DB
}

// NewNewsRepository creates the repository.
func NewNewsRepository(db *sqlx.DB) *NewsRepository {
	return &NewsRepository{db: db}
}

// List returns news rows, optionally filtered by type, newest first.
func (r *NewsRepository) List(ctx context.Context, filter models.NewsFilter) ([]models.News, error) {
	query := `SELECT id, title, content, type, published_date, author_id, created_at FROM news`
	args := []interface{}{}
	if filter.Type != "" {
		query += " WHERE type = $1"
		args = append(args, filter.Type)
	}
	query += " ORDER BY published_date DESC, created_at DESC"

	var items []models.News
	if err := r.db.SelectContext(ctx, &items, query, args...); err != nil {
		return nil, fmt.Errorf("list news: %w", err)
	}
	return items, nil
}

// Create inserts a new news row.
func (r *NewsRepository) Create(ctx context.Context, item *models.News) error {
	if item.ID == "" {
		item.ID = uuid.NewString()
	}
	if item.CreatedAt.IsZero() {
		item.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO news (id, title, content, type, published_date, author_id, created_at)
	VALUES (:id, :title, :content, :type, :published_date, :author_id, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, item); err != nil {
		return fmt.Errorf("create news: %w", err)
	}
	return nil
}

// Delete removes a news row.
func (r *NewsRepository) Delete(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, "DELETE FROM news WHERE id = $1", id); err != nil {
		return fmt.Errorf("delete news: %w", err)
	}
	return nil
}
