package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/sistem-rt/portal-api/internal/models"
)

const userColumns = `id, nik, email, phone, password_hash, full_name, place_of_birth, date_of_birth, gender,
       address, rt, rw, kelurahan, kecamatan, city, province, postal_code, role, created_at, updated_at`

// UserRepository persists resident and administrator accounts.
type UserRepository struct {
	db *sqlx.DB
}

// NewUserRepository constructs the repository.
func NewUserRepository(db *sqlx.DB) *UserRepository {
	return &UserRepository{db: db}
}

// Create inserts a new user row.
func (r *UserRepository) Create(ctx context.Context, user *models.User) error {
	if user.ID == "" {
		user.ID = uuid.NewString()
	}
	if user.Role == "" {
		user.Role = models.RoleResident
	}
	now := time.Now().UTC()
	if user.CreatedAt.IsZero() {
		user.CreatedAt = now
	}
	user.UpdatedAt = now
	const query = `INSERT INTO users
	(id, nik, email, phone, password_hash, full_name, place_of_birth, date_of_birth, gender, address, rt, rw, kelurahan, kecamatan, city, province, postal_code, role, created_at, updated_at)
	VALUES (:id, :nik, :email, :phone, :password_hash, :full_name, :place_of_birth, :date_of_birth, :gender, :address, :rt, :rw, :kelurahan, :kecamatan, :city, :province, :postal_code, :role, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, user); err != nil {
		return fmt.Errorf("create user: %w", err)
	}
	return nil
}

// FindByID fetches a user by identifier.
func (r *UserRepository) FindByID(ctx context.Context, id string) (*models.User, error) {
	var user models.User
	query := fmt.Sprintf("SELECT %s FROM users WHERE id = $1", userColumns)
	if err := r.db.GetContext(ctx, &user, query, id); err != nil {
		return nil, err
	}
	return &user, nil
}

// FindByNIK fetches a user by national ID number.
func (r *UserRepository) FindByNIK(ctx context.Context, nik string) (*models.User, error) {
	var user models.User
	query := fmt.Sprintf("SELECT %s FROM users WHERE nik = $1", userColumns)
	if err := r.db.GetContext(ctx, &user, query, nik); err != nil {
		return nil, err
	}
	return &user, nil
}

// FindByEmail fetches a user by email.
func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	query := fmt.Sprintf("SELECT %s FROM users WHERE email = $1", userColumns)
	if err := r.db.GetContext(ctx, &user, query, email); err != nil {
		return nil, err
	}
	return &user, nil
}

// List returns every account, newest first.
func (r *UserRepository) List(ctx context.Context) ([]models.User, error) {
	var users []models.User
	query := fmt.Sprintf("SELECT %s FROM users ORDER BY created_at DESC", userColumns)
	if err := r.db.SelectContext(ctx, &users, query); err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	return users, nil
}

// ListIDsByRole returns the identifiers of every account holding the role.
// Used by notification fan-out.
func (r *UserRepository) ListIDsByRole(ctx context.Context, role models.UserRole) ([]string, error) {
	var ids []string
	if err := r.db.SelectContext(ctx, &ids, "SELECT id FROM users WHERE role = $1", role); err != nil {
		return nil, fmt.Errorf("list user ids by role: %w", err)
	}
	return ids, nil
}

// ListIDsExcludingRole returns identifiers of accounts not holding the role.
func (r *UserRepository) ListIDsExcludingRole(ctx context.Context, role models.UserRole) ([]string, error) {
	var ids []string
	if err := r.db.SelectContext(ctx, &ids, "SELECT id FROM users WHERE role <> $1", role); err != nil {
		return nil, fmt.Errorf("list user ids excluding role: %w", err)
	}
	return ids, nil
}

// CountByRole returns how many accounts hold the role (last-admin guard).
func (r *UserRepository) CountByRole(ctx context.Context, role models.UserRole) (int, error) {
	var count int
	if err := r.db.GetContext(ctx, &count, "SELECT COUNT(*) FROM users WHERE role = $1", role); err != nil {
		return 0, fmt.Errorf("count users by role: %w", err)
	}
	return count, nil
}

// Update persists profile and role changes.
func (r *UserRepository) Update(ctx context.Context, user *models.User) error {
	user.UpdatedAt = time.Now().UTC()
	const query = `UPDATE users SET full_name = :full_name, email = :email, phone = :phone,
	place_of_birth = :place_of_birth, date_of_birth = :date_of_birth, gender = :gender, address = :address,
	rt = :rt, rw = :rw, kelurahan = :kelurahan, kecamatan = :kecamatan, city = :city, province = :province,
	postal_code = :postal_code, role = :role, updated_at = :updated_at WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, user); err != nil {
		return fmt.Errorf("update user: %w", err)
	}
	return nil
}

// DeleteCascade removes a user together with their letters, payments and
// notifications inside one transaction.
func (r *UserRepository) DeleteCascade(ctx context.Context, userID string) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin delete user tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	statements := []string{
		"DELETE FROM letter_applications WHERE user_id = $1",
		"DELETE FROM payments WHERE user_id = $1",
		"DELETE FROM notifications WHERE user_id = $1",
		"DELETE FROM users WHERE id = $1",
	}
	for _, stmt := range statements {
		if _, err := tx.ExecContext(ctx, stmt, userID); err != nil {
			return fmt.Errorf("delete user cascade: %w", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit delete user tx: %w", err)
	}
	return nil
}
