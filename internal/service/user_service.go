package service

import (
	"context"
	"database/sql"
	"errors"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/sistem-rt/portal-api/internal/dto"
	"github.com/sistem-rt/portal-api/internal/models"
	"github.com/sistem-rt/portal-api/internal/repository"
	appErrors "github.com/sistem-rt/portal-api/pkg/errors"
)

type adminUserStore interface {
	FindByID(ctx context.Context, id string) (*models.User, error)
	List(ctx context.Context) ([]models.User, error)
	CountByRole(ctx context.Context, role models.UserRole) (int, error)
	Update(ctx context.Context, user *models.User) error
	DeleteCascade(ctx context.Context, userID string) error
}

// UserService provides the admin account-management surface plus the
// self-profile read.
type UserService struct {
	users    adminUserStore
	validate *validator.Validate
	logger   *zap.Logger
}

// NewUserService constructs the service.
func NewUserService(users adminUserStore, logger *zap.Logger) *UserService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &UserService{
		users:    users,
		validate: validator.New(),
		logger:   logger,
	}
}

// Get returns one account by identifier.
func (s *UserService) Get(ctx context.Context, id string) (*models.User, error) {
	user, err := s.users.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "pengguna tidak ditemukan")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load user")
	}
	return user, nil
}

// List returns every account (admin view).
func (s *UserService) List(ctx context.Context, actor *models.JWTClaims) ([]models.User, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	users, err := s.users.List(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list users")
	}
	return users, nil
}

// Update edits an account's profile and, optionally, its role. Demoting the
// last remaining administrator is refused.
func (s *UserService) Update(ctx context.Context, id string, req dto.UpdateUserRequest, actor *models.JWTClaims) (*models.User, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	if err := s.validate.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, validationMessage(err))
	}

	user, err := s.users.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "pengguna tidak ditemukan")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load user")
	}

	newRole := user.Role
	if req.Role != "" {
		newRole = models.UserRole(req.Role)
	}
	if user.Role == models.RoleAdmin && newRole != models.RoleAdmin {
		adminCount, err := s.users.CountByRole(ctx, models.RoleAdmin)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count administrators")
		}
		if adminCount <= 1 {
			return nil, appErrors.Clone(appErrors.ErrConflict, "tidak dapat mengubah peran admin terakhir")
		}
	}

	user.FullName = req.FullName
	user.Email = req.Email
	user.Phone = req.Phone
	user.PlaceOfBirth = req.PlaceOfBirth
	user.DateOfBirth = optionalString(req.DateOfBirth)
	user.Gender = req.Gender
	user.Address = req.Address
	user.RT = optionalString(req.RT)
	user.RW = optionalString(req.RW)
	user.Kelurahan = optionalString(req.Kelurahan)
	user.Kecamatan = optionalString(req.Kecamatan)
	user.City = optionalString(req.City)
	user.Province = optionalString(req.Province)
	user.PostalCode = optionalString(req.PostalCode)
	user.Role = newRole

	if err := s.users.Update(ctx, user); err != nil {
		if repository.IsUniqueViolation(err) {
			return nil, appErrors.Clone(appErrors.ErrConflict, "email sudah terdaftar")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update user")
	}
	return user, nil
}

// Delete removes an account together with its letters, payments and
// notifications. Admins cannot delete themselves, and the last administrator
// cannot be removed.
func (s *UserService) Delete(ctx context.Context, id string, actor *models.JWTClaims) error {
	if err := requireAdmin(actor); err != nil {
		return err
	}
	if actor.UserID == id {
		return appErrors.Clone(appErrors.ErrConflict, "tidak dapat menghapus akun sendiri")
	}

	user, err := s.users.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "pengguna tidak ditemukan")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load user")
	}

	if user.Role == models.RoleAdmin {
		adminCount, err := s.users.CountByRole(ctx, models.RoleAdmin)
		if err != nil {
			return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count administrators")
		}
		if adminCount <= 1 {
			return appErrors.Clone(appErrors.ErrConflict, "tidak dapat menghapus admin terakhir")
		}
	}

	if err := s.users.DeleteCascade(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete user")
	}
	s.logger.Info("user deleted", zap.String("user_id", id), zap.String("actor_id", actor.UserID))
	return nil
}
