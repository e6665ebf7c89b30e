package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/sistem-rt/portal-api/internal/models"
	"github.com/sistem-rt/portal-api/pkg/config"
	appErrors "github.com/sistem-rt/portal-api/pkg/errors"
)

type authStoreStub struct {
	byNIK   map[string]*models.User
	byEmail map[string]*models.User
}

func newAuthStoreStub() *authStoreStub {
	return &authStoreStub{
		byNIK:   make(map[string]*models.User),
		byEmail: make(map[string]*models.User),
	}
}

func (s *authStoreStub) Create(ctx context.Context, user *models.User) error {
	if user.ID == "" {
		user.ID = "user-" + user.NIK
	}
	copy := *user
	s.byNIK[user.NIK] = &copy
	s.byEmail[user.Email] = &copy
	return nil
}

func (s *authStoreStub) FindByNIK(ctx context.Context, nik string) (*models.User, error) {
	user, ok := s.byNIK[nik]
	if !ok {
		return nil, sql.ErrNoRows
	}
	copy := *user
	return &copy, nil
}

func (s *authStoreStub) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	user, ok := s.byEmail[email]
	if !ok {
		return nil, sql.ErrNoRows
	}
	copy := *user
	return &copy, nil
}

func jwtTestConfig() config.JWTConfig {
	return config.JWTConfig{Secret: "test-secret", Expiration: time.Hour, Issuer: "sistem-rt"}
}

func validRegistration() models.RegisterRequest {
	return models.RegisterRequest{
		NIK:          "3174012345678901",
		Email:        "budi@example.com",
		Phone:        "081234567890",
		Password:     "rahasia123",
		FullName:     "Budi Santoso",
		PlaceOfBirth: "Jakarta",
		DateOfBirth:  "1990-05-20",
		Gender:       "laki-laki",
		Address:      "Jl. Melati No. 10",
	}
}

func TestRegisterHashesPasswordAndDefaultsRole(t *testing.T) {
	store := newAuthStoreStub()
	svc := NewAuthService(store, jwtTestConfig(), nil)

	user, err := svc.Register(context.Background(), validRegistration())
	require.NoError(t, err)
	require.Equal(t, models.RoleResident, user.Role)
	require.NotEqual(t, "rahasia123", user.PasswordHash)
	require.NoError(t, bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte("rahasia123")))
}

func TestRegisterRejectsInvalidNIK(t *testing.T) {
	store := newAuthStoreStub()
	svc := NewAuthService(store, jwtTestConfig(), nil)

	req := validRegistration()
	req.NIK = "1234"
	_, err := svc.Register(context.Background(), req)
	require.Error(t, err)
	require.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestRegisterRejectsDuplicateNIK(t *testing.T) {
	store := newAuthStoreStub()
	svc := NewAuthService(store, jwtTestConfig(), nil)

	_, err := svc.Register(context.Background(), validRegistration())
	require.NoError(t, err)

	dup := validRegistration()
	dup.Email = "other@example.com"
	_, err = svc.Register(context.Background(), dup)
	require.Error(t, err)
	require.Equal(t, appErrors.ErrConflict.Code, appErrors.FromError(err).Code)
}

func TestRegisterRejectsDuplicateEmail(t *testing.T) {
	store := newAuthStoreStub()
	svc := NewAuthService(store, jwtTestConfig(), nil)

	_, err := svc.Register(context.Background(), validRegistration())
	require.NoError(t, err)

	dup := validRegistration()
	dup.NIK = "3174019876543210"
	_, err = svc.Register(context.Background(), dup)
	require.Error(t, err)
	require.Equal(t, appErrors.ErrConflict.Code, appErrors.FromError(err).Code)
}

func TestLoginIssuesVerifiableToken(t *testing.T) {
	store := newAuthStoreStub()
	svc := NewAuthService(store, jwtTestConfig(), nil)

	_, err := svc.Register(context.Background(), validRegistration())
	require.NoError(t, err)

	result, err := svc.Login(context.Background(), models.LoginRequest{NIK: "3174012345678901", Password: "rahasia123"})
	require.NoError(t, err)
	require.NotEmpty(t, result.AccessToken)
	require.Equal(t, int64(3600), result.ExpiresIn)
	require.Equal(t, "Budi Santoso", result.User.FullName)

	claims, err := svc.ValidateToken(result.AccessToken)
	require.NoError(t, err)
	require.Equal(t, result.User.ID, claims.UserID)
	require.Equal(t, models.RoleResident, claims.Role)
	require.Equal(t, "sistem-rt", claims.Issuer)
}

func TestLoginWrongPasswordAndUnknownNIKLookAlike(t *testing.T) {
	store := newAuthStoreStub()
	svc := NewAuthService(store, jwtTestConfig(), nil)

	_, err := svc.Register(context.Background(), validRegistration())
	require.NoError(t, err)

	_, errWrong := svc.Login(context.Background(), models.LoginRequest{NIK: "3174012345678901", Password: "salah"})
	_, errUnknown := svc.Login(context.Background(), models.LoginRequest{NIK: "0000000000000000", Password: "salah"})
	require.Error(t, errWrong)
	require.Error(t, errUnknown)
	require.Equal(t, appErrors.FromError(errWrong).Message, appErrors.FromError(errUnknown).Message)
	require.Equal(t, appErrors.ErrInvalidCredentials.Code, appErrors.FromError(errWrong).Code)
}

func TestValidateTokenRejectsTampered(t *testing.T) {
	store := newAuthStoreStub()
	svc := NewAuthService(store, jwtTestConfig(), nil)

	_, err := svc.Register(context.Background(), validRegistration())
	require.NoError(t, err)
	result, err := svc.Login(context.Background(), models.LoginRequest{NIK: "3174012345678901", Password: "rahasia123"})
	require.NoError(t, err)

	_, err = svc.ValidateToken(result.AccessToken + "x")
	require.Error(t, err)
	require.Equal(t, appErrors.ErrUnauthorized.Code, appErrors.FromError(err).Code)
}
