package models

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// JWTClaims carries the authenticated identity through request contexts.
type JWTClaims struct {
	UserID   string   `json:"uid"`
	NIK      string   `json:"nik"`
	Role     UserRole `json:"role"`
	FullName string   `json:"name"`
	jwt.RegisteredClaims
}

// RegisterRequest is the resident self-registration payload.
type RegisterRequest struct {
	NIK          string `json:"nik" validate:"required,len=16,numeric"`
	Email        string `json:"email" validate:"required,email"`
	Phone        string `json:"phone" validate:"required"`
	Password     string `json:"password" validate:"required,min=6"`
	FullName     string `json:"full_name" validate:"required"`
	PlaceOfBirth string `json:"place_of_birth" validate:"required"`
	DateOfBirth  string `json:"date_of_birth" validate:"required"`
	Gender       string `json:"gender" validate:"required,oneof=laki-laki perempuan"`
	Address      string `json:"address" validate:"required"`
	RT           string `json:"rt"`
	RW           string `json:"rw"`
	Kelurahan    string `json:"kelurahan"`
	Kecamatan    string `json:"kecamatan"`
	City         string `json:"city"`
	Province     string `json:"province"`
	PostalCode   string `json:"postal_code"`
}

// LoginRequest authenticates a resident by NIK and password.
type LoginRequest struct {
	NIK      string `json:"nik" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// UserInfo is the public identity slice embedded in auth responses.
type UserInfo struct {
	ID       string   `json:"id"`
	NIK      string   `json:"nik"`
	Email    string   `json:"email"`
	Phone    string   `json:"phone"`
	FullName string   `json:"full_name"`
	Role     UserRole `json:"role"`
}

// LoginResponse is returned after a successful login.
type LoginResponse struct {
	AccessToken string    `json:"access_token"`
	ExpiresIn   int64     `json:"expires_in"`
	IssuedAt    time.Time `json:"issued_at"`
	User        UserInfo  `json:"user"`
}
