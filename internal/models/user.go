package models

import "time"

// UserRole represents the available roles for the portal.
type UserRole string

const (
	RoleAdmin    UserRole = "admin"
	RoleResident UserRole = "user"
)

// User represents a registered resident or administrator.
type User struct {
	ID           string    `db:"id" json:"id"`
	NIK          string    `db:"nik" json:"nik"`
	Email        string    `db:"email" json:"email"`
	Phone        string    `db:"phone" json:"phone"`
	PasswordHash string    `db:"password_hash" json:"-"`
	FullName     string    `db:"full_name" json:"full_name"`
	PlaceOfBirth string    `db:"place_of_birth" json:"place_of_birth"`
	DateOfBirth  *string   `db:"date_of_birth" json:"date_of_birth,omitempty"`
	Gender       string    `db:"gender" json:"gender"`
	Address      string    `db:"address" json:"address"`
	RT           *string   `db:"rt" json:"rt,omitempty"`
	RW           *string   `db:"rw" json:"rw,omitempty"`
	Kelurahan    *string   `db:"kelurahan" json:"kelurahan,omitempty"`
	Kecamatan    *string   `db:"kecamatan" json:"kecamatan,omitempty"`
	City         *string   `db:"city" json:"city,omitempty"`
	Province     *string   `db:"province" json:"province,omitempty"`
	PostalCode   *string   `db:"postal_code" json:"postal_code,omitempty"`
	Role         UserRole  `db:"role" json:"role"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time `db:"updated_at" json:"updated_at"`
}

// IsAdmin reports whether the user holds the administrator role.
func (u *User) IsAdmin() bool {
	return u != nil && u.Role == RoleAdmin
}
