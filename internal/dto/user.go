package dto

// UpdateUserRequest is the admin payload for editing a resident profile.
type UpdateUserRequest struct {
	FullName     string `json:"full_name" validate:"required"`
	Email        string `json:"email" validate:"required,email"`
	Phone        string `json:"phone" validate:"required"`
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
	Role         string `json:"role" validate:"omitempty,oneof=admin user"`
}
