// Package dto provides data transfer objects for account HTTP request and
// response handling.
package dto

import (
	"github.com/parlorchat/parlor/internal/account/usecase"
)

// RegisterRequest contains the parameters for creating a new account.
// Validation happens in the use case, where the configured password policy
// lives.
type RegisterRequest struct {
	Email      string `json:"email"`
	Password   string `json:"password"`
	GivenName  string `json:"given_name"`
	FamilyName string `json:"family_name"`
	Phone      string `json:"phone"`
}

// ToRegisterInput converts the request DTO to a use case input.
func ToRegisterInput(r RegisterRequest) usecase.RegisterInput {
	return usecase.RegisterInput{
		Email:      r.Email,
		Password:   r.Password,
		GivenName:  r.GivenName,
		FamilyName: r.FamilyName,
		Phone:      r.Phone,
	}
}

// UpdateProfileRequest carries a partial profile update. Absent fields are
// left untouched; empty strings clear the field.
type UpdateProfileRequest struct {
	GivenName  *string `json:"given_name"`
	FamilyName *string `json:"family_name"`
	Phone      *string `json:"phone"`
}

// ToUpdateProfileInput converts the request DTO to a use case input.
func ToUpdateProfileInput(r UpdateProfileRequest) usecase.UpdateProfileInput {
	return usecase.UpdateProfileInput{
		GivenName:  r.GivenName,
		FamilyName: r.FamilyName,
		Phone:      r.Phone,
	}
}
