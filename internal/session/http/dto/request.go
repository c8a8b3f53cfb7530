// Package dto provides data transfer objects for session HTTP request and
// response handling.
package dto

import (
	validation "github.com/jellydator/validation"

	customValidation "github.com/parlorchat/parlor/internal/validation"
)

// LoginRequest contains the credentials presented at login.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Remember bool   `json:"remember"`
}

// Validate checks if the login request is well-formed. Whether the
// credentials are correct is the use case's business.
func (r *LoginRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.Email,
			validation.Required,
			customValidation.NotBlank,
			validation.Length(5, 255),
		),
		validation.Field(&r.Password,
			validation.Required,
			validation.Length(1, 128),
		),
	)
}
