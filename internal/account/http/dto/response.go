package dto

import (
	"time"

	accountDomain "github.com/parlorchat/parlor/internal/account/domain"
)

// AccountResponse represents an account in API responses. Only plaintext
// columns appear here; the password hash, wrapped key, and ciphertext blobs
// never leave the server.
type AccountResponse struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"created_at"`
}

// MapAccountToResponse converts a domain account to an API response.
func MapAccountToResponse(account *accountDomain.Account) AccountResponse {
	return AccountResponse{
		ID:        account.ID.String(),
		Email:     account.Email,
		CreatedAt: account.CreatedAt,
	}
}

// ProfileResponse represents an account's decrypted profile fields.
type ProfileResponse struct {
	GivenName  string `json:"given_name"`
	FamilyName string `json:"family_name"`
	Phone      string `json:"phone"`
}

// MapProfileToResponse converts a domain profile to an API response.
func MapProfileToResponse(profile *accountDomain.Profile) ProfileResponse {
	return ProfileResponse{
		GivenName:  profile.GivenName,
		FamilyName: profile.FamilyName,
		Phone:      profile.Phone,
	}
}
