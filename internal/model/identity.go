package model

import "time"

// IdentityID uniquely identifies an account across the system
type IdentityID string

// AuthProvider names how an identity signs in
type AuthProvider string

const (
	ProviderPassword AuthProvider = "password"
	ProviderGoogle   AuthProvider = "google"
)

// Identity is the identity provider's view of a signed-in user
type Identity struct {
	ID          IdentityID
	DisplayName string // optional
	Email       string // optional
	Provider    AuthProvider
	PhotoURL    string // optional
}

// Account is the identity provider's stored record for an identity.
// Credentials never leave the identity package.
type Account struct {
	ID            IdentityID
	Email         string // normalized, unique
	DisplayName   string
	PasswordHash  string // bcrypt; empty for Google-only accounts
	GoogleSubject string // empty unless linked to Google
	PhotoURL      string
	Provider      AuthProvider
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// Identity returns the public view of the account
func (a *Account) Identity() *Identity {
	return &Identity{
		ID:          a.ID,
		DisplayName: a.DisplayName,
		Email:       a.Email,
		Provider:    a.Provider,
		PhotoURL:    a.PhotoURL,
	}
}
