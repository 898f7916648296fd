package storage

import (
	"context"
	"time"

	"github.com/mcoot/creaturegame/internal/model"
)

// AccountStore persists identity provider accounts
type AccountStore interface {
	// CreateAccount fails with model.ErrEmailInUse if the email is taken
	CreateAccount(ctx context.Context, account *model.Account) error
	// SaveAccount overwrites an existing account
	SaveAccount(ctx context.Context, account *model.Account) error
	GetAccount(ctx context.Context, id model.IdentityID) (*model.Account, error)
	GetAccountByEmail(ctx context.Context, email string) (*model.Account, error)
	GetAccountByGoogleSubject(ctx context.Context, subject string) (*model.Account, error)
}

// ProfileStore persists user profiles keyed by identity id.
// Lookups of missing profiles fail with model.ErrProfileNotFound.
type ProfileStore interface {
	// CreateProfile fails with model.ErrProfileExists if one is already stored
	CreateProfile(ctx context.Context, profile *model.Profile) error
	GetProfile(ctx context.Context, id model.IdentityID) (*model.Profile, error)
	// UpdateProfile merges the set fields and stamps UpdatedAt
	UpdateProfile(ctx context.Context, id model.IdentityID, update model.ProfileUpdate, now time.Time) error
	TouchLastLogin(ctx context.Context, id model.IdentityID, now time.Time) error
}

// Storage defines the interface for data persistence
type Storage interface {
	AccountStore
	ProfileStore

	// Ping checks the backend is reachable
	Ping(ctx context.Context) error
}
