package model

import "time"

const (
	// DefaultElo is the rating every new profile starts with
	DefaultElo = 1000

	UsernameMinLength = 3
	UsernameMaxLength = 30
)

// Profile is this system's record about a user, one per identity
type Profile struct {
	ID              IdentityID // equals the owning identity's ID
	Username        string
	Email           string // copied from the identity at creation
	Elo             int
	ProfileImageURL string // optional
	CreatedAt       time.Time
	UpdatedAt       time.Time
	LastLoginAt     time.Time
}

// ProfileUpdate lists the fields to merge into a profile; nil fields are untouched
type ProfileUpdate struct {
	Username        *string
	Elo             *int
	ProfileImageURL *string
}

// IsEmpty reports whether the update sets no fields
func (u ProfileUpdate) IsEmpty() bool {
	return u.Username == nil && u.Elo == nil && u.ProfileImageURL == nil
}

// Apply merges the update into p
func (u ProfileUpdate) Apply(p *Profile, now time.Time) {
	if u.Username != nil {
		p.Username = *u.Username
	}
	if u.Elo != nil {
		p.Elo = *u.Elo
	}
	if u.ProfileImageURL != nil {
		p.ProfileImageURL = *u.ProfileImageURL
	}
	p.UpdatedAt = now
}
