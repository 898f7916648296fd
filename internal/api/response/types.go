package response

import (
	"time"

	"github.com/mcoot/creaturegame/internal/model"
	"github.com/mcoot/creaturegame/internal/services/session"
)

// Identity represents a signed-in identity in API responses
type Identity struct {
	ID          string `json:"id"`
	Email       string `json:"email,omitempty"`
	DisplayName string `json:"display_name,omitempty"`
	Provider    string `json:"provider"`
	PhotoURL    string `json:"photo_url,omitempty"`
}

// IdentityFromModel converts a model.Identity
func IdentityFromModel(i *model.Identity) *Identity {
	if i == nil {
		return nil
	}
	return &Identity{
		ID:          string(i.ID),
		Email:       i.Email,
		DisplayName: i.DisplayName,
		Provider:    string(i.Provider),
		PhotoURL:    i.PhotoURL,
	}
}

// Profile represents a player profile in API responses
type Profile struct {
	ID              string    `json:"id"`
	Username        string    `json:"username"`
	Email           string    `json:"email,omitempty"`
	Elo             int       `json:"elo"`
	ProfileImageURL string    `json:"profile_image_url,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
	LastLoginAt     time.Time `json:"last_login_at"`
}

// ProfileFromModel converts a model.Profile
func ProfileFromModel(p *model.Profile) *Profile {
	if p == nil {
		return nil
	}
	return &Profile{
		ID:              string(p.ID),
		Username:        p.Username,
		Email:           p.Email,
		Elo:             p.Elo,
		ProfileImageURL: p.ProfileImageURL,
		CreatedAt:       p.CreatedAt,
		UpdatedAt:       p.UpdatedAt,
		LastLoginAt:     p.LastLoginAt,
	}
}

// Session represents a session snapshot
type Session struct {
	State    string    `json:"state"`
	SignedIn bool      `json:"signed_in"`
	Loading  bool      `json:"loading"`
	Identity *Identity `json:"identity,omitempty"`
	Profile  *Profile  `json:"profile,omitempty"`

	// ErrorKind and ErrorMessage describe the last failed operation
	ErrorKind    string `json:"error_kind,omitempty"`
	ErrorMessage string `json:"error_message,omitempty"`

	Seq     uint64 `json:"seq"`
	Version uint64 `json:"version"`
}

// SessionFromSnapshot converts a session snapshot
func SessionFromSnapshot(snap session.Snapshot) Session {
	s := Session{
		State:    snap.State.String(),
		SignedIn: snap.SignedIn(),
		Loading:  snap.Loading,
		Identity: IdentityFromModel(snap.Identity),
		Profile:  ProfileFromModel(snap.Profile),
		Seq:      snap.Seq,
		Version:  snap.Version,
	}
	if snap.Err != nil {
		s.ErrorKind = snap.ErrorKind().String()
		s.ErrorMessage = model.Message(snap.Err, "")
	}
	return s
}

// CreateSessionResponse is the response for starting a session
type CreateSessionResponse struct {
	SessionToken string  `json:"session_token"`
	Session      Session `json:"session"`
}

// Health is the response for the health check
type Health struct {
	Status  string `json:"status"`
	Storage string `json:"storage"`
}

// Status is a bare acknowledgement
type Status struct {
	Status string `json:"status"`
}
