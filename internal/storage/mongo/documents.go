package mongo

import (
	"time"

	"github.com/mcoot/creaturegame/internal/model"
)

type accountDocument struct {
	ID            string    `bson:"_id"`
	Email         string    `bson:"email"`
	DisplayName   string    `bson:"display_name"`
	PasswordHash  string    `bson:"password_hash,omitempty"`
	GoogleSubject string    `bson:"google_subject,omitempty"`
	PhotoURL      string    `bson:"photo_url,omitempty"`
	Provider      string    `bson:"provider"`
	CreatedAt     time.Time `bson:"created_at"`
	UpdatedAt     time.Time `bson:"updated_at"`
}

func toAccountDocument(a *model.Account) accountDocument {
	return accountDocument{
		ID:            string(a.ID),
		Email:         a.Email,
		DisplayName:   a.DisplayName,
		PasswordHash:  a.PasswordHash,
		GoogleSubject: a.GoogleSubject,
		PhotoURL:      a.PhotoURL,
		Provider:      string(a.Provider),
		CreatedAt:     a.CreatedAt,
		UpdatedAt:     a.UpdatedAt,
	}
}

func (d accountDocument) toModel() *model.Account {
	return &model.Account{
		ID:            model.IdentityID(d.ID),
		Email:         d.Email,
		DisplayName:   d.DisplayName,
		PasswordHash:  d.PasswordHash,
		GoogleSubject: d.GoogleSubject,
		PhotoURL:      d.PhotoURL,
		Provider:      model.AuthProvider(d.Provider),
		CreatedAt:     d.CreatedAt.UTC(),
		UpdatedAt:     d.UpdatedAt.UTC(),
	}
}

type profileDocument struct {
	ID              string    `bson:"_id"`
	Username        string    `bson:"username"`
	Email           string    `bson:"email"`
	Elo             int       `bson:"elo"`
	ProfileImageURL string    `bson:"profile_image_url"`
	CreatedAt       time.Time `bson:"created_at"`
	UpdatedAt       time.Time `bson:"updated_at"`
	LastLoginAt     time.Time `bson:"last_login_at"`
}

func toProfileDocument(p *model.Profile) profileDocument {
	return profileDocument{
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

func (d profileDocument) toModel() *model.Profile {
	return &model.Profile{
		ID:              model.IdentityID(d.ID),
		Username:        d.Username,
		Email:           d.Email,
		Elo:             d.Elo,
		ProfileImageURL: d.ProfileImageURL,
		CreatedAt:       d.CreatedAt.UTC(),
		UpdatedAt:       d.UpdatedAt.UTC(),
		LastLoginAt:     d.LastLoginAt.UTC(),
	}
}
