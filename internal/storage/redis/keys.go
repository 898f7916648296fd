package redis

import (
	"fmt"

	"github.com/mcoot/creaturegame/internal/model"
)

// keys builds Redis keys under a configurable prefix
type keys struct {
	prefix string
}

// account returns the key holding an Account as JSON
func (k keys) account(id model.IdentityID) string {
	return fmt.Sprintf("%s:account:%s", k.prefix, id)
}

// emailIndex returns the key for the email -> identity id index
func (k keys) emailIndex(email string) string {
	return fmt.Sprintf("%s:idx:email:%s", k.prefix, email)
}

// googleIndex returns the key for the google subject -> identity id index
func (k keys) googleIndex(subject string) string {
	return fmt.Sprintf("%s:idx:google:%s", k.prefix, subject)
}

// profile returns the key of the HASH holding a Profile
func (k keys) profile(id model.IdentityID) string {
	return fmt.Sprintf("%s:profile:%s", k.prefix, id)
}

// Profile hash fields
const (
	fieldID              = "id"
	fieldUsername        = "username"
	fieldEmail           = "email"
	fieldElo             = "elo"
	fieldProfileImageURL = "profile_image_url"
	fieldCreatedAt       = "created_at"
	fieldUpdatedAt       = "updated_at"
	fieldLastLoginAt     = "last_login_at"
)
