package identity

import (
	"crypto/sha256"
	"encoding/hex"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/segmentio/ksuid"

	"github.com/mcoot/creaturegame/internal/dependencies/clock"
	"github.com/mcoot/creaturegame/internal/model"
)

// resetClaims are carried by password reset tokens. Stamp binds the token to
// the password hash it was issued against, so a token stops working once the
// password changes.
type resetClaims struct {
	jwt.RegisteredClaims
	Stamp string `json:"stamp"`
}

// ResetTokens issues and verifies signed password reset tokens
type ResetTokens struct {
	secret []byte
	ttl    time.Duration
	clock  clock.Clock
}

// NewResetTokens creates a token issuer
func NewResetTokens(secret []byte, ttl time.Duration, clk clock.Clock) *ResetTokens {
	return &ResetTokens{secret: secret, ttl: ttl, clock: clk}
}

// Issue signs a reset token for the account
func (t *ResetTokens) Issue(account *model.Account) (string, error) {
	now := t.clock.Now()
	claims := resetClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   string(account.ID),
			ID:        ksuid.New().String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(t.ttl)),
		},
		Stamp: passwordStamp(account.PasswordHash),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(t.secret)
}

// Verify parses a token and returns the account id and password stamp it was issued for
func (t *ResetTokens) Verify(tokenString string) (model.IdentityID, string, error) {
	claims := &resetClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		return t.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(t.clock.Now),
		jwt.WithExpirationRequired(),
	)
	if err != nil || !token.Valid || claims.Subject == "" {
		return "", "", model.ErrInvalidResetToken
	}
	return model.IdentityID(claims.Subject), claims.Stamp, nil
}

func passwordStamp(hash string) string {
	sum := sha256.Sum256([]byte(hash))
	return hex.EncodeToString(sum[:])[:16]
}
