package identity

import (
	"context"
	"errors"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/mcoot/creaturegame/internal/dependencies/clock"
	"github.com/mcoot/creaturegame/internal/dependencies/mailer"
	"github.com/mcoot/creaturegame/internal/model"
	"github.com/mcoot/creaturegame/internal/services/oauth"
	"github.com/mcoot/creaturegame/internal/storage"
)

// Config holds configuration for the account directory
type Config struct {
	PasswordMinLength int
	BCryptCost        int

	// ResetURL is the absolute URL of the reset-password page; the token is
	// appended as the "token" query parameter.
	ResetURL      string
	ResetSecret   []byte
	ResetTokenTTL time.Duration
}

// DefaultConfig returns default directory configuration
func DefaultConfig() Config {
	return Config{
		PasswordMinLength: DefaultPasswordMinLength,
		BCryptCost:        bcrypt.DefaultCost,
		ResetURL:          "http://localhost:8080/reset-password",
		ResetTokenTTL:     time.Hour,
	}
}

// Directory is the identity backend: it owns accounts and credentials and is
// shared by every Client.
type Directory struct {
	store  storage.AccountStore
	clock  clock.Clock
	mailer mailer.Mailer
	tokens *ResetTokens
	policy PasswordPolicy
	cfg    Config
	logger *slog.Logger
}

// NewDirectory creates a Directory
func NewDirectory(store storage.AccountStore, clk clock.Clock, m mailer.Mailer, cfg Config, logger *slog.Logger) *Directory {
	defaults := DefaultConfig()
	if cfg.PasswordMinLength <= 0 {
		cfg.PasswordMinLength = defaults.PasswordMinLength
	}
	if cfg.BCryptCost == 0 {
		cfg.BCryptCost = defaults.BCryptCost
	}
	if cfg.ResetURL == "" {
		cfg.ResetURL = defaults.ResetURL
	}
	if cfg.ResetTokenTTL <= 0 {
		cfg.ResetTokenTTL = defaults.ResetTokenTTL
	}
	return &Directory{
		store:  store,
		clock:  clk,
		mailer: m,
		tokens: NewResetTokens(cfg.ResetSecret, cfg.ResetTokenTTL, clk),
		policy: PasswordPolicy{MinLength: cfg.PasswordMinLength},
		cfg:    cfg,
		logger: logger.With(slog.String("component", "identity")),
	}
}

// CreateAccount registers a password account
func (d *Directory) CreateAccount(ctx context.Context, email, password, displayName string) (*model.Account, error) {
	if err := ValidateEmail(email); err != nil {
		return nil, err
	}
	if err := d.policy.ValidatePassword(password); err != nil {
		return nil, err
	}
	email = NormalizeEmail(email)

	hash, err := bcrypt.GenerateFromPassword([]byte(password), d.cfg.BCryptCost)
	if err != nil {
		return nil, err
	}

	now := d.clock.Now()
	account := &model.Account{
		ID:           model.IdentityID(uuid.NewString()),
		Email:        email,
		DisplayName:  strings.TrimSpace(displayName),
		PasswordHash: string(hash),
		Provider:     model.ProviderPassword,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := d.store.CreateAccount(ctx, account); err != nil {
		return nil, model.AsTransport("could not create account", err)
	}

	d.logger.Info("account created",
		slog.String("identity_id", string(account.ID)),
		slog.String("provider", string(account.Provider)))
	return account, nil
}

// Authenticate checks an email/password pair
func (d *Directory) Authenticate(ctx context.Context, email, password string) (*model.Account, error) {
	if err := ValidateEmail(email); err != nil {
		return nil, err
	}

	account, err := d.store.GetAccountByEmail(ctx, NormalizeEmail(email))
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return nil, model.ErrBadCredentials
		}
		return nil, model.AsTransport("could not reach the account store", err)
	}

	if account.PasswordHash == "" {
		return nil, model.ErrBadCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(account.PasswordHash), []byte(password)); err != nil {
		return nil, model.ErrBadCredentials
	}
	return account, nil
}

// SignInWithGoogle finds the account linked to a Google user, links an
// existing account with the same verified email, or creates a new account.
func (d *Directory) SignInWithGoogle(ctx context.Context, info *oauth.UserInfo) (*model.Account, error) {
	account, err := d.store.GetAccountByGoogleSubject(ctx, info.Subject)
	if err == nil {
		return account, nil
	}
	if !errors.Is(err, model.ErrNotFound) {
		return nil, model.AsTransport("could not reach the account store", err)
	}

	email := NormalizeEmail(info.Email)
	if email == "" {
		return nil, model.NewError(model.KindInvalidCredentials, "google account has no email address")
	}

	now := d.clock.Now()
	existing, err := d.store.GetAccountByEmail(ctx, email)
	switch {
	case err == nil:
		if !info.EmailVerified {
			return nil, model.NewError(model.KindInvalidCredentials, "google email address is not verified")
		}
		existing.GoogleSubject = info.Subject
		if existing.PhotoURL == "" {
			existing.PhotoURL = info.Picture
		}
		existing.UpdatedAt = now
		if err := d.store.SaveAccount(ctx, existing); err != nil {
			return nil, model.AsTransport("could not link google account", err)
		}
		d.logger.Info("google account linked", slog.String("identity_id", string(existing.ID)))
		return existing, nil
	case !errors.Is(err, model.ErrNotFound):
		return nil, model.AsTransport("could not reach the account store", err)
	}

	account = &model.Account{
		ID:            model.IdentityID(uuid.NewString()),
		Email:         email,
		DisplayName:   strings.TrimSpace(info.Name),
		GoogleSubject: info.Subject,
		PhotoURL:      info.Picture,
		Provider:      model.ProviderGoogle,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := d.store.CreateAccount(ctx, account); err != nil {
		return nil, model.AsTransport("could not create account", err)
	}

	d.logger.Info("account created",
		slog.String("identity_id", string(account.ID)),
		slog.String("provider", string(account.Provider)))
	return account, nil
}

// GetAccount returns the account for an identity id
func (d *Directory) GetAccount(ctx context.Context, id model.IdentityID) (*model.Account, error) {
	account, err := d.store.GetAccount(ctx, id)
	if err != nil {
		return nil, model.AsTransport("could not reach the account store", err)
	}
	return account, nil
}

// SendPasswordReset mails a reset link. Unknown addresses succeed silently.
func (d *Directory) SendPasswordReset(ctx context.Context, email string) error {
	if err := ValidateEmail(email); err != nil {
		return err
	}

	account, err := d.store.GetAccountByEmail(ctx, NormalizeEmail(email))
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			d.logger.Info("password reset requested for unknown email")
			return nil
		}
		return model.AsTransport("could not reach the account store", err)
	}

	token, err := d.tokens.Issue(account)
	if err != nil {
		return err
	}

	link, err := url.Parse(d.cfg.ResetURL)
	if err != nil {
		return err
	}
	q := link.Query()
	q.Set("token", token)
	link.RawQuery = q.Encode()

	if err := d.mailer.SendPasswordReset(ctx, account.Email, link.String()); err != nil {
		return model.WrapError(model.KindTransportFailure, "could not send the password reset email", err)
	}

	d.logger.Info("password reset sent", slog.String("identity_id", string(account.ID)))
	return nil
}

// ConfirmPasswordReset sets a new password using a reset token
func (d *Directory) ConfirmPasswordReset(ctx context.Context, token, newPassword string) error {
	id, stamp, err := d.tokens.Verify(token)
	if err != nil {
		return err
	}
	if err := d.policy.ValidatePassword(newPassword); err != nil {
		return err
	}

	account, err := d.store.GetAccount(ctx, id)
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return model.ErrInvalidResetToken
		}
		return model.AsTransport("could not reach the account store", err)
	}
	if passwordStamp(account.PasswordHash) != stamp {
		return model.ErrInvalidResetToken
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), d.cfg.BCryptCost)
	if err != nil {
		return err
	}
	account.PasswordHash = string(hash)
	account.UpdatedAt = d.clock.Now()

	if err := d.store.SaveAccount(ctx, account); err != nil {
		return model.AsTransport("could not save the new password", err)
	}

	d.logger.Info("password reset completed", slog.String("identity_id", string(account.ID)))
	return nil
}
