package profile

import (
	"context"
	"errors"
	"log/slog"
	"net/url"
	"strings"
	"unicode/utf8"

	"github.com/mcoot/creaturegame/internal/dependencies/clock"
	"github.com/mcoot/creaturegame/internal/model"
	"github.com/mcoot/creaturegame/internal/storage"
)

// Service is the profile store adapter used by session controllers
type Service struct {
	store  storage.ProfileStore
	clock  clock.Clock
	logger *slog.Logger
}

// New creates a new profile Service
func New(store storage.ProfileStore, clk clock.Clock, logger *slog.Logger) *Service {
	return &Service{
		store:  store,
		clock:  clk,
		logger: logger.With(slog.String("component", "profile")),
	}
}

// CreateProfile writes the initial profile for a newly registered identity.
// The username is stored as entered, minus surrounding whitespace. A blank
// username falls back to a name derived from the identity.
func (s *Service) CreateProfile(ctx context.Context, ident *model.Identity, username string) (*model.Profile, error) {
	if ident == nil || ident.ID == "" {
		return nil, model.ErrMissingID
	}

	name := CleanUsername(username)
	if name == "" {
		name = FallbackUsername(ident)
	} else if err := checkUsernameLength(name); err != nil {
		return nil, err
	}

	now := s.clock.Now()
	profile := &model.Profile{
		ID:          ident.ID,
		Username:    name,
		Email:       ident.Email,
		Elo:         model.DefaultElo,
		CreatedAt:   now,
		UpdatedAt:   now,
		LastLoginAt: now,
	}

	if err := s.store.CreateProfile(ctx, profile); err != nil {
		return nil, model.AsTransport("could not create profile", err)
	}

	s.logger.Info("profile created",
		slog.String("identity_id", string(profile.ID)),
		slog.String("username", profile.Username))
	return profile, nil
}

// GetProfile returns the profile for id, or nil when none exists
func (s *Service) GetProfile(ctx context.Context, id model.IdentityID) (*model.Profile, error) {
	if id == "" {
		return nil, model.ErrMissingID
	}

	profile, err := s.store.GetProfile(ctx, id)
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return nil, nil
		}
		return nil, model.AsTransport("could not load profile", err)
	}
	return profile, nil
}

// UpdateProfile merges the set fields of update into the stored profile
func (s *Service) UpdateProfile(ctx context.Context, id model.IdentityID, update model.ProfileUpdate) error {
	if id == "" {
		return model.ErrMissingID
	}
	if update.IsEmpty() {
		return model.ErrEmptyUpdate
	}

	if update.Username != nil {
		name := CleanUsername(*update.Username)
		if name == "" {
			return model.NewError(model.KindInvalidInput, "username cannot be blank")
		}
		if err := checkUsernameLength(name); err != nil {
			return err
		}
		update.Username = &name
	}
	if update.Elo != nil && *update.Elo < 0 {
		return model.NewError(model.KindInvalidInput, "elo cannot be negative")
	}
	if update.ProfileImageURL != nil {
		imageURL := strings.TrimSpace(*update.ProfileImageURL)
		if err := validateImageURL(imageURL); err != nil {
			return err
		}
		update.ProfileImageURL = &imageURL
	}

	if err := s.store.UpdateProfile(ctx, id, update, s.clock.Now()); err != nil {
		return model.AsTransport("could not update profile", err)
	}

	s.logger.Info("profile updated", slog.String("identity_id", string(id)))
	return nil
}

// RecordLogin stamps the profile's last login time
func (s *Service) RecordLogin(ctx context.Context, id model.IdentityID) error {
	if err := s.store.TouchLastLogin(ctx, id, s.clock.Now()); err != nil {
		return model.AsTransport("could not record login", err)
	}
	return nil
}

// ValidateUsername checks a username as entered in a form. A blank
// username is accepted and replaced by a fallback at creation.
func (s *Service) ValidateUsername(username string) error {
	name := CleanUsername(username)
	if name == "" {
		return nil
	}
	return checkUsernameLength(name)
}

// CleanUsername trims surrounding whitespace. Markup is kept as typed and
// escaped when rendered.
func CleanUsername(username string) string {
	return strings.TrimSpace(username)
}

// FallbackUsername derives a username from the identity: its display name,
// else its email's local part, else "User_" and the first characters of its id.
func FallbackUsername(ident *model.Identity) string {
	candidates := []string{strings.TrimSpace(ident.DisplayName)}
	if local, _, ok := strings.Cut(ident.Email, "@"); ok {
		candidates = append(candidates, strings.TrimSpace(local))
	}

	for _, name := range candidates {
		name = truncate(name, model.UsernameMaxLength)
		if utf8.RuneCountInString(name) >= model.UsernameMinLength {
			return name
		}
	}
	return "User_" + truncate(string(ident.ID), 5)
}

func checkUsernameLength(name string) error {
	n := utf8.RuneCountInString(name)
	if n < model.UsernameMinLength {
		return model.Errorf(model.KindInvalidInput, "username must be at least %d characters", model.UsernameMinLength)
	}
	if n > model.UsernameMaxLength {
		return model.Errorf(model.KindInvalidInput, "username must be at most %d characters", model.UsernameMaxLength)
	}
	return nil
}

func validateImageURL(raw string) error {
	if raw == "" {
		return nil
	}
	u, err := url.Parse(raw)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return model.NewError(model.KindInvalidInput, "profile image must be an http or https URL")
	}
	return nil
}

func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}
