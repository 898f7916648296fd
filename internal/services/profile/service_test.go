package profile

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/suite"

	"github.com/mcoot/creaturegame/internal/dependencies/mocks"
	"github.com/mcoot/creaturegame/internal/model"
	"github.com/mcoot/creaturegame/internal/storage/memory"
	"github.com/mcoot/creaturegame/internal/testutil"
)

type ServiceSuite struct {
	suite.Suite
	storage *memory.Storage
	clock   *mocks.MockClock
	service *Service
	ctx     context.Context
	ident   *model.Identity
}

func TestServiceSuite(t *testing.T) {
	suite.Run(t, new(ServiceSuite))
}

func (s *ServiceSuite) SetupTest() {
	s.storage = memory.New()
	s.clock = mocks.NewMockClock(time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC))
	s.service = New(s.storage, s.clock, testutil.NopLogger())
	s.ctx = context.Background()
	s.ident = &model.Identity{ID: "abcdef123", Email: "ann@x.com", DisplayName: "Annie"}
}

func (s *ServiceSuite) TestCreateProfile() {
	profile, err := s.service.CreateProfile(s.ctx, s.ident, "  ann  ")
	s.Require().NoError(err)

	s.Equal(s.ident.ID, profile.ID)
	s.Equal("ann", profile.Username)
	s.Equal("ann@x.com", profile.Email)
	s.Equal(1000, profile.Elo)
	s.Equal(s.clock.Now(), profile.CreatedAt)
	s.Equal(s.clock.Now(), profile.UpdatedAt)
	s.Equal(s.clock.Now(), profile.LastLoginAt)

	stored, err := s.service.GetProfile(s.ctx, s.ident.ID)
	s.Require().NoError(err)
	s.Equal(profile, stored)
}

func (s *ServiceSuite) TestCreateProfileKeepsUsernameAsTyped() {
	tests := []string{"a<b>c", "<i>zed</i>", "Tom &amp; Jerry", "x>y&z", "  <b>ann</b>  "}

	for i, name := range tests {
		s.Run(name, func() {
			ident := &model.Identity{ID: model.IdentityID(fmt.Sprintf("id-%d", i)), Email: "ann@x.com"}
			profile, err := s.service.CreateProfile(s.ctx, ident, name)
			s.Require().NoError(err)
			s.Equal(strings.TrimSpace(name), profile.Username)

			stored, err := s.service.GetProfile(s.ctx, ident.ID)
			s.Require().NoError(err)
			s.Equal(strings.TrimSpace(name), stored.Username)
		})
	}
}

func (s *ServiceSuite) TestUsernameLengthCountsRunes() {
	// three characters, more than three bytes
	profile, err := s.service.CreateProfile(s.ctx, s.ident, "<é>")
	s.Require().NoError(err)
	s.Equal("<é>", profile.Username)

	s.NoError(s.service.ValidateUsername(strings.Repeat("ü", 30)))
	s.ErrorIs(s.service.ValidateUsername(strings.Repeat("ü", 31)), model.ErrInvalidInput)
	s.ErrorIs(s.service.ValidateUsername("<>"), model.ErrInvalidInput)
}

func (s *ServiceSuite) TestCreateProfileBlankUsernameFallsBack() {
	tests := []struct {
		name     string
		ident    *model.Identity
		expected string
	}{
		{"display name", &model.Identity{ID: "id-1", DisplayName: "Annie", Email: "ann@x.com"}, "Annie"},
		{"email local part", &model.Identity{ID: "id-2", Email: "bobby@x.com"}, "bobby"},
		{"short names skipped", &model.Identity{ID: "id-3", DisplayName: "Al", Email: "al@x.com"}, "User_id-3"},
		{"id prefix", &model.Identity{ID: "0123456789"}, "User_01234"},
	}

	for _, tt := range tests {
		s.Run(tt.name, func() {
			profile, err := s.service.CreateProfile(s.ctx, tt.ident, "   ")
			s.Require().NoError(err)
			s.Equal(tt.expected, profile.Username)
			s.Equal(model.DefaultElo, profile.Elo)
		})
	}
}

func (s *ServiceSuite) TestCreateProfileRejectsShortOrLongUsername() {
	_, err := s.service.CreateProfile(s.ctx, s.ident, " ab ")
	s.ErrorIs(err, model.ErrInvalidInput)

	_, err = s.service.CreateProfile(s.ctx, s.ident, "abcdefghijklmnopqrstuvwxyz012345")
	s.ErrorIs(err, model.ErrInvalidInput)

	profile, err := s.service.GetProfile(s.ctx, s.ident.ID)
	s.NoError(err)
	s.Nil(profile)
}

func (s *ServiceSuite) TestCreateProfileTwice() {
	_, err := s.service.CreateProfile(s.ctx, s.ident, "ann")
	s.Require().NoError(err)

	_, err = s.service.CreateProfile(s.ctx, s.ident, "ann")
	s.ErrorIs(err, model.ErrAlreadyExists)
}

func (s *ServiceSuite) TestGetProfileAbsent() {
	profile, err := s.service.GetProfile(s.ctx, "missing")
	s.NoError(err)
	s.Nil(profile)
}

func (s *ServiceSuite) TestUpdateProfileMerges() {
	_, err := s.service.CreateProfile(s.ctx, s.ident, "ann")
	s.Require().NoError(err)
	s.clock.Advance(time.Hour)

	elo := 1250
	s.Require().NoError(s.service.UpdateProfile(s.ctx, s.ident.ID, model.ProfileUpdate{Elo: &elo}))

	profile, err := s.service.GetProfile(s.ctx, s.ident.ID)
	s.Require().NoError(err)
	s.Equal(1250, profile.Elo)
	s.Equal("ann", profile.Username)
	s.Equal(s.clock.Now(), profile.UpdatedAt)
	s.Equal(s.clock.Now().Add(-time.Hour), profile.CreatedAt)
}

func (s *ServiceSuite) TestUpdateProfileValidation() {
	_, err := s.service.CreateProfile(s.ctx, s.ident, "ann")
	s.Require().NoError(err)

	blank := "   "
	negative := -1
	badURL := "javascript:alert(1)"

	tests := []struct {
		name   string
		id     model.IdentityID
		update model.ProfileUpdate
	}{
		{"empty id", "", model.ProfileUpdate{Elo: &negative}},
		{"empty update", s.ident.ID, model.ProfileUpdate{}},
		{"blank username", s.ident.ID, model.ProfileUpdate{Username: &blank}},
		{"negative elo", s.ident.ID, model.ProfileUpdate{Elo: &negative}},
		{"bad image url", s.ident.ID, model.ProfileUpdate{ProfileImageURL: &badURL}},
	}

	for _, tt := range tests {
		s.Run(tt.name, func() {
			err := s.service.UpdateProfile(s.ctx, tt.id, tt.update)
			s.ErrorIs(err, model.ErrInvalidInput)
		})
	}
}

func (s *ServiceSuite) TestUpdateProfileMissing() {
	name := "newname"
	err := s.service.UpdateProfile(s.ctx, "missing", model.ProfileUpdate{Username: &name})
	s.ErrorIs(err, model.ErrNotFound)
}

func (s *ServiceSuite) TestRecordLogin() {
	_, err := s.service.CreateProfile(s.ctx, s.ident, "ann")
	s.Require().NoError(err)
	s.clock.Advance(48 * time.Hour)

	s.Require().NoError(s.service.RecordLogin(s.ctx, s.ident.ID))

	profile, _ := s.service.GetProfile(s.ctx, s.ident.ID)
	s.Equal(s.clock.Now(), profile.LastLoginAt)
}

// failingStore fails every call with a backend error
type failingStore struct {
	memory.Storage
}

func (f *failingStore) GetProfile(ctx context.Context, id model.IdentityID) (*model.Profile, error) {
	return nil, errors.New("connection reset by peer")
}

func TestGetProfileTransportFailure(t *testing.T) {
	svc := New(&failingStore{}, mocks.NewMockClock(time.Now()), testutil.NopLogger())

	_, err := svc.GetProfile(context.Background(), "id-1")
	assert.ErrorIs(t, err, model.ErrTransportFailure)
}

func TestValidateUsername(t *testing.T) {
	svc := New(memory.New(), mocks.NewMockClock(time.Now()), testutil.NopLogger())

	assert.NoError(t, svc.ValidateUsername(""))
	assert.NoError(t, svc.ValidateUsername("ann"))
	assert.ErrorIs(t, svc.ValidateUsername("an"), model.ErrInvalidInput)
}
