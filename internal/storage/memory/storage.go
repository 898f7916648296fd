package memory

import (
	"context"
	"sync"
	"time"

	"github.com/mcoot/creaturegame/internal/model"
	"github.com/mcoot/creaturegame/internal/storage"
)

// Storage is an in-memory implementation of the storage interface
type Storage struct {
	mu sync.RWMutex

	accounts    map[model.IdentityID]*model.Account
	emailIndex  map[string]model.IdentityID
	googleIndex map[string]model.IdentityID
	profiles    map[model.IdentityID]*model.Profile
}

// New creates a new in-memory storage instance
func New() *Storage {
	return &Storage{
		accounts:    make(map[model.IdentityID]*model.Account),
		emailIndex:  make(map[string]model.IdentityID),
		googleIndex: make(map[string]model.IdentityID),
		profiles:    make(map[model.IdentityID]*model.Profile),
	}
}

// Ensure Storage implements the interface
var _ storage.Storage = (*Storage)(nil)

// Ping always succeeds
func (s *Storage) Ping(ctx context.Context) error {
	return nil
}

// Account operations

func (s *Storage) CreateAccount(ctx context.Context, account *model.Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.emailIndex[account.Email]; ok {
		return model.ErrEmailInUse
	}
	if account.GoogleSubject != "" {
		if _, ok := s.googleIndex[account.GoogleSubject]; ok {
			return model.ErrGoogleLinked
		}
		s.googleIndex[account.GoogleSubject] = account.ID
	}
	stored := *account
	s.accounts[account.ID] = &stored
	s.emailIndex[account.Email] = account.ID
	return nil
}

func (s *Storage) SaveAccount(ctx context.Context, account *model.Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	existing, ok := s.accounts[account.ID]
	if !ok {
		return model.ErrAccountNotFound
	}
	if account.GoogleSubject != existing.GoogleSubject && account.GoogleSubject != "" {
		if owner, ok := s.googleIndex[account.GoogleSubject]; ok && owner != account.ID {
			return model.ErrGoogleLinked
		}
		s.googleIndex[account.GoogleSubject] = account.ID
	}
	stored := *account
	s.accounts[account.ID] = &stored
	return nil
}

func (s *Storage) GetAccount(ctx context.Context, id model.IdentityID) (*model.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.accountLocked(id)
}

func (s *Storage) GetAccountByEmail(ctx context.Context, email string) (*model.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.emailIndex[email]
	if !ok {
		return nil, model.ErrAccountNotFound
	}
	return s.accountLocked(id)
}

func (s *Storage) GetAccountByGoogleSubject(ctx context.Context, subject string) (*model.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.googleIndex[subject]
	if !ok {
		return nil, model.ErrAccountNotFound
	}
	return s.accountLocked(id)
}

func (s *Storage) accountLocked(id model.IdentityID) (*model.Account, error) {
	account, ok := s.accounts[id]
	if !ok {
		return nil, model.ErrAccountNotFound
	}
	out := *account
	return &out, nil
}

// Profile operations

func (s *Storage) CreateProfile(ctx context.Context, profile *model.Profile) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.profiles[profile.ID]; ok {
		return model.ErrProfileExists
	}
	stored := *profile
	s.profiles[profile.ID] = &stored
	return nil
}

func (s *Storage) GetProfile(ctx context.Context, id model.IdentityID) (*model.Profile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	profile, ok := s.profiles[id]
	if !ok {
		return nil, model.ErrProfileNotFound
	}
	out := *profile
	return &out, nil
}

func (s *Storage) UpdateProfile(ctx context.Context, id model.IdentityID, update model.ProfileUpdate, now time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	profile, ok := s.profiles[id]
	if !ok {
		return model.ErrProfileNotFound
	}
	update.Apply(profile, now)
	return nil
}

func (s *Storage) TouchLastLogin(ctx context.Context, id model.IdentityID, now time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	profile, ok := s.profiles[id]
	if !ok {
		return model.ErrProfileNotFound
	}
	profile.LastLoginAt = now
	return nil
}
