package session

import (
	"context"
	"sync"

	"github.com/mcoot/creaturegame/internal/model"
	"github.com/mcoot/creaturegame/internal/services/identity"
)

// fakeProvider lets tests deliver identity events in any order
type fakeProvider struct {
	mu         sync.Mutex
	subscriber func(identity.Event)

	// initial is delivered on Subscribe unless holdInitial is set
	initial     identity.Event
	holdInitial bool

	loginStarted chan struct{}
	loginRelease chan struct{}
	loginErr     error
}

var _ identity.Provider = (*fakeProvider)(nil)

func (p *fakeProvider) Subscribe(fn func(identity.Event)) func() {
	p.mu.Lock()
	p.subscriber = fn
	p.mu.Unlock()
	if !p.holdInitial {
		fn(p.initial)
	}
	return func() {
		p.mu.Lock()
		p.subscriber = nil
		p.mu.Unlock()
	}
}

func (p *fakeProvider) emit(e identity.Event) {
	p.mu.Lock()
	fn := p.subscriber
	p.mu.Unlock()
	if fn != nil {
		fn(e)
	}
}

func (p *fakeProvider) Register(ctx context.Context, email, password, displayName string) (*model.Identity, error) {
	return nil, model.ErrInvalidInput
}

func (p *fakeProvider) Login(ctx context.Context, email, password string) (*model.Identity, error) {
	if p.loginStarted != nil {
		close(p.loginStarted)
		<-p.loginRelease
	}
	return nil, p.loginErr
}

func (p *fakeProvider) LoginWithGoogle(ctx context.Context, code string) (*model.Identity, error) {
	return nil, model.ErrGoogleNotConfigured
}

func (p *fakeProvider) Logout(ctx context.Context) error { return nil }

func (p *fakeProvider) RequestPasswordReset(ctx context.Context, email string) error { return nil }

func (p *fakeProvider) Refresh(ctx context.Context) error { return nil }

// fakeProfiles is an in-memory ProfileStore with hooks for blocking and failing reads
type fakeProfiles struct {
	mu       sync.Mutex
	profiles map[model.IdentityID]*model.Profile
	getErr   error

	// when block is set, the next GetProfile signals fetchStarted and waits for block
	block        chan struct{}
	fetchStarted chan struct{}
}

var _ ProfileStore = (*fakeProfiles)(nil)

func newFakeProfiles() *fakeProfiles {
	return &fakeProfiles{profiles: make(map[model.IdentityID]*model.Profile)}
}

func (f *fakeProfiles) put(p *model.Profile) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.profiles[p.ID] = p
}

func (f *fakeProfiles) CreateProfile(ctx context.Context, ident *model.Identity, username string) (*model.Profile, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.profiles[ident.ID]; ok {
		return nil, model.ErrProfileExists
	}
	p := &model.Profile{ID: ident.ID, Username: username, Elo: model.DefaultElo}
	f.profiles[ident.ID] = p
	return p, nil
}

func (f *fakeProfiles) GetProfile(ctx context.Context, id model.IdentityID) (*model.Profile, error) {
	f.mu.Lock()
	block, started := f.block, f.fetchStarted
	f.block, f.fetchStarted = nil, nil
	f.mu.Unlock()
	if block != nil {
		close(started)
		<-block
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.getErr != nil {
		return nil, f.getErr
	}
	p, ok := f.profiles[id]
	if !ok {
		return nil, nil
	}
	out := *p
	return &out, nil
}

func (f *fakeProfiles) UpdateProfile(ctx context.Context, id model.IdentityID, update model.ProfileUpdate) error {
	return nil
}

func (f *fakeProfiles) RecordLogin(ctx context.Context, id model.IdentityID) error {
	return nil
}

func (f *fakeProfiles) ValidateUsername(username string) error {
	return nil
}
