package identity

import (
	"context"
	"errors"
	"sync"

	"golang.org/x/oauth2"

	"github.com/mcoot/creaturegame/internal/model"
	"github.com/mcoot/creaturegame/internal/services/oauth"
)

// GoogleExchanger trades an OAuth authorization code for a Google user
type GoogleExchanger interface {
	Exchange(ctx context.Context, code string) (*oauth.UserInfo, error)
}

// Client is a Provider bound to one UI session. It holds that session's
// signed-in identity and notifies subscribers of every change.
type Client struct {
	dir    *Directory
	google GoogleExchanger

	mu      sync.Mutex
	current *model.Identity
	seq     uint64
	nextSub int
	subs    map[int]func(Event)

	// deliverMu serializes event delivery
	deliverMu sync.Mutex
}

// NewClient creates a signed-out client. google may be nil when Google
// sign-in is not configured.
func NewClient(dir *Directory, google GoogleExchanger) *Client {
	return &Client{
		dir:    dir,
		google: google,
		subs:   make(map[int]func(Event)),
	}
}

var _ Provider = (*Client)(nil)

// Register creates an account and signs it in
func (c *Client) Register(ctx context.Context, email, password, displayName string) (*model.Identity, error) {
	account, err := c.dir.CreateAccount(ctx, email, password, displayName)
	if err != nil {
		return nil, err
	}
	ident := account.Identity()
	c.emit(EventSignedIn, ident)
	return ident, nil
}

// Login signs in with email and password. A failed attempt leaves the
// current identity in place.
func (c *Client) Login(ctx context.Context, email, password string) (*model.Identity, error) {
	account, err := c.dir.Authenticate(ctx, email, password)
	if err != nil {
		return nil, err
	}
	ident := account.Identity()
	c.emit(EventSignedIn, ident)
	return ident, nil
}

// LoginWithGoogle completes a Google OAuth sign-in
func (c *Client) LoginWithGoogle(ctx context.Context, code string) (*model.Identity, error) {
	if c.google == nil {
		return nil, model.ErrGoogleNotConfigured
	}

	info, err := c.google.Exchange(ctx, code)
	if err != nil {
		var retrieveErr *oauth2.RetrieveError
		if errors.As(err, &retrieveErr) {
			return nil, model.WrapError(model.KindInvalidCredentials, "google sign-in was rejected", err)
		}
		return nil, model.WrapError(model.KindTransportFailure, "could not reach google", err)
	}

	account, err := c.dir.SignInWithGoogle(ctx, info)
	if err != nil {
		return nil, err
	}
	ident := account.Identity()
	c.emit(EventSignedIn, ident)
	return ident, nil
}

// Logout clears the current identity
func (c *Client) Logout(ctx context.Context) error {
	c.mu.Lock()
	signedIn := c.current != nil
	c.mu.Unlock()

	if signedIn {
		c.emit(EventSignedOut, nil)
	}
	return nil
}

// RequestPasswordReset asks the directory to mail a reset link
func (c *Client) RequestPasswordReset(ctx context.Context, email string) error {
	return c.dir.SendPasswordReset(ctx, email)
}

// Refresh reloads the signed-in account. Signed-out clients do nothing.
func (c *Client) Refresh(ctx context.Context) error {
	c.mu.Lock()
	current := c.current
	c.mu.Unlock()

	if current == nil {
		return nil
	}

	account, err := c.dir.GetAccount(ctx, current.ID)
	if err != nil {
		return err
	}
	c.emit(EventRefreshed, account.Identity())
	return nil
}

// Current returns the signed-in identity, or nil
func (c *Client) Current() *model.Identity {
	c.mu.Lock()
	defer c.mu.Unlock()
	return copyIdentity(c.current)
}

// Subscribe registers fn and immediately delivers the current identity
func (c *Client) Subscribe(fn func(Event)) func() {
	c.deliverMu.Lock()
	defer c.deliverMu.Unlock()

	c.mu.Lock()
	id := c.nextSub
	c.nextSub++
	c.subs[id] = fn
	initial := Event{Seq: c.seq, Kind: EventInitial, Identity: copyIdentity(c.current)}
	c.mu.Unlock()

	fn(initial)

	return func() {
		c.mu.Lock()
		delete(c.subs, id)
		c.mu.Unlock()
	}
}

// emit records the new identity and delivers it to every subscriber in order
func (c *Client) emit(kind EventKind, ident *model.Identity) {
	c.deliverMu.Lock()
	defer c.deliverMu.Unlock()

	c.mu.Lock()
	c.seq++
	c.current = copyIdentity(ident)
	event := Event{Seq: c.seq, Kind: kind, Identity: copyIdentity(ident)}
	subs := make([]func(Event), 0, len(c.subs))
	for _, fn := range c.subs {
		subs = append(subs, fn)
	}
	c.mu.Unlock()

	for _, fn := range subs {
		fn(event)
	}
}

func copyIdentity(ident *model.Identity) *model.Identity {
	if ident == nil {
		return nil
	}
	out := *ident
	return &out
}
