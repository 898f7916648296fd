package identity

import (
	"context"

	"github.com/mcoot/creaturegame/internal/model"
)

// EventKind describes why an identity event was emitted
type EventKind string

const (
	EventInitial   EventKind = "initial"
	EventSignedIn  EventKind = "signed_in"
	EventSignedOut EventKind = "signed_out"
	EventRefreshed EventKind = "refreshed"
)

// Event reports the client's current identity. Identity is nil when signed out.
// Seq increases with every emitted event; the initial event repeats the
// current Seq.
type Event struct {
	Seq      uint64
	Kind     EventKind
	Identity *model.Identity
}

// Provider is the per-session identity provider client
type Provider interface {
	Register(ctx context.Context, email, password, displayName string) (*model.Identity, error)
	Login(ctx context.Context, email, password string) (*model.Identity, error)
	LoginWithGoogle(ctx context.Context, code string) (*model.Identity, error)
	// Logout always succeeds and emits nothing when already signed out
	Logout(ctx context.Context) error
	RequestPasswordReset(ctx context.Context, email string) error
	// Refresh re-reads the signed-in account and re-emits it
	Refresh(ctx context.Context) error
	// Subscribe calls fn with the current identity immediately, then on every
	// change. Calls are never concurrent.
	Subscribe(fn func(Event)) (unsubscribe func())
}
