package session

import (
	"github.com/mcoot/creaturegame/internal/model"
)

// State is the session controller's authentication state
type State int

const (
	// StateInitializing holds until the provider reports the initial identity
	StateInitializing State = iota
	// StateProfileLoading is the transient part of being signed in while the profile is fetched
	StateProfileLoading
	StateAuthenticated
	StateUnauthenticated
)

func (s State) String() string {
	switch s {
	case StateInitializing:
		return "initializing"
	case StateProfileLoading:
		return "profile_loading"
	case StateAuthenticated:
		return "authenticated"
	case StateUnauthenticated:
		return "unauthenticated"
	default:
		return "unknown"
	}
}

// Snapshot is an immutable view of a controller. Profile is only ever set
// together with Identity.
type Snapshot struct {
	State    State
	Identity *model.Identity
	Profile  *model.Profile
	Loading  bool
	Err      error

	// Seq is the sequence number of the last applied identity event
	Seq uint64
	// Version increases with every change to the controller
	Version uint64
}

// SignedIn reports whether an identity is present
func (s Snapshot) SignedIn() bool {
	return s.Identity != nil
}

// ErrorKind returns the kind of the last error, or KindUnknown when there is none
func (s Snapshot) ErrorKind() model.ErrorKind {
	if s.Err == nil {
		return model.KindUnknown
	}
	return model.KindOf(s.Err)
}
