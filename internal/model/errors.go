package model

import (
	"errors"
	"fmt"
)

// ErrorKind classifies failures surfaced to session consumers
type ErrorKind int

const (
	KindUnknown ErrorKind = iota
	KindInvalidInput
	KindInvalidCredentials
	KindAlreadyExists
	KindNotFound
	KindProfileInconsistency
	KindTransportFailure
	// KindUnauthenticated rejects an operation that needs a signed-in session
	KindUnauthenticated
)

// String returns the stable name of the kind
func (k ErrorKind) String() string {
	switch k {
	case KindInvalidInput:
		return "invalid_input"
	case KindInvalidCredentials:
		return "invalid_credentials"
	case KindAlreadyExists:
		return "already_exists"
	case KindNotFound:
		return "not_found"
	case KindProfileInconsistency:
		return "profile_inconsistency"
	case KindTransportFailure:
		return "transport_failure"
	case KindUnauthenticated:
		return "unauthenticated"
	default:
		return "unknown"
	}
}

// Error is the tagged error type returned by adapters and the session controller.
// Msg is safe to show to users; Err carries the backend cause, if any.
type Error struct {
	Kind ErrorKind
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	switch {
	case e.Msg != "" && e.Err != nil:
		return e.Msg + ": " + e.Err.Error()
	case e.Msg != "":
		return e.Msg
	case e.Err != nil:
		return e.Kind.String() + ": " + e.Err.Error()
	default:
		return e.Kind.String()
	}
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches another *Error of the same kind. A target without a message
// matches every error of its kind.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind && (t.Msg == "" || t.Msg == e.Msg)
}

// NewError creates an error of the given kind
func NewError(kind ErrorKind, msg string) *Error {
	return &Error{Kind: kind, Msg: msg}
}

// Errorf creates an error of the given kind with a formatted message
func Errorf(kind ErrorKind, format string, args ...any) *Error {
	return &Error{Kind: kind, Msg: fmt.Sprintf(format, args...)}
}

// WrapError creates an error of the given kind around a backend cause
func WrapError(kind ErrorKind, msg string, err error) *Error {
	return &Error{Kind: kind, Msg: msg, Err: err}
}

// AsTransport leaves classified errors untouched and reports anything else
// as a transport failure.
func AsTransport(msg string, err error) error {
	if err == nil {
		return nil
	}
	var e *Error
	if errors.As(err, &e) {
		return err
	}
	return WrapError(KindTransportFailure, msg, err)
}

// KindOf returns the kind of the outermost *Error in err's chain
func KindOf(err error) ErrorKind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

// Message returns the user-facing message of err, or fallback when err is unclassified
func Message(err error, fallback string) string {
	var e *Error
	if errors.As(err, &e) && e.Msg != "" {
		return e.Msg
	}
	return fallback
}

// Kind-only errors for use with errors.Is
var (
	ErrInvalidInput         = &Error{Kind: KindInvalidInput}
	ErrInvalidCredentials   = &Error{Kind: KindInvalidCredentials}
	ErrAlreadyExists        = &Error{Kind: KindAlreadyExists}
	ErrNotFound             = &Error{Kind: KindNotFound}
	ErrProfileInconsistency = &Error{Kind: KindProfileInconsistency}
	ErrTransportFailure     = &Error{Kind: KindTransportFailure}
	ErrUnauthenticated      = &Error{Kind: KindUnauthenticated}
)

// Common errors used across the application
var (
	// Account errors
	ErrAccountNotFound     = NewError(KindNotFound, "account not found")
	ErrEmailInUse          = NewError(KindAlreadyExists, "email address is already registered")
	ErrGoogleLinked        = NewError(KindAlreadyExists, "google account is already linked")
	ErrBadCredentials      = NewError(KindInvalidCredentials, "invalid email or password")
	ErrInvalidEmail        = NewError(KindInvalidInput, "invalid email address")
	ErrInvalidResetToken   = NewError(KindInvalidInput, "password reset link is invalid or has expired")
	ErrGoogleNotConfigured = NewError(KindInvalidInput, "google sign-in is not configured")

	// Profile errors
	ErrProfileNotFound = NewError(KindNotFound, "profile not found")
	ErrProfileExists   = NewError(KindAlreadyExists, "profile already exists")
	ErrMissingProfile  = NewError(KindProfileInconsistency, "signed in but no profile exists")
	ErrEmptyUpdate     = NewError(KindInvalidInput, "no profile fields to update")
	ErrMissingID       = NewError(KindInvalidInput, "identity id is required")

	// Session errors
	ErrNotSignedIn     = NewError(KindUnauthenticated, "not signed in")
	ErrSessionNotFound = NewError(KindNotFound, "session not found or expired")
)
