package middleware

import (
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/mcoot/creaturegame/internal/metrics"
	"github.com/mcoot/creaturegame/internal/services/session"
	"github.com/mcoot/creaturegame/internal/web/templates/layout"
	"github.com/mcoot/creaturegame/internal/web/templates/pages"
)

// Outcome is what a gate decided to do with a request
type Outcome int

const (
	// OutcomeRender lets the request through to the wrapped page
	OutcomeRender Outcome = iota
	// OutcomePlaceholder shows the loading placeholder; nothing is redirected
	OutcomePlaceholder
	// OutcomeRedirect sends the browser to Decision.Location
	OutcomeRedirect
)

func (o Outcome) String() string {
	switch o {
	case OutcomeRender:
		return "render"
	case OutcomePlaceholder:
		return "placeholder"
	case OutcomeRedirect:
		return "redirect"
	default:
		return "unknown"
	}
}

// Decision is the result of evaluating a gate
type Decision struct {
	Outcome  Outcome
	Location string
}

// Gate decides whether a page may be shown for a session snapshot.
// Implementations hold no state; the decision depends only on the arguments.
type Gate interface {
	Name() string
	Decide(snap session.Snapshot, requested *url.URL) Decision
}

// AuthenticatedOnly admits signed-in sessions and sends everyone else to LoginPath,
// carrying the requested location in the next parameter.
type AuthenticatedOnly struct {
	LoginPath string
}

func (g AuthenticatedOnly) Name() string { return "authenticated_only" }

func (g AuthenticatedOnly) Decide(snap session.Snapshot, requested *url.URL) Decision {
	if snap.Loading {
		return Decision{Outcome: OutcomePlaceholder}
	}
	if snap.Identity == nil {
		loc := g.LoginPath
		if requested != nil {
			loc += "?next=" + url.QueryEscape(requested.RequestURI())
		}
		return Decision{Outcome: OutcomeRedirect, Location: loc}
	}
	return Decision{Outcome: OutcomeRender}
}

// UnauthenticatedOnly admits signed-out sessions and sends signed-in ones to LandingPath
type UnauthenticatedOnly struct {
	LandingPath string
}

func (g UnauthenticatedOnly) Name() string { return "unauthenticated_only" }

func (g UnauthenticatedOnly) Decide(snap session.Snapshot, _ *url.URL) Decision {
	if snap.Loading {
		return Decision{Outcome: OutcomePlaceholder}
	}
	if snap.Identity != nil {
		return Decision{Outcome: OutcomeRedirect, Location: g.LandingPath}
	}
	return Decision{Outcome: OutcomeRender}
}

var (
	_ Gate = AuthenticatedOnly{}
	_ Gate = UnauthenticatedOnly{}
)

// Guard adapts a gate to middleware. Requires Session to run first.
func Guard(gate Gate, m metrics.Recorder, logger *slog.Logger) func(http.Handler) http.Handler {
	if m == nil {
		m = metrics.Nop{}
	}
	logger = logger.With(slog.String("component", "route-guard"), slog.String("gate", gate.Name()))

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			snap := CurrentSnapshot(r.Context())
			d := gate.Decide(snap, r.URL)
			m.RecordGateDecision(gate.Name(), d.Outcome.String())

			switch d.Outcome {
			case OutcomePlaceholder:
				logger.Debug("session loading, rendering placeholder", slog.String("path", r.URL.Path))
				renderPlaceholder(w, r, snap)
			case OutcomeRedirect:
				logger.Debug("redirecting",
					slog.String("path", r.URL.Path),
					slog.String("location", d.Location))
				http.Redirect(w, r, d.Location, http.StatusSeeOther)
			default:
				next.ServeHTTP(w, r)
			}
		})
	}
}

func renderPlaceholder(w http.ResponseWriter, r *http.Request, snap session.Snapshot) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	w.Header().Set("Refresh", "1")
	data := layout.PageData{Viewer: ViewerOf(snap), RefreshSeconds: 1}
	if err := pages.Loading(data).Render(r.Context(), w); err != nil {
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
	}
}

// ViewerOf returns the navigation viewer for a snapshot, or nil when signed out
func ViewerOf(snap session.Snapshot) *layout.Viewer {
	if snap.Identity == nil {
		return nil
	}
	return &layout.Viewer{Identity: snap.Identity, Profile: snap.Profile}
}

// SafeNext returns next if it is a local absolute path, otherwise fallback
func SafeNext(next, fallback string) string {
	if next == "" || !strings.HasPrefix(next, "/") || strings.HasPrefix(next, "//") || strings.HasPrefix(next, "/\\") {
		return fallback
	}
	u, err := url.Parse(next)
	if err != nil || u.IsAbs() || u.Host != "" {
		return fallback
	}
	return next
}
