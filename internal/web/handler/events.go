package handler

import (
	"log/slog"
	"net/http"

	"github.com/mcoot/creaturegame/internal/web/middleware"
	"github.com/mcoot/creaturegame/internal/web/sse"
)

// EventsHandler streams session snapshots to open browser tabs
type EventsHandler struct {
	broadcaster *sse.Broadcaster
	logger      *slog.Logger
}

// NewEventsHandler creates a new EventsHandler
func NewEventsHandler(broadcaster *sse.Broadcaster, logger *slog.Logger) *EventsHandler {
	return &EventsHandler{
		broadcaster: broadcaster,
		logger:      logger.With(slog.String("component", "web-events")),
	}
}

// Session streams the current snapshot followed by every change.
// A browser without a session gets the signed-out snapshot and keepalives only.
func (h *EventsHandler) Session(w http.ResponseWriter, r *http.Request) {
	var hub *sse.Hub
	if ctrl := middleware.GetController(r.Context()); ctrl != nil {
		hub = h.broadcaster.Follow(middleware.GetSessionToken(r.Context()), ctrl)
	}

	initial, err := sse.SnapshotMessage(middleware.CurrentSnapshot(r.Context()))
	if err != nil {
		h.logger.Error("failed to encode session snapshot", slog.Any("error", err))
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	sse.ServeSSE(w, r, hub, initial)
}
