package sse

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/mcoot/creaturegame/internal/services/session"
)

// SessionEventName is the SSE event carrying a session snapshot
const SessionEventName = "session"

// SnapshotPayload is the JSON form of a session snapshot sent to the browser
type SnapshotPayload struct {
	State     string `json:"state"`
	SignedIn  bool   `json:"signed_in"`
	Loading   bool   `json:"loading"`
	Username  string `json:"username,omitempty"`
	Elo       *int   `json:"elo,omitempty"`
	ErrorKind string `json:"error_kind,omitempty"`
	Seq       uint64 `json:"seq"`
	Version   uint64 `json:"version"`
}

// NewSnapshotPayload converts a snapshot for the browser
func NewSnapshotPayload(snap session.Snapshot) SnapshotPayload {
	p := SnapshotPayload{
		State:    snap.State.String(),
		SignedIn: snap.SignedIn(),
		Loading:  snap.Loading,
		Seq:      snap.Seq,
		Version:  snap.Version,
	}
	if snap.Profile != nil {
		elo := snap.Profile.Elo
		p.Username = snap.Profile.Username
		p.Elo = &elo
	}
	if snap.Err != nil {
		p.ErrorKind = snap.ErrorKind().String()
	}
	return p
}

// SnapshotMessage formats a snapshot as a complete SSE message
func SnapshotMessage(snap session.Snapshot) ([]byte, error) {
	data, err := json.Marshal(NewSnapshotPayload(snap))
	if err != nil {
		return nil, err
	}
	return formatSSEMessage(SessionEventName, string(data)), nil
}

// Broadcaster forwards session controller changes to the session's hub
type Broadcaster struct {
	hubs    *HubManager
	logger  *slog.Logger
	mu      sync.Mutex
	watches map[string]func()
}

// NewBroadcaster creates a new Broadcaster
func NewBroadcaster(hubs *HubManager, logger *slog.Logger) *Broadcaster {
	return &Broadcaster{
		hubs:    hubs,
		logger:  logger.With(slog.String("component", "sse-broadcaster")),
		watches: make(map[string]func()),
	}
}

// Follow returns the hub for a session, watching its controller on first use
func (b *Broadcaster) Follow(token string, ctrl *session.Controller) *Hub {
	b.mu.Lock()
	defer b.mu.Unlock()

	hub := b.hubs.GetOrCreateHub(token)
	if _, ok := b.watches[token]; !ok {
		b.watches[token] = ctrl.Watch(func(snap session.Snapshot) {
			b.publish(hub, snap)
		})
	}
	return hub
}

// Sweep stops hubs without clients and their watches
func (b *Broadcaster) Sweep() int {
	b.mu.Lock()
	defer b.mu.Unlock()

	removed := b.hubs.CleanupEmptyHubs()
	for _, token := range removed {
		if cancel, ok := b.watches[token]; ok {
			cancel()
			delete(b.watches, token)
		}
	}
	return len(removed)
}

// StartSweeper runs Sweep every interval until ctx is done
func (b *Broadcaster) StartSweeper(ctx context.Context, interval time.Duration) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				b.Sweep()
			}
		}
	}()
}

// Watching returns the number of sessions being followed
func (b *Broadcaster) Watching() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.watches)
}

func (b *Broadcaster) publish(hub *Hub, snap session.Snapshot) {
	msg, err := SnapshotMessage(snap)
	if err != nil {
		b.logger.Error("sse failed to encode snapshot", slog.Any("error", err))
		return
	}
	hub.Broadcast(msg)
}
