package relay

import (
	"log/slog"
	"sync"
)

// Sender delivers one encoded event to a live connection. Implementations
// must be safe for use as map keys (comparable pointers).
type Sender interface {
	Send(evt Event) error
}

// Registry maps session codes to the set of live connections currently
// subscribed to them, independent of the persisted session's status. It is
// the only shared mutable state in the relay core and is safe under
// concurrent join/leave/broadcast calls.
type Registry struct {
	log *slog.Logger

	mu    sync.RWMutex
	rooms map[string]map[Sender]struct{}
	// membership tracks the single room each connection belongs to.
	membership map[Sender]string
}

func NewRegistry(log *slog.Logger) *Registry {
	return &Registry{
		log:        log,
		rooms:      make(map[string]map[Sender]struct{}),
		membership: make(map[Sender]string),
	}
}

// Join adds the connection to the room. Idempotent. A connection belongs to
// at most one room; joining a second room without an explicit Leave is
// refused rather than silently moving the connection.
func (r *Registry) Join(sessionID string, s Sender) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if current, ok := r.membership[s]; ok {
		if current == sessionID {
			return
		}
		r.log.Warn("join refused, connection already in a room", "session", sessionID, "current", current)
		return
	}

	if r.rooms[sessionID] == nil {
		r.rooms[sessionID] = make(map[Sender]struct{})
	}
	r.rooms[sessionID][s] = struct{}{}
	r.membership[s] = sessionID
	r.log.Info("connection joined room", "session", sessionID, "members", len(r.rooms[sessionID]))
}

// Leave removes the membership. No-op if the connection is not a member.
func (r *Registry) Leave(sessionID string, s Sender) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.removeLocked(sessionID, s)
}

// Drop removes the connection from whatever room it is in. Called on
// connection loss; deliberately emits no participant-left event, since
// transport-level departure is a best-effort signal, not authoritative.
func (r *Registry) Drop(s Sender) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if sessionID, ok := r.membership[s]; ok {
		r.removeLocked(sessionID, s)
	}
}

func (r *Registry) removeLocked(sessionID string, s Sender) {
	room, ok := r.rooms[sessionID]
	if !ok {
		return
	}
	if _, member := room[s]; !member {
		return
	}
	delete(room, s)
	delete(r.membership, s)
	if len(room) == 0 {
		delete(r.rooms, sessionID)
	}
	r.log.Info("connection left room", "session", sessionID, "members", len(room))
}

// Broadcast delivers the event to every current member of the room, in the
// order the relay processed it. When exclude is non-nil the originating
// connection is skipped (used for events the sender already applied
// locally). Failed sends evict the connection.
func (r *Registry) Broadcast(sessionID string, evt Event, exclude Sender) {
	r.mu.RLock()
	room := r.rooms[sessionID]
	members := make([]Sender, 0, len(room))
	for s := range room {
		if s == exclude {
			continue
		}
		members = append(members, s)
	}
	r.mu.RUnlock()

	var failed []Sender
	for _, s := range members {
		if err := s.Send(evt); err != nil {
			r.log.Warn("broadcast send failed, dropping connection", "session", sessionID, "event", evt.Type, "err", err)
			failed = append(failed, s)
		}
	}
	for _, s := range failed {
		r.Drop(s)
	}
}

// Room returns the session the connection currently belongs to, if any.
func (r *Registry) Room(s Sender) (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	sessionID, ok := r.membership[s]
	return sessionID, ok
}

// Members reports the current size of a room.
func (r *Registry) Members(sessionID string) int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.rooms[sessionID])
}

// Connections reports the total number of live connections across rooms.
func (r *Registry) Connections() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.membership)
}
