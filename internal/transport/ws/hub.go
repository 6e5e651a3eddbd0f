package ws

import (
	"sort"
	"sync"

	"github.com/hearthchat/chat-service/internal/domain"
)

// Conn is one live transport handle. Enqueue must never block: it reports
// false when the connection cannot accept the event (closed or backed up),
// which the hub treats as the connection being dead.
type Conn interface {
	Enqueue(ev Event) bool
	Close() error
}

type entry struct {
	participant domain.Participant
	admitted    uint64
}

// Hub is the connection registry and event bus. One participant may hold
// any number of concurrent connections; presence is derived by collapsing
// duplicates. All mutation is serialized behind mu; delivery happens on a
// snapshot taken under the lock, never while holding it.
type Hub struct {
	mu    sync.RWMutex
	seq   uint64
	conns map[Conn]entry

	// onEvict runs after a connection is dropped for failed delivery,
	// outside the hub lock. Used for typing cleanup.
	onEvict func(p domain.Participant)
}

func NewHub() *Hub {
	return &Hub{conns: make(map[Conn]entry)}
}

// OnEvict registers the dead-connection hook. Call before serving traffic.
func (h *Hub) OnEvict(fn func(p domain.Participant)) {
	h.onEvict = fn
}

// Admit registers a connection under a participant identity. Re-admitting
// the same connection replaces the stored snapshot, which is how a profile
// change reaches presence views without a reconnect.
func (h *Hub) Admit(c Conn, p domain.Participant) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.seq++
	h.conns[c] = entry{participant: p, admitted: h.seq}
}

// Remove deregisters a connection. No-op when absent; duplicate close
// signals are expected.
func (h *Hub) Remove(c Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()

	delete(h.conns, c)
}

// UpdateParticipant rewrites the snapshot on every connection tagged with
// the participant's id, covering the multi-tab case.
func (h *Hub) UpdateParticipant(p domain.Participant) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for c, e := range h.conns {
		if e.participant.ID == p.ID {
			e.participant = p
			h.conns[c] = e
		}
	}
}

// ParticipantFor returns the snapshot currently tagged on a connection.
func (h *Hub) ParticipantFor(c Conn) (domain.Participant, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	e, ok := h.conns[c]
	return e.participant, ok
}

// ConnectionCount reports how many live connections a participant holds.
func (h *Hub) ConnectionCount(participantID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	n := 0
	for _, e := range h.conns {
		if e.participant.ID == participantID {
			n++
		}
	}
	return n
}

// PresenceSnapshot derives the de-duplicated presence set. On duplicate
// participant ids the most recently admitted snapshot wins; the result is
// ordered by admission so it is deterministic for a given registry state.
func (h *Hub) PresenceSnapshot() []domain.Participant {
	h.mu.RLock()
	winners := make(map[string]entry, len(h.conns))
	for _, e := range h.conns {
		if cur, ok := winners[e.participant.ID]; !ok || e.admitted > cur.admitted {
			winners[e.participant.ID] = e
		}
	}
	h.mu.RUnlock()

	out := make([]entry, 0, len(winners))
	for _, e := range winners {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].admitted < out[j].admitted })

	set := make([]domain.Participant, 0, len(out))
	for _, e := range out {
		set = append(set, e.participant)
	}
	return set
}

type target struct {
	conn        Conn
	participant domain.Participant
}

// Broadcast delivers an event to every admitted connection, best-effort.
// A connection that cannot accept the event is evicted; nothing is
// surfaced to the caller.
func (h *Hub) Broadcast(ev Event) {
	h.deliver(h.targets(nil), ev)
}

// BroadcastExcept is Broadcast skipping one connection, used so a typing
// participant does not receive an echo of their own keystrokes.
func (h *Hub) BroadcastExcept(ev Event, except Conn) {
	h.deliver(h.targets(except), ev)
}

func (h *Hub) targets(except Conn) []target {
	h.mu.RLock()
	defer h.mu.RUnlock()

	ts := make([]target, 0, len(h.conns))
	for c, e := range h.conns {
		if c == except {
			continue
		}
		ts = append(ts, target{conn: c, participant: e.participant})
	}
	return ts
}

func (h *Hub) deliver(ts []target, ev Event) {
	var dead []target
	for _, t := range ts {
		if !t.conn.Enqueue(ev) {
			dead = append(dead, t)
		}
	}
	if len(dead) == 0 {
		return
	}

	for _, t := range dead {
		h.Remove(t.conn)
		_ = t.conn.Close()
	}
	for _, t := range dead {
		if h.onEvict != nil {
			h.onEvict(t.participant)
		}
	}
	// presence changed; converges because evictions shrink the registry
	h.Broadcast(Event{Type: EventPresenceUpdate, Payload: h.PresenceSnapshot()})
}
