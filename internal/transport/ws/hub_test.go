package ws

import (
	"sync"
	"testing"

	"github.com/hearthchat/chat-service/internal/domain"
)

type fakeConn struct {
	mu     sync.Mutex
	events []Event
	fail   bool
	closed bool
}

func (f *fakeConn) Enqueue(ev Event) bool {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.fail || f.closed {
		return false
	}
	f.events = append(f.events, ev)
	return true
}

func (f *fakeConn) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.closed = true
	return nil
}

func (f *fakeConn) received() []Event {
	f.mu.Lock()
	defer f.mu.Unlock()

	out := make([]Event, len(f.events))
	copy(out, f.events)
	return out
}

func participant(id, name string) domain.Participant {
	return domain.Participant{ID: id, DisplayName: name}
}

func presenceIDs(ps []domain.Participant) []string {
	ids := make([]string, 0, len(ps))
	for _, p := range ps {
		ids = append(ids, p.ID)
	}
	return ids
}

func TestPresenceSnapshotDeduplicates(t *testing.T) {
	hub := NewHub()

	c1, c2, c3 := &fakeConn{}, &fakeConn{}, &fakeConn{}
	hub.Admit(c1, participant("u1", "Alice"))
	hub.Admit(c2, participant("u1", "Alice"))
	hub.Admit(c3, participant("u2", "Bob"))

	got := hub.PresenceSnapshot()
	if len(got) != 2 {
		t.Fatalf("presence size = %d, want 2 (ids %v)", len(got), presenceIDs(got))
	}

	hub.Remove(c2)
	if got := hub.PresenceSnapshot(); len(got) != 2 {
		t.Fatalf("after removing one of two u1 connections: presence size = %d, want 2", len(got))
	}

	hub.Remove(c1)
	got = hub.PresenceSnapshot()
	if len(got) != 1 || got[0].ID != "u2" {
		t.Fatalf("after removing all u1 connections: presence = %v, want [u2]", presenceIDs(got))
	}
}

func TestPresenceLastAdmittedWins(t *testing.T) {
	hub := NewHub()

	c1, c2 := &fakeConn{}, &fakeConn{}
	hub.Admit(c1, participant("u1", "Alice"))
	hub.Admit(c2, participant("u1", "Alicia"))

	got := hub.PresenceSnapshot()
	if len(got) != 1 || got[0].DisplayName != "Alicia" {
		t.Fatalf("presence = %+v, want the most recently admitted snapshot", got)
	}
}

func TestAdmitIsIdempotentPerConnection(t *testing.T) {
	hub := NewHub()

	c := &fakeConn{}
	hub.Admit(c, participant("u1", "Alice"))
	hub.Admit(c, participant("u1", "Alicia")) // re-announce updates the snapshot

	got := hub.PresenceSnapshot()
	if len(got) != 1 {
		t.Fatalf("presence size = %d, want 1", len(got))
	}
	if got[0].DisplayName != "Alicia" {
		t.Fatalf("display name = %q, want %q", got[0].DisplayName, "Alicia")
	}
}

func TestRemoveAbsentIsNoop(t *testing.T) {
	hub := NewHub()

	c := &fakeConn{}
	hub.Remove(c)
	hub.Admit(c, participant("u1", "Alice"))
	hub.Remove(c)
	hub.Remove(c) // duplicate close signal

	if got := hub.PresenceSnapshot(); len(got) != 0 {
		t.Fatalf("presence = %v, want empty", presenceIDs(got))
	}
}

func TestUpdateParticipantCoversEveryConnection(t *testing.T) {
	hub := NewHub()

	c1, c2, c3 := &fakeConn{}, &fakeConn{}, &fakeConn{}
	hub.Admit(c1, participant("u1", "Alice"))
	hub.Admit(c2, participant("u1", "Alice"))
	hub.Admit(c3, participant("u2", "Bob"))

	hub.UpdateParticipant(participant("u1", "X"))

	for _, p := range hub.PresenceSnapshot() {
		if p.ID == "u1" && p.DisplayName != "X" {
			t.Fatalf("u1 display name = %q, want %q", p.DisplayName, "X")
		}
		if p.ID == "u2" && p.DisplayName != "Bob" {
			t.Fatalf("u2 display name changed unexpectedly: %q", p.DisplayName)
		}
	}

	if p, ok := hub.ParticipantFor(c2); !ok || p.DisplayName != "X" {
		t.Fatalf("second connection snapshot = %+v, want updated name", p)
	}
}

func TestBroadcastReachesEveryConnection(t *testing.T) {
	hub := NewHub()

	c1, c2 := &fakeConn{}, &fakeConn{}
	hub.Admit(c1, participant("u1", "Alice"))
	hub.Admit(c2, participant("u2", "Bob"))

	hub.Broadcast(Event{Type: EventHeartConfetti})

	for i, c := range []*fakeConn{c1, c2} {
		evs := c.received()
		if len(evs) != 1 || evs[0].Type != EventHeartConfetti {
			t.Fatalf("conn %d events = %v, want one heart:confetti", i+1, evs)
		}
	}
}

func TestBroadcastExceptSkipsExcludedHandleOnly(t *testing.T) {
	hub := NewHub()

	// the excluded participant also holds a second connection; only the
	// exact handle must be skipped
	c1, c2, c3 := &fakeConn{}, &fakeConn{}, &fakeConn{}
	hub.Admit(c1, participant("u1", "Alice"))
	hub.Admit(c2, participant("u1", "Alice"))
	hub.Admit(c3, participant("u2", "Bob"))

	hub.BroadcastExcept(Event{Type: EventTypingUpdate}, c1)

	if evs := c1.received(); len(evs) != 0 {
		t.Fatalf("excluded connection received %v", evs)
	}
	if evs := c2.received(); len(evs) != 1 {
		t.Fatalf("same-participant second connection events = %v, want 1", evs)
	}
	if evs := c3.received(); len(evs) != 1 {
		t.Fatalf("other participant events = %v, want 1", evs)
	}
}

func TestBroadcastIsolatesDeliveryFailure(t *testing.T) {
	hub := NewHub()

	bad := &fakeConn{fail: true}
	good1, good2 := &fakeConn{}, &fakeConn{}
	hub.Admit(bad, participant("u1", "Alice"))
	hub.Admit(good1, participant("u2", "Bob"))
	hub.Admit(good2, participant("u3", "Carol"))

	var evicted []string
	hub.OnEvict(func(p domain.Participant) { evicted = append(evicted, p.ID) })

	hub.Broadcast(Event{Type: EventMessageNew})

	for i, c := range []*fakeConn{good1, good2} {
		evs := c.received()
		if len(evs) == 0 || evs[0].Type != EventMessageNew {
			t.Fatalf("healthy conn %d missed the broadcast: %v", i+1, evs)
		}
		// eviction triggers a presence refresh for the survivors
		if evs[len(evs)-1].Type != EventPresenceUpdate {
			t.Fatalf("healthy conn %d events = %v, want trailing presence:update", i+1, evs)
		}
	}

	got := hub.PresenceSnapshot()
	if len(got) != 2 {
		t.Fatalf("presence after eviction = %v, want 2 participants", presenceIDs(got))
	}
	for _, p := range got {
		if p.ID == "u1" {
			t.Fatal("evicted participant still present")
		}
	}

	if !bad.closed {
		t.Fatal("dead connection was not closed")
	}
	if len(evicted) != 1 || evicted[0] != "u1" {
		t.Fatalf("evicted = %v, want [u1]", evicted)
	}
}

func TestDeliveryOrderPerConnection(t *testing.T) {
	hub := NewHub()

	c := &fakeConn{}
	hub.Admit(c, participant("u1", "Alice"))

	hub.Broadcast(Event{Type: EventMessageNew, Payload: 1})
	hub.Broadcast(Event{Type: EventTypingUpdate, Payload: 2})
	hub.Broadcast(Event{Type: EventMessageNew, Payload: 3})

	evs := c.received()
	if len(evs) != 3 {
		t.Fatalf("received %d events, want 3", len(evs))
	}
	for i, want := range []int{1, 2, 3} {
		if evs[i].Payload.(int) != want {
			t.Fatalf("event %d payload = %v, want %d", i, evs[i].Payload, want)
		}
	}
}
