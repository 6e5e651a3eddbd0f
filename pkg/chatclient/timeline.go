package chatclient

import (
	"strconv"
	"sync"
	"time"
)

type Author struct {
	ID           string  `json:"id"`
	DisplayName  string  `json:"displayName"`
	AvatarBase64 *string `json:"avatarBase64"`
}

type Message struct {
	ID     int64     `json:"id"`
	Body   string    `json:"body"`
	SentAt time.Time `json:"sentAt"`
	Author Author    `json:"author"`
}

// Page mirrors the pagination wire contract: messages oldest-first plus the
// cursor for the next (older) page, nil when history is exhausted.
type Page struct {
	Messages   []Message `json:"messages"`
	NextCursor *int64    `json:"nextCursor"`
}

type EntryState int

const (
	// EntryPending is a locally submitted message the server has not
	// confirmed yet. It has no id.
	EntryPending EntryState = iota
	// EntryConfirmed is a server-acknowledged message keyed by id.
	EntryConfirmed
)

// Entry is one timeline slot. The state tag makes duplicate suppression a
// structural property: only confirmed entries carry an id, and an id can
// enter the timeline exactly once.
type Entry struct {
	State   EntryState
	LocalID string // set for pending entries only
	Message Message
}

// Timeline is the client-side message cache reconciling paginated history
// with live-pushed events. Confirmed messages are kept in ascending id
// order; pending messages trail in submission order.
type Timeline struct {
	mu        sync.Mutex
	confirmed []Message
	seen      map[int64]struct{}
	pending   []pendingMsg

	nextCursor *int64
	loaded     bool
	localSeq   int
}

type pendingMsg struct {
	localID string
	body    string
}

func NewTimeline() *Timeline {
	return &Timeline{seen: make(map[int64]struct{})}
}

// ApplyInitial installs the newest page as the local window. Live messages
// that raced ahead of the fetch survive: anything already confirmed is
// merged back in.
func (t *Timeline) ApplyInitial(p Page) {
	t.mu.Lock()
	defer t.mu.Unlock()

	existing := t.confirmed
	t.confirmed = nil
	t.seen = make(map[int64]struct{})
	for _, m := range p.Messages {
		t.insertLocked(m)
	}
	for _, m := range existing {
		t.insertLocked(m)
	}
	t.nextCursor = p.NextCursor
	t.loaded = true
}

// PrependOlder merges a "load older" page. Ids already present are skipped,
// so overlapping fetches cannot duplicate history.
func (t *Timeline) PrependOlder(p Page) {
	t.mu.Lock()
	defer t.mu.Unlock()

	for _, m := range p.Messages {
		t.insertLocked(m)
	}
	t.nextCursor = p.NextCursor
}

// ApplyLive merges a live-pushed message. Returns false when the id was
// already present (e.g. the race between the initial fetch and an in-flight
// broadcast, or our own confirmed post echoed back).
func (t *Timeline) ApplyLive(m Message) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	return t.insertLocked(m)
}

// AddPending records a locally submitted message before the server has
// assigned it an id.
func (t *Timeline) AddPending(body string) string {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.localSeq++
	id := "local-" + strconv.Itoa(t.localSeq)
	t.pending = append(t.pending, pendingMsg{localID: id, body: body})
	return id
}

// Confirm resolves a pending entry with the server-assigned message. The
// insert is a no-op when the live broadcast already delivered the id.
func (t *Timeline) Confirm(localID string, m Message) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.removePendingLocked(localID)
	t.insertLocked(m)
}

// DropPending discards a pending entry after a rejected or failed post.
func (t *Timeline) DropPending(localID string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.removePendingLocked(localID)
}

// OldestID is the cursor for "load older": the id of the oldest confirmed
// message, nil when the timeline is empty.
func (t *Timeline) OldestID() *int64 {
	t.mu.Lock()
	defer t.mu.Unlock()

	if len(t.confirmed) == 0 {
		return nil
	}
	id := t.confirmed[0].ID
	return &id
}

// HasMore reports whether older history remains on the server.
func (t *Timeline) HasMore() bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	return t.nextCursor != nil
}

// NextCursor returns the cursor of the last applied page.
func (t *Timeline) NextCursor() *int64 {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.nextCursor == nil {
		return nil
	}
	id := *t.nextCursor
	return &id
}

func (t *Timeline) Loaded() bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	return t.loaded
}

// Entries snapshots the timeline for display: confirmed messages oldest
// first, then pending submissions in order.
func (t *Timeline) Entries() []Entry {
	t.mu.Lock()
	defer t.mu.Unlock()

	out := make([]Entry, 0, len(t.confirmed)+len(t.pending))
	for _, m := range t.confirmed {
		out = append(out, Entry{State: EntryConfirmed, Message: m})
	}
	for _, p := range t.pending {
		out = append(out, Entry{
			State:   EntryPending,
			LocalID: p.localID,
			Message: Message{Body: p.body},
		})
	}
	return out
}

// Messages snapshots confirmed messages oldest-first.
func (t *Timeline) Messages() []Message {
	t.mu.Lock()
	defer t.mu.Unlock()

	out := make([]Message, len(t.confirmed))
	copy(out, t.confirmed)
	return out
}

func (t *Timeline) insertLocked(m Message) bool {
	if _, ok := t.seen[m.ID]; ok {
		return false
	}
	t.seen[m.ID] = struct{}{}

	// most inserts are appends; walk back only as far as needed
	i := len(t.confirmed)
	for i > 0 && t.confirmed[i-1].ID > m.ID {
		i--
	}
	t.confirmed = append(t.confirmed, Message{})
	copy(t.confirmed[i+1:], t.confirmed[i:])
	t.confirmed[i] = m
	return true
}

func (t *Timeline) removePendingLocked(localID string) {
	for i, p := range t.pending {
		if p.localID == localID {
			t.pending = append(t.pending[:i], t.pending[i+1:]...)
			return
		}
	}
}
