package ws

import (
	"sync"
	"time"
)

type typingEntry struct {
	text      string
	updatedAt time.Time
}

// TypingState holds the ephemeral composer state, at most one entry per
// participant id (last write wins). Entries are never persisted and are
// bounded by the number of distinct participants. Broadcasting the
// resulting typing:update / typing:stop events is the caller's job.
type TypingState struct {
	mu      sync.Mutex
	entries map[string]typingEntry
}

func NewTypingState() *TypingState {
	return &TypingState{entries: make(map[string]typingEntry)}
}

// Set records non-empty composer text for a participant, entering or
// staying in the composing state.
func (t *TypingState) Set(participantID, text string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.entries[participantID] = typingEntry{text: text, updatedAt: time.Now()}
}

// Clear removes a participant's entry and reports whether one existed,
// so the caller emits typing:stop only on a real transition.
func (t *TypingState) Clear(participantID string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	if _, ok := t.entries[participantID]; !ok {
		return false
	}
	delete(t.entries, participantID)
	return true
}

func (t *TypingState) Active() int {
	t.mu.Lock()
	defer t.mu.Unlock()

	return len(t.entries)
}
