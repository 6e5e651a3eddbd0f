package domain

import "time"

// Message is immutable once created. ID is assigned by the store
// (strictly increasing) and is the sole ordering and pagination key.
type Message struct {
	ID     int64     `db:"id"`
	Body   string    `db:"body"`
	SentAt time.Time `db:"sent_at"`
	Author Participant
}
