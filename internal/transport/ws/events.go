package ws

// Event names carried on the socket, both directions.
const (
	EventUserJoin       = "user:join"       // client -> server: announce participant
	EventPresenceUpdate = "presence:update" // server -> all: full presence set
	EventMessageNew     = "message:new"     // server -> all: one formatted message
	EventTypingUpdate   = "typing:update"   // both: composer text changed
	EventTypingStop     = "typing:stop"     // both: composer cleared / submitted
	EventUserUpdated    = "user:updated"    // server -> all: profile changed
	EventHeartConfetti  = "heart:confetti"  // both: re-broadcast to everyone
)

type Event struct {
	Type    string `json:"type"`
	Payload any    `json:"payload,omitempty"`
}

type TypingUpdatePayload struct {
	UserID       string  `json:"userId"`
	DisplayName  string  `json:"displayName"`
	Text         string  `json:"text"`
	AvatarBase64 *string `json:"avatarBase64"`
}

type TypingStopPayload struct {
	UserID string `json:"userId"`
}

type UserUpdatedPayload struct {
	ID           string  `json:"id"`
	DisplayName  string  `json:"displayName"`
	AvatarBase64 *string `json:"avatarBase64"`
}
