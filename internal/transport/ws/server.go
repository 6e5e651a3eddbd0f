package ws

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/hearthchat/chat-service/internal/domain"

	"github.com/gorilla/websocket"
)

// Server owns the socket endpoint: it upgrades connections, admits them to
// the hub once they announce a participant, and drives the typing protocol.
type Server struct {
	upgrader websocket.Upgrader
	hub      *Hub
	typing   *TypingState

	pingEvery time.Duration
}

func NewServer(hub *Hub, typing *TypingState) *Server {
	s := &Server{
		hub:    hub,
		typing: typing,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
		pingEvery: 15 * time.Second,
	}

	// delivery failures drop connections behind the hub's back; finish the
	// participant's typing state here the same way a clean disconnect would
	hub.OnEvict(func(p domain.Participant) {
		s.stopTypingIfGone(p.ID)
	})

	return s
}

// WS endpoint: GET /ws
func (s *Server) HandleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Warn("ws upgrade failed", "err", err)
		return
	}

	c := newWsConn(conn)
	go c.writePump(s.pingEvery)
	s.readLoop(c)
}

type inboundEvent struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

type inboundTyping struct {
	Text string `json:"text"`
}

func (s *Server) readLoop(c *wsConn) {
	defer func() { _ = c.Close() }()

	c.conn.SetReadLimit(1 << 20)
	_ = c.conn.SetReadDeadline(time.Now().Add(2 * s.pingEvery))
	c.conn.SetPongHandler(func(string) error {
		_ = c.conn.SetReadDeadline(time.Now().Add(2 * s.pingEvery))
		return nil
	})

	joined := false
	participantID := ""

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			break
		}
		var ev inboundEvent
		if err := json.Unmarshal(data, &ev); err != nil {
			continue
		}

		switch ev.Type {
		case EventUserJoin:
			var p domain.Participant
			if err := json.Unmarshal(ev.Payload, &p); err != nil || p.ID == "" {
				continue
			}
			// re-announcing on the same connection just refreshes the snapshot
			s.hub.Admit(c, p)
			joined = true
			participantID = p.ID
			s.hub.Broadcast(Event{Type: EventPresenceUpdate, Payload: s.hub.PresenceSnapshot()})

		case EventTypingUpdate:
			if !joined {
				continue
			}
			var t inboundTyping
			if err := json.Unmarshal(ev.Payload, &t); err != nil {
				continue
			}
			s.handleTyping(c, strings.TrimSpace(t.Text))

		case EventTypingStop:
			if !joined {
				continue
			}
			if s.typing.Clear(participantID) {
				s.hub.BroadcastExcept(Event{
					Type:    EventTypingStop,
					Payload: TypingStopPayload{UserID: participantID},
				}, c)
			}

		case EventHeartConfetti:
			if !joined {
				continue
			}
			s.hub.Broadcast(Event{Type: EventHeartConfetti})

		default:
			// ignore
		}
	}

	s.hub.Remove(c)
	if joined {
		s.stopTypingIfGone(participantID)
		s.hub.Broadcast(Event{Type: EventPresenceUpdate, Payload: s.hub.PresenceSnapshot()})
	}
}

// handleTyping drives the Idle <-> Composing transitions. An empty text is
// the explicit stop signal.
func (s *Server) handleTyping(c *wsConn, text string) {
	p, ok := s.hub.ParticipantFor(c)
	if !ok {
		return
	}

	if text == "" {
		if s.typing.Clear(p.ID) {
			s.hub.BroadcastExcept(Event{
				Type:    EventTypingStop,
				Payload: TypingStopPayload{UserID: p.ID},
			}, c)
		}
		return
	}

	s.typing.Set(p.ID, text)
	s.hub.BroadcastExcept(Event{
		Type: EventTypingUpdate,
		Payload: TypingUpdatePayload{
			UserID:       p.ID,
			DisplayName:  p.DisplayName,
			Text:         text,
			AvatarBase64: p.AvatarBase64,
		},
	}, c)
}

// stopTypingIfGone clears a participant's composer state once their last
// connection is gone, so the indicator cannot stay stuck on other clients.
func (s *Server) stopTypingIfGone(participantID string) {
	if s.hub.ConnectionCount(participantID) > 0 {
		return
	}
	if s.typing.Clear(participantID) {
		s.hub.Broadcast(Event{
			Type:    EventTypingStop,
			Payload: TypingStopPayload{UserID: participantID},
		})
	}
}
