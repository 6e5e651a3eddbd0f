package ws

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/hearthchat/chat-service/internal/domain"

	"github.com/gorilla/websocket"
)

func startTestServer(t *testing.T) (string, *Hub, *TypingState) {
	t.Helper()

	hub := NewHub()
	typing := NewTypingState()
	s := NewServer(hub, typing)

	srv := httptest.NewServer(http.HandlerFunc(s.HandleWS))
	t.Cleanup(srv.Close)

	return "ws" + strings.TrimPrefix(srv.URL, "http"), hub, typing
}

func dialWS(t *testing.T, url string) *websocket.Conn {
	t.Helper()

	conn, resp, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	if resp != nil && resp.Body != nil {
		_ = resp.Body.Close()
	}
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func joinAs(t *testing.T, conn *websocket.Conn, id, name string) {
	t.Helper()

	err := conn.WriteJSON(Event{
		Type:    EventUserJoin,
		Payload: domain.Participant{ID: id, DisplayName: name},
	})
	if err != nil {
		t.Fatalf("join: %v", err)
	}
}

type rawEvent struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

func readEvent(t *testing.T, conn *websocket.Conn) rawEvent {
	t.Helper()

	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var ev rawEvent
	if err := conn.ReadJSON(&ev); err != nil {
		t.Fatalf("read event: %v", err)
	}
	return ev
}

func readPresence(t *testing.T, conn *websocket.Conn) []domain.Participant {
	t.Helper()

	ev := readEvent(t, conn)
	if ev.Type != EventPresenceUpdate {
		t.Fatalf("event type = %q, want %q", ev.Type, EventPresenceUpdate)
	}
	var users []domain.Participant
	if err := json.Unmarshal(ev.Payload, &users); err != nil {
		t.Fatalf("decode presence: %v", err)
	}
	return users
}

func TestJoinLeavePresenceFlow(t *testing.T) {
	url, _, _ := startTestServer(t)

	c1 := dialWS(t, url)
	joinAs(t, c1, "u1", "Alice")
	if users := readPresence(t, c1); len(users) != 1 || users[0].ID != "u1" {
		t.Fatalf("presence after first join = %+v", users)
	}

	c2 := dialWS(t, url)
	joinAs(t, c2, "u2", "Bob")
	if users := readPresence(t, c1); len(users) != 2 {
		t.Fatalf("presence after second join = %+v", users)
	}
	if users := readPresence(t, c2); len(users) != 2 {
		t.Fatalf("joining client presence = %+v", users)
	}

	_ = c2.Close()
	if users := readPresence(t, c1); len(users) != 1 || users[0].ID != "u1" {
		t.Fatalf("presence after leave = %+v", users)
	}
}

func TestTypingFanoutSkipsSender(t *testing.T) {
	url, _, typing := startTestServer(t)

	c1 := dialWS(t, url)
	joinAs(t, c1, "u1", "Alice")
	readPresence(t, c1)

	c2 := dialWS(t, url)
	joinAs(t, c2, "u2", "Bob")
	readPresence(t, c1)
	readPresence(t, c2)

	if err := c1.WriteJSON(Event{Type: EventTypingUpdate, Payload: map[string]string{"text": "hello"}}); err != nil {
		t.Fatalf("send typing: %v", err)
	}

	ev := readEvent(t, c2)
	if ev.Type != EventTypingUpdate {
		t.Fatalf("event type = %q, want typing:update", ev.Type)
	}
	var tu TypingUpdatePayload
	if err := json.Unmarshal(ev.Payload, &tu); err != nil {
		t.Fatalf("decode typing: %v", err)
	}
	if tu.UserID != "u1" || tu.Text != "hello" || tu.DisplayName != "Alice" {
		t.Fatalf("typing payload = %+v", tu)
	}
	if typing.Active() != 1 {
		t.Fatalf("typing entries = %d, want 1", typing.Active())
	}

	// explicit empty text is the stop signal
	if err := c1.WriteJSON(Event{Type: EventTypingUpdate, Payload: map[string]string{"text": ""}}); err != nil {
		t.Fatalf("send stop: %v", err)
	}
	ev = readEvent(t, c2)
	if ev.Type != EventTypingStop {
		t.Fatalf("event type = %q, want typing:stop", ev.Type)
	}
	if typing.Active() != 0 {
		t.Fatalf("typing entries = %d, want 0", typing.Active())
	}

	// the sender never sees an echo of either event
	_ = c1.SetReadDeadline(time.Now().Add(300 * time.Millisecond))
	var echo rawEvent
	if err := c1.ReadJSON(&echo); err == nil {
		t.Fatalf("sender received echo %+v", echo)
	}
}

func TestDisconnectClearsTyping(t *testing.T) {
	url, _, typing := startTestServer(t)

	c1 := dialWS(t, url)
	joinAs(t, c1, "u1", "Alice")
	readPresence(t, c1)

	c2 := dialWS(t, url)
	joinAs(t, c2, "u2", "Bob")
	readPresence(t, c1)
	readPresence(t, c2)

	if err := c1.WriteJSON(Event{Type: EventTypingUpdate, Payload: map[string]string{"text": "brb"}}); err != nil {
		t.Fatalf("send typing: %v", err)
	}
	if ev := readEvent(t, c2); ev.Type != EventTypingUpdate {
		t.Fatalf("event type = %q, want typing:update", ev.Type)
	}

	// dropping the typing participant's last connection stops the indicator
	_ = c1.Close()

	ev := readEvent(t, c2)
	if ev.Type != EventTypingStop {
		t.Fatalf("event type = %q, want typing:stop first", ev.Type)
	}
	if users := readPresence(t, c2); len(users) != 1 || users[0].ID != "u2" {
		t.Fatalf("presence after disconnect = %+v", users)
	}
	if typing.Active() != 0 {
		t.Fatalf("typing entries = %d, want 0", typing.Active())
	}
}

func TestHeartConfettiReachesEveryone(t *testing.T) {
	url, _, _ := startTestServer(t)

	c1 := dialWS(t, url)
	joinAs(t, c1, "u1", "Alice")
	readPresence(t, c1)

	c2 := dialWS(t, url)
	joinAs(t, c2, "u2", "Bob")
	readPresence(t, c1)
	readPresence(t, c2)

	if err := c1.WriteJSON(Event{Type: EventHeartConfetti}); err != nil {
		t.Fatalf("send heart: %v", err)
	}

	// hearts go to everyone, sender included
	for i, c := range []*websocket.Conn{c1, c2} {
		if ev := readEvent(t, c); ev.Type != EventHeartConfetti {
			t.Fatalf("client %d event = %q, want heart:confetti", i+1, ev.Type)
		}
	}
}
