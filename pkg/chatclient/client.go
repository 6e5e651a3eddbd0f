package chatclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"sync"

	"github.com/gorilla/websocket"
)

const (
	headerSecretKey  = "X-Secret-Key"
	defaultPageLimit = 20
)

var ErrNotConnected = errors.New("chatclient: not connected")

// Event names, mirroring the server side.
const (
	eventUserJoin       = "user:join"
	eventPresenceUpdate = "presence:update"
	eventMessageNew     = "message:new"
	eventTypingUpdate   = "typing:update"
	eventTypingStop     = "typing:stop"
	eventUserUpdated    = "user:updated"
	eventHeartConfetti  = "heart:confetti"
)

type wireEvent struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

type outEvent struct {
	Type    string `json:"type"`
	Payload any    `json:"payload,omitempty"`
}

type TypingUpdate struct {
	UserID       string  `json:"userId"`
	DisplayName  string  `json:"displayName"`
	Text         string  `json:"text"`
	AvatarBase64 *string `json:"avatarBase64"`
}

// Handlers are optional callbacks invoked from the socket read loop.
type Handlers struct {
	OnPresence    func(users []Author)
	OnMessage     func(m Message)
	OnTyping      func(t TypingUpdate)
	OnTypingStop  func(userID string)
	OnUserUpdated func(a Author)
	OnHeart       func()
	OnDisconnect  func(err error)
}

// Client talks to the chat service: paginated history and posting over
// HTTP, live events over the socket. It feeds every confirmed and live
// message into its Timeline, which handles merge and duplicate suppression.
type Client struct {
	baseURL   string
	secretKey string
	httpc     *http.Client
	dialer    *websocket.Dialer

	Timeline *Timeline
	Handlers Handlers

	mu   sync.Mutex
	self *Author
	conn *websocket.Conn
}

func NewClient(baseURL, secretKey string) *Client {
	return &Client{
		baseURL:   baseURL,
		secretKey: secretKey,
		httpc:     http.DefaultClient,
		dialer:    websocket.DefaultDialer,
		Timeline:  NewTimeline(),
	}
}

// Login validates the secret key and remembers the resolved profile for
// the join announcement.
func (c *Client) Login(ctx context.Context) (*Author, error) {
	body, err := json.Marshal(map[string]string{"secretKey": c.secretKey})
	if err != nil {
		return nil, err
	}

	var out Author
	if err := c.doJSON(ctx, http.MethodPost, "/users/lookup", bytes.NewReader(body), &out); err != nil {
		return nil, err
	}

	c.mu.Lock()
	c.self = &out
	c.mu.Unlock()
	return &out, nil
}

// FetchInitial loads the newest page and installs it as the local window.
func (c *Client) FetchInitial(ctx context.Context) error {
	page, err := c.fetchPage(ctx, nil, defaultPageLimit)
	if err != nil {
		return err
	}
	c.Timeline.ApplyInitial(page)
	return nil
}

// LoadOlder fetches the page before the oldest local message and prepends
// it. Returns false when no older history remains.
func (c *Client) LoadOlder(ctx context.Context) (bool, error) {
	cursor := c.Timeline.NextCursor()
	if cursor == nil {
		return false, nil
	}
	page, err := c.fetchPage(ctx, cursor, defaultPageLimit)
	if err != nil {
		return false, err
	}
	c.Timeline.PrependOlder(page)
	return page.NextCursor != nil, nil
}

// PostMessage submits a message. The body is tracked as pending until the
// server confirms it with an id; the live echo of the same id is suppressed
// by the timeline.
func (c *Client) PostMessage(ctx context.Context, body string) (*Message, error) {
	localID := c.Timeline.AddPending(body)

	payload, err := json.Marshal(map[string]string{"body": body})
	if err != nil {
		c.Timeline.DropPending(localID)
		return nil, err
	}

	var msg Message
	if err := c.doJSON(ctx, http.MethodPost, "/messages", bytes.NewReader(payload), &msg); err != nil {
		c.Timeline.DropPending(localID)
		return nil, err
	}

	c.Timeline.Confirm(localID, msg)
	c.StopTyping()
	return &msg, nil
}

// Connect dials the socket, announces the participant, and starts the read
// loop. Call Login first.
func (c *Client) Connect(ctx context.Context) error {
	c.mu.Lock()
	self := c.self
	c.mu.Unlock()
	if self == nil {
		return errors.New("chatclient: login before connect")
	}

	wsURL, err := socketURL(c.baseURL)
	if err != nil {
		return err
	}

	conn, resp, err := c.dialer.DialContext(ctx, wsURL, nil)
	if resp != nil && resp.Body != nil {
		_ = resp.Body.Close()
	}
	if err != nil {
		return err
	}

	c.mu.Lock()
	c.conn = conn
	c.mu.Unlock()

	if err := c.send(outEvent{Type: eventUserJoin, Payload: self}); err != nil {
		_ = conn.Close()
		return err
	}

	go c.readLoop(conn)
	return nil
}

// Resume re-fetches the newest page after a reconnect and merges it in.
// Live events missed while disconnected are not replayed; the gap between
// the local window and the refreshed newest page stays open by design.
func (c *Client) Resume(ctx context.Context) error {
	page, err := c.fetchPage(ctx, nil, defaultPageLimit)
	if err != nil {
		return err
	}
	if !c.Timeline.Loaded() {
		c.Timeline.ApplyInitial(page)
		return nil
	}
	for _, m := range page.Messages {
		c.Timeline.ApplyLive(m)
	}
	return nil
}

// Typing reports the current composer text; empty text is the stop signal.
func (c *Client) Typing(text string) {
	if text == "" {
		c.StopTyping()
		return
	}
	_ = c.send(outEvent{Type: eventTypingUpdate, Payload: map[string]string{"text": text}})
}

func (c *Client) StopTyping() {
	_ = c.send(outEvent{Type: eventTypingStop})
}

func (c *Client) Heart() {
	_ = c.send(outEvent{Type: eventHeartConfetti})
}

func (c *Client) Close() error {
	c.mu.Lock()
	conn := c.conn
	c.conn = nil
	c.mu.Unlock()

	if conn == nil {
		return nil
	}
	return conn.Close()
}

func (c *Client) send(ev outEvent) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.conn == nil {
		return ErrNotConnected
	}
	return c.conn.WriteJSON(ev)
}

func (c *Client) readLoop(conn *websocket.Conn) {
	for {
		var ev wireEvent
		if err := conn.ReadJSON(&ev); err != nil {
			c.mu.Lock()
			if c.conn == conn {
				c.conn = nil
			}
			c.mu.Unlock()
			if c.Handlers.OnDisconnect != nil {
				c.Handlers.OnDisconnect(err)
			}
			return
		}

		switch ev.Type {
		case eventMessageNew:
			var m Message
			if json.Unmarshal(ev.Payload, &m) != nil {
				continue
			}
			if c.Timeline.ApplyLive(m) && c.Handlers.OnMessage != nil {
				c.Handlers.OnMessage(m)
			}
		case eventPresenceUpdate:
			var users []Author
			if json.Unmarshal(ev.Payload, &users) != nil {
				continue
			}
			if c.Handlers.OnPresence != nil {
				c.Handlers.OnPresence(users)
			}
		case eventTypingUpdate:
			var t TypingUpdate
			if json.Unmarshal(ev.Payload, &t) != nil {
				continue
			}
			if c.Handlers.OnTyping != nil {
				c.Handlers.OnTyping(t)
			}
		case eventTypingStop:
			var p struct {
				UserID string `json:"userId"`
			}
			if json.Unmarshal(ev.Payload, &p) != nil {
				continue
			}
			if c.Handlers.OnTypingStop != nil {
				c.Handlers.OnTypingStop(p.UserID)
			}
		case eventUserUpdated:
			var a Author
			if json.Unmarshal(ev.Payload, &a) != nil {
				continue
			}
			if c.Handlers.OnUserUpdated != nil {
				c.Handlers.OnUserUpdated(a)
			}
		case eventHeartConfetti:
			if c.Handlers.OnHeart != nil {
				c.Handlers.OnHeart()
			}
		}
	}
}

func (c *Client) fetchPage(ctx context.Context, cursor *int64, limit int) (Page, error) {
	path := "/messages?limit=" + strconv.Itoa(limit)
	if cursor != nil {
		path += "&cursor=" + strconv.FormatInt(*cursor, 10)
	}

	var page Page
	if err := c.doJSON(ctx, http.MethodGet, path, nil, &page); err != nil {
		return Page{}, err
	}
	return page, nil
}

func (c *Client) doJSON(ctx context.Context, method, path string, body io.Reader, out any) error {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return err
	}
	req.Header.Set(headerSecretKey, c.secretKey)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpc.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		var e struct {
			Error string `json:"error"`
		}
		_ = json.NewDecoder(resp.Body).Decode(&e)
		if e.Error == "" {
			e.Error = resp.Status
		}
		return fmt.Errorf("chatclient: %s %s: %s", method, path, e.Error)
	}

	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

func socketURL(base string) (string, error) {
	u, err := url.Parse(base)
	if err != nil {
		return "", err
	}
	switch u.Scheme {
	case "http":
		u.Scheme = "ws"
	case "https":
		u.Scheme = "wss"
	}
	u.Path = "/ws"
	return u.String(), nil
}
