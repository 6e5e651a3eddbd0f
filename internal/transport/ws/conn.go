package ws

import (
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const outboundQueueSize = 256

// wsConn wraps a websocket connection with a bounded outbound queue and a
// single writer goroutine, so delivery order per connection matches
// broadcast order and a slow consumer never blocks the hub.
type wsConn struct {
	conn   *websocket.Conn
	out    chan Event
	closed chan struct{}
	once   sync.Once
}

func newWsConn(c *websocket.Conn) *wsConn {
	return &wsConn{
		conn:   c,
		out:    make(chan Event, outboundQueueSize),
		closed: make(chan struct{}),
	}
}

// Enqueue hands an event to the writer without blocking. A full queue
// means the consumer stopped draining; report the connection dead rather
// than queue without bound.
func (c *wsConn) Enqueue(ev Event) bool {
	select {
	case <-c.closed:
		return false
	default:
	}

	select {
	case c.out <- ev:
		return true
	default:
		return false
	}
}

func (c *wsConn) Close() error {
	c.once.Do(func() { close(c.closed) })
	return c.conn.Close()
}

func (c *wsConn) writePump(pingEvery time.Duration) {
	ticker := time.NewTicker(pingEvery)
	defer func() {
		ticker.Stop()
		_ = c.Close()
	}()

	for {
		select {
		case ev := <-c.out:
			_ = c.conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
			if err := c.conn.WriteJSON(ev); err != nil {
				return
			}
		case <-ticker.C:
			if err := c.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(5*time.Second)); err != nil {
				return
			}
		case <-c.closed:
			return
		}
	}
}
