package live

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"HealthSeva/tools/errs"

	"github.com/gorilla/websocket"
)

// Conn is one websocket connection. All writes go through its send queue
// and a single writer goroutine.
type Conn struct {
	ID string

	ws   *websocket.Conn
	send chan []byte
	done chan struct{}
	once sync.Once

	// guarded by the manager lock
	userID    string
	createdAt time.Time
	expireAt  time.Time // zero once authorized
}

// Send queues v as a JSON text frame, waiting while the queue is full.
func (c *Conn) Send(ctx context.Context, v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return errs.Wrap(err)
	}
	select {
	case c.send <- b:
		return nil
	case <-c.done:
		return errs.ErrTransport.WrapMsg("connection closed", "conn", c.ID)
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Done is closed once the connection is shutting down.
func (c *Conn) Done() <-chan struct{} { return c.done }

func (c *Conn) shutdown() {
	c.once.Do(func() { close(c.done) })
}

func (m *Manager) writePump(c *Conn) {
	ping := time.NewTicker(m.conf.PingInterval)
	defer func() {
		ping.Stop()
		_ = c.ws.SetWriteDeadline(time.Now().Add(m.conf.WriteWait))
		_ = c.ws.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
		_ = c.ws.Close()
	}()
	for {
		select {
		case <-c.done:
			return
		case b := <-c.send:
			_ = c.ws.SetWriteDeadline(time.Now().Add(m.conf.WriteWait))
			if err := c.ws.WriteMessage(websocket.TextMessage, b); err != nil {
				c.shutdown()
				return
			}
		case <-ping.C:
			if err := c.ws.WriteControl(websocket.PingMessage, nil, time.Now().Add(m.conf.WriteWait)); err != nil {
				c.shutdown()
				return
			}
		}
	}
}

// PrepareRead applies the read limit and keeps the read deadline moving with
// every pong. Call it before the read loop.
func (m *Manager) PrepareRead(c *Conn) {
	c.ws.SetReadLimit(m.conf.MaxMessage)
	_ = c.ws.SetReadDeadline(time.Now().Add(m.conf.PongWait))
	c.ws.SetPongHandler(func(string) error {
		return c.ws.SetReadDeadline(time.Now().Add(m.conf.PongWait))
	})
}

// ReadMessage reads the next data frame; control frames are handled by the
// websocket library.
func (c *Conn) ReadMessage() (int, []byte, error) {
	return c.ws.ReadMessage()
}
