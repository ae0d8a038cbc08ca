package presentation

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const writeWait = 10 * time.Second

// client is one websocket subscriber. The socket is only written from
// writeLoop; the tick side only ever does a non-blocking queue send.
type client struct {
	id   uint64
	conn *websocket.Conn
	out  chan []byte

	closeCh   chan struct{}
	closeOnce sync.Once
	closed    atomic.Bool

	log *zap.Logger
}

func newClient(conn *websocket.Conn, id uint64, outSize int, log *zap.Logger) *client {
	return &client{
		id:      id,
		conn:    conn,
		out:     make(chan []byte, outSize),
		closeCh: make(chan struct{}),
		log:     log.With(zap.Uint64("client", id)),
	}
}

// send queues msg. A full queue means a slow reader, which is disconnected.
func (c *client) send(msg []byte) bool {
	if c.closed.Load() {
		return false
	}
	select {
	case c.out <- msg:
		return true
	default:
		c.log.Warn("feed queue full, dropping slow client")
		c.Close()
		return false
	}
}

func (c *client) Close() {
	c.closeOnce.Do(func() {
		c.closed.Store(true)
		close(c.closeCh)
		c.conn.Close()
	})
}

// readLoop discards client frames; it exists to process control frames and
// notice the disconnect.
func (c *client) readLoop(onClose func()) {
	defer onClose()
	defer c.Close()
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if !c.closed.Load() && websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.log.Debug("feed read error", zap.Error(err))
			}
			return
		}
	}
}

func (c *client) writeLoop() {
	defer c.Close()
	for {
		select {
		case msg := <-c.out:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				if !c.closed.Load() {
					c.log.Debug("feed write error", zap.Error(err))
				}
				return
			}
		case <-c.closeCh:
			return
		}
	}
}
