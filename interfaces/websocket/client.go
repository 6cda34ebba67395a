package websocket

import (
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 4 << 10
	sendBuffer     = 16
)

// inboundMessage is what clients send: hover transitions and vote
// toggles against the tree they are watching.
type inboundMessage struct {
	Type      string `json:"type"`
	NodeID    string `json:"nodeId,omitempty"`
	Direction string `json:"direction,omitempty"`
}

// outboundMessage wraps everything pushed to a client
type outboundMessage struct {
	Type    string      `json:"type"`
	View    interface{} `json:"view,omitempty"`
	Message string      `json:"message,omitempty"`
}

// client owns one websocket connection. Writes go through the send
// channel so the write pump is the only goroutine touching the conn.
type client struct {
	conn   *websocket.Conn
	send   chan outboundMessage
	done   chan struct{}
	logger *zap.Logger
}

func newClient(conn *websocket.Conn, logger *zap.Logger) *client {
	return &client{
		conn:   conn,
		send:   make(chan outboundMessage, sendBuffer),
		done:   make(chan struct{}),
		logger: logger,
	}
}

// enqueue hands a message to the write pump. A client that cannot keep
// up is dropped rather than blocking the broadcaster.
func (c *client) enqueue(msg outboundMessage) {
	select {
	case c.send <- msg:
	case <-c.done:
	default:
		c.logger.Warn("websocket client too slow, closing")
		c.close()
	}
}

func (c *client) close() {
	select {
	case <-c.done:
	default:
		close(c.done)
	}
}

// writePump drains the send channel onto the connection and keeps the
// connection alive with pings
func (c *client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case <-c.done:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			c.conn.WriteMessage(websocket.CloseMessage, []byte{})
			return
		case msg := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteJSON(msg); err != nil {
				c.logger.Debug("websocket write failed", zap.Error(err))
				c.close()
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				c.close()
				return
			}
		}
	}
}

// readPump delivers inbound messages to handle until the connection ends
func (c *client) readPump(handle func(inboundMessage)) {
	defer func() {
		c.close()
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		var msg inboundMessage
		if err := c.conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.logger.Debug("websocket read failed", zap.Error(err))
			}
			return
		}
		handle(msg)
	}
}
