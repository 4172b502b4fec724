package notifications

import (
	"context"
	"errors"
	"sync"
	"time"

	"creatorhub/internal/observability"

	"github.com/gofiber/websocket/v2"
	"github.com/google/uuid"
	"golang.org/x/time/rate"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer.
	maxMessageSize = 16384

	sendBufferSize = 256

	// Typing indicators: a short burst, then one every 500ms.
	typingRate  = rate.Limit(2)
	typingBurst = 3
)

// Client is one websocket connection owned by a relay.
type Client struct {
	ID     string
	UserID uint

	// The websocket connection. Nil in tests.
	Conn *websocket.Conn

	// Buffered channel of outbound frames.
	Send chan []byte

	// Callback for handling incoming messages.
	IncomingHandler func(*Client, []byte)

	hub       string
	onClose   func(*Client)
	typing    *rate.Limiter
	closeOnce sync.Once
	ctx       context.Context
	cancel    context.CancelFunc

	// closed when WritePump returns
	done chan struct{}
}

// NewClient creates a client for hub. onClose runs once when the read pump exits.
func NewClient(hub string, conn *websocket.Conn, userID uint, onClose func(*Client)) *Client {
	ctx, cancel := context.WithCancel(context.Background())
	return &Client{
		ID:      uuid.NewString(),
		UserID:  userID,
		Conn:    conn,
		Send:    make(chan []byte, sendBufferSize),
		hub:     hub,
		onClose: onClose,
		typing:  rate.NewLimiter(typingRate, typingBurst),
		ctx:     ctx,
		cancel:  cancel,
		done:    make(chan struct{}),
	}
}

// Run serves the connection until it closes. It returns only after both
// pumps have stopped, since the connection is released once the handler
// returns and must not be written to afterwards.
func (c *Client) Run() {
	go c.WritePump()
	c.ReadPump()
	<-c.done
}

// Done is closed once WritePump has stopped writing to the connection.
func (c *Client) Done() <-chan struct{} {
	return c.done
}

// Context is cancelled when the connection goes away.
func (c *Client) Context() context.Context {
	return c.ctx
}

// AllowTyping reports whether another typing indicator may be relayed now.
func (c *Client) AllowTyping() bool {
	return c.typing.Allow()
}

// ReadPump pumps messages from the websocket connection to IncomingHandler.
func (c *Client) ReadPump() {
	reason := "closed"
	defer func() {
		c.shutdown(reason)
		_ = c.Conn.Close()
	}()

	c.Conn.SetReadLimit(maxMessageSize)
	_ = c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	c.Conn.SetPongHandler(func(string) error { _ = c.Conn.SetReadDeadline(time.Now().Add(pongWait)); return nil })

	for {
		_, message, err := c.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				reason = "read error"
				observability.NewWSLogger(c.hub).LogError(c.ctx, c.UserID, "", err, "read")
			}
			return
		}

		if c.IncomingHandler != nil {
			c.IncomingHandler(c, message)
		}
	}
}

// WritePump pumps messages from Send to the websocket connection.
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.Conn.Close()
		close(c.done)
	}()

	for {
		select {
		case message, ok := <-c.Send:
			_ = c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			w, err := c.Conn.NextWriter(websocket.TextMessage)
			if err != nil {
				return
			}
			_, _ = w.Write(message)

			if err := w.Close(); err != nil {
				return
			}

		case <-ticker.C:
			_ = c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

var errClientClosed = errors.New("client closed")

// TrySend queues a frame without blocking. A full buffer drops the frame.
func (c *Client) TrySend(message []byte) (err error) {
	defer func() {
		if r := recover(); r != nil {
			observability.WebSocketBackpressureDrops.WithLabelValues(c.hub, "closed").Inc()
			err = errClientClosed
		}
	}()

	select {
	case c.Send <- message:
		return nil
	default:
		observability.WebSocketBackpressureDrops.WithLabelValues(c.hub, "full").Inc()
		return errors.New("send buffer full")
	}
}

// Close closes the outbound channel, which ends WritePump with a close frame.
func (c *Client) Close() {
	c.shutdown("server close")
}

func (c *Client) shutdown(reason string) {
	c.closeOnce.Do(func() {
		c.cancel()
		if c.onClose != nil {
			c.onClose(c)
		}
		close(c.Send)
		observability.NewWSLogger(c.hub).LogDisconnect(context.Background(), c.UserID, c.ID, reason)
	})
}
