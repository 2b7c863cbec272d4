package realtime

import (
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"golang.org/x/time/rate"

	"github.com/chaan32/StudyPing/internal/infrastructure/auth"
)

const (
	writeWait  = 10 * time.Second
	pingPeriod = 30 * time.Second
	sendBuffer = 128
)

var (
	ErrConnectionClosed = errors.New("realtime: connection closed")
	ErrBufferExceeded   = errors.New("realtime: connection buffer exceeded")
)

// transport is the part of *websocket.Conn the write loop needs.
type transport interface {
	SetWriteDeadline(t time.Time) error
	WriteMessage(messageType int, data []byte) error
	WriteControl(messageType int, data []byte, deadline time.Time) error
	Close() error
}

// Connection is one admitted realtime session. It is created only after a
// successful CONNECT and coordinates outbound writes via a buffered channel.
// Safe for concurrent use.
type Connection struct {
	ID       string
	Identity auth.Identity

	ws      transport
	send    chan []byte
	once    sync.Once
	close   chan struct{}
	limiter *rate.Limiter
}

// NewConnection constructs a session for an authenticated identity.
func NewConnection(identity auth.Identity, ws *websocket.Conn) *Connection {
	return newConnection(identity, ws)
}

func newConnection(identity auth.Identity, ws transport) *Connection {
	return &Connection{
		ID:       uuid.NewString(),
		Identity: identity,
		ws:       ws,
		send:     make(chan []byte, sendBuffer),
		close:    make(chan struct{}),
	}
}

// Limit throttles Allow to perSecond events with the given burst.
// A non-positive rate disables throttling.
func (c *Connection) Limit(perSecond float64, burst int) {
	if perSecond <= 0 {
		c.limiter = nil
		return
	}
	if burst <= 0 {
		burst = 1
	}
	c.limiter = rate.NewLimiter(rate.Limit(perSecond), burst)
}

// Allow reports whether the session may send another chat message now.
func (c *Connection) Allow() bool {
	return c.limiter == nil || c.limiter.Allow()
}

// Start launches the write loop. It must be called exactly once per connection.
func (c *Connection) Start() {
	go c.writeLoop()
}

// Done is closed once the connection is closed.
func (c *Connection) Done() <-chan struct{} {
	return c.close
}

// Send enqueues payload for delivery. If the client is slow and the buffer is full,
// the connection is closed to keep backpressure bounded.
func (c *Connection) Send(payload []byte) error {
	if payload == nil {
		return nil
	}
	select {
	case <-c.close:
		return ErrConnectionClosed
	default:
	}
	select {
	case <-c.close:
		return ErrConnectionClosed
	case c.send <- payload:
		return nil
	default:
		c.abort(websocket.CloseGoingAway, "send buffer full")
		return ErrBufferExceeded
	}
}

// SendFrame encodes f and enqueues it.
func (c *Connection) SendFrame(f Frame) error {
	b, err := f.Encode()
	if err != nil {
		return err
	}
	return c.Send(b)
}

// Close terminates the connection and stops the write loop. The send channel
// stays open so concurrent Send calls never hit a closed channel.
func (c *Connection) Close(code int, reason string) {
	c.once.Do(func() {
		close(c.close)
		c.teardown(code, reason)
	})
}

// abort marks the connection closed at once and writes the close frame in the
// background, so Send stays non-blocking for a client that stopped reading.
func (c *Connection) abort(code int, reason string) {
	c.once.Do(func() {
		close(c.close)
		go c.teardown(code, reason)
	})
}

func (c *Connection) teardown(code int, reason string) {
	_ = c.ws.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(code, reason), time.Now().Add(writeWait))
	_ = c.ws.Close()
}

// Shutdown closes the connection once the frames already queued are written,
// or after wait. A full buffer closes it at once.
func (c *Connection) Shutdown(wait time.Duration) {
	select {
	case c.send <- nil:
	default:
		c.Close(websocket.CloseNormalClosure, "session closed")
		return
	}
	select {
	case <-c.close:
	case <-time.After(wait):
		c.Close(websocket.CloseNormalClosure, "session closed")
	}
}

func (c *Connection) writeLoop() {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-c.close:
			return
		case msg := <-c.send:
			if msg == nil {
				c.Close(websocket.CloseNormalClosure, "session closed")
				return
			}
			if err := c.writeMessage(msg); err != nil {
				c.Close(websocket.CloseAbnormalClosure, "write failed")
				return
			}
		case <-ticker.C:
			if err := c.writePing(); err != nil {
				c.Close(websocket.CloseAbnormalClosure, "ping failed")
				return
			}
		}
	}
}

func (c *Connection) writeMessage(payload []byte) error {
	if err := c.ws.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		return err
	}
	return c.ws.WriteMessage(websocket.TextMessage, payload)
}

func (c *Connection) writePing() error {
	if err := c.ws.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		return err
	}
	return c.ws.WriteMessage(websocket.PingMessage, nil)
}
