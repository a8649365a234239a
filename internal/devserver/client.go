package devserver

import (
	"log"
	"sync"
	"sync/atomic"
	"time"

	"github.com/AtDexters-Lab/nexus-interview/internal/protocol"
	"github.com/gorilla/websocket"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 1 << 20
)

// clientConn is one WebSocket connection from an interview client.
type clientConn struct {
	id     string
	conn   *websocket.Conn
	server *Server

	outgoing  chan []byte
	quit      chan struct{}
	closeOnce sync.Once
	closed    atomic.Bool
}

func newClientConn(id string, conn *websocket.Conn, s *Server) *clientConn {
	return &clientConn{
		id:       id,
		conn:     conn,
		server:   s,
		outgoing: make(chan []byte, 64),
		quit:     make(chan struct{}),
	}
}

func (c *clientConn) Close() {
	c.closeOnce.Do(func() {
		c.closed.Store(true)
		close(c.quit)
		_ = c.conn.Close()
	})
}

// CloseWith sends a close frame with the given code before closing.
func (c *clientConn) CloseWith(code int, reason string) {
	msg := websocket.FormatCloseMessage(code, reason)
	_ = c.conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(writeWait))
	c.Close()
}

// StartPumps blocks until the connection is closed.
func (c *clientConn) StartPumps() {
	var wg sync.WaitGroup
	wg.Add(2)

	go func() {
		defer wg.Done()
		c.writePump()
	}()

	go func() {
		defer wg.Done()
		c.readPump()
	}()

	wg.Wait()
}

// Send encodes and queues an event for the client.
func (c *clientConn) Send(event protocol.EventType, payload any) {
	if c.closed.Load() {
		return
	}
	frame, err := protocol.Encode(event, payload)
	if err != nil {
		log.Printf("ERROR: Failed to encode %s for client %s: %v", event, c.id, err)
		return
	}
	select {
	case <-c.quit:
	case c.outgoing <- frame:
	default:
		log.Printf("WARN: Send channel for client %s is full. Dropping %s.", c.id, event)
	}
}

func (c *clientConn) readPump() {
	defer func() {
		log.Printf("INFO: Closing client %s read pump", c.id)
		c.Close()
	}()
	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				log.Printf("ERROR: Unexpected close error from client %s: %v", c.id, err)
			}
			break
		}
		_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))

		env, err := protocol.Decode(message)
		if err != nil {
			log.Printf("WARN: Malformed message from client %s: %v", c.id, err)
			continue
		}
		c.server.handleEnvelope(c, env)
	}
}

func (c *clientConn) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.Close()
	}()
	for {
		select {
		case <-c.quit:
			return
		case frame := <-c.outgoing:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.TextMessage, frame); err != nil {
				log.Printf("ERROR: Failed to write to client %s: %v", c.id, err)
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
