package conn

import (
	"errors"
	"log"
	"sync"
	"time"

	"github.com/AtDexters-Lab/nexus-interview/internal/iface"
	"github.com/gorilla/websocket"
)

const sendQueueSize = 64

// link owns one opened transport and its read and write pumps. Everything
// the pumps observe is posted back to the manager's loop tagged with gen.
type link struct {
	gen        uint64
	transport  iface.Transport
	manager    *Manager
	pingPeriod time.Duration
	send       chan []byte
	done       chan struct{}
	stopOnce   sync.Once
}

func newLink(gen uint64, t iface.Transport, m *Manager, pingPeriod time.Duration) *link {
	return &link{
		gen:        gen,
		transport:  t,
		manager:    m,
		pingPeriod: pingPeriod,
		send:       make(chan []byte, sendQueueSize),
		done:       make(chan struct{}),
	}
}

func (l *link) start() {
	go l.readPump()
	go l.writePump()
}

// enqueue queues a frame without blocking.
func (l *link) enqueue(frame []byte) bool {
	select {
	case l.send <- frame:
		return true
	default:
		return false
	}
}

// stop closes the transport with the given code. Safe to call more than once.
func (l *link) stop(code int, reason string) {
	l.stopOnce.Do(func() {
		close(l.done)
		if err := l.transport.Close(code, reason); err != nil {
			log.Printf("DEBUG: [CONN] Closing transport generation %d: %v", l.gen, err)
		}
	})
}

func (l *link) readPump() {
	for {
		frame, err := l.transport.ReadMessage()
		if err != nil {
			code := websocket.CloseAbnormalClosure
			var ce *iface.CloseError
			if errors.As(err, &ce) {
				code = ce.Code
			}
			l.manager.loop.post(func() { l.manager.closed(l.gen, code) })
			return
		}
		l.manager.loop.post(func() { l.manager.received(l.gen, frame) })
	}
}

func (l *link) writePump() {
	var tick <-chan time.Time
	if l.pingPeriod > 0 {
		ticker := time.NewTicker(l.pingPeriod)
		defer ticker.Stop()
		tick = ticker.C
	}

	for {
		select {
		case <-l.done:
			return
		case frame := <-l.send:
			if err := l.transport.WriteMessage(frame); err != nil {
				log.Printf("ERROR: [CONN] Failed to write to server: %v", err)
				// Closing unblocks the read pump, which reports the loss.
				l.stop(websocket.CloseGoingAway, "")
				return
			}
		case <-tick:
			if err := l.transport.Ping(); err != nil {
				log.Printf("WARN: [CONN] Keep-alive ping failed: %v", err)
				l.stop(websocket.CloseGoingAway, "")
				return
			}
		}
	}
}
