package conn

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/AtDexters-Lab/nexus-interview/internal/iface"
	"github.com/gorilla/websocket"
)

const (
	writeWait      = 10 * time.Second
	closeWait      = time.Second
	maxMessageSize = 1 << 20
)

// WebSocketDialer opens gorilla websocket transports.
type WebSocketDialer struct {
	dialer   *websocket.Dialer
	pongWait time.Duration
}

// NewWebSocketDialer returns a Dialer whose transports expect traffic or a
// pong at least every pongWait. A zero pongWait disables the read deadline.
func NewWebSocketDialer(pongWait time.Duration) *WebSocketDialer {
	return &WebSocketDialer{
		dialer:   websocket.DefaultDialer,
		pongWait: pongWait,
	}
}

func (d *WebSocketDialer) Dial(ctx context.Context, url string) (iface.Transport, error) {
	conn, resp, err := d.dialer.DialContext(ctx, url, nil)
	if err != nil {
		if resp != nil {
			return nil, fmt.Errorf("dial %s: handshake failed with status %d: %w", url, resp.StatusCode, err)
		}
		return nil, fmt.Errorf("dial %s: %w", url, err)
	}

	t := &wsTransport{conn: conn, pongWait: d.pongWait}
	conn.SetReadLimit(maxMessageSize)
	if t.pongWait > 0 {
		_ = conn.SetReadDeadline(time.Now().Add(t.pongWait))
		conn.SetPongHandler(func(string) error {
			return conn.SetReadDeadline(time.Now().Add(t.pongWait))
		})
	}
	return t, nil
}

// wsTransport adapts a *websocket.Conn to iface.Transport. Only one
// goroutine may call WriteMessage at a time; Ping and Close are safe to
// call concurrently with it.
type wsTransport struct {
	conn     *websocket.Conn
	pongWait time.Duration
}

func (t *wsTransport) ReadMessage() ([]byte, error) {
	_, data, err := t.conn.ReadMessage()
	if err != nil {
		var ce *websocket.CloseError
		if errors.As(err, &ce) {
			return nil, &iface.CloseError{Code: ce.Code, Reason: ce.Text}
		}
		return nil, &iface.CloseError{Code: websocket.CloseAbnormalClosure, Reason: err.Error()}
	}
	if t.pongWait > 0 {
		_ = t.conn.SetReadDeadline(time.Now().Add(t.pongWait))
	}
	return data, nil
}

func (t *wsTransport) WriteMessage(data []byte) error {
	_ = t.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return t.conn.WriteMessage(websocket.TextMessage, data)
}

func (t *wsTransport) Ping() error {
	return t.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait))
}

func (t *wsTransport) Close(code int, reason string) error {
	msg := websocket.FormatCloseMessage(code, reason)
	_ = t.conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(closeWait))
	return t.conn.Close()
}

type timeScheduler struct{}

func (timeScheduler) AfterFunc(d time.Duration, f func()) iface.Timer {
	return time.AfterFunc(d, f)
}
