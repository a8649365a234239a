package conn

import (
	"context"
	"log"
	"sync"

	"github.com/AtDexters-Lab/nexus-interview/internal/config"
	"github.com/AtDexters-Lab/nexus-interview/internal/iface"
	"github.com/AtDexters-Lab/nexus-interview/internal/protocol"
	"github.com/gorilla/websocket"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

// Manager owns the single logical connection to the interview server: its
// open/close lifecycle, the reconnect policy and outbound send gating.
//
// All state changes run on one event loop started by Run. Public methods
// only post work to that loop, so they never block and may be called from
// callbacks.
type Manager struct {
	config    *config.Config
	url       string
	dialer    iface.Dialer
	scheduler iface.Scheduler
	handler   iface.EnvelopeHandler
	callbacks iface.Callbacks
	loop      *eventLoop
	ctx       context.Context

	// Owned by the event loop.
	gen      uint64
	link     *link
	timer    iface.Timer
	timerSeq uint64
	attempts int

	mu            sync.RWMutex
	state         ConnectionState
	shownAttempts int
}

// Option customizes a Manager.
type Option func(*Manager)

// WithDialer replaces the gorilla websocket dialer.
func WithDialer(d iface.Dialer) Option {
	return func(m *Manager) {
		m.dialer = d
	}
}

// WithScheduler replaces the wall-clock reconnect timer.
func WithScheduler(s iface.Scheduler) Option {
	return func(m *Manager) {
		m.scheduler = s
	}
}

// NewManager creates a manager for the given client. Inbound envelopes go to
// handler; connection notices go to callbacks.
func NewManager(cfg *config.Config, id ClientID, handler iface.EnvelopeHandler, callbacks iface.Callbacks, opts ...Option) *Manager {
	pongWait := cfg.PingPeriod() * 10 / 9
	m := &Manager{
		config:    cfg,
		url:       TargetURL(cfg, id),
		dialer:    NewWebSocketDialer(pongWait),
		scheduler: timeScheduler{},
		handler:   handler,
		callbacks: callbacks,
		loop:      newEventLoop(),
		ctx:       context.Background(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// URL returns the address the manager dials.
func (m *Manager) URL() string {
	return m.url
}

// State returns the current connection state.
func (m *Manager) State() ConnectionState {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.state
}

// Attempts returns the number of reconnects scheduled since the last successful open.
func (m *Manager) Attempts() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.shownAttempts
}

// Run processes connection events until ctx is done, then disconnects.
func (m *Manager) Run(ctx context.Context) {
	m.ctx = ctx
	m.loop.run(ctx)
	m.disconnect()
	log.Println("INFO: [CONN] Connection manager has stopped.")
}

// Connect replaces any existing connection with a new one. The outcome is
// reported through the callbacks.
func (m *Manager) Connect() {
	m.loop.post(m.connect)
}

// Disconnect cancels any pending reconnect and closes the connection
// normally. Calling it while disconnected does nothing.
func (m *Manager) Disconnect() {
	m.loop.post(m.disconnect)
}

// Send transmits a command if connected. Otherwise nothing is sent,
// ErrNotConnected is reported and a reconnect is started.
func (m *Manager) Send(event protocol.EventType, payload any) {
	m.loop.post(func() { m.send(event, payload) })
}

func (m *Manager) connect() {
	m.cancelTimer()
	m.release(websocket.CloseNormalClosure, "reconnecting")
	m.gen++
	gen := m.gen
	m.setState(StateConnecting)

	ctx, url := m.ctx, m.url
	log.Printf("INFO: [CONN] Connecting to %s", url)
	go func() {
		ctx, span := tracer.Start(ctx, "dial interview server", trace.WithAttributes(attribute.String("server.url", url)))
		t, err := m.dialer.Dial(ctx, url)
		if err != nil {
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()

		if !m.loop.post(func() { m.opened(gen, t, err) }) && t != nil {
			_ = t.Close(websocket.CloseNormalClosure, "")
		}
	}()
}

func (m *Manager) opened(gen uint64, t iface.Transport, err error) {
	if gen != m.gen {
		if t != nil {
			_ = t.Close(websocket.CloseNormalClosure, "superseded")
		}
		return
	}
	if err != nil {
		log.Printf("WARN: [CONN] Failed to connect: %v", err)
		m.closed(gen, websocket.CloseAbnormalClosure)
		return
	}

	m.link = newLink(gen, t, m, m.config.PingPeriod())
	m.link.start()
	m.cancelTimer()
	m.setAttempts(0)
	m.setState(StateConnected)
	log.Printf("INFO: [CONN] Connected to %s", m.url)
	m.callbacks.Connected()
}

func (m *Manager) received(gen uint64, frame []byte) {
	if gen != m.gen || m.link == nil {
		return
	}
	env, err := protocol.Decode(frame)
	if err != nil {
		log.Printf("WARN: [CONN] Dropping malformed frame: %v", err)
		return
	}
	m.handler.HandleEnvelope(env)
}

// closed handles the loss of the current transport, or a failed dial.
func (m *Manager) closed(gen uint64, code int) {
	if gen != m.gen {
		return
	}
	m.release(websocket.CloseNormalClosure, "")
	m.setState(StateDisconnected)

	if code == websocket.CloseNormalClosure {
		log.Println("INFO: [CONN] Server closed the connection normally.")
		m.callbacks.Disconnected()
		return
	}
	m.scheduleReconnect(code)
}

func (m *Manager) scheduleReconnect(code int) {
	if m.attempts >= m.config.Reconnect.MaxAttempts {
		log.Printf("ERROR: [CONN] Connection lost (code %d) after %d reconnect attempts; giving up.", code, m.attempts)
		m.callbacks.Error(ErrReconnectExhausted)
		return
	}

	m.setAttempts(m.attempts + 1)
	delay := Backoff(m.config.BaseDelay(), m.config.CapDelay(), m.attempts)

	m.cancelTimer()
	m.timerSeq++
	seq := m.timerSeq
	m.timer = m.scheduler.AfterFunc(delay, func() {
		m.loop.post(func() { m.fireTimer(seq) })
	})
	reconnectCounter.Add(m.ctx, 1, metric.WithAttributes(attribute.Int("close.code", code)))

	log.Printf("WARN: [CONN] Connection lost (code %d). Reconnect attempt %d/%d in %s.",
		code, m.attempts, m.config.Reconnect.MaxAttempts, delay)
	m.callbacks.Disconnected()
}

func (m *Manager) fireTimer(seq uint64) {
	if seq != m.timerSeq || m.timer == nil {
		return
	}
	m.timer = nil
	m.connect()
}

func (m *Manager) cancelTimer() {
	if m.timer != nil {
		m.timer.Stop()
		m.timer = nil
	}
}

// release closes the current transport. Frames it still has queued on the
// loop are dropped because they no longer match a live link.
func (m *Manager) release(code int, reason string) {
	if m.link == nil {
		return
	}
	m.link.stop(code, reason)
	m.link = nil
}

func (m *Manager) disconnect() {
	m.cancelTimer()
	wasConnected := m.State() == StateConnected
	m.gen++
	m.release(websocket.CloseNormalClosure, "")
	m.setState(StateDisconnected)
	if wasConnected {
		log.Println("INFO: [CONN] Disconnected from server.")
		m.callbacks.Disconnected()
	}
}

func (m *Manager) send(event protocol.EventType, payload any) {
	if m.link == nil {
		log.Printf("WARN: [CONN] Cannot send %s while %s; reconnecting.", event, m.State())
		m.callbacks.Error(ErrNotConnected)
		m.connect()
		return
	}

	frame, err := protocol.Encode(event, payload)
	if err != nil {
		log.Printf("ERROR: [CONN] Failed to encode %s: %v", event, err)
		m.callbacks.Error(err)
		return
	}
	if !m.link.enqueue(frame) {
		log.Printf("WARN: [CONN] Send queue full. Dropping %s.", event)
		m.callbacks.Error(ErrSendQueueFull)
	}
}

func (m *Manager) setState(s ConnectionState) {
	m.mu.Lock()
	m.state = s
	m.mu.Unlock()
}

func (m *Manager) setAttempts(n int) {
	m.attempts = n
	m.mu.Lock()
	m.shownAttempts = n
	m.mu.Unlock()
}
