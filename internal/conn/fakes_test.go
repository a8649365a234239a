package conn

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/AtDexters-Lab/nexus-interview/internal/iface"
	"github.com/AtDexters-Lab/nexus-interview/internal/protocol"
)

type fakeTransport struct {
	inbound   chan []byte
	closed    chan struct{}
	closeOnce sync.Once
	// late frames are still returned after close, as if already in flight.
	late    chan []byte
	drained chan struct{}

	mu         sync.Mutex
	code       int
	closedByUs bool
	written    [][]byte
}

func newFakeTransport() *fakeTransport {
	return &fakeTransport{
		inbound: make(chan []byte, 16),
		closed:  make(chan struct{}),
		late:    make(chan []byte, 4),
		drained: make(chan struct{}),
	}
}

func (f *fakeTransport) ReadMessage() ([]byte, error) {
	select {
	case frame := <-f.inbound:
		return frame, nil
	case <-f.closed:
		select {
		case frame := <-f.late:
			return frame, nil
		default:
		}
		f.mu.Lock()
		defer f.mu.Unlock()
		select {
		case <-f.drained:
		default:
			close(f.drained)
		}
		return nil, &iface.CloseError{Code: f.code}
	}
}

func (f *fakeTransport) WriteMessage(data []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.code != 0 {
		return errors.New("write on closed transport")
	}
	f.written = append(f.written, data)
	return nil
}

func (f *fakeTransport) Ping() error { return nil }

func (f *fakeTransport) Close(code int, reason string) error {
	f.shut(code, true)
	return nil
}

// drop simulates the server side closing the connection with code.
func (f *fakeTransport) drop(code int) {
	f.shut(code, false)
}

func (f *fakeTransport) shut(code int, local bool) {
	f.closeOnce.Do(func() {
		f.mu.Lock()
		f.code = code
		f.closedByUs = local
		f.mu.Unlock()
		close(f.closed)
	})
}

func (f *fakeTransport) closeState() (code int, local bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.code, f.closedByUs
}

func (f *fakeTransport) frames() [][]byte {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([][]byte(nil), f.written...)
}

type fakeDialer struct {
	mu         sync.Mutex
	fail       bool
	urls       []string
	transports []*fakeTransport
}

func (d *fakeDialer) Dial(ctx context.Context, url string) (iface.Transport, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.urls = append(d.urls, url)
	if d.fail {
		return nil, errors.New("connection refused")
	}
	t := newFakeTransport()
	d.transports = append(d.transports, t)
	return t, nil
}

func (d *fakeDialer) setFail(fail bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.fail = fail
}

func (d *fakeDialer) dialCount() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.urls)
}

func (d *fakeDialer) transport(i int) *fakeTransport {
	d.mu.Lock()
	defer d.mu.Unlock()
	if i >= len(d.transports) {
		return nil
	}
	return d.transports[i]
}

type fakeTimer struct {
	delay   time.Duration
	f       func()
	mu      sync.Mutex
	stopped bool
}

func (t *fakeTimer) Stop() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	was := !t.stopped
	t.stopped = true
	return was
}

func (t *fakeTimer) isStopped() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.stopped
}

type fakeScheduler struct {
	mu     sync.Mutex
	timers []*fakeTimer
}

func (s *fakeScheduler) AfterFunc(d time.Duration, f func()) iface.Timer {
	s.mu.Lock()
	defer s.mu.Unlock()
	t := &fakeTimer{delay: d, f: f}
	s.timers = append(s.timers, t)
	return t
}

func (s *fakeScheduler) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.timers)
}

func (s *fakeScheduler) delays() []time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]time.Duration, 0, len(s.timers))
	for _, t := range s.timers {
		out = append(out, t.delay)
	}
	return out
}

// fire runs the i-th timer's function as if its delay had elapsed, even if
// it was stopped, to exercise stale-timer handling.
func (s *fakeScheduler) fire(i int) {
	s.mu.Lock()
	t := s.timers[i]
	s.mu.Unlock()
	t.f()
}

func (s *fakeScheduler) timer(i int) *fakeTimer {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.timers[i]
}

type recordingHandler struct {
	mu   sync.Mutex
	envs []protocol.Envelope
}

func (h *recordingHandler) HandleEnvelope(env protocol.Envelope) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.envs = append(h.envs, env)
}

func (h *recordingHandler) events() []protocol.EventType {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]protocol.EventType, 0, len(h.envs))
	for _, env := range h.envs {
		out = append(out, env.Event)
	}
	return out
}

type notices struct {
	mu          sync.Mutex
	connects    int
	disconnects int
	errs        []error
}

func (n *notices) callbacks() iface.Callbacks {
	return iface.Callbacks{
		OnConnect: func() {
			n.mu.Lock()
			defer n.mu.Unlock()
			n.connects++
		},
		OnDisconnect: func() {
			n.mu.Lock()
			defer n.mu.Unlock()
			n.disconnects++
		},
		OnError: func(err error) {
			n.mu.Lock()
			defer n.mu.Unlock()
			n.errs = append(n.errs, err)
		},
	}
}

func (n *notices) counts() (connects, disconnects int) {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.connects, n.disconnects
}

func (n *notices) errorCount(target error) int {
	n.mu.Lock()
	defer n.mu.Unlock()
	count := 0
	for _, err := range n.errs {
		if errors.Is(err, target) {
			count++
		}
	}
	return count
}

func (n *notices) errorTotal() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.errs)
}
