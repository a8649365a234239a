package conn

import (
	"context"
	"sync"
)

// eventLoop runs posted functions one at a time on a single goroutine.
// post never blocks, so functions may post further work.
type eventLoop struct {
	mu      sync.Mutex
	queue   []func()
	stopped bool
	wake    chan struct{}
}

func newEventLoop() *eventLoop {
	return &eventLoop{wake: make(chan struct{}, 1)}
}

// post queues fn and reports false if the loop has already stopped.
func (l *eventLoop) post(fn func()) bool {
	l.mu.Lock()
	if l.stopped {
		l.mu.Unlock()
		return false
	}
	l.queue = append(l.queue, fn)
	l.mu.Unlock()

	select {
	case l.wake <- struct{}{}:
	default:
	}
	return true
}

// run executes posted work until ctx is done. Work queued before the stop
// still runs; later posts are rejected.
func (l *eventLoop) run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			l.mu.Lock()
			l.stopped = true
			batch := l.queue
			l.queue = nil
			l.mu.Unlock()
			for _, fn := range batch {
				fn()
			}
			return
		case <-l.wake:
			l.drain()
		}
	}
}

func (l *eventLoop) drain() {
	for {
		l.mu.Lock()
		batch := l.queue
		l.queue = nil
		l.mu.Unlock()
		if len(batch) == 0 {
			return
		}
		for _, fn := range batch {
			fn()
		}
	}
}
