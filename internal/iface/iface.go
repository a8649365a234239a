package iface

import (
	"context"
	"time"

	"github.com/AtDexters-Lab/nexus-interview/internal/protocol"
)

// Transport is a single open message connection to the interview server.
type Transport interface {
	// ReadMessage blocks until the next data frame arrives. It returns a
	// *CloseError once the connection is closed.
	ReadMessage() ([]byte, error)
	WriteMessage(data []byte) error
	Ping() error
	// Close sends a close frame with the given status code and releases the connection.
	Close(code int, reason string) error
}

// Dialer opens transports.
type Dialer interface {
	Dial(ctx context.Context, url string) (Transport, error)
}

// Timer is a pending scheduled call.
type Timer interface {
	Stop() bool
}

// Scheduler schedules delayed calls.
type Scheduler interface {
	AfterFunc(d time.Duration, f func()) Timer
}

// EnvelopeHandler receives every decoded inbound envelope.
type EnvelopeHandler interface {
	HandleEnvelope(env protocol.Envelope)
}

// CloseError reports the status code a transport was closed with.
type CloseError struct {
	Code   int
	Reason string
}

func (e *CloseError) Error() string {
	if e.Reason == "" {
		return "connection closed"
	}
	return "connection closed: " + e.Reason
}

// Callbacks is the fixed set of notifications the client core emits. Every
// slot is optional and is invoked synchronously from the event loop.
type Callbacks struct {
	OnConnect           func()
	OnDisconnect        func()
	OnError             func(err error)
	OnInterviewStarted  func()
	OnInterviewComplete func()
}

func (c Callbacks) Connected() {
	if c.OnConnect != nil {
		c.OnConnect()
	}
}

func (c Callbacks) Disconnected() {
	if c.OnDisconnect != nil {
		c.OnDisconnect()
	}
}

func (c Callbacks) Error(err error) {
	if c.OnError != nil {
		c.OnError(err)
	}
}

func (c Callbacks) InterviewStarted() {
	if c.OnInterviewStarted != nil {
		c.OnInterviewStarted()
	}
}

func (c Callbacks) InterviewComplete() {
	if c.OnInterviewComplete != nil {
		c.OnInterviewComplete()
	}
}
