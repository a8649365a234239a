package conn

import (
	"errors"
	"net/url"
	"time"

	"github.com/AtDexters-Lab/nexus-interview/internal/config"
	"github.com/google/uuid"
)

var (
	// ErrNotConnected is reported when a command is sent without a live connection.
	ErrNotConnected = errors.New("server connection lost, reconnecting")
	// ErrReconnectExhausted is reported once every scheduled reconnect has failed.
	// Only an explicit Connect starts a new attempt.
	ErrReconnectExhausted = errors.New("unable to reconnect to server, reconnection attempts exhausted")
	// ErrSendQueueFull is reported when the outbound queue of a live connection is full.
	ErrSendQueueFull = errors.New("send queue full, message dropped")
)

// ConnectionState is the lifecycle state of the single logical connection.
type ConnectionState int

const (
	StateDisconnected ConnectionState = iota
	StateConnecting
	StateConnected
)

func (s ConnectionState) String() string {
	switch s {
	case StateDisconnected:
		return "disconnected"
	case StateConnecting:
		return "connecting"
	case StateConnected:
		return "connected"
	default:
		return "unknown"
	}
}

// ClientID identifies this client instance to the server for its lifetime.
type ClientID string

// NewClientID returns a fresh opaque client identifier.
func NewClientID() ClientID {
	return ClientID("client_" + uuid.NewString())
}

// TargetURL builds the WebSocket address for the given client.
func TargetURL(cfg *config.Config, id ClientID) string {
	scheme := "ws"
	if cfg.Secure {
		scheme = "wss"
	}
	u := url.URL{Scheme: scheme, Host: cfg.Host(), Path: "/ws/" + string(id)}
	return u.String()
}

// Backoff returns the delay before the given reconnect attempt (1-based):
// base * 2^attempt, capped at limit.
func Backoff(base, limit time.Duration, attempt int) time.Duration {
	delay := base
	for i := 0; i < attempt; i++ {
		if delay >= limit {
			return limit
		}
		delay *= 2
	}
	if delay > limit {
		return limit
	}
	return delay
}
