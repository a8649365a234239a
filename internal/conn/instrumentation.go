package conn

import (
	"log"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
)

const scopeName = "github.com/AtDexters-Lab/nexus-interview/internal/conn"

var (
	tracer = otel.Tracer(scopeName)
	meter  = otel.Meter(scopeName)

	reconnectCounter = newReconnectCounter(meter)
)

// newReconnectCounter returns a no-op counter if the meter rejects the instrument.
func newReconnectCounter(m metric.Meter) metric.Int64Counter {
	counter, err := m.Int64Counter("interview.client.reconnects",
		metric.WithDescription("Reconnect attempts scheduled after an abnormal close."))
	if err != nil || counter == nil {
		log.Printf("WARN: [CONN] Reconnect counter unavailable, using no-op: %v", err)
		return noop.Int64Counter{}
	}
	return counter
}
