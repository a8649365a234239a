package dispatch

import (
	"context"
	"log"

	"github.com/AtDexters-Lab/nexus-interview/internal/iface"
	"github.com/AtDexters-Lab/nexus-interview/internal/protocol"
	"github.com/AtDexters-Lab/nexus-interview/internal/session"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const scopeName = "github.com/AtDexters-Lab/nexus-interview/internal/dispatch"

var tracer = otel.Tracer(scopeName)

// RemoteError is an error reported by the interview server through an
// error event. Its text is the server's message, verbatim.
type RemoteError struct {
	Message string
}

func (e *RemoteError) Error() string {
	return e.Message
}

// Dispatcher routes inbound envelopes to the phase machine and the
// collaborator callbacks.
type Dispatcher struct {
	machine   *session.Machine
	callbacks iface.Callbacks
}

// New creates a Dispatcher driving the given machine.
func New(machine *session.Machine, callbacks iface.Callbacks) *Dispatcher {
	return &Dispatcher{
		machine:   machine,
		callbacks: callbacks,
	}
}

// HandleEnvelope applies the effect of one inbound envelope. A payload that
// does not fit its event is logged and dropped like any other decode failure.
func (d *Dispatcher) HandleEnvelope(env protocol.Envelope) {
	_, span := tracer.Start(context.Background(), "dispatch envelope")
	defer span.End()
	span.SetAttributes(attribute.String("interview.event", string(env.Event)))

	switch env.Event {
	case protocol.EventInterviewStarted:
		var q protocol.QuestionPayload
		if err := protocol.DecodePayload(env, &q); err != nil {
			d.dropped(span, err)
			return
		}
		if d.machine.Start(q.Question, q.QuestionNumber) {
			span.SetAttributes(attribute.Int("interview.question_number", q.QuestionNumber))
			d.callbacks.InterviewStarted()
		}

	case protocol.EventNextQuestion:
		var q protocol.QuestionPayload
		if err := protocol.DecodePayload(env, &q); err != nil {
			d.dropped(span, err)
			return
		}
		if d.machine.Advance(q.Question, q.QuestionNumber) {
			span.SetAttributes(attribute.Int("interview.question_number", q.QuestionNumber))
		}

	case protocol.EventInterviewComplete:
		var c protocol.CompletePayload
		if err := protocol.DecodePayload(env, &c); err != nil {
			d.dropped(span, err)
			return
		}
		if c.Feedback == nil {
			d.dropped(span, protocol.ErrMissingFeedback)
			return
		}
		if d.machine.Complete(c.Feedback.DetailedFeedback) {
			d.callbacks.InterviewComplete()
		}

	case protocol.EventError:
		var e protocol.ErrorPayload
		if err := protocol.DecodePayload(env, &e); err != nil {
			d.dropped(span, err)
			return
		}
		log.Printf("WARN: [DISPATCH] Server reported error: %s", e.Message)
		d.callbacks.Error(&RemoteError{Message: e.Message})

	default:
		log.Printf("WARN: [DISPATCH] Ignoring unknown event type '%s'", env.Event)
	}
}

func (d *Dispatcher) dropped(span trace.Span, err error) {
	log.Printf("WARN: [DISPATCH] Dropping inbound envelope: %v", err)
	span.SetStatus(codes.Error, err.Error())
}
