package protocol

import (
	"encoding/json"
	"errors"
	"fmt"
)

var (
	// ErrMissingEvent is returned by Decode for a well-formed object without an event tag.
	ErrMissingEvent = errors.New("envelope has no event tag")
	// ErrMissingFeedback is reported for an interview_complete payload whose
	// feedback is absent or null.
	ErrMissingFeedback = errors.New("interview_complete payload carries no feedback")
)

// Encode serializes an envelope for the given event. The payload is not
// validated beyond being serializable; a nil payload produces an empty object.
func Encode(event EventType, payload any) ([]byte, error) {
	if payload == nil {
		payload = struct{}{}
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal %s payload: %w", event, err)
	}
	frame, err := json.Marshal(Envelope{Event: event, Data: data})
	if err != nil {
		return nil, fmt.Errorf("marshal %s envelope: %w", event, err)
	}
	return frame, nil
}

// Decode parses a wire frame into an Envelope.
func Decode(frame []byte) (Envelope, error) {
	var env Envelope
	if err := json.Unmarshal(frame, &env); err != nil {
		return Envelope{}, fmt.Errorf("malformed envelope: %w", err)
	}
	if env.Event == "" {
		return Envelope{}, ErrMissingEvent
	}
	return env, nil
}

// DecodePayload unmarshals the envelope's data into v.
func DecodePayload(env Envelope, v any) error {
	if len(env.Data) == 0 || string(env.Data) == "null" {
		return fmt.Errorf("%s envelope carries no data", env.Event)
	}
	if err := json.Unmarshal(env.Data, v); err != nil {
		return fmt.Errorf("malformed %s payload: %w", env.Event, err)
	}
	return nil
}

func (f *Feedback) UnmarshalJSON(b []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	if detailed, ok := raw["detailed_feedback"]; ok {
		if err := json.Unmarshal(detailed, &f.DetailedFeedback); err != nil {
			return fmt.Errorf("detailed_feedback: %w", err)
		}
		delete(raw, "detailed_feedback")
	}
	if len(raw) > 0 {
		f.Extra = raw
	}
	return nil
}

func (f Feedback) MarshalJSON() ([]byte, error) {
	out := make(map[string]json.RawMessage, len(f.Extra)+1)
	for k, v := range f.Extra {
		out[k] = v
	}
	detailed, err := json.Marshal(f.DetailedFeedback)
	if err != nil {
		return nil, err
	}
	out["detailed_feedback"] = detailed
	return json.Marshal(out)
}
