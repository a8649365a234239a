package protocol

import "encoding/json"

// EventType is the tag carried in the "event" field of every envelope.
type EventType string

const (
	// EventStartInterview is sent by the client to begin a new interview.
	EventStartInterview EventType = "start_interview"
	// EventSubmitAnswer is sent by the client with the answer to the current question.
	EventSubmitAnswer EventType = "submit_answer"

	// EventInterviewStarted is sent by the server with the first question.
	EventInterviewStarted EventType = "interview_started"
	// EventNextQuestion is sent by the server after each accepted answer.
	EventNextQuestion EventType = "next_question"
	// EventInterviewComplete is sent by the server with the final feedback.
	EventInterviewComplete EventType = "interview_complete"
	// EventError is sent by the server when it cannot process a command.
	EventError EventType = "error"
)

// Envelope is the wrapper for every message exchanged over the connection,
// in both directions.
type Envelope struct {
	Event EventType       `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// StartInterviewPayload is the data of a start_interview command.
type StartInterviewPayload struct {
	JobDescription string `json:"job_description"`
	Resume         string `json:"resume"`
}

// SubmitAnswerPayload is the data of a submit_answer command.
type SubmitAnswerPayload struct {
	Answer string `json:"answer"`
}

// QuestionPayload is the data of both interview_started and next_question.
type QuestionPayload struct {
	Message        string `json:"message,omitempty"`
	Question       string `json:"question"`
	QuestionNumber int    `json:"question_number"`
}

// Feedback holds the evaluation sent at the end of an interview. Keys other
// than detailed_feedback are kept verbatim in Extra.
type Feedback struct {
	DetailedFeedback string                     `json:"detailed_feedback"`
	Extra            map[string]json.RawMessage `json:"-"`
}

// CompletePayload is the data of an interview_complete event. Feedback is
// nil when the key is absent or null.
type CompletePayload struct {
	Message  string    `json:"message,omitempty"`
	Feedback *Feedback `json:"feedback"`
}

// ErrorPayload is the data of an error event.
type ErrorPayload struct {
	Message string `json:"message"`
}
