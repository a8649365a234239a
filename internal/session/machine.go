package session

import (
	"log"
	"sync"
)

// PhaseKind identifies which of the three interview phases is active.
type PhaseKind int

const (
	PhaseSetup PhaseKind = iota
	PhaseInProgress
	PhaseFeedback
)

func (k PhaseKind) String() string {
	switch k {
	case PhaseSetup:
		return "setup"
	case PhaseInProgress:
		return "in_progress"
	case PhaseFeedback:
		return "feedback"
	default:
		return "unknown"
	}
}

// Phase is the visible interview state. Question and QuestionNumber are set
// only in PhaseInProgress, Feedback only in PhaseFeedback.
type Phase struct {
	Kind           PhaseKind
	Question       string
	QuestionNumber int
	Feedback       string
}

// Machine holds the interview phase. Transitions that are not legal from the
// current phase are ignored and reported as false.
type Machine struct {
	mu    sync.RWMutex
	phase Phase
}

// NewMachine returns a machine in PhaseSetup.
func NewMachine() *Machine {
	return &Machine{}
}

// Phase returns a copy of the current phase.
func (m *Machine) Phase() Phase {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.phase
}

// Start moves Setup to InProgress with the first question.
func (m *Machine) Start(question string, number int) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.phase.Kind != PhaseSetup {
		log.Printf("WARN: [SESSION] Ignoring interview start in phase %s", m.phase.Kind)
		return false
	}
	m.phase = Phase{Kind: PhaseInProgress, Question: question, QuestionNumber: number}
	return true
}

// Advance replaces the current question. It is also accepted from Setup,
// where it forces InProgress, so a session whose start event was missed
// still shows the server's question. It is ignored in Feedback.
func (m *Machine) Advance(question string, number int) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	switch m.phase.Kind {
	case PhaseInProgress:
		if number < m.phase.QuestionNumber {
			log.Printf("WARN: [SESSION] Question number went backwards (%d -> %d)", m.phase.QuestionNumber, number)
		}
	case PhaseSetup:
		log.Printf("WARN: [SESSION] Question %d arrived before the interview started; entering interview", number)
	default:
		log.Printf("WARN: [SESSION] Ignoring question %d in phase %s", number, m.phase.Kind)
		return false
	}
	m.phase = Phase{Kind: PhaseInProgress, Question: question, QuestionNumber: number}
	return true
}

// Complete moves InProgress to Feedback.
func (m *Machine) Complete(feedback string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.phase.Kind != PhaseInProgress {
		log.Printf("WARN: [SESSION] Ignoring interview completion in phase %s", m.phase.Kind)
		return false
	}
	m.phase = Phase{Kind: PhaseFeedback, Feedback: feedback}
	return true
}

// Reset is the local "start new interview" action: Feedback back to Setup,
// discarding the previous feedback. It needs no server round-trip.
func (m *Machine) Reset() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.phase.Kind != PhaseFeedback {
		return false
	}
	m.phase = Phase{Kind: PhaseSetup}
	return true
}
