package devserver

import (
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/AtDexters-Lab/nexus-interview/internal/protocol"
	"github.com/google/uuid"
)

// Interviewer runs one scripted interview: it asks questions from a fixed
// bank and summarizes the answers at the end.
type Interviewer struct {
	id             string
	mu             sync.Mutex
	jobDescription string
	resume         string
	questions      []string
	current        int
	answers        []string
}

// NewInterviewer creates an interviewer asking up to maxQuestions questions
// from the bank.
func NewInterviewer(jobDescription, resume string, bank []string, maxQuestions int) *Interviewer {
	if maxQuestions <= 0 || maxQuestions > len(bank) {
		maxQuestions = len(bank)
	}
	return &Interviewer{
		id:             uuid.NewString(),
		jobDescription: jobDescription,
		resume:         resume,
		questions:      append([]string(nil), bank[:maxQuestions]...),
	}
}

// ID identifies the interview session in logs.
func (iv *Interviewer) ID() string {
	return iv.id
}

// Start returns the first question, numbered 1.
func (iv *Interviewer) Start() (string, int) {
	iv.mu.Lock()
	defer iv.mu.Unlock()
	iv.current = 1
	question := iv.questions[0]
	if role := firstLine(iv.jobDescription); role != "" {
		question = fmt.Sprintf("Hello, I will be your interviewer for the %q position. %s", role, question)
	}
	return question, iv.current
}

// Answer records the answer to the current question. It returns the next
// question and its number, or done once every question has been answered.
func (iv *Interviewer) Answer(answer string) (question string, number int, done bool) {
	iv.mu.Lock()
	defer iv.mu.Unlock()
	iv.answers = append(iv.answers, strings.TrimSpace(answer))
	if iv.current >= len(iv.questions) {
		return "", iv.current, true
	}
	iv.current++
	return iv.questions[iv.current-1], iv.current, false
}

// Feedback summarizes the interview.
func (iv *Interviewer) Feedback() *protocol.Feedback {
	iv.mu.Lock()
	defer iv.mu.Unlock()

	var b strings.Builder
	b.WriteString("Interview summary:\n\n")
	totalWords := 0
	short := 0
	for i, answer := range iv.answers {
		if i >= len(iv.questions) {
			break
		}
		words := len(strings.Fields(answer))
		totalWords += words
		if words < 20 {
			short++
		}
		fmt.Fprintf(&b, "%d. %s\n   Your answer (%d words): %s\n", i+1, iv.questions[i], words, answer)
	}

	average := 0
	if len(iv.answers) > 0 {
		average = totalWords / len(iv.answers)
	}
	fmt.Fprintf(&b, "\nAreas for improvement:\n")
	if short > 0 {
		fmt.Fprintf(&b, "* %d answer(s) were brief. Use concrete examples with situation, action and result.\n", short)
	} else {
		b.WriteString("* Answers were detailed. Keep tying examples back to the job requirements.\n")
	}
	fmt.Fprintf(&b, "\nOverall: %d questions answered, %d words per answer on average.", len(iv.answers), average)

	answered, _ := json.Marshal(len(iv.answers))
	return &protocol.Feedback{
		DetailedFeedback: b.String(),
		Extra:            map[string]json.RawMessage{"questions_answered": answered},
	}
}

func firstLine(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[:i]
	}
	return strings.TrimSpace(s)
}
