// Package quiz implements progression through one multiple-choice quiz:
// question display, answer selection, reveal, advance.
//
// A Session is not safe for concurrent use.
package quiz

import (
	"errors"
	"fmt"

	"github.com/HollowedMumbler/Absolute-Cinema/internal/shared/fault"
)

type Phase int

const (
	NotStarted Phase = iota
	AwaitingAnswer
	AnswerSelected
	Revealed
	Complete
)

func (p Phase) String() string {
	switch p {
	case NotStarted:
		return "not_started"
	case AwaitingAnswer:
		return "awaiting_answer"
	case AnswerSelected:
		return "answer_selected"
	case Revealed:
		return "revealed"
	case Complete:
		return "complete"
	default:
		return fmt.Sprintf("phase(%d)", int(p))
	}
}

func (p Phase) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

func (p *Phase) UnmarshalText(b []byte) error {
	for c := NotStarted; c <= Complete; c++ {
		if c.String() == string(b) {
			*p = c
			return nil
		}
	}
	return fmt.Errorf("quiz: unknown phase %q", b)
}

var (
	ErrNoQuestions      = fault.Precondition(errors.New("quiz: no questions"))
	ErrOptionOutOfRange = fault.Precondition(errors.New("quiz: option out of range"))
)

// Reveal is what the host shows once an answer has been graded.
type Reveal struct {
	Correct       bool   `json:"correct"`
	SelectedIndex int    `json:"selected_index"`
	CorrectIndex  int    `json:"correct_index"`
	Explanation   string `json:"explanation"`
}

type Session struct {
	questions   []Question
	current     int
	selected    int
	hasSelected bool
	revealed    bool
	score       int
	started     bool
	complete    bool
	last        Reveal
}

func NewSession() *Session {
	return &Session{}
}

// Start (re)starts the quiz on questions. The slice is copied.
func (s *Session) Start(questions []Question) error {
	if len(questions) == 0 {
		return ErrNoQuestions
	}
	qs := make([]Question, len(questions))
	for i, q := range questions {
		if err := q.Validate(); err != nil {
			return fault.Precondition(fmt.Errorf("question %d: %w", i, err))
		}
		qs[i] = q.clone()
	}
	*s = Session{questions: qs, started: true}
	return nil
}

// SelectAnswer records a choice for the current question. Choosing again
// before Submit overwrites the earlier choice.
func (s *Session) SelectAnswer(index int) error {
	if !s.started || s.complete || s.revealed {
		return s.invalid("select answer")
	}
	if index < 0 || index >= len(s.questions[s.current].Options) {
		return ErrOptionOutOfRange
	}
	s.selected = index
	s.hasSelected = true
	return nil
}

// Submit grades the selection, scoring one point for a correct answer.
func (s *Session) Submit() (Reveal, error) {
	if !s.started || s.complete || s.revealed || !s.hasSelected {
		return Reveal{}, s.invalid("submit")
	}
	q := s.questions[s.current]
	correct := q.IsCorrect(s.selected)
	if correct {
		s.score++
	}
	s.revealed = true
	s.last = Reveal{
		Correct:       correct,
		SelectedIndex: s.selected,
		CorrectIndex:  q.CorrectIndex,
		Explanation:   q.Explanation,
	}
	return s.last, nil
}

// Advance moves past a revealed question. After the last question the
// session is complete and accepts no further input.
func (s *Session) Advance() error {
	if !s.started || s.complete || !s.revealed {
		return s.invalid("advance")
	}
	if s.current+1 < len(s.questions) {
		s.current++
		s.selected = 0
		s.hasSelected = false
		s.revealed = false
		s.last = Reveal{}
		return nil
	}
	s.complete = true
	return nil
}

func (s *Session) CurrentQuestion() (Question, error) {
	if !s.started || s.complete {
		return Question{}, s.invalid("current question")
	}
	return s.questions[s.current].clone(), nil
}

// LastReveal returns the grading of the current question while it is revealed.
func (s *Session) LastReveal() (Reveal, error) {
	if !s.revealed || s.complete {
		return Reveal{}, s.invalid("reveal")
	}
	return s.last, nil
}

func (s *Session) IsComplete() bool { return s.complete }

func (s *Session) FinalScore() (int, error) {
	if !s.complete {
		return 0, s.invalid("final score")
	}
	return s.score, nil
}

func (s *Session) Score() int { return s.score }

func (s *Session) Index() int { return s.current }

func (s *Session) Total() int { return len(s.questions) }

func (s *Session) Selected() (int, bool) { return s.selected, s.hasSelected }

func (s *Session) Revealed() bool { return s.revealed }

func (s *Session) Phase() Phase {
	switch {
	case !s.started:
		return NotStarted
	case s.complete:
		return Complete
	case s.revealed:
		return Revealed
	case s.hasSelected:
		return AnswerSelected
	default:
		return AwaitingAnswer
	}
}

func (s *Session) invalid(op string) error {
	return &fault.InvalidStateError{Machine: "quiz", Op: op, State: s.Phase().String()}
}
