package quiz

import (
	"fmt"

	"github.com/HollowedMumbler/Absolute-Cinema/internal/shared/fault"
)

// Question is supplied by the content catalog and never mutated by a Session.
type Question struct {
	Prompt       string   `json:"prompt" yaml:"prompt"`
	Options      []string `json:"options" yaml:"options"`
	CorrectIndex int      `json:"-" yaml:"correct"`
	Explanation  string   `json:"-" yaml:"explanation"`
}

// Validate checks the structural invariants: at least two options and a
// correct index pointing at one of them.
func (q Question) Validate() error {
	if q.Prompt == "" {
		return fmt.Errorf("quiz: question has no prompt: %w", fault.ErrInvalidArgument)
	}
	if len(q.Options) < 2 {
		return fmt.Errorf("quiz: %q needs at least 2 options, got %d: %w", q.Prompt, len(q.Options), fault.ErrInvalidArgument)
	}
	if q.CorrectIndex < 0 || q.CorrectIndex >= len(q.Options) {
		return fmt.Errorf("quiz: %q correct index %d out of range: %w", q.Prompt, q.CorrectIndex, fault.ErrInvalidArgument)
	}
	return nil
}

func (q Question) IsCorrect(index int) bool {
	return index == q.CorrectIndex
}

func (q Question) clone() Question {
	q.Options = append([]string(nil), q.Options...)
	return q
}
