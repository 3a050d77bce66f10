package model

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidQuestionBank is returned when a question bank breaks its shape rules.
var ErrInvalidQuestionBank = errors.New("invalid question bank")

// Question is a single multiple-choice question of a mock test.
// CorrectIndex is server-only data.
type Question struct {
	Prompt       string                     `json:"prompt"`
	Options      [OptionsPerQuestion]string `json:"options"`
	CorrectIndex int                        `json:"correctIndex"`
}

// ValidateQuestionBank checks the invariants every stored bank must hold:
// exactly QuestionsPerTest questions, a prompt on each, and a correct index
// that points at one of the options.
func ValidateQuestionBank(questions []Question) error {
	if len(questions) != QuestionsPerTest {
		return fmt.Errorf("%w: got %d questions, want %d", ErrInvalidQuestionBank, len(questions), QuestionsPerTest)
	}
	for i, q := range questions {
		if strings.TrimSpace(q.Prompt) == "" {
			return fmt.Errorf("%w: question %d has no prompt", ErrInvalidQuestionBank, i)
		}
		if q.CorrectIndex < 0 || q.CorrectIndex >= OptionsPerQuestion {
			return fmt.Errorf("%w: question %d correct index %d out of range", ErrInvalidQuestionBank, i, q.CorrectIndex)
		}
	}
	return nil
}
