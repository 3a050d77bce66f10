package gemini

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/Aditya06pandey1368/LMS-Project/internal/model"
	"github.com/go-playground/validator/v10"
)

const questionsPrompt = `Generate exactly %d multiple-choice questions on "%s".
Return STRICT JSON only, no prose, matching this schema:

{
  "questions": [
    {
      "prompt": "string",
      "options": ["string","string","string","string"],
      "correctIndex": 0
    }
  ]
}

- "options" must be exactly %d
- "correctIndex" is an integer 0..%d
- Questions should be beginner-to-intermediate for an LMS mock test
`

var (
	fencePattern  = regexp.MustCompile("(?i)```(?:json)?")
	objectPattern = regexp.MustCompile(`(?s)\{.*\}`)
	bankValidator = validator.New()
)

type rawQuestion struct {
	Prompt       string   `json:"prompt" validate:"required"`
	Options      []string `json:"options" validate:"len=4"`
	CorrectIndex *int     `json:"correctIndex" validate:"required,min=0,max=3"`
}

type rawBank struct {
	Questions []rawQuestion `json:"questions" validate:"len=10,dive"`
}

// GenerateQuestions asks the model for a question bank on courseTitle and
// returns it only if it has the exact expected shape.
func (c *Client) GenerateQuestions(ctx context.Context, courseTitle string) ([]model.Question, error) {
	prompt := fmt.Sprintf(questionsPrompt,
		model.QuestionsPerTest, courseTitle, model.OptionsPerQuestion, model.OptionsPerQuestion-1)

	text, err := c.generateText(ctx, prompt, &generationConfig{ResponseMimeType: "application/json"})
	if err != nil {
		return nil, err
	}

	questions, err := ParseQuestionBank(text)
	if err != nil {
		c.log.Warn().Err(err).Str("course_title", courseTitle).Msg("Rejected generated question bank")
		return nil, err
	}
	return questions, nil
}

// ParseQuestionBank extracts the JSON object from model output (which may be
// wrapped in code fences or prose) and validates the question bank.
func ParseQuestionBank(text string) ([]model.Question, error) {
	cleaned := strings.TrimSpace(fencePattern.ReplaceAllString(text, ""))
	object := objectPattern.FindString(cleaned)
	if object == "" {
		return nil, fmt.Errorf("%w: no json object found", ErrMalformed)
	}

	var bank rawBank
	if err := json.Unmarshal([]byte(object), &bank); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if err := bankValidator.Struct(bank); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}

	questions := make([]model.Question, len(bank.Questions))
	for i, q := range bank.Questions {
		questions[i] = model.Question{
			Prompt:       strings.TrimSpace(q.Prompt),
			CorrectIndex: *q.CorrectIndex,
		}
		copy(questions[i].Options[:], q.Options)
	}
	if err := model.ValidateQuestionBank(questions); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	return questions, nil
}
