package gemini

import (
	"context"
	"fmt"
	"strings"
)

const notesPrompt = `Generate detailed study notes for the lecture topic: "%s".
Include:
- Topic Name
- Definition
- Uses
- Example Code (if any)
- Other key details`

// GenerateNotes returns study notes for a lecture title as markdown text.
func (c *Client) GenerateNotes(ctx context.Context, lectureTitle string) (string, error) {
	text, err := c.generateText(ctx, fmt.Sprintf(notesPrompt, lectureTitle), nil)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(text), nil
}
