package service

import "github.com/Aditya06pandey1368/LMS-Project/internal/model"

// Score returns the percentage of questions whose stored answer matches the
// correct index, rounded half up. Unanswered questions count as wrong.
func Score(questions []model.Question, answers []model.Answer) int {
	n := len(questions)
	if n == 0 {
		return 0
	}

	seen := make(map[int]bool, len(answers))
	matches := 0
	for _, a := range answers {
		if a.QuestionIndex < 0 || a.QuestionIndex >= n || seen[a.QuestionIndex] {
			continue
		}
		seen[a.QuestionIndex] = true
		if a.SelectedIndex == questions[a.QuestionIndex].CorrectIndex {
			matches++
		}
	}

	// round(100*m/n) with .5 rounded up, in integers.
	return (200*matches + n) / (2 * n)
}

// Passed reports whether score reaches the pass mark.
func Passed(score int) bool {
	return score >= model.PassMark
}
