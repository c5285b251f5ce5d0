package app

import (
	"strconv"

	"quiz-attempt-service/internal/domain"
)

// QuestionCredit applies the partial-credit rule for one question.
//
// Exactly the correct option selected scores 1. Selecting every option scores
// 0, as does selecting no correct option at all. Otherwise the correct option
// was selected alongside wrong ones and the credit is diluted to
// 1 / (number of options selected).
func QuestionCredit(question domain.Question, selectedOptionIDs []string) float64 {
	if len(selectedOptionIDs) == 0 {
		return 0
	}

	correctSelected := false
	for _, id := range selectedOptionIDs {
		for _, opt := range question.Options {
			if opt.ID == id && opt.Correct {
				correctSelected = true
			}
		}
	}

	if len(selectedOptionIDs) == 1 && correctSelected {
		return 1
	}
	if len(selectedOptionIDs) == len(question.Options) {
		return 0
	}
	if !correctSelected {
		return 0
	}
	return 1 / float64(len(selectedOptionIDs))
}

// AggregateScore computes the score over a set of attempts: total credit
// divided by total question count. Callers must guarantee the set is non-empty
// with at least one counted question; the ratio is undefined otherwise.
func AggregateScore(attempts []domain.Attempt) float64 {
	var creditSum float64
	var questionCount int
	for _, attempt := range attempts {
		creditSum += attempt.CorrectCreditSum
		questionCount += attempt.QuestionCount
	}
	return creditSum / float64(questionCount)
}

// FormatScore renders a score with full precision, no rounding.
func FormatScore(score float64) string {
	return strconv.FormatFloat(score, 'f', -1, 64)
}
