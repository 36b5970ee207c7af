// Package answer checks learner answers against accepted forms.
//
// Matching is done in two passes: first with diacritics intact, then with
// Croatian diacritics folded to their base letters. A second-pass match is
// still correct but carries a diacritic warning so the UI can nudge the
// learner towards the proper spelling.
package answer

import (
	"math"
	"strings"

	"vjezbajmo/internal/model"
)

var diacriticFolder = strings.NewReplacer(
	"č", "c", "ć", "c", "đ", "d", "š", "s", "ž", "z",
	"Č", "C", "Ć", "C", "Đ", "D", "Š", "S", "Ž", "Z",
)

// StripDiacritics replaces Croatian diacritic letters with their base letters.
func StripDiacritics(s string) string {
	return diacriticFolder.Replace(s)
}

func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// CheckAnswer compares userAnswer with every candidate in correctAnswers.
// Candidate order decides which MatchedAnswer is reported.
func CheckAnswer(userAnswer string, correctAnswers []string) model.AnswerResult {
	user := normalize(userAnswer)
	if user == "" {
		return model.AnswerResult{}
	}

	for _, candidate := range correctAnswers {
		if normalize(candidate) == user {
			return model.AnswerResult{Correct: true, MatchedAnswer: candidate}
		}
	}

	foldedUser := StripDiacritics(user)
	for _, candidate := range correctAnswers {
		if StripDiacritics(normalize(candidate)) == foldedUser {
			return model.AnswerResult{Correct: true, DiacriticWarning: true, MatchedAnswer: candidate}
		}
	}

	return model.AnswerResult{}
}

// CheckAll checks answers[i] against correctAnswers[i] and scores the whole
// batch. An answer without a candidate list counts as incorrect.
func CheckAll(answers []string, correctAnswers [][]string) ([]model.AnswerResult, model.Score) {
	results := make([]model.AnswerResult, len(answers))
	for i, a := range answers {
		if i < len(correctAnswers) {
			results[i] = CheckAnswer(a, correctAnswers[i])
		}
	}
	return results, CalculateScore(results)
}

// CalculateScore counts correct results. An empty slice scores 0%.
func CalculateScore(results []model.AnswerResult) model.Score {
	score := model.Score{Total: len(results)}
	for _, r := range results {
		if r.Correct {
			score.Correct++
		}
	}
	score.Percentage = Percentage(score.Correct, score.Total)
	return score
}

// Percentage returns round(correct/total*100), or 0 when total is 0.
func Percentage(correct, total int) int {
	if total <= 0 {
		return 0
	}
	return int(math.Round(float64(correct) / float64(total) * 100))
}
