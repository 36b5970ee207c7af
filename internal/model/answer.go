// internal/model/answer.go
package model

// AnswerResult is the outcome of checking one answer.
type AnswerResult struct {
	Correct          bool   `json:"correct"`
	DiacriticWarning bool   `json:"diacriticWarning"`
	MatchedAnswer    string `json:"matchedAnswer,omitempty"`
}

// SubmissionStatus distinguishes an unknown/expired question from a wrong answer.
type SubmissionStatus string

const (
	SubmissionChecked SubmissionStatus = "checked"
	SubmissionExpired SubmissionStatus = "expired"
)

// SubmissionResult is the per-question outcome of a solution-backed check.
type SubmissionResult struct {
	QuestionID  string           `json:"questionId"`
	Status      SubmissionStatus `json:"status"`
	Result      AnswerResult     `json:"result"`
	Explanation string           `json:"explanation,omitempty"`
}

// CheckAnswerRequest checks an answer against explicitly supplied candidates.
type CheckAnswerRequest struct {
	Answer         string   `json:"answer"`
	CorrectAnswers []string `json:"correctAnswers" validate:"required,min=1,dive,required"`
}

// CheckSubmissionRequest checks an answer against the cached solution of a question.
type CheckSubmissionRequest struct {
	Answer string `json:"answer"`
}

// Submission is one item of a batch check.
type Submission struct {
	QuestionID string `json:"questionId" validate:"required"`
	Answer     string `json:"answer"`
}

// BatchCheckRequest checks several solution-backed answers at once.
type BatchCheckRequest struct {
	Answers []Submission `json:"answers" validate:"required,min=1,dive"`
}

// BatchCheckResponse carries per-question results and the resulting score.
type BatchCheckResponse struct {
	Results []SubmissionResult `json:"results"`
	Score   Score              `json:"score"`
}
