// internal/service/answer_service.go
package service

import (
	"context"
	"log/slog"

	"vjezbajmo/internal/answer"
	"vjezbajmo/internal/cache"
	"vjezbajmo/internal/middleware"
	"vjezbajmo/internal/model"
)

type AnswerService interface {
	CheckAnswer(userAnswer string, correctAnswers []string) model.AnswerResult
	CheckSubmission(ctx context.Context, questionID, userAnswer string) (*model.SubmissionResult, error)
	CheckBatch(ctx context.Context, submissions []model.Submission) *model.BatchCheckResponse
}

type answerService struct {
	cache cache.Provider
}

func NewAnswerService(cacheProvider cache.Provider) AnswerService {
	return &answerService{cache: cacheProvider}
}

func (s *answerService) CheckAnswer(userAnswer string, correctAnswers []string) model.AnswerResult {
	return answer.CheckAnswer(userAnswer, correctAnswers)
}

// CheckSubmission checks an answer against the stored solution of questionID.
// An unknown or expired question is a not-found error, not a wrong answer.
func (s *answerService) CheckSubmission(ctx context.Context, questionID, userAnswer string) (*model.SubmissionResult, error) {
	solution, ok := s.cache.GetSolution(ctx, questionID)
	if !ok {
		middleware.GetLogger(ctx).InfoContext(ctx, "Solution not found", slog.String("question_id", questionID))
		return nil, model.NewAppError("SOLUTION_NOT_FOUND", "The question is unknown or its solution has expired. Load the exercise again.", "question_id", model.ErrNotFound)
	}
	return &model.SubmissionResult{
		QuestionID:  questionID,
		Status:      model.SubmissionChecked,
		Result:      answer.CheckAnswer(userAnswer, solution.CorrectAnswers),
		Explanation: solution.Explanation,
	}, nil
}

// CheckBatch checks every submission. Expired questions are reported per item
// and count as incorrect in the score.
func (s *answerService) CheckBatch(ctx context.Context, submissions []model.Submission) *model.BatchCheckResponse {
	answers := make([]string, len(submissions))
	candidates := make([][]string, len(submissions))
	solutions := make([]*model.Solution, len(submissions))
	for i, sub := range submissions {
		answers[i] = sub.Answer
		if solution, ok := s.cache.GetSolution(ctx, sub.QuestionID); ok {
			candidates[i] = solution.CorrectAnswers
			solutions[i] = &solution
		}
	}

	results, score := answer.CheckAll(answers, candidates)
	resp := &model.BatchCheckResponse{Results: make([]model.SubmissionResult, 0, len(submissions)), Score: score}
	for i, sub := range submissions {
		if solutions[i] == nil {
			resp.Results = append(resp.Results, model.SubmissionResult{QuestionID: sub.QuestionID, Status: model.SubmissionExpired})
			continue
		}
		resp.Results = append(resp.Results, model.SubmissionResult{
			QuestionID:  sub.QuestionID,
			Status:      model.SubmissionChecked,
			Result:      results[i],
			Explanation: solutions[i].Explanation,
		})
	}
	middleware.GetLogger(ctx).DebugContext(ctx, "Batch checked",
		slog.Int("submissions", len(submissions)), slog.Int("correct", score.Correct))
	return resp
}
