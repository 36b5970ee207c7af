// internal/handlers/answer_handler.go
package handlers

import (
	"log/slog"
	"net/http"

	"vjezbajmo/internal/middleware"
	"vjezbajmo/internal/model"
	"vjezbajmo/internal/service"
	"vjezbajmo/internal/webutil"

	"github.com/go-chi/chi/v5"
)

type AnswerHandler struct {
	service service.AnswerService
	logger  *slog.Logger
}

func NewAnswerHandler(s service.AnswerService, logger *slog.Logger) *AnswerHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &AnswerHandler{service: s, logger: logger}
}

// CheckAnswer checks an answer against candidates sent by the client.
func (h *AnswerHandler) CheckAnswer(w http.ResponseWriter, r *http.Request) {
	logger := middleware.GetLogger(r.Context()).With(slog.String("handler", "CheckAnswer"))

	var req model.CheckAnswerRequest
	if err := webutil.DecodeJSONBody(w, r, &req); err != nil {
		webutil.HandleError(w, logger, err)
		return
	}
	if err := webutil.Validate(req); err != nil {
		webutil.HandleError(w, logger, err)
		return
	}

	webutil.RespondWithJSON(w, http.StatusOK, h.service.CheckAnswer(req.Answer, req.CorrectAnswers))
}

// CheckSubmission checks an answer against the stored solution of a served question.
func (h *AnswerHandler) CheckSubmission(w http.ResponseWriter, r *http.Request) {
	logger := middleware.GetLogger(r.Context()).With(slog.String("handler", "CheckSubmission"))

	var req model.CheckSubmissionRequest
	if err := webutil.DecodeJSONBody(w, r, &req); err != nil {
		webutil.HandleError(w, logger, err)
		return
	}

	result, err := h.service.CheckSubmission(r.Context(), chi.URLParam(r, "question_id"), req.Answer)
	if err != nil {
		webutil.HandleError(w, logger, err)
		return
	}
	webutil.RespondWithJSON(w, http.StatusOK, result)
}

func (h *AnswerHandler) CheckBatch(w http.ResponseWriter, r *http.Request) {
	logger := middleware.GetLogger(r.Context()).With(slog.String("handler", "CheckBatch"))

	var req model.BatchCheckRequest
	if err := webutil.DecodeJSONBody(w, r, &req); err != nil {
		webutil.HandleError(w, logger, err)
		return
	}
	if err := webutil.Validate(req); err != nil {
		webutil.HandleError(w, logger, err)
		return
	}

	resp := h.service.CheckBatch(r.Context(), req.Answers)
	logger.Info("Batch checked", slog.Int("answers", len(req.Answers)), slog.Int("percentage", resp.Score.Percentage))
	webutil.RespondWithJSON(w, http.StatusOK, resp)
}
