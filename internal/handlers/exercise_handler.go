// internal/handlers/exercise_handler.go
package handlers

import (
	"log/slog"
	"net/http"
	"strings"

	"vjezbajmo/internal/middleware"
	"vjezbajmo/internal/model"
	"vjezbajmo/internal/service"
	"vjezbajmo/internal/webutil"

	"github.com/go-chi/chi/v5"
)

type ExerciseHandler struct {
	service service.ExerciseService
	logger  *slog.Logger
}

func NewExerciseHandler(s service.ExerciseService, logger *slog.Logger) *ExerciseHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &ExerciseHandler{service: s, logger: logger}
}

func optionalString(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}

func bindExerciseQuery(r *http.Request) (model.ExerciseQuery, error) {
	q := model.ExerciseQuery{
		Level: r.URL.Query().Get("level"),
		Theme: r.URL.Query().Get("theme"),
	}
	return q, webutil.Validate(q)
}

// NextExercise serves the next uncompleted exercise of a type.
func (h *ExerciseHandler) NextExercise(w http.ResponseWriter, r *http.Request) {
	logger := middleware.GetLogger(r.Context()).With(slog.String("handler", "NextExercise"))
	identity, _ := middleware.GetIdentity(r.Context())

	q, err := bindExerciseQuery(r)
	if err != nil {
		webutil.HandleError(w, logger, err)
		return
	}

	selection, err := h.service.SelectExercise(r.Context(), model.SelectRequest{
		ExerciseType:     model.ExerciseType(chi.URLParam(r, "type")),
		ProficiencyLevel: model.ProficiencyLevel(q.Level),
		Theme:            optionalString(q.Theme),
	}, identity)
	if err != nil {
		webutil.HandleError(w, logger, err)
		return
	}

	logger.Info("Exercise selected",
		slog.String("exercise_id", selection.Exercise.ID),
		slog.String("source", string(selection.Source)),
	)
	webutil.RespondWithJSON(w, http.StatusOK, selection)
}

func (h *ExerciseHandler) ListWorksheets(w http.ResponseWriter, r *http.Request) {
	logger := middleware.GetLogger(r.Context()).With(slog.String("handler", "ListWorksheets"))

	worksheets, err := h.service.ListWorksheets(r.Context(), model.ExerciseType(chi.URLParam(r, "type")))
	if err != nil {
		webutil.HandleError(w, logger, err)
		return
	}
	webutil.RespondWithJSON(w, http.StatusOK, map[string]interface{}{"worksheets": worksheets})
}

func (h *ExerciseHandler) GetProgress(w http.ResponseWriter, r *http.Request) {
	logger := middleware.GetLogger(r.Context()).With(slog.String("handler", "GetProgress"))
	identity, _ := middleware.GetIdentity(r.Context())

	q, err := bindExerciseQuery(r)
	if err != nil {
		webutil.HandleError(w, logger, err)
		return
	}

	summary, err := h.service.GetProgress(r.Context(), model.ExerciseType(chi.URLParam(r, "type")), model.ProficiencyLevel(q.Level), identity)
	if err != nil {
		webutil.HandleError(w, logger, err)
		return
	}
	webutil.RespondWithJSON(w, http.StatusOK, summary)
}

// InvalidateCache drops every cached exercise of one partition.
func (h *ExerciseHandler) InvalidateCache(w http.ResponseWriter, r *http.Request) {
	logger := middleware.GetLogger(r.Context()).With(slog.String("handler", "InvalidateCache"))

	q, err := bindExerciseQuery(r)
	if err != nil {
		webutil.HandleError(w, logger, err)
		return
	}

	err = h.service.InvalidateCache(r.Context(), model.ExerciseType(chi.URLParam(r, "type")), model.ProficiencyLevel(q.Level), optionalString(q.Theme))
	if err != nil {
		webutil.HandleError(w, logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
