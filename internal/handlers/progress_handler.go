// internal/handlers/progress_handler.go
package handlers

import (
	"log/slog"
	"net/http"

	"vjezbajmo/internal/middleware"
	"vjezbajmo/internal/model"
	"vjezbajmo/internal/progress"
	"vjezbajmo/internal/service"
	"vjezbajmo/internal/webutil"
)

type ProgressHandler struct {
	exercises service.ExerciseService
	ledger    progress.Ledger
	logger    *slog.Logger
}

func NewProgressHandler(exercises service.ExerciseService, ledger progress.Ledger, logger *slog.Logger) *ProgressHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &ProgressHandler{exercises: exercises, ledger: ledger, logger: logger}
}

func (h *ProgressHandler) RecordCompletion(w http.ResponseWriter, r *http.Request) {
	logger := middleware.GetLogger(r.Context()).With(slog.String("handler", "RecordCompletion"))
	identity, _ := middleware.GetIdentity(r.Context())

	var req model.RecordCompletionRequest
	if err := webutil.DecodeJSONBody(w, r, &req); err != nil {
		webutil.HandleError(w, logger, err)
		return
	}
	if err := webutil.Validate(req); err != nil {
		webutil.HandleError(w, logger, err)
		return
	}

	in := model.CompletionInput{
		ExerciseID:       req.ExerciseID,
		ExerciseType:     model.ExerciseType(req.ExerciseType),
		ProficiencyLevel: model.ProficiencyLevel(req.Level),
		Theme:            req.Theme,
		Title:            req.Title,
	}
	if req.Score != nil {
		in.Score = &model.Score{Correct: req.Score.Correct, Total: req.Score.Total}
	}

	if err := h.exercises.RecordCompletion(r.Context(), in, identity); err != nil {
		webutil.HandleError(w, logger, err)
		return
	}
	logger.Info("Completion recorded", slog.String("exercise_id", req.ExerciseID))
	w.WriteHeader(http.StatusNoContent)
}

func (h *ProgressHandler) GetCompleted(w http.ResponseWriter, r *http.Request) {
	logger := middleware.GetLogger(r.Context()).With(slog.String("handler", "GetCompleted"))
	identity, _ := middleware.GetIdentity(r.Context())

	q := model.CompletedQuery{
		ExerciseType: r.URL.Query().Get("type"),
		Level:        r.URL.Query().Get("level"),
		Theme:        r.URL.Query().Get("theme"),
	}
	if err := webutil.Validate(q); err != nil {
		webutil.HandleError(w, logger, err)
		return
	}

	ids := h.ledger.GetCompletedExercises(r.Context(), model.ExerciseType(q.ExerciseType), model.ProficiencyLevel(q.Level), optionalString(q.Theme), identity)
	if ids == nil {
		ids = []string{}
	}
	webutil.RespondWithJSON(w, http.StatusOK, model.CompletedResponse{ExerciseIDs: ids})
}

func (h *ProgressHandler) GetStats(w http.ResponseWriter, r *http.Request) {
	logger := middleware.GetLogger(r.Context()).With(slog.String("handler", "GetStats"))
	identity, _ := middleware.GetIdentity(r.Context())

	q := model.StatsQuery{ExerciseType: r.URL.Query().Get("type")}
	if err := webutil.Validate(q); err != nil {
		webutil.HandleError(w, logger, err)
		return
	}
	var filter *model.ExerciseType
	if q.ExerciseType != "" {
		t := model.ExerciseType(q.ExerciseType)
		filter = &t
	}

	webutil.RespondWithJSON(w, http.StatusOK, h.ledger.GetPerformanceStats(r.Context(), identity, filter))
}

func (h *ProgressHandler) ClearProgress(w http.ResponseWriter, r *http.Request) {
	logger := middleware.GetLogger(r.Context()).With(slog.String("handler", "ClearProgress"))
	identity, _ := middleware.GetIdentity(r.Context())

	if err := h.ledger.ClearAllProgress(r.Context(), identity); err != nil {
		webutil.HandleError(w, logger, err)
		return
	}
	logger.Info("Progress cleared")
	w.WriteHeader(http.StatusNoContent)
}

// MigrateProgress copies the calling device's local progress into the signed-in account.
func (h *ProgressHandler) MigrateProgress(w http.ResponseWriter, r *http.Request) {
	logger := middleware.GetLogger(r.Context()).With(slog.String("handler", "MigrateProgress"))
	identity, _ := middleware.GetIdentity(r.Context())

	if identity.DeviceID == "" {
		webutil.HandleError(w, logger, model.NewAppError("DEVICE_REQUIRED",
			"Send the X-Device-ID of the device whose progress should be migrated.", "X-Device-ID", model.ErrInvalidInput))
		return
	}

	migrated, err := h.ledger.MigrateLocalProgressToUser(r.Context(), identity)
	if err != nil {
		webutil.HandleError(w, logger, err)
		return
	}
	logger.Info("Progress migration finished", slog.Bool("migrated", migrated))
	webutil.RespondWithJSON(w, http.StatusOK, model.MigrationResponse{Migrated: migrated})
}
