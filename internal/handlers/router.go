// internal/handlers/router.go
package handlers

import (
	"log/slog"
	"net/http"
	"time"

	"vjezbajmo/internal/config"
	"vjezbajmo/internal/middleware"
	"vjezbajmo/internal/webutil"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/cors"
)

type RouterDeps struct {
	Exercises *ExerciseHandler
	Answers   *AnswerHandler
	Progress  *ProgressHandler
	JWTSecret string
	CORS      config.CORSConfig
	Logger    *slog.Logger
}

func NewRouter(d RouterDeps) http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.LoggingMiddleware(d.Logger))
	r.Use(cors.New(cors.Options{
		AllowedOrigins:   d.CORS.AllowedOrigins,
		AllowedMethods:   d.CORS.AllowedMethods,
		AllowedHeaders:   d.CORS.AllowedHeaders,
		ExposedHeaders:   d.CORS.ExposedHeaders,
		AllowCredentials: d.CORS.AllowCredentials,
		MaxAge:           d.CORS.MaxAge,
	}).Handler)
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.Timeout(90 * time.Second))

	r.Route("/api/v1", func(r chi.Router) {
		// answers need no identity
		r.Route("/answers", func(r chi.Router) {
			r.Post("/check", d.Answers.CheckAnswer)
			r.Post("/batch", d.Answers.CheckBatch)
			r.Post("/{question_id}/check", d.Answers.CheckSubmission)
		})

		r.Group(func(r chi.Router) {
			r.Use(middleware.IdentityMiddleware(d.JWTSecret))

			r.Route("/exercises/{type}", func(r chi.Router) {
				r.Get("/next", d.Exercises.NextExercise)
				r.Get("/worksheets", d.Exercises.ListWorksheets)
				r.Get("/progress", d.Exercises.GetProgress)
				r.With(middleware.RequireAuthenticated).Delete("/cache", d.Exercises.InvalidateCache)
			})

			r.Route("/progress", func(r chi.Router) {
				r.Post("/completions", d.Progress.RecordCompletion)
				r.Get("/completed", d.Progress.GetCompleted)
				r.Get("/stats", d.Progress.GetStats)
				r.Delete("/", d.Progress.ClearProgress)
				r.With(middleware.RequireAuthenticated).Post("/migrate", d.Progress.MigrateProgress)
			})
		})
	})

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		webutil.RespondWithJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	return r
}
