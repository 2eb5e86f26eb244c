package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"sidestack/internal/jobs"
)

func NewRouter(cfg ServerConfig) *chi.Mux {
	r := chi.NewRouter()

	r.Use(RequestIDMiddleware())
	r.Use(RecoveryMiddleware(cfg.Log))
	r.Use(LoggingMiddleware(cfg.Log))

	r.Get("/healthz", healthHandler(cfg))
	r.Post("/sync", syncHandler(cfg))
	r.Get("/jobs/{id}", getJobHandler(cfg))
	r.Delete("/jobs/{id}", deleteJobHandler(cfg))

	return r
}

func healthHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		WriteJSON(w, http.StatusOK, HealthResponse{
			Status:  "ok",
			Version: cfg.Version,
			UptimeS: int64(time.Since(cfg.StartTime).Seconds()),
		})
	}
}

func getJobHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		if !jobs.ValidID(id) {
			WriteError(w, http.StatusBadRequest, "invalid job id", "BAD_REQUEST")
			return
		}

		rec, err := cfg.Store.Load(id)
		if err != nil {
			if errors.Is(err, jobs.ErrNotFound) {
				WriteError(w, http.StatusNotFound, "job not found", "NOT_FOUND")
				return
			}
			WriteError(w, http.StatusInternalServerError, err.Error(), "INTERNAL_ERROR")
			return
		}

		WriteJSON(w, http.StatusOK, rec)
	}
}

func deleteJobHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		if !jobs.ValidID(id) {
			WriteError(w, http.StatusBadRequest, "invalid job id", "BAD_REQUEST")
			return
		}

		if err := cfg.Store.Delete(id); err != nil {
			if errors.Is(err, jobs.ErrNotFound) {
				WriteError(w, http.StatusNotFound, "job not found", "NOT_FOUND")
				return
			}
			WriteError(w, http.StatusInternalServerError, err.Error(), "INTERNAL_ERROR")
			return
		}

		w.WriteHeader(http.StatusNoContent)
	}
}
