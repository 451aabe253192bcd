package server

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"taskboard/internal/logger"
	"taskboard/internal/manager"
	"taskboard/internal/models"
)

const maxBodyBytes = 1 << 20

type Option func(*options)

type options struct {
	metrics http.Handler
}

// WithMetricsHandler монтирует обработчик prometheus на /metrics
func WithMetricsHandler(h http.Handler) Option {
	return func(o *options) { o.metrics = h }
}

func NewRouter(tm *manager.TaskManager, opts ...Option) *chi.Mux {
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger)
	r.Use(middleware.Recoverer)
	r.Use(instrument)

	r.Get("/health", healthHandler)
	if o.metrics != nil {
		r.Method(http.MethodGet, "/metrics", o.metrics)
	}

	r.Route("/api/tasks", func(r chi.Router) {
		r.Post("/", createTaskHandler(tm))
		r.Get("/", listTasksHandler(tm))
		r.Post("/{id}/done", markDoneHandler(tm))
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, r, http.StatusNotFound, models.ErrorResponse{Error: "route not found"})
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, r, http.StatusMethodNotAllowed, models.ErrorResponse{Error: "method not allowed"})
	})

	return r
}

func healthHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r, http.StatusOK, models.HealthResponse{OK: true})
}

func createTaskHandler(tm *manager.TaskManager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req models.CreateTaskRequest

		body := http.MaxBytesReader(w, r.Body, maxBodyBytes)
		defer body.Close()

		// Пустое тело - это запрос без полей, его отклонит валидация заголовка
		if err := json.NewDecoder(body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
			writeJSON(w, r, http.StatusBadRequest, models.ErrorResponse{Error: "invalid request body"})
			return
		}

		task, err := tm.Create(r.Context(), req)
		if err != nil {
			writeError(w, r, err)
			return
		}

		writeJSON(w, r, http.StatusCreated, task)
	}
}

func listTasksHandler(tm *manager.TaskManager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		tasks, err := tm.ListRecent(r.Context())
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, r, http.StatusOK, tasks)
	}
}

func markDoneHandler(tm *manager.TaskManager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		done, err := tm.MarkDone(r.Context(), chi.URLParam(r, "id"))
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, r, http.StatusOK, models.DoneResponse{Success: true, Task: *done})
	}
}

// statusFor - единственное место, где ошибки сервиса превращаются в HTTP-статусы
func statusFor(err error) int {
	switch manager.KindOf(err) {
	case manager.KindValidation, manager.KindInvalidArgument:
		return http.StatusBadRequest
	case manager.KindNotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		logger.Error(r.Context(), err, "Ошибка обработки запроса", "method", r.Method, "path", r.URL.Path)
		writeJSON(w, r, status, models.ErrorResponse{Error: "internal server error"})
		return
	}
	writeJSON(w, r, status, models.ErrorResponse{Error: err.Error()})
}

func writeJSON(w http.ResponseWriter, r *http.Request, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Error(r.Context(), err, "Ошибка записи ответа")
	}
}
