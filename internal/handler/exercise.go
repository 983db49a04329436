package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/exlog/exlog/internal/handler/dto"
	"github.com/exlog/exlog/internal/logquery"
	"github.com/exlog/exlog/internal/service"
)

// ExerciseHandler handles exercise logging and log queries.
type ExerciseHandler struct {
	svc    *service.ExerciseService
	logger *slog.Logger
}

// NewExerciseHandler creates a new ExerciseHandler.
func NewExerciseHandler(svc *service.ExerciseService, logger *slog.Logger) *ExerciseHandler {
	return &ExerciseHandler{
		svc:    svc,
		logger: logger,
	}
}

// Create handles POST /api/users/{id}/exercises.
// Any _id in the body is ignored; the path names the user.
func (h *ExerciseHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req dto.CreateExerciseRequest
	err := decodeBody(r, &req, func(get func(string) string) {
		req.Description = get("description")
		req.Duration = dto.FlexString(get("duration"))
		req.Date = get("date")
	})
	if err != nil {
		writeDecodeError(w, err)
		return
	}

	user, exercise, err := h.svc.AddExercise(r.Context(), service.AddExerciseInput{
		UserID:      chi.URLParam(r, "id"),
		Description: req.Description,
		Duration:    string(req.Duration),
		Date:        req.Date,
	})
	if err != nil {
		handleServiceError(w, r, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.ToExerciseResponse(user, exercise))
}

// Log handles GET /api/users/{id}/logs?from=&to=&limit=.
func (h *ExerciseHandler) Log(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	filter, err := logquery.ParseFilter(query.Get("from"), query.Get("to"), query.Get("limit"))
	if err != nil {
		handleServiceError(w, r, h.logger, err)
		return
	}

	log, err := h.svc.GetLog(r.Context(), chi.URLParam(r, "id"), filter)
	if err != nil {
		handleServiceError(w, r, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.ToLogResponse(log.User, log.Exercises))
}
