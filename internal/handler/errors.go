package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/exlog/exlog/internal/service"
)

var validationCodes = []struct {
	err  error
	code string
}{
	{service.ErrUsernameRequired, "USERNAME_REQUIRED"},
	{service.ErrDescriptionRequired, "DESCRIPTION_REQUIRED"},
	{service.ErrDurationRequired, "DURATION_REQUIRED"},
	{service.ErrInvalidDuration, "INVALID_DURATION"},
	{service.ErrInvalidDate, "INVALID_DATE"},
	{service.ErrInvalidLimit, "INVALID_LIMIT"},
}

// handleServiceError maps service errors to HTTP responses.
func handleServiceError(w http.ResponseWriter, r *http.Request, logger *slog.Logger, err error) {
	switch {
	case errors.Is(err, service.ErrUserNotFound):
		writeError(w, http.StatusNotFound, "USER_NOT_FOUND", "unknown user id")
	case service.IsValidation(err):
		writeError(w, http.StatusBadRequest, validationCode(err), err.Error())
	default:
		logger.ErrorContext(r.Context(), "internal_error", "path", r.URL.Path, "error", err)
		writeError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "An internal error occurred")
	}
}

func validationCode(err error) string {
	for _, vc := range validationCodes {
		if errors.Is(err, vc.err) {
			return vc.code
		}
	}
	return "VALIDATION_ERROR"
}
