// internal/handlers/respond.go
package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/kkzakaria/boom-informatique-sub001/internal/core/domain"
)

func respondJSON(w http.ResponseWriter, logger *slog.Logger, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		logger.Error("failed to encode JSON response",
			slog.String("error", err.Error()))
	}
}

func respondError(w http.ResponseWriter, logger *slog.Logger, status int, message string) {
	respondJSON(w, logger, status, map[string]string{"error": message})
}

// respondDomainError maps core sentinel errors to HTTP statuses.
// Anything unrecognized becomes a 500 with a generic message so
// internals never leak to the client.
func respondDomainError(w http.ResponseWriter, logger *slog.Logger, err error) {
	switch {
	case errors.Is(err, domain.ErrValidation):
		respondError(w, logger, http.StatusBadRequest, err.Error())
	case errors.Is(err, domain.ErrAccessDenied):
		respondError(w, logger, http.StatusForbidden, "Access denied")
	case errors.Is(err, domain.ErrNotFound):
		respondError(w, logger, http.StatusNotFound, "Resource not found")
	case errors.Is(err, domain.ErrQuoteExpired):
		respondError(w, logger, http.StatusConflict, "Quote validity period has elapsed")
	case errors.Is(err, domain.ErrInvalidTransition):
		respondError(w, logger, http.StatusConflict, "Quote is not in a state that allows this operation")
	case errors.Is(err, domain.ErrProductInactive):
		respondError(w, logger, http.StatusUnprocessableEntity, err.Error())
	default:
		respondError(w, logger, http.StatusInternalServerError, "Internal server error")
	}
}
