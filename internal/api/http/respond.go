package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"agricoop-backend/internal/domain"
	"agricoop-backend/internal/logger"
	"agricoop-backend/internal/security"
)

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload != nil {
		if err := json.NewEncoder(w).Encode(payload); err != nil {
			logger.Error("failed to encode response", "error", err)
		}
	}
}

type errorResponse struct {
	Error string `json:"error"`
}

// writeError maps the engine's error taxonomy onto HTTP statuses while
// passing the actionable message through unchanged.
func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, domain.ErrValidation):
		status = http.StatusBadRequest
	case errors.Is(err, security.ErrInvalidToken), errors.Is(err, security.ErrExpiredToken):
		status = http.StatusUnauthorized
	case errors.Is(err, domain.ErrUnauthorized):
		status = http.StatusForbidden
	case errors.Is(err, domain.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, domain.ErrInvalidState),
		errors.Is(err, domain.ErrAlreadyProcessed),
		errors.Is(err, domain.ErrCapacityExhausted):
		status = http.StatusConflict
	case errors.Is(err, domain.ErrConflict):
		status = http.StatusServiceUnavailable
	}
	if status == http.StatusInternalServerError {
		logger.Error("internal error", "error", err)
		writeJSON(w, status, errorResponse{Error: "internal error"})
		return
	}
	writeJSON(w, status, errorResponse{Error: err.Error()})
}
