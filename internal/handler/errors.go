package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"archivePortal/internal/apperr"
)

type ErrorResponse struct {
	Error  string            `json:"error"`
	Fields map[string]string `json:"fields,omitempty"`
}

// WriteError sends a JSON error body with the given status.
func WriteError(w http.ResponseWriter, message string, statusCode int) {
	writeJSON(w, ErrorResponse{Error: message}, statusCode)
}

func writeSuccess(w http.ResponseWriter, data interface{}, statusCode int) {
	writeJSON(w, data, statusCode)
}

func writeJSON(w http.ResponseWriter, data interface{}, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(data)
}

// writeServiceError maps the apperr taxonomy onto HTTP statuses.
func (h *Handlers) writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	var validation *apperr.ValidationError
	var transition *apperr.InvalidTransitionError
	var notFound *apperr.NotFoundError

	switch {
	case errors.As(err, &validation):
		writeJSON(w, ErrorResponse{Error: "validation failed", Fields: validation.Fields}, http.StatusBadRequest)
	case errors.As(err, &transition):
		msg := "this item was already reviewed"
		if transition.Resource != "" && transition.Resource != "submission" {
			msg = err.Error()
		}
		WriteError(w, msg, http.StatusConflict)
	case errors.As(err, &notFound):
		WriteError(w, notFound.Error(), http.StatusNotFound)
	case errors.Is(err, apperr.ErrUnauthorized):
		WriteError(w, "invalid email or password", http.StatusUnauthorized)
	case errors.Is(err, apperr.ErrForbidden):
		WriteError(w, err.Error(), http.StatusForbidden)
	default:
		h.logger.Error("request failed",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Error(err))
		WriteError(w, "internal server error", http.StatusInternalServerError)
	}
}
