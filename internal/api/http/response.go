package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/adamanr/worklog_service/internal/entity"
)

// StatusFor maps a domain error to its HTTP status.
func StatusFor(err error) int {
	switch {
	case errors.Is(err, entity.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, entity.ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, entity.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, entity.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, entity.ErrConflict), errors.Is(err, entity.ErrInvalidState):
		return http.StatusConflict
	case errors.Is(err, entity.ErrUnavailable):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func messageFor(status int, err error) string {
	switch status {
	case http.StatusBadRequest:
		return "Validation failed"
	case http.StatusUnauthorized:
		return "Unauthorized"
	case http.StatusForbidden:
		return "Access denied"
	case http.StatusNotFound:
		return "Resource not found"
	case http.StatusConflict:
		if errors.Is(err, entity.ErrInvalidState) {
			return "Activity is no longer pending"
		}
		return "Resource already exists"
	case http.StatusServiceUnavailable:
		return "Service temporarily unavailable"
	default:
		return "Internal server error"
	}
}

func (s Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := StatusFor(err)
	if status >= http.StatusInternalServerError {
		s.deps.Logger.Error("Request failed", slog.String("path", r.URL.Path), slog.String("error", err.Error()))
	}

	s.httpResponse(w, status, response{
		Message: messageFor(status, err),
		Errors:  entity.ValidationMessages(err),
	})
}

func (s Server) ok(w http.ResponseWriter, status int, message string, data any) {
	s.httpResponse(w, status, response{Success: true, Message: message, Data: data})
}

func (s Server) httpResponse(w http.ResponseWriter, status int, resp response) {
	respData, marshalErr := json.Marshal(resp)
	if marshalErr != nil {
		s.deps.Logger.Error("Error marshaling response", slog.String("error", marshalErr.Error()))
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if _, err := w.Write(respData); err != nil {
		s.deps.Logger.Error("Error writing response", slog.String("error", err.Error()))
	}
}
