package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/catattack05/functionary/internal/domain"
)

type envelope struct {
	Data  any    `json:"data,omitempty"`
	Error string `json:"error,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	writeEnvelope(w, status, envelope{Data: data})
}

func writeError(w http.ResponseWriter, err error) {
	status, msg := errorStatus(err)
	writeEnvelope(w, status, envelope{Error: msg})
}

func writeEnvelope(w http.ResponseWriter, status int, body envelope) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func errorStatus(err error) (int, string) {
	var maxErr *http.MaxBytesError
	switch {
	case errors.As(err, &maxErr):
		return http.StatusRequestEntityTooLarge, "request body too large"
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound, err.Error()
	case errors.Is(err, domain.ErrAlreadyExists):
		return http.StatusConflict, err.Error()
	case errors.Is(err, domain.ErrInvalidInput),
		errors.Is(err, domain.ErrInvalidPackage),
		errors.Is(err, domain.ErrSchema),
		errors.Is(err, domain.ErrParse):
		return http.StatusBadRequest, err.Error()
	case errors.Is(err, domain.ErrPermissionDenied):
		return http.StatusForbidden, err.Error()
	default:
		slog.Error("internal error", "error", err)
		return http.StatusInternalServerError, "internal server error"
	}
}
