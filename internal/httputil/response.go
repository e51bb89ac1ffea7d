package httputil

import (
	"encoding/json"
	"errors"
	"net/http"

	"trackarr/internal/apperr"
)

type Response struct {
	Status string      `json:"status"`
	Data   interface{} `json:"data,omitempty"`
	Error  *ErrorBody  `json:"error,omitempty"`
}

type ErrorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func WriteJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(Response{
		Status: "ok",
		Data:   data,
	})
}

func WriteError(w http.ResponseWriter, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(Response{
		Status: "error",
		Error: &ErrorBody{
			Code:    code,
			Message: message,
		},
	})
}

func ReadJSON(r *http.Request, dst interface{}) error {
	defer r.Body.Close()
	return json.NewDecoder(r.Body).Decode(dst)
}

// WriteAppError translates the service error taxonomy into HTTP statuses.
// Duplicate-item conflicts are not handled here: they carry the existing
// item id and get a custom 409 body at the handler.
func WriteAppError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, apperr.ErrInvalidIdentifier):
		WriteError(w, http.StatusBadRequest, "INVALID_IDENTIFIER", err.Error())
	case errors.Is(err, apperr.ErrUnsupportedOperation):
		WriteError(w, http.StatusBadRequest, "UNSUPPORTED_OPERATION", err.Error())
	case errors.Is(err, apperr.ErrNotFound):
		WriteError(w, http.StatusNotFound, "NOT_FOUND", err.Error())
	case errors.Is(err, apperr.ErrServiceNotConfigured):
		WriteError(w, http.StatusServiceUnavailable, "SERVICE_NOT_CONFIGURED", err.Error())
	case errors.Is(err, apperr.ErrExtractionFailed):
		WriteError(w, http.StatusInternalServerError, "EXTRACTION_FAILED", err.Error())
	case errors.Is(err, apperr.ErrUpstream):
		WriteError(w, http.StatusInternalServerError, "UPSTREAM_ERROR", err.Error())
	default:
		WriteError(w, http.StatusInternalServerError, "INTERNAL", err.Error())
	}
}
