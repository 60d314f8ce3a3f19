package api

import (
	"encoding/json"
	"net/http"

	"ecomapi/internal/errors"
)

// ErrorResponse represents an HTTP error response
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

// WriteError writes an error response with the given status. ServiceErrors
// contribute their code and client message.
func WriteError(w http.ResponseWriter, err error, status int) {
	resp := ErrorResponse{Error: err.Error()}

	if svcErr, ok := errors.As(err); ok {
		resp.Error = svcErr.Message
		resp.Code = string(svcErr.Code)
	} else {
		resp.Code = string(errors.InternalError)
	}

	WriteJSON(w, resp, status)
}

// WriteServiceError writes err with the status its code maps to.
func WriteServiceError(w http.ResponseWriter, err error) {
	WriteError(w, err, MapErrorToStatus(errors.CodeOf(err)))
}

// MapErrorToStatus maps error codes to HTTP status codes
func MapErrorToStatus(code errors.ErrorCode) int {
	switch code {
	case errors.NotFound:
		return http.StatusNotFound
	case errors.InvalidArgument:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// WriteJSON writes a JSON response
func WriteJSON(w http.ResponseWriter, data interface{}, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

// NotFound writes a 404 error response
func NotFound(w http.ResponseWriter, message string) {
	WriteJSON(w, ErrorResponse{Error: message}, http.StatusNotFound)
}

// InternalError writes a 500 error response
func InternalError(w http.ResponseWriter, message string) {
	WriteJSON(w, ErrorResponse{Error: message, Code: string(errors.InternalError)}, http.StatusInternalServerError)
}
