package api

import (
	"net/http"

	"ecomapi/internal/errors"
)

// HealthResponse is the /api/health body
type HealthResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

// GET /api/health
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	status, err := s.service.Health(r.Context())
	if err != nil {
		msg := err.Error()
		if svcErr, ok := errors.As(err); ok {
			msg = svcErr.Message
		}
		if s.metrics != nil {
			s.metrics.RecordError(string(errors.CodeOf(err)))
		}
		WriteJSON(w, HealthResponse{Status: "error", Message: msg}, http.StatusInternalServerError)
		return
	}

	WriteJSON(w, HealthResponse{Status: status.Status, Message: status.Message}, http.StatusOK)
}
