package api

import (
	"net/http"

	"ecomapi/internal/errors"
	"ecomapi/internal/reports"
)

// GET /api/customers
func (s *Server) handleListCustomers(w http.ResponseWriter, r *http.Request) {
	page, perPage := Pagination(r, s.cfg.API.DefaultPerPage, s.cfg.API.MaxPerPage)

	result, err := s.service.ListCustomers(r.Context(), page, perPage)
	if err != nil {
		s.writeFailure(w, r, err)
		return
	}
	WriteJSON(w, result, http.StatusOK)
}

// GET /api/customers/{id}
func (s *Server) handleGetCustomer(w http.ResponseWriter, r *http.Request) {
	id, ok := PathParamInt64(r, "id")
	if !ok {
		NotFound(w, "Resource not found")
		return
	}

	detail, err := s.service.GetCustomer(r.Context(), id)
	if err != nil {
		s.writeFailure(w, r, err)
		return
	}
	WriteJSON(w, detail, http.StatusOK)
}

// GET /api/stats
func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.service.GetStats(r.Context())
	if err != nil {
		s.writeFailure(w, r, err)
		return
	}
	WriteJSON(w, stats, http.StatusOK)
}

// GET /api/reports
func (s *Server) handleListReports(w http.ResponseWriter, r *http.Request) {
	list := s.service.Reports().List()
	if list == nil {
		list = []reports.Report{}
	}
	WriteJSON(w, map[string]interface{}{"reports": list}, http.StatusOK)
}

// GET /api/reports/{name}
func (s *Server) handleRunReport(w http.ResponseWriter, r *http.Request) {
	result, err := s.service.RunReport(r.Context(), r.PathValue("name"))
	if err != nil {
		s.writeFailure(w, r, err)
		return
	}
	WriteJSON(w, result, http.StatusOK)
}

// writeFailure logs a failed request once and writes the error envelope.
func (s *Server) writeFailure(w http.ResponseWriter, r *http.Request, err error) {
	code := errors.CodeOf(err)
	if s.metrics != nil {
		s.metrics.RecordError(string(code))
	}
	if code != errors.NotFound {
		s.logger.Error("Request failed",
			"path", r.URL.Path,
			"code", string(code),
			"error", err.Error(),
			"requestID", GetRequestID(r.Context()),
		)
	}
	WriteServiceError(w, err)
}
