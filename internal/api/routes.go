package api

import (
	"net/http"

	"ecomapi/internal/version"
)

// registerRoutes registers all API routes
func (s *Server) registerRoutes() {
	s.router.HandleFunc("GET /{$}", s.handleRoot)

	s.router.HandleFunc("GET /api/customers", s.handleListCustomers)
	s.router.HandleFunc("GET /api/customers/{id}", s.handleGetCustomer)
	s.router.HandleFunc("GET /api/stats", s.handleStats)
	s.router.HandleFunc("GET /api/health", s.handleHealth)

	s.router.HandleFunc("GET /api/reports", s.handleListReports)
	s.router.HandleFunc("GET /api/reports/{name}", s.handleRunReport)

	if s.metrics != nil {
		s.router.HandleFunc("GET "+s.cfg.Metrics.Endpoint, s.handleMetrics)
	}
	if s.cfg.Server.StaticDir != "" {
		s.router.Handle("GET /app/", StaticHandler("/app/", s.cfg.Server.StaticDir))
	}

	// Anything unmatched, including unsupported methods
	s.router.HandleFunc("/", s.handleNotFound)
}

// handleRoot lists the available endpoints
func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	endpoints := []string{
		"GET /api/customers?page=1&per_page=10",
		"GET /api/customers/{id}",
		"GET /api/stats",
		"GET /api/health",
		"GET /api/reports",
		"GET /api/reports/{name}",
	}
	if s.metrics != nil {
		endpoints = append(endpoints, "GET "+s.cfg.Metrics.Endpoint)
	}
	if s.cfg.Server.StaticDir != "" {
		endpoints = append(endpoints, "GET /app/")
	}

	WriteJSON(w, map[string]interface{}{
		"name":      "ecomapi",
		"version":   version.Version,
		"endpoints": endpoints,
	}, http.StatusOK)
}

func (s *Server) handleNotFound(w http.ResponseWriter, r *http.Request) {
	if s.cfg.Server.StaticDir != "" && r.Method == http.MethodGet && r.URL.Path == "/app" {
		http.Redirect(w, r, "/app/", http.StatusMovedPermanently)
		return
	}
	NotFound(w, "Resource not found")
}
