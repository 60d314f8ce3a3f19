package query

import (
	"context"

	"ecomapi/internal/errors"
)

// HealthyMessage is reported when the store answers queries.
const HealthyMessage = "API is running and database is accessible"

// HealthStatus is the health endpoint body
type HealthStatus struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

// Health checks that the store file exists and answers a trivial query. It
// does not look at the schema, so an empty store is healthy.
func (s *Service) Health(ctx context.Context) (*HealthStatus, error) {
	if err := s.db.Check(ctx); err != nil {
		s.logger.Warn("Health check failed", "path", s.db.Path(), "error", err.Error())
		return nil, errors.NewStoreUnavailable(err.Error(), err)
	}
	return &HealthStatus{Status: "healthy", Message: HealthyMessage}, nil
}
