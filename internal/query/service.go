// Package query implements the read-only customer and statistics lookups
// served by the API. Every call runs on one pooled connection that is
// released before the call returns.
package query

import (
	"context"
	"log/slog"

	"github.com/jmoiron/sqlx"

	"ecomapi/internal/errors"
	"ecomapi/internal/reports"
	"ecomapi/internal/storage"
)

// RecentOrdersLimit is how many orders a customer detail includes.
const RecentOrdersLimit = 5

// TopCountriesLimit is how many countries the stats include.
const TopCountriesLimit = 5

// Options configures a Service
type Options struct {
	// Reports is the catalog served by RunReport. Nil uses the built-in one.
	Reports *reports.Catalog
}

// Service answers customer, stats, health and report queries
type Service struct {
	db      *storage.DB
	logger  *slog.Logger
	reports *reports.Catalog
}

// NewService creates a query service over db.
func NewService(db *storage.DB, logger *slog.Logger, opts Options) (*Service, error) {
	catalog := opts.Reports
	if catalog == nil {
		var err error
		if catalog, err = reports.Default(); err != nil {
			return nil, err
		}
	}
	return &Service{
		db:      db,
		logger:  logger.With("component", "query"),
		reports: catalog,
	}, nil
}

// Reports returns the catalog RunReport draws from.
func (s *Service) Reports() *reports.Catalog {
	return s.reports
}

// withConn runs fn on a dedicated connection. Errors that are not already a
// ServiceError become QueryFailure.
func (s *Service) withConn(ctx context.Context, fn func(*sqlx.Conn) error) error {
	err := s.db.WithConn(ctx, fn)
	if err == nil {
		return nil
	}
	if _, ok := errors.As(err); ok {
		return err
	}
	return errors.NewQueryFailure(err)
}
