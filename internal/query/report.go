package query

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"ecomapi/internal/errors"
	"ecomapi/internal/reports"
)

// RunReport executes the named catalog report.
func (s *Service) RunReport(ctx context.Context, name string) (*reports.Result, error) {
	r, ok := s.reports.Get(name)
	if !ok {
		return nil, errors.NewNotFound(fmt.Sprintf("Report not found: %s", name))
	}

	var result *reports.Result
	err := s.withConn(ctx, func(conn *sqlx.Conn) error {
		var err error
		result, err = reports.Run(ctx, conn, r)
		return err
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}
