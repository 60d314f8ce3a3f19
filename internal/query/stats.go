package query

import (
	"context"

	"github.com/jmoiron/sqlx"
)

// Stats are the store-wide aggregates
type Stats struct {
	TotalCustomers int64    `json:"total_customers"`
	TotalOrders    int64    `json:"total_orders"`
	OrdersByStatus CountMap `json:"orders_by_status"`
	TopCountries   CountMap `json:"top_countries"`
}

// GetStats returns customer and order totals, orders per status and the
// countries with the most customers. Both mappings are ordered by descending
// count.
func (s *Service) GetStats(ctx context.Context) (*Stats, error) {
	stats := &Stats{}

	err := s.withConn(ctx, func(conn *sqlx.Conn) error {
		if err := conn.GetContext(ctx, &stats.TotalCustomers, "SELECT COUNT(*) FROM users"); err != nil {
			return err
		}
		if err := conn.GetContext(ctx, &stats.TotalOrders, "SELECT COUNT(*) FROM orders"); err != nil {
			return err
		}

		var byStatus []groupCount
		if err := conn.SelectContext(ctx, &byStatus, `
			SELECT status AS label, COUNT(*) AS count
			FROM orders
			GROUP BY status
			ORDER BY count DESC, status IS NULL, status
		`); err != nil {
			return err
		}

		var byCountry []groupCount
		if err := conn.SelectContext(ctx, &byCountry, `
			SELECT country AS label, COUNT(*) AS count
			FROM users
			GROUP BY country
			ORDER BY count DESC, country IS NULL, country
			LIMIT ?
		`, TopCountriesLimit); err != nil {
			return err
		}

		stats.OrdersByStatus = toCountMap(byStatus)
		stats.TopCountries = toCountMap(byCountry)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return stats, nil
}
