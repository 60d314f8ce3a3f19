package query

import (
	"context"
	"database/sql"
	stderrors "errors"
	"fmt"
	"math"

	"github.com/jmoiron/sqlx"

	"ecomapi/internal/errors"
	"ecomapi/internal/storage"
)

// CustomerSummary is one row of the customer listing
type CustomerSummary struct {
	ID         int64   `db:"id" json:"id"`
	FirstName  *string `db:"first_name" json:"first_name"`
	LastName   *string `db:"last_name" json:"last_name"`
	Email      *string `db:"email" json:"email"`
	City       *string `db:"city" json:"city"`
	Country    *string `db:"country" json:"country"`
	OrderCount int64   `db:"order_count" json:"order_count"`
}

// Meta describes a page of a listing
type Meta struct {
	Page       int   `json:"page"`
	PerPage    int   `json:"per_page"`
	TotalCount int64 `json:"total_count"`
	TotalPages int64 `json:"total_pages"`
}

// CustomerPage is one page of customers
type CustomerPage struct {
	Data []CustomerSummary `json:"data"`
	Meta Meta              `json:"meta"`
}

// OrderStats summarizes a customer's orders. Both fields are omitted when the
// customer has no orders.
type OrderStats struct {
	StatusDistribution CountMap `json:"status_distribution,omitempty"`
	TotalItems         *int64   `json:"total_items,omitempty"`
}

// RecentOrder is an order as listed in a customer detail
type RecentOrder struct {
	OrderID     int64                `db:"order_id" json:"order_id"`
	Status      *storage.OrderStatus `db:"status" json:"status"`
	CreatedAt   *string              `db:"created_at" json:"created_at"`
	ShippedAt   *string              `db:"shipped_at" json:"shipped_at"`
	DeliveredAt *string              `db:"delivered_at" json:"delivered_at"`
	NumOfItem   *int64               `db:"num_of_item" json:"num_of_item"`
}

// CustomerDetail is a customer with order statistics
type CustomerDetail struct {
	Customer     storage.User  `json:"customer"`
	OrderCount   int64         `json:"order_count"`
	OrderStats   OrderStats    `json:"order_stats"`
	RecentOrders []RecentOrder `json:"recent_orders"`
}

const selectUserSQL = `
	SELECT id, first_name, last_name, email, age, gender, state, street_address,
	       postal_code, city, country, latitude, longitude, traffic_source, created_at
	FROM users
	WHERE id = ?
`

const listCustomersSQL = `
	SELECT p.id, p.first_name, p.last_name, p.email, p.city, p.country,
	       COUNT(o.order_id) AS order_count
	FROM (
		SELECT id, first_name, last_name, email, city, country
		FROM users
		ORDER BY id
		LIMIT ? OFFSET ?
	) p
	LEFT JOIN orders o ON o.user_id = p.id
	GROUP BY p.id
	ORDER BY p.id
`

// ListCustomers returns customers ordered by id. page and perPage must be at
// least 1.
func (s *Service) ListCustomers(ctx context.Context, page, perPage int) (*CustomerPage, error) {
	if page < 1 {
		return nil, errors.NewInvalidArgument(fmt.Sprintf("page must be at least 1, got %d", page))
	}
	if perPage < 1 {
		return nil, errors.NewInvalidArgument(fmt.Sprintf("per_page must be at least 1, got %d", perPage))
	}

	result := &CustomerPage{
		Data: make([]CustomerSummary, 0, min(perPage, 100)),
		Meta: Meta{Page: page, PerPage: perPage},
	}

	err := s.withConn(ctx, func(conn *sqlx.Conn) error {
		if err := conn.GetContext(ctx, &result.Meta.TotalCount, "SELECT COUNT(*) FROM users"); err != nil {
			return err
		}
		return conn.SelectContext(ctx, &result.Data, listCustomersSQL, perPage, pageOffset(page, perPage))
	})
	if err != nil {
		return nil, err
	}

	result.Meta.TotalPages = totalPages(result.Meta.TotalCount, perPage)
	return result, nil
}

// pageOffset is (page-1)*perPage, saturating instead of overflowing.
func pageOffset(page, perPage int) int64 {
	p, n := int64(page-1), int64(perPage)
	if p > 0 && p > math.MaxInt64/n {
		return math.MaxInt64
	}
	return p * n
}

func totalPages(total int64, perPage int) int64 {
	n := int64(perPage)
	return (total + n - 1) / n
}

// GetCustomer returns one customer with order statistics and the most recent
// orders.
func (s *Service) GetCustomer(ctx context.Context, id int64) (*CustomerDetail, error) {
	detail := &CustomerDetail{RecentOrders: make([]RecentOrder, 0, RecentOrdersLimit)}

	err := s.withConn(ctx, func(conn *sqlx.Conn) error {
		err := conn.GetContext(ctx, &detail.Customer, selectUserSQL, id)
		if stderrors.Is(err, sql.ErrNoRows) {
			return errors.NewNotFound("Customer not found")
		}
		if err != nil {
			return err
		}

		if err := conn.GetContext(ctx, &detail.OrderCount,
			"SELECT COUNT(*) FROM orders WHERE user_id = ?", id); err != nil {
			return err
		}
		if detail.OrderCount == 0 {
			return nil
		}

		var groups []groupCount
		if err := conn.SelectContext(ctx, &groups, `
			SELECT status AS label, COUNT(*) AS count
			FROM orders
			WHERE user_id = ?
			GROUP BY status
			ORDER BY count DESC, status IS NULL, status
		`, id); err != nil {
			return err
		}
		detail.OrderStats.StatusDistribution = toCountMap(groups)

		var totalItems int64
		if err := conn.GetContext(ctx, &totalItems,
			"SELECT COALESCE(SUM(num_of_item), 0) FROM orders WHERE user_id = ?", id); err != nil {
			return err
		}
		detail.OrderStats.TotalItems = &totalItems

		return conn.SelectContext(ctx, &detail.RecentOrders, `
			SELECT order_id, status, created_at, shipped_at, delivered_at, num_of_item
			FROM orders
			WHERE user_id = ?
			ORDER BY created_at DESC, order_id DESC
			LIMIT ?
		`, id, RecentOrdersLimit)
	})
	if err != nil {
		return nil, err
	}
	return detail, nil
}
