package storage

// OrderStatus is the lifecycle state of an order. The set of values comes from
// the source data; values without a constant below are kept as-is.
type OrderStatus string

const (
	StatusProcessing OrderStatus = "Processing"
	StatusShipped    OrderStatus = "Shipped"
	StatusComplete   OrderStatus = "Complete"
	StatusCancelled  OrderStatus = "Cancelled"
	StatusReturned   OrderStatus = "Returned"
)

var knownStatuses = map[OrderStatus]bool{
	StatusProcessing: true,
	StatusShipped:    true,
	StatusComplete:   true,
	StatusCancelled:  true,
	StatusReturned:   true,
}

// Known reports whether s is one of the named statuses.
func (s OrderStatus) Known() bool {
	return knownStatuses[s]
}

func (s OrderStatus) String() string {
	return string(s)
}

// User is a customer record. Every column but id may be NULL.
type User struct {
	ID            int64    `db:"id" json:"id"`
	FirstName     *string  `db:"first_name" json:"first_name"`
	LastName      *string  `db:"last_name" json:"last_name"`
	Email         *string  `db:"email" json:"email"`
	Age           *int64   `db:"age" json:"age"`
	Gender        *string  `db:"gender" json:"gender"`
	State         *string  `db:"state" json:"state"`
	StreetAddress *string  `db:"street_address" json:"street_address"`
	PostalCode    *string  `db:"postal_code" json:"postal_code"`
	City          *string  `db:"city" json:"city"`
	Country       *string  `db:"country" json:"country"`
	Latitude      *float64 `db:"latitude" json:"latitude"`
	Longitude     *float64 `db:"longitude" json:"longitude"`
	TrafficSource *string  `db:"traffic_source" json:"traffic_source"`
	CreatedAt     *string  `db:"created_at" json:"created_at"`
}

// Order is a purchase record. UserID may reference a user that was never loaded.
type Order struct {
	OrderID     int64        `db:"order_id" json:"order_id"`
	UserID      *int64       `db:"user_id" json:"user_id"`
	Status      *OrderStatus `db:"status" json:"status"`
	Gender      *string      `db:"gender" json:"gender"`
	CreatedAt   *string      `db:"created_at" json:"created_at"`
	ReturnedAt  *string      `db:"returned_at" json:"returned_at"`
	ShippedAt   *string      `db:"shipped_at" json:"shipped_at"`
	DeliveredAt *string      `db:"delivered_at" json:"delivered_at"`
	NumOfItem   *int64       `db:"num_of_item" json:"num_of_item"`
}

// Table describes an importable table
type Table struct {
	Name       string
	PrimaryKey string
	Columns    []string
}

// HasColumn reports whether col belongs to the table.
func (t Table) HasColumn(col string) bool {
	for _, c := range t.Columns {
		if c == col {
			return true
		}
	}
	return false
}

var (
	// UsersTable lists the users columns in schema order
	UsersTable = Table{
		Name:       "users",
		PrimaryKey: "id",
		Columns: []string{
			"id", "first_name", "last_name", "email", "age", "gender", "state",
			"street_address", "postal_code", "city", "country", "latitude",
			"longitude", "traffic_source", "created_at",
		},
	}

	// OrdersTable lists the orders columns in schema order
	OrdersTable = Table{
		Name:       "orders",
		PrimaryKey: "order_id",
		Columns: []string{
			"order_id", "user_id", "status", "gender", "created_at",
			"returned_at", "shipped_at", "delivered_at", "num_of_item",
		},
	}
)

// TableByName returns the importable table with the given name.
func TableByName(name string) (Table, bool) {
	switch name {
	case UsersTable.Name:
		return UsersTable, true
	case OrdersTable.Name:
		return OrdersTable, true
	}
	return Table{}, false
}
