// Package loader imports the users and orders CSV exports into the SQLite
// store. Imports are idempotent: rows whose primary key already exists are
// skipped, never updated.
package loader

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"ecomapi/internal/storage"
)

// DefaultBatchSize is the number of records per INSERT statement.
const DefaultBatchSize = 1000

// Options configures a Loader
type Options struct {
	BatchSize int
}

// Loader writes CSV records into the store, one transaction per file
type Loader struct {
	db        *storage.DB
	logger    *slog.Logger
	batchSize int
}

// TableSummary reports what happened to one source file
type TableSummary struct {
	Table    string `json:"table"`
	Source   string `json:"source,omitempty"`
	Read     int64  `json:"read"`
	Inserted int64  `json:"inserted"`
	Skipped  int64  `json:"skipped"`
	Batches  int    `json:"batches"`
}

// Summary reports a complete import run
type Summary struct {
	Users        TableSummary  `json:"users"`
	Orders       TableSummary  `json:"orders"`
	TotalUsers   int64         `json:"total_users"`
	TotalOrders  int64         `json:"total_orders"`
	OrphanOrders int64         `json:"orphan_orders"`
	Duration     time.Duration `json:"duration"`
}

// New creates a Loader. A BatchSize below 1 uses DefaultBatchSize.
func New(db *storage.DB, logger *slog.Logger, opts Options) *Loader {
	if opts.BatchSize < 1 {
		opts.BatchSize = DefaultBatchSize
	}
	return &Loader{
		db:        db,
		logger:    logger.With("component", "loader"),
		batchSize: opts.BatchSize,
	}
}

// Load creates the schema if needed, then imports usersPath and ordersPath in
// that order. Each file is committed on its own; a failure aborts the run and
// rolls back only the file in progress.
func (l *Loader) Load(ctx context.Context, usersPath, ordersPath string) (*Summary, error) {
	start := time.Now()

	if err := l.db.Migrate(); err != nil {
		return nil, err
	}

	summary := &Summary{}
	var err error

	if summary.Users, err = l.LoadFile(ctx, storage.UsersTable, usersPath); err != nil {
		return summary, err
	}
	if summary.Orders, err = l.LoadFile(ctx, storage.OrdersTable, ordersPath); err != nil {
		return summary, err
	}

	if err := l.verify(ctx, summary); err != nil {
		return summary, fmt.Errorf("verify import: %w", err)
	}
	summary.Duration = time.Since(start)

	l.logger.Info("Import finished",
		"users", summary.TotalUsers,
		"orders", summary.TotalOrders,
		"duration", summary.Duration,
	)
	return summary, nil
}

// LoadFile imports one CSV file into table.
func (l *Loader) LoadFile(ctx context.Context, table storage.Table, path string) (TableSummary, error) {
	f, err := os.Open(path)
	if err != nil {
		return TableSummary{Table: table.Name, Source: path}, fmt.Errorf("load %s: %w", table.Name, err)
	}
	defer f.Close()

	l.logger.Info("Loading data", "table", table.Name, "source", path)
	ts, err := l.LoadReader(ctx, table, f)
	ts.Source = path
	return ts, err
}

// LoadReader imports CSV data from r into table inside a single transaction.
// The first record is a header naming table columns in any order; empty
// fields are stored as NULL.
func (l *Loader) LoadReader(ctx context.Context, table storage.Table, r io.Reader) (TableSummary, error) {
	ts := TableSummary{Table: table.Name}

	reader := csv.NewReader(r)
	reader.ReuseRecord = true

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return ts, fmt.Errorf("load %s: missing header row", table.Name)
	}
	if err != nil {
		return ts, fmt.Errorf("load %s: read header: %w", table.Name, err)
	}
	columns, err := mapHeader(table, header)
	if err != nil {
		return ts, fmt.Errorf("load %s: %w", table.Name, err)
	}

	err = l.db.WithTx(ctx, func(tx *sqlx.Tx) error {
		batch := make([][]any, 0, l.batchSize)

		flush := func() error {
			n, err := storage.InsertIgnoreBatch(ctx, tx, table.Name, columns, batch)
			if err != nil {
				return fmt.Errorf("insert batch %d: %w", ts.Batches+1, err)
			}
			ts.Batches++
			ts.Inserted += n
			ts.Skipped += int64(len(batch)) - n
			l.logger.Debug("Batch written", "table", table.Name, "batch", ts.Batches, "rows", len(batch), "inserted", n)
			batch = batch[:0]
			return nil
		}

		for {
			if err := ctx.Err(); err != nil {
				return err
			}
			record, err := reader.Read()
			if errors.Is(err, io.EOF) {
				break
			}
			if err != nil {
				return err
			}
			batch = append(batch, normalize(record))
			ts.Read++

			if len(batch) >= l.batchSize {
				if err := flush(); err != nil {
					return err
				}
			}
		}
		if len(batch) > 0 {
			return flush()
		}
		return nil
	})
	if err != nil {
		l.logger.Error("Import rolled back", "table", table.Name, "read", ts.Read, "error", err.Error())
		return ts, fmt.Errorf("load %s: %w", table.Name, err)
	}

	l.logger.Info("Table loaded",
		"table", table.Name,
		"read", ts.Read,
		"inserted", ts.Inserted,
		"skipped", ts.Skipped,
		"batches", ts.Batches,
	)
	return ts, nil
}

// mapHeader validates header names against the table and returns the column
// list in header order.
func mapHeader(table storage.Table, header []string) ([]string, error) {
	columns := make([]string, len(header))
	seen := make(map[string]bool, len(header))

	for i, name := range header {
		col := strings.ToLower(strings.TrimSpace(name))
		if i == 0 {
			col = strings.TrimPrefix(col, "\ufeff")
		}
		if !table.HasColumn(col) {
			return nil, fmt.Errorf("unknown column %q in header", name)
		}
		if seen[col] {
			return nil, fmt.Errorf("duplicate column %q in header", col)
		}
		seen[col] = true
		columns[i] = col
	}

	if !seen[table.PrimaryKey] {
		return nil, fmt.Errorf("header is missing primary key column %q", table.PrimaryKey)
	}
	return columns, nil
}

// normalize copies a record, turning empty fields into NULL. The copy is
// required because the csv reader reuses its record slice.
func normalize(record []string) []any {
	row := make([]any, len(record))
	for i, v := range record {
		if v == "" {
			row[i] = nil
			continue
		}
		row[i] = v
	}
	return row
}

func (l *Loader) verify(ctx context.Context, s *Summary) error {
	conn := l.db.Conn()
	if err := conn.GetContext(ctx, &s.TotalUsers, "SELECT COUNT(*) FROM users"); err != nil {
		return err
	}
	if err := conn.GetContext(ctx, &s.TotalOrders, "SELECT COUNT(*) FROM orders"); err != nil {
		return err
	}
	err := conn.GetContext(ctx, &s.OrphanOrders, `
		SELECT COUNT(*)
		FROM orders o
		LEFT JOIN users u ON u.id = o.user_id
		WHERE o.user_id IS NOT NULL AND u.id IS NULL
	`)
	if err != nil {
		return err
	}
	if s.OrphanOrders > 0 {
		l.logger.Warn("Orders reference unknown customers", "count", s.OrphanOrders)
	}
	return nil
}
