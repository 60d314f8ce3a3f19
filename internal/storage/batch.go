package storage

import (
	"context"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"
)

// MaxBindVars is SQLite's default limit on parameters per statement.
const MaxBindVars = 32766

// InsertIgnoreBatch inserts rows into table with one multi-row
// INSERT OR IGNORE statement and returns how many rows were actually written.
// Rows whose primary key already exists are skipped silently. Each row must
// have len(columns) values; nil values are stored as NULL.
func InsertIgnoreBatch(ctx context.Context, tx *sqlx.Tx, table string, columns []string, rows [][]any) (int64, error) {
	if len(rows) == 0 {
		return 0, nil
	}
	if len(columns) == 0 {
		return 0, fmt.Errorf("no columns to insert into %s", table)
	}

	// Split batches that would exceed the bind variable limit.
	if perStmt := MaxBindVars / len(columns); len(rows) > perStmt {
		var total int64
		for start := 0; start < len(rows); start += perStmt {
			end := min(start+perStmt, len(rows))
			n, err := InsertIgnoreBatch(ctx, tx, table, columns, rows[start:end])
			if err != nil {
				return total, err
			}
			total += n
		}
		return total, nil
	}

	placeholder := "(" + strings.TrimSuffix(strings.Repeat("?,", len(columns)), ",") + ")"

	var b strings.Builder
	b.WriteString("INSERT OR IGNORE INTO ")
	b.WriteString(table)
	b.WriteString(" (")
	b.WriteString(strings.Join(columns, ", "))
	b.WriteString(") VALUES ")

	args := make([]any, 0, len(rows)*len(columns))
	for i, row := range rows {
		if len(row) != len(columns) {
			return 0, fmt.Errorf("row %d has %d values, want %d", i, len(row), len(columns))
		}
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(placeholder)
		args = append(args, row...)
	}

	res, err := tx.ExecContext(ctx, b.String(), args...)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
