package reports

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
)

// Result is the tabular output of one report
type Result struct {
	Name    string   `json:"name" yaml:"name"`
	Title   string   `json:"title" yaml:"title"`
	Columns []string `json:"columns" yaml:"columns"`
	Rows    [][]any  `json:"rows" yaml:"rows"`
}

// Run executes r on q. Text values are returned as strings.
func Run(ctx context.Context, q sqlx.QueryerContext, r Report) (*Result, error) {
	rows, err := q.QueryxContext(ctx, r.SQL)
	if err != nil {
		return nil, fmt.Errorf("report %s: %w", r.Name, err)
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("report %s: %w", r.Name, err)
	}

	result := &Result{
		Name:    r.Name,
		Title:   r.Title,
		Columns: columns,
		Rows:    make([][]any, 0),
	}
	for rows.Next() {
		values, err := rows.SliceScan()
		if err != nil {
			return nil, fmt.Errorf("report %s: %w", r.Name, err)
		}
		for i, v := range values {
			if b, ok := v.([]byte); ok {
				values[i] = string(b)
			}
		}
		result.Rows = append(result.Rows, values)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("report %s: %w", r.Name, err)
	}
	return result, nil
}
