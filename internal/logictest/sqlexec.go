package logictest

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"time"
)

// SQLExecutor runs fixtures against any database/sql backend, so the same
// files can be checked against sqlite or duckdb.
type SQLExecutor struct {
	db *sql.DB
}

// OpenSQLExecutor opens a database/sql connection for the named driver.
// The driver must be linked into the binary.
func OpenSQLExecutor(driver, dsn string) (*SQLExecutor, error) {
	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("opening %s backend: %w", driver, err)
	}
	return &SQLExecutor{db: db}, nil
}

func (e *SQLExecutor) Statement(ctx context.Context, query string) error {
	_, err := e.db.ExecContext(ctx, query)
	return err
}

func (e *SQLExecutor) Query(ctx context.Context, query string) ([]string, [][]string, error) {
	rs, err := e.db.QueryContext(ctx, query)
	if err != nil {
		return nil, nil, err
	}
	defer rs.Close()

	columns, err := rs.Columns()
	if err != nil {
		return nil, nil, err
	}

	var rows [][]string
	for rs.Next() {
		vals := make([]any, len(columns))
		ptrs := make([]any, len(columns))
		for i := range vals {
			ptrs[i] = &vals[i]
		}
		if err := rs.Scan(ptrs...); err != nil {
			return nil, nil, err
		}
		row := make([]string, len(columns))
		for i, v := range vals {
			row[i] = renderDriverValue(v)
		}
		rows = append(rows, row)
	}
	if err := rs.Err(); err != nil {
		return nil, nil, err
	}
	return columns, rows, nil
}

func (e *SQLExecutor) Close() error {
	return e.db.Close()
}

// renderDriverValue formats a scanned value with the same conventions the
// native engine renders with, as far as driver types allow.
func renderDriverValue(v any) string {
	switch x := v.(type) {
	case nil:
		return "NULL"
	case bool:
		if x {
			return "1"
		}
		return "0"
	case int64:
		return strconv.FormatInt(x, 10)
	case float64:
		if x == float64(int64(x)) {
			return strconv.FormatFloat(x, 'f', 1, 64)
		}
		return strconv.FormatFloat(x, 'g', -1, 64)
	case []byte:
		return string(x)
	case string:
		return x
	case time.Time:
		if x.Hour() == 0 && x.Minute() == 0 && x.Second() == 0 && x.Nanosecond() == 0 {
			return x.Format("2006-01-02")
		}
		return x.Format("2006-01-02 15:04:05.000000")
	default:
		return fmt.Sprintf("%v", x)
	}
}
