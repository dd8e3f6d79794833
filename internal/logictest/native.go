package logictest

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/albinkc/databend/internal/engine"
	"github.com/albinkc/databend/internal/meta"
	"github.com/albinkc/databend/internal/types"
)

// NativeExecutor runs fixtures against the built-in engine with a private
// SQLite-backed metastore.
type NativeExecutor struct {
	db      *sql.DB
	session *engine.Session
}

// NewNativeExecutor opens a metastore at path (":memory:" for throwaway
// runs) and starts a fresh session on it.
func NewNativeExecutor(ctx context.Context, path string) (*NativeExecutor, error) {
	db, err := meta.OpenSQLite(path)
	if err != nil {
		return nil, fmt.Errorf("opening metastore: %w", err)
	}
	if err := meta.RunMigrations(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrating metastore: %w", err)
	}

	catalog := meta.NewCatalog(meta.NewSQLiteKV(db), meta.DefaultTenant)
	session, err := engine.NewSession(ctx, catalog, engine.NewStore())
	if err != nil {
		db.Close()
		return nil, err
	}
	return &NativeExecutor{db: db, session: session}, nil
}

func (e *NativeExecutor) Statement(ctx context.Context, sql string) error {
	_, err := e.session.Execute(ctx, sql)
	return err
}

func (e *NativeExecutor) Query(ctx context.Context, sql string) ([]string, [][]string, error) {
	res, err := e.session.Execute(ctx, sql)
	if err != nil {
		return nil, nil, err
	}
	rows := make([][]string, len(res.Rows))
	for r, row := range res.Rows {
		rows[r] = make([]string, len(row))
		for c, d := range row {
			rows[r][c] = types.Render(d)
		}
	}
	return res.Columns, rows, nil
}

func (e *NativeExecutor) Close() error {
	return e.db.Close()
}
