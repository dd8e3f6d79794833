package engine

import (
	"context"
	"fmt"

	"github.com/albinkc/databend/internal/bendsql"
	"github.com/albinkc/databend/internal/meta"
	"github.com/albinkc/databend/internal/types"
)

// DefaultDatabase is created on session start and used until USE switches.
const DefaultDatabase = "default"

// Result is the outcome of one statement: zero or more rows with named,
// typed columns. Side-effect statements return an empty result.
type Result struct {
	Columns []string
	Types   []*types.DataType
	Rows    [][]types.Datum
}

func emptyResult() *Result {
	return &Result{}
}

// Session executes statements against one catalog and store, tracking the
// current database.
type Session struct {
	catalog *meta.Catalog
	store   *Store
	current string
}

// NewSession creates a session and ensures the default database exists.
func NewSession(ctx context.Context, catalog *meta.Catalog, store *Store) (*Session, error) {
	if err := catalog.CreateDatabase(ctx, DefaultDatabase, true); err != nil {
		return nil, fmt.Errorf("ensure default database: %w", err)
	}
	return &Session{catalog: catalog, store: store, current: DefaultDatabase}, nil
}

// CurrentDatabase returns the database USE selected.
func (s *Session) CurrentDatabase() string {
	return s.current
}

// Execute parses and runs one statement.
func (s *Session) Execute(ctx context.Context, sql string) (*Result, error) {
	stmt, err := bendsql.Parse(sql)
	if err != nil {
		return nil, fmt.Errorf("parse: %w", err)
	}

	interp, err := s.buildInterpreter(stmt)
	if err != nil {
		return nil, err
	}
	res, err := interp.Execute(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", interp.Name(), err)
	}
	return res, nil
}

// Interpreter runs one parsed statement kind.
type Interpreter interface {
	Name() string
	Execute(ctx context.Context) (*Result, error)
}

// buildInterpreter maps a statement to its interpreter.
func (s *Session) buildInterpreter(stmt bendsql.Stmt) (Interpreter, error) {
	switch st := stmt.(type) {
	case *bendsql.CreateDatabaseStmt:
		return &createDatabaseInterpreter{session: s, stmt: st}, nil
	case *bendsql.DropDatabaseStmt:
		return &dropDatabaseInterpreter{session: s, stmt: st}, nil
	case *bendsql.UseStmt:
		return &useInterpreter{session: s, stmt: st}, nil
	case *bendsql.CreateTableStmt:
		return &createTableInterpreter{session: s, stmt: st}, nil
	case *bendsql.DropTableStmt:
		return &dropTableInterpreter{session: s, stmt: st}, nil
	case *bendsql.ExistsTableStmt:
		return &existsTableInterpreter{session: s, stmt: st}, nil
	case *bendsql.CreateViewStmt:
		return &createViewInterpreter{session: s, stmt: st}, nil
	case *bendsql.AlterViewStmt:
		return &alterViewInterpreter{session: s, stmt: st}, nil
	case *bendsql.DropViewStmt:
		return &dropViewInterpreter{session: s, stmt: st}, nil
	case *bendsql.ShowStmt:
		return &showInterpreter{session: s, stmt: st}, nil
	case *bendsql.InsertStmt:
		return &insertInterpreter{session: s, stmt: st}, nil
	case *bendsql.SelectStmt:
		return &selectInterpreter{session: s, stmt: st}, nil
	}
	return nil, fmt.Errorf("no interpreter for %T", stmt)
}

// resolveDatabase applies the session's current database to an unqualified
// object name.
func (s *Session) resolveDatabase(n bendsql.ObjectName) (database, name string) {
	if n.Database != "" {
		return n.Database, n.Name
	}
	return s.current, n.Name
}

// columnTypes parses every stored column type of a table.
func columnTypes(tbl *meta.TableMeta) ([]string, []*types.DataType, error) {
	names := make([]string, len(tbl.Columns))
	typs := make([]*types.DataType, len(tbl.Columns))
	for i, col := range tbl.Columns {
		t, err := types.Parse(col.Type)
		if err != nil {
			return nil, nil, fmt.Errorf("column %q: %w", col.Name, err)
		}
		names[i] = col.Name
		typs[i] = t
	}
	return names, typs, nil
}
