package engine

import (
	"context"
	"fmt"

	"github.com/albinkc/databend/internal/bendsql"
	"github.com/albinkc/databend/internal/meta"
	"github.com/albinkc/databend/internal/types"
)

type createDatabaseInterpreter struct {
	session *Session
	stmt    *bendsql.CreateDatabaseStmt
}

func (i *createDatabaseInterpreter) Name() string { return "CreateDatabaseInterpreter" }

func (i *createDatabaseInterpreter) Execute(ctx context.Context) (*Result, error) {
	if err := i.session.catalog.CreateDatabase(ctx, i.stmt.Name, i.stmt.IfNotExists); err != nil {
		return nil, err
	}
	return emptyResult(), nil
}

type dropDatabaseInterpreter struct {
	session *Session
	stmt    *bendsql.DropDatabaseStmt
}

func (i *dropDatabaseInterpreter) Name() string { return "DropDatabaseInterpreter" }

func (i *dropDatabaseInterpreter) Execute(ctx context.Context) (*Result, error) {
	// Collect table ids first so their data can be released after the
	// catalog entries are gone.
	tables, err := i.session.catalog.ListTables(ctx, i.stmt.Name)
	if err != nil && !i.stmt.IfExists {
		return nil, err
	}

	if err := i.session.catalog.DropDatabase(ctx, i.stmt.Name, i.stmt.IfExists); err != nil {
		return nil, err
	}
	for _, t := range tables {
		i.session.store.Drop(t.ID)
	}
	if i.session.current == i.stmt.Name {
		i.session.current = DefaultDatabase
	}
	return emptyResult(), nil
}

type useInterpreter struct {
	session *Session
	stmt    *bendsql.UseStmt
}

func (i *useInterpreter) Name() string { return "UseInterpreter" }

func (i *useInterpreter) Execute(ctx context.Context) (*Result, error) {
	if _, err := i.session.catalog.GetDatabase(ctx, i.stmt.Name); err != nil {
		return nil, err
	}
	i.session.current = i.stmt.Name
	return emptyResult(), nil
}

type createTableInterpreter struct {
	session *Session
	stmt    *bendsql.CreateTableStmt
}

func (i *createTableInterpreter) Name() string { return "CreateTableInterpreter" }

func (i *createTableInterpreter) Execute(ctx context.Context) (*Result, error) {
	database, table := i.session.resolveDatabase(i.stmt.Table)
	cols := make([]meta.ColumnMeta, len(i.stmt.Columns))
	seen := make(map[string]bool, len(i.stmt.Columns))
	for idx, col := range i.stmt.Columns {
		if seen[col.Name] {
			return nil, fmt.Errorf("duplicate column %q", col.Name)
		}
		seen[col.Name] = true
		cols[idx] = meta.ColumnMeta{Name: col.Name, Type: col.Type.String()}
	}
	if err := i.session.catalog.CreateTable(ctx, database, table, cols, i.stmt.IfNotExists); err != nil {
		return nil, err
	}
	return emptyResult(), nil
}

type dropTableInterpreter struct {
	session *Session
	stmt    *bendsql.DropTableStmt
}

func (i *dropTableInterpreter) Name() string { return "DropTableInterpreter" }

func (i *dropTableInterpreter) Execute(ctx context.Context) (*Result, error) {
	database, table := i.session.resolveDatabase(i.stmt.Table)

	tbl, err := i.session.catalog.GetTable(ctx, database, table)
	if err != nil {
		if i.stmt.IfExists {
			return emptyResult(), nil
		}
		return nil, err
	}
	if err := i.session.catalog.DropTable(ctx, database, table, i.stmt.IfExists); err != nil {
		return nil, err
	}
	i.session.store.Drop(tbl.ID)
	return emptyResult(), nil
}

type existsTableInterpreter struct {
	session *Session
	stmt    *bendsql.ExistsTableStmt
}

func (i *existsTableInterpreter) Name() string { return "ExistsTableInterpreter" }

// Execute returns a one-row UInt8 result: 1 when the table exists, else 0.
func (i *existsTableInterpreter) Execute(ctx context.Context) (*Result, error) {
	database, table := i.session.resolveDatabase(i.stmt.Table)
	exists, err := i.session.catalog.ExistsTable(ctx, database, table)
	if err != nil {
		return nil, err
	}
	v := uint64(0)
	if exists {
		v = 1
	}
	return &Result{
		Columns: []string{"result"},
		Types:   []*types.DataType{types.New(types.KindUInt8)},
		Rows:    [][]types.Datum{{v}},
	}, nil
}

type createViewInterpreter struct {
	session *Session
	stmt    *bendsql.CreateViewStmt
}

func (i *createViewInterpreter) Name() string { return "CreateViewInterpreter" }

func (i *createViewInterpreter) Execute(ctx context.Context) (*Result, error) {
	database, view := i.session.resolveDatabase(i.stmt.View)
	if i.stmt.Query == nil {
		return nil, fmt.Errorf("view %q has no SELECT definition", view)
	}
	def := bendsql.Format(i.stmt.Query)
	if err := i.session.catalog.CreateView(ctx, database, view, def, i.stmt.IfNotExists); err != nil {
		return nil, err
	}
	return emptyResult(), nil
}

type alterViewInterpreter struct {
	session *Session
	stmt    *bendsql.AlterViewStmt
}

func (i *alterViewInterpreter) Name() string { return "AlterViewInterpreter" }

func (i *alterViewInterpreter) Execute(ctx context.Context) (*Result, error) {
	database, view := i.session.resolveDatabase(i.stmt.View)
	if i.stmt.Query == nil {
		return nil, fmt.Errorf("view %q has no SELECT definition", view)
	}
	def := bendsql.Format(i.stmt.Query)
	if err := i.session.catalog.AlterView(ctx, database, view, def); err != nil {
		return nil, err
	}
	return emptyResult(), nil
}

type dropViewInterpreter struct {
	session *Session
	stmt    *bendsql.DropViewStmt
}

func (i *dropViewInterpreter) Name() string { return "DropViewInterpreter" }

func (i *dropViewInterpreter) Execute(ctx context.Context) (*Result, error) {
	database, view := i.session.resolveDatabase(i.stmt.View)
	if err := i.session.catalog.DropView(ctx, database, view, i.stmt.IfExists); err != nil {
		return nil, err
	}
	return emptyResult(), nil
}

type showInterpreter struct {
	session *Session
	stmt    *bendsql.ShowStmt
}

func (i *showInterpreter) Name() string { return "ShowInterpreter" }

func (i *showInterpreter) Execute(ctx context.Context) (*Result, error) {
	stringCol := []*types.DataType{types.New(types.KindString)}

	if i.stmt.Kind == bendsql.ShowDatabases {
		dbs, err := i.session.catalog.ListDatabases(ctx)
		if err != nil {
			return nil, err
		}
		res := &Result{Columns: []string{"Database"}, Types: stringCol}
		for _, db := range dbs {
			res.Rows = append(res.Rows, []types.Datum{db.Name})
		}
		return res, nil
	}

	tables, err := i.session.catalog.ListTables(ctx, i.session.current)
	if err != nil {
		return nil, err
	}
	res := &Result{
		Columns: []string{fmt.Sprintf("Tables_in_%s", i.session.current)},
		Types:   stringCol,
	}
	for _, t := range tables {
		res.Rows = append(res.Rows, []types.Datum{t.Name})
	}
	return res, nil
}
