package engine

import (
	"context"
	"fmt"
	"sort"

	"github.com/albinkc/databend/internal/bendsql"
	"github.com/albinkc/databend/internal/types"
)

// maxViewDepth bounds view-on-view expansion so that self-referential
// definitions fail instead of recursing forever.
const maxViewDepth = 16

type selectInterpreter struct {
	session *Session
	stmt    *bendsql.SelectStmt
	depth   int
}

func (i *selectInterpreter) Name() string { return "SelectInterpreter" }

func (i *selectInterpreter) Execute(ctx context.Context) (*Result, error) {
	src, err := i.source(ctx)
	if err != nil {
		return nil, err
	}

	rows, err := i.filter(src)
	if err != nil {
		return nil, err
	}
	if err := i.order(src, rows); err != nil {
		return nil, err
	}
	rows, err = i.window(rows)
	if err != nil {
		return nil, err
	}
	return i.project(src, rows)
}

// source holds the input relation of a SELECT before projection.
type selectSource struct {
	scope *scope
	rows  [][]types.Datum
}

func (i *selectInterpreter) source(ctx context.Context) (*selectSource, error) {
	if i.stmt.From == nil {
		// Constant SELECT, one virtual row with no columns in scope.
		return &selectSource{rows: [][]types.Datum{nil}}, nil
	}

	database, name := i.session.resolveDatabase(*i.stmt.From)

	tbl, err := i.session.catalog.GetTable(ctx, database, name)
	if err == nil {
		names, typs, err := columnTypes(tbl)
		if err != nil {
			return nil, err
		}
		b, err := i.session.store.Scan(tbl.ID, typs)
		if err != nil {
			return nil, err
		}
		src := &selectSource{scope: &scope{names: names, typs: typs}}
		for r := 0; r < b.NumRows(); r++ {
			src.rows = append(src.rows, b.Row(r))
		}
		return src, nil
	}

	view, verr := i.session.catalog.GetView(ctx, database, name)
	if verr != nil {
		return nil, err
	}
	return i.expandView(ctx, view.Definition)
}

func (i *selectInterpreter) expandView(ctx context.Context, definition string) (*selectSource, error) {
	if i.depth >= maxViewDepth {
		return nil, fmt.Errorf("view nesting exceeds %d levels", maxViewDepth)
	}
	stmt, err := bendsql.Parse(definition)
	if err != nil {
		return nil, fmt.Errorf("view definition: %w", err)
	}
	sel, ok := stmt.(*bendsql.SelectStmt)
	if !ok {
		return nil, fmt.Errorf("view definition is not a SELECT")
	}
	sub := &selectInterpreter{session: i.session, stmt: sel, depth: i.depth + 1}
	res, err := sub.Execute(ctx)
	if err != nil {
		return nil, err
	}
	return &selectSource{
		scope: &scope{names: res.Columns, typs: res.Types},
		rows:  res.Rows,
	}, nil
}

func (i *selectInterpreter) filter(src *selectSource) ([][]types.Datum, error) {
	if i.stmt.Where == nil {
		return src.rows, nil
	}
	var kept [][]types.Datum
	for _, row := range src.rows {
		d, err := evalExpr(i.stmt.Where, src.rowScope(row))
		if err != nil {
			return nil, err
		}
		if b, ok := d.(bool); ok && b {
			kept = append(kept, row)
		}
	}
	return kept, nil
}

func (i *selectInterpreter) order(src *selectSource, rows [][]types.Datum) error {
	if len(i.stmt.OrderBy) == 0 {
		return nil
	}

	type keyed struct {
		row  []types.Datum
		keys []types.Datum
	}
	ks := make([]keyed, len(rows))
	for r, row := range rows {
		ks[r].row = row
		ks[r].keys = make([]types.Datum, len(i.stmt.OrderBy))
		for k, item := range i.stmt.OrderBy {
			d, err := evalExpr(item.Expr, src.rowScope(row))
			if err != nil {
				return err
			}
			ks[r].keys[k] = d
		}
	}

	var sortErr error
	sort.SliceStable(ks, func(a, b int) bool {
		for k, item := range i.stmt.OrderBy {
			c, err := compareDatums(ks[a].keys[k], ks[b].keys[k])
			if err != nil {
				if sortErr == nil {
					sortErr = err
				}
				return false
			}
			if c == 0 {
				continue
			}
			if item.Desc {
				return c > 0
			}
			return c < 0
		}
		return false
	})
	if sortErr != nil {
		return sortErr
	}
	for r := range ks {
		rows[r] = ks[r].row
	}
	return nil
}

func (i *selectInterpreter) window(rows [][]types.Datum) ([][]types.Datum, error) {
	offset, err := constantCount(i.stmt.Offset, "OFFSET")
	if err != nil {
		return nil, err
	}
	if offset > 0 {
		if offset >= int64(len(rows)) {
			rows = nil
		} else {
			rows = rows[offset:]
		}
	}
	if i.stmt.Limit != nil {
		limit, err := constantCount(i.stmt.Limit, "LIMIT")
		if err != nil {
			return nil, err
		}
		if limit < int64(len(rows)) {
			rows = rows[:limit]
		}
	}
	return rows, nil
}

func (i *selectInterpreter) project(src *selectSource, rows [][]types.Datum) (*Result, error) {
	exprs, names, err := i.expandItems(src)
	if err != nil {
		return nil, err
	}

	res := &Result{Columns: names}
	res.Types = make([]*types.DataType, len(exprs))
	for c, e := range exprs {
		t, err := inferType(e, src.scope)
		if err != nil {
			return nil, err
		}
		res.Types[c] = t
	}

	for _, row := range rows {
		out := make([]types.Datum, len(exprs))
		for c, e := range exprs {
			d, err := evalExpr(e, src.rowScope(row))
			if err != nil {
				return nil, err
			}
			out[c] = d
		}
		res.Rows = append(res.Rows, out)
	}
	return res, nil
}

// expandItems resolves the select list, replacing * with one column
// reference per source column.
func (i *selectInterpreter) expandItems(src *selectSource) ([]bendsql.Expr, []string, error) {
	var exprs []bendsql.Expr
	var names []string
	for _, item := range i.stmt.Items {
		if item.Star {
			if src.scope == nil {
				return nil, nil, fmt.Errorf("SELECT * requires a FROM clause")
			}
			for _, col := range src.scope.names {
				exprs = append(exprs, &bendsql.ColumnRef{Name: col})
				names = append(names, col)
			}
			continue
		}
		exprs = append(exprs, item.Expr)
		if item.Alias != "" {
			names = append(names, item.Alias)
		} else {
			names = append(names, bendsql.FormatExpr(item.Expr))
		}
	}
	return exprs, names, nil
}

func (s *selectSource) rowScope(row []types.Datum) *scope {
	if s.scope == nil {
		return nil
	}
	return &scope{names: s.scope.names, typs: s.scope.typs, row: row}
}

// constantCount evaluates a LIMIT or OFFSET expression to a non-negative
// integer. A nil expression yields zero.
func constantCount(e bendsql.Expr, clause string) (int64, error) {
	if e == nil {
		return 0, nil
	}
	d, err := evalExpr(e, nil)
	if err != nil {
		return 0, err
	}
	var n int64
	switch v := d.(type) {
	case int64:
		n = v
	case uint64:
		n = int64(v)
	default:
		return 0, fmt.Errorf("%s requires an integer constant", clause)
	}
	if n < 0 {
		return 0, fmt.Errorf("%s must not be negative", clause)
	}
	return n, nil
}
