package engine

import (
	"context"
	"fmt"
	"strings"

	"github.com/albinkc/databend/internal/bendsql"
	"github.com/albinkc/databend/internal/block"
	"github.com/albinkc/databend/internal/types"
)

type insertInterpreter struct {
	session *Session
	stmt    *bendsql.InsertStmt
}

func (i *insertInterpreter) Name() string { return "InsertInterpreter" }

func (i *insertInterpreter) Execute(ctx context.Context) (*Result, error) {
	database, table := i.session.resolveDatabase(i.stmt.Table)
	tbl, err := i.session.catalog.GetTable(ctx, database, table)
	if err != nil {
		return nil, err
	}
	names, typs, err := columnTypes(tbl)
	if err != nil {
		return nil, err
	}

	// Map each VALUES position to a destination column index.
	dest, err := destColumns(names, i.stmt.Columns)
	if err != nil {
		return nil, err
	}

	cols := make([][]types.Datum, len(names))
	for _, row := range i.stmt.Rows {
		if len(row) != len(dest) {
			return nil, fmt.Errorf("expected %d values per row, got %d", len(dest), len(row))
		}
		filled := make([]bool, len(names))
		for pos, expr := range row {
			d, err := evalExpr(expr, nil)
			if err != nil {
				return nil, err
			}
			ci := dest[pos]
			cast, err := types.Cast(d, typs[ci])
			if err != nil {
				return nil, fmt.Errorf("column %q: %w", names[ci], err)
			}
			cols[ci] = append(cols[ci], cast)
			filled[ci] = true
		}
		for ci, ok := range filled {
			if ok {
				continue
			}
			if !typs[ci].Nullable {
				return nil, fmt.Errorf("column %q has no default and is not nullable", names[ci])
			}
			cols[ci] = append(cols[ci], nil)
		}
	}

	entries := make([]block.Entry, len(names))
	for ci := range names {
		entries[ci] = block.Entry{Type: typs[ci], Data: cols[ci]}
	}
	b, err := block.New(entries)
	if err != nil {
		return nil, err
	}
	if err := i.session.store.Append(tbl.ID, typs, b); err != nil {
		return nil, err
	}
	return emptyResult(), nil
}

// destColumns resolves an optional INSERT column list against the table
// schema, defaulting to all columns in declared order.
func destColumns(names []string, listed []string) ([]int, error) {
	if len(listed) == 0 {
		dest := make([]int, len(names))
		for i := range dest {
			dest[i] = i
		}
		return dest, nil
	}
	dest := make([]int, len(listed))
	used := make(map[int]bool, len(listed))
	for pos, col := range listed {
		found := -1
		for ci, name := range names {
			if strings.EqualFold(name, col) {
				found = ci
				break
			}
		}
		if found < 0 {
			return nil, fmt.Errorf("unknown column %q", col)
		}
		if used[found] {
			return nil, fmt.Errorf("column %q listed twice", col)
		}
		used[found] = true
		dest[pos] = found
	}
	return dest, nil
}
