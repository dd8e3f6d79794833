package bendsql

import (
	"strings"

	"github.com/albinkc/databend/internal/types"
)

// Format formats a statement AST back to a SQL string. The output is flat
// and uses bare identifiers; it round-trips through Parse.
func Format(stmt Stmt) string {
	f := &formatter{}
	f.formatStmt(stmt)
	return strings.TrimSpace(f.buf.String())
}

// FormatExpr formats an expression AST back to a SQL string.
func FormatExpr(expr Expr) string {
	f := &formatter{}
	f.formatExpr(expr)
	return strings.TrimSpace(f.buf.String())
}

// formatter is a simple SQL string builder. No indentation or pretty-printing.
type formatter struct {
	buf strings.Builder
}

func (f *formatter) write(s string) {
	f.buf.WriteString(s)
}

func (f *formatter) space() {
	f.buf.WriteByte(' ')
}

// commaSep writes items separated by ", ".
func (f *formatter) commaSep(n int, fn func(i int)) {
	for i := 0; i < n; i++ {
		if i > 0 {
			f.write(", ")
		}
		fn(i)
	}
}

func (f *formatter) writeObjectName(n ObjectName) {
	if n.Database != "" {
		f.write(n.Database)
		f.write(".")
	}
	f.write(n.Name)
}

func (f *formatter) formatStmt(stmt Stmt) {
	switch s := stmt.(type) {
	case *CreateDatabaseStmt:
		f.write("CREATE DATABASE ")
		if s.IfNotExists {
			f.write("IF NOT EXISTS ")
		}
		f.write(s.Name)

	case *DropDatabaseStmt:
		f.write("DROP DATABASE ")
		if s.IfExists {
			f.write("IF EXISTS ")
		}
		f.write(s.Name)

	case *UseStmt:
		f.write("USE ")
		f.write(s.Name)

	case *CreateTableStmt:
		f.write("CREATE TABLE ")
		if s.IfNotExists {
			f.write("IF NOT EXISTS ")
		}
		f.writeObjectName(s.Table)
		f.write(" (")
		f.commaSep(len(s.Columns), func(i int) {
			f.write(s.Columns[i].Name)
			f.space()
			f.write(s.Columns[i].Type.String())
		})
		f.write(")")

	case *DropTableStmt:
		f.write("DROP TABLE ")
		if s.IfExists {
			f.write("IF EXISTS ")
		}
		f.writeObjectName(s.Table)

	case *ExistsTableStmt:
		f.write("EXISTS TABLE ")
		f.writeObjectName(s.Table)

	case *CreateViewStmt:
		f.write("CREATE VIEW ")
		if s.IfNotExists {
			f.write("IF NOT EXISTS ")
		}
		f.writeObjectName(s.View)
		f.write(" AS ")
		f.formatStmt(s.Query)

	case *AlterViewStmt:
		f.write("ALTER VIEW ")
		f.writeObjectName(s.View)
		f.write(" AS ")
		f.formatStmt(s.Query)

	case *DropViewStmt:
		f.write("DROP VIEW ")
		if s.IfExists {
			f.write("IF EXISTS ")
		}
		f.writeObjectName(s.View)

	case *ShowStmt:
		if s.Kind == ShowDatabases {
			f.write("SHOW DATABASES")
		} else {
			f.write("SHOW TABLES")
		}

	case *InsertStmt:
		f.write("INSERT INTO ")
		f.writeObjectName(s.Table)
		if len(s.Columns) > 0 {
			f.write(" (")
			f.commaSep(len(s.Columns), func(i int) { f.write(s.Columns[i]) })
			f.write(")")
		}
		f.write(" VALUES ")
		f.commaSep(len(s.Rows), func(i int) {
			f.write("(")
			f.commaSep(len(s.Rows[i]), func(j int) { f.formatExpr(s.Rows[i][j]) })
			f.write(")")
		})

	case *SelectStmt:
		f.write("SELECT ")
		f.commaSep(len(s.Items), func(i int) {
			item := s.Items[i]
			if item.Star {
				f.write("*")
				return
			}
			f.formatExpr(item.Expr)
			if item.Alias != "" {
				f.write(" AS ")
				f.write(item.Alias)
			}
		})
		if s.From != nil {
			f.write(" FROM ")
			f.writeObjectName(*s.From)
		}
		if s.Where != nil {
			f.write(" WHERE ")
			f.formatExpr(s.Where)
		}
		if len(s.OrderBy) > 0 {
			f.write(" ORDER BY ")
			f.commaSep(len(s.OrderBy), func(i int) {
				f.formatExpr(s.OrderBy[i].Expr)
				if s.OrderBy[i].Desc {
					f.write(" DESC")
				}
			})
		}
		if s.Limit != nil {
			f.write(" LIMIT ")
			f.formatExpr(s.Limit)
		}
		if s.Offset != nil {
			f.write(" OFFSET ")
			f.formatExpr(s.Offset)
		}
	}
}

func (f *formatter) formatExpr(expr Expr) {
	switch e := expr.(type) {
	case *Literal:
		f.write(formatLiteral(e.Value))

	case *ColumnRef:
		if e.Table != "" {
			f.write(e.Table)
			f.write(".")
		}
		f.write(e.Name)

	case *FuncCall:
		f.write(e.Name)
		f.write("(")
		f.commaSep(len(e.Args), func(i int) { f.formatExpr(e.Args[i]) })
		f.write(")")

	case *BinaryExpr:
		f.write("(")
		f.formatExpr(e.Left)
		f.space()
		f.write(e.Op.String())
		f.space()
		f.formatExpr(e.Right)
		f.write(")")

	case *UnaryExpr:
		f.write("(")
		f.write(e.Op.String())
		if e.Op == TOKEN_NOT {
			f.space()
		}
		f.formatExpr(e.Expr)
		f.write(")")

	case *CastExpr:
		f.write("CAST(")
		f.formatExpr(e.Expr)
		f.write(" AS ")
		f.write(e.Type.String())
		f.write(")")

	case *ArrayExpr:
		f.write("[")
		f.commaSep(len(e.Elems), func(i int) { f.formatExpr(e.Elems[i]) })
		f.write("]")

	case *IndexExpr:
		f.formatExpr(e.Expr)
		f.write("[")
		f.formatExpr(e.Index)
		f.write("]")

	case *IsNullExpr:
		f.formatExpr(e.Expr)
		if e.Not {
			f.write(" IS NOT NULL")
		} else {
			f.write(" IS NULL")
		}
	}
}

// formatLiteral renders a literal value as SQL source text.
func formatLiteral(v types.Datum) string {
	switch val := v.(type) {
	case nil:
		return "NULL"
	case bool:
		if val {
			return "TRUE"
		}
		return "FALSE"
	case string:
		return "'" + strings.ReplaceAll(val, "'", "''") + "'"
	default:
		return types.Render(v)
	}
}
