package bendsql

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/albinkc/databend/internal/types"
)

// === Parse entry point tests ===

func TestParse_EmptySQL(t *testing.T) {
	_, err := Parse("")
	require.Error(t, err)
}

func TestParse_MultiStatement(t *testing.T) {
	_, err := Parse("SELECT 1; SELECT 2")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "multi-statement")
}

func TestParse_TrailingSemicolon(t *testing.T) {
	stmt, err := Parse("SELECT 1;")
	require.NoError(t, err)
	require.IsType(t, &SelectStmt{}, stmt)
}

func TestParse_InvalidSQL(t *testing.T) {
	_, err := Parse("SELEKT 1")
	require.Error(t, err)
}

// === ParseExpr tests ===

func TestParseExpr_Simple(t *testing.T) {
	expr, err := ParseExpr("a = 1")
	require.NoError(t, err)
	require.IsType(t, &BinaryExpr{}, expr)

	bin := expr.(*BinaryExpr)
	assert.Equal(t, TOKEN_EQ, bin.Op)
	assert.IsType(t, &ColumnRef{}, bin.Left)
	assert.IsType(t, &Literal{}, bin.Right)
}

func TestParseExpr_TrailingGarbage(t *testing.T) {
	_, err := ParseExpr("1 + 2 )")
	require.Error(t, err)
}

func TestParseExpr_Empty(t *testing.T) {
	_, err := ParseExpr("")
	require.Error(t, err)
}

// === DDL statements ===

func TestParse_CreateDatabase(t *testing.T) {
	stmt, err := Parse("CREATE DATABASE IF NOT EXISTS data_type")
	require.NoError(t, err)
	cd := stmt.(*CreateDatabaseStmt)
	assert.True(t, cd.IfNotExists)
	assert.Equal(t, "data_type", cd.Name)
}

func TestParse_DropDatabase(t *testing.T) {
	stmt, err := Parse("DROP DATABASE IF EXISTS data_type")
	require.NoError(t, err)
	dd := stmt.(*DropDatabaseStmt)
	assert.True(t, dd.IfExists)
	assert.Equal(t, "data_type", dd.Name)
}

func TestParse_Use(t *testing.T) {
	stmt, err := Parse("USE data_type")
	require.NoError(t, err)
	assert.Equal(t, "data_type", stmt.(*UseStmt).Name)
}

func TestParse_CreateTable(t *testing.T) {
	stmt, err := Parse("CREATE TABLE IF NOT EXISTS db1.t(col1 Array(Int8), col2 String NULL, col3 Array(Array(Int8 NULL)))")
	require.NoError(t, err)
	ct := stmt.(*CreateTableStmt)
	assert.True(t, ct.IfNotExists)
	assert.Equal(t, ObjectName{Database: "db1", Name: "t"}, ct.Table)
	require.Len(t, ct.Columns, 3)

	assert.Equal(t, "Array(Int8)", ct.Columns[0].Type.String())
	assert.Equal(t, "String NULL", ct.Columns[1].Type.String())
	assert.Equal(t, "Array(Array(Int8 NULL))", ct.Columns[2].Type.String())
}

func TestParse_DropTable(t *testing.T) {
	stmt, err := Parse("DROP TABLE IF EXISTS t")
	require.NoError(t, err)
	dt := stmt.(*DropTableStmt)
	assert.True(t, dt.IfExists)
	assert.Equal(t, "t", dt.Table.Name)
}

func TestParse_ExistsTable(t *testing.T) {
	stmt, err := Parse("EXISTS TABLE db1.t")
	require.NoError(t, err)
	et := stmt.(*ExistsTableStmt)
	assert.Equal(t, ObjectName{Database: "db1", Name: "t"}, et.Table)
}

func TestParse_Views(t *testing.T) {
	stmt, err := Parse("CREATE VIEW v AS SELECT a FROM t")
	require.NoError(t, err)
	cv := stmt.(*CreateViewStmt)
	assert.Equal(t, "v", cv.View.Name)
	require.NotNil(t, cv.Query)

	stmt, err = Parse("ALTER VIEW v AS SELECT b FROM t")
	require.NoError(t, err)
	av := stmt.(*AlterViewStmt)
	require.NotNil(t, av.Query)

	stmt, err = Parse("DROP VIEW IF EXISTS v")
	require.NoError(t, err)
	assert.True(t, stmt.(*DropViewStmt).IfExists)
}

func TestParse_Show(t *testing.T) {
	stmt, err := Parse("SHOW DATABASES")
	require.NoError(t, err)
	assert.Equal(t, ShowDatabases, stmt.(*ShowStmt).Kind)

	stmt, err = Parse("SHOW TABLES")
	require.NoError(t, err)
	assert.Equal(t, ShowTables, stmt.(*ShowStmt).Kind)
}

// === INSERT ===

func TestParse_Insert(t *testing.T) {
	stmt, err := Parse("INSERT INTO t VALUES ([1,2,3], 'a'), ([4], 'b')")
	require.NoError(t, err)
	ins := stmt.(*InsertStmt)
	assert.Empty(t, ins.Columns)
	require.Len(t, ins.Rows, 2)
	require.Len(t, ins.Rows[0], 2)
	assert.IsType(t, &ArrayExpr{}, ins.Rows[0][0])
}

func TestParse_InsertWithColumns(t *testing.T) {
	stmt, err := Parse("INSERT INTO t (a, b) VALUES (1, 2)")
	require.NoError(t, err)
	ins := stmt.(*InsertStmt)
	assert.Equal(t, []string{"a", "b"}, ins.Columns)
}

// === SELECT ===

func TestParse_SelectShape(t *testing.T) {
	stmt, err := Parse("SELECT a, concat(b, c) AS bc FROM db1.t WHERE a > 1 ORDER BY a DESC LIMIT 10 OFFSET 2")
	require.NoError(t, err)
	sel := stmt.(*SelectStmt)

	require.Len(t, sel.Items, 2)
	assert.Equal(t, "bc", sel.Items[1].Alias)
	require.NotNil(t, sel.From)
	assert.Equal(t, ObjectName{Database: "db1", Name: "t"}, *sel.From)
	require.NotNil(t, sel.Where)
	require.Len(t, sel.OrderBy, 1)
	assert.True(t, sel.OrderBy[0].Desc)
	require.NotNil(t, sel.Limit)
	require.NotNil(t, sel.Offset)
}

func TestParse_SelectStar(t *testing.T) {
	stmt, err := Parse("SELECT * FROM t")
	require.NoError(t, err)
	sel := stmt.(*SelectStmt)
	require.Len(t, sel.Items, 1)
	assert.True(t, sel.Items[0].Star)
}

func TestParse_SelectConstant(t *testing.T) {
	stmt, err := Parse("SELECT 1 + 2")
	require.NoError(t, err)
	sel := stmt.(*SelectStmt)
	assert.Nil(t, sel.From)
}

// === Expressions ===

func TestParse_FuncCallLowercasesName(t *testing.T) {
	expr, err := ParseExpr("CONCAT(a, b)")
	require.NoError(t, err)
	call := expr.(*FuncCall)
	assert.Equal(t, "concat", call.Name)
	assert.Len(t, call.Args, 2)
}

func TestParse_ConcatOperator(t *testing.T) {
	expr, err := ParseExpr("a || b || c")
	require.NoError(t, err)
	outer := expr.(*BinaryExpr)
	assert.Equal(t, TOKEN_DPIPE, outer.Op)
	// Left associative: (a || b) || c.
	assert.IsType(t, &BinaryExpr{}, outer.Left)
}

func TestParse_Precedence(t *testing.T) {
	expr, err := ParseExpr("1 + 2 * 3")
	require.NoError(t, err)
	add := expr.(*BinaryExpr)
	assert.Equal(t, TOKEN_PLUS, add.Op)
	mul := add.Right.(*BinaryExpr)
	assert.Equal(t, TOKEN_STAR, mul.Op)
}

func TestParse_PostfixForms(t *testing.T) {
	expr, err := ParseExpr("a[1]")
	require.NoError(t, err)
	assert.IsType(t, &IndexExpr{}, expr)

	expr, err = ParseExpr("a::Int64")
	require.NoError(t, err)
	cast := expr.(*CastExpr)
	assert.Equal(t, types.KindInt64, cast.Type.Kind)

	expr, err = ParseExpr("a IS NOT NULL")
	require.NoError(t, err)
	isNull := expr.(*IsNullExpr)
	assert.True(t, isNull.Not)
}

func TestParse_CastFunctionForm(t *testing.T) {
	expr, err := ParseExpr("CAST(a AS Array(Int8))")
	require.NoError(t, err)
	cast := expr.(*CastExpr)
	assert.Equal(t, "Array(Int8)", cast.Type.String())
}

func TestParse_Literals(t *testing.T) {
	tests := []struct {
		name string
		sql  string
		want any
	}{
		{"int", "42", int64(42)},
		{"float", "1.5", 1.5},
		{"string", "'hello'", "hello"},
		{"escaped quote", "'it''s'", "it's"},
		{"null", "NULL", nil},
		{"true", "TRUE", true},
		{"false", "FALSE", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			expr, err := ParseExpr(tt.sql)
			require.NoError(t, err)
			lit := expr.(*Literal)
			assert.Equal(t, tt.want, lit.Value)
		})
	}
}

func TestParse_ArrayLiteral(t *testing.T) {
	expr, err := ParseExpr("[[1,2],[3]]")
	require.NoError(t, err)
	arr := expr.(*ArrayExpr)
	require.Len(t, arr.Elems, 2)
	assert.IsType(t, &ArrayExpr{}, arr.Elems[0])

	expr, err = ParseExpr("[]")
	require.NoError(t, err)
	assert.Empty(t, expr.(*ArrayExpr).Elems)
}
