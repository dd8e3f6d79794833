package bendsql

import "github.com/albinkc/databend/internal/types"

// Node is the base interface for all AST nodes.
type Node interface {
	node()
}

// Expr is a marker interface for expression nodes.
type Expr interface {
	Node
	exprNode()
}

// Stmt is a marker interface for statement nodes.
type Stmt interface {
	Node
	stmtNode()
}

// ObjectName is an optionally database-qualified object name.
type ObjectName struct {
	Database string // empty = current database
	Name     string
}

func (n ObjectName) String() string {
	if n.Database != "" {
		return n.Database + "." + n.Name
	}
	return n.Name
}

// === Statement Nodes ===

// CreateDatabaseStmt represents CREATE DATABASE [IF NOT EXISTS] name.
type CreateDatabaseStmt struct {
	IfNotExists bool
	Name        string
}

// DropDatabaseStmt represents DROP DATABASE [IF EXISTS] name.
type DropDatabaseStmt struct {
	IfExists bool
	Name     string
}

// UseStmt represents USE name.
type UseStmt struct {
	Name string
}

// ColumnDef is one column declaration in CREATE TABLE.
type ColumnDef struct {
	Name string
	Type *types.DataType
}

// CreateTableStmt represents CREATE TABLE [IF NOT EXISTS] [db.]t (cols).
type CreateTableStmt struct {
	IfNotExists bool
	Table       ObjectName
	Columns     []ColumnDef
}

// DropTableStmt represents DROP TABLE [IF EXISTS] [db.]t.
type DropTableStmt struct {
	IfExists bool
	Table    ObjectName
}

// ExistsTableStmt represents EXISTS TABLE [db.]t, which returns 1 or 0.
type ExistsTableStmt struct {
	Table ObjectName
}

// CreateViewStmt represents CREATE VIEW [IF NOT EXISTS] [db.]v AS SELECT.
type CreateViewStmt struct {
	IfNotExists bool
	View        ObjectName
	Query       *SelectStmt
}

// AlterViewStmt represents ALTER VIEW [db.]v AS SELECT.
type AlterViewStmt struct {
	View  ObjectName
	Query *SelectStmt
}

// DropViewStmt represents DROP VIEW [IF EXISTS] [db.]v.
type DropViewStmt struct {
	IfExists bool
	View     ObjectName
}

// ShowKind selects what SHOW lists.
type ShowKind int

// ShowDatabases and ShowTables enumerate the supported SHOW statements.
const (
	ShowDatabases ShowKind = iota
	ShowTables
)

// ShowStmt represents SHOW DATABASES / SHOW TABLES.
type ShowStmt struct {
	Kind ShowKind
}

// InsertStmt represents INSERT INTO [db.]t [(cols)] VALUES (...), (...).
type InsertStmt struct {
	Table   ObjectName
	Columns []string // empty = all columns in table order
	Rows    [][]Expr
}

// SelectItem is one item in the SELECT list.
type SelectItem struct {
	Expr  Expr
	Alias string
	Star  bool // SELECT *
}

// OrderByItem is one ORDER BY expression with direction.
type OrderByItem struct {
	Expr Expr
	Desc bool
}

// SelectStmt represents SELECT items [FROM [db.]t] [WHERE] [ORDER BY]
// [LIMIT [OFFSET]].
type SelectStmt struct {
	Items   []SelectItem
	From    *ObjectName // nil = no FROM clause (constant SELECT)
	Where   Expr
	OrderBy []OrderByItem
	Limit   Expr
	Offset  Expr
}

func (*CreateDatabaseStmt) node() {}
func (*DropDatabaseStmt) node()   {}
func (*UseStmt) node()            {}
func (*CreateTableStmt) node()    {}
func (*DropTableStmt) node()      {}
func (*ExistsTableStmt) node()    {}
func (*CreateViewStmt) node()     {}
func (*AlterViewStmt) node()      {}
func (*DropViewStmt) node()       {}
func (*ShowStmt) node()           {}
func (*InsertStmt) node()         {}
func (*SelectStmt) node()         {}

func (*CreateDatabaseStmt) stmtNode() {}
func (*DropDatabaseStmt) stmtNode()   {}
func (*UseStmt) stmtNode()            {}
func (*CreateTableStmt) stmtNode()    {}
func (*DropTableStmt) stmtNode()      {}
func (*ExistsTableStmt) stmtNode()    {}
func (*CreateViewStmt) stmtNode()     {}
func (*AlterViewStmt) stmtNode()      {}
func (*DropViewStmt) stmtNode()       {}
func (*ShowStmt) stmtNode()           {}
func (*InsertStmt) stmtNode()         {}
func (*SelectStmt) stmtNode()         {}

// === Expression Nodes ===

// Literal is a constant: number, string, boolean, or NULL.
type Literal struct {
	Value types.Datum // nil for NULL
}

// ColumnRef references a column, optionally table-qualified.
type ColumnRef struct {
	Table string
	Name  string
}

// FuncCall is a function invocation, e.g. concat(a, b).
type FuncCall struct {
	Name string // lower-cased
	Args []Expr
}

// BinaryExpr is a binary operation.
type BinaryExpr struct {
	Left  Expr
	Op    TokenType
	Right Expr
}

// UnaryExpr is a prefix operation: -, +, NOT.
type UnaryExpr struct {
	Op   TokenType
	Expr Expr
}

// CastExpr is expr::Type or CAST(expr AS Type).
type CastExpr struct {
	Expr Expr
	Type *types.DataType
}

// ArrayExpr is an array literal [e1, e2, ...].
type ArrayExpr struct {
	Elems []Expr
}

// IndexExpr is array element access expr[index], 1-based.
type IndexExpr struct {
	Expr  Expr
	Index Expr
}

// IsNullExpr is expr IS [NOT] NULL.
type IsNullExpr struct {
	Expr Expr
	Not  bool
}

func (*Literal) node()    {}
func (*ColumnRef) node()  {}
func (*FuncCall) node()   {}
func (*BinaryExpr) node() {}
func (*UnaryExpr) node()  {}
func (*CastExpr) node()   {}
func (*ArrayExpr) node()  {}
func (*IndexExpr) node()  {}
func (*IsNullExpr) node() {}

func (*Literal) exprNode()    {}
func (*ColumnRef) exprNode()  {}
func (*FuncCall) exprNode()   {}
func (*BinaryExpr) exprNode() {}
func (*UnaryExpr) exprNode()  {}
func (*CastExpr) exprNode()   {}
func (*ArrayExpr) exprNode()  {}
func (*IndexExpr) exprNode()  {}
func (*IsNullExpr) exprNode() {}
