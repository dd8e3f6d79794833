package bendsql

// === Statement classification ===

// StmtType represents the kind of SQL statement.
type StmtType int

// StmtTypeQuery and friends classify statement types.
const (
	StmtTypeQuery StmtType = iota
	StmtTypeInsert
	StmtTypeDDL
	StmtTypeUtility
)

func (t StmtType) String() string {
	switch t {
	case StmtTypeQuery:
		return "query"
	case StmtTypeInsert:
		return "insert"
	case StmtTypeDDL:
		return "ddl"
	}
	return "utility"
}

// Classify returns the statement type for a parsed statement.
func Classify(stmt Stmt) StmtType {
	switch stmt.(type) {
	case *SelectStmt, *ExistsTableStmt, *ShowStmt:
		return StmtTypeQuery
	case *InsertStmt:
		return StmtTypeInsert
	case *CreateDatabaseStmt, *DropDatabaseStmt, *CreateTableStmt, *DropTableStmt,
		*CreateViewStmt, *AlterViewStmt, *DropViewStmt:
		return StmtTypeDDL
	default:
		return StmtTypeUtility
	}
}

// === Table name collection ===

// CollectTableNames returns a deduplicated list of object names referenced
// by the statement: FROM targets, INSERT targets, and view definitions.
func CollectTableNames(stmt Stmt) []ObjectName {
	seen := make(map[ObjectName]bool)
	var tables []ObjectName

	add := func(n ObjectName) {
		if !seen[n] {
			seen[n] = true
			tables = append(tables, n)
		}
	}

	switch s := stmt.(type) {
	case *SelectStmt:
		if s.From != nil {
			add(*s.From)
		}
	case *InsertStmt:
		add(s.Table)
	case *CreateTableStmt:
		add(s.Table)
	case *DropTableStmt:
		add(s.Table)
	case *ExistsTableStmt:
		add(s.Table)
	case *CreateViewStmt:
		add(s.View)
		if s.Query != nil && s.Query.From != nil {
			add(*s.Query.From)
		}
	case *AlterViewStmt:
		add(s.View)
		if s.Query != nil && s.Query.From != nil {
			add(*s.Query.From)
		}
	case *DropViewStmt:
		add(s.View)
	}

	return tables
}

// === Expression walking ===

// WalkExpr calls fn for every node in the expression tree, parents before
// children. Traversal of a subtree stops when fn returns false.
func WalkExpr(expr Expr, fn func(Expr) bool) {
	if expr == nil || !fn(expr) {
		return
	}
	switch e := expr.(type) {
	case *FuncCall:
		for _, arg := range e.Args {
			WalkExpr(arg, fn)
		}
	case *BinaryExpr:
		WalkExpr(e.Left, fn)
		WalkExpr(e.Right, fn)
	case *UnaryExpr:
		WalkExpr(e.Expr, fn)
	case *CastExpr:
		WalkExpr(e.Expr, fn)
	case *ArrayExpr:
		for _, elem := range e.Elems {
			WalkExpr(elem, fn)
		}
	case *IndexExpr:
		WalkExpr(e.Expr, fn)
		WalkExpr(e.Index, fn)
	case *IsNullExpr:
		WalkExpr(e.Expr, fn)
	}
}

// ColumnRefs returns every column referenced by the expression, in
// first-appearance order, deduplicated.
func ColumnRefs(expr Expr) []*ColumnRef {
	seen := make(map[string]bool)
	var refs []*ColumnRef
	WalkExpr(expr, func(e Expr) bool {
		if ref, ok := e.(*ColumnRef); ok {
			key := ref.Table + "." + ref.Name
			if !seen[key] {
				seen[key] = true
				refs = append(refs, ref)
			}
		}
		return true
	})
	return refs
}
