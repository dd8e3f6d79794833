package bendsql

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/albinkc/databend/internal/types"
)

// Parser parses SQL into an AST.
type Parser struct {
	lexer  *Lexer
	token  Token // current token
	peek   Token // lookahead token
	errors []error
}

// NewParser creates a new parser for the given SQL input.
func NewParser(sql string) *Parser {
	p := &Parser{lexer: NewLexer(sql)}
	// Initialize two-token lookahead.
	p.nextToken()
	p.nextToken()
	return p
}

// Parse parses the SQL and returns the top-level statement.
// Returns an error if parsing fails or if multi-statement input is detected.
func Parse(sql string) (Stmt, error) {
	sql = strings.TrimSpace(sql)
	if sql == "" {
		return nil, fmt.Errorf("empty SQL")
	}

	p := NewParser(sql)
	stmt := p.parseTopLevel()
	if len(p.errors) > 0 {
		return nil, p.errors[0]
	}

	// Trailing semicolons are allowed; anything else is a second statement.
	for p.token.Type == TOKEN_SEMICOLON {
		p.nextToken()
	}
	if p.token.Type != TOKEN_EOF {
		return nil, fmt.Errorf("multi-statement queries are not allowed")
	}

	return stmt, nil
}

// ParseExpr parses a standalone expression from SQL text.
func ParseExpr(sql string) (Expr, error) {
	sql = strings.TrimSpace(sql)
	if sql == "" {
		return nil, fmt.Errorf("empty expression")
	}

	p := NewParser(sql)
	expr := p.parseExpression()
	if len(p.errors) > 0 {
		return nil, p.errors[0]
	}
	if p.token.Type != TOKEN_EOF {
		return nil, fmt.Errorf("unexpected token after expression: %s", p.token.Literal)
	}
	return expr, nil
}

func (p *Parser) nextToken() {
	p.token = p.peek
	p.peek = p.lexer.NextToken()
}

func (p *Parser) errorf(format string, args ...any) {
	p.errors = append(p.errors, fmt.Errorf(format, args...))
}

// expect consumes the current token if it matches, otherwise records an error.
func (p *Parser) expect(t TokenType) Token {
	tok := p.token
	if tok.Type != t {
		p.errorf("expected %s, got %q", t, tok.Literal)
		return tok
	}
	p.nextToken()
	return tok
}

// accept consumes the current token if it matches and reports whether it did.
func (p *Parser) accept(t TokenType) bool {
	if p.token.Type == t {
		p.nextToken()
		return true
	}
	return false
}

// parseTopLevel dispatches to the appropriate statement parser.
func (p *Parser) parseTopLevel() Stmt {
	switch p.token.Type {
	case TOKEN_SELECT:
		return p.parseSelectStatement()
	case TOKEN_INSERT:
		return p.parseInsertStatement()
	case TOKEN_CREATE:
		return p.parseCreateStatement()
	case TOKEN_DROP:
		return p.parseDropStatement()
	case TOKEN_ALTER:
		return p.parseAlterStatement()
	case TOKEN_USE:
		p.nextToken()
		name := p.expect(TOKEN_IDENT)
		return &UseStmt{Name: name.Literal}
	case TOKEN_SHOW:
		return p.parseShowStatement()
	case TOKEN_EXISTS:
		p.nextToken()
		p.expect(TOKEN_TABLE)
		return &ExistsTableStmt{Table: p.parseObjectName()}
	default:
		p.errorf("unexpected statement start %q", p.token.Literal)
		return nil
	}
}

// parseObjectName parses name or db.name.
func (p *Parser) parseObjectName() ObjectName {
	first := p.expect(TOKEN_IDENT)
	if p.accept(TOKEN_DOT) {
		second := p.expect(TOKEN_IDENT)
		return ObjectName{Database: first.Literal, Name: second.Literal}
	}
	return ObjectName{Name: first.Literal}
}

// parseIfNotExists consumes an optional IF NOT EXISTS.
func (p *Parser) parseIfNotExists() bool {
	if p.token.Type == TOKEN_IF && p.peek.Type == TOKEN_NOT {
		p.nextToken()
		p.nextToken()
		p.expect(TOKEN_EXISTS)
		return true
	}
	return false
}

// parseIfExists consumes an optional IF EXISTS.
func (p *Parser) parseIfExists() bool {
	if p.token.Type == TOKEN_IF && p.peek.Type == TOKEN_EXISTS {
		p.nextToken()
		p.nextToken()
		return true
	}
	return false
}

func (p *Parser) parseCreateStatement() Stmt {
	p.expect(TOKEN_CREATE)
	switch p.token.Type {
	case TOKEN_DATABASE:
		p.nextToken()
		ifNotExists := p.parseIfNotExists()
		name := p.expect(TOKEN_IDENT)
		return &CreateDatabaseStmt{IfNotExists: ifNotExists, Name: name.Literal}

	case TOKEN_TABLE:
		p.nextToken()
		ifNotExists := p.parseIfNotExists()
		table := p.parseObjectName()
		cols := p.parseColumnDefs()
		return &CreateTableStmt{IfNotExists: ifNotExists, Table: table, Columns: cols}

	case TOKEN_VIEW:
		p.nextToken()
		ifNotExists := p.parseIfNotExists()
		view := p.parseObjectName()
		p.expect(TOKEN_AS)
		query := p.parseSelectStatement()
		sel, _ := query.(*SelectStmt)
		return &CreateViewStmt{IfNotExists: ifNotExists, View: view, Query: sel}

	default:
		p.errorf("expected DATABASE, TABLE, or VIEW after CREATE, got %q", p.token.Literal)
		return nil
	}
}

func (p *Parser) parseDropStatement() Stmt {
	p.expect(TOKEN_DROP)
	switch p.token.Type {
	case TOKEN_DATABASE:
		p.nextToken()
		ifExists := p.parseIfExists()
		name := p.expect(TOKEN_IDENT)
		return &DropDatabaseStmt{IfExists: ifExists, Name: name.Literal}

	case TOKEN_TABLE:
		p.nextToken()
		ifExists := p.parseIfExists()
		return &DropTableStmt{IfExists: ifExists, Table: p.parseObjectName()}

	case TOKEN_VIEW:
		p.nextToken()
		ifExists := p.parseIfExists()
		return &DropViewStmt{IfExists: ifExists, View: p.parseObjectName()}

	default:
		p.errorf("expected DATABASE, TABLE, or VIEW after DROP, got %q", p.token.Literal)
		return nil
	}
}

func (p *Parser) parseAlterStatement() Stmt {
	p.expect(TOKEN_ALTER)
	p.expect(TOKEN_VIEW)
	view := p.parseObjectName()
	p.expect(TOKEN_AS)
	query := p.parseSelectStatement()
	sel, _ := query.(*SelectStmt)
	return &AlterViewStmt{View: view, Query: sel}
}

func (p *Parser) parseShowStatement() Stmt {
	p.expect(TOKEN_SHOW)
	switch p.token.Type {
	case TOKEN_DATABASES:
		p.nextToken()
		return &ShowStmt{Kind: ShowDatabases}
	case TOKEN_TABLES:
		p.nextToken()
		return &ShowStmt{Kind: ShowTables}
	default:
		p.errorf("expected DATABASES or TABLES after SHOW, got %q", p.token.Literal)
		return nil
	}
}

// parseColumnDefs parses (name Type, ...).
func (p *Parser) parseColumnDefs() []ColumnDef {
	p.expect(TOKEN_LPAREN)
	var cols []ColumnDef
	for {
		name := p.expect(TOKEN_IDENT)
		typ := p.parseDataType()
		cols = append(cols, ColumnDef{Name: name.Literal, Type: typ})
		if !p.accept(TOKEN_COMMA) {
			break
		}
	}
	p.expect(TOKEN_RPAREN)
	return cols
}

// parseDataType parses a type reference: a scalar name, Array(...) or
// Nullable(...), with an optional NULL / NOT NULL suffix.
func (p *Parser) parseDataType() *types.DataType {
	name := p.expect(TOKEN_IDENT)

	var t *types.DataType
	switch strings.ToLower(name.Literal) {
	case "array":
		p.expect(TOKEN_LPAREN)
		elem := p.parseDataType()
		p.expect(TOKEN_RPAREN)
		t = types.NewArray(elem)
	case "nullable":
		p.expect(TOKEN_LPAREN)
		inner := p.parseDataType()
		p.expect(TOKEN_RPAREN)
		t = inner.Wrap()
	default:
		parsed, err := types.Parse(name.Literal)
		if err != nil {
			p.errors = append(p.errors, err)
			return types.New(types.KindString)
		}
		t = parsed
	}

	// Optional NULL / NOT NULL suffix.
	switch {
	case p.token.Type == TOKEN_NULL:
		p.nextToken()
		t = t.Wrap()
	case p.token.Type == TOKEN_NOT && p.peek.Type == TOKEN_NULL:
		p.nextToken()
		p.nextToken()
	}
	return t
}

func (p *Parser) parseInsertStatement() Stmt {
	p.expect(TOKEN_INSERT)
	p.expect(TOKEN_INTO)
	table := p.parseObjectName()

	var cols []string
	if p.token.Type == TOKEN_LPAREN {
		p.nextToken()
		for {
			name := p.expect(TOKEN_IDENT)
			cols = append(cols, name.Literal)
			if !p.accept(TOKEN_COMMA) {
				break
			}
		}
		p.expect(TOKEN_RPAREN)
	}

	p.expect(TOKEN_VALUES)
	var rows [][]Expr
	for {
		p.expect(TOKEN_LPAREN)
		var row []Expr
		for {
			row = append(row, p.parseExpression())
			if !p.accept(TOKEN_COMMA) {
				break
			}
		}
		p.expect(TOKEN_RPAREN)
		rows = append(rows, row)
		if !p.accept(TOKEN_COMMA) {
			break
		}
	}

	return &InsertStmt{Table: table, Columns: cols, Rows: rows}
}

func (p *Parser) parseSelectStatement() Stmt {
	p.expect(TOKEN_SELECT)

	stmt := &SelectStmt{}
	for {
		if p.token.Type == TOKEN_STAR {
			p.nextToken()
			stmt.Items = append(stmt.Items, SelectItem{Star: true})
		} else {
			item := SelectItem{Expr: p.parseExpression()}
			if p.accept(TOKEN_AS) {
				item.Alias = p.expect(TOKEN_IDENT).Literal
			} else if p.token.Type == TOKEN_IDENT {
				item.Alias = p.token.Literal
				p.nextToken()
			}
			stmt.Items = append(stmt.Items, item)
		}
		if !p.accept(TOKEN_COMMA) {
			break
		}
	}

	if p.accept(TOKEN_FROM) {
		name := p.parseObjectName()
		stmt.From = &name
	}

	if p.accept(TOKEN_WHERE) {
		stmt.Where = p.parseExpression()
	}

	if p.token.Type == TOKEN_ORDER {
		p.nextToken()
		p.expect(TOKEN_BY)
		for {
			item := OrderByItem{Expr: p.parseExpression()}
			switch p.token.Type {
			case TOKEN_ASC:
				p.nextToken()
			case TOKEN_DESC:
				item.Desc = true
				p.nextToken()
			}
			stmt.OrderBy = append(stmt.OrderBy, item)
			if !p.accept(TOKEN_COMMA) {
				break
			}
		}
	}

	if p.accept(TOKEN_LIMIT) {
		stmt.Limit = p.parseExpression()
	}
	if p.accept(TOKEN_OFFSET) {
		stmt.Offset = p.parseExpression()
	}

	return stmt
}

// === Expression Parsing ===

// Precedence (loosest to tightest): OR, AND, NOT, comparison,
// additive (+ - ||), multiplicative (* / %), unary, postfix
// (:: cast, [index], IS NULL).

func (p *Parser) parseExpression() Expr {
	return p.parseOr()
}

func (p *Parser) parseOr() Expr {
	left := p.parseAnd()
	for p.token.Type == TOKEN_OR {
		p.nextToken()
		right := p.parseAnd()
		left = &BinaryExpr{Left: left, Op: TOKEN_OR, Right: right}
	}
	return left
}

func (p *Parser) parseAnd() Expr {
	left := p.parseNot()
	for p.token.Type == TOKEN_AND {
		p.nextToken()
		right := p.parseNot()
		left = &BinaryExpr{Left: left, Op: TOKEN_AND, Right: right}
	}
	return left
}

func (p *Parser) parseNot() Expr {
	if p.token.Type == TOKEN_NOT {
		p.nextToken()
		return &UnaryExpr{Op: TOKEN_NOT, Expr: p.parseNot()}
	}
	return p.parseComparison()
}

func (p *Parser) parseComparison() Expr {
	left := p.parseAdditive()
	for {
		switch p.token.Type {
		case TOKEN_EQ, TOKEN_NE, TOKEN_LT, TOKEN_GT, TOKEN_LE, TOKEN_GE:
			op := p.token.Type
			p.nextToken()
			right := p.parseAdditive()
			left = &BinaryExpr{Left: left, Op: op, Right: right}
		default:
			return left
		}
	}
}

func (p *Parser) parseAdditive() Expr {
	left := p.parseMultiplicative()
	for {
		switch p.token.Type {
		case TOKEN_PLUS, TOKEN_MINUS, TOKEN_DPIPE:
			op := p.token.Type
			p.nextToken()
			right := p.parseMultiplicative()
			left = &BinaryExpr{Left: left, Op: op, Right: right}
		default:
			return left
		}
	}
}

func (p *Parser) parseMultiplicative() Expr {
	left := p.parseUnary()
	for {
		switch p.token.Type {
		case TOKEN_STAR, TOKEN_SLASH, TOKEN_MOD:
			op := p.token.Type
			p.nextToken()
			right := p.parseUnary()
			left = &BinaryExpr{Left: left, Op: op, Right: right}
		default:
			return left
		}
	}
}

func (p *Parser) parseUnary() Expr {
	switch p.token.Type {
	case TOKEN_MINUS:
		p.nextToken()
		return &UnaryExpr{Op: TOKEN_MINUS, Expr: p.parseUnary()}
	case TOKEN_PLUS:
		p.nextToken()
		return p.parseUnary()
	}
	return p.parsePostfix()
}

// parsePostfix handles ::Type casts, [index] access, and IS [NOT] NULL.
func (p *Parser) parsePostfix() Expr {
	expr := p.parsePrimary()
	for {
		switch p.token.Type {
		case TOKEN_DCOLON:
			p.nextToken()
			expr = &CastExpr{Expr: expr, Type: p.parseDataType()}
		case TOKEN_LBRACKET:
			p.nextToken()
			idx := p.parseExpression()
			p.expect(TOKEN_RBRACKET)
			expr = &IndexExpr{Expr: expr, Index: idx}
		case TOKEN_IS:
			p.nextToken()
			not := p.accept(TOKEN_NOT)
			p.expect(TOKEN_NULL)
			expr = &IsNullExpr{Expr: expr, Not: not}
		default:
			return expr
		}
	}
}

func (p *Parser) parsePrimary() Expr {
	switch p.token.Type {
	case TOKEN_NUMBER:
		lit := p.token.Literal
		p.nextToken()
		if n, err := strconv.ParseInt(lit, 10, 64); err == nil {
			return &Literal{Value: n}
		}
		f, err := strconv.ParseFloat(lit, 64)
		if err != nil {
			p.errorf("invalid number literal %q", lit)
			return &Literal{}
		}
		return &Literal{Value: f}

	case TOKEN_STRING:
		lit := p.token.Literal
		p.nextToken()
		return &Literal{Value: lit}

	case TOKEN_NULL:
		p.nextToken()
		return &Literal{Value: nil}

	case TOKEN_TRUE:
		p.nextToken()
		return &Literal{Value: true}

	case TOKEN_FALSE:
		p.nextToken()
		return &Literal{Value: false}

	case TOKEN_LBRACKET:
		p.nextToken()
		arr := &ArrayExpr{}
		if p.token.Type != TOKEN_RBRACKET {
			for {
				arr.Elems = append(arr.Elems, p.parseExpression())
				if !p.accept(TOKEN_COMMA) {
					break
				}
			}
		}
		p.expect(TOKEN_RBRACKET)
		return arr

	case TOKEN_CAST:
		p.nextToken()
		p.expect(TOKEN_LPAREN)
		expr := p.parseExpression()
		p.expect(TOKEN_AS)
		typ := p.parseDataType()
		p.expect(TOKEN_RPAREN)
		return &CastExpr{Expr: expr, Type: typ}

	case TOKEN_LPAREN:
		p.nextToken()
		expr := p.parseExpression()
		p.expect(TOKEN_RPAREN)
		return expr

	case TOKEN_IDENT:
		name := p.token.Literal
		p.nextToken()
		if p.token.Type == TOKEN_LPAREN {
			return p.parseFuncCall(name)
		}
		if p.accept(TOKEN_DOT) {
			col := p.expect(TOKEN_IDENT)
			return &ColumnRef{Table: name, Name: col.Literal}
		}
		return &ColumnRef{Name: name}

	default:
		p.errorf("unexpected token %q in expression", p.token.Literal)
		p.nextToken()
		return &Literal{}
	}
}

func (p *Parser) parseFuncCall(name string) Expr {
	p.expect(TOKEN_LPAREN)
	call := &FuncCall{Name: strings.ToLower(name)}
	if p.token.Type != TOKEN_RPAREN {
		for {
			call.Args = append(call.Args, p.parseExpression())
			if !p.accept(TOKEN_COMMA) {
				break
			}
		}
	}
	p.expect(TOKEN_RPAREN)
	return call
}
