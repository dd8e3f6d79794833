// Package bendsql provides the SQL lexer, parser, AST, and formatter for
// the engine's dialect: databases, tables with nested Array types, views,
// INSERT/SELECT, and the utility statements the logic-test suites exercise.
package bendsql

import "fmt"

// TokenType represents the type of a lexical token.
type TokenType int

// TOKEN_EOF and friends enumerate all token types produced by the lexer.
const (
	TOKEN_EOF     TokenType = iota // end of input
	TOKEN_ILLEGAL                  // unexpected character

	TOKEN_IDENT  // identifier
	TOKEN_NUMBER // 123, 45.67, 1e10
	TOKEN_STRING // 'hello'

	TOKEN_PLUS      // +
	TOKEN_MINUS     // -
	TOKEN_STAR      // *
	TOKEN_SLASH     // /
	TOKEN_MOD       // %
	TOKEN_DPIPE     // ||
	TOKEN_EQ        // =
	TOKEN_NE        // != or <>
	TOKEN_LT        // <
	TOKEN_GT        // >
	TOKEN_LE        // <=
	TOKEN_GE        // >=
	TOKEN_DOT       // .
	TOKEN_COMMA     // ,
	TOKEN_SEMICOLON // ;
	TOKEN_LPAREN    // (
	TOKEN_RPAREN    // )
	TOKEN_LBRACKET  // [
	TOKEN_RBRACKET  // ]
	TOKEN_DCOLON    // :: cast

	// TOKEN_ALTER and below are SQL keywords (alphabetical).
	TOKEN_ALTER
	TOKEN_AND
	TOKEN_AS
	TOKEN_ASC
	TOKEN_BY
	TOKEN_CAST
	TOKEN_CREATE
	TOKEN_DATABASE
	TOKEN_DATABASES
	TOKEN_DESC
	TOKEN_DROP
	TOKEN_EXISTS
	TOKEN_FALSE
	TOKEN_FROM
	TOKEN_IF
	TOKEN_INSERT
	TOKEN_INTO
	TOKEN_IS
	TOKEN_LIMIT
	TOKEN_NOT
	TOKEN_NULL
	TOKEN_OFFSET
	TOKEN_OR
	TOKEN_ORDER
	TOKEN_SELECT
	TOKEN_SHOW
	TOKEN_TABLE
	TOKEN_TABLES
	TOKEN_TRUE
	TOKEN_USE
	TOKEN_VALUES
	TOKEN_VIEW
	TOKEN_WHERE
)

// Token is a lexical token with its literal text.
type Token struct {
	Type    TokenType
	Literal string
}

// String returns a debug representation of the token.
func (t Token) String() string {
	return fmt.Sprintf("%s(%q)", t.Type, t.Literal)
}

var tokenNames = map[TokenType]string{
	TOKEN_EOF:       "EOF",
	TOKEN_ILLEGAL:   "ILLEGAL",
	TOKEN_IDENT:     "IDENT",
	TOKEN_NUMBER:    "NUMBER",
	TOKEN_STRING:    "STRING",
	TOKEN_PLUS:      "+",
	TOKEN_MINUS:     "-",
	TOKEN_STAR:      "*",
	TOKEN_SLASH:     "/",
	TOKEN_MOD:       "%",
	TOKEN_DPIPE:     "||",
	TOKEN_EQ:        "=",
	TOKEN_NE:        "!=",
	TOKEN_LT:        "<",
	TOKEN_GT:        ">",
	TOKEN_LE:        "<=",
	TOKEN_GE:        ">=",
	TOKEN_DOT:       ".",
	TOKEN_COMMA:     ",",
	TOKEN_SEMICOLON: ";",
	TOKEN_LPAREN:    "(",
	TOKEN_RPAREN:    ")",
	TOKEN_LBRACKET:  "[",
	TOKEN_RBRACKET:  "]",
	TOKEN_DCOLON:    "::",
}

// String returns the token type's display name.
func (tt TokenType) String() string {
	if s, ok := tokenNames[tt]; ok {
		return s
	}
	for kw, t := range keywords {
		if t == tt {
			return kw
		}
	}
	return fmt.Sprintf("TokenType(%d)", int(tt))
}

// keywords maps upper-cased keyword text to token types.
var keywords = map[string]TokenType{
	"ALTER":     TOKEN_ALTER,
	"AND":       TOKEN_AND,
	"AS":        TOKEN_AS,
	"ASC":       TOKEN_ASC,
	"BY":        TOKEN_BY,
	"CAST":      TOKEN_CAST,
	"CREATE":    TOKEN_CREATE,
	"DATABASE":  TOKEN_DATABASE,
	"DATABASES": TOKEN_DATABASES,
	"DESC":      TOKEN_DESC,
	"DROP":      TOKEN_DROP,
	"EXISTS":    TOKEN_EXISTS,
	"FALSE":     TOKEN_FALSE,
	"FROM":      TOKEN_FROM,
	"IF":        TOKEN_IF,
	"INSERT":    TOKEN_INSERT,
	"INTO":      TOKEN_INTO,
	"IS":        TOKEN_IS,
	"LIMIT":     TOKEN_LIMIT,
	"NOT":       TOKEN_NOT,
	"NULL":      TOKEN_NULL,
	"OFFSET":    TOKEN_OFFSET,
	"OR":        TOKEN_OR,
	"ORDER":     TOKEN_ORDER,
	"SELECT":    TOKEN_SELECT,
	"SHOW":      TOKEN_SHOW,
	"TABLE":     TOKEN_TABLE,
	"TABLES":    TOKEN_TABLES,
	"TRUE":      TOKEN_TRUE,
	"USE":       TOKEN_USE,
	"VALUES":    TOKEN_VALUES,
	"VIEW":      TOKEN_VIEW,
	"WHERE":     TOKEN_WHERE,
}

// lookupIdent returns the keyword token type if the identifier is a
// reserved word, otherwise TOKEN_IDENT.
func lookupIdent(upper string) TokenType {
	if tok, ok := keywords[upper]; ok {
		return tok
	}
	return TOKEN_IDENT
}
