package bendsql

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func lexAll(input string) []Token {
	l := NewLexer(input)
	var toks []Token
	for {
		tok := l.NextToken()
		if tok.Type == TOKEN_EOF {
			return toks
		}
		toks = append(toks, tok)
	}
}

// === Operator and punctuation tests ===

func TestLexer_Operators(t *testing.T) {
	toks := lexAll("+ - * / % || = != <> < > <= >= :: . , ; ( ) [ ]")
	want := []TokenType{
		TOKEN_PLUS, TOKEN_MINUS, TOKEN_STAR, TOKEN_SLASH, TOKEN_MOD,
		TOKEN_DPIPE, TOKEN_EQ, TOKEN_NE, TOKEN_NE, TOKEN_LT, TOKEN_GT,
		TOKEN_LE, TOKEN_GE, TOKEN_DCOLON, TOKEN_DOT, TOKEN_COMMA,
		TOKEN_SEMICOLON, TOKEN_LPAREN, TOKEN_RPAREN, TOKEN_LBRACKET,
		TOKEN_RBRACKET,
	}
	require.Len(t, toks, len(want))
	for i, tok := range toks {
		assert.Equal(t, want[i], tok.Type, "token %d %q", i, tok.Literal)
	}
}

func TestLexer_SinglePipeIsIllegal(t *testing.T) {
	toks := lexAll("a | b")
	require.Len(t, toks, 3)
	assert.Equal(t, TOKEN_ILLEGAL, toks[1].Type)
}

// === Keywords and identifiers ===

func TestLexer_KeywordsCaseInsensitive(t *testing.T) {
	toks := lexAll("select Select SELECT col1")
	require.Len(t, toks, 4)
	assert.Equal(t, TOKEN_SELECT, toks[0].Type)
	assert.Equal(t, TOKEN_SELECT, toks[1].Type)
	assert.Equal(t, TOKEN_SELECT, toks[2].Type)
	assert.Equal(t, TOKEN_IDENT, toks[3].Type)
	assert.Equal(t, "col1", toks[3].Literal)
}

func TestLexer_QuotedIdentifiers(t *testing.T) {
	toks := lexAll("\"Weird Name\" `col`")
	require.Len(t, toks, 2)
	assert.Equal(t, TOKEN_IDENT, toks[0].Type)
	assert.Equal(t, "Weird Name", toks[0].Literal)
	assert.Equal(t, "col", toks[1].Literal)
}

// === Strings ===

func TestLexer_Strings(t *testing.T) {
	toks := lexAll("'hello' 'it''s' ''")
	require.Len(t, toks, 3)
	assert.Equal(t, "hello", toks[0].Literal)
	assert.Equal(t, "it's", toks[1].Literal)
	assert.Equal(t, "", toks[2].Literal)
}

func TestLexer_UnterminatedString(t *testing.T) {
	toks := lexAll("'oops")
	require.Len(t, toks, 1)
	assert.Equal(t, TOKEN_ILLEGAL, toks[0].Type)
}

// === Numbers ===

func TestLexer_Numbers(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"123", "123"},
		{"45.67", "45.67"},
		{"1e10", "1e10"},
		{"2.5e-3", "2.5e-3"},
	}
	for _, tt := range tests {
		toks := lexAll(tt.in)
		require.Len(t, toks, 1, "input %q", tt.in)
		assert.Equal(t, TOKEN_NUMBER, toks[0].Type)
		assert.Equal(t, tt.want, toks[0].Literal)
	}
}

// === Comments ===

func TestLexer_Comments(t *testing.T) {
	toks := lexAll("SELECT -- trailing comment\n 1 /* block\ncomment */ + 2")
	want := []TokenType{TOKEN_SELECT, TOKEN_NUMBER, TOKEN_PLUS, TOKEN_NUMBER}
	require.Len(t, toks, len(want))
	for i, tok := range toks {
		assert.Equal(t, want[i], tok.Type)
	}
}
