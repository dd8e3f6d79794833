package meta

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// === Escape / Unescape tests ===

func TestEscape(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"plain", "db_1", "db_1"},
		{"slash", "a/b", "a%2fb"},
		{"space and dot", "a b.c", "a%20b%2ec"},
		{"percent", "100%", "100%25"},
		{"empty", "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Escape(tt.in))
		})
	}
}

func TestUnescape_RoundTrip(t *testing.T) {
	for _, s := range []string{"plain", "a/b", "with space", "100%", "\x00\xff", "ünïcode"} {
		got, err := Unescape(Escape(s))
		require.NoError(t, err)
		assert.Equal(t, s, got)
	}
}

func TestUnescape_Invalid(t *testing.T) {
	for _, s := range []string{"%", "%2", "%zz", "a%2"} {
		_, err := Unescape(s)
		require.Error(t, err, "input %q", s)
	}
}

// === Structured key tests ===

func TestDatabaseNameKey(t *testing.T) {
	k := DatabaseNameKey{Tenant: "tenant one", Database: "db/1"}
	s := k.String()
	assert.Equal(t, "__fd_database/tenant%20one/db%2f1", s)

	parsed, err := ParseDatabaseNameKey(s)
	require.NoError(t, err)
	assert.Equal(t, k, parsed)
}

func TestDatabaseIDKey(t *testing.T) {
	k := DatabaseIDKey{ID: 42}
	assert.Equal(t, "__fd_database_by_id/42", k.String())

	parsed, err := ParseDatabaseIDKey(k.String())
	require.NoError(t, err)
	assert.Equal(t, uint64(42), parsed.ID)
}

func TestTableKeys(t *testing.T) {
	nk := TableNameKey{DatabaseID: 7, Table: "t"}
	assert.Equal(t, "__fd_table/7/t", nk.String())
	parsedName, err := ParseTableNameKey(nk.String())
	require.NoError(t, err)
	assert.Equal(t, nk, parsedName)

	ik := TableIDKey{ID: 9}
	assert.Equal(t, "__fd_table_by_id/9", ik.String())
	parsedID, err := ParseTableIDKey(ik.String())
	require.NoError(t, err)
	assert.Equal(t, ik, parsedID)
}

func TestViewNameKey(t *testing.T) {
	k := ViewNameKey{DatabaseID: 3, View: "v"}
	assert.Equal(t, "__fd_view/3/v", k.String())
	parsed, err := ParseViewNameKey(k.String())
	require.NoError(t, err)
	assert.Equal(t, k, parsed)
}

func TestParseKey_Errors(t *testing.T) {
	// Wrong prefix.
	_, err := ParseDatabaseNameKey("__fd_table/1/t")
	require.Error(t, err)

	// Wrong segment count.
	_, err = ParseDatabaseNameKey("__fd_database/onlytenant")
	require.Error(t, err)

	// Non-numeric id.
	_, err = ParseTableIDKey("__fd_table_by_id/abc")
	require.Error(t, err)
}
