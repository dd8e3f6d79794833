// Package meta implements the metadata layer: an escaped structured-key
// scheme, a sequenced key-value API backed by SQLite, and the catalog of
// databases, tables, and views built on top of it.
package meta

import (
	"fmt"
	"strconv"
	"strings"
)

// Key prefixes for the catalog key space. Every structured key starts with
// one of these, followed by escaped segments joined with '/'.
const (
	PrefixDatabase     = "__fd_database"
	PrefixDatabaseByID = "__fd_database_by_id"
	PrefixTable        = "__fd_table"
	PrefixTableByID    = "__fd_table_by_id"
	PrefixView         = "__fd_view"
	PrefixIDGen        = "__fd_id_gen"
)

// Escape converts a key segment into its encoded form. All characters
// except digits, letters, and '_' become "%xx" with the lower-hex byte
// value, so '/' never appears inside an encoded segment.
func Escape(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c >= '0' && c <= '9', c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c == '_':
			b.WriteByte(c)
		default:
			b.WriteByte('%')
			b.WriteByte(hexDigit(c / 16))
			b.WriteByte(hexDigit(c % 16))
		}
	}
	return b.String()
}

// Unescape reverses Escape.
func Unescape(s string) (string, error) {
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); {
		if s[i] != '%' {
			b.WriteByte(s[i])
			i++
			continue
		}
		if i+2 >= len(s) {
			return "", fmt.Errorf("truncated escape at end of key %q", s)
		}
		hi, err := unhexDigit(s[i+1])
		if err != nil {
			return "", fmt.Errorf("invalid escape in key %q: %w", s, err)
		}
		lo, err := unhexDigit(s[i+2])
		if err != nil {
			return "", fmt.Errorf("invalid escape in key %q: %w", s, err)
		}
		b.WriteByte(hi*16 + lo)
		i += 3
	}
	return b.String(), nil
}

func hexDigit(n byte) byte {
	if n < 10 {
		return '0' + n
	}
	return 'a' + (n - 10)
}

func unhexDigit(c byte) (byte, error) {
	switch {
	case c >= '0' && c <= '9':
		return c - '0', nil
	case c >= 'a' && c <= 'f':
		return c - 'a' + 10, nil
	}
	return 0, fmt.Errorf("not a hex digit: %q", c)
}

// joinKey encodes segments and joins them under a prefix.
func joinKey(prefix string, segments ...string) string {
	parts := make([]string, 0, len(segments)+1)
	parts = append(parts, prefix)
	for _, s := range segments {
		parts = append(parts, Escape(s))
	}
	return strings.Join(parts, "/")
}

// splitKey checks the prefix and returns the decoded remaining segments.
func splitKey(key, prefix string, want int) ([]string, error) {
	parts := strings.Split(key, "/")
	if len(parts) == 0 || parts[0] != prefix {
		return nil, fmt.Errorf("key %q does not start with %q", key, prefix)
	}
	if len(parts)-1 != want {
		return nil, fmt.Errorf("key %q: expected %d segments, got %d", key, want, len(parts)-1)
	}
	out := make([]string, 0, want)
	for _, p := range parts[1:] {
		s, err := Unescape(p)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, nil
}

// decodeID parses a decimal id segment.
func decodeID(s string) (uint64, error) {
	id, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid id segment %q: %w", s, err)
	}
	return id, nil
}

// DatabaseNameKey maps tenant + database name to a database id.
type DatabaseNameKey struct {
	Tenant   string
	Database string
}

// String encodes the key.
func (k DatabaseNameKey) String() string {
	return joinKey(PrefixDatabase, k.Tenant, k.Database)
}

// ParseDatabaseNameKey decodes an encoded database name key.
func ParseDatabaseNameKey(s string) (DatabaseNameKey, error) {
	segs, err := splitKey(s, PrefixDatabase, 2)
	if err != nil {
		return DatabaseNameKey{}, err
	}
	return DatabaseNameKey{Tenant: segs[0], Database: segs[1]}, nil
}

// DatabaseIDKey maps a database id to its metadata.
type DatabaseIDKey struct {
	ID uint64
}

// String encodes the key.
func (k DatabaseIDKey) String() string {
	return joinKey(PrefixDatabaseByID, strconv.FormatUint(k.ID, 10))
}

// ParseDatabaseIDKey decodes an encoded database id key.
func ParseDatabaseIDKey(s string) (DatabaseIDKey, error) {
	segs, err := splitKey(s, PrefixDatabaseByID, 1)
	if err != nil {
		return DatabaseIDKey{}, err
	}
	id, err := decodeID(segs[0])
	if err != nil {
		return DatabaseIDKey{}, err
	}
	return DatabaseIDKey{ID: id}, nil
}

// TableNameKey maps a database id + table name to a table id.
type TableNameKey struct {
	DatabaseID uint64
	Table      string
}

// String encodes the key.
func (k TableNameKey) String() string {
	return joinKey(PrefixTable, strconv.FormatUint(k.DatabaseID, 10), k.Table)
}

// ParseTableNameKey decodes an encoded table name key.
func ParseTableNameKey(s string) (TableNameKey, error) {
	segs, err := splitKey(s, PrefixTable, 2)
	if err != nil {
		return TableNameKey{}, err
	}
	id, err := decodeID(segs[0])
	if err != nil {
		return TableNameKey{}, err
	}
	return TableNameKey{DatabaseID: id, Table: segs[1]}, nil
}

// TableIDKey maps a table id to its metadata.
type TableIDKey struct {
	ID uint64
}

// String encodes the key.
func (k TableIDKey) String() string {
	return joinKey(PrefixTableByID, strconv.FormatUint(k.ID, 10))
}

// ParseTableIDKey decodes an encoded table id key.
func ParseTableIDKey(s string) (TableIDKey, error) {
	segs, err := splitKey(s, PrefixTableByID, 1)
	if err != nil {
		return TableIDKey{}, err
	}
	id, err := decodeID(segs[0])
	if err != nil {
		return TableIDKey{}, err
	}
	return TableIDKey{ID: id}, nil
}

// ViewNameKey maps a database id + view name to the view definition.
type ViewNameKey struct {
	DatabaseID uint64
	View       string
}

// String encodes the key.
func (k ViewNameKey) String() string {
	return joinKey(PrefixView, strconv.FormatUint(k.DatabaseID, 10), k.View)
}

// ParseViewNameKey decodes an encoded view name key.
func ParseViewNameKey(s string) (ViewNameKey, error) {
	segs, err := splitKey(s, PrefixView, 2)
	if err != nil {
		return ViewNameKey{}, err
	}
	id, err := decodeID(segs[0])
	if err != nil {
		return ViewNameKey{}, err
	}
	return ViewNameKey{DatabaseID: id, View: segs[1]}, nil
}
