// Package types defines the engine's data type tree and runtime values.
//
// A DataType is a scalar kind (Boolean, the integer widths, floats, String,
// Date, Timestamp), optionally wrapped in Nullable, or an Array over an
// element type. Type names follow the SQL surface syntax: `Int8`, `String
// NULL`, `Array(Array(Int8 NULL))`.
package types

import (
	"fmt"
	"strings"
)

// Kind enumerates the scalar and composite type kinds.
type Kind int

const (
	KindNull Kind = iota // the type of a bare NULL literal
	KindBoolean
	KindInt8
	KindInt16
	KindInt32
	KindInt64
	KindUInt8
	KindUInt16
	KindUInt32
	KindUInt64
	KindFloat32
	KindFloat64
	KindString
	KindDate
	KindTimestamp
	KindArray
)

var kindNames = map[Kind]string{
	KindNull:      "NULL",
	KindBoolean:   "Boolean",
	KindInt8:      "Int8",
	KindInt16:     "Int16",
	KindInt32:     "Int32",
	KindInt64:     "Int64",
	KindUInt8:     "UInt8",
	KindUInt16:    "UInt16",
	KindUInt32:    "UInt32",
	KindUInt64:    "UInt64",
	KindFloat32:   "Float32",
	KindFloat64:   "Float64",
	KindString:    "String",
	KindDate:      "Date",
	KindTimestamp: "Timestamp",
	KindArray:     "Array",
}

// String returns the canonical name of the kind.
func (k Kind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// IsNumeric reports whether the kind is an integer or float kind.
func (k Kind) IsNumeric() bool {
	return k >= KindInt8 && k <= KindFloat64
}

// IsInteger reports whether the kind is a signed or unsigned integer kind.
func (k Kind) IsInteger() bool {
	return k >= KindInt8 && k <= KindUInt64
}

// DataType describes a column or expression type.
type DataType struct {
	Kind     Kind
	Nullable bool
	Elem     *DataType // element type when Kind == KindArray
}

// New returns a non-nullable DataType of the given scalar kind.
func New(k Kind) *DataType {
	return &DataType{Kind: k}
}

// NewNullable returns a nullable DataType of the given scalar kind.
func NewNullable(k Kind) *DataType {
	return &DataType{Kind: k, Nullable: true}
}

// NewArray returns an Array type over the given element type.
func NewArray(elem *DataType) *DataType {
	return &DataType{Kind: KindArray, Elem: elem}
}

// Wrap returns a copy of t with Nullable set.
func (t *DataType) Wrap() *DataType {
	c := *t
	c.Nullable = true
	return &c
}

// String renders the type in surface syntax, e.g. "Array(Int8 NULL)".
func (t *DataType) String() string {
	var b strings.Builder
	if t.Kind == KindArray {
		b.WriteString("Array(")
		b.WriteString(t.Elem.String())
		b.WriteString(")")
	} else {
		b.WriteString(t.Kind.String())
	}
	if t.Nullable && t.Kind != KindNull {
		b.WriteString(" NULL")
	}
	return b.String()
}

// Equal reports whether two types are structurally identical,
// including nullability.
func (t *DataType) Equal(o *DataType) bool {
	if t == nil || o == nil {
		return t == o
	}
	if t.Kind != o.Kind || t.Nullable != o.Nullable {
		return false
	}
	if t.Kind == KindArray {
		return t.Elem.Equal(o.Elem)
	}
	return true
}

// scalarKinds maps lowercased surface names (including aliases) to kinds.
var scalarKinds = map[string]Kind{
	"boolean":   KindBoolean,
	"bool":      KindBoolean,
	"int8":      KindInt8,
	"tinyint":   KindInt8,
	"int16":     KindInt16,
	"smallint":  KindInt16,
	"int32":     KindInt32,
	"int":       KindInt32,
	"integer":   KindInt32,
	"int64":     KindInt64,
	"bigint":    KindInt64,
	"uint8":     KindUInt8,
	"uint16":    KindUInt16,
	"uint32":    KindUInt32,
	"uint64":    KindUInt64,
	"float32":   KindFloat32,
	"float":     KindFloat32,
	"float64":   KindFloat64,
	"double":    KindFloat64,
	"string":    KindString,
	"varchar":   KindString,
	"text":      KindString,
	"date":      KindDate,
	"timestamp": KindTimestamp,
	"datetime":  KindTimestamp,
}

// Parse parses a surface type name into a DataType.
//
// Accepted forms: a scalar name, a scalar name followed by NULL, an
// Array(...) over any accepted form, and Nullable(...) as an alias for
// the NULL suffix.
func Parse(s string) (*DataType, error) {
	t, rest, err := parseType(strings.TrimSpace(s))
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(rest) != "" {
		return nil, fmt.Errorf("unexpected trailing input %q in type %q", rest, s)
	}
	return t, nil
}

func parseType(s string) (*DataType, string, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, "", fmt.Errorf("empty type name")
	}

	// Split off the leading word.
	i := 0
	for i < len(s) && (isTypeNameChar(s[i])) {
		i++
	}
	word, rest := s[:i], s[i:]
	if word == "" {
		return nil, "", fmt.Errorf("invalid type name %q", s)
	}

	lower := strings.ToLower(word)
	switch lower {
	case "array", "nullable":
		inner, rest2, err := parseParenType(rest, word)
		if err != nil {
			return nil, "", err
		}
		if lower == "array" {
			return checkNullSuffix(NewArray(inner), rest2)
		}
		return checkNullSuffix(inner.Wrap(), rest2)
	}

	kind, ok := scalarKinds[lower]
	if !ok {
		return nil, "", fmt.Errorf("unknown type name %q", word)
	}
	return checkNullSuffix(New(kind), rest)
}

// parseParenType consumes "( inner )" and parses the inner type.
func parseParenType(s, outer string) (*DataType, string, error) {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "(") {
		return nil, "", fmt.Errorf("%s requires an element type in parentheses", outer)
	}
	inner, rest, err := parseType(s[1:])
	if err != nil {
		return nil, "", err
	}
	rest = strings.TrimSpace(rest)
	if !strings.HasPrefix(rest, ")") {
		return nil, "", fmt.Errorf("missing ')' in %s type", outer)
	}
	return inner, rest[1:], nil
}

// checkNullSuffix consumes an optional trailing NULL / NOT NULL marker.
func checkNullSuffix(t *DataType, rest string) (*DataType, string, error) {
	trimmed := strings.TrimSpace(rest)
	lower := strings.ToLower(trimmed)
	switch {
	case strings.HasPrefix(lower, "not null"):
		return t, trimmed[len("not null"):], nil
	case strings.HasPrefix(lower, "null"):
		return t.Wrap(), trimmed[len("null"):], nil
	}
	return t, rest, nil
}

func isTypeNameChar(c byte) bool {
	return c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c >= '0' && c <= '9' || c == '_'
}
