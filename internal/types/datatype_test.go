package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// === Parse tests ===

func TestParse_Scalars(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want *DataType
	}{
		{"int8", "Int8", New(KindInt8)},
		{"alias tinyint", "TINYINT", New(KindInt8)},
		{"alias varchar", "varchar", New(KindString)},
		{"alias datetime", "DateTime", New(KindTimestamp)},
		{"nullable suffix", "String NULL", NewNullable(KindString)},
		{"not null suffix", "Int32 NOT NULL", New(KindInt32)},
		{"float alias", "Double", New(KindFloat64)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Parse(tt.in)
			require.NoError(t, err)
			assert.True(t, got.Equal(tt.want), "got %s want %s", got, tt.want)
		})
	}
}

func TestParse_Arrays(t *testing.T) {
	got, err := Parse("Array(Array(Int8 NULL))")
	require.NoError(t, err)
	want := NewArray(NewArray(NewNullable(KindInt8)))
	assert.True(t, got.Equal(want), "got %s", got)
}

func TestParse_NullableWrapper(t *testing.T) {
	got, err := Parse("Nullable(Int64)")
	require.NoError(t, err)
	assert.True(t, got.Equal(NewNullable(KindInt64)))
}

func TestParse_Errors(t *testing.T) {
	for _, in := range []string{"", "Frob", "Array", "Array(Int8", "Int8 garbage"} {
		_, err := Parse(in)
		require.Error(t, err, "input %q", in)
	}
}

func TestDataType_StringRoundTrip(t *testing.T) {
	for _, s := range []string{
		"Int8",
		"String NULL",
		"Array(Int8)",
		"Array(Array(Int8 NULL))",
		"Array(Timestamp) NULL",
	} {
		parsed, err := Parse(s)
		require.NoError(t, err)
		assert.Equal(t, s, parsed.String())
	}
}

// === CommonType tests ===

func TestCommonType(t *testing.T) {
	tests := []struct {
		name string
		a, b *DataType
		want *DataType
	}{
		{"same", New(KindInt32), New(KindInt32), New(KindInt32)},
		{"widen signed", New(KindInt8), New(KindInt32), New(KindInt32)},
		{"mixed signedness", New(KindUInt8), New(KindInt16), New(KindInt64)},
		{"int and float", New(KindInt64), New(KindFloat64), New(KindFloat64)},
		{"null absorbs", &DataType{Kind: KindNull, Nullable: true}, New(KindString), NewNullable(KindString)},
		{"array elems", NewArray(New(KindInt8)), NewArray(New(KindInt64)), NewArray(New(KindInt64))},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := CommonType(tt.a, tt.b)
			require.NoError(t, err)
			assert.True(t, got.Equal(tt.want), "got %s want %s", got, tt.want)
		})
	}
}

func TestCommonType_Incompatible(t *testing.T) {
	_, err := CommonType(New(KindString), New(KindInt8))
	require.Error(t, err)
}
