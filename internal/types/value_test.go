package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustDate(t *testing.T, s string) Date {
	t.Helper()
	d, err := ParseDate(s)
	require.NoError(t, err)
	return d
}

func mustTimestamp(t *testing.T, s string) Timestamp {
	t.Helper()
	ts, err := ParseTimestamp(s)
	require.NoError(t, err)
	return ts
}

// === Render tests ===

func TestRender_Scalars(t *testing.T) {
	tests := []struct {
		name string
		in   Datum
		want string
	}{
		{"null", nil, "NULL"},
		{"true", true, "1"},
		{"false", false, "0"},
		{"int", int64(-42), "-42"},
		{"uint", uint64(7), "7"},
		{"integral float", float64(3), "3.0"},
		{"fractional float", 0.25, "0.25"},
		{"string bare", "hello world", "hello world"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Render(tt.in))
		})
	}
}

func TestRender_DateAndTimestamp(t *testing.T) {
	d := mustDate(t, "2022-01-02")
	assert.Equal(t, "2022-01-02", Render(d))

	ts := mustTimestamp(t, "2022-01-02 03:04:05")
	assert.Equal(t, "2022-01-02 03:04:05.000000", Render(ts))
}

func TestRender_Arrays(t *testing.T) {
	tests := []struct {
		name string
		in   Datum
		want string
	}{
		{"ints", []Datum{int64(1), int64(2), int64(3)}, "[1,2,3]"},
		{"nested", []Datum{[]Datum{int64(1), int64(2)}, []Datum{int64(3)}}, "[[1,2],[3]]"},
		{"strings quoted", []Datum{"a", "b"}, "['a','b']"},
		{"null element", []Datum{int64(1), nil}, "[1,NULL]"},
		{"empty", []Datum{}, "[]"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Render(tt.in))
		})
	}
}

func TestRender_DatesQuotedInsideArrays(t *testing.T) {
	d := mustDate(t, "2022-01-01")
	ts := mustTimestamp(t, "2022-01-01 00:00:00")
	assert.Equal(t, "['2022-01-01']", Render([]Datum{d}))
	assert.Equal(t, "['2022-01-01 00:00:00.000000']", Render([]Datum{ts}))
}

// === ParseDate / ParseTimestamp tests ===

func TestParseDate_RoundTrip(t *testing.T) {
	d := mustDate(t, "1970-01-01")
	assert.Equal(t, Date(0), d)

	d = mustDate(t, "2022-03-15")
	assert.Equal(t, "2022-03-15", d.String())
}

func TestParseTimestamp_Layouts(t *testing.T) {
	for _, s := range []string{
		"2022-01-02 03:04:05",
		"2022-01-02 03:04:05.123456",
		"2022-01-02T03:04:05",
	} {
		_, err := ParseTimestamp(s)
		require.NoError(t, err, "input %q", s)
	}
	_, err := ParseTimestamp("yesterday")
	require.Error(t, err)
}

// === TypeOf tests ===

func TestTypeOf(t *testing.T) {
	assert.True(t, TypeOf(int64(1)).Equal(New(KindInt64)))
	assert.True(t, TypeOf("x").Equal(New(KindString)))
	assert.Equal(t, KindNull, TypeOf(nil).Kind)

	arr := TypeOf([]Datum{int64(1), nil})
	require.Equal(t, KindArray, arr.Kind)
	assert.True(t, arr.Elem.Equal(NewNullable(KindInt64)))
}

// === Cast tests ===

func TestCast_Numeric(t *testing.T) {
	v, err := Cast(int64(5), New(KindInt8))
	require.NoError(t, err)
	assert.Equal(t, int64(5), v)

	_, err = Cast(int64(300), New(KindInt8))
	require.Error(t, err)

	_, err = Cast(int64(-1), New(KindUInt32))
	require.Error(t, err)
}

func TestCast_StringsToTemporal(t *testing.T) {
	v, err := Cast("2022-01-02", New(KindDate))
	require.NoError(t, err)
	assert.Equal(t, "2022-01-02", Render(v))

	v, err = Cast("2022-01-02 03:04:05", New(KindTimestamp))
	require.NoError(t, err)
	assert.Equal(t, "2022-01-02 03:04:05.000000", Render(v))
}

func TestCast_Array(t *testing.T) {
	target, err := Parse("Array(Int32 NULL)")
	require.NoError(t, err)

	v, err := Cast([]Datum{int64(1), nil}, target)
	require.NoError(t, err)
	assert.Equal(t, []Datum{int64(1), nil}, v)
}

func TestCast_NullIntoNonNullable(t *testing.T) {
	_, err := Cast(nil, New(KindInt32))
	require.Error(t, err)

	v, err := Cast(nil, NewNullable(KindInt32))
	require.NoError(t, err)
	assert.Nil(t, v)
}
