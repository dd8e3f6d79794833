package types

import (
	"fmt"
	"math"
	"strconv"
)

// numericRank orders numeric kinds for common-type resolution. Higher rank
// wins; mixing signed and unsigned promotes to the next wider signed kind,
// and anything mixed with a float becomes Float64.
var numericRank = map[Kind]int{
	KindInt8:    1,
	KindUInt8:   1,
	KindInt16:   2,
	KindUInt16:  2,
	KindInt32:   3,
	KindUInt32:  3,
	KindInt64:   4,
	KindUInt64:  4,
	KindFloat32: 5,
	KindFloat64: 6,
}

// CommonType resolves the supertype of two types, used for array literals
// and concat argument unification. NULL unifies with anything, numerics
// widen, identical kinds pass through. Nullability is or-ed.
func CommonType(a, b *DataType) (*DataType, error) {
	nullable := a.Nullable || b.Nullable

	switch {
	case a.Kind == KindNull:
		c := *b
		c.Nullable = true
		return &c, nil
	case b.Kind == KindNull:
		c := *a
		c.Nullable = true
		return &c, nil
	case a.Kind == b.Kind:
		if a.Kind == KindArray {
			elem, err := CommonType(a.Elem, b.Elem)
			if err != nil {
				return nil, err
			}
			return &DataType{Kind: KindArray, Nullable: nullable, Elem: elem}, nil
		}
		c := *a
		c.Nullable = nullable
		return &c, nil
	case a.Kind.IsNumeric() && b.Kind.IsNumeric():
		return &DataType{Kind: widerNumeric(a.Kind, b.Kind), Nullable: nullable}, nil
	}

	return nil, fmt.Errorf("no common type for %s and %s", a, b)
}

func widerNumeric(a, b Kind) Kind {
	ra, rb := numericRank[a], numericRank[b]
	if ra < rb {
		a, b = b, a
		ra, rb = rb, ra
	}
	_ = rb
	// a is now the higher-ranked kind.
	if a.IsInteger() && b.IsInteger() {
		signedA := a >= KindInt8 && a <= KindInt64
		signedB := b >= KindInt8 && b <= KindInt64
		if signedA != signedB {
			// Mixed signedness widens to Int64.
			return KindInt64
		}
		return a
	}
	if a == KindFloat32 && b.IsInteger() {
		return KindFloat64
	}
	return a
}

// Cast coerces a datum to the target type. A nil datum is only valid for
// nullable targets. Numeric casts are range-checked; strings cast to Date
// and Timestamp by parsing.
func Cast(d Datum, target *DataType) (Datum, error) {
	if d == nil {
		if !target.Nullable {
			return nil, fmt.Errorf("cannot store NULL in non-nullable %s", target)
		}
		return nil, nil
	}

	switch target.Kind {
	case KindBoolean:
		return castBoolean(d)
	case KindInt8, KindInt16, KindInt32, KindInt64:
		return castSigned(d, target.Kind)
	case KindUInt8, KindUInt16, KindUInt32, KindUInt64:
		return castUnsigned(d, target.Kind)
	case KindFloat32, KindFloat64:
		return castFloat(d)
	case KindString:
		if s, ok := d.(string); ok {
			return s, nil
		}
		return Render(d), nil
	case KindDate:
		return castDate(d)
	case KindTimestamp:
		return castTimestamp(d)
	case KindArray:
		arr, ok := d.([]Datum)
		if !ok {
			return nil, fmt.Errorf("cannot cast %T to %s", d, target)
		}
		out := make([]Datum, len(arr))
		for i, e := range arr {
			v, err := Cast(e, target.Elem)
			if err != nil {
				return nil, fmt.Errorf("array element %d: %w", i, err)
			}
			out[i] = v
		}
		return out, nil
	}
	return nil, fmt.Errorf("unsupported cast target %s", target)
}

var signedRange = map[Kind]struct{ min, max int64 }{
	KindInt8:  {math.MinInt8, math.MaxInt8},
	KindInt16: {math.MinInt16, math.MaxInt16},
	KindInt32: {math.MinInt32, math.MaxInt32},
	KindInt64: {math.MinInt64, math.MaxInt64},
}

var unsignedMax = map[Kind]uint64{
	KindUInt8:  math.MaxUint8,
	KindUInt16: math.MaxUint16,
	KindUInt32: math.MaxUint32,
	KindUInt64: math.MaxUint64,
}

func castBoolean(d Datum) (Datum, error) {
	switch v := d.(type) {
	case bool:
		return v, nil
	case int64:
		return v != 0, nil
	case uint64:
		return v != 0, nil
	}
	return nil, fmt.Errorf("cannot cast %T to Boolean", d)
}

func castSigned(d Datum, k Kind) (Datum, error) {
	var n int64
	switch v := d.(type) {
	case int64:
		n = v
	case uint64:
		if v > math.MaxInt64 {
			return nil, fmt.Errorf("value %d out of range for %s", v, k)
		}
		n = int64(v)
	case float64:
		n = int64(v)
	case bool:
		if v {
			n = 1
		}
	case string:
		p, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("cannot cast %q to %s", v, k)
		}
		n = p
	default:
		return nil, fmt.Errorf("cannot cast %T to %s", d, k)
	}
	r := signedRange[k]
	if n < r.min || n > r.max {
		return nil, fmt.Errorf("value %d out of range for %s", n, k)
	}
	return n, nil
}

func castUnsigned(d Datum, k Kind) (Datum, error) {
	var n uint64
	switch v := d.(type) {
	case int64:
		if v < 0 {
			return nil, fmt.Errorf("value %d out of range for %s", v, k)
		}
		n = uint64(v)
	case uint64:
		n = v
	case float64:
		if v < 0 {
			return nil, fmt.Errorf("value %v out of range for %s", v, k)
		}
		n = uint64(v)
	case bool:
		if v {
			n = 1
		}
	case string:
		p, err := strconv.ParseUint(v, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("cannot cast %q to %s", v, k)
		}
		n = p
	default:
		return nil, fmt.Errorf("cannot cast %T to %s", d, k)
	}
	if n > unsignedMax[k] {
		return nil, fmt.Errorf("value %d out of range for %s", n, k)
	}
	return n, nil
}

func castFloat(d Datum) (Datum, error) {
	switch v := d.(type) {
	case float64:
		return v, nil
	case int64:
		return float64(v), nil
	case uint64:
		return float64(v), nil
	case string:
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return nil, fmt.Errorf("cannot cast %q to float", v)
		}
		return f, nil
	}
	return nil, fmt.Errorf("cannot cast %T to float", d)
}

func castDate(d Datum) (Datum, error) {
	switch v := d.(type) {
	case Date:
		return v, nil
	case Timestamp:
		return Date(int64(v) / (86400 * 1_000_000)), nil
	case string:
		return ParseDate(v)
	case int64:
		return Date(v), nil
	}
	return nil, fmt.Errorf("cannot cast %T to Date", d)
}

func castTimestamp(d Datum) (Datum, error) {
	switch v := d.(type) {
	case Timestamp:
		return v, nil
	case Date:
		return Timestamp(int64(v) * 86400 * 1_000_000), nil
	case string:
		return ParseTimestamp(v)
	case int64:
		return Timestamp(v), nil
	}
	return nil, fmt.Errorf("cannot cast %T to Timestamp", d)
}
