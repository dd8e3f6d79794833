package types

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// Datum is a single runtime value. The dynamic type is one of:
//
//	nil        NULL
//	bool       Boolean
//	int64      all signed integer kinds
//	uint64     all unsigned integer kinds
//	float64    Float32 and Float64
//	string     String
//	Date       Date
//	Timestamp  Timestamp
//	[]Datum    Array
type Datum any

// Date is days since the Unix epoch.
type Date int32

// Timestamp is microseconds since the Unix epoch, UTC.
type Timestamp int64

const (
	dateLayout      = "2006-01-02"
	timestampLayout = "2006-01-02 15:04:05.000000"
)

// Time converts the date to a UTC time.Time at midnight.
func (d Date) Time() time.Time {
	return time.Unix(int64(d)*86400, 0).UTC()
}

// String renders the date as YYYY-MM-DD.
func (d Date) String() string {
	return d.Time().Format(dateLayout)
}

// Time converts the timestamp to a UTC time.Time.
func (ts Timestamp) Time() time.Time {
	return time.UnixMicro(int64(ts)).UTC()
}

// String renders the timestamp with microsecond precision.
func (ts Timestamp) String() string {
	return ts.Time().Format(timestampLayout)
}

// ParseDate parses a YYYY-MM-DD string.
func ParseDate(s string) (Date, error) {
	t, err := time.ParseInLocation(dateLayout, s, time.UTC)
	if err != nil {
		return 0, fmt.Errorf("invalid date %q: %w", s, err)
	}
	return Date(t.Unix() / 86400), nil
}

// ParseTimestamp parses a timestamp string, with or without a fractional
// seconds part.
func ParseTimestamp(s string) (Timestamp, error) {
	for _, layout := range []string{
		"2006-01-02 15:04:05.999999",
		"2006-01-02 15:04:05",
		"2006-01-02T15:04:05.999999",
		"2006-01-02T15:04:05",
	} {
		if t, err := time.ParseInLocation(layout, s, time.UTC); err == nil {
			return Timestamp(t.UnixMicro()), nil
		}
	}
	return 0, fmt.Errorf("invalid timestamp %q", s)
}

// Render formats a datum as a result cell the way query output is compared:
// strings bare, NULL literal, arrays bracketed with elements rendered
// quoted (strings, dates and timestamps carry single quotes inside arrays).
func Render(d Datum) string {
	return render(d, false)
}

func render(d Datum, inArray bool) string {
	switch v := d.(type) {
	case nil:
		return "NULL"
	case bool:
		if v {
			return "1"
		}
		return "0"
	case int64:
		return strconv.FormatInt(v, 10)
	case uint64:
		return strconv.FormatUint(v, 10)
	case float64:
		return renderFloat(v)
	case string:
		if inArray {
			return "'" + v + "'"
		}
		return v
	case Date:
		if inArray {
			return "'" + v.String() + "'"
		}
		return v.String()
	case Timestamp:
		if inArray {
			return "'" + v.String() + "'"
		}
		return v.String()
	case []Datum:
		var b strings.Builder
		b.WriteByte('[')
		for i, elem := range v {
			if i > 0 {
				b.WriteByte(',')
			}
			b.WriteString(render(elem, true))
		}
		b.WriteByte(']')
		return b.String()
	default:
		return fmt.Sprintf("%v", v)
	}
}

// renderFloat matches the engine's float display: integral values keep a
// trailing ".0", everything else uses the shortest round-trip form.
func renderFloat(f float64) string {
	if math.IsInf(f, 1) {
		return "inf"
	}
	if math.IsInf(f, -1) {
		return "-inf"
	}
	if math.IsNaN(f) {
		return "NaN"
	}
	if f == math.Trunc(f) && math.Abs(f) < 1e15 {
		return strconv.FormatFloat(f, 'f', 1, 64)
	}
	return strconv.FormatFloat(f, 'g', -1, 64)
}

// TypeOf infers the narrowest type of a literal datum. Integers map to
// Int64, floats to Float64; a NULL datum maps to the NULL type.
func TypeOf(d Datum) *DataType {
	switch v := d.(type) {
	case nil:
		return &DataType{Kind: KindNull, Nullable: true}
	case bool:
		return New(KindBoolean)
	case int64:
		return New(KindInt64)
	case uint64:
		return New(KindUInt64)
	case float64:
		return New(KindFloat64)
	case string:
		return New(KindString)
	case Date:
		return New(KindDate)
	case Timestamp:
		return New(KindTimestamp)
	case []Datum:
		elem := &DataType{Kind: KindNull, Nullable: true}
		for _, e := range v {
			et := TypeOf(e)
			merged, err := CommonType(elem, et)
			if err != nil {
				// Heterogeneous literal; leave the widest seen so far.
				continue
			}
			elem = merged
		}
		return NewArray(elem)
	default:
		return &DataType{Kind: KindNull, Nullable: true}
	}
}
