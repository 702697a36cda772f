package signal

import (
	"math"
	"strconv"
)

// Value is a tagged variant holding one sample value of any supported kind.
//
// Signals store their samples columnar (see Signal), so Value only appears at
// API edges: per-sample access for consumers and human-readable diagnostics.
// The zero Value has an invalid kind.
type Value struct {
	str  string
	num  uint64
	kind Kind
}

// Int64Value wraps a signed sample value.
func Int64Value(v int64) Value {
	return Value{kind: KindInt64, num: uint64(v)}
}

// Uint64Value wraps an unsigned sample value.
func Uint64Value(v uint64) Value {
	return Value{kind: KindUint64, num: v}
}

// Float64Value wraps a floating-point sample value.
func Float64Value(v float64) Value {
	return Value{kind: KindFloat64, num: math.Float64bits(v)}
}

// StringValue wraps a string sample value.
func StringValue(v string) Value {
	return Value{kind: KindString, str: v}
}

// Kind returns the variant tag.
func (v Value) Kind() Kind {
	return v.kind
}

// Int64 returns the signed value. Meaningful only when Kind is KindInt64.
func (v Value) Int64() int64 {
	return int64(v.num)
}

// Uint64 returns the unsigned value. Meaningful only when Kind is KindUint64.
func (v Value) Uint64() uint64 {
	return v.num
}

// Float64 returns the floating-point value. Meaningful only when Kind is
// KindFloat64.
func (v Value) Float64() float64 {
	return math.Float64frombits(v.num)
}

// Str returns the string value. Meaningful only when Kind is KindString.
func (v Value) Str() string {
	return v.str
}

// String renders the value for diagnostics.
func (v Value) String() string {
	switch v.kind {
	case KindInt64:
		return strconv.FormatInt(v.Int64(), 10)
	case KindUint64:
		return strconv.FormatUint(v.Uint64(), 10)
	case KindFloat64:
		return strconv.FormatFloat(v.Float64(), 'g', -1, 64)
	case KindString:
		return v.str
	default:
		return "<invalid>"
	}
}
