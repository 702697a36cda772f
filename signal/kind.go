package signal

// Kind is the closed set of sample value representations carried by the wire
// protocol. The numeric values double as the on-wire type markers, so decoding
// a marker byte is a checked conversion rather than an open-ended tag switch.
type Kind uint8

const (
	KindInt64   Kind = 1 // signed 64-bit samples
	KindUint64  Kind = 2 // unsigned 64-bit samples
	KindFloat64 Kind = 3 // IEEE 754 double samples
	KindString  Kind = 4 // UTF-8 string samples
)

// Valid reports whether k is one of the supported kinds.
func (k Kind) Valid() bool {
	return k >= KindInt64 && k <= KindString
}

// FixedWidth reports whether samples of this kind occupy a fixed 16 bytes on
// the wire (8-byte timestamp + 8-byte value) and can be decoded as one
// contiguous block.
func (k Kind) FixedWidth() bool {
	return k == KindInt64 || k == KindUint64 || k == KindFloat64
}

// Integer reports whether samples of this kind carry integer semantics and
// therefore participate in value-table reconciliation.
func (k Kind) Integer() bool {
	return k == KindInt64 || k == KindUint64
}

func (k Kind) String() string {
	switch k {
	case KindInt64:
		return "int64"
	case KindUint64:
		return "uint64"
	case KindFloat64:
		return "float64"
	case KindString:
		return "string"
	default:
		return "unknown"
	}
}
