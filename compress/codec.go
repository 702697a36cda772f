// Package compress provides the payload codecs used by the container format.
//
// Timestamp and value payloads compress well (timestamps are near-monotonic
// doubles, values are repetitive raw 64-bit words), so the container writer
// compresses each payload independently with a codec chosen at file creation
// time and recorded in the container header.
package compress

import "fmt"

// Type identifies a compression algorithm. The value is stored as a single
// byte in the container header.
type Type uint8

const (
	TypeNone Type = 0x1 // no compression
	TypeZstd Type = 0x2 // Zstandard
	TypeS2   Type = 0x3 // S2 (Snappy-compatible)
	TypeLZ4  Type = 0x4 // LZ4 block format
)

// Valid reports whether t identifies a known codec.
func (t Type) Valid() bool {
	return t >= TypeNone && t <= TypeLZ4
}

func (t Type) String() string {
	switch t {
	case TypeNone:
		return "none"
	case TypeZstd:
		return "zstd"
	case TypeS2:
		return "s2"
	case TypeLZ4:
		return "lz4"
	default:
		return "unknown"
	}
}

// ParseType maps a codec name (as accepted on the command line) to its Type.
func ParseType(name string) (Type, error) {
	switch name {
	case "none":
		return TypeNone, nil
	case "zstd":
		return TypeZstd, nil
	case "s2":
		return TypeS2, nil
	case "lz4":
		return TypeLZ4, nil
	default:
		return 0, fmt.Errorf("unknown compression %q (want none, zstd, s2 or lz4)", name)
	}
}

// Compressor compresses one payload. The returned slice is owned by the
// caller; the input is never modified.
type Compressor interface {
	Compress(data []byte) ([]byte, error)
}

// Decompressor reverses Compressor for payloads produced with the same
// algorithm, validating the data format in the process.
type Decompressor interface {
	Decompress(data []byte) ([]byte, error)
}

// Codec combines both directions. All implementations in this package are
// stateless values, safe for concurrent use.
type Codec interface {
	Compressor
	Decompressor
}

var codecs = map[Type]Codec{
	TypeNone: NewNoOpCodec(),
	TypeZstd: NewZstdCodec(),
	TypeS2:   NewS2Codec(),
	TypeLZ4:  NewLZ4Codec(),
}

// GetCodec returns the built-in Codec for a compression type.
func GetCodec(t Type) (Codec, error) {
	if codec, ok := codecs[t]; ok {
		return codec, nil
	}

	return nil, fmt.Errorf("unsupported compression type: %s", t)
}
