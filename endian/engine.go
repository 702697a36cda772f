// Package endian provides byte order utilities for the wire protocol and the
// container file format.
//
// It combines the ByteOrder and AppendByteOrder interfaces from encoding/binary
// into a single EndianEngine interface so encoders can use the faster append
// style operations while decoders read with the classic fixed-offset style.
//
// Both the wire protocol and the container format are little-endian, so most
// code obtains its engine from GetLittleEndianEngine. The big-endian engine
// exists for tests that exercise engine plumbing.
package endian

import "encoding/binary"

// EndianEngine combines ByteOrder and AppendByteOrder from encoding/binary.
//
// binary.LittleEndian and binary.BigEndian both satisfy this interface, so an
// EndianEngine is always immutable, stateless and safe for concurrent use.
type EndianEngine interface {
	binary.ByteOrder
	binary.AppendByteOrder
}

// GetLittleEndianEngine returns the little-endian engine.
func GetLittleEndianEngine() EndianEngine {
	return binary.LittleEndian
}

// GetBigEndianEngine returns the big-endian engine.
func GetBigEndianEngine() EndianEngine {
	return binary.BigEndian
}
