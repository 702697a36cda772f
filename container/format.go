// Package container implements the time-series container file that stores
// reconstructed signals: named sample sequences with optional unit and
// optional value-table metadata.
//
// The input contract is the one the wire decoder produces: strictly
// increasing timestamps, columnar typed values, stable value-table ordering,
// and no empty series. The block layout itself is private to this package.
//
// File layout:
//
//	header  (16B): magic "SGC1" | format u8 | compression u8 | reserved
//	blocks:        one per signal, appended in arrival order
//	index:         count x { xxhash64(name) u64 | block offset u64 }
//	footer  (16B): index offset u64 | signal count u32 | magic "SGCE"
//
// Each block carries the signal metadata uncompressed (name, unit, kind,
// value table) and two independently compressed payloads: the timestamp
// column and the value column. The footer-terminated layout lets the writer
// stream blocks to a plain io.Writer without seeking.
package container

import "github.com/canwire/sigstream/compress"

const (
	// FormatVersion is the container block layout revision.
	FormatVersion uint8 = 1

	headerSize = 16
	footerSize = 16

	indexEntrySize = 16

	// DefaultCompression is applied when no option overrides it.
	DefaultCompression = compress.TypeZstd
)

var (
	headerMagic = [4]byte{'S', 'G', 'C', '1'}
	footerMagic = [4]byte{'S', 'G', 'C', 'E'}
)

// Block flag bits.
const (
	flagHasTable uint8 = 1 << 0
)
