// Package wire implements the self-describing binary protocol that transports
// decoded time-series signal data from a CAN decoding producer to a container
// writing consumer.
//
// A stream is a fixed 8-byte magic token (ASCII "BLF2MDF" plus one version
// byte), a uint32 count of signal records, then that many variable-length
// records. All multi-byte integers are little-endian; every variable field is
// length-prefixed, never sentinel-terminated.
//
// Record layout at version 3 (versions are additive supersets):
//
//	name_len u16 | name utf8
//	unit_len u16 | unit utf8                          (v2+)
//	table_count u16                                   (v3+)
//	table_count x { value i64 | desc_len u16 | desc } (v3+)
//	type_marker u8 | sample_count u32
//	fixed kinds:  sample_count x { ts f64 | value 8B }
//	string kind:  sample_count x { ts f64 | len u16 | bytes }
//
// The decoder applies timestamp monotonization and value-table reconciliation
// while reconstructing records, so every Signal it hands out already satisfies
// the strictly-increasing timestamp invariant the container format requires.
package wire

// Protocol versions. Each version owns its exact magic token so a decoder
// never has to guess which optional fields are present.
const (
	VersionV1 uint8 = 1 // name, marker, count, payload
	VersionV2 uint8 = 2 // adds unit before the marker
	VersionV3 uint8 = 3 // adds value table after unit
)

// magicPrefix is the leading ASCII portion of every magic token; the eighth
// byte carries the version.
const magicPrefix = "BLF2MDF"

// MagicSize is the length of the magic token in bytes.
const MagicSize = 8

const (
	// FixedSampleSize is the wire size of one fixed-width sample:
	// 8-byte float64 timestamp followed by an 8-byte value.
	FixedSampleSize = 16

	// readerBufferSize is the transport buffer size. Small field reads (1-byte
	// markers, 2-byte lengths) must not each incur an underlying I/O call.
	readerBufferSize = 1 << 20

	// readChunkSize caps the per-step allocation of large exact reads. A
	// declared sample count is only a 4-byte claim until the payload arrives;
	// chunking makes a truncated giant claim fail at the true stream end
	// instead of allocating the claimed size up front.
	readChunkSize = 1 << 20
)

// SupportedVersion reports whether v identifies a known protocol version.
func SupportedVersion(v uint8) bool {
	return v >= VersionV1 && v <= VersionV3
}

// Magic returns the 8-byte magic token for a protocol version.
func Magic(version uint8) [MagicSize]byte {
	var m [MagicSize]byte
	copy(m[:], magicPrefix)
	m[MagicSize-1] = version

	return m
}
