package compress

// ZstdCodec compresses payloads with Zstandard, the default for container
// files: the best ratio of the supported codecs at acceptable speed for an
// offline conversion tool.
//
// Two implementations exist behind build tags: cgo builds use valyala/gozstd
// (libzstd bindings), non-cgo builds fall back to the pure-Go
// klauspost/compress/zstd. The produced frames are interchangeable.
type ZstdCodec struct{}

var _ Codec = (*ZstdCodec)(nil)

// NewZstdCodec creates a Zstd codec.
func NewZstdCodec() ZstdCodec {
	return ZstdCodec{}
}
