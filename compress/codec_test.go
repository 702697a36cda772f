package compress

import (
	"bytes"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"
)

func samplePayload() []byte {
	// Near-monotonic float64 bit patterns, shaped like a timestamp column.
	rng := rand.New(rand.NewSource(42))
	data := make([]byte, 0, 8*1024)
	for i := 0; i < 1024; i++ {
		v := uint64(i)*1000 + uint64(rng.Intn(10))
		data = append(data,
			byte(v), byte(v>>8), byte(v>>16), byte(v>>24),
			byte(v>>32), byte(v>>40), byte(v>>48), byte(v>>56))
	}

	return data
}

func TestCodecRoundTrip(t *testing.T) {
	payload := samplePayload()

	for _, ctype := range []Type{TypeNone, TypeZstd, TypeS2, TypeLZ4} {
		t.Run(ctype.String(), func(t *testing.T) {
			codec, err := GetCodec(ctype)
			require.NoError(t, err)

			compressed, err := codec.Compress(payload)
			require.NoError(t, err)

			restored, err := codec.Decompress(compressed)
			require.NoError(t, err)
			require.True(t, bytes.Equal(payload, restored))
		})
	}
}

func TestCodecEmptyInput(t *testing.T) {
	for _, ctype := range []Type{TypeNone, TypeZstd, TypeS2, TypeLZ4} {
		t.Run(ctype.String(), func(t *testing.T) {
			codec, err := GetCodec(ctype)
			require.NoError(t, err)

			compressed, err := codec.Compress(nil)
			require.NoError(t, err)

			restored, err := codec.Decompress(compressed)
			require.NoError(t, err)
			require.Empty(t, restored)
		})
	}
}

func TestCodecCompresses(t *testing.T) {
	payload := samplePayload()

	for _, ctype := range []Type{TypeZstd, TypeS2, TypeLZ4} {
		t.Run(ctype.String(), func(t *testing.T) {
			codec, err := GetCodec(ctype)
			require.NoError(t, err)

			compressed, err := codec.Compress(payload)
			require.NoError(t, err)
			require.Less(t, len(compressed), len(payload))
		})
	}
}

func TestDecompressCorruptData(t *testing.T) {
	// LZ4 blocks are headerless and short garbage can be coincidentally
	// decodable, so only the framed codecs are checked here.
	for _, ctype := range []Type{TypeZstd, TypeS2} {
		t.Run(ctype.String(), func(t *testing.T) {
			codec, err := GetCodec(ctype)
			require.NoError(t, err)

			_, err = codec.Decompress([]byte("definitely not a valid frame"))
			require.Error(t, err)
		})
	}
}

func TestParseType(t *testing.T) {
	for name, want := range map[string]Type{
		"none": TypeNone,
		"zstd": TypeZstd,
		"s2":   TypeS2,
		"lz4":  TypeLZ4,
	} {
		got, err := ParseType(name)
		require.NoError(t, err)
		require.Equal(t, want, got)
	}

	_, err := ParseType("brotli")
	require.Error(t, err)
}

func TestGetCodecUnknown(t *testing.T) {
	_, err := GetCodec(Type(0))
	require.Error(t, err)
	require.False(t, Type(0).Valid())
	require.Equal(t, "unknown", Type(9).String())
}
