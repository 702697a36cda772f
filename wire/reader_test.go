package wire

import (
	"bytes"
	"encoding/binary"
	"errors"
	"io"
	"math"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/canwire/sigstream/errs"
)

func TestReaderTypedReads(t *testing.T) {
	var raw []byte
	raw = append(raw, 0x7f)
	raw = binary.LittleEndian.AppendUint16(raw, 0x1234)
	raw = binary.LittleEndian.AppendUint32(raw, 0xdeadbeef)
	negInt64 := int64(-42)
	raw = binary.LittleEndian.AppendUint64(raw, uint64(negInt64))
	raw = binary.LittleEndian.AppendUint64(raw, math.Float64bits(1.25))

	r := NewReader(bytes.NewReader(raw))

	u8, err := r.Uint8()
	require.NoError(t, err)
	require.Equal(t, uint8(0x7f), u8)

	u16, err := r.Uint16()
	require.NoError(t, err)
	require.Equal(t, uint16(0x1234), u16)

	u32, err := r.Uint32()
	require.NoError(t, err)
	require.Equal(t, uint32(0xdeadbeef), u32)

	i64, err := r.Int64()
	require.NoError(t, err)
	require.Equal(t, int64(-42), i64)

	f64, err := r.Float64()
	require.NoError(t, err)
	require.Equal(t, 1.25, f64)

	require.Equal(t, int64(len(raw)), r.Offset())
}

func TestReaderReadExact(t *testing.T) {
	t.Run("ExactBytes", func(t *testing.T) {
		r := NewReader(bytes.NewReader([]byte("abcdef")))
		got, err := r.ReadExact(4)
		require.NoError(t, err)
		require.Equal(t, []byte("abcd"), got)
		require.Equal(t, int64(4), r.Offset())
	})

	t.Run("ShortReadReportsOffset", func(t *testing.T) {
		r := NewReader(bytes.NewReader([]byte("abc")))

		_, err := r.ReadExact(2)
		require.NoError(t, err)

		_, err = r.ReadExact(5)
		require.ErrorIs(t, err, errs.ErrUnexpectedEOF)
		require.Contains(t, err.Error(), "offset 2")
	})

	t.Run("LargeReadChunked", func(t *testing.T) {
		data := make([]byte, readChunkSize*2+3)
		for i := range data {
			data[i] = byte(i)
		}

		r := NewReader(bytes.NewReader(data))
		got, err := r.ReadExact(len(data))
		require.NoError(t, err)
		require.True(t, bytes.Equal(data, got))
		require.Equal(t, int64(len(data)), r.Offset())
	})

	t.Run("LargeReadTruncated", func(t *testing.T) {
		// Only one chunk of the claimed size is present; the failure must
		// arrive at the true stream end as a short read.
		r := NewReader(bytes.NewReader(make([]byte, readChunkSize)))
		_, err := r.ReadExact(readChunkSize * 8)
		require.ErrorIs(t, err, errs.ErrUnexpectedEOF)
	})

	t.Run("EOFAtFieldBoundary", func(t *testing.T) {
		r := NewReader(bytes.NewReader(nil))
		_, err := r.Uint32()
		require.ErrorIs(t, err, errs.ErrUnexpectedEOF)
	})
}

// failingReader simulates a transport failure that is not end-of-stream.
type failingReader struct{}

func (failingReader) Read([]byte) (int, error) {
	return 0, io.ErrClosedPipe
}

func TestReaderTransportError(t *testing.T) {
	r := NewReader(failingReader{})
	_, err := r.Uint8()
	require.Error(t, err)
	require.True(t, errors.Is(err, io.ErrClosedPipe))
	require.False(t, errors.Is(err, errs.ErrUnexpectedEOF))
}
