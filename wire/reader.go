package wire

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"math"

	"github.com/canwire/sigstream/endian"
	"github.com/canwire/sigstream/errs"
)

// Reader presents the transport stream as a sequence of exact-size reads,
// buffering internally so small field reads stay cheap. It tracks the running
// byte offset so truncation errors can name the position where the stream
// ended, and has no knowledge of record semantics.
//
// Reader is forward-only and non-seekable; the protocol is self-delimiting
// only by reading fields in declared order.
type Reader struct {
	br      *bufio.Reader
	engine  endian.EndianEngine
	offset  int64
	scratch [8]byte
}

// NewReader wraps r with a buffered exact-read reader.
func NewReader(r io.Reader) *Reader {
	return &Reader{
		br:     bufio.NewReaderSize(r, readerBufferSize),
		engine: endian.GetLittleEndianEngine(),
	}
}

// Offset returns the number of bytes consumed so far.
func (r *Reader) Offset() int64 {
	return r.offset
}

// ReadExact returns exactly n freshly allocated bytes, or fails. A short read
// is never silently accepted: it surfaces as an error wrapping
// errs.ErrUnexpectedEOF that names the byte offset of the truncation.
//
// Reads larger than readChunkSize are filled incrementally, so n bytes are
// only ever held once the stream has actually delivered them.
func (r *Reader) ReadExact(n int) ([]byte, error) {
	buf := make([]byte, min(n, readChunkSize))
	if err := r.fill(buf); err != nil {
		return nil, err
	}

	for len(buf) < n {
		chunk := min(n-len(buf), readChunkSize)
		filled := len(buf)
		buf = append(buf, make([]byte, chunk)...)
		if err := r.fill(buf[filled:]); err != nil {
			return nil, err
		}
	}

	return buf, nil
}

// Uint8 reads one byte.
func (r *Reader) Uint8() (uint8, error) {
	b := r.scratch[:1]
	if err := r.fill(b); err != nil {
		return 0, err
	}

	return b[0], nil
}

// Uint16 reads a little-endian uint16.
func (r *Reader) Uint16() (uint16, error) {
	b := r.scratch[:2]
	if err := r.fill(b); err != nil {
		return 0, err
	}

	return r.engine.Uint16(b), nil
}

// Uint32 reads a little-endian uint32.
func (r *Reader) Uint32() (uint32, error) {
	b := r.scratch[:4]
	if err := r.fill(b); err != nil {
		return 0, err
	}

	return r.engine.Uint32(b), nil
}

// Int64 reads a little-endian signed 64-bit integer.
func (r *Reader) Int64() (int64, error) {
	b := r.scratch[:8]
	if err := r.fill(b); err != nil {
		return 0, err
	}

	return int64(r.engine.Uint64(b)), nil
}

// Float64 reads a little-endian IEEE 754 double.
func (r *Reader) Float64() (float64, error) {
	b := r.scratch[:8]
	if err := r.fill(b); err != nil {
		return 0, err
	}

	return math.Float64frombits(r.engine.Uint64(b)), nil
}

// fill reads len(buf) bytes or fails, advancing the offset by the bytes
// actually consumed.
func (r *Reader) fill(buf []byte) error {
	n, err := io.ReadFull(r.br, buf)
	r.offset += int64(n)
	if err == nil {
		return nil
	}

	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		return fmt.Errorf("need %d bytes at offset %d, got %d: %w",
			len(buf), r.offset-int64(n), n, errs.ErrUnexpectedEOF)
	}

	// Transport-level failure (closed pipe etc.) surfaces as-is with position.
	return fmt.Errorf("read at offset %d: %w", r.offset-int64(n), err)
}
