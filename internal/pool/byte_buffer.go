// Package pool provides pooled byte buffers used by the wire encoder and the
// container writer to assemble records before they hit the underlying writer.
package pool

import (
	"io"
	"sync"
)

const (
	// RecordBufferDefaultSize is the initial capacity of record buffers. Most
	// signal records fit well under 64KiB once unit and table fields are in.
	RecordBufferDefaultSize = 64 * 1024

	// RecordBufferMaxThreshold is the largest buffer the pool will retain.
	// Buffers grown past this (huge sample payloads) are left to the GC.
	RecordBufferMaxThreshold = 4 * 1024 * 1024
)

// ByteBuffer is a length-tracked byte slice with amortized growth.
type ByteBuffer struct {
	B []byte
}

// NewByteBuffer creates a ByteBuffer with the given initial capacity.
func NewByteBuffer(size int) *ByteBuffer {
	return &ByteBuffer{B: make([]byte, 0, size)}
}

// Bytes returns the underlying byte slice.
func (bb *ByteBuffer) Bytes() []byte {
	return bb.B
}

// Len returns the current length of the buffer.
func (bb *ByteBuffer) Len() int {
	return len(bb.B)
}

// Reset empties the buffer while keeping its allocation for reuse.
func (bb *ByteBuffer) Reset() {
	bb.B = bb.B[:0]
}

// Grow ensures the buffer can hold n more bytes without reallocating.
//
// Small buffers grow by RecordBufferDefaultSize; larger ones by 25% of their
// capacity, so repeated single-field appends stay amortized O(1).
func (bb *ByteBuffer) Grow(n int) {
	if cap(bb.B)-len(bb.B) >= n {
		return
	}

	growBy := RecordBufferDefaultSize
	if cap(bb.B) > 4*RecordBufferDefaultSize {
		growBy = cap(bb.B) / 4
	}
	if growBy < n {
		growBy = n
	}

	next := make([]byte, len(bb.B), len(bb.B)+growBy)
	copy(next, bb.B)
	bb.B = next
}

// Write appends data, growing the buffer as needed. Never fails; the error
// return exists to satisfy io.Writer.
func (bb *ByteBuffer) Write(data []byte) (int, error) {
	bb.B = append(bb.B, data...)
	return len(data), nil
}

// WriteTo flushes the buffer contents to w.
func (bb *ByteBuffer) WriteTo(w io.Writer) (int64, error) {
	n, err := w.Write(bb.B)
	return int64(n), err
}

var recordPool = sync.Pool{
	New: func() any {
		return NewByteBuffer(RecordBufferDefaultSize)
	},
}

// GetRecordBuffer retrieves a ByteBuffer from the shared record pool.
func GetRecordBuffer() *ByteBuffer {
	bb, _ := recordPool.Get().(*ByteBuffer)
	return bb
}

// PutRecordBuffer returns a ByteBuffer to the shared record pool. Oversized
// buffers are dropped instead of retained.
func PutRecordBuffer(bb *ByteBuffer) {
	if bb == nil || cap(bb.B) > RecordBufferMaxThreshold {
		return
	}
	bb.Reset()
	recordPool.Put(bb)
}
