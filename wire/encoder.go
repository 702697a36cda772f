package wire

import (
	"fmt"
	"io"
	"math"

	"github.com/canwire/sigstream/endian"
	"github.com/canwire/sigstream/errs"
	"github.com/canwire/sigstream/internal/pool"
	"github.com/canwire/sigstream/signal"
)

// StreamEncoder serializes signals into the wire protocol, one record at a
// time. Records are assembled in a pooled buffer and flushed per signal, so
// peak memory stays at O(largest signal).
//
// Usage: Begin with the total signal count, WriteSignal for each signal, then
// Finish. Finish fails if the emitted count does not match the declared one,
// because the count is part of the stream header and decoders trust it.
//
// StreamEncoder is not safe for concurrent use.
type StreamEncoder struct {
	w        io.Writer
	buf      *pool.ByteBuffer
	engine   endian.EndianEngine
	version  uint8
	declared uint32
	written  uint32
	begun    bool
	finished bool
}

// EncoderOption configures a StreamEncoder.
type EncoderOption func(*StreamEncoder)

// WithVersion selects the protocol version to emit. The default is VersionV3.
// Encoding at an older version silently omits the fields that version cannot
// carry (unit at v1, value table at v1/v2).
func WithVersion(v uint8) EncoderOption {
	return func(e *StreamEncoder) {
		e.version = v
	}
}

// NewStreamEncoder creates an encoder writing to w.
func NewStreamEncoder(w io.Writer, opts ...EncoderOption) *StreamEncoder {
	e := &StreamEncoder{
		w:       w,
		engine:  endian.GetLittleEndianEngine(),
		version: VersionV3,
	}
	for _, opt := range opts {
		opt(e)
	}

	return e
}

// Begin writes the stream header: the magic token for the configured version
// and the declared signal record count.
func (e *StreamEncoder) Begin(signalCount int) error {
	if e.finished {
		return errs.ErrEncoderFinished
	}
	if e.begun {
		return fmt.Errorf("stream header already written: %w", errs.ErrEncoderFinished)
	}
	if !SupportedVersion(e.version) {
		return fmt.Errorf("version %d: %w", e.version, errs.ErrInvalidMagic)
	}
	if signalCount < 0 || signalCount > math.MaxUint32 {
		return fmt.Errorf("signal count %d out of range: %w", signalCount, errs.ErrSignalCountMismatch)
	}

	magic := Magic(e.version)
	header := make([]byte, 0, MagicSize+4)
	header = append(header, magic[:]...)
	header = e.engine.AppendUint32(header, uint32(signalCount))

	if _, err := e.w.Write(header); err != nil {
		return fmt.Errorf("write stream header: %w", err)
	}

	e.declared = uint32(signalCount)
	e.begun = true
	e.buf = pool.GetRecordBuffer()

	return nil
}

// WriteSignal emits one signal record. The signal must be internally
// consistent (see signal.Signal.Validate) and every string field must fit a
// uint16 length prefix.
func (e *StreamEncoder) WriteSignal(sig *signal.Signal) error {
	if e.finished {
		return errs.ErrEncoderFinished
	}
	if !e.begun {
		return errs.ErrEncoderNotStarted
	}
	if e.written == e.declared {
		return fmt.Errorf("all %d declared records written: %w", e.declared, errs.ErrSignalCountMismatch)
	}
	if err := sig.Validate(); err != nil {
		return err
	}

	e.buf.Reset()
	if err := e.appendString(sig.Name); err != nil {
		return fmt.Errorf("signal %q: name: %w", sig.Name, err)
	}

	if e.version >= VersionV2 {
		if err := e.appendString(sig.Unit); err != nil {
			return fmt.Errorf("signal %q: unit: %w", sig.Name, err)
		}
	}

	if e.version >= VersionV3 {
		if err := e.appendTable(sig.Table); err != nil {
			return fmt.Errorf("signal %q: %w", sig.Name, err)
		}
	}

	e.buf.B = append(e.buf.B, byte(sig.Kind))
	e.buf.B = e.engine.AppendUint32(e.buf.B, uint32(sig.Len()))

	if sig.Kind.FixedWidth() {
		e.appendFixed(sig)
	} else if err := e.appendStringSamples(sig); err != nil {
		return fmt.Errorf("signal %q: %w", sig.Name, err)
	}

	if _, err := e.buf.WriteTo(e.w); err != nil {
		return fmt.Errorf("signal %q: write record: %w", sig.Name, err)
	}
	e.written++

	return nil
}

// Finish verifies the emitted record count against the declared one and
// releases the record buffer. The encoder cannot be reused afterwards.
func (e *StreamEncoder) Finish() error {
	if e.finished {
		return errs.ErrEncoderFinished
	}
	e.finished = true

	if e.buf != nil {
		pool.PutRecordBuffer(e.buf)
		e.buf = nil
	}

	if !e.begun {
		return errs.ErrEncoderNotStarted
	}
	if e.written != e.declared {
		return fmt.Errorf("declared %d records, wrote %d: %w",
			e.declared, e.written, errs.ErrSignalCountMismatch)
	}

	return nil
}

// appendString appends a u16-length-prefixed string to the record buffer.
func (e *StreamEncoder) appendString(s string) error {
	if len(s) > math.MaxUint16 {
		return fmt.Errorf("length %d: %w", len(s), errs.ErrStringTooLong)
	}

	e.buf.Grow(2 + len(s))
	e.buf.B = e.engine.AppendUint16(e.buf.B, uint16(len(s)))
	e.buf.B = append(e.buf.B, s...)

	return nil
}

// appendTable appends the value-table section. A nil or empty table encodes
// as a zero entry count.
func (e *StreamEncoder) appendTable(table *signal.ValueTable) error {
	if table == nil || table.Len() == 0 {
		e.buf.B = e.engine.AppendUint16(e.buf.B, 0)
		return nil
	}
	if table.Len() > math.MaxUint16 {
		return fmt.Errorf("table with %d entries: %w", table.Len(), errs.ErrStringTooLong)
	}

	e.buf.B = e.engine.AppendUint16(e.buf.B, uint16(table.Len()))
	for i, entry := range table.Entries() {
		e.buf.B = e.engine.AppendUint64(e.buf.B, uint64(entry.Value))
		if err := e.appendString(entry.Desc); err != nil {
			return fmt.Errorf("table entry %d: %w", i, err)
		}
	}

	return nil
}

// appendFixed appends a fixed-width payload: count x 16 bytes, timestamp bits
// then value bits per sample.
func (e *StreamEncoder) appendFixed(sig *signal.Signal) {
	e.buf.Grow(sig.Len() * FixedSampleSize)

	for i, ts := range sig.Timestamps {
		e.buf.B = e.engine.AppendUint64(e.buf.B, math.Float64bits(ts))

		switch sig.Kind {
		case signal.KindInt64:
			e.buf.B = e.engine.AppendUint64(e.buf.B, uint64(sig.Ints[i]))
		case signal.KindUint64:
			e.buf.B = e.engine.AppendUint64(e.buf.B, sig.Uints[i])
		case signal.KindFloat64:
			e.buf.B = e.engine.AppendUint64(e.buf.B, math.Float64bits(sig.Floats[i]))
		}
	}
}

// appendStringSamples appends a variable-width payload: timestamp then
// u16-length-prefixed string per sample.
func (e *StreamEncoder) appendStringSamples(sig *signal.Signal) error {
	for i, ts := range sig.Timestamps {
		e.buf.B = e.engine.AppendUint64(e.buf.B, math.Float64bits(ts))
		if err := e.appendString(sig.Strings[i]); err != nil {
			return fmt.Errorf("string sample %d: %w", i, err)
		}
	}

	return nil
}
