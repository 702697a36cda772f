package container

import (
	"fmt"
	"io"
	"math"
	"os"

	"github.com/canwire/sigstream/compress"
	"github.com/canwire/sigstream/endian"
	"github.com/canwire/sigstream/errs"
	"github.com/canwire/sigstream/internal/hash"
	"github.com/canwire/sigstream/internal/pool"
	"github.com/canwire/sigstream/signal"
)

// Writer persists signals to a container file, one block per signal, streamed
// as they arrive. The index and footer are written on Close, so the
// underlying writer never needs to seek.
//
// Writer is single-threaded and not reusable after Close.
type Writer struct {
	w      io.Writer
	closer io.Closer
	engine endian.EndianEngine
	codec  compress.Codec
	ctype  compress.Type
	buf    *pool.ByteBuffer

	offset  int64
	index   []indexEntry
	started bool
	closed  bool
}

type indexEntry struct {
	id     uint64
	offset uint64
}

// WriterOption configures a Writer.
type WriterOption func(*Writer)

// WithCompression selects the payload codec. The default is Zstd.
func WithCompression(t compress.Type) WriterOption {
	return func(w *Writer) {
		w.ctype = t
	}
}

// Create creates (or truncates) the container file at path.
func Create(path string, opts ...WriterOption) (*Writer, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("create container %q: %w", path, err)
	}

	w, err := NewWriter(f, opts...)
	if err != nil {
		f.Close()
		return nil, err
	}
	w.closer = f

	return w, nil
}

// NewWriter writes a container to an arbitrary io.Writer. Close flushes the
// index and footer but does not close w.
func NewWriter(out io.Writer, opts ...WriterOption) (*Writer, error) {
	w := &Writer{
		w:      out,
		engine: endian.GetLittleEndianEngine(),
		ctype:  DefaultCompression,
	}
	for _, opt := range opts {
		opt(w)
	}

	codec, err := compress.GetCodec(w.ctype)
	if err != nil {
		return nil, err
	}
	w.codec = codec
	w.buf = pool.GetRecordBuffer()

	return w, nil
}

// Compression returns the codec type this writer was created with.
func (w *Writer) Compression() compress.Type {
	return w.ctype
}

// Count returns the number of signals appended so far.
func (w *Writer) Count() int {
	return len(w.index)
}

// Append writes one signal block. The signal must carry at least one sample;
// the container format disallows empty series. Ownership of the signal
// transfers to the writer for the duration of the call; it is not retained.
func (w *Writer) Append(sig *signal.Signal) error {
	if w.closed {
		return errs.ErrWriterClosed
	}
	if err := sig.Validate(); err != nil {
		return err
	}
	if sig.Len() == 0 {
		return fmt.Errorf("signal %q: %w", sig.Name, errs.ErrEmptySignal)
	}

	if !w.started {
		if err := w.writeHeader(); err != nil {
			return err
		}
		w.started = true
	}

	blockOffset := w.offset
	if err := w.writeBlock(sig); err != nil {
		return fmt.Errorf("signal %q: %w", sig.Name, err)
	}

	w.index = append(w.index, indexEntry{
		id:     hash.SignalID(sig.Name),
		offset: uint64(blockOffset),
	})

	return nil
}

// Close writes the index and footer and releases resources. For writers
// obtained from Create it also closes the underlying file.
func (w *Writer) Close() error {
	if w.closed {
		return errs.ErrWriterClosed
	}
	w.closed = true

	defer func() {
		pool.PutRecordBuffer(w.buf)
		w.buf = nil
	}()

	// A container with zero signals still gets a valid header.
	if !w.started {
		if err := w.writeHeader(); err != nil {
			return err
		}
	}

	indexOffset := w.offset

	w.buf.Reset()
	w.buf.Grow(len(w.index)*indexEntrySize + footerSize)
	for _, entry := range w.index {
		w.buf.B = w.engine.AppendUint64(w.buf.B, entry.id)
		w.buf.B = w.engine.AppendUint64(w.buf.B, entry.offset)
	}

	w.buf.B = w.engine.AppendUint64(w.buf.B, uint64(indexOffset))
	w.buf.B = w.engine.AppendUint32(w.buf.B, uint32(len(w.index)))
	w.buf.B = append(w.buf.B, footerMagic[:]...)

	if err := w.flush(); err != nil {
		return fmt.Errorf("write index: %w", err)
	}

	if w.closer != nil {
		return w.closer.Close()
	}

	return nil
}

func (w *Writer) writeHeader() error {
	w.buf.Reset()
	w.buf.B = append(w.buf.B, headerMagic[:]...)
	w.buf.B = append(w.buf.B, FormatVersion, byte(w.ctype))
	w.buf.B = w.engine.AppendUint16(w.buf.B, 0)
	w.buf.B = w.engine.AppendUint64(w.buf.B, 0)

	if err := w.flush(); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	return nil
}

// writeBlock assembles one signal block in the record buffer and flushes it.
func (w *Writer) writeBlock(sig *signal.Signal) error {
	w.buf.Reset()

	if err := w.appendString(sig.Name); err != nil {
		return fmt.Errorf("name: %w", err)
	}
	// An empty-but-present wire unit means "no unit"; both encode as length 0.
	if err := w.appendString(sig.Unit); err != nil {
		return fmt.Errorf("unit: %w", err)
	}

	flags := uint8(0)
	if sig.Table != nil && sig.Table.Len() > 0 {
		flags |= flagHasTable
	}
	w.buf.B = append(w.buf.B, byte(sig.Kind), flags)
	w.buf.B = w.engine.AppendUint32(w.buf.B, uint32(sig.Len()))

	if flags&flagHasTable != 0 {
		if err := w.appendTable(sig.Table); err != nil {
			return err
		}
	}

	tsPayload, err := w.codec.Compress(w.encodeTimestamps(sig.Timestamps))
	if err != nil {
		return fmt.Errorf("compress timestamps: %w", err)
	}
	rawValues, err := w.encodeValues(sig)
	if err != nil {
		return err
	}
	valPayload, err := w.codec.Compress(rawValues)
	if err != nil {
		return fmt.Errorf("compress values: %w", err)
	}

	w.buf.Grow(8 + len(tsPayload) + len(valPayload))
	w.buf.B = w.engine.AppendUint32(w.buf.B, uint32(len(tsPayload)))
	w.buf.B = append(w.buf.B, tsPayload...)
	w.buf.B = w.engine.AppendUint32(w.buf.B, uint32(len(valPayload)))
	w.buf.B = append(w.buf.B, valPayload...)

	return w.flush()
}

func (w *Writer) appendString(s string) error {
	if len(s) > math.MaxUint16 {
		return fmt.Errorf("length %d: %w", len(s), errs.ErrStringTooLong)
	}
	w.buf.B = w.engine.AppendUint16(w.buf.B, uint16(len(s)))
	w.buf.B = append(w.buf.B, s...)

	return nil
}

func (w *Writer) appendTable(table *signal.ValueTable) error {
	if table.Len() > math.MaxUint16 {
		return fmt.Errorf("table with %d entries: %w", table.Len(), errs.ErrStringTooLong)
	}

	w.buf.B = w.engine.AppendUint16(w.buf.B, uint16(table.Len()))
	for i, entry := range table.Entries() {
		w.buf.B = w.engine.AppendUint64(w.buf.B, uint64(entry.Value))
		if err := w.appendString(entry.Desc); err != nil {
			return fmt.Errorf("table entry %d: %w", i, err)
		}
	}

	return nil
}

// encodeTimestamps serializes the timestamp column as raw float64 bits.
func (w *Writer) encodeTimestamps(timestamps []float64) []byte {
	out := make([]byte, 0, len(timestamps)*8)
	for _, ts := range timestamps {
		out = w.engine.AppendUint64(out, math.Float64bits(ts))
	}

	return out
}

// encodeValues serializes the value column: raw 64-bit words for fixed kinds,
// u16-length-prefixed strings otherwise. A string sample longer than the
// length prefix can express is rejected; a wrapped-around prefix would
// produce a structurally valid but corrupt block.
func (w *Writer) encodeValues(sig *signal.Signal) ([]byte, error) {
	switch sig.Kind {
	case signal.KindInt64:
		out := make([]byte, 0, len(sig.Ints)*8)
		for _, v := range sig.Ints {
			out = w.engine.AppendUint64(out, uint64(v))
		}
		return out, nil
	case signal.KindUint64:
		out := make([]byte, 0, len(sig.Uints)*8)
		for _, v := range sig.Uints {
			out = w.engine.AppendUint64(out, v)
		}
		return out, nil
	case signal.KindFloat64:
		out := make([]byte, 0, len(sig.Floats)*8)
		for _, v := range sig.Floats {
			out = w.engine.AppendUint64(out, math.Float64bits(v))
		}
		return out, nil
	default:
		var out []byte
		for i, v := range sig.Strings {
			if len(v) > math.MaxUint16 {
				return nil, fmt.Errorf("string value %d length %d: %w", i, len(v), errs.ErrStringTooLong)
			}
			out = w.engine.AppendUint16(out, uint16(len(v)))
			out = append(out, v...)
		}
		return out, nil
	}
}

func (w *Writer) flush() error {
	n, err := w.buf.WriteTo(w.w)
	w.offset += n
	w.buf.Reset()

	return err
}
