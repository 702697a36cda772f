package wire

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"iter"
	"math"
	"unicode/utf8"

	"github.com/canwire/sigstream/endian"
	"github.com/canwire/sigstream/errs"
	"github.com/canwire/sigstream/signal"
)

// StreamDecoder reconstructs typed signals from one protocol stream.
//
// It is an explicit per-stream context: all decoding state (version, record
// cursor, byte offset) lives on the decoder, so multiple streams can be
// decoded within one process without cross-contamination.
//
// StreamDecoder is single-threaded and forward-only. It is not reusable
// across streams and not restartable; create a new decoder per stream.
type StreamDecoder struct {
	r        *Reader
	engine   endian.EndianEngine
	version  uint8
	declared uint32
	consumed uint32
	dropped  int
}

// NewStreamDecoder validates the stream header and prepares for record
// decoding. It fails with errs.ErrInvalidMagic before any record is read if
// the magic token does not match a supported version.
func NewStreamDecoder(rd io.Reader) (*StreamDecoder, error) {
	d := &StreamDecoder{
		r:      NewReader(rd),
		engine: endian.GetLittleEndianEngine(),
	}

	magic, err := d.r.ReadExact(MagicSize)
	if err != nil {
		return nil, fmt.Errorf("stream header: %w", err)
	}

	version := magic[MagicSize-1]
	if !bytes.Equal(magic[:MagicSize-1], []byte(magicPrefix)) || !SupportedVersion(version) {
		return nil, fmt.Errorf("magic %q: %w", magic, errs.ErrInvalidMagic)
	}
	d.version = version

	d.declared, err = d.r.Uint32()
	if err != nil {
		return nil, fmt.Errorf("signal count: %w", err)
	}

	return d, nil
}

// Version returns the protocol version announced by the magic token.
func (d *StreamDecoder) Version() uint8 {
	return d.version
}

// SignalCount returns the number of signal records the header declared,
// including records that will be dropped for having no samples.
func (d *StreamDecoder) SignalCount() int {
	return int(d.declared)
}

// Dropped returns the number of zero-sample records consumed and discarded
// so far.
func (d *StreamDecoder) Dropped() int {
	return d.dropped
}

// Offset returns the current byte offset into the stream.
func (d *StreamDecoder) Offset() int64 {
	return d.r.Offset()
}

// Next decodes records until it can return one non-empty reconstructed
// signal. Timestamps are already normalized and the value table, if any, is
// already reconciled. Records with zero samples are consumed and dropped:
// an empty series carries no information and the container format disallows
// it. Next returns io.EOF once all declared records are consumed.
//
// Any decode error is stream-fatal; the decoder must be abandoned.
func (d *StreamDecoder) Next() (*signal.Signal, error) {
	for d.consumed < d.declared {
		sig, err := d.decodeRecord()
		if err != nil {
			return nil, err
		}
		d.consumed++

		if sig.Len() == 0 {
			d.dropped++
			continue
		}

		return sig, nil
	}

	return nil, io.EOF
}

// Signals returns a forward-only iterator over the remaining signals of the
// stream. Iteration stops after yielding the first error; the stream cannot
// be re-read.
func (d *StreamDecoder) Signals() iter.Seq2[*signal.Signal, error] {
	return func(yield func(*signal.Signal, error) bool) {
		for {
			sig, err := d.Next()
			if errors.Is(err, io.EOF) {
				return
			}
			if err != nil {
				yield(nil, err)
				return
			}
			if !yield(sig, nil) {
				return
			}
		}
	}
}

// decodeRecord reads one signal record: header fields in declared order, then
// the typed payload. Field presence is gated by the stream version; the field
// order is fixed, so later versions are pure insertions.
func (d *StreamDecoder) decodeRecord() (*signal.Signal, error) {
	name, err := d.readString("signal name")
	if err != nil {
		return nil, err
	}

	sig := &signal.Signal{Name: name}

	if d.version >= VersionV2 {
		sig.Unit, err = d.readString("unit")
		if err != nil {
			return nil, fmt.Errorf("signal %q: %w", name, err)
		}
	}

	if d.version >= VersionV3 {
		sig.Table, err = d.readTable(name)
		if err != nil {
			return nil, err
		}
	}

	marker, err := d.r.Uint8()
	if err != nil {
		return nil, fmt.Errorf("signal %q: type marker: %w", name, err)
	}

	count, err := d.r.Uint32()
	if err != nil {
		return nil, fmt.Errorf("signal %q: sample count: %w", name, err)
	}

	// An unrecognized marker means the payload width is unknowable, so the
	// record cannot be skipped; the whole stream is abandoned.
	kind := signal.Kind(marker)
	if !kind.Valid() {
		return nil, fmt.Errorf("signal %q: marker 0x%02x at offset %d: %w",
			name, marker, d.r.Offset(), errs.ErrUnknownTypeMarker)
	}
	sig.Kind = kind

	if kind.FixedWidth() {
		err = d.decodeFixed(sig, int(count))
	} else {
		err = d.decodeStrings(sig, int(count))
	}
	if err != nil {
		return nil, fmt.Errorf("signal %q: %w", name, err)
	}

	signal.Reconcile(sig)

	return sig, nil
}

// readTable reads the value-table section. A zero entry count means "no
// enumeration" and yields a nil table, which is distinct from an enumeration
// with gaps.
func (d *StreamDecoder) readTable(name string) (*signal.ValueTable, error) {
	entries, err := d.r.Uint16()
	if err != nil {
		return nil, fmt.Errorf("signal %q: table count: %w", name, err)
	}
	if entries == 0 {
		return nil, nil
	}

	table := signal.NewValueTable()
	for i := 0; i < int(entries); i++ {
		value, err := d.r.Int64()
		if err != nil {
			return nil, fmt.Errorf("signal %q: table entry %d: %w", name, i, err)
		}

		desc, err := d.readString("table description")
		if err != nil {
			return nil, fmt.Errorf("signal %q: table entry %d: %w", name, i, err)
		}

		table.Add(value, desc)
	}

	return table, nil
}

// decodeFixed reads a fixed-width payload as one contiguous block and
// stride-decodes it into two aligned columns: the first 8 bytes of every
// 16-byte sample are the float64 timestamp, the second 8 its value bits.
func (d *StreamDecoder) decodeFixed(sig *signal.Signal, count int) error {
	data, err := d.r.ReadExact(count * FixedSampleSize)
	if err != nil {
		return fmt.Errorf("%s payload: %w", sig.Kind, err)
	}

	sig.Timestamps = make([]float64, count)
	for i := range count {
		off := i * FixedSampleSize
		sig.Timestamps[i] = math.Float64frombits(d.engine.Uint64(data[off : off+8]))
	}

	switch sig.Kind {
	case signal.KindInt64:
		sig.Ints = make([]int64, count)
		for i := range count {
			off := i*FixedSampleSize + 8
			sig.Ints[i] = int64(d.engine.Uint64(data[off : off+8]))
		}
	case signal.KindUint64:
		sig.Uints = make([]uint64, count)
		for i := range count {
			off := i*FixedSampleSize + 8
			sig.Uints[i] = d.engine.Uint64(data[off : off+8])
		}
	case signal.KindFloat64:
		sig.Floats = make([]float64, count)
		for i := range count {
			off := i*FixedSampleSize + 8
			sig.Floats[i] = math.Float64frombits(d.engine.Uint64(data[off : off+8]))
		}
	}

	var mono signal.Monotonizer
	mono.Apply(sig.Timestamps)

	return nil
}

// decodeStrings reads a variable-width payload sequentially; batching is
// impossible because sample boundaries are data-dependent.
func (d *StreamDecoder) decodeStrings(sig *signal.Signal, count int) error {
	sig.Timestamps = make([]float64, 0, count)
	sig.Strings = make([]string, 0, count)

	var mono signal.Monotonizer
	for i := 0; i < count; i++ {
		ts, err := d.r.Float64()
		if err != nil {
			return fmt.Errorf("string sample %d: %w", i, err)
		}

		val, err := d.readString("string sample")
		if err != nil {
			return fmt.Errorf("string sample %d: %w", i, err)
		}

		sig.Timestamps = append(sig.Timestamps, mono.Next(ts))
		sig.Strings = append(sig.Strings, val)
	}

	return nil
}

// readString reads a u16-length-prefixed UTF-8 string. Invalid UTF-8 is
// stream-fatal; silent replacement would corrupt data downstream.
func (d *StreamDecoder) readString(field string) (string, error) {
	length, err := d.r.Uint16()
	if err != nil {
		return "", fmt.Errorf("%s length: %w", field, err)
	}
	if length == 0 {
		return "", nil
	}

	raw, err := d.r.ReadExact(int(length))
	if err != nil {
		return "", fmt.Errorf("%s: %w", field, err)
	}

	if !utf8.Valid(raw) {
		return "", fmt.Errorf("%s at offset %d: %w", field, d.r.Offset(), errs.ErrInvalidUTF8)
	}

	return string(raw), nil
}
