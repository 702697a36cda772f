package container

import (
	"bytes"
	"fmt"
	"math"
	"os"
	"unicode/utf8"

	"github.com/canwire/sigstream/compress"
	"github.com/canwire/sigstream/endian"
	"github.com/canwire/sigstream/errs"
	"github.com/canwire/sigstream/internal/hash"
	"github.com/canwire/sigstream/signal"
)

// File is a parsed container held fully in memory. Blocks are decoded lazily
// on lookup; the index is built eagerly on open.
type File struct {
	data    []byte
	engine  endian.EndianEngine
	codec   compress.Codec
	ctype   compress.Type
	entries []indexEntry
}

// Open reads and parses the container file at path.
func Open(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("open container %q: %w", path, err)
	}

	return OpenBytes(data)
}

// OpenBytes parses a container from its raw bytes. The File retains the
// slice; callers must not modify it afterwards.
func OpenBytes(data []byte) (*File, error) {
	f := &File{
		data:   data,
		engine: endian.GetLittleEndianEngine(),
	}

	if len(data) < headerSize+footerSize {
		return nil, errs.ErrInvalidHeaderSize
	}
	if !bytes.Equal(data[:4], headerMagic[:]) {
		return nil, fmt.Errorf("header magic %q: %w", data[:4], errs.ErrInvalidHeader)
	}
	if data[4] != FormatVersion {
		return nil, fmt.Errorf("format version %d: %w", data[4], errs.ErrInvalidHeader)
	}

	f.ctype = compress.Type(data[5])
	codec, err := compress.GetCodec(f.ctype)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", errs.ErrInvalidHeader, err)
	}
	f.codec = codec

	footer := data[len(data)-footerSize:]
	if !bytes.Equal(footer[12:16], footerMagic[:]) {
		return nil, fmt.Errorf("footer magic %q: %w", footer[12:16], errs.ErrInvalidFooter)
	}

	indexOffset := f.engine.Uint64(footer[0:8])
	count := int(f.engine.Uint32(footer[8:12]))

	indexEnd := uint64(len(data) - footerSize)
	if indexOffset > indexEnd || indexEnd-indexOffset != uint64(count)*indexEntrySize {
		return nil, fmt.Errorf("index at %d, %d entries: %w", indexOffset, count, errs.ErrInvalidIndexOffset)
	}

	f.entries = make([]indexEntry, count)
	for i := range count {
		off := int(indexOffset) + i*indexEntrySize
		f.entries[i] = indexEntry{
			id:     f.engine.Uint64(data[off : off+8]),
			offset: f.engine.Uint64(data[off+8 : off+16]),
		}
		if f.entries[i].offset < headerSize || f.entries[i].offset >= indexOffset {
			return nil, fmt.Errorf("entry %d offset %d: %w", i, f.entries[i].offset, errs.ErrInvalidIndexOffset)
		}
	}

	return f, nil
}

// Compression returns the codec type recorded in the header.
func (f *File) Compression() compress.Type {
	return f.ctype
}

// Count returns the number of signals in the container.
func (f *File) Count() int {
	return len(f.entries)
}

// Signal looks up a signal by name via the hash index and decodes its block.
// When several signals share a name, the first appended wins.
func (f *File) Signal(name string) (*signal.Signal, error) {
	id := hash.SignalID(name)
	for _, entry := range f.entries {
		if entry.id != id {
			continue
		}

		sig, err := f.decodeBlock(int(entry.offset))
		if err != nil {
			return nil, err
		}
		// Hash match is not name match until proven; collisions keep scanning.
		if sig.Name == name {
			return sig, nil
		}
	}

	return nil, fmt.Errorf("signal %q: %w", name, errs.ErrSignalNotFound)
}

// Signals decodes all signals in their stored order.
func (f *File) Signals() ([]*signal.Signal, error) {
	out := make([]*signal.Signal, 0, len(f.entries))
	for i, entry := range f.entries {
		sig, err := f.decodeBlock(int(entry.offset))
		if err != nil {
			return nil, fmt.Errorf("block %d: %w", i, err)
		}
		out = append(out, sig)
	}

	return out, nil
}

// blockCursor walks one signal block; all reads are bounds-checked against
// the slice end.
type blockCursor struct {
	f   *File
	pos int
}

func (c *blockCursor) need(n int) ([]byte, error) {
	if c.pos+n > len(c.f.data) {
		return nil, fmt.Errorf("block truncated at offset %d: %w", c.pos, errs.ErrInvalidBlock)
	}
	b := c.f.data[c.pos : c.pos+n]
	c.pos += n

	return b, nil
}

func (c *blockCursor) uint16() (uint16, error) {
	b, err := c.need(2)
	if err != nil {
		return 0, err
	}

	return c.f.engine.Uint16(b), nil
}

func (c *blockCursor) uint32() (uint32, error) {
	b, err := c.need(4)
	if err != nil {
		return 0, err
	}

	return c.f.engine.Uint32(b), nil
}

func (c *blockCursor) str() (string, error) {
	length, err := c.uint16()
	if err != nil {
		return "", err
	}
	b, err := c.need(int(length))
	if err != nil {
		return "", err
	}
	if !utf8.Valid(b) {
		return "", errs.ErrInvalidUTF8
	}

	return string(b), nil
}

func (f *File) decodeBlock(offset int) (*signal.Signal, error) {
	c := &blockCursor{f: f, pos: offset}

	name, err := c.str()
	if err != nil {
		return nil, err
	}
	unit, err := c.str()
	if err != nil {
		return nil, fmt.Errorf("signal %q: unit: %w", name, err)
	}

	meta, err := c.need(2)
	if err != nil {
		return nil, fmt.Errorf("signal %q: %w", name, err)
	}
	kind := signal.Kind(meta[0])
	flags := meta[1]
	if !kind.Valid() {
		return nil, fmt.Errorf("signal %q: kind %d: %w", name, meta[0], errs.ErrKindMismatch)
	}

	count, err := c.uint32()
	if err != nil {
		return nil, fmt.Errorf("signal %q: %w", name, err)
	}

	sig := &signal.Signal{Name: name, Unit: unit, Kind: kind}

	if flags&flagHasTable != 0 {
		entries, err := c.uint16()
		if err != nil {
			return nil, fmt.Errorf("signal %q: table: %w", name, err)
		}
		sig.Table = signal.NewValueTable()
		for i := 0; i < int(entries); i++ {
			raw, err := c.need(8)
			if err != nil {
				return nil, fmt.Errorf("signal %q: table entry %d: %w", name, i, err)
			}
			desc, err := c.str()
			if err != nil {
				return nil, fmt.Errorf("signal %q: table entry %d: %w", name, i, err)
			}
			sig.Table.Add(int64(f.engine.Uint64(raw)), desc)
		}
	}

	tsPayload, err := c.payload()
	if err != nil {
		return nil, fmt.Errorf("signal %q: timestamps: %w", name, err)
	}
	valPayload, err := c.payload()
	if err != nil {
		return nil, fmt.Errorf("signal %q: values: %w", name, err)
	}

	if len(tsPayload) != int(count)*8 {
		return nil, fmt.Errorf("signal %q: %d timestamp bytes for %d samples: %w",
			name, len(tsPayload), count, errs.ErrInvalidBlock)
	}

	sig.Timestamps = make([]float64, count)
	for i := range int(count) {
		sig.Timestamps[i] = math.Float64frombits(f.engine.Uint64(tsPayload[i*8 : i*8+8]))
	}

	if err := f.decodeValues(sig, valPayload, int(count)); err != nil {
		return nil, fmt.Errorf("signal %q: values: %w", name, err)
	}

	return sig, nil
}

// payload reads a u32-length-prefixed compressed run and decompresses it.
func (c *blockCursor) payload() ([]byte, error) {
	length, err := c.uint32()
	if err != nil {
		return nil, err
	}
	raw, err := c.need(int(length))
	if err != nil {
		return nil, err
	}

	return c.f.codec.Decompress(raw)
}

func (f *File) decodeValues(sig *signal.Signal, payload []byte, count int) error {
	if sig.Kind.FixedWidth() && len(payload) != count*8 {
		return fmt.Errorf("%d value bytes for %d samples: %w", len(payload), count, errs.ErrInvalidBlock)
	}

	switch sig.Kind {
	case signal.KindInt64:
		sig.Ints = make([]int64, count)
		for i := range count {
			sig.Ints[i] = int64(f.engine.Uint64(payload[i*8 : i*8+8]))
		}
	case signal.KindUint64:
		sig.Uints = make([]uint64, count)
		for i := range count {
			sig.Uints[i] = f.engine.Uint64(payload[i*8 : i*8+8])
		}
	case signal.KindFloat64:
		sig.Floats = make([]float64, count)
		for i := range count {
			sig.Floats[i] = math.Float64frombits(f.engine.Uint64(payload[i*8 : i*8+8]))
		}
	case signal.KindString:
		sig.Strings = make([]string, 0, count)
		pos := 0
		for i := 0; i < count; i++ {
			if pos+2 > len(payload) {
				return fmt.Errorf("string value %d truncated: %w", i, errs.ErrInvalidBlock)
			}
			length := int(f.engine.Uint16(payload[pos : pos+2]))
			pos += 2
			if pos+length > len(payload) {
				return fmt.Errorf("string value %d truncated: %w", i, errs.ErrInvalidBlock)
			}
			raw := payload[pos : pos+length]
			pos += length
			if !utf8.Valid(raw) {
				return fmt.Errorf("string value %d: %w", i, errs.ErrInvalidUTF8)
			}
			sig.Strings = append(sig.Strings, string(raw))
		}
	}

	return nil
}
