package container

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/canwire/sigstream/compress"
	"github.com/canwire/sigstream/errs"
	"github.com/canwire/sigstream/signal"
)

func containerSignals() []*signal.Signal {
	table := signal.NewValueTable()
	table.Add(0, "Stopped")
	table.Add(2, "2 is unknown")

	return []*signal.Signal{
		{
			Name:       "CAN1::EngineData::Speed",
			Unit:       "km/h",
			Kind:       signal.KindFloat64,
			Timestamps: []float64{0.0, 1e-9, 1.0},
			Floats:     []float64{10.0, 12.0, 15.0},
		},
		{
			Name:       "CAN1::Body::DoorState",
			Kind:       signal.KindInt64,
			Timestamps: []float64{0.0, 0.5, 0.75},
			Ints:       []int64{0, 2, 2},
			Table:      table,
		},
		{
			Name:       "CAN1::Diag::VIN",
			Kind:       signal.KindString,
			Timestamps: []float64{0.0},
			Strings:    []string{"WVWZZZ1JZXW000001"},
		},
	}
}

func writeContainer(t *testing.T, sigs []*signal.Signal, opts ...WriterOption) []byte {
	t.Helper()

	var buf bytes.Buffer
	w, err := NewWriter(&buf, opts...)
	require.NoError(t, err)
	for _, sig := range sigs {
		require.NoError(t, w.Append(sig))
	}
	require.NoError(t, w.Close())

	return buf.Bytes()
}

func requireSignalEqual(t *testing.T, want, got *signal.Signal) {
	t.Helper()

	require.Equal(t, want.Name, got.Name)
	require.Equal(t, want.Unit, got.Unit)
	require.Equal(t, want.Kind, got.Kind)
	require.Equal(t, want.Timestamps, got.Timestamps)
	switch want.Kind {
	case signal.KindInt64:
		require.Equal(t, want.Ints, got.Ints)
	case signal.KindUint64:
		require.Equal(t, want.Uints, got.Uints)
	case signal.KindFloat64:
		require.Equal(t, want.Floats, got.Floats)
	case signal.KindString:
		require.Equal(t, want.Strings, got.Strings)
	}
	if want.Table == nil {
		require.Nil(t, got.Table)
	} else {
		require.NotNil(t, got.Table)
		require.Equal(t, want.Table.Entries(), got.Table.Entries())
	}
}

func TestContainerRoundTrip(t *testing.T) {
	for _, ctype := range []compress.Type{
		compress.TypeNone, compress.TypeZstd, compress.TypeS2, compress.TypeLZ4,
	} {
		t.Run(ctype.String(), func(t *testing.T) {
			sigs := containerSignals()
			data := writeContainer(t, sigs, WithCompression(ctype))

			f, err := OpenBytes(data)
			require.NoError(t, err)
			require.Equal(t, ctype, f.Compression())
			require.Equal(t, len(sigs), f.Count())

			got, err := f.Signals()
			require.NoError(t, err)
			require.Len(t, got, len(sigs))
			for i := range sigs {
				requireSignalEqual(t, sigs[i], got[i])
			}
		})
	}
}

func TestContainerLookup(t *testing.T) {
	sigs := containerSignals()
	data := writeContainer(t, sigs)

	f, err := OpenBytes(data)
	require.NoError(t, err)

	t.Run("ByName", func(t *testing.T) {
		got, err := f.Signal("CAN1::Body::DoorState")
		require.NoError(t, err)
		requireSignalEqual(t, sigs[1], got)
	})

	t.Run("Missing", func(t *testing.T) {
		_, err := f.Signal("CAN1::Nope")
		require.ErrorIs(t, err, errs.ErrSignalNotFound)
	})
}

func TestWriterRejectsEmptySignal(t *testing.T) {
	var buf bytes.Buffer
	w, err := NewWriter(&buf)
	require.NoError(t, err)

	err = w.Append(&signal.Signal{Name: "empty", Kind: signal.KindFloat64})
	require.ErrorIs(t, err, errs.ErrEmptySignal)
	require.NoError(t, w.Close())
}

func TestWriterRejectsOverlongStringSample(t *testing.T) {
	// A sample longer than the u16 length prefix must fail loudly; a
	// wrapped-around prefix would round-trip as silently corrupted data.
	var buf bytes.Buffer
	w, err := NewWriter(&buf)
	require.NoError(t, err)

	err = w.Append(&signal.Signal{
		Name:       "S",
		Kind:       signal.KindString,
		Timestamps: []float64{0},
		Strings:    []string{strings.Repeat("x", 70000)},
	})
	require.ErrorIs(t, err, errs.ErrStringTooLong)

	// The writer stays usable and the rejected signal is not indexed.
	require.NoError(t, w.Close())
	f, err := OpenBytes(buf.Bytes())
	require.NoError(t, err)
	require.Equal(t, 0, f.Count())
}

func TestWriterAfterClose(t *testing.T) {
	var buf bytes.Buffer
	w, err := NewWriter(&buf)
	require.NoError(t, err)
	require.NoError(t, w.Close())

	require.ErrorIs(t, w.Append(containerSignals()[0]), errs.ErrWriterClosed)
	require.ErrorIs(t, w.Close(), errs.ErrWriterClosed)
}

func TestEmptyContainer(t *testing.T) {
	data := writeContainer(t, nil)

	f, err := OpenBytes(data)
	require.NoError(t, err)
	require.Equal(t, 0, f.Count())

	got, err := f.Signals()
	require.NoError(t, err)
	require.Empty(t, got)
}

func TestOpenBytesErrors(t *testing.T) {
	t.Run("TooShort", func(t *testing.T) {
		_, err := OpenBytes([]byte("short"))
		require.ErrorIs(t, err, errs.ErrInvalidHeaderSize)
	})

	t.Run("BadHeaderMagic", func(t *testing.T) {
		data := writeContainer(t, containerSignals())
		data[0] = 'X'
		_, err := OpenBytes(data)
		require.ErrorIs(t, err, errs.ErrInvalidHeader)
	})

	t.Run("BadFooterMagic", func(t *testing.T) {
		data := writeContainer(t, containerSignals())
		data[len(data)-1] = 'X'
		_, err := OpenBytes(data)
		require.ErrorIs(t, err, errs.ErrInvalidFooter)
	})

	t.Run("BadCompressionByte", func(t *testing.T) {
		data := writeContainer(t, containerSignals())
		data[5] = 0xee
		_, err := OpenBytes(data)
		require.ErrorIs(t, err, errs.ErrInvalidHeader)
	})

	t.Run("CorruptIndexCount", func(t *testing.T) {
		data := writeContainer(t, containerSignals())
		// Footer signal count is at len-8..len-4; inflate it.
		data[len(data)-8] = 0xff
		_, err := OpenBytes(data)
		require.ErrorIs(t, err, errs.ErrInvalidIndexOffset)
	})
}

func TestCreateAndOpenFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.sgc")

	w, err := Create(path, WithCompression(compress.TypeS2))
	require.NoError(t, err)

	sigs := containerSignals()
	for _, sig := range sigs {
		require.NoError(t, w.Append(sig))
	}
	require.NoError(t, w.Close())

	f, err := Open(path)
	require.NoError(t, err)
	require.Equal(t, len(sigs), f.Count())

	got, err := f.Signal(sigs[0].Name)
	require.NoError(t, err)
	requireSignalEqual(t, sigs[0], got)
}
