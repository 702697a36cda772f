package sigstream_test

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/canwire/sigstream"
	"github.com/canwire/sigstream/compress"
	"github.com/canwire/sigstream/container"
	"github.com/canwire/sigstream/errs"
	"github.com/canwire/sigstream/signal"
	"github.com/canwire/sigstream/wire"
)

func encodeTestStream(t *testing.T) []byte {
	t.Helper()

	table := signal.NewValueTable()
	table.Add(0, "Stopped")

	sigs := []*signal.Signal{
		{
			Name: "CAN1::EngineData::Speed",
			Unit: "km/h",
			Kind: signal.KindFloat64,
			// Duplicate timestamp; the decoder must monotonize.
			Timestamps: []float64{0.0, 0.0, 1.0},
			Floats:     []float64{10.0, 12.0, 15.0},
			Table:      table,
		},
		{
			Name: "CAN1::Body::GearPos",
			Kind: signal.KindInt64,
			// Sample value 5 is missing from the table and must be
			// reconciled during decode.
			Timestamps: []float64{0.0, 0.5},
			Ints:       []int64{0, 5},
			Table: func() *signal.ValueTable {
				vt := signal.NewValueTable()
				vt.Add(0, "Park")
				return vt
			}(),
		},
		{
			// Zero samples: must be dropped from the container.
			Name:       "CAN1::Unused::Spare",
			Kind:       signal.KindUint64,
			Timestamps: nil,
			Uints:      nil,
		},
	}

	var buf bytes.Buffer
	enc := wire.NewStreamEncoder(&buf)
	require.NoError(t, enc.Begin(len(sigs)))
	for _, sig := range sigs {
		require.NoError(t, enc.WriteSignal(sig))
	}
	require.NoError(t, enc.Finish())

	return buf.Bytes()
}

func TestConvert(t *testing.T) {
	stream := encodeTestStream(t)

	var out bytes.Buffer
	w, err := container.NewWriter(&out, container.WithCompression(compress.TypeS2))
	require.NoError(t, err)

	stats, err := sigstream.Convert(bytes.NewReader(stream), w)
	require.NoError(t, err)
	require.NoError(t, w.Close())

	require.Equal(t, uint8(3), stats.Version)
	require.Equal(t, 2, stats.SignalsWritten)
	require.Equal(t, 1, stats.SignalsDropped)
	require.Equal(t, 5, stats.Samples)

	f, err := container.OpenBytes(out.Bytes())
	require.NoError(t, err)
	require.Equal(t, 2, f.Count())

	speed, err := f.Signal("CAN1::EngineData::Speed")
	require.NoError(t, err)
	require.Equal(t, []float64{0.0, signal.MonotonicStep, 1.0}, speed.Timestamps)
	require.Equal(t, []float64{10.0, 12.0, 15.0}, speed.Floats)
	require.Equal(t, "km/h", speed.Unit)
	// Float-typed signal: table forwarded verbatim, not reconciled.
	require.Equal(t, 1, speed.Table.Len())

	gear, err := f.Signal("CAN1::Body::GearPos")
	require.NoError(t, err)
	require.Equal(t, 2, gear.Table.Len())
	desc, ok := gear.Table.Lookup(5)
	require.True(t, ok)
	require.Equal(t, "5 is unknown", desc)

	// The empty signal never reached the container.
	_, err = f.Signal("CAN1::Unused::Spare")
	require.ErrorIs(t, err, errs.ErrSignalNotFound)
}

func TestConvertBadMagic(t *testing.T) {
	var out bytes.Buffer
	w, err := container.NewWriter(&out)
	require.NoError(t, err)
	defer w.Close()

	_, err = sigstream.Convert(bytes.NewReader([]byte("GARBAGE!....")), w)
	require.ErrorIs(t, err, errs.ErrInvalidMagic)
}

func TestConvertTruncatedStream(t *testing.T) {
	stream := encodeTestStream(t)
	truncated := stream[:len(stream)-10]

	var out bytes.Buffer
	w, err := container.NewWriter(&out)
	require.NoError(t, err)
	defer w.Close()

	_, err = sigstream.Convert(bytes.NewReader(truncated), w)
	require.ErrorIs(t, err, errs.ErrUnexpectedEOF)
}
