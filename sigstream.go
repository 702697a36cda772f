// Package sigstream converts streams of decoded CAN signal data, transported
// over a self-describing binary wire protocol, into a time-series container
// file.
//
// The wire protocol (package wire) carries one record per signal: a name, an
// optional physical unit, an optional value table (enumeration), and a typed
// sample payload. While reconstructing records the decoder enforces the two
// invariants the container requires: strictly increasing timestamps per
// signal (non-increasing timestamps are nudged forward by 1e-9) and complete
// value tables (observed-but-undocumented raw values gain synthesized
// entries).
//
// # Basic usage
//
// Converting a stream from stdin into a container file:
//
//	w, _ := container.Create("out.sgc")
//	stats, err := sigstream.Convert(os.Stdin, w)
//	if err != nil {
//	    w.Close()
//	    return err
//	}
//	if err := w.Close(); err != nil {
//	    return err
//	}
//	fmt.Printf("wrote %d signals\n", stats.SignalsWritten)
//
// For finer control use wire.StreamDecoder directly; its Signals iterator
// yields reconstructed signals one at a time.
package sigstream

import (
	"fmt"
	"io"

	"github.com/rs/zerolog"

	"github.com/canwire/sigstream/container"
	"github.com/canwire/sigstream/signal"
	"github.com/canwire/sigstream/wire"
)

// Stats summarizes one conversion run.
type Stats struct {
	// Version is the wire protocol version announced by the stream.
	Version uint8

	// SignalsWritten is the number of non-empty signals appended to the
	// container.
	SignalsWritten int

	// SignalsDropped is the number of zero-sample records consumed and
	// discarded.
	SignalsDropped int

	// Samples is the total number of samples across written signals.
	Samples int
}

type converter struct {
	log zerolog.Logger
}

// Option configures a conversion run.
type Option func(*converter)

// WithLogger attaches a logger for per-signal progress diagnostics. The
// default discards them.
func WithLogger(log zerolog.Logger) Option {
	return func(c *converter) {
		c.log = log
	}
}

// Convert decodes the wire stream from r and appends every non-empty
// reconstructed signal to w, one at a time, keeping peak memory at the size
// of the largest single signal. The caller owns w and must Close it to
// finalize the container.
//
// Conversion stops at the first fatal decode error (bad magic, truncation,
// invalid UTF-8, unknown type marker); the container then holds the signals
// written so far and the error describes where the stream broke.
func Convert(r io.Reader, w *container.Writer, opts ...Option) (Stats, error) {
	c := converter{log: zerolog.Nop()}
	for _, opt := range opts {
		opt(&c)
	}

	var stats Stats

	dec, err := wire.NewStreamDecoder(r)
	if err != nil {
		return stats, err
	}
	stats.Version = dec.Version()

	c.log.Debug().
		Uint8("version", dec.Version()).
		Int("declared_signals", dec.SignalCount()).
		Msg("stream header decoded")

	for sig, err := range dec.Signals() {
		if err != nil {
			stats.SignalsDropped = dec.Dropped()
			return stats, err
		}

		if err := w.Append(sig); err != nil {
			stats.SignalsDropped = dec.Dropped()
			return stats, fmt.Errorf("append to container: %w", err)
		}

		stats.SignalsWritten++
		stats.Samples += sig.Len()
		c.logSignal(sig)
	}
	stats.SignalsDropped = dec.Dropped()

	return stats, nil
}

func (c *converter) logSignal(sig *signal.Signal) {
	ev := c.log.Debug().
		Str("signal", sig.Name).
		Stringer("kind", sig.Kind).
		Int("samples", sig.Len())
	if sig.Unit != "" {
		ev = ev.Str("unit", sig.Unit)
	}
	if sig.Table != nil {
		ev = ev.Int("table_entries", sig.Table.Len())
	}
	ev.Msg("signal written")
}
