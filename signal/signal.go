// Package signal defines the reconstructed signal data model shared by the
// wire decoder and the container writer: typed sample columns, value tables,
// timestamp monotonization and value-table reconciliation.
package signal

import (
	"fmt"

	"github.com/canwire/sigstream/errs"
)

// Signal is one fully reconstructed named sample sequence.
//
// Samples are stored columnar: Timestamps always holds one entry per sample,
// and exactly one of the value slices (selected by Kind) holds the aligned
// values. This mirrors the wire layout of fixed-width payloads, which decode
// as two aligned arrays from one contiguous block.
//
// A Signal is owned by its producer until handed to the container writer;
// it must not be mutated after handoff.
type Signal struct {
	// Name is the generated signal name, e.g. "CAN1::EngineData::Speed".
	Name string

	// Unit is the physical unit. Empty means "no unit"; the container writer
	// treats an empty-but-present wire unit field the same as an absent one.
	Unit string

	// Kind selects which value column is populated.
	Kind Kind

	// Timestamps holds the sample times in seconds, strictly increasing after
	// normalization.
	Timestamps []float64

	Ints    []int64
	Uints   []uint64
	Floats  []float64
	Strings []string

	// Table is the value table, nil when the signal carries no enumeration.
	// A nil table and an empty table are distinct: only a non-empty table is
	// reconciled against observed values.
	Table *ValueTable
}

// Len returns the number of samples.
func (s *Signal) Len() int {
	return len(s.Timestamps)
}

// At returns the timestamp and value of sample i.
func (s *Signal) At(i int) (float64, Value) {
	ts := s.Timestamps[i]
	switch s.Kind {
	case KindInt64:
		return ts, Int64Value(s.Ints[i])
	case KindUint64:
		return ts, Uint64Value(s.Uints[i])
	case KindFloat64:
		return ts, Float64Value(s.Floats[i])
	case KindString:
		return ts, StringValue(s.Strings[i])
	default:
		return ts, Value{}
	}
}

// Validate checks that Kind is supported and the value column it selects is
// aligned with Timestamps. Producers (wire encoder, container writer) call
// this before serializing.
func (s *Signal) Validate() error {
	if !s.Kind.Valid() {
		return fmt.Errorf("signal %q: kind %d: %w", s.Name, s.Kind, errs.ErrKindMismatch)
	}

	var values int
	switch s.Kind {
	case KindInt64:
		values = len(s.Ints)
	case KindUint64:
		values = len(s.Uints)
	case KindFloat64:
		values = len(s.Floats)
	case KindString:
		values = len(s.Strings)
	}

	if values != len(s.Timestamps) {
		return fmt.Errorf("signal %q: %d timestamps, %d %s values: %w",
			s.Name, len(s.Timestamps), values, s.Kind, errs.ErrKindMismatch)
	}

	return nil
}
