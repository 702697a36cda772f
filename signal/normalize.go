package signal

// MonotonicStep is the fixed offset applied to a timestamp that is not
// strictly greater than its predecessor. One nanosecond in the time unit of
// the stream; a policy constant, not configurable.
const MonotonicStep = 1e-9

// Monotonizer enforces strictly increasing timestamps over one signal's
// samples in arrival order. It never reorders and never drops a sample: a
// non-increasing candidate is replaced with the previous timestamp plus
// MonotonicStep.
//
// Each signal gets its own Monotonizer; there is no cross-signal coordination.
// The zero value is ready to use.
type Monotonizer struct {
	last   float64
	primed bool
}

// Next normalizes one candidate timestamp and advances the internal state.
func (m *Monotonizer) Next(candidate float64) float64 {
	if m.primed && candidate <= m.last {
		candidate = m.last + MonotonicStep
	}
	m.last = candidate
	m.primed = true

	return candidate
}

// Apply normalizes a full timestamp column in place.
func (m *Monotonizer) Apply(timestamps []float64) {
	for i, ts := range timestamps {
		timestamps[i] = m.Next(ts)
	}
}
