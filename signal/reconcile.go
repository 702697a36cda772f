package signal

import "strconv"

// Reconcile completes a signal's value table against its observed samples:
// every distinct raw value that occurs in the sample sequence but has no
// table entry gains a synthesized "<value> is unknown" entry, appended in
// first-observed order. It returns the number of synthesized entries.
//
// Reconciliation repairs producer/consumer schema drift (a transmitter using
// a stale enumeration) without losing information. It applies only to
// integer-kind signals carrying a non-empty table; signals with no table, an
// empty table, or float/string kinds pass through untouched. In particular a
// float64 signal paired with an integer-valued table keeps the table verbatim
// - float magnitudes are never reconciled.
func Reconcile(s *Signal) int {
	if s.Table == nil || s.Table.Len() == 0 || !s.Kind.Integer() {
		return 0
	}

	added := 0
	switch s.Kind {
	case KindInt64:
		for _, v := range s.Ints {
			if _, ok := s.Table.Lookup(v); !ok {
				s.Table.Add(v, strconv.FormatInt(v, 10)+" is unknown")
				added++
			}
		}
	case KindUint64:
		// Raw table values are i64 on the wire; unsigned samples share the
		// key space via bit-pattern conversion but keep unsigned formatting
		// in the synthesized description.
		for _, v := range s.Uints {
			if _, ok := s.Table.Lookup(int64(v)); !ok {
				s.Table.Add(int64(v), strconv.FormatUint(v, 10)+" is unknown")
				added++
			}
		}
	}

	return added
}
