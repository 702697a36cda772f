package signal

// TableEntry is one value-table row: a raw integer sample value paired with
// its human-readable description.
type TableEntry struct {
	Value int64
	Desc  string
}

// ValueTable maps raw integer sample values to descriptions while preserving
// stable insertion order. The positional index of each entry is part of the
// contract: downstream consumers key converted values by position, so two
// decodes of the same stream always produce the same ordering.
//
// ValueTable is not safe for concurrent mutation.
type ValueTable struct {
	entries []TableEntry
	index   map[int64]int
}

// NewValueTable creates an empty value table.
func NewValueTable() *ValueTable {
	return &ValueTable{index: make(map[int64]int)}
}

// Add inserts an entry, or replaces the description in place when the raw
// value is already present. Replacement keeps the original position.
func (t *ValueTable) Add(value int64, desc string) {
	if i, ok := t.index[value]; ok {
		t.entries[i].Desc = desc
		return
	}
	t.index[value] = len(t.entries)
	t.entries = append(t.entries, TableEntry{Value: value, Desc: desc})
}

// Lookup returns the description for a raw value.
func (t *ValueTable) Lookup(value int64) (string, bool) {
	i, ok := t.index[value]
	if !ok {
		return "", false
	}

	return t.entries[i].Desc, true
}

// IndexOf returns the positional index of a raw value.
func (t *ValueTable) IndexOf(value int64) (int, bool) {
	i, ok := t.index[value]
	return i, ok
}

// Len returns the number of entries.
func (t *ValueTable) Len() int {
	return len(t.entries)
}

// Entries returns the entries in insertion order. The returned slice is the
// table's backing storage; callers must not modify it.
func (t *ValueTable) Entries() []TableEntry {
	return t.entries
}
