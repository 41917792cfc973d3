package bytecode

// maxLoad is the load factor above which Table grows (spec.md §4.3).
const maxLoad = 0.75

// entry is one slot of a Table. An empty slot has Key == nil and
// Value.IsNil(). A tombstone (a deleted slot that must still terminate
// nothing and be skipped-over during probing) has Key == nil and
// Value == True; every other slot has a non-nil Key.
type entry struct {
	Key   *ObjString
	Value Value
}

// Table is an open-addressed, linear-probing hash table keyed by interned
// string identity, reused both for ordinary key/value storage (globals,
// instance fields, class methods) and, via FindString, for identity-interning
// of strings themselves (spec.md §4.3).
type Table struct {
	count   int // live entries plus tombstones; recomputed on resize
	entries []entry
}

// NewTable returns an empty Table.
func NewTable() *Table { return &Table{} }

// Count returns the number of occupied slots: live entries plus tombstones.
// Delete and RemoveWhite do not decrease it; the next resize drops tombstones
// and recomputes it.
func (t *Table) Count() int { return t.count }

// findEntry returns the entry that should hold key: either the entry already
// keyed by it, the first empty slot found on the probe sequence, or the
// first tombstone seen along the way if the key is absent (so callers doing
// insertion can reuse it). cap(entries) must be a power of two.
func findEntry(entries []entry, key *ObjString) *entry {
	capacity := uint32(len(entries))
	index := key.Hash & (capacity - 1)
	var tombstone *entry
	for {
		e := &entries[index]
		switch {
		case e.Key == nil:
			if e.Value.IsNil() {
				// truly empty: key is not present anywhere in the table
				if tombstone != nil {
					return tombstone
				}
				return e
			}
			// tombstone
			if tombstone == nil {
				tombstone = e
			}
		case e.Key == key:
			return e
		}
		index = (index + 1) & (capacity - 1)
	}
}

func (t *Table) adjustCapacity(capacity int) {
	entries := make([]entry, capacity)
	t.count = 0
	for _, old := range t.entries {
		if old.Key == nil {
			continue // empty or tombstone, dropped on resize
		}
		dst := findEntry(entries, old.Key)
		dst.Key = old.Key
		dst.Value = old.Value
		t.count++
	}
	t.entries = entries
}

// Set installs value for key, growing the table first if required. It
// returns true iff key was not already present (tombstones do not count as
// present, matching spec.md §4.3).
func (t *Table) Set(key *ObjString, value Value) bool {
	if float64(t.count+1) > float64(len(t.entries))*maxLoad {
		capacity := growCapacity(len(t.entries))
		t.adjustCapacity(capacity)
	}

	e := findEntry(t.entries, key)
	isNewKey := e.Key == nil
	if isNewKey && e.Value.IsNil() {
		t.count++
	}
	e.Key = key
	e.Value = value
	return isNewKey
}

// Get reports the value stored for key, if any.
func (t *Table) Get(key *ObjString) (Value, bool) {
	if len(t.entries) == 0 {
		return Nil, false
	}
	e := findEntry(t.entries, key)
	if e.Key == nil {
		return Nil, false
	}
	return e.Value, true
}

// Delete installs a tombstone for key, if present.
func (t *Table) Delete(key *ObjString) bool {
	if len(t.entries) == 0 {
		return false
	}
	e := findEntry(t.entries, key)
	if e.Key == nil {
		return false
	}
	e.Key = nil
	e.Value = True // tombstone marker
	return true
}

// FindString returns the canonical interned String with the given content,
// or nil if none is present. It scans the probe sequence directly (rather
// than via findEntry) because it must compare by content, not by identity:
// this is the one place the table is used for interning instead of mapping.
func (t *Table) FindString(chars string, hash uint32) *ObjString {
	if len(t.entries) == 0 {
		return nil
	}
	capacity := uint32(len(t.entries))
	index := hash & (capacity - 1)
	for {
		e := &t.entries[index]
		if e.Key == nil {
			if e.Value.IsNil() {
				return nil // empty slot: not found
			}
			// tombstone: keep scanning
		} else if e.Key.Hash == hash && e.Key.Chars == chars {
			return e.Key
		}
		index = (index + 1) & (capacity - 1)
	}
}

// AddAll copies every live entry of from into t (used to implement class
// inheritance via INHERIT, spec.md §4.5).
func (t *Table) AddAll(from *Table) {
	for _, e := range from.entries {
		if e.Key != nil {
			t.Set(e.Key, e.Value)
		}
	}
}

// RemoveWhite deletes every entry whose key is unmarked. This is how the
// GC's string-intern table is kept a weak reference table: it must not
// resurrect strings nothing else refers to (spec.md §4.7 step 4, §9).
func (t *Table) RemoveWhite() {
	for i := range t.entries {
		e := &t.entries[i]
		if e.Key != nil && !e.Key.isMarked() {
			e.Key = nil
			e.Value = True
		}
	}
}

// Each calls fn for every live entry. Used by the GC to mark table roots and
// contents (globals, methods, fields) without this package depending on
// lang/gc.
func (t *Table) Each(fn func(key *ObjString, value Value)) {
	for _, e := range t.entries {
		if e.Key != nil {
			fn(e.Key, e.Value)
		}
	}
}

func growCapacity(capacity int) int {
	if capacity < 8 {
		return 8
	}
	return capacity * 2
}
