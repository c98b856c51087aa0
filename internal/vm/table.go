package vm

import "bytes"

// Table is an open-addressed hash table with linear probing, keyed by
// interned strings. Deleted slots become tombstones so probe chains stay
// intact; tombstones count against the load factor and are recycled on
// insert.
type Table struct {
	count   int // live entries + tombstones
	entries []entry
}

type entry struct {
	key   *ObjString // nil for EMPTY and TOMBSTONE slots
	value Value      // BoolVal(true) marks a tombstone
}

const tableMaxLoad = 0.75

func (e *entry) isTombstone() bool {
	return e.key == nil && e.value.IsBool() && e.value.AsBool()
}

// Get looks up a key and returns its value.
func (t *Table) Get(key *ObjString) (Value, bool) {
	if t.count == 0 {
		return NilVal(), false
	}
	e := findEntry(t.entries, key)
	if e.key == nil {
		return NilVal(), false
	}
	return e.value, true
}

// Set stores value under key. It reports whether a new entry was created
// rather than an existing key overwritten.
func (t *Table) Set(key *ObjString, value Value) bool {
	if float64(t.count+1) > float64(len(t.entries))*tableMaxLoad {
		t.adjustCapacity(growCapacity(len(t.entries)))
	}

	e := findEntry(t.entries, key)
	isNew := e.key == nil
	if isNew && !e.isTombstone() {
		// Filling a tombstone reuses its load-factor slot
		t.count++
	}

	e.key = key
	e.value = value
	return isNew
}

// Delete removes a key, leaving a tombstone. Reports whether the key was
// present.
func (t *Table) Delete(key *ObjString) bool {
	if t.count == 0 {
		return false
	}

	e := findEntry(t.entries, key)
	if e.key == nil {
		return false
	}

	e.key = nil
	e.value = BoolVal(true)
	return true
}

// FindString returns the interned string equal to the given bytes, or nil.
// This is the interner's deep-equality probe; everywhere else keys compare
// by identity.
func (t *Table) FindString(chars []byte, hash uint32) *ObjString {
	if t.count == 0 {
		return nil
	}

	index := hash & uint32(len(t.entries)-1)
	for {
		e := &t.entries[index]
		if e.key == nil {
			// A truly empty slot ends the probe chain
			if !e.isTombstone() {
				return nil
			}
		} else if e.key.Hash == hash && bytes.Equal(e.key.Chars, chars) {
			return e.key
		}
		index = (index + 1) & uint32(len(t.entries)-1)
	}
}

// Len returns the number of live entries (excluding tombstones).
func (t *Table) Len() int {
	n := 0
	for i := range t.entries {
		if t.entries[i].key != nil {
			n++
		}
	}
	return n
}

// Free releases the bucket array.
func (t *Table) Free() {
	t.entries = nil
	t.count = 0
}

// findEntry locates the slot for a key: its live entry if present,
// otherwise the insertion point (the first tombstone seen, or the empty
// slot ending the chain).
func findEntry(entries []entry, key *ObjString) *entry {
	index := key.Hash & uint32(len(entries)-1)
	var tombstone *entry
	for {
		e := &entries[index]
		if e.key == nil {
			if !e.isTombstone() {
				if tombstone != nil {
					return tombstone
				}
				return e
			}
			if tombstone == nil {
				tombstone = e
			}
		} else if e.key == key {
			return e
		}
		index = (index + 1) & uint32(len(entries)-1)
	}
}

func growCapacity(capacity int) int {
	if capacity < 8 {
		return 8
	}
	return capacity * 2
}

// adjustCapacity rehashes live entries into a new bucket array.
// Tombstones vanish, so the count is recomputed.
func (t *Table) adjustCapacity(capacity int) {
	entries := make([]entry, capacity)

	t.count = 0
	for i := range t.entries {
		e := &t.entries[i]
		if e.key == nil {
			continue
		}
		dest := findEntry(entries, e.key)
		dest.key = e.key
		dest.value = e.value
		t.count++
	}

	t.entries = entries
}
