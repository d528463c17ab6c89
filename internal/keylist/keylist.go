// Package keylist implements the append-only multi-get key container
// (component C), ported from memtier_benchmark's keylist class
// (original_source/protocol.cpp).
package keylist

import "github.com/valyala/bytebufferpool"

type entry struct {
	offset int
	length int
}

// List is a fixed-capacity index of (offset, length) pairs into a
// geometrically growing byte store. AddKey copies its argument into the
// store; the index table's capacity is fixed at construction, matching
// spec.md §3/§4.C.
type List struct {
	entries []entry
	count   int

	store *bytebufferpool.ByteBuffer
}

// New returns a List with room for up to maxKeys entries.
func New(maxKeys int) *List {
	return &List{
		entries: make([]entry, maxKeys),
		store:   &bytebufferpool.ByteBuffer{B: make([]byte, 0, 256*maxKeys)},
	}
}

// AddKey appends key, copying it into the backing store. It returns false
// without copying anything when the index table is already full; the
// caller decides whether to drop the key or rotate the list.
func (l *List) AddKey(key []byte) bool {
	if l.count >= len(l.entries) {
		return false
	}
	offset := len(l.store.B)
	l.store.Write(key)
	l.store.WriteByte(0) // NUL terminator, matching the original's copies
	l.entries[l.count] = entry{offset: offset, length: len(key)}
	l.count++
	return true
}

// GetKey returns the i-th key and true, or (nil, false) if i is out of
// range.
func (l *List) GetKey(i int) ([]byte, bool) {
	if i < 0 || i >= l.count {
		return nil, false
	}
	e := l.entries[i]
	return l.store.B[e.offset : e.offset+e.length], true
}

// Len reports how many keys are currently held.
func (l *List) Len() int {
	return l.count
}

// Clear resets the list without releasing the backing store, so the next
// batch of AddKey calls reuses the already-grown buffer.
func (l *List) Clear() {
	l.count = 0
	l.store.Reset()
}
