// Package remap implements the remap table: a dense-id allocator that
// assigns a fresh id the first time a key is touched within a generation,
// while tracking how many keys still reference each id so the space can
// later be compacted back to [0, liveCount).
//
// See the "Remap Table" section of the ACL compiler design: every rule
// compilation pass bumps the generation, and every cell touched by that
// rule shares one id if they were touched the same way.
package remap

// Invalid marks a key whose assigned id has been dropped (its refcount
// reached zero before or during compaction).
const Invalid = 0xFFFFFFFF

type item struct {
	refcount uint32
	gen      uint32
	value    uint32 // remap target while refcount > 0; free-list link once refcount reaches zero
}

// Table is a remap table as described in the design doc. The zero Table
// is not ready to use; call New.
type Table struct {
	gen      uint32
	items    []item
	freeHead uint32 // Invalid if the free list is empty
}

// New returns a remap table whose id 0 starts with refcount == capacity,
// i.e. every one of the capacity "slots" a caller intends to remap
// initially maps to the shared zero class.
func New(capacity uint32) *Table {
	t := &Table{
		gen:      1,
		freeHead: Invalid,
	}
	t.items = append(t.items, item{refcount: capacity})
	return t
}

// NewGeneration advances the current generation. Any key whose stamp is
// older than the new generation will be treated as untouched on its next
// Touch.
func (t *Table) NewGeneration() {
	t.gen++
}

// newKey returns an unused key, reusing the free list before growing.
func (t *Table) newKey() uint32 {
	if t.freeHead != Invalid {
		key := t.freeHead
		t.freeHead = t.items[key].value
		t.items[key] = item{}
		return key
	}

	key := uint32(len(t.items))
	t.items = append(t.items, item{})
	return key
}

// Touch assigns key a dense target id for the current generation. If key
// was not touched during this generation, a fresh (or recycled) id is
// allocated and created reports true; if key was already touched this
// generation, the previously assigned id is returned and created is
// false. Either way one reference moves from key to the returned id:
// the id's refcount is incremented and key's is decremented, and key
// goes onto the free list once its refcount reaches zero.
func (t *Table) Touch(key uint32) (value uint32, created bool) {
	it := &t.items[key]

	if it.gen != t.gen {
		newKey := t.newKey()
		it = &t.items[key] // newKey may have grown the slice
		it.gen = t.gen
		it.value = newKey
		created = true
	}

	t.items[it.value].refcount++
	it.refcount--
	value = it.value

	if it.refcount == 0 {
		it.value = t.freeHead
		t.freeHead = key
	}

	return value, created
}

// Compact renumbers every live (refcount > 0) entry to a dense range
// [0, liveCount) in ascending key order, and marks dead entries Invalid.
// Touch must not be called after Compact.
func (t *Table) Compact() {
	var next uint32
	for i := range t.items {
		if t.items[i].refcount > 0 {
			t.items[i].value = next
			next++
		} else {
			t.items[i].value = Invalid
		}
	}
}

// Compacted returns the post-Compact renumbering of key. Compact must
// have been called first.
func (t *Table) Compacted(key uint32) uint32 {
	return t.items[key].value
}

// LiveCount returns the number of entries with a nonzero refcount as of
// the last Compact call.
func (t *Table) LiveCount() uint32 {
	var n uint32
	for i := range t.items {
		if t.items[i].value != Invalid {
			n++
		}
	}
	return n
}

// Len returns the total number of keys ever allocated (including
// zero-refcount ones), i.e. the pre-compaction capacity.
func (t *Table) Len() int {
	return len(t.items)
}

// Refcount returns the current reference count of key, for testing
// invariant 3 ("sum of refcounts equals initial capacity").
func (t *Table) Refcount(key uint32) uint32 {
	return t.items[key].refcount
}
