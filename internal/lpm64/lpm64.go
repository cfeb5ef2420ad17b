// Package lpm64 implements a longest-prefix-match tree over 8-byte keys.
// Unlike radix64, lpm64 supports inserting whole [from, to] ranges in one
// call: the tree does not allow reassigning or deleting a range once
// inserted, and a stored value is tagged so that the lookup path can tell
// a leaf (terminal match) from an interior page-index pointer without a
// separate discriminant field.
package lpm64

import (
	"github.com/packetforge/aclc/internal/pagetrie"
	"github.com/packetforge/aclc/internal/valuetable"
)

const (
	// Invalid marks an unset slot: neither a page pointer nor a leaf.
	Invalid = 0xFFFFFFFF
	// Mask extracts the value payload from a tagged leaf slot.
	Mask = 0x7FFFFFFF
	// Flag marks a slot as a terminal leaf rather than a page pointer.
	Flag = 0x80000000
)

// Tree is an LPM tree mapping uint64 ranges to uint32 values.
type Tree struct {
	store *pagetrie.Store
}

// New returns an empty tree.
func New() *Tree {
	return &Tree{store: pagetrie.New(Invalid)}
}

// Insert maps every key in [from, to] to value. from and to must agree on
// at least their first byte is not required; the common prefix of from and
// to is walked as page pointers, and the final differing byte range is
// filled directly with the tagged leaf value.
func (t *Tree) Insert(from, to uint64, value uint32) {
	fromBytes := pagetrie.KeyBytes(from)
	toBytes := pagetrie.KeyBytes(to)

	page := t.store.Page(0)
	hop := 0
	for hop < 7 && fromBytes[hop] == toBytes[hop] {
		stored := page[fromBytes[hop]]
		if stored == Invalid {
			stored = t.store.NewPage(Invalid)
			page[fromBytes[hop]] = stored
		}
		page = t.store.Page(stored)
		hop++
	}

	for idx := int(fromBytes[hop]); idx <= int(toBytes[hop]); idx++ {
		page[idx] = value | Flag
	}
}

// Lookup returns the value whose range contains key, or Invalid if no
// inserted range covers it.
func (t *Tree) Lookup(key uint64) uint32 {
	kb := pagetrie.KeyBytes(key)
	page := t.store.Page(0)
	for hop := 0; hop < 8; hop++ {
		v := page[kb[hop]]
		if v == Invalid {
			return Invalid
		}
		if v&Flag != 0 {
			return v & Mask
		}
		page = t.store.Page(v)
	}
	return Invalid
}

// WalkFunc is invoked once per distinct value encountered while walking a
// range, in ascending key order. It is not invoked again for a run of
// consecutive keys sharing the same value.
type WalkFunc func(key uint64, value uint32)

// Walk visits every distinct value covering a key in [from, to], in
// ascending key order, collapsing consecutive keys that map to the same
// value into a single callback.
func (t *Tree) Walk(from, to uint64, fn WalkFunc) {
	fromBytes := pagetrie.KeyBytes(from)
	toBytes := pagetrie.KeyBytes(to)

	var keys [8]byte
	var pages [8]*pagetrie.Page

	hop := 0
	keys[0] = fromBytes[0]
	pages[0] = t.store.Page(0)
	prevValue := uint32(Invalid)

	for {
		value := pages[hop][keys[hop]]
		switch {
		case value == Invalid:
		case value&Flag != 0:
			if value != prevValue {
				fn(pagetrie.KeyFromBytes(keys), value&Mask)
				prevValue = value
			}
		default:
			hop++
			keys[hop] = fromBytes[hop]
			pages[hop] = t.store.Page(value)
			continue
		}

		keys[hop]++
		for keys[hop] == toBytes[hop]+1 {
			if hop == 0 {
				return
			}
			hop--
			keys[hop]++
		}
	}
}

// Compact rewrites every leaf value through table (read from column 0) and
// then collapses any page whose 256 entries all now hold the same tagged
// leaf value into a single entry at the parent, shrinking the tree.
func (t *Tree) Compact(table *valuetable.Table) {
	var keys [8]byte
	var pages [8]*pagetrie.Page

	hop := 0
	keys[0] = 0
	pages[0] = t.store.Page(0)

	for {
		value := pages[hop][keys[hop]]
		switch {
		case value == Invalid:
		case value&Flag != 0:
			pages[hop][keys[hop]] = table.Get(0, value&Mask) | Flag
		default:
			hop++
			keys[hop] = 0
			pages[hop] = t.store.Page(value)
			continue
		}

		keys[hop]++
		for keys[hop] == 0 {
			if hop == 0 {
				return
			}

			firstValue := pages[hop][0]
			isMonolithic := true
			for idx := 255; idx > 0; idx-- {
				if pages[hop][idx] != firstValue {
					isMonolithic = false
				}
			}

			hop--
			if isMonolithic && firstValue&Flag != 0 {
				pages[hop][keys[hop]] = firstValue
			}

			keys[hop]++
		}
	}
}
