// Package radix64 implements a plain, fully expanded 8-level 256-way
// trie keyed by a big-endian uint64, with no path compression. It is
// used to deduplicate the per-prefix mask-sets seen while collecting
// network prefixes: the same 64-bit network address can appear under
// several different prefix lengths, and the radix trie maps each
// distinct address to a single slot holding the union of prefix lengths
// seen for it.
package radix64

import "github.com/packetforge/aclc/internal/pagetrie"

// Invalid marks an unset trie slot.
const Invalid = 0xFFFFFFFF

// Tree is a radix-64 trie mapping uint64 keys to uint32 values.
type Tree struct {
	store *pagetrie.Store
}

// New returns an empty trie.
func New() *Tree {
	return &Tree{store: pagetrie.New(Invalid)}
}

// Lookup returns the value stored for key, or Invalid if key was never
// inserted.
func (t *Tree) Lookup(key uint64) uint32 {
	kb := pagetrie.KeyBytes(key)
	page := t.store.Page(0)
	var value uint32
	for hop := 0; hop < 7; hop++ {
		value = page[kb[hop]]
		if value == Invalid {
			return Invalid
		}
		page = t.store.Page(value)
	}
	return page[kb[7]]
}

// Insert sets key's value, allocating intermediate pages as needed.
func (t *Tree) Insert(key uint64, value uint32) {
	kb := pagetrie.KeyBytes(key)
	page := t.store.Page(0)
	for hop := 0; hop < 7; hop++ {
		next := page[kb[hop]]
		if next == Invalid {
			next = t.store.NewPage(Invalid)
			page[kb[hop]] = next
		}
		page = t.store.Page(next)
	}
	page[kb[7]] = value
}

// IterateFunc is invoked for every valid (key, value) pair during
// Iterate, in ascending big-endian key order.
type IterateFunc func(key uint64, value uint32)

// Iterate performs a DFS over the trie emitting every valid entry in
// ascending key order.
func (t *Tree) Iterate(fn IterateFunc) {
	var keyBytes [8]byte
	var walk func(page *pagetrie.Page, depth int)
	walk = func(page *pagetrie.Page, depth int) {
		for b := 0; b < 256; b++ {
			v := page[b]
			if v == Invalid {
				continue
			}
			keyBytes[depth] = byte(b)
			if depth == 7 {
				fn(pagetrie.KeyFromBytes(keyBytes), v)
				continue
			}
			walk(t.store.Page(v), depth+1)
		}
	}
	walk(t.store.Page(0), 0)
}
