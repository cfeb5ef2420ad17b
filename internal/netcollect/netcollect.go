// Package netcollect builds a disjoint, first-match-free partition of the
// full 64-bit address space out of a multiset of overlapping (address,
// mask) network declarations.
//
// Declaring overlapping prefixes (a /8 and a /16 inside it, say) is
// normal for ACL rules, but the eventual LPM tree needs exactly one
// equivalence class per address: every address must end up covered by
// precisely one emitted range, with narrower declarations carving a hole
// out of the wider ones that contain them. This package computes that
// partition and then hands the ranges to lpm64.
package netcollect

import (
	"math/bits"

	"github.com/packetforge/aclc/internal/lpm64"
	"github.com/packetforge/aclc/internal/radix64"
)

const invalidValue = 0xFFFFFFFF

// suffixMaskBase has bit 63 clear and every other bit set; shifting it
// right by (prefixLen - 1) yields the mask of host bits left free by a
// prefix of that length.
const suffixMaskBase = 0x7FFFFFFFFFFFFFFF

// Collector accumulates network declarations keyed by their base address,
// deduplicating addresses that are declared at more than one prefix
// length via a radix64 index into a per-address bitmap of prefix lengths
// seen.
type Collector struct {
	radix *radix64.Tree
	masks []uint64
}

// New returns an empty Collector.
func New() *Collector {
	return &Collector{radix: radix64.New()}
}

// Add records that addr is declared with the given subnet mask. addr must
// already have its host bits zeroed by the caller. A mask of zero (a /0,
// matching every address) needs no bookkeeping: the final partition
// already treats the whole address space as an implicit background
// range, so unmasked declarations fall out of Collect for free.
func (c *Collector) Add(addr, mask uint64) {
	if mask == 0 {
		return
	}

	maskIdx := c.radix.Lookup(addr)
	if maskIdx == radix64.Invalid {
		maskIdx = uint32(len(c.masks))
		c.masks = append(c.masks, 0)
		c.radix.Insert(addr, maskIdx)
	}

	prefixLen := bits.OnesCount64(mask)
	c.masks[maskIdx] |= 1 << uint(prefixLen-1)
}

type stackFrame struct {
	from, to uint64
}

type collectState struct {
	masks []uint64

	stack  []stackFrame
	values []uint32

	maxValue uint32
	lastTo   uint64

	lpm *lpm64.Tree
}

func (s *collectState) topValue() uint32 {
	i := len(s.values) - 1
	if s.values[i] == invalidValue {
		s.values[i] = s.maxValue
		s.maxValue++
	}
	return s.values[i]
}

func next(v uint64) uint64 { return v + 1 }
func prev(v uint64) uint64 { return v - 1 }

// trailingZeroMask returns a mask of v's trailing zero bits: for v == 0
// every bit is "trailing zero" since any alignment divides it, so the
// mask is all ones.
func trailingZeroMask(v uint64) uint64 {
	if v == 0 {
		return ^uint64(0)
	}
	return (v ^ (v - 1)) >> 1
}

// emitRange inserts [from, to] into the LPM tree, subdividing it into the
// minimal number of power-of-two-aligned blocks a prefix trie can express
// directly.
func (s *collectState) emitRange(from, to uint64, value uint32) {
	if from == next(to) {
		// from==0, to==^uint64(0): the whole address space in one shot.
		s.lpm.Insert(from, to, value)
		return
	}

	for from != next(to) {
		count := to - from + 1
		delta := count >> 1
		delta |= delta >> 1
		delta |= delta >> 2
		delta |= delta >> 4
		delta |= delta >> 8
		delta |= delta >> 16
		delta |= delta >> 32

		mask := trailingZeroMask(from)
		mask &= delta & mask

		s.lpm.Insert(from, from|mask, value)
		from = (from | mask) + 1
	}
}

// addNetwork pushes [from, to] onto the nesting stack, first closing out
// (emitting) any previously open frames that from has stepped outside of,
// and filling any gap between the last emitted boundary and from with the
// enclosing frame's background value.
func (s *collectState) addNetwork(from, to uint64) {
	for len(s.stack) > 0 {
		top := s.stack[len(s.stack)-1]
		upperMask := ^(top.to ^ top.from)
		if (from^top.from)&upperMask == 0 {
			break
		}
		if s.lastTo != top.to {
			s.emitRange(next(s.lastTo), top.to, s.topValue())
			s.lastTo = top.to
		}
		s.stack = s.stack[:len(s.stack)-1]
		s.values = s.values[:len(s.values)-1]
	}

	if len(s.stack) > 0 && next(s.lastTo) != from {
		s.emitRange(next(s.lastTo), prev(from), s.topValue())
	}

	s.lastTo = prev(from)
	s.stack = append(s.stack, stackFrame{from: from, to: to})
	s.values = append(s.values, invalidValue)
}

// Collect computes the disjoint partition of [0, 2^64) induced by every
// network declared via Add and returns it as an LPM tree together with
// the number of distinct equivalence classes assigned (the classes'
// dense id space is [0, count)).
func (c *Collector) Collect() (*lpm64.Tree, uint32) {
	s := &collectState{
		masks:  c.masks,
		lpm:    lpm64.New(),
		stack:  []stackFrame{{from: 0, to: ^uint64(0)}},
		values: []uint32{invalidValue},
		lastTo: ^uint64(0),
	}

	c.radix.Iterate(func(key uint64, maskIdx uint32) {
		mask := s.masks[maskIdx]
		for mask != 0 {
			shift := uint(bits.TrailingZeros64(mask))
			to := key | (uint64(suffixMaskBase) >> shift)
			s.addNetwork(key, to)
			mask &^= 1 << shift
		}
	})

	for len(s.stack) > 0 {
		top := s.stack[len(s.stack)-1]
		if s.lastTo != top.to || s.maxValue == 0 {
			s.emitRange(next(s.lastTo), top.to, s.topValue())
			s.lastTo = top.to
		}
		s.stack = s.stack[:len(s.stack)-1]
		s.values = s.values[:len(s.values)-1]
	}

	return s.lpm, s.maxValue
}
