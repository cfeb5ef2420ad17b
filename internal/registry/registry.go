// Package registry implements the Value Registry: an append-only log of
// collected values partitioned into per-rule ranges, with duplicate
// suppression scoped to the range currently being built.
package registry

// Registry is a Value Registry. The zero Registry is ready to use.
type Registry struct {
	values []uint32
	ranges []valueRange

	// seenGen is a generation stamp per value: seenGen[v] == gen means
	// v was already collected in the currently open range. Grown
	// lazily, mirroring the original's chunked use-map.
	seenGen []uint32
	gen     uint32

	maxValue     uint32
	anyCollected bool
}

type valueRange struct {
	from  uint32
	count uint32
}

// Start opens a new range (one per rule) and advances the dedup
// generation so the next Collect calls see a clean slate.
func (r *Registry) Start() {
	r.gen++
	r.ranges = append(r.ranges, valueRange{from: uint32(len(r.values))})
}

// Collect appends v to the currently open range unless v was already
// collected since the last Start call.
func (r *Registry) Collect(v uint32) {
	if int(v) >= len(r.seenGen) {
		grown := make([]uint32, v+1)
		copy(grown, r.seenGen)
		r.seenGen = grown
	}
	if r.seenGen[v] == r.gen {
		return
	}
	r.seenGen[v] = r.gen

	r.values = append(r.values, v)
	r.ranges[len(r.ranges)-1].count++
	if !r.anyCollected || v > r.maxValue {
		r.maxValue = v
	}
	r.anyCollected = true
}

// Capacity returns max_value + 1, the dense value-space size spanned by
// everything collected so far. An empty registry has capacity 1 (only
// the implicit zero class).
func (r *Registry) Capacity() uint32 {
	return r.maxValue + 1
}

// RangeCount returns the number of ranges (one per rule) opened so far.
func (r *Registry) RangeCount() int {
	return len(r.ranges)
}

// Range returns the values collected for the range at idx.
func (r *Registry) Range(idx int) []uint32 {
	rg := r.ranges[idx]
	return r.values[rg.from : rg.from+rg.count]
}

// JoinFunc is invoked by JoinRange for each (v1, v2) pair in the
// cross-product of two registries' same-indexed ranges. idx is the range
// index itself, passed through so callers building a per-rule result
// (the rule at position idx) don't need a second lookup.
type JoinFunc func(v1, v2 uint32, idx int)

// JoinRange iterates the cross-product of self.Range(idx) and
// other.Range(idx), invoking fn for every pair. Both registries must
// have been built with the same range structure (one range per rule).
func JoinRange(self, other *Registry, idx int, fn JoinFunc) {
	for _, v1 := range self.Range(idx) {
		for _, v2 := range other.Range(idx) {
			fn(v1, v2, idx)
		}
	}
}
