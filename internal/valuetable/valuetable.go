// Package valuetable implements the rectangular Value Table: an h×v grid
// of remap-table keys, where each cell can be "touched" into a fresh
// equivalence class scoped to the table's current remap generation.
package valuetable

import "github.com/packetforge/aclc/internal/remap"

// Table is an h_dim × v_dim grid backed by a remap.Table.
type Table struct {
	remap *remap.Table
	hDim  uint32
	vDim  uint32
	cells []uint32
}

// New allocates a zero-initialized hDim × vDim table: every cell starts
// out mapped to the shared placeholder class 0.
func New(hDim, vDim uint32) *Table {
	return &Table{
		remap: remap.New(hDim * vDim),
		hDim:  hDim,
		vDim:  vDim,
		cells: make([]uint32, hDim*vDim),
	}
}

// HDim and VDim return the table's dimensions.
func (t *Table) HDim() uint32 { return t.hDim }
func (t *Table) VDim() uint32 { return t.vDim }

func (t *Table) index(h, v uint32) uint32 {
	return v*t.hDim + h
}

// Get returns the remap key currently stored at (h, v).
func (t *Table) Get(h, v uint32) uint32 {
	return t.cells[t.index(h, v)]
}

// Touch assigns cell (h, v) a fresh class for the current generation
// (or returns the one already assigned this generation), storing the
// result back into the cell.
func (t *Table) Touch(h, v uint32) (value uint32, created bool) {
	idx := t.index(h, v)
	value, created = t.remap.Touch(t.cells[idx])
	t.cells[idx] = value
	return value, created
}

// NewGeneration starts a new remap generation; all cells touched after
// this call but sharing a previous class will be assigned together.
func (t *Table) NewGeneration() {
	t.remap.NewGeneration()
}

// Compact compacts the underlying remap table and rewrites every cell
// through the compacted mapping.
func (t *Table) Compact() {
	t.remap.Compact()
	for i, c := range t.cells {
		t.cells[i] = t.remap.Compacted(c)
	}
}

// Values returns the flat, row-major (v-major) backing slice of compacted
// (or not yet compacted) cell values, for copying into a runtime
// FilterTable.
func (t *Table) Values() []uint32 {
	return t.cells
}
