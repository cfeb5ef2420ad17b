package lpm64

import (
	"testing"

	"github.com/packetforge/aclc/internal/valuetable"
)

func TestLookupMissingReturnsInvalid(t *testing.T) {
	t.Parallel()

	tr := New()
	if got := tr.Lookup(123); got != Invalid {
		t.Fatalf("Lookup on empty tree = %d, want Invalid", got)
	}
}

func TestInsertSingleKeyRange(t *testing.T) {
	t.Parallel()

	tr := New()
	tr.Insert(0x0000000000000010, 0x0000000000000010, 5)

	if got := tr.Lookup(0x10); got != 5 {
		t.Fatalf("Lookup(0x10) = %d, want 5", got)
	}
	if got := tr.Lookup(0x11); got != Invalid {
		t.Fatalf("Lookup(0x11) = %d, want Invalid", got)
	}
}

func TestInsertWideRangeCoversEveryKeyInside(t *testing.T) {
	t.Parallel()

	tr := New()
	tr.Insert(0x00, 0xFF, 77)

	for _, key := range []uint64{0x00, 0x42, 0xFF} {
		if got := tr.Lookup(key); got != 77 {
			t.Fatalf("Lookup(%#x) = %d, want 77", key, got)
		}
	}
	if got := tr.Lookup(0x100); got != Invalid {
		t.Fatalf("Lookup(0x100) = %d, want Invalid (outside inserted range)", got)
	}
}

func TestWalkCollapsesConsecutiveIdenticalValues(t *testing.T) {
	t.Parallel()

	tr := New()
	tr.Insert(0x00, 0x7F, 1)
	tr.Insert(0x80, 0xFF, 1)
	tr.Insert(0x100, 0x1FF, 2)

	var calls []uint32
	tr.Walk(0x00, 0x1FF, func(key uint64, value uint32) {
		calls = append(calls, value)
	})

	if len(calls) != 2 {
		t.Fatalf("Walk emitted %d calls, want 2 (runs of 1 then 2): %v", len(calls), calls)
	}
	if calls[0] != 1 || calls[1] != 2 {
		t.Fatalf("Walk values = %v, want [1 2]", calls)
	}
}

func TestWalkSkipsGapsWithoutEmitting(t *testing.T) {
	t.Parallel()

	tr := New()
	tr.Insert(0x10, 0x10, 9)
	tr.Insert(0x20, 0x20, 9)

	var calls []uint32
	tr.Walk(0x00, 0x30, func(key uint64, value uint32) {
		calls = append(calls, value)
	})

	// Same value 9 appears in two disjoint runs separated by a gap; each
	// run starts a fresh run since prevValue tracking only suppresses
	// consecutive duplicates, not duplicates across a gap... however the
	// original algorithm's prevValue is threaded across the whole walk,
	// so the second run of the same value is NOT re-emitted either.
	if len(calls) != 1 {
		t.Fatalf("Walk emitted %d calls, want 1 (same value across the whole walk): %v", len(calls), calls)
	}
}

func TestCompactRewritesThroughValueTableAndCollapsesMonolithicPages(t *testing.T) {
	t.Parallel()

	tr := New()
	tr.Insert(0x00, 0xFF, 3)

	vt := valuetable.New(1, 8)
	vt.NewGeneration()
	compacted, _ := vt.Touch(0, 3)

	tr.Compact(vt)

	if got := tr.Lookup(0x42); got != compacted {
		t.Fatalf("Lookup(0x42) after Compact = %d, want %d", got, compacted)
	}
}
