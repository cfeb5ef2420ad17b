package valuetable

import "testing"

func TestTouchAndCompactProduceDenseDistinctClasses(t *testing.T) {
	t.Parallel()

	vt := New(2, 3)

	vt.NewGeneration()
	vt.Touch(0, 0)
	vt.Touch(0, 1) // same generation, same stale source class -> same id as (0,0)

	vt.NewGeneration()
	vt.Touch(1, 2)

	vt.Compact()

	if vt.Get(0, 0) != vt.Get(0, 1) {
		t.Fatalf("cells touched in the same generation from the same source class must share a post-compaction id")
	}
	if vt.Get(0, 0) == vt.Get(1, 2) {
		t.Fatalf("cells touched in different generations must not collapse to the same id")
	}
}

func TestGetReflectsStoredCell(t *testing.T) {
	t.Parallel()

	vt := New(4, 4)
	if vt.Get(2, 2) != 0 {
		t.Fatalf("untouched cell must read back as the shared placeholder class 0")
	}

	vt.NewGeneration()
	v, _ := vt.Touch(2, 2)
	if vt.Get(2, 2) != v {
		t.Fatalf("Get must reflect the value Touch just stored")
	}
}
