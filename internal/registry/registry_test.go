package registry

import "testing"

func TestCollectSuppressesDuplicatesWithinARange(t *testing.T) {
	t.Parallel()

	var r Registry
	r.Start()
	r.Collect(5)
	r.Collect(5)
	r.Collect(3)

	got := r.Range(0)
	want := []uint32{5, 3}
	if len(got) != len(want) {
		t.Fatalf("range 0 = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("range 0 = %v, want %v", got, want)
		}
	}
}

func TestCollectAllowsRepeatsAcrossRanges(t *testing.T) {
	t.Parallel()

	var r Registry
	r.Start()
	r.Collect(5)

	r.Start()
	r.Collect(5)
	r.Collect(5)

	if len(r.Range(1)) != 1 {
		t.Fatalf("range 1 should still dedup within itself: got %v", r.Range(1))
	}
}

func TestCapacityTracksMaxValue(t *testing.T) {
	t.Parallel()

	var r Registry
	r.Start()
	r.Collect(2)
	r.Collect(9)
	r.Collect(1)

	if got := r.Capacity(); got != 10 {
		t.Fatalf("Capacity() = %d, want 10 (max value 9 + 1)", got)
	}
}

func TestJoinRangeVisitsCrossProduct(t *testing.T) {
	t.Parallel()

	var a, b Registry
	a.Start()
	a.Collect(1)
	a.Collect(2)

	b.Start()
	b.Collect(10)
	b.Collect(20)
	b.Collect(30)

	var pairs [][2]uint32
	JoinRange(&a, &b, 0, func(v1, v2 uint32, idx int) {
		if idx != 0 {
			t.Fatalf("idx = %d, want 0", idx)
		}
		pairs = append(pairs, [2]uint32{v1, v2})
	})

	if len(pairs) != 6 {
		t.Fatalf("expected 2*3=6 pairs, got %d: %v", len(pairs), pairs)
	}
}
