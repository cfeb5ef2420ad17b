package radix64

import "testing"

func TestLookupMissingReturnsInvalid(t *testing.T) {
	t.Parallel()

	tr := New()
	if got := tr.Lookup(0x1234); got != Invalid {
		t.Fatalf("Lookup on empty tree = %d, want Invalid", got)
	}
}

func TestInsertThenLookupRoundTrips(t *testing.T) {
	t.Parallel()

	tr := New()
	tr.Insert(0x0102030405060708, 42)
	tr.Insert(0xFFFFFFFFFFFFFFFF, 7)
	tr.Insert(0, 99)

	cases := []struct {
		key  uint64
		want uint32
	}{
		{0x0102030405060708, 42},
		{0xFFFFFFFFFFFFFFFF, 7},
		{0, 99},
		{0x0102030405060709, Invalid},
	}
	for _, c := range cases {
		if got := tr.Lookup(c.key); got != c.want {
			t.Fatalf("Lookup(%#x) = %d, want %d", c.key, got, c.want)
		}
	}
}

func TestInsertOverwritesExistingKey(t *testing.T) {
	t.Parallel()

	tr := New()
	tr.Insert(100, 1)
	tr.Insert(100, 2)

	if got := tr.Lookup(100); got != 2 {
		t.Fatalf("Lookup(100) = %d, want 2 (last write wins)", got)
	}
}

func TestIterateVisitsAllEntriesInAscendingKeyOrder(t *testing.T) {
	t.Parallel()

	tr := New()
	keys := []uint64{500, 3, 0xFFFFFFFF00000000, 1 << 40, 9}
	for i, k := range keys {
		tr.Insert(k, uint32(i))
	}

	var seen []uint64
	var prev uint64
	first := true
	tr.Iterate(func(key uint64, value uint32) {
		if !first && key <= prev {
			t.Fatalf("Iterate did not produce ascending keys: %#x after %#x", key, prev)
		}
		first = false
		prev = key
		seen = append(seen, key)
	})

	if len(seen) != len(keys) {
		t.Fatalf("Iterate visited %d entries, want %d", len(seen), len(keys))
	}
}
