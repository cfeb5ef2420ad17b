package pipeline

import "testing"

func TestBufferPoolReuseAndStats(t *testing.T) {
	t.Parallel()

	p := newBufferPool(64)

	b1 := p.Get()
	if len(b1) != 64 {
		t.Fatalf("expected buffer of length 64, got %d", len(b1))
	}
	live, total := p.Stats()
	if live != 1 || total != 1 {
		t.Fatalf("after one Get: live=%d total=%d, want 1,1", live, total)
	}

	p.Put(b1)
	live, total = p.Stats()
	if live != 0 || total != 1 {
		t.Fatalf("after Put: live=%d total=%d, want 0,1", live, total)
	}

	b2 := p.Get()
	live, total = p.Stats()
	if live != 1 || total != 1 {
		t.Fatalf("after reuse Get: live=%d total=%d, want 1,1 (no new allocation)", live, total)
	}
	_ = b2
}

func TestBufferPoolNilIsSafeZeroValue(t *testing.T) {
	t.Parallel()

	var p *bufferPool
	if got := p.Get(); len(got) != 0 {
		t.Fatalf("nil pool Get() = %v, want empty", got)
	}
	p.Put([]byte{1, 2, 3})
	if live, total := p.Stats(); live != 0 || total != 0 {
		t.Fatalf("nil pool Stats() = %d,%d, want 0,0", live, total)
	}
}
