package pipeline

import (
	"sync"
	"sync/atomic"
)

// bufferPool is a type-safe wrapper around sync.Pool, specialized for
// reusable read buffers sized bufSize. It tracks allocation and live
// statistics for tuning worker batch sizes, the same purpose the
// teacher's node pool serves for *node[V] - here the pooled payload is
// a raw packet buffer instead of a trie node.
type bufferPool struct {
	sync.Pool

	bufSize        int
	totalAllocated atomic.Int64 // total buffers ever allocated
	currentLive    atomic.Int64 // buffers currently checked out
}

// newBufferPool creates a pool handing out byte slices of length
// bufSize.
func newBufferPool(bufSize int) *bufferPool {
	p := &bufferPool{bufSize: bufSize}
	p.New = func() any {
		p.totalAllocated.Add(1)
		return make([]byte, p.bufSize)
	}
	return p
}

// Get retrieves a buffer from the pool, or allocates a fresh one.
func (p *bufferPool) Get() []byte {
	if p == nil {
		return make([]byte, 0)
	}
	p.currentLive.Add(1)
	return p.Pool.Get().([]byte)
}

// Put returns buf to the pool for reuse.
func (p *bufferPool) Put(buf []byte) {
	if p == nil {
		return
	}
	p.currentLive.Add(-1)
	p.Pool.Put(buf[:p.bufSize])
}

// Stats returns the number of currently checked-out buffers and the
// total ever allocated.
func (p *bufferPool) Stats() (live, total int64) {
	if p == nil {
		return 0, 0
	}
	return p.currentLive.Load(), p.totalAllocated.Load()
}
