package pipeline

import (
	"sync/atomic"

	"github.com/packetforge/aclc/packet"
)

// ReadFunc fills buf (sized to the worker's read batch) with raw
// frames and returns how many it produced. Mirrors worker_read_func.
type ReadFunc func(buf [][]byte) (n int)

// WriteFunc submits the first n buffers of buf for transmission and
// returns how many were actually sent; buffers past the returned count
// are dropped by the caller. Mirrors worker_write_func.
type WriteFunc func(buf [][]byte, n int) (sent int)

// Worker runs one read -> process -> write -> drop loop against a
// Pipeline, mirroring worker_loop/worker_exec. A zero-value Worker is
// not usable; construct one with NewWorker.
type Worker struct {
	pipeline  *Pipeline
	read      ReadFunc
	write     WriteFunc
	batchSize int
	bufs      *bufferPool
	stop      atomic.Bool
}

// NewWorker builds a Worker that reads and writes in batches of
// batchSize frames, each up to maxFrameLen bytes, driving packets
// through pipeline.
func NewWorker(pipeline *Pipeline, read ReadFunc, write WriteFunc, batchSize, maxFrameLen int) *Worker {
	return &Worker{
		pipeline:  pipeline,
		read:      read,
		write:     write,
		batchSize: batchSize,
		bufs:      newBufferPool(maxFrameLen),
	}
}

// Stop requests the worker's Run loop exit after its current
// iteration. Safe to call from any goroutine.
func (w *Worker) Stop() { w.stop.Store(true) }

// Run executes the read/process/write/drop loop until Stop is called.
// Malformed frames (packet.Parse errors) are dropped without entering
// the pipeline, mirroring worker_read's parse_packet failure path.
func (w *Worker) Run() {
	raw := make([][]byte, w.batchSize)
	for i := range raw {
		raw[i] = w.bufs.Get()
	}
	defer func() {
		for _, b := range raw {
			w.bufs.Put(b)
		}
	}()

	for !w.stop.Load() {
		var front Front
		w.readStage(raw, &front)
		w.pipeline.Process(&front)
		w.writeStage(&front)
		// Drop list packets need no further action: they are not
		// referenced anywhere else once this iteration ends.
	}
}

func (w *Worker) readStage(raw [][]byte, front *Front) {
	n := w.read(raw)
	for i := 0; i < n; i++ {
		p, err := packet.Parse(raw[i])
		if err != nil {
			continue
		}
		front.Output.Add(p)
	}
}

func (w *Worker) writeStage(front *Front) {
	var outBufs [][]byte
	var packets []*packet.Packet
	for p := front.Output.First(); p != nil; p = p.Next {
		outBufs = append(outBufs, p.Raw())
		packets = append(packets, p)
	}
	if len(outBufs) == 0 {
		return
	}

	sent := w.write(outBufs, len(outBufs))
	for i := sent; i < len(packets); i++ {
		front.DropPacket(packets[i])
	}
}
