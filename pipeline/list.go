// Package pipeline runs packets through an ordered, hot-swappable
// chain of modules: read a batch in, push it through each configured
// module's handler in turn, write what survives out, drop the rest.
package pipeline

import "github.com/packetforge/aclc/packet"

// List is an intrusive singly linked packet list with O(1) append via
// a tracked tail, mirroring packet_list/packet_list_add: each packet
// carries its own Next pointer rather than the list owning separate
// node storage.
type List struct {
	first *packet.Packet
	tail  *packet.Packet
}

// Add appends p to the list and clears its Next pointer.
func (l *List) Add(p *packet.Packet) {
	p.Next = nil
	if l.tail != nil {
		l.tail.Next = p
	} else {
		l.first = p
	}
	l.tail = p
}

// First returns the head of the list, or nil if it is empty.
func (l *List) First() *packet.Packet { return l.first }

// Reset empties the list without touching any packet already removed
// from it.
func (l *List) Reset() {
	l.first = nil
	l.tail = nil
}

// Front is the packet batch a module handler reads from and writes
// to: Input holds what the previous stage produced, Output what this
// stage keeps moving forward, Drop what this stage discards.
//
// Grounded on pipeline_front: before each module runs, Switch moves
// the previous Output into Input and clears Output, so one module's
// output becomes the next module's input.
type Front struct {
	Input  List
	Output List
	Drop   List
}

// Switch connects the previous stage's Output to this stage's Input.
func (f *Front) Switch() {
	f.Input = f.Output
	f.Output = List{}
}

// Keep appends p to Output: the packet survives this module.
func (f *Front) Keep(p *packet.Packet) { f.Output.Add(p) }

// DropPacket appends p to Drop: the packet is discarded after this
// pass finishes.
func (f *Front) DropPacket(p *packet.Packet) { f.Drop.Add(p) }
