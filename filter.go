package acl

import (
	"github.com/packetforge/aclc/internal/lpm64"
	"github.com/packetforge/aclc/internal/valuetable"
	"github.com/packetforge/aclc/packet"
)

// classifyCount is the number of classifier functions a Filter runs over
// a packet before any lookup: src/dst network high/low halves, src/dst
// port.
const classifyCount = 6

// lookupCount is the number of combining-table lookups a Filter runs
// after classification: the src and dst network halves fold pairwise
// (hi with hi, lo with lo), those two results fold into one address
// class, ports fold in one stage, and a final stage combines the
// address and port results into the action class.
const lookupCount = 5

// classifier maps a packet to one of the six per-dimension equivalence
// classes a Filter's classify stage produces. Every classifier must
// return a value inside [0, dimension capacity) with no gaps, matching
// the Value Table cascade built by Compile for that dimension.
type classifier func(f *Filter, p *packet.Packet) uint32

// classifySrcNetHi looks up the high 64 bits of the packet's source
// address in the compiled source-network-high LPM. IPv4 packets carry
// no IPv6 address and always classify to 0, the background "any"
// class every dimension reserves.
func classifySrcNetHi(f *Filter, p *packet.Packet) uint32 {
	if p.IsIPv4() {
		return 0
	}
	return f.srcNetHi.Lookup(p.SrcAddrHi())
}

// classifySrcNetLo looks up the low 64 bits of the packet's source
// address.
func classifySrcNetLo(f *Filter, p *packet.Packet) uint32 {
	if p.IsIPv4() {
		return 0
	}
	return f.srcNetLo.Lookup(p.SrcAddrLo())
}

// classifyDstNetHi looks up the high 64 bits of the packet's
// destination address.
func classifyDstNetHi(f *Filter, p *packet.Packet) uint32 {
	if p.IsIPv4() {
		return 0
	}
	return f.dstNetHi.Lookup(p.DstAddrHi())
}

// classifyDstNetLo looks up the low 64 bits of the packet's
// destination address.
func classifyDstNetLo(f *Filter, p *packet.Packet) uint32 {
	if p.IsIPv4() {
		return 0
	}
	return f.dstNetLo.Lookup(p.DstAddrLo())
}

// classifySrcPort indexes the source-port class table directly by the
// packet's TCP/UDP source port. Packets of any other transport protocol
// classify to 0, the background "any port" class.
func classifySrcPort(f *Filter, p *packet.Packet) uint32 {
	if !hasPorts(p) {
		return 0
	}
	return f.srcPort[p.SrcPort()]
}

// classifyDstPort indexes the destination-port class table.
func classifyDstPort(f *Filter, p *packet.Packet) uint32 {
	if !hasPorts(p) {
		return 0
	}
	return f.dstPort[p.DstPort()]
}

func hasPorts(p *packet.Packet) bool {
	return p.Transport.Proto == packet.ProtoTCP || p.Transport.Proto == packet.ProtoUDP
}

// FilterLookup names the two classify-stage (or earlier lookup-stage)
// argument slots a combining-table lookup reads, and which table to
// read them from. See Filter.Classify for the argument vector layout.
type FilterLookup struct {
	FirstArg  uint8
	SecondArg uint8
	TableIdx  uint16
}

// FilterTable is a compiled rectangular combining table: first×second
// equivalence classes mapped to a third. Built from a
// internal/valuetable.Table's compacted cell slice, kept in that
// table's v-major layout (index = second*firstDim + first) rather than
// the original source's first*first_dim+second, which put the wrong
// dimension's stride in the multiply - see DESIGN.md.
type FilterTable struct {
	firstDim uint32
	values   []uint32
}

func newFilterTable(vt *valuetable.Table) *FilterTable {
	return &FilterTable{
		firstDim: vt.HDim(),
		values:   append([]uint32(nil), vt.Values()...),
	}
}

func (t *FilterTable) lookup(first, second uint32) uint32 {
	return t.values[second*t.firstDim+first]
}

// Filter is a compiled ACL: a fixed cascade of classifiers and
// combining-table lookups that reduces a packet to a single action id
// in constant time, regardless of the rule count Compile started from.
// A *Filter is immutable after Compile returns and safe for concurrent
// use by any number of goroutines.
type Filter struct {
	srcNetHi, srcNetLo *lpm64.Tree
	dstNetHi, dstNetLo *lpm64.Tree
	srcPort, dstPort   []uint32

	classifiers [classifyCount]classifier
	lookups     [lookupCount]FilterLookup
	tables      [lookupCount]*FilterTable

	defaultAction uint32
}

// TableSizes returns the cell count of each of the five compiled
// combining tables, in construction order (src x dst high halves,
// src x dst low halves, ports, net-combine, final). Useful for reporting a compiled filter's
// memory footprint without exposing the tables themselves.
func (f *Filter) TableSizes() [lookupCount]int {
	var sizes [lookupCount]int
	for i, t := range f.tables {
		sizes[i] = len(t.values)
	}
	return sizes
}

// DefaultAction returns the action Classify reports for packets no
// rule matches.
func (f *Filter) DefaultAction() uint32 { return f.defaultAction }

// Classify runs the packet through the compiled classifier/lookup
// cascade and returns the action id of the first, highest-priority rule
// whose match domain contains it, or the Filter's default action if no
// rule matches.
//
// The argument vector mirrors filter_process: slots
// [0, classifyCount) hold the raw classifier outputs (src-net-hi,
// src-net-lo, dst-net-hi, dst-net-lo, src-port, dst-port, in that
// order); slots [classifyCount, classifyCount+lookupCount) hold each
// lookup's result as it runs, so a later lookup can combine two earlier
// lookups' outputs as well as two classifier outputs.
func (f *Filter) Classify(p *packet.Packet) uint32 {
	var args [classifyCount + lookupCount]uint32

	for i, c := range f.classifiers {
		args[i] = c(f, p)
	}
	for i, l := range f.lookups {
		args[classifyCount+i] = f.tables[l.TableIdx].lookup(args[l.FirstArg], args[l.SecondArg])
	}

	result := args[classifyCount+lookupCount-1]
	if result == invalidAction {
		return f.defaultAction
	}
	return result
}

// invalidAction mirrors FILTER_INVALID; Compile's final rewrite pass
// never actually leaves this value in a table (every class, including
// the empty background one, is rewritten to a real action id), but
// Classify checks for it defensively in case a future compiled table
// is constructed some other way.
const invalidAction = ^uint32(0)
