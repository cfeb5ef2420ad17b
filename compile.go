package acl

import (
	"fmt"
	"math/bits"

	"github.com/packetforge/aclc/internal/lpm64"
	"github.com/packetforge/aclc/internal/netcollect"
	"github.com/packetforge/aclc/internal/registry"
	"github.com/packetforge/aclc/internal/valuetable"
)

// anyPrefix is the implicit "any address" declaration a rule contributes
// to a dimension when it lists no prefixes at all.
var anyPrefix = Prefix6{}

// anyPortRange is the implicit "any port" declaration a rule contributes
// when it lists no port ranges.
var anyPortRange = PortRange{From: 0, To: 65535}

func srcNets(r FilterAction) []Prefix6 {
	if len(r.SrcNets) == 0 {
		return []Prefix6{anyPrefix}
	}
	return r.SrcNets
}

func dstNets(r FilterAction) []Prefix6 {
	if len(r.DstNets) == 0 {
		return []Prefix6{anyPrefix}
	}
	return r.DstNets
}

func srcPorts(r FilterAction) []PortRange {
	if len(r.SrcPorts) == 0 {
		return []PortRange{anyPortRange}
	}
	return r.SrcPorts
}

func dstPorts(r FilterAction) []PortRange {
	if len(r.DstPorts) == 0 {
		return []PortRange{anyPortRange}
	}
	return r.DstPorts
}

func hiPart(p Prefix6) (addr, mask uint64) { return p.Hi, p.MaskHi }
func loPart(p Prefix6) (addr, mask uint64) { return p.Lo, p.MaskLo }

// contiguousFromMSB reports whether mask's set bits form an unbroken
// run starting at bit 63, i.e. it is a valid network-prefix mask.
func contiguousFromMSB(mask uint64) bool {
	n := bits.OnesCount64(mask)
	if n == 0 {
		return mask == 0
	}
	if n == 64 {
		return mask == ^uint64(0)
	}
	return mask == ^uint64(0)<<(64-n)
}

func validateRule(r FilterAction) error {
	for _, n := range r.SrcNets {
		if !contiguousFromMSB(n.MaskHi) || !contiguousFromMSB(n.MaskLo) {
			return fmt.Errorf("%w: src prefix mask not contiguous from MSB", ErrMalformedRule)
		}
	}
	for _, n := range r.DstNets {
		if !contiguousFromMSB(n.MaskHi) || !contiguousFromMSB(n.MaskLo) {
			return fmt.Errorf("%w: dst prefix mask not contiguous from MSB", ErrMalformedRule)
		}
	}
	for _, pr := range r.SrcPorts {
		if pr.From > pr.To {
			return fmt.Errorf("%w: src port range %d-%d has From > To", ErrMalformedRule, pr.From, pr.To)
		}
	}
	for _, pr := range r.DstPorts {
		if pr.From > pr.To {
			return fmt.Errorf("%w: dst port range %d-%d has From > To", ErrMalformedRule, pr.From, pr.To)
		}
	}
	return nil
}

// netGetter extracts the relevant list of prefixes from a rule (src or
// dst) and the relevant 64-bit half (hi or lo) of each prefix.
type netGetter struct {
	nets func(FilterAction) []Prefix6
	part func(Prefix6) (addr, mask uint64)
}

// collectNetworkValues builds one dimension's LPM and per-rule value
// registry: the Network Collector partitions the address half into
// disjoint equivalence classes, then each rule's classes (there may be
// several, if the rule lists several prefixes) are deduped and, after a
// final compaction pass, recorded into a fresh registry range.
//
// This mirrors net6_collect_values/net6_collect_registry in the
// original source, folded into one pass over each rule per phase
// instead of three separate driver loops.
func collectNetworkValues(rules []FilterAction, g netGetter) (*lpm64.Tree, *registry.Registry, error) {
	collector := netcollect.New()
	for _, r := range rules {
		for _, n := range g.nets(r) {
			addr, mask := g.part(n)
			collector.Add(addr, mask)
		}
	}
	tree, classCount := collector.Collect()

	vt := valuetable.New(1, classCount)
	for _, r := range rules {
		vt.NewGeneration()
		for _, n := range g.nets(r) {
			addr, mask := g.part(n)
			tree.Walk(addr, addr|^mask, func(_ uint64, v uint32) {
				vt.Touch(0, v)
			})
		}
	}
	vt.Compact()
	tree.Compact(vt)

	reg := &registry.Registry{}
	for _, r := range rules {
		reg.Start()
		for _, n := range g.nets(r) {
			addr, mask := g.part(n)
			tree.Walk(addr, addr|^mask, func(_ uint64, v uint32) {
				reg.Collect(v)
			})
		}
	}

	return tree, reg, nil
}

// portGetter extracts the relevant list of port ranges from a rule (src
// or dst).
type portGetter func(FilterAction) []PortRange

// collectPortValues builds a dimension's 65536-entry port class table
// and per-rule registry, mirroring collect_port_values.
func collectPortValues(rules []FilterAction, ports portGetter) (*valuetable.Table, *registry.Registry) {
	vt := valuetable.New(1, 65536)
	for _, r := range rules {
		vt.NewGeneration()
		for _, pr := range ports(r) {
			if pr.To-pr.From == 65535 {
				// The whole port space: every port already
				// shares the untouched background class.
				continue
			}
			for port := uint32(pr.From); port <= uint32(pr.To); port++ {
				vt.Touch(0, port)
			}
		}
	}
	vt.Compact()

	reg := &registry.Registry{}
	for _, r := range rules {
		reg.Start()
		for _, pr := range ports(r) {
			for port := uint32(pr.From); port <= uint32(pr.To); port++ {
				reg.Collect(vt.Get(0, port))
			}
		}
	}

	return vt, reg
}

// mergeAndCollectRegistry builds the cross-product value table of two
// per-dimension registries and a derived registry recording, for each
// rule, the compacted combined class of every (v1, v2) pair the rule
// contributed. Mirrors merge_and_collect_registry.
func mergeAndCollectRegistry(r1, r2 *registry.Registry) (*valuetable.Table, *registry.Registry) {
	vt := valuetable.New(r1.Capacity(), r2.Capacity())
	for idx := 0; idx < r1.RangeCount(); idx++ {
		vt.NewGeneration()
		registry.JoinRange(r1, r2, idx, func(v1, v2 uint32, _ int) {
			vt.Touch(v1, v2)
		})
	}
	vt.Compact()

	reg := &registry.Registry{}
	for idx := 0; idx < r1.RangeCount(); idx++ {
		reg.Start()
		registry.JoinRange(r1, r2, idx, func(v1, v2 uint32, _ int) {
			reg.Collect(vt.Get(v1, v2))
		})
	}

	return vt, reg
}

// setRegistryValues is the priority-preserving combine step
// (set_registry_values): it builds the cross-product table like
// mergeAndCollectRegistry, but a cell already claimed by an earlier
// rule (a "terminal" class: its registry range already holds one
// value) is left untouched instead of being folded further, so the
// first matching rule wins. The returned registry's range at class id
// c holds either nothing (no rule ever reached that class: the
// fallthrough case) or exactly one value: the index, into rules, of
// the rule that claimed it.
func setRegistryValues(r1, r2 *registry.Registry) (*valuetable.Table, *registry.Registry) {
	vt := valuetable.New(r1.Capacity(), r2.Capacity())
	reg := &registry.Registry{}
	reg.Start() // range 0: the empty, non-terminal "no rule yet" class

	for idx := 0; idx < r1.RangeCount(); idx++ {
		vt.NewGeneration()
		ruleIdx := uint32(idx)
		registry.JoinRange(r1, r2, idx, func(v1, v2 uint32, _ int) {
			prevClass := vt.Get(v1, v2)
			if len(reg.Range(int(prevClass))) > 0 {
				// Already claimed by an earlier rule.
				return
			}
			if _, created := vt.Touch(v1, v2); !created {
				return
			}
			reg.Start()
			for _, v := range reg.Range(int(prevClass)) {
				reg.Collect(v)
			}
			reg.Collect(ruleIdx)
		})
	}

	return vt, reg
}

// checkClassOverflow reports a dimension whose class count does not fit
// in a uint32: a registry's capacity is its max value + 1, which wraps
// to zero only when the max value is the largest uint32 (an empty
// registry still has capacity 1).
func checkClassOverflow(capacity uint32) error {
	if capacity == 0 {
		return fmt.Errorf("%w: dimension class count overflows uint32", ErrClassOverflow)
	}
	return nil
}

// Compile builds a Filter from an ordered rule set: rules[i] takes
// priority over rules[j] for any i < j whose match domains overlap.
// defaultAction is reported by Classify for packets no rule matches.
func Compile(rules []FilterAction, defaultAction uint32) (*Filter, error) {
	for i, r := range rules {
		if err := validateRule(r); err != nil {
			return nil, fmt.Errorf("rule %d: %w", i, err)
		}
	}

	srcHiLPM, srcHiReg, err := collectNetworkValues(rules, netGetter{srcNets, hiPart})
	if err != nil {
		return nil, err
	}
	srcLoLPM, srcLoReg, err := collectNetworkValues(rules, netGetter{srcNets, loPart})
	if err != nil {
		return nil, err
	}
	dstHiLPM, dstHiReg, err := collectNetworkValues(rules, netGetter{dstNets, hiPart})
	if err != nil {
		return nil, err
	}
	dstLoLPM, dstLoReg, err := collectNetworkValues(rules, netGetter{dstNets, loPart})
	if err != nil {
		return nil, err
	}

	srcPortTab, srcPortReg := collectPortValues(rules, srcPorts)
	dstPortTab, dstPortReg := collectPortValues(rules, dstPorts)

	vtab1, reg1 := mergeAndCollectRegistry(srcHiReg, dstHiReg) // src-hi x dst-hi
	vtab2, reg2 := mergeAndCollectRegistry(srcLoReg, dstLoReg) // src-lo x dst-lo
	vtab3, reg3 := mergeAndCollectRegistry(srcPortReg, dstPortReg)
	vtab12, reg12 := mergeAndCollectRegistry(reg1, reg2) // whole address class
	vtab123, reg123 := setRegistryValues(reg12, reg3)    // priority-preserving final combine

	for _, capacity := range []uint32{
		reg1.Capacity(), reg2.Capacity(), reg3.Capacity(),
		reg12.Capacity(), reg123.Capacity(),
	} {
		if err := checkClassOverflow(capacity); err != nil {
			return nil, err
		}
	}

	// vtab123's cells are still dense class ids indexing reg123, one
	// step short of the spec's "result of L4 is the final action id".
	// Rewrite them in place through reg123: a class with an empty range
	// never matched any rule and reports defaultAction; a class with a
	// range holds exactly one value, the winning rule's index.
	classAction := make([]uint32, reg123.RangeCount())
	for class := range classAction {
		winners := reg123.Range(class)
		if len(winners) == 0 {
			classAction[class] = defaultAction
		} else {
			classAction[class] = rules[winners[0]].Action
		}
	}
	cells := vtab123.Values()
	for i, c := range cells {
		cells[i] = classAction[c]
	}

	f := &Filter{
		srcNetHi: srcHiLPM,
		srcNetLo: srcLoLPM,
		dstNetHi: dstHiLPM,
		dstNetLo: dstLoLPM,
		srcPort:  append([]uint32(nil), srcPortTab.Values()...),
		dstPort:  append([]uint32(nil), dstPortTab.Values()...),
		classifiers: [classifyCount]classifier{
			classifySrcNetHi,
			classifySrcNetLo,
			classifyDstNetHi,
			classifyDstNetLo,
			classifySrcPort,
			classifyDstPort,
		},
		lookups: [lookupCount]FilterLookup{
			{FirstArg: 0, SecondArg: 2, TableIdx: 0}, // src-hi x dst-hi
			{FirstArg: 1, SecondArg: 3, TableIdx: 1}, // src-lo x dst-lo
			{FirstArg: 4, SecondArg: 5, TableIdx: 2}, // src-port x dst-port
			{FirstArg: 6, SecondArg: 7, TableIdx: 3}, // (hi-combine) x (lo-combine)
			{FirstArg: 9, SecondArg: 8, TableIdx: 4}, // (net-combine) x (port-combine)
		},
		tables: [lookupCount]*FilterTable{
			newFilterTable(vtab1),
			newFilterTable(vtab2),
			newFilterTable(vtab3),
			newFilterTable(vtab12),
			newFilterTable(vtab123),
		},
		defaultAction: defaultAction,
	}
	return f, nil
}
