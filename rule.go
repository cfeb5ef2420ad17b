package acl

// Prefix6 is one IPv6 network declaration, split into its high and low
// 64-bit halves, each with its own mask. A rule may carry any number of
// these per direction; a packet matches the direction if it falls
// inside at least one of them.
//
// Masks must be contiguous from the most significant bit of their half
// (network-prefix masks, never arbitrary bitmasks); Compile rejects a
// rule that violates this with ErrMalformedRule.
type Prefix6 struct {
	Hi, Lo         uint64
	MaskHi, MaskLo uint64
}

// PortRange is an inclusive [From, To] range of L4 ports. From must not
// exceed To.
type PortRange struct {
	From, To uint16
}

// FilterAction is one ACL rule: address and port match criteria plus
// the action id to report when the rule is the first, in rule-set
// order, to match a packet. An empty SrcNets/DstNets/SrcPorts/DstPorts
// list matches everything along that dimension ("any").
type FilterAction struct {
	SrcNets  []Prefix6
	DstNets  []Prefix6
	SrcPorts []PortRange
	DstPorts []PortRange
	Action   uint32
}
