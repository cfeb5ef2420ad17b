// Package acl compiles IPv6 5-tuple packet-filter rules into a cascade
// of rectangular lookup tables and classifies packets against the
// result in a fixed number of constant-time table lookups.
//
// A rule set is an ordered list of FilterAction values: source and
// destination IPv6 prefixes, source and destination L4 port ranges, and
// an action id. Earlier rules take priority over later ones wherever
// their match domains overlap. Compile turns such a rule set into a
// *Filter: six classifier functions (one per dimension) plus five
// 2D combining tables that fold the six classifier outputs down to a
// single action id in five table lookups, branch-free once built.
//
// Compilation is the hard part: it has to fuse prefix-containment
// semantics (longest-prefix-match over nested, possibly overlapping
// IPv6 networks) with port-range semantics into dense, gap-free
// equivalence classes before the combining tables can be built
// rectangular. That machinery lives in the internal packages -
// internal/netcollect builds the per-dimension address classes,
// internal/registry and internal/valuetable carry them through the
// pairwise merges, internal/lpm64 and internal/radix64 back the tries.
//
// Compile runs offline on the control plane and may allocate freely;
// the resulting Filter is immutable and safe for concurrent use by
// many pipeline workers calling Classify.
package acl
