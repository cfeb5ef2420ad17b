// Package rulefile loads an ordered ACL rule set from a YAML document
// into the types acl.Compile expects. It is offline, control-plane-only
// tooling: nothing here runs on the packet hot path.
package rulefile

import (
	"fmt"
	"net/netip"
	"os"

	"github.com/gaissmai/extnetip"
	"github.com/rs/zerolog/log"
	"gopkg.in/yaml.v3"

	acl "github.com/packetforge/aclc"
)

// document is the top-level YAML shape: a symbolic action-name table
// plus the ordered rule list.
type document struct {
	Actions map[string]uint32 `yaml:"actions"`
	Rules   []ruleEntry       `yaml:"rules"`
}

type ruleEntry struct {
	Src      []string    `yaml:"src"`
	Dst      []string    `yaml:"dst"`
	SrcPorts []portEntry `yaml:"src_ports"`
	DstPorts []portEntry `yaml:"dst_ports"`
	Action   actionRef   `yaml:"action"`
}

// portEntry decodes either a bare port ("443") or a {from, to} range.
type portEntry struct {
	from, to uint16
}

func (p *portEntry) UnmarshalYAML(value *yaml.Node) error {
	var bare int
	if err := value.Decode(&bare); err == nil {
		if bare < 0 || bare > 0xFFFF {
			return fmt.Errorf("port %d out of range", bare)
		}
		p.from, p.to = uint16(bare), uint16(bare)
		return nil
	}

	var rng struct {
		From int `yaml:"from"`
		To   int `yaml:"to"`
	}
	if err := value.Decode(&rng); err != nil {
		return fmt.Errorf("invalid port entry: %w", err)
	}
	if rng.From < 0 || rng.From > 0xFFFF || rng.To < 0 || rng.To > 0xFFFF {
		return fmt.Errorf("port range %d-%d out of range", rng.From, rng.To)
	}
	p.from, p.to = uint16(rng.From), uint16(rng.To)
	return nil
}

// actionRef decodes either a raw action id or a symbolic name resolved
// against the document's top-level actions map.
type actionRef struct {
	name     string
	value    uint32
	hasValue bool
}

func (a *actionRef) UnmarshalYAML(value *yaml.Node) error {
	var n int
	if err := value.Decode(&n); err == nil {
		if n < 0 {
			return fmt.Errorf("action id %d must not be negative", n)
		}
		a.value, a.hasValue = uint32(n), true
		return nil
	}

	var s string
	if err := value.Decode(&s); err != nil {
		return fmt.Errorf("invalid action reference: %w", err)
	}
	a.name = s
	return nil
}

func (a actionRef) resolve(actions map[string]uint32) (uint32, error) {
	if a.hasValue {
		return a.value, nil
	}
	v, ok := actions[a.name]
	if !ok {
		return 0, fmt.Errorf("unknown action name %q", a.name)
	}
	return v, nil
}

// Load reads and parses path into an ordered rule set (priority is
// file order, matching the compiler's own convention) and the
// document's symbolic action-name table, for CLI pretty-printing of
// classification results.
func Load(path string) ([]acl.FilterAction, map[string]uint32, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, fmt.Errorf("rulefile: reading %s: %w", path, err)
	}

	var doc document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, nil, fmt.Errorf("rulefile: parsing %s: %w", path, err)
	}

	actions := doc.Actions
	if actions == nil {
		actions = map[string]uint32{}
	}

	rules := make([]acl.FilterAction, 0, len(doc.Rules))
	for i, re := range doc.Rules {
		action, err := re.Action.resolve(actions)
		if err != nil {
			return nil, nil, fmt.Errorf("rulefile: rule %d: %w", i, err)
		}

		srcNets, err := parsePrefixes(re.Src)
		if err != nil {
			return nil, nil, fmt.Errorf("rulefile: rule %d: src: %w", i, err)
		}
		dstNets, err := parsePrefixes(re.Dst)
		if err != nil {
			return nil, nil, fmt.Errorf("rulefile: rule %d: dst: %w", i, err)
		}

		rules = append(rules, acl.FilterAction{
			SrcNets:  srcNets,
			DstNets:  dstNets,
			SrcPorts: toPortRanges(re.SrcPorts),
			DstPorts: toPortRanges(re.DstPorts),
			Action:   action,
		})
	}

	log.Debug().
		Str("path", path).
		Int("rule_count", len(rules)).
		Int("action_count", len(actions)).
		Msg("rulefile: loaded rule set")

	return rules, actions, nil
}

func toPortRanges(entries []portEntry) []acl.PortRange {
	if len(entries) == 0 {
		return nil
	}
	out := make([]acl.PortRange, len(entries))
	for i, e := range entries {
		out[i] = acl.PortRange{From: e.from, To: e.to}
	}
	return out
}

func parsePrefixes(cidrs []string) ([]acl.Prefix6, error) {
	if len(cidrs) == 0 {
		return nil, nil
	}
	out := make([]acl.Prefix6, 0, len(cidrs))
	for _, s := range cidrs {
		p, err := netip.ParsePrefix(s)
		if err != nil {
			return nil, fmt.Errorf("invalid CIDR %q: %w", s, err)
		}
		if !p.Addr().Is6() || p.Addr().Is4In6() {
			return nil, fmt.Errorf("%q is not an IPv6 prefix", s)
		}
		out = append(out, prefixToRule(p))
	}
	return out, nil
}

func prefixToRule(p netip.Prefix) acl.Prefix6 {
	addr := p.Addr().As16()
	var hi, lo uint64
	for i := 0; i < 8; i++ {
		hi = hi<<8 | uint64(addr[i])
	}
	for i := 8; i < 16; i++ {
		lo = lo<<8 | uint64(addr[i])
	}
	maskHi, maskLo := prefixMasks(p.Bits())
	return acl.Prefix6{Hi: hi & maskHi, Lo: lo & maskLo, MaskHi: maskHi, MaskLo: maskLo}
}

func prefixMasks(bits int) (hi, lo uint64) {
	if bits >= 64 {
		hi = ^uint64(0)
		rem := bits - 64
		switch {
		case rem >= 64:
			lo = ^uint64(0)
		case rem > 0:
			lo = ^uint64(0) << (64 - rem)
		}
		return hi, lo
	}
	if bits > 0 {
		hi = ^uint64(0) << (64 - bits)
	}
	return hi, 0
}

// CoveredRange returns the first and last address a CIDR string
// covers, for diagnostics (e.g. reporting an empty or suspiciously
// wide rule at load time). Uses extnetip.Range rather than hand-rolling
// the last-address computation covered everywhere else in this package
// by prefixMasks, since this is a one-off diagnostic path rather than
// something feeding the compiler.
func CoveredRange(cidr string) (first, last netip.Addr, err error) {
	p, err := netip.ParsePrefix(cidr)
	if err != nil {
		return netip.Addr{}, netip.Addr{}, fmt.Errorf("invalid CIDR %q: %w", cidr, err)
	}
	first, last = extnetip.Range(p)
	return first, last, nil
}
