package pipeline

import (
	"net"
	"testing"

	acl "github.com/packetforge/aclc"
	"github.com/packetforge/aclc/packet"
)

// buildPacket constructs a minimal Ethernet+IPv6+TCP frame carrying src
// and dst, suitable for packet.Parse.
func buildPacket(t *testing.T, src, dst string) *packet.Packet {
	t.Helper()

	buf := make([]byte, 14+40+20)
	buf[12], buf[13] = 0x86, 0xDD

	ip6 := buf[14:]
	ip6[0] = 0x60
	ip6[4], ip6[5] = 0, 20
	ip6[6] = 6
	ip6[7] = 64
	copy(ip6[8:24], net.ParseIP(src).To16())
	copy(ip6[24:40], net.ParseIP(dst).To16())

	p, err := packet.Parse(buf)
	if err != nil {
		t.Fatalf("packet.Parse: %v", err)
	}
	return p
}

func mustFilter(t *testing.T, allowDst string) *acl.Filter {
	t.Helper()

	addr := net.ParseIP(allowDst).To16()
	var hi, lo uint64
	for i := 0; i < 8; i++ {
		hi = hi<<8 | uint64(addr[i])
	}
	for i := 8; i < 16; i++ {
		lo = lo<<8 | uint64(addr[i])
	}

	rules := []acl.FilterAction{
		{
			DstNets: []acl.Prefix6{{Hi: hi, Lo: lo, MaskHi: ^uint64(0), MaskLo: ^uint64(0)}},
			Action:  1,
		},
	}
	filter, err := acl.Compile(rules, 0)
	if err != nil {
		t.Fatalf("acl.Compile: %v", err)
	}
	return filter
}

func TestACLModuleKeepsAllowedAndDropsTheRest(t *testing.T) {
	t.Parallel()

	filter := mustFilter(t, "2001:db8::1")
	registry := NewRegistry()
	registry.Register(NewACLModule())

	var p Pipeline
	err := p.Configure(registry, []StageConfig{
		{
			ModuleName: ACLModuleName,
			ConfigName: "main",
			Data:       ACLConfigData{Filter: filter, DropAction: 0},
		},
	})
	if err != nil {
		t.Fatalf("Configure: %v", err)
	}

	allowed := buildPacket(t, "2001:db8::9", "2001:db8::1")
	blocked := buildPacket(t, "2001:db8::9", "2001:db8::2")

	var front Front
	front.Output.Add(allowed)
	front.Output.Add(blocked)
	p.Process(&front)

	var kept []*packet.Packet
	for p := front.Output.First(); p != nil; p = p.Next {
		kept = append(kept, p)
	}
	if len(kept) != 1 || kept[0] != allowed {
		t.Fatalf("expected only the matching packet to survive, got %v", kept)
	}
	if front.Drop.First() != blocked {
		t.Fatalf("expected the non-matching packet to be dropped")
	}
}

func TestACLModuleConfigRejectsWrongDataType(t *testing.T) {
	t.Parallel()

	registry := NewRegistry()
	registry.Register(NewACLModule())

	var p Pipeline
	err := p.Configure(registry, []StageConfig{
		{ModuleName: ACLModuleName, ConfigName: "main", Data: "not-a-config"},
	})
	if err == nil {
		t.Fatalf("expected an error for mistyped config data")
	}
}
