package main

import (
	"encoding/binary"
	"fmt"
	"net/netip"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/packetforge/aclc/metrics"
	"github.com/packetforge/aclc/packet"
)

var classifyCmd = &cobra.Command{
	Use:   "classify",
	Args:  cobra.NoArgs,
	Short: "Compile a rule file and classify one synthetic 5-tuple against it",
	RunE:  runClassify,
}

var (
	classifyRulesPath     string
	classifyDefaultAction uint32
	classifySrc           string
	classifyDst           string
	classifySrcPort       uint16
	classifyDstPort       uint16
	classifyProto         string
)

func init() {
	classifyCmd.Flags().StringVar(&classifyRulesPath, "rules", "", "path to a rule file (required)")
	classifyCmd.Flags().Uint32Var(&classifyDefaultAction, "default-action", 0, "action id reported for unmatched packets")
	classifyCmd.Flags().StringVar(&classifySrc, "src", "::1", "source IPv6 address")
	classifyCmd.Flags().StringVar(&classifyDst, "dst", "::1", "destination IPv6 address")
	classifyCmd.Flags().Uint16Var(&classifySrcPort, "src-port", 0, "source port")
	classifyCmd.Flags().Uint16Var(&classifyDstPort, "dst-port", 0, "destination port")
	classifyCmd.Flags().StringVar(&classifyProto, "proto", "tcp", "tcp or udp")
	_ = classifyCmd.MarkFlagRequired("rules")
}

func runClassify(cmd *cobra.Command, args []string) error {
	collectors := metrics.NewCollectors(prometheus.NewRegistry())

	filter, actions, err := loadAndCompile(classifyRulesPath, classifyDefaultAction, collectors)
	if err != nil {
		logger.Error().Err(err).Msg("compile failed")
		return err
	}

	src, err := netip.ParseAddr(classifySrc)
	if err != nil {
		return fmt.Errorf("--src: %w", err)
	}
	dst, err := netip.ParseAddr(classifyDst)
	if err != nil {
		return fmt.Errorf("--dst: %w", err)
	}

	frame, err := buildFrame(src, dst, classifySrcPort, classifyDstPort, classifyProto)
	if err != nil {
		return err
	}
	p, err := packet.Parse(frame)
	if err != nil {
		return fmt.Errorf("parsing synthetic packet: %w", err)
	}

	action := filter.Classify(p)
	name := actionName(action, actions)
	fmt.Printf("action: %d%s\n", action, name)
	return nil
}

func actionName(action uint32, actions map[string]uint32) string {
	for name, v := range actions {
		if v == action {
			return fmt.Sprintf(" (%s)", name)
		}
	}
	return ""
}

// buildFrame constructs a minimal Ethernet+IPv6+TCP/UDP frame carrying
// src/dst/ports, just enough for packet.Parse to classify against.
func buildFrame(src, dst netip.Addr, srcPort, dstPort uint16, proto string) ([]byte, error) {
	if !src.Is6() || !dst.Is6() {
		return nil, fmt.Errorf("addresses must be IPv6")
	}

	const ethLen, ip6Len, transportLen = 14, 40, 20
	buf := make([]byte, ethLen+ip6Len+transportLen)
	buf[12], buf[13] = 0x86, 0xDD // EtherType IPv6

	ip6 := buf[ethLen:]
	ip6[0] = 0x60
	payloadLen := transportLen
	binary.BigEndian.PutUint16(ip6[4:6], uint16(payloadLen))
	switch proto {
	case "tcp":
		ip6[6] = 6
	case "udp":
		ip6[6] = 17
	default:
		return nil, fmt.Errorf("--proto must be tcp or udp, got %q", proto)
	}
	ip6[7] = 64
	srcBytes := src.As16()
	dstBytes := dst.As16()
	copy(ip6[8:24], srcBytes[:])
	copy(ip6[24:40], dstBytes[:])

	transport := ip6[ip6Len:]
	binary.BigEndian.PutUint16(transport[0:2], srcPort)
	binary.BigEndian.PutUint16(transport[2:4], dstPort)

	return buf, nil
}
