// Package packet parses the header chain of a raw Ethernet frame far
// enough to hand the ACL compiler's classifiers what they need: the
// network-layer ethertype and offset, the transport-layer protocol and
// offset, and (for IPv6) direct access to the source/destination
// addresses.
//
// Parsing stops as soon as it reaches the first upper-layer protocol; it
// never looks past the transport header's first four bytes. Any short
// read, unsupported ethertype, or malformed length field is rejected so
// the caller can drop the packet rather than classify it against
// garbage offsets.
package packet

import (
	"encoding/binary"
	"errors"
)

// Ethertypes this parser understands, network byte order values kept as
// plain uint16 (the wire already is big-endian; no host/network swap is
// needed since every field is read with binary.BigEndian).
const (
	EtherTypeIPv4 uint16 = 0x0800
	EtherTypeIPv6 uint16 = 0x86DD
	EtherTypeVLAN uint16 = 0x8100
)

// IP protocol numbers relevant to header-chain walking and transport
// port extraction.
const (
	ProtoHopByHop uint8 = 0
	ProtoTCP      uint8 = 6
	ProtoUDP      uint8 = 17
	ProtoRouting  uint8 = 43
	ProtoFragment uint8 = 44
	ProtoAH       uint8 = 51
	ProtoDstOpts  uint8 = 60
)

const (
	ethernetHeaderLen = 14
	vlanHeaderLen     = 4
	ipv4MinHeaderLen  = 20
	ipv6HeaderLen     = 40
	ipv6ExtMinLen     = 8
)

var (
	// ErrTruncated is returned when the buffer is shorter than a header
	// it must contain.
	ErrTruncated = errors.New("packet: truncated header")
	// ErrUnsupportedEtherType is returned for any ethertype other than
	// IPv4 or IPv6 (after an optional VLAN tag).
	ErrUnsupportedEtherType = errors.New("packet: unsupported ethertype")
	// ErrMalformedIPv4 covers an IHL below 5 words or a total length
	// smaller than the header itself. A buffer shorter than the total
	// length is reported as ErrTruncated.
	ErrMalformedIPv4 = errors.New("packet: malformed ipv4 header")
	// ErrMalformedIPv6 covers a payload length that disagrees with the
	// buffer, or an extension header chain that runs past it.
	ErrMalformedIPv6 = errors.New("packet: malformed ipv6 header")
)

// NetworkHeader locates the start of the network-layer header.
type NetworkHeader struct {
	Type   uint16
	Offset uint16
}

// TransportHeader locates the start of the transport-layer header, after
// walking any IPv6 extension headers.
type TransportHeader struct {
	Proto  uint8
	Offset uint16
}

// Packet is a parsed view over a byte slice it does not own or copy:
// callers must keep the underlying buffer alive and unmodified for the
// Packet's lifetime.
//
// Next links Packet into an intrusive singly linked list (see
// pipeline.List) the way the pipeline passes batches between modules;
// it is zero value (nil) for a Packet not currently queued anywhere.
type Packet struct {
	data      []byte
	VLAN      uint16 // 0 when the frame carries no 802.1Q tag
	HasVLAN   bool
	Network   NetworkHeader
	Transport TransportHeader
	Next      *Packet
}

// Parse walks data's Ethernet/VLAN/IP/transport header chain and returns
// a Packet describing it. The returned Packet aliases data.
func Parse(data []byte) (*Packet, error) {
	p := &Packet{data: data}

	if len(data) < ethernetHeaderLen {
		return nil, ErrTruncated
	}
	etherType := binary.BigEndian.Uint16(data[12:14])
	offset := uint16(ethernetHeaderLen)

	if etherType == EtherTypeVLAN {
		if len(data) < int(offset)+vlanHeaderLen {
			return nil, ErrTruncated
		}
		p.HasVLAN = true
		p.VLAN = binary.BigEndian.Uint16(data[offset : offset+2])
		etherType = binary.BigEndian.Uint16(data[offset+2 : offset+4])
		offset += vlanHeaderLen
	}

	p.Network = NetworkHeader{Type: etherType, Offset: offset}

	var proto uint8
	var err error
	switch etherType {
	case EtherTypeIPv4:
		offset, proto, err = parseIPv4(data, offset)
	case EtherTypeIPv6:
		offset, proto, err = parseIPv6(data, offset)
	default:
		return nil, ErrUnsupportedEtherType
	}
	if err != nil {
		return nil, err
	}

	p.Transport = TransportHeader{Proto: proto, Offset: offset}
	return p, nil
}

func parseIPv4(data []byte, offset uint16) (newOffset uint16, proto uint8, err error) {
	if len(data) < int(offset)+ipv4MinHeaderLen {
		return 0, 0, ErrTruncated
	}
	hdr := data[offset:]

	ihl := hdr[0] & 0x0F
	if ihl < 5 {
		return 0, 0, ErrMalformedIPv4
	}
	headerLen := uint16(ihl) * 4

	totalLen := binary.BigEndian.Uint16(hdr[2:4])
	if totalLen < headerLen {
		return 0, 0, ErrMalformedIPv4
	}
	if len(data) < int(offset)+int(totalLen) {
		return 0, 0, ErrTruncated
	}

	return offset + headerLen, hdr[9], nil
}

func parseIPv6(data []byte, offset uint16) (newOffset uint16, proto uint8, err error) {
	if len(data) < int(offset)+ipv6HeaderLen {
		return 0, 0, ErrTruncated
	}
	hdr := data[offset:]

	payloadLen := binary.BigEndian.Uint16(hdr[4:6])
	maxOffset := offset + ipv6HeaderLen + payloadLen
	if len(data) < int(maxOffset) {
		return 0, 0, ErrMalformedIPv6
	}

	extType := hdr[6]
	cur := offset + ipv6HeaderLen

walk:
	for cur < maxOffset {
		switch extType {
		case ProtoHopByHop, ProtoRouting, ProtoDstOpts:
			if maxOffset < cur+ipv6ExtMinLen {
				return 0, 0, ErrMalformedIPv6
			}
			ext := data[cur:]
			extType = ext[0]
			cur += (1 + uint16(ext[1])) * 8
		case ProtoAH:
			if maxOffset < cur+ipv6ExtMinLen {
				return 0, 0, ErrMalformedIPv6
			}
			ext := data[cur:]
			extType = ext[0]
			cur += (2 + uint16(ext[1])) * 4
		case ProtoFragment:
			if maxOffset < cur+ipv6ExtMinLen {
				return 0, 0, ErrMalformedIPv6
			}
			ext := data[cur:]
			extType = ext[0]
			cur += 8
		default:
			// extType is not an extension header we walk: it's the
			// transport protocol, and cur already points at its start.
			break walk
		}
	}

	if cur > maxOffset {
		return 0, 0, ErrMalformedIPv6
	}
	return cur, extType, nil
}

// Raw returns the full underlying frame the Packet was parsed from.
// Callers must not retain it past the Packet's own lifetime.
func (p *Packet) Raw() []byte { return p.data }

// IsIPv4 reports whether the packet's network layer is IPv4. IPv4
// traffic has no associated network-prefix classifier support (see
// DESIGN.md); callers route it to the background class instead.
func (p *Packet) IsIPv4() bool {
	return p.Network.Type == EtherTypeIPv4
}

func (p *Packet) ipv6Addr(byteOffset uint16) uint64 {
	base := p.Network.Offset + byteOffset
	return binary.BigEndian.Uint64(p.data[base : base+8])
}

// SrcAddrHi and SrcAddrLo return the high and low 64 bits of the IPv6
// source address. Callers must check IsIPv4 first.
func (p *Packet) SrcAddrHi() uint64 { return p.ipv6Addr(8) }
func (p *Packet) SrcAddrLo() uint64 { return p.ipv6Addr(16) }

// DstAddrHi and DstAddrLo return the high and low 64 bits of the IPv6
// destination address. Callers must check IsIPv4 first.
func (p *Packet) DstAddrHi() uint64 { return p.ipv6Addr(24) }
func (p *Packet) DstAddrLo() uint64 { return p.ipv6Addr(32) }

// SrcPort and DstPort return the transport-layer ports for TCP and UDP;
// for any other transport protocol they return 0, matching the "what
// about protocols without a port" gap the original classifier leaves
// open.
func (p *Packet) SrcPort() uint16 {
	return p.transportPort(0)
}

func (p *Packet) DstPort() uint16 {
	return p.transportPort(2)
}

func (p *Packet) transportPort(byteOffset uint16) uint16 {
	if p.Transport.Proto != ProtoTCP && p.Transport.Proto != ProtoUDP {
		return 0
	}
	base := p.Transport.Offset + byteOffset
	if int(base)+2 > len(p.data) {
		return 0
	}
	return binary.BigEndian.Uint16(p.data[base : base+2])
}
