package pipeline

import (
	"testing"

	"github.com/packetforge/aclc/packet"
)

func TestListResetEmptiesWithoutTouchingRemovedPackets(t *testing.T) {
	t.Parallel()

	var l List
	a := &packet.Packet{}
	l.Add(a)
	l.Reset()

	if l.First() != nil {
		t.Fatalf("expected empty list after Reset")
	}
	// a itself is untouched; Reset only forgets the list's own head/tail.
	if a.Next != nil {
		t.Fatalf("Reset must not mutate packets that were in the list")
	}
}

func TestFrontSwitchMovesOutputToInputAndClearsOutput(t *testing.T) {
	t.Parallel()

	var f Front
	p := &packet.Packet{}
	f.Output.Add(p)

	f.Switch()

	if f.Input.First() != p {
		t.Fatalf("expected Switch to move Output's packet into Input")
	}
	if f.Output.First() != nil {
		t.Fatalf("expected Switch to leave Output empty")
	}
}

func TestFrontKeepAndDropPacketRouteIndependently(t *testing.T) {
	t.Parallel()

	var f Front
	keep := &packet.Packet{}
	drop := &packet.Packet{}

	f.Keep(keep)
	f.DropPacket(drop)

	if f.Output.First() != keep {
		t.Fatalf("expected Keep to land its packet in Output")
	}
	if f.Drop.First() != drop {
		t.Fatalf("expected DropPacket to land its packet in Drop")
	}
}
