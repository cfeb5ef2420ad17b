package netcollect

import "testing"

func TestCollectWithNoDeclarationsYieldsSingleBackgroundClass(t *testing.T) {
	t.Parallel()

	c := New()
	lpm, count := c.Collect()

	if count != 1 {
		t.Fatalf("count = %d, want 1 (one implicit background class)", count)
	}
	for _, key := range []uint64{0, 1, 0x1234, ^uint64(0)} {
		if got := lpm.Lookup(key); got != 0 {
			t.Fatalf("Lookup(%#x) = %d, want 0", key, got)
		}
	}
}

func TestCollectZeroMaskDeclarationIsIgnored(t *testing.T) {
	t.Parallel()

	c := New()
	c.Add(0x1234, 0) // /0: matches everything, needs no bookkeeping

	_, count := c.Collect()
	if count != 1 {
		t.Fatalf("count = %d, want 1 (a /0 declaration contributes no extra class)", count)
	}
}

func TestCollectSingleHostDeclarationCarvesItsOwnClass(t *testing.T) {
	t.Parallel()

	const addr = 0x0102030405060708
	c := New()
	c.Add(addr, ^uint64(0)) // /64 host route

	lpm, count := c.Collect()
	if count != 2 {
		t.Fatalf("count = %d, want 2 (background + the host)", count)
	}

	hostClass := lpm.Lookup(addr)
	bgBefore := lpm.Lookup(addr - 1)
	bgAfter := lpm.Lookup(addr + 1)

	if hostClass == bgBefore || hostClass == bgAfter {
		t.Fatalf("host class %d must differ from its neighbors (before=%d after=%d)", hostClass, bgBefore, bgAfter)
	}
	if bgBefore != bgAfter {
		t.Fatalf("both neighbors of an isolated host must share the background class: before=%d after=%d", bgBefore, bgAfter)
	}
}

func TestCollectTwoDisjointHostsGetDistinctClasses(t *testing.T) {
	t.Parallel()

	const addrA = 0x1000
	const addrB = 0x2000
	c := New()
	c.Add(addrA, ^uint64(0))
	c.Add(addrB, ^uint64(0))

	lpm, count := c.Collect()
	if count != 3 {
		t.Fatalf("count = %d, want 3 (background + 2 hosts)", count)
	}

	classA := lpm.Lookup(addrA)
	classB := lpm.Lookup(addrB)
	bg := lpm.Lookup(0)

	if classA == classB || classA == bg || classB == bg {
		t.Fatalf("expected three distinct classes, got background=%d A=%d B=%d", bg, classA, classB)
	}
	if lpm.Lookup(addrA+1) != bg {
		t.Fatalf("addresses outside either host route must fall back to background")
	}
}

func TestCollectNestedNetworkSharingItsParentsStartAddress(t *testing.T) {
	t.Parallel()

	// A /48 network and a /64 host route that both start at the same
	// base address: the narrower declaration must win at that address,
	// the wider one must still cover the rest of its span.
	const base = 0x2001000000000000
	const parentMask = 0xFFFFFFFFFFFF0000 // /48
	const childAddr = base

	c := New()
	c.Add(base, parentMask)
	c.Add(childAddr, ^uint64(0))

	lpm, _ := c.Collect()

	childClass := lpm.Lookup(childAddr)
	siblingClass := lpm.Lookup(base + 0x1234) // still inside the /48, outside the host
	outsideClass := lpm.Lookup(base + 0x10000) // just past the /48 entirely

	if childClass == siblingClass {
		t.Fatalf("host route must win over its enclosing /48 at the same base address")
	}
	if siblingClass == childClass || siblingClass == outsideClass {
		t.Fatalf("the /48's own remainder must be distinct from both the host and the true background: sibling=%d child=%d outside=%d", siblingClass, childClass, outsideClass)
	}
}
