package rulefile

import (
	"os"
	"path/filepath"
	"testing"
)

func writeTempRuleFile(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "rules.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("writing temp rule file: %v", err)
	}
	return path
}

func TestLoadResolvesSymbolicAndNumericActions(t *testing.T) {
	t.Parallel()

	path := writeTempRuleFile(t, `
actions:
  allow: 1
  deny: 2

rules:
  - dst: ["2001:db8::/32"]
    dst_ports: [443]
    action: allow
  - src: ["2001:db8:1::/48"]
    src_ports:
      - from: 1024
        to: 65535
    action: 2
`)

	rules, actions, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(rules) != 2 {
		t.Fatalf("expected 2 rules, got %d", len(rules))
	}
	if rules[0].Action != 1 {
		t.Fatalf("expected symbolic action 'allow' to resolve to 1, got %d", rules[0].Action)
	}
	if rules[1].Action != 2 {
		t.Fatalf("expected numeric action to pass through as 2, got %d", rules[1].Action)
	}
	if len(rules[0].DstPorts) != 1 || rules[0].DstPorts[0].From != 443 || rules[0].DstPorts[0].To != 443 {
		t.Fatalf("expected a bare port to become a single-port range, got %+v", rules[0].DstPorts)
	}
	if len(rules[1].SrcPorts) != 1 || rules[1].SrcPorts[0].From != 1024 || rules[1].SrcPorts[0].To != 65535 {
		t.Fatalf("expected a from/to port range to decode, got %+v", rules[1].SrcPorts)
	}
	if actions["deny"] != 2 {
		t.Fatalf("expected the actions table to come back intact")
	}
}

func TestLoadRejectsUnknownActionName(t *testing.T) {
	t.Parallel()

	path := writeTempRuleFile(t, `
rules:
  - action: nonexistent
`)

	if _, _, err := Load(path); err == nil {
		t.Fatalf("expected an error for an unresolvable action name")
	}
}

func TestLoadRejectsIPv4Prefix(t *testing.T) {
	t.Parallel()

	path := writeTempRuleFile(t, `
rules:
  - dst: ["10.0.0.0/8"]
    action: 1
`)

	if _, _, err := Load(path); err == nil {
		t.Fatalf("expected an error for an IPv4 prefix")
	}
}

func TestLoadRejectsMalformedCIDR(t *testing.T) {
	t.Parallel()

	path := writeTempRuleFile(t, `
rules:
  - dst: ["not-a-cidr"]
    action: 1
`)

	if _, _, err := Load(path); err == nil {
		t.Fatalf("expected an error for a malformed CIDR")
	}
}

func TestCoveredRangeReturnsFirstAndLastAddress(t *testing.T) {
	t.Parallel()

	first, last, err := CoveredRange("2001:db8::/126")
	if err != nil {
		t.Fatalf("CoveredRange: %v", err)
	}
	if first.String() != "2001:db8::" {
		t.Fatalf("expected first address 2001:db8::, got %s", first)
	}
	if last.String() != "2001:db8::3" {
		t.Fatalf("expected last address 2001:db8::3, got %s", last)
	}
}
