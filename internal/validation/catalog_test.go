package validation

import (
	"testing"

	"SwapGate/internal/domain/models"
)

func TestCatalogLookup(t *testing.T) {
	c := NewCatalog()

	p, ok := c.Lookup(string(models.ThreatTokenSpoofing))
	if !ok {
		t.Fatalf("spoofing pattern missing")
	}
	if p.DetectionMethod != "similarity_match" {
		t.Fatalf("unexpected detection method %q", p.DetectionMethod)
	}

	if _, ok := c.Lookup("THREAT_UNKNOWN"); ok {
		t.Fatalf("unknown code must be absent")
	}
}

func TestCatalogAllCodes(t *testing.T) {
	c := NewCatalog()
	codes := c.AllCodes()
	if len(codes) != 5 {
		t.Fatalf("expected 5 threat codes, got %d", len(codes))
	}
	for i := 1; i < len(codes); i++ {
		if codes[i-1] >= codes[i] {
			t.Fatalf("codes not sorted: %v", codes)
		}
	}
}

func TestCatalogIsCritical(t *testing.T) {
	c := NewCatalog()
	if !c.IsCritical(string(models.ThreatTokenSpoofing)) {
		t.Fatalf("spoofing must be critical")
	}
	if !c.IsCritical(string(models.ThreatOverrideAttempt)) {
		t.Fatalf("override attempt must be critical")
	}
	if c.IsCritical(string(models.ThreatReplayAttempt)) {
		t.Fatalf("replay must not be critical")
	}
	if c.IsCritical("THREAT_UNKNOWN") {
		t.Fatalf("unknown code must not be critical")
	}
}
