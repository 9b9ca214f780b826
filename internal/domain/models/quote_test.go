package models

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func TestFingerprintDeterministic(t *testing.T) {
	q := Quote{
		ID:         "q-1",
		FromToken:  "0xAAAA",
		ToToken:    "0xBBBB",
		FromAmount: decimal.NewFromFloat(1.5),
		Slippage:   decimal.NewFromFloat(0.5),
	}
	if q.Fingerprint() != q.Fingerprint() {
		t.Fatalf("fingerprint must be deterministic")
	}

	// Identity and timestamps are excluded so resubmissions collide.
	resubmitted := q
	resubmitted.ID = "q-2"
	resubmitted.CreatedAt = time.Now()
	if q.Fingerprint() != resubmitted.Fingerprint() {
		t.Fatalf("fingerprint must ignore identity and timestamps")
	}

	// Token case is normalized.
	upper := q
	upper.FromToken = "0xaaaa"
	if q.Fingerprint() != upper.Fingerprint() {
		t.Fatalf("fingerprint must be case-insensitive over tokens")
	}

	// Economically different quotes diverge.
	other := q
	other.FromAmount = decimal.NewFromFloat(2.5)
	if q.Fingerprint() == other.Fingerprint() {
		t.Fatalf("different amounts must yield different fingerprints")
	}
}

func TestDigestCoversNonFingerprintFields(t *testing.T) {
	base := Quote{
		ID:               "q-1",
		Source:           SourceDEX,
		FromToken:        "0xAAAA",
		ToToken:          "0xBBBB",
		FromAmount:       decimal.NewFromFloat(1.5),
		ToAmount:         decimal.NewFromInt(4500),
		Slippage:         decimal.NewFromFloat(0.5),
		MarketConfidence: 0.95,
		PriceImpact:      decimal.NewFromFloat(0.1),
		ExecutionFee:     decimal.NewFromFloat(0.002),
		ExpiresAt:        time.Date(2026, 8, 31, 12, 0, 0, 0, time.UTC),
	}
	if base.Digest() != base.Digest() {
		t.Fatalf("digest must be deterministic")
	}

	// Fields the fingerprint excludes still change the digest.
	lowConfidence := base
	lowConfidence.MarketConfidence = 0.15
	later := base
	later.ExpiresAt = base.ExpiresAt.Add(time.Minute)
	for name, other := range map[string]Quote{"confidence": lowConfidence, "expiry": later} {
		if base.Fingerprint() != other.Fingerprint() {
			t.Fatalf("%s: fingerprint should not cover this field", name)
		}
		if base.Digest() == other.Digest() {
			t.Fatalf("%s: digest must cover this field", name)
		}
	}

	// Identity is still excluded: a byte-identical resubmission collides.
	resubmitted := base
	resubmitted.ID = "q-2"
	resubmitted.CreatedAt = time.Now()
	if base.Digest() != resubmitted.Digest() {
		t.Fatalf("digest must ignore identity and creation time")
	}
}

func TestQuoteExpired(t *testing.T) {
	now := time.Date(2026, 8, 31, 12, 0, 0, 0, time.UTC)
	q := Quote{ExpiresAt: now}

	if q.Expired(now) {
		t.Fatalf("quote expiring exactly now is still valid")
	}
	if !q.Expired(now.Add(time.Second)) {
		t.Fatalf("quote past expiry must be expired")
	}
}

func TestNewQuoteStampsIdentity(t *testing.T) {
	q := NewQuote(SourceUser, "0xA", "0xB",
		decimal.NewFromInt(1), decimal.NewFromInt(2), decimal.NewFromFloat(0.5),
		0.9, decimal.Zero, decimal.Zero, time.Now().Add(time.Minute))
	if q.ID == "" || q.CreatedAt.IsZero() {
		t.Fatalf("constructor must stamp ID and creation time")
	}
}
