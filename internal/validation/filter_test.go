package validation

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"SwapGate/internal/domain/models"
)

func newTestFilter() *ThreatFilter {
	return NewThreatFilter(NewCatalog(), NewReplayDetector(100*time.Millisecond))
}

func TestDetectNoThreats(t *testing.T) {
	now := testNow()
	f := newTestFilter()

	threats := f.Detect(validQuote(now), testTokens, models.LayerL1, now)
	if len(threats) != 0 {
		t.Fatalf("expected no threats, got %v", threats)
	}
}

func TestDetectTokenSpoofingShortCircuits(t *testing.T) {
	now := testNow()
	f := newTestFilter()

	q := validQuote(now)
	q.FromToken = wethAddr[:len(wethAddr)-1] + "B"
	q.ToToken = "0x2222222222222222222222222222222222222222"
	// Would also trip the decimal exploit check if it ran.
	q.FromAmount = decimal.New(1, -12)

	threats := f.Detect(q, testTokens, models.LayerL1, now)
	if len(threats) != 1 {
		t.Fatalf("expected the spoof alone, got %d threats", len(threats))
	}
	if threats[0].Type != models.ThreatTokenSpoofing {
		t.Fatalf("expected spoofing, got %s", threats[0].Type)
	}
	if threats[0].DetectedField != "from_token" {
		t.Fatalf("expected from_token, got %s", threats[0].DetectedField)
	}
}

func TestDetectSeveritySourcedFromCatalog(t *testing.T) {
	now := testNow()
	cat := NewCatalog()
	f := NewThreatFilter(cat, NewReplayDetector(100*time.Millisecond))

	q := validQuote(now)
	q.FromToken = wethAddr[:len(wethAddr)-1] + "B"
	q.ToToken = "0x2222222222222222222222222222222222222222"

	threats := f.Detect(q, testTokens, models.LayerL1, now)
	if len(threats) != 1 {
		t.Fatalf("expected the spoof alone, got %d threats", len(threats))
	}
	want, ok := cat.Lookup(string(models.ThreatTokenSpoofing))
	if !ok {
		t.Fatalf("catalog is missing the spoofing pattern")
	}
	if threats[0].Severity != want.Severity {
		t.Fatalf("severity %s does not match the catalog's %s", threats[0].Severity, want.Severity)
	}
}

func TestDetectSkipsSpoofingWhenOneTokenApproved(t *testing.T) {
	// The spoof check runs only when neither token exact-matches. With the
	// source token approved, a near-whitelist destination passes through to
	// the cumulative checks. Preserved behavior, not an oversight.
	now := testNow()
	f := newTestFilter()

	q := validQuote(now)
	q.ToToken = usdcAddr[:len(usdcAddr)-1] + "3"

	threats := f.Detect(q, testTokens, models.LayerL1, now)
	for _, th := range threats {
		if th.Type == models.ThreatTokenSpoofing {
			t.Fatalf("spoof check must not run when a token exact-matches")
		}
	}
}

func TestDetectUnequalLengthNotSimilar(t *testing.T) {
	now := testNow()
	f := newTestFilter()

	q := validQuote(now)
	q.FromToken = wethAddr + "ff" // longer than any approved address
	q.ToToken = "0x3333333333333333333333333333333333333333"

	threats := f.Detect(q, testTokens, models.LayerL1, now)
	for _, th := range threats {
		if th.Type == models.ThreatTokenSpoofing {
			t.Fatalf("unequal length addresses must never be similar")
		}
	}
}

func TestDetectDecimalExploitBounds(t *testing.T) {
	now := testNow()

	cases := []struct {
		amount string
		threat bool
	}{
		{"0.00000001", false},          // lower bound inclusive
		{"0.000000009", true},          // below lower bound
		{"1000000000000000000", false}, // upper bound inclusive
		{"1000000000000000001", true},  // above upper bound
		{"1.5", false},
	}
	for _, tc := range cases {
		f := newTestFilter()
		q := validQuote(now)
		q.FromAmount = decimal.RequireFromString(tc.amount)

		threats := f.Detect(q, testTokens, models.LayerL1, now)
		got := false
		for _, th := range threats {
			if th.Type == models.ThreatDecimalExploit {
				got = true
			}
		}
		if got != tc.threat {
			t.Fatalf("amount %s: expected threat=%v, got %v", tc.amount, tc.threat, got)
		}
	}
}

func TestDetectUnusualParameters(t *testing.T) {
	now := testNow()

	f := newTestFilter()
	q := validQuote(now)
	q.Slippage = decimal.NewFromInt(99)
	threats := f.Detect(q, testTokens, models.LayerL1, now)
	if len(threats) != 1 || threats[0].Type != models.ThreatUnusualParameters {
		t.Fatalf("expected unusual parameters for 99%% slippage, got %v", threats)
	}
	if threats[0].Severity != models.SeverityHigh {
		t.Fatalf("expected HIGH, got %s", threats[0].Severity)
	}

	f = newTestFilter()
	q = validQuote(now)
	q.MarketConfidence = 0.05
	threats = f.Detect(q, testTokens, models.LayerL1, now)
	if len(threats) != 1 || threats[0].Type != models.ThreatUnusualParameters {
		t.Fatalf("expected unusual parameters for low confidence, got %v", threats)
	}
	if threats[0].DetectedField != "market_confidence" {
		t.Fatalf("expected market_confidence field, got %s", threats[0].DetectedField)
	}
}

func TestDetectFiftyPercentSlippageIsNotUnusual(t *testing.T) {
	now := testNow()
	f := newTestFilter()

	q := validQuote(now)
	q.Slippage = decimal.NewFromInt(50)

	threats := f.Detect(q, testTokens, models.LayerL1, now)
	if len(threats) != 0 {
		t.Fatalf("50%% slippage is below the 99%% detection threshold, got %v", threats)
	}
}

func TestDetectCumulativeThreats(t *testing.T) {
	// Checks 2-4 accumulate; the order of the returned list follows the check
	// order.
	now := testNow()
	f := newTestFilter()

	q := validQuote(now)
	q.FromAmount = decimal.New(1, -12)
	q.MarketConfidence = 0.01

	threats := f.Detect(q, testTokens, models.LayerL1, now)
	if len(threats) != 2 {
		t.Fatalf("expected 2 threats, got %d", len(threats))
	}
	if threats[0].Type != models.ThreatDecimalExploit || threats[1].Type != models.ThreatUnusualParameters {
		t.Fatalf("unexpected threat order: %s, %s", threats[0].Type, threats[1].Type)
	}
}

func TestDetectReplayAttempt(t *testing.T) {
	now := testNow()
	f := newTestFilter()
	q := validQuote(now)

	if threats := f.Detect(q, testTokens, models.LayerL1, now); len(threats) != 0 {
		t.Fatalf("first submission flagged: %v", threats)
	}

	threats := f.Detect(q, testTokens, models.LayerL1, now.Add(40*time.Millisecond))
	if len(threats) != 1 || threats[0].Type != models.ThreatReplayAttempt {
		t.Fatalf("expected replay attempt, got %v", threats)
	}
	if threats[0].Severity != models.SeverityMedium {
		t.Fatalf("expected MEDIUM, got %s", threats[0].Severity)
	}
}

func TestDetectLayerTagging(t *testing.T) {
	now := testNow()
	f := newTestFilter()

	q := validQuote(now)
	q.MarketConfidence = 0.05

	threats := f.Detect(q, testTokens, models.LayerL3, now)
	if len(threats) != 1 || threats[0].DetectionLayer != models.LayerL3 {
		t.Fatalf("expected L3 tagging, got %v", threats)
	}
}

func TestHammingClose(t *testing.T) {
	cases := []struct {
		a, b string
		max  int
		want bool
	}{
		{"abcdef", "abcdef", 2, true},
		{"abcdef", "abcdeX", 2, true},
		{"abcdef", "abcdXX", 2, true},
		{"abcdef", "abcXXX", 2, false},
		{"abc", "abcd", 2, false},
	}
	for _, tc := range cases {
		if got := hammingClose(tc.a, tc.b, tc.max); got != tc.want {
			t.Fatalf("hammingClose(%q, %q, %d) = %v, want %v", tc.a, tc.b, tc.max, got, tc.want)
		}
	}
}
