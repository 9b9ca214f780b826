package usecase

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"SwapGate/internal/domain/models"
	drepo "SwapGate/internal/domain/repository"
	"SwapGate/internal/validation"
	applogger "SwapGate/pkg/logger"
)

var (
	wethAddr = "0xfFf9976782d46CC05630D92EE39253E4423ACFB9"
	usdcAddr = "0xd5c6C8169A95bA8Af4D1ee8B47EaF3e2Ce68A4b2"

	testTokens = []string{wethAddr, usdcAddr}
)

type memorySink struct {
	mu        sync.Mutex
	decisions []models.DecisionRecord
	threats   []models.AdversarialThreat
}

func (s *memorySink) RecordDecision(_ context.Context, rec models.DecisionRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.decisions = append(s.decisions, rec)
	return nil
}

func (s *memorySink) RecordThreat(_ context.Context, _ string, t models.AdversarialThreat) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.threats = append(s.threats, t)
	return nil
}

func (s *memorySink) Close() error { return nil }

func (s *memorySink) threatCodes() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	codes := make([]string, 0, len(s.threats))
	for _, t := range s.threats {
		codes = append(codes, t.Code)
	}
	return codes
}

type noopMetrics struct{}

func (noopMetrics) RecordDecision(string, bool, string) {}
func (noopMetrics) RecordThreat(string, string, string) {}
func (noopMetrics) RecordError(string)                  {}
func (noopMetrics) RecordReplayEntries(int)             {}
func (noopMetrics) RecordStageDuration(string, float64) {}

type mapCache struct {
	mu sync.Mutex
	m  map[string]models.Decision
}

func newMapCache() *mapCache { return &mapCache{m: make(map[string]models.Decision)} }

func (c *mapCache) Get(_ context.Context, fp string) (models.Decision, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	d, ok := c.m[fp]
	return d, ok
}

func (c *mapCache) Set(_ context.Context, fp string, d models.Decision) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.m[fp] = d
	return nil
}

func (c *mapCache) Close() error { return nil }

type captureFeed struct {
	mu    sync.Mutex
	codes []string
}

func (f *captureFeed) Broadcast(t models.AdversarialThreat) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.codes = append(f.codes, t.Code)
}

var (
	_ drepo.AuditSink     = (*memorySink)(nil)
	_ drepo.Metrics       = noopMetrics{}
	_ drepo.DecisionCache = (*mapCache)(nil)
)

func testLogger(t *testing.T) *applogger.Logger {
	t.Helper()
	l, err := applogger.New(&applogger.Config{Level: "error", Format: "console", Output: "stdout"})
	if err != nil {
		t.Fatalf("logger: %v", err)
	}
	return l
}

func testQuote(now time.Time) models.Quote {
	return models.Quote{
		ID:               "q-1",
		CreatedAt:        now,
		Source:           models.SourceDEX,
		FromToken:        wethAddr,
		ToToken:          usdcAddr,
		FromAmount:       decimal.NewFromFloat(1.5),
		ToAmount:         decimal.NewFromInt(4500),
		Slippage:         decimal.NewFromFloat(0.5),
		MarketConfidence: 0.95,
		PriceImpact:      decimal.NewFromFloat(0.1),
		ExecutionFee:     decimal.NewFromFloat(0.002),
		ExpiresAt:        now.Add(10 * time.Minute),
	}
}

func newTestValidator(t *testing.T, sink *memorySink, cache drepo.DecisionCache, feed ThreatFeed) *QuoteValidator {
	t.Helper()
	replay := validation.NewReplayDetector(100 * time.Millisecond)
	filter := validation.NewThreatFilter(validation.NewCatalog(), replay)
	gates := validation.NewGateEngine(validation.WithApprovedTokens(testTokens))
	pipeline := validation.NewPipeline(filter, gates, testTokens)
	return NewQuoteValidator(pipeline, replay, sink, cache, noopMetrics{}, feed, testLogger(t))
}

func TestValidateRecordsDecision(t *testing.T) {
	sink := &memorySink{}
	v := newTestValidator(t, sink, nil, nil)

	q := testQuote(time.Now().UTC())
	d := v.Validate(context.Background(), q, false)
	if !d.Accepted {
		t.Fatalf("expected accepted, got %q", d.RejectionCode)
	}

	sink.mu.Lock()
	defer sink.mu.Unlock()
	if len(sink.decisions) != 1 {
		t.Fatalf("recorded %d decisions, want 1", len(sink.decisions))
	}
	rec := sink.decisions[0]
	if rec.QuoteID != q.ID || rec.Stage != "quote" || !rec.Accepted {
		t.Fatalf("unexpected record: %+v", rec)
	}
}

func TestValidateOverrideAttemptDoesNotChangeDecision(t *testing.T) {
	plain := &memorySink{}
	flagged := &memorySink{}
	now := time.Now().UTC()

	vPlain := newTestValidator(t, plain, nil, nil)
	q1 := testQuote(now)
	dPlain := vPlain.Validate(context.Background(), q1, false)

	vFlagged := newTestValidator(t, flagged, nil, nil)
	q2 := testQuote(now)
	dFlagged := vFlagged.Validate(context.Background(), q2, true)

	if dPlain.Accepted != dFlagged.Accepted || dPlain.RejectionCode != dFlagged.RejectionCode {
		t.Fatalf("override flag changed the decision: %+v vs %+v", dPlain, dFlagged)
	}

	codes := flagged.threatCodes()
	if len(codes) != 1 || codes[0] != string(models.ThreatOverrideAttempt) {
		t.Fatalf("expected a recorded override threat, got %v", codes)
	}
	if len(plain.threatCodes()) != 0 {
		t.Fatalf("unflagged request should record no threats")
	}
}

func TestValidateReplayedQuoteRejected(t *testing.T) {
	sink := &memorySink{}
	v := newTestValidator(t, sink, nil, nil)
	now := time.Now().UTC()

	q := testQuote(now)
	if d := v.Validate(context.Background(), q, false); !d.Accepted {
		t.Fatalf("first submission should pass, got %q", d.RejectionCode)
	}
	d := v.Validate(context.Background(), q, false)
	if d.Accepted {
		t.Fatalf("resubmission inside the window should be rejected")
	}
	if d.RejectionCode != string(models.ThreatReplayAttempt) {
		t.Fatalf("code = %q", d.RejectionCode)
	}
}

func TestValidateMemoizesDeterministicRejections(t *testing.T) {
	sink := &memorySink{}
	cache := newMapCache()
	v := newTestValidator(t, sink, cache, nil)
	now := time.Now().UTC()

	q := testQuote(now)
	q.ToToken = "0x000000000000000000000000000000000000dEaD"

	first := v.Validate(context.Background(), q, false)
	if first.Accepted {
		t.Fatalf("unapproved token should be rejected")
	}
	second := v.Validate(context.Background(), q, false)
	if second.RejectionCode != first.RejectionCode {
		t.Fatalf("cached decision differs: %q vs %q", second.RejectionCode, first.RejectionCode)
	}

	// The second submission was served from cache, so only one decision
	// reached the audit sink.
	sink.mu.Lock()
	defer sink.mu.Unlock()
	if len(sink.decisions) != 1 {
		t.Fatalf("recorded %d decisions, want 1", len(sink.decisions))
	}
}

func TestValidateCachedRejectionNotServedToDifferentQuote(t *testing.T) {
	sink := &memorySink{}
	cache := newMapCache()
	v := newTestValidator(t, sink, cache, nil)

	// Rejected on a field the replay fingerprint does not cover.
	a := testQuote(time.Now().UTC())
	a.MarketConfidence = 0.15
	d := v.Validate(context.Background(), a, false)
	if d.Accepted || d.RejectionCode != validation.CodeLowConfidence {
		t.Fatalf("expected %s, got %+v", validation.CodeLowConfidence, d)
	}

	// Leave the replay window before resubmitting the same pair.
	time.Sleep(150 * time.Millisecond)

	// Same pair, amount and slippage; healthy confidence and fresh expiry.
	// The memoized rejection must not leak onto this quote.
	b := testQuote(time.Now().UTC())
	d = v.Validate(context.Background(), b, false)
	if !d.Accepted {
		t.Fatalf("distinct quote served a stale rejection %q", d.RejectionCode)
	}
}

func TestValidateNeverCachesAccepts(t *testing.T) {
	cache := newMapCache()
	v := newTestValidator(t, &memorySink{}, cache, nil)

	q := testQuote(time.Now().UTC())
	if d := v.Validate(context.Background(), q, false); !d.Accepted {
		t.Fatalf("expected accepted, got %q", d.RejectionCode)
	}

	cache.mu.Lock()
	defer cache.mu.Unlock()
	if len(cache.m) != 0 {
		t.Fatalf("accepts must not be memoized, cache has %d entries", len(cache.m))
	}
}

func TestValidateBroadcastsThreats(t *testing.T) {
	feed := &captureFeed{}
	v := newTestValidator(t, &memorySink{}, nil, feed)
	now := time.Now().UTC()

	// Neither token exact-matches the whitelist and the destination is one
	// hex character off an approved address: an L1 spoofing threat.
	q := testQuote(now)
	q.FromToken = "0x000000000000000000000000000000000000dEaD"
	q.ToToken = "0xd5c6C8169A95bA8Af4D1ee8B47EaF3e2Ce68A4b3"
	d := v.Validate(context.Background(), q, false)
	if d.Accepted {
		t.Fatalf("spoofed token should be rejected")
	}

	feed.mu.Lock()
	defer feed.mu.Unlock()
	if len(feed.codes) != 1 || feed.codes[0] != string(models.ThreatTokenSpoofing) {
		t.Fatalf("expected a spoofing threat on the feed, got %v", feed.codes)
	}
}
