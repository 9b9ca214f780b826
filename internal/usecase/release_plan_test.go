package usecase

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"SwapGate/internal/domain/models"
	"SwapGate/internal/validation"
)

func newTestReleaser(t *testing.T, sink *memorySink) *PlanReleaser {
	t.Helper()
	replay := validation.NewReplayDetector(100 * time.Millisecond)
	filter := validation.NewThreatFilter(validation.NewCatalog(), replay)
	gates := validation.NewGateEngine(validation.WithApprovedTokens(testTokens))
	pipeline := validation.NewPipeline(filter, gates, testTokens)
	return NewPlanReleaser(pipeline, validation.NewProofIssuer(), sink, noopMetrics{}, nil, testLogger(t))
}

func testPlan(now time.Time) models.TransactionPlan {
	return models.TransactionPlan{
		ID:          "plan-1",
		Quote:       testQuote(now),
		UserAddress: "0x1111111111111111111111111111111111111111",
		CreatedAt:   now,
	}
}

func TestReleaseIssuesProofsAndAccepts(t *testing.T) {
	sink := &memorySink{}
	r := newTestReleaser(t, sink)
	now := time.Now().UTC()

	plan, d := r.Release(context.Background(), testPlan(now), decimal.NewFromInt(10), true)
	if !d.Accepted {
		t.Fatalf("expected release, got %q", d.RejectionCode)
	}
	if len(plan.Proofs) == 0 {
		t.Fatalf("expected issued proofs on the returned plan")
	}

	sink.mu.Lock()
	defer sink.mu.Unlock()
	if len(sink.decisions) != 1 || sink.decisions[0].Stage != "plan" {
		t.Fatalf("unexpected audit records: %+v", sink.decisions)
	}
}

func TestReleaseWithoutProofsWithheld(t *testing.T) {
	r := newTestReleaser(t, &memorySink{})
	now := time.Now().UTC()

	_, d := r.Release(context.Background(), testPlan(now), decimal.NewFromInt(10), false)
	if d.Accepted {
		t.Fatalf("plan without custody evidence must not be released")
	}
	if d.RejectionCode != validation.CodeCustodyInvalid {
		t.Fatalf("code = %q", d.RejectionCode)
	}
}

func TestReleasePrivacyRoutedPlanGetsPreimageProof(t *testing.T) {
	r := newTestReleaser(t, &memorySink{})
	now := time.Now().UTC()

	plan := testPlan(now)
	plan.Route = []string{
		"0x2222222222222222222222222222222222222222",
		"0x3333333333333333333333333333333333333333",
		"0x4444444444444444444444444444444444444444",
	}

	released, d := r.Release(context.Background(), plan, decimal.NewFromInt(10), true)
	if !d.Accepted {
		t.Fatalf("expected release, got %q", d.RejectionCode)
	}
	var hasPreimage bool
	for _, p := range released.Proofs {
		if p.Type == models.ProofCommitmentPreimage {
			hasPreimage = true
		}
	}
	if !hasPreimage {
		t.Fatalf("privacy routed plan should carry a commitment preimage proof")
	}
}
