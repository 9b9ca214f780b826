package repository

import (
	"context"
	"testing"
	"time"

	"SwapGate/internal/domain/models"
	domrepo "SwapGate/internal/domain/repository"
	pkgcache "SwapGate/pkg/cache"
)

func newTestDecisionCache(t *testing.T) domrepo.DecisionCache {
	t.Helper()
	store := NewCachedDecisionStore(pkgcache.NewMemoryCache(), time.Minute)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestDecisionCacheRoundTrip(t *testing.T) {
	store := newTestDecisionCache(t)
	ctx := context.Background()

	in := models.Reject("QUOTE_EXCESSIVE_SLIPPAGE",
		models.AdversarialThreat{Code: "THREAT_UNUSUAL_PARAMETERS", DetectedField: "slippage_tolerance"})
	if err := store.Set(ctx, "fp-1", in); err != nil {
		t.Fatalf("set: %v", err)
	}

	out, ok := store.Get(ctx, "fp-1")
	if !ok {
		t.Fatalf("expected cache hit")
	}
	if out.Accepted || out.RejectionCode != in.RejectionCode {
		t.Fatalf("decision mismatch: %+v", out)
	}
	if len(out.Threats) != 1 || out.Threats[0].Code != "THREAT_UNUSUAL_PARAMETERS" {
		t.Fatalf("threats not preserved: %+v", out.Threats)
	}
}

func TestDecisionCacheMiss(t *testing.T) {
	store := newTestDecisionCache(t)

	if _, ok := store.Get(context.Background(), "unknown"); ok {
		t.Fatalf("expected cache miss")
	}
}

func TestDecisionCacheKeysAreIndependent(t *testing.T) {
	store := newTestDecisionCache(t)
	ctx := context.Background()

	if err := store.Set(ctx, "fp-a", models.Reject("QUOTE_EXPIRED")); err != nil {
		t.Fatalf("set: %v", err)
	}
	if err := store.Set(ctx, "fp-b", models.Reject("QUOTE_INVALID_TOKENS")); err != nil {
		t.Fatalf("set: %v", err)
	}

	a, _ := store.Get(ctx, "fp-a")
	b, _ := store.Get(ctx, "fp-b")
	if a.RejectionCode == b.RejectionCode {
		t.Fatalf("keys collided: %q", a.RejectionCode)
	}
}
