package usecase

import (
	"context"
	"fmt"
	"time"

	"SwapGate/internal/domain/models"
	drepo "SwapGate/internal/domain/repository"
	"SwapGate/pkg/util"
)

const defaultQueryLimit = 100

// AuditQuery serves read access to recorded decisions.
type AuditQuery struct {
	store drepo.AuditStore
}

// NewAuditQuery creates a new AuditQuery instance. store may be nil when no
// queryable sink is configured; queries then fail with an explicit error.
func NewAuditQuery(store drepo.AuditStore) *AuditQuery {
	return &AuditQuery{store: store}
}

// RecentDecisions returns decisions within the lookback window, newest first.
func (a *AuditQuery) RecentDecisions(ctx context.Context, source string, lb drepo.Lookback, limit int) ([]models.DecisionRecord, error) {
	to := time.Now().UTC()
	return a.DecisionsBetween(ctx, source, to.Add(-lb.Duration()), to, limit)
}

// DecisionsBetween returns decisions within an explicit time range, newest
// first. The range is aligned to second boundaries before querying.
func (a *AuditQuery) DecisionsBetween(ctx context.Context, source string, from, to time.Time, limit int) ([]models.DecisionRecord, error) {
	if a.store == nil {
		return nil, fmt.Errorf("no queryable audit store configured")
	}
	if limit <= 0 {
		limit = defaultQueryLimit
	}
	from, to = util.AlignRange(from, to, time.Second)

	recs, err := a.store.QueryDecisions(ctx, source, from, to, limit)
	if err != nil {
		return nil, fmt.Errorf("query decisions: %w", err)
	}
	return recs, nil
}

// Health pings the underlying store.
func (a *AuditQuery) Health(ctx context.Context) error {
	if a.store == nil {
		return nil
	}
	return a.store.Health(ctx)
}
