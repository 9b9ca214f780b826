package usecase

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"SwapGate/internal/domain/models"
	drepo "SwapGate/internal/domain/repository"
	"SwapGate/internal/validation"
	applogger "SwapGate/pkg/logger"
)

// PlanReleaser gates materialized transaction plans: it issues custody
// evidence when asked, re-runs the threat checks against the plan's resolved
// parameters and verifies every carried proof before release.
type PlanReleaser struct {
	pipeline *validation.Pipeline
	issuer   *validation.ProofIssuer
	audit    drepo.AuditSink
	metrics  drepo.Metrics
	feed     ThreatFeed
	log      *applogger.Logger
}

// NewPlanReleaser creates a new PlanReleaser instance.
func NewPlanReleaser(
	pipeline *validation.Pipeline,
	issuer *validation.ProofIssuer,
	audit drepo.AuditSink,
	metrics drepo.Metrics,
	feed ThreatFeed,
	log *applogger.Logger,
) *PlanReleaser {
	return &PlanReleaser{
		pipeline: pipeline,
		issuer:   issuer,
		audit:    audit,
		metrics:  metrics,
		feed:     feed,
		log:      log,
	}
}

// Release decides whether a plan may go out. When issueProofs is set the
// standard custody evidence is generated for the plan first; otherwise the
// plan must already carry valid proofs. The returned plan includes whatever
// proofs were issued, so callers can hand them back to the proposer.
func (r *PlanReleaser) Release(ctx context.Context, plan models.TransactionPlan, balanceBefore decimal.Decimal, issueProofs bool) (models.TransactionPlan, models.Decision) {
	start := time.Now()
	now := start.UTC()

	if issueProofs {
		plan = plan.WithProofs(r.issuer.IssueForPlan(plan, plan.UserAddress, balanceBefore, now))
	}

	d := r.pipeline.ReleasePlan(plan, now)

	r.metrics.RecordDecision("plan", d.Accepted, d.RejectionCode)
	r.metrics.RecordStageDuration("plan", time.Since(start).Seconds())

	rec := models.DecisionRecord{
		QuoteID:       plan.Quote.ID,
		PlanID:        plan.ID,
		Source:        string(plan.Quote.Source),
		Stage:         "plan",
		Accepted:      d.Accepted,
		RejectionCode: d.RejectionCode,
		ThreatCount:   len(d.Threats),
		Timestamp:     now,
	}
	if err := r.audit.RecordDecision(ctx, rec); err != nil {
		r.metrics.RecordError("audit_decision")
	}
	for _, t := range d.Threats {
		r.metrics.RecordThreat(t.Code, string(t.DetectionLayer), string(t.Severity))
		if err := r.audit.RecordThreat(ctx, plan.Quote.ID, t); err != nil {
			r.metrics.RecordError("audit_threat")
		}
		if r.feed != nil {
			r.feed.Broadcast(t)
		}
	}

	if d.Accepted {
		r.log.Info("plan released",
			applogger.String("plan_id", plan.ID),
			applogger.String("quote_id", plan.Quote.ID),
			applogger.Int("proofs", len(plan.Proofs)),
			applogger.Duration("duration_ms", time.Since(start)),
		)
	} else {
		r.log.Warn("plan withheld",
			applogger.String("plan_id", plan.ID),
			applogger.String("quote_id", plan.Quote.ID),
			applogger.String("code", d.RejectionCode),
		)
	}
	return plan, d
}
