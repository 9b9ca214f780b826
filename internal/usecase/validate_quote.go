package usecase

import (
	"context"
	"time"

	"SwapGate/internal/domain/models"
	drepo "SwapGate/internal/domain/repository"
	"SwapGate/internal/validation"
	applogger "SwapGate/pkg/logger"
)

// ThreatFeed receives detected threats for live distribution. Implementations
// must not block; the usecase calls Broadcast on the request path.
type ThreatFeed interface {
	Broadcast(t models.AdversarialThreat)
}

// QuoteValidator runs the layered validation for incoming quotes and fans the
// outcome out to audit, metrics, cache and the live threat feed.
type QuoteValidator struct {
	pipeline *validation.Pipeline
	replay   *validation.ReplayDetector
	audit    drepo.AuditSink
	cache    drepo.DecisionCache
	metrics  drepo.Metrics
	feed     ThreatFeed
	log      *applogger.Logger
}

// NewQuoteValidator creates a new QuoteValidator instance. cache and feed may
// be nil; the validator then skips memoization and live distribution.
func NewQuoteValidator(
	pipeline *validation.Pipeline,
	replay *validation.ReplayDetector,
	audit drepo.AuditSink,
	cache drepo.DecisionCache,
	metrics drepo.Metrics,
	feed ThreatFeed,
	log *applogger.Logger,
) *QuoteValidator {
	return &QuoteValidator{
		pipeline: pipeline,
		replay:   replay,
		audit:    audit,
		cache:    cache,
		metrics:  metrics,
		feed:     feed,
		log:      log,
	}
}

// Validate runs the pipeline for one quote. overrideAttempt marks a request
// that asked validation to be skipped; the attempt is recorded as a threat but
// the decision is computed exactly as if the flag had not been present.
func (v *QuoteValidator) Validate(ctx context.Context, q models.Quote, overrideAttempt bool) models.Decision {
	start := time.Now()
	now := start.UTC()

	if overrideAttempt {
		v.recordOverrideAttempt(ctx, q, now)
	}

	// Deterministic rejections are memoized by the full-field digest, so a
	// cached code can never leak onto a quote the pipeline would judge
	// differently. Replay rejections and accepts depend on detector state and
	// are never served from cache.
	key := q.Digest()
	if v.cache != nil {
		if d, ok := v.cache.Get(ctx, key); ok && cacheable(d) {
			v.metrics.RecordDecision("quote_cached", d.Accepted, d.RejectionCode)
			return d
		}
	}

	d := v.pipeline.ValidateQuote(q, now)

	v.metrics.RecordDecision("quote", d.Accepted, d.RejectionCode)
	v.metrics.RecordStageDuration("quote", time.Since(start).Seconds())
	v.metrics.RecordReplayEntries(v.replay.Len())

	rec := models.DecisionRecord{
		QuoteID:       q.ID,
		Source:        string(q.Source),
		Stage:         "quote",
		Accepted:      d.Accepted,
		RejectionCode: d.RejectionCode,
		ThreatCount:   len(d.Threats),
		Timestamp:     now,
	}
	if err := v.audit.RecordDecision(ctx, rec); err != nil {
		v.metrics.RecordError("audit_decision")
	}
	for _, t := range d.Threats {
		v.metrics.RecordThreat(t.Code, string(t.DetectionLayer), string(t.Severity))
		if err := v.audit.RecordThreat(ctx, q.ID, t); err != nil {
			v.metrics.RecordError("audit_threat")
		}
		if v.feed != nil {
			v.feed.Broadcast(t)
		}
	}

	if v.cache != nil && cacheable(d) {
		if err := v.cache.Set(ctx, key, d); err != nil {
			v.metrics.RecordError("decision_cache_set")
		}
	}

	if d.Accepted {
		v.log.Info("quote accepted",
			applogger.String("quote_id", q.ID),
			applogger.String("source", string(q.Source)),
			applogger.Duration("duration_ms", time.Since(start)),
		)
	} else {
		v.log.Warn("quote rejected",
			applogger.String("quote_id", q.ID),
			applogger.String("source", string(q.Source)),
			applogger.String("code", d.RejectionCode),
			applogger.Int("threats", len(d.Threats)),
		)
	}
	return d
}

// recordOverrideAttempt emits the audit trail for a validation-skip request.
// The caller's decision path is unaffected.
func (v *QuoteValidator) recordOverrideAttempt(ctx context.Context, q models.Quote, now time.Time) {
	t := models.NewThreat(
		models.ThreatOverrideAttempt,
		"skip_validation",
		"true",
		"not permitted",
		"Validation skip requested on a non-overridable pipeline",
		models.SeverityCritical,
		models.LayerL1,
		"alert_security",
		now,
	)
	v.metrics.RecordThreat(t.Code, string(t.DetectionLayer), string(t.Severity))
	if err := v.audit.RecordThreat(ctx, q.ID, t); err != nil {
		v.metrics.RecordError("audit_threat")
	}
	if v.feed != nil {
		v.feed.Broadcast(t)
	}
	v.log.Warn("override attempt recorded",
		applogger.String("quote_id", q.ID),
		applogger.String("source", string(q.Source)),
	)
}

// cacheable reports whether a decision may be memoized: only rejections whose
// code is independent of replay-detector state qualify.
func cacheable(d models.Decision) bool {
	return !d.Accepted && d.RejectionCode != string(models.ThreatReplayAttempt)
}
