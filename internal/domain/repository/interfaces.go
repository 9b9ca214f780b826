package repository

import (
	"context"
	"time"

	"SwapGate/internal/domain/models"
)

// AuditSink receives decision and threat records emitted by the
// validation pipeline. Implementations must be safe for concurrent use.
type AuditSink interface {
	RecordDecision(ctx context.Context, rec models.DecisionRecord) error
	RecordThreat(ctx context.Context, quoteID string, t models.AdversarialThreat) error
	Close() error
}

// AuditStore is a queryable sink. Kafka-backed sinks are write-only;
// the ClickHouse sink additionally serves the audit query API.
type AuditStore interface {
	AuditSink
	Init(ctx context.Context) error // ensure tables, health checks
	QueryDecisions(ctx context.Context, source string, from, to time.Time, limit int) ([]models.DecisionRecord, error)
	Health(ctx context.Context) error // ping
}

// DecisionCache memoizes decisions keyed by the full-field quote digest so a
// resubmitted quote can be answered without re-running the pipeline.
type DecisionCache interface {
	Get(ctx context.Context, digest string) (models.Decision, bool)
	Set(ctx context.Context, digest string, d models.Decision) error
	Close() error
}

type Metrics interface {
	RecordDecision(stage string, accepted bool, code string)
	RecordThreat(threatType, layer, severity string)
	RecordError(kind string)
	RecordReplayEntries(n int)
	RecordStageDuration(stage string, seconds float64)
}
