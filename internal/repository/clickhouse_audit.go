package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"SwapGate/internal/domain/models"
	domrepo "SwapGate/internal/domain/repository"
	pkgch "SwapGate/pkg/clickhouse"
	applogger "SwapGate/pkg/logger"
)

var auditSchema = []string{
	`CREATE DATABASE IF NOT EXISTS swapgate`,
	`CREATE TABLE IF NOT EXISTS swapgate.audit_decisions (
        ts DateTime64(3),
        quote_id String,
        plan_id String,
        source LowCardinality(String),
        stage LowCardinality(String),
        accepted UInt8,
        rejection_code LowCardinality(String),
        threat_count UInt16
    ) ENGINE = MergeTree
    PARTITION BY toYYYYMMDD(ts)
    ORDER BY (source, ts)`,
	`CREATE TABLE IF NOT EXISTS swapgate.audit_threats (
        ts DateTime64(3),
        quote_id String,
        threat_id String,
        threat_code LowCardinality(String),
        detected_field String,
        actual_value String,
        policy_threshold String,
        severity LowCardinality(String),
        detection_layer LowCardinality(String)
    ) ENGINE = MergeTree
    PARTITION BY toYYYYMMDD(ts)
    ORDER BY (threat_code, ts)`,
}

// ClickHouseAuditStore implements AuditStore backed by ClickHouse.
type ClickHouseAuditStore struct {
	client *pkgch.Client
	db     *sql.DB
	l      *applogger.Logger
}

func NewClickHouseAuditStore(ch *pkgch.Client) *ClickHouseAuditStore {
	return &ClickHouseAuditStore{client: ch, db: ch.DB()}
}

// SetLogger injects a structured logger.
func (s *ClickHouseAuditStore) SetLogger(l *applogger.Logger) { s.l = l }

func (s *ClickHouseAuditStore) Init(ctx context.Context) error {
	return s.client.InitSchema(ctx, auditSchema)
}

func (s *ClickHouseAuditStore) RecordDecision(ctx context.Context, rec models.DecisionRecord) error {
	const q = `INSERT INTO swapgate.audit_decisions
        (ts, quote_id, plan_id, source, stage, accepted, rejection_code, threat_count)
        VALUES (?, ?, ?, ?, ?, ?, ?, ?)`
	accepted := uint8(0)
	if rec.Accepted {
		accepted = 1
	}
	_, err := s.db.ExecContext(ctx, q,
		rec.Timestamp,
		rec.QuoteID,
		rec.PlanID,
		rec.Source,
		rec.Stage,
		accepted,
		rec.RejectionCode,
		uint16(rec.ThreatCount),
	)
	if err != nil {
		if s.l != nil {
			s.l.Error("clickhouse record_decision insert error",
				applogger.String("quote_id", rec.QuoteID),
				applogger.String("stage", rec.Stage),
				applogger.Error(err),
			)
		}
		return fmt.Errorf("record decision: %w", err)
	}
	return nil
}

func (s *ClickHouseAuditStore) RecordThreat(ctx context.Context, quoteID string, t models.AdversarialThreat) error {
	const q = `INSERT INTO swapgate.audit_threats
        (ts, quote_id, threat_id, threat_code, detected_field, actual_value, policy_threshold, severity, detection_layer)
        VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`
	_, err := s.db.ExecContext(ctx, q,
		t.DetectedAt,
		quoteID,
		t.ID,
		t.Code,
		t.DetectedField,
		t.ActualValue,
		t.PolicyThreshold,
		string(t.Severity),
		string(t.DetectionLayer),
	)
	if err != nil {
		if s.l != nil {
			s.l.Error("clickhouse record_threat insert error",
				applogger.String("quote_id", quoteID),
				applogger.String("threat_code", t.Code),
				applogger.Error(err),
			)
		}
		return fmt.Errorf("record threat: %w", err)
	}
	return nil
}

func (s *ClickHouseAuditStore) QueryDecisions(ctx context.Context, source string, from, to time.Time, limit int) ([]models.DecisionRecord, error) {
	start := time.Now()
	q := `SELECT ts, quote_id, plan_id, source, stage, accepted, rejection_code, threat_count
        FROM swapgate.audit_decisions
        WHERE ts >= ? AND ts <= ?`
	args := []interface{}{from, to}
	if source != "" {
		q += " AND source = ?"
		args = append(args, source)
	}
	q += " ORDER BY ts DESC LIMIT ?"
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		if s.l != nil {
			s.l.Error("clickhouse query_decisions error",
				applogger.String("source", source),
				applogger.Error(err),
			)
		}
		return nil, fmt.Errorf("query decisions: %w", err)
	}
	defer rows.Close()

	out := make([]models.DecisionRecord, 0, limit)
	for rows.Next() {
		var rec models.DecisionRecord
		var accepted uint8
		var threatCount uint16
		if err := rows.Scan(&rec.Timestamp, &rec.QuoteID, &rec.PlanID, &rec.Source, &rec.Stage, &accepted, &rec.RejectionCode, &threatCount); err != nil {
			return nil, fmt.Errorf("scan decision: %w", err)
		}
		rec.Accepted = accepted == 1
		rec.ThreatCount = int(threatCount)
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows: %w", err)
	}
	if s.l != nil {
		s.l.Info("clickhouse query_decisions ok",
			applogger.String("source", source),
			applogger.Int("rows", len(out)),
			applogger.Duration("duration_ms", time.Since(start)),
		)
	}
	return out, nil
}

func (s *ClickHouseAuditStore) Health(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *ClickHouseAuditStore) Close() error {
	return s.client.Close()
}

var _ domrepo.AuditStore = (*ClickHouseAuditStore)(nil)
