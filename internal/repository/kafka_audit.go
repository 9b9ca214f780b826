package repository

import (
	"context"

	"SwapGate/internal/domain/models"
	"SwapGate/internal/domain/repository"
	pkgkafka "SwapGate/pkg/kafka"
)

// KafkaAuditSink implements AuditSink on a Kafka topic. Records are keyed
// by quote ID so per-quote ordering survives partitioning.
type KafkaAuditSink struct {
	producer *pkgkafka.Producer
	topic    string
}

// NewKafkaAuditSink creates a Kafka-backed audit sink.
func NewKafkaAuditSink(producer *pkgkafka.Producer, topic string) *KafkaAuditSink {
	return &KafkaAuditSink{producer: producer, topic: topic}
}

var _ repository.AuditSink = (*KafkaAuditSink)(nil)

func (s *KafkaAuditSink) RecordDecision(ctx context.Context, rec models.DecisionRecord) error {
	key := rec.QuoteID
	if key == "" {
		key = rec.PlanID
	}
	return s.producer.Publish(ctx, s.topic, []byte(key), map[string]interface{}{
		"kind":           "decision",
		"quote_id":       rec.QuoteID,
		"plan_id":        rec.PlanID,
		"source":         rec.Source,
		"stage":          rec.Stage,
		"accepted":       rec.Accepted,
		"rejection_code": rec.RejectionCode,
		"threat_count":   rec.ThreatCount,
		"ts":             rec.Timestamp.UnixMilli(),
	})
}

func (s *KafkaAuditSink) RecordThreat(ctx context.Context, quoteID string, t models.AdversarialThreat) error {
	return s.producer.Publish(ctx, s.topic, []byte(quoteID), map[string]interface{}{
		"kind":            "threat",
		"quote_id":        quoteID,
		"threat_id":       t.ID,
		"threat_code":     t.Code,
		"detected_field":  t.DetectedField,
		"actual_value":    t.ActualValue,
		"threshold":       t.PolicyThreshold,
		"severity":        string(t.Severity),
		"detection_layer": string(t.DetectionLayer),
		"ts":              t.DetectedAt.UnixMilli(),
	})
}

// PublishMessage satisfies the log collector's publisher contract so
// aggregated error logs ride the same audit topic.
func (s *KafkaAuditSink) PublishMessage(ctx context.Context, topic string, payload interface{}) error {
	return s.producer.Publish(ctx, topic, nil, payload)
}

func (s *KafkaAuditSink) Close() error {
	if s.producer != nil {
		return s.producer.Close()
	}
	return nil
}
