package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder implements domain.repository.Metrics using Prometheus.
type Recorder struct {
	decisions     *prometheus.CounterVec
	threats       *prometheus.CounterVec
	errorsTotal   *prometheus.CounterVec
	replayEntries prometheus.Gauge
	stageDuration *prometheus.HistogramVec
}

// New creates a new Prometheus metrics recorder.
func New() *Recorder {
	return &Recorder{
		decisions: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "swapgate_decisions_total",
				Help: "Total number of validation decisions by outcome",
			},
			[]string{"stage", "outcome", "code"},
		),
		threats: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "swapgate_threats_total",
				Help: "Total number of detected adversarial threats",
			},
			[]string{"type", "layer", "severity"},
		),
		errorsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "swapgate_errors_total",
				Help: "Total number of errors encountered",
			},
			[]string{"type"},
		),
		replayEntries: promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "swapgate_replay_entries",
				Help: "Fingerprints currently tracked by the replay detector",
			},
		),
		stageDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "swapgate_stage_duration_seconds",
				Help:    "Duration of validation stages in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"stage"},
		),
	}
}

// RecordDecision records a validation decision. code is empty for accepts.
func (r *Recorder) RecordDecision(stage string, accepted bool, code string) {
	outcome := "accepted"
	if !accepted {
		outcome = "rejected"
	}
	r.decisions.WithLabelValues(stage, outcome, code).Inc()
}

// RecordThreat records a detected threat occurrence.
func (r *Recorder) RecordThreat(threatType, layer, severity string) {
	r.threats.WithLabelValues(threatType, layer, severity).Inc()
}

// RecordError records an error occurrence.
func (r *Recorder) RecordError(kind string) {
	r.errorsTotal.WithLabelValues(kind).Inc()
}

// RecordReplayEntries records the current replay detector population.
func (r *Recorder) RecordReplayEntries(n int) {
	r.replayEntries.Set(float64(n))
}

// RecordStageDuration records a validation stage latency in seconds.
func (r *Recorder) RecordStageDuration(stage string, seconds float64) {
	r.stageDuration.WithLabelValues(stage).Observe(seconds)
}
