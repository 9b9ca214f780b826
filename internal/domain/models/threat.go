package models

import (
	"time"

	"github.com/google/uuid"
)

// ThreatType is the closed set of adversarial patterns the system detects.
type ThreatType string

const (
	ThreatTokenSpoofing     ThreatType = "THREAT_TOKEN_SPOOFING"
	ThreatDecimalExploit    ThreatType = "THREAT_DECIMAL_EXPLOIT"
	ThreatUnusualParameters ThreatType = "THREAT_UNUSUAL_PARAMETERS"
	ThreatReplayAttempt     ThreatType = "THREAT_REPLAY_ATTEMPT"
	ThreatOverrideAttempt   ThreatType = "THREAT_OVERRIDE_ATTEMPT"
)

// Severity grades a detected threat.
type Severity string

const (
	SeverityInfo     Severity = "INFO"
	SeverityWarning  Severity = "WARNING"
	SeverityMedium   Severity = "MEDIUM"
	SeverityHigh     Severity = "HIGH"
	SeverityCritical Severity = "CRITICAL"
)

// DetectionLayer marks which pipeline stage produced a threat record.
type DetectionLayer string

const (
	LayerL1 DetectionLayer = "L1_PRE_FILTER"
	LayerL3 DetectionLayer = "L3_POST_GATE"
)

// AdversarialThreat records a single detection. It is created at detection
// time, handed to the audit sink and the rejection response, and never
// mutated. Observed values are carried as text, never raw secrets.
type AdversarialThreat struct {
	ID                string         `json:"threat_id"`
	Type              ThreatType     `json:"threat_type"`
	Code              string         `json:"threat_code"`
	DetectedField     string         `json:"detected_field"`
	ActualValue       string         `json:"actual_value"`
	PolicyThreshold   string         `json:"policy_threshold"`
	RejectionReason   string         `json:"rejection_reason"`
	Severity          Severity       `json:"severity"`
	DetectedAt        time.Time      `json:"detected_at"`
	DetectionLayer    DetectionLayer `json:"detection_layer"`
	RecommendedAction string         `json:"recommended_action"`
}

// NewThreat builds a threat record for the given detection.
func NewThreat(
	ttype ThreatType,
	field, actual, threshold, reason string,
	severity Severity,
	layer DetectionLayer,
	action string,
	now time.Time,
) AdversarialThreat {
	return AdversarialThreat{
		ID:                uuid.NewString(),
		Type:              ttype,
		Code:              string(ttype),
		DetectedField:     field,
		ActualValue:       actual,
		PolicyThreshold:   threshold,
		RejectionReason:   reason,
		Severity:          severity,
		DetectedAt:        now,
		DetectionLayer:    layer,
		RecommendedAction: action,
	}
}
