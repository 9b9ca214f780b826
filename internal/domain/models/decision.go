package models

import "time"

// Decision is the pipeline verdict for a quote or a plan. It is a pure value:
// no secrets, no amounts beyond what the caller already supplied.
type Decision struct {
	Accepted      bool                `json:"accepted"`
	RejectionCode string              `json:"rejection_code,omitempty"`
	Threats       []AdversarialThreat `json:"threats,omitempty"`
}

// Reject builds a rejection decision carrying the detected threats.
func Reject(code string, threats ...AdversarialThreat) Decision {
	return Decision{Accepted: false, RejectionCode: code, Threats: threats}
}

// Accept builds an acceptance decision.
func Accept() Decision {
	return Decision{Accepted: true}
}

// DecisionRecord is the structured audit entry emitted for every decision.
// The core only produces the value; sinks format and transport it.
type DecisionRecord struct {
	QuoteID       string    `json:"quote_id,omitempty"`
	PlanID        string    `json:"plan_id,omitempty"`
	Source        string    `json:"source,omitempty"`
	Stage         string    `json:"stage"` // "quote" or "plan"
	Accepted      bool      `json:"accepted"`
	RejectionCode string    `json:"rejection_code,omitempty"`
	ThreatCount   int       `json:"threat_count"`
	Timestamp     time.Time `json:"timestamp"`
}
