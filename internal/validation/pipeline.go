package validation

import (
	"time"

	"SwapGate/internal/domain/models"
)

// Pipeline chains the validation layers: L1 threat filter, L2 policy gates,
// then (for plans) custody verification and the L3 post-gate filter. Each
// stage can terminate with a rejection; no later stage runs after one. A
// single invocation completes synchronously; callers wanting throughput run
// independent quotes concurrently.
type Pipeline struct {
	filter   *ThreatFilter
	gates    *GateEngine
	approved []string
}

// NewPipeline wires the layers together. The approved token set is shared by
// the threat filter (spoofing) and the gate engine (whitelist membership).
func NewPipeline(filter *ThreatFilter, gates *GateEngine, approved []string) *Pipeline {
	return &Pipeline{
		filter:   filter,
		gates:    gates,
		approved: append([]string(nil), approved...),
	}
}

// ValidateQuote runs L1 then L2 on a raw quote. A non-empty L1 threat list
// rejects with the first threat's code before any gate is consulted.
func (p *Pipeline) ValidateQuote(q models.Quote, now time.Time) models.Decision {
	threats := p.filter.Detect(q, p.approved, models.LayerL1, now)
	if len(threats) > 0 {
		return models.Reject(threats[0].Code, threats...)
	}

	ok, code := p.gates.Evaluate(q, now)
	if !ok {
		return models.Reject(code)
	}
	return models.Accept()
}

// ReleasePlan re-checks a materialized plan before release: the L3 filter runs
// against the plan's resolved parameters, then the custody evidence must
// verify. A plan without at least one valid custody proof is never released.
func (p *Pipeline) ReleasePlan(plan models.TransactionPlan, now time.Time) models.Decision {
	threats := p.filter.DetectPlan(plan, p.approved, now)
	if len(threats) > 0 {
		return models.Reject(threats[0].Code, threats...)
	}

	if !VerifyPlanCustody(plan, now) {
		return models.Reject(CodeCustodyInvalid)
	}
	return models.Accept()
}

// ApprovedTokens returns a copy of the configured whitelist.
func (p *Pipeline) ApprovedTokens() []string {
	return append([]string(nil), p.approved...)
}
