package models

import "time"

// TransactionPlan is the executable plan an external planner materializes from
// an accepted quote. The core never constructs plans; it re-checks them (L3)
// and verifies their custody evidence before release.
type TransactionPlan struct {
	ID          string
	Quote       Quote // resolved quote the plan executes
	UserAddress string
	Route       []string // intermediate token addresses
	Proofs      []CustodyProof
	CreatedAt   time.Time
}

// WithProofs returns a copy of the plan carrying the given proofs. The
// original plan value is left untouched.
func (p TransactionPlan) WithProofs(proofs []CustodyProof) TransactionPlan {
	cp := p
	cp.Proofs = append([]CustodyProof(nil), proofs...)
	return cp
}

// PrivacyRouted reports whether the plan routes through enough intermediate
// addresses for privacy routing to be in effect.
func (p TransactionPlan) PrivacyRouted() bool {
	return len(p.Route) >= 3
}
