package validation

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"SwapGate/internal/domain/models"
)

func TestBalanceMerkleRoundTrip(t *testing.T) {
	now := testNow()
	issuer := NewProofIssuer()

	p := issuer.BalanceMerkle("0xabc0000000000000000000000000000000000001", decimal.NewFromInt(10), now)
	if p.Type != models.ProofBalanceMerkle {
		t.Fatalf("unexpected proof type %s", p.Type)
	}
	if !VerifyProof(p, now) {
		t.Fatalf("fresh proof must verify")
	}
	if !VerifyProof(p, now.Add(23*time.Hour)) {
		t.Fatalf("proof must verify inside the validity window")
	}
}

func TestProofExpiry(t *testing.T) {
	now := testNow()
	issuer := NewProofIssuer(WithProofTTL(time.Hour))

	p := issuer.BalanceMerkle("0xabc0000000000000000000000000000000000001", decimal.NewFromInt(10), now)
	if VerifyProof(p, now.Add(time.Hour+time.Second)) {
		t.Fatalf("expired proof must not verify")
	}
}

func TestProofTamperDetection(t *testing.T) {
	now := testNow()
	issuer := NewProofIssuer()

	p := issuer.BalanceMerkle("0xabc0000000000000000000000000000000000001", decimal.NewFromInt(10), now)
	p.Content["balance_before"] = "999999"

	if VerifyProof(p, now) {
		t.Fatalf("tampered content must not verify")
	}
}

func TestProofWithoutContentInvalid(t *testing.T) {
	now := testNow()
	p := models.CustodyProof{ExpiresAt: now.Add(time.Hour)}
	if VerifyProof(p, now) {
		t.Fatalf("empty proof must not verify")
	}
}

func TestCommitmentPreimageBindsPlan(t *testing.T) {
	now := testNow()
	issuer := NewProofIssuer()

	p := issuer.CommitmentPreimage("0xabc0000000000000000000000000000000000001", "plan-9", now)
	if p.Content["preimage"] != "0xabc0000000000000000000000000000000000001:plan-9" {
		t.Fatalf("unexpected preimage %q", p.Content["preimage"])
	}
	if !VerifyProof(p, now) {
		t.Fatalf("commitment proof must verify")
	}
}

func TestIssueForPlanPrivacyRouting(t *testing.T) {
	now := testNow()
	issuer := NewProofIssuer()
	user := "0xabc0000000000000000000000000000000000001"

	direct := models.TransactionPlan{ID: "plan-a", Route: []string{"0x01"}}
	proofs := issuer.IssueForPlan(direct, user, decimal.NewFromInt(5), now)
	if len(proofs) != 1 || proofs[0].Type != models.ProofBalanceMerkle {
		t.Fatalf("expected a single balance-merkle proof, got %v", proofs)
	}

	routed := models.TransactionPlan{ID: "plan-b", Route: []string{"0x01", "0x02", "0x03"}}
	proofs = issuer.IssueForPlan(routed, user, decimal.NewFromInt(5), now)
	if len(proofs) != 2 {
		t.Fatalf("expected merkle + commitment for privacy routing, got %d", len(proofs))
	}
	if proofs[1].Type != models.ProofCommitmentPreimage {
		t.Fatalf("expected commitment proof, got %s", proofs[1].Type)
	}
}

func TestExplicitProofTypes(t *testing.T) {
	now := testNow()
	issuer := NewProofIssuer()

	ms := issuer.MultisigRequirement("0xabc0000000000000000000000000000000000001", 3, now)
	if ms.Type != models.ProofMultisigRequirement || !VerifyProof(ms, now) {
		t.Fatalf("multisig proof invalid")
	}
	if ms.Content["signer_structure"] != "Multisig_M_of_3" {
		t.Fatalf("unexpected signer structure %q", ms.Content["signer_structure"])
	}

	zk := issuer.ZeroKnowledge("plan-zk-12345", now)
	if zk.Type != models.ProofZeroKnowledge || !VerifyProof(zk, now) {
		t.Fatalf("zkp proof invalid")
	}
}

func TestVerifyPlanCustody(t *testing.T) {
	now := testNow()
	issuer := NewProofIssuer()
	user := "0xabc0000000000000000000000000000000000001"

	plan := models.TransactionPlan{ID: "plan-c"}
	if VerifyPlanCustody(plan, now) {
		t.Fatalf("plan without proofs must be custody-invalid")
	}

	plan = plan.WithProofs(issuer.IssueForPlan(plan, user, decimal.NewFromInt(5), now))
	if !VerifyPlanCustody(plan, now) {
		t.Fatalf("plan with fresh proofs must be custody-valid")
	}

	// One tampered proof invalidates the whole plan.
	plan.Proofs[0].Content["nonce"] = "forged"
	if VerifyPlanCustody(plan, now) {
		t.Fatalf("plan with a tampered proof must be custody-invalid")
	}
}

func TestNonceVariesPerProof(t *testing.T) {
	now := testNow()
	issuer := NewProofIssuer()
	user := "0xabc0000000000000000000000000000000000001"

	a := issuer.BalanceMerkle(user, decimal.NewFromInt(5), now)
	b := issuer.BalanceMerkle(user, decimal.NewFromInt(5), now)
	if a.Content["nonce"] == b.Content["nonce"] {
		t.Fatalf("nonce must be random per call")
	}
	if a.VerificationHash == b.VerificationHash {
		t.Fatalf("distinct nonces must yield distinct hashes")
	}
}

func TestPinnedNonceSource(t *testing.T) {
	now := testNow()
	issuer := NewProofIssuer(WithNonceSource(func() string { return "fixed" }))
	user := "0xabc0000000000000000000000000000000000001"

	a := issuer.BalanceMerkle(user, decimal.NewFromInt(5), now)
	b := issuer.BalanceMerkle(user, decimal.NewFromInt(5), now)
	if a.VerificationHash != b.VerificationHash {
		t.Fatalf("pinned nonce must yield identical hashes")
	}
}
