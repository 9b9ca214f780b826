package models

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"time"
)

// ProofType enumerates the custody proof schemas.
type ProofType string

const (
	ProofBalanceMerkle       ProofType = "balance_merkle"
	ProofCommitmentPreimage  ProofType = "commitment_preimage"
	ProofMultisigRequirement ProofType = "multisig_requirement"
	ProofZeroKnowledge       ProofType = "zero_knowledge_proof"
)

// CustodyProof is immutable cryptographic evidence that the proposer retained
// control of funds. VerificationHash is computed over the canonicalized
// content at creation; any later content change makes verification fail.
type CustodyProof struct {
	ID                 string            `json:"proof_id"`
	Type               ProofType         `json:"proof_type"`
	Content            map[string]string `json:"proof_content"`
	VerificationMethod string            `json:"verification_method"`
	VerificationHash   string            `json:"verification_hash"`
	CreatedAt          time.Time         `json:"created_at"`
	ExpiresAt          time.Time         `json:"expires_at"`
}

// ContentHash recomputes the SHA-256 digest of the canonicalized (sorted-key)
// proof content.
func (p CustodyProof) ContentHash() string {
	// encoding/json marshals map keys in sorted order, which is exactly the
	// canonical form the verification hash is defined over.
	b, err := json.Marshal(p.Content)
	if err != nil {
		return ""
	}
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:])
}

// Expired reports whether the proof's validity window has elapsed.
func (p CustodyProof) Expired(now time.Time) bool {
	return now.After(p.ExpiresAt)
}
