package models

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// QuotePayload is the wire form of a swap quote. Amounts travel as strings so
// precision survives JSON; ToQuote parses them into exact decimals.
type QuotePayload struct {
	Source           string  `json:"source" validate:"required,oneof=dex market-maker user"`
	FromToken        string  `json:"from_token" validate:"required"`
	ToToken          string  `json:"to_token" validate:"required"`
	FromAmount       string  `json:"from_amount" validate:"required"`
	ToAmount         string  `json:"to_amount" validate:"required"`
	Slippage         string  `json:"slippage_tolerance" default:"0.5"`
	MarketConfidence float64 `json:"market_confidence" default:"1.0" validate:"gte=0,lte=1"`
	PriceImpact      string  `json:"price_impact" default:"0"`
	ExecutionFee     string  `json:"execution_fee" default:"0"`
	TTLSeconds       int     `json:"ttl_seconds" default:"30" validate:"gt=0,lte=3600"`
}

// ToQuote materializes the payload into a freshly stamped quote.
func (p QuotePayload) ToQuote(now time.Time) (Quote, error) {
	fromAmount, err := decimal.NewFromString(p.FromAmount)
	if err != nil {
		return Quote{}, fmt.Errorf("from_amount: %w", err)
	}
	toAmount, err := decimal.NewFromString(p.ToAmount)
	if err != nil {
		return Quote{}, fmt.Errorf("to_amount: %w", err)
	}
	slippage, err := decimal.NewFromString(p.Slippage)
	if err != nil {
		return Quote{}, fmt.Errorf("slippage_tolerance: %w", err)
	}
	priceImpact, err := decimal.NewFromString(p.PriceImpact)
	if err != nil {
		return Quote{}, fmt.Errorf("price_impact: %w", err)
	}
	executionFee, err := decimal.NewFromString(p.ExecutionFee)
	if err != nil {
		return Quote{}, fmt.Errorf("execution_fee: %w", err)
	}
	return NewQuote(
		QuoteSource(p.Source),
		p.FromToken, p.ToToken,
		fromAmount, toAmount, slippage,
		p.MarketConfidence,
		priceImpact, executionFee,
		now.Add(time.Duration(p.TTLSeconds)*time.Second),
	), nil
}

// QuoteValidateRequest is the body of POST /api/quotes/validate. A present
// skip_validation flag never skips anything; it is recorded as an override
// attempt and validation proceeds unchanged.
type QuoteValidateRequest struct {
	QuotePayload
	SkipValidation bool `json:"skip_validation"`
}

// ProofPayload is the wire form of a pre-issued custody proof.
type ProofPayload struct {
	ID                 string            `json:"proof_id"`
	Type               string            `json:"proof_type" validate:"required,oneof=balance_merkle commitment_preimage multisig_requirement zero_knowledge_proof"`
	Content            map[string]string `json:"content" validate:"required"`
	VerificationMethod string            `json:"verification_method"`
	VerificationHash   string            `json:"verification_hash" validate:"required"`
	CreatedAt          time.Time         `json:"created_at"`
	ExpiresAt          time.Time         `json:"expires_at" validate:"required"`
}

// ToProof converts the payload into the domain proof value.
func (p ProofPayload) ToProof() CustodyProof {
	return CustodyProof{
		ID:                 p.ID,
		Type:               ProofType(p.Type),
		Content:            p.Content,
		VerificationMethod: p.VerificationMethod,
		VerificationHash:   p.VerificationHash,
		CreatedAt:          p.CreatedAt,
		ExpiresAt:          p.ExpiresAt,
	}
}

// PlanReleaseRequest is the body of POST /api/plans/release. When no proofs
// are supplied the standard custody evidence is issued server-side.
type PlanReleaseRequest struct {
	PlanID        string         `json:"plan_id"`
	UserAddress   string         `json:"user_address" validate:"required"`
	Route         []string       `json:"route"`
	BalanceBefore string         `json:"balance_before" default:"0"`
	Quote         QuotePayload   `json:"quote" validate:"required"`
	Proofs        []ProofPayload `json:"proofs" validate:"omitempty,dive"`
}

// AuditDecisionsRequest filters GET /api/audit/decisions.
type AuditDecisionsRequest struct {
	Source   string `query:"source" validate:"omitempty,oneof=dex market-maker user"`
	Lookback string `query:"lookback"`
	From     string `query:"from"`
	To       string `query:"to"`
	Limit    int    `query:"limit" default:"100" validate:"gt=0,lte=1000"`
}
