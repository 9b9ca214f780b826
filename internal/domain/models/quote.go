package models

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// QuoteSource identifies who published a swap quote.
type QuoteSource string

const (
	SourceDEX         QuoteSource = "dex"
	SourceMarketMaker QuoteSource = "market-maker"
	SourceUser        QuoteSource = "user"
)

// Quote is a swap proposal under evaluation. It is a value type and must be
// treated as immutable after construction: re-validation always starts from a
// freshly constructed Quote, never a mutated one, so the quote L3 sees is
// provably the quote L1 saw.
type Quote struct {
	ID               string
	CreatedAt        time.Time
	Source           QuoteSource
	FromToken        string
	ToToken          string
	FromAmount       decimal.Decimal
	ToAmount         decimal.Decimal
	Slippage         decimal.Decimal // percent
	MarketConfidence float64         // [0, 1]
	PriceImpact      decimal.Decimal // percent
	ExecutionFee     decimal.Decimal
	ExpiresAt        time.Time
}

// NewQuote constructs a quote with a fresh ID and creation timestamp.
func NewQuote(
	source QuoteSource,
	fromToken, toToken string,
	fromAmount, toAmount, slippage decimal.Decimal,
	confidence float64,
	priceImpact, executionFee decimal.Decimal,
	expiresAt time.Time,
) Quote {
	return Quote{
		ID:               uuid.NewString(),
		CreatedAt:        time.Now().UTC(),
		Source:           source,
		FromToken:        fromToken,
		ToToken:          toToken,
		FromAmount:       fromAmount,
		ToAmount:         toAmount,
		Slippage:         slippage,
		MarketConfidence: confidence,
		PriceImpact:      priceImpact,
		ExecutionFee:     executionFee,
		ExpiresAt:        expiresAt,
	}
}

// Expired reports whether the quote has expired as of now.
func (q Quote) Expired(now time.Time) bool {
	return now.After(q.ExpiresAt)
}

// Fingerprint derives a deterministic digest of the economically meaningful
// fields (token pair, source amount, slippage). It deliberately excludes the
// quote ID and timestamps so that semantically identical resubmissions collide
// in the replay detector.
func (q Quote) Fingerprint() string {
	seed := fmt.Sprintf("%s:%s:%s:%s",
		strings.ToLower(q.FromToken),
		strings.ToLower(q.ToToken),
		q.FromAmount.String(),
		q.Slippage.String(),
	)
	sum := sha256.Sum256([]byte(seed))
	return hex.EncodeToString(sum[:])
}

// Digest derives a digest of every field the filter and the gates read. Two
// quotes with equal digests are indistinguishable to the validation pipeline,
// which makes the digest a safe memoization key. Contrast Fingerprint, which
// deliberately covers only the replay-relevant fields.
func (q Quote) Digest() string {
	seed := fmt.Sprintf("%s:%s:%s:%s:%s:%s:%s:%s:%s:%d",
		q.Source,
		strings.ToLower(q.FromToken),
		strings.ToLower(q.ToToken),
		q.FromAmount.String(),
		q.ToAmount.String(),
		q.Slippage.String(),
		strconv.FormatFloat(q.MarketConfidence, 'f', -1, 64),
		q.PriceImpact.String(),
		q.ExecutionFee.String(),
		q.ExpiresAt.UnixNano(),
	)
	sum := sha256.Sum256([]byte(seed))
	return hex.EncodeToString(sum[:])
}
