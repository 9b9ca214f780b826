package models

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Operator is a gate comparison operator.
type Operator string

const (
	OpLTE   Operator = "<="
	OpGTE   Operator = ">="
	OpLT    Operator = "<"
	OpGT    Operator = ">"
	OpEQ    Operator = "=="
	OpNEQ   Operator = "!="
	OpIn    Operator = "in"
	OpNotIn Operator = "not_in"
)

// ParseOperator resolves a configured operator string.
func ParseOperator(s string) (Operator, error) {
	switch Operator(s) {
	case OpLTE, OpGTE, OpLT, OpGT, OpEQ, OpNEQ, OpIn, OpNotIn:
		return Operator(s), nil
	}
	return "", fmt.Errorf("unknown gate operator %q", s)
}

// FieldKey is the closed enumeration of Quote fields a data-driven gate may
// inspect. Gate configurations referencing anything else fail at load time,
// not at evaluation time.
type FieldKey string

const (
	FieldSource           FieldKey = "source"
	FieldFromToken        FieldKey = "from_token"
	FieldToToken          FieldKey = "to_token"
	FieldFromAmount       FieldKey = "from_amount"
	FieldToAmount         FieldKey = "to_amount"
	FieldSlippage         FieldKey = "slippage_tolerance"
	FieldMarketConfidence FieldKey = "market_confidence"
	FieldPriceImpact      FieldKey = "price_impact"
	FieldExecutionFee     FieldKey = "execution_fee"
)

// ResolveField maps a configured field name onto a known Quote field.
func ResolveField(name string) (FieldKey, error) {
	switch FieldKey(name) {
	case FieldSource, FieldFromToken, FieldToToken, FieldFromAmount,
		FieldToAmount, FieldSlippage, FieldMarketConfidence,
		FieldPriceImpact, FieldExecutionFee:
		return FieldKey(name), nil
	}
	return "", fmt.Errorf("unknown quote field %q", name)
}

// NumericValue returns the quote's value for numeric fields.
func (k FieldKey) NumericValue(q Quote) (decimal.Decimal, bool) {
	switch k {
	case FieldFromAmount:
		return q.FromAmount, true
	case FieldToAmount:
		return q.ToAmount, true
	case FieldSlippage:
		return q.Slippage, true
	case FieldMarketConfidence:
		return decimal.NewFromFloat(q.MarketConfidence), true
	case FieldPriceImpact:
		return q.PriceImpact, true
	case FieldExecutionFee:
		return q.ExecutionFee, true
	}
	return decimal.Decimal{}, false
}

// TextValue returns the quote's value for textual fields.
func (k FieldKey) TextValue(q Quote) (string, bool) {
	switch k {
	case FieldSource:
		return string(q.Source), true
	case FieldFromToken:
		return q.FromToken, true
	case FieldToToken:
		return q.ToToken, true
	}
	return "", false
}

// PolicyGate is an immutable data-driven gate definition for extensions beyond
// the fixed built-in gates. Every gate rejects with no override; enforcement is
// deliberately not a field, so a bypassable gate is unrepresentable.
type PolicyGate struct {
	ID            string
	Description   string
	Operator      Operator
	Field         FieldKey
	Threshold     decimal.Decimal // numeric operators
	ThresholdSet  []string        // in / not_in operators
	RejectionCode string
}
