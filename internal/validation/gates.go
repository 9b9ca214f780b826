package validation

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"SwapGate/internal/domain/models"
)

// Rejection codes returned by the policy gates.
const (
	CodeMissingFields     = "QUOTE_MISSING_FIELDS"
	CodeInvalidTokens     = "QUOTE_INVALID_TOKENS"
	CodeExpired           = "QUOTE_EXPIRED"
	CodeExcessiveSlippage = "QUOTE_EXCESSIVE_SLIPPAGE"
	CodeLowConfidence     = "QUOTE_LOW_CONFIDENCE"
)

// Policy defaults.
var (
	DefaultMaxSlippage   = decimal.NewFromInt(10) // percent
	DefaultMinConfidence = 0.8
)

// GateEngine applies the ordered, non-overridable policy gates to a quote
// that passed the L1 filter. The first failing gate's code is the rejection
// code and evaluation stops; that ordering is part of the contract.
//
// The engine deliberately accepts no skip, bypass or override input of any
// kind; non-overridability is a property of this interface, not a convention.
type GateEngine struct {
	maxSlippage   decimal.Decimal
	minConfidence float64
	approved      []string
	extensions    []models.PolicyGate
}

// GateOption configures a GateEngine.
type GateOption func(*GateEngine)

// WithMaxSlippage sets the maximum slippage tolerance in percent.
func WithMaxSlippage(max decimal.Decimal) GateOption {
	return func(e *GateEngine) {
		if max.IsPositive() {
			e.maxSlippage = max
		}
	}
}

// WithMinConfidence sets the minimum market confidence.
func WithMinConfidence(min float64) GateOption {
	return func(e *GateEngine) {
		if min > 0 && min <= 1 {
			e.minConfidence = min
		}
	}
}

// WithApprovedTokens supplies the token whitelist. Without a whitelist the
// membership gate does not run.
func WithApprovedTokens(tokens []string) GateOption {
	return func(e *GateEngine) {
		e.approved = append([]string(nil), tokens...)
	}
}

// WithExtensionGates appends data-driven gates evaluated after the built-in
// six, in the given order.
func WithExtensionGates(gates ...models.PolicyGate) GateOption {
	return func(e *GateEngine) {
		e.extensions = append(e.extensions, gates...)
	}
}

// NewGateEngine creates an engine with default policy thresholds.
func NewGateEngine(opts ...GateOption) *GateEngine {
	e := &GateEngine{
		maxSlippage:   DefaultMaxSlippage,
		minConfidence: DefaultMinConfidence,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Evaluate runs every gate in order against the quote. It returns whether the
// quote is accepted and, on rejection, the failing gate's code. Evaluation is
// a pure function of (engine config, quote, now).
func (e *GateEngine) Evaluate(q models.Quote, now time.Time) (bool, string) {
	// Gate 1: required fields.
	if !hasRequiredFields(q) {
		return false, CodeMissingFields
	}

	// Gate 2: tokens distinct.
	if strings.EqualFold(q.FromToken, q.ToToken) {
		return false, CodeInvalidTokens
	}

	// Gate 3: token whitelist, only when one was supplied.
	if len(e.approved) > 0 {
		if !e.onWhitelist(q.FromToken) || !e.onWhitelist(q.ToToken) {
			return false, CodeInvalidTokens
		}
	}

	// Gate 4: expiry.
	if q.Expired(now) {
		return false, CodeExpired
	}

	// Gate 5: slippage cap.
	if q.Slippage.GreaterThan(e.maxSlippage) {
		return false, CodeExcessiveSlippage
	}

	// Gate 6: confidence floor.
	if q.MarketConfidence < e.minConfidence {
		return false, CodeLowConfidence
	}

	for _, g := range e.extensions {
		if !EvaluateGate(g, q) {
			return false, g.RejectionCode
		}
	}

	return true, ""
}

func (e *GateEngine) onWhitelist(token string) bool {
	for _, a := range e.approved {
		if strings.EqualFold(a, token) {
			return true
		}
	}
	return false
}

func hasRequiredFields(q models.Quote) bool {
	if q.ID == "" || strings.TrimSpace(q.FromToken) == "" || strings.TrimSpace(q.ToToken) == "" {
		return false
	}
	if q.Source == "" || q.ExpiresAt.IsZero() {
		return false
	}
	return true
}

// EvaluateGate applies a single data-driven gate to a quote. Unsatisfiable
// configurations (set operator without a set, numeric operator on a textual
// field, and so on) evaluate to false: the gate fails closed rather than
// surfacing a distinct error outcome.
func EvaluateGate(g models.PolicyGate, q models.Quote) bool {
	switch g.Operator {
	case models.OpIn, models.OpNotIn:
		if len(g.ThresholdSet) == 0 {
			return false
		}
		v, ok := g.Field.TextValue(q)
		if !ok {
			return false
		}
		member := false
		for _, s := range g.ThresholdSet {
			if strings.EqualFold(s, v) {
				member = true
				break
			}
		}
		if g.Operator == models.OpIn {
			return member
		}
		return !member
	case models.OpLTE, models.OpGTE, models.OpLT, models.OpGT, models.OpEQ, models.OpNEQ:
		v, ok := g.Field.NumericValue(q)
		if !ok {
			return false
		}
		switch g.Operator {
		case models.OpLTE:
			return v.LessThanOrEqual(g.Threshold)
		case models.OpGTE:
			return v.GreaterThanOrEqual(g.Threshold)
		case models.OpLT:
			return v.LessThan(g.Threshold)
		case models.OpGT:
			return v.GreaterThan(g.Threshold)
		case models.OpEQ:
			return v.Equal(g.Threshold)
		case models.OpNEQ:
			return !v.Equal(g.Threshold)
		}
	}
	return false
}

// CompileGate builds a PolicyGate from configuration values. Unknown fields
// and operators are rejected here, at load time, never during evaluation.
func CompileGate(id, description, operator, field, rejectionCode, threshold string, thresholdSet []string) (models.PolicyGate, error) {
	op, err := models.ParseOperator(operator)
	if err != nil {
		return models.PolicyGate{}, err
	}
	key, err := models.ResolveField(field)
	if err != nil {
		return models.PolicyGate{}, err
	}

	g := models.PolicyGate{
		ID:            id,
		Description:   description,
		Operator:      op,
		Field:         key,
		RejectionCode: rejectionCode,
		ThresholdSet:  append([]string(nil), thresholdSet...),
	}
	if op != models.OpIn && op != models.OpNotIn {
		t, err := decimal.NewFromString(threshold)
		if err != nil {
			return models.PolicyGate{}, err
		}
		g.Threshold = t
	}
	return g, nil
}
