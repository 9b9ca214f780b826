package validation

import (
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"SwapGate/internal/domain/models"
)

// Detection-layer constants. These encode attack shapes rather than policy
// and are intentionally not part of the policy configuration.
var (
	defaultMinAmount = decimal.New(1, -8) // 1e-8
	defaultMaxAmount = decimal.New(1, 18) // 1e18

	unusualSlippage   = decimal.NewFromInt(99) // >= 99% slippage
	unusualConfidence = 0.1                    // < 0.1 confidence
)

const spoofingMaxDistance = 2

// ThreatFilter runs the adversarial checks shared by the L1 pre-filter and
// the L3 post-gate filter. Checks run in a fixed order; a token spoofing
// match short-circuits, the remaining checks are cumulative.
type ThreatFilter struct {
	catalog   *Catalog
	replay    *ReplayDetector
	minAmount decimal.Decimal
	maxAmount decimal.Decimal
}

// FilterOption configures a ThreatFilter.
type FilterOption func(*ThreatFilter)

// WithAmountBounds overrides the safe decimal range for source amounts.
func WithAmountBounds(min, max decimal.Decimal) FilterOption {
	return func(f *ThreatFilter) {
		if min.IsPositive() && max.GreaterThan(min) {
			f.minAmount = min
			f.maxAmount = max
		}
	}
}

// NewThreatFilter creates a filter backed by the given catalog and replay
// detector.
func NewThreatFilter(catalog *Catalog, replay *ReplayDetector, opts ...FilterOption) *ThreatFilter {
	f := &ThreatFilter{
		catalog:   catalog,
		replay:    replay,
		minAmount: defaultMinAmount,
		maxAmount: defaultMaxAmount,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Detect runs the checks against a raw quote. Order is part of the contract:
//  1. token spoofing - returns immediately on a match
//  2. decimal exploit
//  3. unusual parameters
//  4. replay attempt
//
// The returned slice is empty when no threat was found.
func (f *ThreatFilter) Detect(q models.Quote, approved []string, layer models.DetectionLayer, now time.Time) []models.AdversarialThreat {
	if len(approved) > 0 {
		if t, ok := f.detectTokenSpoofing(q, approved, layer, now); ok {
			return []models.AdversarialThreat{t}
		}
	}

	var threats []models.AdversarialThreat
	if t, ok := f.detectDecimalExploit(q, layer, now); ok {
		threats = append(threats, t)
	}
	if t, ok := f.detectUnusualParameters(q, layer, now); ok {
		threats = append(threats, t)
	}
	if t, ok := f.detectReplay(q, layer, now); ok {
		threats = append(threats, t)
	}
	return threats
}

// DetectPlan re-runs the detection against a materialized plan's resolved
// parameters (L3), catching threats introduced between L1 and plan
// construction, e.g. a routing step bringing in a near-whitelist token.
func (f *ThreatFilter) DetectPlan(p models.TransactionPlan, approved []string, now time.Time) []models.AdversarialThreat {
	if len(approved) > 0 {
		if t, ok := f.detectTokenSpoofing(p.Quote, approved, models.LayerL3, now); ok {
			return []models.AdversarialThreat{t}
		}
		for _, hop := range p.Route {
			if exactMatch(hop, approved) {
				continue
			}
			if t, ok := f.spoofMatch(hop, "route", approved, models.LayerL3, now); ok {
				return []models.AdversarialThreat{t}
			}
		}
	}

	var threats []models.AdversarialThreat
	if t, ok := f.detectDecimalExploit(p.Quote, models.LayerL3, now); ok {
		threats = append(threats, t)
	}
	if t, ok := f.detectUnusualParameters(p.Quote, models.LayerL3, now); ok {
		threats = append(threats, t)
	}
	if t, ok := f.detectReplay(p.Quote, models.LayerL3, now); ok {
		threats = append(threats, t)
	}
	return threats
}

// detectTokenSpoofing flags token addresses within hamming distance 2 of an
// approved address. The check only runs when neither token exact-matches the
// whitelist; exact matches mean the pair is either fully approved or will be
// caught by the whitelist gate.
func (f *ThreatFilter) detectTokenSpoofing(q models.Quote, approved []string, layer models.DetectionLayer, now time.Time) (models.AdversarialThreat, bool) {
	from := strings.ToLower(q.FromToken)
	to := strings.ToLower(q.ToToken)
	for _, a := range approved {
		al := strings.ToLower(a)
		if from == al || to == al {
			return models.AdversarialThreat{}, false
		}
	}
	if t, ok := f.spoofMatch(q.FromToken, "from_token", approved, layer, now); ok {
		return t, true
	}
	if t, ok := f.spoofMatch(q.ToToken, "to_token", approved, layer, now); ok {
		return t, true
	}
	return models.AdversarialThreat{}, false
}

func (f *ThreatFilter) spoofMatch(token, field string, approved []string, layer models.DetectionLayer, now time.Time) (models.AdversarialThreat, bool) {
	tl := strings.ToLower(token)
	for _, a := range approved {
		if hammingClose(tl, strings.ToLower(a), spoofingMaxDistance) {
			threshold := strings.Join(approved[:minInt(len(approved), 3)], ",")
			return models.NewThreat(
				models.ThreatTokenSpoofing,
				field,
				token,
				threshold,
				"Token address mismatch detected against whitelist",
				f.severityFor(models.ThreatTokenSpoofing, models.SeverityCritical),
				layer,
				"block_request_alert_security",
				now,
			), true
		}
	}
	return models.AdversarialThreat{}, false
}

func (f *ThreatFilter) detectDecimalExploit(q models.Quote, layer models.DetectionLayer, now time.Time) (models.AdversarialThreat, bool) {
	if q.FromAmount.LessThan(f.minAmount) || q.FromAmount.GreaterThan(f.maxAmount) {
		return models.NewThreat(
			models.ThreatDecimalExploit,
			"from_amount",
			q.FromAmount.String(),
			f.minAmount.String()+" - "+f.maxAmount.String(),
			"Amount precision outside safe range",
			f.severityFor(models.ThreatDecimalExploit, models.SeverityHigh),
			layer,
			"block_request",
			now,
		), true
	}
	return models.AdversarialThreat{}, false
}

func (f *ThreatFilter) detectUnusualParameters(q models.Quote, layer models.DetectionLayer, now time.Time) (models.AdversarialThreat, bool) {
	if q.Slippage.GreaterThanOrEqual(unusualSlippage) {
		return models.NewThreat(
			models.ThreatUnusualParameters,
			"slippage_tolerance",
			q.Slippage.String(),
			"<"+unusualSlippage.String()+"%",
			"Quote parameters match known attack pattern",
			f.severityFor(models.ThreatUnusualParameters, models.SeverityHigh),
			layer,
			"block_request",
			now,
		), true
	}
	if q.MarketConfidence < unusualConfidence {
		return models.NewThreat(
			models.ThreatUnusualParameters,
			"market_confidence",
			strconv.FormatFloat(q.MarketConfidence, 'f', -1, 64),
			">="+strconv.FormatFloat(unusualConfidence, 'f', -1, 64),
			"Quote parameters match known attack pattern",
			f.severityFor(models.ThreatUnusualParameters, models.SeverityHigh),
			layer,
			"block_request",
			now,
		), true
	}
	return models.AdversarialThreat{}, false
}

func (f *ThreatFilter) detectReplay(q models.Quote, layer models.DetectionLayer, now time.Time) (models.AdversarialThreat, bool) {
	fp := q.Fingerprint()
	if f.replay.CheckAndRecord(fp, now) {
		return models.NewThreat(
			models.ThreatReplayAttempt,
			"fingerprint",
			fp,
			"no duplicates within "+f.replay.Window().String(),
			"Duplicate request detected within replay window",
			f.severityFor(models.ThreatReplayAttempt, models.SeverityMedium),
			layer,
			"block_request",
			now,
		), true
	}
	return models.AdversarialThreat{}, false
}

// severityFor grades a threat from the catalog entry for its code. The
// fallback only applies to codes the catalog does not know.
func (f *ThreatFilter) severityFor(code models.ThreatType, fallback models.Severity) models.Severity {
	if f.catalog != nil {
		if p, ok := f.catalog.Lookup(string(code)); ok {
			return p.Severity
		}
	}
	return fallback
}

func exactMatch(token string, approved []string) bool {
	for _, a := range approved {
		if strings.EqualFold(token, a) {
			return true
		}
	}
	return false
}

// hammingClose reports whether two equal-length strings differ in at most
// maxDiff positions. Unequal lengths are never similar.
func hammingClose(a, b string, maxDiff int) bool {
	if len(a) != len(b) {
		return false
	}
	diff := 0
	for i := 0; i < len(a); i++ {
		if a[i] != b[i] {
			diff++
			if diff > maxDiff {
				return false
			}
		}
	}
	return true
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}
