package validation

import (
	"sort"

	"SwapGate/internal/domain/models"
)

// TestPattern is an example input shape for a threat, used by the test suite
// and surfaced through the catalog API.
type TestPattern struct {
	Description string            `json:"description"`
	Values      map[string]string `json:"values,omitempty"`
}

// ThreatPattern describes a known adversarial pattern: what it is, how it is
// detected and how severe a match is.
type ThreatPattern struct {
	Name            string           `json:"name"`
	Description     string           `json:"description"`
	DetectionMethod string           `json:"detection_method"`
	Severity        models.Severity  `json:"severity"`
	TestPatterns    []TestPattern    `json:"test_patterns,omitempty"`
}

// Catalog is the static registry of known threat patterns. It is consulted by
// the filters and the API but never mutated at runtime; changing it means
// redeploying.
type Catalog struct {
	patterns map[string]ThreatPattern
}

// NewCatalog builds the built-in threat registry.
func NewCatalog() *Catalog {
	return &Catalog{patterns: map[string]ThreatPattern{
		string(models.ThreatTokenSpoofing): {
			Name:            "Token Address Spoofing",
			Description:     "Token address differs by 1-2 characters from an approved whitelist entry",
			DetectionMethod: "similarity_match",
			Severity:        models.SeverityCritical,
			TestPatterns: []TestPattern{
				{
					Description: "1-character substitution",
					Values: map[string]string{
						"legitimate": "0xfFf9976782d46CC05630D92EE39253E4423ACFB9",
						"spoofed":    "0xfFf9976782d46CC05630D92EE39253E4423ACFBB",
					},
				},
			},
		},
		string(models.ThreatDecimalExploit): {
			Name:            "Decimal Precision Exploit",
			Description:     "Extreme decimal precision that triggers rounding errors or underflow",
			DetectionMethod: "decimal_range_check",
			Severity:        models.SeverityHigh,
			TestPatterns: []TestPattern{
				{Description: "Extreme precision below safe minimum", Values: map[string]string{"amount": "0.000000001"}},
				{Description: "Numeric overflow risk", Values: map[string]string{"amount": "999999999999999999999"}},
			},
		},
		string(models.ThreatUnusualParameters): {
			Name:            "Unusual Parameters Attack",
			Description:     "Parameter values that match a known attack shape, e.g. 100% slippage",
			DetectionMethod: "parameter_matching",
			Severity:        models.SeverityHigh,
			TestPatterns: []TestPattern{
				{Description: "100% slippage guarantees failure", Values: map[string]string{"slippage_tolerance": "100"}},
				{Description: "Near-zero confidence is suspicious", Values: map[string]string{"market_confidence": "0.05"}},
				{Description: "Near-maximal slippage", Values: map[string]string{"slippage_tolerance": "99.9"}},
			},
		},
		string(models.ThreatReplayAttempt): {
			Name:            "Replay Attack",
			Description:     "Duplicate request fingerprint within the replay window",
			DetectionMethod: "fingerprint_cache",
			Severity:        models.SeverityMedium,
			TestPatterns: []TestPattern{
				{Description: "Same quote fingerprint submitted twice within 100ms"},
				{Description: "Three identical quote submissions in rapid succession"},
			},
		},
		string(models.ThreatOverrideAttempt): {
			Name:            "Authorization Bypass",
			Description:     "Attempt to bypass or override validation gates",
			DetectionMethod: "gate_skip_request",
			Severity:        models.SeverityCritical,
			TestPatterns: []TestPattern{
				{Description: "Request includes a skip_validation parameter"},
				{Description: "Attempt to modify gate enforcement in the request"},
			},
		},
	}}
}

// Lookup returns the pattern for a threat code.
func (c *Catalog) Lookup(code string) (ThreatPattern, bool) {
	p, ok := c.patterns[code]
	return p, ok
}

// AllCodes returns every registered threat code, sorted.
func (c *Catalog) AllCodes() []string {
	codes := make([]string, 0, len(c.patterns))
	for code := range c.patterns {
		codes = append(codes, code)
	}
	sort.Strings(codes)
	return codes
}

// IsCritical reports whether a threat code carries critical severity.
func (c *Catalog) IsCritical(code string) bool {
	p, ok := c.patterns[code]
	return ok && p.Severity == models.SeverityCritical
}
