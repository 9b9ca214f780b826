package repository

import "time"

// Lookback represents audit query history buckets.
type Lookback string

const (
	LB1h  Lookback = "1h"
	LB24h Lookback = "24h"
	LB7d  Lookback = "7d"
)

// IsValidLookback returns true if lb is a supported lookback window.
func IsValidLookback(lb Lookback) bool {
	switch lb {
	case LB1h, LB24h, LB7d:
		return true
	default:
		return false
	}
}

// DefaultLookback returns the default lookback window.
func DefaultLookback() Lookback { return LB24h }

// NormalizeLookback converts raw string to a valid lookback (or default).
func NormalizeLookback(s string) Lookback {
	if s == "" {
		return DefaultLookback()
	}
	lb := Lookback(s)
	if IsValidLookback(lb) {
		return lb
	}
	return DefaultLookback()
}

// Duration returns the window length for a lookback bucket.
func (lb Lookback) Duration() time.Duration {
	switch lb {
	case LB1h:
		return time.Hour
	case LB7d:
		return 7 * 24 * time.Hour
	default:
		return 24 * time.Hour
	}
}
