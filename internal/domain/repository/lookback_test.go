package repository

import (
	"testing"
	"time"
)

func TestNormalizeLookback(t *testing.T) {
	cases := []struct {
		in   string
		want Lookback
	}{
		{"", LB24h},
		{"1h", LB1h},
		{"24h", LB24h},
		{"7d", LB7d},
		{"30d", LB24h},
		{"garbage", LB24h},
	}
	for _, c := range cases {
		if got := NormalizeLookback(c.in); got != c.want {
			t.Fatalf("NormalizeLookback(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}

func TestLookbackDuration(t *testing.T) {
	if LB1h.Duration() != time.Hour {
		t.Fatalf("1h duration = %v", LB1h.Duration())
	}
	if LB7d.Duration() != 7*24*time.Hour {
		t.Fatalf("7d duration = %v", LB7d.Duration())
	}
	if LB24h.Duration() != 24*time.Hour {
		t.Fatalf("24h duration = %v", LB24h.Duration())
	}
}
