package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadParsesPolicyAndThreat(t *testing.T) {
	path := writeConfig(t, `
environment: test
server:
  port: 9090
policy:
  max_slippage: "5"
  min_confidence: 0.3
  approved_tokens: [ETH, USDC]
threat:
  replay_window: 100ms
custody:
  proof_ttl: 24h
`)
	c, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if c.Server.Port != 9090 {
		t.Fatalf("port = %d", c.Server.Port)
	}
	if len(c.Policy.ApprovedTokens) != 2 {
		t.Fatalf("approved tokens = %v", c.Policy.ApprovedTokens)
	}
	if c.Threat.ReplayWindow != 100*time.Millisecond {
		t.Fatalf("replay window = %v", c.Threat.ReplayWindow)
	}
	if c.Custody.ProofTTL != 24*time.Hour {
		t.Fatalf("proof ttl = %v", c.Custody.ProofTTL)
	}
}

func TestLoadRejectsMissingEnvironment(t *testing.T) {
	path := writeConfig(t, `
server:
  port: 8080
`)
	if _, err := Load(path); err == nil {
		t.Fatalf("expected validation error")
	}
}

func TestLoadRejectsConfidenceOutOfRange(t *testing.T) {
	path := writeConfig(t, `
environment: test
policy:
  min_confidence: 1.5
`)
	if _, err := Load(path); err == nil {
		t.Fatalf("expected validation error")
	}
}

func TestLoadRejectsKafkaWithoutBrokers(t *testing.T) {
	path := writeConfig(t, `
environment: test
audit:
  kafka:
    enabled: true
    topic: audit
`)
	if _, err := Load(path); err == nil {
		t.Fatalf("expected validation error")
	}
}

func TestLoadRejectsGateWithoutRejectionCode(t *testing.T) {
	path := writeConfig(t, `
environment: test
policy:
  extension_gates:
    - id: impact-cap
      operator: lte
      field: price_impact
      threshold: "10"
`)
	if _, err := Load(path); err == nil {
		t.Fatalf("expected validation error")
	}
}

func TestLoadWithEnvOverridesTokens(t *testing.T) {
	path := writeConfig(t, `
environment: test
policy:
  approved_tokens: [ETH]
`)
	t.Setenv("APPROVED_TOKENS", "ETH,WETH,DAI")
	c, err := LoadWithEnv(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(c.Policy.ApprovedTokens) != 3 {
		t.Fatalf("approved tokens = %v", c.Policy.ApprovedTokens)
	}
}
