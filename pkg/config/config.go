package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Environment string `yaml:"environment"`
	Server      struct {
		Port            int           `yaml:"port"`
		ReadTimeout     time.Duration `yaml:"read_timeout"`
		WriteTimeout    time.Duration `yaml:"write_timeout"`
		ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
	} `yaml:"server"`
	Metrics struct {
		Enabled bool   `yaml:"enabled"`
		Path    string `yaml:"path"`
	} `yaml:"metrics"`
	Policy struct {
		MaxSlippage    string       `yaml:"max_slippage"`    // percent, exact decimal
		MinConfidence  float64      `yaml:"min_confidence"`  // [0,1]
		ApprovedTokens []string     `yaml:"approved_tokens"` // ordered whitelist
		ExtensionGates []GateConfig `yaml:"extension_gates"`
	} `yaml:"policy"`
	Threat struct {
		ReplayWindow time.Duration `yaml:"replay_window"`
		MinAmount    string        `yaml:"min_amount"`
		MaxAmount    string        `yaml:"max_amount"`
	} `yaml:"threat"`
	Custody struct {
		ProofTTL time.Duration `yaml:"proof_ttl"`
	} `yaml:"custody"`
	RateLimit struct {
		Capacity     float64 `yaml:"capacity"`
		RefillPerSec float64 `yaml:"refill_per_sec"`
	} `yaml:"rate_limit"`
	Audit struct {
		BufferSize int `yaml:"buffer_size"`
		Kafka      struct {
			Enabled      bool          `yaml:"enabled"`
			Brokers      []string      `yaml:"brokers"`
			Topic        string        `yaml:"topic"`
			RequiredAcks int           `yaml:"required_acks"`
			Compression  string        `yaml:"compression"`
			MaxAttempts  int           `yaml:"max_attempts"`
			BatchSize    int           `yaml:"batch_size"`
			BatchBytes   int           `yaml:"batch_bytes"`
			Linger       time.Duration `yaml:"linger"`
			WriteTimeout time.Duration `yaml:"write_timeout"`
			ReadTimeout  time.Duration `yaml:"read_timeout"`
			Async        bool          `yaml:"async"`
		} `yaml:"kafka"`
		ClickHouse struct {
			Enabled          bool          `yaml:"enabled"`
			Host             string        `yaml:"host"`
			Port             int           `yaml:"port"`
			Database         string        `yaml:"database"`
			User             string        `yaml:"user"`
			Password         string        `yaml:"password"`
			UseHTTP          bool          `yaml:"use_http"`
			AsyncInsert      bool          `yaml:"async_insert"`
			WaitForAsync     bool          `yaml:"wait_for_async_insert"`
			DialTimeout      time.Duration `yaml:"dial_timeout"`
			ReadTimeout      time.Duration `yaml:"read_timeout"`
			WriteTimeout     time.Duration `yaml:"write_timeout"`
			MaxExecutionTime time.Duration `yaml:"max_execution_time"`
		} `yaml:"clickhouse"`
	} `yaml:"audit"`
	Cache struct {
		TTL   time.Duration `yaml:"ttl"`
		Redis struct {
			Enabled  bool   `yaml:"enabled"`
			Host     string `yaml:"host"`
			Port     int    `yaml:"port"`
			Password string `yaml:"password"`
			DB       int    `yaml:"db"`
			Prefix   string `yaml:"prefix"`
		} `yaml:"redis"`
	} `yaml:"cache"`
}

// GateConfig is a data-driven extension gate as written in YAML. It is
// compiled (and rejected on unknown fields or operators) at load time.
type GateConfig struct {
	ID            string   `yaml:"id"`
	Description   string   `yaml:"description"`
	Operator      string   `yaml:"operator"`
	Field         string   `yaml:"field"`
	Threshold     string   `yaml:"threshold"`
	ThresholdSet  []string `yaml:"threshold_set"`
	RejectionCode string   `yaml:"rejection_code"`
}

// Load reads and parses a YAML configuration file.
func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	var c Config
	if err := yaml.Unmarshal(b, &c); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return &c, nil
}

// LoadWithEnv loads config from YAML and overrides with environment variables.
func LoadWithEnv(path string) (*Config, error) {
	c, err := Load(path)
	if err != nil {
		return nil, err
	}

	if v := os.Getenv("APPROVED_TOKENS"); v != "" {
		c.Policy.ApprovedTokens = strings.Split(v, ",")
	}
	if v := os.Getenv("KAFKA_BROKERS"); v != "" {
		c.Audit.Kafka.Brokers = strings.Split(v, ",")
	}
	if v := os.Getenv("KAFKA_TOPIC"); v != "" {
		c.Audit.Kafka.Topic = v
	}
	if v := os.Getenv("CLICKHOUSE_PASSWORD"); v != "" {
		c.Audit.ClickHouse.Password = v
	}
	if v := os.Getenv("REDIS_PASSWORD"); v != "" {
		c.Cache.Redis.Password = v
	}

	return c, nil
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.Environment == "" {
		return fmt.Errorf("environment is required")
	}
	if c.Policy.MinConfidence < 0 || c.Policy.MinConfidence > 1 {
		return fmt.Errorf("policy.min_confidence must be in [0,1], got %v", c.Policy.MinConfidence)
	}
	if c.Threat.ReplayWindow < 0 {
		return fmt.Errorf("threat.replay_window cannot be negative")
	}
	if c.Audit.Kafka.Enabled && len(c.Audit.Kafka.Brokers) == 0 {
		return fmt.Errorf("audit.kafka.brokers is required when kafka audit is enabled")
	}
	if c.Audit.Kafka.Enabled && c.Audit.Kafka.Topic == "" {
		return fmt.Errorf("audit.kafka.topic is required when kafka audit is enabled")
	}
	if c.Audit.ClickHouse.Enabled && c.Audit.ClickHouse.Host == "" {
		return fmt.Errorf("audit.clickhouse.host is required when clickhouse audit is enabled")
	}
	for _, g := range c.Policy.ExtensionGates {
		if g.ID == "" || g.RejectionCode == "" {
			return fmt.Errorf("extension gate needs id and rejection_code")
		}
	}
	return nil
}
