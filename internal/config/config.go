package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config is the full application configuration. It is loaded once at startup
// and treated as immutable afterwards; components receive the sub-config they
// need by value.
type Config struct {
	Logger    LoggerConfig    `mapstructure:"logger"`
	Resolver  ResolverConfig  `mapstructure:"resolver"`
	Recovery  RecoveryConfig  `mapstructure:"recovery"`
	Deferred  DeferredConfig  `mapstructure:"deferred"`
	Router    RouterConfig    `mapstructure:"router"`
	Reasoning ReasoningConfig `mapstructure:"reasoning"`
	Vision    VisionConfig    `mapstructure:"vision"`
}

// LoggerConfig controls the zap logger construction.
type LoggerConfig struct {
	Level      string `mapstructure:"level"`
	Format     string `mapstructure:"format"` // "console" or "json"
	LogFile    string `mapstructure:"log_file"`
	MaxSizeMB  int    `mapstructure:"max_size_mb"`
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAgeDays int    `mapstructure:"max_age_days"`
}

// ResolverConfig tunes the accessibility-tree element search.
type ResolverConfig struct {
	// Threshold is the minimum fuzzy score (0-100) for a candidate to match.
	Threshold int `mapstructure:"threshold"`
	// AltThreshold is the relaxed score used by alternate-strategy passes.
	AltThreshold int `mapstructure:"alt_threshold"`
	// Attributes is the priority-ordered list of element text attributes
	// checked during matching. Valid entries: title, description, value.
	Attributes []string `mapstructure:"attributes"`
	// Roles is the default role set for searches that don't specify one.
	Roles []string `mapstructure:"roles"`
	// SearchTimeout bounds a single tree search.
	SearchTimeout time.Duration `mapstructure:"search_timeout"`
	// SnapshotTTL caches tree snapshots for this long (0 disables caching).
	SnapshotTTL time.Duration `mapstructure:"snapshot_ttl"`
}

// RecoveryConfig tunes retry behavior for flaky tree access.
type RecoveryConfig struct {
	MaxAttempts   int           `mapstructure:"max_attempts"`
	BaseDelay     time.Duration `mapstructure:"base_delay"`
	MaxDelay      time.Duration `mapstructure:"max_delay"`
	BackoffFactor float64       `mapstructure:"backoff_factor"`
}

// DeferredConfig tunes the deferred-action workflow.
type DeferredConfig struct {
	// WaitTimeout is how long a deferred action waits for its placement
	// trigger before being cancelled.
	WaitTimeout time.Duration `mapstructure:"wait_timeout"`
	// TypeDelayMs is the per-keystroke delay when placing generated content.
	TypeDelayMs int `mapstructure:"type_delay_ms"`
}

// RouterConfig tunes the command router.
type RouterConfig struct {
	// LockTimeout bounds acquisition of the execution lock.
	LockTimeout time.Duration `mapstructure:"lock_timeout"`
	// CommandBudget bounds a full GUI command, fast path included.
	CommandBudget time.Duration `mapstructure:"command_budget"`
	// VisionRatePerMin throttles slow-path escalations.
	VisionRatePerMin int `mapstructure:"vision_rate_per_min"`
}

// ReasoningConfig configures the reasoning-model client.
type ReasoningConfig struct {
	Model      string        `mapstructure:"model"`
	Endpoint   string        `mapstructure:"endpoint"`
	APIKeyEnv  string        `mapstructure:"api_key_env"`
	APITimeout time.Duration `mapstructure:"api_timeout"`
}

// VisionConfig configures the perception fallback.
type VisionConfig struct {
	Model string `mapstructure:"model"`
	// MaxEdge is the longest screenshot edge (pixels) uploaded to the model;
	// larger captures are downscaled first.
	MaxEdge    int           `mapstructure:"max_edge"`
	APITimeout time.Duration `mapstructure:"api_timeout"`
}

// APIKey resolves the reasoning API key from the configured environment
// variable.
func (c ReasoningConfig) APIKey() string {
	return os.Getenv(c.APIKeyEnv)
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.format", "console")
	v.SetDefault("logger.max_size_mb", 50)
	v.SetDefault("logger.max_backups", 3)
	v.SetDefault("logger.max_age_days", 14)

	v.SetDefault("resolver.threshold", 85)
	v.SetDefault("resolver.alt_threshold", 70)
	v.SetDefault("resolver.attributes", []string{"title", "description", "value"})
	v.SetDefault("resolver.roles", []string{"interactive"})
	v.SetDefault("resolver.search_timeout", "1s")
	v.SetDefault("resolver.snapshot_ttl", "500ms")

	v.SetDefault("recovery.max_attempts", 3)
	v.SetDefault("recovery.base_delay", "100ms")
	v.SetDefault("recovery.max_delay", "1s")
	v.SetDefault("recovery.backoff_factor", 2.0)

	v.SetDefault("deferred.wait_timeout", "300s")
	v.SetDefault("deferred.type_delay_ms", 5)

	v.SetDefault("router.lock_timeout", "5s")
	v.SetDefault("router.command_budget", "2s")
	v.SetDefault("router.vision_rate_per_min", 12)

	v.SetDefault("reasoning.model", "gemini-2.0-flash")
	v.SetDefault("reasoning.api_key_env", "VOXPILOT_API_KEY")
	v.SetDefault("reasoning.api_timeout", "30s")

	v.SetDefault("vision.model", "gemini-2.0-flash")
	v.SetDefault("vision.max_edge", 1280)
	v.SetDefault("vision.api_timeout", "45s")
}

// Load reads configuration from the given file path (optional — "" means
// defaults plus environment only). Environment variables with the VOXPILOT_
// prefix override file values, e.g. VOXPILOT_RESOLVER_THRESHOLD=80.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("VOXPILOT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	if c.Resolver.Threshold < 0 || c.Resolver.Threshold > 100 {
		return fmt.Errorf("resolver.threshold must be 0-100, got %d", c.Resolver.Threshold)
	}
	if c.Resolver.AltThreshold > c.Resolver.Threshold {
		return fmt.Errorf("resolver.alt_threshold (%d) must not exceed resolver.threshold (%d)",
			c.Resolver.AltThreshold, c.Resolver.Threshold)
	}
	for _, a := range c.Resolver.Attributes {
		switch a {
		case "title", "description", "value":
		default:
			return fmt.Errorf("unknown resolver attribute %q (expected title, description, or value)", a)
		}
	}
	if c.Recovery.MaxAttempts < 1 {
		return fmt.Errorf("recovery.max_attempts must be >= 1, got %d", c.Recovery.MaxAttempts)
	}
	if c.Recovery.BackoffFactor < 1 {
		return fmt.Errorf("recovery.backoff_factor must be >= 1, got %v", c.Recovery.BackoffFactor)
	}
	return nil
}
