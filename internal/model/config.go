package model

import "time"

// Config is the full runtime configuration.
// Hierarchy: CLI flags > MAILPROOF_* env > config file > these defaults.
type Config struct {
	HTTP        HTTPConfig        `yaml:"http" mapstructure:"http"`
	Cache       CacheConfig       `yaml:"cache" mapstructure:"cache"`
	Concurrency ConcurrencyConfig `yaml:"concurrency" mapstructure:"concurrency"`
	RateLimit   RateLimitConfig   `yaml:"rate_limit" mapstructure:"rate_limit"`
	Rules       RulesConfig       `yaml:"rules" mapstructure:"rules"`
	Scoring     ScoringConfig     `yaml:"scoring" mapstructure:"scoring"`
	Validation  ValidationConfig  `yaml:"validation" mapstructure:"validation"`
	Output      OutputConfig      `yaml:"output" mapstructure:"output"`
	Logging     LoggingConfig     `yaml:"logging" mapstructure:"logging"`
	LLM         LLMConfig         `yaml:"llm" mapstructure:"llm"`
}

// HTTPConfig controls outbound link checking
type HTTPConfig struct {
	Timeout       time.Duration `yaml:"timeout" mapstructure:"timeout"`
	UserAgent     string        `yaml:"user_agent" mapstructure:"user_agent"`
	MaxBodyBytes  int64         `yaml:"max_body_bytes" mapstructure:"max_body_bytes"`
	InsecureTLS   bool          `yaml:"insecure_tls" mapstructure:"insecure_tls"`
	HTTPProxy     string        `yaml:"http_proxy" mapstructure:"http_proxy"`
	HTTPSProxy    string        `yaml:"https_proxy" mapstructure:"https_proxy"`
	NoProxy       string        `yaml:"no_proxy" mapstructure:"no_proxy"`
	CheckLinks    bool          `yaml:"check_links" mapstructure:"check_links"`
	RespectRobots bool          `yaml:"respect_robots" mapstructure:"respect_robots"`
}

// CacheConfig controls link-check result caching
type CacheConfig struct {
	Enabled   bool          `yaml:"enabled" mapstructure:"enabled"`
	Dir       string        `yaml:"dir" mapstructure:"dir"`
	MemoryTTL time.Duration `yaml:"memory_ttl" mapstructure:"memory_ttl"`
	DiskTTL   time.Duration `yaml:"disk_ttl" mapstructure:"disk_ttl"`
}

// ConcurrencyConfig controls worker counts
type ConcurrencyConfig struct {
	LinkWorkers  int `yaml:"link_workers" mapstructure:"link_workers"`
	BatchWorkers int `yaml:"batch_workers" mapstructure:"batch_workers"`
}

// RateLimitConfig controls per-domain request pacing
type RateLimitConfig struct {
	RequestsPerSecond float64 `yaml:"requests_per_second" mapstructure:"requests_per_second"`
	Burst             int     `yaml:"burst" mapstructure:"burst"`
}

// RulesConfig locates the per-client rules files
type RulesConfig struct {
	Dir string `yaml:"dir" mapstructure:"dir"`
}

// ScoringConfig controls verdict thresholds
type ScoringConfig struct {
	PassThreshold int `yaml:"pass_threshold" mapstructure:"pass_threshold"`
}

// ValidationConfig controls matching behavior
type ValidationConfig struct {
	StrictMode        bool `yaml:"strict_mode" mapstructure:"strict_mode"`
	CaseSensitive     bool `yaml:"case_sensitive" mapstructure:"case_sensitive"`
	EncodingTolerance bool `yaml:"encoding_tolerance" mapstructure:"encoding_tolerance"`
}

// OutputConfig controls report rendering
type OutputConfig struct {
	Verbose bool `yaml:"verbose" mapstructure:"verbose"`
}

// LoggingConfig controls the zap logger
type LoggingConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`   // debug, info, warn, error
	Format string `yaml:"format" mapstructure:"format"` // console or json
}

// LLMConfig controls the optional advisory summary
type LLMConfig struct {
	Provider  string `yaml:"provider" mapstructure:"provider"` // "openai" or "" (disabled)
	Model     string `yaml:"model" mapstructure:"model"`
	APIKey    string `yaml:"-" mapstructure:"-"` // Env only; never serialized
	BaseURL   string `yaml:"base_url" mapstructure:"base_url"`
	Timeout   int    `yaml:"timeout" mapstructure:"timeout"` // seconds
	MaxTokens int    `yaml:"max_tokens" mapstructure:"max_tokens"`
}

// DefaultConfig returns the built-in defaults
func DefaultConfig() *Config {
	return &Config{
		HTTP: HTTPConfig{
			Timeout:       10 * time.Second,
			UserAgent:     "mailproof/0.1 (+https://github.com/mailproof/mailproof)",
			MaxBodyBytes:  2_000_000,
			CheckLinks:    true,
			RespectRobots: true,
		},
		Cache: CacheConfig{
			Enabled:   true,
			Dir:       "", // resolved to ~/.mailproof/cache at startup
			MemoryTTL: 15 * time.Minute,
			DiskTTL:   24 * time.Hour,
		},
		Concurrency: ConcurrencyConfig{
			LinkWorkers:  10,
			BatchWorkers: 4,
		},
		RateLimit: RateLimitConfig{
			RequestsPerSecond: 2,
			Burst:             5,
		},
		Rules: RulesConfig{
			Dir: "", // resolved to ~/.mailproof/rules at startup
		},
		Scoring: ScoringConfig{
			PassThreshold: 70,
		},
		Validation: ValidationConfig{
			StrictMode:        false,
			CaseSensitive:     false,
			EncodingTolerance: true,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
		LLM: LLMConfig{
			Provider:  "", // disabled by default
			Model:     "gpt-4o-mini",
			Timeout:   30,
			MaxTokens: 1000,
		},
	}
}
