package application

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v2"

	"github.com/convictionlabs/thesisrun/internal/domain"
	"github.com/convictionlabs/thesisrun/internal/sizing"
)

// ProviderConfig holds the endpoint settings for one upstream source.
type ProviderConfig struct {
	BaseURL        string        `yaml:"base_url"`
	APIKeyEnv      string        `yaml:"api_key_env"`
	RequestTimeout time.Duration `yaml:"request_timeout"`
	CacheTTL       time.Duration `yaml:"cache_ttl"`
}

// APIKey resolves the provider key from the configured environment variable.
func (p ProviderConfig) APIKey() string {
	if p.APIKeyEnv == "" {
		return ""
	}
	return os.Getenv(p.APIKeyEnv)
}

// SearchProviderConfig extends ProviderConfig with job-polling knobs.
type SearchProviderConfig struct {
	ProviderConfig `yaml:",inline"`

	PollInterval   time.Duration `yaml:"poll_interval"`
	PollTimeout    time.Duration `yaml:"poll_timeout"`
	CallsPerSecond float64       `yaml:"calls_per_second"`
}

// DecomposeConfig holds the language-model settings for thesis decomposition.
type DecomposeConfig struct {
	APIKeyEnv string        `yaml:"api_key_env"`
	Model     string        `yaml:"model"`
	MaxTokens int64         `yaml:"max_tokens"`
	Timeout   time.Duration `yaml:"timeout"`
}

// CacheSettings selects the cache backend. An empty RedisAddr means the
// in-process cache.
type CacheSettings struct {
	RedisAddr string `yaml:"redis_addr"`
}

// Config is the full runtime configuration.
type Config struct {
	Quotes     ProviderConfig       `yaml:"quotes"`
	CryptoAPI  ProviderConfig       `yaml:"crypto_api"`
	Dex        ProviderConfig       `yaml:"dex"`
	Search     SearchProviderConfig `yaml:"search"`
	Decompose  DecomposeConfig      `yaml:"decompose"`
	Cache      CacheSettings        `yaml:"cache"`
	Sizing     sizing.Config        `yaml:"sizing"`
	HistoryDSN string               `yaml:"history_dsn"`
}

// DefaultConfig returns a configuration that works without a config file:
// public endpoints, env-sourced keys, default sizing policy.
func DefaultConfig() *Config {
	return &Config{
		Quotes: ProviderConfig{
			BaseURL:   "https://quotes.convictionlabs.dev",
			APIKeyEnv: "THESISRUN_QUOTES_KEY",
			CacheTTL:  24 * time.Hour,
		},
		CryptoAPI: ProviderConfig{
			BaseURL:   "https://prices.convictionlabs.dev",
			APIKeyEnv: "THESISRUN_CRYPTO_KEY",
		},
		Dex: ProviderConfig{
			BaseURL: "https://api.dexscreener.com",
		},
		Search: SearchProviderConfig{
			ProviderConfig: ProviderConfig{
				BaseURL:   "",
				APIKeyEnv: "THESISRUN_SEARCH_KEY",
				CacheTTL:  time.Hour,
			},
			PollInterval:   2 * time.Second,
			PollTimeout:    45 * time.Second,
			CallsPerSecond: 0.5,
		},
		Decompose: DecomposeConfig{
			APIKeyEnv: "ANTHROPIC_API_KEY",
			Model:     "claude-sonnet-4-20250514",
			MaxTokens: 2048,
			Timeout:   60 * time.Second,
		},
		Sizing: sizing.DefaultConfig(),
	}
}

// LoadConfig reads a YAML config file over the defaults. A missing path is
// not an error: callers get the defaults back.
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()
	if path == "" {
		return cfg, nil
	}

	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(b, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, nil
}

// LoadPortfolio reads a portfolio snapshot from a JSON file. An empty path
// returns a zero snapshot, which sizing treats as no existing holdings.
func LoadPortfolio(path string) (domain.Portfolio, error) {
	var p domain.Portfolio
	if path == "" {
		return p, nil
	}

	b, err := os.ReadFile(path)
	if err != nil {
		return p, fmt.Errorf("read portfolio %s: %w", path, err)
	}
	if err := json.Unmarshal(b, &p); err != nil {
		return p, fmt.Errorf("%w: %v", domain.ErrInvalidPortfolio, err)
	}
	if err := domain.ValidatePortfolio(p); err != nil {
		return p, err
	}
	return p, nil
}
