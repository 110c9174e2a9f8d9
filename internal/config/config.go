// Package config loads uiscout settings from the environment.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Prefix is the environment variable prefix, e.g. UISCOUT_STEP_BUDGET.
const Prefix = "UISCOUT"

// Providers understood by the question generator. "none" uses the rule table only.
var Providers = []string{"claude", "anthropic", "openai", "gpt", "none"}

// Config holds all application configuration
type Config struct {
	Provider string `split_words:"true" default:"claude"`
	Model    string `split_words:"true"`
	// The API keys also fall back to the unprefixed variable names.
	AnthropicAPIKey string `envconfig:"ANTHROPIC_API_KEY"`
	OpenAIAPIKey    string `envconfig:"OPENAI_API_KEY"`

	OutputDir   string `split_words:"true" default:"workflows"`
	HistoryDB   string `envconfig:"HISTORY_DB" default:"workflows/history.db"`
	StepBudget  int    `split_words:"true" default:"6"`
	Walkthrough bool   `split_words:"true" default:"true"`

	Browser BrowserConfig `split_words:"true"`
	Auth    AuthConfig    `split_words:"true"`
	Log     LogConfig     `split_words:"true"`
}

// BrowserConfig holds browser settings
type BrowserConfig struct {
	Headless   bool          `split_words:"true" default:"false"`
	Width      int           `split_words:"true" default:"1280"`
	Height     int           `split_words:"true" default:"720"`
	ProfileDir string        `split_words:"true"`
	NavTimeout time.Duration `split_words:"true" default:"45s"`
	HumanPace  bool          `split_words:"true" default:"true"`

	// ActionTimeout bounds each element read, scroll and click.
	ActionTimeout time.Duration `split_words:"true" default:"10s"`
}

// AuthConfig bounds the wait for manual sign-in
type AuthConfig struct {
	Timeout  time.Duration `split_words:"true" default:"5m"`
	Fallback time.Duration `split_words:"true" default:"30s"`
}

// LogConfig holds logger settings
type LogConfig struct {
	Level  string `split_words:"true" default:"info"`
	Format string `split_words:"true" default:"console"`
	// File enables a rotating JSON log file in addition to the console.
	File       string `split_words:"true"`
	MaxSize    int    `split_words:"true" default:"10"` // megabytes
	MaxBackups int    `split_words:"true" default:"3"`
	MaxAge     int    `split_words:"true" default:"28"` // days
	Compress   bool   `split_words:"true" default:"false"`
}

// Load reads the configuration from the environment and validates it.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(Prefix, &cfg); err != nil {
		return nil, fmt.Errorf("failed to process env config: %w", err)
	}
	cfg.Provider = strings.ToLower(strings.TrimSpace(cfg.Provider))
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks the configuration for values a run cannot work with.
func (c *Config) Validate() error {
	var errs []error
	if c.StepBudget <= 0 {
		errs = append(errs, fmt.Errorf("step budget must be positive, got %d", c.StepBudget))
	}
	if c.Browser.Width <= 0 || c.Browser.Height <= 0 {
		errs = append(errs, fmt.Errorf("viewport must be positive, got %dx%d", c.Browser.Width, c.Browser.Height))
	}
	if c.Browser.ActionTimeout <= 0 {
		errs = append(errs, fmt.Errorf("action timeout must be positive, got %s", c.Browser.ActionTimeout))
	}
	if !knownProvider(c.Provider) {
		errs = append(errs, fmt.Errorf("unknown provider %q (want one of %s)", c.Provider, strings.Join(Providers, ", ")))
	}
	if c.Log.Format != "console" && c.Log.Format != "json" {
		errs = append(errs, fmt.Errorf("unknown log format %q", c.Log.Format))
	}
	return errors.Join(errs...)
}

// APIKey returns the key for the configured provider, or "".
func (c *Config) APIKey() string {
	switch c.Provider {
	case "claude", "anthropic":
		return c.AnthropicAPIKey
	case "openai", "gpt":
		return c.OpenAIAPIKey
	default:
		return ""
	}
}

func knownProvider(p string) bool {
	for _, known := range Providers {
		if p == known {
			return true
		}
	}
	return false
}
