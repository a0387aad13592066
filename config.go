package main

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

const defaultUserAgent = "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

// Heuristics holds the keyword lists and name hints the extractor and the
// classifier match against. All matching is case-insensitive substring
// matching; list order is significant where a first match wins.
type Heuristics struct {
	// SuitableHints mark a form as a login form when any input name contains one.
	SuitableHints []string `yaml:"suitable_hints"`
	// UsernameHints assign the username role to a field.
	UsernameHints []string `yaml:"username_hints"`
	// PasswordHints assign the password role to a field.
	PasswordHints []string `yaml:"password_hints"`
	// CSRFHint identifies the anti-forgery hidden field.
	CSRFHint string `yaml:"csrf_hint"`

	SuccessKeywords []string `yaml:"success_keywords"`
	FailureKeywords []string `yaml:"failure_keywords"`

	// Sentinel credentials used by the baseline probe.
	SentinelUsername string `yaml:"sentinel_username"`
	SentinelPassword string `yaml:"sentinel_password"`
}

// Config holds runtime settings. Zero values are never valid; start from
// DefaultConfig.
type Config struct {
	Threads        int           `yaml:"threads"`
	Timeout        time.Duration `yaml:"timeout"`
	RateLimit      float64       `yaml:"rate_limit"`
	UserAgent      string        `yaml:"user_agent"`
	MaxBodyBytes   int64         `yaml:"max_body_bytes"`
	PreviewLength  int           `yaml:"preview_length"`
	Base64Fallback bool          `yaml:"base64_fallback"`
	Verbose        bool          `yaml:"verbose"`
	Heuristics     Heuristics    `yaml:"heuristics"`
}

// DefaultHeuristics returns the built-in keyword lists.
func DefaultHeuristics() Heuristics {
	return Heuristics{
		SuitableHints:    []string{"username", "user", "email", "password", "pass"},
		UsernameHints:    []string{"user", "email"},
		PasswordHints:    []string{"pass"},
		CSRFHint:         "csrf",
		SuccessKeywords:  []string{"dashboard", "logout", "welcome", "profile", "account", "settings", "home", "main"},
		FailureKeywords:  []string{"incorrect", "invalid", "fail", "error", "try again", "unsuccessful"},
		SentinelUsername: "invalid_user",
		SentinelPassword: "invalid_pass",
	}
}

// DefaultConfig returns the settings used when no config file is given.
func DefaultConfig() Config {
	return Config{
		Threads:        10,
		Timeout:        15 * time.Second,
		RateLimit:      100,
		UserAgent:      defaultUserAgent,
		MaxBodyBytes:   5 << 20,
		PreviewLength:  200,
		Base64Fallback: true,
		Heuristics:     DefaultHeuristics(),
	}
}

// LoadConfig reads a YAML file on top of DefaultConfig. Keys absent from the
// file keep their default values.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("failed to read config: %w", err)
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("failed to parse config %s: %w", path, err)
	}

	return cfg, cfg.Validate()
}

// Validate checks that the settings can drive a run.
func (c Config) Validate() error {
	if c.Threads <= 0 {
		return fmt.Errorf("threads must be positive, got %d", c.Threads)
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive, got %s", c.Timeout)
	}
	if c.MaxBodyBytes <= 0 {
		return fmt.Errorf("max_body_bytes must be positive, got %d", c.MaxBodyBytes)
	}
	if c.RateLimit < 0 {
		return fmt.Errorf("rate_limit must not be negative, got %g", c.RateLimit)
	}

	h := c.Heuristics
	switch {
	case len(h.SuitableHints) == 0:
		return fmt.Errorf("heuristics.suitable_hints must not be empty")
	case len(h.UsernameHints) == 0 && len(h.PasswordHints) == 0:
		return fmt.Errorf("heuristics need at least one username or password hint")
	case len(h.SuccessKeywords) == 0:
		return fmt.Errorf("heuristics.success_keywords must not be empty")
	case len(h.FailureKeywords) == 0:
		return fmt.Errorf("heuristics.failure_keywords must not be empty")
	}

	return nil
}
