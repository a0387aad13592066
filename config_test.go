package main

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
	"time"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write %s: %v", name, err)
	}
	return path
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Threads != 10 {
		t.Errorf("Expected 10 threads, got %d", cfg.Threads)
	}
	if cfg.Timeout != 15*time.Second {
		t.Errorf("Expected 15s timeout, got %s", cfg.Timeout)
	}
	if !cfg.Base64Fallback {
		t.Error("Expected base64 fallback enabled by default")
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Default config invalid: %v", err)
	}

	want := []string{"dashboard", "logout", "welcome", "profile", "account", "settings", "home", "main"}
	if !reflect.DeepEqual(cfg.Heuristics.SuccessKeywords, want) {
		t.Errorf("SuccessKeywords = %v", cfg.Heuristics.SuccessKeywords)
	}
}

func TestLoadConfig(t *testing.T) {
	path := writeFile(t, "siege.yaml", `
threads: 3
timeout: 5s
heuristics:
  success_keywords: ["signed in as"]
  sentinel_username: nobody
`)

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}

	if cfg.Threads != 3 {
		t.Errorf("Expected 3 threads, got %d", cfg.Threads)
	}
	if cfg.Timeout != 5*time.Second {
		t.Errorf("Expected 5s timeout, got %s", cfg.Timeout)
	}
	if !reflect.DeepEqual(cfg.Heuristics.SuccessKeywords, []string{"signed in as"}) {
		t.Errorf("SuccessKeywords = %v", cfg.Heuristics.SuccessKeywords)
	}
	if cfg.Heuristics.SentinelUsername != "nobody" {
		t.Errorf("SentinelUsername = %q", cfg.Heuristics.SentinelUsername)
	}

	// untouched keys keep their defaults
	if cfg.Heuristics.SentinelPassword != "invalid_pass" {
		t.Errorf("SentinelPassword = %q", cfg.Heuristics.SentinelPassword)
	}
	if cfg.UserAgent != defaultUserAgent {
		t.Errorf("UserAgent = %q", cfg.UserAgent)
	}
}

func TestLoadConfigErrors(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"Malformed YAML", "threads: [1, 2"},
		{"Zero threads", "threads: 0"},
		{"Empty success keywords", "heuristics:\n  success_keywords: []"},
		{"Empty failure keywords", "heuristics:\n  failure_keywords: []"},
		{"Negative rate limit", "rate_limit: -5"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := LoadConfig(writeFile(t, "bad.yaml", tt.content)); err == nil {
				t.Error("Expected error but got none")
			}
		})
	}

	if _, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("Expected error for missing file")
	}
}
