package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

func TestLoadWordlist(t *testing.T) {
	path := writeFile(t, "users.txt", "admin\n\n  root  \n\t\nguest\r\n#hash\n")

	got, err := loadWordlist(path)
	if err != nil {
		t.Fatalf("loadWordlist failed: %v", err)
	}

	want := []string{"admin", "root", "guest", "#hash"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("loadWordlist() = %q, expected %q", got, want)
	}
}

func TestLoadWordlistMissing(t *testing.T) {
	_, err := loadWordlist(filepath.Join(t.TempDir(), "nope.txt"))
	if !errors.Is(err, ErrFileNotFound) {
		t.Errorf("Expected ErrFileNotFound, got %v", err)
	}
}

func TestLoadCredentials(t *testing.T) {
	users := writeFile(t, "users.txt", "admin\nroot\n")
	empty := writeFile(t, "empty.txt", "\n\n")

	tests := []struct {
		name      string
		opts      options
		wantUsers []string
		wantPass  []string
		wantErr   error
	}{
		{
			name:      "Single pair",
			opts:      options{username: "admin", password: "admin123"},
			wantUsers: []string{"admin"},
			wantPass:  []string{"admin123"},
		},
		{
			name:      "Mixed sources",
			opts:      options{usernameFile: users, password: "toor"},
			wantUsers: []string{"admin", "root"},
			wantPass:  []string{"toor"},
		},
		{
			name:    "No sources",
			opts:    options{},
			wantErr: ErrUsage,
		},
		{
			name:    "Missing password",
			opts:    options{username: "admin"},
			wantErr: ErrUsage,
		},
		{
			name:    "Both username sources",
			opts:    options{username: "admin", usernameFile: users, password: "x"},
			wantErr: ErrUsage,
		},
		{
			name:    "Missing file",
			opts:    options{username: "admin", passwordFile: filepath.Join(t.TempDir(), "missing.txt")},
			wantErr: ErrFileNotFound,
		},
		{
			name:    "Empty file",
			opts:    options{usernameFile: empty, password: "x"},
			wantErr: ErrUsage,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			usernames, passwords, err := loadCredentials(tt.opts)

			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("Expected %v, got %v", tt.wantErr, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("Unexpected error: %v", err)
			}
			if !reflect.DeepEqual(usernames, tt.wantUsers) || !reflect.DeepEqual(passwords, tt.wantPass) {
				t.Errorf("Got %v/%v, expected %v/%v", usernames, passwords, tt.wantUsers, tt.wantPass)
			}
		})
	}
}

func TestLoggerWritesJSONLines(t *testing.T) {
	var buf bytes.Buffer
	log := NewLogger(LoggerConfig{Output: &buf}).WithTarget("http://example.com/login")

	log.WithAttempt(Attempt{Username: "admin", Encoding: EncodingBase64}).Error().Msg("attempt failed")

	var record map[string]any
	if err := json.Unmarshal([]byte(strings.TrimSpace(buf.String())), &record); err != nil {
		t.Fatalf("Expected a JSON line, got %q: %v", buf.String(), err)
	}

	for key, want := range map[string]string{
		"level":    "error",
		"target":   "http://example.com/login",
		"username": "admin",
		"encoding": "base64",
		"message":  "attempt failed",
	} {
		if record[key] != want {
			t.Errorf("%s = %v, expected %s", key, record[key], want)
		}
	}
	if _, ok := record["time"]; !ok {
		t.Error("Expected a timestamp field")
	}
}

func TestConfigFileVerboseEnablesDebugLog(t *testing.T) {
	path := writeFile(t, "siege.yaml", "verbose: true\n")

	cfg, err := buildConfig(&cobra.Command{}, options{configFile: path})
	if err != nil {
		t.Fatalf("buildConfig failed: %v", err)
	}
	if !cfg.Verbose {
		t.Fatal("Expected verbose from config file")
	}

	logPath := filepath.Join(t.TempDir(), "run.log")
	logCfg, closeLog, err := runLogConfig(logPath, cfg.Verbose)
	if err != nil {
		t.Fatalf("runLogConfig failed: %v", err)
	}

	NewLogger(logCfg).Debug().Msg("submitting attempt")
	closeLog()

	if logCfg.Level != zerolog.DebugLevel || logCfg.Pretty {
		t.Errorf("Expected JSON debug logging, got level=%s pretty=%v", logCfg.Level, logCfg.Pretty)
	}
	data, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatalf("Failed to read log: %v", err)
	}
	if !strings.Contains(string(data), `"level":"debug"`) {
		t.Errorf("Expected a debug record, got %q", data)
	}
}

func TestRunLogConfigStderr(t *testing.T) {
	logCfg, closeLog, err := runLogConfig("-", false)
	if err != nil {
		t.Fatalf("runLogConfig failed: %v", err)
	}
	defer closeLog()

	if !logCfg.Pretty || logCfg.Output != os.Stderr || logCfg.Level != zerolog.InfoLevel {
		t.Errorf("Unexpected stderr config: %+v", logCfg)
	}
}

func TestLoggerPretty(t *testing.T) {
	var buf bytes.Buffer
	NewLogger(LoggerConfig{Output: &buf, Pretty: true}).Warn().Str("waf", "Cloudflare").Msg("firewall detected")

	out := buf.String()
	if json.Valid(bytes.TrimSpace(buf.Bytes())) {
		t.Errorf("Expected console output, got JSON %q", out)
	}
	if !strings.Contains(out, "firewall detected") || !strings.Contains(out, "waf=") {
		t.Errorf("Unexpected console output %q", out)
	}
}
