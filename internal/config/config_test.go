package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	return path
}

func TestLoad_MissingConfigFallsBackToDefaults(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	cfg, err := Load(filepath.Join(home, "does-not-exist.toml"))
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.BaseURL != defaultBaseURL {
		t.Fatalf("BaseURL = %q, want %q", cfg.BaseURL, defaultBaseURL)
	}
	if cfg.LogLevel != defaultLogLevel {
		t.Fatalf("LogLevel = %q, want %q", cfg.LogLevel, defaultLogLevel)
	}
	wantLog, err := expandPath(defaultLogFile)
	if err != nil {
		t.Fatalf("expandPath(defaultLogFile) returned error: %v", err)
	}
	if cfg.LogFile != wantLog {
		t.Fatalf("LogFile = %q, want %q", cfg.LogFile, wantLog)
	}
	if cfg.Dev || cfg.MetricsAddr != "" {
		t.Fatalf("dev/metrics should be off by default: %+v", cfg)
	}
}

func TestLoad_ParsesAndTrimsConfig(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	path := writeConfig(t, `
base_url = "  https://video.example.edu/  "
session_id = " abc123 "
csrf_token = "tok"
log_level = "DEBUG"
log_file = "  ~/logs/odlv.log  "
dev = true
metrics_addr = "127.0.0.1:9464"

[user]
email = " staff@example.edu "
is_app_admin = true
editable = true

[features]
analytics = true
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.BaseURL != "https://video.example.edu" {
		t.Fatalf("BaseURL = %q", cfg.BaseURL)
	}
	if cfg.SessionID != "abc123" || cfg.CSRFToken != "tok" {
		t.Fatalf("credentials = %q/%q", cfg.SessionID, cfg.CSRFToken)
	}
	if cfg.LogLevel != "debug" {
		t.Fatalf("LogLevel = %q, want debug", cfg.LogLevel)
	}
	if !strings.HasPrefix(cfg.LogFile, home) {
		t.Fatalf("LogFile = %q, want it under HOME %q", cfg.LogFile, home)
	}
	if !cfg.Dev || cfg.MetricsAddr != "127.0.0.1:9464" {
		t.Fatalf("dev/metrics = %v/%q", cfg.Dev, cfg.MetricsAddr)
	}
	if cfg.User.Email != "staff@example.edu" || !cfg.User.IsAppAdmin || !cfg.User.Editable {
		t.Fatalf("User = %+v", cfg.User)
	}
	if !cfg.Features["analytics"] {
		t.Fatalf("Features = %v, want analytics enabled", cfg.Features)
	}
}

func TestLoad_EmptyValuesUseDefaults(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	path := writeConfig(t, `
base_url = "   "
log_level = ""
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.BaseURL != defaultBaseURL {
		t.Fatalf("BaseURL = %q, want %q", cfg.BaseURL, defaultBaseURL)
	}
	if cfg.LogLevel != defaultLogLevel {
		t.Fatalf("LogLevel = %q, want %q", cfg.LogLevel, defaultLogLevel)
	}
}

func TestLoad_InvalidTOML(t *testing.T) {
	path := writeConfig(t, "base_url = [")

	if _, err := Load(path); err == nil || !strings.Contains(err.Error(), "parse config") {
		t.Fatalf("Load error = %v, want parse config error", err)
	}
}

func TestLoad_InvalidBaseURL(t *testing.T) {
	path := writeConfig(t, `base_url = "not a url"`)

	if _, err := Load(path); err == nil {
		t.Fatal("Load should reject a relative base_url")
	}
}

func TestSettings(t *testing.T) {
	cfg := Config{
		BaseURL:  "https://video.example.edu",
		User:     User{Email: "a@example.edu", Editable: true},
		Features: map[string]bool{"beta": true},
	}

	s := cfg.Settings()
	if s.BaseURL != cfg.BaseURL || s.UserEmail != "a@example.edu" || !s.Editable || s.IsAppAdmin {
		t.Fatalf("Settings = %+v", s)
	}
	if !s.Feature("beta") || s.Feature("missing") {
		t.Fatalf("Features = %v", s.Features)
	}

	s.Features["beta"] = false
	if !cfg.Features["beta"] {
		t.Fatal("Settings should not share the features map")
	}
}

func TestExpandPath(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	got, err := expandPath("~/x/y.toml")
	if err != nil {
		t.Fatalf("expandPath returned error: %v", err)
	}
	if got != filepath.Join(home, "x", "y.toml") {
		t.Fatalf("expandPath = %q", got)
	}
	if _, err := expandPath("   "); err == nil {
		t.Fatal("expandPath should reject an empty path")
	}
}
