package config

import (
	"errors"
	"fmt"
	"io"
	"maps"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	toml "github.com/pelletier/go-toml/v2"

	"github.com/odlvideo/odlv/internal/state"
)

// Config is the parsed odlv configuration.
type Config struct {
	BaseURL     string
	SessionID   string
	CSRFToken   string
	LogLevel    string
	LogFile     string
	Dev         bool
	MetricsAddr string
	User        User
	Features    map[string]bool
}

// User identifies the signed-in account. It mirrors the settings the server
// renders into its pages.
type User struct {
	Email      string `toml:"email"`
	IsAppAdmin bool   `toml:"is_app_admin"`
	Editable   bool   `toml:"editable"`
}

const (
	defaultConfigPath = "~/.config/odlv/config.toml"
	defaultLogFile    = "~/.local/state/odlv/odlv.log"
	defaultBaseURL    = "http://127.0.0.1:8089"
	defaultLogLevel   = "info"
)

// DefaultPath returns the default configuration file path.
func DefaultPath() string {
	return defaultConfigPath
}

// Load locates and parses the config, falling back to defaults when missing.
func Load(path string) (Config, error) {
	resolved, err := resolvePath(path)
	if err != nil {
		return Config{}, err
	}

	cfg := defaults()

	file, err := os.Open(resolved)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return Config{}, fmt.Errorf("open config: %w", err)
	}
	defer file.Close()

	bytes, err := io.ReadAll(file)
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}

	var raw struct {
		BaseURL     string          `toml:"base_url"`
		SessionID   string          `toml:"session_id"`
		CSRFToken   string          `toml:"csrf_token"`
		LogLevel    string          `toml:"log_level"`
		LogFile     string          `toml:"log_file"`
		Dev         bool            `toml:"dev"`
		MetricsAddr string          `toml:"metrics_addr"`
		User        User            `toml:"user"`
		Features    map[string]bool `toml:"features"`
	}
	if err := toml.Unmarshal(bytes, &raw); err != nil {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}

	if v := strings.TrimSpace(raw.BaseURL); v != "" {
		cfg.BaseURL = strings.TrimRight(v, "/")
	}
	if _, err := url.ParseRequestURI(cfg.BaseURL); err != nil {
		return Config{}, fmt.Errorf("parse config: base_url: %w", err)
	}
	if v := strings.TrimSpace(raw.LogLevel); v != "" {
		cfg.LogLevel = strings.ToLower(v)
	}
	if v := strings.TrimSpace(raw.LogFile); v != "" {
		cfg.LogFile = mustExpand(v)
	}
	cfg.SessionID = strings.TrimSpace(raw.SessionID)
	cfg.CSRFToken = strings.TrimSpace(raw.CSRFToken)
	cfg.MetricsAddr = strings.TrimSpace(raw.MetricsAddr)
	cfg.Dev = raw.Dev
	cfg.User = User{
		Email:      strings.TrimSpace(raw.User.Email),
		IsAppAdmin: raw.User.IsAppAdmin,
		Editable:   raw.User.Editable,
	}
	if raw.Features != nil {
		cfg.Features = raw.Features
	}

	return cfg, nil
}

// Settings derives the value threaded through the store.
func (c Config) Settings() state.Settings {
	return state.Settings{
		BaseURL:    c.BaseURL,
		UserEmail:  c.User.Email,
		IsAppAdmin: c.User.IsAppAdmin,
		Editable:   c.User.Editable,
		Features:   maps.Clone(c.Features),
	}
}

func defaults() Config {
	return Config{
		BaseURL:  defaultBaseURL,
		LogLevel: defaultLogLevel,
		LogFile:  mustExpand(defaultLogFile),
		Features: map[string]bool{},
	}
}

func resolvePath(path string) (string, error) {
	if strings.TrimSpace(path) == "" {
		return expandPath(defaultConfigPath)
	}
	return expandPath(path)
}

func mustExpand(path string) string {
	expanded, err := expandPath(path)
	if err != nil {
		return path
	}
	return expanded
}

func expandPath(path string) (string, error) {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return "", fmt.Errorf("path is empty")
	}
	if strings.HasPrefix(trimmed, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home dir: %w", err)
		}
		trimmed = filepath.Join(home, strings.TrimPrefix(trimmed, "~"))
	}
	return filepath.Abs(trimmed)
}
