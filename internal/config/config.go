// Package config loads and manages idchat configuration.
// Configuration source priority (highest to lowest):
// 1. CLI flags (--api-url, --store)
// 2. Environment variables (IDCHAT_API_URL, IDCHAT_SESSION_TTL, IDCHAT_STORE, IDCHAT_LOG_LEVEL)
// 3. Config file path specified via --config flag
// 4. ~/.config/idchat/config.yaml
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Identifier field names. These double as storage keys and as the
// multipart field names the backend expects.
const (
	FieldThreadID      = "thread_id"
	FieldAssistantID   = "assistant_id"
	FieldVectorStoreID = "vector_store_id"
)

// BackendConfig holds settings for the chat backend HTTP API.
type BackendConfig struct {
	// BaseURL is the API root, e.g. "http://localhost:5000".
	BaseURL string `yaml:"base_url"`

	// TimeoutSec bounds each request. 0 = transport default (no client timeout).
	TimeoutSec int `yaml:"timeout_sec"`

	// UserAgent is sent with every request.
	UserAgent string `yaml:"user_agent"`
}

// SessionConfig holds settings for the persisted session identifiers.
type SessionConfig struct {
	// TTLMinutes is how long a freshly created session stays valid.
	TTLMinutes int `yaml:"ttl_minutes"`

	// FieldTTLMinutes overrides TTLMinutes per identifier
	// (keys: thread_id, assistant_id, vector_store_id).
	FieldTTLMinutes map[string]int `yaml:"field_ttl_minutes"`

	// Store: "sqlite" (default) | "bolt" | "memory"
	Store string `yaml:"store"`

	// Path of the store file. Empty = ~/.local/share/idchat/session.<ext>
	Path string `yaml:"path"`
}

// HistoryConfig selects which history endpoint restores a transcript.
type HistoryConfig struct {
	// Source: "thread" (default, /threadHistory) | "simple" (/history)
	Source string `yaml:"source"`
}

// ArtifactConfig holds settings for generated document downloads.
type ArtifactConfig struct {
	// DownloadDir is where /pdf saves documents when no path is given.
	DownloadDir string `yaml:"download_dir"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	// Level: "debug" | "info" (default) | "warn" | "error"
	Level string `yaml:"level"`

	// File receives log output. Empty = ~/.local/share/idchat/idchat.log, "-" = stderr.
	File string `yaml:"file"`

	// Format: "text" (default) | "json"
	Format string `yaml:"format"`
}

// Config is the complete configuration structure for idchat.
type Config struct {
	Backend  BackendConfig  `yaml:"backend"`
	Session  SessionConfig  `yaml:"session"`
	History  HistoryConfig  `yaml:"history"`
	Artifact ArtifactConfig `yaml:"artifact"`
	Log      LogConfig      `yaml:"log"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Backend: BackendConfig{
			BaseURL:   "http://localhost:5000",
			UserAgent: "idchat/1.0",
		},
		Session: SessionConfig{
			TTLMinutes:      60,
			FieldTTLMinutes: make(map[string]int),
			Store:           "sqlite",
		},
		History: HistoryConfig{Source: "thread"},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// DefaultPath returns ~/.config/idchat/config.yaml.
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "idchat", "config.yaml"), nil
}

// DataDir returns ~/.local/share/idchat, where session state and logs live.
func DataDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".local", "share", "idchat"), nil
}

// Load reads the config file and merges environment variable overrides.
func Load(configPath string) (*Config, error) {
	cfg := DefaultConfig()

	if configPath == "" {
		if p, err := DefaultPath(); err == nil {
			configPath = p
		}
	}

	// Read config file (use defaults if not found)
	if data, err := os.ReadFile(configPath); err == nil {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("invalid config file %s: %w", configPath, err)
		}
	}

	applyEnvOverrides(cfg)

	if cfg.Session.FieldTTLMinutes == nil {
		cfg.Session.FieldTTLMinutes = make(map[string]int)
	}
	if cfg.Session.TTLMinutes <= 0 {
		cfg.Session.TTLMinutes = 60
	}

	return cfg, nil
}

// Save writes cfg as YAML to path, creating the parent directory.
func Save(cfg *Config, path string) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

// TTL returns the lifetime of the given identifier field.
func (s SessionConfig) TTL(field string) time.Duration {
	if m, ok := s.FieldTTLMinutes[field]; ok && m > 0 {
		return time.Duration(m) * time.Minute
	}
	return time.Duration(s.TTLMinutes) * time.Minute
}

// ExpiryDays returns the default TTL as a fraction of a day
// (60 minutes -> 1/24), the unit browser cookie expiry is expressed in.
// It is informational only; stored entries expire according to TTL.
func (s SessionConfig) ExpiryDays() float64 {
	return float64(s.TTLMinutes) / (24 * 60)
}

// Timeout returns the per-request timeout, or 0 for none.
func (b BackendConfig) Timeout() time.Duration {
	if b.TimeoutSec <= 0 {
		return 0
	}
	return time.Duration(b.TimeoutSec) * time.Second
}

// applyEnvOverrides applies environment variable overrides to the config.
func applyEnvOverrides(cfg *Config) {
	// NEXT_PUBLIC_API_URL is what the web client is deployed with; honour it
	// so both clients can share one environment.
	if v := os.Getenv("NEXT_PUBLIC_API_URL"); v != "" {
		cfg.Backend.BaseURL = v
	}
	if v := os.Getenv("IDCHAT_API_URL"); v != "" {
		cfg.Backend.BaseURL = v
	}
	if v := os.Getenv("IDCHAT_SESSION_TTL"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.Session.TTLMinutes = n
		}
	}
	if v := os.Getenv("IDCHAT_STORE"); v != "" {
		cfg.Session.Store = v
	}
	if v := os.Getenv("IDCHAT_LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
}
