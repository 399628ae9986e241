// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package config

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"

	"github.com/jeranaias/ckyc-assist/internal/i18n"
	"github.com/jeranaias/ckyc-assist/internal/util"
)

// =============================================================================
// CONFIG STRUCTURES
// =============================================================================

// Config represents the complete ckyc-assist configuration.
type Config struct {
	Version string `toml:"version" json:"version"`

	// Backend is the remote chat backend.
	Backend BackendConfig `toml:"backend" json:"backend"`

	// UI configures both front-ends.
	UI UIConfig `toml:"ui" json:"ui"`

	// Log configures logrus.
	Log LogConfig `toml:"log" json:"log"`

	// Telemetry configures the metrics endpoint.
	Telemetry TelemetryConfig `toml:"telemetry" json:"telemetry"`

	// Stub configures the development backend.
	Stub StubConfig `toml:"stub" json:"stub"`
}

// BackendConfig contains backend gateway settings.
type BackendConfig struct {
	// URL is the backend base URL; endpoint paths are appended to it.
	URL string `toml:"url" json:"url"`

	// TimeoutSecs bounds each request.
	TimeoutSecs int `toml:"timeout_secs" json:"timeout_secs"`

	// UserAgent is sent on every request.
	UserAgent string `toml:"user_agent" json:"user_agent"`
}

// UIConfig contains front-end settings.
type UIConfig struct {
	// Language is the language preselected when the widget starts.
	Language string `toml:"language" json:"language"`

	// Theme is "auto", "dark" or "light".
	Theme string `toml:"theme" json:"theme"`

	// PlainText disables rich rendering of bot text.
	PlainText bool `toml:"plain_text" json:"plain_text"`

	// StartClosed starts the widget minimised.
	StartClosed bool `toml:"start_closed" json:"start_closed"`

	// ExportDir is where transcripts are exported. Empty means the config dir.
	ExportDir string `toml:"export_dir" json:"export_dir"`
}

// LogConfig contains logging settings.
type LogConfig struct {
	Level  string `toml:"level" json:"level"`
	Format string `toml:"format" json:"format"`

	// File is the log path. Empty means <config dir>/ckyc-assist.log.
	File string `toml:"file" json:"file"`
}

// TelemetryConfig contains metrics settings.
type TelemetryConfig struct {
	// MetricsAddr enables the Prometheus endpoint when non-empty.
	MetricsAddr string `toml:"metrics_addr" json:"metrics_addr"`
}

// StubConfig contains stub backend settings.
type StubConfig struct {
	Addr string `toml:"addr" json:"addr"`

	// DBPath is the SQLite interaction log. Empty means in-memory.
	DBPath string `toml:"db_path" json:"db_path"`

	// AllowedOrigins lists CORS origins for browser clients.
	AllowedOrigins []string `toml:"allowed_origins" json:"allowed_origins"`

	// FAQPath replaces the built-in FAQ set; the file is reloaded on change.
	FAQPath string `toml:"faq_path" json:"faq_path"`

	// RateLimit is requests/second per client; negative disables it.
	RateLimit float64 `toml:"rate_limit" json:"rate_limit"`
}

// =============================================================================
// DEFAULTS
// =============================================================================

// Default returns a configuration with all defaults applied.
func Default() *Config {
	return &Config{
		Version: "1",
		Backend: BackendConfig{
			URL:         "http://127.0.0.1:5000",
			TimeoutSecs: 15,
			UserAgent:   "ckyc-assist",
		},
		UI: UIConfig{
			Language: i18n.DefaultLanguage,
			Theme:    "auto",
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
		Stub: StubConfig{
			Addr:           "127.0.0.1:5000",
			AllowedOrigins: []string{"*"},
		},
	}
}

// fillDefaults fills in any missing values with defaults.
func fillDefaults(cfg *Config) {
	defaults := Default()

	if cfg.Version == "" {
		cfg.Version = defaults.Version
	}

	if cfg.Backend.URL == "" {
		cfg.Backend.URL = defaults.Backend.URL
	}
	if cfg.Backend.TimeoutSecs == 0 {
		cfg.Backend.TimeoutSecs = defaults.Backend.TimeoutSecs
	}
	if cfg.Backend.UserAgent == "" {
		cfg.Backend.UserAgent = defaults.Backend.UserAgent
	}

	if cfg.UI.Language == "" {
		cfg.UI.Language = defaults.UI.Language
	}
	if cfg.UI.Theme == "" {
		cfg.UI.Theme = defaults.UI.Theme
	}

	if cfg.Log.Level == "" {
		cfg.Log.Level = defaults.Log.Level
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = defaults.Log.Format
	}

	if cfg.Stub.Addr == "" {
		cfg.Stub.Addr = defaults.Stub.Addr
	}
	if len(cfg.Stub.AllowedOrigins) == 0 {
		cfg.Stub.AllowedOrigins = defaults.Stub.AllowedOrigins
	}
}

// =============================================================================
// CONFIG PATH HELPERS
// =============================================================================

// dirOverride lets tests point the config directory at a temp dir.
var dirOverride string

// ConfigDir returns the ckyc-assist configuration directory path.
func ConfigDir() (string, error) {
	if dirOverride != "" {
		return dirOverride, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("could not determine home directory: %w", err)
	}
	return filepath.Join(home, ".ckyc-assist"), nil
}

// ConfigPathTOML returns the path to the TOML config file.
func ConfigPathTOML() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.toml"), nil
}

// ConfigPathJSON returns the path to the JSON config file.
func ConfigPathJSON() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.json"), nil
}

// HistoryPath returns the line-mode history file path.
func HistoryPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "history"), nil
}

// LogPath returns the configured log file, or the default one in the config dir.
func (c *Config) LogPath() (string, error) {
	if c.Log.File != "" {
		return c.Log.File, nil
	}
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "ckyc-assist.log"), nil
}

// ExportPath returns the transcript export directory.
func (c *Config) ExportPath() (string, error) {
	if c.UI.ExportDir != "" {
		return c.UI.ExportDir, nil
	}
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "exports"), nil
}

// EnsureConfigDir ensures the config directory exists.
func EnsureConfigDir() error {
	dir, err := ConfigDir()
	if err != nil {
		return err
	}
	return os.MkdirAll(dir, 0700)
}

// =============================================================================
// LOAD FUNCTIONS
// =============================================================================

// LoadDotEnv loads .env from the working directory and from the config
// directory. Variables already set in the environment win. Missing files
// are ignored.
func LoadDotEnv() {
	_ = godotenv.Load()
	if dir, err := ConfigDir(); err == nil {
		_ = godotenv.Load(filepath.Join(dir, ".env"))
	}
}

// Load loads configuration from the config file(s).
// Tries TOML first, then JSON, and falls back to defaults.
// Environment overrides are applied last. A file that fails to parse is
// reported alongside the defaults it fell back to.
func Load() (*Config, error) {
	LoadDotEnv()

	cfg := Default()
	var loadErr error

	if path, err := ConfigPathTOML(); err == nil && fileExists(path) {
		if err := LoadTOML(cfg, path); err != nil {
			loadErr = fmt.Errorf("failed to load TOML config: %w", err)
			cfg = Default()
		} else {
			return finish(cfg)
		}
	}

	if path, err := ConfigPathJSON(); err == nil && fileExists(path) {
		if err := LoadJSON(cfg, path); err != nil {
			loadErr = errors.Join(loadErr, fmt.Errorf("failed to load JSON config: %w", err))
			cfg = Default()
		} else {
			return finish(cfg)
		}
	}

	cfg, err := finish(cfg)
	if err != nil {
		return nil, err
	}
	return cfg, loadErr
}

// LoadFromPath loads configuration from a specific file path with full validation.
func LoadFromPath(path string) (*Config, error) {
	cfg := &Config{}

	if strings.HasSuffix(path, ".json") {
		if err := LoadJSON(cfg, path); err != nil {
			return nil, fmt.Errorf("failed to load JSON config from %s: %w", path, err)
		}
	} else {
		if err := LoadTOML(cfg, path); err != nil {
			return nil, fmt.Errorf("failed to load TOML config from %s: %w", path, err)
		}
	}
	return finish(cfg)
}

// LoadTOML loads configuration from a TOML file.
func LoadTOML(cfg *Config, path string) error {
	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return fmt.Errorf("failed to decode TOML file: %w", err)
	}
	fillDefaults(cfg)
	return nil
}

// LoadJSON loads configuration from a JSON file.
func LoadJSON(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read JSON file: %w", err)
	}
	if err := json.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("failed to decode JSON file: %w", err)
	}
	fillDefaults(cfg)
	return nil
}

// finish applies env overrides, normalises and validates.
func finish(cfg *Config) (*Config, error) {
	cfg.ApplyEnvOverrides()
	fillDefaults(cfg)
	cfg.normalize()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// normalize canonicalises values that have more than one valid spelling.
func (c *Config) normalize() {
	c.Backend.URL = strings.TrimRight(strings.TrimSpace(c.Backend.URL), "/")
	if code, err := i18n.Normalize(c.UI.Language); err == nil {
		c.UI.Language = code
	}
	c.UI.Theme = strings.ToLower(strings.TrimSpace(c.UI.Theme))
	c.Log.Level = strings.ToLower(strings.TrimSpace(c.Log.Level))
	c.Log.Format = strings.ToLower(strings.TrimSpace(c.Log.Format))
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// =============================================================================
// SAVE FUNCTIONS
// =============================================================================

// Save saves the configuration to the default TOML file.
func Save(cfg *Config) error {
	path, err := ConfigPathTOML()
	if err != nil {
		return err
	}
	return SaveTOML(cfg, path)
}

// SaveTOML writes the configuration as TOML with 0600 permissions.
func SaveTOML(cfg *Config, path string) error {
	var buf bytes.Buffer
	buf.WriteString("# ckyc-assist configuration file\n")
	buf.WriteString("# Generated by ckyc-assist - edit with care\n\n")

	if err := toml.NewEncoder(&buf).Encode(cfg); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	if err := util.AtomicWriteFileWithDir(path, buf.Bytes(), 0600, 0700); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// SaveJSON writes the configuration as indented JSON with 0600 permissions.
func SaveJSON(cfg *Config, path string) error {
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	if err := util.AtomicWriteFileWithDir(path, data, 0600, 0700); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// =============================================================================
// VALIDATION
// =============================================================================

// ValidationError represents a configuration validation error.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidateErrors is a collection of validation errors.
type ValidateErrors []ValidationError

func (e ValidateErrors) Error() string {
	if len(e) == 0 {
		return "no validation errors"
	}
	var msgs []string
	for _, err := range e {
		msgs = append(msgs, err.Error())
	}
	return strings.Join(msgs, "; ")
}

// Validate checks every section and returns all problems at once.
func (c *Config) Validate() error {
	var errs ValidateErrors

	if u, err := url.Parse(c.Backend.URL); err != nil || u.Host == "" {
		errs = append(errs, ValidationError{Field: "backend.url", Message: fmt.Sprintf("invalid URL %q", c.Backend.URL)})
	} else if u.Scheme != "http" && u.Scheme != "https" {
		errs = append(errs, ValidationError{Field: "backend.url", Message: "scheme must be http or https"})
	}
	if c.Backend.TimeoutSecs < 1 || c.Backend.TimeoutSecs > 300 {
		errs = append(errs, ValidationError{Field: "backend.timeout_secs", Message: "must be between 1 and 300"})
	}

	if !i18n.IsSupported(c.UI.Language) {
		errs = append(errs, ValidationError{
			Field:   "ui.language",
			Message: fmt.Sprintf("unsupported language %q (supported: %s)", c.UI.Language, strings.Join(i18n.Supported(), ", ")),
		})
	}
	switch c.UI.Theme {
	case "auto", "dark", "light":
	default:
		errs = append(errs, ValidationError{Field: "ui.theme", Message: "must be auto, dark or light"})
	}

	switch c.Log.Level {
	case "debug", "info", "warn", "warning", "error":
	default:
		errs = append(errs, ValidationError{Field: "log.level", Message: "must be debug, info, warn or error"})
	}
	switch c.Log.Format {
	case "text", "json":
	default:
		errs = append(errs, ValidationError{Field: "log.format", Message: "must be text or json"})
	}

	if c.Telemetry.MetricsAddr != "" {
		if _, _, err := net.SplitHostPort(c.Telemetry.MetricsAddr); err != nil {
			errs = append(errs, ValidationError{Field: "telemetry.metrics_addr", Message: err.Error()})
		}
	}
	if _, _, err := net.SplitHostPort(c.Stub.Addr); err != nil {
		errs = append(errs, ValidationError{Field: "stub.addr", Message: err.Error()})
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

// =============================================================================
// ENVIRONMENT OVERRIDES
// =============================================================================

// ApplyEnvOverrides applies environment variable overrides to the config.
//
// Supported environment variables:
//   - CKYC_BACKEND_URL: overrides backend.url
//   - CKYC_LANGUAGE: overrides ui.language
//   - CKYC_THEME: overrides ui.theme
//   - CKYC_LOG_LEVEL, CKYC_LOG_FORMAT, CKYC_LOG_FILE: override log.*
//   - CKYC_METRICS_ADDR: overrides telemetry.metrics_addr
//   - CKYC_STUB_ADDR, CKYC_STUB_DB, CKYC_STUB_FAQ: override stub.addr,
//     stub.db_path and stub.faq_path
func (c *Config) ApplyEnvOverrides() {
	set := func(name string, dst *string) {
		if v := os.Getenv(name); v != "" {
			*dst = v
		}
	}

	set("CKYC_BACKEND_URL", &c.Backend.URL)
	set("CKYC_LANGUAGE", &c.UI.Language)
	set("CKYC_THEME", &c.UI.Theme)
	set("CKYC_LOG_LEVEL", &c.Log.Level)
	set("CKYC_LOG_FORMAT", &c.Log.Format)
	set("CKYC_LOG_FILE", &c.Log.File)
	set("CKYC_METRICS_ADDR", &c.Telemetry.MetricsAddr)
	set("CKYC_STUB_ADDR", &c.Stub.Addr)
	set("CKYC_STUB_DB", &c.Stub.DBPath)
	set("CKYC_STUB_FAQ", &c.Stub.FAQPath)
}

// =============================================================================
// HELPERS
// =============================================================================

// Clone creates a deep copy of the configuration.
func (c *Config) Clone() *Config {
	clone := *c
	if c.Stub.AllowedOrigins != nil {
		clone.Stub.AllowedOrigins = append([]string(nil), c.Stub.AllowedOrigins...)
	}
	return &clone
}

// String returns the configuration as TOML, for `config show`.
func (c *Config) String() string {
	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(c); err != nil {
		return fmt.Sprintf("config: %v", err)
	}
	return buf.String()
}

// =============================================================================
// SINGLETON PATTERN (THREAD-SAFE)
// =============================================================================

var (
	globalConfig     *Config
	globalConfigOnce sync.Once
	globalConfigMu   sync.RWMutex
)

// Global returns the global configuration instance.
// Loads configuration on first access unless SetGlobal ran first. Thread-safe.
func Global() *Config {
	globalConfigOnce.Do(func() {
		cfg, err := Load()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Warning: %v (using defaults)\n", err)
		}
		if cfg == nil {
			cfg = Default()
		}
		globalConfigMu.Lock()
		if globalConfig == nil {
			globalConfig = cfg
		}
		globalConfigMu.Unlock()
	})

	globalConfigMu.RLock()
	defer globalConfigMu.RUnlock()
	return globalConfig
}

// ReloadGlobal reloads the global configuration from disk. Thread-safe.
func ReloadGlobal() error {
	cfg, err := Load()
	if err != nil {
		return err
	}
	SetGlobal(cfg)
	return nil
}

// SetGlobal sets the global configuration instance. Thread-safe.
func SetGlobal(cfg *Config) {
	globalConfigMu.Lock()
	defer globalConfigMu.Unlock()
	globalConfig = cfg
}

// ResetGlobalForTesting resets the global config state for testing.
func ResetGlobalForTesting() {
	globalConfigMu.Lock()
	defer globalConfigMu.Unlock()
	globalConfig = nil
	globalConfigOnce = sync.Once{}
}
