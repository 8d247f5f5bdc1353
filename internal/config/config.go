// Package config provides configuration types and defaults for iceguest.
package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"github.com/zjrosen/iceguest/internal/log"
)

// Config holds all configuration options for iceguest.
type Config struct {
	Guest   GuestConfig   `mapstructure:"guest"`
	Host    HostConfig    `mapstructure:"host"`
	Bridge  BridgeConfig  `mapstructure:"bridge"`
	Journal JournalConfig `mapstructure:"journal"`
	Cache   CacheConfig   `mapstructure:"cache"`
	Tracing TracingConfig `mapstructure:"tracing"`
	UI      UIConfig      `mapstructure:"ui"`
}

// GuestConfig seeds the editing session before the host checks in.
type GuestConfig struct {
	// HighlightMode is "ALL" (default) or "MOVE_TARGETS".
	HighlightMode   string `mapstructure:"highlight_mode"`
	EditModePadding bool   `mapstructure:"edit_mode_padding"`
	// RequireCheckIn drops interactive events until the host checked in.
	RequireCheckIn bool `mapstructure:"require_check_in"`
}

// HostConfig locates the authoring host.
type HostConfig struct {
	URL                string        `mapstructure:"url"`
	Namespace          string        `mapstructure:"namespace"`
	Path               string        `mapstructure:"path"`
	Timeout            time.Duration `mapstructure:"timeout"`
	InsecureSkipVerify bool          `mapstructure:"insecure_skip_verify"`
}

// BridgeConfig tunes the dispatch loop.
type BridgeConfig struct {
	QueueCapacity int `mapstructure:"queue_capacity"`
}

// JournalConfig controls event journaling.
type JournalConfig struct {
	Enabled bool `mapstructure:"enabled"`
	// Path of the sqlite database.
	// Default: ~/.config/iceguest/journal.db
	Path string `mapstructure:"path"`
}

// CacheConfig tunes the sandbox item cache.
type CacheConfig struct {
	SandboxTTL      time.Duration `mapstructure:"sandbox_ttl"`
	CleanupInterval time.Duration `mapstructure:"cleanup_interval"`
}

// UIConfig holds terminal overlay options.
type UIConfig struct {
	ShowLog bool `mapstructure:"show_log"`
}

// TracingConfig holds distributed tracing configuration.
type TracingConfig struct {
	// Enabled controls whether distributed tracing is active.
	// Default: false
	Enabled bool `mapstructure:"enabled"`

	// Exporter selects the trace export backend.
	// Options: "none", "file", "stdout", "otlp"
	// Default: "file"
	Exporter string `mapstructure:"exporter"`

	// FilePath is the output file for "file" exporter.
	// Default: ~/.config/iceguest/traces/traces.jsonl
	FilePath string `mapstructure:"file_path"`

	// OTLPEndpoint is the collector endpoint for "otlp" exporter.
	// Default: "localhost:4317"
	OTLPEndpoint string `mapstructure:"otlp_endpoint"`

	// SampleRate controls trace sampling (0.0 to 1.0).
	// Default: 1.0
	SampleRate float64 `mapstructure:"sample_rate"`

	ServiceName string `mapstructure:"service_name"`
}

func configDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", "iceguest")
}

// DefaultTracesFilePath returns ~/.config/iceguest/traces/traces.jsonl or
// empty string if home dir unavailable.
func DefaultTracesFilePath() string {
	dir := configDir()
	if dir == "" {
		return ""
	}
	return filepath.Join(dir, "traces", "traces.jsonl")
}

// DefaultJournalPath returns ~/.config/iceguest/journal.db or empty string if
// home dir unavailable.
func DefaultJournalPath() string {
	dir := configDir()
	if dir == "" {
		return ""
	}
	return filepath.Join(dir, "journal.db")
}

// Defaults returns a Config with sensible default values.
func Defaults() Config {
	return Config{
		Guest: GuestConfig{
			HighlightMode:  "ALL",
			RequireCheckIn: true,
		},
		Host: HostConfig{
			URL:       "http://localhost:8080",
			Namespace: "/guest",
			Path:      "/socket.io/",
			Timeout:   10 * time.Second,
		},
		Bridge: BridgeConfig{
			QueueCapacity: 1000,
		},
		Journal: JournalConfig{
			Enabled: false,
			Path:    DefaultJournalPath(),
		},
		Cache: CacheConfig{
			SandboxTTL:      10 * time.Minute,
			CleanupInterval: 30 * time.Minute,
		},
		Tracing: TracingConfig{
			Enabled:      false,
			Exporter:     "file",
			FilePath:     "", // Derived from config dir at runtime
			OTLPEndpoint: "localhost:4317",
			SampleRate:   1.0,
			ServiceName:  "iceguest",
		},
		UI: UIConfig{
			ShowLog: true,
		},
	}
}

// Validate checks every section.
func (c Config) Validate() error {
	if err := ValidateGuest(c.Guest); err != nil {
		return err
	}
	if err := ValidateHost(c.Host); err != nil {
		return err
	}
	if c.Bridge.QueueCapacity < 0 {
		return fmt.Errorf("bridge.queue_capacity must not be negative, got %d", c.Bridge.QueueCapacity)
	}
	if c.Journal.Enabled && c.Journal.Path == "" {
		return fmt.Errorf("journal.path is required when the journal is enabled")
	}
	if c.Cache.SandboxTTL < 0 || c.Cache.CleanupInterval < 0 {
		return fmt.Errorf("cache durations must not be negative")
	}
	return ValidateTracing(c.Tracing)
}

// ValidateGuest checks the guest section. Empty values use defaults.
func ValidateGuest(g GuestConfig) error {
	switch g.HighlightMode {
	case "", "ALL", "MOVE_TARGETS":
		return nil
	default:
		return fmt.Errorf("guest.highlight_mode must be \"ALL\" or \"MOVE_TARGETS\", got %q", g.HighlightMode)
	}
}

// ValidateHost checks the host section.
func ValidateHost(h HostConfig) error {
	if h.URL != "" {
		u, err := url.Parse(h.URL)
		if err != nil {
			return fmt.Errorf("host.url: %w", err)
		}
		switch u.Scheme {
		case "http", "https", "ws", "wss":
		default:
			return fmt.Errorf("host.url must use http, https, ws or wss, got %q", u.Scheme)
		}
	}
	if h.Timeout < 0 {
		return fmt.Errorf("host.timeout must not be negative, got %s", h.Timeout)
	}
	return nil
}

// ValidateTracing checks tracing configuration for errors.
// Returns nil if the configuration is valid (empty values use defaults).
func ValidateTracing(tracing TracingConfig) error {
	if tracing.SampleRate < 0.0 || tracing.SampleRate > 1.0 {
		return fmt.Errorf("tracing.sample_rate must be between 0.0 and 1.0, got %v", tracing.SampleRate)
	}

	if tracing.Exporter != "" {
		switch tracing.Exporter {
		case "none", "file", "stdout", "otlp":
		default:
			return fmt.Errorf("tracing.exporter must be \"none\", \"file\", \"stdout\", or \"otlp\", got %q", tracing.Exporter)
		}
	}

	// Only validate path requirements when tracing is enabled
	if tracing.Enabled {
		if tracing.Exporter == "file" && tracing.FilePath == "" {
			return fmt.Errorf("tracing.file_path is required when exporter is \"file\"")
		}
		if tracing.Exporter == "otlp" && tracing.OTLPEndpoint == "" {
			return fmt.Errorf("tracing.otlp_endpoint is required when exporter is \"otlp\"")
		}
	}

	return nil
}

// DefaultConfigTemplate returns the default config as a YAML string with comments.
func DefaultConfigTemplate() string {
	return `# iceguest configuration

# Editing session defaults, overridden by the host check-in
guest:
  highlight_mode: ALL        # "ALL" or "MOVE_TARGETS"
  edit_mode_padding: false
  require_check_in: true     # Ignore hover/drag input until the host checked in

# Authoring host (socket.io)
host:
  url: http://localhost:8080
  namespace: /guest
  path: /socket.io/
  timeout: 10s
  # insecure_skip_verify: false

bridge:
  queue_capacity: 1000       # Pending events before dispatch is refused

# Event journal (sqlite)
journal:
  enabled: false
  # path: ~/.config/iceguest/journal.db

# Sandbox item cache
cache:
  sandbox_ttl: 10m
  cleanup_interval: 30m

ui:
  show_log: true

# Distributed tracing
# tracing:
#   enabled: true
#   exporter: file
#   file_path: ~/.config/iceguest/traces/traces.jsonl
#
# Example: Send traces to Jaeger via OTLP
# tracing:
#   enabled: true
#   exporter: otlp
#   otlp_endpoint: jaeger.internal:4317
#   sample_rate: 0.1  # Sample 10% of traces
`
}

// WriteDefaultConfig creates a config file at the given path with default settings and comments.
// Creates the parent directory if it doesn't exist.
func WriteDefaultConfig(configPath string) error {
	log.Debug(log.CatConfig, "Writing default config", "path", configPath)

	dir := filepath.Dir(configPath)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		log.ErrorErr(log.CatConfig, "Failed to create config directory", err, "dir", dir)
		return fmt.Errorf("creating config directory: %w", err)
	}

	if err := os.WriteFile(configPath, []byte(DefaultConfigTemplate()), 0o600); err != nil {
		log.ErrorErr(log.CatConfig, "Failed to write config file", err, "path", configPath)
		return fmt.Errorf("writing config file: %w", err)
	}

	log.Info(log.CatConfig, "Created default config", "path", configPath)
	return nil
}
