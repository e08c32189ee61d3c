// Package config loads and validates compass configuration.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultConfigFile is the config file name looked up in the data directory.
const DefaultConfigFile = "compass.yaml"

// Config represents the complete compass configuration.
type Config struct {
	Version int           `yaml:"version" json:"version"`
	DataDir string        `yaml:"data_dir" json:"data_dir"`
	Server  ServerConfig  `yaml:"server" json:"server"`
	Index   IndexConfig   `yaml:"index" json:"index"`
	Content ContentConfig `yaml:"content" json:"content"`
	Menu    []MenuEntry   `yaml:"menu" json:"menu"`
	Logging LogConfig     `yaml:"logging" json:"logging"`
}

// ContentConfig configures the reference content store.
type ContentConfig struct {
	// BaseURL is the admin UI root used to resolve edit URLs
	// (e.g. "https://example.test/admin"). Empty leaves edit URLs to the
	// rebuild fallback.
	BaseURL string `yaml:"base_url" json:"base_url"`
}

// MenuEntry is one navigable admin destination indexed as a settings entry.
type MenuEntry struct {
	Label    string      `yaml:"label" json:"label"`
	URL      string      `yaml:"url" json:"url"`
	Children []MenuEntry `yaml:"children,omitempty" json:"children,omitempty"`
}

// ServerConfig configures the HTTP transport.
type ServerConfig struct {
	// Addr is the listen address (host:port).
	Addr string `yaml:"addr" json:"addr"`

	// AuthSecret is the HS256 shared secret used to verify bearer tokens.
	// Empty disables authentication (local development only).
	AuthSecret string `yaml:"auth_secret" json:"auth_secret"`

	// ShutdownTimeout bounds graceful shutdown (e.g. "10s").
	ShutdownTimeout string `yaml:"shutdown_timeout" json:"shutdown_timeout"`
}

// IndexConfig configures indexing and query behavior.
type IndexConfig struct {
	// BatchSize is the page size for full-corpus rebuild scans (50-100 recommended).
	BatchSize int `yaml:"batch_size" json:"batch_size"`

	// OrderBatchSize is the smaller page size for the orders source, which
	// reorders under concurrent writes and needs per-run dedup.
	OrderBatchSize int `yaml:"order_batch_size" json:"order_batch_size"`

	// TimeBudget bounds a single rebuild invocation (e.g. "25s").
	// Empty or "0" means unbounded.
	TimeBudget string `yaml:"time_budget" json:"time_budget"`

	// RebuildInterval is the recurring rebuild period (e.g. "24h").
	// Empty or "0" disables the timer.
	RebuildInterval string `yaml:"rebuild_interval" json:"rebuild_interval"`

	// MaxResults caps the number of search results returned.
	MaxResults int `yaml:"max_results" json:"max_results"`

	// PreviewLength is the plain-text excerpt length in characters.
	PreviewLength int `yaml:"preview_length" json:"preview_length"`

	// CacheSize is the number of cached query results (0 disables the cache).
	CacheSize int `yaml:"cache_size" json:"cache_size"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" json:"level"`
	Format string `yaml:"format" json:"format"`
}

// Default returns the default configuration.
func Default() *Config {
	return &Config{
		Version: 1,
		DataDir: defaultDataDir(),
		Server: ServerConfig{
			Addr:            "127.0.0.1:8375",
			ShutdownTimeout: "10s",
		},
		Index: IndexConfig{
			BatchSize:       100,
			OrderBatchSize:  20,
			TimeBudget:      "25s",
			RebuildInterval: "24h",
			MaxResults:      15,
			PreviewLength:   120,
			CacheSize:       256,
		},
		Menu: DefaultMenu(),
		Logging: LogConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

// DefaultMenu returns the built-in admin menu indexed as settings entries
// when the config file does not define one.
func DefaultMenu() []MenuEntry {
	return []MenuEntry{
		{Label: "Dashboard", URL: "/admin"},
		{Label: "Documents", URL: "/admin/documents"},
		{Label: "Assets", URL: "/admin/assets"},
		{Label: "Orders", URL: "/admin/orders"},
		{Label: "Settings", URL: "/admin/settings", Children: []MenuEntry{
			{Label: "General", URL: "/admin/settings/general"},
			{Label: "Search", URL: "/admin/settings/search"},
			{Label: "Users", URL: "/admin/settings/users"},
		}},
	}
}

// defaultDataDir returns ~/.compass, falling back to the working directory.
func defaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".compass"
	}
	return filepath.Join(home, ".compass")
}

// Load reads configuration from path, merging over defaults.
// A missing file is not an error; defaults apply.
// Environment variables override file values (COMPASS_ADDR, COMPASS_AUTH_SECRET,
// COMPASS_DATA_DIR, COMPASS_LOG_LEVEL).
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case os.IsNotExist(err):
			// Missing config file: defaults apply.
		case err != nil:
			return nil, fmt.Errorf("read config %s: %w", path, err)
		default:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("parse config %s: %w", path, err)
			}
		}
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyEnvOverrides applies COMPASS_* environment overrides.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("COMPASS_ADDR"); v != "" {
		cfg.Server.Addr = v
	}
	if v := os.Getenv("COMPASS_AUTH_SECRET"); v != "" {
		cfg.Server.AuthSecret = v
	}
	if v := os.Getenv("COMPASS_DATA_DIR"); v != "" {
		cfg.DataDir = v
	}
	if v := os.Getenv("COMPASS_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
}

// Validate checks configuration invariants.
func (c *Config) Validate() error {
	if c.Index.BatchSize <= 0 {
		return fmt.Errorf("index.batch_size must be positive, got %d", c.Index.BatchSize)
	}
	if c.Index.OrderBatchSize <= 0 {
		return fmt.Errorf("index.order_batch_size must be positive, got %d", c.Index.OrderBatchSize)
	}
	if c.Index.OrderBatchSize > c.Index.BatchSize {
		return fmt.Errorf("index.order_batch_size (%d) must not exceed index.batch_size (%d)",
			c.Index.OrderBatchSize, c.Index.BatchSize)
	}
	if c.Index.MaxResults <= 0 {
		return fmt.Errorf("index.max_results must be positive, got %d", c.Index.MaxResults)
	}
	if c.Index.PreviewLength <= 0 {
		return fmt.Errorf("index.preview_length must be positive, got %d", c.Index.PreviewLength)
	}
	if c.Index.CacheSize < 0 {
		return fmt.Errorf("index.cache_size must not be negative, got %d", c.Index.CacheSize)
	}
	if _, err := parseDuration(c.Index.TimeBudget); err != nil {
		return fmt.Errorf("index.time_budget: %w", err)
	}
	if _, err := parseDuration(c.Index.RebuildInterval); err != nil {
		return fmt.Errorf("index.rebuild_interval: %w", err)
	}
	if _, err := parseDuration(c.Server.ShutdownTimeout); err != nil {
		return fmt.Errorf("server.shutdown_timeout: %w", err)
	}
	return nil
}

// TimeBudget returns the parsed rebuild time budget (0 = unbounded).
func (c *Config) TimeBudget() time.Duration {
	d, _ := parseDuration(c.Index.TimeBudget)
	return d
}

// RebuildInterval returns the parsed recurring rebuild period (0 = disabled).
func (c *Config) RebuildInterval() time.Duration {
	d, _ := parseDuration(c.Index.RebuildInterval)
	return d
}

// ShutdownTimeout returns the parsed graceful shutdown bound.
func (c *Config) ShutdownTimeout() time.Duration {
	d, _ := parseDuration(c.Server.ShutdownTimeout)
	if d == 0 {
		d = 10 * time.Second
	}
	return d
}

// IndexPath returns the path of the search index database.
func (c *Config) IndexPath() string {
	return filepath.Join(c.DataDir, "index.db")
}

// ContentPath returns the path of the reference content store database.
func (c *Config) ContentPath() string {
	return filepath.Join(c.DataDir, "content.db")
}

// parseDuration parses a duration string, treating "" and "0" as zero.
func parseDuration(s string) (time.Duration, error) {
	if s == "" || s == "0" {
		return 0, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("invalid duration %q: %w", s, err)
	}
	if d < 0 {
		return 0, fmt.Errorf("duration %q must not be negative", s)
	}
	return d, nil
}
