package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/pelletier/go-toml/v2"
)

// Config represents the application configuration.
type Config struct {
	// Catalog API configuration
	Catalog CatalogConfig `toml:"catalog"`

	// Card search configuration
	Search SearchConfig `toml:"search"`

	// Local storage configuration
	Storage StorageConfig `toml:"storage"`

	// Remote configuration source
	RemoteConfig RemoteConfigConfig `toml:"remote_config"`

	// Application configuration
	App AppConfig `toml:"app"`
}

// CatalogConfig contains card catalog API settings.
type CatalogConfig struct {
	BaseURL string `toml:"base_url"` // Catalog API base URL
}

// SearchConfig contains card search settings.
type SearchConfig struct {
	PageSize         int    `toml:"page_size"`         // Cards per catalog page
	DebounceInterval string `toml:"debounce_interval"` // Keystroke debounce (e.g., "500ms")
}

// StorageConfig contains local document store settings.
type StorageConfig struct {
	DatabasePath    string `toml:"database_path"`     // Path to the sqlite database ("" = default)
	IdentityPath    string `toml:"identity_path"`     // Path to the anonymous identity file ("" = default)
	LegacyDecksPath string `toml:"legacy_decks_path"` // Path to the pre-remote decks.json ("" = default)
}

// RemoteConfigConfig contains remote configuration settings.
type RemoteConfigConfig struct {
	FilePath   string `toml:"file_path"`   // Path to the remote config snapshot ("" = disabled)
	LiveReload bool   `toml:"live_reload"` // Watch the snapshot for changes
}

// AppConfig contains general application settings.
type AppConfig struct {
	DebugMode     bool `toml:"debug_mode"`     // Enable debug logging
	VerboseEvents bool `toml:"verbose_events"` // Log event payloads, not just types
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Catalog: CatalogConfig{
			BaseURL: "https://api.lorcana-api.com",
		},
		Search: SearchConfig{
			PageSize:         20,
			DebounceInterval: "500ms",
		},
		Storage: StorageConfig{
			DatabasePath:    "",
			IdentityPath:    "",
			LegacyDecksPath: "",
		},
		RemoteConfig: RemoteConfigConfig{
			FilePath:   "",
			LiveReload: true,
		},
		App: AppConfig{
			DebugMode:     false,
			VerboseEvents: false,
		},
	}
}

// Dir returns the application data directory, creating it if needed.
func Dir() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("get home directory: %w", err)
	}

	dir := filepath.Join(homeDir, ".loapalette")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create data directory: %w", err)
	}

	return dir, nil
}

// configPath returns the path to the configuration file.
func configPath() (string, error) {
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.toml"), nil
}

// Load loads the configuration from the default location. Returns default
// config if the file doesn't exist.
func Load() (*Config, error) {
	path, err := configPath()
	if err != nil {
		return nil, err
	}
	return LoadFrom(path)
}

// LoadFrom loads the configuration from path. Returns default config if the
// file doesn't exist.
func LoadFrom(path string) (*Config, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return DefaultConfig(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	var config Config
	if err := toml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("parse config file: %w", err)
	}

	return &config, nil
}

// Save saves the configuration to disk.
func (c *Config) Save() error {
	path, err := configPath()
	if err != nil {
		return err
	}

	data, err := toml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write config file: %w", err)
	}

	return nil
}

// Validate validates the configuration values.
func (c *Config) Validate() error {
	if c.Catalog.BaseURL == "" {
		return fmt.Errorf("catalog base URL cannot be empty")
	}

	if c.Search.PageSize <= 0 {
		return fmt.Errorf("search page size must be positive: %d", c.Search.PageSize)
	}

	if _, err := time.ParseDuration(c.Search.DebounceInterval); err != nil {
		return fmt.Errorf("invalid debounce interval %q: %w", c.Search.DebounceInterval, err)
	}

	return nil
}

// GetDebounceInterval returns the search debounce interval as a duration.
func (c *Config) GetDebounceInterval() (time.Duration, error) {
	return time.ParseDuration(c.Search.DebounceInterval)
}
