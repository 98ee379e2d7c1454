package config

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// EnvPrefix is the prefix of environment variables that override config keys.
// CALCWIZARD_API_BASE_URL overrides api.base_url.
const EnvPrefix = "CALCWIZARD"

// Config represents the complete calcwizard configuration
type Config struct {
	API     APIConfig     `mapstructure:"api"`
	Plugins PluginsConfig `mapstructure:"plugins"`
	Monitor MonitorConfig `mapstructure:"monitor"`
	Cache   CacheConfig   `mapstructure:"cache"`
	TUI     TUIConfig     `mapstructure:"tui"`
	Logging LoggingConfig `mapstructure:"logging"`
}

// APIConfig controls how the job service is reached
type APIConfig struct {
	// BaseURL is the root of the job service (default: "http://localhost:8000")
	BaseURL string `mapstructure:"base_url"`
	// TimeoutSeconds bounds every request to the job service (default: 30)
	TimeoutSeconds int `mapstructure:"timeout_seconds"`
}

// PluginsConfig controls plugin discovery
type PluginsConfig struct {
	// Source selects where plugin descriptors come from.
	// Options: "http", "dir", "static"
	Source string `mapstructure:"source"`
	// URL is the plugin server root used when Source is "http"
	URL string `mapstructure:"url"`
	// Dir holds one subdirectory per plugin, each with a plugin.yaml, when Source is "dir"
	Dir string `mapstructure:"dir"`
	// Watch recomposes the wizard when manifests under Dir change
	Watch bool `mapstructure:"watch"`
}

// MonitorConfig controls the job status monitor
type MonitorConfig struct {
	// IntervalMs is the delay between status queries (default: 5000)
	IntervalMs int `mapstructure:"interval_ms"`
	// MaxTreeDepth bounds the status tree walk; deeper trees count as unfinished (default: 1024)
	MaxTreeDepth int `mapstructure:"max_tree_depth"`
}

// CacheConfig controls client-side caches
type CacheConfig struct {
	// JobRecords is the number of finished job records kept in memory (default: 128)
	JobRecords int `mapstructure:"job_records"`
}

// TUIConfig controls the terminal UI behavior
type TUIConfig struct {
	// ShowHelp renders the key help bar (default: true)
	ShowHelp bool `mapstructure:"show_help"`
	// PreviewFormat is the review tab payload format: "yaml" or "json" (default: "yaml")
	PreviewFormat string `mapstructure:"preview_format"`
	// Theme is the color theme (default: "default")
	Theme string `mapstructure:"theme"`
}

// LoggingConfig controls debug logging behavior
type LoggingConfig struct {
	// Enabled turns on JSON logging (default: true)
	Enabled bool `mapstructure:"enabled"`
	// Level is the minimum level: "debug", "info", "warn", "error" (default: "info")
	Level string `mapstructure:"level"`
	// Dir is where calcwizard.log is written. Empty means {ConfigDir}/logs.
	Dir string `mapstructure:"dir"`
}

// Default returns a Config with sensible default values
func Default() *Config {
	return &Config{
		API: APIConfig{
			BaseURL:        "http://localhost:8000",
			TimeoutSeconds: 30,
		},
		Plugins: PluginsConfig{
			Source: "http",
			URL:    "http://localhost:8001",
			Dir:    "",
			Watch:  false,
		},
		Monitor: MonitorConfig{
			IntervalMs:   5000,
			MaxTreeDepth: 1024,
		},
		Cache: CacheConfig{
			JobRecords: 128,
		},
		TUI: TUIConfig{
			ShowHelp:      true,
			PreviewFormat: "yaml",
			Theme:         "default",
		},
		Logging: LoggingConfig{
			Enabled: true,
			Level:   "info",
			Dir:     "",
		},
	}
}

// Timeout returns the per-request timeout for the job service.
func (c *APIConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// Interval returns the status polling interval.
func (c *MonitorConfig) Interval() time.Duration {
	return time.Duration(c.IntervalMs) * time.Millisecond
}

// ResolveDir returns the log directory, expanding "~" and falling back to
// {ConfigDir}/logs when unset.
func (c *LoggingConfig) ResolveDir() string {
	if c.Dir == "" {
		return filepath.Join(ConfigDir(), "logs")
	}
	return expandHome(c.Dir)
}

// ResolveDir returns the plugin directory with "~" expanded.
func (c *PluginsConfig) ResolveDir() string {
	return expandHome(c.Dir)
}

func expandHome(path string) string {
	if strings.HasPrefix(path, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, path[2:])
		}
	} else if path == "~" {
		if home, err := os.UserHomeDir(); err == nil {
			return home
		}
	}
	return path
}

// SetDefaults registers default values with viper
func SetDefaults() {
	defaults := Default()

	viper.SetDefault("api.base_url", defaults.API.BaseURL)
	viper.SetDefault("api.timeout_seconds", defaults.API.TimeoutSeconds)

	viper.SetDefault("plugins.source", defaults.Plugins.Source)
	viper.SetDefault("plugins.url", defaults.Plugins.URL)
	viper.SetDefault("plugins.dir", defaults.Plugins.Dir)
	viper.SetDefault("plugins.watch", defaults.Plugins.Watch)

	viper.SetDefault("monitor.interval_ms", defaults.Monitor.IntervalMs)
	viper.SetDefault("monitor.max_tree_depth", defaults.Monitor.MaxTreeDepth)

	viper.SetDefault("cache.job_records", defaults.Cache.JobRecords)

	viper.SetDefault("tui.show_help", defaults.TUI.ShowHelp)
	viper.SetDefault("tui.preview_format", defaults.TUI.PreviewFormat)
	viper.SetDefault("tui.theme", defaults.TUI.Theme)

	viper.SetDefault("logging.enabled", defaults.Logging.Enabled)
	viper.SetDefault("logging.level", defaults.Logging.Level)
	viper.SetDefault("logging.dir", defaults.Logging.Dir)
}

// Load reads the configuration from viper into a Config struct and validates it
func Load() (*Config, error) {
	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	if errs := cfg.Validate(); len(errs) > 0 {
		return nil, ValidationErrors(errs)
	}

	return &cfg, nil
}

// Get returns the current configuration (convenience function)
func Get() *Config {
	cfg, err := Load()
	if err != nil {
		// Fall back to defaults if unmarshaling fails
		return Default()
	}
	return cfg
}

// ConfigDir returns the path to the user's config directory
func ConfigDir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "calcwizard")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ".calcwizard"
	}
	return filepath.Join(home, ".config", "calcwizard")
}

// ConfigFile returns the path to the config file
func ConfigFile() string {
	return filepath.Join(ConfigDir(), "config.yaml")
}
