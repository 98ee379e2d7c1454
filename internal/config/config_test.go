package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	if cfg == nil {
		t.Fatal("Default() returned nil")
	}

	if cfg.API.BaseURL != "http://localhost:8000" {
		t.Errorf("API.BaseURL = %q, want %q", cfg.API.BaseURL, "http://localhost:8000")
	}
	if cfg.API.TimeoutSeconds != 30 {
		t.Errorf("API.TimeoutSeconds = %d, want 30", cfg.API.TimeoutSeconds)
	}

	if cfg.Plugins.Source != "http" {
		t.Errorf("Plugins.Source = %q, want %q", cfg.Plugins.Source, "http")
	}
	if cfg.Plugins.URL != "http://localhost:8001" {
		t.Errorf("Plugins.URL = %q, want %q", cfg.Plugins.URL, "http://localhost:8001")
	}
	if cfg.Plugins.Watch {
		t.Error("Plugins.Watch should be false by default")
	}

	if cfg.Monitor.IntervalMs != 5000 {
		t.Errorf("Monitor.IntervalMs = %d, want 5000", cfg.Monitor.IntervalMs)
	}
	if cfg.Monitor.MaxTreeDepth != 1024 {
		t.Errorf("Monitor.MaxTreeDepth = %d, want 1024", cfg.Monitor.MaxTreeDepth)
	}

	if cfg.Cache.JobRecords != 128 {
		t.Errorf("Cache.JobRecords = %d, want 128", cfg.Cache.JobRecords)
	}

	if !cfg.TUI.ShowHelp {
		t.Error("TUI.ShowHelp should be true by default")
	}
	if cfg.TUI.PreviewFormat != "yaml" {
		t.Errorf("TUI.PreviewFormat = %q, want %q", cfg.TUI.PreviewFormat, "yaml")
	}

	if !cfg.Logging.Enabled {
		t.Error("Logging.Enabled should be true by default")
	}
	if cfg.Logging.Level != "info" {
		t.Errorf("Logging.Level = %q, want %q", cfg.Logging.Level, "info")
	}
}

func TestDurations(t *testing.T) {
	tests := []struct {
		name     string
		got      time.Duration
		expected time.Duration
	}{
		{"monitor default", (&MonitorConfig{IntervalMs: 5000}).Interval(), 5 * time.Second},
		{"monitor fast", (&MonitorConfig{IntervalMs: 250}).Interval(), 250 * time.Millisecond},
		{"api default", (&APIConfig{TimeoutSeconds: 30}).Timeout(), 30 * time.Second},
		{"api zero", (&APIConfig{}).Timeout(), 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.got != tt.expected {
				t.Errorf("got %v, want %v", tt.got, tt.expected)
			}
		})
	}
}

func TestConfigDir(t *testing.T) {
	t.Run("with XDG_CONFIG_HOME", func(t *testing.T) {
		t.Setenv("XDG_CONFIG_HOME", "/custom/config")
		if got := ConfigDir(); got != "/custom/config/calcwizard" {
			t.Errorf("ConfigDir() = %q, want %q", got, "/custom/config/calcwizard")
		}
	})

	t.Run("without XDG_CONFIG_HOME", func(t *testing.T) {
		t.Setenv("XDG_CONFIG_HOME", "")
		home, _ := os.UserHomeDir()
		expected := filepath.Join(home, ".config", "calcwizard")
		if got := ConfigDir(); got != expected {
			t.Errorf("ConfigDir() = %q, want %q", got, expected)
		}
	})
}

func TestConfigFile(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", "/custom/config")
	if got := ConfigFile(); got != "/custom/config/calcwizard/config.yaml" {
		t.Errorf("ConfigFile() = %q", got)
	}
}

func TestLoggingConfig_ResolveDir(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", "/custom/config")

	tests := []struct {
		dir      string
		expected string
	}{
		{"", "/custom/config/calcwizard/logs"},
		{"/var/log/calcwizard", "/var/log/calcwizard"},
	}
	for _, tt := range tests {
		cfg := LoggingConfig{Dir: tt.dir}
		if got := cfg.ResolveDir(); got != tt.expected {
			t.Errorf("ResolveDir(%q) = %q, want %q", tt.dir, got, tt.expected)
		}
	}

	home, err := os.UserHomeDir()
	if err != nil {
		t.Skip("no home directory")
	}
	cfg := LoggingConfig{Dir: "~/logs"}
	if got := cfg.ResolveDir(); got != filepath.Join(home, "logs") {
		t.Errorf("ResolveDir(~/logs) = %q", got)
	}
}

func TestGet(t *testing.T) {
	// Set defaults in viper first (normally done by cmd init)
	SetDefaults()

	cfg := Get()
	if cfg == nil {
		t.Fatal("Get() returned nil")
	}
	if cfg.Monitor.IntervalMs != 5000 {
		t.Errorf("Get().Monitor.IntervalMs = %d, want 5000", cfg.Monitor.IntervalMs)
	}
	if cfg.Plugins.Source != "http" {
		t.Errorf("Get().Plugins.Source = %q, want %q", cfg.Plugins.Source, "http")
	}
}
