package config

import (
	"strings"
	"testing"
)

func TestValidationError_Error(t *testing.T) {
	err := ValidationError{
		Field:   "test.field",
		Value:   123,
		Message: "must be greater than zero",
	}

	expected := "test.field: must be greater than zero (got: 123)"
	if err.Error() != expected {
		t.Errorf("Error() = %q, want %q", err.Error(), expected)
	}
}

func TestValidationErrors_Error(t *testing.T) {
	t.Run("empty errors", func(t *testing.T) {
		var errs ValidationErrors
		if errs.Error() != "" {
			t.Errorf("Error() for empty = %q, want empty string", errs.Error())
		}
	})

	t.Run("single error", func(t *testing.T) {
		errs := ValidationErrors{
			{Field: "test.field", Value: 123, Message: "is invalid"},
		}
		expected := "test.field: is invalid (got: 123)"
		if errs.Error() != expected {
			t.Errorf("Error() = %q, want %q", errs.Error(), expected)
		}
	})

	t.Run("multiple errors", func(t *testing.T) {
		errs := ValidationErrors{
			{Field: "field1", Value: "bad", Message: "is invalid"},
			{Field: "field2", Value: -1, Message: "must be positive"},
		}
		result := errs.Error()
		if !strings.Contains(result, "2 validation errors") {
			t.Errorf("Error() should mention 2 errors: %s", result)
		}
		if !strings.Contains(result, "field1") || !strings.Contains(result, "field2") {
			t.Errorf("Error() should mention both fields: %s", result)
		}
	})
}

func TestConfig_Validate_DefaultConfig(t *testing.T) {
	cfg := Default()
	if errs := cfg.Validate(); len(errs) != 0 {
		t.Errorf("Default config should be valid, got %d errors: %v", len(errs), errs)
	}
}

func hasFieldError(errs []ValidationError, field string) bool {
	for _, err := range errs {
		if err.Field == field {
			return true
		}
	}
	return false
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		field   string
		wantErr bool
	}{
		{"empty base url", func(c *Config) { c.API.BaseURL = "" }, "api.base_url", true},
		{"ftp base url", func(c *Config) { c.API.BaseURL = "ftp://jobs" }, "api.base_url", true},
		{"hostless base url", func(c *Config) { c.API.BaseURL = "http://" }, "api.base_url", true},
		{"https base url", func(c *Config) { c.API.BaseURL = "https://jobs.example.org/root" }, "api.base_url", false},
		{"zero timeout", func(c *Config) { c.API.TimeoutSeconds = 0 }, "api.timeout_seconds", true},

		{"unknown plugin source", func(c *Config) { c.Plugins.Source = "git" }, "plugins.source", true},
		{"static source", func(c *Config) { c.Plugins.Source = "static" }, "plugins.source", false},
		{"http source bad url", func(c *Config) { c.Plugins.URL = "localhost" }, "plugins.url", true},
		{"dir source without dir", func(c *Config) { c.Plugins.Source = "dir" }, "plugins.dir", true},
		{"dir source with dir", func(c *Config) {
			c.Plugins.Source = "dir"
			c.Plugins.Dir = "/opt/plugins"
			c.Plugins.Watch = true
		}, "plugins.watch", false},
		{"watch without dir source", func(c *Config) { c.Plugins.Watch = true }, "plugins.watch", true},

		{"interval too small", func(c *Config) { c.Monitor.IntervalMs = 10 }, "monitor.interval_ms", true},
		{"interval minimum", func(c *Config) { c.Monitor.IntervalMs = 100 }, "monitor.interval_ms", false},
		{"zero tree depth", func(c *Config) { c.Monitor.MaxTreeDepth = 0 }, "monitor.max_tree_depth", true},

		{"zero cache", func(c *Config) { c.Cache.JobRecords = 0 }, "cache.job_records", true},

		{"json preview", func(c *Config) { c.TUI.PreviewFormat = "json" }, "tui.preview_format", false},
		{"toml preview", func(c *Config) { c.TUI.PreviewFormat = "toml" }, "tui.preview_format", true},

		{"empty log level", func(c *Config) { c.Logging.Level = "" }, "logging.level", false},
		{"uppercase log level", func(c *Config) { c.Logging.Level = "INFO" }, "logging.level", true},
		{"null byte in log dir", func(c *Config) { c.Logging.Dir = "/tmp/\x00" }, "logging.dir", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			got := hasFieldError(cfg.Validate(), tt.field)
			if got != tt.wantErr {
				t.Errorf("error on %s = %v, want %v", tt.field, got, tt.wantErr)
			}
		})
	}
}

func TestConfig_Validate_MultipleErrors(t *testing.T) {
	cfg := Default()
	cfg.API.TimeoutSeconds = -1
	cfg.Monitor.IntervalMs = 0
	cfg.Logging.Level = "verbose"

	if errs := cfg.Validate(); len(errs) != 3 {
		t.Errorf("expected 3 errors, got %d: %v", len(errs), errs)
	}
}
