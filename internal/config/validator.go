package config

import (
	"fmt"
	"net/url"
	"slices"
	"strings"
)

// ValidationError represents a single validation failure
type ValidationError struct {
	Field   string // The config field path (e.g., "monitor.interval_ms")
	Value   any    // The invalid value
	Message string // Human-readable error description
}

// Error implements the error interface for ValidationError
func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s (got: %v)", e.Field, e.Message, e.Value)
}

// ValidationErrors is a collection of validation errors
type ValidationErrors []ValidationError

// Error implements the error interface for ValidationErrors
func (e ValidationErrors) Error() string {
	if len(e) == 0 {
		return ""
	}
	if len(e) == 1 {
		return e[0].Error()
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("%d validation errors:\n", len(e)))
	for i, err := range e {
		sb.WriteString(fmt.Sprintf("  %d. %s\n", i+1, err.Error()))
	}
	return sb.String()
}

// ValidLogLevels returns the list of valid log levels
func ValidLogLevels() []string {
	return []string{"debug", "info", "warn", "error"}
}

// ValidPluginSources returns the list of valid plugin sources
func ValidPluginSources() []string {
	return []string{"http", "dir", "static"}
}

// ValidPreviewFormats returns the list of valid review preview formats
func ValidPreviewFormats() []string {
	return []string{"yaml", "json"}
}

// Validate checks the Config for invalid values and returns all validation errors found
func (c *Config) Validate() []ValidationError {
	var errors []ValidationError

	errors = append(errors, c.validateAPI()...)
	errors = append(errors, c.validatePlugins()...)
	errors = append(errors, c.validateMonitor()...)
	errors = append(errors, c.validateCache()...)
	errors = append(errors, c.validateTUI()...)
	errors = append(errors, c.validateLogging()...)

	return errors
}

func (c *Config) validateAPI() []ValidationError {
	var errors []ValidationError

	if err := validateHTTPURL(c.API.BaseURL); err != "" {
		errors = append(errors, ValidationError{
			Field:   "api.base_url",
			Value:   c.API.BaseURL,
			Message: err,
		})
	}

	if c.API.TimeoutSeconds <= 0 {
		errors = append(errors, ValidationError{
			Field:   "api.timeout_seconds",
			Value:   c.API.TimeoutSeconds,
			Message: "must be positive",
		})
	}

	return errors
}

func (c *Config) validatePlugins() []ValidationError {
	var errors []ValidationError

	if !slices.Contains(ValidPluginSources(), c.Plugins.Source) {
		errors = append(errors, ValidationError{
			Field:   "plugins.source",
			Value:   c.Plugins.Source,
			Message: fmt.Sprintf("must be one of: %s", strings.Join(ValidPluginSources(), ", ")),
		})
		return errors
	}

	switch c.Plugins.Source {
	case "http":
		if err := validateHTTPURL(c.Plugins.URL); err != "" {
			errors = append(errors, ValidationError{
				Field:   "plugins.url",
				Value:   c.Plugins.URL,
				Message: err,
			})
		}
	case "dir":
		if c.Plugins.Dir == "" {
			errors = append(errors, ValidationError{
				Field:   "plugins.dir",
				Value:   c.Plugins.Dir,
				Message: "is required when plugins.source is \"dir\"",
			})
		}
	}

	if c.Plugins.Watch && c.Plugins.Source != "dir" {
		errors = append(errors, ValidationError{
			Field:   "plugins.watch",
			Value:   c.Plugins.Watch,
			Message: "is only supported when plugins.source is \"dir\"",
		})
	}

	return errors
}

func (c *Config) validateMonitor() []ValidationError {
	var errors []ValidationError

	// Sub-100ms polling would hammer the job service
	const minIntervalMs = 100
	if c.Monitor.IntervalMs < minIntervalMs {
		errors = append(errors, ValidationError{
			Field:   "monitor.interval_ms",
			Value:   c.Monitor.IntervalMs,
			Message: fmt.Sprintf("must be at least %d", minIntervalMs),
		})
	}

	if c.Monitor.MaxTreeDepth <= 0 {
		errors = append(errors, ValidationError{
			Field:   "monitor.max_tree_depth",
			Value:   c.Monitor.MaxTreeDepth,
			Message: "must be positive",
		})
	}

	return errors
}

func (c *Config) validateCache() []ValidationError {
	var errors []ValidationError

	if c.Cache.JobRecords <= 0 {
		errors = append(errors, ValidationError{
			Field:   "cache.job_records",
			Value:   c.Cache.JobRecords,
			Message: "must be positive",
		})
	}

	return errors
}

func (c *Config) validateTUI() []ValidationError {
	var errors []ValidationError

	if !slices.Contains(ValidPreviewFormats(), c.TUI.PreviewFormat) {
		errors = append(errors, ValidationError{
			Field:   "tui.preview_format",
			Value:   c.TUI.PreviewFormat,
			Message: fmt.Sprintf("must be one of: %s", strings.Join(ValidPreviewFormats(), ", ")),
		})
	}

	return errors
}

func (c *Config) validateLogging() []ValidationError {
	var errors []ValidationError

	if c.Logging.Level != "" && !slices.Contains(ValidLogLevels(), c.Logging.Level) {
		errors = append(errors, ValidationError{
			Field:   "logging.level",
			Value:   c.Logging.Level,
			Message: fmt.Sprintf("must be one of: %s", strings.Join(ValidLogLevels(), ", ")),
		})
	}

	if strings.ContainsRune(c.Logging.Dir, '\x00') {
		errors = append(errors, ValidationError{
			Field:   "logging.dir",
			Value:   c.Logging.Dir,
			Message: "path contains invalid null character",
		})
	}

	return errors
}

// validateHTTPURL returns an empty string for an absolute http(s) URL and a
// message otherwise.
func validateHTTPURL(raw string) string {
	if raw == "" {
		return "must not be empty"
	}
	u, err := url.Parse(raw)
	if err != nil {
		return "is not a valid URL"
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return "must use http or https"
	}
	if u.Host == "" {
		return "must include a host"
	}
	return ""
}
