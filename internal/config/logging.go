package config

import (
	"fmt"
	"strings"
)

// LoggingConfig controls the internal zap loggers. Nothing is logged unless
// DebugMode is set.
type LoggingConfig struct {
	Level      string          `yaml:"level" json:"level,omitempty"`           // debug, info, warn, error
	Format     string          `yaml:"format" json:"format,omitempty"`         // json, console
	File       string          `yaml:"file" json:"file,omitempty"`             // empty = stderr
	DebugMode  bool            `yaml:"debug_mode" json:"debug_mode,omitempty"` // false = no logging
	Categories map[string]bool `yaml:"categories" json:"categories,omitempty"` // callsite, describe, timing, persist, config, cli
}

// ValidLogFormats lists the accepted zap encodings.
var ValidLogFormats = []string{"console", "json"}

// Validate checks the level and format. Empty values take zap's defaults.
func (c *LoggingConfig) Validate() error {
	switch strings.ToLower(c.Level) {
	case "", "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("invalid logging level: %s", c.Level)
	}
	switch strings.ToLower(c.Format) {
	case "", "console", "json":
	default:
		return fmt.Errorf("invalid logging format: %s (valid: %v)", c.Format, ValidLogFormats)
	}
	return nil
}

// IsCategoryEnabled reports whether category logs. Categories missing from the
// map are on while DebugMode is set.
func (c *LoggingConfig) IsCategoryEnabled(category string) bool {
	if !c.DebugMode {
		return false
	}
	enabled, ok := c.Categories[category]
	return !ok || enabled
}
