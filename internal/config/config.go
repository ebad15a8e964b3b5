package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config holds all easyinfo configuration.
type Config struct {
	// Describer settings
	Verbose  bool   `yaml:"verbose"` // long "name (line n) <type>: value" lines
	Color    bool   `yaml:"color"`
	MaxDepth int    `yaml:"max_depth"`
	Output   string `yaml:"output"` // stdout, stderr

	// Notices prints timer checkpoints and "Saved/Loaded" lines.
	Notices bool `yaml:"notices"`

	// Persistence
	Persist PersistConfig `yaml:"persist"`

	// Logging
	Logging LoggingConfig `yaml:"logging"`
}

// PersistConfig configures save/load.
type PersistConfig struct {
	SaveDir       string `yaml:"save_dir"`
	DefaultFormat string `yaml:"default_format"` // extension used when a path has none, e.g. ".gob"
	Sort          bool   `yaml:"sort"`           // sort mappings by value (descending) in .txt output
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Verbose:  true,
		Color:    false,
		MaxDepth: 10,
		Output:   "stdout",
		Notices:  true,

		Persist: PersistConfig{
			SaveDir:       "",
			DefaultFormat: ".gob",
			Sort:          true,
		},

		Logging: LoggingConfig{
			Level:     "info",
			Format:    "console",
			DebugMode: false,
		},
	}
}

// DefaultPath returns the conventional config location in the working directory.
func DefaultPath() string {
	cwd, err := os.Getwd()
	if err != nil {
		return ".easyinfo.yaml"
	}
	return filepath.Join(cwd, ".easyinfo.yaml")
}

// Load loads configuration from a YAML file.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			// Return defaults if config file doesn't exist
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.normalize()

	return cfg, nil
}

// Save saves configuration to a YAML file.
func (c *Config) Save(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	return nil
}

// normalize fills zero values a partial file leaves behind.
func (c *Config) normalize() {
	if c.MaxDepth <= 0 {
		c.MaxDepth = 10
	}
	if c.Output == "" {
		c.Output = "stdout"
	}
	if c.Persist.DefaultFormat == "" {
		c.Persist.DefaultFormat = ".gob"
	}
	if !strings.HasPrefix(c.Persist.DefaultFormat, ".") {
		c.Persist.DefaultFormat = "." + c.Persist.DefaultFormat
	}
}

// ValidOutputs lists the accepted output streams.
var ValidOutputs = []string{"stdout", "stderr"}

// ValidFormats lists the extensions the persistence layer can write.
var ValidFormats = []string{".gob", ".txt", ".csv", ".tsv", ".json", ".yaml", ".yml", ".db", ".sqlite"}

// Validate validates the configuration.
func (c *Config) Validate() error {
	validOutput := false
	for _, o := range ValidOutputs {
		if c.Output == o {
			validOutput = true
			break
		}
	}
	if !validOutput {
		return fmt.Errorf("invalid output: %s (valid: %v)", c.Output, ValidOutputs)
	}

	validFormat := false
	for _, f := range ValidFormats {
		if c.Persist.DefaultFormat == f {
			validFormat = true
			break
		}
	}
	if !validFormat {
		return fmt.Errorf("invalid default_format: %s (valid: %v)", c.Persist.DefaultFormat, ValidFormats)
	}

	if c.MaxDepth < 0 {
		return fmt.Errorf("max_depth must be >= 0, got %d", c.MaxDepth)
	}

	return c.Logging.Validate()
}
