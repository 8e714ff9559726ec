// Package config provides configuration loading and management for dicomstack.
// It handles loading configuration from YAML files and provides default values.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"dicomstack/pkg/export"
	"dicomstack/pkg/ordering"
)

// Config represents the application configuration loaded from YAML
type Config struct {
	// Input parameters
	Input struct {
		// Path is a single source file or a directory of sources
		Path string `yaml:"path"`

		// Extensions selects which files in a directory are sources
		Extensions []string `yaml:"extensions"`
	} `yaml:"input"`

	// Output parameters
	Output struct {
		// Dir receives exported rasters and extracted slices
		Dir string `yaml:"dir"`

		// Format is the raster format: png, jpeg or tiff
		Format string `yaml:"format"`

		// Verbose controls the level of logging output
		Verbose bool `yaml:"verbose"`
	} `yaml:"output"`

	// Ordering parameters
	Ordering struct {
		// Policy is lexicographic, natural or position
		Policy string `yaml:"policy"`
	} `yaml:"ordering"`
}

// DefaultConfig returns a configuration with default values
func DefaultConfig() *Config {
	cfg := &Config{}

	cfg.Input.Path = "dicomData"
	cfg.Input.Extensions = []string{".dcm"}

	cfg.Output.Dir = "dicomOutput"
	cfg.Output.Format = string(export.PNG)
	cfg.Output.Verbose = true

	cfg.Ordering.Policy = ordering.LexicographicName

	return cfg
}

// Validate checks option values that the YAML decoder cannot
func (c *Config) Validate() error {
	if _, err := export.ParseFormat(c.Output.Format); err != nil {
		return err
	}
	if !ordering.IsKnown(c.Ordering.Policy) {
		return fmt.Errorf("unknown ordering policy %q", c.Ordering.Policy)
	}
	return nil
}

// LoadConfig loads configuration from a YAML file
// If the file doesn't exist, it returns the default configuration
func LoadConfig(configPath string) (*Config, error) {
	cfg := DefaultConfig()

	// Check if config file exists
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return cfg, nil
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("error parsing config file: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config file: %w", err)
	}

	return cfg, nil
}

// SaveConfig saves the configuration to a YAML file
func SaveConfig(cfg *Config, configPath string) error {
	// Create directory if it doesn't exist
	dir := filepath.Dir(configPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("error creating config directory: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("error marshaling config: %w", err)
	}

	if err := os.WriteFile(configPath, data, 0644); err != nil {
		return fmt.Errorf("error writing config file: %w", err)
	}

	return nil
}

// CreateDefaultConfigFile creates a default configuration file at the specified path
func CreateDefaultConfigFile(configPath string) error {
	cfg := DefaultConfig()
	return SaveConfig(cfg, configPath)
}
