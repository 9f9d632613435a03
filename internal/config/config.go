package config

import (
	"fmt"
	"slices"
	"strings"
)

// Config represents the complete configuration for form-mcp. It covers every
// command (extract, bootstrap, dump, serve) and is loaded from a config file,
// FORM_MCP_* environment variables and command-line flags.
type Config struct {
	LogLevel string `mapstructure:"log_level" yaml:"log_level" json:"log_level"`
	Verbose  bool   `mapstructure:"verbose" yaml:"verbose" json:"verbose"`

	Extract   ExtractConfig   `mapstructure:"extract" yaml:"extract" json:"extract"`
	OCR       OCRConfig       `mapstructure:"ocr" yaml:"ocr" json:"ocr"`
	Output    OutputConfig    `mapstructure:"output" yaml:"output" json:"output"`
	Bootstrap BootstrapConfig `mapstructure:"bootstrap" yaml:"bootstrap" json:"bootstrap"`
	Server    ServerConfig    `mapstructure:"server" yaml:"server" json:"server"`
}

// ExtractConfig contains field extraction settings.
type ExtractConfig struct {
	Language string `mapstructure:"language" yaml:"language" json:"language"`

	// ConfidenceThreshold is nil when unset, so templates fall back to
	// their own conf_required or the built-in default.
	ConfidenceThreshold *float64 `mapstructure:"confidence_threshold" yaml:"confidence_threshold" json:"confidence_threshold,omitempty"`

	Workers      int  `mapstructure:"workers" yaml:"workers" json:"workers"`
	Page         int  `mapstructure:"page" yaml:"page" json:"page"`
	SegmentGrids bool `mapstructure:"segment_grids" yaml:"segment_grids" json:"segment_grids"`
}

// OCRConfig contains Tesseract settings.
type OCRConfig struct {
	TessdataPrefix string `mapstructure:"tessdata_prefix" yaml:"tessdata_prefix" json:"tessdata_prefix"`
}

// OutputConfig controls where results go.
type OutputConfig struct {
	File    string `mapstructure:"file" yaml:"file" json:"file"`
	Overlay string `mapstructure:"overlay" yaml:"overlay" json:"overlay"`
	Pretty  bool   `mapstructure:"pretty" yaml:"pretty" json:"pretty"`
}

// BootstrapConfig contains template generation settings.
type BootstrapConfig struct {
	DPI      int    `mapstructure:"dpi" yaml:"dpi" json:"dpi"`
	Language string `mapstructure:"language" yaml:"language" json:"language"`
}

// ServerConfig contains settings for the serve command.
type ServerConfig struct {
	// MetricsAddr is the listen address of the /metrics endpoint. Empty
	// disables it.
	MetricsAddr string `mapstructure:"metrics_addr" yaml:"metrics_addr" json:"metrics_addr"`
}

var validLogLevels = []string{"debug", "info", "warn", "error"}

// DefaultConfig returns a configuration with sensible defaults.
func DefaultConfig() Config {
	return Config{
		LogLevel: "info",
		Extract: ExtractConfig{
			Language: "",
			Workers:  1,
			Page:     1,
		},
		Output: OutputConfig{
			Pretty: true,
		},
		Bootstrap: BootstrapConfig{
			DPI:      300,
			Language: "eng",
		},
	}
}

// Validate validates the configuration and returns any errors.
func (c *Config) Validate() error {
	if !slices.Contains(validLogLevels, c.LogLevel) {
		return fmt.Errorf("invalid log level: %s (must be one of: %s)", c.LogLevel, strings.Join(validLogLevels, ", "))
	}

	if t := c.Extract.ConfidenceThreshold; t != nil && (*t < 0 || *t > 1) {
		return fmt.Errorf("invalid extract.confidence_threshold: %v (must be between 0.0 and 1.0)", *t)
	}
	if c.Extract.Workers <= 0 {
		return fmt.Errorf("invalid extract.workers: %d (must be positive)", c.Extract.Workers)
	}
	if c.Extract.Page <= 0 {
		return fmt.Errorf("invalid extract.page: %d (must be positive)", c.Extract.Page)
	}
	if c.Bootstrap.DPI <= 0 {
		return fmt.Errorf("invalid bootstrap.dpi: %d (must be positive)", c.Bootstrap.DPI)
	}
	return nil
}
