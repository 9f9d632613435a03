package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	// ConfigFileName is the base name for configuration files (without extension).
	ConfigFileName = "form-mcp"

	// EnvPrefix is the prefix for environment variables.
	EnvPrefix = "FORM_MCP"

	// DotEnvFile is loaded into the process environment before configuration.
	DotEnvFile = ".env"
)

// Loader handles loading configuration from various sources.
type Loader struct {
	v *viper.Viper
}

// NewLoader creates a loader on the global viper instance, which is where
// the root command binds its flags.
func NewLoader() *Loader {
	return &Loader{v: viper.GetViper()}
}

// NewLoaderWith creates a loader on v.
func NewLoaderWith(v *viper.Viper) *Loader {
	return &Loader{v: v}
}

// LoadDotEnv loads KEY=value pairs from the given files (DotEnvFile when
// none are named) into the environment. Missing files are ignored and
// variables already set are left alone.
func LoadDotEnv(files ...string) error {
	if len(files) == 0 {
		files = []string{DotEnvFile}
	}
	for _, f := range files {
		if err := godotenv.Load(f); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return fmt.Errorf("error loading %s: %w", f, err)
		}
	}
	return nil
}

// Load searches the standard paths for form-mcp.yaml, applies environment
// variables and defaults, and validates the result. A missing config file is
// not an error.
func (l *Loader) Load() (*Config, error) {
	l.v.SetConfigName(ConfigFileName)
	l.v.SetConfigType("yaml")
	l.addConfigPaths()
	l.prepare()

	if err := l.v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}
	return l.unmarshal()
}

// LoadWithFile loads configuration from a specific file path. An empty path
// behaves like Load.
func (l *Loader) LoadWithFile(configFile string) (*Config, error) {
	if configFile == "" {
		return l.Load()
	}
	if _, err := os.Stat(configFile); os.IsNotExist(err) {
		return nil, fmt.Errorf("config file does not exist: %s", configFile)
	}

	l.v.SetConfigFile(configFile)
	l.prepare()

	if err := l.v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("error reading config file %s: %w", configFile, err)
	}
	return l.unmarshal()
}

// Reload re-reads the viper state, picking up flags bound after Load.
func (l *Loader) Reload() (*Config, error) {
	return l.unmarshal()
}

// GetConfigFileUsed returns the path of the config file used.
func (l *Loader) GetConfigFileUsed() string {
	return l.v.ConfigFileUsed()
}

// GetViper returns the underlying viper instance.
func (l *Loader) GetViper() *viper.Viper {
	return l.v
}

func (l *Loader) prepare() {
	l.v.SetEnvPrefix(EnvPrefix)
	l.v.AutomaticEnv()
	l.v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))

	// No default, so it has to be bound for the env var to be seen.
	_ = l.v.BindEnv("extract.confidence_threshold")

	l.setDefaults()
}

func (l *Loader) unmarshal() (*Config, error) {
	var cfg Config
	if err := l.v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return &cfg, nil
}

func (l *Loader) addConfigPaths() {
	l.v.AddConfigPath(".")

	if configDir, ok := os.LookupEnv("XDG_CONFIG_HOME"); ok {
		l.v.AddConfigPath(filepath.Join(configDir, "form-mcp"))
	} else if home, err := os.UserHomeDir(); err == nil {
		l.v.AddConfigPath(filepath.Join(home, ".config", "form-mcp"))
	}

	l.v.AddConfigPath("/etc/form-mcp")
}

func (l *Loader) setDefaults() {
	defaults := DefaultConfig()

	l.v.SetDefault("log_level", defaults.LogLevel)
	l.v.SetDefault("verbose", defaults.Verbose)

	l.v.SetDefault("extract.language", defaults.Extract.Language)
	l.v.SetDefault("extract.workers", defaults.Extract.Workers)
	l.v.SetDefault("extract.page", defaults.Extract.Page)
	l.v.SetDefault("extract.segment_grids", defaults.Extract.SegmentGrids)

	l.v.SetDefault("ocr.tessdata_prefix", defaults.OCR.TessdataPrefix)

	l.v.SetDefault("output.file", defaults.Output.File)
	l.v.SetDefault("output.overlay", defaults.Output.Overlay)
	l.v.SetDefault("output.pretty", defaults.Output.Pretty)

	l.v.SetDefault("bootstrap.dpi", defaults.Bootstrap.DPI)
	l.v.SetDefault("bootstrap.language", defaults.Bootstrap.Language)

	l.v.SetDefault("server.metrics_addr", defaults.Server.MetricsAddr)
}
