package cmd

import (
	"context"
	"fmt"
	"image"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/ironsheep/form-tools-mcp/internal/config"
	"github.com/ironsheep/form-tools-mcp/internal/ocr"
)

var (
	// Global configuration loader.
	configLoader *config.Loader
	// Configuration file path.
	cfgFile string
	// Extra .env file loaded before configuration.
	envFile string
)

// recognizer is the OCR surface the commands use.
type recognizer interface {
	ocr.Engine
	ExtractLines(ctx context.Context, img image.Image, language string) (*ocr.OCRResult, error)
	ExtractText(ctx context.Context, path, language string) (*ocr.OCRResult, error)
	Close() error
}

// newRecognizer builds the OCR backend. Tests replace it.
var newRecognizer = func(cfg *config.Config) (recognizer, error) {
	t, err := ocr.NewTesseract(ocr.TesseractConfig{TessdataPrefix: cfg.OCR.TessdataPrefix})
	if err != nil {
		return nil, err
	}
	return t, nil
}

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "form-mcp",
	Short: "Template-driven field extraction from scanned forms",
	Long: `Extract field values from scanned form images using a template of field
bounding boxes and Tesseract OCR.

Each field's box (pixels or millimetres) is resolved against the scan,
cropped, cleaned up and recognized. Readings below the confidence threshold
or the field's minimum length are reported as rejected with a reason.

Examples:
  form-mcp extract --template business_front.json scan.jpg
  form-mcp bootstrap sample.jpg --output template.yaml
  form-mcp dump scan.jpg
  form-mcp serve`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := initConfig(); err != nil {
			return err
		}
		setupLogging(GetConfig(), cmd)
		return nil
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// GetRootCommand returns the root command for testing purposes.
func GetRootCommand() *cobra.Command {
	return rootCmd
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is form-mcp.yaml in ., $XDG_CONFIG_HOME/form-mcp, /etc/form-mcp)")
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", "", "additional .env file to load")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "verbose output (equivalent to --log-level=debug)")
	rootCmd.PersistentFlags().String("log-level", "info", "log level (debug, info, warn, error)")

	bindPersistentFlags()
}

// bindPersistentFlags binds the global flags to the global viper instance.
func bindPersistentFlags() {
	_ = viper.BindPFlag("verbose", rootCmd.PersistentFlags().Lookup("verbose"))
	_ = viper.BindPFlag("log_level", rootCmd.PersistentFlags().Lookup("log-level"))
}

// initConfig reads .env files, the config file and FORM_MCP_* variables.
func initConfig() error {
	dotenv := []string{config.DotEnvFile}
	if envFile != "" {
		dotenv = append(dotenv, envFile)
	}
	if err := config.LoadDotEnv(dotenv...); err != nil {
		return err
	}

	configLoader = config.NewLoader()
	if _, err := configLoader.LoadWithFile(cfgFile); err != nil {
		return fmt.Errorf("error loading configuration: %w", err)
	}
	return nil
}

// setupLogging installs a text handler on stderr. Stdout carries results and,
// under serve, the protocol.
func setupLogging(cfg *config.Config, cmd *cobra.Command) {
	logLevel := slog.LevelInfo
	if cfg.Verbose {
		logLevel = slog.LevelDebug
	} else {
		switch cfg.LogLevel {
		case "debug":
			logLevel = slog.LevelDebug
		case "warn":
			logLevel = slog.LevelWarn
		case "error":
			logLevel = slog.LevelError
		}
	}

	logger := slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{
		Level: logLevel,
	}))
	slog.SetDefault(logger)
}

// GetConfig returns the configuration including flags bound after loading.
func GetConfig() *config.Config {
	if configLoader == nil {
		configLoader = config.NewLoader()
	}
	cfg, err := configLoader.Reload()
	if err != nil {
		slog.Warn("falling back to default configuration", "error", err)
		def := config.DefaultConfig()
		return &def
	}
	return cfg
}
