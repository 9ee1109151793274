package cmd

import (
	"fmt"
	"os"

	"github.com/dbsmedya/cmmcal/internal/config"
	"github.com/dbsmedya/cmmcal/internal/logger"
	"github.com/google/uuid"
	"github.com/gookit/color"
	"github.com/spf13/cobra"
)

// Version information (set via ldflags at build time)
var (
	Version = "0.0.1-dev"
	Commit  = "unknown"
)

// CLI flags that override config file values
var (
	cfgFile   string
	logLevel  string
	logFormat string
	noColor   bool
)

var rootCmd = &cobra.Command{
	Use:   "cmmcal",
	Short: "CMM report converter and Perceptron offset calculator",
	Long: `A CLI tool for turning CMM inspection reports into spreadsheets and
calibrating Perceptron in-line gauges against CMM measurements.

Features:
  - CMM TXT report to XLSX conversion
  - Perceptron vs CMM offset calculation (mean, correlation, 6 sigma)
  - Gauge offset XML generation for the measurement station
  - Workbook schema validation`,
	Version:       Version,
	SilenceUsage:  true,
	SilenceErrors: false,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if noColor {
			color.Enable = false
		}
	},
}

// Execute runs the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	// Config file flag
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "",
		"Path to configuration file (defaults are used when empty)")

	// Logging overrides
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "",
		"Override log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "",
		"Override log format (json, text)")

	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false,
		"Disable coloured status output")
}

// GetConfigFile returns the config file path
func GetConfigFile() string {
	return cfgFile
}

// GetCLIOverrides returns the persistent flag override values. Commands add
// their own fields before applying them.
func GetCLIOverrides() config.Overrides {
	return config.Overrides{
		LogLevel:  logLevel,
		LogFormat: logFormat,
	}
}

// setup loads and validates the configuration, applies overrides and builds
// the logger every command runs with. Each run logs under its own run_id.
func setup(overrides config.Overrides) (*config.Config, *logger.Logger, error) {
	cfg, err := config.Load(GetConfigFile())
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load config: %w", err)
	}

	cfg.ApplyOverrides(overrides)

	if err := cfg.Validate(); err != nil {
		return nil, nil, fmt.Errorf("invalid configuration: %w", err)
	}

	log, err := logger.New(&cfg.Logging)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	log = log.WithFields(map[string]interface{}{"run_id": uuid.NewString()})
	return cfg, log, nil
}
