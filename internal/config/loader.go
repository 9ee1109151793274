package config

import (
	"fmt"
	"os"
	"regexp"
	"strings"

	"github.com/spf13/viper"
)

// Load reads configuration from the specified file path.
// An empty path yields the defaults. It supports YAML files and performs
// environment variable substitution.
func Load(configPath string) (*Config, error) {
	if configPath == "" {
		cfg := DefaultConfig()
		if err := substituteEnvVars(cfg); err != nil {
			return nil, fmt.Errorf("failed to substitute environment variables: %w", err)
		}
		return cfg, nil
	}

	v := viper.New()

	v.SetConfigFile(configPath)
	v.SetConfigType("yaml")

	// Read the config file
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	return LoadFromViper(v)
}

// LoadFromViper creates a Config from an existing Viper instance.
// Useful for testing or when Viper is configured externally.
func LoadFromViper(v *viper.Viper) (*Config, error) {
	cfg := DefaultConfig()

	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := substituteEnvVars(cfg); err != nil {
		return nil, fmt.Errorf("failed to substitute environment variables: %w", err)
	}

	return cfg, nil
}

// envVarPattern matches ${VAR_NAME} or $VAR_NAME patterns
var envVarPattern = regexp.MustCompile(`\$\{([^}]+)\}|\$([A-Za-z_][A-Za-z0-9_]*)`)

// substituteEnvVars replaces ${VAR_NAME} patterns with environment variable values.
func substituteEnvVars(cfg *Config) error {
	cfg.Report.Output = expandEnvVar(cfg.Report.Output)

	cfg.Compare.SummaryOutput = expandEnvVar(cfg.Compare.SummaryOutput)

	cfg.Gauge.StationName = expandEnvVar(cfg.Gauge.StationName)
	cfg.Gauge.ModelName = expandEnvVar(cfg.Gauge.ModelName)
	cfg.Gauge.Output = expandEnvVar(cfg.Gauge.Output)

	cfg.Logging.Output = expandEnvVar(cfg.Logging.Output)

	return nil
}

// expandEnvVar expands environment variables in the format ${VAR} or $VAR.
func expandEnvVar(s string) string {
	return envVarPattern.ReplaceAllStringFunc(s, func(match string) string {
		var varName string
		if strings.HasPrefix(match, "${") {
			varName = match[2 : len(match)-1]
		} else {
			varName = match[1:]
		}

		if value, exists := os.LookupEnv(varName); exists {
			return value
		}
		// Return original if env var not found
		return match
	})
}

// Overrides contains CLI flag values that take precedence over the file.
// Zero values leave the configured value untouched.
type Overrides struct {
	LogLevel     string
	LogFormat    string
	StationName  string
	ModelName    string
	DuplicateJSN string
	GaugeOutput  string
}

// ApplyOverrides applies CLI flag overrides to the configuration.
// Only non-empty values are applied.
func (c *Config) ApplyOverrides(o Overrides) {
	if o.LogLevel != "" {
		c.Logging.Level = o.LogLevel
	}
	if o.LogFormat != "" {
		c.Logging.Format = o.LogFormat
	}
	if o.StationName != "" {
		c.Gauge.StationName = o.StationName
	}
	if o.ModelName != "" {
		c.Gauge.ModelName = o.ModelName
	}
	if o.DuplicateJSN != "" {
		c.Compare.DuplicateJSN = o.DuplicateJSN
	}
	if o.GaugeOutput != "" {
		c.Gauge.Output = o.GaugeOutput
	}
}
