// Package config provides configuration management.
package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"

	"metrix-mapping/internal/errors"
	"metrix-mapping/internal/logging"
)

// EnvPrefix prefixes environment overrides, e.g. METRIX_MAPPING_IGNORE_LIMITS
const EnvPrefix = "METRIX"

// Config is the main application configuration
type Config struct {
	// Version is the configuration version
	Version string `json:"version" mapstructure:"version"`

	// Mapping contains the engine parameters
	Mapping MappingConfig `json:"mapping" mapstructure:"mapping"`

	// Output contains output configuration
	Output OutputConfig `json:"output" mapstructure:"output"`

	// Logging contains logging configuration
	Logging logging.Config `json:"logging" mapstructure:"logging"`
}

// MappingConfig contains the engine run parameters
type MappingConfig struct {
	// Versions to process; empty means every version of the table
	Versions []int `json:"versions" mapstructure:"versions"`

	// FirstPoint is the first time point processed
	FirstPoint int `json:"first_point" mapstructure:"first_point"`

	// LastPoint is the last time point processed, -1 for the end of the table
	LastPoint int `json:"last_point" mapstructure:"last_point"`

	// IgnoreLimits widens limits instead of clamping mapped values
	IgnoreLimits bool `json:"ignore_limits" mapstructure:"ignore_limits"`

	// IgnoreEmptyFilter logs instead of failing when a non-zero value has no equipment
	IgnoreEmptyFilter bool `json:"ignore_empty_filter" mapstructure:"ignore_empty_filter"`

	// IdentifyConstantTimeSeries enables the constant pass
	IdentifyConstantTimeSeries bool `json:"identify_constant_time_series" mapstructure:"identify_constant_time_series"`

	// ToleranceThreshold is the dead-band around power limits
	ToleranceThreshold float64 `json:"tolerance_threshold" mapstructure:"tolerance_threshold"`

	// RequiredTimeSeries must exist in the table even if unused by the mapping
	RequiredTimeSeries []string `json:"required_time_series,omitempty" mapstructure:"required_time_series"`
}

// OutputConfig contains output-related settings
type OutputConfig struct {
	// Directory receives every artifact
	Directory string `json:"directory" mapstructure:"directory"`

	// Separator is the CSV field separator
	Separator string `json:"separator" mapstructure:"separator"`

	// TimeZone used to print time columns
	TimeZone string `json:"time_zone" mapstructure:"time_zone"`

	// WriteLogs writes mappingLogs.csv and mappingLogs.json
	WriteLogs bool `json:"write_logs" mapstructure:"write_logs"`

	// WriteBalance writes balanceSummary.csv and balanceStats.csv
	WriteBalance bool `json:"write_balance" mapstructure:"write_balance"`

	// WriteEquipmentSeries writes one equipment time series CSV per version
	WriteEquipmentSeries bool `json:"write_equipment_series" mapstructure:"write_equipment_series"`

	// WriteNetwork writes the last mapped point of each version as YAML
	WriteNetwork bool `json:"write_network" mapstructure:"write_network"`

	// WriteMappingConfig dumps the resolved mapping configuration as JSON
	WriteMappingConfig bool `json:"write_mapping_config" mapstructure:"write_mapping_config"`
}

// Default returns a default configuration
func Default() *Config {
	return &Config{
		Version: "1.0",
		Mapping: MappingConfig{
			FirstPoint:                 0,
			LastPoint:                  -1,
			IgnoreLimits:               false,
			IgnoreEmptyFilter:          false,
			IdentifyConstantTimeSeries: true,
			ToleranceThreshold:         0.0001,
		},
		Output: OutputConfig{
			Directory:    "mapping-output",
			Separator:    ";",
			TimeZone:     "UTC",
			WriteLogs:    true,
			WriteBalance: true,
		},
		Logging: logging.DefaultConfig(),
	}
}

// Validate checks the values that cannot be fixed by defaults
func (c *Config) Validate() error {
	m := c.Mapping
	if m.ToleranceThreshold < 0 {
		return errors.Config("tolerance threshold must be positive, got %v", m.ToleranceThreshold)
	}
	if m.FirstPoint < 0 {
		return errors.Config("first point must be positive, got %d", m.FirstPoint)
	}
	if m.LastPoint >= 0 && m.LastPoint < m.FirstPoint {
		return errors.Config("invalid point range [%d, %d]", m.FirstPoint, m.LastPoint)
	}
	if len([]rune(c.Output.Separator)) != 1 {
		return errors.Config("separator must be a single character, got %q", c.Output.Separator)
	}
	return nil
}

// SeparatorRune returns the CSV separator as a rune
func (c *Config) SeparatorRune() rune {
	r := []rune(c.Output.Separator)
	if len(r) == 0 {
		return ';'
	}
	return r[0]
}

// Load loads configuration from a JSON or YAML file, then applies METRIX_* environment overrides.
// A missing file yields the defaults plus the environment.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v, Default())
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			if _, statErr := os.Stat(path); !os.IsNotExist(statErr) {
				return nil, errors.Parsing("failed to read config "+path, err)
			}
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, errors.Parsing("failed to decode config", err)
	}
	return cfg, nil
}

// setDefaults registers every key so environment overrides reach Unmarshal
func setDefaults(v *viper.Viper, d *Config) {
	v.SetDefault("version", d.Version)

	v.SetDefault("mapping.versions", d.Mapping.Versions)
	v.SetDefault("mapping.first_point", d.Mapping.FirstPoint)
	v.SetDefault("mapping.last_point", d.Mapping.LastPoint)
	v.SetDefault("mapping.ignore_limits", d.Mapping.IgnoreLimits)
	v.SetDefault("mapping.ignore_empty_filter", d.Mapping.IgnoreEmptyFilter)
	v.SetDefault("mapping.identify_constant_time_series", d.Mapping.IdentifyConstantTimeSeries)
	v.SetDefault("mapping.tolerance_threshold", d.Mapping.ToleranceThreshold)
	v.SetDefault("mapping.required_time_series", d.Mapping.RequiredTimeSeries)

	v.SetDefault("output.directory", d.Output.Directory)
	v.SetDefault("output.separator", d.Output.Separator)
	v.SetDefault("output.time_zone", d.Output.TimeZone)
	v.SetDefault("output.write_logs", d.Output.WriteLogs)
	v.SetDefault("output.write_balance", d.Output.WriteBalance)
	v.SetDefault("output.write_equipment_series", d.Output.WriteEquipmentSeries)
	v.SetDefault("output.write_network", d.Output.WriteNetwork)
	v.SetDefault("output.write_mapping_config", d.Output.WriteMappingConfig)

	v.SetDefault("logging.level", d.Logging.Level)
	v.SetDefault("logging.format", d.Logging.Format)
	v.SetDefault("logging.output", d.Logging.Output)
	v.SetDefault("logging.development", d.Logging.Development)
}

// Save saves configuration to a file
func (c *Config) Save(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0644)
}

// Global configuration instance
var globalConfig = Default()

// Get returns the global configuration
func Get() *Config {
	return globalConfig
}

// Set sets the global configuration
func Set(config *Config) {
	globalConfig = config
}
