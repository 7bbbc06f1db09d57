package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/viper"
)

const envPrefix = "NPMREPORT"

const (
	FormatText = "text"
	FormatJSON = "json"
)

type Log struct {
	Level string `mapstructure:"level"`
}

type Audit struct {
	// SummaryMismatch is "warn" or "fail".
	SummaryMismatch string `mapstructure:"summary_mismatch"`
}

type Output struct {
	Format string `mapstructure:"format"`
}

type Batch struct {
	Concurrency int `mapstructure:"concurrency"`
}

type Config struct {
	Log    Log    `mapstructure:"log"`
	Audit  Audit  `mapstructure:"audit"`
	Output Output `mapstructure:"output"`
	Batch  Batch  `mapstructure:"batch"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("log.level", "info")
	v.SetDefault("audit.summary_mismatch", "warn")
	v.SetDefault("output.format", FormatText)
	v.SetDefault("batch.concurrency", 4)
}

// Load reads the YAML file at configPath, if any, over the defaults.
// NPMREPORT_* environment variables override both. A missing file is not
// an error.
func Load(configPath string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configPath != "" {
		v.SetConfigFile(configPath)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("reading config %s: %w", configPath, err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("decoding config: %w", err)
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &config, nil
}

// Validate checks enumerated values and bounds.
func (c *Config) Validate() error {
	switch strings.ToLower(c.Audit.SummaryMismatch) {
	case "warn", "fail":
	default:
		return fmt.Errorf("audit.summary_mismatch: invalid value %q, want warn or fail", c.Audit.SummaryMismatch)
	}
	switch c.Output.Format {
	case FormatText, FormatJSON:
	default:
		return fmt.Errorf("output.format: invalid value %q, want %s or %s", c.Output.Format, FormatText, FormatJSON)
	}
	if c.Batch.Concurrency < 1 {
		return fmt.Errorf("batch.concurrency: must be at least 1, got %d", c.Batch.Concurrency)
	}
	return nil
}
