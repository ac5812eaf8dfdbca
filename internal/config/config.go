package config

import (
	"fmt"
	"time"

	"github.com/docker/go-units"
	"github.com/spf13/viper"
)

// Config holds tool-wide settings for scanning and SleuthKit invocation.
type Config struct {
	BlockSize     int64         `mapstructure:"block_size"`
	ScanStep      int64         `mapstructure:"scan_step"`
	SigfindOffset int           `mapstructure:"sigfind_offset"`
	SectorOffset  int64         `mapstructure:"sector_offset"`
	ToolTimeout   time.Duration `mapstructure:"tool_timeout"`
	ExportTimeout time.Duration `mapstructure:"export_timeout"`
	MaxPreview    string        `mapstructure:"max_preview"`
}

// Load reads configuration using Viper, falling back to defaults when no
// config file is present.
func Load() (*Config, error) {
	viper.SetConfigName("apfshunt")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("$HOME/.apfshunt")
	viper.AddConfigPath("/etc/apfshunt")

	// Set defaults
	viper.SetDefault("block_size", 4096)
	viper.SetDefault("scan_step", 8)
	viper.SetDefault("sigfind_offset", 32)
	viper.SetDefault("sector_offset", 0)
	viper.SetDefault("tool_timeout", "30s")
	viper.SetDefault("export_timeout", "10m")
	viper.SetDefault("max_preview", "512KiB")

	// Allow environment variables
	viper.SetEnvPrefix("APFSHUNT")
	viper.AutomaticEnv()

	// Read config file if it exists
	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		// Config file not found is OK, we'll use defaults
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	return &config, nil
}

// PreviewBytes parses the configured preview cap into a byte count.
func (c *Config) PreviewBytes() (int64, error) {
	n, err := units.RAMInBytes(c.MaxPreview)
	if err != nil {
		return 0, fmt.Errorf("invalid max_preview %q: %w", c.MaxPreview, err)
	}
	return n, nil
}
