// Package config provides a reusable loader for wasmkit runtime
// configuration files and environment variables.
package config

import (
	"github.com/spf13/viper"

	"wasmkit/pkg/utils"
)

// Default runtime values, used when neither a config file nor the
// environment overrides them.
const (
	DefaultRegionSize uint32 = 1 << 20
	DefaultGasLimit   uint64 = 8_000_000
	DefaultLogLevel          = "info"
)

// Config holds the host-side runtime settings for executing a contract: the
// size of its storage region, the per-invocation gas limit and logging.
type Config struct {
	Runtime struct {
		RegionSize uint32 `mapstructure:"region_size" json:"region_size"`
		RegionPath string `mapstructure:"region_path" json:"region_path"`
		GasLimit   uint64 `mapstructure:"gas_limit" json:"gas_limit"`
	} `mapstructure:"runtime" json:"runtime"`

	Logging struct {
		Level string `mapstructure:"level" json:"level"`
	} `mapstructure:"logging" json:"logging"`
}

// Load reads the configuration file at path (YAML) and applies defaults and
// environment overrides. Passing an empty path skips the file and yields the
// defaults.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetDefault("runtime.region_size", DefaultRegionSize)
	v.SetDefault("runtime.region_path", "region.bin")
	v.SetDefault("runtime.gas_limit", DefaultGasLimit)
	v.SetDefault("logging.level", DefaultLogLevel)

	if path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return nil, utils.Wrap(err, "load config")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, utils.Wrap(err, "decode config")
	}

	// Environment wins over file and defaults.
	cfg.Runtime.RegionSize = utils.EnvOrDefaultUint32("WASMKIT_REGION_SIZE", cfg.Runtime.RegionSize)
	cfg.Runtime.RegionPath = utils.EnvOrDefault("WASMKIT_REGION_PATH", cfg.Runtime.RegionPath)
	cfg.Runtime.GasLimit = utils.EnvOrDefaultUint64("WASMKIT_GAS_LIMIT", cfg.Runtime.GasLimit)
	cfg.Logging.Level = utils.EnvOrDefault("WASMKIT_LOG_LEVEL", cfg.Logging.Level)
	return &cfg, nil
}
