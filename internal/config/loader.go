package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Load reads configuration in priority order: defaults, then the config
// file at path (optional when empty), then VENUED_ environment variables.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
		if _, err := os.Stat(path); os.IsNotExist(err) {
			return nil, fmt.Errorf("config file does not exist: %s", path)
		}
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
	}

	v.SetEnvPrefix("VENUED")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := Validate(&cfg); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return &cfg, nil
}

// Default returns the built-in configuration.
func Default() *Config {
	v := viper.New()
	setDefaults(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		panic(fmt.Sprintf("default config is invalid: %v", err))
	}
	return &cfg
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.addr", ":6806")
	v.SetDefault("server.read_timeout", 30*time.Second)
	v.SetDefault("server.write_timeout", 30*time.Second)
	v.SetDefault("server.require_signatures", false)

	v.SetDefault("database.backend", "pebble")
	v.SetDefault("database.path", "data/ledger")
	v.SetDefault("database.compressor", "lz4")
	v.SetDefault("database.cache_size", 16384)

	v.SetDefault("trade_index.enabled", true)
	v.SetDefault("trade_index.driver", "sqlite")
	v.SetDefault("trade_index.dsn", "data/trades.db")

	v.SetDefault("fees.amm_fee_num", 997)
	v.SetDefault("fees.amm_fee_den", 1000)
	v.SetDefault("fees.curve_sell_fee_div", 100)
}
