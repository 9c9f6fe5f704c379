// Package config loads the daemon configuration from file, environment,
// and defaults, in that priority order.
package config

import (
	"fmt"
	"time"
)

// Config is the complete venued configuration.
type Config struct {
	Server     ServerConfig     `toml:"server" mapstructure:"server"`
	Database   DatabaseConfig   `toml:"database" mapstructure:"database"`
	TradeIndex TradeIndexConfig `toml:"trade_index" mapstructure:"trade_index"`
	Fees       FeesConfig       `toml:"fees" mapstructure:"fees"`
}

// ServerConfig holds the RPC server settings.
type ServerConfig struct {
	Addr              string        `toml:"addr" mapstructure:"addr"`
	ReadTimeout       time.Duration `toml:"read_timeout" mapstructure:"read_timeout"`
	WriteTimeout      time.Duration `toml:"write_timeout" mapstructure:"write_timeout"`
	RequireSignatures bool          `toml:"require_signatures" mapstructure:"require_signatures"`
}

// DatabaseConfig holds the ledger state store settings.
type DatabaseConfig struct {
	// Backend is one of "pebble", "leveldb", "memory".
	Backend string `toml:"backend" mapstructure:"backend"`

	// Path is the on-disk location for persistent backends.
	Path string `toml:"path" mapstructure:"path"`

	// Compressor is one of "lz4", "none".
	Compressor string `toml:"compressor" mapstructure:"compressor"`

	// CacheSize is the entry count of the read cache.
	CacheSize int `toml:"cache_size" mapstructure:"cache_size"`
}

// TradeIndexConfig holds the relational trade index settings.
type TradeIndexConfig struct {
	// Enabled turns the index on.
	Enabled bool `toml:"enabled" mapstructure:"enabled"`

	// Driver is "sqlite" or "postgres".
	Driver string `toml:"driver" mapstructure:"driver"`

	// DSN is the sqlite path or postgres connection string.
	DSN string `toml:"dsn" mapstructure:"dsn"`
}

// FeesConfig holds the engine pricing parameters.
type FeesConfig struct {
	// AMMFeeNum over AMMFeeDen is the post-fee fraction of swap input.
	AMMFeeNum int64 `toml:"amm_fee_num" mapstructure:"amm_fee_num"`
	AMMFeeDen int64 `toml:"amm_fee_den" mapstructure:"amm_fee_den"`

	// CurveSellFeeDiv divides curve sale proceeds to produce the flat fee.
	CurveSellFeeDiv int64 `toml:"curve_sell_fee_div" mapstructure:"curve_sell_fee_div"`
}

// Validate checks the configuration for inconsistencies.
func Validate(cfg *Config) error {
	if cfg.Server.Addr == "" {
		return fmt.Errorf("server.addr cannot be empty")
	}

	switch cfg.Database.Backend {
	case "pebble", "leveldb", "memory":
	default:
		return fmt.Errorf("unknown database.backend %q", cfg.Database.Backend)
	}
	if cfg.Database.Backend != "memory" && cfg.Database.Path == "" {
		return fmt.Errorf("database.path is required for backend %q", cfg.Database.Backend)
	}

	switch cfg.Database.Compressor {
	case "lz4", "none":
	default:
		return fmt.Errorf("unknown database.compressor %q", cfg.Database.Compressor)
	}

	if cfg.TradeIndex.Enabled {
		switch cfg.TradeIndex.Driver {
		case "sqlite", "postgres":
		default:
			return fmt.Errorf("unknown trade_index.driver %q", cfg.TradeIndex.Driver)
		}
		if cfg.TradeIndex.DSN == "" {
			return fmt.Errorf("trade_index.dsn is required when the index is enabled")
		}
	}

	if cfg.Fees.AMMFeeDen <= 0 || cfg.Fees.AMMFeeNum <= 0 || cfg.Fees.AMMFeeNum > cfg.Fees.AMMFeeDen {
		return fmt.Errorf("fees.amm_fee_num/amm_fee_den must satisfy 0 < num <= den")
	}
	if cfg.Fees.CurveSellFeeDiv <= 0 {
		return fmt.Errorf("fees.curve_sell_fee_div must be positive")
	}

	return nil
}
