// Package config defines process configuration for sleipnir. Config is
// loaded from a YAML file (default: sleipnir.yaml) with overrides from
// SLEIPNIR_*-prefixed environment variables, the same viper shape
// 0xtitan6-polymarket-mm uses for its own bot configuration.
package config

import (
	"fmt"
	"strings"

	"sleipnir/internal/book"

	"github.com/spf13/viper"
)

// Config is the top-level configuration, maps directly to the YAML file.
type Config struct {
	Server  ServerConfig  `mapstructure:"server"`
	Metrics MetricsConfig `mapstructure:"metrics"`
	Books   []BookConfig  `mapstructure:"books"`
}

// ServerConfig is the TCP listener address for order flow.
type ServerConfig struct {
	Address string `mapstructure:"address"`
	Port    int    `mapstructure:"port"`
}

// MetricsConfig is the HTTP listener address for /metrics. Address is
// empty to disable the metrics endpoint entirely.
type MetricsConfig struct {
	Address string `mapstructure:"address"`
}

// BookConfig mirrors book.Config's fields for YAML/env configurability,
// one entry per symbol the engine should host.
type BookConfig struct {
	Symbol         string `mapstructure:"symbol"`
	Capacity       int    `mapstructure:"capacity"`
	BasePrice      uint64 `mapstructure:"base_price"`
	TickSize       uint64 `mapstructure:"tick_size"`
	PriceLevels    int    `mapstructure:"price_levels"`
	OrdersPerLevel int    `mapstructure:"orders_per_level"`
}

// Book converts a BookConfig to a book.Config, filling zero-valued
// BasePrice, TickSize, PriceLevels and OrdersPerLevel from
// book.DefaultConfig. Capacity has no default: book.DefaultConfig takes it
// from bc, so an entry without a positive capacity yields a book whose pool
// has no slots and cannot rest any order.
func (bc BookConfig) Book() book.Config {
	def := book.DefaultConfig(bc.Symbol, bc.Capacity)
	if bc.Capacity <= 0 {
		bc.Capacity = def.Capacity
	}
	if bc.BasePrice == 0 {
		bc.BasePrice = def.BasePrice
	}
	if bc.TickSize == 0 {
		bc.TickSize = def.TickSize
	}
	if bc.PriceLevels == 0 {
		bc.PriceLevels = def.PriceLevels
	}
	if bc.OrdersPerLevel == 0 {
		bc.OrdersPerLevel = def.OrdersPerLevel
	}
	return book.Config{
		Symbol:         bc.Symbol,
		Capacity:       bc.Capacity,
		BasePrice:      bc.BasePrice,
		TickSize:       bc.TickSize,
		PriceLevels:    bc.PriceLevels,
		OrdersPerLevel: bc.OrdersPerLevel,
	}
}

// Load reads config from path with SLEIPNIR_*-prefixed env var overrides
// (e.g. SLEIPNIR_SERVER_PORT overrides server.port).
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetEnvPrefix("SLEIPNIR")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("server.address", "0.0.0.0")
	v.SetDefault("server.port", 9000)
	v.SetDefault("metrics.address", ":9090")

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks required fields.
func (c *Config) Validate() error {
	if c.Server.Port <= 0 {
		return fmt.Errorf("server.port is required")
	}
	if len(c.Books) == 0 {
		return fmt.Errorf("at least one entry under books is required")
	}
	seen := make(map[string]bool, len(c.Books))
	for _, b := range c.Books {
		if b.Symbol == "" {
			return fmt.Errorf("books[].symbol is required")
		}
		if seen[b.Symbol] {
			return fmt.Errorf("duplicate symbol in books: %s", b.Symbol)
		}
		seen[b.Symbol] = true
	}
	return nil
}
