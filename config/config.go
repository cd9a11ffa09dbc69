package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/rustyeddy/marketmaker/market"
	"gopkg.in/yaml.v3"
)

// Config represents the complete market maker configuration
type Config struct {
	Pairs   []PairConfig  `json:"pairs" yaml:"pairs"`
	Feed    FeedConfig    `json:"feed" yaml:"feed"`
	Loop    LoopConfig    `json:"loop" yaml:"loop"`
	Journal JournalConfig `json:"journal" yaml:"journal"`
	Log     LogConfig     `json:"log" yaml:"log"`
}

// PairConfig holds the quoting parameters for one trading pair. It is
// loaded once and never mutated while the pair is trading.
type PairConfig struct {
	Pair                 string  `json:"pair" yaml:"pair"`
	TotalCapital         float64 `json:"total_capital" yaml:"total_capital"`
	SpreadPercentage     float64 `json:"spread_percentage" yaml:"spread_percentage"`
	OrderSizePercentage  float64 `json:"order_size_percentage" yaml:"order_size_percentage"`
	MaxInventoryExposure float64 `json:"max_inventory_exposure" yaml:"max_inventory_exposure"`
	RebalanceThreshold   float64 `json:"rebalance_threshold" yaml:"rebalance_threshold"`
	MinProfitThreshold   float64 `json:"min_profit_threshold" yaml:"min_profit_threshold"`
	InitialBase          float64 `json:"initial_base,omitempty" yaml:"initial_base,omitempty"`
}

// FeedConfig configures the market data provider chain
type FeedConfig struct {
	Timeout   string           `json:"timeout" yaml:"timeout"` // per attempt, e.g. "3s"
	Providers []ProviderConfig `json:"providers" yaml:"providers"`
}

// ProviderConfig describes one HTTP ticker source. URL may contain the
// {base} and {quote} placeholders; PricePath is a dotted JSON path to a
// decimal string, e.g. "data.amount".
type ProviderConfig struct {
	Name          string  `json:"name" yaml:"name"`
	URL           string  `json:"url" yaml:"url"`
	PricePath     string  `json:"price_path" yaml:"price_path"`
	RatePerSecond float64 `json:"rate_per_second,omitempty" yaml:"rate_per_second,omitempty"`
}

// LoopConfig controls strategy loop timing
type LoopConfig struct {
	Interval     string `json:"interval" yaml:"interval"`
	ErrorBackoff string `json:"error_backoff" yaml:"error_backoff"`
}

// JournalConfig contains audit log parameters
type JournalConfig struct {
	Type   string `json:"type" yaml:"type"`                         // "csv" or "sqlite"
	Dir    string `json:"dir,omitempty" yaml:"dir,omitempty"`         // csv: one file per pair
	DBPath string `json:"db_path,omitempty" yaml:"db_path,omitempty"` // sqlite
}

// LogConfig selects the slog handler
type LogConfig struct {
	Level  string `json:"level" yaml:"level"`   // debug, info, warn, error
	Format string `json:"format" yaml:"format"` // text or json
}

// LoadFromFile loads configuration from a file (YAML or JSON)
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	cfg := &Config{}

	// Try YAML first, fall back to JSON
	err = yaml.Unmarshal(data, cfg)
	if err != nil {
		err = json.Unmarshal(data, cfg)
		if err != nil {
			return nil, fmt.Errorf("parse config (tried YAML and JSON): %w", err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// SaveToFile saves configuration to a file (JSON or YAML based on extension)
func (c *Config) SaveToFile(path string) error {
	var data []byte
	var err error

	if strings.HasSuffix(path, ".yaml") || strings.HasSuffix(path, ".yml") {
		data, err = yaml.Marshal(c)
	} else {
		data, err = json.MarshalIndent(c, "", "  ")
	}
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write config file: %w", err)
	}
	return nil
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if len(c.Pairs) == 0 {
		return fmt.Errorf("at least one pair is required")
	}
	seen := map[market.Pair]bool{}
	for i, p := range c.Pairs {
		if err := p.Validate(); err != nil {
			return fmt.Errorf("pairs[%d]: %w", i, err)
		}
		mp, _ := p.MarketPair()
		if seen[mp] {
			return fmt.Errorf("pairs[%d]: duplicate pair %s", i, mp)
		}
		seen[mp] = true
	}

	if _, err := parseDuration("feed.timeout", c.Feed.Timeout); err != nil {
		return err
	}
	for i, p := range c.Feed.Providers {
		if p.Name == "" {
			return fmt.Errorf("feed.providers[%d].name is required", i)
		}
		if p.URL == "" {
			return fmt.Errorf("feed.providers[%d].url is required", i)
		}
		if p.PricePath == "" {
			return fmt.Errorf("feed.providers[%d].price_path is required", i)
		}
		if p.RatePerSecond < 0 {
			return fmt.Errorf("feed.providers[%d].rate_per_second must not be negative", i)
		}
	}

	if _, err := parseDuration("loop.interval", c.Loop.Interval); err != nil {
		return err
	}
	if _, err := parseDuration("loop.error_backoff", c.Loop.ErrorBackoff); err != nil {
		return err
	}

	switch c.Journal.Type {
	case "csv":
		if c.Journal.Dir == "" {
			return fmt.Errorf("journal dir required for CSV type")
		}
	case "sqlite":
		if c.Journal.DBPath == "" {
			return fmt.Errorf("journal db_path required for SQLite type")
		}
	default:
		return fmt.Errorf("journal.type must be 'csv' or 'sqlite'")
	}

	switch strings.ToLower(c.Log.Level) {
	case "", "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("log.level must be one of debug, info, warn, error")
	}
	switch strings.ToLower(c.Log.Format) {
	case "", "text", "json":
	default:
		return fmt.Errorf("log.format must be 'text' or 'json'")
	}
	return nil
}

// Validate checks the pair parameters against their allowed ranges.
func (p PairConfig) Validate() error {
	if _, err := p.MarketPair(); err != nil {
		return err
	}
	if p.TotalCapital <= 0 {
		return fmt.Errorf("total_capital must be positive")
	}
	if p.SpreadPercentage <= 0 || p.SpreadPercentage >= 1 {
		return fmt.Errorf("spread_percentage must be between 0 and 1 (exclusive)")
	}
	if p.OrderSizePercentage <= 0 || p.OrderSizePercentage >= 1 {
		return fmt.Errorf("order_size_percentage must be between 0 and 1 (exclusive)")
	}
	if p.MaxInventoryExposure <= 0 || p.MaxInventoryExposure > 1 {
		return fmt.Errorf("max_inventory_exposure must be in (0, 1]")
	}
	if p.RebalanceThreshold < 0 || p.RebalanceThreshold > 1 {
		return fmt.Errorf("rebalance_threshold must be between 0 and 1")
	}
	if p.MinProfitThreshold < 0 || p.MinProfitThreshold > 1 {
		return fmt.Errorf("min_profit_threshold must be between 0 and 1")
	}
	if p.InitialBase < 0 {
		return fmt.Errorf("initial_base must not be negative")
	}
	return nil
}

// MarketPair parses the pair identifier.
func (p PairConfig) MarketPair() (market.Pair, error) {
	return market.ParsePair(p.Pair)
}

// FeedTimeout returns the per-attempt provider timeout.
func (c *Config) FeedTimeout() time.Duration {
	d, _ := parseDuration("feed.timeout", c.Feed.Timeout)
	return d
}

// Interval returns the pause between loop iterations.
func (c *Config) Interval() time.Duration {
	d, _ := parseDuration("loop.interval", c.Loop.Interval)
	return d
}

// ErrorBackoff returns the pause after a failed iteration.
func (c *Config) ErrorBackoff() time.Duration {
	d, _ := parseDuration("loop.error_backoff", c.Loop.ErrorBackoff)
	return d
}

func parseDuration(field, s string) (time.Duration, error) {
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", field, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("%s must be positive", field)
	}
	return d, nil
}

// DefaultPair returns the BTC/USDT parameters of the reference strategy.
func DefaultPair() PairConfig {
	return PairConfig{
		Pair:                 "BTC/USDT",
		TotalCapital:         10000,
		SpreadPercentage:     0.001,
		OrderSizePercentage:  0.01,
		MaxInventoryExposure: 0.2,
		RebalanceThreshold:   0.1,
		MinProfitThreshold:   0.002,
	}
}

// DefaultProviders is the primary/secondary ticker chain.
func DefaultProviders() []ProviderConfig {
	return []ProviderConfig{
		{
			Name:          "coinbase",
			URL:           "https://api.coinbase.com/v2/prices/{base}-{quote}/spot",
			PricePath:     "data.amount",
			RatePerSecond: 2,
		},
		{
			Name:          "binance",
			URL:           "https://api.binance.com/api/v3/ticker/price?symbol={base}{quote}",
			PricePath:     "price",
			RatePerSecond: 5,
		},
	}
}

// Default returns a configuration with sensible defaults
func Default() *Config {
	eth := DefaultPair()
	eth.Pair = "ETH/USDT"
	eth.TotalCapital = 5000

	return &Config{
		Pairs: []PairConfig{DefaultPair(), eth},
		Feed: FeedConfig{
			Timeout:   "3s",
			Providers: DefaultProviders(),
		},
		Loop: LoopConfig{
			Interval:     "5s",
			ErrorBackoff: "10s",
		},
		Journal: JournalConfig{
			Type: "csv",
			Dir:  "./journal",
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
	}
}
