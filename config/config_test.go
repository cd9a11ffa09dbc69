package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rustyeddy/marketmaker/market"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	cfg := Default()
	require.NotNil(t, cfg)
	require.Len(t, cfg.Pairs, 2)

	btc := cfg.Pairs[0]
	assert.Equal(t, "BTC/USDT", btc.Pair)
	assert.Equal(t, 10000.0, btc.TotalCapital)
	assert.Equal(t, 0.001, btc.SpreadPercentage)
	assert.Equal(t, 0.01, btc.OrderSizePercentage)
	assert.Equal(t, 0.2, btc.MaxInventoryExposure)
	assert.Equal(t, "ETH/USDT", cfg.Pairs[1].Pair)
	assert.Equal(t, 5000.0, cfg.Pairs[1].TotalCapital)

	assert.Equal(t, 5*time.Second, cfg.Interval())
	assert.Equal(t, 10*time.Second, cfg.ErrorBackoff())
	assert.Equal(t, 3*time.Second, cfg.FeedTimeout())
	assert.NoError(t, cfg.Validate())
}

func TestPairConfigValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*PairConfig)
		errMsg string
	}{
		{"valid", func(*PairConfig) {}, ""},
		{"bad pair", func(p *PairConfig) { p.Pair = "BTCUSDT" }, "invalid pair"},
		{"zero capital", func(p *PairConfig) { p.TotalCapital = 0 }, "total_capital must be positive"},
		{"zero spread", func(p *PairConfig) { p.SpreadPercentage = 0 }, "spread_percentage"},
		{"spread of one", func(p *PairConfig) { p.SpreadPercentage = 1 }, "spread_percentage"},
		{"order size of one", func(p *PairConfig) { p.OrderSizePercentage = 1 }, "order_size_percentage"},
		{"zero exposure", func(p *PairConfig) { p.MaxInventoryExposure = 0 }, "max_inventory_exposure"},
		{"full exposure", func(p *PairConfig) { p.MaxInventoryExposure = 1 }, ""},
		{"negative rebalance", func(p *PairConfig) { p.RebalanceThreshold = -0.1 }, "rebalance_threshold"},
		{"profit above one", func(p *PairConfig) { p.MinProfitThreshold = 1.5 }, "min_profit_threshold"},
		{"negative base", func(p *PairConfig) { p.InitialBase = -1 }, "initial_base"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := DefaultPair()
			tt.mutate(&p)
			err := p.Validate()
			if tt.errMsg == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errMsg)
		})
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		errMsg string
	}{
		{"no pairs", func(c *Config) { c.Pairs = nil }, "at least one pair"},
		{"duplicate pair", func(c *Config) { c.Pairs[1].Pair = "btc-usdt" }, "duplicate pair"},
		{"bad pair wrapped", func(c *Config) { c.Pairs[1].TotalCapital = -5 }, "pairs[1]"},
		{"bad timeout", func(c *Config) { c.Feed.Timeout = "soon" }, "feed.timeout"},
		{"zero interval", func(c *Config) { c.Loop.Interval = "0s" }, "loop.interval must be positive"},
		{"provider without path", func(c *Config) { c.Feed.Providers[0].PricePath = "" }, "price_path is required"},
		{"negative rate", func(c *Config) { c.Feed.Providers[1].RatePerSecond = -1 }, "rate_per_second"},
		{"journal type", func(c *Config) { c.Journal.Type = "parquet" }, "journal.type"},
		{"csv without dir", func(c *Config) { c.Journal.Dir = "" }, "journal dir required"},
		{"sqlite without path", func(c *Config) { c.Journal.Type = "sqlite" }, "db_path required"},
		{"log level", func(c *Config) { c.Log.Level = "trace" }, "log.level"},
		{"log format", func(c *Config) { c.Log.Format = "xml" }, "log.format"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errMsg)
		})
	}
}

func TestEmptyProviderListIsValid(t *testing.T) {
	cfg := Default()
	cfg.Feed.Providers = nil
	assert.NoError(t, cfg.Validate())
}

func TestMarketPair(t *testing.T) {
	p, err := DefaultPair().MarketPair()
	require.NoError(t, err)
	assert.Equal(t, market.Pair{Base: "BTC", Quote: "USDT"}, p)
}

func TestSaveAndLoad(t *testing.T) {
	tmpDir := t.TempDir()

	tests := []struct {
		name string
		ext  string
	}{
		{"json format", ".json"},
		{"yaml format", ".yaml"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			path := filepath.Join(tmpDir, "test"+tt.ext)

			require.NoError(t, cfg.SaveToFile(path))

			_, err := os.Stat(path)
			require.NoError(t, err)

			loaded, err := LoadFromFile(path)
			require.NoError(t, err)
			assert.Equal(t, cfg, loaded)
		})
	}
}

func TestLoadInvalidFile(t *testing.T) {
	_, err := LoadFromFile("/nonexistent/path.yaml")
	assert.Error(t, err)

	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("pairs: []\n"), 0644))
	_, err = LoadFromFile(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid config")
}
