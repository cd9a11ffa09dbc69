package market

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsePair(t *testing.T) {
	tests := []struct {
		in      string
		want    Pair
		wantErr bool
	}{
		{"BTC/USDT", Pair{"BTC", "USDT"}, false},
		{"eth-usdt", Pair{"ETH", "USDT"}, false},
		{" SOL_USDC ", Pair{"SOL", "USDC"}, false},
		{"BTCUSDT", Pair{}, true},
		{"/USDT", Pair{}, true},
		{"", Pair{}, true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParsePair(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestPairFormatting(t *testing.T) {
	p := MustPair("BTC/USDT")
	assert.Equal(t, "BTC/USDT", p.String())
	assert.Equal(t, "BTC-USDT", p.Join("-"))
	assert.Equal(t, "BTCUSDT", p.Join(""))
	assert.False(t, p.IsZero())
	assert.True(t, Pair{}.IsZero())
}

func TestFromLast(t *testing.T) {
	ts := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	s := FromLast(MustPair("BTC/USDT"), 50000, 0.001, ts, "test")

	assert.InDelta(t, 49975.0, s.Bid, 1e-9)
	assert.InDelta(t, 50025.0, s.Ask, 1e-9)
	assert.Equal(t, 50000.0, s.Last)
	assert.Equal(t, 0.0, s.Volume)
	assert.Equal(t, "test", s.Source)
	assert.InDelta(t, 50000.0, s.Mid(), 1e-9)
	assert.InDelta(t, 50.0, s.Spread(), 1e-9)
	assert.True(t, s.Valid())
}

func TestSnapshotValid(t *testing.T) {
	ok := Snapshot{Bid: 99, Ask: 101, Last: 100}
	assert.True(t, ok.Valid())

	crossed := Snapshot{Bid: 101, Ask: 99, Last: 100}
	assert.False(t, crossed.Valid())

	zero := Snapshot{Bid: 99, Ask: 101}
	assert.False(t, zero.Valid())

	nan := Snapshot{Bid: math.NaN(), Ask: 101, Last: 100}
	assert.False(t, nan.Valid())
}

func TestSide(t *testing.T) {
	assert.Equal(t, "BUY", Buy.String())
	assert.Equal(t, "SELL", Sell.String())
	assert.Equal(t, "UNKNOWN", Side(0).String())

	s, err := ParseSide("sell")
	require.NoError(t, err)
	assert.Equal(t, Sell, s)

	_, err = ParseSide("hold")
	assert.Error(t, err)
}

func TestInventoryValue(t *testing.T) {
	inv := Inventory{Base: 0.5, Quote: 1000}
	assert.InDelta(t, 26000.0, inv.Value(50000), 1e-9)
}
