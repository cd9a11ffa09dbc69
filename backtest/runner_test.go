package backtest

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/rustyeddy/marketmaker/config"
	"github.com/rustyeddy/marketmaker/journal"
	"github.com/rustyeddy/marketmaker/market"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var quiet = slog.New(slog.NewTextHandler(io.Discard, nil))

func closes(xs ...float64) []Row {
	rows := make([]Row, len(xs))
	for i, x := range xs {
		rows[i] = Row{Close: x}
	}
	return rows
}

func TestRunReplaysEveryRow(t *testing.T) {
	r := &Runner{Seed: 42, Logger: quiet}
	res, err := r.Run(context.Background(), closes(50000, 50100, 49900, 50050), config.DefaultPair())
	require.NoError(t, err)

	assert.Equal(t, market.MustPair("BTC/USDT"), res.Pair)
	assert.Equal(t, 10000.0, res.InitialCapital)
	assert.Equal(t, 8, res.TotalTrades)
	require.Len(t, res.Trades, 8)
	assert.Equal(t, 4, res.Stats.Buys)
	assert.Equal(t, 4, res.Stats.Sells)
	assert.Zero(t, res.Stats.Rejected)

	for i, tr := range res.Trades {
		want := market.Buy
		if i%2 == 1 {
			want = market.Sell
		}
		assert.Equal(t, want, tr.Side, "trade %d", i)
		assert.Equal(t, time.Unix(int64(i/2), 0).UTC(), tr.Time)
	}

	assert.Equal(t, time.Unix(0, 0).UTC(), res.Start)
	assert.Equal(t, time.Unix(3, 0).UTC(), res.End)
	assert.InDelta(t, 0, res.Final.Base, 1e-12)
	assert.Greater(t, res.FinalValue, res.InitialCapital)
	assert.Greater(t, res.TotalReturnPct, 0.0)
	assert.Greater(t, res.Stats.CapturedSpread, 0.0)
}

func TestRunIsDeterministic(t *testing.T) {
	rows := closes(50000, 50500, 49500, 51000, 50000, 48000)
	cfg := config.DefaultPair()

	a, err := (&Runner{Seed: 7, Logger: quiet}).Run(context.Background(), rows, cfg)
	require.NoError(t, err)
	b, err := (&Runner{Seed: 7, Logger: quiet}).Run(context.Background(), rows, cfg)
	require.NoError(t, err)
	assert.Equal(t, a, b)

	c, err := (&Runner{Seed: 8, Logger: quiet}).Run(context.Background(), rows, cfg)
	require.NoError(t, err)
	assert.NotEqual(t, a.Trades[0].TradeID, c.Trades[0].TradeID)
	assert.Equal(t, a.FinalValue, c.FinalValue)
}

func TestRunUsesRowTimes(t *testing.T) {
	t1 := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	rows := []Row{{Time: t1, Close: 3000}, {Time: t1.Add(time.Hour), Close: 3010}}

	res, err := (&Runner{Logger: quiet}).Run(context.Background(), rows, config.DefaultPair())
	require.NoError(t, err)
	assert.Equal(t, t1, res.Start)
	assert.Equal(t, t1.Add(time.Hour), res.End)
	assert.Equal(t, t1, res.Trades[0].Time)
}

func TestRunExtraJournal(t *testing.T) {
	extra := journal.NewMemory()
	res, err := (&Runner{Journal: extra, Logger: quiet}).Run(context.Background(), closes(100, 101), config.DefaultPair())
	require.NoError(t, err)
	assert.Equal(t, res.Trades, extra.Records())
}

func TestRunErrors(t *testing.T) {
	ctx := context.Background()
	r := &Runner{Logger: quiet}

	_, err := r.Run(ctx, nil, config.DefaultPair())
	assert.ErrorIs(t, err, ErrNoPrices)

	_, err = r.Run(ctx, closes(100, 0, 100), config.DefaultPair())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "row 1")

	bad := config.DefaultPair()
	bad.SpreadPercentage = 0
	_, err = r.Run(ctx, closes(100), bad)
	assert.Error(t, err)

	_, err = r.Run(ctx, []Row{{Time: time.Date(1969, 12, 31, 0, 0, 0, 0, time.UTC), Close: 100}}, config.DefaultPair())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "row 0")
	assert.Contains(t, err.Error(), "before the Unix epoch")

	early := &Runner{Epoch: time.Date(1969, 12, 31, 23, 59, 59, 0, time.UTC), Logger: quiet}
	_, err = early.Run(ctx, closes(100, 101), config.DefaultPair())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "row 0")

	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	_, err = r.Run(cancelled, closes(100), config.DefaultPair())
	assert.ErrorIs(t, err, context.Canceled)
}

func TestPrintResult(t *testing.T) {
	res, err := (&Runner{Logger: quiet}).Run(context.Background(), closes(50000, 50100), config.DefaultPair())
	require.NoError(t, err)

	var buf bytes.Buffer
	PrintResult(&buf, res)
	out := buf.String()
	assert.Contains(t, out, "Pair:          BTC/USDT")
	assert.Contains(t, out, "Trades:        4")
	assert.Contains(t, out, "Initial Value: 10000.00")
	assert.Contains(t, out, "Return:")
}
