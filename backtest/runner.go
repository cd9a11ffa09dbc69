// Package backtest replays a price series through the live quoting and
// fill path without touching the network.
package backtest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/rustyeddy/marketmaker/config"
	"github.com/rustyeddy/marketmaker/journal"
	"github.com/rustyeddy/marketmaker/market"
	"github.com/rustyeddy/marketmaker/pkg/id"
	"github.com/rustyeddy/marketmaker/quote"
	"github.com/rustyeddy/marketmaker/sim"
)

var ErrNoPrices = errors.New("backtest: no prices")

// Source tags snapshots built from replayed rows.
const Source = "backtest"

// Runner replays rows one at a time: synthesize a snapshot from the close,
// quote it, then simulate the buy and the sell. Runs are deterministic:
// the same rows, config and seed give identical results.
type Runner struct {
	// Seed feeds the trade ID generator.
	Seed int64

	// Epoch is the time of row i when rows carry no time: Epoch + i seconds.
	// Zero means the Unix epoch.
	Epoch time.Time

	// Journal, if set, also receives every replayed record.
	Journal journal.Journal

	Logger *slog.Logger
}

// Run replays rows for the pair described by cfg. The ledger starts with
// cfg.InitialBase base and cfg.TotalCapital quote.
func (r *Runner) Run(ctx context.Context, rows []Row, cfg config.PairConfig) (Result, error) {
	if len(rows) == 0 {
		return Result{}, ErrNoPrices
	}
	if err := cfg.Validate(); err != nil {
		return Result{}, fmt.Errorf("backtest: %w", err)
	}
	epoch := r.Epoch
	if epoch.IsZero() {
		epoch = time.Unix(0, 0).UTC()
	}
	for i, row := range rows {
		if math.IsNaN(row.Close) || math.IsInf(row.Close, 0) || row.Close <= 0 {
			return Result{}, fmt.Errorf("backtest: row %d: close %v must be positive", i, row.Close)
		}
		if err := id.CheckTime(rowTime(row, i, epoch)); err != nil {
			return Result{}, fmt.Errorf("backtest: row %d: %w", i, err)
		}
	}
	pair, _ := cfg.MarketPair()

	log := r.Logger
	if log == nil {
		log = slog.Default()
	}

	ledger, err := sim.NewLedger(cfg.InitialBase, cfg.TotalCapital)
	if err != nil {
		return Result{}, fmt.Errorf("backtest: %w", err)
	}
	mem := journal.NewMemory()
	var sink journal.Journal = mem
	if r.Journal != nil {
		sink = journal.Tee(mem, journal.NopCloser(r.Journal))
	}

	var now time.Time
	s := sim.NewSimulator(pair, ledger, sink,
		sim.WithIDs(id.Deterministic(r.Seed)),
		sim.WithClock(func() time.Time { return now }),
		sim.WithLogger(log))

	res := Result{
		Pair:           pair,
		InitialCapital: ledger.Inventory().Value(rows[0].Close),
	}

	for i, row := range rows {
		if err := ctx.Err(); err != nil {
			return Result{}, err
		}

		now = rowTime(row, i, epoch)
		if i == 0 {
			res.Start = now
		}
		res.End = now

		snap := market.FromLast(pair, row.Close, cfg.SpreadPercentage, now, Source)
		q, err := quote.Compute(snap, cfg, s.Inventory())
		if err != nil {
			return Result{}, fmt.Errorf("backtest: row %d: %w", i, err)
		}
		for _, req := range []market.OrderRequest{q.Buy(), q.Sell()} {
			if _, err := s.ApplyFill(req); err != nil && !sim.IsRejection(err) {
				return Result{}, fmt.Errorf("backtest: row %d: %w", i, err)
			}
		}
	}

	if err := s.Flush(); err != nil {
		return Result{}, fmt.Errorf("backtest: %w", err)
	}

	last := rows[len(rows)-1].Close
	res.Trades = mem.Records()
	res.TotalTrades = len(res.Trades)
	res.Stats = s.Stats()
	res.Final = s.Inventory()
	res.FinalValue = res.Final.Value(last)
	if res.InitialCapital > 0 {
		res.TotalReturnPct = (res.FinalValue - res.InitialCapital) / res.InitialCapital * 100
	}

	log.Info("backtest complete",
		slog.String("pair", pair.String()),
		slog.Int("rows", len(rows)),
		slog.Int("trades", res.TotalTrades),
		slog.Float64("final_value", res.FinalValue),
		slog.Float64("return_pct", res.TotalReturnPct))
	return res, nil
}

// rowTime is the row's own time, or epoch + i seconds when it has none.
func rowTime(row Row, i int, epoch time.Time) time.Time {
	if row.Time.IsZero() {
		return epoch.Add(time.Duration(i) * time.Second)
	}
	return row.Time
}
