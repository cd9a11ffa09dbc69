// Package strategy runs the per-pair market making loop: poll a snapshot,
// quote both sides, then simulate the buy and the sell.
package strategy

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/rustyeddy/marketmaker/config"
	"github.com/rustyeddy/marketmaker/journal"
	"github.com/rustyeddy/marketmaker/market"
	"github.com/rustyeddy/marketmaker/quote"
	"github.com/rustyeddy/marketmaker/sim"
)

const (
	DefaultInterval = 5 * time.Second
	DefaultBackoff  = 10 * time.Second
)

// Fetcher returns a usable snapshot for pair. feed.Feed satisfies it.
type Fetcher interface {
	Fetch(ctx context.Context, pair market.Pair, spread float64) market.Snapshot
}

// Sleeper waits d or until ctx is done, whichever comes first.
type Sleeper func(ctx context.Context, d time.Duration) error

// Sleep is the wall clock Sleeper.
func Sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// Iteration is what one Step saw and did.
type Iteration struct {
	Snapshot market.Snapshot
	Quote    quote.Quote
	Advice   string
	Fills    []journal.TradeRecord
	Rejected []error
}

// Loop trades one pair. It owns the pair's simulator exclusively.
type Loop struct {
	pair    market.Pair
	cfg     config.PairConfig
	feed    Fetcher
	sim     *sim.Simulator
	advisor Advisor
	sleep   Sleeper
	log     *slog.Logger

	interval time.Duration
	backoff  time.Duration
	maxIter  int

	mu         sync.Mutex
	state      State
	iterations int
}

type Option func(*Loop)

func WithAdvisor(a Advisor) Option {
	return func(l *Loop) { l.advisor = a }
}

func WithSleeper(s Sleeper) Option {
	return func(l *Loop) { l.sleep = s }
}

func WithLogger(lg *slog.Logger) Option {
	return func(l *Loop) { l.log = lg }
}

// WithTiming sets the pause between iterations and after a failed one.
// Non-positive values keep the defaults.
func WithTiming(interval, backoff time.Duration) Option {
	return func(l *Loop) {
		if interval > 0 {
			l.interval = interval
		}
		if backoff > 0 {
			l.backoff = backoff
		}
	}
}

// WithMaxIterations makes Run return after n iterations. Zero means no limit.
func WithMaxIterations(n int) Option {
	return func(l *Loop) { l.maxIter = n }
}

// NewLoop wires a loop for cfg. The simulator must trade the same pair.
func NewLoop(cfg config.PairConfig, feed Fetcher, s *sim.Simulator, opts ...Option) (*Loop, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("pair config: %w", err)
	}
	pair, _ := cfg.MarketPair()
	if feed == nil || s == nil {
		return nil, fmt.Errorf("%s: feed and simulator are required", pair)
	}
	if s.Pair() != pair {
		return nil, fmt.Errorf("simulator trades %s, config is for %s", s.Pair(), pair)
	}

	l := &Loop{
		pair:     pair,
		cfg:      cfg,
		feed:     feed,
		sim:      s,
		sleep:    Sleep,
		log:      slog.Default(),
		interval: DefaultInterval,
		backoff:  DefaultBackoff,
	}
	for _, opt := range opts {
		opt(l)
	}
	if l.log == nil {
		l.log = slog.Default()
	}
	l.log = l.log.With(slog.String("pair", pair.String()))
	return l, nil
}

func (l *Loop) Pair() market.Pair { return l.pair }

func (l *Loop) Simulator() *sim.Simulator { return l.sim }

func (l *Loop) State() State {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.state
}

// Iterations is the number of completed Steps made by Run.
func (l *Loop) Iterations() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.iterations
}

func (l *Loop) setState(s State) {
	l.mu.Lock()
	l.state = s
	l.mu.Unlock()
}

// Step runs one iteration. Rejected fills are logged and recorded in the
// Iteration; they do not fail the step. A panic anywhere in the iteration
// comes back as an error. After an error the loop is in BACKOFF, or in
// STOPPED when the error is a *sim.PersistenceError.
func (l *Loop) Step(ctx context.Context) (it Iteration, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("strategy panic: %v", r)
		}
		switch {
		case err == nil:
			l.setState(Idle)
		case isFatal(err):
			l.setState(Stopped)
		default:
			l.setState(Backoff)
		}
	}()

	l.setState(Polling)
	it.Snapshot = l.feed.Fetch(ctx, l.pair, l.cfg.SpreadPercentage)
	if err := ctx.Err(); err != nil {
		return it, err
	}
	if l.advisor != nil {
		it.Advice = l.advise(ctx)
	}

	l.setState(Quoting)
	q, err := quote.Compute(it.Snapshot, l.cfg, l.sim.Inventory())
	if err != nil {
		return it, err
	}
	it.Quote = q
	if q.BelowMinProfit(l.cfg) {
		l.log.Debug("quoted edge below minimum profit",
			slog.Float64("edge", q.Edge),
			slog.Float64("min_profit", l.cfg.MinProfitThreshold))
	}
	if q.NeedsRebalance(l.cfg) {
		l.log.Warn("inventory exposure above rebalance band",
			slog.Float64("exposure", q.Exposure),
			slog.Float64("max_exposure", l.cfg.MaxInventoryExposure))
	}

	l.setState(ExecutingBuy)
	if err := l.fill(q.Buy(), &it); err != nil {
		return it, err
	}
	l.setState(ExecutingSell)
	if err := l.fill(q.Sell(), &it); err != nil {
		return it, err
	}

	inv := l.sim.Inventory()
	l.log.Info("iteration complete",
		slog.String("source", it.Snapshot.Source),
		slog.Float64("buy", q.BuyPrice),
		slog.Float64("sell", q.SellPrice),
		slog.Float64("size", q.Size),
		slog.Int("fills", len(it.Fills)),
		slog.Float64("base", inv.Base),
		slog.Float64("quote", inv.Quote))
	return it, nil
}

func (l *Loop) fill(req market.OrderRequest, it *Iteration) error {
	rec, err := l.sim.ApplyFill(req)
	switch {
	case err == nil:
		it.Fills = append(it.Fills, rec)
		return nil
	case sim.IsRejection(err):
		it.Rejected = append(it.Rejected, err)
		l.log.Warn("fill rejected",
			slog.String("side", req.Side.String()),
			slog.Float64("price", req.Price),
			slog.Float64("amount", req.Amount),
			slog.Any("error", err))
		return nil
	default:
		return err
	}
}

func (l *Loop) advise(ctx context.Context) string {
	advice, err := l.advisor.Advice(ctx, l.pair)
	if err != nil {
		l.log.Debug("advisor unavailable", slog.Any("error", err))
		return ""
	}
	if advice != "" {
		l.log.Info("advisory", slog.String("advice", advice))
	}
	return advice
}

// Run steps until ctx is cancelled, the iteration limit is reached or a
// journal write fails. Cancellation is a clean stop and returns nil; a
// persistence failure is returned. The journal is flushed before returning.
func (l *Loop) Run(ctx context.Context) (err error) {
	l.log.Info("loop starting",
		slog.Float64("capital", l.cfg.TotalCapital),
		slog.Duration("interval", l.interval))

	defer func() {
		if ferr := l.sim.Flush(); ferr != nil {
			l.log.Error("flush journal", slog.Any("error", ferr))
			if err == nil {
				err = fmt.Errorf("flush journal: %w", ferr)
			}
		}
		l.setState(Stopped)
		st := l.sim.Stats()
		l.log.Info("loop stopped",
			slog.Int("iterations", l.Iterations()),
			slog.Int("buys", st.Buys),
			slog.Int("sells", st.Sells),
			slog.Int("rejected", st.Rejected))
	}()

	for {
		if ctx.Err() != nil {
			return nil
		}

		_, serr := l.Step(ctx)
		wait := l.interval
		if serr != nil {
			if isFatal(serr) {
				l.log.Error("stopping pair", slog.Any("error", serr))
				return serr
			}
			if ctx.Err() != nil {
				return nil
			}
			l.log.Error("iteration failed", slog.Any("error", serr), slog.Duration("backoff", l.backoff))
			wait = l.backoff
		}

		l.mu.Lock()
		l.iterations++
		done := l.maxIter > 0 && l.iterations >= l.maxIter
		l.mu.Unlock()
		if done {
			return nil
		}

		if err := l.sleep(ctx, wait); err != nil {
			return nil
		}
	}
}

func isFatal(err error) bool {
	var pe *sim.PersistenceError
	return errors.As(err, &pe)
}
