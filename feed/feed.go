package feed

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/rustyeddy/marketmaker/config"
	"github.com/rustyeddy/marketmaker/market"
)

// Values of the snapshot returned when every provider fails.
const (
	SyntheticBid    = 50000.0
	SyntheticAsk    = 50100.0
	SyntheticLast   = 50050.0
	SyntheticVolume = 100.0
	SyntheticSource = "synthetic"
)

// DefaultTimeout bounds a single provider attempt.
const DefaultTimeout = 3 * time.Second

// Synthetic is the fixed fallback snapshot.
func Synthetic(pair market.Pair, ts time.Time) market.Snapshot {
	return market.Snapshot{
		Pair:   pair,
		Time:   ts,
		Bid:    SyntheticBid,
		Ask:    SyntheticAsk,
		Last:   SyntheticLast,
		Volume: SyntheticVolume,
		Source: SyntheticSource,
	}
}

// Feed asks an ordered list of providers for a snapshot and falls back to
// the next one on any failure.
type Feed struct {
	providers []Provider
	timeout   time.Duration
	now       func() time.Time
	log       *slog.Logger
}

type Option func(*Feed)

func WithClock(now func() time.Time) Option {
	return func(f *Feed) { f.now = now }
}

func WithLogger(l *slog.Logger) Option {
	return func(f *Feed) { f.log = l }
}

// New returns a feed trying providers in order, each bounded by timeout.
func New(providers []Provider, timeout time.Duration, opts ...Option) *Feed {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	f := &Feed{
		providers: providers,
		timeout:   timeout,
		now:       time.Now,
		log:       slog.Default(),
	}
	for _, opt := range opts {
		opt(f)
	}
	if f.log == nil {
		f.log = slog.Default()
	}
	return f
}

// FromConfig builds HTTP providers from cfg sharing one client.
func FromConfig(cfg config.FeedConfig, timeout time.Duration, opts ...Option) *Feed {
	client := NewClient(timeout)
	providers := make([]Provider, 0, len(cfg.Providers))
	for _, pc := range cfg.Providers {
		providers = append(providers, NewHTTPProvider(pc, client))
	}
	return New(providers, timeout, opts...)
}

// Fetch always returns a usable snapshot: the first provider that answers
// wins, otherwise the synthetic fallback is returned.
func (f *Feed) Fetch(ctx context.Context, pair market.Pair, spread float64) market.Snapshot {
	s, _ := f.FetchDetailed(ctx, pair, spread)
	return s
}

// FetchDetailed is Fetch plus the result of every attempt made.
func (f *Feed) FetchDetailed(ctx context.Context, pair market.Pair, spread float64) (market.Snapshot, []Result) {
	results := make([]Result, 0, len(f.providers))
	for _, p := range f.providers {
		r := f.attempt(ctx, p, pair, spread)
		results = append(results, r)
		if r.Outcome == OK {
			return r.Snapshot, results
		}
		f.log.Warn("market data provider failed",
			slog.String("pair", pair.String()),
			slog.String("provider", r.Provider),
			slog.String("outcome", r.Outcome.String()),
			slog.Any("error", r.Err))
	}

	f.log.Error("all market data providers failed, using synthetic snapshot",
		slog.String("pair", pair.String()),
		slog.Int("providers", len(f.providers)))
	return Synthetic(pair, f.now()), results
}

func (f *Feed) attempt(ctx context.Context, p Provider, pair market.Pair, spread float64) Result {
	actx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	r := p.Fetch(actx, pair, spread)
	if r.Provider == "" {
		r.Provider = p.Name()
	}
	if r.Outcome == OK && !r.Snapshot.Valid() {
		r.Outcome = ParseError
		r.Err = fmt.Errorf("provider returned unusable snapshot (bid=%v ask=%v last=%v)",
			r.Snapshot.Bid, r.Snapshot.Ask, r.Snapshot.Last)
	}
	return r
}
