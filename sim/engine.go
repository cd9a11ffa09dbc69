package sim

import (
	"fmt"
	"log/slog"
	"math"
	"sync"
	"time"

	"github.com/rustyeddy/marketmaker/journal"
	"github.com/rustyeddy/marketmaker/market"
	"github.com/rustyeddy/marketmaker/pkg/id"
	"github.com/shopspring/decimal"
)

// Simulator applies simulated fills for one pair against its ledger and
// writes a journal record for every applied fill.
type Simulator struct {
	mu      sync.Mutex
	pair    market.Pair
	ledger  *Ledger
	journal journal.Journal
	ids     id.Generator
	now     func() time.Time
	log     *slog.Logger
	tally   tally
}

type Option func(*Simulator)

// WithIDs replaces the shared live ULID generator.
func WithIDs(g id.Generator) Option {
	return func(s *Simulator) { s.ids = g }
}

// WithClock sets the clock used to timestamp fills.
func WithClock(now func() time.Time) Option {
	return func(s *Simulator) { s.now = now }
}

func WithLogger(l *slog.Logger) Option {
	return func(s *Simulator) { s.log = l }
}

func NewSimulator(pair market.Pair, l *Ledger, j journal.Journal, opts ...Option) *Simulator {
	s := &Simulator{
		pair:    pair,
		ledger:  l,
		journal: j,
		ids:     id.Default(),
		now:     time.Now,
		log:     slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.log == nil {
		s.log = slog.Default()
	}
	return s
}

func (s *Simulator) Pair() market.Pair { return s.pair }

func (s *Simulator) Inventory() market.Inventory {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ledger.Inventory()
}

func (s *Simulator) Stats() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tally.stats()
}

// Flush flushes buffered journal writes.
func (s *Simulator) Flush() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.journal.Flush()
}

// ApplyFill validates req against the ledger, records the fill and then
// commits the new balances.
//
// A rejected fill (ErrInvalidOrder, ErrInsufficientFunds,
// ErrInsufficientInventory) leaves the ledger untouched and writes nothing.
// If the journal write fails the fill is not applied and a
// *PersistenceError is returned.
func (s *Simulator) ApplyFill(req market.OrderRequest) (journal.TradeRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	price, amount, err := validate(req)
	if err != nil {
		s.tally.rejected++
		return journal.TradeRecord{}, err
	}

	next, err := s.ledger.preview(req.Side, price, amount)
	if err != nil {
		s.tally.rejected++
		return journal.TradeRecord{}, err
	}

	ts := s.now()
	rec := journal.TradeRecord{
		TradeID:    s.ids.New(ts),
		Pair:       s.pair,
		Time:       ts,
		Side:       req.Side,
		Price:      req.Price,
		Amount:     req.Amount,
		Base:       next.base.InexactFloat64(),
		Quote:      next.quote.InexactFloat64(),
		TotalValue: next.base.Mul(price).Add(next.quote).InexactFloat64(),
	}

	if err := s.journal.Record(rec); err != nil {
		return journal.TradeRecord{}, &PersistenceError{Err: err}
	}
	s.ledger.commit(next)

	cost := price.Mul(amount)
	if req.Side == market.Buy {
		s.tally.buys++
		s.tally.bought = s.tally.bought.Add(amount)
		s.tally.spent = s.tally.spent.Add(cost)
	} else {
		s.tally.sells++
		s.tally.sold = s.tally.sold.Add(amount)
		s.tally.recvd = s.tally.recvd.Add(cost)
	}

	s.log.Debug("simulated fill",
		slog.String("pair", s.pair.String()),
		slog.String("side", req.Side.String()),
		slog.Float64("price", rec.Price),
		slog.Float64("amount", rec.Amount),
		slog.Float64("base", rec.Base),
		slog.Float64("quote", rec.Quote))

	return rec, nil
}

func validate(req market.OrderRequest) (price, amount decimal.Decimal, err error) {
	if req.Side != market.Buy && req.Side != market.Sell {
		return price, amount, fmt.Errorf("%w: unknown side %d", ErrInvalidOrder, req.Side)
	}
	price, err = toDecimal(req.Price)
	if err != nil || !price.IsPositive() {
		return price, amount, fmt.Errorf("%w: price %v", ErrInvalidOrder, req.Price)
	}
	amount, err = toDecimal(req.Amount)
	if err != nil || !amount.IsPositive() {
		return price, amount, fmt.Errorf("%w: amount %v", ErrInvalidOrder, req.Amount)
	}
	return price, amount, nil
}

// toDecimal guards decimal.NewFromFloat, which panics on NaN and Inf.
func toDecimal(x float64) (decimal.Decimal, error) {
	if math.IsNaN(x) || math.IsInf(x, 0) {
		return decimal.Decimal{}, fmt.Errorf("non-finite value %v", x)
	}
	return decimal.NewFromFloat(x), nil
}
