package sim

import (
	"fmt"

	"github.com/rustyeddy/marketmaker/market"
	"github.com/shopspring/decimal"
)

// Ledger owns the base and quote balances of one pair. Balances are held
// as decimals so that the funds checks are exact. Only Simulator mutates a
// Ledger; everything else reads it through Inventory.
type Ledger struct {
	base  decimal.Decimal
	quote decimal.Decimal
}

// NewLedger starts a ledger with the given balances.
func NewLedger(base, quote float64) (*Ledger, error) {
	b, err := toDecimal(base)
	if err != nil {
		return nil, fmt.Errorf("base: %w", err)
	}
	q, err := toDecimal(quote)
	if err != nil {
		return nil, fmt.Errorf("quote: %w", err)
	}
	if b.IsNegative() || q.IsNegative() {
		return nil, fmt.Errorf("ledger balances must not be negative")
	}
	return &Ledger{base: b, quote: q}, nil
}

func (l *Ledger) Inventory() market.Inventory {
	return market.Inventory{
		Base:  l.base.InexactFloat64(),
		Quote: l.quote.InexactFloat64(),
	}
}

// balances are the post-fill state computed before anything is committed.
type balances struct {
	base, quote decimal.Decimal
}

// preview computes the balances after a fill without applying it.
func (l *Ledger) preview(side market.Side, price, amount decimal.Decimal) (balances, error) {
	cost := price.Mul(amount)
	switch side {
	case market.Buy:
		if l.quote.LessThan(cost) {
			return balances{}, fmt.Errorf("%w: need %s quote, have %s", ErrInsufficientFunds, cost, l.quote)
		}
		return balances{base: l.base.Add(amount), quote: l.quote.Sub(cost)}, nil
	case market.Sell:
		if l.base.LessThan(amount) {
			return balances{}, fmt.Errorf("%w: need %s base, have %s", ErrInsufficientInventory, amount, l.base)
		}
		return balances{base: l.base.Sub(amount), quote: l.quote.Add(cost)}, nil
	}
	return balances{}, fmt.Errorf("%w: side %v", ErrInvalidOrder, side)
}

func (l *Ledger) commit(b balances) {
	l.base = b.base
	l.quote = b.quote
}
