package sim

import "github.com/shopspring/decimal"

// Stats summarizes the fills a simulator has applied.
type Stats struct {
	Buys     int
	Sells    int
	Rejected int

	BaseBought float64
	BaseSold   float64
	QuoteSpent float64 // paid for buys
	QuoteRecv  float64 // received for sells

	// CapturedSpread is the profit on the matched round-trip volume:
	// min(bought, sold) * (average sell price - average buy price).
	CapturedSpread float64
}

type tally struct {
	buys, sells, rejected int

	bought, sold decimal.Decimal
	spent, recvd decimal.Decimal
}

func (t *tally) stats() Stats {
	s := Stats{
		Buys:       t.buys,
		Sells:      t.sells,
		Rejected:   t.rejected,
		BaseBought: t.bought.InexactFloat64(),
		BaseSold:   t.sold.InexactFloat64(),
		QuoteSpent: t.spent.InexactFloat64(),
		QuoteRecv:  t.recvd.InexactFloat64(),
	}
	if t.bought.IsPositive() && t.sold.IsPositive() {
		matched := decimal.Min(t.bought, t.sold)
		avgBuy := t.spent.Div(t.bought)
		avgSell := t.recvd.Div(t.sold)
		s.CapturedSpread = matched.Mul(avgSell.Sub(avgBuy)).InexactFloat64()
	}
	return s
}
