// Package quote turns a market snapshot into a two-sided quote.
//
// Compute is a pure function: the same snapshot, pair config and inventory
// always give the same quote, which is what lets a backtest replay the
// live quoting path exactly.
package quote

import (
	"errors"
	"fmt"
	"math"

	"github.com/rustyeddy/marketmaker/config"
	"github.com/rustyeddy/marketmaker/market"
)

var ErrInvalidSnapshot = errors.New("invalid snapshot")

// Quote is a fixed-spread bid/ask around the snapshot with one order size
// used for both sides.
type Quote struct {
	BuyPrice  float64
	SellPrice float64
	Size      float64

	// SizeCap is capital*max_inventory_exposure/last. Size never exceeds it.
	SizeCap float64

	// Exposure is the share of capital held in base, valued at last.
	Exposure float64
	// Edge is the relative gap sell/buy - 1.
	Edge float64
}

// Compute derives the buy price, sell price and order size.
//
//	buy  = bid * (1 - spread/2)
//	sell = ask * (1 + spread/2)
//	size = min(capital*order_size/last, capital*max_exposure/last)
//
// The size cap is absolute: it does not shrink as inventory builds up.
// The inventory only feeds the advisory Exposure figure.
func Compute(s market.Snapshot, cfg config.PairConfig, inv market.Inventory) (Quote, error) {
	if !s.Valid() {
		return Quote{}, fmt.Errorf("%w: bid=%v ask=%v last=%v", ErrInvalidSnapshot, s.Bid, s.Ask, s.Last)
	}

	half := cfg.SpreadPercentage / 2
	q := Quote{
		BuyPrice:  s.Bid * (1 - half),
		SellPrice: s.Ask * (1 + half),
		SizeCap:   cfg.TotalCapital * cfg.MaxInventoryExposure / s.Last,
	}
	q.Size = math.Min(cfg.TotalCapital*cfg.OrderSizePercentage/s.Last, q.SizeCap)
	q.Exposure = Exposure(inv, s.Last, cfg.TotalCapital)
	if q.BuyPrice > 0 {
		q.Edge = q.SellPrice/q.BuyPrice - 1
	}
	return q, nil
}

func (q Quote) Buy() market.OrderRequest {
	return market.OrderRequest{Side: market.Buy, Price: q.BuyPrice, Amount: q.Size}
}

func (q Quote) Sell() market.OrderRequest {
	return market.OrderRequest{Side: market.Sell, Price: q.SellPrice, Amount: q.Size}
}

// Exposure is base*price as a fraction of capital.
func Exposure(inv market.Inventory, price, capital float64) float64 {
	if capital <= 0 {
		return math.Inf(1)
	}
	return inv.Base * price / capital
}

// BelowMinProfit reports whether the quoted edge is under the configured
// minimum profit threshold. Advisory only.
func (q Quote) BelowMinProfit(cfg config.PairConfig) bool {
	return q.Edge < cfg.MinProfitThreshold
}

// NeedsRebalance reports whether exposure overshoots the configured maximum
// by more than the rebalance threshold (relative). Advisory only.
func (q Quote) NeedsRebalance(cfg config.PairConfig) bool {
	return q.Exposure > cfg.MaxInventoryExposure*(1+cfg.RebalanceThreshold)
}
