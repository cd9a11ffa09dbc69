package market

import (
	"fmt"
	"strings"
)

type Side int8

const (
	Buy Side = iota + 1
	Sell
)

func (s Side) String() string {
	switch s {
	case Buy:
		return "BUY"
	case Sell:
		return "SELL"
	default:
		return "UNKNOWN"
	}
}

// ParseSide reads BUY or SELL, case insensitive.
func ParseSide(s string) (Side, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "BUY":
		return Buy, nil
	case "SELL":
		return Sell, nil
	}
	return 0, fmt.Errorf("unknown side %q", s)
}

// OrderRequest is a simulated limit order that fills immediately.
type OrderRequest struct {
	Side   Side
	Price  float64
	Amount float64
}

// Inventory is a read-only view of one pair's balances.
type Inventory struct {
	Base  float64
	Quote float64
}

// Value marks the inventory at price, in quote currency.
func (i Inventory) Value(price float64) float64 {
	return i.Base*price + i.Quote
}
