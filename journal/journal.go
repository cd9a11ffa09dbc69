// journal/journal.go
package journal

import (
	"time"

	"github.com/rustyeddy/marketmaker/market"
)

// TradeRecord is one applied fill. Records are append-only: once written
// they are never updated or deleted.
type TradeRecord struct {
	TradeID    string
	Pair       market.Pair
	Time       time.Time
	Side       market.Side
	Price      float64
	Amount     float64
	Base       float64 // post-fill base balance
	Quote      float64 // post-fill quote balance
	TotalValue float64 // Base*Price + Quote
}

// Journal is an append-only sink for trade records. Record must return
// only once the record is durable as far as the sink can guarantee.
type Journal interface {
	Record(TradeRecord) error
	Flush() error
	Close() error
}

// Header is the column order of the audit record stream.
var Header = []string{
	"timestamp",
	"event_type",
	"price",
	"amount",
	"base_inventory",
	"quote_inventory",
	"total_value",
}
