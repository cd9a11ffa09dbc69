package market

import (
	"math"
	"time"
)

// Snapshot is one normalized poll of market data for a pair.
type Snapshot struct {
	Pair   Pair
	Time   time.Time
	Bid    float64
	Ask    float64
	Last   float64
	Volume float64

	// Source names the provider that produced the snapshot.
	Source string
}

// FromLast builds a snapshot for sources that only publish a last traded
// price. Bid and ask sit half the spread fraction either side of last.
func FromLast(pair Pair, last, spread float64, ts time.Time, source string) Snapshot {
	half := last * spread / 2
	return Snapshot{
		Pair:   pair,
		Time:   ts,
		Bid:    last - half,
		Ask:    last + half,
		Last:   last,
		Source: source,
	}
}

func (s Snapshot) Mid() float64 {
	return (s.Bid + s.Ask) / 2
}

func (s Snapshot) Spread() float64 {
	return s.Ask - s.Bid
}

// Valid reports whether prices are finite, positive and not crossed.
func (s Snapshot) Valid() bool {
	for _, v := range []float64{s.Bid, s.Ask, s.Last} {
		if math.IsNaN(v) || math.IsInf(v, 0) || v <= 0 {
			return false
		}
	}
	return s.Ask >= s.Bid
}
