package backtest

import (
	"fmt"
	"io"
	"time"

	"github.com/rustyeddy/marketmaker/journal"
	"github.com/rustyeddy/marketmaker/market"
	"github.com/rustyeddy/marketmaker/sim"
)

// Result summarizes a replay. Values are in quote currency.
type Result struct {
	Pair market.Pair

	InitialCapital float64 // starting inventory marked at the first close
	FinalValue     float64 // ending inventory marked at the last close
	TotalReturnPct float64
	Final          market.Inventory

	TotalTrades int
	Trades      []journal.TradeRecord
	Stats       sim.Stats

	Start time.Time
	End   time.Time
}

func PrintResult(w io.Writer, r Result) {
	fmt.Fprintln(w, "==================================================")
	fmt.Fprintln(w, " Backtest Result")
	fmt.Fprintln(w, "==================================================")

	fmt.Fprintf(w, "Pair:          %s\n", r.Pair)
	fmt.Fprintf(w, "Start:         %s\n", r.Start.Format(time.RFC3339))
	fmt.Fprintf(w, "End:           %s\n", r.End.Format(time.RFC3339))

	fmt.Fprintln(w)
	fmt.Fprintln(w, "Trade Statistics")
	fmt.Fprintln(w, "--------------------------------------------------")
	fmt.Fprintf(w, "Trades:        %d\n", r.TotalTrades)
	fmt.Fprintf(w, "Buys:          %d\n", r.Stats.Buys)
	fmt.Fprintf(w, "Sells:         %d\n", r.Stats.Sells)
	fmt.Fprintf(w, "Rejected:      %d\n", r.Stats.Rejected)
	fmt.Fprintf(w, "Captured:      %.2f\n", r.Stats.CapturedSpread)

	fmt.Fprintln(w)
	fmt.Fprintln(w, "Performance")
	fmt.Fprintln(w, "--------------------------------------------------")
	fmt.Fprintf(w, "Initial Value: %.2f\n", r.InitialCapital)
	fmt.Fprintf(w, "Final Value:   %.2f\n", r.FinalValue)
	fmt.Fprintf(w, "Return:        %.2f%%\n", r.TotalReturnPct)
	fmt.Fprintf(w, "Base:          %g %s\n", r.Final.Base, r.Pair.Base)
	fmt.Fprintf(w, "Quote:         %.2f %s\n", r.Final.Quote, r.Pair.Quote)
}
