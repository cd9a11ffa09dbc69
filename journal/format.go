package journal

import (
	"fmt"
	"strings"
	"time"
)

// FormatTradeOrg renders a TradeRecord as an Org-mode block with the
// structured facts in a PROPERTIES drawer.
func FormatTradeOrg(t TradeRecord) string {
	var b strings.Builder
	fmt.Fprintf(&b, "** %s %s %g @ %g (%s)\n", t.Side, t.Pair, t.Amount, t.Price, shortID(t.TradeID))
	b.WriteString(":PROPERTIES:\n")
	fmt.Fprintf(&b, ":TRADE_ID: %s\n", t.TradeID)
	fmt.Fprintf(&b, ":PAIR: %s\n", t.Pair)
	fmt.Fprintf(&b, ":TIME: %s\n", t.Time.UTC().Format(time.RFC3339Nano))
	fmt.Fprintf(&b, ":EVENT_TYPE: %s\n", t.Side)
	fmt.Fprintf(&b, ":PRICE: %s\n", f(t.Price))
	fmt.Fprintf(&b, ":AMOUNT: %s\n", f(t.Amount))
	fmt.Fprintf(&b, ":BASE_INVENTORY: %s\n", f(t.Base))
	fmt.Fprintf(&b, ":QUOTE_INVENTORY: %s\n", f(t.Quote))
	fmt.Fprintf(&b, ":TOTAL_VALUE: %.2f\n", t.TotalValue)
	b.WriteString(":END:\n")
	return b.String()
}

// FormatTradesOrg renders multiple trades separated by blank lines.
func FormatTradesOrg(trades []TradeRecord) string {
	var b strings.Builder
	for i, t := range trades {
		if i > 0 {
			b.WriteString("\n")
		}
		b.WriteString(FormatTradeOrg(t))
	}
	return b.String()
}

func shortID(full string) string {
	if len(full) <= 8 {
		return full
	}
	return full[len(full)-8:]
}
