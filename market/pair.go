package market

import (
	"fmt"
	"strings"
)

// Pair is a tradable instrument such as BTC/USDT.
type Pair struct {
	Base  string
	Quote string
}

// ParsePair accepts "BTC/USDT", "BTC-USDT" or "BTC_USDT".
func ParsePair(s string) (Pair, error) {
	s = strings.TrimSpace(s)
	for _, sep := range []string{"/", "-", "_"} {
		if base, quote, ok := strings.Cut(s, sep); ok {
			base = strings.ToUpper(strings.TrimSpace(base))
			quote = strings.ToUpper(strings.TrimSpace(quote))
			if base == "" || quote == "" {
				break
			}
			return Pair{Base: base, Quote: quote}, nil
		}
	}
	return Pair{}, fmt.Errorf("invalid pair %q (want BASE/QUOTE)", s)
}

// MustPair is ParsePair for literals.
func MustPair(s string) Pair {
	p, err := ParsePair(s)
	if err != nil {
		panic(err)
	}
	return p
}

func (p Pair) String() string {
	return p.Base + "/" + p.Quote
}

// Join renders the pair with an arbitrary separator, e.g. Join("-") or Join("").
func (p Pair) Join(sep string) string {
	return p.Base + sep + p.Quote
}

func (p Pair) IsZero() bool {
	return p.Base == "" && p.Quote == ""
}
