package strategy

import (
	"context"
	"os"
	"strings"

	"github.com/rustyeddy/marketmaker/market"
)

// Advisor supplies free-form advisory text for a pair, such as a market
// thesis. The loop only logs it; it never changes quotes or fills.
type Advisor interface {
	Advice(ctx context.Context, pair market.Pair) (string, error)
}

// FileAdvisor re-reads a text file on every call so the advice can be
// edited while the loop runs.
type FileAdvisor struct {
	Path string
}

func (a FileAdvisor) Advice(ctx context.Context, pair market.Pair) (string, error) {
	b, err := os.ReadFile(a.Path)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(b)), nil
}
