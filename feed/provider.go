package feed

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/buger/jsonparser"
	"github.com/rustyeddy/marketmaker/config"
	"github.com/rustyeddy/marketmaker/market"
	"github.com/shopspring/decimal"
	"golang.org/x/time/rate"
)

// Outcome tags the result of one provider attempt.
type Outcome int

const (
	OK Outcome = iota
	Timeout
	TransportError
	StatusError
	ParseError
)

func (o Outcome) String() string {
	switch o {
	case OK:
		return "ok"
	case Timeout:
		return "timeout"
	case TransportError:
		return "transport_error"
	case StatusError:
		return "status_error"
	case ParseError:
		return "parse_error"
	default:
		return "unknown"
	}
}

// Result is the outcome of asking one provider for a snapshot.
// Snapshot is only meaningful when Outcome is OK.
type Result struct {
	Provider string
	Outcome  Outcome
	Snapshot market.Snapshot
	Err      error
}

// Provider is one market data source in the fallback chain.
type Provider interface {
	Name() string
	Fetch(ctx context.Context, pair market.Pair, spread float64) Result
}

// maxBody bounds how much of a ticker response is read.
const maxBody = 1 << 20

// HTTPProvider polls a JSON ticker endpoint that publishes a last traded
// price as a decimal string. Bid and ask are synthesized around it.
type HTTPProvider struct {
	name    string
	url     string
	path    []string
	client  *http.Client
	limiter *rate.Limiter
	now     func() time.Time
}

// NewHTTPProvider builds a provider from its config. A RatePerSecond of
// zero leaves the provider unthrottled.
func NewHTTPProvider(cfg config.ProviderConfig, client *http.Client) *HTTPProvider {
	if client == nil {
		client = NewClient(30 * time.Second)
	}
	p := &HTTPProvider{
		name:   cfg.Name,
		url:    cfg.URL,
		path:   strings.Split(cfg.PricePath, "."),
		client: client,
		now:    time.Now,
	}
	if cfg.RatePerSecond > 0 {
		p.limiter = rate.NewLimiter(rate.Limit(cfg.RatePerSecond), 1)
	}
	return p
}

// NewClient returns the http.Client shared by providers. Its timeout is a
// backstop; each attempt also runs under the feed's context deadline.
func NewClient(timeout time.Duration) *http.Client {
	return &http.Client{Timeout: timeout}
}

func (p *HTTPProvider) Name() string { return p.name }

// URL expands the {base} and {quote} placeholders for pair.
func (p *HTTPProvider) URL(pair market.Pair) string {
	return strings.NewReplacer("{base}", pair.Base, "{quote}", pair.Quote).Replace(p.url)
}

func (p *HTTPProvider) Fetch(ctx context.Context, pair market.Pair, spread float64) Result {
	res := Result{Provider: p.name}
	fail := func(o Outcome, err error) Result {
		res.Outcome = o
		res.Err = err
		return res
	}

	if p.limiter != nil {
		if err := p.limiter.Wait(ctx); err != nil {
			// Wait fails early when the next token lies past the deadline.
			return fail(Timeout, fmt.Errorf("rate limit: %w", err))
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.URL(pair), nil)
	if err != nil {
		return fail(TransportError, err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return fail(classify(ctx, err), err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBody))
	if err != nil {
		return fail(classify(ctx, err), fmt.Errorf("read body: %w", err))
	}
	if resp.StatusCode != http.StatusOK {
		return fail(StatusError, fmt.Errorf("status %d", resp.StatusCode))
	}

	last, err := p.parse(body)
	if err != nil {
		return fail(ParseError, err)
	}

	res.Outcome = OK
	res.Snapshot = market.FromLast(pair, last, spread, p.now(), p.name)
	return res
}

// parse extracts the price at path; both JSON strings and numbers are
// accepted.
func (p *HTTPProvider) parse(body []byte) (float64, error) {
	v, typ, _, err := jsonparser.Get(body, p.path...)
	if err != nil {
		return 0, fmt.Errorf("price %s: %w", strings.Join(p.path, "."), err)
	}
	if typ != jsonparser.String && typ != jsonparser.Number {
		return 0, fmt.Errorf("price %s: unexpected %v", strings.Join(p.path, "."), typ)
	}
	d, err := decimal.NewFromString(string(v))
	if err != nil {
		return 0, fmt.Errorf("price %q: %w", v, err)
	}
	if !d.IsPositive() {
		return 0, fmt.Errorf("price %q must be positive", v)
	}
	return d.InexactFloat64(), nil
}

func classify(ctx context.Context, err error) Outcome {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return Timeout
	}
	var ne net.Error
	if errors.As(err, &ne) && ne.Timeout() {
		return Timeout
	}
	return TransportError
}
