package cmd

import (
	"bytes"
	"encoding/csv"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/rustyeddy/marketmaker/config"
	"github.com/rustyeddy/marketmaker/journal"
	"github.com/rustyeddy/marketmaker/market"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(append([]string{"--log-level", "error"}, args...))
	err := rootCmd.Execute()
	return out.String(), err
}

func TestNewLogger(t *testing.T) {
	var buf bytes.Buffer
	lg, err := newLogger(&buf, "warn", "json")
	require.NoError(t, err)
	lg.Info("hidden")
	lg.Warn("shown")
	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), `"msg":"shown"`)

	_, err = newLogger(&buf, "trace", "text")
	assert.Error(t, err)
	_, err = newLogger(&buf, "info", "xml")
	assert.Error(t, err)
}

func TestCSVPath(t *testing.T) {
	assert.Equal(t, filepath.Join("out", "market_making_BTC-USDT.csv"),
		csvPath("out", market.MustPair("BTC/USDT")))
}

func TestSelectPair(t *testing.T) {
	cfg := config.Default()

	pc, err := selectPair(cfg, "")
	require.NoError(t, err)
	assert.Equal(t, "BTC/USDT", pc.Pair)

	pc, err = selectPair(cfg, "eth-usdt")
	require.NoError(t, err)
	assert.Equal(t, 5000.0, pc.TotalCapital)

	_, err = selectPair(cfg, "SOL/USDT")
	assert.Error(t, err)
}

func TestParseDay(t *testing.T) {
	d, err := parseDay("2024-01-15")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC), d)

	d, err = parseDay("")
	require.NoError(t, err)
	assert.True(t, d.IsZero())

	_, err = parseDay("15/01/2024")
	assert.Error(t, err)
}

func TestOpenJournalsCSV(t *testing.T) {
	cfg := config.Default()
	cfg.Journal.Dir = filepath.Join(t.TempDir(), "journal")

	js, err := openJournals(cfg)
	require.NoError(t, err)
	require.NoError(t, js.Close())

	for _, name := range []string{"market_making_BTC-USDT.csv", "market_making_ETH-USDT.csv"} {
		_, err := os.Stat(filepath.Join(cfg.Journal.Dir, name))
		assert.NoError(t, err, name)
	}
}

func TestOpenJournalsSQLiteShared(t *testing.T) {
	cfg := config.Default()
	cfg.Journal = config.JournalConfig{Type: "sqlite", DBPath: filepath.Join(t.TempDir(), "mm.sqlite")}

	js, err := openJournals(cfg)
	require.NoError(t, err)

	btc := js.For(market.MustPair("BTC/USDT"))
	require.NoError(t, btc.Record(journal.TradeRecord{
		TradeID: "a", Pair: market.MustPair("BTC/USDT"), Time: time.Unix(1, 0).UTC(),
		Side: market.Buy, Price: 1, Amount: 1,
	}))
	// A pair closing its sink must not close the shared database.
	require.NoError(t, btc.Close())
	require.NoError(t, js.For(market.MustPair("ETH/USDT")).Record(journal.TradeRecord{
		TradeID: "b", Pair: market.MustPair("ETH/USDT"), Time: time.Unix(2, 0).UTC(),
		Side: market.Sell, Price: 1, Amount: 1,
	}))
	require.NoError(t, js.Close())

	db, err := journal.NewSQLite(cfg.Journal.DBPath)
	require.NoError(t, err)
	defer db.Close()
	recs, err := db.ListTrades(market.Pair{}, time.Time{}, time.Time{})
	require.NoError(t, err)
	assert.Len(t, recs, 2)
}

func TestConfigInitAndValidate(t *testing.T) {
	path := filepath.Join(t.TempDir(), "mm.yaml")

	out, err := execute(t, "config", "init", "-o", path)
	require.NoError(t, err)
	assert.Contains(t, out, "Created default configuration")

	out, err = execute(t, "config", "validate", "-f", path)
	require.NoError(t, err)
	assert.Contains(t, out, "Pair: BTC/USDT")
	assert.Contains(t, out, "Provider: coinbase")
}

func writePrices(t *testing.T) string {
	t.Helper()
	prices := filepath.Join(t.TempDir(), "prices.csv")
	require.NoError(t, os.WriteFile(prices, []byte("date,close\n2024-01-01,42000\n2024-01-02,42500\n"), 0644))
	return prices
}

func TestBacktestCommand(t *testing.T) {
	prices := writePrices(t)
	db := filepath.Join(t.TempDir(), "bt.sqlite")

	out, err := execute(t, "backtest", "-p", prices, "--db", db, "--run", "bt-a", "--trades")
	require.NoError(t, err)
	assert.Contains(t, out, "Pair:          BTC/USDT")
	assert.Contains(t, out, "Trades:        4")
	assert.Contains(t, out, "** BUY BTC/USDT")
	assert.Contains(t, out, "as run bt-a")

	out, err = execute(t, "journal", "list", "-d", db, "--run", "bt-a", "--pair", "BTC/USDT", "--from", "2024-01-02")
	require.NoError(t, err)
	assert.Contains(t, out, "** SELL BTC/USDT")

	out, err = execute(t, "journal", "list", "-d", db, "--run", journal.LiveRun, "--from=", "--pair=")
	require.NoError(t, err)
	assert.NotContains(t, out, "BTC/USDT", "backtest fills stay out of the live run")
}

func TestBacktestTwiceIntoOneDB(t *testing.T) {
	prices := writePrices(t)
	db := filepath.Join(t.TempDir(), "bt.sqlite")

	for i := 0; i < 2; i++ {
		_, err := execute(t, "backtest", "-p", prices, "--db", db, "--run=", "--seed", "1")
		require.NoError(t, err, "run %d", i+1)
	}

	j, err := journal.NewSQLite(db)
	require.NoError(t, err)
	defer j.Close()
	runs, err := j.ListRuns()
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.NotEqual(t, runs[0], runs[1])

	for _, run := range runs {
		assert.True(t, strings.HasPrefix(run, "backtest-"), run)
		rj, err := journal.NewSQLiteRun(db, run)
		require.NoError(t, err)
		recs, err := rj.ListTrades(market.Pair{}, time.Time{}, time.Time{})
		require.NoError(t, err)
		assert.Len(t, recs, 4)
		require.NoError(t, rj.Close())
	}

	out, err := execute(t, "journal", "runs", "-d", db)
	require.NoError(t, err)
	assert.Contains(t, out, runs[0])
	assert.Contains(t, out, runs[1])
}

func TestRunCommandOneIteration(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"data":{"amount":"50000"}}`))
	}))
	defer srv.Close()

	dir := t.TempDir()
	cfg := config.Default()
	cfg.Pairs = cfg.Pairs[:1]
	cfg.Feed.Providers = []config.ProviderConfig{{Name: "local", URL: srv.URL, PricePath: "data.amount"}}
	cfg.Journal.Dir = filepath.Join(dir, "journal")
	cfg.Log.Level = "error"
	path := filepath.Join(dir, "mm.json")
	require.NoError(t, cfg.SaveToFile(path))

	out, err := execute(t, "run", "-f", path, "-n", "1")
	require.NoError(t, err)
	assert.Contains(t, out, "BTC/USDT: 1 iterations, 1 buys, 1 sells, 0 rejected")

	f, err := os.Open(filepath.Join(cfg.Journal.Dir, "market_making_BTC-USDT.csv"))
	require.NoError(t, err)
	defer f.Close()
	rows, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, journal.Header, rows[0])
	assert.Equal(t, "BUY", rows[1][1])
	assert.Equal(t, "SELL", rows[2][1])
}

func TestVersion(t *testing.T) {
	out, err := execute(t, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "mmaker version")
}
