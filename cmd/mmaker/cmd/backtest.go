package cmd

import (
	"fmt"
	"log/slog"

	"github.com/rustyeddy/marketmaker/backtest"
	"github.com/rustyeddy/marketmaker/config"
	"github.com/rustyeddy/marketmaker/journal"
	"github.com/rustyeddy/marketmaker/market"
	"github.com/rustyeddy/marketmaker/pkg/id"
	"github.com/spf13/cobra"
)

var backtestCmd = &cobra.Command{
	Use:   "backtest",
	Short: "Replay a price series through the market maker",
	Long: `Backtest feeds each close of a CSV price series through the same quoting
and fill code the live loop uses. No network access, no randomness: the
same input and seed always give the same trades.

The CSV needs a header with a "close" column; "time", "timestamp" or
"date" is used for trade times when present.

Example:
  mmaker backtest -p data/btc_daily.csv
  mmaker backtest -p data/eth.csv -f mmaker.yaml --pair ETH/USDT --db bt.sqlite --run eth-jan`,
	RunE: runBacktest,
}

var (
	btPricesPath string
	btConfigPath string
	btPair       string
	btSeed       int64
	btDBPath     string
	btRunID      string
	btShowTrades bool
)

func init() {
	rootCmd.AddCommand(backtestCmd)

	backtestCmd.Flags().StringVarP(&btPricesPath, "prices", "p", "", "CSV price series (required)")
	backtestCmd.Flags().StringVarP(&btConfigPath, "file", "f", "", "config file supplying the pair parameters")
	backtestCmd.Flags().StringVar(&btPair, "pair", "", "pair to replay (default: first configured pair)")
	backtestCmd.Flags().Int64Var(&btSeed, "seed", 1, "seed for trade IDs")
	backtestCmd.Flags().StringVar(&btDBPath, "db", "", "also write trades to this SQLite journal")
	backtestCmd.Flags().StringVar(&btRunID, "run", "", "run ID for trades written with --db (default: backtest-<ulid>)")
	backtestCmd.Flags().BoolVar(&btShowTrades, "trades", false, "print every trade in org format")
	backtestCmd.MarkFlagRequired("prices")
}

func runBacktest(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(btConfigPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	pc, err := selectPair(cfg, btPair)
	if err != nil {
		return err
	}

	rows, err := backtest.LoadCSV(btPricesPath)
	if err != nil {
		return fmt.Errorf("load prices: %w", err)
	}

	r := &backtest.Runner{Seed: btSeed, Logger: slog.Default()}
	runID := ""
	if btDBPath != "" {
		runID = btRunID
		if runID == "" {
			runID = "backtest-" + id.New()
		}
		db, err := journal.NewSQLiteRun(btDBPath, runID)
		if err != nil {
			return fmt.Errorf("open db: %w", err)
		}
		defer db.Close()
		r.Journal = db
	}

	res, err := r.Run(cmd.Context(), rows, pc)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	backtest.PrintResult(out, res)
	if runID != "" {
		fmt.Fprintf(out, "\nTrades saved to %s as run %s\n", btDBPath, runID)
	}
	if btShowTrades {
		fmt.Fprintln(out)
		fmt.Fprintln(out, journal.FormatTradesOrg(res.Trades))
	}
	return nil
}

// selectPair returns the config of the named pair, or the first pair when
// name is empty.
func selectPair(cfg *config.Config, name string) (config.PairConfig, error) {
	if name == "" {
		return cfg.Pairs[0], nil
	}
	want, err := market.ParsePair(name)
	if err != nil {
		return config.PairConfig{}, err
	}
	for _, pc := range cfg.Pairs {
		if p, _ := pc.MarketPair(); p == want {
			return pc, nil
		}
	}
	return config.PairConfig{}, fmt.Errorf("pair %s is not configured", want)
}
