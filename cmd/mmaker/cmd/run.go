package cmd

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/rustyeddy/marketmaker/config"
	"github.com/rustyeddy/marketmaker/feed"
	"github.com/rustyeddy/marketmaker/journal"
	"github.com/rustyeddy/marketmaker/market"
	"github.com/rustyeddy/marketmaker/sim"
	"github.com/rustyeddy/marketmaker/strategy"
	"github.com/spf13/cobra"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the market making loop for every configured pair",
	Long: `Run polls market data for each configured pair, quotes both sides,
simulates the fills and journals them until interrupted (SIGINT/SIGTERM).

Without a config file the default BTC/USDT and ETH/USDT pairs are used.

Example:
  mmaker run -f mmaker.yaml
  mmaker run --iterations 10 --advice-file thesis.txt`,
	RunE: runRun,
}

var (
	runConfigPath string
	runIterations int
	runAdvicePath string
)

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().StringVarP(&runConfigPath, "file", "f", "", "path to config file (YAML or JSON)")
	runCmd.Flags().IntVarP(&runIterations, "iterations", "n", 0, "stop each pair after n iterations (0 runs until interrupted)")
	runCmd.Flags().StringVar(&runAdvicePath, "advice-file", "", "text file with advisory notes, re-read every iteration")
}

func loadConfig(path string) (*config.Config, error) {
	if path == "" {
		return config.Default(), nil
	}
	return config.LoadFromFile(path)
}

func runRun(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(runConfigPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	// The config file sets logging unless the flags were given explicitly.
	flags := cmd.Root().PersistentFlags()
	if !flags.Changed("log-level") && !flags.Changed("log-format") {
		lg, err := newLogger(os.Stderr, cfg.Log.Level, cfg.Log.Format)
		if err != nil {
			return err
		}
		slog.SetDefault(lg)
	}
	log := slog.Default()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	sinks, err := openJournals(cfg)
	if err != nil {
		return err
	}
	defer func() {
		if err := sinks.Close(); err != nil {
			log.Error("close journal", slog.Any("error", err))
		}
	}()

	f := feed.FromConfig(cfg.Feed, cfg.FeedTimeout(), feed.WithLogger(log))

	var opts []strategy.Option
	opts = append(opts,
		strategy.WithLogger(log),
		strategy.WithTiming(cfg.Interval(), cfg.ErrorBackoff()),
		strategy.WithMaxIterations(runIterations))
	if runAdvicePath != "" {
		opts = append(opts, strategy.WithAdvisor(strategy.FileAdvisor{Path: runAdvicePath}))
	}

	loops := make([]*strategy.Loop, 0, len(cfg.Pairs))
	for _, pc := range cfg.Pairs {
		pair, _ := pc.MarketPair()
		ledger, err := sim.NewLedger(pc.InitialBase, pc.TotalCapital)
		if err != nil {
			return fmt.Errorf("%s: %w", pair, err)
		}
		s := sim.NewSimulator(pair, ledger, sinks.For(pair), sim.WithLogger(log))
		l, err := strategy.NewLoop(pc, f, s, opts...)
		if err != nil {
			return err
		}
		loops = append(loops, l)
	}

	runErr := strategy.NewFleet(loops...).Run(ctx)
	printSummary(cmd.OutOrStdout(), loops)
	return runErr
}

func printSummary(w io.Writer, loops []*strategy.Loop) {
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Final Results:")
	for _, l := range loops {
		st := l.Simulator().Stats()
		inv := l.Simulator().Inventory()
		fmt.Fprintf(w, "  %s: %d iterations, %d buys, %d sells, %d rejected\n",
			l.Pair(), l.Iterations(), st.Buys, st.Sells, st.Rejected)
		fmt.Fprintf(w, "    Base: %g %s  Quote: %.2f %s  Captured: %.2f\n",
			inv.Base, l.Pair().Base, inv.Quote, l.Pair().Quote, st.CapturedSpread)
	}
}

// journals hands each pair its audit sink and closes them all at the end.
type journals struct {
	byPair map[market.Pair]journal.Journal
	shared journal.Journal
	owned  []journal.Journal
}

func (j *journals) For(pair market.Pair) journal.Journal {
	if s, ok := j.byPair[pair]; ok {
		return s
	}
	return journal.NopCloser(j.shared)
}

func (j *journals) Close() error {
	var first error
	for _, o := range j.owned {
		if err := o.Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}

// openJournals opens one CSV file per pair, or one SQLite database shared
// by every pair.
func openJournals(cfg *config.Config) (*journals, error) {
	js := &journals{byPair: map[market.Pair]journal.Journal{}}

	switch cfg.Journal.Type {
	case "sqlite":
		db, err := journal.NewSQLite(cfg.Journal.DBPath)
		if err != nil {
			return nil, fmt.Errorf("create journal: %w", err)
		}
		js.shared = journal.Synchronized(db)
		js.owned = append(js.owned, js.shared)
	default:
		if err := os.MkdirAll(cfg.Journal.Dir, 0755); err != nil {
			return nil, fmt.Errorf("create journal dir: %w", err)
		}
		for _, pc := range cfg.Pairs {
			pair, _ := pc.MarketPair()
			c, err := journal.NewCSV(csvPath(cfg.Journal.Dir, pair))
			if err != nil {
				_ = js.Close()
				return nil, fmt.Errorf("create journal: %w", err)
			}
			js.byPair[pair] = c
			js.owned = append(js.owned, c)
		}
	}
	return js, nil
}

// csvPath names a pair's audit file, e.g. market_making_BTC-USDT.csv.
func csvPath(dir string, pair market.Pair) string {
	return filepath.Join(dir, "market_making_"+pair.Join("-")+".csv")
}

