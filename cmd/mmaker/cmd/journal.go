package cmd

import (
	"fmt"
	"time"

	"github.com/rustyeddy/marketmaker/journal"
	"github.com/rustyeddy/marketmaker/market"
	"github.com/spf13/cobra"
)

var journalCmd = &cobra.Command{
	Use:   "journal",
	Short: "Query trade journal data",
	Long: `Query and display trade records from a SQLite journal.

Subcommands:
  trade  - Get details of a specific trade by ID
  list   - List trades, optionally by pair and day range
  runs   - List the run IDs stored in the database

Live fills are stored under the run "live"; each backtest written with
--db gets its own run. Use --run to pick one.

Examples:
  mmaker journal trade 01HV...
  mmaker journal list --pair BTC/USDT --from 2024-01-15 --to 2024-01-16
  mmaker journal list --run backtest-01HV...`,
}

var journalTradeCmd = &cobra.Command{
	Use:   "trade <trade-id>",
	Short: "Get details of a specific trade",
	Args:  cobra.ExactArgs(1),
	RunE:  runJournalTrade,
}

var journalListCmd = &cobra.Command{
	Use:   "list",
	Short: "List trades in fill order",
	Args:  cobra.NoArgs,
	RunE:  runJournalList,
}

var journalRunsCmd = &cobra.Command{
	Use:   "runs",
	Short: "List run IDs",
	Args:  cobra.NoArgs,
	RunE:  runJournalRuns,
}

var (
	journalDBPath string
	journalRunID  string
	journalPair   string
	journalFrom   string
	journalTo     string
)

func init() {
	rootCmd.AddCommand(journalCmd)
	journalCmd.AddCommand(journalTradeCmd)
	journalCmd.AddCommand(journalListCmd)
	journalCmd.AddCommand(journalRunsCmd)

	journalCmd.PersistentFlags().StringVarP(&journalDBPath, "db", "d", "./mmaker.sqlite", "path to SQLite journal DB")
	journalCmd.PersistentFlags().StringVar(&journalRunID, "run", journal.LiveRun, "run ID to query")
	journalListCmd.Flags().StringVar(&journalPair, "pair", "", "only this pair")
	journalListCmd.Flags().StringVar(&journalFrom, "from", "", "first day, YYYY-MM-DD (UTC)")
	journalListCmd.Flags().StringVar(&journalTo, "to", "", "day after the last day, YYYY-MM-DD (UTC)")
}

func runJournalTrade(cmd *cobra.Command, args []string) error {
	j, err := journal.NewSQLiteRun(journalDBPath, journalRunID)
	if err != nil {
		return fmt.Errorf("open db: %w", err)
	}
	defer j.Close()

	rec, err := j.GetTrade(args[0])
	if err != nil {
		return fmt.Errorf("get trade: %w", err)
	}

	fmt.Fprintln(cmd.OutOrStdout(), journal.FormatTradeOrg(rec))
	return nil
}

func runJournalList(cmd *cobra.Command, args []string) error {
	var pair market.Pair
	if journalPair != "" {
		p, err := market.ParsePair(journalPair)
		if err != nil {
			return err
		}
		pair = p
	}
	from, err := parseDay(journalFrom)
	if err != nil {
		return fmt.Errorf("from: %w", err)
	}
	to, err := parseDay(journalTo)
	if err != nil {
		return fmt.Errorf("to: %w", err)
	}

	j, err := journal.NewSQLiteRun(journalDBPath, journalRunID)
	if err != nil {
		return fmt.Errorf("open db: %w", err)
	}
	defer j.Close()

	recs, err := j.ListTrades(pair, from, to)
	if err != nil {
		return fmt.Errorf("query trades: %w", err)
	}

	fmt.Fprintln(cmd.OutOrStdout(), journal.FormatTradesOrg(recs))
	return nil
}

func runJournalRuns(cmd *cobra.Command, args []string) error {
	j, err := journal.NewSQLite(journalDBPath)
	if err != nil {
		return fmt.Errorf("open db: %w", err)
	}
	defer j.Close()

	runs, err := j.ListRuns()
	if err != nil {
		return fmt.Errorf("query runs: %w", err)
	}
	for _, r := range runs {
		fmt.Fprintln(cmd.OutOrStdout(), r)
	}
	return nil
}

// parseDay reads YYYY-MM-DD as midnight UTC. Empty gives the zero time.
func parseDay(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	return time.Parse("2006-01-02", s)
}
