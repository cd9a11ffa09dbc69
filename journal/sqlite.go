package journal

import (
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
)

// LiveRun is the run ID of fills written by the live loop.
const LiveRun = "live"

// SQLiteJournal writes and reads the fills of one run.
type SQLiteJournal struct {
	db  *sql.DB
	run string
}

// NewSQLite opens the journal of the live run.
func NewSQLite(path string) (*SQLiteJournal, error) {
	return NewSQLiteRun(path, LiveRun)
}

// NewSQLiteRun opens the journal scoped to run. Trade IDs only need to be
// unique within a run.
func NewSQLiteRun(path, run string) (*SQLiteJournal, error) {
	if run == "" {
		return nil, fmt.Errorf("sqlite journal: empty run id")
	}
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}

	if _, err := db.Exec(Schema); err != nil {
		db.Close()
		return nil, err
	}

	return &SQLiteJournal{db: db, run: run}, nil
}

func (j *SQLiteJournal) Record(t TradeRecord) error {
	_, err := j.db.Exec(`
		INSERT INTO fills
		(run_id, trade_id, pair, time, event_type, price, amount, base_inventory, quote_inventory, total_value)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		j.run, t.TradeID, t.Pair.String(), t.Time.UTC(), t.Side.String(), t.Price,
		t.Amount, t.Base, t.Quote, t.TotalValue,
	)
	if err != nil {
		return fmt.Errorf("sqlite journal: %w", err)
	}
	return nil
}

func (j *SQLiteJournal) Run() string { return j.run }

// Flush is a no-op; every Record is its own committed statement.
func (j *SQLiteJournal) Flush() error { return nil }

func (j *SQLiteJournal) Close() error {
	return j.db.Close()
}
