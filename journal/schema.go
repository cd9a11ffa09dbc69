// journal/schema.go
package journal

// Fills are keyed by run so that live trading and every backtest written
// to the same database keep separate ID spaces.
const Schema = `
CREATE TABLE IF NOT EXISTS fills (
	run_id TEXT NOT NULL,
	trade_id TEXT NOT NULL,
	pair TEXT NOT NULL,
	time DATETIME NOT NULL,
	event_type TEXT NOT NULL,
	price REAL NOT NULL,
	amount REAL NOT NULL,
	base_inventory REAL NOT NULL,
	quote_inventory REAL NOT NULL,
	total_value REAL NOT NULL,
	PRIMARY KEY (run_id, trade_id)
);

CREATE INDEX IF NOT EXISTS idx_fills_run_pair_time ON fills(run_id, pair, time);
`
