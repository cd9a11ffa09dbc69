package journal

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/rustyeddy/marketmaker/market"
)

const selectFills = `
	SELECT trade_id, pair, time, event_type, price, amount, base_inventory, quote_inventory, total_value
	FROM fills`

type scanner interface {
	Scan(dest ...any) error
}

func scanRecord(s scanner) (TradeRecord, error) {
	var (
		rec        TradeRecord
		pair, side string
	)
	err := s.Scan(
		&rec.TradeID,
		&pair,
		&rec.Time,
		&side,
		&rec.Price,
		&rec.Amount,
		&rec.Base,
		&rec.Quote,
		&rec.TotalValue,
	)
	if err != nil {
		return TradeRecord{}, err
	}
	if rec.Pair, err = market.ParsePair(pair); err != nil {
		return TradeRecord{}, err
	}
	if rec.Side, err = market.ParseSide(side); err != nil {
		return TradeRecord{}, err
	}
	return rec, nil
}

// GetTrade returns a single trade record of the journal's run by ID.
func (j *SQLiteJournal) GetTrade(tradeID string) (TradeRecord, error) {
	row := j.db.QueryRow(selectFills+` WHERE run_id = ? AND trade_id = ?`, j.run, tradeID)

	rec, err := scanRecord(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return TradeRecord{}, fmt.Errorf("trade %q not found", tradeID)
		}
		return TradeRecord{}, err
	}
	return rec, nil
}

// ListTrades returns the run's fills within [start, end) in fill order. A zero pair
// matches every pair; zero times leave that side of the range open.
func (j *SQLiteJournal) ListTrades(pair market.Pair, start, end time.Time) ([]TradeRecord, error) {
	q := selectFills + ` WHERE run_id = ?`
	args := []any{j.run}
	if !pair.IsZero() {
		q += ` AND pair = ?`
		args = append(args, pair.String())
	}
	if !start.IsZero() {
		q += ` AND time >= ?`
		args = append(args, start.UTC())
	}
	if !end.IsZero() {
		q += ` AND time < ?`
		args = append(args, end.UTC())
	}
	q += ` ORDER BY time ASC, rowid ASC`

	rows, err := j.db.Query(q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []TradeRecord
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// ListRuns returns every run ID in the database, in the order each run
// first wrote a fill.
func (j *SQLiteJournal) ListRuns() ([]string, error) {
	rows, err := j.db.Query(`SELECT run_id FROM fills GROUP BY run_id ORDER BY MIN(rowid)`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var run string
		if err := rows.Scan(&run); err != nil {
			return nil, err
		}
		out = append(out, run)
	}
	return out, rows.Err()
}
