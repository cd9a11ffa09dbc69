package backtest

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"
)

// Row is one step of a replayed price series.
type Row struct {
	Time  time.Time // zero when the source has no time column
	Close float64
}

// LoadCSV reads a price series from a CSV file with a header row.
//
// A "close" column is required. The first of "time", "timestamp" or "date"
// found is used for row times, parsed as RFC3339(Nano) or 2006-01-02.
// Other columns are ignored.
func LoadCSV(path string) ([]Row, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	rows, err := ReadCSV(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return rows, nil
}

// ReadCSV is LoadCSV over any reader.
func ReadCSV(r io.Reader) ([]Row, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err == io.EOF {
		return nil, ErrNoPrices
	}
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}

	closeCol, timeCol := -1, -1
	for i, h := range header {
		switch strings.ToLower(strings.TrimSpace(h)) {
		case "close":
			closeCol = i
		case "time", "timestamp", "date":
			if timeCol < 0 {
				timeCol = i
			}
		}
	}
	if closeCol < 0 {
		return nil, fmt.Errorf("no close column in header %v", header)
	}

	var rows []Row
	line := 1
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		line++
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		if len(rec) == 0 || (len(rec) == 1 && strings.TrimSpace(rec[0]) == "") {
			continue
		}
		if closeCol >= len(rec) {
			return nil, fmt.Errorf("line %d: missing close", line)
		}

		var row Row
		row.Close, err = strconv.ParseFloat(strings.TrimSpace(rec[closeCol]), 64)
		if err != nil {
			return nil, fmt.Errorf("line %d: close: %w", line, err)
		}
		if timeCol >= 0 && timeCol < len(rec) {
			row.Time, err = parseTime(rec[timeCol])
			if err != nil {
				return nil, fmt.Errorf("line %d: %w", line, err)
			}
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func parseTime(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, nil
	}
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return t.UTC(), nil
	}
	if t, err := time.Parse("2006-01-02", s); err == nil {
		return t, nil
	}
	return time.Time{}, fmt.Errorf("bad time %q", s)
}
