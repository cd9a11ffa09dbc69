// journal/csv.go
package journal

import (
	"encoding/csv"
	"fmt"
	"os"
	"strconv"
	"time"
)

// CSVJournal appends trade records to a single CSV file.
type CSVJournal struct {
	w *csv.Writer
	f *os.File
}

// NewCSV opens path for append, creating it if needed. The header is
// written only when the file is empty, so reopening an existing journal
// keeps a single header line.
func NewCSV(path string) (*CSVJournal, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, err
	}
	st, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, err
	}

	w := csv.NewWriter(f)
	if st.Size() == 0 {
		if err := w.Write(Header); err != nil {
			f.Close()
			return nil, err
		}
		w.Flush()
		if err := w.Error(); err != nil {
			f.Close()
			return nil, err
		}
	}

	return &CSVJournal{w: w, f: f}, nil
}

func (j *CSVJournal) Record(t TradeRecord) error {
	err := j.w.Write([]string{
		t.Time.UTC().Format(time.RFC3339Nano),
		t.Side.String(),
		f(t.Price),
		f(t.Amount),
		f(t.Base),
		f(t.Quote),
		f(t.TotalValue),
	})
	if err != nil {
		return fmt.Errorf("csv journal: %w", err)
	}
	return j.Flush()
}

func (j *CSVJournal) Flush() error {
	j.w.Flush()
	if err := j.w.Error(); err != nil {
		return fmt.Errorf("csv journal: %w", err)
	}
	return nil
}

func (j *CSVJournal) Close() error {
	if err := j.Flush(); err != nil {
		j.f.Close()
		return err
	}
	return j.f.Close()
}

func f(x float64) string {
	return strconv.FormatFloat(x, 'f', -1, 64)
}
