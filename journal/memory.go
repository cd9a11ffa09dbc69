package journal

import "sync"

// Memory keeps records in a slice. Backtests and tests use it.
type Memory struct {
	mu      sync.Mutex
	records []TradeRecord
	closed  bool
}

func NewMemory() *Memory {
	return &Memory{}
}

func (m *Memory) Record(t TradeRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records = append(m.records, t)
	return nil
}

func (m *Memory) Flush() error { return nil }

func (m *Memory) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}

// Records returns a copy of everything recorded so far.
func (m *Memory) Records() []TradeRecord {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]TradeRecord, len(m.records))
	copy(out, m.records)
	return out
}
