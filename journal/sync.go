package journal

import (
	"errors"
	"sync"
)

type synchronized struct {
	mu sync.Mutex
	j  Journal
}

// Synchronized serializes access to a journal shared by several pairs.
// Records from one pair keep their order; no order is imposed across pairs.
func Synchronized(j Journal) Journal {
	return &synchronized{j: j}
}

func (s *synchronized) Record(t TradeRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.j.Record(t)
}

func (s *synchronized) Flush() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.j.Flush()
}

func (s *synchronized) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.j.Close()
}

// NopCloser hides Close so that several owners can share one journal and
// the real Close is left to whoever opened it.
func NopCloser(j Journal) Journal {
	return nopCloser{j}
}

type nopCloser struct {
	Journal
}

func (nopCloser) Close() error { return nil }

// Tee writes every record to each journal in order and stops at the first
// error.
func Tee(js ...Journal) Journal {
	return tee(js)
}

type tee []Journal

func (t tee) Record(r TradeRecord) error {
	for _, j := range t {
		if err := j.Record(r); err != nil {
			return err
		}
	}
	return nil
}

func (t tee) Flush() error {
	var errs []error
	for _, j := range t {
		errs = append(errs, j.Flush())
	}
	return errors.Join(errs...)
}

func (t tee) Close() error {
	var errs []error
	for _, j := range t {
		errs = append(errs, j.Close())
	}
	return errors.Join(errs...)
}
