package strategy

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/sync/errgroup"
)

// Fleet runs one loop per pair. A pair that stops does not stop the others.
type Fleet struct {
	loops []*Loop
}

func NewFleet(loops ...*Loop) *Fleet {
	return &Fleet{loops: loops}
}

func (f *Fleet) Loops() []*Loop { return f.loops }

// Run blocks until every loop has returned and joins their errors. The
// group carries no shared context, so one pair failing leaves the others
// trading.
func (f *Fleet) Run(ctx context.Context) error {
	var g errgroup.Group
	errs := make([]error, len(f.loops))
	for i, l := range f.loops {
		i, l := i, l
		g.Go(func() error {
			if err := l.Run(ctx); err != nil {
				errs[i] = fmt.Errorf("%s: %w", l.Pair(), err)
			}
			return errs[i]
		})
	}
	if err := g.Wait(); err == nil {
		return nil
	}
	return errors.Join(errs...)
}
