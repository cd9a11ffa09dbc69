package sim

import (
	"errors"
	"fmt"
)

var (
	ErrInsufficientFunds     = errors.New("insufficient funds")
	ErrInsufficientInventory = errors.New("insufficient inventory")
	ErrInvalidOrder          = errors.New("invalid order")
)

// PersistenceError reports a fill that could not be written to the
// journal. The fill was not applied; a pair hitting this must stop trading.
type PersistenceError struct {
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("persist trade record: %v", e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }

// IsRejection reports whether err is a fill rejected by a balance or
// validity check. Rejections leave the ledger unchanged and are not fatal.
func IsRejection(err error) bool {
	return errors.Is(err, ErrInsufficientFunds) ||
		errors.Is(err, ErrInsufficientInventory) ||
		errors.Is(err, ErrInvalidOrder)
}
